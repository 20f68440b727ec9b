package models

import (
	"fmt"
	"sort"
	"time"
)

// ActivityType is the closed set of activity kinds. The zero value is not a
// valid type so an unset field never passes for a note.
type ActivityType uint8

const (
	ActivityNote ActivityType = iota + 1
	ActivityEmail
	ActivityCall
	ActivityMeeting
)

var AllActivityTypes = []ActivityType{ActivityNote, ActivityEmail, ActivityCall, ActivityMeeting}

func (t ActivityType) String() string {
	switch t {
	case ActivityNote:
		return "note"
	case ActivityEmail:
		return "email"
	case ActivityCall:
		return "call"
	case ActivityMeeting:
		return "meeting"
	default:
		return fmt.Sprintf("ActivityType(%d)", uint8(t))
	}
}

func (t ActivityType) Valid() bool {
	return t >= ActivityNote && t <= ActivityMeeting
}

func ParseActivityType(s string) (ActivityType, error) {
	for _, t := range AllActivityTypes {
		if t.String() == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown activity type %q", ErrValidation, s)
}

func (t ActivityType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid activity type %d", uint8(t))
	}
	return []byte(t.String()), nil
}

func (t *ActivityType) UnmarshalText(b []byte) error {
	parsed, err := ParseActivityType(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Activity is an append-only log entry on an opportunity.
type Activity struct {
	ID      string       `json:"id"`
	Date    time.Time    `json:"date"`
	Content string       `json:"content"`
	Type    ActivityType `json:"type"`
}

// PrependActivity returns a new slice with a placed first and the whole log
// ordered newest first. Existing entries are not modified.
func PrependActivity(list []Activity, a Activity) []Activity {
	out := make([]Activity, 0, len(list)+1)
	out = append(out, a)
	out = append(out, list...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date)
	})
	return out
}
