package models

import (
	"strings"
	"time"
)

// OpportunityStatus is a kanban stage of the sales pipeline.
type OpportunityStatus string

const (
	StatusOfferSent      OpportunityStatus = "Teklif verildi"
	StatusOfferDiscussed OpportunityStatus = "Teklif görüşüldü"
	StatusOfferDetailed  OpportunityStatus = "Teklif detaylandırıldı"
	StatusNearlyDone     OpportunityStatus = "Bitmeye çok yakın"
	StatusDone           OpportunityStatus = "Bitti"
)

// Pipeline lists the stages in board order. The last one is terminal.
var Pipeline = []OpportunityStatus{
	StatusOfferSent,
	StatusOfferDiscussed,
	StatusOfferDetailed,
	StatusNearlyDone,
	StatusDone,
}

func (s OpportunityStatus) Valid() bool {
	for _, p := range Pipeline {
		if p == s {
			return true
		}
	}
	return false
}

func (s OpportunityStatus) IsTerminal() bool {
	return s == StatusDone
}

type ContactPerson struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

func (c ContactPerson) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

type TrainingStatus string

const (
	TrainingPending TrainingStatus = "pending"
	TrainingWon     TrainingStatus = "won"
	TrainingLost    TrainingStatus = "lost"
)

// TrainingItem is a priced line of an opportunity. ParticipantCount and
// AssessmentPrice are only meaningful when HasAssessment is set, LossReason
// only when Status is lost.
type TrainingItem struct {
	ID               string         `json:"id"`
	Topic            string         `json:"topic"`
	Type             string         `json:"type"`
	Amount           float64        `json:"amount"`
	Duration         string         `json:"duration"`
	HasAssessment    bool           `json:"hasAssessment"`
	ParticipantCount *int           `json:"participantCount,omitempty"`
	AssessmentPrice  *float64       `json:"assessmentPrice,omitempty"`
	Status           TrainingStatus `json:"status"`
	LossReason       string         `json:"lossReason,omitempty"`
}

// LineTotal is the training amount plus the assessment fee, if any.
func (t TrainingItem) LineTotal() float64 {
	total := t.Amount
	if t.HasAssessment && t.ParticipantCount != nil && t.AssessmentPrice != nil {
		total += float64(*t.ParticipantCount) * *t.AssessmentPrice
	}
	return total
}

type Opportunity struct {
	ID              string            `json:"id"`
	CustomerName    string            `json:"customerName"`
	CreatedAt       time.Time         `json:"createdAt"`
	LastUpdatedAt   *time.Time        `json:"lastUpdatedAt,omitempty"`
	TargetCloseDate string            `json:"targetCloseDate,omitempty"`
	Assignee        string            `json:"assignee,omitempty"`
	Name            string            `json:"name"`
	Contact         ContactPerson     `json:"contact"`
	Trainings       []TrainingItem    `json:"trainings"`
	Activities      []Activity        `json:"activities"`
	Tasks           []OppTask         `json:"tasks"`
	TotalAmount     float64           `json:"totalAmount"`
	Notes           string            `json:"notes,omitempty"` // legacy, superseded by Activities
	Status          OpportunityStatus `json:"status"`
}

// ComputeTotal sums the line totals. It is only used when an opportunity is
// created; the stored TotalAmount is a snapshot afterwards.
func ComputeTotal(trainings []TrainingItem) float64 {
	var sum float64
	for _, t := range trainings {
		sum += t.LineTotal()
	}
	return sum
}

// LastTouched returns LastUpdatedAt, falling back to CreatedAt for rows
// written before the field existed.
func (o *Opportunity) LastTouched() time.Time {
	if o.LastUpdatedAt != nil && !o.LastUpdatedAt.IsZero() {
		return *o.LastUpdatedAt
	}
	return o.CreatedAt
}

// VisibleNotes returns the legacy free-text notes only while there is no
// structured activity to show instead.
func (o *Opportunity) VisibleNotes() string {
	if len(o.Activities) > 0 {
		return ""
	}
	return o.Notes
}

// PendingTrainings counts trainings that have not been resolved yet.
func (o *Opportunity) PendingTrainings() int {
	n := 0
	for _, t := range o.Trainings {
		if t.Status == TrainingPending || t.Status == "" {
			n++
		}
	}
	return n
}

// TargetCloseDay normalizes TargetCloseDate to a YYYY-MM-DD string in loc.
// Date-only values are taken as-is; timestamps are converted to the local
// calendar day. Unparseable or empty values yield "".
func (o *Opportunity) TargetCloseDay(loc *time.Location) string {
	v := strings.TrimSpace(o.TargetCloseDate)
	if v == "" {
		return ""
	}
	if loc == nil {
		loc = time.Local
	}
	if d, err := time.ParseInLocation(DateLayout, v, loc); err == nil {
		return d.Format(DateLayout)
	}
	if ts, err := time.Parse(time.RFC3339, v); err == nil {
		return ts.In(loc).Format(DateLayout)
	}
	return ""
}

// DateLayout is the calendar-day format used for target close dates.
const DateLayout = "2006-01-02"

// Clone returns a deep copy.
func (o Opportunity) Clone() Opportunity {
	c := o
	if o.LastUpdatedAt != nil {
		t := *o.LastUpdatedAt
		c.LastUpdatedAt = &t
	}
	if o.Trainings != nil {
		c.Trainings = make([]TrainingItem, len(o.Trainings))
		for i, t := range o.Trainings {
			c.Trainings[i] = t.clone()
		}
	}
	if o.Activities != nil {
		c.Activities = append([]Activity(nil), o.Activities...)
	}
	if o.Tasks != nil {
		c.Tasks = append([]OppTask(nil), o.Tasks...)
	}
	return c
}

func (t TrainingItem) clone() TrainingItem {
	c := t
	if t.ParticipantCount != nil {
		n := *t.ParticipantCount
		c.ParticipantCount = &n
	}
	if t.AssessmentPrice != nil {
		p := *t.AssessmentPrice
		c.AssessmentPrice = &p
	}
	return c
}

// CloneAll deep-copies a list.
func CloneAll(list []Opportunity) []Opportunity {
	out := make([]Opportunity, len(list))
	for i := range list {
		out[i] = list[i].Clone()
	}
	return out
}
