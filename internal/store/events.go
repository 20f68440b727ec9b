package store

import (
	"context"
	"time"

	"trainingcrm/internal/utils"
)

type EventType string

const (
	EventChanged  EventType = "opportunities_changed"
	EventReloaded EventType = "opportunities_reloaded"
	EventNotice   EventType = "notice"
)

type Event struct {
	Type   EventType `json:"type"`
	ID     string    `json:"id,omitempty"`
	Notice *Notice   `json:"notice,omitempty"`
}

// Listener observes store changes. It runs on the mutating goroutine, so it
// must return quickly and must not call back into mutations.
type Listener func(Event)

// Subscribe registers l and returns a function that removes it.
func (s *Store) Subscribe(l Listener) func() {
	s.listenersMu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	s.listenersMu.Unlock()
	return func() {
		s.listenersMu.Lock()
		delete(s.listeners, id)
		s.listenersMu.Unlock()
	}
}

func (s *Store) emit(e Event) {
	s.listenersMu.RLock()
	ls := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		ls = append(ls, l)
	}
	s.listenersMu.RUnlock()
	for _, l := range ls {
		l(e)
	}
}

type NoticeKind string

const (
	NoticeInsertFailed NoticeKind = "insert_failed"
)

// Notice is a failure the user should see.
type Notice struct {
	Kind          NoticeKind `json:"kind"`
	OpportunityID string     `json:"opportunityId,omitempty"`
	Message       string     `json:"message"`
	At            time.Time  `json:"at"`
}

// Notifier forwards notices outside the process (chat, mail).
type Notifier interface {
	Notify(ctx context.Context, n Notice) error
}

const notifyTimeout = 15 * time.Second

func (s *Store) raise(n Notice) {
	s.mu.Lock()
	s.notices = append(s.notices, n)
	if len(s.notices) > s.maxNotices {
		s.notices = s.notices[len(s.notices)-s.maxNotices:]
	}
	s.mu.Unlock()

	utils.Log.WithField("id", n.OpportunityID).Warnf("[store] notice: %s", n.Message)
	s.emit(Event{Type: EventNotice, ID: n.OpportunityID, Notice: &n})

	if s.notifier == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if err := s.notifier.Notify(ctx, n); err != nil {
			utils.Log.WithError(err).Warn("[store] notifier failed")
		}
	}()
}
