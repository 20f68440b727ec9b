package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"trainingcrm/internal/models"
	"trainingcrm/internal/realtime"
	"trainingcrm/internal/utils"
	"trainingcrm/internal/views"
)

// Publisher receives realtime events.
type Publisher interface {
	Publish(e realtime.Event)
}

// StaleWatcher re-evaluates the stale set on a timer. It only reads the
// store: stale is a derived flag and nothing is written back.
type StaleWatcher struct {
	Source    Snapshotter
	Now       func() time.Time
	Interval  time.Duration
	Publisher Publisher
	Messenger Messenger

	mu      sync.Mutex
	current map[string]bool
	seeded  bool
}

func NewStaleWatcher(src Snapshotter, now func() time.Time, interval time.Duration, pub Publisher, msg Messenger) *StaleWatcher {
	if now == nil {
		now = time.Now
	}
	if interval <= 0 {
		interval = time.Minute
	}
	return &StaleWatcher{Source: src, Now: now, Interval: interval, Publisher: pub, Messenger: msg}
}

// Run ticks until ctx is done.
func (w *StaleWatcher) Run(ctx context.Context) {
	t := time.NewTicker(w.Interval)
	defer t.Stop()
	w.Check(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			w.Check(ctx)
		}
	}
}

// Check evaluates the stale set once and returns the opportunities that
// became stale since the previous check. The first check only records the
// starting set.
func (w *StaleWatcher) Check(ctx context.Context) []models.Opportunity {
	list := w.Source.Snapshot()
	now := w.Now()

	next := make(map[string]bool)
	for i := range list {
		if views.IsStale(&list[i], now) {
			next[list[i].ID] = true
		}
	}

	w.mu.Lock()
	prev, seeded := w.current, w.seeded
	w.current, w.seeded = next, true
	w.mu.Unlock()

	var fresh []models.Opportunity
	changed := len(prev) != len(next)
	for i := range list {
		id := list[i].ID
		if next[id] && !prev[id] {
			changed = true
			fresh = append(fresh, list[i])
		}
	}
	if !seeded {
		fresh = nil
	}

	if changed && w.Publisher != nil {
		ids := make([]string, 0, len(next))
		for id := range next {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		w.Publisher.Publish(realtime.Event{Type: realtime.EventStaleChanged, IDs: ids, At: now})
	}

	if len(fresh) > 0 {
		utils.Log.WithField("count", len(fresh)).Info("[stale] opportunities went stale")
		if w.Messenger != nil {
			if err := w.Messenger.SendText(ctx, "Hareketsiz fırsatlar", StaleDigest(fresh, now)); err != nil {
				utils.Log.WithError(err).Warn("[stale] digest not delivered")
			}
		}
	}
	return fresh
}

// StaleDigest renders one line per opportunity.
func StaleDigest(list []models.Opportunity, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d fırsat %d gündür güncellenmedi:\n", len(list), int(views.StaleAfter.Hours()/24))
	for i := range list {
		o := &list[i]
		days := int(now.Sub(o.LastTouched()).Hours() / 24)
		fmt.Fprintf(&b, "- %s / %s (%s, %s, %d gün)\n", o.CustomerName, o.Name, o.Status, utils.FormatTRY(o.TotalAmount), days)
	}
	return strings.TrimRight(b.String(), "\n")
}
