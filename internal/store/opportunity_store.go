package store

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"trainingcrm/internal/models"
	"trainingcrm/internal/repositories"
	"trainingcrm/internal/utils"
)

// reconcileTimeout bounds the reload that follows a commit. The reload runs
// detached from the caller's context so that a cancelled request still
// leaves the list in step with the remote table.
const reconcileTimeout = 30 * time.Second

// Clock returns the current time. Tests pin it.
type Clock func() time.Time

// Store owns the opportunity list. Every mutation is applied locally first,
// then committed to the remote table; a failed commit is reconciled by a
// full reload (or, for inserts, by retracting the record).
type Store struct {
	table    repositories.OpportunityTable
	now      Clock
	notifier Notifier

	mu         sync.RWMutex
	list       []models.Opportunity
	loading    bool
	loaded     bool
	loadErr    string
	loadedAt   time.Time
	notices    []Notice
	maxNotices int

	listenersMu sync.RWMutex
	listeners   map[int]Listener
	nextID      int

	loads   singleflight.Group
	commits atomic.Uint64

	// Remote writes run in the order their changes were applied locally.
	// nextSeq is guarded by mu; turn by seqMu.
	nextSeq uint64
	seqMu   sync.Mutex
	seqCond *sync.Cond
	turn    uint64
}

type Option func(*Store)

func WithClock(c Clock) Option {
	return func(s *Store) { s.now = c }
}

func WithNotifier(n Notifier) Option {
	return func(s *Store) { s.notifier = n }
}

func WithMaxNotices(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxNotices = n
		}
	}
}

func New(table repositories.OpportunityTable, opts ...Option) *Store {
	s := &Store{
		table:      table,
		now:        time.Now,
		list:       []models.Opportunity{},
		maxNotices: 20,
		listeners:  map[int]Listener{},
	}
	s.seqCond = sync.NewCond(&s.seqMu)
	for _, o := range opts {
		o(s)
	}
	return s
}

// State is the user-facing status of the store.
type State struct {
	Loading      bool       `json:"loading"`
	Loaded       bool       `json:"loaded"`
	Error        string     `json:"error,omitempty"`
	Count        int        `json:"count"`
	LastLoadedAt *time.Time `json:"lastLoadedAt,omitempty"`
	Notices      []Notice   `json:"notices"`
}

func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := State{
		Loading: s.loading,
		Loaded:  s.loaded,
		Error:   s.loadErr,
		Count:   len(s.list),
		Notices: append([]Notice{}, s.notices...),
	}
	if !s.loadedAt.IsZero() {
		t := s.loadedAt
		st.LastLoadedAt = &t
	}
	return st
}

// Snapshot returns a deep copy of the current list.
func (s *Store) Snapshot() []models.Opportunity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return models.CloneAll(s.list)
}

func (s *Store) Get(id string) (models.Opportunity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOf(id); i >= 0 {
		return s.list[i].Clone(), true
	}
	return models.Opportunity{}, false
}

// ClearNotices drops the notices the user has acknowledged.
func (s *Store) ClearNotices() {
	s.mu.Lock()
	s.notices = nil
	s.mu.Unlock()
}

// Load replaces the list with the remote table contents. Concurrent calls
// share one request, unless the in-flight one started before a commit the
// caller has already observed; then a fresh request follows.
func (s *Store) Load(ctx context.Context) error {
	want := s.commits.Load()
	for {
		v, err, _ := s.loads.Do("load", func() (any, error) {
			seen := s.commits.Load()
			return seen, s.load(ctx)
		})
		if err != nil {
			return err
		}
		if seen, _ := v.(uint64); seen >= want {
			return nil
		}
	}
}

func (s *Store) load(ctx context.Context) error {
	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()

	list, err := s.table.SelectAll(ctx)

	s.mu.Lock()
	s.loading = false
	if err != nil {
		s.loadErr = err.Error()
		s.mu.Unlock()
		utils.Log.WithError(err).Error("[store] load failed")
		return fmt.Errorf("load opportunities: %w", err)
	}
	if list == nil {
		list = []models.Opportunity{}
	}
	s.list = list
	s.loaded = true
	s.loadErr = ""
	s.loadedAt = s.now()
	count := len(list)
	s.mu.Unlock()

	utils.Log.WithField("count", count).Debug("[store] loaded")
	s.emit(Event{Type: EventReloaded})
	return nil
}

// Add inserts opp at the head of the list and commits it. createdAt and
// lastUpdatedAt are stamped here. On a rejected insert the record is
// retracted and a notice is raised.
func (s *Store) Add(ctx context.Context, opp models.Opportunity) error {
	if strings.TrimSpace(opp.ID) == "" {
		return fmt.Errorf("%w: id is required", models.ErrValidation)
	}
	now := s.now()
	opp.CreatedAt = now
	opp.LastUpdatedAt = &now
	rec := opp.Clone()

	s.mu.Lock()
	if s.indexOf(opp.ID) >= 0 {
		s.mu.Unlock()
		return fmt.Errorf("add %s: %w", opp.ID, models.ErrDuplicateID)
	}
	s.list = append([]models.Opportunity{rec.Clone()}, s.list...)
	seq := s.ticket()
	s.mu.Unlock()
	s.emit(Event{Type: EventChanged, ID: opp.ID})

	err := s.inTurn(seq, func() error { return s.table.Insert(ctx, &rec) })
	s.commits.Add(1)
	if err != nil {
		s.retract(opp.ID)
		s.raise(Notice{
			Kind:          NoticeInsertFailed,
			OpportunityID: opp.ID,
			Message:       fmt.Sprintf("%q kaydedilemedi: %v", opp.Name, err),
			At:            s.now(),
		})
		return fmt.Errorf("add %s: %w", opp.ID, err)
	}

	if err := s.reconcile(ctx); err != nil {
		utils.Log.WithError(err).WithField("id", opp.ID).Warn("[store] reload after insert failed")
	}
	return nil
}

// SetStatus moves an opportunity to another stage.
func (s *Store) SetStatus(ctx context.Context, id string, status models.OpportunityStatus) error {
	if !status.Valid() {
		return fmt.Errorf("%w: unknown status %q", models.ErrValidation, status)
	}
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return fmt.Errorf("set status %s: %w", id, models.ErrNotFound)
	}
	if err := checkClosed(&s.list[i], &status); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("set status %s: %w", id, err)
	}
	stamp := s.stamp(&s.list[i])
	s.list[i].Status = status
	s.list[i].LastUpdatedAt = &stamp
	seq := s.ticket()
	s.mu.Unlock()
	s.emit(Event{Type: EventChanged, ID: id})

	return s.commit(ctx, "set_status", id, seq, models.OpportunityPatch{Status: &status, LastUpdatedAt: &stamp})
}

// Update merges patch into the record. Any LastUpdatedAt in patch is
// replaced by the store's own stamp.
func (s *Store) Update(ctx context.Context, id string, patch models.OpportunityPatch) error {
	if patch.Status != nil && !patch.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", models.ErrValidation, *patch.Status)
	}
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return fmt.Errorf("update %s: %w", id, models.ErrNotFound)
	}
	if err := checkClosed(&s.list[i], patch.Status); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("update %s: %w", id, err)
	}
	stamp := s.stamp(&s.list[i])
	patch.LastUpdatedAt = &stamp
	patch.Apply(&s.list[i])
	seq := s.ticket()
	s.mu.Unlock()
	s.emit(Event{Type: EventChanged, ID: id})

	return s.commit(ctx, "update", id, seq, patch)
}

// Modify hands fn a copy of the current record while holding the store
// lock, then applies the patch fn returns. An error from fn aborts without
// touching the list; an empty patch is a no-op.
func (s *Store) Modify(ctx context.Context, id string, fn func(cur *models.Opportunity) (models.OpportunityPatch, error)) error {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return fmt.Errorf("modify %s: %w", id, models.ErrNotFound)
	}
	cur := s.list[i].Clone()
	patch, err := fn(&cur)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if patch.Status != nil && !patch.Status.Valid() {
		s.mu.Unlock()
		return fmt.Errorf("%w: unknown status %q", models.ErrValidation, *patch.Status)
	}
	if err := checkClosed(&s.list[i], patch.Status); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("modify %s: %w", id, err)
	}
	if patch.IsEmpty() {
		s.mu.Unlock()
		return nil
	}
	stamp := s.stamp(&s.list[i])
	patch.LastUpdatedAt = &stamp
	patch.Apply(&s.list[i])
	seq := s.ticket()
	s.mu.Unlock()
	s.emit(Event{Type: EventChanged, ID: id})

	return s.commit(ctx, "modify", id, seq, patch)
}

// checkClosed refuses a status change that would reopen a Bitti record.
// Callers hold s.mu.
func checkClosed(o *models.Opportunity, status *models.OpportunityStatus) error {
	if status == nil || !o.Status.IsTerminal() || status.IsTerminal() {
		return nil
	}
	return models.ErrAlreadyClosed
}

func (s *Store) commit(ctx context.Context, op, id string, seq uint64, patch models.OpportunityPatch) error {
	err := s.inTurn(seq, func() error { return s.table.Update(ctx, id, patch) })
	s.commits.Add(1)
	if err == nil {
		return nil
	}
	utils.Log.WithFields(logrus.Fields{"op": op, "id": id, "fields": patch.Fields()}).
		WithError(err).Warn("[store] commit failed, reloading")
	if lerr := s.reconcile(ctx); lerr != nil {
		utils.Log.WithError(lerr).WithField("id", id).Error("[store] reconcile failed")
	}
	return fmt.Errorf("%s %s: %w", op, id, err)
}

// ticket reserves the next slot in the remote write order. Callers hold s.mu
// and must pass the ticket to inTurn.
func (s *Store) ticket() uint64 {
	seq := s.nextSeq
	s.nextSeq++
	return seq
}

// inTurn runs write once every earlier ticket has been written.
func (s *Store) inTurn(seq uint64, write func() error) error {
	s.seqMu.Lock()
	for s.turn != seq {
		s.seqCond.Wait()
	}
	s.seqMu.Unlock()

	err := write()

	s.seqMu.Lock()
	s.turn++
	s.seqCond.Broadcast()
	s.seqMu.Unlock()
	return err
}

// reconcile reloads on a context that survives cancellation of ctx.
func (s *Store) reconcile(ctx context.Context) error {
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), reconcileTimeout)
	defer cancel()
	return s.Load(rctx)
}

// stamp returns the new lastUpdatedAt for o; it never precedes createdAt.
// Callers hold s.mu.
func (s *Store) stamp(o *models.Opportunity) time.Time {
	now := s.now()
	if now.Before(o.CreatedAt) {
		return o.CreatedAt
	}
	return now
}

func (s *Store) retract(id string) {
	s.mu.Lock()
	if i := s.indexOf(id); i >= 0 {
		s.list = append(s.list[:i:i], s.list[i+1:]...)
	}
	s.mu.Unlock()
	s.emit(Event{Type: EventChanged, ID: id})
}

// indexOf expects s.mu to be held.
func (s *Store) indexOf(id string) int {
	for i := range s.list {
		if s.list[i].ID == id {
			return i
		}
	}
	return -1
}
