package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"trainingcrm/internal/models"
	"trainingcrm/internal/repositories"
)

func loadedStore(t *testing.T, table repositories.OpportunityTable) *Store {
	t.Helper()
	s := New(table, WithClock(fixedClock(t0.Add(time.Hour))))
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	return s
}

func closedOpp(id string) models.Opportunity {
	o := newOpp(id)
	o.CreatedAt = t0
	o.Status = models.StatusDone
	o.Trainings[0].Status = models.TrainingWon
	return o
}

func TestClosedRecordCannotBeReopened(t *testing.T) {
	table := &fakeTable{rows: []models.Opportunity{closedOpp("a")}}
	s := loadedStore(t, table)
	ctx := context.Background()
	open := models.StatusOfferDetailed

	if err := s.SetStatus(ctx, "a", open); !errors.Is(err, models.ErrAlreadyClosed) {
		t.Fatalf("SetStatus: expected ErrAlreadyClosed, got %v", err)
	}
	if err := s.Update(ctx, "a", models.OpportunityPatch{Status: &open}); !errors.Is(err, models.ErrAlreadyClosed) {
		t.Fatalf("Update: expected ErrAlreadyClosed, got %v", err)
	}
	err := s.Modify(ctx, "a", func(*models.Opportunity) (models.OpportunityPatch, error) {
		return models.OpportunityPatch{Status: &open}, nil
	})
	if !errors.Is(err, models.ErrAlreadyClosed) {
		t.Fatalf("Modify: expected ErrAlreadyClosed, got %v", err)
	}

	got, _ := s.Get("a")
	if got.Status != models.StatusDone {
		t.Fatalf("expected %q, got %q", models.StatusDone, got.Status)
	}
	if len(table.updates) != 0 {
		t.Fatalf("expected no remote writes, got %d", len(table.updates))
	}

	// other fields of a closed record stay editable
	notes := "fatura kesildi"
	if err := s.Update(ctx, "a", models.OpportunityPatch{Notes: &notes}); err != nil {
		t.Fatalf("update notes: %v", err)
	}
}

func TestModifySeesCurrentRecord(t *testing.T) {
	table := &fakeTable{rows: []models.Opportunity{newOpp("a")}}
	s := loadedStore(t, table)
	ctx := context.Background()

	boom := errors.New("refused")
	err := s.Modify(ctx, "a", func(cur *models.Opportunity) (models.OpportunityPatch, error) {
		cur.Name = "scratch"
		return models.OpportunityPatch{}, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected fn error, got %v", err)
	}
	if got, _ := s.Get("a"); got.Name != "Liderlik" {
		t.Fatalf("expected record untouched by fn, got name %q", got.Name)
	}

	if err := s.Modify(ctx, "a", func(*models.Opportunity) (models.OpportunityPatch, error) {
		return models.OpportunityPatch{}, nil
	}); err != nil {
		t.Fatalf("empty patch: %v", err)
	}
	if len(table.updates) != 0 {
		t.Fatalf("expected empty patch to skip the commit, got %d writes", len(table.updates))
	}

	if err := s.Modify(ctx, "missing", func(*models.Opportunity) (models.OpportunityPatch, error) {
		t.Fatal("fn called for unknown id")
		return models.OpportunityPatch{}, nil
	}); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Modify(ctx, "a", func(cur *models.Opportunity) (models.OpportunityPatch, error) {
				total := cur.TotalAmount + 1
				return models.OpportunityPatch{TotalAmount: &total}, nil
			})
		}()
	}
	wg.Wait()
	if got, _ := s.Get("a"); got.TotalAmount != 1020 {
		t.Fatalf("expected 1020 after 20 increments, got %v", got.TotalAmount)
	}
}

// cancellingTable cancels the caller's context during Update, the way a
// client disconnect would, and honours cancellation in SelectAll.
type cancellingTable struct {
	*fakeTable
	cancel context.CancelFunc
}

func (c *cancellingTable) SelectAll(ctx context.Context) ([]models.Opportunity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return c.fakeTable.SelectAll(ctx)
}

func (c *cancellingTable) Update(ctx context.Context, _ string, _ models.OpportunityPatch) error {
	c.cancel()
	return ctx.Err()
}

func TestReconcileSurvivesCancelledRequest(t *testing.T) {
	remote := newOpp("a")
	remote.CreatedAt = t0
	table := &cancellingTable{fakeTable: &fakeTable{rows: []models.Opportunity{remote}}}
	s := loadedStore(t, table)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	table.cancel = cancel

	err := s.SetStatus(ctx, "a", models.StatusNearlyDone)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	got, _ := s.Get("a")
	if got.Status != models.StatusOfferSent {
		t.Fatalf("expected reconcile to restore %q, got %q", models.StatusOfferSent, got.Status)
	}
	if st := s.State(); st.Error != "" {
		t.Fatalf("expected clean reload, got error %q", st.Error)
	}
}

// holdingTable parks the first Update until hold is closed.
type holdingTable struct {
	*fakeTable
	once    sync.Once
	entered chan struct{}
	hold    chan struct{}
}

func (h *holdingTable) Update(ctx context.Context, id string, patch models.OpportunityPatch) error {
	first := false
	h.once.Do(func() { first = true })
	if first {
		close(h.entered)
		<-h.hold
	}
	return h.fakeTable.Update(ctx, id, patch)
}

func TestRemoteWritesFollowLocalOrder(t *testing.T) {
	remote := newOpp("a")
	remote.CreatedAt = t0
	table := &holdingTable{
		fakeTable: &fakeTable{rows: []models.Opportunity{remote}},
		entered:   make(chan struct{}),
		hold:      make(chan struct{}),
	}
	s := loadedStore(t, table)
	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := s.SetStatus(ctx, "a", models.StatusOfferDiscussed); err != nil {
			t.Errorf("first: %v", err)
		}
	}()
	<-table.entered
	go func() {
		defer wg.Done()
		if err := s.SetStatus(ctx, "a", models.StatusNearlyDone); err != nil {
			t.Errorf("second: %v", err)
		}
	}()
	time.Sleep(30 * time.Millisecond)
	close(table.hold)
	wg.Wait()

	if n := len(table.updates); n != 2 {
		t.Fatalf("expected 2 writes, got %d", n)
	}
	if got := *table.updates[1].Status; got != models.StatusNearlyDone {
		t.Fatalf("expected the later change written last, got %q", got)
	}
	if table.rows[0].Status != models.StatusNearlyDone {
		t.Fatalf("expected remote %q, got %q", models.StatusNearlyDone, table.rows[0].Status)
	}
}
