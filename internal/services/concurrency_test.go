package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"trainingcrm/internal/models"
)

func atomicIDs() func() string {
	var n atomic.Int64
	return func() string { return fmt.Sprintf("id-%d", n.Add(1)) }
}

func TestMoveNeverReopensAfterConcurrentClose(t *testing.T) {
	svc, st, table := newTestService(t)
	svc.NewID = atomicIDs()
	ctx := context.Background()

	const n = 40
	ids := make([]string, n)
	for i := range ids {
		opp, err := svc.Create(ctx, sampleInput())
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		ids[i] = opp.ID
	}

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(2)
		go func(id string) {
			defer wg.Done()
			if _, err := svc.Close(ctx, id, nil); err != nil {
				t.Errorf("close %s: %v", id, err)
			}
		}(id)
		go func(id string) {
			defer wg.Done()
			_, err := svc.Move(ctx, id, models.StatusOfferDiscussed)
			if err != nil && !errors.Is(err, ErrAlreadyClosed) {
				t.Errorf("move %s: %v", id, err)
			}
		}(id)
	}
	wg.Wait()

	for _, id := range ids {
		got, _ := st.Get(id)
		if got.Status != models.StatusDone {
			t.Fatalf("expected %s to stay %q, got %q", id, models.StatusDone, got.Status)
		}
	}
	for _, row := range table.rows {
		if row.Status != models.StatusDone {
			t.Fatalf("expected remote %s to be %q, got %q", row.ID, models.StatusDone, row.Status)
		}
	}
}

func TestMoveAfterCloseIsRefused(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	opp, err := svc.Create(ctx, sampleInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Close(ctx, opp.ID, nil); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := svc.Move(ctx, opp.ID, models.StatusOfferSent); !errors.Is(err, ErrAlreadyClosed) {
		t.Fatalf("expected ErrAlreadyClosed, got %v", err)
	}
	if _, err := svc.Close(ctx, opp.ID, nil); !errors.Is(err, ErrAlreadyClosed) {
		t.Fatalf("expected second close to fail with ErrAlreadyClosed, got %v", err)
	}
}

func TestConcurrentTasksAndActivitiesKeepEveryEntry(t *testing.T) {
	svc, st, table := newTestService(t)
	svc.NewID = atomicIDs()
	ctx := context.Background()
	opp, err := svc.Create(ctx, sampleInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	const n = 25
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			if _, err := svc.AddTask(ctx, opp.ID, fmt.Sprintf("görev %d", i)); err != nil {
				t.Errorf("add task: %v", err)
			}
		}(i)
		go func(i int) {
			defer wg.Done()
			if _, err := svc.AddActivity(ctx, opp.ID, models.ActivityCall, fmt.Sprintf("arama %d", i)); err != nil {
				t.Errorf("add activity: %v", err)
			}
		}(i)
	}
	wg.Wait()

	got, _ := st.Get(opp.ID)
	if len(got.Tasks) != n {
		t.Fatalf("expected %d tasks, got %d", n, len(got.Tasks))
	}
	if len(got.Activities) != n {
		t.Fatalf("expected %d activities, got %d", n, len(got.Activities))
	}
	remote := table.rows[0]
	if len(remote.Tasks) != n || len(remote.Activities) != n {
		t.Fatalf("expected remote to hold %d tasks and activities, got %d and %d",
			n, len(remote.Tasks), len(remote.Activities))
	}
}

func TestConcurrentToggleAndRemoveTask(t *testing.T) {
	svc, st, _ := newTestService(t)
	svc.NewID = atomicIDs()
	ctx := context.Background()
	opp, err := svc.Create(ctx, sampleInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	keep, err := svc.AddTask(ctx, opp.ID, "teklif gönder")
	if err != nil {
		t.Fatalf("add task: %v", err)
	}
	drop, err := svc.AddTask(ctx, opp.ID, "toplantı ayarla")
	if err != nil {
		t.Fatalf("add task: %v", err)
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		if _, err := svc.ToggleTask(ctx, opp.ID, keep.ID); err != nil {
			t.Errorf("toggle: %v", err)
		}
	}()
	go func() {
		defer wg.Done()
		if err := svc.RemoveTask(ctx, opp.ID, drop.ID); err != nil {
			t.Errorf("remove: %v", err)
		}
	}()
	wg.Wait()

	got, _ := st.Get(opp.ID)
	if len(got.Tasks) != 1 || got.Tasks[0].ID != keep.ID || !got.Tasks[0].IsCompleted {
		t.Fatalf("expected only %s left and completed, got %+v", keep.ID, got.Tasks)
	}
}
