package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"trainingcrm/internal/models"
	"trainingcrm/internal/store"
)

// memTable is an in-memory opportunity table.
type memTable struct {
	mu        sync.Mutex
	rows      []models.Opportunity
	insertErr error
	updateErr error
}

func (m *memTable) SelectAll(context.Context) ([]models.Opportunity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return models.CloneAll(m.rows), nil
}

func (m *memTable) Insert(_ context.Context, opp *models.Opportunity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return m.insertErr
	}
	m.rows = append([]models.Opportunity{opp.Clone()}, m.rows...)
	return nil
}

func (m *memTable) Update(_ context.Context, id string, patch models.OpportunityPatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	for i := range m.rows {
		if m.rows[i].ID == id {
			patch.Apply(&m.rows[i])
			return nil
		}
	}
	return models.ErrNotFound
}

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return testNow }

// sequentialIDs returns id-1, id-2, ...
func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func newTestService(t *testing.T) (*OpportunityService, *store.Store, *memTable) {
	t.Helper()
	table := &memTable{}
	st := store.New(table, store.WithClock(clock))
	svc := NewOpportunityService(st, clock)
	svc.NewID = sequentialIDs()
	return svc, st, table
}

func sampleInput() NewOpportunityInput {
	return NewOpportunityInput{
		CustomerName: "Acme",
		Name:         "Liderlik programı",
		Contact:      models.ContactPerson{FirstName: "Ayşe", LastName: "Yılmaz", Email: "ayse@acme.test"},
		Trainings: []TrainingInput{
			{Topic: "Liderlik", Type: "Yüz yüze", Amount: 1000},
			{Topic: "İletişim", Type: "Online", Amount: 2000},
		},
	}
}
