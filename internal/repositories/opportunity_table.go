package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"trainingcrm/internal/models"
)

// OpportunityTable is the remote record table that backs the store.
type OpportunityTable interface {
	// SelectAll returns every record ordered by created_at descending.
	SelectAll(ctx context.Context) ([]models.Opportunity, error)
	Insert(ctx context.Context, opp *models.Opportunity) error
	// Update writes only the fields set in patch for the record with id.
	Update(ctx context.Context, id string, patch models.OpportunityPatch) error
}

// opportunityRow is the flattened remote shape. Nested structures travel as
// opaque JSON blobs.
type opportunityRow struct {
	ID              string          `json:"id"`
	CustomerName    string          `json:"customer_name"`
	CreatedAt       time.Time       `json:"created_at"`
	LastUpdatedAt   *time.Time      `json:"last_updated_at"`
	TargetCloseDate *string         `json:"target_close_date"`
	Assignee        *string         `json:"assignee"`
	Name            string          `json:"name"`
	Contact         json.RawMessage `json:"contact"`
	Trainings       json.RawMessage `json:"trainings"`
	Activities      json.RawMessage `json:"activities"`
	Tasks           json.RawMessage `json:"tasks"`
	TotalAmount     float64         `json:"total_amount"`
	Notes           *string         `json:"notes"`
	Status          string          `json:"status"`
}

func toRow(o *models.Opportunity) (opportunityRow, error) {
	row := opportunityRow{
		ID:              o.ID,
		CustomerName:    o.CustomerName,
		CreatedAt:       o.CreatedAt,
		LastUpdatedAt:   o.LastUpdatedAt,
		TargetCloseDate: nullIfEmpty(o.TargetCloseDate),
		Assignee:        nullIfEmpty(o.Assignee),
		Name:            o.Name,
		TotalAmount:     o.TotalAmount,
		Notes:           nullIfEmpty(o.Notes),
		Status:          string(o.Status),
	}
	var err error
	if row.Contact, err = json.Marshal(o.Contact); err != nil {
		return row, fmt.Errorf("encode contact: %w", err)
	}
	if row.Trainings, err = marshalList(o.Trainings); err != nil {
		return row, fmt.Errorf("encode trainings: %w", err)
	}
	if row.Activities, err = marshalList(o.Activities); err != nil {
		return row, fmt.Errorf("encode activities: %w", err)
	}
	if row.Tasks, err = marshalList(o.Tasks); err != nil {
		return row, fmt.Errorf("encode tasks: %w", err)
	}
	return row, nil
}

func (r opportunityRow) toModel() (models.Opportunity, error) {
	o := models.Opportunity{
		ID:           r.ID,
		CustomerName: r.CustomerName,
		CreatedAt:    r.CreatedAt,
		Name:         r.Name,
		TotalAmount:  r.TotalAmount,
		Status:       models.OpportunityStatus(r.Status),
		Trainings:    []models.TrainingItem{},
		Activities:   []models.Activity{},
		Tasks:        []models.OppTask{},
	}
	if r.LastUpdatedAt != nil && !r.LastUpdatedAt.IsZero() {
		t := *r.LastUpdatedAt
		o.LastUpdatedAt = &t
	}
	if r.TargetCloseDate != nil {
		o.TargetCloseDate = *r.TargetCloseDate
	}
	if r.Assignee != nil {
		o.Assignee = *r.Assignee
	}
	if r.Notes != nil {
		o.Notes = *r.Notes
	}
	if err := unmarshalBlob(r.Contact, &o.Contact); err != nil {
		return o, fmt.Errorf("decode contact of %s: %w", r.ID, err)
	}
	if err := unmarshalBlob(r.Trainings, &o.Trainings); err != nil {
		return o, fmt.Errorf("decode trainings of %s: %w", r.ID, err)
	}
	if err := unmarshalBlob(r.Activities, &o.Activities); err != nil {
		return o, fmt.Errorf("decode activities of %s: %w", r.ID, err)
	}
	if err := unmarshalBlob(r.Tasks, &o.Tasks); err != nil {
		return o, fmt.Errorf("decode tasks of %s: %w", r.ID, err)
	}
	return o, nil
}

// jsonBlob is an encoded nested structure. SQL drivers bind it as text, the
// REST table embeds it verbatim.
type jsonBlob string

func (b jsonBlob) MarshalJSON() ([]byte, error) {
	return []byte(b), nil
}

// patchColumns maps a patch onto column -> value pairs in a stable order.
func patchColumns(p models.OpportunityPatch) ([]string, []any, error) {
	var (
		cols []string
		vals []any
	)
	add := func(col string, v any) {
		cols = append(cols, col)
		vals = append(vals, v)
	}
	addBlob := func(col string, v any) error {
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encode %s: %w", col, err)
		}
		add(col, jsonBlob(b))
		return nil
	}

	if p.CustomerName != nil {
		add("customer_name", *p.CustomerName)
	}
	if p.TargetCloseDate != nil {
		add("target_close_date", nullIfEmpty(*p.TargetCloseDate))
	}
	if p.Assignee != nil {
		add("assignee", nullIfEmpty(*p.Assignee))
	}
	if p.Name != nil {
		add("name", *p.Name)
	}
	if p.Contact != nil {
		if err := addBlob("contact", p.Contact); err != nil {
			return nil, nil, err
		}
	}
	if p.Trainings != nil {
		if err := addBlob("trainings", p.Trainings); err != nil {
			return nil, nil, err
		}
	}
	if p.Activities != nil {
		if err := addBlob("activities", p.Activities); err != nil {
			return nil, nil, err
		}
	}
	if p.Tasks != nil {
		if err := addBlob("tasks", *p.Tasks); err != nil {
			return nil, nil, err
		}
	}
	if p.TotalAmount != nil {
		add("total_amount", *p.TotalAmount)
	}
	if p.Notes != nil {
		add("notes", nullIfEmpty(*p.Notes))
	}
	if p.Status != nil {
		add("status", string(*p.Status))
	}
	if p.LastUpdatedAt != nil {
		add("last_updated_at", p.LastUpdatedAt.UTC())
	}
	return cols, vals, nil
}

func marshalList[T any](list []T) (json.RawMessage, error) {
	if list == nil {
		list = []T{}
	}
	return json.Marshal(list)
}

func unmarshalBlob(raw json.RawMessage, v any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return json.Unmarshal(raw, v)
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
