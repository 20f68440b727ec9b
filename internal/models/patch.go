package models

import (
	"errors"
	"time"
)

var (
	ErrNotFound    = errors.New("opportunity not found")
	ErrDuplicateID = errors.New("opportunity id already exists")
	ErrValidation  = errors.New("validation failed")
	// ErrAlreadyClosed refuses any change that would take a record out of
	// Bitti.
	ErrAlreadyClosed = errors.New("opportunity is already closed")
)

// OpportunityPatch carries a subset of the mutable attributes. Nil fields
// are left untouched. Tasks is a pointer so that an emptied task list is
// distinguishable from an untouched one.
type OpportunityPatch struct {
	CustomerName    *string            `json:"customerName,omitempty"`
	TargetCloseDate *string            `json:"targetCloseDate,omitempty"`
	Assignee        *string            `json:"assignee,omitempty"`
	Name            *string            `json:"name,omitempty"`
	Contact         *ContactPerson     `json:"contact,omitempty"`
	Trainings       []TrainingItem     `json:"trainings,omitempty"`
	Activities      []Activity         `json:"activities,omitempty"`
	Tasks           *[]OppTask         `json:"tasks,omitempty"`
	TotalAmount     *float64           `json:"totalAmount,omitempty"`
	Notes           *string            `json:"notes,omitempty"`
	Status          *OpportunityStatus `json:"status,omitempty"`
	LastUpdatedAt   *time.Time         `json:"lastUpdatedAt,omitempty"`
}

func (p OpportunityPatch) IsEmpty() bool {
	return len(p.Fields()) == 0
}

// Fields lists the set attributes by their remote column names.
func (p OpportunityPatch) Fields() []string {
	var f []string
	if p.CustomerName != nil {
		f = append(f, "customer_name")
	}
	if p.TargetCloseDate != nil {
		f = append(f, "target_close_date")
	}
	if p.Assignee != nil {
		f = append(f, "assignee")
	}
	if p.Name != nil {
		f = append(f, "name")
	}
	if p.Contact != nil {
		f = append(f, "contact")
	}
	if p.Trainings != nil {
		f = append(f, "trainings")
	}
	if p.Activities != nil {
		f = append(f, "activities")
	}
	if p.Tasks != nil {
		f = append(f, "tasks")
	}
	if p.TotalAmount != nil {
		f = append(f, "total_amount")
	}
	if p.Notes != nil {
		f = append(f, "notes")
	}
	if p.Status != nil {
		f = append(f, "status")
	}
	if p.LastUpdatedAt != nil {
		f = append(f, "last_updated_at")
	}
	return f
}

// Apply merges the set fields into o.
func (p OpportunityPatch) Apply(o *Opportunity) {
	if p.CustomerName != nil {
		o.CustomerName = *p.CustomerName
	}
	if p.TargetCloseDate != nil {
		o.TargetCloseDate = *p.TargetCloseDate
	}
	if p.Assignee != nil {
		o.Assignee = *p.Assignee
	}
	if p.Name != nil {
		o.Name = *p.Name
	}
	if p.Contact != nil {
		o.Contact = *p.Contact
	}
	if p.Trainings != nil {
		o.Trainings = make([]TrainingItem, len(p.Trainings))
		for i, t := range p.Trainings {
			o.Trainings[i] = t.clone()
		}
	}
	if p.Activities != nil {
		o.Activities = append([]Activity(nil), p.Activities...)
	}
	if p.Tasks != nil {
		o.Tasks = append([]OppTask{}, (*p.Tasks)...)
	}
	if p.TotalAmount != nil {
		o.TotalAmount = *p.TotalAmount
	}
	if p.Notes != nil {
		o.Notes = *p.Notes
	}
	if p.Status != nil {
		o.Status = *p.Status
	}
	if p.LastUpdatedAt != nil {
		t := *p.LastUpdatedAt
		o.LastUpdatedAt = &t
	}
}
