package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"trainingcrm/internal/models"
)

// OpportunityStore is the part of the store the services drive.
type OpportunityStore interface {
	Add(ctx context.Context, opp models.Opportunity) error
	SetStatus(ctx context.Context, id string, status models.OpportunityStatus) error
	Update(ctx context.Context, id string, patch models.OpportunityPatch) error
	Modify(ctx context.Context, id string, fn func(cur *models.Opportunity) (models.OpportunityPatch, error)) error
	Get(id string) (models.Opportunity, bool)
	Snapshot() []models.Opportunity
}

type TrainingInput struct {
	Topic            string   `json:"topic"`
	Type             string   `json:"type"`
	Amount           float64  `json:"amount"`
	Duration         string   `json:"duration"`
	HasAssessment    bool     `json:"hasAssessment"`
	ParticipantCount *int     `json:"participantCount,omitempty"`
	AssessmentPrice  *float64 `json:"assessmentPrice,omitempty"`
}

type NewOpportunityInput struct {
	CustomerName    string               `json:"customerName"`
	Name            string               `json:"name"`
	Assignee        string               `json:"assignee"`
	TargetCloseDate string               `json:"targetCloseDate"`
	Contact         models.ContactPerson `json:"contact"`
	Trainings       []TrainingInput      `json:"trainings"`
	Notes           string               `json:"notes"`
}

// DetailsInput edits the descriptive fields. Nil fields stay as they are.
type DetailsInput struct {
	CustomerName    *string               `json:"customerName,omitempty"`
	Name            *string               `json:"name,omitempty"`
	Assignee        *string               `json:"assignee,omitempty"`
	TargetCloseDate *string               `json:"targetCloseDate,omitempty"`
	Contact         *models.ContactPerson `json:"contact,omitempty"`
	Notes           *string               `json:"notes,omitempty"`
}

// TrainingOutcome resolves one training at close time.
type TrainingOutcome struct {
	TrainingID string                `json:"trainingId"`
	Status     models.TrainingStatus `json:"status"`
	LossReason string                `json:"lossReason,omitempty"`
}

type OpportunityService struct {
	Store OpportunityStore
	Now   func() time.Time
	NewID func() string
}

func NewOpportunityService(store OpportunityStore, now func() time.Time) *OpportunityService {
	if now == nil {
		now = time.Now
	}
	return &OpportunityService{Store: store, Now: now, NewID: uuid.NewString}
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", models.ErrValidation, fmt.Sprintf(format, args...))
}

func validDate(v string) bool {
	if v == "" {
		return true
	}
	if _, err := time.Parse(models.DateLayout, v); err == nil {
		return true
	}
	_, err := time.Parse(time.RFC3339, v)
	return err == nil
}

// Create builds a new opportunity in the first stage and adds it to the
// store. The returned record carries the generated ids.
func (s *OpportunityService) Create(ctx context.Context, in NewOpportunityInput) (*models.Opportunity, error) {
	in.CustomerName = strings.TrimSpace(in.CustomerName)
	in.Name = strings.TrimSpace(in.Name)
	in.TargetCloseDate = strings.TrimSpace(in.TargetCloseDate)
	switch {
	case in.CustomerName == "":
		return nil, invalid("customerName is required")
	case in.Name == "":
		return nil, invalid("name is required")
	case len(in.Trainings) == 0:
		return nil, invalid("at least one training is required")
	case !validDate(in.TargetCloseDate):
		return nil, invalid("targetCloseDate %q is not a date", in.TargetCloseDate)
	}

	trainings := make([]models.TrainingItem, 0, len(in.Trainings))
	for i, t := range in.Trainings {
		if t.Amount < 0 {
			return nil, invalid("training %d: amount must not be negative", i+1)
		}
		item := models.TrainingItem{
			ID:            s.NewID(),
			Topic:         strings.TrimSpace(t.Topic),
			Type:          strings.TrimSpace(t.Type),
			Amount:        t.Amount,
			Duration:      strings.TrimSpace(t.Duration),
			HasAssessment: t.HasAssessment,
			Status:        models.TrainingPending,
		}
		if t.HasAssessment {
			if t.ParticipantCount != nil && *t.ParticipantCount < 0 ||
				t.AssessmentPrice != nil && *t.AssessmentPrice < 0 {
				return nil, invalid("training %d: assessment values must not be negative", i+1)
			}
			item.ParticipantCount = t.ParticipantCount
			item.AssessmentPrice = t.AssessmentPrice
		}
		trainings = append(trainings, item)
	}

	opp := models.Opportunity{
		ID:              s.NewID(),
		CustomerName:    in.CustomerName,
		TargetCloseDate: in.TargetCloseDate,
		Assignee:        strings.TrimSpace(in.Assignee),
		Name:            in.Name,
		Contact:         in.Contact,
		Trainings:       trainings,
		Activities:      []models.Activity{},
		Tasks:           []models.OppTask{},
		TotalAmount:     models.ComputeTotal(trainings),
		Notes:           in.Notes,
		Status:          models.StatusOfferSent,
	}
	if notes := strings.TrimSpace(in.Notes); notes != "" {
		opp.Activities = []models.Activity{{
			ID:      s.NewID(),
			Date:    s.Now(),
			Content: notes,
			Type:    models.ActivityNote,
		}}
	}

	if err := s.Store.Add(ctx, opp); err != nil {
		return nil, err
	}
	if stored, ok := s.Store.Get(opp.ID); ok {
		return &stored, nil
	}
	return &opp, nil
}

func (s *OpportunityService) Get(id string) (*models.Opportunity, error) {
	o, ok := s.Store.Get(id)
	if !ok {
		return nil, fmt.Errorf("get %s: %w", id, models.ErrNotFound)
	}
	return &o, nil
}

func (s *OpportunityService) List() []models.Opportunity {
	return s.Store.Snapshot()
}

// Move drags an opportunity to another open stage. Moving onto the same
// stage does nothing. The check runs against the record the store holds at
// write time, so a concurrent Close cannot be undone.
func (s *OpportunityService) Move(ctx context.Context, id string, to models.OpportunityStatus) (*models.Opportunity, error) {
	err := s.Store.Modify(ctx, id, func(cur *models.Opportunity) (models.OpportunityPatch, error) {
		if cur.Status == to && !to.IsTerminal() {
			return models.OpportunityPatch{}, nil
		}
		if err := checkMove(cur.Status, to); err != nil {
			return models.OpportunityPatch{}, fmt.Errorf("move %s to %q: %w", id, to, err)
		}
		return models.OpportunityPatch{Status: &to}, nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(id)
}

// Close resolves every training and moves the opportunity to Bitti in a
// single update. Trainings without an outcome are taken as won.
func (s *OpportunityService) Close(ctx context.Context, id string, outcomes []TrainingOutcome) (*models.Opportunity, error) {
	byID := make(map[string]TrainingOutcome, len(outcomes))
	for _, o := range outcomes {
		if o.Status != models.TrainingWon && o.Status != models.TrainingLost {
			return nil, invalid("training %s: outcome must be won or lost", o.TrainingID)
		}
		byID[o.TrainingID] = o
	}

	err := s.Store.Modify(ctx, id, func(cur *models.Opportunity) (models.OpportunityPatch, error) {
		if cur.Status.IsTerminal() {
			return models.OpportunityPatch{}, fmt.Errorf("close %s: %w", id, ErrAlreadyClosed)
		}
		trainings := resolveTrainings(cur.Trainings, byID)
		if trainings == nil {
			return models.OpportunityPatch{}, invalid("outcome references an unknown training")
		}
		done := models.StatusDone
		return models.OpportunityPatch{Trainings: trainings, Status: &done}, nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(id)
}

// resolveTrainings applies the outcomes to a copy of current. Pending
// trainings without an outcome become won. It returns nil when an outcome
// names a training that does not exist.
func resolveTrainings(current []models.TrainingItem, byID map[string]TrainingOutcome) []models.TrainingItem {
	trainings := make([]models.TrainingItem, len(current))
	copy(trainings, current)
	matched := 0
	for i := range trainings {
		t := &trainings[i]
		o, ok := byID[t.ID]
		switch {
		case ok:
			matched++
			t.Status = o.Status
			t.LossReason = ""
			if o.Status == models.TrainingLost {
				t.LossReason = strings.TrimSpace(o.LossReason)
			}
		case t.Status != models.TrainingWon && t.Status != models.TrainingLost:
			t.Status = models.TrainingWon
			t.LossReason = ""
		}
	}
	if matched != len(byID) {
		return nil
	}
	return trainings
}

func (s *OpportunityService) UpdateDetails(ctx context.Context, id string, in DetailsInput) (*models.Opportunity, error) {
	if _, err := s.Get(id); err != nil {
		return nil, err
	}
	var p models.OpportunityPatch
	if in.CustomerName != nil {
		v := strings.TrimSpace(*in.CustomerName)
		if v == "" {
			return nil, invalid("customerName must not be empty")
		}
		p.CustomerName = &v
	}
	if in.Name != nil {
		v := strings.TrimSpace(*in.Name)
		if v == "" {
			return nil, invalid("name must not be empty")
		}
		p.Name = &v
	}
	if in.Assignee != nil {
		v := strings.TrimSpace(*in.Assignee)
		p.Assignee = &v
	}
	if in.TargetCloseDate != nil {
		v := strings.TrimSpace(*in.TargetCloseDate)
		if !validDate(v) {
			return nil, invalid("targetCloseDate %q is not a date", v)
		}
		p.TargetCloseDate = &v
	}
	if in.Contact != nil {
		c := *in.Contact
		p.Contact = &c
	}
	if in.Notes != nil {
		v := *in.Notes
		p.Notes = &v
	}
	if p.IsEmpty() {
		return nil, invalid("nothing to update")
	}
	if err := s.Store.Update(ctx, id, p); err != nil {
		return nil, err
	}
	return s.Get(id)
}

// AddActivity logs a new activity. Existing entries are never touched.
func (s *OpportunityService) AddActivity(ctx context.Context, id string, typ models.ActivityType, content string) (*models.Activity, error) {
	content = strings.TrimSpace(content)
	if !typ.Valid() {
		return nil, invalid("unknown activity type")
	}
	if content == "" {
		return nil, invalid("content is required")
	}
	a := models.Activity{ID: s.NewID(), Date: s.Now(), Content: content, Type: typ}
	err := s.Store.Modify(ctx, id, func(cur *models.Opportunity) (models.OpportunityPatch, error) {
		return models.OpportunityPatch{Activities: models.PrependActivity(cur.Activities, a)}, nil
	})
	if err != nil {
		return nil, err
	}
	return &a, nil
}
