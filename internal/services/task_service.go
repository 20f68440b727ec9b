package services

import (
	"context"
	"fmt"
	"strings"

	"trainingcrm/internal/models"
)

// Task operations rewrite the whole checklist of one opportunity; the
// store sends the new list as a single field update. Each list is built
// from the record held under the store lock.

func (s *OpportunityService) AddTask(ctx context.Context, id, title string) (*models.OppTask, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, invalid("title is required")
	}
	t := models.OppTask{ID: s.NewID(), Title: title}
	err := s.Store.Modify(ctx, id, func(cur *models.Opportunity) (models.OpportunityPatch, error) {
		tasks := append(append([]models.OppTask{}, cur.Tasks...), t)
		return models.OpportunityPatch{Tasks: &tasks}, nil
	})
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *OpportunityService) ToggleTask(ctx context.Context, id, taskID string) (*models.OppTask, error) {
	var toggled models.OppTask
	err := s.Store.Modify(ctx, id, func(cur *models.Opportunity) (models.OpportunityPatch, error) {
		tasks := append([]models.OppTask{}, cur.Tasks...)
		i := models.TaskIndex(tasks, taskID)
		if i < 0 {
			return models.OpportunityPatch{}, fmt.Errorf("task %s: %w", taskID, models.ErrNotFound)
		}
		tasks[i].IsCompleted = !tasks[i].IsCompleted
		toggled = tasks[i]
		return models.OpportunityPatch{Tasks: &tasks}, nil
	})
	if err != nil {
		return nil, err
	}
	return &toggled, nil
}

func (s *OpportunityService) RemoveTask(ctx context.Context, id, taskID string) error {
	return s.Store.Modify(ctx, id, func(cur *models.Opportunity) (models.OpportunityPatch, error) {
		i := models.TaskIndex(cur.Tasks, taskID)
		if i < 0 {
			return models.OpportunityPatch{}, fmt.Errorf("task %s: %w", taskID, models.ErrNotFound)
		}
		tasks := append(append([]models.OppTask{}, cur.Tasks[:i]...), cur.Tasks[i+1:]...)
		return models.OpportunityPatch{Tasks: &tasks}, nil
	})
}
