package services

import (
	"errors"

	"trainingcrm/internal/models"
)

var (
	ErrClosingRequiresOutcome = errors.New("closing requires training outcomes, use close")
	ErrAlreadyClosed          = models.ErrAlreadyClosed
)

// OpportunityTransitions is the kanban drag table. Every open stage may go
// to any other open stage; Bitti is only reached through Close and never
// left.
var OpportunityTransitions = buildTransitions()

func buildTransitions() map[models.OpportunityStatus]map[models.OpportunityStatus]bool {
	t := make(map[models.OpportunityStatus]map[models.OpportunityStatus]bool, len(models.Pipeline))
	for _, from := range models.Pipeline {
		nexts := map[models.OpportunityStatus]bool{}
		if !from.IsTerminal() {
			for _, to := range models.Pipeline {
				if to != from && !to.IsTerminal() {
					nexts[to] = true
				}
			}
		}
		t[from] = nexts
	}
	return t
}

func canTransition(current, to models.OpportunityStatus, table map[models.OpportunityStatus]map[models.OpportunityStatus]bool) bool {
	if current == "" {
		// rows without a stage may be placed anywhere open
		return to.Valid() && !to.IsTerminal()
	}
	nexts, ok := table[current]
	if !ok {
		return false
	}
	return nexts[to]
}

// checkMove explains why a drag from current to to is refused, or returns
// nil when it is allowed.
func checkMove(current, to models.OpportunityStatus) error {
	switch {
	case !to.Valid():
		return models.ErrValidation
	case current.IsTerminal():
		return ErrAlreadyClosed
	case to.IsTerminal():
		return ErrClosingRequiresOutcome
	case !canTransition(current, to, OpportunityTransitions):
		return models.ErrValidation
	}
	return nil
}
