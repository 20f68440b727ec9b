package views

import (
	"sort"
	"time"

	"trainingcrm/internal/models"
)

// StaleAfter is how long an open opportunity may go untouched.
const StaleAfter = 5 * 24 * time.Hour

// IsStale reports whether an open opportunity was last touched more than
// StaleAfter before now.
func IsStale(o *models.Opportunity, now time.Time) bool {
	if o.Status.IsTerminal() {
		return false
	}
	return now.Sub(o.LastTouched()) > StaleAfter
}

// StaleIDs returns the ids of stale opportunities, sorted.
func StaleIDs(list []models.Opportunity, now time.Time) []string {
	var ids []string
	for i := range list {
		if IsStale(&list[i], now) {
			ids = append(ids, list[i].ID)
		}
	}
	sort.Strings(ids)
	return ids
}
