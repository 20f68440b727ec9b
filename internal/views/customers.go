package views

import (
	"sort"
	"time"

	"trainingcrm/internal/models"
)

type CustomerSummary struct {
	Name             string               `json:"name"`
	Contact          models.ContactPerson `json:"contact"`
	TotalWon         float64              `json:"totalWon"`
	TotalLost        float64              `json:"totalLost"`
	TotalOngoing     float64              `json:"totalOngoing"`
	OpportunityCount int                  `json:"opportunityCount"`
	LastInteraction  time.Time            `json:"lastInteraction"`
}

// BuildCustomerDirectory groups the list by customer name. Contact details
// come from the customer's most recently touched opportunity. Entries are
// sorted by won amount, ties keeping first-seen order.
func BuildCustomerDirectory(list []models.Opportunity) []CustomerSummary {
	byName := map[string]int{}
	out := []CustomerSummary{}

	for i := range list {
		o := &list[i]
		touched := o.LastTouched()

		idx, ok := byName[o.CustomerName]
		if !ok {
			idx = len(out)
			byName[o.CustomerName] = idx
			out = append(out, CustomerSummary{
				Name:            o.CustomerName,
				Contact:         o.Contact,
				LastInteraction: touched,
			})
		}
		c := &out[idx]
		c.OpportunityCount++

		if touched.After(c.LastInteraction) {
			c.LastInteraction = touched
			c.Contact = o.Contact
		}

		if o.Status.IsTerminal() {
			for _, t := range o.Trainings {
				switch t.Status {
				case models.TrainingWon:
					c.TotalWon += t.Amount
				case models.TrainingLost:
					c.TotalLost += t.Amount
				}
			}
		} else {
			c.TotalOngoing += o.TotalAmount
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].TotalWon > out[j].TotalWon })
	return out
}
