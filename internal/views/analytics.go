package views

import (
	"sort"
	"time"

	"trainingcrm/internal/models"
)

// TopCustomerLimit is the length of the top-customers list.
const TopCustomerLimit = 5

// minChartScale keeps small months from filling the whole chart height.
const minChartScale = 100000

type MonthBucket struct {
	Month time.Month `json:"month"`
	Won   float64    `json:"won"`
	Lost  float64    `json:"lost"`
}

type CustomerAmount struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
}

type Analytics struct {
	TotalWon     float64          `json:"totalWon"`
	TotalLost    float64          `json:"totalLost"`
	TotalOngoing float64          `json:"totalOngoing"`
	WonCount     int              `json:"wonCount"`
	LostCount    int              `json:"lostCount"`
	ClosingRate  float64          `json:"closingRate"` // percent, 0 when nothing was decided
	Monthly      [12]MonthBucket  `json:"monthly"`
	TopCustomers []CustomerAmount `json:"topCustomers"`
	ChartScale   float64          `json:"chartScale"`
}

// ClosingRate is won / (won + lost) as a percentage. It is 0 when both are
// zero.
func ClosingRate(won, lost float64) float64 {
	den := won + lost
	if den <= 0 {
		return 0
	}
	return won / den * 100
}

// BuildAnalytics rolls up closed opportunities training by training and
// open ones by their total. Months are keyed by the opportunity's createdAt
// in loc.
func BuildAnalytics(list []models.Opportunity, loc *time.Location) Analytics {
	if loc == nil {
		loc = time.Local
	}
	var a Analytics
	for m := range a.Monthly {
		a.Monthly[m].Month = time.Month(m + 1)
	}

	wonBy := map[string]float64{}
	var order []string

	for i := range list {
		o := &list[i]
		if !o.Status.IsTerminal() {
			a.TotalOngoing += o.TotalAmount
			continue
		}
		month := o.CreatedAt.In(loc).Month() - 1
		for _, t := range o.Trainings {
			switch t.Status {
			case models.TrainingWon:
				a.TotalWon += t.Amount
				a.WonCount++
				a.Monthly[month].Won += t.Amount
				if _, seen := wonBy[o.CustomerName]; !seen {
					order = append(order, o.CustomerName)
				}
				wonBy[o.CustomerName] += t.Amount
			case models.TrainingLost:
				a.TotalLost += t.Amount
				a.LostCount++
				a.Monthly[month].Lost += t.Amount
			}
		}
	}

	a.ClosingRate = ClosingRate(a.TotalWon, a.TotalLost)

	top := make([]CustomerAmount, 0, len(order))
	for _, name := range order {
		top = append(top, CustomerAmount{Name: name, Amount: wonBy[name]})
	}
	sort.SliceStable(top, func(i, j int) bool { return top[i].Amount > top[j].Amount })
	if len(top) > TopCustomerLimit {
		top = top[:TopCustomerLimit]
	}
	a.TopCustomers = top

	a.ChartScale = minChartScale
	for _, m := range a.Monthly {
		if v := m.Won + m.Lost; v > a.ChartScale {
			a.ChartScale = v
		}
	}
	return a
}
