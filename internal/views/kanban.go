// Package views derives the read-only projections the dashboard renders
// from a flat opportunity list. Every function here is pure: inputs are
// never modified and no I/O happens.
package views

import (
	"strings"
	"time"

	"golang.org/x/text/cases"

	"trainingcrm/internal/models"
)

// Filter narrows the board before grouping. Zero value keeps everything.
type Filter struct {
	Query            string   `json:"query,omitempty"`
	MinAmount        *float64 `json:"minAmount,omitempty"`
	CreatedThisMonth bool     `json:"createdThisMonth,omitempty"`
}

// Match reports whether o passes f, with now as the reference for the
// current-month predicate.
func (f Filter) Match(o *models.Opportunity, now time.Time) bool {
	if q := strings.TrimSpace(f.Query); q != "" {
		// Casers keep state, so each call gets its own.
		folder := cases.Fold()
		needle := folder.String(q)
		if !strings.Contains(folder.String(o.Name), needle) &&
			!strings.Contains(folder.String(o.CustomerName), needle) {
			return false
		}
	}
	if f.MinAmount != nil && o.TotalAmount < *f.MinAmount {
		return false
	}
	if f.CreatedThisMonth {
		c := o.CreatedAt.In(now.Location())
		if c.Year() != now.Year() || c.Month() != now.Month() {
			return false
		}
	}
	return true
}

// Apply returns the opportunities matching f, in source order.
func (f Filter) Apply(list []models.Opportunity, now time.Time) []models.Opportunity {
	out := make([]models.Opportunity, 0, len(list))
	for i := range list {
		if f.Match(&list[i], now) {
			out = append(out, list[i])
		}
	}
	return out
}

type Card struct {
	models.Opportunity
	Stale bool `json:"stale"`
}

type Column struct {
	Status models.OpportunityStatus `json:"status"`
	Cards  []Card                   `json:"cards"`
	Count  int                      `json:"count"`
	Amount float64                  `json:"amount"`
}

type Board struct {
	Columns     []Column  `json:"columns"`
	Total       int       `json:"total"`
	StaleCount  int       `json:"staleCount"`
	GeneratedAt time.Time `json:"generatedAt"`
}

// BuildBoard filters list and partitions it into one column per pipeline
// stage. Cards keep their source order; records with a status outside the
// pipeline are dropped.
func BuildBoard(list []models.Opportunity, f Filter, now time.Time) Board {
	cols := make([]Column, len(models.Pipeline))
	index := make(map[models.OpportunityStatus]int, len(models.Pipeline))
	for i, st := range models.Pipeline {
		cols[i] = Column{Status: st, Cards: []Card{}}
		index[st] = i
	}

	b := Board{GeneratedAt: now}
	for i := range list {
		o := &list[i]
		if !f.Match(o, now) {
			continue
		}
		ci, ok := index[o.Status]
		if !ok {
			continue
		}
		stale := IsStale(o, now)
		cols[ci].Cards = append(cols[ci].Cards, Card{Opportunity: o.Clone(), Stale: stale})
		cols[ci].Count++
		cols[ci].Amount += o.TotalAmount
		b.Total++
		if stale {
			b.StaleCount++
		}
	}
	b.Columns = cols
	return b
}

// Column returns the column for st.
func (b Board) Column(st models.OpportunityStatus) (Column, bool) {
	for _, c := range b.Columns {
		if c.Status == st {
			return c, true
		}
	}
	return Column{}, false
}
