package services

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"trainingcrm/internal/models"
	"trainingcrm/internal/utils"
	"trainingcrm/internal/views"
)

// Snapshotter hands out a private copy of the opportunity list.
type Snapshotter interface {
	Snapshot() []models.Opportunity
}

// DashboardService derives every read view from one snapshot of the store.
type DashboardService struct {
	Source   Snapshotter
	Now      func() time.Time
	Location *time.Location
}

func NewDashboardService(src Snapshotter, now func() time.Time, loc *time.Location) *DashboardService {
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = time.Local
	}
	return &DashboardService{Source: src, Now: now, Location: loc}
}

func (s *DashboardService) now() time.Time {
	return s.Now().In(s.Location)
}

func (s *DashboardService) Board(f views.Filter) views.Board {
	return views.BuildBoard(s.Source.Snapshot(), f, s.now())
}

func (s *DashboardService) Analytics() views.Analytics {
	return views.BuildAnalytics(s.Source.Snapshot(), s.Location)
}

func (s *DashboardService) Customers() []views.CustomerSummary {
	return views.BuildCustomerDirectory(s.Source.Snapshot())
}

// Calendar builds the given month. A zero year or month means the current
// one.
func (s *DashboardService) Calendar(year int, month time.Month) views.Calendar {
	now := s.now()
	if year == 0 {
		year = now.Year()
	}
	if month == 0 {
		month = now.Month()
	}
	return views.BuildCalendar(s.Source.Snapshot(), year, month, s.Location, now)
}

func (s *DashboardService) StaleIDs() []string {
	return views.StaleIDs(s.Source.Snapshot(), s.now())
}

var exportHeader = []string{
	"Durum", "Müşteri", "Fırsat", "Sorumlu", "İlgili Kişi", "E-posta", "Telefon",
	"Tutar", "Oluşturulma", "Hedef Kapanış", "Eğitim Sayısı", "Hareketsiz",
}

// ExportCSV writes the filtered board column by column, one row per card.
func (s *DashboardService) ExportCSV(w io.Writer, f views.Filter) (int, error) {
	board := s.Board(f)
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return 0, fmt.Errorf("write header: %w", err)
	}
	rows := 0
	for _, col := range board.Columns {
		for _, c := range col.Cards {
			stale := ""
			if c.Stale {
				stale = "evet"
			}
			rec := []string{
				string(c.Status),
				c.CustomerName,
				c.Name,
				c.Assignee,
				c.Contact.FullName(),
				c.Contact.Email,
				c.Contact.Phone,
				strconv.FormatFloat(c.TotalAmount, 'f', 2, 64),
				c.CreatedAt.In(s.Location).Format(models.DateLayout),
				c.TargetCloseDay(s.Location),
				strconv.Itoa(len(c.Trainings)),
				stale,
			}
			if err := cw.Write(rec); err != nil {
				return rows, fmt.Errorf("write row %s: %w", c.ID, err)
			}
			rows++
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return rows, fmt.Errorf("flush csv: %w", err)
	}
	utils.Log.WithField("rows", rows).Debug("[dashboard] csv export")
	return rows, nil
}
