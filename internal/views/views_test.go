package views

import (
	"math"
	"testing"
	"time"

	"trainingcrm/internal/models"
)

var (
	testLoc = mustLoc("Europe/Istanbul")
	testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, testLoc)
)

func mustLoc(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

func opp(id, customer string, status models.OpportunityStatus, total float64) models.Opportunity {
	created := testNow.Add(-24 * time.Hour)
	return models.Opportunity{
		ID:            id,
		CustomerName:  customer,
		Name:          id + " eğitimi",
		CreatedAt:     created,
		LastUpdatedAt: &created,
		Status:        status,
		TotalAmount:   total,
		Trainings:     []models.TrainingItem{},
	}
}

func training(id string, amount float64, st models.TrainingStatus) models.TrainingItem {
	return models.TrainingItem{ID: id, Amount: amount, Status: st}
}

// Two trainings of 1000 and 2000 are added, then closed one won one lost.
func TestScenarioAddThenClose(t *testing.T) {
	o := opp("o1", "Acme", models.StatusOfferSent, 0)
	o.Trainings = []models.TrainingItem{
		training("t1", 1000, models.TrainingPending),
		training("t2", 2000, models.TrainingPending),
	}
	o.TotalAmount = models.ComputeTotal(o.Trainings)
	if o.TotalAmount != 3000 {
		t.Fatalf("expected total 3000, got %v", o.TotalAmount)
	}
	list := []models.Opportunity{o}

	board := BuildBoard(list, Filter{}, testNow)
	col, _ := board.Column(models.StatusOfferSent)
	if col.Count != 1 || col.Cards[0].ID != "o1" {
		t.Fatalf("expected o1 in first column, got %+v", col)
	}
	if a := BuildAnalytics(list, testLoc); a.TotalOngoing != 3000 {
		t.Fatalf("expected ongoing 3000, got %v", a.TotalOngoing)
	}
	dir := BuildCustomerDirectory(list)
	if len(dir) != 1 || dir[0].TotalOngoing != 3000 || dir[0].OpportunityCount != 1 {
		t.Fatalf("unexpected directory: %+v", dir)
	}

	list[0].Status = models.StatusDone
	list[0].Trainings[0].Status = models.TrainingWon
	list[0].Trainings[1].Status = models.TrainingLost

	a := BuildAnalytics(list, testLoc)
	if a.TotalWon != 1000 || a.TotalLost != 2000 || a.TotalOngoing != 0 {
		t.Fatalf("unexpected totals: %+v", a)
	}
	if math.Abs(a.ClosingRate-100.0/3) > 1e-9 {
		t.Fatalf("expected closing rate 33.3, got %v", a.ClosingRate)
	}
	board = BuildBoard(list, Filter{}, testNow)
	done, _ := board.Column(models.StatusDone)
	first, _ := board.Column(models.StatusOfferSent)
	if done.Count != 1 || first.Count != 0 {
		t.Fatalf("expected card in Bitti, got done=%d first=%d", done.Count, first.Count)
	}
}

func TestBoardPartitionsInPipelineOrder(t *testing.T) {
	list := []models.Opportunity{
		opp("a", "X", models.StatusNearlyDone, 10),
		opp("b", "Y", models.StatusOfferSent, 20),
		opp("c", "Z", models.StatusNearlyDone, 30),
		opp("d", "Z", "Arşiv", 40),
	}
	b := BuildBoard(list, Filter{}, testNow)
	if len(b.Columns) != len(models.Pipeline) {
		t.Fatalf("expected %d columns, got %d", len(models.Pipeline), len(b.Columns))
	}
	for i, c := range b.Columns {
		if c.Status != models.Pipeline[i] {
			t.Fatalf("column %d: expected %q, got %q", i, models.Pipeline[i], c.Status)
		}
	}
	near, _ := b.Column(models.StatusNearlyDone)
	if near.Count != 2 || near.Cards[0].ID != "a" || near.Cards[1].ID != "c" || near.Amount != 40 {
		t.Fatalf("unexpected column: %+v", near)
	}
	if b.Total != 3 {
		t.Fatalf("expected unknown status dropped, total %d", b.Total)
	}
}

func TestFilter(t *testing.T) {
	lastMonth := opp("old", "Beta", models.StatusOfferSent, 500)
	lastMonth.CreatedAt = time.Date(2026, 2, 27, 9, 0, 0, 0, testLoc)
	list := []models.Opportunity{
		opp("İSG", "Acme Ltd", models.StatusOfferSent, 1000),
		opp("excel", "Çelik A.Ş.", models.StatusOfferSent, 50),
		lastMonth,
	}
	min := 100.0
	tests := []struct {
		name string
		f    Filter
		want []string
	}{
		{"none", Filter{}, []string{"İSG", "excel", "old"}},
		{"customer case-insensitive", Filter{Query: "acme"}, []string{"İSG"}},
		{"turkish letters", Filter{Query: "ÇELIK A.Ş"}, []string{"excel"}},
		{"min amount", Filter{MinAmount: &min}, []string{"İSG", "old"}},
		{"this month", Filter{CreatedThisMonth: true}, []string{"İSG", "excel"}},
		{"combined", Filter{Query: "a", MinAmount: &min, CreatedThisMonth: true}, []string{"İSG"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.f.Apply(list, testNow)
			if len(got) != len(tt.want) {
				t.Fatalf("expected %v, got %d items", tt.want, len(got))
			}
			for i := range got {
				if got[i].ID != tt.want[i] {
					t.Fatalf("expected %v at %d, got %s", tt.want[i], i, got[i].ID)
				}
			}
		})
	}
}

func TestStaleThreshold(t *testing.T) {
	mk := func(age time.Duration, st models.OpportunityStatus) models.Opportunity {
		o := opp("x", "X", st, 1)
		touched := testNow.Add(-age)
		o.CreatedAt = touched.Add(-time.Hour)
		o.LastUpdatedAt = &touched
		return o
	}
	tests := []struct {
		name string
		o    models.Opportunity
		want bool
	}{
		{"fresh", mk(time.Hour, models.StatusOfferSent), false},
		{"just under", mk(StaleAfter-time.Second, models.StatusOfferSent), false},
		{"exactly five days", mk(StaleAfter, models.StatusOfferSent), false},
		{"just over", mk(StaleAfter+time.Second, models.StatusOfferSent), true},
		{"closed never stale", mk(30*24*time.Hour, models.StatusDone), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsStale(&tt.o, testNow); got != tt.want {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}

	legacy := opp("legacy", "X", models.StatusOfferDiscussed, 1)
	legacy.LastUpdatedAt = nil
	legacy.CreatedAt = testNow.Add(-6 * 24 * time.Hour)
	fresh := opp("fresh", "X", models.StatusOfferDiscussed, 1)
	ids := StaleIDs([]models.Opportunity{fresh, legacy}, testNow)
	if len(ids) != 1 || ids[0] != "legacy" {
		t.Fatalf("expected [legacy], got %v", ids)
	}
	b := BuildBoard([]models.Opportunity{fresh, legacy}, Filter{}, testNow)
	if b.StaleCount != 1 {
		t.Fatalf("expected 1 stale card, got %d", b.StaleCount)
	}
}

func TestAnalyticsSkipsPendingAndBucketsByCreatedMonth(t *testing.T) {
	o := opp("o", "Acme", models.StatusDone, 9999)
	o.CreatedAt = time.Date(2026, 1, 31, 23, 30, 0, 0, time.UTC) // 1 February in Istanbul
	o.Trainings = []models.TrainingItem{
		training("a", 100, models.TrainingWon),
		training("b", 50, models.TrainingLost),
		training("c", 70, models.TrainingPending),
	}
	a := BuildAnalytics([]models.Opportunity{o}, testLoc)
	if a.TotalWon != 100 || a.TotalLost != 50 || a.TotalOngoing != 0 {
		t.Fatalf("unexpected totals: %+v", a)
	}
	if a.WonCount != 1 || a.LostCount != 1 {
		t.Fatalf("unexpected counts: won=%d lost=%d", a.WonCount, a.LostCount)
	}
	if a.Monthly[1].Won != 100 || a.Monthly[1].Lost != 50 || a.Monthly[0].Won != 0 {
		t.Fatalf("expected February bucket, got %+v", a.Monthly[:2])
	}
	if a.ChartScale != minChartScale {
		t.Fatalf("expected chart floor, got %v", a.ChartScale)
	}
}

func TestClosingRateGuard(t *testing.T) {
	if got := ClosingRate(0, 0); got != 0 {
		t.Fatalf("expected 0, got %v", got)
	}
	if got := ClosingRate(3, 1); got != 75 {
		t.Fatalf("expected 75, got %v", got)
	}
	if a := BuildAnalytics(nil, testLoc); a.ClosingRate != 0 || len(a.TopCustomers) != 0 {
		t.Fatalf("unexpected empty analytics: %+v", a)
	}
}

func TestTopCustomers(t *testing.T) {
	amounts := []float64{300, 100, 600, 100, 500, 200, 100}
	var list []models.Opportunity
	for i, amt := range amounts {
		o := opp(string(rune('a'+i)), string(rune('A'+i)), models.StatusDone, amt)
		o.Trainings = []models.TrainingItem{training("t", amt, models.TrainingWon)}
		list = append(list, o)
	}
	// second deal for B pushes it to 250
	extra := opp("z", "B", models.StatusDone, 150)
	extra.Trainings = []models.TrainingItem{training("t", 150, models.TrainingWon)}
	list = append(list, extra)

	top := BuildAnalytics(list, testLoc).TopCustomers
	want := []CustomerAmount{{"C", 600}, {"E", 500}, {"A", 300}, {"B", 250}, {"F", 200}}
	if len(top) != TopCustomerLimit {
		t.Fatalf("expected %d customers, got %d", TopCustomerLimit, len(top))
	}
	for i := range want {
		if top[i] != want[i] {
			t.Fatalf("position %d: expected %+v, got %+v", i, want[i], top[i])
		}
	}
}

func TestCustomerDirectory(t *testing.T) {
	early := opp("1", "Acme", models.StatusDone, 0)
	early.Contact = models.ContactPerson{FirstName: "Ali"}
	early.Trainings = []models.TrainingItem{training("t", 400, models.TrainingWon), training("u", 100, models.TrainingLost)}

	late := opp("2", "Acme", models.StatusOfferSent, 700)
	late.Contact = models.ContactPerson{FirstName: "Ayşe"}
	touched := testNow
	late.LastUpdatedAt = &touched

	other := opp("3", "Beta", models.StatusDone, 0)
	other.Trainings = []models.TrainingItem{training("t", 900, models.TrainingWon)}

	dir := BuildCustomerDirectory([]models.Opportunity{early, late, other})
	if len(dir) != 2 || dir[0].Name != "Beta" || dir[1].Name != "Acme" {
		t.Fatalf("unexpected order: %+v", dir)
	}
	acme := dir[1]
	if acme.TotalWon != 400 || acme.TotalLost != 100 || acme.TotalOngoing != 700 || acme.OpportunityCount != 2 {
		t.Fatalf("unexpected rollup: %+v", acme)
	}
	if acme.Contact.FirstName != "Ayşe" || !acme.LastInteraction.Equal(touched) {
		t.Fatalf("expected newest contact, got %+v", acme)
	}
}

func TestCalendarPlacesTargetDay(t *testing.T) {
	o := opp("o", "Acme", models.StatusOfferDiscussed, 1)
	o.TargetCloseDate = "2026-03-15"
	closed := opp("c", "Acme", models.StatusDone, 1)
	closed.TargetCloseDate = "2026-03-15"

	cal := BuildCalendar([]models.Opportunity{o, closed}, 2026, time.March, testLoc, testNow)
	// 1 March 2026 is a Sunday
	if cal.Offset != 6 {
		t.Fatalf("expected offset 6, got %d", cal.Offset)
	}
	if len(cal.Cells) != 6+31 {
		t.Fatalf("expected %d cells, got %d", 6+31, len(cal.Cells))
	}
	hits := 0
	for _, c := range cal.Cells {
		for _, x := range c.Opportunities {
			hits++
			if c.Day != 15 || x.ID != "o" {
				t.Fatalf("unexpected placement: day %d id %s", c.Day, x.ID)
			}
		}
	}
	if hits != 1 {
		t.Fatalf("expected one placement, got %d", hits)
	}
	today, _ := cal.Cell(10)
	if !today.Today {
		t.Fatal("expected 10 March marked today")
	}
	if _, ok := cal.Cell(32); ok {
		t.Fatal("expected no 32nd day")
	}
}

func TestCalendarNavigation(t *testing.T) {
	cal := BuildCalendar(nil, 2026, 13, testLoc, time.Time{})
	if cal.Year != 2027 || cal.Month != time.January {
		t.Fatalf("expected January 2027, got %d-%d", cal.Year, cal.Month)
	}
	if y, m := cal.Prev(); y != 2026 || m != time.December {
		t.Fatalf("expected December 2026, got %d-%d", y, m)
	}
	if y, m := cal.Next(); y != 2027 || m != time.February {
		t.Fatalf("expected February 2027, got %d-%d", y, m)
	}
	if MondayOffset(2026, time.June, testLoc) != 0 {
		t.Fatal("1 June 2026 is a Monday")
	}
	if DaysIn(2028, time.February, testLoc) != 29 {
		t.Fatal("2028 is a leap year")
	}
}
