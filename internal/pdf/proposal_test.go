package pdf

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"trainingcrm/internal/models"
)

func proposalFixture() models.Opportunity {
	n, price := 20, 150.0
	created := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	return models.Opportunity{
		ID:              "3f2a9c1e-77aa-4b1b-9d3e-0c5f1a2b3c4d",
		CustomerName:    "Çağ Lojistik A.Ş.",
		Name:            "Liderlik ve İletişim",
		CreatedAt:       created,
		TargetCloseDate: "2026-04-01",
		Assignee:        "Gülşen",
		Contact:         models.ContactPerson{FirstName: "Ayşe", LastName: "Yılmaz", Email: "ayse@cag.test"},
		Trainings: []models.TrainingItem{
			{ID: "t1", Topic: "Liderlik", Type: "Yüz yüze", Amount: 12000, Duration: "2 gün", Status: models.TrainingWon},
			{ID: "t2", Topic: "İletişim", Type: "Online", Amount: 8000, HasAssessment: true,
				ParticipantCount: &n, AssessmentPrice: &price, Status: models.TrainingLost, LossReason: "bütçe"},
		},
		Activities:  []models.Activity{{ID: "a", Date: created, Type: models.ActivityCall, Content: "Görüşüldü"}},
		TotalAmount: 23000,
		Status:      models.StatusDone,
	}
}

func TestRender(t *testing.T) {
	g := NewProposalGenerator(t.TempDir(), "", "Eğitim CRM")
	g.Now = func() time.Time { return time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC) }
	g.Location = time.UTC

	var buf bytes.Buffer
	if err := g.Render(&buf, proposalFixture()); err != nil {
		t.Fatalf("render: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF")) {
		t.Fatalf("expected a pdf, got %q", buf.Bytes()[:8])
	}
}

func TestRenderLegacyNotes(t *testing.T) {
	o := proposalFixture()
	o.Activities = nil
	o.Notes = "eski serbest not"
	var buf bytes.Buffer
	if err := NewProposalGenerator(t.TempDir(), "", "x").Render(&buf, o); err != nil {
		t.Fatal(err)
	}
	if buf.Len() == 0 {
		t.Fatal("empty output")
	}
}

func TestGenerateWritesFile(t *testing.T) {
	dir := t.TempDir()
	g := NewProposalGenerator(dir, "", "Eğitim CRM")
	path, err := g.Generate(proposalFixture())
	if err != nil {
		t.Fatal(err)
	}
	if path != "/teklif_3F2A9C1E.pdf" {
		t.Fatalf("unexpected path %q", path)
	}
	b, err := os.ReadFile(filepath.Join(dir, "teklif_3F2A9C1E.pdf"))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(b, []byte("%PDF")) {
		t.Fatal("file is not a pdf")
	}
}

func TestReference(t *testing.T) {
	if got := Reference(models.Opportunity{ID: "ab-cd"}); got != "ABCD" {
		t.Fatalf("expected ABCD, got %q", got)
	}
}
