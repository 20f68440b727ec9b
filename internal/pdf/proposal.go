package pdf

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"trainingcrm/internal/models"
	"trainingcrm/internal/utils"
)

// Generator renders printable proposals; handlers depend on this.
type Generator interface {
	Render(w io.Writer, opp models.Opportunity) error
	Generate(opp models.Opportunity) (string, error)
}

// ProposalGenerator renders the "Eğitim Teklifi" sheet of an opportunity.
// With a TTF font configured the text is written as UTF-8; otherwise a core
// font with the Turkish code page is used.
type ProposalGenerator struct {
	RootDir  string
	FontPath string
	Company  string
	Now      func() time.Time
	Location *time.Location
	fontName string
}

func NewProposalGenerator(rootDir, fontPath, company string) *ProposalGenerator {
	return &ProposalGenerator{
		RootDir:  filepath.Clean(rootDir),
		FontPath: fontPath,
		Company:  company,
		Now:      time.Now,
		Location: time.Local,
		fontName: "DejaVu",
	}
}

// Filename is the name a proposal is stored under.
func Filename(opp models.Opportunity) string {
	return fmt.Sprintf("teklif_%s.pdf", Reference(opp))
}

// Reference is the short proposal number shown on the sheet.
func Reference(opp models.Opportunity) string {
	id := strings.ReplaceAll(opp.ID, "-", "")
	if len(id) > 8 {
		id = id[:8]
	}
	return strings.ToUpper(id)
}

// Generate writes the proposal under RootDir and returns its public path.
func (g *ProposalGenerator) Generate(opp models.Opportunity) (string, error) {
	absPath, err := g.ensureTarget(Filename(opp))
	if err != nil {
		return "", err
	}
	f, err := os.Create(absPath)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", absPath, err)
	}
	if err := g.Render(f, opp); err != nil {
		f.Close()
		_ = os.Remove(absPath)
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return "/" + filepath.ToSlash(filepath.Base(absPath)), nil
}

func (g *ProposalGenerator) Render(w io.Writer, opp models.Opportunity) error {
	loc := g.Location
	if loc == nil {
		loc = time.Local
	}
	now := time.Now
	if g.Now != nil {
		now = g.Now
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := g.setupFont(pdf)
	pdf.SetTitle(tr("Eğitim Teklifi - "+opp.Name), false)
	pdf.SetAuthor(tr(g.Company), false)
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont(g.font(), "", 9)
		pdf.CellFormat(0, 10, tr(fmt.Sprintf("Sayfa %d/{nb}", pdf.PageNo())), "", 0, "C", false, 0, "")
	})

	pdf.AddPage()

	// ===== header
	pdf.SetFont(g.font(), "B", 20)
	pdf.CellFormat(0, 10, tr("Eğitim Teklifi"), "", 1, "L", false, 0, "")
	pdf.SetFont(g.font(), "", 12)
	pdf.CellFormat(0, 7, tr(opp.CustomerName), "", 1, "L", false, 0, "")
	pdf.SetFont(g.font(), "", 9)
	pdf.CellFormat(0, 6, tr(fmt.Sprintf("Tarih: %s | Referans: %s",
		now().In(loc).Format("02.01.2006"), Reference(opp))), "", 1, "L", false, 0, "")
	g.hr(pdf)

	// ===== overview
	g.sectionTitle(pdf, tr("Genel Bilgiler"))
	g.kvLine(pdf, tr("Fırsat"), tr(opp.Name))
	g.kvLine(pdf, tr("Durum"), tr(string(opp.Status)))
	g.kvLine(pdf, tr("Oluşturulma"), opp.CreatedAt.In(loc).Format("02.01.2006"))
	if day := opp.TargetCloseDay(loc); day != "" {
		if d, err := time.Parse(models.DateLayout, day); err == nil {
			day = d.Format("02.01.2006")
		}
		g.kvLine(pdf, tr("Hedef Kapanış"), day)
	}
	if opp.Assignee != "" {
		g.kvLine(pdf, tr("Sorumlu"), tr(opp.Assignee))
	}
	pdf.Ln(2)

	// ===== contact
	g.sectionTitle(pdf, tr("İlgili Kişi"))
	g.kvLine(pdf, tr("Ad Soyad"), tr(opp.Contact.FullName()))
	g.kvLine(pdf, tr("E-posta"), tr(opp.Contact.Email))
	g.kvLine(pdf, tr("Telefon"), tr(opp.Contact.Phone))
	pdf.Ln(2)
	g.hr(pdf)

	// ===== trainings
	g.sectionTitle(pdf, tr("Eğitimler"))
	g.trainingTable(pdf, tr, opp.Trainings)
	pdf.Ln(2)
	pdf.SetFont(g.font(), "B", 12)
	pdf.CellFormat(0, 8, tr("Toplam: "+g.money(opp.TotalAmount)), "", 1, "R", false, 0, "")
	g.hr(pdf)

	// ===== history
	if len(opp.Activities) > 0 {
		g.sectionTitle(pdf, tr("Görüşme Geçmişi"))
		pdf.SetFont(g.font(), "", 10)
		for _, a := range opp.Activities {
			line := fmt.Sprintf("%s [%s] %s", a.Date.In(loc).Format("02.01.2006 15:04"), a.Type, a.Content)
			pdf.MultiCell(0, 5, tr(line), "", "L", false)
		}
	} else if notes := opp.VisibleNotes(); notes != "" {
		g.sectionTitle(pdf, tr("Notlar"))
		pdf.SetFont(g.font(), "", 10)
		pdf.MultiCell(0, 5, tr(notes), "", "L", false)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render proposal %s: %w", opp.ID, err)
	}
	return nil
}

func (g *ProposalGenerator) trainingTable(pdf *gofpdf.Fpdf, tr func(string) string, items []models.TrainingItem) {
	widths := []float64{55, 30, 25, 30, 30}
	header := []string{"Konu", "Tür", "Süre", "Tutar", "Durum"}
	pdf.SetFont(g.font(), "B", 10)
	pdf.SetFillColor(235, 238, 245)
	for i, h := range header {
		pdf.CellFormat(widths[i], 7, tr(h), "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont(g.font(), "", 10)
	for _, t := range items {
		row := []string{t.Topic, t.Type, t.Duration, g.money(t.LineTotal()), trainingStatusLabel(t.Status)}
		for i, v := range row {
			align := "L"
			if i == 3 {
				align = "R"
			}
			pdf.CellFormat(widths[i], 7, tr(v), "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
		if t.HasAssessment && t.ParticipantCount != nil && t.AssessmentPrice != nil {
			pdf.SetFont(g.font(), "I", 8)
			note := fmt.Sprintf("  + ölçme değerlendirme: %d kişi x %s", *t.ParticipantCount, g.money(*t.AssessmentPrice))
			pdf.CellFormat(0, 5, tr(note), "", 1, "L", false, 0, "")
			pdf.SetFont(g.font(), "", 10)
		}
		if t.Status == models.TrainingLost && t.LossReason != "" {
			pdf.SetFont(g.font(), "I", 8)
			pdf.CellFormat(0, 5, tr("  Kayıp nedeni: "+t.LossReason), "", 1, "L", false, 0, "")
			pdf.SetFont(g.font(), "", 10)
		}
	}
}

func trainingStatusLabel(s models.TrainingStatus) string {
	switch s {
	case models.TrainingWon:
		return "Kazanıldı"
	case models.TrainingLost:
		return "Kaybedildi"
	default:
		return "Bekliyor"
	}
}

func (g *ProposalGenerator) money(v float64) string {
	s := utils.FormatTRY(v)
	if g.FontPath == "" {
		// the core fonts have no lira sign
		s = strings.Replace(s, "₺", "TL", 1)
	}
	return s
}

func (g *ProposalGenerator) font() string {
	if g.FontPath == "" {
		return "Helvetica"
	}
	return g.fontName
}

// setupFont registers the UTF-8 font when one is configured and returns the
// string translator matching the chosen font.
func (g *ProposalGenerator) setupFont(pdf *gofpdf.Fpdf) func(string) string {
	if g.FontPath == "" {
		return pdf.UnicodeTranslatorFromDescriptor("cp1254")
	}
	pdf.AddUTF8Font(g.fontName, "", g.FontPath)
	pdf.AddUTF8Font(g.fontName, "B", g.FontPath)
	pdf.AddUTF8Font(g.fontName, "I", g.FontPath)
	return func(s string) string { return s }
}

func (g *ProposalGenerator) sectionTitle(pdf *gofpdf.Fpdf, s string) {
	pdf.SetFont(g.font(), "B", 12)
	pdf.CellFormat(0, 7, s, "", 1, "L", false, 0, "")
	pdf.SetFont(g.font(), "", 11)
}

func (g *ProposalGenerator) kvLine(pdf *gofpdf.Fpdf, key, val string) {
	pdf.SetFont(g.font(), "B", 11)
	pdf.CellFormat(45, 6, key+":", "", 0, "L", false, 0, "")
	pdf.SetFont(g.font(), "", 11)
	pdf.CellFormat(0, 6, val, "", 1, "L", false, 0, "")
}

func (g *ProposalGenerator) hr(pdf *gofpdf.Fpdf) {
	y := pdf.GetY() + 1.5
	pdf.SetLineWidth(0.2)
	pdf.Line(20, y, 190, y)
	pdf.SetY(y + 2)
}

func (g *ProposalGenerator) ensureTarget(filename string) (string, error) {
	if err := os.MkdirAll(g.RootDir, 0o755); err != nil {
		return "", fmt.Errorf("create files dir: %w", err)
	}
	filename = filepath.Base(filename)
	return filepath.Join(g.RootDir, filename), nil
}
