package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"trainingcrm/internal/services"
)

// ReportHandler serves the derived dashboard views.
type ReportHandler struct {
	Service *services.DashboardService
}

func NewReportHandler(service *services.DashboardService) *ReportHandler {
	return &ReportHandler{Service: service}
}

// @Summary      Kanban panosu
// @Tags         Reports
// @Produce      json
// @Param        q           query  string  false  "Fırsat veya müşteri adı"
// @Param        min_amount  query  number  false  "En düşük tutar"
// @Param        this_month  query  bool    false  "Bu ay oluşturulanlar"
// @Success      200  {object}  views.Board
// @Router       /kanban [get]
func (h *ReportHandler) Kanban(c *gin.Context) {
	f, err := filterFromQuery(c)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	c.JSON(http.StatusOK, h.Service.Board(f))
}

// ExportKanban downloads the filtered board as CSV.
func (h *ReportHandler) ExportKanban(c *gin.Context) {
	f, err := filterFromQuery(c)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	name := fmt.Sprintf("firsatlar_%s.csv", h.Service.Now().In(h.Service.Location).Format("20060102"))
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	c.Status(http.StatusOK)
	if _, err := h.Service.ExportCSV(c.Writer, f); err != nil {
		_ = c.Error(err)
	}
}

// @Summary      Satış analizi
// @Tags         Reports
// @Produce      json
// @Success      200  {object}  views.Analytics
// @Router       /reports/analytics [get]
func (h *ReportHandler) Analytics(c *gin.Context) {
	c.JSON(http.StatusOK, h.Service.Analytics())
}

func (h *ReportHandler) Customers(c *gin.Context) {
	c.JSON(http.StatusOK, h.Service.Customers())
}

// Calendar takes ?year=&month= and defaults to the current month.
func (h *ReportHandler) Calendar(c *gin.Context) {
	year, yerr := strconv.Atoi(c.DefaultQuery("year", "0"))
	month, merr := strconv.Atoi(c.DefaultQuery("month", "0"))
	if yerr != nil || merr != nil || year < 0 || month < 0 || month > 12 {
		badRequest(c, "invalid year or month")
		return
	}
	c.JSON(http.StatusOK, h.Service.Calendar(year, time.Month(month)))
}

func (h *ReportHandler) Stale(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ids": h.Service.StaleIDs()})
}
