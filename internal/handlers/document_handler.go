package handlers

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"trainingcrm/internal/pdf"
	"trainingcrm/internal/services"
)

type DocumentHandler struct {
	Service   *services.OpportunityService
	Generator pdf.Generator
}

func NewDocumentHandler(service *services.OpportunityService, gen pdf.Generator) *DocumentHandler {
	return &DocumentHandler{Service: service, Generator: gen}
}

// GET /opportunities/:id/pdf
// ?download=1 asks for an attachment, ?save=1 also keeps a copy on disk.
func (h *DocumentHandler) Proposal(c *gin.Context) {
	if h.Generator == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "pdf generator not configured"})
		return
	}
	opp, err := h.Service.Get(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	if c.Query("save") != "" {
		path, err := h.Generator.Generate(*opp)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.Header("X-File-Path", path)
	}

	var buf bytes.Buffer
	if err := h.Generator.Render(&buf, *opp); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	disposition := "inline"
	if c.Query("download") != "" {
		disposition = "attachment"
	}
	c.Header("Content-Disposition", fmt.Sprintf(`%s; filename="%s"`, disposition, pdf.Filename(*opp)))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}
