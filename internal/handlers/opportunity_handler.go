package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"trainingcrm/internal/models"
	"trainingcrm/internal/services"
)

type OpportunityHandler struct {
	Service *services.OpportunityService
}

func NewOpportunityHandler(service *services.OpportunityService) *OpportunityHandler {
	return &OpportunityHandler{Service: service}
}

type statusRequest struct {
	Status models.OpportunityStatus `json:"status" binding:"required"`
}

type closeRequest struct {
	Outcomes []services.TrainingOutcome `json:"outcomes"`
}

type activityRequest struct {
	Type    models.ActivityType `json:"type" binding:"required"`
	Content string              `json:"content" binding:"required"`
}

type taskRequest struct {
	Title string `json:"title" binding:"required"`
}

// @Summary      Fırsat listesi
// @Tags         Opportunities
// @Produce      json
// @Success      200  {array}   models.Opportunity
// @Router       /opportunities [get]
func (h *OpportunityHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, h.Service.List())
}

func (h *OpportunityHandler) GetByID(c *gin.Context) {
	opp, err := h.Service.Get(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, opp)
}

// @Summary      Yeni fırsat
// @Description  Fırsatı "Teklif verildi" aşamasında oluşturur
// @Tags         Opportunities
// @Accept       json
// @Produce      json
// @Param        body  body      services.NewOpportunityInput  true  "Fırsat"
// @Success      201   {object}  models.Opportunity
// @Failure      400   {object}  map[string]string
// @Failure      502   {object}  map[string]string
// @Router       /opportunities [post]
func (h *OpportunityHandler) Create(c *gin.Context) {
	var in services.NewOpportunityInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err.Error())
		return
	}
	opp, err := h.Service.Create(c.Request.Context(), in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, opp)
}

func (h *OpportunityHandler) Update(c *gin.Context) {
	var in services.DetailsInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err.Error())
		return
	}
	opp, err := h.Service.UpdateDetails(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, opp)
}

// @Summary      Aşama değiştir
// @Tags         Opportunities
// @Accept       json
// @Produce      json
// @Param        id    path      string         true  "Fırsat ID"
// @Param        body  body      statusRequest  true  "Yeni aşama"
// @Success      200   {object}  models.Opportunity
// @Failure      409   {object}  map[string]string
// @Router       /opportunities/{id}/status [post]
func (h *OpportunityHandler) UpdateStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	opp, err := h.Service.Move(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, opp)
}

// Close resolves the trainings and finishes the opportunity.
func (h *OpportunityHandler) Close(c *gin.Context) {
	var req closeRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
	}
	opp, err := h.Service.Close(c.Request.Context(), c.Param("id"), req.Outcomes)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, opp)
}

func (h *OpportunityHandler) AddActivity(c *gin.Context) {
	var req activityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	a, err := h.Service.AddActivity(c.Request.Context(), c.Param("id"), req.Type, req.Content)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, a)
}

func (h *OpportunityHandler) AddTask(c *gin.Context) {
	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	t, err := h.Service.AddTask(c.Request.Context(), c.Param("id"), req.Title)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

func (h *OpportunityHandler) ToggleTask(c *gin.Context) {
	t, err := h.Service.ToggleTask(c.Request.Context(), c.Param("id"), c.Param("taskId"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *OpportunityHandler) RemoveTask(c *gin.Context) {
	if err := h.Service.RemoveTask(c.Request.Context(), c.Param("id"), c.Param("taskId")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
