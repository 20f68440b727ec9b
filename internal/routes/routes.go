package routes

import (
	"github.com/gin-gonic/gin"

	"trainingcrm/internal/handlers"
	"trainingcrm/internal/realtime"
)

func SetupRoutes(
	r *gin.Engine,
	stateHandler *handlers.StateHandler,
	opportunityHandler *handlers.OpportunityHandler,
	reportHandler *handlers.ReportHandler,
	documentHandler *handlers.DocumentHandler,
	hub *realtime.Hub, // may be nil
) *gin.Engine {

	// ---- store state
	r.GET("/state", stateHandler.Get)
	r.POST("/reload", stateHandler.Reload)
	r.DELETE("/state/notices", stateHandler.ClearNotices)

	// OPPORTUNITIES
	opps := r.Group("/opportunities")
	{
		opps.GET("", opportunityHandler.List)
		opps.POST("", opportunityHandler.Create)
		opps.GET("/:id", opportunityHandler.GetByID)
		opps.PUT("/:id", opportunityHandler.Update)
		opps.POST("/:id/status", opportunityHandler.UpdateStatus)
		opps.POST("/:id/close", opportunityHandler.Close)
		opps.POST("/:id/activities", opportunityHandler.AddActivity)
		opps.POST("/:id/tasks", opportunityHandler.AddTask)
		opps.POST("/:id/tasks/:taskId/toggle", opportunityHandler.ToggleTask)
		opps.DELETE("/:id/tasks/:taskId", opportunityHandler.RemoveTask)
		if documentHandler != nil {
			opps.GET("/:id/pdf", documentHandler.Proposal)
		}
	}

	// VIEWS
	r.GET("/kanban", reportHandler.Kanban)
	r.GET("/kanban/export.csv", reportHandler.ExportKanban)
	r.GET("/kanban/stale", reportHandler.Stale)
	r.GET("/customers", reportHandler.Customers)
	r.GET("/calendar", reportHandler.Calendar)

	reports := r.Group("/reports")
	{
		reports.GET("/analytics", reportHandler.Analytics)
	}

	if hub != nil {
		r.GET("/ws", gin.WrapH(hub.Handler()))
	}

	return r
}
