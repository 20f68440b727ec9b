package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"trainingcrm/internal/store"
)

// StateHandler exposes the store's loading/error/notice state.
type StateHandler struct {
	Store *store.Store
}

func NewStateHandler(s *store.Store) *StateHandler {
	return &StateHandler{Store: s}
}

func (h *StateHandler) Get(c *gin.Context) {
	c.JSON(http.StatusOK, h.Store.State())
}

// Reload refetches the whole list. A failed load keeps the previous list
// and is reported in the state.
func (h *StateHandler) Reload(c *gin.Context) {
	if err := h.Store.Load(c.Request.Context()); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "state": h.Store.State()})
		return
	}
	c.JSON(http.StatusOK, h.Store.State())
}

// ClearNotices acknowledges the visible notices.
func (h *StateHandler) ClearNotices(c *gin.Context) {
	h.Store.ClearNotices()
	c.Status(http.StatusNoContent)
}
