package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"trainingcrm/internal/models"
	"trainingcrm/internal/services"
	"trainingcrm/internal/utils"
	"trainingcrm/internal/views"
)

// statusFor maps service errors to HTTP codes. Anything unknown came from
// the remote table.
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrDuplicateID),
		errors.Is(err, services.ErrAlreadyClosed),
		errors.Is(err, services.ErrClosingRequiresOutcome):
		return http.StatusConflict
	default:
		return http.StatusBadGateway
	}
}

func writeError(c *gin.Context, err error) {
	code := statusFor(err)
	if code >= http.StatusInternalServerError {
		utils.Log.WithField("path", c.FullPath()).WithError(err).Error("[http] request failed")
	}
	c.JSON(code, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

// filterFromQuery reads ?q=&min_amount=&this_month= into a board filter.
func filterFromQuery(c *gin.Context) (views.Filter, error) {
	f := views.Filter{Query: strings.TrimSpace(c.Query("q"))}
	if v := strings.TrimSpace(c.Query("min_amount")); v != "" {
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return f, errors.New("invalid min_amount")
		}
		f.MinAmount = &n
	}
	if v := c.Query("this_month"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return f, errors.New("invalid this_month")
		}
		f.CreatedThisMonth = b
	}
	return f, nil
}
