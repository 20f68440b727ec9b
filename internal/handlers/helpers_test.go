package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"trainingcrm/internal/models"
	"trainingcrm/internal/services"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("x: %w", models.ErrValidation), http.StatusBadRequest},
		{fmt.Errorf("x: %w", models.ErrNotFound), http.StatusNotFound},
		{models.ErrDuplicateID, http.StatusConflict},
		{fmt.Errorf("close: %w", services.ErrAlreadyClosed), http.StatusConflict},
		{services.ErrClosingRequiresOutcome, http.StatusConflict},
		{errors.New("remote table: status=500"), http.StatusBadGateway},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Fatalf("%v: expected %d, got %d", tt.err, tt.want, got)
		}
	}
}

func TestFilterFromQuery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tests := []struct {
		query   string
		wantErr bool
		check   func(t *testing.T, q string, min *float64, month bool)
	}{
		{"q=%20acme%20&min_amount=1500&this_month=true", false, func(t *testing.T, q string, min *float64, month bool) {
			if q != "acme" || min == nil || *min != 1500 || !month {
				t.Fatalf("unexpected filter: %q %v %v", q, min, month)
			}
		}},
		{"", false, func(t *testing.T, q string, min *float64, month bool) {
			if q != "" || min != nil || month {
				t.Fatal("expected empty filter")
			}
		}},
		{"min_amount=abc", true, nil},
		{"this_month=maybe", true, nil},
	}
	for _, tt := range tests {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/kanban?"+tt.query, nil)
		f, err := filterFromQuery(c)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("%q: expected error", tt.query)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%q: %v", tt.query, err)
		}
		tt.check(t, f.Query, f.MinAmount, f.CreatedThisMonth)
	}
}
