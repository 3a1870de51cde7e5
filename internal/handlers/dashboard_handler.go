package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "centavo/internal/errors"
	"centavo/internal/services"
)

// DashboardHandler handles dashboard aggregation requests.
type DashboardHandler struct {
	dashboardService services.DashboardServicer
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(dashboardService services.DashboardServicer) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService}
}

// GetSummary returns the user's financial summary for a date range.
// Defaults to the trailing 30 days.
// @Summary     Get dashboard summary
// @Description Get income/expense totals, category breakdown, budget and goal overviews
// @Tags        dashboard
// @Produce     json
// @Security    BearerAuth
// @Param       from query string false "Start date (YYYY-MM-DD, default 30 days ago)"
// @Param       to   query string false "End date (YYYY-MM-DD, default today)"
// @Success     200 {object} services.DashboardSummary "Summary"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /dashboard/summary [get]
func (h *DashboardHandler) GetSummary(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	now := time.Now()
	from := now.AddDate(0, 0, -30)
	to := now

	if v := c.Query("from"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid from date, expected YYYY-MM-DD"))
			return
		}
		from = t
	}
	if v := c.Query("to"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid to date, expected YYYY-MM-DD"))
			return
		}
		to = t
	}
	if to.Before(from) {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "to must not be before from"))
		return
	}

	summary, err := h.dashboardService.GetSummary(userID, from, to)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}
