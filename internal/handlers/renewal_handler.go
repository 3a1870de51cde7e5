package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "centavo/internal/errors"
	"centavo/internal/services"
)

// RenewalHandler handles budget renewal requests.
type RenewalHandler struct {
	renewalService services.RenewalServicer
	auditService   services.AuditServicer
}

// NewRenewalHandler creates a new RenewalHandler.
func NewRenewalHandler(renewalService services.RenewalServicer, auditService services.AuditServicer) *RenewalHandler {
	return &RenewalHandler{renewalService: renewalService, auditService: auditService}
}

// ToggleRenewalRequest represents the auto-renew toggle payload.
type ToggleRenewalRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

// RenewalSettingsRequest represents the renewal configuration payload.
// Omitted fields are left unchanged.
type RenewalSettingsRequest struct {
	AutoRenew       *bool    `json:"auto_renew"`
	Rollover        *bool    `json:"rollover"`
	AutoAdjust      *bool    `json:"auto_adjust"`
	AdjustPct       *float64 `json:"adjust_pct"`
	NotifyOnRenewal *bool    `json:"notify_on_renewal"`
}

// Check runs the on-demand renewal batch for the calling user.
// @Summary     Run renewal check
// @Description Renew all of the caller's eligible expired budgets
// @Tags        renewal
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} services.BatchResult "Batch summary"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/renewal/check [post]
func (h *RenewalHandler) Check(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.renewalService.RunUserBatch(c.Request.Context(), userID, time.Now())
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// Toggle enables or disables automatic renewal for one budget.
// @Summary     Toggle auto-renew
// @Description Enable or disable automatic renewal for a budget
// @Tags        renewal
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path int                  true "Budget ID"
// @Param       request body ToggleRenewalRequest true "Enabled flag"
// @Success     200 {object} models.Budget "Updated budget"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/renewal/{id}/toggle [patch]
func (h *RenewalHandler) Toggle(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req ToggleRenewalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	budget, err := h.renewalService.ToggleAutoRenew(userID, budgetID, *req.Enabled)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "TOGGLE_AUTO_RENEW", "budget", budgetID, c.ClientIP(),
		map[string]interface{}{"enabled": *req.Enabled})

	c.JSON(http.StatusOK, gin.H{"budget": budget})
}

// RenewNow force-renews one expired budget.
// @Summary     Renew a budget now
// @Description Force-renew one budget whose period has ended
// @Tags        renewal
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Budget ID"
// @Success     200 {object} services.RenewalDetail "Renewal outcome"
// @Failure     400 {object} ErrorResponse "Period has not ended"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/renewal/{id}/renew-now [post]
func (h *RenewalHandler) RenewNow(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	detail, err := h.renewalService.RenewNow(c.Request.Context(), userID, budgetID, time.Now())
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "RENEW_NOW", "budget", budgetID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, detail)
}

// Pending lists the caller's expired, renewal-enabled budgets.
// @Summary     Get pending renewals
// @Description List expired, renewal-enabled budgets with days overdue and period statistics
// @Tags        renewal
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array} services.PendingRenewal "Pending renewals"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/renewal/pending [get]
func (h *RenewalHandler) Pending(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	pending, err := h.renewalService.PendingRenewals(userID, time.Now())
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"pending": pending})
}

// UpdateSettings updates a budget's renewal configuration.
// @Summary     Update renewal settings
// @Description Update a budget's auto-renew, rollover, auto-adjust, and notification configuration
// @Tags        renewal
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path int                    true "Budget ID"
// @Param       request body RenewalSettingsRequest true "Settings to update"
// @Success     200 {object} models.Budget "Updated budget"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/renewal/settings/{id} [patch]
func (h *RenewalHandler) UpdateSettings(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req RenewalSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	budget, err := h.renewalService.UpdateSettings(userID, budgetID, services.RenewalSettings{
		AutoRenew:       req.AutoRenew,
		Rollover:        req.Rollover,
		AutoAdjust:      req.AutoAdjust,
		AdjustPct:       req.AdjustPct,
		NotifyOnRenewal: req.NotifyOnRenewal,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_RENEWAL_SETTINGS", "budget", budgetID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"budget": budget})
}

// Report lists budgets renewed within the trailing window.
// @Summary     Get renewal report
// @Description List budgets renewed within the trailing number of days (default 30)
// @Tags        renewal
// @Produce     json
// @Security    BearerAuth
// @Param       periodo query int false "Trailing window in days (default 30)"
// @Success     200 {array} models.Budget "Renewed budgets"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/renewal/report [get]
func (h *RenewalHandler) Report(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	days := 30
	if v := c.Query("periodo"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid periodo"))
			return
		}
		days = n
	}

	budgets, err := h.renewalService.Report(userID, days, time.Now())
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"renewals": budgets, "periodo": days})
}

// PipelineRun triggers the system-wide renewal batch. Protected by the
// pipeline API key rather than a user token.
// @Summary     Run the system-wide renewal batch
// @Description Trigger the scheduled renewal batch across all users
// @Tags        pipeline
// @Produce     json
// @Param       X-API-Key header string true "Pipeline API key"
// @Success     200 {object} services.BatchResult "Batch summary"
// @Failure     401 {object} ErrorResponse "Invalid API key"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /pipeline/renewal/run [post]
func (h *RenewalHandler) PipelineRun(c *gin.Context) {
	result, err := h.renewalService.RunBatch(c.Request.Context(), time.Now())
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
