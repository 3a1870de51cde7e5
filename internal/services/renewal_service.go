package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"gorm.io/gorm"

	apperrors "centavo/internal/errors"
	"centavo/internal/events"
	"centavo/internal/logger"
	"centavo/internal/models"
)

// renewalGuardWindow prevents a budget from being renewed twice by batch
// runs fired close together. Only successful renewals stamp the guard, so
// a failed renewal is retried on the next cycle.
const renewalGuardWindow = 24 * time.Hour

// Bounds for the spend-derived auto-adjust delta, as fractions of the limit.
const (
	minAutoAdjustDelta = -0.20
	maxAutoAdjustDelta = 0.50
)

// Qualitative health of a closed period, by percentage of limit used.
const (
	HealthOK        = "ok"
	HealthAttention = "attention"
	HealthCritical  = "critical"
	HealthExceeded  = "exceeded"
)

// renewalService implements the budget renewal subsystem: eligibility
// evaluation, the period transition, running statistics, and the batch
// runner. Notification is decoupled through the event bus.
type renewalService struct {
	db  *gorm.DB
	bus *events.Bus
}

// NewRenewalService creates a new RenewalServicer.
func NewRenewalService(db *gorm.DB, bus *events.Bus) RenewalServicer {
	return &renewalService{db: db, bus: bus}
}

// ShouldRenew reports whether the budget is eligible for automatic renewal
// at the given instant. Pure predicate, no side effects.
func (s *renewalService) ShouldRenew(budget *models.Budget, now time.Time) bool {
	if !budget.AutoRenew {
		return false
	}
	if !budget.Period.Renewable() {
		return false
	}
	if !now.After(budget.PeriodEnd) {
		return false
	}
	if budget.Status != models.BudgetStatusActive && budget.Status != models.BudgetStatusExceeded {
		return false
	}
	if budget.LastRenewedAt != nil && now.Sub(*budget.LastRenewedAt) <= renewalGuardWindow {
		return false
	}
	return true
}

// healthFor maps a used percentage to a qualitative health tag.
func healthFor(usedPct float64) string {
	switch {
	case usedPct >= 100:
		return HealthExceeded
	case usedPct >= 90:
		return HealthCritical
	case usedPct >= 80:
		return HealthAttention
	default:
		return HealthOK
	}
}

// snapshotPeriod captures the budget's current period before any mutation.
func snapshotPeriod(budget *models.Budget) PeriodSnapshot {
	usedPct := budget.UsedPct()
	var excess int64
	if budget.Spent > budget.LimitAmount {
		excess = budget.Spent - budget.LimitAmount
	}
	return PeriodSnapshot{
		PeriodStart: budget.PeriodStart,
		PeriodEnd:   budget.PeriodEnd,
		Spent:       budget.Spent,
		Limit:       budget.LimitAmount,
		UsedPct:     usedPct,
		Excess:      excess,
		Health:      healthFor(usedPct),
	}
}

// nextLimit computes the new period's limit from the closed one.
//
// Rollover adds the unspent balance. Auto-adjust applies a delta derived
// from the historical average spend relative to the closed period's limit,
// clamped to [-20%, +50%], plus the user's fixed adjustment percentage.
// Both adjustment terms are computed against the pre-rollover limit. The
// very first renewal has no prior average, so the derived delta is zero.
func nextLimit(budget *models.Budget) int64 {
	limit := budget.LimitAmount
	if budget.Rollover {
		limit += budget.Remaining()
	}
	if budget.AutoAdjust {
		delta := 0.0
		if budget.RenewalCount > 0 && budget.LimitAmount > 0 {
			delta = 0.5 * (budget.AvgSpent - float64(budget.LimitAmount)) / float64(budget.LimitAmount)
			if delta < minAutoAdjustDelta {
				delta = minAutoAdjustDelta
			}
			if delta > maxAutoAdjustDelta {
				delta = maxAutoAdjustDelta
			}
		}
		adjust := delta + budget.AdjustPct/100
		limit += int64(math.Round(float64(budget.LimitAmount) * adjust))
		if limit < 0 {
			limit = 0
		}
	}
	return limit
}

// foldStats folds one closed period into the budget's running statistics:
// renewal count, incremental mean spend, and best/worst period performance.
func foldStats(budget *models.Budget, snap PeriodSnapshot) {
	budget.RenewalCount++
	n := float64(budget.RenewalCount)
	budget.AvgSpent = ((budget.AvgSpent * (n - 1)) + float64(snap.Spent)) / n

	periodEnd := snap.PeriodEnd
	if budget.BestPct == nil || snap.UsedPct < *budget.BestPct {
		pct := snap.UsedPct
		budget.BestPct = &pct
		budget.BestAt = &periodEnd
	}
	if budget.WorstPct == nil || snap.UsedPct > *budget.WorstPct {
		pct := snap.UsedPct
		budget.WorstPct = &pct
		budget.WorstAt = &periodEnd
	}
}

// transition mutates the budget in place to open its next period. Returns
// the closed-period snapshot. Fails without mutating when renewal is
// disabled, the period type is not renewable, or the lifecycle state does
// not admit renewal.
func (s *renewalService) transition(budget *models.Budget, now time.Time) (*PeriodSnapshot, error) {
	if !budget.AutoRenew {
		return nil, apperrors.ErrRenewalDisabled
	}
	if !budget.Period.Renewable() {
		return nil, apperrors.ErrPeriodNotRenewable
	}
	if _, ok := models.NextStatus(budget.Status, models.TriggerRenewed, false); !ok {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput,
			fmt.Sprintf("budget in status %q cannot be renewed", budget.Status))
	}

	snap := snapshotPeriod(budget)

	newStart := budget.PeriodEnd.AddDate(0, 0, 1)
	newEnd := budget.Period.NextEnd(newStart)
	newLimit := nextLimit(budget)

	foldStats(budget, snap)

	budget.PeriodStart = newStart
	budget.PeriodEnd = newEnd
	budget.LimitAmount = newLimit
	budget.Spent = 0
	budget.ApplyTrigger(models.TriggerRenewed)
	budget.LastRenewedAt = &now

	return &snap, nil
}

// renewOne runs the transition and persists the budget together with its
// history entry in one transaction. The period-closed event is published
// only after the commit succeeds.
func (s *renewalService) renewOne(ctx context.Context, budget *models.Budget, now time.Time, automatic bool) (*RenewalDetail, error) {
	oldStart := budget.PeriodStart
	oldEnd := budget.PeriodEnd

	snap, err := s.transition(budget, now)
	if err != nil {
		return nil, err
	}

	action := models.HistoryRenewedAuto
	if !automatic {
		action = models.HistoryRenewedManual
	}
	note := fmt.Sprintf("closed period %s to %s: spent %d of %d (%.1f%%, %s)",
		snap.PeriodStart.Format("2006-01-02"), snap.PeriodEnd.Format("2006-01-02"),
		snap.Spent, snap.Limit, snap.UsedPct, snap.Health)

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(budget).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		newLimit := budget.LimitAmount
		return appendHistory(tx, budget.ID, action, &newLimit, note)
	})
	if err != nil {
		return nil, err
	}

	var rolledOver int64
	if budget.Rollover && snap.Spent < snap.Limit {
		rolledOver = snap.Limit - snap.Spent
	}
	s.bus.PublishPeriodClosed(ctx, events.PeriodClosed{
		UserID:       budget.UserID,
		BudgetID:     budget.ID,
		BudgetName:   budget.Name,
		PeriodStart:  snap.PeriodStart,
		PeriodEnd:    snap.PeriodEnd,
		Spent:        snap.Spent,
		LimitAmount:  snap.Limit,
		UsedPct:      snap.UsedPct,
		Health:       snap.Health,
		NewStart:     budget.PeriodStart,
		NewEnd:       budget.PeriodEnd,
		NewLimit:     budget.LimitAmount,
		Rollover:     rolledOver,
		Adjustment:   budget.LimitAmount - snap.Limit - rolledOver,
		RenewalCount: budget.RenewalCount,
		Automatic:    automatic,
	})

	newLimit := budget.LimitAmount
	newStart := budget.PeriodStart
	newEnd := budget.PeriodEnd
	return &RenewalDetail{
		BudgetID: budget.ID,
		Name:     budget.Name,
		UserID:   budget.UserID,
		Outcome:  OutcomeRenewed,
		OldStart: &oldStart,
		OldEnd:   &oldEnd,
		NewStart: &newStart,
		NewEnd:   &newEnd,
		NewLimit: &newLimit,
		Snapshot: snap,
	}, nil
}

// candidates returns budgets matching the batch eligibility query. A zero
// userID means system-wide.
func (s *renewalService) candidates(userID uint, now time.Time) ([]models.Budget, error) {
	cutoff := now.Add(-renewalGuardWindow)
	query := s.db.
		Where("auto_renew = ?", true).
		Where("period_end < ?", now).
		Where("status IN ?", []models.BudgetStatus{models.BudgetStatusActive, models.BudgetStatusExceeded}).
		Where("last_renewed_at IS NULL OR last_renewed_at < ?", cutoff)
	if userID != 0 {
		query = query.Where("user_id = ?", userID)
	}

	var budgets []models.Budget
	if err := query.Order("period_end ASC").Find(&budgets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return budgets, nil
}

// runBatch processes candidates sequentially. One budget's failure is
// recorded and never aborts the rest of the batch.
func (s *renewalService) runBatch(ctx context.Context, userID uint, now time.Time) (*BatchResult, error) {
	budgets, err := s.candidates(userID, now)
	if err != nil {
		return nil, err
	}

	result := &BatchResult{Details: []RenewalDetail{}}
	for i := range budgets {
		budget := &budgets[i]

		// Custom periods cannot be renewed; skip without recording an error
		if !s.ShouldRenew(budget, now) {
			continue
		}

		detail, err := s.renewOne(ctx, budget, now, true)
		if err != nil {
			logger.Get().Errorw("budget renewal failed",
				"budget_id", budget.ID,
				"user_id", budget.UserID,
				"error", err,
			)
			result.Errored++
			result.Details = append(result.Details, RenewalDetail{
				BudgetID: budget.ID,
				Name:     budget.Name,
				UserID:   budget.UserID,
				Outcome:  OutcomeError,
				Reason:   err.Error(),
			})
			continue
		}

		result.Renewed++
		result.Details = append(result.Details, *detail)
	}

	return result, nil
}

// RunBatch processes all eligible budgets system-wide.
func (s *renewalService) RunBatch(ctx context.Context, now time.Time) (*BatchResult, error) {
	return s.runBatch(ctx, 0, now)
}

// RunUserBatch processes all eligible budgets belonging to one user.
func (s *renewalService) RunUserBatch(ctx context.Context, userID uint, now time.Time) (*BatchResult, error) {
	if userID == 0 {
		return nil, apperrors.ErrUserNotFound
	}
	return s.runBatch(ctx, userID, now)
}

// RenewNow force-renews a single budget. The period must have ended, but
// the 24-hour guard is deliberately not re-checked here: an explicit user
// action on an expired budget always wins.
func (s *renewalService) RenewNow(ctx context.Context, userID, budgetID uint, now time.Time) (*RenewalDetail, error) {
	var budget models.Budget
	if err := s.db.Where("id = ? AND user_id = ?", budgetID, userID).First(&budget).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBudgetNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if !budget.Period.Renewable() {
		return nil, apperrors.ErrPeriodNotRenewable
	}
	if !now.After(budget.PeriodEnd) {
		return nil, apperrors.ErrPeriodNotEnded
	}
	if !budget.AutoRenew {
		return nil, apperrors.ErrRenewalDisabled
	}

	return s.renewOne(ctx, &budget, now, false)
}

// PendingRenewals lists the user's expired, renewal-enabled budgets with
// how many days overdue each is and the statistics of the period awaiting
// closure. Read-only.
func (s *renewalService) PendingRenewals(userID uint, now time.Time) ([]PendingRenewal, error) {
	budgets, err := s.candidates(userID, now)
	if err != nil {
		return nil, err
	}

	pending := []PendingRenewal{}
	for i := range budgets {
		budget := budgets[i]
		if !s.ShouldRenew(&budget, now) {
			continue
		}
		pending = append(pending, PendingRenewal{
			Budget:      budget,
			DaysOverdue: int(now.Sub(budget.PeriodEnd).Hours() / 24),
			Snapshot:    snapshotPeriod(&budget),
		})
	}
	return pending, nil
}

// ToggleAutoRenew enables or disables automatic renewal for a budget.
func (s *renewalService) ToggleAutoRenew(userID, budgetID uint, enabled bool) (*models.Budget, error) {
	var budget models.Budget
	if err := s.db.Where("id = ? AND user_id = ?", budgetID, userID).First(&budget).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBudgetNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if enabled && !budget.Period.Renewable() {
		return nil, apperrors.ErrPeriodNotRenewable
	}

	action := models.HistoryRenewalDisabled
	if enabled {
		action = models.HistoryRenewalEnabled
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&budget).Update("auto_renew", enabled).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return appendHistory(tx, budget.ID, action, nil, "")
	})
	if err != nil {
		return nil, err
	}
	budget.AutoRenew = enabled
	return &budget, nil
}

// UpdateSettings applies a partial update to a budget's renewal
// configuration. The fixed adjustment percentage is clamped on write so
// stored configuration is always within bounds.
func (s *renewalService) UpdateSettings(userID, budgetID uint, settings RenewalSettings) (*models.Budget, error) {
	var budget models.Budget
	if err := s.db.Where("id = ? AND user_id = ?", budgetID, userID).First(&budget).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBudgetNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if settings.AutoRenew != nil && *settings.AutoRenew && !budget.Period.Renewable() {
		return nil, apperrors.ErrPeriodNotRenewable
	}

	updates := map[string]interface{}{}
	if settings.AutoRenew != nil {
		updates["auto_renew"] = *settings.AutoRenew
		budget.AutoRenew = *settings.AutoRenew
	}
	if settings.Rollover != nil {
		updates["rollover"] = *settings.Rollover
		budget.Rollover = *settings.Rollover
	}
	if settings.AutoAdjust != nil {
		updates["auto_adjust"] = *settings.AutoAdjust
		budget.AutoAdjust = *settings.AutoAdjust
	}
	if settings.AdjustPct != nil {
		pct := clampAdjustPct(*settings.AdjustPct)
		updates["adjust_pct"] = pct
		budget.AdjustPct = pct
	}
	if settings.NotifyOnRenewal != nil {
		updates["notify_on_renewal"] = *settings.NotifyOnRenewal
		budget.NotifyOnRenewal = *settings.NotifyOnRenewal
	}
	if len(updates) == 0 {
		return &budget, nil
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&budget).Updates(updates).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return appendHistory(tx, budget.ID, models.HistoryConfigChanged, nil, "renewal settings updated")
	})
	if err != nil {
		return nil, err
	}
	return &budget, nil
}

// Report lists the user's budgets renewed within the trailing number of
// days, most recent first.
func (s *renewalService) Report(userID uint, days int, now time.Time) ([]models.Budget, error) {
	if days <= 0 {
		days = 30
	}
	since := now.AddDate(0, 0, -days)

	var budgets []models.Budget
	if err := s.db.
		Where("user_id = ?", userID).
		Where("last_renewed_at IS NOT NULL AND last_renewed_at >= ?", since).
		Order("last_renewed_at DESC").
		Find(&budgets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return budgets, nil
}
