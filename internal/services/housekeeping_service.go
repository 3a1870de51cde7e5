package services

import (
	"time"

	"gorm.io/gorm"

	apperrors "centavo/internal/errors"
	"centavo/internal/logger"
	"centavo/internal/models"
)

// Retention windows for the housekeeping jobs.
const (
	staleBudgetAge      = 365 * 24 * time.Hour
	historyRetentionAge = 2 * 365 * 24 * time.Hour
)

// housekeepingService runs periodic maintenance: purging long-dead budgets
// and pruning old history ledger entries.
type housekeepingService struct {
	db *gorm.DB
}

// NewHousekeepingService creates a new HousekeepingServicer.
func NewHousekeepingService(db *gorm.DB) HousekeepingServicer {
	return &housekeepingService{db: db}
}

// ExpireEndedBudgets applies the period-expiry transition to active budgets
// whose period has ended and that are not set to auto-renew. Each expired
// budget is marked finished and gets a history entry. Returns the number of
// budgets expired.
func (s *housekeepingService) ExpireEndedBudgets(now time.Time) (int64, error) {
	var candidates []models.Budget
	err := s.db.Where("status = ?", models.BudgetStatusActive).
		Where("auto_renew = ?", false).
		Where("period_end < ?", now).
		Find(&candidates).Error
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var expired int64
	for i := range candidates {
		budget := &candidates[i]
		if !budget.ExpireIfDue(now) {
			continue
		}
		err := s.db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Model(&models.Budget{}).Where("id = ?", budget.ID).
				Update("status", budget.Status).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			return appendHistory(tx, budget.ID, models.HistoryFinished, nil, "period ended without renewal")
		})
		if err != nil {
			logger.Get().Errorw("failed to expire budget", "budget_id", budget.ID, "error", err)
			continue
		}
		expired++
	}

	if expired > 0 {
		logger.Get().Infow("expired ended budgets", "count", expired)
	}
	return expired, nil
}

// PurgeStaleBudgets removes budgets that finished more than a year ago and
// are not configured to renew, together with their history ledgers.
// Returns the number of budgets removed.
func (s *housekeepingService) PurgeStaleBudgets(now time.Time) (int64, error) {
	cutoff := now.Add(-staleBudgetAge)

	var purged int64
	err := s.db.Transaction(func(tx *gorm.DB) error {
		stale := tx.Model(&models.Budget{}).Select("id").
			Where("status = ?", models.BudgetStatusFinished).
			Where("auto_renew = ?", false).
			Where("period_end < ?", cutoff)

		if err := tx.Where("budget_id IN (?)", stale).Delete(&models.BudgetHistory{}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		result := tx.Where("status = ?", models.BudgetStatusFinished).
			Where("auto_renew = ?", false).
			Where("period_end < ?", cutoff).
			Delete(&models.Budget{})
		if result.Error != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
		}
		purged = result.RowsAffected
		return nil
	})
	if err != nil {
		return 0, err
	}

	if purged > 0 {
		logger.Get().Infow("purged stale budgets", "count", purged)
	}
	return purged, nil
}

// PruneHistory deletes history ledger entries older than the retention
// window. Returns the number of entries removed.
func (s *housekeepingService) PruneHistory(now time.Time) (int64, error) {
	cutoff := now.Add(-historyRetentionAge)

	result := s.db.Where("created_at < ?", cutoff).Delete(&models.BudgetHistory{})
	if result.Error != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}

	if result.RowsAffected > 0 {
		logger.Get().Infow("pruned budget history entries", "count", result.RowsAffected)
	}
	return result.RowsAffected, nil
}
