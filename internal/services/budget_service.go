package services

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	apperrors "centavo/internal/errors"
	"centavo/internal/models"
	"centavo/internal/pagination"
)

// Bounds for the user-configured fixed adjustment percentage.
const (
	minAdjustPct = -20.0
	maxAdjustPct = 50.0
)

func clampAdjustPct(pct float64) float64 {
	if pct < minAdjustPct {
		return minAdjustPct
	}
	if pct > maxAdjustPct {
		return maxAdjustPct
	}
	return pct
}

// budgetService handles budget-related business logic.
type budgetService struct {
	db *gorm.DB
}

// NewBudgetService creates a new BudgetServicer.
func NewBudgetService(db *gorm.DB) BudgetServicer {
	return &budgetService{db: db}
}

// appendHistory writes one entry to the budget's history ledger.
func appendHistory(tx *gorm.DB, budgetID uint, action models.BudgetHistoryAction, value *int64, note string) error {
	entry := &models.BudgetHistory{
		BudgetID: budgetID,
		Action:   action,
		Value:    value,
		Note:     note,
	}
	if err := tx.Create(entry).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// CreateBudget creates a new budget. For renewable period types the period
// end is derived from the period type when not given; custom periods must
// provide an explicit end.
func (s *budgetService) CreateBudget(
	userID uint,
	categoryID *uint,
	name string,
	limitAmount int64,
	period models.BudgetPeriod,
	periodStart time.Time,
	periodEnd *time.Time,
	cfg BudgetConfig,
) (*models.Budget, error) {
	if limitAmount < 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "limit amount must be non-negative")
	}

	if categoryID != nil {
		var category models.Category
		if err := s.db.Where("id = ? AND user_id = ?", *categoryID, userID).First(&category).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperrors.ErrCategoryNotFound
			}
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	var end time.Time
	switch {
	case periodEnd != nil:
		end = *periodEnd
	case period.Renewable():
		end = period.NextEnd(periodStart)
	default:
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "custom periods require an explicit period end")
	}
	if !periodStart.Before(end) {
		return nil, apperrors.ErrInvalidPeriodDates
	}

	if cfg.AutoRenew && !period.Renewable() {
		return nil, apperrors.ErrPeriodNotRenewable
	}

	budget := &models.Budget{
		UserID:          userID,
		CategoryID:      categoryID,
		Name:            name,
		LimitAmount:     limitAmount,
		Spent:           0,
		Period:          period,
		PeriodStart:     periodStart,
		PeriodEnd:       end,
		Status:          models.BudgetStatusActive,
		AutoRenew:       cfg.AutoRenew,
		Rollover:        cfg.Rollover,
		AutoAdjust:      cfg.AutoAdjust,
		AdjustPct:       clampAdjustPct(cfg.AdjustPct),
		NotifyOnRenewal: cfg.NotifyOnRenewal,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(budget).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return appendHistory(tx, budget.ID, models.HistoryCreated, &limitAmount, "")
	})
	if err != nil {
		return nil, err
	}

	return budget, nil
}

// GetUserBudgets returns a paginated list of budgets with optional filters.
func (s *budgetService) GetUserBudgets(
	userID uint,
	page pagination.PageRequest,
	status *models.BudgetStatus,
	period *models.BudgetPeriod,
) (*pagination.PageResponse[models.Budget], error) {
	page.Defaults()

	base := s.db.Model(&models.Budget{}).Where("user_id = ?", userID)
	if status != nil {
		base = base.Where("status = ?", *status)
	}
	if period != nil {
		base = base.Where("period = ?", *period)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var budgets []models.Budget
	if err := base.Preload("Category").Order("period_end ASC").Scopes(pagination.Paginate(page)).Find(&budgets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(budgets, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetBudgetByID returns a budget by ID if it belongs to the user.
func (s *budgetService) GetBudgetByID(userID, budgetID uint) (*models.Budget, error) {
	var budget models.Budget
	if err := s.db.Preload("Category").Where("id = ? AND user_id = ?", budgetID, userID).First(&budget).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBudgetNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &budget, nil
}

// UpdateBudget updates a budget's name, limit, or category. Limit changes
// are recorded in the history ledger with the new value.
func (s *budgetService) UpdateBudget(
	userID, budgetID uint,
	name *string,
	limitAmount *int64,
	categoryID *uint,
) (*models.Budget, error) {
	budget, err := s.GetBudgetByID(userID, budgetID)
	if err != nil {
		return nil, err
	}

	if limitAmount != nil && *limitAmount < 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "limit amount must be non-negative")
	}
	if categoryID != nil {
		var category models.Category
		if err := s.db.Where("id = ? AND user_id = ?", *categoryID, userID).First(&category).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperrors.ErrCategoryNotFound
			}
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	limitChanged := limitAmount != nil && *limitAmount != budget.LimitAmount

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if name != nil {
			budget.Name = *name
		}
		if categoryID != nil {
			budget.CategoryID = categoryID
		}
		if limitAmount != nil {
			budget.LimitAmount = *limitAmount
			// Limit edits can move the budget across the exceeded boundary
			budget.ApplyTrigger(models.TriggerSpendChanged)
		}
		if err := tx.Save(budget).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if limitChanged {
			return appendHistory(tx, budget.ID, models.HistoryLimitChanged, limitAmount, "")
		}
		return appendHistory(tx, budget.ID, models.HistoryEdited, nil, "")
	})
	if err != nil {
		return nil, err
	}

	return budget, nil
}

// DeleteBudget removes a budget and its history ledger.
func (s *budgetService) DeleteBudget(userID, budgetID uint) error {
	budget, err := s.GetBudgetByID(userID, budgetID)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("budget_id = ?", budgetID).Delete(&models.BudgetHistory{}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Delete(budget).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
}

// PauseBudget moves an active or exceeded budget to paused.
func (s *budgetService) PauseBudget(userID, budgetID uint) (*models.Budget, error) {
	budget, err := s.GetBudgetByID(userID, budgetID)
	if err != nil {
		return nil, err
	}

	if !budget.ApplyTrigger(models.TriggerPause) {
		return nil, apperrors.ErrBudgetNotPausable
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(budget).Update("status", budget.Status).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return appendHistory(tx, budget.ID, models.HistoryPaused, nil, "")
	})
	if err != nil {
		return nil, err
	}
	return budget, nil
}

// ResumeBudget reactivates a paused budget. The resulting status depends on
// whether the accumulated spend exceeds the limit.
func (s *budgetService) ResumeBudget(userID, budgetID uint) (*models.Budget, error) {
	budget, err := s.GetBudgetByID(userID, budgetID)
	if err != nil {
		return nil, err
	}

	if !budget.ApplyTrigger(models.TriggerResume) {
		return nil, apperrors.ErrBudgetNotPaused
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(budget).Update("status", budget.Status).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return appendHistory(tx, budget.ID, models.HistoryReactivated, nil,
			fmt.Sprintf("resumed as %s", budget.Status))
	})
	if err != nil {
		return nil, err
	}
	return budget, nil
}

// GetBudgetHistory returns the budget's history ledger, newest first.
func (s *budgetService) GetBudgetHistory(userID, budgetID uint, page pagination.PageRequest) (*pagination.PageResponse[models.BudgetHistory], error) {
	if _, err := s.GetBudgetByID(userID, budgetID); err != nil {
		return nil, err
	}

	page.Defaults()

	base := s.db.Model(&models.BudgetHistory{}).Where("budget_id = ?", budgetID)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var entries []models.BudgetHistory
	if err := base.Order("created_at DESC, id DESC").Scopes(pagination.Paginate(page)).Find(&entries).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(entries, page.Page, page.PageSize, totalItems)
	return &result, nil
}
