package services

import (
	"time"

	"gorm.io/gorm"

	apperrors "centavo/internal/errors"
	"centavo/internal/models"
)

// dashboardService aggregates the user's financial position.
type dashboardService struct {
	db *gorm.DB
}

// NewDashboardService creates a new DashboardServicer.
func NewDashboardService(db *gorm.DB) DashboardServicer {
	return &dashboardService{db: db}
}

// GetSummary returns income/expense totals, a per-category expense
// breakdown, and compact views of budgets and active goals for the range.
func (s *dashboardService) GetSummary(userID uint, from, to time.Time) (*DashboardSummary, error) {
	summary := &DashboardSummary{
		FromDate:   from,
		ToDate:     to,
		ByCategory: map[string]int64{},
		Budgets:    []BudgetOverview{},
		Goals:      []GoalOverview{},
	}

	type totalRow struct {
		Type  models.TransactionType
		Total int64
	}
	var totals []totalRow
	if err := s.db.Model(&models.Transaction{}).
		Select("type, COALESCE(SUM(amount), 0) AS total").
		Where("user_id = ? AND date >= ? AND date <= ?", userID, from, to).
		Group("type").
		Scan(&totals).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	for _, row := range totals {
		switch row.Type {
		case models.TransactionTypeIncome:
			summary.TotalIncome = row.Total
		case models.TransactionTypeExpense:
			summary.TotalExpense = row.Total
		}
	}
	summary.Net = summary.TotalIncome - summary.TotalExpense

	type categoryRow struct {
		Name  string
		Total int64
	}
	var byCategory []categoryRow
	if err := s.db.Model(&models.Transaction{}).
		Select("COALESCE(categories.name, 'uncategorized') AS name, COALESCE(SUM(transactions.amount), 0) AS total").
		Joins("LEFT JOIN categories ON categories.id = transactions.category_id").
		Where("transactions.user_id = ? AND transactions.type = ? AND transactions.date >= ? AND transactions.date <= ?",
			userID, models.TransactionTypeExpense, from, to).
		Group("categories.name").
		Scan(&byCategory).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	for _, row := range byCategory {
		summary.ByCategory[row.Name] = row.Total
	}

	var budgets []models.Budget
	if err := s.db.
		Where("user_id = ? AND status IN ?", userID,
			[]models.BudgetStatus{models.BudgetStatusActive, models.BudgetStatusExceeded}).
		Order("period_end ASC").
		Find(&budgets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	for i := range budgets {
		b := &budgets[i]
		summary.Budgets = append(summary.Budgets, BudgetOverview{
			BudgetID:  b.ID,
			Name:      b.Name,
			Limit:     b.LimitAmount,
			Spent:     b.Spent,
			Remaining: b.Remaining(),
			UsedPct:   b.UsedPct(),
			Status:    b.Status,
		})
	}

	var goals []models.Goal
	if err := s.db.
		Where("user_id = ? AND status = ?", userID, models.GoalStatusActive).
		Order("created_at DESC").
		Find(&goals).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	for i := range goals {
		g := &goals[i]
		summary.Goals = append(summary.Goals, GoalOverview{
			GoalID:        g.ID,
			Name:          g.Name,
			TargetAmount:  g.TargetAmount,
			CurrentAmount: g.CurrentAmount,
			Progress:      g.Progress(),
		})
	}

	return summary, nil
}
