package services

import (
	"context"
	"time"

	"centavo/internal/models"
	"centavo/internal/pagination"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(email, password, firstName, lastName string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id uint) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
	AttemptLogin(email, password string) (*models.User, error)
	StoreRefreshTokenHash(userID uint, tokenHash string) error
	GetRefreshTokenHash(userID uint) (string, error)
	UpdateProfile(userID uint, firstName, lastName *string, emailNotifications *bool) (*models.User, error)
	DeleteUser(userID uint) error
}

// CategoryServicer defines the contract for category-related business logic.
type CategoryServicer interface {
	CreateCategory(userID uint, name string, categoryType models.CategoryType, description, icon, color string, parentID *uint) (*models.Category, error)
	GetUserCategories(userID uint, page pagination.PageRequest) (*pagination.PageResponse[models.Category], error)
	GetUserCategoriesByType(userID uint, categoryType models.CategoryType, page pagination.PageRequest) (*pagination.PageResponse[models.Category], error)
	GetCategoryByID(userID, categoryID uint) (*models.Category, error)
	UpdateCategory(userID, categoryID uint, name, description, icon, color string, parentID *uint) (*models.Category, error)
	DeleteCategory(userID, categoryID uint) error
}

// TransactionFilter holds optional filter parameters for listing transactions.
type TransactionFilter struct {
	FromDate   *time.Time
	ToDate     *time.Time
	Type       *models.TransactionType
	CategoryID *uint
	MinAmount  *int64
	MaxAmount  *int64
}

// TransactionServicer defines the contract for transaction-related business logic.
// Expense transactions feed the spend accumulator of any matching budgets.
type TransactionServicer interface {
	CreateTransaction(userID uint, categoryID *uint, transactionType models.TransactionType, amount int64, description string, date time.Time) (*models.Transaction, error)
	GetUserTransactions(userID uint, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	GetTransactionByID(userID, transactionID uint) (*models.Transaction, error)
	DeleteTransaction(userID, transactionID uint) error
	ExportTransactions(userID uint, filter TransactionFilter) ([]models.Transaction, error)
}

// BudgetConfig carries the optional renewal configuration of a new budget.
type BudgetConfig struct {
	AutoRenew       bool
	Rollover        bool
	AutoAdjust      bool
	AdjustPct       float64
	NotifyOnRenewal bool
}

// BudgetServicer defines the contract for budget-related business logic.
type BudgetServicer interface {
	CreateBudget(userID uint, categoryID *uint, name string, limitAmount int64, period models.BudgetPeriod, periodStart time.Time, periodEnd *time.Time, cfg BudgetConfig) (*models.Budget, error)
	GetUserBudgets(userID uint, page pagination.PageRequest, status *models.BudgetStatus, period *models.BudgetPeriod) (*pagination.PageResponse[models.Budget], error)
	GetBudgetByID(userID, budgetID uint) (*models.Budget, error)
	UpdateBudget(userID, budgetID uint, name *string, limitAmount *int64, categoryID *uint) (*models.Budget, error)
	DeleteBudget(userID, budgetID uint) error
	PauseBudget(userID, budgetID uint) (*models.Budget, error)
	ResumeBudget(userID, budgetID uint) (*models.Budget, error)
	GetBudgetHistory(userID, budgetID uint, page pagination.PageRequest) (*pagination.PageResponse[models.BudgetHistory], error)
}

// PeriodSnapshot captures a budget period's outcome before it is closed.
// Health is "ok" below 80% usage, "attention" from 80 to 89, "critical"
// from 90 to 99, and "exceeded" at 100% or above.
type PeriodSnapshot struct {
	PeriodStart time.Time `json:"period_start"`
	PeriodEnd   time.Time `json:"period_end"`
	Spent       int64     `json:"spent"`
	Limit       int64     `json:"limit"`
	UsedPct     float64   `json:"used_pct"`
	Excess      int64     `json:"excess"`
	Health      string    `json:"health"`
}

// RenewalDetail is one item in a batch result.
type RenewalDetail struct {
	BudgetID uint   `json:"budget_id"`
	Name     string `json:"name"`
	UserID   uint   `json:"user_id"`
	Outcome  string `json:"outcome"`
	Reason   string `json:"reason,omitempty"`

	OldStart *time.Time      `json:"old_start,omitempty"`
	OldEnd   *time.Time      `json:"old_end,omitempty"`
	NewStart *time.Time      `json:"new_start,omitempty"`
	NewEnd   *time.Time      `json:"new_end,omitempty"`
	NewLimit *int64          `json:"new_limit,omitempty"`
	Snapshot *PeriodSnapshot `json:"snapshot,omitempty"`
}

// Detail outcome values.
const (
	OutcomeRenewed = "renewed"
	OutcomeError   = "error"
)

// BatchResult summarizes a renewal batch run. The field names follow the
// legacy wire contract consumed by existing clients.
type BatchResult struct {
	Renewed int             `json:"renewed"`
	Errored int             `json:"erros"`
	Details []RenewalDetail `json:"detalhes"`
}

// PendingRenewal describes an expired, renewal-enabled budget that has not
// been renewed yet.
type PendingRenewal struct {
	Budget      models.Budget  `json:"budget"`
	DaysOverdue int            `json:"days_overdue"`
	Snapshot    PeriodSnapshot `json:"snapshot"`
}

// RenewalSettings carries a partial update of a budget's renewal
// configuration. Nil fields are left unchanged.
type RenewalSettings struct {
	AutoRenew       *bool
	Rollover        *bool
	AutoAdjust      *bool
	AdjustPct       *float64
	NotifyOnRenewal *bool
}

// RenewalServicer defines the contract for the budget renewal subsystem.
type RenewalServicer interface {
	ShouldRenew(budget *models.Budget, now time.Time) bool
	RunBatch(ctx context.Context, now time.Time) (*BatchResult, error)
	RunUserBatch(ctx context.Context, userID uint, now time.Time) (*BatchResult, error)
	RenewNow(ctx context.Context, userID, budgetID uint, now time.Time) (*RenewalDetail, error)
	PendingRenewals(userID uint, now time.Time) ([]PendingRenewal, error)
	ToggleAutoRenew(userID, budgetID uint, enabled bool) (*models.Budget, error)
	UpdateSettings(userID, budgetID uint, settings RenewalSettings) (*models.Budget, error)
	Report(userID uint, days int, now time.Time) ([]models.Budget, error)
}

// GoalServicer defines the contract for savings-goal business logic.
type GoalServicer interface {
	CreateGoal(userID uint, name string, targetAmount int64, deadline *time.Time) (*models.Goal, error)
	GetUserGoals(userID uint, page pagination.PageRequest, status *models.GoalStatus) (*pagination.PageResponse[models.Goal], error)
	GetGoalByID(userID, goalID uint) (*models.Goal, error)
	UpdateGoal(userID, goalID uint, name *string, targetAmount *int64, deadline *time.Time) (*models.Goal, error)
	Contribute(userID, goalID uint, amount int64) (*models.Goal, error)
	AbandonGoal(userID, goalID uint) (*models.Goal, error)
	DeleteGoal(userID, goalID uint) error
}

// BudgetOverview is a compact view of one budget for the dashboard.
type BudgetOverview struct {
	BudgetID  uint                `json:"budget_id"`
	Name      string              `json:"name"`
	Limit     int64               `json:"limit"`
	Spent     int64               `json:"spent"`
	Remaining int64               `json:"remaining"`
	UsedPct   float64             `json:"used_pct"`
	Status    models.BudgetStatus `json:"status"`
}

// GoalOverview is a compact view of one goal for the dashboard.
type GoalOverview struct {
	GoalID        uint    `json:"goal_id"`
	Name          string  `json:"name"`
	TargetAmount  int64   `json:"target_amount"`
	CurrentAmount int64   `json:"current_amount"`
	Progress      float64 `json:"progress"`
}

// DashboardSummary aggregates the user's financial position for a date range.
type DashboardSummary struct {
	FromDate     time.Time        `json:"from_date"`
	ToDate       time.Time        `json:"to_date"`
	TotalIncome  int64            `json:"total_income"`
	TotalExpense int64            `json:"total_expense"`
	Net          int64            `json:"net"`
	ByCategory   map[string]int64 `json:"by_category"`
	Budgets      []BudgetOverview `json:"budgets"`
	Goals        []GoalOverview   `json:"goals"`
}

// DashboardServicer defines the contract for dashboard aggregation.
type DashboardServicer interface {
	GetSummary(userID uint, from, to time.Time) (*DashboardSummary, error)
}

// HousekeepingServicer defines the contract for periodic maintenance jobs.
type HousekeepingServicer interface {
	ExpireEndedBudgets(now time.Time) (int64, error)
	PurgeStaleBudgets(now time.Time) (int64, error)
	PruneHistory(now time.Time) (int64, error)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(userID uint, action, resourceType string, resourceID uint, ipAddress string, changes map[string]interface{})
}
