package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"centavo/internal/models"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates a user with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	email := fmt.Sprintf("user%d@test.com", nextID())
	return CreateTestUserWithEmail(t, db, email)
}

// CreateTestUserWithEmail creates a user with the given email.
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:              email,
		Password:           string(hash),
		IsActive:           true,
		EmailNotifications: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestCategory creates an expense category.
func CreateTestCategory(t *testing.T, db *gorm.DB, userID uint) *models.Category {
	t.Helper()
	return CreateTestCategoryWithType(t, db, userID, models.CategoryTypeExpense)
}

// CreateTestCategoryWithType creates a category of the given type.
func CreateTestCategoryWithType(t *testing.T, db *gorm.DB, userID uint, categoryType models.CategoryType) *models.Category {
	t.Helper()

	category := &models.Category{
		UserID: userID,
		Name:   fmt.Sprintf("Test Category %d", nextID()),
		Type:   categoryType,
	}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("failed to create test category: %v", err)
	}
	return category
}

// BudgetOpt mutates a budget fixture before it is persisted.
type BudgetOpt func(*models.Budget)

// CreateTestBudget creates an active monthly budget with the given limit
// (in cents). The period starts now and ends one month later. Options can
// override any field, including the renewal configuration.
func CreateTestBudget(t *testing.T, db *gorm.DB, userID uint, limit int64, opts ...BudgetOpt) *models.Budget {
	t.Helper()

	start := time.Now().Truncate(24 * time.Hour)
	budget := &models.Budget{
		UserID:          userID,
		Name:            fmt.Sprintf("Test Budget %d", nextID()),
		LimitAmount:     limit,
		Period:          models.BudgetPeriodMonthly,
		PeriodStart:     start,
		PeriodEnd:       models.BudgetPeriodMonthly.NextEnd(start),
		Status:          models.BudgetStatusActive,
		NotifyOnRenewal: true,
	}
	for _, opt := range opts {
		opt(budget)
	}
	if err := db.Create(budget).Error; err != nil {
		t.Fatalf("failed to create test budget: %v", err)
	}
	return budget
}

// CreateTestTransaction creates an expense transaction dated now.
func CreateTestTransaction(t *testing.T, db *gorm.DB, userID uint, categoryID *uint, amount int64) *models.Transaction {
	t.Helper()

	transaction := &models.Transaction{
		UserID:     userID,
		CategoryID: categoryID,
		Type:       models.TransactionTypeExpense,
		Amount:     amount,
		Date:       time.Now(),
	}
	if err := db.Create(transaction).Error; err != nil {
		t.Fatalf("failed to create test transaction: %v", err)
	}
	return transaction
}

// CreateTestGoal creates an active goal with the given target (in cents).
func CreateTestGoal(t *testing.T, db *gorm.DB, userID uint, target int64) *models.Goal {
	t.Helper()

	goal := &models.Goal{
		UserID:       userID,
		Name:         fmt.Sprintf("Test Goal %d", nextID()),
		TargetAmount: target,
		Status:       models.GoalStatusActive,
	}
	if err := db.Create(goal).Error; err != nil {
		t.Fatalf("failed to create test goal: %v", err)
	}
	return goal
}
