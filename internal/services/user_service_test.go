package services

import (
	"testing"

	apperrors "centavo/internal/errors"
	"centavo/internal/models"
	"centavo/internal/testutil"
)

func TestCreateUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewUserService(db)

	user, err := svc.CreateUser("Alice@Example.COM", "secret123", "Alice", "Smith")
	testutil.AssertNoError(t, err)

	if user.Email != "alice@example.com" {
		t.Errorf("email = %s, want lowercased", user.Email)
	}
	if user.Password == "secret123" {
		t.Error("password must be stored hashed")
	}
	if !user.EmailNotifications {
		t.Error("email notifications should default on")
	}

	_, err = svc.CreateUser("alice@example.com", "another", "", "")
	testutil.AssertAppError(t, err, apperrors.ErrDuplicateEmail.Code)

	_, err = svc.CreateUser("", "", "", "")
	testutil.AssertAppError(t, err, apperrors.ErrInvalidInput.Code)
}

func TestAttemptLogin(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewUserService(db)

	user := testutil.CreateTestUser(t, db)

	got, err := svc.AttemptLogin(user.Email, "password123")
	testutil.AssertNoError(t, err)
	if got.LastLoginAt == nil {
		t.Error("successful login should stamp last login time")
	}

	_, err = svc.AttemptLogin(user.Email, "wrong")
	testutil.AssertAppError(t, err, apperrors.ErrInvalidCredentials.Code)

	// Unknown accounts yield the same error as bad passwords
	_, err = svc.AttemptLogin("nobody@test.com", "password123")
	testutil.AssertAppError(t, err, apperrors.ErrInvalidCredentials.Code)
}

func TestAttemptLoginLockout(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewUserService(db)

	user := testutil.CreateTestUser(t, db)

	for i := 0; i < maxFailedLoginAttempts; i++ {
		_, err := svc.AttemptLogin(user.Email, "wrong")
		testutil.AssertAppError(t, err, apperrors.ErrInvalidCredentials.Code)
	}

	// Even the correct password is rejected while locked
	_, err := svc.AttemptLogin(user.Email, "password123")
	testutil.AssertAppError(t, err, apperrors.ErrAccountLocked.Code)

	// Expiring the lock restores access and resets the counter
	testutil.AssertNoError(t, db.Model(&models.User{}).Where("id = ?", user.ID).
		Update("locked_until", nil).Error)
	got, err := svc.AttemptLogin(user.Email, "password123")
	testutil.AssertNoError(t, err)
	if got.FailedLoginAttempts != 0 {
		t.Errorf("failed attempts = %d, want 0 after successful login", got.FailedLoginAttempts)
	}
}

func TestRefreshTokenHashRoundTrip(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewUserService(db)

	user := testutil.CreateTestUser(t, db)

	testutil.AssertNoError(t, svc.StoreRefreshTokenHash(user.ID, "deadbeef"))
	hash, err := svc.GetRefreshTokenHash(user.ID)
	testutil.AssertNoError(t, err)
	if hash != "deadbeef" {
		t.Errorf("hash = %s, want deadbeef", hash)
	}

	err = svc.StoreRefreshTokenHash(99999, "x")
	testutil.AssertAppError(t, err, apperrors.ErrUserNotFound.Code)
}

func TestUpdateProfile(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewUserService(db)

	user := testutil.CreateTestUser(t, db)

	name := "Bob"
	off := false
	_, err := svc.UpdateProfile(user.ID, &name, nil, &off)
	testutil.AssertNoError(t, err)

	var fresh models.User
	testutil.AssertNoError(t, db.First(&fresh, user.ID).Error)
	if fresh.FirstName != "Bob" {
		t.Errorf("first name = %s, want Bob", fresh.FirstName)
	}
	if fresh.EmailNotifications {
		t.Error("email notifications should be off")
	}
}

func TestDeleteUserCascades(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewUserService(db)
	budgetSvc := NewBudgetService(db)

	user := testutil.CreateTestUser(t, db)
	category := testutil.CreateTestCategory(t, db, user.ID)
	budget, err := budgetSvc.CreateBudget(user.ID, &category.ID, "Cascade", 1000,
		models.BudgetPeriodMonthly, date(2024, 1, 1), nil, BudgetConfig{})
	testutil.AssertNoError(t, err)
	testutil.CreateTestTransaction(t, db, user.ID, &category.ID, 100)
	testutil.CreateTestGoal(t, db, user.ID, 5000)

	testutil.AssertNoError(t, svc.DeleteUser(user.ID))

	count := func(model interface{}, query string, args ...interface{}) int64 {
		var n int64
		testutil.AssertNoError(t, db.Model(model).Where(query, args...).Count(&n).Error)
		return n
	}
	if n := count(&models.Budget{}, "user_id = ?", user.ID); n != 0 {
		t.Errorf("budgets remaining = %d", n)
	}
	if n := count(&models.BudgetHistory{}, "budget_id = ?", budget.ID); n != 0 {
		t.Errorf("history entries remaining = %d", n)
	}
	if n := count(&models.Transaction{}, "user_id = ?", user.ID); n != 0 {
		t.Errorf("transactions remaining = %d", n)
	}
	if n := count(&models.Goal{}, "user_id = ?", user.ID); n != 0 {
		t.Errorf("goals remaining = %d", n)
	}
	if n := count(&models.Category{}, "user_id = ?", user.ID); n != 0 {
		t.Errorf("categories remaining = %d", n)
	}

	_, err = svc.GetUserByID(user.ID)
	testutil.AssertAppError(t, err, apperrors.ErrUserNotFound.Code)
}
