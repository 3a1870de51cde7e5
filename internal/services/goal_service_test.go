package services

import (
	"testing"

	apperrors "centavo/internal/errors"
	"centavo/internal/models"
	"centavo/internal/testutil"
)

func TestContributeReachesGoal(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewGoalService(db)

	user := testutil.CreateTestUser(t, db)
	goal := testutil.CreateTestGoal(t, db, user.ID, 10000)

	got, err := svc.Contribute(user.ID, goal.ID, 4000)
	testutil.AssertNoError(t, err)
	if got.CurrentAmount != 4000 || got.Status != models.GoalStatusActive {
		t.Errorf("after partial contribution: amount=%d status=%s", got.CurrentAmount, got.Status)
	}

	got, err = svc.Contribute(user.ID, goal.ID, 6000)
	testutil.AssertNoError(t, err)
	if got.Status != models.GoalStatusReached {
		t.Errorf("status = %s, want reached", got.Status)
	}

	// Reached goals accept no further contributions
	_, err = svc.Contribute(user.ID, goal.ID, 100)
	testutil.AssertAppError(t, err, apperrors.ErrGoalNotActive.Code)
}

func TestContributeValidation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewGoalService(db)

	user := testutil.CreateTestUser(t, db)
	goal := testutil.CreateTestGoal(t, db, user.ID, 10000)

	_, err := svc.Contribute(user.ID, goal.ID, 0)
	testutil.AssertAppError(t, err, apperrors.ErrInvalidInput.Code)

	_, err = svc.Contribute(user.ID, 99999, 100)
	testutil.AssertAppError(t, err, apperrors.ErrGoalNotFound.Code)
}

func TestUpdateGoalLoweredTargetMarksReached(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewGoalService(db)

	user := testutil.CreateTestUser(t, db)
	goal := testutil.CreateTestGoal(t, db, user.ID, 10000)

	_, err := svc.Contribute(user.ID, goal.ID, 5000)
	testutil.AssertNoError(t, err)

	lower := int64(4000)
	got, err := svc.UpdateGoal(user.ID, goal.ID, nil, &lower, nil)
	testutil.AssertNoError(t, err)
	if got.Status != models.GoalStatusReached {
		t.Errorf("status = %s, want reached after target drop", got.Status)
	}
}

func TestAbandonGoal(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewGoalService(db)

	user := testutil.CreateTestUser(t, db)
	goal := testutil.CreateTestGoal(t, db, user.ID, 10000)

	got, err := svc.AbandonGoal(user.ID, goal.ID)
	testutil.AssertNoError(t, err)
	if got.Status != models.GoalStatusAbandoned {
		t.Errorf("status = %s, want abandoned", got.Status)
	}

	_, err = svc.AbandonGoal(user.ID, goal.ID)
	testutil.AssertAppError(t, err, apperrors.ErrGoalNotActive.Code)
}

func TestCreateGoalValidation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewGoalService(db)

	user := testutil.CreateTestUser(t, db)
	_, err := svc.CreateGoal(user.ID, "Nothing", 0, nil)
	testutil.AssertAppError(t, err, apperrors.ErrInvalidInput.Code)
}
