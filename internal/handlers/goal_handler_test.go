package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "centavo/internal/errors"
	"centavo/internal/models"
	"centavo/internal/pagination"
	"centavo/internal/services"
)

type mockGoalService struct {
	createGoalFn   func(userID uint, name string, targetAmount int64, deadline *time.Time) (*models.Goal, error)
	getUserGoalsFn func(userID uint, page pagination.PageRequest, status *models.GoalStatus) (*pagination.PageResponse[models.Goal], error)
	getGoalByIDFn  func(userID, goalID uint) (*models.Goal, error)
	updateGoalFn   func(userID, goalID uint, name *string, targetAmount *int64, deadline *time.Time) (*models.Goal, error)
	contributeFn   func(userID, goalID uint, amount int64) (*models.Goal, error)
	abandonGoalFn  func(userID, goalID uint) (*models.Goal, error)
	deleteGoalFn   func(userID, goalID uint) error
}

func (m *mockGoalService) CreateGoal(userID uint, name string, targetAmount int64, deadline *time.Time) (*models.Goal, error) {
	if m.createGoalFn != nil {
		return m.createGoalFn(userID, name, targetAmount, deadline)
	}
	return &models.Goal{}, nil
}

func (m *mockGoalService) GetUserGoals(userID uint, page pagination.PageRequest, status *models.GoalStatus) (*pagination.PageResponse[models.Goal], error) {
	if m.getUserGoalsFn != nil {
		return m.getUserGoalsFn(userID, page, status)
	}
	resp := pagination.NewPageResponse([]models.Goal{}, 1, 20, 0)
	return &resp, nil
}

func (m *mockGoalService) GetGoalByID(userID, goalID uint) (*models.Goal, error) {
	if m.getGoalByIDFn != nil {
		return m.getGoalByIDFn(userID, goalID)
	}
	return &models.Goal{}, nil
}

func (m *mockGoalService) UpdateGoal(userID, goalID uint, name *string, targetAmount *int64, deadline *time.Time) (*models.Goal, error) {
	if m.updateGoalFn != nil {
		return m.updateGoalFn(userID, goalID, name, targetAmount, deadline)
	}
	return &models.Goal{}, nil
}

func (m *mockGoalService) Contribute(userID, goalID uint, amount int64) (*models.Goal, error) {
	if m.contributeFn != nil {
		return m.contributeFn(userID, goalID, amount)
	}
	return &models.Goal{}, nil
}

func (m *mockGoalService) AbandonGoal(userID, goalID uint) (*models.Goal, error) {
	if m.abandonGoalFn != nil {
		return m.abandonGoalFn(userID, goalID)
	}
	return &models.Goal{}, nil
}

func (m *mockGoalService) DeleteGoal(userID, goalID uint) error {
	if m.deleteGoalFn != nil {
		return m.deleteGoalFn(userID, goalID)
	}
	return nil
}

var _ services.GoalServicer = (*mockGoalService)(nil)

func setupGoalRouter(handler *GoalHandler) *gin.Engine {
	r := gin.New()
	auth := r.Group("", injectUserID(1))
	auth.POST("/goals", handler.CreateGoal)
	auth.GET("/goals", handler.GetGoals)
	auth.GET("/goals/:id", handler.GetGoal)
	auth.PUT("/goals/:id", handler.UpdateGoal)
	auth.POST("/goals/:id/contribute", handler.Contribute)
	auth.POST("/goals/:id/abandon", handler.AbandonGoal)
	auth.DELETE("/goals/:id", handler.DeleteGoal)
	return r
}

func TestGoalHandler_CreateGoal(t *testing.T) {
	t.Run("returns 201 on success", func(t *testing.T) {
		svc := &mockGoalService{
			createGoalFn: func(_ uint, name string, targetAmount int64, _ *time.Time) (*models.Goal, error) {
				return &models.Goal{
					Base:         models.Base{ID: 1},
					Name:         name,
					TargetAmount: targetAmount,
					Status:       models.GoalStatusActive,
				}, nil
			},
		}
		handler := NewGoalHandler(svc)
		r := setupGoalRouter(handler)

		rec := doRequest(r, "POST", "/goals", `{"name":"Vacation","target_amount":100000}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		goal := result["goal"].(map[string]interface{})
		if goal["name"] != "Vacation" {
			t.Errorf("expected Vacation, got %v", goal["name"])
		}
	})

	t.Run("returns 400 on non-positive target", func(t *testing.T) {
		handler := NewGoalHandler(&mockGoalService{})
		r := setupGoalRouter(handler)

		rec := doRequest(r, "POST", "/goals", `{"name":"Vacation","target_amount":0}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})
}

func TestGoalHandler_Contribute(t *testing.T) {
	t.Run("returns 200 with updated goal", func(t *testing.T) {
		svc := &mockGoalService{
			contributeFn: func(_, goalID uint, amount int64) (*models.Goal, error) {
				return &models.Goal{
					Base:          models.Base{ID: goalID},
					TargetAmount:  100000,
					CurrentAmount: amount,
					Status:        models.GoalStatusActive,
				}, nil
			},
		}
		handler := NewGoalHandler(svc)
		r := setupGoalRouter(handler)

		rec := doRequest(r, "POST", "/goals/1/contribute", `{"amount":25000}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		goal := result["goal"].(map[string]interface{})
		if goal["current_amount"].(float64) != 25000 {
			t.Errorf("expected current_amount=25000, got %v", goal["current_amount"])
		}
	})

	t.Run("returns 400 when goal is not active", func(t *testing.T) {
		svc := &mockGoalService{
			contributeFn: func(_, _ uint, _ int64) (*models.Goal, error) {
				return nil, apperrors.ErrGoalNotActive
			},
		}
		handler := NewGoalHandler(svc)
		r := setupGoalRouter(handler)

		rec := doRequest(r, "POST", "/goals/1/contribute", `{"amount":25000}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "GOAL_NOT_ACTIVE")
	})

	t.Run("returns 400 on non-positive amount", func(t *testing.T) {
		handler := NewGoalHandler(&mockGoalService{})
		r := setupGoalRouter(handler)

		rec := doRequest(r, "POST", "/goals/1/contribute", `{"amount":-100}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestGoalHandler_GetGoals(t *testing.T) {
	t.Run("passes status filter to service", func(t *testing.T) {
		var gotStatus *models.GoalStatus
		svc := &mockGoalService{
			getUserGoalsFn: func(_ uint, _ pagination.PageRequest, status *models.GoalStatus) (*pagination.PageResponse[models.Goal], error) {
				gotStatus = status
				resp := pagination.NewPageResponse([]models.Goal{}, 1, 20, 0)
				return &resp, nil
			},
		}
		handler := NewGoalHandler(svc)
		r := setupGoalRouter(handler)

		doRequest(r, "GET", "/goals?status=reached", "")

		if gotStatus == nil || *gotStatus != models.GoalStatusReached {
			t.Error("expected status=reached to be passed")
		}
	})

	t.Run("returns 400 on invalid status", func(t *testing.T) {
		handler := NewGoalHandler(&mockGoalService{})
		r := setupGoalRouter(handler)

		rec := doRequest(r, "GET", "/goals?status=done", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestGoalHandler_AbandonGoal(t *testing.T) {
	t.Run("returns 200 with abandoned goal", func(t *testing.T) {
		svc := &mockGoalService{
			abandonGoalFn: func(_, goalID uint) (*models.Goal, error) {
				return &models.Goal{Base: models.Base{ID: goalID}, Status: models.GoalStatusAbandoned}, nil
			},
		}
		handler := NewGoalHandler(svc)
		r := setupGoalRouter(handler)

		rec := doRequest(r, "POST", "/goals/1/abandon", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		goal := result["goal"].(map[string]interface{})
		if goal["status"] != "abandoned" {
			t.Errorf("expected status=abandoned, got %v", goal["status"])
		}
	})

	t.Run("returns 404 when goal not found", func(t *testing.T) {
		svc := &mockGoalService{
			abandonGoalFn: func(_, _ uint) (*models.Goal, error) {
				return nil, apperrors.ErrGoalNotFound
			},
		}
		handler := NewGoalHandler(svc)
		r := setupGoalRouter(handler)

		rec := doRequest(r, "POST", "/goals/999/abandon", "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "GOAL_NOT_FOUND")
	})
}
