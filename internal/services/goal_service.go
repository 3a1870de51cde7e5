package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	apperrors "centavo/internal/errors"
	"centavo/internal/models"
	"centavo/internal/pagination"
)

// goalService handles savings-goal business logic.
type goalService struct {
	db *gorm.DB
}

// NewGoalService creates a new GoalServicer.
func NewGoalService(db *gorm.DB) GoalServicer {
	return &goalService{db: db}
}

// CreateGoal creates a new savings goal.
func (s *goalService) CreateGoal(userID uint, name string, targetAmount int64, deadline *time.Time) (*models.Goal, error) {
	if targetAmount <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "target amount must be positive")
	}

	goal := &models.Goal{
		UserID:       userID,
		Name:         name,
		TargetAmount: targetAmount,
		Deadline:     deadline,
		Status:       models.GoalStatusActive,
	}

	if err := s.db.Create(goal).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return goal, nil
}

// GetUserGoals returns a paginated list of the user's goals.
func (s *goalService) GetUserGoals(userID uint, page pagination.PageRequest, status *models.GoalStatus) (*pagination.PageResponse[models.Goal], error) {
	page.Defaults()

	base := s.db.Model(&models.Goal{}).Where("user_id = ?", userID)
	if status != nil {
		base = base.Where("status = ?", *status)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var goals []models.Goal
	if err := base.Order("created_at DESC").Scopes(pagination.Paginate(page)).Find(&goals).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(goals, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetGoalByID returns a goal by ID if it belongs to the user.
func (s *goalService) GetGoalByID(userID, goalID uint) (*models.Goal, error) {
	var goal models.Goal
	if err := s.db.Where("id = ? AND user_id = ?", goalID, userID).First(&goal).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrGoalNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &goal, nil
}

// UpdateGoal updates a goal's name, target, or deadline. Lowering the target
// below the saved amount marks the goal reached.
func (s *goalService) UpdateGoal(userID, goalID uint, name *string, targetAmount *int64, deadline *time.Time) (*models.Goal, error) {
	goal, err := s.GetGoalByID(userID, goalID)
	if err != nil {
		return nil, err
	}

	if targetAmount != nil && *targetAmount <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "target amount must be positive")
	}

	if name != nil {
		goal.Name = *name
	}
	if targetAmount != nil {
		goal.TargetAmount = *targetAmount
	}
	if deadline != nil {
		goal.Deadline = deadline
	}
	if goal.Status == models.GoalStatusActive && goal.CurrentAmount >= goal.TargetAmount {
		goal.Status = models.GoalStatusReached
	}

	if err := s.db.Save(goal).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return goal, nil
}

// Contribute adds an amount to an active goal. Reaching the target marks
// the goal reached.
func (s *goalService) Contribute(userID, goalID uint, amount int64) (*models.Goal, error) {
	if amount <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "contribution amount must be positive")
	}

	goal, err := s.GetGoalByID(userID, goalID)
	if err != nil {
		return nil, err
	}
	if goal.Status != models.GoalStatusActive {
		return nil, apperrors.ErrGoalNotActive
	}

	goal.CurrentAmount += amount
	if goal.CurrentAmount >= goal.TargetAmount {
		goal.Status = models.GoalStatusReached
	}

	if err := s.db.Save(goal).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return goal, nil
}

// AbandonGoal marks an active goal as abandoned.
func (s *goalService) AbandonGoal(userID, goalID uint) (*models.Goal, error) {
	goal, err := s.GetGoalByID(userID, goalID)
	if err != nil {
		return nil, err
	}
	if goal.Status != models.GoalStatusActive {
		return nil, apperrors.ErrGoalNotActive
	}

	goal.Status = models.GoalStatusAbandoned
	if err := s.db.Save(goal).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return goal, nil
}

// DeleteGoal removes a goal.
func (s *goalService) DeleteGoal(userID, goalID uint) error {
	goal, err := s.GetGoalByID(userID, goalID)
	if err != nil {
		return err
	}
	if err := s.db.Delete(goal).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}
