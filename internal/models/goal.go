package models

import "time"

// GoalStatus represents the lifecycle state of a savings goal
type GoalStatus string

const (
	GoalStatusActive    GoalStatus = "active"
	GoalStatusReached   GoalStatus = "reached"
	GoalStatusAbandoned GoalStatus = "abandoned"
)

// Goal represents a savings goal with a target amount and optional deadline
type Goal struct {
	Base
	UserID        uint       `gorm:"not null;index" json:"user_id"`
	Name          string     `gorm:"not null" json:"name"`
	TargetAmount  int64      `gorm:"type:bigint;not null" json:"target_amount"`
	CurrentAmount int64      `gorm:"type:bigint;not null;default:0" json:"current_amount"`
	Deadline      *time.Time `json:"deadline,omitempty"`
	Status        GoalStatus `gorm:"not null;default:active" json:"status"`
}

// Progress returns the percentage of the target amount already saved.
func (g *Goal) Progress() float64 {
	if g.TargetAmount <= 0 {
		return 0
	}
	return float64(g.CurrentAmount) / float64(g.TargetAmount) * 100
}
