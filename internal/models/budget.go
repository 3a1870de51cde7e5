package models

import "time"

// BudgetPeriod represents the period type for a budget
type BudgetPeriod string

const (
	BudgetPeriodWeekly     BudgetPeriod = "weekly"
	BudgetPeriodMonthly    BudgetPeriod = "monthly"
	BudgetPeriodQuarterly  BudgetPeriod = "quarterly"
	BudgetPeriodSemiannual BudgetPeriod = "semiannual"
	BudgetPeriodAnnual     BudgetPeriod = "annual"
	BudgetPeriodCustom     BudgetPeriod = "custom"
)

// Renewable reports whether a budget with this period type can be renewed
// automatically. Custom periods have no inferable length and are excluded.
func (p BudgetPeriod) Renewable() bool {
	switch p {
	case BudgetPeriodWeekly, BudgetPeriodMonthly, BudgetPeriodQuarterly,
		BudgetPeriodSemiannual, BudgetPeriodAnnual:
		return true
	}
	return false
}

// NextEnd returns the end of a period starting at start. Month-based periods
// use calendar arithmetic, so the result follows Go's date normalization
// rather than a fixed day count.
func (p BudgetPeriod) NextEnd(start time.Time) time.Time {
	switch p {
	case BudgetPeriodWeekly:
		return start.AddDate(0, 0, 7)
	case BudgetPeriodMonthly:
		return start.AddDate(0, 1, 0)
	case BudgetPeriodQuarterly:
		return start.AddDate(0, 3, 0)
	case BudgetPeriodSemiannual:
		return start.AddDate(0, 6, 0)
	case BudgetPeriodAnnual:
		return start.AddDate(1, 0, 0)
	}
	return start
}

// Budget represents a spending budget with a rolling period and renewal
// configuration. Limit and spent amounts are stored in cents.
type Budget struct {
	Base
	UserID      uint         `gorm:"not null;index" json:"user_id"`
	CategoryID  *uint        `json:"category_id,omitempty"`
	Name        string       `gorm:"not null" json:"name"`
	LimitAmount int64        `gorm:"type:bigint;not null" json:"limit_amount"`
	Spent       int64        `gorm:"type:bigint;not null;default:0" json:"spent"`
	Period      BudgetPeriod `gorm:"not null" json:"period"`
	PeriodStart time.Time    `gorm:"not null" json:"period_start"`
	PeriodEnd   time.Time    `gorm:"not null;index" json:"period_end"`
	Status      BudgetStatus `gorm:"not null;default:active" json:"status"`

	// Renewal configuration
	AutoRenew  bool    `gorm:"default:false;index" json:"auto_renew"`
	Rollover   bool    `gorm:"default:false" json:"rollover"`
	AutoAdjust bool    `gorm:"default:false" json:"auto_adjust"`
	AdjustPct  float64 `gorm:"default:0" json:"adjust_pct"`

	NotifyOnRenewal bool       `gorm:"default:true" json:"notify_on_renewal"`
	LastRenewedAt   *time.Time `gorm:"index" json:"last_renewed_at,omitempty"`

	// Running renewal statistics
	RenewalCount int        `gorm:"default:0" json:"renewal_count"`
	AvgSpent     float64    `gorm:"default:0" json:"avg_spent"`
	BestPct      *float64   `json:"best_pct,omitempty"`
	BestAt       *time.Time `json:"best_at,omitempty"`
	WorstPct     *float64   `json:"worst_pct,omitempty"`
	WorstAt      *time.Time `json:"worst_at,omitempty"`

	// Relationships
	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}

// Remaining returns the unspent balance of the current period, floored at zero.
func (b *Budget) Remaining() int64 {
	if b.Spent >= b.LimitAmount {
		return 0
	}
	return b.LimitAmount - b.Spent
}

// UsedPct returns the percentage of the limit consumed in the current period.
func (b *Budget) UsedPct() float64 {
	if b.LimitAmount <= 0 {
		return 0
	}
	return float64(b.Spent) / float64(b.LimitAmount) * 100
}
