package models

import "time"

// BudgetStatus is the lifecycle state of a budget.
type BudgetStatus string

const (
	BudgetStatusActive   BudgetStatus = "active"
	BudgetStatusPaused   BudgetStatus = "paused"
	BudgetStatusFinished BudgetStatus = "finished"
	BudgetStatusExceeded BudgetStatus = "exceeded"
)

// StatusTrigger is an event that can move a budget between lifecycle states.
type StatusTrigger string

const (
	TriggerSpendChanged  StatusTrigger = "spend_changed"
	TriggerPeriodExpired StatusTrigger = "period_expired"
	TriggerPause         StatusTrigger = "pause"
	TriggerResume        StatusTrigger = "resume"
	TriggerRenewed       StatusTrigger = "renewed"
)

// NextStatus evaluates the budget state machine for a single trigger.
// The second return value reports whether the trigger is valid in the
// current state; an invalid trigger leaves the status unchanged.
func NextStatus(current BudgetStatus, trigger StatusTrigger, overLimit bool) (BudgetStatus, bool) {
	switch trigger {
	case TriggerSpendChanged:
		switch current {
		case BudgetStatusActive:
			if overLimit {
				return BudgetStatusExceeded, true
			}
			return BudgetStatusActive, true
		case BudgetStatusExceeded:
			if !overLimit {
				return BudgetStatusActive, true
			}
			return BudgetStatusExceeded, true
		}
	case TriggerPeriodExpired:
		// An exceeded budget stays exceeded so it remains renewable.
		if current == BudgetStatusActive {
			return BudgetStatusFinished, true
		}
		if current == BudgetStatusExceeded {
			return BudgetStatusExceeded, true
		}
	case TriggerPause:
		if current == BudgetStatusActive || current == BudgetStatusExceeded {
			return BudgetStatusPaused, true
		}
	case TriggerResume:
		if current == BudgetStatusPaused {
			if overLimit {
				return BudgetStatusExceeded, true
			}
			return BudgetStatusActive, true
		}
	case TriggerRenewed:
		if current == BudgetStatusActive || current == BudgetStatusExceeded || current == BudgetStatusFinished {
			return BudgetStatusActive, true
		}
	}
	return current, false
}

// ApplyTrigger runs the state machine against the budget and updates its
// status in place. Returns true when the trigger was valid for the current
// state.
func (b *Budget) ApplyTrigger(trigger StatusTrigger) bool {
	next, ok := NextStatus(b.Status, trigger, b.Spent > b.LimitAmount)
	b.Status = next
	return ok
}

// ExpireIfDue applies the period-expiry trigger when the period end has
// passed. Returns true if the status changed.
func (b *Budget) ExpireIfDue(now time.Time) bool {
	if !now.After(b.PeriodEnd) {
		return false
	}
	prev := b.Status
	b.ApplyTrigger(TriggerPeriodExpired)
	return b.Status != prev
}
