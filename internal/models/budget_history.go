package models

import "time"

// BudgetHistoryAction tags an entry in a budget's history ledger.
type BudgetHistoryAction string

const (
	HistoryCreated         BudgetHistoryAction = "created"
	HistoryEdited          BudgetHistoryAction = "edited"
	HistoryRenewedAuto     BudgetHistoryAction = "renewed_auto"
	HistoryRenewedManual   BudgetHistoryAction = "renewed_manual"
	HistoryPaused          BudgetHistoryAction = "paused"
	HistoryReactivated     BudgetHistoryAction = "reactivated"
	HistoryFinished        BudgetHistoryAction = "finished"
	HistoryLimitChanged    BudgetHistoryAction = "limit_changed"
	HistoryConfigChanged   BudgetHistoryAction = "config_changed"
	HistoryRenewalEnabled  BudgetHistoryAction = "renewal_enabled"
	HistoryRenewalDisabled BudgetHistoryAction = "renewal_disabled"
)

// BudgetHistory is an append-only ledger of budget lifecycle events, kept in
// its own table keyed by budget ID. Entries are never updated; old entries
// are pruned by the housekeeping job.
type BudgetHistory struct {
	ID        uint                `gorm:"primaryKey" json:"id"`
	BudgetID  uint                `gorm:"not null;index" json:"budget_id"`
	Action    BudgetHistoryAction `gorm:"not null" json:"action"`
	Value     *int64              `gorm:"type:bigint" json:"value,omitempty"`
	Note      string              `json:"note,omitempty"`
	CreatedAt time.Time           `gorm:"index" json:"created_at"`
}
