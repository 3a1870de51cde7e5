package models

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestBudgetPeriodRenewable(t *testing.T) {
	renewable := []BudgetPeriod{
		BudgetPeriodWeekly, BudgetPeriodMonthly, BudgetPeriodQuarterly,
		BudgetPeriodSemiannual, BudgetPeriodAnnual,
	}
	for _, p := range renewable {
		if !p.Renewable() {
			t.Errorf("expected %s to be renewable", p)
		}
	}
	if BudgetPeriodCustom.Renewable() {
		t.Error("expected custom period to not be renewable")
	}
	if BudgetPeriod("bogus").Renewable() {
		t.Error("expected unknown period to not be renewable")
	}
}

func TestBudgetPeriodNextEnd(t *testing.T) {
	tests := []struct {
		name   string
		period BudgetPeriod
		start  time.Time
		want   time.Time
	}{
		{"weekly", BudgetPeriodWeekly, date(2024, 1, 8), date(2024, 1, 15)},
		{"monthly", BudgetPeriodMonthly, date(2024, 2, 1), date(2024, 3, 1)},
		{"monthly_from_jan_31", BudgetPeriodMonthly, date(2024, 1, 31), date(2024, 3, 2)},
		{"monthly_from_jan_31_non_leap", BudgetPeriodMonthly, date(2023, 1, 31), date(2023, 3, 3)},
		{"quarterly", BudgetPeriodQuarterly, date(2024, 1, 1), date(2024, 4, 1)},
		{"semiannual", BudgetPeriodSemiannual, date(2024, 1, 1), date(2024, 7, 1)},
		{"annual", BudgetPeriodAnnual, date(2024, 3, 1), date(2025, 3, 1)},
		{"annual_leap_day", BudgetPeriodAnnual, date(2024, 2, 29), date(2025, 3, 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.period.NextEnd(tt.start)
			if !got.Equal(tt.want) {
				t.Errorf("NextEnd(%s) = %s, want %s", tt.start.Format("2006-01-02"), got.Format("2006-01-02"), tt.want.Format("2006-01-02"))
			}
		})
	}
}

func TestBudgetRemaining(t *testing.T) {
	b := &Budget{LimitAmount: 10000, Spent: 6000}
	if got := b.Remaining(); got != 4000 {
		t.Errorf("expected remaining 4000, got %d", got)
	}

	b.Spent = 12000
	if got := b.Remaining(); got != 0 {
		t.Errorf("expected remaining 0 when over limit, got %d", got)
	}
}

func TestBudgetUsedPct(t *testing.T) {
	b := &Budget{LimitAmount: 10000, Spent: 2500}
	if got := b.UsedPct(); got != 25.0 {
		t.Errorf("expected 25%%, got %f", got)
	}

	b = &Budget{LimitAmount: 0, Spent: 5000}
	if got := b.UsedPct(); got != 0 {
		t.Errorf("expected 0%% for zero limit, got %f", got)
	}
}
