package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"centavo/internal/events"
	"centavo/internal/mailer"
	"centavo/internal/models"
	"centavo/internal/testutil"
)

// mockMailer records sent messages and can be told to fail.
type mockMailer struct {
	mu       sync.Mutex
	sent     []mailer.Message
	failWith error
}

func (m *mockMailer) Send(ctx context.Context, msg mailer.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *mockMailer) sentMessages() []mailer.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mailer.Message(nil), m.sent...)
}

func TestNotificationSentOnRenewal(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	bus := events.NewBus()
	mm := &mockMailer{}
	NewNotificationService(db, mm, bus)
	svc := NewRenewalService(db, bus)

	user := testutil.CreateTestUser(t, db)
	testutil.CreateTestBudget(t, db, user.ID, 10000, func(b *models.Budget) {
		b.Name = "Groceries"
		b.Period = models.BudgetPeriodWeekly
		b.PeriodStart = date(2024, 1, 1)
		b.PeriodEnd = date(2024, 1, 7)
		b.Spent = 8500
		b.AutoRenew = true
	})

	result, err := svc.RunUserBatch(context.Background(), user.ID, date(2024, 1, 10))
	testutil.AssertNoError(t, err)
	if result.Renewed != 1 {
		t.Fatalf("renewed = %d, want 1", result.Renewed)
	}

	sent := mm.sentMessages()
	if len(sent) != 1 {
		t.Fatalf("sent = %d messages, want 1", len(sent))
	}
	msg := sent[0]
	if msg.To != user.Email {
		t.Errorf("message to = %s, want %s", msg.To, user.Email)
	}
	if !strings.Contains(msg.Subject, "Groceries") {
		t.Errorf("subject %q should mention the budget name", msg.Subject)
	}
	if !strings.Contains(msg.HTML, "85.00") || !strings.Contains(msg.HTML, "100.00") {
		t.Errorf("html body should show spent and limit amounts: %s", msg.HTML)
	}
	if !strings.Contains(msg.Text, "attention") {
		t.Errorf("text body should carry the period health: %s", msg.Text)
	}
}

func TestNotificationFailureDoesNotAffectRenewal(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	bus := events.NewBus()
	mm := &mockMailer{failWith: errors.New("smtp connection refused")}
	NewNotificationService(db, mm, bus)
	svc := NewRenewalService(db, bus)

	user := testutil.CreateTestUser(t, db)
	budget := testutil.CreateTestBudget(t, db, user.ID, 5000, func(b *models.Budget) {
		b.Period = models.BudgetPeriodWeekly
		b.PeriodStart = date(2024, 1, 1)
		b.PeriodEnd = date(2024, 1, 7)
		b.AutoRenew = true
	})

	result, err := svc.RunUserBatch(context.Background(), user.ID, date(2024, 1, 10))
	testutil.AssertNoError(t, err)
	if result.Renewed != 1 || result.Errored != 0 {
		t.Fatalf("delivery failure must not fail the renewal, got %d/%d", result.Renewed, result.Errored)
	}

	var got models.Budget
	testutil.AssertNoError(t, db.First(&got, budget.ID).Error)
	if got.LastRenewedAt == nil {
		t.Error("renewal should have been persisted despite the failed email")
	}
}

func TestNotificationSkippedWhenBudgetSilent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	bus := events.NewBus()
	mm := &mockMailer{}
	NewNotificationService(db, mm, bus)
	svc := NewRenewalService(db, bus)

	user := testutil.CreateTestUser(t, db)
	testutil.CreateTestBudget(t, db, user.ID, 5000, func(b *models.Budget) {
		b.Period = models.BudgetPeriodWeekly
		b.PeriodStart = date(2024, 1, 1)
		b.PeriodEnd = date(2024, 1, 7)
		b.AutoRenew = true
		b.NotifyOnRenewal = false
	})

	_, err := svc.RunUserBatch(context.Background(), user.ID, date(2024, 1, 10))
	testutil.AssertNoError(t, err)

	if len(mm.sentMessages()) != 0 {
		t.Error("no email expected for a budget with notifications off")
	}
}

func TestNotificationSkippedWhenUserOptedOut(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	bus := events.NewBus()
	mm := &mockMailer{}
	NewNotificationService(db, mm, bus)
	svc := NewRenewalService(db, bus)

	user := testutil.CreateTestUser(t, db)
	testutil.AssertNoError(t, db.Model(&models.User{}).Where("id = ?", user.ID).
		Update("email_notifications", false).Error)
	testutil.CreateTestBudget(t, db, user.ID, 5000, func(b *models.Budget) {
		b.Period = models.BudgetPeriodWeekly
		b.PeriodStart = date(2024, 1, 1)
		b.PeriodEnd = date(2024, 1, 7)
		b.AutoRenew = true
	})

	_, err := svc.RunUserBatch(context.Background(), user.ID, date(2024, 1, 10))
	testutil.AssertNoError(t, err)

	if len(mm.sentMessages()) != 0 {
		t.Error("no email expected for a user who opted out")
	}
}

func TestFormatCents(t *testing.T) {
	tests := []struct {
		cents int64
		want  string
	}{
		{0, "0.00"},
		{5, "0.05"},
		{140, "1.40"},
		{123456, "1234.56"},
		{-250, "-2.50"},
	}
	for _, tt := range tests {
		if got := formatCents(tt.cents); got != tt.want {
			t.Errorf("formatCents(%d) = %s, want %s", tt.cents, got, tt.want)
		}
	}
}
