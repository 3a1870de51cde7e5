package services

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"strings"

	"gorm.io/gorm"

	"centavo/internal/events"
	"centavo/internal/logger"
	"centavo/internal/mailer"
	"centavo/internal/models"
)

var renewalEmailTmpl = template.Must(template.New("renewal").Parse(`<h2>Budget renewed: {{.BudgetName}}</h2>
<p>The period {{.OldStart}} to {{.OldEnd}} has been closed.</p>
<ul>
  <li>Spent: {{.Spent}} of {{.Limit}} ({{.UsedPct}}%, {{.Health}})</li>
  {{if .Rollover}}<li>Unspent balance carried over: {{.Rollover}}</li>{{end}}
  {{if .Adjustment}}<li>Limit adjustment: {{.Adjustment}}</li>{{end}}
</ul>
<p>New period: {{.NewStart}} to {{.NewEnd}} with a limit of {{.NewLimit}}.</p>`))

// notificationService consumes period-closed events and sends a summary
// email to the budget owner. Delivery is best-effort: failures are logged
// and never affect the renewal that triggered them.
type notificationService struct {
	db     *gorm.DB
	mailer mailer.Mailer
}

// NewNotificationService creates the notification consumer and subscribes
// it to period-closed events on the bus.
func NewNotificationService(db *gorm.DB, m mailer.Mailer, bus *events.Bus) *notificationService {
	s := &notificationService{db: db, mailer: m}
	bus.SubscribePeriodClosed(s.HandlePeriodClosed)
	return s
}

// formatCents renders an integer cent amount as a decimal string.
func formatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

// HandlePeriodClosed sends the renewal summary email for one event.
// Skipped when the budget is configured silent, the owner has disabled
// email notifications, or the owner has no email on file.
func (s *notificationService) HandlePeriodClosed(ctx context.Context, ev events.PeriodClosed) {
	var budget models.Budget
	if err := s.db.First(&budget, ev.BudgetID).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Get().Errorw("notification: budget lookup failed", "budget_id", ev.BudgetID, "error", err)
		}
		return
	}
	if !budget.NotifyOnRenewal {
		return
	}

	var user models.User
	if err := s.db.First(&user, ev.UserID).Error; err != nil {
		logger.Get().Errorw("notification: user lookup failed", "user_id", ev.UserID, "error", err)
		return
	}
	if !user.EmailNotifications || user.Email == "" {
		return
	}

	data := map[string]interface{}{
		"BudgetName": ev.BudgetName,
		"OldStart":   ev.PeriodStart.Format("2006-01-02"),
		"OldEnd":     ev.PeriodEnd.Format("2006-01-02"),
		"Spent":      formatCents(ev.Spent),
		"Limit":      formatCents(ev.LimitAmount),
		"UsedPct":    fmt.Sprintf("%.1f", ev.UsedPct),
		"Health":     ev.Health,
		"NewStart":   ev.NewStart.Format("2006-01-02"),
		"NewEnd":     ev.NewEnd.Format("2006-01-02"),
		"NewLimit":   formatCents(ev.NewLimit),
	}
	if ev.Rollover > 0 {
		data["Rollover"] = formatCents(ev.Rollover)
	}
	if ev.Adjustment != 0 {
		data["Adjustment"] = formatCents(ev.Adjustment)
	}

	var html strings.Builder
	if err := renewalEmailTmpl.Execute(&html, data); err != nil {
		logger.Get().Errorw("notification: template render failed", "budget_id", ev.BudgetID, "error", err)
		return
	}

	text := fmt.Sprintf(
		"Budget %q renewed. Closed period %s to %s: spent %s of %s (%.1f%%, %s). New period %s to %s, limit %s.",
		ev.BudgetName,
		ev.PeriodStart.Format("2006-01-02"), ev.PeriodEnd.Format("2006-01-02"),
		formatCents(ev.Spent), formatCents(ev.LimitAmount), ev.UsedPct, ev.Health,
		ev.NewStart.Format("2006-01-02"), ev.NewEnd.Format("2006-01-02"),
		formatCents(ev.NewLimit),
	)

	msg := mailer.Message{
		To:      user.Email,
		Subject: fmt.Sprintf("Budget renewed: %s", ev.BudgetName),
		HTML:    html.String(),
		Text:    text,
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		logger.Get().Errorw("notification: email send failed",
			"budget_id", ev.BudgetID,
			"user_id", ev.UserID,
			"error", err,
		)
	}
}
