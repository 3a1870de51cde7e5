// Package events implements a minimal in-process event bus.
//
// Renewal publishes domain events after the database transaction commits;
// consumers (such as the notification service) subscribe at startup. Handler
// failures never propagate back to the publisher, so a broken email relay
// cannot fail a renewal batch.
package events

import (
	"context"
	"sync"
	"time"

	"centavo/internal/logger"
)

// PeriodClosed is emitted after a budget period has been renewed and the new
// period committed. Amounts are integer cents.
type PeriodClosed struct {
	UserID       uint
	BudgetID     uint
	BudgetName   string
	PeriodStart  time.Time
	PeriodEnd    time.Time
	Spent        int64
	LimitAmount  int64
	UsedPct      float64
	Health       string
	NewStart     time.Time
	NewEnd       time.Time
	NewLimit     int64
	Rollover     int64
	Adjustment   int64
	RenewalCount int
	Automatic    bool
}

// Handler consumes a PeriodClosed event.
type Handler func(ctx context.Context, ev PeriodClosed)

// Bus is a synchronous publish/subscribe bus for domain events.
type Bus struct {
	mu       sync.RWMutex
	handlers []Handler
}

// NewBus creates an empty event bus.
func NewBus() *Bus {
	return &Bus{}
}

// SubscribePeriodClosed registers a handler for PeriodClosed events.
func (b *Bus) SubscribePeriodClosed(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, h)
}

// PublishPeriodClosed delivers the event to all subscribers in order.
// A panicking handler is recovered and logged; remaining handlers still run.
func (b *Bus) PublishPeriodClosed(ctx context.Context, ev PeriodClosed) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers))
	copy(handlers, b.handlers)
	b.mu.RUnlock()

	for _, h := range handlers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					logger.Get().Errorw("event handler panicked",
						"event", "period_closed",
						"budget_id", ev.BudgetID,
						"panic", r,
					)
				}
			}()
			h(ctx, ev)
		}()
	}
}
