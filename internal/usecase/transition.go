package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	domainErrors "github.com/polkiloo/checkout/internal/domain/errors"
	"github.com/polkiloo/checkout/internal/domain/model"
	"github.com/polkiloo/checkout/internal/domain/repository"
	"github.com/polkiloo/checkout/internal/statemachine"
)

const maxApplyAttempts = 3

// transitioner runs state machine events against the store with conditional writes.
type transitioner struct {
	orders repository.OrderRepository
	logger *slog.Logger
	now    func() time.Time
}

// apply feeds event to the state machine starting from current and persists the result.
// A lost race reloads the order and re-applies the event.
func (t *transitioner) apply(ctx context.Context, current *model.Order, event statemachine.Event) (*model.Order, bool, error) {
	for attempt := 1; ; attempt++ {
		next, changed, err := statemachine.Apply(*current, event, t.now())
		if err != nil {
			return current, false, err
		}
		if !changed {
			t.logger.Info("order transition absorbed",
				slog.String("order_id", current.OrderID),
				slog.String("event", event.Name()),
				slog.String("status", string(current.Status)),
				slog.String("payment_status", string(current.Payment.Status)),
			)
			return current, false, nil
		}

		err = t.orders.ApplyTransition(ctx, current, &next)
		if err == nil {
			t.logger.Info("order transition applied",
				slog.String("order_id", next.OrderID),
				slog.String("event", event.Name()),
				slog.String("from", string(current.Status)),
				slog.String("to", string(next.Status)),
				slog.String("payment_status", string(next.Payment.Status)),
			)
			return &next, true, nil
		}
		if !errors.Is(err, domainErrors.ErrStateConflict) {
			return current, false, fmt.Errorf("persist transition: %w", err)
		}
		if attempt == maxApplyAttempts {
			return current, false, err
		}

		reloaded, err := t.orders.GetByOrderID(ctx, current.OrderID)
		if err != nil {
			return current, false, fmt.Errorf("reload order: %w", err)
		}
		current = reloaded
	}
}
