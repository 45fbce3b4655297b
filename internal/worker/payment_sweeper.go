package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/polkiloo/checkout/internal/adapter/gateway"
	"github.com/polkiloo/checkout/internal/usecase"
)

// PaymentFacade exposes the subset of application functionality required by the sweeper.
type PaymentFacade interface {
	PendingPayments(ctx context.Context, createdBefore time.Time, limit int) ([]string, error)
	ReconcilePayment(ctx context.Context, orderID string) (*usecase.Outcome, error)
}

// PaymentSweeper periodically asks the gateway about payments that never received a
// callback and settles them concurrently. It never expires orders on its own.
type PaymentSweeper struct {
	facade    PaymentFacade
	interval  time.Duration
	minAge    time.Duration
	batchSize int
	workers   int
	logger    *slog.Logger
	now       func() time.Time

	wg     sync.WaitGroup
	cancel context.CancelFunc
	mu     sync.Mutex
}

// NewPaymentSweeper constructs the sweeper worker pool.
func NewPaymentSweeper(facade PaymentFacade, interval, minAge time.Duration, batchSize, workers int, logger *slog.Logger) *PaymentSweeper {
	if workers <= 0 {
		workers = 1
	}
	if batchSize <= 0 {
		batchSize = 1
	}
	if interval <= 0 {
		interval = time.Minute
	}
	return &PaymentSweeper{
		facade:    facade,
		interval:  interval,
		minAge:    minAge,
		batchSize: batchSize,
		workers:   workers,
		logger:    logger,
		now:       time.Now,
	}
}

// Start launches background sweeping. The sweeper outlives ctx until Stop is called.
func (s *PaymentSweeper) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	jobs := make(chan string, s.batchSize)

	for i := 0; i < s.workers; i++ {
		s.wg.Add(1)
		go s.worker(runCtx, jobs)
	}

	s.wg.Add(1)
	go s.dispatch(runCtx, jobs)
}

// Stop cancels in-flight work and waits for all workers to finish.
func (s *PaymentSweeper) Stop() {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.mu.Unlock()

	s.wg.Wait()
}

func (s *PaymentSweeper) dispatch(ctx context.Context, jobs chan<- string) {
	defer s.wg.Done()
	defer close(jobs)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.claimAndDispatch(ctx, jobs)
		}
	}
}

func (s *PaymentSweeper) claimAndDispatch(ctx context.Context, jobs chan<- string) {
	ids, err := s.facade.PendingPayments(ctx, s.now().Add(-s.minAge), s.batchSize)
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Error("claim pending payments failed", slog.String("error", err.Error()))
		}
		return
	}
	for _, id := range ids {
		select {
		case <-ctx.Done():
			return
		case jobs <- id:
		}
	}
}

func (s *PaymentSweeper) worker(ctx context.Context, jobs <-chan string) {
	defer s.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case orderID, ok := <-jobs:
			if !ok {
				return
			}
			s.reconcile(ctx, orderID)
		}
	}
}

func (s *PaymentSweeper) reconcile(ctx context.Context, orderID string) {
	outcome, err := s.facade.ReconcilePayment(ctx, orderID)
	if err != nil {
		switch {
		case ctx.Err() != nil:
		case errors.Is(err, gateway.ErrNetwork), errors.Is(err, gateway.ErrConfigMissing):
			s.logger.Warn("payment status unavailable", slog.String("order_id", orderID), slog.String("error", err.Error()))
		default:
			s.logger.Error("payment reconciliation failed", slog.String("order_id", orderID), slog.String("error", err.Error()))
		}
		return
	}
	if outcome.Applied {
		s.logger.Info("pending payment settled",
			slog.String("order_id", orderID),
			slog.String("result", string(outcome.Result)),
		)
	}
}
