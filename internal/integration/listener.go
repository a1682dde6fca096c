package integration

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cleared-dev/ledger/internal/config"
	"github.com/cleared-dev/ledger/internal/errs"
	"github.com/cleared-dev/ledger/internal/logger"
	"github.com/cleared-dev/ledger/internal/model"
)

// EventRecorder books a single external event.
type EventRecorder interface {
	RecordFromExternalEvent(ctx context.Context, actor string, ev model.ExternalEvent, kind model.EventKind) (model.JournalEntry, error)
}

// Listener reacts to income and expense notifications, retrying failed
// recordings a bounded number of times.
type Listener struct {
	rec      EventRecorder
	actor    string
	attempts int
	backoff  time.Duration
	log      *zap.Logger
}

// NewListener creates a Listener that records as actor. MaxAttempts below
// one is treated as one.
func NewListener(rec EventRecorder, actor string, cfg config.IntegrationConfig, log *zap.Logger) *Listener {
	attempts := cfg.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	return &Listener{
		rec:      rec,
		actor:    actor,
		attempts: attempts,
		backoff:  cfg.Backoff,
		log:      logger.OrNop(log),
	}
}

// HandleIncome records an income event.
func (l *Listener) HandleIncome(ctx context.Context, ev model.ExternalEvent) error {
	_, err := l.Handle(ctx, ev, model.EventIncome)
	return err
}

// HandleExpense records an expense event.
func (l *Listener) HandleExpense(ctx context.Context, ev model.ExternalEvent) error {
	_, err := l.Handle(ctx, ev, model.EventExpense)
	return err
}

// Handle records ev, waiting attempt*backoff between tries. Errors that
// another attempt cannot fix are returned straight away.
func (l *Listener) Handle(ctx context.Context, ev model.ExternalEvent, kind model.EventKind) (model.JournalEntry, error) {
	var lastErr error
	for attempt := 1; attempt <= l.attempts; attempt++ {
		entry, err := l.rec.RecordFromExternalEvent(ctx, l.actor, ev, kind)
		if err == nil {
			l.log.Info("external event recorded",
				zap.String("event_id", ev.ID),
				zap.String("kind", string(kind)),
				zap.String("amount", ev.Amount.StringFixed(2)),
				zap.String("currency", ev.Currency),
				zap.Int("attempt", attempt),
			)
			return entry, nil
		}
		lastErr = err

		l.log.Error("failed to record external event",
			zap.String("event_id", ev.ID),
			zap.String("kind", string(kind)),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", l.attempts),
			zap.Error(err),
		)
		if permanent(err) || attempt == l.attempts {
			break
		}
		if err := sleep(ctx, time.Duration(attempt)*l.backoff); err != nil {
			return model.JournalEntry{}, err
		}
	}
	return model.JournalEntry{}, lastErr
}

func permanent(err error) bool {
	for _, target := range []error{
		errs.ErrMissingChartAccount,
		errs.ErrUnbalancedEntry,
		errs.ErrInvalidLine,
		errs.ErrPeriodClosed,
		errs.ErrAccountNotFound,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting to retry: %w", ctx.Err())
	}
}
