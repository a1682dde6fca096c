// Package periods resolves and manages accounting periods.
package periods

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cleared-dev/ledger/internal/errs"
	"github.com/cleared-dev/ledger/internal/logger"
	"github.com/cleared-dev/ledger/internal/model"
	"github.com/cleared-dev/ledger/internal/store"
)

// Resolver finds the period an entry date belongs to, creating a calendar
// year period on demand.
type Resolver struct {
	st  store.Store
	log *zap.Logger
	now func() time.Time
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithClock overrides the time source used for "current" and close stamps.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) { r.now = now }
}

// NewResolver creates a Resolver over st.
func NewResolver(st store.Store, log *zap.Logger, opts ...Option) *Resolver {
	r := &Resolver{st: st, log: logger.OrNop(log), now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ResolveOrCreate returns the period covering d, creating the calendar year
// of d when none does. It runs inside the caller's transaction.
func (r *Resolver) ResolveOrCreate(ctx context.Context, tx store.Tx, d time.Time) (model.AccountingPeriod, error) {
	p, err := tx.PeriodForDate(ctx, d)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, errs.ErrNotFound) {
		return model.AccountingPeriod{}, fmt.Errorf("%w: %w", errs.ErrPeriodResolution, err)
	}

	p = model.YearPeriod(d)
	if err := tx.CreatePeriod(ctx, &p); err != nil {
		return model.AccountingPeriod{}, fmt.Errorf("%w: %w", errs.ErrPeriodResolution, err)
	}
	r.log.Debug("created accounting period",
		zap.Int64("period_id", p.ID),
		zap.String("name", p.Name),
	)
	return p, nil
}

// ForDate returns the period covering d without creating one.
func (r *Resolver) ForDate(ctx context.Context, d time.Time) (model.AccountingPeriod, error) {
	return r.st.PeriodForDate(ctx, d)
}

// Get returns a period by id.
func (r *Resolver) Get(ctx context.Context, id int64) (model.AccountingPeriod, error) {
	return r.st.PeriodByID(ctx, id)
}

// All returns every period, newest first.
func (r *Resolver) All(ctx context.Context) ([]model.AccountingPeriod, error) {
	return r.st.ListPeriods(ctx, store.PeriodFilter{})
}

// Open returns the periods still accepting entries, newest first.
func (r *Resolver) Open(ctx context.Context) ([]model.AccountingPeriod, error) {
	closed := false
	return r.st.ListPeriods(ctx, store.PeriodFilter{Closed: &closed})
}

// Closed returns the closed periods, newest first.
func (r *Resolver) Closed(ctx context.Context) ([]model.AccountingPeriod, error) {
	closed := true
	return r.st.ListPeriods(ctx, store.PeriodFilter{Closed: &closed})
}

// Current returns the period covering today.
func (r *Resolver) Current(ctx context.Context) (model.AccountingPeriod, error) {
	return r.ForDate(ctx, r.now())
}

// Create adds a period spanning start..end inclusive.
func (r *Resolver) Create(ctx context.Context, name string, start, end time.Time) (model.AccountingPeriod, error) {
	start, end = model.DateOf(start), model.DateOf(end)
	if end.Before(start) {
		return model.AccountingPeriod{}, fmt.Errorf("period %q ends %s before it starts %s",
			name, end.Format(model.DateFormat), start.Format(model.DateFormat))
	}

	p := model.AccountingPeriod{Name: name, StartDate: start, EndDate: end}
	err := r.st.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		return tx.CreatePeriod(ctx, &p)
	})
	if err != nil {
		return model.AccountingPeriod{}, err
	}
	return p, nil
}

// Close marks a period closed. Closing is one-way; closing a closed period
// keeps its original stamp.
func (r *Resolver) Close(ctx context.Context, actor string, id int64) (model.AccountingPeriod, error) {
	var p model.AccountingPeriod
	err := r.st.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		if p, err = tx.PeriodByID(ctx, id); err != nil {
			return err
		}
		if p.IsClosed {
			return nil
		}
		at := r.now().UTC()
		if err := tx.ClosePeriod(ctx, id, actor, at); err != nil {
			return err
		}
		p.IsClosed, p.ClosedAt, p.ClosedBy = true, &at, actor
		return nil
	})
	if err != nil {
		return model.AccountingPeriod{}, err
	}

	r.log.Info("closed accounting period",
		zap.Int64("period_id", p.ID),
		zap.String("name", p.Name),
		zap.String("actor", actor),
	)
	return p, nil
}
