package integration

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/ledger/internal/errs"
	"github.com/cleared-dev/ledger/internal/model"
)

func TestWorkerDrainsUntilClosed(t *testing.T) {
	rec := &fakeRecorder{broken: map[string]error{"bad": errs.ErrMissingChartAccount}}
	l, _ := newListener(rec, 3, 0)

	jobs := make(chan Job, 3)
	jobs <- Job{Event: income("a", "1"), Kind: model.EventIncome}
	jobs <- Job{Event: income("bad", "2"), Kind: model.EventExpense}
	jobs <- Job{Event: income("b", "3"), Kind: model.EventExpense}
	close(jobs)

	w := NewWorker(l, jobs, nil)
	require.NoError(t, w.Run(context.Background()))

	assert.Equal(t, int64(2), w.Recorded())
	assert.Equal(t, int64(1), w.Failed())
	assert.Equal(t, []model.EventKind{model.EventIncome, model.EventExpense, model.EventExpense}, rec.kinds)
}

func TestWorkerStopsOnCancel(t *testing.T) {
	l, _ := newListener(&fakeRecorder{}, 1, 0)
	jobs := make(chan Job)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- NewWorker(l, jobs, nil).Run(ctx) }()

	jobs <- Job{Event: income("a", "1"), Kind: model.EventIncome}
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not stop")
	}
}

func TestWorkerWithRecorder(t *testing.T) {
	rec, st, _ := newRecorder(t, true)
	l := NewListener(rec, "worker", codes(), nil)

	jobs := make(chan Job, 2)
	jobs <- Job{Event: income("1", "250"), Kind: model.EventIncome}
	jobs <- Job{Event: income("2", "50"), Kind: model.EventExpense}
	close(jobs)

	w := NewWorker(l, jobs, nil)
	require.NoError(t, w.Run(context.Background()))
	assert.Equal(t, int64(2), w.Recorded())
	assert.Equal(t, "200.00", reported(t, st, "1000"))
}
