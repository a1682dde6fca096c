package integration

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cleared-dev/ledger/internal/accounts"
	"github.com/cleared-dev/ledger/internal/config"
	"github.com/cleared-dev/ledger/internal/errs"
	"github.com/cleared-dev/ledger/internal/journal"
	"github.com/cleared-dev/ledger/internal/model"
	"github.com/cleared-dev/ledger/internal/periods"
	"github.com/cleared-dev/ledger/internal/store"
)

var today = time.Date(2025, 6, 15, 9, 30, 0, 0, time.UTC)

func codes() config.IntegrationConfig {
	return config.Default("Test Co", "llc_single_member").Integration
}

func newRecorder(t *testing.T, seed bool) (*Recorder, *store.Memory, *observer.ObservedLogs) {
	t.Helper()
	st := store.NewMemory()
	if seed {
		_, err := accounts.NewService(st).Seed(context.Background(), accounts.DefaultChart(""), "USD")
		require.NoError(t, err)
	}

	core, logs := observer.New(zapcore.InfoLevel)
	clock := func() time.Time { return today }
	resolver := periods.NewResolver(st, nil, periods.WithClock(clock))
	engine := journal.NewEngine(st, resolver, nil, journal.WithClock(clock))
	return NewRecorder(st, engine, codes(), zap.New(core)), st, logs
}

func reported(t *testing.T, st store.Reader, code string) string {
	t.Helper()
	a, err := st.AccountByCode(context.Background(), code)
	require.NoError(t, err)
	return a.ReportedBalance().StringFixed(2)
}

func income(id, amount string) model.ExternalEvent {
	return model.ExternalEvent{
		ID:              id,
		RecordType:      "invoice",
		Amount:          decimal.RequireFromString(amount),
		Currency:        "USD",
		Description:     "Consulting",
		Reference:       "INV-" + id,
		TransactionDate: model.Date(2025, 3, 2),
	}
}

func TestRecordIncome(t *testing.T) {
	rec, st, logs := newRecorder(t, true)

	entry, err := rec.RecordFromExternalEvent(context.Background(), "finance", income("42", "100.00"), model.EventIncome)
	require.NoError(t, err)

	assert.Equal(t, model.StatusPosted, entry.Status)
	assert.Equal(t, model.EntryAuto, entry.Type)
	assert.Equal(t, "Income: Consulting", entry.Description)
	assert.Equal(t, "INV-42", entry.Reference)
	assert.Equal(t, model.Date(2025, 3, 2), entry.EntryDate)
	assert.Equal(t, "finance", entry.CreatedBy)
	require.NotNil(t, entry.Source)
	assert.Equal(t, model.Source{Kind: model.SourceIncome, ID: "42"}, *entry.Source)

	require.Len(t, entry.Lines, 2)
	assert.Equal(t, model.LineDebit, entry.Lines[0].Type)
	assert.Equal(t, "Consulting", entry.Lines[0].Description)

	assert.Equal(t, "100.00", reported(t, st, "1000"))
	assert.Equal(t, "100.00", reported(t, st, "4000"))
	assert.Equal(t, 1, logs.FilterMessage("recorded external event").Len())
}

func TestRecordExpense(t *testing.T) {
	rec, st, _ := newRecorder(t, true)

	ev := income("7", "30.25")
	ev.Description = "Paper"
	entry, err := rec.RecordFromExternalEvent(context.Background(), "finance", ev, model.EventExpense)
	require.NoError(t, err)

	assert.Equal(t, "Expense: Paper", entry.Description)
	assert.Equal(t, model.SourceExpense, entry.Source.Kind)
	assert.Equal(t, "30.25", reported(t, st, "5000"))
	assert.Equal(t, "-30.25", reported(t, st, "1000"))
}

func TestRecordDefaultsToToday(t *testing.T) {
	rec, _, _ := newRecorder(t, true)

	ev := income("1", "5")
	ev.TransactionDate = time.Time{}
	entry, err := rec.RecordFromExternalEvent(context.Background(), "finance", ev, model.EventIncome)
	require.NoError(t, err)
	assert.Equal(t, model.Date(2025, 6, 15), entry.EntryDate)
}

func TestRecordMissingChartAccount(t *testing.T) {
	rec, st, _ := newRecorder(t, false)

	_, err := rec.RecordFromExternalEvent(context.Background(), "finance", income("1", "5"), model.EventIncome)
	assert.ErrorIs(t, err, errs.ErrMissingChartAccount)

	entries, err := st.ListEntries(context.Background(), store.EntryFilter{})
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRecordUnknownKind(t *testing.T) {
	rec, _, _ := newRecorder(t, true)

	_, err := rec.RecordFromExternalEvent(context.Background(), "finance", income("1", "5"), model.EventKind("transfer"))
	assert.ErrorContains(t, err, "unknown event kind")
}

func TestRecordReplayBooksTwice(t *testing.T) {
	rec, st, _ := newRecorder(t, true)
	ctx := context.Background()

	first, err := rec.RecordFromExternalEvent(ctx, "finance", income("9", "10"), model.EventIncome)
	require.NoError(t, err)
	second, err := rec.RecordFromExternalEvent(ctx, "finance", income("9", "10"), model.EventIncome)
	require.NoError(t, err)

	assert.NotEqual(t, first.EntryNumber, second.EntryNumber)
	assert.Equal(t, "20.00", reported(t, st, "1000"))
}
