package gormstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/ledger/internal/config"
	"github.com/cleared-dev/ledger/internal/database"
	"github.com/cleared-dev/ledger/internal/errs"
	"github.com/cleared-dev/ledger/internal/model"
	"github.com/cleared-dev/ledger/internal/store"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newStore(t *testing.T) *Store {
	t.Helper()
	db, err := database.Open(config.DatabaseConfig{Driver: database.DriverSQLite, DSN: ":memory:"}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	s := New(db)
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func createAccounts(t *testing.T, s *Store, accts ...*model.Account) {
	t.Helper()
	require.NoError(t, s.WithinTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
		for _, a := range accts {
			if err := tx.CreateAccount(ctx, a); err != nil {
				return err
			}
		}
		return nil
	}))
}

func TestAccountRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	parent := &model.Account{Code: "1000", Name: "Assets", Type: model.AccountTypeAsset, IsActive: true, Currency: "USD"}
	createAccounts(t, s, parent)
	child := &model.Account{
		Code: "1110", Name: "Cash", Type: model.AccountTypeAsset, ParentID: parent.ID, Level: 1,
		IsActive: false, IsSystem: true, OpeningBalance: dec("12.50"), Currency: "USD", SortOrder: 3,
	}
	createAccounts(t, s, child)

	got, err := s.AccountByCode(ctx, "1110")
	require.NoError(t, err)
	assert.Equal(t, child.ID, got.ID)
	assert.Equal(t, child.UUID, got.UUID)
	assert.Equal(t, parent.ID, got.ParentID)
	assert.False(t, got.IsActive)
	assert.True(t, got.IsSystem)
	assert.True(t, dec("12.50").Equal(got.OpeningBalance))

	roots, err := s.ListAccounts(ctx, store.AccountFilter{RootOnly: true})
	require.NoError(t, err)
	require.Len(t, roots, 1)
	assert.Equal(t, "1000", roots[0].Code)

	active, err := s.ListAccounts(ctx, store.AccountFilter{ActiveOnly: true})
	require.NoError(t, err)
	require.Len(t, active, 1)

	_, err = s.AccountByID(ctx, 999)
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestDuplicateAccountCode(t *testing.T) {
	s := newStore(t)
	createAccounts(t, s, &model.Account{Code: "1000", Type: model.AccountTypeAsset})

	err := s.WithinTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
		return tx.CreateAccount(ctx, &model.Account{Code: "1000", Type: model.AccountTypeAsset})
	})
	assert.ErrorIs(t, err, errs.ErrDuplicateAccountCode)
}

func TestAdjustAccountBalance(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	cash := &model.Account{Code: "1000", Type: model.AccountTypeAsset}
	createAccounts(t, s, cash)

	require.NoError(t, s.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		if err := tx.AdjustAccountBalance(ctx, cash.ID, dec("100.10")); err != nil {
			return err
		}
		return tx.AdjustAccountBalance(ctx, cash.ID, dec("-0.20"))
	}))

	got, err := s.AccountByID(ctx, cash.ID)
	require.NoError(t, err)
	assert.Equal(t, "99.90", got.CurrentBalance.StringFixed(2))

	err = s.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		return tx.AdjustAccountBalance(ctx, 999, dec("1"))
	})
	assert.ErrorIs(t, err, errs.ErrAccountNotFound)
}

func TestRollback(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	cash := &model.Account{Code: "1000", Type: model.AccountTypeAsset}
	createAccounts(t, s, cash)
	boom := errors.New("boom")

	err := s.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		if err := tx.AdjustAccountBalance(ctx, cash.ID, dec("5")); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := s.AccountByID(ctx, cash.ID)
	require.NoError(t, err)
	assert.True(t, got.CurrentBalance.IsZero())
}

func TestEntryLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	cash := &model.Account{Code: "1000", Type: model.AccountTypeAsset}
	revenue := &model.Account{Code: "4000", Type: model.AccountTypeRevenue}
	createAccounts(t, s, cash, revenue)

	e := &model.JournalEntry{
		EntryNumber: "JE-2025-000001",
		EntryDate:   model.Date(2025, 3, 1),
		Type:        model.EntryAuto,
		Status:      model.StatusDraft,
		Description: "Income: consulting",
		Source:      &model.Source{Kind: model.SourceIncome, ID: "inv-7"},
		Lines: []model.JournalEntryLine{
			{AccountID: cash.ID, Type: model.LineDebit, Amount: dec("75.25"), LineNumber: 1},
			{AccountID: revenue.ID, Type: model.LineCredit, Amount: dec("75.25"), LineNumber: 2},
		},
	}
	require.NoError(t, s.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		return tx.CreateEntry(ctx, e)
	}))
	require.NotZero(t, e.ID)
	assert.NotZero(t, e.Lines[0].ID)

	got, err := s.EntryByID(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, model.Date(2025, 3, 1), got.EntryDate)
	require.NotNil(t, got.Source)
	assert.Equal(t, model.SourceIncome, got.Source.Kind)
	assert.Equal(t, "inv-7", got.Source.ID)
	require.Len(t, got.Lines, 2)
	assert.True(t, dec("75.25").Equal(got.Lines[1].Amount))
	assert.Equal(t, model.LineCredit, got.Lines[1].Type)

	at := time.Date(2025, 3, 2, 10, 0, 0, 0, time.UTC)
	var first, second bool
	require.NoError(t, s.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		if first, err = tx.MarkEntryPosted(ctx, e.ID, "alice", at); err != nil {
			return err
		}
		second, err = tx.MarkEntryPosted(ctx, e.ID, "bob", at)
		return err
	}))
	assert.True(t, first)
	assert.False(t, second)

	got, err = s.EntryByID(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPosted, got.Status)
	assert.Equal(t, "alice", got.PostedBy)
	require.NotNil(t, got.PostedAt)

	posted, err := s.ListEntries(ctx, store.EntryFilter{Status: model.StatusPosted, From: model.Date(2025, 3, 1), To: model.Date(2025, 3, 1)})
	require.NoError(t, err)
	require.Len(t, posted, 1)

	none, err := s.ListEntries(ctx, store.EntryFilter{From: model.Date(2025, 3, 2)})
	require.NoError(t, err)
	assert.Empty(t, none)

	lines, err := s.LinesForEntries(ctx, []int64{e.ID})
	require.NoError(t, err)
	assert.Len(t, lines, 2)

	err = s.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		_, err := tx.MarkEntryPosted(ctx, 999, "alice", at)
		return err
	})
	assert.ErrorIs(t, err, errs.ErrEntryNotFound)
}

func TestCreateEntryDuplicateNumber(t *testing.T) {
	s := newStore(t)
	err := s.WithinTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
		if err := tx.CreateEntry(ctx, &model.JournalEntry{EntryNumber: "JE-2025-000001", EntryDate: model.Date(2025, 1, 1)}); err != nil {
			return err
		}
		return tx.CreateEntry(ctx, &model.JournalEntry{EntryNumber: "JE-2025-000001", EntryDate: model.Date(2025, 1, 1)})
	})
	assert.ErrorIs(t, err, errs.ErrDuplicateEntryNumber)
}

func TestCreateEntryUnknownAccount(t *testing.T) {
	s := newStore(t)
	err := s.WithinTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
		return tx.CreateEntry(ctx, &model.JournalEntry{
			EntryNumber: "JE-2025-000001",
			EntryDate:   model.Date(2025, 1, 1),
			Lines:       []model.JournalEntryLine{{AccountID: 7, Type: model.LineDebit, Amount: dec("1"), LineNumber: 1}},
		})
	})
	assert.ErrorIs(t, err, errs.ErrAccountNotFound)
}

func TestNextEntrySequence(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	require.NoError(t, s.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		return tx.CreateEntry(ctx, &model.JournalEntry{EntryNumber: "JE-2025-000041", EntryDate: model.Date(2025, 1, 1)})
	}))

	var seqs []int
	for _, year := range []int{2025, 2025, 2024} {
		require.NoError(t, s.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
			seq, err := tx.NextEntrySequence(ctx, year)
			seqs = append(seqs, seq)
			return err
		}))
	}
	assert.Equal(t, []int{42, 43, 1}, seqs)
}

func TestPeriods(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	p := model.YearPeriod(model.Date(2025, 5, 5))
	require.NoError(t, s.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		return tx.CreatePeriod(ctx, &p)
	}))
	require.NotZero(t, p.ID)

	got, err := s.PeriodForDate(ctx, model.Date(2025, 12, 31))
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)
	assert.Equal(t, model.Date(2025, 1, 1), got.StartDate)

	_, err = s.PeriodForDate(ctx, model.Date(2026, 1, 1))
	assert.ErrorIs(t, err, errs.ErrNotFound)

	require.NoError(t, s.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		return tx.ClosePeriod(ctx, p.ID, "alice", time.Now().UTC())
	}))
	got, err = s.PeriodByID(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, got.IsClosed)
	assert.Equal(t, "alice", got.ClosedBy)

	open := false
	list, err := s.ListPeriods(ctx, store.PeriodFilter{Closed: &open})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func nextSequence(t *testing.T, s *Store, year int) int {
	t.Helper()
	var seq int
	require.NoError(t, s.WithinTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
		var err error
		seq, err = tx.NextEntrySequence(ctx, year)
		return err
	}))
	return seq
}

func createEntry(t *testing.T, s *Store, number string) {
	t.Helper()
	require.NoError(t, s.WithinTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
		return tx.CreateEntry(ctx, &model.JournalEntry{EntryNumber: number, EntryDate: model.Date(2025, 1, 1)})
	}))
}

func TestOverrideRaisesSequence(t *testing.T) {
	s := newStore(t)

	assert.Equal(t, 1, nextSequence(t, s, 2025))
	createEntry(t, s, "JE-2025-000001")
	createEntry(t, s, "JE-2025-000002")
	assert.Equal(t, 3, nextSequence(t, s, 2025))
	createEntry(t, s, "JE-2025-000003")

	createEntry(t, s, "JE-2025-000010")
	assert.Equal(t, 11, nextSequence(t, s, 2025))

	// unseeded years pick overrides up from the scan
	createEntry(t, s, "JE-2024-000005")
	assert.Equal(t, 6, nextSequence(t, s, 2024))

	createEntry(t, s, "LEGACY-1")
	createEntry(t, s, "JE-2025-000004")
	assert.Equal(t, 12, nextSequence(t, s, 2025))
}

func TestLinesForAccount(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	cash := &model.Account{Code: "1000", Type: model.AccountTypeAsset}
	revenue := &model.Account{Code: "4000", Type: model.AccountTypeRevenue}
	createAccounts(t, s, cash, revenue)

	var ids []int64
	require.NoError(t, s.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		for i, amount := range []string{"10", "20"} {
			e := &model.JournalEntry{
				EntryNumber: fmt.Sprintf("JE-2025-%06d", i+1),
				EntryDate:   model.Date(2025, 1, 1),
				Lines: []model.JournalEntryLine{
					{AccountID: revenue.ID, Type: model.LineCredit, Amount: dec(amount), LineNumber: 1},
					{AccountID: cash.ID, Type: model.LineDebit, Amount: dec(amount), LineNumber: 2},
				},
			}
			if err := tx.CreateEntry(ctx, e); err != nil {
				return err
			}
			ids = append(ids, e.ID)
		}
		return nil
	}))

	lines, err := s.LinesForAccount(ctx, cash.ID, ids)
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, ids[0], lines[0].EntryID)
	assert.Equal(t, ids[1], lines[1].EntryID)
	for _, l := range lines {
		assert.Equal(t, cash.ID, l.AccountID)
		assert.Equal(t, model.LineDebit, l.Type)
	}

	lines, err = s.LinesForAccount(ctx, revenue.ID, ids[1:])
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.True(t, dec("20").Equal(lines[0].Amount))

	lines, err = s.LinesForAccount(ctx, cash.ID, nil)
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestConcurrentTransactions(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	cash := &model.Account{Code: "1000", Type: model.AccountTypeAsset}
	createAccounts(t, s, cash)

	const workers = 20
	seqs := make([]int, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := s.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
				if err := tx.AdjustAccountBalance(ctx, cash.ID, dec("1.25")); err != nil {
					return err
				}
				seq, err := tx.NextEntrySequence(ctx, 2025)
				seqs[i] = seq
				return err
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	got, err := s.AccountByID(ctx, cash.ID)
	require.NoError(t, err)
	assert.Equal(t, "25.00", got.CurrentBalance.StringFixed(2))

	seen := make(map[int]bool, workers)
	for _, seq := range seqs {
		assert.False(t, seen[seq], "sequence %d handed out twice", seq)
		seen[seq] = true
	}
	for i := 1; i <= workers; i++ {
		assert.True(t, seen[i], "sequence %d missing", i)
	}
}
