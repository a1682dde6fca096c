package store

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/ledger/internal/errs"
	"github.com/cleared-dev/ledger/internal/id"
	"github.com/cleared-dev/ledger/internal/model"
)

// Memory is a Store kept in process memory. Transactions are serialised
// and applied to a copy of the state that replaces the original on commit.
type Memory struct {
	mu    sync.RWMutex
	state *state
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{state: newState()}
}

var _ Store = (*Memory)(nil)

// WithinTx implements Store.
func (m *Memory) WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	work := m.state.clone()
	if err := fn(ctx, &memoryTx{st: work}); err != nil {
		return err
	}
	m.state = work
	return nil
}

func (m *Memory) read() *state {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// AccountByID implements Reader.
func (m *Memory) AccountByID(ctx context.Context, id int64) (model.Account, error) {
	return m.read().accountByID(id)
}

// AccountByCode implements Reader.
func (m *Memory) AccountByCode(ctx context.Context, code string) (model.Account, error) {
	return m.read().accountByCode(code)
}

// ListAccounts implements Reader.
func (m *Memory) ListAccounts(ctx context.Context, f AccountFilter) ([]model.Account, error) {
	return m.read().listAccounts(f), nil
}

// PeriodByID implements Reader.
func (m *Memory) PeriodByID(ctx context.Context, id int64) (model.AccountingPeriod, error) {
	return m.read().periodByID(id)
}

// PeriodForDate implements Reader.
func (m *Memory) PeriodForDate(ctx context.Context, d time.Time) (model.AccountingPeriod, error) {
	return m.read().periodForDate(d)
}

// ListPeriods implements Reader.
func (m *Memory) ListPeriods(ctx context.Context, f PeriodFilter) ([]model.AccountingPeriod, error) {
	return m.read().listPeriods(f), nil
}

// EntryByID implements Reader.
func (m *Memory) EntryByID(ctx context.Context, id int64) (model.JournalEntry, error) {
	return m.read().entryByID(id)
}

// ListEntries implements Reader.
func (m *Memory) ListEntries(ctx context.Context, f EntryFilter) ([]model.JournalEntry, error) {
	return m.read().listEntries(f), nil
}

// LinesForEntries implements Reader.
func (m *Memory) LinesForEntries(ctx context.Context, entryIDs []int64) ([]model.JournalEntryLine, error) {
	return m.read().linesForEntries(entryIDs, 0), nil
}

// LinesForAccount implements Reader.
func (m *Memory) LinesForAccount(ctx context.Context, accountID int64, entryIDs []int64) ([]model.JournalEntryLine, error) {
	return m.read().linesForEntries(entryIDs, accountID), nil
}

// EntryNumbersForYear implements Reader.
func (m *Memory) EntryNumbersForYear(ctx context.Context, year int) ([]string, error) {
	return m.read().entryNumbersForYear(year), nil
}

// memoryTx exposes a working copy of the state. Committed states are never
// mutated, which is what lets readers hold on to them without a lock.
type memoryTx struct {
	st *state
}

var _ Tx = (*memoryTx)(nil)

// AccountByID implements Reader.
func (t *memoryTx) AccountByID(ctx context.Context, id int64) (model.Account, error) {
	return t.st.accountByID(id)
}

// AccountByCode implements Reader.
func (t *memoryTx) AccountByCode(ctx context.Context, code string) (model.Account, error) {
	return t.st.accountByCode(code)
}

// ListAccounts implements Reader.
func (t *memoryTx) ListAccounts(ctx context.Context, f AccountFilter) ([]model.Account, error) {
	return t.st.listAccounts(f), nil
}

// PeriodByID implements Reader.
func (t *memoryTx) PeriodByID(ctx context.Context, id int64) (model.AccountingPeriod, error) {
	return t.st.periodByID(id)
}

// PeriodForDate implements Reader.
func (t *memoryTx) PeriodForDate(ctx context.Context, d time.Time) (model.AccountingPeriod, error) {
	return t.st.periodForDate(d)
}

// ListPeriods implements Reader.
func (t *memoryTx) ListPeriods(ctx context.Context, f PeriodFilter) ([]model.AccountingPeriod, error) {
	return t.st.listPeriods(f), nil
}

// EntryByID implements Reader.
func (t *memoryTx) EntryByID(ctx context.Context, id int64) (model.JournalEntry, error) {
	return t.st.entryByID(id)
}

// ListEntries implements Reader.
func (t *memoryTx) ListEntries(ctx context.Context, f EntryFilter) ([]model.JournalEntry, error) {
	return t.st.listEntries(f), nil
}

// LinesForEntries implements Reader.
func (t *memoryTx) LinesForEntries(ctx context.Context, entryIDs []int64) ([]model.JournalEntryLine, error) {
	return t.st.linesForEntries(entryIDs, 0), nil
}

// LinesForAccount implements Reader.
func (t *memoryTx) LinesForAccount(ctx context.Context, accountID int64, entryIDs []int64) ([]model.JournalEntryLine, error) {
	return t.st.linesForEntries(entryIDs, accountID), nil
}

// EntryNumbersForYear implements Reader.
func (t *memoryTx) EntryNumbersForYear(ctx context.Context, year int) ([]string, error) {
	return t.st.entryNumbersForYear(year), nil
}

// CreateAccount implements Writer.
func (t *memoryTx) CreateAccount(ctx context.Context, a *model.Account) error {
	st := t.st
	if _, err := st.accountByCode(a.Code); err == nil {
		return fmt.Errorf("%w: %s", errs.ErrDuplicateAccountCode, a.Code)
	}
	if a.ParentID != 0 {
		if _, err := st.accountByID(a.ParentID); err != nil {
			return fmt.Errorf("parent account %d: %w", a.ParentID, errs.ErrAccountNotFound)
		}
	}
	st.nextAccountID++
	a.ID = st.nextAccountID
	if a.UUID == uuid.Nil {
		a.UUID = uuid.New()
	}
	now := time.Now().UTC()
	a.CreatedAt, a.UpdatedAt = now, now
	st.accounts = append(st.accounts, *a)
	return nil
}

// SetAccountActive implements Writer.
func (t *memoryTx) SetAccountActive(ctx context.Context, id int64, active bool) error {
	i := t.st.accountIndex(id)
	if i < 0 {
		return fmt.Errorf("account %d: %w", id, errs.ErrAccountNotFound)
	}
	t.st.accounts[i].IsActive = active
	t.st.accounts[i].UpdatedAt = time.Now().UTC()
	return nil
}

// AdjustAccountBalance implements Writer.
func (t *memoryTx) AdjustAccountBalance(ctx context.Context, id int64, delta decimal.Decimal) error {
	i := t.st.accountIndex(id)
	if i < 0 {
		return fmt.Errorf("account %d: %w", id, errs.ErrAccountNotFound)
	}
	t.st.accounts[i].CurrentBalance = t.st.accounts[i].CurrentBalance.Add(delta)
	t.st.accounts[i].UpdatedAt = time.Now().UTC()
	return nil
}

// CreatePeriod implements Writer.
func (t *memoryTx) CreatePeriod(ctx context.Context, p *model.AccountingPeriod) error {
	st := t.st
	st.nextPeriodID++
	p.ID = st.nextPeriodID
	p.StartDate = model.DateOf(p.StartDate)
	p.EndDate = model.DateOf(p.EndDate)
	p.CreatedAt = time.Now().UTC()
	st.periods = append(st.periods, *p)
	return nil
}

// ClosePeriod implements Writer.
func (t *memoryTx) ClosePeriod(ctx context.Context, id int64, actor string, at time.Time) error {
	for i := range t.st.periods {
		if t.st.periods[i].ID == id {
			p := &t.st.periods[i]
			p.IsClosed = true
			p.ClosedAt = &at
			p.ClosedBy = actor
			return nil
		}
	}
	return fmt.Errorf("period %d: %w", id, errs.ErrNotFound)
}

// CreateEntry implements Writer.
func (t *memoryTx) CreateEntry(ctx context.Context, e *model.JournalEntry) error {
	st := t.st
	for _, existing := range st.entries {
		if existing.EntryNumber == e.EntryNumber {
			return fmt.Errorf("%w: %s", errs.ErrDuplicateEntryNumber, e.EntryNumber)
		}
	}
	for _, l := range e.Lines {
		if st.accountIndex(l.AccountID) < 0 {
			return fmt.Errorf("line %d account %d: %w", l.LineNumber, l.AccountID, errs.ErrAccountNotFound)
		}
	}

	st.nextEntryID++
	e.ID = st.nextEntryID
	if e.UUID == uuid.Nil {
		e.UUID = uuid.New()
	}
	e.EntryDate = model.DateOf(e.EntryDate)
	now := time.Now().UTC()
	e.CreatedAt, e.UpdatedAt = now, now

	for i := range e.Lines {
		st.nextLineID++
		e.Lines[i].ID = st.nextLineID
		e.Lines[i].EntryID = e.ID
	}

	header := *e
	header.Lines = nil
	st.entries = append(st.entries, header)
	st.lines = append(st.lines, e.Lines...)

	if year, seq, err := id.ParseEntryNumber(e.EntryNumber); err == nil {
		if last, ok := st.counters[year]; ok && last < seq {
			st.counters[year] = seq
		}
	}
	return nil
}

// MarkEntryPosted implements Writer.
func (t *memoryTx) MarkEntryPosted(ctx context.Context, id int64, actor string, at time.Time) (bool, error) {
	i := t.st.entryIndex(id)
	if i < 0 {
		return false, fmt.Errorf("entry %d: %w", id, errs.ErrEntryNotFound)
	}
	e := &t.st.entries[i]
	if e.Status != model.StatusDraft {
		return false, nil
	}
	e.Status = model.StatusPosted
	e.PostedBy = actor
	e.PostedAt = &at
	e.UpdatedAt = time.Now().UTC()
	return true, nil
}

// MarkEntryReversed implements Writer.
func (t *memoryTx) MarkEntryReversed(ctx context.Context, id int64) (bool, error) {
	i := t.st.entryIndex(id)
	if i < 0 {
		return false, fmt.Errorf("entry %d: %w", id, errs.ErrEntryNotFound)
	}
	e := &t.st.entries[i]
	if e.Status != model.StatusPosted {
		return false, nil
	}
	e.Status = model.StatusReversed
	e.UpdatedAt = time.Now().UTC()
	return true, nil
}

// NextEntrySequence implements Writer.
func (t *memoryTx) NextEntrySequence(ctx context.Context, year int) (int, error) {
	seq, ok := t.st.counters[year]
	if !ok {
		seq = id.MaxSequence(t.st.entryNumbersForYear(year), year)
	}
	seq++
	t.st.counters[year] = seq
	return seq, nil
}

type state struct {
	accounts []model.Account
	periods  []model.AccountingPeriod
	entries  []model.JournalEntry
	lines    []model.JournalEntryLine
	counters map[int]int

	nextAccountID int64
	nextPeriodID  int64
	nextEntryID   int64
	nextLineID    int64
}

func newState() *state {
	return &state{counters: make(map[int]int)}
}

func (s *state) clone() *state {
	c := *s
	c.accounts = slices.Clone(s.accounts)
	c.periods = slices.Clone(s.periods)
	c.entries = slices.Clone(s.entries)
	c.lines = slices.Clone(s.lines)
	c.counters = make(map[int]int, len(s.counters))
	for k, v := range s.counters {
		c.counters[k] = v
	}
	return &c
}

func (s *state) accountIndex(id int64) int {
	for i := range s.accounts {
		if s.accounts[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *state) accountByID(id int64) (model.Account, error) {
	i := s.accountIndex(id)
	if i < 0 {
		return model.Account{}, fmt.Errorf("account %d: %w", id, errs.ErrNotFound)
	}
	return s.accounts[i], nil
}

func (s *state) accountByCode(code string) (model.Account, error) {
	for _, a := range s.accounts {
		if a.Code == code {
			return a, nil
		}
	}
	return model.Account{}, fmt.Errorf("account code %q: %w", code, errs.ErrNotFound)
}

func (s *state) listAccounts(f AccountFilter) []model.Account {
	var out []model.Account
	for _, a := range s.accounts {
		if f.Type != "" && a.Type != f.Type {
			continue
		}
		if f.ActiveOnly && !a.IsActive {
			continue
		}
		if f.RootOnly && !a.IsRoot() {
			continue
		}
		if f.ParentID != 0 && a.ParentID != f.ParentID {
			continue
		}
		out = append(out, a)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].SortOrder != out[j].SortOrder {
			return out[i].SortOrder < out[j].SortOrder
		}
		return out[i].Code < out[j].Code
	})
	return out
}

func (s *state) periodByID(id int64) (model.AccountingPeriod, error) {
	for _, p := range s.periods {
		if p.ID == id {
			return p, nil
		}
	}
	return model.AccountingPeriod{}, fmt.Errorf("period %d: %w", id, errs.ErrNotFound)
}

func (s *state) periodForDate(d time.Time) (model.AccountingPeriod, error) {
	for _, p := range s.periods {
		if p.Contains(d) {
			return p, nil
		}
	}
	return model.AccountingPeriod{}, fmt.Errorf("period for %s: %w", d.Format(model.DateFormat), errs.ErrNotFound)
}

func (s *state) listPeriods(f PeriodFilter) []model.AccountingPeriod {
	var out []model.AccountingPeriod
	for _, p := range s.periods {
		if f.Closed != nil && p.IsClosed != *f.Closed {
			continue
		}
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartDate.After(out[j].StartDate)
	})
	return out
}

func (s *state) entryIndex(id int64) int {
	for i := range s.entries {
		if s.entries[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *state) entryByID(id int64) (model.JournalEntry, error) {
	i := s.entryIndex(id)
	if i < 0 {
		return model.JournalEntry{}, fmt.Errorf("entry %d: %w", id, errs.ErrNotFound)
	}
	e := s.entries[i]
	for _, l := range s.lines {
		if l.EntryID == id {
			e.Lines = append(e.Lines, l)
		}
	}
	sort.SliceStable(e.Lines, func(a, b int) bool {
		return e.Lines[a].LineNumber < e.Lines[b].LineNumber
	})
	return e, nil
}

func (s *state) listEntries(f EntryFilter) []model.JournalEntry {
	var out []model.JournalEntry
	for _, e := range s.entries {
		if f.Status != "" && e.Status != f.Status {
			continue
		}
		if f.Type != "" && e.Type != f.Type {
			continue
		}
		if f.PeriodID != 0 && e.PeriodID != f.PeriodID {
			continue
		}
		if !f.From.IsZero() && e.EntryDate.Before(model.DateOf(f.From)) {
			continue
		}
		if !f.To.IsZero() && e.EntryDate.After(model.DateOf(f.To)) {
			continue
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].EntryDate.Equal(out[j].EntryDate) {
			return out[i].EntryDate.Before(out[j].EntryDate)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// linesForEntries returns the lines of entryIDs, restricted to accountID
// unless it is zero.
func (s *state) linesForEntries(entryIDs []int64, accountID int64) []model.JournalEntryLine {
	if len(entryIDs) == 0 {
		return nil
	}
	want := make(map[int64]bool, len(entryIDs))
	for _, id := range entryIDs {
		want[id] = true
	}
	var out []model.JournalEntryLine
	for _, l := range s.lines {
		if want[l.EntryID] && (accountID == 0 || l.AccountID == accountID) {
			out = append(out, l)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].EntryID != out[j].EntryID {
			return out[i].EntryID < out[j].EntryID
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *state) entryNumbersForYear(year int) []string {
	prefix := id.YearPrefix(year)
	var out []string
	for _, e := range s.entries {
		if strings.HasPrefix(e.EntryNumber, prefix) {
			out = append(out, e.EntryNumber)
		}
	}
	return out
}
