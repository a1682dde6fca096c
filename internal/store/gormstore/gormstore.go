// Package gormstore implements the ledger store on top of gorm, for sqlite
// and PostgreSQL.
package gormstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/cleared-dev/ledger/internal/errs"
	"github.com/cleared-dev/ledger/internal/id"
	"github.com/cleared-dev/ledger/internal/model"
	"github.com/cleared-dev/ledger/internal/store"
)

// Store is a store.Store backed by a gorm connection.
type Store struct {
	queries
}

var (
	_ store.Store = (*Store)(nil)
	_ store.Tx    = (*tx)(nil)
)

// New wraps db. Call Migrate before first use on an empty database.
func New(db *gorm.DB) *Store {
	return &Store{queries{db: db}}
}

// Migrate creates or updates the ledger tables.
func (s *Store) Migrate(ctx context.Context) error {
	err := s.db.WithContext(ctx).AutoMigrate(
		&accountRow{},
		&periodRow{},
		&entryRow{},
		&lineRow{},
		&sequenceRow{},
	)
	if err != nil {
		return fmt.Errorf("migrating ledger schema: %w", err)
	}
	return nil
}

// WithinTx runs fn inside a database transaction.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	return s.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		return fn(ctx, &tx{queries{db: db}})
	})
}

type tx struct {
	queries
}

type queries struct {
	db *gorm.DB
}

func (q queries) conn(ctx context.Context) *gorm.DB {
	return q.db.WithContext(ctx)
}

func notFound(err error, format string, args ...any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf(format+": %w", append(args, errs.ErrNotFound)...)
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

func (q queries) AccountByID(ctx context.Context, id int64) (model.Account, error) {
	var row accountRow
	if err := q.conn(ctx).Take(&row, id).Error; err != nil {
		return model.Account{}, notFound(err, "account %d", id)
	}
	return row.model(), nil
}

func (q queries) AccountByCode(ctx context.Context, code string) (model.Account, error) {
	var row accountRow
	if err := q.conn(ctx).Where("code = ?", code).Take(&row).Error; err != nil {
		return model.Account{}, notFound(err, "account code %q", code)
	}
	return row.model(), nil
}

func (q queries) ListAccounts(ctx context.Context, f store.AccountFilter) ([]model.Account, error) {
	db := q.conn(ctx)
	if f.Type != "" {
		db = db.Where("type = ?", string(f.Type))
	}
	if f.ActiveOnly {
		db = db.Where("is_active = ?", true)
	}
	if f.RootOnly {
		db = db.Where("parent_id IS NULL")
	}
	if f.ParentID != 0 {
		db = db.Where("parent_id = ?", f.ParentID)
	}

	var rows []accountRow
	if err := db.Order("sort_order").Order("code").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("listing accounts: %w", err)
	}
	out := make([]model.Account, len(rows))
	for i, r := range rows {
		out[i] = r.model()
	}
	return out, nil
}

func (q queries) PeriodByID(ctx context.Context, id int64) (model.AccountingPeriod, error) {
	var row periodRow
	if err := q.conn(ctx).Take(&row, id).Error; err != nil {
		return model.AccountingPeriod{}, notFound(err, "period %d", id)
	}
	return row.model(), nil
}

func (q queries) PeriodForDate(ctx context.Context, d time.Time) (model.AccountingPeriod, error) {
	d = model.DateOf(d)
	var row periodRow
	err := q.conn(ctx).
		Where("start_date <= ? AND end_date >= ?", d, d).
		Order("id").
		Take(&row).Error
	if err != nil {
		return model.AccountingPeriod{}, notFound(err, "period for %s", d.Format(model.DateFormat))
	}
	return row.model(), nil
}

func (q queries) ListPeriods(ctx context.Context, f store.PeriodFilter) ([]model.AccountingPeriod, error) {
	db := q.conn(ctx)
	if f.Closed != nil {
		db = db.Where("is_closed = ?", *f.Closed)
	}

	var rows []periodRow
	if err := db.Order("start_date DESC").Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("listing periods: %w", err)
	}
	out := make([]model.AccountingPeriod, len(rows))
	for i, r := range rows {
		out[i] = r.model()
	}
	return out, nil
}

func (q queries) EntryByID(ctx context.Context, id int64) (model.JournalEntry, error) {
	var row entryRow
	if err := q.conn(ctx).Take(&row, id).Error; err != nil {
		return model.JournalEntry{}, notFound(err, "entry %d", id)
	}

	var lines []lineRow
	err := q.conn(ctx).
		Where("journal_entry_id = ?", id).
		Order("line_number").
		Find(&lines).Error
	if err != nil {
		return model.JournalEntry{}, fmt.Errorf("loading lines of entry %d: %w", id, err)
	}

	e := row.model()
	for _, l := range lines {
		e.Lines = append(e.Lines, l.model())
	}
	return e, nil
}

func (q queries) ListEntries(ctx context.Context, f store.EntryFilter) ([]model.JournalEntry, error) {
	db := q.conn(ctx)
	if f.Status != "" {
		db = db.Where("status = ?", string(f.Status))
	}
	if f.Type != "" {
		db = db.Where("type = ?", string(f.Type))
	}
	if f.PeriodID != 0 {
		db = db.Where("period_id = ?", f.PeriodID)
	}
	if !f.From.IsZero() {
		db = db.Where("entry_date >= ?", model.DateOf(f.From))
	}
	if !f.To.IsZero() {
		db = db.Where("entry_date <= ?", model.DateOf(f.To))
	}

	var rows []entryRow
	if err := db.Order("entry_date").Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("listing entries: %w", err)
	}
	out := make([]model.JournalEntry, len(rows))
	for i, r := range rows {
		out[i] = r.model()
	}
	return out, nil
}

func (q queries) LinesForEntries(ctx context.Context, entryIDs []int64) ([]model.JournalEntryLine, error) {
	return q.lines(ctx, entryIDs, 0)
}

func (q queries) LinesForAccount(ctx context.Context, accountID int64, entryIDs []int64) ([]model.JournalEntryLine, error) {
	return q.lines(ctx, entryIDs, accountID)
}

func (q queries) lines(ctx context.Context, entryIDs []int64, accountID int64) ([]model.JournalEntryLine, error) {
	if len(entryIDs) == 0 {
		return nil, nil
	}

	db := q.conn(ctx).Where("journal_entry_id IN ?", entryIDs)
	if accountID != 0 {
		db = db.Where("account_id = ?", accountID)
	}
	var rows []lineRow
	err := db.
		Order("journal_entry_id").
		Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("loading journal lines: %w", err)
	}
	out := make([]model.JournalEntryLine, len(rows))
	for i, r := range rows {
		out[i] = r.model()
	}
	return out, nil
}

func (q queries) EntryNumbersForYear(ctx context.Context, year int) ([]string, error) {
	var numbers []string
	err := q.conn(ctx).
		Model(&entryRow{}).
		Where("entry_number LIKE ?", id.YearPrefix(year)+"%").
		Pluck("entry_number", &numbers).Error
	if err != nil {
		return nil, fmt.Errorf("scanning entry numbers for %d: %w", year, err)
	}
	return numbers, nil
}

func (t *tx) CreateAccount(ctx context.Context, a *model.Account) error {
	if a.UUID == uuid.Nil {
		a.UUID = uuid.New()
	}
	if a.ParentID != 0 {
		if _, err := t.AccountByID(ctx, a.ParentID); err != nil {
			return fmt.Errorf("parent account %d: %w", a.ParentID, errs.ErrAccountNotFound)
		}
	}
	if _, err := t.AccountByCode(ctx, a.Code); err == nil {
		return fmt.Errorf("%w: %s", errs.ErrDuplicateAccountCode, a.Code)
	}

	row := toAccountRow(a)
	if err := t.conn(ctx).Create(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: %s", errs.ErrDuplicateAccountCode, a.Code)
		}
		return fmt.Errorf("creating account %s: %w", a.Code, err)
	}
	a.ID = row.ID
	a.CreatedAt, a.UpdatedAt = row.CreatedAt, row.UpdatedAt
	return nil
}

func (t *tx) SetAccountActive(ctx context.Context, id int64, active bool) error {
	res := t.conn(ctx).Model(&accountRow{}).Where("id = ?", id).Update("is_active", active)
	if res.Error != nil {
		return fmt.Errorf("updating account %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("account %d: %w", id, errs.ErrAccountNotFound)
	}
	return nil
}

func (t *tx) AdjustAccountBalance(ctx context.Context, id int64, delta decimal.Decimal) error {
	res := t.conn(ctx).
		Model(&accountRow{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"current_balance": gorm.Expr("current_balance + ?", delta),
			"updated_at":      time.Now().UTC(),
		})
	if res.Error != nil {
		return fmt.Errorf("adjusting balance of account %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("account %d: %w", id, errs.ErrAccountNotFound)
	}
	return nil
}

func (t *tx) CreatePeriod(ctx context.Context, p *model.AccountingPeriod) error {
	row := periodRow{
		Name:      p.Name,
		StartDate: model.DateOf(p.StartDate),
		EndDate:   model.DateOf(p.EndDate),
		IsClosed:  p.IsClosed,
		ClosedAt:  p.ClosedAt,
		ClosedBy:  p.ClosedBy,
		Notes:     p.Notes,
	}
	if err := t.conn(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("creating period %s: %w", p.Name, err)
	}
	*p = row.model()
	return nil
}

func (t *tx) ClosePeriod(ctx context.Context, id int64, actor string, at time.Time) error {
	res := t.conn(ctx).
		Model(&periodRow{}).
		Where("id = ?", id).
		Updates(map[string]any{"is_closed": true, "closed_at": at, "closed_by": actor})
	if res.Error != nil {
		return fmt.Errorf("closing period %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("period %d: %w", id, errs.ErrNotFound)
	}
	return nil
}

func (t *tx) CreateEntry(ctx context.Context, e *model.JournalEntry) error {
	var taken int64
	err := t.conn(ctx).Model(&entryRow{}).Where("entry_number = ?", e.EntryNumber).Count(&taken).Error
	if err != nil {
		return fmt.Errorf("checking entry number %s: %w", e.EntryNumber, err)
	}
	if taken > 0 {
		return fmt.Errorf("%w: %s", errs.ErrDuplicateEntryNumber, e.EntryNumber)
	}
	if err := t.checkLineAccounts(ctx, e.Lines); err != nil {
		return err
	}

	if e.UUID == uuid.Nil {
		e.UUID = uuid.New()
	}
	row := toEntryRow(e)
	if err := t.conn(ctx).Create(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: %s", errs.ErrDuplicateEntryNumber, e.EntryNumber)
		}
		return fmt.Errorf("creating entry %s: %w", e.EntryNumber, err)
	}
	e.ID = row.ID
	e.EntryDate = row.EntryDate
	e.CreatedAt, e.UpdatedAt = row.CreatedAt, row.UpdatedAt
	if err := t.raiseSequence(ctx, e.EntryNumber); err != nil {
		return err
	}

	if len(e.Lines) == 0 {
		return nil
	}
	lines := make([]lineRow, len(e.Lines))
	for i, l := range e.Lines {
		lines[i] = toLineRow(e.ID, l)
	}
	if err := t.conn(ctx).Create(&lines).Error; err != nil {
		return fmt.Errorf("creating lines of entry %s: %w", e.EntryNumber, err)
	}
	for i := range e.Lines {
		e.Lines[i].ID = lines[i].ID
		e.Lines[i].EntryID = e.ID
	}
	return nil
}

// raiseSequence moves a seeded counter past a number chosen by the caller.
// Unseeded years pick the number up from the scan on first use.
func (t *tx) raiseSequence(ctx context.Context, number string) error {
	year, seq, perr := id.ParseEntryNumber(number)
	if perr != nil {
		return nil // foreign format, never generated
	}
	err := t.conn(ctx).
		Model(&sequenceRow{}).
		Where("year = ? AND seq < ?", year, seq).
		Update("seq", seq).Error
	if err != nil {
		return fmt.Errorf("raising entry sequence for %d: %w", year, err)
	}
	return nil
}

func (t *tx) checkLineAccounts(ctx context.Context, lines []model.JournalEntryLine) error {
	seen := make(map[int64]bool)
	var ids []int64
	for _, l := range lines {
		if !seen[l.AccountID] {
			seen[l.AccountID] = true
			ids = append(ids, l.AccountID)
		}
	}
	if len(ids) == 0 {
		return nil
	}

	var found []int64
	if err := t.conn(ctx).Model(&accountRow{}).Where("id IN ?", ids).Pluck("id", &found).Error; err != nil {
		return fmt.Errorf("checking line accounts: %w", err)
	}
	exists := make(map[int64]bool, len(found))
	for _, id := range found {
		exists[id] = true
	}
	for _, l := range lines {
		if !exists[l.AccountID] {
			return fmt.Errorf("line %d account %d: %w", l.LineNumber, l.AccountID, errs.ErrAccountNotFound)
		}
	}
	return nil
}

func (t *tx) MarkEntryPosted(ctx context.Context, id int64, actor string, at time.Time) (bool, error) {
	res := t.conn(ctx).
		Model(&entryRow{}).
		Where("id = ? AND status = ?", id, string(model.StatusDraft)).
		Updates(map[string]any{
			"status":     string(model.StatusPosted),
			"posted_by":  actor,
			"posted_at":  at,
			"updated_at": time.Now().UTC(),
		})
	return t.flipped(ctx, id, res)
}

func (t *tx) MarkEntryReversed(ctx context.Context, id int64) (bool, error) {
	res := t.conn(ctx).
		Model(&entryRow{}).
		Where("id = ? AND status = ?", id, string(model.StatusPosted)).
		Updates(map[string]any{
			"status":     string(model.StatusReversed),
			"updated_at": time.Now().UTC(),
		})
	return t.flipped(ctx, id, res)
}

// flipped interprets a conditional status update: zero rows means either the
// entry is missing or it was not in the expected state.
func (t *tx) flipped(ctx context.Context, id int64, res *gorm.DB) (bool, error) {
	if res.Error != nil {
		return false, fmt.Errorf("updating status of entry %d: %w", id, res.Error)
	}
	if res.RowsAffected > 0 {
		return true, nil
	}
	var n int64
	if err := t.conn(ctx).Model(&entryRow{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, fmt.Errorf("looking up entry %d: %w", id, err)
	}
	if n == 0 {
		return false, fmt.Errorf("entry %d: %w", id, errs.ErrEntryNotFound)
	}
	return false, nil
}

func (t *tx) NextEntrySequence(ctx context.Context, year int) (int, error) {
	res := t.conn(ctx).
		Model(&sequenceRow{}).
		Where("year = ?", year).
		Update("seq", gorm.Expr("seq + 1"))
	if res.Error != nil {
		return 0, fmt.Errorf("advancing entry sequence for %d: %w", year, res.Error)
	}

	if res.RowsAffected == 0 {
		numbers, err := t.EntryNumbersForYear(ctx, year)
		if err != nil {
			return 0, err
		}
		row := sequenceRow{Year: year, Seq: id.MaxSequence(numbers, year) + 1}
		if err := t.conn(ctx).Create(&row).Error; err != nil {
			return 0, fmt.Errorf("seeding entry sequence for %d: %w", year, err)
		}
		return row.Seq, nil
	}

	var row sequenceRow
	if err := t.conn(ctx).Where("year = ?", year).Take(&row).Error; err != nil {
		return 0, fmt.Errorf("reading entry sequence for %d: %w", year, err)
	}
	return row.Seq, nil
}
