// Package journal implements the journal-entry lifecycle: create, post and
// reverse, with the balance and period checks that go with it.
package journal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/cleared-dev/ledger/internal/errs"
	"github.com/cleared-dev/ledger/internal/id"
	"github.com/cleared-dev/ledger/internal/logger"
	"github.com/cleared-dev/ledger/internal/model"
	"github.com/cleared-dev/ledger/internal/periods"
	"github.com/cleared-dev/ledger/internal/store"
)

// EntryHeader holds the caller-supplied fields of a new entry. Zero values
// select defaults: today, a MANUAL entry, an allocated number and a resolved period.
type EntryHeader struct {
	Date        time.Time
	Description string
	Reference   string
	Type        model.EntryType
	EntryNumber string
	PeriodID    int64
	Source      *model.Source
	Notes       string
}

// LineInput is one requested debit or credit.
type LineInput struct {
	AccountID   int64
	Type        model.LineType
	Amount      decimal.Decimal
	Description string
	Reference   string
}

// Engine runs the journal-entry lifecycle against a store.
type Engine struct {
	st      store.Store
	periods *periods.Resolver
	log     *zap.Logger
	now     func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the time source used for default dates and posting stamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine creates an Engine. A nil logger discards output.
func NewEngine(st store.Store, resolver *periods.Resolver, log *zap.Logger, opts ...Option) *Engine {
	e := &Engine{st: st, periods: resolver, log: logger.OrNop(log), now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// CreateEntry validates the lines and stores a DRAFT entry. Balances are
// not touched until the entry is posted.
func (e *Engine) CreateEntry(ctx context.Context, actor string, h EntryHeader, lines []LineInput) (model.JournalEntry, error) {
	if err := precheck(lines); err != nil {
		return model.JournalEntry{}, err
	}

	var entry model.JournalEntry
	err := e.st.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		entry, err = e.createEntry(ctx, tx, actor, h, lines)
		return err
	})
	if err != nil {
		return model.JournalEntry{}, err
	}

	e.log.Debug("created journal entry",
		zap.Int64("entry_id", entry.ID),
		zap.String("entry_number", entry.EntryNumber),
		zap.String("actor", actor),
	)
	return entry, nil
}

// PostEntry moves a DRAFT entry to POSTED and applies its lines to the
// account balances. Entries that are already POSTED or REVERSED are
// returned unchanged.
func (e *Engine) PostEntry(ctx context.Context, actor string, entryID int64) (model.JournalEntry, error) {
	var (
		entry  model.JournalEntry
		posted bool
	)
	err := e.st.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		entry, posted, err = e.postEntry(ctx, tx, actor, entryID)
		return err
	})
	if err != nil {
		return model.JournalEntry{}, err
	}

	if posted {
		e.log.Info("posted journal entry",
			zap.Int64("entry_id", entry.ID),
			zap.String("entry_number", entry.EntryNumber),
			zap.String("actor", actor),
		)
	}
	return entry, nil
}

// CreateAndPost creates and posts an entry as one unit.
func (e *Engine) CreateAndPost(ctx context.Context, actor string, h EntryHeader, lines []LineInput) (model.JournalEntry, error) {
	if err := precheck(lines); err != nil {
		return model.JournalEntry{}, err
	}

	var entry model.JournalEntry
	err := e.st.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		created, err := e.createEntry(ctx, tx, actor, h, lines)
		if err != nil {
			return err
		}
		entry, _, err = e.postEntry(ctx, tx, actor, created.ID)
		return err
	})
	if err != nil {
		return model.JournalEntry{}, err
	}

	e.log.Info("posted journal entry",
		zap.Int64("entry_id", entry.ID),
		zap.String("entry_number", entry.EntryNumber),
		zap.String("type", string(entry.Type)),
		zap.String("actor", actor),
	)
	return entry, nil
}

// ReverseEntry cancels a POSTED entry with a posted mirror entry dated today
// and marks the original REVERSED. An empty description defaults to
// "Reversal of <number>".
func (e *Engine) ReverseEntry(ctx context.Context, actor string, entryID int64, description string) (model.JournalEntry, error) {
	var original, reversal model.JournalEntry
	err := e.st.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		if original, err = entryByID(ctx, tx, entryID); err != nil {
			return err
		}
		if !original.IsPosted() {
			return fmt.Errorf("entry %s is %s: %w", original.EntryNumber, original.Status, errs.ErrNotPosted)
		}

		if description == "" {
			description = "Reversal of " + original.EntryNumber
		}
		h := EntryHeader{
			Date:        e.now(),
			Description: description,
			Reference:   original.EntryNumber,
			Type:        model.EntryManual,
			Source:      model.EntrySource(original.ID),
		}
		lines := make([]LineInput, len(original.Lines))
		for i, l := range original.Lines {
			lines[i] = LineInput{
				AccountID:   l.AccountID,
				Type:        l.Type.Opposite(),
				Amount:      l.Amount,
				Description: "Reversal: " + l.Description,
				Reference:   l.Reference,
			}
		}

		created, err := e.createEntry(ctx, tx, actor, h, lines)
		if err != nil {
			return err
		}
		if reversal, _, err = e.postEntry(ctx, tx, actor, created.ID); err != nil {
			return err
		}

		ok, err := tx.MarkEntryReversed(ctx, original.ID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("entry %s changed concurrently: %w", original.EntryNumber, errs.ErrNotPosted)
		}
		return nil
	})
	if err != nil {
		return model.JournalEntry{}, err
	}

	e.log.Info("reversed journal entry",
		zap.Int64("entry_id", original.ID),
		zap.String("entry_number", original.EntryNumber),
		zap.Int64("reversal_id", reversal.ID),
		zap.String("reversal_number", reversal.EntryNumber),
		zap.String("actor", actor),
	)
	return reversal, nil
}

// Entry returns an entry with its lines.
func (e *Engine) Entry(ctx context.Context, entryID int64) (model.JournalEntry, error) {
	return entryByID(ctx, e.st, entryID)
}

// Entries lists entry headers matching f, by date then id.
func (e *Engine) Entries(ctx context.Context, f store.EntryFilter) ([]model.JournalEntry, error) {
	return e.st.ListEntries(ctx, f)
}

func precheck(lines []LineInput) error {
	if verrs := ValidateLines(lines); len(verrs) > 0 {
		return invalidLines(verrs)
	}
	return CheckBalance(toLines(lines))
}

func toLines(in []LineInput) []model.JournalEntryLine {
	out := make([]model.JournalEntryLine, len(in))
	for i, l := range in {
		out[i] = model.JournalEntryLine{
			AccountID:   l.AccountID,
			Type:        l.Type,
			Amount:      l.Amount,
			Description: l.Description,
			Reference:   l.Reference,
			LineNumber:  i + 1,
		}
	}
	return out
}

func (e *Engine) createEntry(ctx context.Context, tx store.Tx, actor string, h EntryHeader, in []LineInput) (model.JournalEntry, error) {
	if h.Type == "" {
		h.Type = model.EntryManual
	}
	if !h.Type.Valid() {
		return model.JournalEntry{}, fmt.Errorf("unknown entry type %q", h.Type)
	}
	if h.Source != nil && !h.Source.Kind.Valid() {
		return model.JournalEntry{}, fmt.Errorf("unknown source kind %q", h.Source.Kind)
	}
	if h.Date.IsZero() {
		h.Date = e.now()
	}
	date := model.DateOf(h.Date)

	lines := toLines(in)
	for _, l := range lines {
		if _, err := tx.AccountByID(ctx, l.AccountID); err != nil {
			if errors.Is(err, errs.ErrNotFound) {
				return model.JournalEntry{}, fmt.Errorf("line %d account %d: %w", l.LineNumber, l.AccountID, errs.ErrAccountNotFound)
			}
			return model.JournalEntry{}, err
		}
	}

	period, err := e.period(ctx, tx, h.PeriodID, date)
	if err != nil {
		return model.JournalEntry{}, err
	}
	if period.IsClosed {
		return model.JournalEntry{}, fmt.Errorf("period %s: %w", period.Name, errs.ErrPeriodClosed)
	}

	number := h.EntryNumber
	if number == "" {
		seq, err := tx.NextEntrySequence(ctx, date.Year())
		if err != nil {
			return model.JournalEntry{}, fmt.Errorf("allocating entry number: %w", err)
		}
		number = id.FormatEntryNumber(date.Year(), seq)
	}

	entry := model.JournalEntry{
		EntryNumber: number,
		EntryDate:   date,
		Type:        h.Type,
		Status:      model.StatusDraft,
		Description: h.Description,
		Reference:   h.Reference,
		PeriodID:    period.ID,
		CreatedBy:   actor,
		Source:      h.Source,
		Notes:       h.Notes,
		Lines:       lines,
	}
	if err := tx.CreateEntry(ctx, &entry); err != nil {
		return model.JournalEntry{}, err
	}
	return entry, nil
}

func (e *Engine) period(ctx context.Context, tx store.Tx, periodID int64, date time.Time) (model.AccountingPeriod, error) {
	if periodID == 0 {
		return e.periods.ResolveOrCreate(ctx, tx, date)
	}
	p, err := tx.PeriodByID(ctx, periodID)
	if err != nil {
		return model.AccountingPeriod{}, fmt.Errorf("%w: %w", errs.ErrPeriodResolution, err)
	}
	return p, nil
}

// postEntry reports whether this call performed the DRAFT to POSTED transition.
func (e *Engine) postEntry(ctx context.Context, tx store.Tx, actor string, entryID int64) (model.JournalEntry, bool, error) {
	entry, err := entryByID(ctx, tx, entryID)
	if err != nil {
		return model.JournalEntry{}, false, err
	}
	if !entry.IsDraft() {
		return entry, false, nil
	}
	if err := CheckBalance(entry.Lines); err != nil {
		return model.JournalEntry{}, false, fmt.Errorf("entry %s: %w", entry.EntryNumber, err)
	}

	ok, err := tx.MarkEntryPosted(ctx, entryID, actor, e.now().UTC())
	if err != nil {
		return model.JournalEntry{}, false, err
	}
	if !ok {
		// Someone else posted it first; their deltas are already applied.
		entry, err = entryByID(ctx, tx, entryID)
		return entry, false, err
	}

	for _, l := range entry.Lines {
		if err := tx.AdjustAccountBalance(ctx, l.AccountID, l.SignedAmount()); err != nil {
			return model.JournalEntry{}, false, fmt.Errorf("applying line %d of %s: %w", l.LineNumber, entry.EntryNumber, err)
		}
	}

	entry, err = entryByID(ctx, tx, entryID)
	return entry, true, err
}

func entryByID(ctx context.Context, r store.Reader, entryID int64) (model.JournalEntry, error) {
	entry, err := r.EntryByID(ctx, entryID)
	if errors.Is(err, errs.ErrNotFound) {
		return model.JournalEntry{}, fmt.Errorf("entry %d: %w", entryID, errs.ErrEntryNotFound)
	}
	return entry, err
}
