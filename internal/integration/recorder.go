// Package integration records money movements reported by other subsystems
// as automatic journal entries.
package integration

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/cleared-dev/ledger/internal/config"
	"github.com/cleared-dev/ledger/internal/errs"
	"github.com/cleared-dev/ledger/internal/journal"
	"github.com/cleared-dev/ledger/internal/logger"
	"github.com/cleared-dev/ledger/internal/model"
	"github.com/cleared-dev/ledger/internal/store"
)

// Recorder turns external events into posted AUTO entries.
type Recorder struct {
	r      store.Reader
	engine *journal.Engine
	codes  config.IntegrationConfig
	log    *zap.Logger
}

// NewRecorder creates a Recorder that books against the account codes in
// cfg. A nil logger discards output.
func NewRecorder(r store.Reader, engine *journal.Engine, cfg config.IntegrationConfig, log *zap.Logger) *Recorder {
	return &Recorder{r: r, engine: engine, codes: cfg, log: logger.OrNop(log)}
}

// RecordFromExternalEvent books ev as a two-line entry and posts it.
// Income debits cash and credits revenue; expenses debit the expense account
// and credit cash. Replaying the same event books it again.
func (rec *Recorder) RecordFromExternalEvent(ctx context.Context, actor string, ev model.ExternalEvent, kind model.EventKind) (model.JournalEntry, error) {
	if !kind.Valid() {
		return model.JournalEntry{}, fmt.Errorf("unknown event kind %q", kind)
	}

	counterCode, label := rec.codes.RevenueCode, "Income"
	if kind == model.EventExpense {
		counterCode, label = rec.codes.ExpenseCode, "Expense"
	}
	counter, err := rec.account(ctx, counterCode)
	if err != nil {
		return model.JournalEntry{}, err
	}
	cash, err := rec.account(ctx, rec.codes.CashCode)
	if err != nil {
		return model.JournalEntry{}, err
	}

	debit, credit := cash, counter
	if kind == model.EventExpense {
		debit, credit = counter, cash
	}

	h := journal.EntryHeader{
		Date:        ev.TransactionDate,
		Description: label + ": " + ev.Description,
		Reference:   ev.Reference,
		Type:        model.EntryAuto,
		Source:      &model.Source{Kind: kind.SourceKind(), ID: ev.ID},
	}
	lines := []journal.LineInput{
		{AccountID: debit.ID, Type: model.LineDebit, Amount: ev.Amount, Description: ev.Description},
		{AccountID: credit.ID, Type: model.LineCredit, Amount: ev.Amount, Description: ev.Description},
	}

	entry, err := rec.engine.CreateAndPost(ctx, actor, h, lines)
	if err != nil {
		return model.JournalEntry{}, fmt.Errorf("recording %s %s: %w", kind, ev.ID, err)
	}

	rec.log.Info("recorded external event",
		zap.String("event_id", ev.ID),
		zap.String("kind", string(kind)),
		zap.String("amount", ev.Amount.StringFixed(2)),
		zap.String("currency", ev.Currency),
		zap.String("entry_number", entry.EntryNumber),
	)
	return entry, nil
}

func (rec *Recorder) account(ctx context.Context, code string) (model.Account, error) {
	a, err := rec.r.AccountByCode(ctx, code)
	if errors.Is(err, errs.ErrNotFound) {
		return model.Account{}, fmt.Errorf("account %s: %w", code, errs.ErrMissingChartAccount)
	}
	if err != nil {
		return model.Account{}, fmt.Errorf("looking up account %s: %w", code, err)
	}
	return a, nil
}
