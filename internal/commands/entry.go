package commands

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/ledger/internal/activity"
	"github.com/cleared-dev/ledger/internal/api"
	"github.com/cleared-dev/ledger/internal/journal"
	"github.com/cleared-dev/ledger/internal/model"
	"github.com/cleared-dev/ledger/internal/store"
)

func newEntryCommand(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "entry",
		Short: "Journal entries",
	}
	cmd.AddCommand(
		newEntryCreateCommand(g),
		newEntryPostCommand(g),
		newEntryReverseCommand(g),
		newEntryShowCommand(g),
		newEntryListCommand(g),
	)
	return cmd
}

// lineSpec is a --line flag value: CODE:debit|credit:AMOUNT[:DESCRIPTION].
type lineSpec struct {
	Code        string
	Type        model.LineType
	Amount      decimal.Decimal
	Description string
}

func parseLineSpec(s string) (lineSpec, error) {
	parts := strings.SplitN(s, ":", 4)
	if len(parts) < 3 {
		return lineSpec{}, fmt.Errorf("line %q: want CODE:debit|credit:AMOUNT[:DESCRIPTION]", s)
	}
	side := model.LineType(strings.ToLower(parts[1]))
	if !side.Valid() {
		return lineSpec{}, fmt.Errorf("line %q: side must be debit or credit", s)
	}
	amount, err := decimal.NewFromString(parts[2])
	if err != nil {
		return lineSpec{}, fmt.Errorf("line %q: amount: %w", s, err)
	}
	spec := lineSpec{Code: parts[0], Type: side, Amount: amount}
	if len(parts) == 4 {
		spec.Description = parts[3]
	}
	return spec, nil
}

func (a *app) lineInputs(ctx context.Context, raw []string) ([]journal.LineInput, error) {
	lines := make([]journal.LineInput, 0, len(raw))
	for _, s := range raw {
		spec, err := parseLineSpec(s)
		if err != nil {
			return nil, err
		}
		acct, err := a.accounts.ByCode(ctx, spec.Code)
		if err != nil {
			return nil, err
		}
		lines = append(lines, journal.LineInput{
			AccountID:   acct.ID,
			Type:        spec.Type,
			Amount:      spec.Amount,
			Description: spec.Description,
		})
	}
	return lines, nil
}

func newEntryCreateCommand(g *globals) *cobra.Command {
	var (
		date        string
		description string
		reference   string
		number      string
		notes       string
		lines       []string
		post        bool
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a draft entry, or a posted one with --post",
		Example: `  ledger entry create --date 2025-03-10 --description "Sale" \
    --line 1110:debit:1000 --line 4100:credit:1000 --post`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			h := journal.EntryHeader{
				Description: description,
				Reference:   reference,
				EntryNumber: number,
				Notes:       notes,
			}
			if date != "" {
				d, err := model.ParseDate(date)
				if err != nil {
					return fmt.Errorf("--date: %w", err)
				}
				h.Date = d
			}

			return withApp(cmd.Context(), g, func(a *app) error {
				in, err := a.lineInputs(cmd.Context(), lines)
				if err != nil {
					return err
				}
				create, action := a.journal.CreateEntry, activity.ActionCreateEntry
				if post {
					create, action = a.journal.CreateAndPost, activity.ActionPostEntry
				}
				entry, err := create(cmd.Context(), a.actor, h, in)
				if err != nil {
					return err
				}
				a.record(action, describeEntry(entry), entry.EntryNumber)
				return writeJSON(cmd.OutOrStdout(), api.NewEntryResp(entry))
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "entry date YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&description, "description", "", "entry description")
	cmd.Flags().StringVar(&reference, "reference", "", "external reference")
	cmd.Flags().StringVar(&number, "number", "", "entry number (default next JE-<year>-NNNNNN)")
	cmd.Flags().StringVar(&notes, "notes", "", "free-form notes")
	cmd.Flags().StringArrayVar(&lines, "line", nil, "CODE:debit|credit:AMOUNT[:DESCRIPTION], repeatable")
	cmd.Flags().BoolVar(&post, "post", false, "post the entry immediately")
	return cmd
}

func describeEntry(e model.JournalEntry) string {
	debits, _ := e.Totals()
	return fmt.Sprintf("%s %s %s", e.Status, debits.StringFixed(2), e.Description)
}

func entryIDArg(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("entry id %q is not a positive integer", arg)
	}
	return id, nil
}

func newEntryPostCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "post <id>",
		Short: "Post a draft entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := entryIDArg(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), g, func(a *app) error {
				entry, err := a.journal.PostEntry(cmd.Context(), a.actor, id)
				if err != nil {
					return err
				}
				a.record(activity.ActionPostEntry, describeEntry(entry), entry.EntryNumber)
				return writeJSON(cmd.OutOrStdout(), api.NewEntryResp(entry))
			})
		},
	}
}

func newEntryReverseCommand(g *globals) *cobra.Command {
	var description string
	cmd := &cobra.Command{
		Use:   "reverse <id>",
		Short: "Reverse a posted entry with a mirror entry dated today",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := entryIDArg(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), g, func(a *app) error {
				entry, err := a.journal.ReverseEntry(cmd.Context(), a.actor, id, description)
				if err != nil {
					return err
				}
				a.record(activity.ActionReverseEntry, describeEntry(entry), entry.EntryNumber)
				return writeJSON(cmd.OutOrStdout(), api.NewEntryResp(entry))
			})
		},
	}
	cmd.Flags().StringVar(&description, "description", "", "reversal description (default \"Reversal of <number>\")")
	return cmd
}

func newEntryShowCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print an entry with its lines",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := entryIDArg(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), g, func(a *app) error {
				entry, err := a.journal.Entry(cmd.Context(), id)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), api.NewEntryResp(entry))
			})
		},
	}
}

func newEntryListCommand(g *globals) *cobra.Command {
	var status, from, to string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List entry headers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := store.EntryFilter{Status: model.EntryStatus(status)}
			var err error
			if f.From, f.To, err = parseRange(from, to); err != nil {
				return err
			}
			return withApp(cmd.Context(), g, func(a *app) error {
				list, err := a.journal.Entries(cmd.Context(), f)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				for _, e := range list {
					fmt.Fprintf(out, "%d\t%s\t%s\t%s\t%s\n",
						e.ID, e.EntryNumber, e.EntryDate.Format(model.DateFormat), e.Status, e.Description)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "draft, posted or reversed")
	cmd.Flags().StringVar(&from, "from", "", "first entry date YYYY-MM-DD")
	cmd.Flags().StringVar(&to, "to", "", "last entry date YYYY-MM-DD")
	return cmd
}
