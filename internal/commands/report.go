package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/ledger/internal/model"
)

func newReportCommand(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Financial statements as JSON",
	}
	cmd.AddCommand(
		newRangeReportCommand(g, "trial-balance", "Per-account debit and credit totals",
			func(a *app, cmd *cobra.Command, start, end time.Time) (any, error) {
				return a.reports.TrialBalance(cmd.Context(), start, end)
			}),
		newRangeReportCommand(g, "profit-and-loss", "Revenue, expenses and net income",
			func(a *app, cmd *cobra.Command, start, end time.Time) (any, error) {
				return a.reports.ProfitAndLoss(cmd.Context(), start, end)
			}),
		newBalanceSheetCommand(g),
		newLedgerReportCommand(g),
	)
	return cmd
}

// parseRange parses optional YYYY-MM-DD bounds; empty ones stay zero.
func parseRange(start, end string) (time.Time, time.Time, error) {
	var s, e time.Time
	var err error
	if start != "" {
		if s, err = model.ParseDate(start); err != nil {
			return s, e, fmt.Errorf("start date: %w", err)
		}
	}
	if end != "" {
		if e, err = model.ParseDate(end); err != nil {
			return s, e, fmt.Errorf("end date: %w", err)
		}
	}
	return s, e, nil
}

type rangeReport func(a *app, cmd *cobra.Command, start, end time.Time) (any, error)

func newRangeReportCommand(g *globals, use, short string, run rangeReport) *cobra.Command {
	var start, end string
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, e, err := parseRange(start, end)
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), g, func(a *app) error {
				v, err := run(a, cmd, s, e)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), v)
			})
		},
	}
	cmd.Flags().StringVar(&start, "start", "", "first day YYYY-MM-DD (default 1 January)")
	cmd.Flags().StringVar(&end, "end", "", "last day YYYY-MM-DD (default today)")
	return cmd
}

func newBalanceSheetCommand(g *globals) *cobra.Command {
	var asOf string
	cmd := &cobra.Command{
		Use:   "balance-sheet",
		Short: "Assets, liabilities and equity at a date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, d, err := parseRange("", asOf)
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), g, func(a *app) error {
				bs, err := a.reports.BalanceSheet(cmd.Context(), d)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), bs)
			})
		},
	}
	cmd.Flags().StringVar(&asOf, "as-of", "", "report date YYYY-MM-DD (default today)")
	return cmd
}

func newLedgerReportCommand(g *globals) *cobra.Command {
	var start, end string
	cmd := &cobra.Command{
		Use:   "ledger <account-code>",
		Short: "Line-by-line history of one account with a running balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, e, err := parseRange(start, end)
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), g, func(a *app) error {
				acct, err := a.accounts.ByCode(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				ledger, err := a.reports.AccountLedger(cmd.Context(), acct.ID, s, e)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), ledger)
			})
		},
	}
	cmd.Flags().StringVar(&start, "start", "", "first day YYYY-MM-DD (default 1 January)")
	cmd.Flags().StringVar(&end, "end", "", "last day YYYY-MM-DD (default today)")
	return cmd
}
