package commands

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/ledger/internal/activity"
	"github.com/cleared-dev/ledger/internal/model"
)

func newPeriodCommand(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "period",
		Short: "Accounting periods",
	}
	cmd.AddCommand(newPeriodListCommand(g), newPeriodCreateCommand(g), newPeriodCloseCommand(g))
	return cmd
}

func newPeriodListCommand(g *globals) *cobra.Command {
	var open, closed bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List periods, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), g, func(a *app) error {
				var (
					list []model.AccountingPeriod
					err  error
				)
				switch {
				case open:
					list, err = a.periods.Open(cmd.Context())
				case closed:
					list, err = a.periods.Closed(cmd.Context())
				default:
					list, err = a.periods.All(cmd.Context())
				}
				if err != nil {
					return err
				}

				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tNAME\tSTART\tEND\tSTATUS")
				for _, p := range list {
					status := "open"
					if p.IsClosed {
						status = "closed by " + p.ClosedBy
					}
					fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", p.ID, p.Name,
						p.StartDate.Format(model.DateFormat), p.EndDate.Format(model.DateFormat), status)
				}
				return tw.Flush()
			})
		},
	}
	cmd.Flags().BoolVar(&open, "open", false, "only open periods")
	cmd.Flags().BoolVar(&closed, "closed", false, "only closed periods")
	cmd.MarkFlagsMutuallyExclusive("open", "closed")
	return cmd
}

func newPeriodCreateCommand(g *globals) *cobra.Command {
	var name, start, end string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a period",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := model.ParseDate(start)
			if err != nil {
				return fmt.Errorf("--start: %w", err)
			}
			e, err := model.ParseDate(end)
			if err != nil {
				return fmt.Errorf("--end: %w", err)
			}
			return withApp(cmd.Context(), g, func(a *app) error {
				p, err := a.periods.Create(cmd.Context(), name, s, e)
				if err != nil {
					return err
				}
				a.record(activity.ActionCreatePeriod, fmt.Sprintf("%s %s..%s", p.Name,
					p.StartDate.Format(model.DateFormat), p.EndDate.Format(model.DateFormat)), "")
				fmt.Fprintf(cmd.OutOrStdout(), "Created period %d (%s)\n", p.ID, p.Name)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "period name (required)")
	cmd.Flags().StringVar(&start, "start", "", "first day YYYY-MM-DD (required)")
	cmd.Flags().StringVar(&end, "end", "", "last day YYYY-MM-DD (required)")
	for _, f := range []string{"name", "start", "end"} {
		_ = cmd.MarkFlagRequired(f)
	}
	return cmd
}

func newPeriodCloseCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "close <id>",
		Short: "Close a period; no entry can be filed in it afterwards",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("period id %q: %w", args[0], err)
			}
			return withApp(cmd.Context(), g, func(a *app) error {
				p, err := a.periods.Close(cmd.Context(), a.actor, id)
				if err != nil {
					return err
				}
				a.record(activity.ActionClosePeriod, p.Name, "")
				fmt.Fprintf(cmd.OutOrStdout(), "Closed period %s\n", p.Name)
				return nil
			})
		},
	}
}
