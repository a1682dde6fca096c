package commands

import (
	"fmt"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/ledger/internal/activity"
)

func newActivityCommand(g *globals) *cobra.Command {
	var last int
	cmd := &cobra.Command{
		Use:   "activity",
		Short: "Show the log of ledger changes made from this project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := activity.New(filepath.Dir(g.configPath)).Read()
			if err != nil {
				return err
			}
			if last > 0 && len(records) > last {
				records = records[len(records)-last:]
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TIME\tACTOR\tACTION\tENTRY\tDETAILS")
			for _, r := range records {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
					r.Timestamp.Local().Format("2006-01-02 15:04:05"), r.Actor, r.Action, r.EntryNumber, r.Details)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVarP(&last, "last", "n", 0, "only the most recent N records")
	return cmd
}
