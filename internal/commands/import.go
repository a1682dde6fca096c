package commands

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cleared-dev/ledger/internal/activity"
	"github.com/cleared-dev/ledger/internal/importer"
	"github.com/cleared-dev/ledger/internal/integration"
)

func newImportCommand(g *globals) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "import [csv...]",
		Short: "Record bank statement rows as income and expense entries",
		Long: `Each deposit is booked as income and each withdrawal as an expense
against the accounts named in the integration section of ledger.yaml.
Without arguments every CSV in <project>/import/ is processed and then
moved to import/processed/.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), g, func(a *app) error {
				registry := importer.DefaultRegistry()

				scanned := len(args) == 0
				paths := args
				if scanned {
					files, err := importer.Scan(a.root)
					if err != nil {
						return err
					}
					for _, f := range files {
						paths = append(paths, f.Path)
					}
				}

				out := cmd.OutOrStdout()
				for _, path := range paths {
					txns, err := registry.ParseFile(format, path)
					if err != nil {
						return err
					}
					recorded, failed, err := recordAll(a, cmd, importer.Events(txns, a.cfg.Ledger.Currency))
					if err != nil {
						return err
					}
					summary := fmt.Sprintf("%s: recorded %d, failed %d", filepath.Base(path), recorded, failed)
					fmt.Fprintln(out, summary)
					a.record(activity.ActionImportEvents, summary, "")

					if scanned && failed == 0 {
						if err := importer.MarkProcessed(a.root, filepath.Base(path)); err != nil {
							return err
						}
					}
				}
				if len(paths) == 0 {
					fmt.Fprintln(out, "Nothing to import")
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&format, "format", "chase", "bank export format")
	return cmd
}

// recordAll feeds events through the integration worker and waits for it
// to drain the queue.
func recordAll(a *app, cmd *cobra.Command, events []importer.Event) (recorded, failed int64, err error) {
	jobs := make(chan integration.Job, len(events))
	for _, ev := range events {
		jobs <- integration.Job{Event: ev.Event, Kind: ev.Kind}
	}
	close(jobs)

	listener := integration.NewListener(a.recorder, a.actor, a.cfg.Integration, a.log)
	w := integration.NewWorker(listener, jobs, a.log.With(zap.String("component", "import")))
	if err := w.Run(cmd.Context()); err != nil {
		return w.Recorded(), w.Failed(), err
	}
	return w.Recorded(), w.Failed(), nil
}
