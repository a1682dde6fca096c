package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/ledger/internal/buildinfo"
)

// globals holds the persistent flags every subcommand reads.
type globals struct {
	configPath string
	actor      string
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	g := &globals{}

	rootCmd := &cobra.Command{
		Use:     "ledger",
		Short:   "Double-entry bookkeeping ledger",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&g.configPath, "config", "c", "ledger.yaml", "path to ledger.yaml")
	rootCmd.PersistentFlags().StringVar(&g.actor, "actor", "", "user recorded on entries (default from config)")

	rootCmd.AddCommand(
		newInitCommand(),
		newAccountsCommand(g),
		newEntryCommand(g),
		newPeriodCommand(g),
		newReportCommand(g),
		newImportCommand(g),
		newExportCommand(g),
		newActivityCommand(g),
		newServeCommand(g),
	)

	return rootCmd
}
