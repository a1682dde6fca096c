package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/ledger/internal/activity"
	"github.com/cleared-dev/ledger/internal/gitops"
)

func newExportCommand(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export ledger data",
	}
	cmd.AddCommand(newExportJournalCommand(g))
	return cmd
}

func newExportJournalCommand(g *globals) *cobra.Command {
	var (
		from, to string
		out      string
		commit   bool
	)
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Write posted and reversed journal lines as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			start, end, err := parseRange(from, to)
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), g, func(a *app) error {
				if out == "-" {
					return a.journal.ExportLines(cmd.Context(), cmd.OutOrStdout(), start, end)
				}

				path := out
				if path == "" {
					path = filepath.Join(a.root, "exports", "journal.csv")
				}
				if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
					return fmt.Errorf("creating export dir: %w", err)
				}
				f, err := os.Create(path)
				if err != nil {
					return fmt.Errorf("creating %s: %w", path, err)
				}
				if err := a.journal.ExportLines(cmd.Context(), f, start, end); err != nil {
					f.Close()
					return err
				}
				if err := f.Close(); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)

				if !commit {
					a.record(activity.ActionExport, path, "")
					return nil
				}
				if !gitops.IsRepo(a.root) {
					return fmt.Errorf("%s is not a git repository", a.root)
				}
				rel, err := filepath.Rel(a.root, path)
				if err != nil {
					return fmt.Errorf("export must live inside the project: %w", err)
				}
				author := gitops.Author{Name: a.cfg.Git.AuthorName, Email: a.cfg.Git.AuthorEmail}
				hash, err := gitops.Commit(a.root, "export: journal lines", author, rel)
				if err != nil {
					return err
				}
				if hash != "" {
					fmt.Fprintf(cmd.OutOrStdout(), "Committed %s\n", hash)
				}
				a.recordActivity(activity.Record{
					Action:     activity.ActionExport,
					Details:    rel,
					CommitHash: hash,
				})
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "first entry date YYYY-MM-DD")
	cmd.Flags().StringVar(&to, "to", "", "last entry date YYYY-MM-DD")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file, - for stdout (default exports/journal.csv)")
	cmd.Flags().BoolVar(&commit, "commit", false, "commit the export to the project repository")
	return cmd
}
