package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/ledger/internal/accounts"
	"github.com/cleared-dev/ledger/internal/activity"
	"github.com/cleared-dev/ledger/internal/config"
	"github.com/cleared-dev/ledger/internal/gitops"
)

const (
	configFile = "ledger.yaml"
	chartFile  = "accounts/chart-of-accounts.csv"
)

func newInitCommand() *cobra.Command {
	var (
		name       string
		entityType string
		noGit      bool
	)

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new ledger project",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			return runInit(cmd, absDir, name, entityType, !noGit)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "business name (required)")
	_ = cmd.MarkFlagRequired("name")
	cmd.Flags().StringVar(&entityType, "entity-type", "llc_single_member", "entity type")
	cmd.Flags().BoolVar(&noGit, "no-git", false, "do not put the project under git")

	return cmd
}

func runInit(cmd *cobra.Command, dir, name, entityType string, useGit bool) error {
	for _, d := range []string{"accounts", "exports", "import", filepath.Join("import", "processed")} {
		if err := os.MkdirAll(filepath.Join(dir, d), 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", d, err)
		}
	}

	cfg := config.Default(name, entityType)
	if err := config.Save(filepath.Join(dir, configFile), cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	f, err := os.Create(filepath.Join(dir, chartFile))
	if err != nil {
		return fmt.Errorf("writing chart of accounts: %w", err)
	}
	if err := accounts.WriteAccounts(f, accounts.DefaultChart(entityType)); err != nil {
		f.Close()
		return fmt.Errorf("writing chart of accounts: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("writing chart of accounts: %w", err)
	}

	gitignore := "*.db\n*.db-journal\n.env\nimport/processed/\n"
	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte(gitignore), 0o644); err != nil {
		return fmt.Errorf("writing .gitignore: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "import", ".gitkeep"), []byte{}, 0o644); err != nil {
		return fmt.Errorf("writing .gitkeep: %w", err)
	}

	ctx := cmd.Context()
	a, err := newApp(ctx, cfg, dir, "")
	if err != nil {
		return err
	}
	defer a.Close()

	n, err := a.accounts.Import(ctx, filepath.Join(dir, chartFile), cfg.Ledger.Currency)
	if err != nil {
		return err
	}
	a.record(activity.ActionInit, fmt.Sprintf("%s (%s), %d accounts", name, entityType, n), "")

	out := cmd.OutOrStdout()
	if useGit {
		if err := gitops.Init(dir); err != nil {
			return err
		}
		author := gitops.Author{Name: cfg.Git.AuthorName, Email: cfg.Git.AuthorEmail}
		hash, err := gitops.Commit(dir, "init: Initialize "+name, author)
		if err != nil {
			return fmt.Errorf("initial commit: %w", err)
		}
		fmt.Fprintf(out, "Initialized ledger at %s with %d accounts (%s)\n", dir, n, hash)
		return nil
	}

	fmt.Fprintf(out, "Initialized ledger at %s with %d accounts\n", dir, n)
	return nil
}
