package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/ledger/internal/accounts"
	"github.com/cleared-dev/ledger/internal/activity"
	"github.com/cleared-dev/ledger/internal/model"
)

func newAccountsCommand(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Chart of accounts",
	}
	cmd.AddCommand(newAccountsListCommand(g), newAccountsExportCommand(g), newAccountsImportCommand(g))
	return cmd
}

func newAccountsListCommand(g *globals) *cobra.Command {
	var (
		accountType string
		tree        bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List accounts with their balances",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), g, func(a *app) error {
				if tree {
					nodes, err := a.accounts.Tree(cmd.Context())
					if err != nil {
						return err
					}
					printTree(cmd.OutOrStdout(), nodes, 0)
					return nil
				}

				var (
					list []model.Account
					err  error
				)
				if accountType != "" {
					at := model.AccountType(accountType)
					if !at.Valid() {
						return fmt.Errorf("unknown account type %q", accountType)
					}
					list, err = a.accounts.ByType(cmd.Context(), at)
				} else {
					list, err = a.accounts.All(cmd.Context())
				}
				if err != nil {
					return err
				}

				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "CODE\tNAME\tTYPE\tBALANCE\tACTIVE")
				for _, acct := range list {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%t\n",
						acct.Code, acct.Name, acct.Type, acct.ReportedBalance().StringFixed(2), acct.IsActive)
				}
				return tw.Flush()
			})
		},
	}
	cmd.Flags().StringVar(&accountType, "type", "", "only accounts of this type (asset, liability, equity, revenue, expense)")
	cmd.Flags().BoolVar(&tree, "tree", false, "show the account hierarchy")
	return cmd
}

func printTree(w io.Writer, nodes []accounts.Node, depth int) {
	for _, n := range nodes {
		fmt.Fprintf(w, "%s%s %s\n", strings.Repeat("  ", depth), n.Account.Code, n.Account.Name)
		printTree(w, n.Children, depth+1)
	}
}

func newAccountsExportCommand(g *globals) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the chart of accounts as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), g, func(a *app) error {
				if out == "" || out == "-" {
					return a.accounts.Export(cmd.Context(), cmd.OutOrStdout())
				}
				f, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("creating %s: %w", out, err)
				}
				if err := a.accounts.Export(cmd.Context(), f); err != nil {
					f.Close()
					return err
				}
				return f.Close()
			})
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	return cmd
}

func newAccountsImportCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "import <csv>",
		Short: "Add accounts from a chart-of-accounts CSV; existing codes are kept",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), g, func(a *app) error {
				n, err := a.accounts.Import(cmd.Context(), args[0], a.cfg.Ledger.Currency)
				if err != nil {
					return err
				}
				a.record(activity.ActionImportAccount, fmt.Sprintf("%s: %d new", filepath.Base(args[0]), n), "")
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d accounts\n", n)
				return nil
			})
		},
	}
}
