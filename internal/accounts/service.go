package accounts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/cleared-dev/ledger/internal/errs"
	"github.com/cleared-dev/ledger/internal/model"
	"github.com/cleared-dev/ledger/internal/store"
)

// Service answers chart-of-accounts queries against a store.
type Service struct {
	st store.Store
}

// NewService creates a Service over st.
func NewService(st store.Store) *Service {
	return &Service{st: st}
}

// Get returns an account by id. Unknown ids fail with errs.ErrAccountNotFound.
func (s *Service) Get(ctx context.Context, id int64) (model.Account, error) {
	a, err := s.st.AccountByID(ctx, id)
	if errors.Is(err, errs.ErrNotFound) {
		return model.Account{}, fmt.Errorf("account %d: %w", id, errs.ErrAccountNotFound)
	}
	return a, err
}

// ByCode returns an account by its chart code.
func (s *Service) ByCode(ctx context.Context, code string) (model.Account, error) {
	a, err := s.st.AccountByCode(ctx, code)
	if errors.Is(err, errs.ErrNotFound) {
		return model.Account{}, fmt.Errorf("account code %q: %w", code, errs.ErrAccountNotFound)
	}
	return a, err
}

// Exists reports whether an account code exists.
func (s *Service) Exists(ctx context.Context, code string) bool {
	_, err := s.st.AccountByCode(ctx, code)
	return err == nil
}

// All returns all accounts, active or not.
func (s *Service) All(ctx context.Context) ([]model.Account, error) {
	return s.st.ListAccounts(ctx, store.AccountFilter{})
}

// ByType returns all accounts of the given type.
func (s *Service) ByType(ctx context.Context, accountType model.AccountType) ([]model.Account, error) {
	return s.st.ListAccounts(ctx, store.AccountFilter{Type: accountType})
}

// Active returns the accounts that can still receive entries.
func (s *Service) Active(ctx context.Context) ([]model.Account, error) {
	return s.st.ListAccounts(ctx, store.AccountFilter{ActiveOnly: true})
}

// Roots returns the top-level accounts.
func (s *Service) Roots(ctx context.Context) ([]model.Account, error) {
	return s.st.ListAccounts(ctx, store.AccountFilter{RootOnly: true})
}

// Children returns the direct children of an account.
func (s *Service) Children(ctx context.Context, parentID int64) ([]model.Account, error) {
	return s.st.ListAccounts(ctx, store.AccountFilter{ParentID: parentID})
}

// Deactivate retires an account. Accounts are never deleted.
func (s *Service) Deactivate(ctx context.Context, id int64) error {
	return s.st.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		return tx.SetAccountActive(ctx, id, false)
	})
}

// Node is an account with its sub-accounts.
type Node struct {
	Account  model.Account
	Children []Node
}

// Tree returns the chart as a forest rooted at the top-level accounts.
func (s *Service) Tree(ctx context.Context) ([]Node, error) {
	all, err := s.All(ctx)
	if err != nil {
		return nil, err
	}

	children := make(map[int64][]model.Account)
	for _, a := range all {
		children[a.ParentID] = append(children[a.ParentID], a)
	}

	var build func(parentID int64) []Node
	build = func(parentID int64) []Node {
		var nodes []Node
		for _, a := range children[parentID] {
			nodes = append(nodes, Node{Account: a, Children: build(a.ID)})
		}
		return nodes
	}
	return build(0), nil
}

// Seed inserts defs in order, skipping codes that already exist. Parents
// must appear before their children. It returns the number of accounts created.
func (s *Service) Seed(ctx context.Context, defs []Definition, currency string) (int, error) {
	created := 0
	err := s.st.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		created = 0
		for i, def := range defs {
			if !def.Type.Valid() {
				return fmt.Errorf("account %s: unknown account type %q", def.Code, def.Type)
			}
			if _, err := tx.AccountByCode(ctx, def.Code); err == nil {
				continue
			} else if !errors.Is(err, errs.ErrNotFound) {
				return err
			}

			a := model.Account{
				Code:        def.Code,
				Name:        def.Name,
				Description: def.Description,
				Type:        def.Type,
				IsActive:    true,
				IsSystem:    def.IsSystem,
				Currency:    currency,
				SortOrder:   i,
			}
			if def.ParentCode != "" {
				parent, err := tx.AccountByCode(ctx, def.ParentCode)
				if err != nil {
					return fmt.Errorf("account %s: parent %s: %w", def.Code, def.ParentCode, errs.ErrAccountNotFound)
				}
				a.ParentID = parent.ID
				a.Level = parent.Level + 1
			}
			if err := tx.CreateAccount(ctx, &a); err != nil {
				return err
			}
			created++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("seeding chart of accounts: %w", err)
	}
	return created, nil
}

// Import reads a chart-of-accounts CSV file and seeds it.
func (s *Service) Import(ctx context.Context, path, currency string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("opening chart of accounts: %w", err)
	}
	defer f.Close()

	defs, err := ReadAccounts(f)
	if err != nil {
		return 0, fmt.Errorf("reading chart of accounts: %w", err)
	}
	return s.Seed(ctx, defs, currency)
}

// Export writes the stored chart as CSV.
func (s *Service) Export(ctx context.Context, w io.Writer) error {
	all, err := s.All(ctx)
	if err != nil {
		return err
	}
	if err := WriteAccounts(w, Definitions(all)); err != nil {
		return fmt.Errorf("writing chart of accounts: %w", err)
	}
	return nil
}
