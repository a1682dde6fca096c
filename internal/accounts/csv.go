package accounts

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/cleared-dev/ledger/internal/model"
)

const (
	numFields = 6
	colCode   = 0
	colName   = 1
	colType   = 2
	colParent = 3
	colSystem = 4
	colDesc   = 5
)

// ReadAccounts reads a chart-of-accounts CSV.
func ReadAccounts(r io.Reader) ([]Definition, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading accounts CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}

	var defs []Definition
	for i, rec := range records[1:] {
		def, err := UnmarshalAccount(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		defs = append(defs, def)
	}
	return defs, nil
}

// WriteAccounts writes a chart-of-accounts CSV.
func WriteAccounts(w io.Writer, defs []Definition) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write([]string{"code", "name", "type", "parent_code", "is_system", "description"}); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, def := range defs {
		if err := cw.Write(MarshalAccount(def)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalAccount converts a Definition to a CSV row.
func MarshalAccount(def Definition) []string {
	row := make([]string, numFields)
	row[colCode] = def.Code
	row[colName] = def.Name
	row[colType] = string(def.Type)
	row[colParent] = def.ParentCode
	row[colSystem] = strconv.FormatBool(def.IsSystem)
	row[colDesc] = def.Description
	return row
}

// UnmarshalAccount converts a CSV row to a Definition.
func UnmarshalAccount(record []string) (Definition, error) {
	if len(record) != numFields {
		return Definition{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}
	if record[colCode] == "" {
		return Definition{}, fmt.Errorf("empty account code")
	}

	accountType := model.AccountType(record[colType])
	if !accountType.Valid() {
		return Definition{}, fmt.Errorf("unknown account type %q", record[colType])
	}

	var system bool
	if record[colSystem] != "" {
		var err error
		system, err = strconv.ParseBool(record[colSystem])
		if err != nil {
			return Definition{}, fmt.Errorf("parsing is_system %q: %w", record[colSystem], err)
		}
	}

	return Definition{
		Code:        record[colCode],
		Name:        record[colName],
		Type:        accountType,
		ParentCode:  record[colParent],
		IsSystem:    system,
		Description: record[colDesc],
	}, nil
}

// Definitions turns stored accounts back into definitions, resolving parent
// ids to codes.
func Definitions(accts []model.Account) []Definition {
	codes := make(map[int64]string, len(accts))
	for _, a := range accts {
		codes[a.ID] = a.Code
	}

	defs := make([]Definition, len(accts))
	for i, a := range accts {
		defs[i] = Definition{
			Code:        a.Code,
			Name:        a.Name,
			Type:        a.Type,
			ParentCode:  codes[a.ParentID],
			Description: a.Description,
			IsSystem:    a.IsSystem,
		}
	}
	return defs
}
