// Package importer reads account lists from CSV and XLSX files. The first
// row must be a header naming at least the id, limit and balance columns.
package importer

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"

	"github.com/sells-group/credit-optimizer/internal/model"
)

// Column names recognised in the header row, case-insensitively.
const (
	ColID      = "id"
	ColLabel   = "label"
	ColLimit   = "limit"
	ColBalance = "balance"
)

var headerAliases = map[string]string{
	"account":         ColID,
	"account_id":      ColID,
	"name":            ColLabel,
	"credit_limit":    ColLimit,
	"current_balance": ColBalance,
}

type columns map[string]int

func parseHeader(header []string) (columns, error) {
	cols := make(columns, len(header))
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(h))
		name = strings.ReplaceAll(name, " ", "_")
		if alias, ok := headerAliases[name]; ok {
			name = alias
		}
		if _, dup := cols[name]; !dup {
			cols[name] = i
		}
	}
	for _, required := range []string{ColID, ColLimit, ColBalance} {
		if _, ok := cols[required]; !ok {
			return nil, eris.Errorf("importer: header is missing column %q", required)
		}
	}
	return cols, nil
}

func (c columns) get(row []string, name string) string {
	i, ok := c[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// parseAmount accepts plain numbers and currency-formatted values such as
// "$1,250.00". Blank means zero.
func parseAmount(s string) (float64, error) {
	s = strings.NewReplacer("$", "", ",", "", " ", "").Replace(s)
	if s == "" {
		return 0, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, err
	}
	return d.Round(2).InexactFloat64(), nil
}

// toAccounts converts header plus data rows. Blank rows are skipped; the
// result is validated with model.ValidateAccounts.
func toAccounts(rows [][]string) ([]model.Account, error) {
	if len(rows) == 0 {
		return nil, eris.New("importer: file is empty")
	}
	cols, err := parseHeader(rows[0])
	if err != nil {
		return nil, err
	}

	seen := make(map[string]int)
	var accounts []model.Account
	for i, row := range rows[1:] {
		line := i + 2
		if blank(row) {
			continue
		}
		a := model.Account{
			ID:    cols.get(row, ColID),
			Label: cols.get(row, ColLabel),
		}
		if a.ID == "" {
			return nil, eris.Errorf("importer: row %d: id is required", line)
		}
		if prev, dup := seen[a.ID]; dup {
			return nil, eris.Errorf("importer: row %d: duplicate id %q (first seen on row %d)", line, a.ID, prev)
		}
		seen[a.ID] = line

		if a.Limit, err = parseAmount(cols.get(row, ColLimit)); err != nil {
			return nil, eris.Wrapf(err, "importer: row %d: invalid limit", line)
		}
		if a.Balance, err = parseAmount(cols.get(row, ColBalance)); err != nil {
			return nil, eris.Wrapf(err, "importer: row %d: invalid balance", line)
		}
		accounts = append(accounts, a)
	}

	if err := model.ValidateAccounts(accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
