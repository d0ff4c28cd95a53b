package importer

import (
	"encoding/csv"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/sells-group/credit-optimizer/internal/model"
)

// ReadCSV reads accounts from a CSV file.
func ReadCSV(path string) ([]model.Account, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "importer: open csv")
	}
	defer f.Close()
	return DecodeCSV(f)
}

// DecodeCSV reads accounts from CSV data. A leading byte-order mark
// (UTF-8 or UTF-16, as spreadsheet exports often emit) is honoured.
func DecodeCSV(r io.Reader) ([]model.Account, error) {
	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	reader := csv.NewReader(decoded)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, eris.Wrap(err, "importer: read csv")
	}
	return toAccounts(rows)
}
