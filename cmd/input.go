package main

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/credit-optimizer/internal/export"
	"github.com/sells-group/credit-optimizer/internal/importer"
	"github.com/sells-group/credit-optimizer/internal/model"
)

// addInputFlags registers the flags read by readRequest.
func addInputFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("input", "i", "", "JSON request file (- for stdin)")
	cmd.Flags().String("accounts", "", "CSV or XLSX account list; replaces the input's accounts")
	cmd.Flags().String("sheet", "", "XLSX sheet name (default: first sheet)")
}

// readRequest assembles a request from --input and --accounts.
func readRequest(cmd *cobra.Command) (model.Request, error) {
	var req model.Request

	input, _ := cmd.Flags().GetString("input")
	if input != "" {
		data, err := readInput(cmd.InOrStdin(), input)
		if err != nil {
			return req, err
		}
		if err := json.Unmarshal(data, &req); err != nil {
			return req, eris.Wrapf(err, "parse request %s", input)
		}
	}

	accountsPath, _ := cmd.Flags().GetString("accounts")
	if accountsPath != "" {
		sheet, _ := cmd.Flags().GetString("sheet")
		accounts, err := loadAccounts(accountsPath, sheet)
		if err != nil {
			return req, err
		}
		req.Profile.Accounts = accounts
	}

	if input == "" && accountsPath == "" {
		return req, eris.New("one of --input or --accounts is required")
	}
	return req, nil
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		return data, eris.Wrap(err, "read stdin")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "read %s", path)
	}
	return data, nil
}

// loadAccounts picks the importer by file extension.
func loadAccounts(path, sheet string) ([]model.Account, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return importer.ReadCSV(path)
	case ".xlsx":
		return importer.ReadXLSX(path, sheet)
	default:
		return nil, eris.Errorf("unsupported accounts file %s (want .csv or .xlsx)", path)
	}
}

// addOutputFlags registers --format and --out.
func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("format", "f", "json", "output format: json, text, csv or xlsx")
	cmd.Flags().StringP("out", "o", "", "write output to this file instead of stdout")
}

// writeReport renders r in format to out, or to outPath when set.
func writeReport(out io.Writer, r model.Report, format, outPath string) error {
	if format == "xlsx" {
		if outPath == "" {
			return eris.New("xlsx output requires --out")
		}
		return export.WriteXLSX(outPath, r)
	}

	var render func(io.Writer, model.Report) error
	switch format {
	case "json", "":
		render = func(w io.Writer, r model.Report) error { return writeJSON(w, r) }
	case "text":
		render = export.WriteText
	case "csv":
		render = export.WriteCSV
	default:
		return eris.Errorf("unknown format %q", format)
	}

	if outPath == "" {
		return render(out, r)
	}
	f, err := os.Create(outPath)
	if err != nil {
		return eris.Wrapf(err, "create %s", outPath)
	}
	if err := render(f, r); err != nil {
		f.Close() //nolint:errcheck
		return err
	}
	return eris.Wrapf(f.Close(), "close %s", outPath)
}

// writeJSON writes v as indented JSON.
func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return eris.Wrap(err, "encode json")
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}
