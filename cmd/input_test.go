package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/credit-optimizer/internal/engine"
	"github.com/sells-group/credit-optimizer/internal/model"
)

func newInputCmd(t *testing.T, flags map[string]string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "test"}
	addInputFlags(cmd)
	cmd.Flags().String("calculator", "", "")
	for k, v := range flags {
		require.NoError(t, cmd.Flags().Set(k, v))
	}
	return cmd
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

const requestJSON = `{
  "calculator": "azeo",
  "profile": {
    "base_score": 690,
    "accounts": [
      {"id": "big", "label": "Sapphire", "limit": 10000, "balance": 500},
      {"id": "mid", "label": "Freedom", "limit": 5000, "balance": 0},
      {"id": "small", "label": "Store card", "limit": 2000, "balance": 1200}
    ]
  }
}`

func TestReadRequest_JSONFile(t *testing.T) {
	cmd := newInputCmd(t, map[string]string{"input": writeFile(t, "req.json", requestJSON)})

	req, err := readRequest(cmd)
	require.NoError(t, err)
	assert.Equal(t, "azeo", req.Calculator)
	require.Len(t, req.Profile.Accounts, 3)
	assert.Equal(t, "Sapphire", req.Profile.Accounts[0].Label)
	require.NotNil(t, req.Profile.BaseScore)
	assert.InDelta(t, 690, *req.Profile.BaseScore, 1e-9)
}

func TestReadRequest_Stdin(t *testing.T) {
	cmd := newInputCmd(t, map[string]string{"input": "-"})
	cmd.SetIn(strings.NewReader(requestJSON))

	req, err := readRequest(cmd)
	require.NoError(t, err)
	assert.Len(t, req.Profile.Accounts, 3)
}

func TestReadRequest_AccountsReplaceInput(t *testing.T) {
	csvPath := writeFile(t, "accounts.csv", "id,limit,balance\nx,1000,250\n")
	cmd := newInputCmd(t, map[string]string{
		"input":    writeFile(t, "req.json", requestJSON),
		"accounts": csvPath,
	})

	req, err := readRequest(cmd)
	require.NoError(t, err)
	assert.Equal(t, "azeo", req.Calculator)
	assert.Equal(t, []model.Account{{ID: "x", Limit: 1000, Balance: 250}}, req.Profile.Accounts)
}

func TestReadRequest_Errors(t *testing.T) {
	tests := []struct {
		name  string
		flags map[string]string
	}{
		{"no input", nil},
		{"missing file", map[string]string{"input": filepath.Join(t.TempDir(), "nope.json")}},
		{"bad json", map[string]string{"input": writeFile(t, "bad.json", "{")}},
		{"bad extension", map[string]string{"accounts": writeFile(t, "accounts.txt", "id,limit,balance\n")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := readRequest(newInputCmd(t, tt.flags))
			assert.Error(t, err)
		})
	}
}

func TestCalculatorRequest_Override(t *testing.T) {
	cmd := newInputCmd(t, map[string]string{
		"input":      writeFile(t, "req.json", requestJSON),
		"calculator": "analyzer",
	})
	req, err := calculatorRequest(cmd)
	require.NoError(t, err)
	assert.Equal(t, "analyzer", req.Calculator)
}

func sampleReport(t *testing.T) model.Report {
	t.Helper()
	r, err := engine.Default().Run(model.Request{
		Calculator: engine.CalcAzeo,
		Profile: model.Profile{
			BaseScore: model.Float(690),
			Accounts: []model.Account{
				{ID: "big", Label: "Sapphire", Limit: 10000, Balance: 500},
				{ID: "mid", Label: "Freedom", Limit: 5000, Balance: 0},
				{ID: "small", Label: "Store card", Limit: 2000, Balance: 1200},
			},
		},
	})
	require.NoError(t, err)
	return r
}

func TestWriteReport_Formats(t *testing.T) {
	r := sampleReport(t)

	tests := []struct {
		format string
		want   string
	}{
		{"json", `"calculator": "azeo"`},
		{"", `"reporting_account_id": "mid"`},
		{"text", "Calculator:"},
		{"csv", "section,item,field,value"},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, writeReport(&buf, r, tt.format, ""))
			assert.Contains(t, buf.String(), tt.want)
		})
	}
}

func TestWriteReport_ToFile(t *testing.T) {
	r := sampleReport(t)
	dir := t.TempDir()

	csvPath := filepath.Join(dir, "report.csv")
	var buf bytes.Buffer
	require.NoError(t, writeReport(&buf, r, "csv", csvPath))
	assert.Zero(t, buf.Len())
	data, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "section,item,field,value"))

	xlsxPath := filepath.Join(dir, "report.xlsx")
	require.NoError(t, writeReport(&buf, r, "xlsx", xlsxPath))
	info, err := os.Stat(xlsxPath)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestWriteReport_Errors(t *testing.T) {
	r := sampleReport(t)
	var buf bytes.Buffer
	assert.Error(t, writeReport(&buf, r, "xlsx", ""))
	assert.Error(t, writeReport(&buf, r, "yaml", ""))
}
