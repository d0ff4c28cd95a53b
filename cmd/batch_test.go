package main

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/credit-optimizer/internal/engine"
	"github.com/sells-group/credit-optimizer/internal/model"
)

func TestParseBatch(t *testing.T) {
	reqs, err := parseBatch([]byte(`[
		{"calculator": "analyzer", "profile": {"accounts": [{"id": "a", "limit": 1000, "balance": 100}]}},
		{"calculator": "azeo"}
	]`))
	require.NoError(t, err)
	require.Len(t, reqs, 2)
	assert.Equal(t, "analyzer", reqs[0].Calculator)
	assert.Len(t, reqs[0].Profile.Accounts, 1)

	_, err = parseBatch([]byte(`[]`))
	assert.Error(t, err)
	_, err = parseBatch([]byte(`{"calculator": "azeo"}`))
	assert.Error(t, err)
}

func TestBatchSummary(t *testing.T) {
	results := engine.Default().RunBatch(t.Context(), []model.Request{
		{Calculator: engine.CalcAnalyzer, Profile: model.Profile{Accounts: []model.Account{{ID: "a", Limit: 1000, Balance: 100}}}},
		{Calculator: "nope"},
	}, 2)
	assert.Equal(t, 1, countFailed(results))

	var buf bytes.Buffer
	formatBatchSummary(&buf, results)
	out := buf.String()
	assert.Contains(t, out, "request 1: ")
	assert.Contains(t, out, "1 succeeded, 1 failed")
}

func TestFormatBatchSummary_AllOK(t *testing.T) {
	var buf bytes.Buffer
	formatBatchSummary(&buf, []engine.BatchResult{{Index: 0}, {Index: 1}})
	assert.Equal(t, "2 succeeded, 0 failed\n", buf.String())

	assert.Equal(t, 1, countFailed([]engine.BatchResult{{Err: errors.New("x"), Error: "x"}}))
}
