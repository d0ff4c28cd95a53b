package main

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	expected := []string{"metrics", "score", "azeo", "recommend", "report", "batch", "scenario", "migrate", "serve"}
	for _, name := range expected {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "credit-optimizer", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
	assert.True(t, rootCmd.SilenceUsage)
}

func TestScenarioCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range scenarioCmd.Commands() {
		names[c.Name()] = true
	}
	for _, name := range []string{"save", "list", "show", "delete"} {
		assert.True(t, names[name], "scenario should have subcommand %q", name)
	}
}

func TestCommandFlags(t *testing.T) {
	tests := []struct {
		cmd   *cobra.Command
		flag  string
		value string
	}{
		{reportCmd, "format", "json"},
		{reportCmd, "calculator", ""},
		{reportCmd, "summary", "false"},
		{scoreCmd, "model", "analyzer"},
		{azeoCmd, "reporting", ""},
		{batchCmd, "concurrency", "0"},
		{scenarioListCmd, "limit", "50"},
		{serveCmd, "port", "0"},
		{metricsCmd, "accounts", ""},
	}
	for _, tt := range tests {
		t.Run(tt.cmd.Name()+"/"+tt.flag, func(t *testing.T) {
			f := tt.cmd.Flags().Lookup(tt.flag)
			require.NotNil(t, f, "%s should have --%s", tt.cmd.Name(), tt.flag)
			assert.Equal(t, tt.value, f.DefValue)
		})
	}
}

func TestCommandMode(t *testing.T) {
	assert.Equal(t, "serve", commandMode(serveCmd))
	assert.Equal(t, "store", commandMode(migrateCmd))
	assert.Equal(t, "store", commandMode(scenarioListCmd))
	assert.Equal(t, "cli", commandMode(reportCmd))
	assert.Equal(t, "cli", commandMode(rootCmd))
}
