package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const portfolio = `{
	"billing": [
		{"shopping":"Park","tenant":"A","period":"2024-01","billed_amount":100,"paid_amount":60},
		{"shopping":"Park","tenant":"B","period":"2024-01","billed_amount":100,"paid_amount":100}
	],
	"movements": [
		{"shopping":"Park","period":"2024-01","type":"credit","amount":160},
		{"shopping":"Park","period":"2024-01","type":"debit","amount":40}
	]
}`

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("ANALYTICS_LOG_LEVEL", "error")

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

func TestRunCommand(t *testing.T) {
	t.Run("Prints the result as JSON", func(t *testing.T) {
		out, err := execute(t, portfolio, "run", "calculate-kpis")
		require.NoError(t, err)

		var result map[string]any
		require.NoError(t, json.Unmarshal([]byte(out), &result))
		assert.Equal(t, 80.0, result["collection_rate"])
		assert.Equal(t, 200.0, result["total_billed"])
	})

	t.Run("Prints the result as YAML", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "budget.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"lines":[{"category":"Energia","planned":100,"actual":120}]}`), 0o600))

		out, err := execute(t, "", "run", "PROCESS_BUDGET", "-f", path, "-o", "yaml")
		require.NoError(t, err)

		var result map[string]any
		require.NoError(t, yaml.Unmarshal([]byte(out), &result))
		assert.Equal(t, "OVER_BUDGET", result["status"])
	})

	t.Run("Rejects unknown operations", func(t *testing.T) {
		_, err := execute(t, "{}", "run", "mine-bitcoin")
		assert.ErrorContains(t, err, "unknown operation")
	})

	t.Run("Rejects invalid JSON", func(t *testing.T) {
		_, err := execute(t, `{"billing":`, "run", "calculate-kpis")
		assert.ErrorContains(t, err, "not valid JSON")
	})

	t.Run("Rejects unknown output formats", func(t *testing.T) {
		_, err := execute(t, "{}", "run", "calculate-kpis", "-o", "xml")
		assert.ErrorContains(t, err, "unsupported output format")
	})

	t.Run("Surfaces payload errors", func(t *testing.T) {
		_, err := execute(t, `{"billing":"nope"}`, "run", "calculate-kpis")
		assert.ErrorContains(t, err, "INVALID_PAYLOAD")
	})
}

func TestReportCommand(t *testing.T) {
	t.Run("Renders a pt-BR summary", func(t *testing.T) {
		out, err := execute(t, portfolio, "report")
		require.NoError(t, err)

		assert.Contains(t, out, "Faturado")
		assert.Contains(t, out, "R$ 200,00")
		assert.Contains(t, out, "Adimplência")
		assert.Contains(t, out, "80,0%")
		assert.Contains(t, out, "Fluxo líquido")
	})

	t.Run("Renders an en-US summary", func(t *testing.T) {
		out, err := execute(t, portfolio, "report", "--locale", "en-US")
		require.NoError(t, err)
		assert.Contains(t, out, "$ 200.00")
	})

	t.Run("Lists insights with their first action", func(t *testing.T) {
		records := `{
			"delinquency": [
				{"tenant":"Loja A","default_amount":90000,"status":"debt_confession"},
				{"tenant":"Loja B","default_amount":10000,"status":"agreement"}
			]
		}`
		out, err := execute(t, records, "report")
		require.NoError(t, err)

		assert.Contains(t, out, "Insights")
		assert.Contains(t, out, "[CRITICAL] Dominant debtor: Loja A (90,0%)")
		assert.Contains(t, out, "Negotiate with Loja A first")
	})

	t.Run("Omits the insights block when nothing stands out", func(t *testing.T) {
		out, err := execute(t, portfolio, "report")
		require.NoError(t, err)
		assert.NotContains(t, out, "Insights")
	})

	t.Run("Rejects malformed records", func(t *testing.T) {
		_, err := execute(t, `[`, "report")
		assert.ErrorContains(t, err, "invalid records")
	})
}

func TestOperationsCommand(t *testing.T) {
	out, err := execute(t, "", "operations")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, 18)
	assert.Contains(t, lines, "simulate-monte-carlo")
}

func TestWorkerCommand(t *testing.T) {
	t.Setenv("ANALYTICS_REDIS_ADDR", "127.0.0.1:1")
	_, err := execute(t, "", "worker")
	assert.ErrorContains(t, err, "failed to connect to redis")
}
