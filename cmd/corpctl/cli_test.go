package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/corp-resolver/internal/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeFixture tạo snapshot + config tạm, trả về đường dẫn config
func writeFixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("DART_API_KEY", "")
	t.Setenv("LLM_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")

	snapshot := filepath.Join(dir, "corpCode_cache.csv")
	require.NoError(t, registry.WriteSnapshot(snapshot, []registry.Entry{
		{Code: "00126380", Name: "삼성전자", StockCode: "005930", ModifyDate: "20240101"},
		{Code: "00106641", Name: "기아", StockCode: "000270", ModifyDate: "20240101"},
		{Code: "00164742", Name: "현대자동차", StockCode: "005380", ModifyDate: "20240101"},
	}))

	cfgPath := filepath.Join(dir, "app.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("registry:\n  snapshot_path: "+snapshot+"\ncache:\n  backend: none\n"), 0o644))
	return cfgPath
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestResolveCommand(t *testing.T) {
	cfgPath := writeFixture(t)

	t.Run("Single", func(t *testing.T) {
		out, err := run(t, "resolve", "--config", cfgPath, "(주)삼성전자")
		require.NoError(t, err)

		var result map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(out), &result))
		assert.Equal(t, "00126380", result["code"])
	})

	t.Run("Many", func(t *testing.T) {
		out, err := run(t, "resolve", "--config", cfgPath, "--compact", "기아", "현대자동차")
		require.NoError(t, err)

		var results []map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(out), &results))
		require.Len(t, results, 2)
		assert.Equal(t, "00106641", results[0]["code"])
		assert.Equal(t, "00164742", results[1]["code"])
	})

	t.Run("NoArgs", func(t *testing.T) {
		_, err := run(t, "resolve", "--config", cfgPath)
		assert.Error(t, err)
	})
}

func TestSearchCommand(t *testing.T) {
	cfgPath := writeFixture(t)

	out, err := run(t, "search", "--config", cfgPath, "-n", "2", "삼성전자")
	require.NoError(t, err)
	assert.Contains(t, out, "SCORE")
	assert.Contains(t, out, "00126380")
	assert.Contains(t, out, "100")
}

func TestRefreshCommand_NoAPIKey(t *testing.T) {
	cfgPath := writeFixture(t)

	_, err := run(t, "refresh", "--config", cfgPath)
	assert.Error(t, err)
}
