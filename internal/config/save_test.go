package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func readMap(t *testing.T, path string) map[string]any {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, yaml.Unmarshal(data, &out))
	return out
}

func TestSetValue_UpdatesExistingKeyAndKeepsComments(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, WriteDefaultConfig(path))

	require.NoError(t, SetValue(path, "api.base_url", "http://crm.internal:8080"))

	m := readMap(t, path)
	api := m["api"].(map[string]any)
	require.Equal(t, "http://crm.internal:8080", api["base_url"])
	require.Equal(t, "10s", api["timeout"])

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "# quiet period after the last keystroke")
}

func TestSetValue_CreatesMissingSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	require.NoError(t, SetValue(path, "lookup.cache.backend", "redis"))

	m := readMap(t, path)
	cache := m["lookup"].(map[string]any)["cache"].(map[string]any)
	require.Equal(t, "redis", cache["backend"])
}

func TestSetValue_RejectsBadKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, WriteDefaultConfig(path))

	require.Error(t, SetValue(path, "", "x"))
	require.Error(t, SetValue(path, "api..base_url", "x"))
	require.Error(t, SetValue(path, "api.base_url.scheme", "x"))
}

func TestSetValue_NoTempFilesLeftBehind(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, SetValue(path, "ui.show_header", "false"))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}
