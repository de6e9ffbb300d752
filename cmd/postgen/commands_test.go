package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func run(t *testing.T, args ...string) error {
	t.Helper()
	cfg := writeFile(t, "config.yaml", "identity:\n  default: cli-user\n")
	rootCmd.SetArgs(append([]string{"--config", cfg}, args...))
	rootCmd.SetOut(&bytes.Buffer{})
	rootCmd.SetErr(&bytes.Buffer{})
	return rootCmd.Execute()
}

func TestSettingsPutRejectsUnknownCategory(t *testing.T) {
	err := run(t, "settings", "put", "colors", writeFile(t, "c.json", "{}"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown category "colors"`)
	assert.Contains(t, err.Error(), "prompt_rules")
}

func TestSettingsPutRejectsInvalidPayload(t *testing.T) {
	err := run(t, "settings", "put", "tone", writeFile(t, "tone.json", "{not json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid tone settings")
}

func TestSettingsPutRequiresTwoArgs(t *testing.T) {
	assert.Error(t, run(t, "settings", "put", "tone"))
}

func TestReadInputFromStdin(t *testing.T) {
	rootCmd.SetIn(strings.NewReader(`{"politeness":80}`))
	raw, err := readInput(rootCmd, "-")
	require.NoError(t, err)
	assert.JSONEq(t, `{"politeness":80}`, string(raw))

	_, err = readInput(rootCmd, filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestWriteJSONKeepsJapanese(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeJSON(&buf, map[string]string{"content": "<紅葉>"}))
	assert.Contains(t, buf.String(), `"content": "<紅葉>"`)
}
