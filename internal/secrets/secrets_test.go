// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package secrets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSecret(t *testing.T, dir, name, value string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(value), 0o600))
}

func TestLoad_ReadsTrimmedFiles(t *testing.T) {
	dir := t.TempDir()
	writeSecret(t, dir, "tavily-api-key", "tvly-abc123\n")
	writeSecret(t, dir, "bocha-api-key", "  sk-bocha  ")

	s, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "tvly-abc123", s["tavily-api-key"])
	assert.Equal(t, "sk-bocha", s["bocha-api-key"])
}

func TestLoad_MissingDirectoryIsEmpty(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "does-not-exist"))
	require.NoError(t, err)
	assert.Empty(t, s)
}

func TestLoad_SkipsHiddenFilesDirsAndEmptyValues(t *testing.T) {
	dir := t.TempDir()
	writeSecret(t, dir, ".gitignore", "*")
	writeSecret(t, dir, "empty-key", "   \n")
	writeSecret(t, dir, "ark-api-key", "ark-xyz")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "subdir"), 0o755))

	s, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"ark-api-key": "ark-xyz"}, s)
}

func TestResolve_Precedence(t *testing.T) {
	t.Setenv("REPORT_ENGINE_TEST_KEY", "from-env")
	loaded := map[string]string{"tavily-api-key": "from-file"}

	assert.Equal(t, "from-flag",
		Resolve(loaded, "from-flag", "tavily-api-key", "REPORT_ENGINE_TEST_KEY"))
	assert.Equal(t, "from-file",
		Resolve(loaded, "", "tavily-api-key", "REPORT_ENGINE_TEST_KEY"))
	assert.Equal(t, "from-env",
		Resolve(loaded, "", "missing-key", "REPORT_ENGINE_TEST_KEY"))
	assert.Equal(t, "",
		Resolve(nil, "", "missing-key", "REPORT_ENGINE_TEST_UNSET"))
}
