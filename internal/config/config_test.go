package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeJSON(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadLayering(t *testing.T) {
	dir := t.TempDir()
	path := writeJSON(t, dir, "config.json", `{"port":"9000","logLevel":"debug"}`)

	t.Setenv("PRIKAZ_PORT", "9100")
	t.Setenv("PRIKAZ_AUTO_MIGRATE", "yes")

	cfg := load(path, []string{"-port", "9200"})
	assert.Equal(t, "9200", cfg.Port, "flag wins over env and json")
	assert.Equal(t, "debug", cfg.LogLevel, "json survives when env/flag silent")
	assert.True(t, cfg.AutoMigrate)
	assert.Equal(t, "reference/catalogs", cfg.CatalogsDir, "default kept")
}

func TestLoadConfigRedirect(t *testing.T) {
	dir := t.TempDir()
	writeJSON(t, dir, "base.json", `{"port":"1111"}`)
	other := writeJSON(t, dir, "other.json", `{"port":"2222"}`)

	// -config перечитывает другой файл; повторный проход не должен падать
	// на повторной регистрации флагов
	cfg := load(filepath.Join(dir, "base.json"), []string{"-config", other})
	assert.Equal(t, "2222", cfg.Port)
}

func TestLoadIgnoresUnknownFlags(t *testing.T) {
	cfg := load(filepath.Join(t.TempDir(), "nope.json"), []string{"-test.v=true"})
	assert.Equal(t, "8080", cfg.Port)
}
