package reference

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCatalog(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeCatalog(t, dir, "roles.yaml", `
name: roles
options:
  - code: admin
    label: Admin
  - code: viewer
    label: Viewer
`)
	// имя из файла, когда в теле не задано
	writeCatalog(t, dir, "units.yml", `
options:
  - code: pcs
    label: Pieces
`)
	writeCatalog(t, dir, "notes.txt", "ignored")

	set, err := LoadDir(dir)
	require.NoError(t, err)
	assert.Equal(t, 2, set.Len())

	roles := set.Get("roles")
	require.NotNil(t, roles)
	assert.Equal(t, []string{"admin", "viewer"}, roles.Codes())

	require.NotNil(t, set.Get("units"))
	assert.Nil(t, set.Get("ghosts"))
}

func TestLoadDirMissingIsEmpty(t *testing.T) {
	set, err := LoadDir(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Equal(t, 0, set.Len())
}

func TestLoadDirRejectsBadCatalogs(t *testing.T) {
	for name, body := range map[string]string{
		"empty.yaml": "name: empty\noptions: []\n",
		"dup.yaml":   "name: dup\noptions:\n  - code: a\n    label: A\n  - code: a\n    label: B\n",
	} {
		dir := t.TempDir()
		writeCatalog(t, dir, name, body)
		_, err := LoadDir(dir)
		assert.Error(t, err, name)
	}
}
