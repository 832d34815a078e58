package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormLoader_LoadParsesDefinition(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "leave.form.md")
	require.NoError(t, os.WriteFile(path, []byte("---\ntitle: Leave Request\nfields:\n  - id: leave_type\n    type: dropdown\n    required: true\n---\nbody\n"), 0644))

	loader, err := NewFormLoader(path)
	require.NoError(t, err)

	def, err := loader.Load()
	require.NoError(t, err)
	assert.Equal(t, "Leave Request", def.Title)
	require.Len(t, def.Fields, 1)
	assert.Equal(t, "leave_type", def.Fields[0].ID)
}

func TestFormLoader_LoadMissingFile(t *testing.T) {
	loader, err := NewFormLoader(filepath.Join(t.TempDir(), "missing.form.md"))
	require.NoError(t, err)

	_, err = loader.Load()
	assert.Error(t, err)
}
