package prefs

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestPrefsCommand(t *testing.T) {
	db := filepath.Join(t.TempDir(), "prefs.db")
	t.Cleanup(func() { dbPath = "" })

	_, err := execute(t, "set", "group_title", "MD", "--db", db)
	require.NoError(t, err)
	_, err = execute(t, "set", "theme", "dark", "--db", db)
	require.NoError(t, err)

	out, err := execute(t, "get", "group_title", "--db", db)
	require.NoError(t, err)
	assert.Equal(t, "MD\n", out)

	out, err = execute(t, "list", "--db", db)
	require.NoError(t, err)
	assert.Equal(t, "group_title=MD\ntheme=dark\n", out)

	_, err = execute(t, "delete", "theme", "--db", db)
	require.NoError(t, err)
	out, err = execute(t, "list", "--db", db)
	require.NoError(t, err)
	assert.Equal(t, "group_title=MD\n", out)
}

func TestPrefsCommand_Args(t *testing.T) {
	t.Cleanup(func() { dbPath = "" })
	_, err := execute(t, "set", "only-key", "--db", filepath.Join(t.TempDir(), "prefs.db"))
	assert.Error(t, err)
}
