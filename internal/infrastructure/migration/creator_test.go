package migration

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"add stock records", "add_stock_records"},
		{"Add-Transfer-Lines", "add_transfer_lines"},
		{"ADD_AUDIT_TRAIL", "add_audit_trail"},
		{"add__bins__table", "add_bins_table"},
		{"Add Bins 123", "add_bins_123"},
		{"   spaces   ", "spaces"},
		{"special!@#$chars", "special_chars"},
		{"_leading and trailing_", "leading_and_trailing"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeName(tt.input))
		})
	}
}

func TestCreateMigration_NumbersSequentially(t *testing.T) {
	dir := t.TempDir()

	first, err := CreateMigration(dir, "add bins", "Bin level stock")
	require.NoError(t, err)
	assert.Equal(t, uint(1), first.Version)
	assert.Equal(t, filepath.Join(dir, "000001_add_bins.up.sql"), first.UpPath)
	assert.Equal(t, filepath.Join(dir, "000001_add_bins.down.sql"), first.DownPath)

	second, err := CreateMigration(dir, "Index Payments", "")
	require.NoError(t, err)
	assert.Equal(t, uint(2), second.Version)

	up, err := os.ReadFile(first.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(up), "-- add bins\n")
	assert.Contains(t, string(up), "-- Bin level stock")

	down, err := os.ReadFile(first.DownPath)
	require.NoError(t, err)
	assert.Contains(t, string(down), "(rollback)")

	listed, err := ListMigrations(os.DirFS(dir))
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, "000002_index_payments", listed[1].String())
}

func TestCreateMigration_RejectsEmptyName(t *testing.T) {
	_, err := CreateMigration(t.TempDir(), "!!!", "")
	assert.Error(t, err)
}

func TestListMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"000010_later.up.sql":    {},
		"000002_second.up.sql":   {},
		"000002_second.down.sql": {},
		"000001_first.up.sql":    {},
		"README.md":              {},
		"notes.sql":              {},
	}

	got, err := ListMigrations(fsys)
	require.NoError(t, err)
	assert.Equal(t, []Migration{
		{Version: 1, Name: "first"},
		{Version: 2, Name: "second", HasDown: true},
		{Version: 10, Name: "later"},
	}, got)
}

func TestEmbeddedMigrations(t *testing.T) {
	got, err := ListMigrations(Embedded())
	require.NoError(t, err)
	require.NotEmpty(t, got)
	assert.Equal(t, "000001_init", got[0].String())
	for _, m := range got {
		assert.True(t, m.HasDown, "%s has no down migration", m)
	}
}
