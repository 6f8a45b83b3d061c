package clientrates

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTable(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "client_rates.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAndLookup(t *testing.T) {
	path := writeTable(t, `{
		"Acme Corp": {"name": "Acme Corp", "supportRate": 95.50},
		"harborview marina": {"name": "Harborview Marina", "supportRate": 120}
	}`)

	table, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, table.Len())

	entry, ok := table.Lookup("acme corp")
	require.True(t, ok)
	assert.Equal(t, "95.5", entry.SupportRate.String())

	// Lookup is case-insensitive and trims whitespace
	entry, ok = table.Lookup("  ACME CORP ")
	require.True(t, ok)
	assert.Equal(t, "Acme Corp", entry.Name)

	_, ok = table.Lookup("unknown")
	assert.False(t, ok)
}

func TestLoadRejectsBadRate(t *testing.T) {
	path := writeTable(t, `{"acme": {"name": "Acme", "supportRate": "not-a-number"}}`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestNewFromEntriesNormalizesKeys(t *testing.T) {
	table := NewFromEntries(map[string]Entry{
		"Acme Corp": {Name: "Acme Corp", SupportRate: decimal.RequireFromString("80")},
	})
	_, ok := table.Lookup("acme corp")
	assert.True(t, ok)
}
