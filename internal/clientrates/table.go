// Package clientrates loads the negotiated support-rate table used to
// price legacy ticket labor. The table is a JSON object mapping a
// normalized client key to an entry with the client's display name and
// hourly support rate.
package clientrates

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
)

// Entry is one client's negotiated rate
type Entry struct {
	Name        string          `json:"name"`
	SupportRate decimal.Decimal `json:"supportRate"`
}

// Table maps normalized client keys to rate entries. Lookups are
// case-insensitive; keys are stored lowercased and trimmed.
type Table struct {
	entries map[string]Entry
}

// KeyForName normalizes a client display name into a table key
func KeyForName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Load reads the rate table from a JSON file. A missing file is an error;
// callers that treat the table as optional should check os.IsNotExist.
func Load(path string) (*Table, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read client rate table: %w", err)
	}

	dec := json.NewDecoder(strings.NewReader(string(raw)))
	dec.UseNumber()

	var parsed map[string]struct {
		Name        string      `json:"name"`
		SupportRate json.Number `json:"supportRate"`
	}
	if err := dec.Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to parse client rate table: %w", err)
	}

	entries := make(map[string]Entry, len(parsed))
	for key, v := range parsed {
		rate, err := decimal.NewFromString(v.SupportRate.String())
		if err != nil {
			return nil, fmt.Errorf("invalid support rate for client '%s': %w", key, err)
		}
		entries[KeyForName(key)] = Entry{Name: v.Name, SupportRate: rate}
	}

	return &Table{entries: entries}, nil
}

// NewFromEntries builds a table directly, used by tests and callers that
// source rates elsewhere.
func NewFromEntries(entries map[string]Entry) *Table {
	normalized := make(map[string]Entry, len(entries))
	for key, v := range entries {
		normalized[KeyForName(key)] = v
	}
	return &Table{entries: normalized}
}

// Empty returns a table with no entries
func Empty() *Table {
	return &Table{entries: map[string]Entry{}}
}

// Lookup returns the entry for a client key
func (t *Table) Lookup(key string) (Entry, bool) {
	e, ok := t.entries[KeyForName(key)]
	return e, ok
}

// Len returns the number of entries in the table
func (t *Table) Len() int {
	return len(t.entries)
}
