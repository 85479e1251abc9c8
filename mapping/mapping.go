// Package mapping implements immutable sorted key/value lookup tables that
// get compiled into a function: binary search over serialized key bytes in
// lexicographic order, per §3's Mapping data model.
package mapping

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/sbl8/jyafn/layout"
	"github.com/sbl8/jyafn/symtab"
)

// Entry is one key/value pair as supplied by a graph builder, before
// encoding.
type Entry struct {
	Key   any
	Value any
}

// Mapping is an immutable sorted key->value table. Keys are deduplicated
// (the last Entry for a given encoded key wins) and sorted by the
// lexicographic order of their encoded bytes, so Lookup can binary-search.
type Mapping struct {
	Name        string
	KeyLayout   layout.Layout
	ValueLayout layout.Layout

	keys   [][]byte
	values [][]byte
}

// New encodes entries against keyLayout/valueLayout and builds a sorted,
// deduplicated Mapping. symbols is the graph's top-layer table: Symbol-typed
// keys or values intern into it during construction.
func New(name string, keyLayout, valueLayout layout.Layout, entries []Entry, symbols *symtab.Table) (*Mapping, error) {
	type row struct {
		key   []byte
		value []byte
	}
	rows := make([]row, 0, len(entries))
	for i, e := range entries {
		kb, err := keyLayout.Encode(e.Key, symbols)
		if err != nil {
			return nil, fmt.Errorf("mapping %q: encode key %d: %w", name, i, err)
		}
		vb, err := valueLayout.Encode(e.Value, symbols)
		if err != nil {
			return nil, fmt.Errorf("mapping %q: encode value %d: %w", name, i, err)
		}
		rows = append(rows, row{key: kb, value: vb})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return bytes.Compare(rows[i].key, rows[j].key) < 0
	})

	deduped := make([]row, 0, len(rows))
	for _, r := range rows {
		if n := len(deduped); n > 0 && bytes.Equal(deduped[n-1].key, r.key) {
			deduped[n-1] = r // later entry for the same key wins
			continue
		}
		deduped = append(deduped, r)
	}

	m := &Mapping{Name: name, KeyLayout: keyLayout, ValueLayout: valueLayout}
	for _, r := range deduped {
		m.keys = append(m.keys, r.key)
		m.values = append(m.values, r.value)
	}
	return m, nil
}

// Len returns the number of distinct keys.
func (m *Mapping) Len() int { return len(m.keys) }

// Lookup binary-searches the sorted key table, returning the matching
// value's encoded bytes, or ok=false if no key matches.
func (m *Mapping) Lookup(keyBytes []byte) (value []byte, ok bool) {
	i := sort.Search(len(m.keys), func(i int) bool {
		return bytes.Compare(m.keys[i], keyBytes) >= 0
	})
	if i < len(m.keys) && bytes.Equal(m.keys[i], keyBytes) {
		return m.values[i], true
	}
	return nil, false
}

// LookupValue encodes key, looks it up, and decodes the result.
// ir.Interpret does not use it: it calls Lookup directly on raw key bytes.
func (m *Mapping) LookupValue(key any, symbols *symtab.Table) (any, bool, error) {
	kb, err := m.KeyLayout.Encode(key, symbols)
	if err != nil {
		return nil, false, err
	}
	vb, ok := m.Lookup(kb)
	if !ok {
		return nil, false, nil
	}
	v, err := m.ValueLayout.Decode(vb, symbols)
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}
