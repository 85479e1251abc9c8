// Package symtab implements the two-layer interned symbol table: a
// graph-embedded "top" layer shared by every caller, and a per-call "new"
// layer for symbols introduced while encoding a call's input that the graph
// has never seen. Strings are NFC-normalized before comparison so visually
// identical symbols produced by different host-language string encodings
// collide correctly.
package symtab

import "golang.org/x/text/unicode/norm"

// Table is either a graph's top layer (created with NewTop, grown only
// during graph building) or a per-call view over a sealed top layer plus a
// fresh new layer (created with ForCall).
type Table struct {
	top      []string
	topIndex map[string]int

	new      []string
	newIndex map[string]int
}

// NewTop creates an empty top-layer table, used while a graph is being
// built. It has no new layer: inserts during build land directly in top.
func NewTop() *Table {
	return &Table{topIndex: make(map[string]int)}
}

// ForCall returns a per-call table that shares top's entries read-only and
// starts with an empty, independently-growable new layer. Concurrent calls
// must each get their own ForCall table: new layers are never shared.
func ForCall(top *Table) *Table {
	return &Table{
		top:      top.top,
		topIndex: top.topIndex,
		newIndex: make(map[string]int),
	}
}

// Intern inserts s into the top layer if s is not already present there,
// returning its id. It is called on top-layer tables only: while building a
// graph and by FromTop.
func (t *Table) Intern(s string) int {
	s = norm.NFC.String(s)
	if id, ok := t.topIndex[s]; ok {
		return id
	}
	id := len(t.top)
	t.top = append(t.top, s)
	t.topIndex[s] = id
	return id
}

// Lookup checks top then new, returning (id, true) on a hit.
func (t *Table) Lookup(s string) (int, bool) {
	s = norm.NFC.String(s)
	if id, ok := t.topIndex[s]; ok {
		return id, true
	}
	if id, ok := t.newIndex[s]; ok {
		return id, true
	}
	return 0, false
}

// Insert looks up s, inserting into the new layer if absent. A top-layer
// table (NewTop, FromTop) has no new layer, so there Insert interns s into
// top instead. The compiled function must tolerate ids beyond the top
// layer's length that a given call never actually inserted (e.g. a stale id
// from a different call).
func (t *Table) Insert(s string) int {
	if t.newIndex == nil {
		return t.Intern(s)
	}
	if id, ok := t.Lookup(s); ok {
		return id
	}
	s = norm.NFC.String(s)
	id := len(t.top) + len(t.new)
	t.new = append(t.new, s)
	t.newIndex[s] = id
	return id
}

// String resolves an id back to its string, checking top then new. Unknown
// ids return ("", false); callers (e.g. mapping lookup) must treat that as
// a miss rather than panicking.
func (t *Table) String(id int) (string, bool) {
	if id < 0 {
		return "", false
	}
	if id < len(t.top) {
		return t.top[id], true
	}
	i := id - len(t.top)
	if i < len(t.new) {
		return t.new[i], true
	}
	return "", false
}

// Len returns the combined top+new length, i.e. one past the highest valid id.
func (t *Table) Len() int { return len(t.top) + len(t.new) }

// TopLen returns the length of the top layer alone, used when serializing a
// graph (only the top layer is persisted).
func (t *Table) TopLen() int { return len(t.top) }

// Top returns the top layer's strings in id order, for serialization.
func (t *Table) Top() []string {
	out := make([]string, len(t.top))
	copy(out, t.top)
	return out
}

// FromTop rebuilds a top-layer table from a previously serialized slice,
// used when loading an artifact.
func FromTop(strings []string) *Table {
	t := &Table{topIndex: make(map[string]int, len(strings))}
	for _, s := range strings {
		t.Intern(s)
	}
	return t
}
