// Package graph implements the append-only DAG builder and node algebra:
// the core data model a host builds programmatically before sealing,
// compiling or serializing it (§3 DATA MODEL, §4.1 Graph Builder).
package graph

import (
	"github.com/sbl8/jyafn/layout"
	"github.com/sbl8/jyafn/mapping"
	"github.com/sbl8/jyafn/symtab"
)

// ResourceDecl records one declare_resource call: the resource's catalog
// entry before it is ever loaded or invoked (loading happens through the
// resource package at compile/call time, not at build time).
type ResourceDecl struct {
	Name      string
	Extension string
	TypeName  string
	Bytes     []byte
}

// MappingID and ResourceID index Graph.Mappings / Graph.Resources.
type MappingID int
type ResourceID int

// Graph is the sealed, immutable DAG: an ordered node sequence plus the
// catalogs and tables §3 requires. Every node's Inputs (and other NodeID
// fields) are strictly less than its own index by construction.
type Graph struct {
	Nodes       []Node
	InputLayout layout.Layout
	OutputLayout layout.Layout
	Metadata    map[string]string
	Mappings    []*mapping.Mapping
	Resources   []ResourceDecl
	Symbols     *symtab.Table

	tables [][]float64
	sealed bool
}

// Tables returns the graph's declared IndexedLookup constant tables, in
// declaration order.
func (g *Graph) Tables() [][]float64 { return g.tables }

// Reconstruct rebuilds a sealed Graph from parts recovered by deserializing
// an artifact (§4.6): artifact is a sibling package that cannot set Graph's
// unexported tables/sealed fields directly, so it calls through here
// instead of duplicating Validate's invariant checks.
func Reconstruct(nodes []Node, inputLayout, outputLayout layout.Layout, metadata map[string]string, mappings []*mapping.Mapping, resources []ResourceDecl, tables [][]float64, symbols *symtab.Table) (*Graph, error) {
	g := &Graph{
		Nodes:        nodes,
		InputLayout:  inputLayout,
		OutputLayout: outputLayout,
		Metadata:     metadata,
		Mappings:     mappings,
		Resources:    resources,
		Symbols:      symbols,
		tables:       tables,
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	g.sealed = true
	return g, nil
}

// NodeCount returns the number of nodes in the graph.
func (g *Graph) NodeCount() int { return len(g.Nodes) }

// Sealed reports whether the graph has been sealed (no further mutation).
func (g *Graph) Sealed() bool { return g.sealed }

// Validate checks the structural invariants §3 and §8 require: strictly
// increasing dependency indices, in-range catalog references, and
// in-range symbol ids for Symbol nodes within the top layer.
func (g *Graph) Validate() error {
	for i, n := range g.Nodes {
		for _, dep := range n.dependencies() {
			if int(dep) < 0 || int(dep) >= i {
				return errf(UnknownRef, "node %d (%s) references node %d, which is not a prior node", i, n.Kind, dep)
			}
		}
		switch n.Kind {
		case KindMappingLookup:
			if n.MappingID < 0 || n.MappingID >= len(g.Mappings) {
				return errf(UnknownMapping, "node %d references mapping %d", i, n.MappingID)
			}
		case KindResourceCall:
			if n.ResourceID < 0 || n.ResourceID >= len(g.Resources) {
				return errf(UnknownResource, "node %d references resource %d", i, n.ResourceID)
			}
		case KindSymbol:
			if n.SymbolID < 0 || n.SymbolID >= g.Symbols.TopLen() {
				return errf(UnknownRef, "node %d references symbol id %d outside the top layer", i, n.SymbolID)
			}
		}
	}
	return nil
}
