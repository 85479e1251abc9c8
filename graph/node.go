package graph

import "github.com/sbl8/jyafn/ops"

// NodeID indexes into Graph.Nodes. Invariant: every node's Inputs entries
// are strictly less than the node's own id (topological ordering by
// construction, §3 Graph invariant).
type NodeID int

// NoDefault marks a MappingLookup with no default subgraph: a miss fails
// the call with KeyNotFound rather than falling back to a value.
const NoDefault NodeID = -1

// Kind tags a Node's variant. A flat struct with a Kind discriminant (the
// teacher's Node shape) is used instead of an interface hierarchy: arity,
// signature and lowering are all data-driven off Kind plus, for Op nodes,
// ops.Code — exactly the "tagged variant with a static op table" the node
// algebra calls for over virtual dispatch.
type Kind uint8

const (
	KindInput Kind = iota
	KindConst
	KindOp
	KindSymbol
	KindMappingLookup
	KindResourceCall
	KindIndexedLookup
	KindOutput
)

func (k Kind) String() string {
	switch k {
	case KindInput:
		return "input"
	case KindConst:
		return "const"
	case KindOp:
		return "op"
	case KindSymbol:
		return "symbol"
	case KindMappingLookup:
		return "mapping_lookup"
	case KindResourceCall:
		return "resource_call"
	case KindIndexedLookup:
		return "indexed_lookup"
	case KindOutput:
		return "output"
	default:
		return "unknown"
	}
}

// Node is the tagged-variant node value. Only the fields relevant to Kind
// (and, for Op, to Op) are meaningful for any given node.
type Node struct {
	Kind Kind

	// Input
	InputPath string

	// Const
	Value float64

	// Op
	Op     ops.Code
	Inputs []NodeID
	Attrs  map[string]string

	// Symbol
	SymbolID int

	// MappingLookup
	MappingID   int
	KeyNode     NodeID
	DefaultNode NodeID // NoDefault means fail on miss

	// ResourceCall (reuses Inputs for call arguments)
	ResourceID int
	Method     string

	// IndexedLookup
	TableID   int
	IndexNode NodeID

	// Output
	OutputPath string
	Source     NodeID
}

// arity returns the number of NodeID operands this node consumes, i.e. the
// length of dependencies(). The builder checks op arity against ops.Table
// instead, and dependencies() is what walks a node's operands.
func (n Node) arity() int {
	switch n.Kind {
	case KindInput, KindConst, KindSymbol:
		return 0
	case KindOp, KindResourceCall:
		return len(n.Inputs)
	case KindMappingLookup:
		if n.DefaultNode == NoDefault {
			return 1
		}
		return 2
	case KindIndexedLookup:
		return 1
	case KindOutput:
		return 1
	default:
		return 0
	}
}

// dependencies returns every NodeID this node reads from, in a stable
// order, regardless of Kind.
func (n Node) dependencies() []NodeID {
	switch n.Kind {
	case KindOp, KindResourceCall:
		return n.Inputs
	case KindMappingLookup:
		if n.DefaultNode == NoDefault {
			return []NodeID{n.KeyNode}
		}
		return []NodeID{n.KeyNode, n.DefaultNode}
	case KindIndexedLookup:
		return []NodeID{n.IndexNode}
	case KindOutput:
		return []NodeID{n.Source}
	default:
		return nil
	}
}
