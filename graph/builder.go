package graph

import (
	"github.com/sbl8/jyafn/layout"
	"github.com/sbl8/jyafn/mapping"
	"github.com/sbl8/jyafn/ops"
	"github.com/sbl8/jyafn/symtab"
)

// Builder is the append-only DAG construction contract (§4.1). A Builder is
// not safe for concurrent use: the host drives it from a single goroutine,
// matching §5's "core is single-threaded in its API surface".
type Builder struct {
	g           *Graph
	inputFields map[string]layout.Layout
}

// New creates a Builder whose input values conform to inputLayout, which
// must be of flavor Struct (§3 Graph: "input layout must be of flavor
// struct").
func New(inputLayout layout.Layout) (*Builder, error) {
	if inputLayout.Flavor != layout.Struct {
		return nil, errf(TypeMismatch, "input layout must be struct, got %s", inputLayout.Flavor)
	}
	fields := make(map[string]layout.Layout, len(inputLayout.Fields))
	for _, f := range inputLayout.Fields {
		fields[f.Name] = f.Layout
	}
	return &Builder{
		g: &Graph{
			InputLayout: inputLayout,
			Metadata:    make(map[string]string),
			Symbols:     symtab.NewTop(),
		},
		inputFields: fields,
	}, nil
}

func (b *Builder) mustNotBeSealed() error {
	if b.g.sealed {
		return errf(Programmatic, "builder already sealed")
	}
	return nil
}

func (b *Builder) push(n Node) (NodeID, error) {
	if err := b.mustNotBeSealed(); err != nil {
		return 0, err
	}
	id := NodeID(len(b.g.Nodes))
	for _, dep := range n.dependencies() {
		if dep < 0 || dep >= id {
			return 0, errf(UnknownRef, "reference to node %d has not been pushed yet", dep)
		}
	}
	b.g.Nodes = append(b.g.Nodes, n)
	return id, nil
}

// PushInput references one leaf of the input layout by field name,
// producing one float64 slot. Only top-level struct fields are addressable
// paths in this implementation.
func (b *Builder) PushInput(path string) (NodeID, error) {
	if _, ok := b.inputFields[path]; !ok {
		return 0, errf(UnknownRef, "input path %q is not a field of the input layout", path)
	}
	return b.push(Node{Kind: KindInput, InputPath: path})
}

// PushConst records a compile-time constant.
func (b *Builder) PushConst(v float64) (NodeID, error) {
	return b.push(Node{Kind: KindConst, Value: v})
}

// PushOp appends an Op node, folding it eagerly into a Const if the
// operator is foldable and every input is itself a Const (§4.1 "constant
// folding is performed eagerly"). Transcendentals other than sqrt are
// marked non-foldable in ops.Table to avoid cross-platform drift.
func (b *Builder) PushOp(code ops.Code, inputs []NodeID, attrs map[string]string) (NodeID, error) {
	entry := ops.Table[code]
	if entry.Eval == nil {
		return 0, errf(TypeMismatch, "unknown op code %d", code)
	}
	if entry.Arity >= 0 && len(inputs) != entry.Arity {
		return 0, errf(ArityMismatch, "op %q expects %d inputs, got %d", entry.Name, entry.Arity, len(inputs))
	}

	if entry.Foldable {
		if folded, ok := b.tryFold(entry, inputs); ok {
			return b.push(Node{Kind: KindConst, Value: folded})
		}
	}

	return b.push(Node{Kind: KindOp, Op: code, Inputs: append([]NodeID(nil), inputs...), Attrs: attrs})
}

func (b *Builder) tryFold(entry ops.Entry, inputs []NodeID) (float64, bool) {
	args := make([]float64, len(inputs))
	for i, id := range inputs {
		if int(id) >= len(b.g.Nodes) || b.g.Nodes[id].Kind != KindConst {
			return 0, false
		}
		args[i] = b.g.Nodes[id].Value
	}
	return entry.Eval(args), true
}

// PushSymbol interns str into the graph's top-layer symbol table and pushes
// a Symbol node referencing its id.
func (b *Builder) PushSymbol(str string) (NodeID, error) {
	id := b.g.Symbols.Intern(str)
	return b.push(Node{Kind: KindSymbol, SymbolID: id})
}

// DeclareMapping builds an immutable sorted mapping and appends it to the
// graph's catalog, returning its id for later MappingLookup nodes.
func (b *Builder) DeclareMapping(name string, keyLayout, valueLayout layout.Layout, entries []mapping.Entry) (MappingID, error) {
	if err := b.mustNotBeSealed(); err != nil {
		return 0, err
	}
	m, err := mapping.New(name, keyLayout, valueLayout, entries, b.g.Symbols)
	if err != nil {
		return 0, err
	}
	id := MappingID(len(b.g.Mappings))
	b.g.Mappings = append(b.g.Mappings, m)
	return id, nil
}

// PushMappingLookup appends a MappingLookup node. defaultNode may be
// NoDefault, in which case a miss fails the call with KeyNotFound.
func (b *Builder) PushMappingLookup(mappingID MappingID, keyNode, defaultNode NodeID) (NodeID, error) {
	if int(mappingID) < 0 || int(mappingID) >= len(b.g.Mappings) {
		return 0, errf(UnknownMapping, "unknown mapping id %d", mappingID)
	}
	return b.push(Node{Kind: KindMappingLookup, MappingID: int(mappingID), KeyNode: keyNode, DefaultNode: defaultNode})
}

// DeclareResource records a resource catalog entry. Loading the backing
// extension and resolving method signatures happens later, at compile or
// call time, via the resource package.
func (b *Builder) DeclareResource(name, extension, typeName string, bytes []byte) (ResourceID, error) {
	if err := b.mustNotBeSealed(); err != nil {
		return 0, err
	}
	id := ResourceID(len(b.g.Resources))
	b.g.Resources = append(b.g.Resources, ResourceDecl{Name: name, Extension: extension, TypeName: typeName, Bytes: bytes})
	return id, nil
}

// PushResourceCall appends a ResourceCall node invoking method on the
// declared resource with the given node inputs.
func (b *Builder) PushResourceCall(resourceID ResourceID, method string, inputs []NodeID) (NodeID, error) {
	if int(resourceID) < 0 || int(resourceID) >= len(b.g.Resources) {
		return 0, errf(UnknownResource, "unknown resource id %d", resourceID)
	}
	return b.push(Node{Kind: KindResourceCall, ResourceID: int(resourceID), Method: method, Inputs: append([]NodeID(nil), inputs...)})
}

// Table is a precomputed constant array for IndexedLookup nodes, declared
// once and referenced by TableID.
type Table []float64

// DeclareTable records a precomputed table of scalar values for variable-
// index lookup, returning its id.
func (b *Builder) DeclareTable(values []float64) (int, error) {
	if err := b.mustNotBeSealed(); err != nil {
		return 0, err
	}
	id := len(b.g.tables)
	b.g.tables = append(b.g.tables, append([]float64(nil), values...))
	return id, nil
}

// PushIndexedLookup appends an IndexedLookup node: a bounds-checked,
// variable-index load from a previously declared table.
func (b *Builder) PushIndexedLookup(tableID int, indexNode NodeID) (NodeID, error) {
	if tableID < 0 || tableID >= len(b.g.tables) {
		return 0, errf(UnknownRef, "unknown table id %d", tableID)
	}
	return b.push(Node{Kind: KindIndexedLookup, TableID: tableID, IndexNode: indexNode})
}

// SetOutput connects source to a position in the output layout.
func (b *Builder) SetOutput(path string, source NodeID) error {
	_, err := b.push(Node{Kind: KindOutput, OutputPath: path, Source: source})
	return err
}

// SetOutputLayout fixes the graph's output layout; it may be of any flavor.
func (b *Builder) SetOutputLayout(l layout.Layout) {
	b.g.OutputLayout = l
}

// SetMetadata records a UTF-8 key/value pair in the graph's metadata map.
func (b *Builder) SetMetadata(k, v string) {
	b.g.Metadata[k] = v
}

// Seal finalizes the graph: no further mutation is possible through this
// Builder after Seal returns. The returned Graph is safe to share across
// goroutines for reads, matching §5's "seal() transitions to an immutably
// shareable state".
func (b *Builder) Seal() (*Graph, error) {
	if err := b.mustNotBeSealed(); err != nil {
		return nil, err
	}
	if err := b.g.Validate(); err != nil {
		return nil, err
	}
	b.g.sealed = true
	return b.g, nil
}
