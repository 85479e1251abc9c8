package artifact

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/sbl8/jyafn/graph"
	"github.com/sbl8/jyafn/layout"
	"github.com/sbl8/jyafn/mapping"
	"github.com/sbl8/jyafn/ops"
)

// graphBinMagic and graphBinVersion identify the graph.bin binary format
// (§6): magic(4) | version(u8) | flags(u8) | ... . Flags is currently
// unused (reserved for future endianness/compression bits) and always 0;
// all multi-byte integers are little-endian regardless of host.
const (
	graphBinMagic   uint32 = 0x4e464159 // "YAFN"
	graphBinVersion uint8  = 1
)

// nodeAttrs carries the kind-specific scalar fields a graph.Node has beyond
// its dependency list, JSON-encoded into each node's attrs_bytes. Node's own
// fields are unexported to other packages, so framing re-derives this
// shadow at encode time and reconstructs a Node from it at decode time.
type nodeAttrs struct {
	InputPath   string            `json:"input_path,omitempty"`
	Value       float64           `json:"value,omitempty"`
	Op          uint8             `json:"op,omitempty"`
	OpAttrs     map[string]string `json:"op_attrs,omitempty"`
	SymbolID    int               `json:"symbol_id,omitempty"`
	MappingID   int               `json:"mapping_id,omitempty"`
	HasDefault  bool              `json:"has_default,omitempty"`
	ResourceID  int               `json:"resource_id,omitempty"`
	Method      string            `json:"method,omitempty"`
	TableID     int               `json:"table_id,omitempty"`
	OutputPath  string            `json:"output_path,omitempty"`
}

// EncodeGraphBin serializes g into the graph.bin binary layout described in
// §6: a version-stamped header, the metadata/symbol/layout side tables,
// mapping and resource descriptors, and the node list in topological order.
func EncodeGraphBin(g *graph.Graph, name string) ([]byte, error) {
	buf := &bytes.Buffer{}

	writeU32(buf, graphBinMagic)
	buf.WriteByte(graphBinVersion)
	buf.WriteByte(0) // flags

	writeLenPrefixedU16(buf, []byte(name))

	metadataJSON, err := json.Marshal(g.Metadata)
	if err != nil {
		return nil, errf(CorruptArtifact, "encode metadata: %v", err)
	}
	writeLenPrefixedU32(buf, metadataJSON)

	symbolsJSON, err := json.Marshal(g.Symbols.Top())
	if err != nil {
		return nil, errf(CorruptArtifact, "encode symbols: %v", err)
	}
	writeLenPrefixedU32(buf, symbolsJSON)

	inputLayoutJSON, err := g.InputLayout.ToJSON()
	if err != nil {
		return nil, errf(UnsupportedLayout, "encode input layout: %v", err)
	}
	writeLenPrefixedU32(buf, inputLayoutJSON)

	outputLayoutJSON, err := g.OutputLayout.ToJSON()
	if err != nil {
		return nil, errf(UnsupportedLayout, "encode output layout: %v", err)
	}
	writeLenPrefixedU32(buf, outputLayoutJSON)

	writeU32(buf, uint32(len(g.Mappings)))
	for _, m := range g.Mappings {
		desc, err := encodeMappingDescriptor(m)
		if err != nil {
			return nil, err
		}
		writeLenPrefixedU32(buf, desc)
	}

	writeU32(buf, uint32(len(g.Resources)))
	for _, r := range g.Resources {
		desc, err := json.Marshal(r)
		if err != nil {
			return nil, errf(CorruptArtifact, "encode resource descriptor: %v", err)
		}
		writeLenPrefixedU32(buf, desc)
	}

	tables := g.Tables()
	writeU32(buf, uint32(len(tables)))
	for _, table := range tables {
		tableJSON, err := json.Marshal(table)
		if err != nil {
			return nil, errf(CorruptArtifact, "encode table: %v", err)
		}
		writeLenPrefixedU32(buf, tableJSON)
	}

	writeU32(buf, uint32(len(g.Nodes)))
	for i, n := range g.Nodes {
		if err := encodeNode(buf, n); err != nil {
			return nil, fmt.Errorf("node %d: %w", i, err)
		}
	}

	return buf.Bytes(), nil
}

type MappingDescriptor struct {
	Name        string `json:"name"`
	KeyLayout   []byte `json:"key_layout"`
	ValueLayout []byte `json:"value_layout"`
}

func encodeMappingDescriptor(m *mapping.Mapping) ([]byte, error) {
	keyJSON, err := m.KeyLayout.ToJSON()
	if err != nil {
		return nil, errf(UnsupportedLayout, "mapping %q key layout: %v", m.Name, err)
	}
	valueJSON, err := m.ValueLayout.ToJSON()
	if err != nil {
		return nil, errf(UnsupportedLayout, "mapping %q value layout: %v", m.Name, err)
	}
	return json.Marshal(MappingDescriptor{Name: m.Name, KeyLayout: keyJSON, ValueLayout: valueJSON})
}

func encodeNode(buf *bytes.Buffer, n graph.Node) error {
	deps := nodeDependencies(n)
	buf.WriteByte(uint8(n.Kind))
	buf.WriteByte(uint8(len(deps)))
	for _, d := range deps {
		writeU32(buf, uint32(d))
	}

	attrs := nodeAttrs{
		InputPath:  n.InputPath,
		Value:      n.Value,
		Op:         uint8(n.Op),
		OpAttrs:    n.Attrs,
		SymbolID:   n.SymbolID,
		MappingID:  n.MappingID,
		HasDefault: n.Kind == graph.KindMappingLookup && n.DefaultNode != graph.NoDefault,
		ResourceID: n.ResourceID,
		Method:     n.Method,
		TableID:    n.TableID,
		OutputPath: n.OutputPath,
	}
	attrsJSON, err := json.Marshal(attrs)
	if err != nil {
		return errf(CorruptArtifact, "encode node attrs: %v", err)
	}
	writeLenPrefixedU16(buf, attrsJSON)
	return nil
}

// nodeDependencies mirrors graph.Node's unexported dependencies(): the
// NodeIDs this node reads from, used to fill the node's inputs array.
// MappingLookup's key/default and IndexedLookup's index/ResourceCall's
// Inputs are all folded into one dependency list; decode recovers their
// kind-specific roles from n.Kind plus attrs.HasDefault.
func nodeDependencies(n graph.Node) []graph.NodeID {
	switch n.Kind {
	case graph.KindOp, graph.KindResourceCall:
		return n.Inputs
	case graph.KindMappingLookup:
		if n.DefaultNode == graph.NoDefault {
			return []graph.NodeID{n.KeyNode}
		}
		return []graph.NodeID{n.KeyNode, n.DefaultNode}
	case graph.KindIndexedLookup:
		return []graph.NodeID{n.IndexNode}
	case graph.KindOutput:
		return []graph.NodeID{n.Source}
	default:
		return nil
	}
}

func writeU32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func writeLenPrefixedU16(buf *bytes.Buffer, data []byte) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], uint16(len(data)))
	buf.Write(b[:])
	buf.Write(data)
}

func writeLenPrefixedU32(buf *bytes.Buffer, data []byte) {
	writeU32(buf, uint32(len(data)))
	buf.Write(data)
}

// DecodeGraphBin reverses EncodeGraphBin. It does not re-hydrate mapping
// value tables or resource handles — only the catalog descriptors needed
// to do so from the artifact's mappings/<id>.bin and resources/<id>.bin
// entries, which Load reads separately when initialize is requested.
type DecodedGraphBin struct {
	Name               string
	Metadata           map[string]string
	TopSymbols         []string
	InputLayout        layout.Layout
	OutputLayout       layout.Layout
	MappingDescriptors []MappingDescriptor
	ResourceDecls      []graph.ResourceDecl
	Tables             [][]float64
	Nodes              []graph.Node
}

func DecodeGraphBin(data []byte) (*DecodedGraphBin, error) {
	r := &byteReader{data: data}

	magic, err := r.u32()
	if err != nil || magic != graphBinMagic {
		return nil, errf(CorruptArtifact, "bad magic")
	}
	version, err := r.byte()
	if err != nil {
		return nil, errf(CorruptArtifact, "missing version byte")
	}
	if version != graphBinVersion {
		return nil, errf(VersionMismatch, "graph.bin version %d is not supported", version)
	}
	if _, err := r.byte(); err != nil { // flags, unused
		return nil, errf(CorruptArtifact, "missing flags byte")
	}

	nameBytes, err := r.lenPrefixedU16()
	if err != nil {
		return nil, errf(CorruptArtifact, "name: %v", err)
	}

	metadataJSON, err := r.lenPrefixedU32()
	if err != nil {
		return nil, errf(CorruptArtifact, "metadata: %v", err)
	}
	var metadata map[string]string
	if err := json.Unmarshal(metadataJSON, &metadata); err != nil {
		return nil, errf(CorruptArtifact, "decode metadata: %v", err)
	}

	symbolsJSON, err := r.lenPrefixedU32()
	if err != nil {
		return nil, errf(CorruptArtifact, "symbols: %v", err)
	}
	var topSymbols []string
	if err := json.Unmarshal(symbolsJSON, &topSymbols); err != nil {
		return nil, errf(CorruptArtifact, "decode symbols: %v", err)
	}

	inputLayoutJSON, err := r.lenPrefixedU32()
	if err != nil {
		return nil, errf(CorruptArtifact, "input layout: %v", err)
	}
	inputLayout, err := layout.FromJSON(inputLayoutJSON)
	if err != nil {
		return nil, errf(UnsupportedLayout, "decode input layout: %v", err)
	}

	outputLayoutJSON, err := r.lenPrefixedU32()
	if err != nil {
		return nil, errf(CorruptArtifact, "output layout: %v", err)
	}
	outputLayout, err := layout.FromJSON(outputLayoutJSON)
	if err != nil {
		return nil, errf(UnsupportedLayout, "decode output layout: %v", err)
	}

	mappingCount, err := r.u32()
	if err != nil {
		return nil, errf(CorruptArtifact, "mapping count: %v", err)
	}
	descs := make([]MappingDescriptor, mappingCount)
	for i := range descs {
		raw, err := r.lenPrefixedU32()
		if err != nil {
			return nil, errf(CorruptArtifact, "mapping descriptor %d: %v", i, err)
		}
		if err := json.Unmarshal(raw, &descs[i]); err != nil {
			return nil, errf(CorruptArtifact, "decode mapping descriptor %d: %v", i, err)
		}
	}

	resourceCount, err := r.u32()
	if err != nil {
		return nil, errf(CorruptArtifact, "resource count: %v", err)
	}
	resources := make([]graph.ResourceDecl, resourceCount)
	for i := range resources {
		raw, err := r.lenPrefixedU32()
		if err != nil {
			return nil, errf(CorruptArtifact, "resource descriptor %d: %v", i, err)
		}
		if err := json.Unmarshal(raw, &resources[i]); err != nil {
			return nil, errf(CorruptArtifact, "decode resource descriptor %d: %v", i, err)
		}
	}

	tableCount, err := r.u32()
	if err != nil {
		return nil, errf(CorruptArtifact, "table count: %v", err)
	}
	tables := make([][]float64, tableCount)
	for i := range tables {
		raw, err := r.lenPrefixedU32()
		if err != nil {
			return nil, errf(CorruptArtifact, "table %d: %v", i, err)
		}
		if err := json.Unmarshal(raw, &tables[i]); err != nil {
			return nil, errf(CorruptArtifact, "decode table %d: %v", i, err)
		}
	}

	nodeCount, err := r.u32()
	if err != nil {
		return nil, errf(CorruptArtifact, "node count: %v", err)
	}
	nodes := make([]graph.Node, nodeCount)
	for i := range nodes {
		n, err := decodeNode(r)
		if err != nil {
			return nil, fmt.Errorf("node %d: %w", i, err)
		}
		nodes[i] = n
	}

	return &DecodedGraphBin{
		Name:               string(nameBytes),
		Metadata:           metadata,
		TopSymbols:         topSymbols,
		InputLayout:        inputLayout,
		OutputLayout:       outputLayout,
		MappingDescriptors: descs,
		ResourceDecls:      resources,
		Tables:             tables,
		Nodes:              nodes,
	}, nil
}

func decodeNode(r *byteReader) (graph.Node, error) {
	kindByte, err := r.byte()
	if err != nil {
		return graph.Node{}, errf(CorruptArtifact, "kind: %v", err)
	}
	arity, err := r.byte()
	if err != nil {
		return graph.Node{}, errf(CorruptArtifact, "arity: %v", err)
	}
	deps := make([]graph.NodeID, arity)
	for i := range deps {
		v, err := r.u32()
		if err != nil {
			return graph.Node{}, errf(CorruptArtifact, "input %d: %v", i, err)
		}
		deps[i] = graph.NodeID(v)
	}
	attrsJSON, err := r.lenPrefixedU16()
	if err != nil {
		return graph.Node{}, errf(CorruptArtifact, "attrs: %v", err)
	}
	var attrs nodeAttrs
	if err := json.Unmarshal(attrsJSON, &attrs); err != nil {
		return graph.Node{}, errf(CorruptArtifact, "decode attrs: %v", err)
	}

	n := graph.Node{
		Kind:       graph.Kind(kindByte),
		InputPath:  attrs.InputPath,
		Value:      attrs.Value,
		SymbolID:   attrs.SymbolID,
		MappingID:  attrs.MappingID,
		ResourceID: attrs.ResourceID,
		Method:     attrs.Method,
		TableID:    attrs.TableID,
		OutputPath: attrs.OutputPath,
	}
	n.Op = ops.Code(attrs.Op)
	n.Attrs = attrs.OpAttrs

	switch n.Kind {
	case graph.KindOp, graph.KindResourceCall:
		n.Inputs = deps
	case graph.KindMappingLookup:
		n.KeyNode = deps[0]
		if attrs.HasDefault && len(deps) > 1 {
			n.DefaultNode = deps[1]
		} else {
			n.DefaultNode = graph.NoDefault
		}
	case graph.KindIndexedLookup:
		n.IndexNode = deps[0]
	case graph.KindOutput:
		n.Source = deps[0]
	}
	return n, nil
}

// byteReader is a minimal cursor over an in-memory buffer; artifact data is
// fully buffered in memory (graphs are small relative to typical process
// memory), so no streaming reader is warranted.
type byteReader struct {
	data []byte
	pos  int
}

func (r *byteReader) byte() (byte, error) {
	if r.pos >= len(r.data) {
		return 0, fmt.Errorf("unexpected end of data")
	}
	b := r.data[r.pos]
	r.pos++
	return b, nil
}

func (r *byteReader) u32() (uint32, error) {
	if r.pos+4 > len(r.data) {
		return 0, fmt.Errorf("unexpected end of data")
	}
	v := binary.LittleEndian.Uint32(r.data[r.pos : r.pos+4])
	r.pos += 4
	return v, nil
}

func (r *byteReader) u16() (uint16, error) {
	if r.pos+2 > len(r.data) {
		return 0, fmt.Errorf("unexpected end of data")
	}
	v := binary.LittleEndian.Uint16(r.data[r.pos : r.pos+2])
	r.pos += 2
	return v, nil
}

func (r *byteReader) lenPrefixedU16() ([]byte, error) {
	n, err := r.u16()
	if err != nil {
		return nil, err
	}
	if r.pos+int(n) > len(r.data) {
		return nil, fmt.Errorf("unexpected end of data")
	}
	b := r.data[r.pos : r.pos+int(n)]
	r.pos += int(n)
	return b, nil
}

func (r *byteReader) lenPrefixedU32() ([]byte, error) {
	n, err := r.u32()
	if err != nil {
		return nil, err
	}
	if r.pos+int(n) > len(r.data) {
		return nil, fmt.Errorf("unexpected end of data")
	}
	b := r.data[r.pos : r.pos+int(n)]
	r.pos += int(n)
	return b, nil
}
