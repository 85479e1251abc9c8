package ir

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/sbl8/jyafn/graph"
	"github.com/sbl8/jyafn/layout"
	"github.com/sbl8/jyafn/ops"
	"github.com/sbl8/jyafn/resource"
)

// ResourceHandles maps a graph's ResourceID to the live Handle it should be
// called through. The caller builds it and passes it to compiler.Compile or
// compiler.NewInterpretedFunction; neither Compile nor Interpret loads
// extensions itself.
type ResourceHandles map[int]*resource.Handle

// Interpret runs g's $run semantics directly against input/output buffers
// in a single sequential pass over the already topologically ordered
// nodes — no dependency scheduling is needed since the graph invariant
// guarantees every dependency has already been visited. It returns the
// output buffer and the status id the compiled function would have
// returned; status 0 means success.
func Interpret(g *graph.Graph, input []byte, resources ResourceHandles) (output []byte, status int64, err error) {
	values := make([]float64, len(g.Nodes))
	output = make([]byte, g.OutputLayout.Size())

	for i, n := range g.Nodes {
		switch n.Kind {
		case graph.KindInput:
			off, sz, ok := g.InputLayout.FieldOffset(n.InputPath)
			if !ok || sz != 8 {
				return nil, 0, fmt.Errorf("input path %q is not an addressable scalar slot", n.InputPath)
			}
			values[i] = math.Float64frombits(binary.LittleEndian.Uint64(input[off : off+8]))

		case graph.KindConst:
			values[i] = n.Value

		case graph.KindOp:
			args := make([]float64, len(n.Inputs))
			for j, id := range n.Inputs {
				args[j] = values[id]
			}
			if n.Op == ops.Assert {
				if args[0] == 0 {
					return output, AssertionFailedBase + int64(args[1]), nil
				}
				values[i] = 1
				continue
			}
			entry := ops.Table[n.Op]
			if entry.Eval == nil {
				return nil, 0, fmt.Errorf("node %d: unknown op code %d", i, n.Op)
			}
			values[i] = entry.Eval(args)

		case graph.KindSymbol:
			values[i] = float64(n.SymbolID)

		case graph.KindMappingLookup:
			m := g.Mappings[n.MappingID]
			keyBytes := make([]byte, 8)
			binary.LittleEndian.PutUint64(keyBytes, math.Float64bits(values[n.KeyNode]))
			valueBytes, ok := m.Lookup(keyBytes)
			if !ok {
				if n.DefaultNode == graph.NoDefault {
					return output, StatusKeyNotFound, nil
				}
				values[i] = values[n.DefaultNode]
				continue
			}
			values[i] = math.Float64frombits(binary.LittleEndian.Uint64(valueBytes))

		case graph.KindResourceCall:
			handle, ok := resources[n.ResourceID]
			if !ok {
				return output, StatusResourceError, nil
			}
			method, err := handle.GetMethod(n.Method)
			if err != nil {
				return output, StatusResourceError, nil
			}
			in := make([]byte, 8*len(n.Inputs))
			for j, id := range n.Inputs {
				binary.LittleEndian.PutUint64(in[j*8:j*8+8], math.Float64bits(values[id]))
			}
			out, err := handle.Call(method, in)
			if err != nil || len(out) < 8 {
				return output, StatusResourceError, nil
			}
			values[i] = math.Float64frombits(binary.LittleEndian.Uint64(out[:8]))

		case graph.KindIndexedLookup:
			idx := int(values[n.IndexNode])
			tables := g.Tables()
			if n.TableID < 0 || n.TableID >= len(tables) {
				return output, StatusOutOfBounds, nil
			}
			table := tables[n.TableID]
			if idx < 0 || idx >= len(table) {
				return output, StatusOutOfBounds, nil
			}
			values[i] = table[idx]

		case graph.KindOutput:
			off, sz, err := outputOffset(g, n.OutputPath)
			if err != nil {
				return nil, 0, err
			}
			binary.LittleEndian.PutUint64(output[off:off+8], math.Float64bits(values[n.Source]))
			_ = sz

		default:
			return nil, 0, fmt.Errorf("node %d: unknown kind %d", i, n.Kind)
		}
	}

	return output, StatusOK, nil
}

func outputOffset(g *graph.Graph, path string) (offset, size int, err error) {
	if g.OutputLayout.Flavor == layout.Struct {
		off, sz, ok := g.OutputLayout.FieldOffset(path)
		if !ok {
			return 0, 0, fmt.Errorf("output path %q is not a field of the output layout", path)
		}
		return off, sz, nil
	}
	return 0, g.OutputLayout.Size(), nil
}
