package ir

import (
	"fmt"
	"strings"

	"github.com/sbl8/jyafn/graph"
	"github.com/sbl8/jyafn/ops"
)

// Render serializes g to the textual IR the compile pipeline's backend
// stage accepts on stdin (§4.5 step 1). One line per node, in topological
// order, so the backend never needs to resolve forward references.
func Render(g *graph.Graph) string {
	var b strings.Builder
	fmt.Fprintf(&b, "; input_layout=%d output_layout=%d nodes=%d\n", g.InputLayout.Size(), g.OutputLayout.Size(), len(g.Nodes))

	for i, n := range g.Nodes {
		switch n.Kind {
		case graph.KindInput:
			fmt.Fprintf(&b, "%%%d = input %q\n", i, n.InputPath)
		case graph.KindConst:
			fmt.Fprintf(&b, "%%%d = const %v\n", i, n.Value)
		case graph.KindOp:
			fmt.Fprintf(&b, "%%%d = op %s%s\n", i, ops.Table[n.Op].Name, renderArgs(n.Inputs))
		case graph.KindSymbol:
			fmt.Fprintf(&b, "%%%d = symbol %d\n", i, n.SymbolID)
		case graph.KindMappingLookup:
			if n.DefaultNode == graph.NoDefault {
				fmt.Fprintf(&b, "%%%d = mapping_lookup mapping=%d key=%%%d\n", i, n.MappingID, n.KeyNode)
			} else {
				fmt.Fprintf(&b, "%%%d = mapping_lookup mapping=%d key=%%%d default=%%%d\n", i, n.MappingID, n.KeyNode, n.DefaultNode)
			}
		case graph.KindResourceCall:
			fmt.Fprintf(&b, "%%%d = resource_call resource=%d method=%q%s\n", i, n.ResourceID, n.Method, renderArgs(n.Inputs))
		case graph.KindIndexedLookup:
			fmt.Fprintf(&b, "%%%d = indexed_lookup table=%d index=%%%d\n", i, n.TableID, n.IndexNode)
		case graph.KindOutput:
			fmt.Fprintf(&b, "%%%d = output %q %%%d\n", i, n.OutputPath, n.Source)
		default:
			fmt.Fprintf(&b, "%%%d = unknown\n", i)
		}
	}
	return b.String()
}

func renderArgs(inputs []graph.NodeID) string {
	var b strings.Builder
	for _, id := range inputs {
		fmt.Fprintf(&b, " %%%d", id)
	}
	return b.String()
}
