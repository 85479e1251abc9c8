package compiler

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kaptinlin/jsonrepair"

	"github.com/sbl8/jyafn/graph"
	"github.com/sbl8/jyafn/ir"
	"github.com/sbl8/jyafn/symtab"
)

// Stats accumulates per-Function call accounting, analogous to the
// teacher's ExecutionStats but scoped to a single compiled function rather
// than one Engine run. It is only updated when EnableStats is set on the
// owning Function.
type Stats struct {
	Calls      int64
	TotalNanos int64
	LastStatus int64
}

// Function is a graph compiled to a callable machine function (§4). It
// wraps the loaded RunFunc with layout-aware encode/decode helpers and
// optional call accounting; it is safe for concurrent use by multiple
// goroutines as long as each holds its own CallArena (see scratchPool).
type Function struct {
	id        uuid.UUID
	graph     *graph.Graph
	run       RunFunc
	resources ir.ResourceHandles
	arenas    *scratchPool

	EnableStats bool
	statsMu     sync.Mutex
	stats       Stats
}

// scratchBytes is the per-call scratch region size handed to every arena a
// Function's pool produces. Node evaluation in this implementation never
// needs scratch beyond small resource-call argument/result framing, so a
// fixed modest size covers it without per-graph sizing logic.
const scratchBytes = 4096

func newFunction(g *graph.Graph, run RunFunc, resources ir.ResourceHandles) *Function {
	return &Function{
		id:        uuid.New(),
		graph:     g,
		run:       run,
		resources: resources,
		arenas:    newScratchPool(g.InputLayout.Size(), g.OutputLayout.Size(), scratchBytes),
	}
}

// ID is a stable per-process identifier for logging/tracing a loaded
// function, not part of any wire format.
func (f *Function) ID() uuid.UUID { return f.id }

// Graph returns the graph this function was compiled from.
func (f *Function) Graph() *graph.Graph { return f.graph }

// EvalRaw invokes the compiled function against an already-encoded input
// buffer, borrowing a CallArena from the function's scratch pool so a tight
// calling loop (or a concurrent BatchEvalRaw) doesn't allocate a fresh
// input/output/scratch buffer on every call. It recovers a panic inside the
// loaded symbol into an error instead of letting it cross into the
// caller's frame — the same panic-boundary discipline the resource package
// applies to plugin calls.
func (f *Function) EvalRaw(input []byte) (output []byte, status int64, err error) {
	start := time.Now()
	arena := f.arenas.Get()
	defer f.arenas.Put(arena)
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in compiled function: %v", r)
		}
		if f.EnableStats {
			f.statsMu.Lock()
			f.stats.Calls++
			f.stats.TotalNanos += time.Since(start).Nanoseconds()
			f.stats.LastStatus = status
			f.statsMu.Unlock()
		}
	}()

	in := arena.Input()
	copy(in, input)
	status = f.run(in, arena.Output())
	output = append([]byte(nil), arena.Output()...)
	return output, status, nil
}

// Eval encodes v against the function's input layout, calls EvalRaw, and
// decodes the output buffer against the output layout, translating a
// nonzero status through ir.StatusTable. Encode and Decode both run against
// a fresh symtab.ForCall view rather than the graph's shared top-layer
// table: a top layer has no new layer, so inserting a symbol the graph has
// never seen (e.g. an unrecognized mapping key in the input) would intern it
// into the graph's shared top layer, and sharing the top layer directly
// across concurrent calls would race.
func (f *Function) Eval(v any) (any, error) {
	sym := symtab.ForCall(f.graph.Symbols)

	input, err := f.graph.InputLayout.Encode(v, sym)
	if err != nil {
		return nil, fmt.Errorf("encode input: %w", err)
	}
	output, status, err := f.EvalRaw(input)
	if err != nil {
		return nil, err
	}
	if status != 0 {
		return nil, ir.NewStatusTable(sym).Translate(status)
	}
	return f.graph.OutputLayout.Decode(output, sym)
}

// EvalJSON decodes a JSON-encoded input object, tolerating minor syntax
// errors a hand-assembled string might contain (trailing commas, unquoted
// keys) by running it through jsonrepair before json.Unmarshal, then calls
// Eval and re-encodes the result as JSON.
func (f *Function) EvalJSON(input string) (string, error) {
	var v any
	if err := json.Unmarshal([]byte(input), &v); err != nil {
		repaired, repairErr := jsonrepair.JSONRepair(input)
		if repairErr != nil {
			return "", fmt.Errorf("invalid input JSON: %w", err)
		}
		if err := json.Unmarshal([]byte(repaired), &v); err != nil {
			return "", fmt.Errorf("invalid input JSON even after repair: %w", err)
		}
	}

	result, err := f.Eval(v)
	if err != nil {
		return "", err
	}
	out, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("encode output JSON: %w", err)
	}
	return string(out), nil
}

// Stats returns a snapshot of this function's call accounting. It reads
// zero values unless EnableStats was set before any EvalRaw call.
func (f *Function) Stats() Stats {
	f.statsMu.Lock()
	defer f.statsMu.Unlock()
	return f.stats
}
