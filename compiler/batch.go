package compiler

import (
	"runtime"
	"sync"

	"github.com/sbl8/jyafn/ops"
)

// scratchPool hands out CallArenas for one Function, each backed by a
// buffer recycled from an ops.BufferPool instead of allocated fresh per
// call, per the usage ops.BufferPool's package doc describes. Every arena
// a given pool produces is the same size, since every call against one
// Function shares the same input/output/scratch dimensions.
type scratchPool struct {
	buffers                            *ops.BufferPool
	inputSize, outputSize, scratchSize int
}

// scratchPoolCapacity bounds how many backing buffers scratchPool
// pre-allocates; BatchEvalRaw's worker count rarely exceeds this, and a
// pool miss just allocates fresh rather than blocking.
const scratchPoolCapacity = 32

func newScratchPool(inputSize, outputSize, scratchSize int) *scratchPool {
	bufSize := ArenaBufferSize(inputSize, outputSize, scratchSize)
	return &scratchPool{
		buffers:     ops.NewBufferPool(bufSize, scratchPoolCapacity),
		inputSize:   inputSize,
		outputSize:  outputSize,
		scratchSize: scratchSize,
	}
}

func (p *scratchPool) Get() *CallArena {
	return newCallArenaWithBuffer(p.buffers.Get(), p.inputSize, p.outputSize, p.scratchSize)
}

func (p *scratchPool) Put(a *CallArena) {
	a.Reset()
	p.buffers.Put(a.buffer)
}

// BatchResult is one input's outcome from a BatchEvalRaw call, carrying the
// input's original index so a caller can recover ordering after concurrent
// completion.
type BatchResult struct {
	Index  int
	Output []byte
	Status int64
	Err    error
}

// BatchEvalRaw evaluates a batch of already-encoded input buffers against f
// concurrently across a fixed worker pool, exercising the re-entrant,
// thread-safe call path §5 requires: a compiled Function may be invoked
// from many goroutines at once, each call independent of every other apart
// from the lock-guarded Stats counters. Workers pull indices from a shared
// work channel rather than each owning a static slice of the batch, so one
// slow call doesn't leave other workers idle the way a naive static
// partition would — the same work-stealing-by-channel shape as the
// teacher's worker pool, collapsed to one stage since a batch of
// independent calls has no inter-call dependency graph to schedule around.
// workers <= 0 defaults to runtime.NumCPU().
func BatchEvalRaw(f *Function, inputs [][]byte, workers int) []BatchResult {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(inputs) {
		workers = len(inputs)
	}
	if workers == 0 {
		return nil
	}

	work := make(chan int, len(inputs))
	for i := range inputs {
		work <- i
	}
	close(work)

	results := make([]BatchResult, len(inputs))
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := range work {
				out, status, err := f.EvalRaw(inputs[i])
				results[i] = BatchResult{Index: i, Output: out, Status: status, Err: err}
			}
		}()
	}
	wg.Wait()
	return results
}
