package compiler

import (
	"fmt"

	"github.com/sbl8/jyafn/core"
)

// CallArena is a single pre-allocated buffer reused across repeated calls to
// the same compiled Function, avoiding a fresh allocation per eval_raw call
// when a host evaluates the function in a tight loop. It is not safe for
// concurrent use — each goroutine calling a Function concurrently must hold
// its own CallArena (see scratchPool in batch.go).
type CallArena struct {
	buffer       []byte
	inputOffset  int
	inputSize    int
	outputOffset int
	outputSize   int
	scratchOff   int
	scratchSize  int
	scratchUsed  int
}

// NewCallArena lays out a CallArena sized for one call against the given
// input/output buffer sizes plus scratchSize bytes of node-evaluation
// scratch space, each region padded to cache-line alignment so the input
// and output regions never share a cache line with scratch writes.
func NewCallArena(inputSize, outputSize, scratchSize int) *CallArena {
	return newCallArenaWithBuffer(nil, inputSize, outputSize, scratchSize)
}

// ArenaBufferSize returns the total backing-buffer size NewCallArena (or
// newCallArenaWithBuffer) needs for the given region sizes, so a caller
// pooling the backing buffer itself (see scratchPool) can size its pool
// without duplicating the alignment arithmetic.
func ArenaBufferSize(inputSize, outputSize, scratchSize int) int {
	return core.AlignCacheLine(inputSize) + core.AlignCacheLine(outputSize) + core.AlignCacheLine(scratchSize)
}

// newCallArenaWithBuffer lays out a CallArena over an existing backing
// buffer (recycled from an ops.BufferPool by scratchPool) instead of
// allocating a fresh one, reallocating only if buf is too small. Passing a
// nil buf allocates fresh, matching NewCallArena's behavior.
func newCallArenaWithBuffer(buf []byte, inputSize, outputSize, scratchSize int) *CallArena {
	alignedInput := core.AlignCacheLine(inputSize)
	alignedOutput := core.AlignCacheLine(outputSize)
	alignedScratch := core.AlignCacheLine(scratchSize)
	total := alignedInput + alignedOutput + alignedScratch

	a := &CallArena{
		inputOffset:  0,
		inputSize:    inputSize,
		outputOffset: alignedInput,
		outputSize:   outputSize,
		scratchOff:   alignedInput + alignedOutput,
		scratchSize:  scratchSize,
	}
	if len(buf) < total {
		buf = make([]byte, total)
	}
	a.buffer = buf[:total]
	return a
}

// Input returns the call's input buffer slice, ready for the host to write
// encoded bytes into before a call.
func (a *CallArena) Input() []byte {
	return a.buffer[a.inputOffset : a.inputOffset+a.inputSize]
}

// Output returns the call's output buffer slice.
func (a *CallArena) Output() []byte {
	return a.buffer[a.outputOffset : a.outputOffset+a.outputSize]
}

// AllocScratch bump-allocates size bytes from the scratch region, reused
// across calls via Reset. Scratch is used for per-call working buffers
// (e.g. resource call argument/result framing) that would otherwise be
// allocated fresh on every eval_raw.
func (a *CallArena) AllocScratch(size int) ([]byte, error) {
	if a.scratchUsed+size > a.scratchSize {
		return nil, fmt.Errorf("scratch region exhausted: requested %d, %d available", size, a.scratchSize-a.scratchUsed)
	}
	start := a.scratchOff + a.scratchUsed
	a.scratchUsed += size
	return a.buffer[start : start+size], nil
}

// Reset reclaims the scratch region for the next call; input/output regions
// are overwritten wholesale on each call and need no explicit reset.
func (a *CallArena) Reset() {
	a.scratchUsed = 0
}
