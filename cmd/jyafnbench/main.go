package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"runtime"
	"time"

	"github.com/sbl8/jyafn/artifact"
	"github.com/sbl8/jyafn/compiler"
)

var (
	workers = flag.Int("workers", runtime.NumCPU(), "Number of worker goroutines")
	calls   = flag.Int("calls", 10000, "Number of calls to issue")
	backend = flag.String("backend", "", "Backend executable (defaults to JYAFN_BACKEND or jyafn-backend)")
	verbose = flag.Bool("verbose", false, "Verbose output")
)

func main() {
	flag.Parse()

	args := flag.Args()
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] <artifact.jyafn> [input.json]\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}

	fmt.Printf("jyafn Performance Analysis Tool\n")
	fmt.Printf("================================\n")
	fmt.Printf("Go Version: %s\n", runtime.Version())
	fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	fmt.Printf("Workers: %d\n", *workers)
	fmt.Printf("Calls: %d\n\n", *calls)

	artifactData, err := os.ReadFile(args[0])
	if err != nil {
		log.Fatalf("read artifact: %v", err)
	}
	g, err := artifact.Load(artifactData, true)
	if err != nil {
		log.Fatalf("invalid artifact: %v", err)
	}

	opts := compiler.DefaultCompileOptions()
	if *backend != "" {
		opts.Backend = []string{*backend}
	}
	fn, err := compiler.CompileOrInterpret(g, nil, opts)
	if err != nil {
		log.Fatalf("compilation failed: %v", err)
	}
	fn.EnableStats = true

	sampleInput := make([]byte, g.InputLayout.Size())
	if len(args) > 1 {
		data, err := os.ReadFile(args[1])
		if err != nil {
			log.Fatalf("read input: %v", err)
		}
		var v any
		if err := json.Unmarshal(data, &v); err != nil {
			log.Fatalf("parse input: %v", err)
		}
		sampleInput, err = g.InputLayout.Encode(v, g.Symbols)
		if err != nil {
			log.Fatalf("encode input: %v", err)
		}
	}

	inputs := make([][]byte, *calls)
	for i := range inputs {
		inputs[i] = sampleInput
	}

	start := time.Now()
	results := compiler.BatchEvalRaw(fn, inputs, *workers)
	elapsed := time.Since(start)

	failed := 0
	for _, r := range results {
		if r.Err != nil || r.Status != 0 {
			failed++
		}
	}

	callsPerSecond := float64(len(inputs)) / elapsed.Seconds()
	fmt.Printf("Elapsed:          %v\n", elapsed)
	fmt.Printf("Throughput:       %.2f calls/s\n", callsPerSecond)
	fmt.Printf("Failures:         %d/%d\n", failed, len(inputs))

	if *verbose {
		stats := fn.Stats()
		fmt.Printf("Recorded calls:   %d\n", stats.Calls)
		fmt.Printf("Avg latency:      %v\n", time.Duration(stats.TotalNanos/max64(stats.Calls, 1)))
	}
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
