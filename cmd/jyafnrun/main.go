package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/sbl8/jyafn/artifact"
	"github.com/sbl8/jyafn/compiler"
)

func main() {
	var (
		backend = flag.String("backend", "", "Backend executable (defaults to JYAFN_BACKEND or jyafn-backend)")
		verbose = flag.Bool("verbose", false, "Print diagnostics to stderr")
		version = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *version {
		fmt.Println("jyafnrun - jyafn function runner v1.0.0")
		return
	}

	args := flag.Args()
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] <artifact.jyafn> [input.json]\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}

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

	fn.EnableStats = *verbose
	if *verbose {
		fmt.Fprintf(os.Stderr, "loaded %s: %d nodes\n", args[0], g.NodeCount())
	}

	var inputJSON []byte
	if len(args) > 1 {
		inputJSON, err = os.ReadFile(args[1])
		if err != nil {
			log.Fatalf("read input: %v", err)
		}
	} else {
		inputJSON, err = readAllStdin()
		if err != nil {
			log.Fatalf("read stdin: %v", err)
		}
	}

	outputJSON, err := fn.EvalJSON(string(inputJSON))
	if err != nil {
		log.Fatalf("eval failed: %v", err)
	}

	fmt.Println(outputJSON)

	if *verbose {
		stats := fn.Stats()
		fmt.Fprintf(os.Stderr, "calls=%d total=%dns\n", stats.Calls, stats.TotalNanos)
	}
}

func readAllStdin() ([]byte, error) {
	reader := bufio.NewReader(os.Stdin)
	return io.ReadAll(reader)
}
