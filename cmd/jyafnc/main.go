package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/sbl8/jyafn/artifact"
	"github.com/sbl8/jyafn/compiler"
	"github.com/sbl8/jyafn/ir"
)

func main() {
	var (
		debug   = flag.Bool("debug", false, "Print the graph's rendered IR")
		backend = flag.String("backend", "", "Backend executable (defaults to JYAFN_BACKEND or jyafn-backend)")
		version = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *version {
		fmt.Println("jyafnc - jyafn compile-check v1.0.0")
		return
	}

	args := flag.Args()
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] <artifact.jyafn>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		log.Fatalf("read artifact: %v", err)
	}

	g, err := artifact.Load(data, true)
	if err != nil {
		log.Fatalf("invalid artifact: %v", err)
	}

	if *debug {
		fmt.Println(ir.Render(g))
	}

	opts := compiler.DefaultCompileOptions()
	if *backend != "" {
		opts.Backend = []string{*backend}
	}
	if _, err := compiler.CompileOrInterpret(g, nil, opts); err != nil {
		log.Fatalf("compilation failed: %v", err)
	}

	fmt.Printf("%s: %d nodes, input %s, output %s — compiles OK\n",
		args[0], g.NodeCount(), g.InputLayout.Flavor, g.OutputLayout.Flavor)
}
