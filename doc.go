// Package jyafn implements a just-in-time compiler for pure, side-effect-free
// numeric functions expressed as directed acyclic computational graphs.
//
// A graph is built programmatically against the graph.Builder contract, then
// sealed and either compiled directly or serialized to a portable artifact.
// Compilation lowers the graph to an intermediate representation, hands that
// IR to an external backend/assembler/linker toolchain, and loads the
// resulting shared object as a callable Function. Callers invoke the
// compiled function against flat input/output buffers whose shape is
// described by a layout.Layout.
//
// # Architecture Overview
//
// The pipeline consists of several independent packages:
//
//   - graph: append-only DAG builder, node algebra, constant folding
//   - layout: structured value <-> flat float64 buffer (de)coding
//   - symtab: append-only interned string table (top + per-call layers)
//   - mapping: immutable sorted key->value tables compiled into functions
//   - resource: dynamically loaded native extensions exposing opaque objects
//   - ir: rendering of a graph to a textual IR (one line per node) and a reference interpreter
//   - compiler: IR -> assembly -> object -> shared object -> loaded Function
//   - artifact: zip-packaged, versioned serialization of a sealed graph
//
// # Call protocol
//
// A compiled Function exposes eval_raw/eval/eval_json operations (§4.8):
// the host encodes structured input into a fixed-size buffer, invokes the
// loaded machine function pointer, and decodes the fixed-size output buffer.
// Errors surface as a nonzero status id translated through the function's
// status table.
//
// # Package Structure
//
//   - core: cache-line alignment helpers for call buffers
//   - graph: the DAG data model and builder
//   - layout: the declarative buffer schema system
//   - symtab: interned symbol table
//   - mapping: immutable sorted lookup tables
//   - resource: native extension ABI and lifecycle
//   - ir: lowering pass
//   - compiler: compile pipeline and runtime call surface
//   - artifact: portable serialized format
//   - env: JYAFN_PATH / JYAFN_SOPATH configuration
//   - cmd: command-line tools (jyafnc, jyafnrun, jyafnbench)
//
// For more information see the project repository at
// https://github.com/sbl8/jyafn
package jyafn
