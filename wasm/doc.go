// Package wasm decodes and encodes WebAssembly binary modules.
//
// Every node of the format implements Codec: Decode reads it from a
// Decoder and Encode writes it to an Encoder. Both carry a Config that
// decides which proposal tags and opcodes are recognized.
//
// # Supported Features
//
//	WebAssembly 2.0:
//	  - Value types i32, i64, f32, f64, funcref, externref
//	  - Functions, tables, memories, globals, imports and exports
//	  - Bulk memory, reference types, multi-value and multi-memory
//	  - All eight element segment layouts and three data segment layouts
//
//	Proposals (see Features):
//	  - SIMD: v128 and the 0xFD opcode space
//	  - Threads: shared memories and the 0xFE atomics
//	  - Exception handling: tags, throw, throw_ref, try_table, exnref
//	  - Tail calls: return_call, return_call_indirect
//	  - Memory64 and custom page sizes
//
// # Decoding
//
//	m, err := wasm.Decode(data)
//	if err != nil {
//	    var e *errors.Error
//	    if stderrors.As(err, &e) {
//	        log.Printf("%s at offset %d (%s)", e.Kind, e.Offset, errors.JoinPath(e.Path))
//	    }
//	}
//
// Decode checks the header and splits the module into sections, but keeps
// each standard section's payload as raw bytes until it is forced:
//
//	cs, _ := wasm.FindSection[*wasm.CodeSection](m)
//	code, err := cs.Force()
//	body, err := (*code)[3].Force()
//
// A region that is never forced is written back byte for byte. A forced
// region is encoded canonically, with minimal LEB128 lengths. Errors inside
// a lazy region surface when it is forced, not when the module is decoded.
// ForceAll decodes everything up front, in parallel.
//
// # Encoding
//
//	out, err := wasm.Encode(m)
//
// Sections are emitted in the order they appear in Module.Sections.
// InsertSection places new sections at their canonical position.
//
// # Visiting
//
// Walk, VisitAll and Collect traverse the module tree depth first and hand
// out pointers, so callbacks can rewrite indices, immediates and whole
// expressions in place. Collect does not force lazy regions; the others do.
//
// # LEB128 Encoding
//
// The package exposes the LEB128 helpers it uses internally:
//
//	n, size, err := wasm.ReadLEB128u(data)
//	v, size, err := wasm.ReadLEB128s(data)
//	buf = wasm.AppendLEB128u(buf, n)
package wasm
