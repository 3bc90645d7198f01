// Package wasmbin is a bidirectional codec for the WebAssembly binary format.
//
// Decoding a module and encoding it again reproduces the input exactly for
// every region the caller did not touch. Sections and function bodies are
// decoded lazily, on first access, so tools that rewrite one function never
// pay for parsing the rest of the module.
//
// # Architecture Overview
//
//	wasmbin/
//	├── wasm/            Module, sections, instructions and the Visitor
//	│   └── internal/    LEB128 reader and writer over byte windows
//	├── errors/          Structured errors with phase, kind, path and offset
//	└── cmd/wasmbin/     Inspector CLI with an interactive section browser
//
// # Quick Start
//
// Rewrite every call target and write the module back:
//
//	m, err := wasm.Decode(data)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	err = wasm.VisitAll(m, func(f *wasm.FuncID) error {
//	    *f = remap[*f]
//	    return nil
//	})
//
//	out, err := wasm.Encode(m)
//
// # Feature Configuration
//
// Post-MVP proposals are opt-in. Enabling a feature only ever adds
// recognized tags and opcodes; it never reinterprets bytes that an
// MVP decoder accepts:
//
//	cfg := wasm.MustConfig(wasm.Options{
//	    Features: wasm.FeatureSIMD | wasm.FeatureThreads,
//	})
//	m, err := cfg.Decode(data)
//
// # Thread Safety
//
// Forcing a lazy region is safe from many goroutines and decodes it once.
// Mutating a Module is not synchronized and must be done by one goroutine.
package wasmbin
