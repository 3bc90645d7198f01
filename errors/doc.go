// Package errors provides structured error types for the wasmbin codec.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type carries a field path, the absolute input offset, and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseDecode, errors.KindInvalidEncoding).
//		Path("code", "[2]", "locals").
//		Offset(0x2a).
//		Detail("too many locals").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.Truncated(off, 4, 1)
//	err := errors.UnknownTag(off, "instruction", 0xff)
//
// Kind-only sentinels (ErrTruncated, ErrUnknownTag, ...) match any phase:
//
//	if errors.Is(err, wasmerrors.ErrTruncated) { ... }
package errors
