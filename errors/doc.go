// Package errors provides structured error types for the wire runtime.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type carries a field path, the schema type name, and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseRead, errors.KindInvalidPointer).
//		Path("person", "phones").
//		Type("list<phone>").
//		Detail("pointer tag %d", tag).
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.OutOfBounds(errors.PhaseBuild, path, 10, 5)
//	err := errors.Capacity(errors.PhaseAllocate, 0, 100, 64)
//
// All errors implement the standard error interface and support errors.Is/As.
// IsKind matches on Kind alone, regardless of phase.
package errors
