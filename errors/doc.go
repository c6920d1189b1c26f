// Package errors provides structured error types for the wasm-shmem library.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error
// category). The Error type includes rich context: the arena id, the offending
// pointer/size pair, and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseAccess, errors.KindOutOfBounds).
//		Arena(arenaID).
//		Ptr(ptr).
//		Size(size).
//		Detail("range end %d exceeds buffer length %d", end, length).
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.OutOfBounds(errors.PhaseAccess, ptr, size, bufLen)
//	err := errors.AllocationFailed(size, align, bufLen)
//
// All errors implement the standard error interface and support errors.Is/As.
// Primitive-contract violations (an impossible outcome from an atomic wait)
// are fatal by design and raised via panic, not returned.
package errors
