// Package shmem provides a shared-memory object model for concurrent agents.
//
// Several independent agents (goroutines, each holding their own wrapper
// instances) share one physical linear-memory arena, synchronize access with
// atomics-based locks, and describe structured data inside it through a
// byte-exact layout system.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct
// responsibilities:
//
//	wasm-shmem/          Root package with core Memory and Allocator interfaces
//	├── memory/          SharedMemory arenas, bounds-checked ranges, locations
//	├── lock/            Cross-agent Lock and one-shot Signal primitives
//	├── record/          Declarative field layouts and live views over raw bytes
//	├── object/          SharedObject base type and the Synchronized combinator
//	├── errors/          Structured error types for debugging
//	└── internal/futex/  Address-keyed wait/notify substrate
//
// # Quick Start
//
// Create an arena, allocate a shared object, and hand it to another agent:
//
//	arena, err := memory.NewHost(1 << 20)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	counter, err := object.NewCounter(arena)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	loc := counter.Location()
//
//	// In another agent, over the same physical bytes:
//	peer, err := memory.NewFromTransferable(arena.Transferable())
//	rng, err := memory.Resolve(peer, loc)
//	same, err := object.AttachCounter(rng)
//	same.Increment()
//
// # Memory Model
//
// An acquire that takes a Lock establishes happens-before with the release
// that last gave it up: writes made inside a critical section are visible to
// the next holder. Memory touched outside a critical section has no ordering
// guarantees unless it follows a strict single-writer pattern like Signal.
//
// Arenas never grow. There is no realloc: callers that need a larger range
// allocate a new one and copy.
//
// # Thread Safety
//
// SharedMemory, ranges, records, and objects are per-agent views: each agent
// constructs its own wrappers (via Transferable and MemoryLocation) over the
// shared bytes. A single wrapper instance is not safe for concurrent use by
// multiple goroutines; the shared bytes underneath are, subject to the Lock
// discipline.
package shmem
