// Package memory provides shared linear-memory arenas and bounds-checked
// ranges over them.
//
// A SharedMemory wraps one arena (a raw byte buffer plus its allocator) and
// hands out MemoryRange windows into it. Arenas carry a stable id so ranges
// can cross agent boundaries as MemoryLocation values and be resolved by the
// peer against its own wrapper over the identical physical bytes.
//
// # Arena backends
//
// Two backends are provided:
//
//   - NewHost builds an in-process arena over a Go byte slice with a
//     first-fit free-list allocator. This is the backend for goroutine
//     agents and tests.
//   - NewModule builds an arena over a WebAssembly module's linear memory,
//     calling the module's exported allocator (aligned_alloc/malloc/free)
//     through wazero.
//
// # Sharing between agents
//
// Transferable() produces the {id, module, memory} descriptor an agent sends
// once per peer; NewFromTransferable reconstructs an equivalent wrapper on
// the receiving side. Individual structures travel as MemoryLocation values
// and are resolved with Resolve, which rejects cross-arena ids.
//
// # Error model
//
// Construction-time violations (bounds, ids, allocation failure) are
// returned as *errors.Error values. Per-access violations on an already
// constructed range are programming defects and panic.
//
// The arena's allocator is not internally synchronized. Concurrent
// allocation from several agents must be serialized by the integrator,
// for example with a dedicated allocation Lock.
package memory
