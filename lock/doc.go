// Package lock provides cross-agent synchronization primitives over single
// 32-bit cells in shared memory.
//
// Lock is a strict mutex with agent-local reentrancy. The shared cell holds
// 1 when unlocked and 0 when held; acquisition decrements it with a
// compare-and-swap only when the observed value is positive, and release
// increments it by exactly one and wakes one parked waiter. The reentrancy
// counter is ordinary non-atomic state inside each agent's Lock value: only
// the shared cell is touched atomically.
//
// Signal is a one-shot readiness flag: the cell transitions 0 to 1 once in
// meaning, though repeated Resolve calls are idempotent at the value level
// and still wake additional waiters.
//
// A successful acquire establishes happens-before with the release that last
// incremented the cell, so writes made inside a critical section are visible
// to the next holder.
//
// Waits are unbounded; there are no timeouts at this layer. An outcome the
// wait primitive's contract rules out is raised as a fatal panic, never
// retried.
//
// Each agent must construct its own Lock or Signal value over the shared
// cell (New on the creating side, Attach everywhere else). A single value is
// not safe for concurrent use by multiple goroutines.
package lock
