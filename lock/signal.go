package lock

import (
	"sync/atomic"

	"github.com/hcz/wasm-shmem/errors"
	"github.com/hcz/wasm-shmem/internal/futex"
	"github.com/hcz/wasm-shmem/memory"
)

// Signal is a one-shot, cross-agent readiness flag over one 32-bit cell:
// 0 is unresolved, 1 is resolved. The zero value is not usable; construct
// with NewSignal or AttachSignal.
type Signal struct {
	cell *atomic.Uint32
}

// NewSignal places a signal over the 4-byte cell at offset inside r and
// initializes it to unresolved.
func NewSignal(r *memory.MemoryRange, offset uint32) *Signal {
	s := &Signal{cell: r.Word(offset)}
	s.cell.Store(0)
	return s
}

// AttachSignal places a signal over a cell initialized by another agent.
func AttachSignal(r *memory.MemoryRange, offset uint32) *Signal {
	return &Signal{cell: r.Word(offset)}
}

// IsResolved is a pure non-blocking read of the flag.
func (s *Signal) IsResolved() bool {
	return s.cell.Load() != 0
}

// Wait blocks the calling agent until the signal resolves. Returns
// immediately if it already has.
func (s *Signal) Wait() {
	for s.cell.Load() == 0 {
		switch res := futex.Wait(s.cell, 0); res {
		case futex.OK, futex.NotEqual:
			// Re-check the cell; a one-shot flag never reverts, so this
			// loop terminates as soon as the store is visible.
		default:
			panic(errors.PrimitiveContract("atomic wait returned %q while waiting on a signal", res))
		}
	}
}

// WaitAsync returns a channel that is closed once the signal resolves. When
// the signal already resolved the channel comes back closed: the synchronous
// path, nothing blocks. Intended for agents that must not stall their
// control flow.
func (s *Signal) WaitAsync() <-chan struct{} {
	done, _ := futex.WaitAsync(s.cell, 0)
	return done
}

// Resolve stores the resolved value and wakes every waiting agent. Calling
// it again is idempotent at the value level but still wakes waiters.
func (s *Signal) Resolve() {
	s.cell.Store(1)
	futex.Notify(s.cell, -1)
}

// ResolveSome stores the resolved value and wakes at most count waiting
// agents.
func (s *Signal) ResolveSome(count int) {
	s.cell.Store(1)
	futex.Notify(s.cell, count)
}
