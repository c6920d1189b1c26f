package lock

import (
	"sync/atomic"

	"github.com/hcz/wasm-shmem/errors"
	"github.com/hcz/wasm-shmem/internal/futex"
	"github.com/hcz/wasm-shmem/memory"
)

// Cell geometry shared by Lock and Signal.
const (
	CellSize  = 4
	CellAlign = 4
)

// unlocked is the cell value of a lock nobody holds.
const unlocked = 1

// Lock is a cross-agent mutual-exclusion primitive over one 32-bit cell in
// shared memory. The zero value is not usable; construct with New or Attach.
type Lock struct {
	cell *atomic.Uint32
	held uint32 // agent-local reentrancy depth, plain state
}

// New places a lock over the 4-byte cell at offset inside r and initializes
// it to unlocked. Use once, on the agent that created the bytes.
func New(r *memory.MemoryRange, offset uint32) *Lock {
	l := &Lock{cell: r.Word(offset)}
	l.cell.Store(unlocked)
	return l
}

// Attach places a lock over a cell initialized by another agent. The cell's
// current state is trusted as-is.
func Attach(r *memory.MemoryRange, offset uint32) *Lock {
	return &Lock{cell: r.Word(offset)}
}

// Holds reports whether this agent currently holds the lock.
func (l *Lock) Holds() bool {
	return l.held > 0
}

// Acquire blocks until this agent holds the lock. Re-entering while already
// holding never blocks; each Acquire must be paired with a Release.
func (l *Lock) Acquire() {
	if l.held > 0 {
		l.held++
		return
	}
	for {
		v := l.cell.Load()
		if v > 0 {
			if l.cell.CompareAndSwap(v, v-1) {
				l.held = 1
				return
			}
			continue
		}
		switch res := futex.Wait(l.cell, v); res {
		case futex.OK, futex.NotEqual:
			// Woken or the cell moved; retry the acquisition.
		default:
			panic(errors.PrimitiveContract("atomic wait returned %q while acquiring a lock", res))
		}
	}
}

// Release gives the lock up. The final release of a reentrant chain
// increments the shared cell by exactly one and wakes one waiter.
func (l *Lock) Release() {
	if l.held == 0 {
		panic(errors.New(errors.PhaseSync, errors.KindInvalidInput).
			Detail("release of a lock this agent does not hold").Build())
	}
	if l.held > 1 {
		l.held--
		return
	}
	l.held = 0
	l.cell.Add(1)
	futex.Notify(l.cell, 1)
}

// RunLocked runs fn while holding the lock, releasing it however fn exits.
func (l *Lock) RunLocked(fn func()) {
	l.Acquire()
	defer l.Release()
	fn()
}
