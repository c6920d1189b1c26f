// Package futex provides an address-keyed wait/notify substrate for atomic
// cells living inside shared arenas.
//
// The API mirrors the futex shape: a waiter parks only while the cell still
// holds an expected value, and a notifier wakes a bounded number of parked
// waiters. Go exposes no raw futex, so parking is implemented with a global
// table of waiter queues keyed by cell address. The expected-value check is
// performed under the table lock, so a notify between the caller's load and
// the park cannot be lost.
//
// Waits are unbounded. There is no timeout path: the primitive either
// returns NotEqual immediately or parks until woken.
package futex

import (
	"sync"
	"sync/atomic"
)

// Result is the outcome of a Wait.
type Result int

const (
	// OK means the waiter parked and was woken by a Notify.
	OK Result = iota
	// NotEqual means the cell no longer held the expected value.
	NotEqual
)

func (r Result) String() string {
	switch r {
	case OK:
		return "ok"
	case NotEqual:
		return "not-equal"
	default:
		return "invalid"
	}
}

var table = struct {
	mu      sync.Mutex
	waiters map[*atomic.Uint32][]chan struct{}
}{
	waiters: make(map[*atomic.Uint32][]chan struct{}),
}

// Wait parks the calling goroutine while cell holds expected.
// It returns NotEqual without parking if the cell already differs,
// and OK once a Notify wakes it.
func Wait(cell *atomic.Uint32, expected uint32) Result {
	table.mu.Lock()
	if cell.Load() != expected {
		table.mu.Unlock()
		return NotEqual
	}
	ch := make(chan struct{})
	table.waiters[cell] = append(table.waiters[cell], ch)
	table.mu.Unlock()

	<-ch
	return OK
}

// WaitAsync returns a channel that is closed once the cell stops holding
// expected. If the cell already differs the returned channel is closed and
// pending is false: the caller observed the synchronous path and nothing
// blocks. Otherwise pending is true and the channel closes on a later Notify.
func WaitAsync(cell *atomic.Uint32, expected uint32) (done <-chan struct{}, pending bool) {
	table.mu.Lock()
	defer table.mu.Unlock()

	ch := make(chan struct{})
	if cell.Load() != expected {
		close(ch)
		return ch, false
	}
	table.waiters[cell] = append(table.waiters[cell], ch)
	return ch, true
}

// Notify wakes up to count waiters parked on cell and reports how many it
// woke. A negative count wakes all of them.
func Notify(cell *atomic.Uint32, count int) int {
	table.mu.Lock()
	defer table.mu.Unlock()

	queue := table.waiters[cell]
	if len(queue) == 0 {
		return 0
	}

	n := len(queue)
	if count >= 0 && count < n {
		n = count
	}
	for _, ch := range queue[:n] {
		close(ch)
	}
	rest := queue[n:]
	if len(rest) == 0 {
		delete(table.waiters, cell)
	} else {
		table.waiters[cell] = append([]chan struct{}(nil), rest...)
	}
	return n
}
