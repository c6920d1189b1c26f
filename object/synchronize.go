package object

import (
	"github.com/hcz/wasm-shmem/lock"
)

// Synchronized wraps a value so that every access to it runs inside a
// lock's critical section. It is the statically typed equivalent of a
// dynamic lock-wrapping decorator: rather than intercepting each property,
// callers pass callbacks and the wrapper brackets them in acquire/release,
// with release guaranteed however the callback exits.
type Synchronized[T any] struct {
	lck   *lock.Lock
	value T
}

// Synchronize wraps value behind l.
func Synchronize[T any](l *lock.Lock, value T) *Synchronized[T] {
	return &Synchronized[T]{lck: l, value: value}
}

// Do performs one guarded access to the wrapped value.
func (s *Synchronized[T]) Do(fn func(T)) {
	s.lck.Acquire()
	defer s.lck.Release()
	fn(s.value)
}

// DoErr is Do for callbacks that fail.
func (s *Synchronized[T]) DoErr(fn func(T) error) error {
	s.lck.Acquire()
	defer s.lck.Release()
	return fn(s.value)
}

// RunLocked is the escape hatch for multi-step transactions that must not
// release the lock between steps. The lock is reentrant, so guarded methods
// of the wrapped value may still be called inside the callback.
func (s *Synchronized[T]) RunLocked(fn func(T)) {
	s.lck.Acquire()
	defer s.lck.Release()
	fn(s.value)
}

// Lock returns the guarding lock.
func (s *Synchronized[T]) Lock() *lock.Lock {
	return s.lck
}
