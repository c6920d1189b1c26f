package object

import (
	"github.com/hcz/wasm-shmem/memory"
	"github.com/hcz/wasm-shmem/record"
)

// CounterType is the layout of a shared counter: the conventional header
// followed by one u32 payload field.
var CounterType = record.MustType(append(HeaderFields(),
	record.Field{Name: "value", Type: record.U32},
))

// Counter is a shared u32 guarded by its object's embedded lock. Every
// method takes the lock for the duration of the access, in the
// hand-generated style a lock-wrapping combinator would produce.
type Counter struct {
	obj *Object
}

// NewCounter allocates a counter in the arena, starting at zero.
func NewCounter(arena *memory.SharedMemory) (*Counter, error) {
	obj, err := New(arena, CounterType)
	if err != nil {
		return nil, err
	}
	return &Counter{obj: obj}, nil
}

// AttachCounter adopts a counter created by another agent.
func AttachCounter(rng *memory.MemoryRange) (*Counter, error) {
	obj, err := Attach(rng, CounterType)
	if err != nil {
		return nil, err
	}
	return &Counter{obj: obj}, nil
}

// Value reads the counter under the lock.
func (c *Counter) Value() uint32 {
	var v uint32
	c.obj.RunLocked(func() {
		v = c.obj.view.U32("value")
	})
	return v
}

// Increment adds one under the lock and returns the new value.
func (c *Counter) Increment() uint32 {
	return c.Add(1)
}

// Add adds delta under the lock and returns the new value.
func (c *Counter) Add(delta uint32) uint32 {
	var v uint32
	c.obj.RunLocked(func() {
		v = c.obj.view.U32("value") + delta
		c.obj.view.SetU32("value", v)
	})
	return v
}

// RunLocked holds the counter's lock across a multi-step transaction. The
// lock is reentrant, so guarded methods remain callable inside fn.
func (c *Counter) RunLocked(fn func()) {
	c.obj.RunLocked(fn)
}

// ID returns the counter's object id.
func (c *Counter) ID() uint32 { return c.obj.ID() }

// Location returns the coordinates to send to a peer agent.
func (c *Counter) Location() memory.MemoryLocation {
	return c.obj.Location()
}

// Free releases the counter's bytes back to its arena.
func (c *Counter) Free() error {
	return c.obj.Free()
}
