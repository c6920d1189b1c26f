package object

import (
	"sync/atomic"

	"github.com/hcz/wasm-shmem/errors"
	"github.com/hcz/wasm-shmem/lock"
	"github.com/hcz/wasm-shmem/memory"
	"github.com/hcz/wasm-shmem/record"
)

// Conventional header field names.
const (
	FieldSize = "size"
	FieldID   = "id"
	FieldLock = "lock"
)

// HeaderFields returns the three fields every shared object's layout starts
// with. Concrete types append their own fields after these.
func HeaderFields() []record.Field {
	return []record.Field{
		{Name: FieldSize, Type: record.U32},
		{Name: FieldID, Type: record.U32},
		{Name: FieldLock, Type: record.LockCell},
	}
}

// nextID hands out object ids. Ids only distinguish objects within one
// process; the arena id scopes them across agents.
var nextID atomic.Uint32

// Object is a structured entity in shared memory carrying the conventional
// {size, id, lock} header. Like every wrapper in this module it is a
// per-agent view over the shared bytes.
type Object struct {
	rng  *memory.MemoryRange
	view *record.View
	lck  *lock.Lock
}

func checkHeader(typ *record.Type) error {
	for i, f := range HeaderFields() {
		off, err := typ.Offset(f.Name)
		if err != nil {
			return errors.Wrap(errors.PhaseLayout, errors.KindInvalidInput, err,
				"layout missing the shared-object header")
		}
		if want := uint32(i * 4); off != want {
			return errors.InvalidInput(errors.PhaseLayout,
				"header field "+f.Name+" is not at its conventional offset")
		}
	}
	return nil
}

// New allocates typ.Size bytes in the arena and initializes a fresh object
// over them: the size field holds the layout size, the id is freshly
// assigned, and the embedded lock starts unlocked.
func New(arena *memory.SharedMemory, typ *record.Type) (*Object, error) {
	if err := checkHeader(typ); err != nil {
		return nil, err
	}
	rng, err := arena.Alloc(typ.Alignment(), typ.Size())
	if err != nil {
		return nil, err
	}
	view, err := typ.Load(rng, 0, record.NewMode)
	if err != nil {
		return nil, err
	}
	view.SetU32(FieldSize, typ.Size())
	view.SetU32(FieldID, nextID.Add(1))
	return &Object{rng: rng, view: view, lck: view.Lock(FieldLock)}, nil
}

// Attach adopts a range whose bytes were initialized by another agent,
// typically resolved from a peer's MemoryLocation. The range size must
// exactly equal the layout size; the lock cell is trusted as-is.
func Attach(rng *memory.MemoryRange, typ *record.Type) (*Object, error) {
	if err := checkHeader(typ); err != nil {
		return nil, err
	}
	if rng.Size() != typ.Size() {
		return nil, errors.SizeMismatch(typ.Size(), rng.Size())
	}
	view, err := typ.Load(rng, 0, record.ExistingMode)
	if err != nil {
		return nil, err
	}
	return &Object{rng: rng, view: view, lck: view.Lock(FieldLock)}, nil
}

// View returns the object's live field view.
func (o *Object) View() *record.View { return o.view }

// ID returns the id stored in the object's header.
func (o *Object) ID() uint32 { return o.view.U32(FieldID) }

// Size returns the size stored in the object's header.
func (o *Object) Size() uint32 { return o.view.U32(FieldSize) }

// Lock returns the object's embedded lock.
func (o *Object) Lock() *lock.Lock { return o.lck }

// RunLocked runs fn while holding the object's embedded lock.
func (o *Object) RunLocked(fn func()) {
	o.lck.RunLocked(fn)
}

// Location returns the serializable coordinates of the object's bytes.
func (o *Object) Location() memory.MemoryLocation {
	return o.rng.Location()
}

// Free releases the backing range to the arena. Freeing from an agent that
// attached rather than allocated is flagged by the arena as an anomaly but
// still proceeds.
func (o *Object) Free() error {
	return o.rng.Arena().Free(o.rng)
}
