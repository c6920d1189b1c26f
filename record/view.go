package record

import (
	"github.com/hcz/wasm-shmem/errors"
	"github.com/hcz/wasm-shmem/lock"
	"github.com/hcz/wasm-shmem/memory"
)

// Mode selects how a view treats the bytes it is loaded over.
type Mode int

const (
	// NewMode initializes embedded lock and signal cells; use on the agent
	// that just allocated the bytes.
	NewMode Mode = iota
	// ExistingMode trusts bytes already initialized by whichever agent
	// created them.
	ExistingMode
)

// View is a live window presenting a Type's fields over a backing range.
// Scalar accessors proxy every read and write to the range: there is no
// separate copy. Nested object fields are loaded lazily and cached; lock
// and signal fields are cached so their agent-local state survives repeated
// access.
//
// A View is a per-agent value and is not safe for concurrent use by
// multiple goroutines.
type View struct {
	typ     *Type
	rng     *memory.MemoryRange
	base    uint32
	objects map[string]*View
	locks   map[string]*lock.Lock
	signals map[string]*lock.Signal
}

// Load places the layout over r at baseOffset. In NewMode every embedded
// lock and signal cell, including those of nested objects, is initialized
// before the view is returned, so the bytes are safe to share immediately.
func (t *Type) Load(r *memory.MemoryRange, baseOffset uint32, mode Mode) (*View, error) {
	if uint64(baseOffset)+uint64(t.size) > uint64(r.Size()) {
		return nil, errors.New(errors.PhaseAttach, errors.KindOutOfBounds).
			Ptr(r.Ptr() + baseOffset).Size(t.size).
			Detail("layout of %d bytes at offset %d exceeds range size %d", t.size, baseOffset, r.Size()).
			Build()
	}
	if abs := r.Ptr() + baseOffset; t.align > 1 && abs%t.align != 0 {
		return nil, errors.Misaligned(errors.PhaseAttach, abs, t.align)
	}

	if mode == NewMode {
		initCells(t, r, baseOffset)
	}
	return &View{typ: t, rng: r, base: baseOffset}, nil
}

// initCells writes the initial value of every lock and signal cell in the
// layout, recursing into nested objects. Plain stores are sufficient: the
// bytes are not shared until after Load returns.
func initCells(t *Type, r *memory.MemoryRange, base uint32) {
	for _, name := range t.order {
		f := t.fields[name]
		switch ft := f.typ.(type) {
		case valueType:
			switch ft.kind {
			case kindLock:
				r.PutU32(base+f.offset, 1)
			case kindSignal:
				r.PutU32(base+f.offset, 0)
			}
		case objectType:
			initCells(ft.typ, r, base+f.offset)
		}
	}
}

// Type returns the view's layout.
func (v *View) Type() *Type { return v.typ }

// BackingRange returns the view's backing range.
func (v *View) BackingRange() *memory.MemoryRange { return v.rng }

func (v *View) value(name string, want valueKind) compiledField {
	f := v.typ.field(name)
	vt, ok := f.typ.(valueType)
	if !ok || vt.kind != want {
		panic(errors.New(errors.PhaseAccess, errors.KindInvalidInput).
			Detail("field %q is not %s", name, want).Build())
	}
	return f
}

func (v *View) U8(name string) uint8 { return v.rng.U8(v.base + v.value(name, kindU8).offset) }

func (v *View) U16(name string) uint16 { return v.rng.U16(v.base + v.value(name, kindU16).offset) }

func (v *View) U32(name string) uint32 { return v.rng.U32(v.base + v.value(name, kindU32).offset) }

func (v *View) U64(name string) uint64 { return v.rng.U64(v.base + v.value(name, kindU64).offset) }

func (v *View) I32(name string) int32 { return v.rng.I32(v.base + v.value(name, kindI32).offset) }

func (v *View) I64(name string) int64 { return v.rng.I64(v.base + v.value(name, kindI64).offset) }

func (v *View) SetU8(name string, val uint8) { v.rng.PutU8(v.base+v.value(name, kindU8).offset, val) }

func (v *View) SetU16(name string, val uint16) {
	v.rng.PutU16(v.base+v.value(name, kindU16).offset, val)
}

func (v *View) SetU32(name string, val uint32) {
	v.rng.PutU32(v.base+v.value(name, kindU32).offset, val)
}

func (v *View) SetU64(name string, val uint64) {
	v.rng.PutU64(v.base+v.value(name, kindU64).offset, val)
}

func (v *View) SetI32(name string, val int32) {
	v.rng.PutI32(v.base+v.value(name, kindI32).offset, val)
}

func (v *View) SetI64(name string, val int64) {
	v.rng.PutI64(v.base+v.value(name, kindI64).offset, val)
}

// Range resolves a RangeOf field's stored (ptr, size) pair against the
// view's arena.
func (v *View) Range(name string) (*memory.MemoryRange, error) {
	f := v.value(name, kindRange)
	ptr := v.rng.U32(v.base + f.offset)
	size := v.rng.U32(v.base + f.offset + 4)
	return v.rng.Arena().PreAllocated(ptr, size)
}

// SetRange stores a range's (ptr, size) pair into a RangeOf field. The
// range must belong to the view's arena.
func (v *View) SetRange(name string, r *memory.MemoryRange) error {
	f := v.value(name, kindRange)
	if !v.rng.Arena().IsSame(r.Arena()) {
		return errors.LocationMismatch(r.Arena().ID(), v.rng.Arena().ID())
	}
	v.rng.PutU32(v.base+f.offset, r.Ptr())
	v.rng.PutU32(v.base+f.offset+4, r.Size())
	return nil
}

// ReadonlyRange resolves a ReadonlyRangeOf field.
func (v *View) ReadonlyRange(name string) (*memory.ReadonlyMemoryRange, error) {
	f := v.value(name, kindReadonlyRange)
	ptr := v.rng.U32(v.base + f.offset)
	size := v.rng.U32(v.base + f.offset + 4)
	return v.rng.Arena().Readonly(ptr, size)
}

// SetReadonlyRange stores an immutable range's coordinates.
func (v *View) SetReadonlyRange(name string, r *memory.ReadonlyMemoryRange) error {
	f := v.value(name, kindReadonlyRange)
	if !v.rng.Arena().IsSame(r.Arena()) {
		return errors.LocationMismatch(r.Arena().ID(), v.rng.Arena().ID())
	}
	v.rng.PutU32(v.base+f.offset, r.Ptr())
	v.rng.PutU32(v.base+f.offset+4, r.Size())
	return nil
}

// Lock returns the Lock embedded in a LockCell field. The instance is
// cached so the agent-local reentrancy state persists across calls.
func (v *View) Lock(name string) *lock.Lock {
	if l, ok := v.locks[name]; ok {
		return l
	}
	f := v.value(name, kindLock)
	l := lock.Attach(v.rng, v.base+f.offset)
	if v.locks == nil {
		v.locks = make(map[string]*lock.Lock)
	}
	v.locks[name] = l
	return l
}

// Signal returns the Signal embedded in a SignalCell field, cached like
// Lock.
func (v *View) Signal(name string) *lock.Signal {
	if s, ok := v.signals[name]; ok {
		return s
	}
	f := v.value(name, kindSignal)
	s := lock.AttachSignal(v.rng, v.base+f.offset)
	if v.signals == nil {
		v.signals = make(map[string]*lock.Signal)
	}
	v.signals[name] = s
	return s
}

// Object returns the view over a nested object field, computed on first
// access and cached. Cells were initialized when the root view was loaded,
// so the nested view always attaches to existing bytes.
func (v *View) Object(name string) *View {
	if o, ok := v.objects[name]; ok {
		return o
	}
	f := v.typ.field(name)
	ot, ok := f.typ.(objectType)
	if !ok {
		panic(errors.New(errors.PhaseAccess, errors.KindInvalidInput).
			Detail("field %q is not an object", name).Build())
	}
	o, err := ot.typ.Load(v.rng, v.base+f.offset, ExistingMode)
	if err != nil {
		// The root load validated the full layout, so a nested load
		// cannot fail; disagreement here is unrecoverable.
		panic(err)
	}
	if v.objects == nil {
		v.objects = make(map[string]*View)
	}
	v.objects[name] = o
	return o
}
