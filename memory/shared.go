package memory

import (
	"crypto/rand"
	"encoding/hex"

	"go.uber.org/zap"

	shmem "github.com/hcz/wasm-shmem"
	"github.com/hcz/wasm-shmem/errors"
)

// SharedMemory wraps one linear-memory arena together with its allocator.
//
// Every agent holds its own SharedMemory wrapper; the underlying bytes are
// shared. Wrappers over the same physical arena carry the same id, which is
// how MemoryLocation values are validated on resolution.
//
// A SharedMemory instance is a per-agent view and is not safe for concurrent
// use by multiple goroutines.
type SharedMemory struct {
	id     string
	mem    shmem.Memory
	alloc  shmem.Allocator
	module any
	owned  map[uint32]uint32 // ptr -> size, allocations made through this wrapper
}

// Transferable is the serializable arena descriptor sent once per agent
// spawn. The receiving agent reconstructs an equivalent wrapper over the
// identical physical bytes with NewFromTransferable.
type Transferable struct {
	ID        string
	Module    any // backing module handle for module arenas, nil otherwise
	Memory    shmem.Memory
	Allocator shmem.Allocator
}

func newArenaID() string {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(errors.Wrap(errors.PhaseHost, errors.KindInvalidInput, err, "generate arena id"))
	}
	return hex.EncodeToString(b[:])
}

func newShared(id string, mem shmem.Memory, alloc shmem.Allocator, module any) *SharedMemory {
	return &SharedMemory{
		id:     id,
		mem:    mem,
		alloc:  alloc,
		module: module,
		owned:  make(map[uint32]uint32),
	}
}

// NewFromTransferable reconstructs an arena wrapper from a peer's descriptor.
func NewFromTransferable(t Transferable) (*SharedMemory, error) {
	if t.ID == "" || t.Memory == nil || t.Allocator == nil {
		return nil, errors.InvalidInput(errors.PhaseAttach, "transferable missing id, memory, or allocator")
	}
	return newShared(t.ID, t.Memory, t.Allocator, t.Module), nil
}

// Transferable produces the descriptor a peer agent needs to construct its
// own wrapper over the same physical bytes.
func (m *SharedMemory) Transferable() Transferable {
	return Transferable{ID: m.id, Module: m.module, Memory: m.mem, Allocator: m.alloc}
}

// ID returns the arena's stable cross-agent identity.
func (m *SharedMemory) ID() string {
	return m.id
}

// Memory returns the arena's raw buffer view.
func (m *SharedMemory) Memory() shmem.Memory {
	return m.mem
}

// Module returns the backing module handle, or nil for host arenas.
func (m *SharedMemory) Module() any {
	return m.module
}

// Size returns the arena's buffer length in bytes.
func (m *SharedMemory) Size() uint32 {
	return m.mem.Size()
}

// IsSame reports whether two wrappers observe the same physical memory.
// Identity is judged by the underlying buffer, not by id, so wrappers that
// disagree on ids due to misuse are still detected.
func (m *SharedMemory) IsSame(o *SharedMemory) bool {
	if o == nil {
		return false
	}
	a, errA := m.mem.Word(0)
	b, errB := o.mem.Word(0)
	return errA == nil && errB == nil && a == b
}

// Alloc allocates size bytes aligned to align via the arena's allocator.
// The returned range is zero-filled.
func (m *SharedMemory) Alloc(align, size uint32) (*MemoryRange, error) {
	ptr, err := m.alloc.Alloc(size, align)
	if err != nil || ptr == 0 {
		Logger().Error("shared memory allocation failed",
			zap.String("arena", m.id),
			zap.Uint32("align", align),
			zap.Uint32("size", size),
			zap.Uint32("buffer_length", m.mem.Size()),
			zap.Error(err))
		if err == nil {
			err = errors.AllocationFailed(size, align, m.mem.Size())
		}
		return nil, err
	}

	r, err := m.newRange(ptr, size, align, true)
	if err != nil {
		return nil, err
	}
	r.Zero()
	m.owned[ptr] = size
	return r, nil
}

// PreAllocated wraps an address established by convention (for example,
// memory exported by the module at a fixed offset) without touching the
// allocator. The same bounds check as Alloc applies.
func (m *SharedMemory) PreAllocated(ptr, size uint32) (*MemoryRange, error) {
	return m.newRange(ptr, size, 1, false)
}

// Readonly wraps [ptr, ptr+size) as an immutable window. No allocation is
// registered.
func (m *SharedMemory) Readonly(ptr, size uint32) (*ReadonlyMemoryRange, error) {
	if err := m.checkBounds(ptr, size); err != nil {
		return nil, err
	}
	return &ReadonlyMemoryRange{arena: m, ptr: ptr, size: size}, nil
}

// Free returns a range's bytes to the arena's allocator. Freeing a range
// that was not allocated through this wrapper proceeds but is flagged as an
// anomaly in the log.
func (m *SharedMemory) Free(r *MemoryRange) error {
	if _, ok := m.owned[r.ptr]; !ok {
		anom := errors.ForeignFree(m.id, r.ptr)
		Logger().Warn("anomalous free", zap.String("arena", m.id), zap.Uint32("ptr", r.ptr), zap.Error(anom))
	} else {
		delete(m.owned, r.ptr)
	}

	if err := m.alloc.Free(r.ptr, r.size, r.align); err != nil {
		Logger().Error("shared memory free failed",
			zap.String("arena", m.id),
			zap.Uint32("ptr", r.ptr),
			zap.Uint32("buffer_length", m.mem.Size()),
			zap.Error(err))
		return errors.Wrap(errors.PhaseAlloc, errors.KindAllocation, err, "free")
	}
	return nil
}

// CopyWithin copies raw bytes from src into dest, honoring both ranges'
// bounds. When the ranges differ in size the shorter one wins.
func (m *SharedMemory) CopyWithin(dest *MemoryRange, src *ReadonlyMemoryRange) error {
	n := src.size
	if dest.size < n {
		n = dest.size
	}
	data, err := src.arena.mem.Read(src.ptr, n)
	if err != nil {
		return err
	}
	return dest.arena.mem.Write(dest.ptr, data)
}

func (m *SharedMemory) checkBounds(ptr, size uint32) error {
	if uint64(ptr)+uint64(size) > uint64(m.mem.Size()) {
		return errors.New(errors.PhaseAccess, errors.KindOutOfBounds).
			Arena(m.id).Ptr(ptr).Size(size).
			Detail("range end %d exceeds buffer length %d", uint64(ptr)+uint64(size), m.mem.Size()).
			Build()
	}
	return nil
}

func (m *SharedMemory) newRange(ptr, size, align uint32, allocated bool) (*MemoryRange, error) {
	if err := m.checkBounds(ptr, size); err != nil {
		return nil, err
	}
	return &MemoryRange{
		ReadonlyMemoryRange: ReadonlyMemoryRange{arena: m, ptr: ptr, size: size},
		align:               align,
		allocated:           allocated,
	}, nil
}
