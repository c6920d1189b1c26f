package memory

import (
	"sync/atomic"

	"github.com/hcz/wasm-shmem/errors"
)

// ReadonlyMemoryRange is an immutable bounds-checked window [ptr, ptr+size)
// into an arena. It carries a back-reference to the owning arena, never
// ownership of it.
//
// Accessors take offsets relative to the range start. An access outside
// [0, size) or a multi-byte access at a misaligned address is a programming
// defect and panics with an *errors.Error.
type ReadonlyMemoryRange struct {
	arena *SharedMemory
	ptr   uint32
	size  uint32
}

// Ptr returns the range's absolute start address inside the arena.
func (r *ReadonlyMemoryRange) Ptr() uint32 { return r.ptr }

// Size returns the range's length in bytes.
func (r *ReadonlyMemoryRange) Size() uint32 { return r.size }

// Arena returns the owning arena.
func (r *ReadonlyMemoryRange) Arena() *SharedMemory { return r.arena }

// Location returns the serializable coordinates of this range.
func (r *ReadonlyMemoryRange) Location() MemoryLocation {
	loc := MemoryLocation{Ptr: r.ptr, Size: r.size}
	loc.Memory.ID = r.arena.id
	return loc
}

// addr bounds- and alignment-checks an access of length n at offset and
// returns the absolute address.
func (r *ReadonlyMemoryRange) addr(offset, n, align uint32) uint32 {
	if uint64(offset)+uint64(n) > uint64(r.size) {
		panic(errors.New(errors.PhaseAccess, errors.KindOutOfBounds).
			Arena(r.arena.id).Ptr(r.ptr + offset).Size(n).
			Detail("access at offset %d exceeds range size %d", offset, r.size).
			Build())
	}
	abs := r.ptr + offset
	if align > 1 && abs%align != 0 {
		panic(errors.Misaligned(errors.PhaseAccess, abs, align))
	}
	return abs
}

func (r *ReadonlyMemoryRange) U8(offset uint32) uint8 {
	v, err := r.arena.mem.ReadU8(r.addr(offset, 1, 1))
	mustAccess(err)
	return v
}

func (r *ReadonlyMemoryRange) U16(offset uint32) uint16 {
	v, err := r.arena.mem.ReadU16(r.addr(offset, 2, 2))
	mustAccess(err)
	return v
}

func (r *ReadonlyMemoryRange) U32(offset uint32) uint32 {
	v, err := r.arena.mem.ReadU32(r.addr(offset, 4, 4))
	mustAccess(err)
	return v
}

func (r *ReadonlyMemoryRange) U64(offset uint32) uint64 {
	v, err := r.arena.mem.ReadU64(r.addr(offset, 8, 8))
	mustAccess(err)
	return v
}

func (r *ReadonlyMemoryRange) I32(offset uint32) int32 {
	return int32(r.U32(offset))
}

func (r *ReadonlyMemoryRange) I64(offset uint32) int64 {
	return int64(r.U64(offset))
}

// Bytes returns a live view of length bytes at offset. Mutations through
// the arena are visible in the returned slice.
func (r *ReadonlyMemoryRange) Bytes(offset, length uint32) []byte {
	data, err := r.arena.mem.Read(r.addr(offset, length, 1), length)
	mustAccess(err)
	return data
}

// Word returns an atomic view of the 4-byte cell at offset.
func (r *ReadonlyMemoryRange) Word(offset uint32) *atomic.Uint32 {
	w, err := r.arena.mem.Word(r.addr(offset, 4, 4))
	mustAccess(err)
	return w
}

// MemoryRange is a mutable window into an arena.
type MemoryRange struct {
	ReadonlyMemoryRange
	align     uint32
	allocated bool
}

// Allocated reports whether this range was handed out by the arena's
// allocator (as opposed to wrapping a pre-established address).
func (r *MemoryRange) Allocated() bool { return r.allocated }

// Readonly returns an immutable view of the same window.
func (r *MemoryRange) Readonly() *ReadonlyMemoryRange {
	ro := r.ReadonlyMemoryRange
	return &ro
}

func (r *MemoryRange) PutU8(offset uint32, value uint8) {
	mustAccess(r.arena.mem.WriteU8(r.addr(offset, 1, 1), value))
}

func (r *MemoryRange) PutU16(offset uint32, value uint16) {
	mustAccess(r.arena.mem.WriteU16(r.addr(offset, 2, 2), value))
}

func (r *MemoryRange) PutU32(offset uint32, value uint32) {
	mustAccess(r.arena.mem.WriteU32(r.addr(offset, 4, 4), value))
}

func (r *MemoryRange) PutU64(offset uint32, value uint64) {
	mustAccess(r.arena.mem.WriteU64(r.addr(offset, 8, 8), value))
}

func (r *MemoryRange) PutI32(offset uint32, value int32) {
	r.PutU32(offset, uint32(value))
}

func (r *MemoryRange) PutI64(offset uint32, value int64) {
	r.PutU64(offset, uint64(value))
}

// PutBytes copies data into the range at offset.
func (r *MemoryRange) PutBytes(offset uint32, data []byte) {
	mustAccess(r.arena.mem.Write(r.addr(offset, uint32(len(data)), 1), data))
}

// Zero clears every byte in the range.
func (r *MemoryRange) Zero() {
	data, err := r.arena.mem.Read(r.ptr, r.size)
	mustAccess(err)
	clear(data)
}

// mustAccess converts an arena-level access error into a panic. The range
// already validated the access, so an error here means the range and arena
// disagree about the buffer, which is unrecoverable.
func mustAccess(err error) {
	if err != nil {
		panic(err)
	}
}
