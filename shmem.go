package shmem

import "sync/atomic"

// Memory is one linear arena of shared bytes.
//
// Read returns a live view into the arena: mutations through the returned
// slice are visible to every agent holding the same arena. Implementations
// never grow the arena, so views stay valid for the arena's lifetime.
type Memory interface {
	Size() uint32
	Read(offset, length uint32) ([]byte, error)
	Write(offset uint32, data []byte) error
	ReadU8(offset uint32) (uint8, error)
	ReadU16(offset uint32) (uint16, error)
	ReadU32(offset uint32) (uint32, error)
	ReadU64(offset uint32) (uint64, error)
	WriteU8(offset uint32, value uint8) error
	WriteU16(offset uint32, value uint16) error
	WriteU32(offset uint32, value uint32) error
	WriteU64(offset uint32, value uint64) error

	// Word returns an atomic view of the 4-byte cell at offset.
	// The offset must be 4-byte aligned and in bounds.
	Word(offset uint32) (*atomic.Uint32, error)
}

// Allocator allocates memory inside a shared arena.
//
// Alloc returns the address of size bytes aligned to align, or a
// non-nil error when the arena is exhausted. Free releases an
// allocation made by Alloc; size and align must match the original
// request. Allocators are not internally synchronized: concurrent
// allocation from multiple agents must be serialized by the caller.
type Allocator interface {
	Alloc(size, align uint32) (uint32, error)
	Free(ptr, size, align uint32) error
}
