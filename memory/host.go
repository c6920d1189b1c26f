package memory

import (
	"sort"

	"github.com/hcz/wasm-shmem/errors"
)

// heapBase is the first address the host allocator hands out. Address 0 is
// reserved as the null pointer, and keeping the base word-aligned lets the
// arena's first cell be used for buffer-identity probes.
const heapBase = 8

type span struct {
	ptr  uint32
	size uint32
}

// HostAllocator is a first-fit free-list allocator over a host arena.
// It implements shmem.Allocator.
//
// It is not internally synchronized; concurrent allocation must be
// serialized by the caller.
type HostAllocator struct {
	limit uint32
	free  []span // sorted by ptr, coalesced
}

// NewHostAllocator creates an allocator managing [heapBase, limit).
func NewHostAllocator(limit uint32) *HostAllocator {
	a := &HostAllocator{limit: limit}
	if limit > heapBase {
		a.free = []span{{ptr: heapBase, size: limit - heapBase}}
	}
	return a
}

func alignTo(v, align uint32) uint32 {
	if align <= 1 {
		return v
	}
	return (v + align - 1) &^ (align - 1)
}

// Alloc returns the address of size bytes aligned to align, or 0 with an
// error when no free span fits.
func (a *HostAllocator) Alloc(size, align uint32) (uint32, error) {
	if size == 0 {
		return 0, errors.InvalidInput(errors.PhaseAlloc, "zero-size allocation")
	}
	if align == 0 || align&(align-1) != 0 {
		return 0, errors.InvalidInput(errors.PhaseAlloc, "alignment must be a power of two")
	}

	for i, s := range a.free {
		start := alignTo(s.ptr, align)
		pad := start - s.ptr
		if pad+size > s.size {
			continue
		}

		var repl []span
		if pad > 0 {
			repl = append(repl, span{ptr: s.ptr, size: pad})
		}
		if rest := s.size - pad - size; rest > 0 {
			repl = append(repl, span{ptr: start + size, size: rest})
		}
		a.free = append(a.free[:i], append(repl, a.free[i+1:]...)...)
		return start, nil
	}
	return 0, errors.AllocationFailed(size, align, a.limit)
}

// Free returns [ptr, ptr+size) to the free list. Alignment is not needed to
// locate the block and is ignored.
func (a *HostAllocator) Free(ptr, size, align uint32) error {
	_ = align
	if ptr < heapBase || uint64(ptr)+uint64(size) > uint64(a.limit) {
		return errors.OutOfBounds(errors.PhaseAlloc, ptr, size, a.limit)
	}
	for _, s := range a.free {
		if ptr < s.ptr+s.size && s.ptr < ptr+size {
			return errors.New(errors.PhaseAlloc, errors.KindInvalidInput).
				Ptr(ptr).Size(size).
				Detail("free overlaps an already-free span").Build()
		}
	}

	a.free = append(a.free, span{ptr: ptr, size: size})
	sort.Slice(a.free, func(i, j int) bool { return a.free[i].ptr < a.free[j].ptr })

	// Coalesce adjacent spans.
	out := a.free[:1]
	for _, s := range a.free[1:] {
		last := &out[len(out)-1]
		if last.ptr+last.size == s.ptr {
			last.size += s.size
		} else {
			out = append(out, s)
		}
	}
	a.free = out
	return nil
}

// Available reports the total number of free bytes.
func (a *HostAllocator) Available() uint32 {
	var total uint32
	for _, s := range a.free {
		total += s.size
	}
	return total
}

// NewHost creates an in-process arena of the given size with a free-list
// allocator, suitable for goroutine agents.
func NewHost(size uint32) (*SharedMemory, error) {
	if size < heapBase {
		return nil, errors.InvalidInput(errors.PhaseHost, "arena smaller than the reserved heap base")
	}
	mem := newBytesMemory(size)
	return newShared(newArenaID(), mem, NewHostAllocator(size), nil), nil
}
