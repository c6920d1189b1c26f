package memory

import "github.com/hcz/wasm-shmem/errors"

// MemoryLocation is the serializable coordinates of a range: the arena id
// plus the absolute pointer and size. It is the wire value one agent sends
// to hand a specific allocated structure to another.
type MemoryLocation struct {
	Memory struct {
		ID string `json:"id"`
	} `json:"memory"`
	Ptr  uint32 `json:"ptr"`
	Size uint32 `json:"size"`
}

// Resolve turns a location received from a peer into a local range over the
// same physical bytes. Resolution fails with a location_mismatch error when
// the location belongs to a different arena; foreign bytes are never
// interpreted silently.
func Resolve(arena *SharedMemory, loc MemoryLocation) (*MemoryRange, error) {
	if loc.Memory.ID != arena.id {
		return nil, errors.LocationMismatch(loc.Memory.ID, arena.id)
	}
	return arena.newRange(loc.Ptr, loc.Size, 1, false)
}

// ResolveReadonly is Resolve for immutable windows.
func ResolveReadonly(arena *SharedMemory, loc MemoryLocation) (*ReadonlyMemoryRange, error) {
	if loc.Memory.ID != arena.id {
		return nil, errors.LocationMismatch(loc.Memory.ID, arena.id)
	}
	return arena.Readonly(loc.Ptr, loc.Size)
}
