package memory

import (
	"context"
	"sync/atomic"
	"unsafe"

	"github.com/tetratelabs/wazero/api"

	"github.com/hcz/wasm-shmem/errors"
)

// Conventional allocator export names, tried in order. Guests built with
// different toolchains export different subsets.
var (
	allocNames = []string{"aligned_alloc", "cabi_realloc", "canonical_abi_realloc", "malloc"}
	freeNames  = []string{"free", "cabi_free", "canonical_abi_free", "deallocate"}
)

// mallocAlign is the strongest alignment a plain malloc export guarantees.
const mallocAlign = 8

// moduleExports is the slice of api.Module the arena needs. Narrowed for
// testability.
type moduleExports interface {
	ExportedFunction(name string) api.Function
	Memory() api.Memory
}

// NewModule creates an arena over a WebAssembly module's linear memory,
// allocating through the module's own exported allocator. The module must
// export a linear memory and one of the conventional allocator pairs
// (aligned_alloc/free, cabi_realloc/cabi_free, malloc/free).
//
// The context is retained for allocator calls made through the arena.
func NewModule(ctx context.Context, mod api.Module) (*SharedMemory, error) {
	return newModuleArena(ctx, mod, mod)
}

func newModuleArena(ctx context.Context, mod moduleExports, handle any) (*SharedMemory, error) {
	mem := mod.Memory()
	if mem == nil {
		return nil, errors.NotFound(errors.PhaseHost, "export", "memory")
	}

	alloc := &moduleAllocator{ctx: ctx}
	for _, name := range allocNames {
		if fn := mod.ExportedFunction(name); fn != nil {
			alloc.allocFn = fn
			alloc.allocName = name
			break
		}
	}
	if alloc.allocFn == nil {
		return nil, errors.NotFound(errors.PhaseHost, "allocator export", allocNames[0])
	}
	for _, name := range freeNames {
		if fn := mod.ExportedFunction(name); fn != nil {
			alloc.freeFn = fn
			alloc.freeName = name
			break
		}
	}
	if alloc.freeFn == nil {
		return nil, errors.NotFound(errors.PhaseHost, "free export", freeNames[0])
	}

	return newShared(newArenaID(), &moduleMemory{mem: mem}, alloc, handle), nil
}

// moduleAllocator adapts a guest's exported allocator to shmem.Allocator.
type moduleAllocator struct {
	ctx       context.Context
	allocFn   api.Function
	freeFn    api.Function
	allocName string
	freeName  string
}

func (a *moduleAllocator) Alloc(size, align uint32) (uint32, error) {
	var results []uint64
	var err error

	switch a.allocName {
	case "aligned_alloc":
		results, err = a.allocFn.Call(a.ctx, uint64(align), uint64(size))
	case "cabi_realloc", "canonical_abi_realloc":
		results, err = a.allocFn.Call(a.ctx, 0, 0, uint64(align), uint64(size))
	default: // malloc
		if align > mallocAlign {
			return 0, errors.Unsupported(errors.PhaseAlloc,
				"guest exports only malloc, which cannot satisfy alignments above 8")
		}
		results, err = a.allocFn.Call(a.ctx, uint64(size))
	}
	if err != nil {
		return 0, errors.Wrap(errors.PhaseAlloc, errors.KindAllocation, err, "guest allocator call")
	}
	if len(results) == 0 || uint32(results[0]) == 0 {
		return 0, errors.AllocationFailed(size, align, 0)
	}
	return uint32(results[0]), nil
}

func (a *moduleAllocator) Free(ptr, size, align uint32) error {
	var err error
	switch a.freeName {
	case "cabi_free", "canonical_abi_free":
		_, err = a.freeFn.Call(a.ctx, uint64(ptr), uint64(size), uint64(align))
	case "deallocate":
		_, err = a.freeFn.Call(a.ctx, uint64(ptr), uint64(size))
	default: // free
		_, err = a.freeFn.Call(a.ctx, uint64(ptr))
	}
	if err != nil {
		return errors.Wrap(errors.PhaseAlloc, errors.KindAllocation, err, "guest free call")
	}
	return nil
}

// moduleMemory adapts wazero's api.Memory to shmem.Memory. Views returned
// by Read alias the module's linear memory; the arena never grows it, so
// they stay valid.
type moduleMemory struct {
	mem api.Memory
}

func (m *moduleMemory) Size() uint32 {
	return m.mem.Size()
}

func (m *moduleMemory) oob(offset, length uint32) error {
	return errors.OutOfBounds(errors.PhaseAccess, offset, length, m.mem.Size())
}

func (m *moduleMemory) Read(offset, length uint32) ([]byte, error) {
	data, ok := m.mem.Read(offset, length)
	if !ok {
		return nil, m.oob(offset, length)
	}
	return data, nil
}

func (m *moduleMemory) Write(offset uint32, data []byte) error {
	if !m.mem.Write(offset, data) {
		return m.oob(offset, uint32(len(data)))
	}
	return nil
}

func (m *moduleMemory) ReadU8(offset uint32) (uint8, error) {
	v, ok := m.mem.ReadByte(offset)
	if !ok {
		return 0, m.oob(offset, 1)
	}
	return v, nil
}

func (m *moduleMemory) ReadU16(offset uint32) (uint16, error) {
	v, ok := m.mem.ReadUint16Le(offset)
	if !ok {
		return 0, m.oob(offset, 2)
	}
	return v, nil
}

func (m *moduleMemory) ReadU32(offset uint32) (uint32, error) {
	v, ok := m.mem.ReadUint32Le(offset)
	if !ok {
		return 0, m.oob(offset, 4)
	}
	return v, nil
}

func (m *moduleMemory) ReadU64(offset uint32) (uint64, error) {
	v, ok := m.mem.ReadUint64Le(offset)
	if !ok {
		return 0, m.oob(offset, 8)
	}
	return v, nil
}

func (m *moduleMemory) WriteU8(offset uint32, value uint8) error {
	if !m.mem.WriteByte(offset, value) {
		return m.oob(offset, 1)
	}
	return nil
}

func (m *moduleMemory) WriteU16(offset uint32, value uint16) error {
	if !m.mem.WriteUint16Le(offset, value) {
		return m.oob(offset, 2)
	}
	return nil
}

func (m *moduleMemory) WriteU32(offset uint32, value uint32) error {
	if !m.mem.WriteUint32Le(offset, value) {
		return m.oob(offset, 4)
	}
	return nil
}

func (m *moduleMemory) WriteU64(offset uint32, value uint64) error {
	if !m.mem.WriteUint64Le(offset, value) {
		return m.oob(offset, 8)
	}
	return nil
}

func (m *moduleMemory) Word(offset uint32) (*atomic.Uint32, error) {
	if offset%4 != 0 {
		return nil, errors.Misaligned(errors.PhaseAccess, offset, 4)
	}
	view, ok := m.mem.Read(offset, 4)
	if !ok {
		return nil, m.oob(offset, 4)
	}
	return (*atomic.Uint32)(unsafe.Pointer(&view[0])), nil
}
