package memory

import (
	"context"
	"encoding/binary"
	stderrors "errors"
	"testing"

	"github.com/tetratelabs/wazero/api"

	"github.com/hcz/wasm-shmem/errors"
)

// fakeGuest simulates a module exporting a linear memory and a bump
// allocator under configurable export names.
type fakeGuest struct {
	mem  *fakeGuestMemory
	fns  map[string]api.Function
	next uint32
}

func newFakeGuest(size uint32, allocName, freeName string) *fakeGuest {
	g := &fakeGuest{
		mem:  &fakeGuestMemory{data: make([]byte, size)},
		fns:  map[string]api.Function{},
		next: 16,
	}
	g.fns[allocName] = &fakeFunction{call: func(params ...uint64) ([]uint64, error) {
		var align, sz uint64
		switch allocName {
		case "aligned_alloc":
			align, sz = params[0], params[1]
		case "cabi_realloc", "canonical_abi_realloc":
			align, sz = params[2], params[3]
		default:
			align, sz = 8, params[0]
		}
		ptr := uint64(alignTo(g.next, uint32(align)))
		if ptr+sz > uint64(size) {
			return []uint64{0}, nil
		}
		g.next = uint32(ptr + sz)
		return []uint64{ptr}, nil
	}}
	g.fns[freeName] = &fakeFunction{call: func(params ...uint64) ([]uint64, error) {
		return nil, nil
	}}
	return g
}

func (g *fakeGuest) ExportedFunction(name string) api.Function { return g.fns[name] }
func (g *fakeGuest) Memory() api.Memory                        { return g.mem }

type fakeFunction struct {
	api.Function
	call func(params ...uint64) ([]uint64, error)
}

func (f *fakeFunction) Call(_ context.Context, params ...uint64) ([]uint64, error) {
	return f.call(params...)
}

type fakeGuestMemory struct {
	api.Memory
	data []byte
}

func (m *fakeGuestMemory) Size() uint32 { return uint32(len(m.data)) }

func (m *fakeGuestMemory) Read(offset, count uint32) ([]byte, bool) {
	if uint64(offset)+uint64(count) > uint64(len(m.data)) {
		return nil, false
	}
	return m.data[offset : offset+count : offset+count], true
}

func (m *fakeGuestMemory) Write(offset uint32, v []byte) bool {
	if uint64(offset)+uint64(len(v)) > uint64(len(m.data)) {
		return false
	}
	copy(m.data[offset:], v)
	return true
}

func (m *fakeGuestMemory) ReadUint32Le(offset uint32) (uint32, bool) {
	if uint64(offset)+4 > uint64(len(m.data)) {
		return 0, false
	}
	return binary.LittleEndian.Uint32(m.data[offset:]), true
}

func (m *fakeGuestMemory) WriteUint32Le(offset uint32, v uint32) bool {
	if uint64(offset)+4 > uint64(len(m.data)) {
		return false
	}
	binary.LittleEndian.PutUint32(m.data[offset:], v)
	return true
}

func TestModuleArenaAllocatorResolution(t *testing.T) {
	tests := []struct {
		name      string
		allocName string
		freeName  string
	}{
		{"aligned_alloc", "aligned_alloc", "free"},
		{"cabi_realloc", "cabi_realloc", "cabi_free"},
		{"legacy_realloc", "canonical_abi_realloc", "canonical_abi_free"},
		{"malloc", "malloc", "free"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			guest := newFakeGuest(1<<16, tc.allocName, tc.freeName)
			arena, err := newModuleArena(context.Background(), guest, nil)
			if err != nil {
				t.Fatalf("newModuleArena: %v", err)
			}

			r, err := arena.Alloc(8, 64)
			if err != nil {
				t.Fatalf("Alloc: %v", err)
			}
			if r.Ptr()%8 != 0 {
				t.Errorf("ptr 0x%x not aligned", r.Ptr())
			}
			r.PutU32(0, 0xfeedface)
			if got := r.U32(0); got != 0xfeedface {
				t.Errorf("readback = %#x", got)
			}
			if err := arena.Free(r); err != nil {
				t.Errorf("Free: %v", err)
			}
		})
	}
}

func TestModuleArenaMallocAlignmentLimit(t *testing.T) {
	guest := newFakeGuest(1<<16, "malloc", "free")
	arena, err := newModuleArena(context.Background(), guest, nil)
	if err != nil {
		t.Fatal(err)
	}
	_, err = arena.Alloc(16, 32)
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseAlloc, Kind: errors.KindUnsupported}) {
		t.Errorf("want unsupported, got %v", err)
	}
}

func TestModuleArenaMissingExports(t *testing.T) {
	t.Run("no_allocator", func(t *testing.T) {
		guest := newFakeGuest(1<<12, "custom_alloc", "free")
		delete(guest.fns, "custom_alloc")
		if _, err := newModuleArena(context.Background(), guest, nil); err == nil {
			t.Error("arena built without an allocator export")
		}
	})
	t.Run("no_free", func(t *testing.T) {
		guest := newFakeGuest(1<<12, "malloc", "custom_free")
		delete(guest.fns, "custom_free")
		if _, err := newModuleArena(context.Background(), guest, nil); err == nil {
			t.Error("arena built without a free export")
		}
	})
}

func TestModuleArenaNullFromGuest(t *testing.T) {
	guest := newFakeGuest(64, "malloc", "free")
	arena, err := newModuleArena(context.Background(), guest, nil)
	if err != nil {
		t.Fatal(err)
	}
	_, err = arena.Alloc(8, 1<<10)
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseAlloc, Kind: errors.KindAllocation}) {
		t.Errorf("want allocation failure, got %v", err)
	}
}

func TestModuleMemoryWord(t *testing.T) {
	guest := newFakeGuest(1<<12, "malloc", "free")
	arena, err := newModuleArena(context.Background(), guest, nil)
	if err != nil {
		t.Fatal(err)
	}

	r, err := arena.Alloc(4, 8)
	if err != nil {
		t.Fatal(err)
	}
	w := r.Word(0)
	w.Store(31337)
	if got := r.U32(0); got != 31337 {
		t.Errorf("atomic store not visible through plain read: %d", got)
	}
}
