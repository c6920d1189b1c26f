package record

import (
	"sync"
	"testing"

	"github.com/hcz/wasm-shmem/memory"
)

func newViewArena(t *testing.T) *memory.SharedMemory {
	t.Helper()
	arena, err := memory.NewHost(1 << 16)
	if err != nil {
		t.Fatal(err)
	}
	return arena
}

func loadNew(t *testing.T, arena *memory.SharedMemory, typ *Type) (*View, *memory.MemoryRange) {
	t.Helper()
	r, err := arena.Alloc(typ.Alignment(), typ.Size())
	if err != nil {
		t.Fatal(err)
	}
	v, err := typ.Load(r, 0, NewMode)
	if err != nil {
		t.Fatal(err)
	}
	return v, r
}

func TestViewIsLive(t *testing.T) {
	arena := newViewArena(t)
	typ := MustType([]Field{{"a", U32}, {"b", U64}, {"c", U8}})
	v, r := loadNew(t, arena, typ)

	v.SetU32("a", 0xcafe)
	v.SetU64("b", 1<<40)
	v.SetU8("c", 9)

	// The view proxies to the backing bytes: a second view over the same
	// range observes the writes with no copy in between.
	w, err := typ.Load(r, 0, ExistingMode)
	if err != nil {
		t.Fatal(err)
	}
	if w.U32("a") != 0xcafe || w.U64("b") != 1<<40 || w.U8("c") != 9 {
		t.Error("second view does not observe writes through the first")
	}

	// And raw range access agrees with the computed offsets.
	offB, _ := typ.Offset("b")
	if r.U64(offB) != 1<<40 {
		t.Error("field offset disagrees with raw access")
	}
}

func TestViewSignedFields(t *testing.T) {
	arena := newViewArena(t)
	typ := MustType([]Field{{"i", I32}, {"j", I64}})
	v, _ := loadNew(t, arena, typ)

	v.SetI32("i", -42)
	v.SetI64("j", -1<<35)
	if v.I32("i") != -42 || v.I64("j") != -1<<35 {
		t.Error("signed round-trip failed")
	}
}

func TestViewUnknownFieldPanics(t *testing.T) {
	arena := newViewArena(t)
	typ := MustType([]Field{{"a", U32}})
	v, _ := loadNew(t, arena, typ)

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for unknown field")
		}
	}()
	v.U32("missing")
}

func TestViewKindMismatchPanics(t *testing.T) {
	arena := newViewArena(t)
	typ := MustType([]Field{{"a", U32}})
	v, _ := loadNew(t, arena, typ)

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for kind mismatch")
		}
	}()
	v.U64("a")
}

func TestViewRangeField(t *testing.T) {
	arena := newViewArena(t)
	typ := MustType([]Field{{"buf", RangeOf}})
	v, _ := loadNew(t, arena, typ)

	payload, err := arena.Alloc(4, 32)
	if err != nil {
		t.Fatal(err)
	}
	payload.PutU32(0, 777)

	if err := v.SetRange("buf", payload); err != nil {
		t.Fatalf("SetRange: %v", err)
	}
	got, err := v.Range("buf")
	if err != nil {
		t.Fatalf("Range: %v", err)
	}
	if got.Ptr() != payload.Ptr() || got.Size() != payload.Size() {
		t.Errorf("resolved [0x%x,+%d)", got.Ptr(), got.Size())
	}
	if got.U32(0) != 777 {
		t.Error("resolved range does not alias the payload")
	}

	// Ranges from a different arena are rejected, not silently stored.
	other := newViewArena(t)
	foreign, err := other.Alloc(4, 8)
	if err != nil {
		t.Fatal(err)
	}
	if err := v.SetRange("buf", foreign); err == nil {
		t.Error("cross-arena range stored")
	}
}

func TestViewLockCellInitialized(t *testing.T) {
	arena := newViewArena(t)
	typ := MustType([]Field{{"lock", LockCell}, {"n", U32}})
	v, r := loadNew(t, arena, typ)

	offLock, _ := typ.Offset("lock")
	if r.U32(offLock) != 1 {
		t.Fatalf("lock cell = %d after NewMode load, want 1 (unlocked)", r.U32(offLock))
	}

	l := v.Lock("lock")
	if l != v.Lock("lock") {
		t.Error("lock instance not cached; reentrancy state would be lost")
	}

	// Reentrant use through the view.
	l.Acquire()
	l.Acquire()
	l.Release()
	l.Release()
}

func TestViewSignalCell(t *testing.T) {
	arena := newViewArena(t)
	typ := MustType([]Field{{"ready", SignalCell}})
	v, _ := loadNew(t, arena, typ)

	s := v.Signal("ready")
	if s.IsResolved() {
		t.Fatal("signal resolved after NewMode load")
	}
	s.Resolve()
	if !v.Signal("ready").IsResolved() {
		t.Error("cached signal disagrees")
	}
}

func TestViewNestedObject(t *testing.T) {
	arena := newViewArena(t)
	inner := MustType([]Field{{"lock", LockCell}, {"x", U32}})
	outer := MustType([]Field{{"head", U32}, {"inner", ObjectOf(inner)}})
	v, r := loadNew(t, arena, outer)

	// NewMode initialized the nested lock cell eagerly.
	offInner, _ := outer.Offset("inner")
	if r.U32(offInner) != 1 {
		t.Fatal("nested lock cell not initialized")
	}

	in := v.Object("inner")
	if in != v.Object("inner") {
		t.Error("nested view not cached")
	}
	in.SetU32("x", 5)

	offX, _ := inner.Offset("x")
	if r.U32(offInner+offX) != 5 {
		t.Error("nested write not visible at computed offset")
	}
}

func TestViewSharedAcrossAgents(t *testing.T) {
	arena := newViewArena(t)
	typ := MustType([]Field{{"lock", LockCell}, {"count", U32}})
	v, r := loadNew(t, arena, typ)
	_ = v

	const agents = 4
	const rounds = 250

	var wg sync.WaitGroup
	for a := 0; a < agents; a++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			peer, err := memory.NewFromTransferable(arena.Transferable())
			if err != nil {
				t.Error(err)
				return
			}
			rng, err := memory.Resolve(peer, r.Location())
			if err != nil {
				t.Error(err)
				return
			}
			view, err := typ.Load(rng, 0, ExistingMode)
			if err != nil {
				t.Error(err)
				return
			}
			l := view.Lock("lock")
			for i := 0; i < rounds; i++ {
				l.RunLocked(func() {
					view.SetU32("count", view.U32("count")+1)
				})
			}
		}()
	}
	wg.Wait()

	final, err := typ.Load(r, 0, ExistingMode)
	if err != nil {
		t.Fatal(err)
	}
	if got := final.U32("count"); got != agents*rounds {
		t.Errorf("count = %d, want %d", got, agents*rounds)
	}
}

func TestLoadBoundsAndAlignment(t *testing.T) {
	arena := newViewArena(t)
	typ := MustType([]Field{{"a", U64}})

	small, err := arena.Alloc(8, 4)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := typ.Load(small, 0, NewMode); err == nil {
		t.Error("layout larger than range accepted")
	}

	big, err := arena.Alloc(8, 32)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := typ.Load(big, 2, NewMode); err == nil {
		t.Error("misaligned base accepted")
	}
	if _, err := typ.Load(big, 8, NewMode); err != nil {
		t.Errorf("aligned base rejected: %v", err)
	}
}
