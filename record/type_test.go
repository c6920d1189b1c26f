package record

import (
	stderrors "errors"
	"testing"

	"github.com/hcz/wasm-shmem/errors"
)

func TestTypeOffsets(t *testing.T) {
	tests := []struct {
		name    string
		fields  []Field
		offsets map[string]uint32
		size    uint32
		align   uint32
	}{
		{
			name:    "single_u32",
			fields:  []Field{{"x", U32}},
			offsets: map[string]uint32{"x": 0},
			size:    4,
			align:   4,
		},
		{
			name:    "padding_before_u32",
			fields:  []Field{{"a", U8}, {"b", U32}},
			offsets: map[string]uint32{"a": 0, "b": 4},
			size:    8,
			align:   4,
		},
		{
			name:    "mixed_alignments",
			fields:  []Field{{"a", U8}, {"b", U64}, {"c", U16}, {"d", U32}},
			offsets: map[string]uint32{"a": 0, "b": 8, "c": 16, "d": 20},
			size:    24,
			align:   8,
		},
		{
			name:    "no_trailing_padding",
			fields:  []Field{{"a", U64}, {"b", U8}},
			offsets: map[string]uint32{"a": 0, "b": 8},
			size:    9,
			align:   8,
		},
		{
			name:    "range_pair",
			fields:  []Field{{"buf", RangeOf}, {"n", U32}},
			offsets: map[string]uint32{"buf": 0, "n": 8},
			size:    12,
			align:   4,
		},
		{
			name:    "header_convention",
			fields:  []Field{{"size", U32}, {"id", U32}, {"lock", LockCell}, {"value", U64}},
			offsets: map[string]uint32{"size": 0, "id": 4, "lock": 8, "value": 16},
			size:    24,
			align:   8,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			typ, err := NewType(tc.fields)
			if err != nil {
				t.Fatalf("NewType: %v", err)
			}
			if typ.Size() != tc.size {
				t.Errorf("size = %d, want %d", typ.Size(), tc.size)
			}
			if typ.Alignment() != tc.align {
				t.Errorf("align = %d, want %d", typ.Alignment(), tc.align)
			}
			for name, want := range tc.offsets {
				got, err := typ.Offset(name)
				if err != nil {
					t.Fatalf("Offset(%q): %v", name, err)
				}
				if got != want {
					t.Errorf("offset of %q = %d, want %d", name, got, want)
				}
			}
		})
	}
}

func TestTypeInvariants(t *testing.T) {
	// Arbitrary ordering of alignments 1,2,4,8: offsets must be aligned,
	// non-decreasing, and non-overlapping.
	orders := [][]Field{
		{{"a", U8}, {"b", U16}, {"c", U32}, {"d", U64}},
		{{"a", U64}, {"b", U8}, {"c", U16}, {"d", U32}},
		{{"a", U16}, {"b", U64}, {"c", U8}, {"d", U32}},
		{{"a", U32}, {"b", U8}, {"c", U64}, {"d", U16}},
	}

	for _, fields := range orders {
		typ, err := NewType(fields)
		if err != nil {
			t.Fatal(err)
		}

		prevEnd := uint32(0)
		prevOff := uint32(0)
		for i, name := range typ.Fields() {
			off, _ := typ.Offset(name)
			ft := typ.field(name).typ
			if off%ft.Alignment() != 0 {
				t.Errorf("field %q at %d violates alignment %d", name, off, ft.Alignment())
			}
			if i > 0 {
				if off < prevOff {
					t.Errorf("offset of %q decreased", name)
				}
				if off < prevEnd {
					t.Errorf("field %q overlaps its predecessor", name)
				}
			}
			prevOff = off
			prevEnd = off + ft.Size()
		}
	}
}

func TestTypeDuplicateField(t *testing.T) {
	_, err := NewType([]Field{{"x", U32}, {"x", U8}})
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseLayout, Kind: errors.KindDuplicateField}) {
		t.Errorf("want duplicate_field, got %v", err)
	}
}

func TestTypeDefinitionErrors(t *testing.T) {
	if _, err := NewType([]Field{{"", U32}}); err == nil {
		t.Error("empty field name accepted")
	}
	if _, err := NewType([]Field{{"x", nil}}); err == nil {
		t.Error("nil property type accepted")
	}
}

func TestAlignedSize(t *testing.T) {
	typ := MustType([]Field{{"a", U64}, {"b", U8}})
	if typ.Size() != 9 {
		t.Fatalf("size = %d", typ.Size())
	}
	if typ.AlignedSize() != 16 {
		t.Errorf("aligned size = %d, want 16", typ.AlignedSize())
	}
}

func TestNestedObjectLayout(t *testing.T) {
	inner := MustType([]Field{{"x", U32}, {"y", U32}})
	outer, err := NewType([]Field{{"tag", U8}, {"point", ObjectOf(inner)}, {"n", U8}})
	if err != nil {
		t.Fatal(err)
	}

	off, _ := outer.Offset("point")
	if off != 4 {
		t.Errorf("nested object at %d, want 4", off)
	}
	if outer.Size() != 13 {
		t.Errorf("outer size = %d, want 13", outer.Size())
	}
	if outer.Alignment() != 4 {
		t.Errorf("outer align = %d, want 4", outer.Alignment())
	}
}
