package record

import (
	"github.com/hcz/wasm-shmem/errors"
)

// Field is one named entry in a record layout.
type Field struct {
	Name string
	Type PropertyType
}

type compiledField struct {
	typ    PropertyType
	offset uint32
}

// Type is a compiled layout of named fields. Construct once with NewType;
// a Type is immutable and shared by all instances of the structure.
type Type struct {
	fields map[string]compiledField
	order  []string
	size   uint32
	align  uint32
}

func alignTo(v, align uint32) uint32 {
	if align <= 1 {
		return v
	}
	return (v + align - 1) &^ (align - 1)
}

// NewType compiles an ordered field list into a layout. Fields are placed
// in declaration order, each at the running offset rounded up to its
// alignment. Duplicate names are rejected.
func NewType(fields []Field) (*Type, error) {
	t := &Type{
		fields: make(map[string]compiledField, len(fields)),
		order:  make([]string, 0, len(fields)),
		align:  1,
	}

	offset := uint32(0)
	for _, f := range fields {
		if f.Name == "" {
			return nil, errors.InvalidInput(errors.PhaseLayout, "field with empty name")
		}
		if f.Type == nil {
			return nil, errors.InvalidInput(errors.PhaseLayout, "field "+f.Name+" has no type")
		}
		if _, dup := t.fields[f.Name]; dup {
			return nil, errors.DuplicateField(f.Name)
		}

		align := f.Type.Alignment()
		offset = alignTo(offset, align)
		t.fields[f.Name] = compiledField{typ: f.Type, offset: offset}
		t.order = append(t.order, f.Name)

		if align > t.align {
			t.align = align
		}
		offset += f.Type.Size()
	}

	// No trailing padding: size is the final running offset. Callers that
	// lay records out in arrays round up with AlignedSize.
	t.size = offset
	return t, nil
}

// MustType is NewType for statically known layouts; it panics on a
// definition error.
func MustType(fields []Field) *Type {
	t, err := NewType(fields)
	if err != nil {
		panic(err)
	}
	return t
}

// Size returns the layout's total size in bytes, without trailing padding.
func (t *Type) Size() uint32 { return t.size }

// Alignment returns the maximum alignment over all fields.
func (t *Type) Alignment() uint32 { return t.align }

// AlignedSize returns Size rounded up to the type's own alignment, the
// stride for laying instances out in an array.
func (t *Type) AlignedSize() uint32 { return alignTo(t.size, t.align) }

// Fields returns the field names in declaration order.
func (t *Type) Fields() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// Offset returns a field's byte offset within the layout.
func (t *Type) Offset(name string) (uint32, error) {
	f, ok := t.fields[name]
	if !ok {
		return 0, errors.FieldUnknown(name)
	}
	return f.offset, nil
}

// HasField reports whether the layout declares name.
func (t *Type) HasField(name string) bool {
	_, ok := t.fields[name]
	return ok
}

func (t *Type) field(name string) compiledField {
	f, ok := t.fields[name]
	if !ok {
		panic(errors.FieldUnknown(name))
	}
	return f
}
