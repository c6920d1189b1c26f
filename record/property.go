package record

// PropertyType describes how one field is represented in raw bytes.
type PropertyType interface {
	Size() uint32
	Alignment() uint32
}

type valueKind int

const (
	kindU8 valueKind = iota
	kindU16
	kindU32
	kindU64
	kindI32
	kindI64
	kindRange
	kindReadonlyRange
	kindLock
	kindSignal
)

func (k valueKind) String() string {
	switch k {
	case kindU8:
		return "u8"
	case kindU16:
		return "u16"
	case kindU32:
		return "u32"
	case kindU64:
		return "u64"
	case kindI32:
		return "i32"
	case kindI64:
		return "i64"
	case kindRange:
		return "range"
	case kindReadonlyRange:
		return "readonly-range"
	case kindLock:
		return "lock"
	case kindSignal:
		return "signal"
	default:
		return "invalid"
	}
}

// valueType is a scalar or compound non-owning value stored directly at an
// offset.
type valueType struct {
	kind  valueKind
	size  uint32
	align uint32
}

func (v valueType) Size() uint32      { return v.size }
func (v valueType) Alignment() uint32 { return v.align }

// Scalar and primitive value types.
var (
	U8  PropertyType = valueType{kind: kindU8, size: 1, align: 1}
	U16 PropertyType = valueType{kind: kindU16, size: 2, align: 2}
	U32 PropertyType = valueType{kind: kindU32, size: 4, align: 4}
	U64 PropertyType = valueType{kind: kindU64, size: 8, align: 8}
	I32 PropertyType = valueType{kind: kindI32, size: 4, align: 4}
	I64 PropertyType = valueType{kind: kindI64, size: 8, align: 8}

	// RangeOf stores a (ptr, size) pair referencing another allocation in
	// the same arena. The view resolves it to a MemoryRange on access.
	RangeOf PropertyType = valueType{kind: kindRange, size: 8, align: 4}
	// ReadonlyRangeOf is RangeOf resolved to an immutable window.
	ReadonlyRangeOf PropertyType = valueType{kind: kindReadonlyRange, size: 8, align: 4}

	// LockCell embeds a cross-agent Lock; initialized to unlocked when the
	// record is loaded in NewMode.
	LockCell PropertyType = valueType{kind: kindLock, size: 4, align: 4}
	// SignalCell embeds a one-shot Signal, initialized to unresolved in
	// NewMode.
	SignalCell PropertyType = valueType{kind: kindSignal, size: 4, align: 4}
)

// objectType is a nested structured type, loaded lazily and cached by the
// view on first access.
type objectType struct {
	typ *Type
}

// ObjectOf declares a nested record field.
func ObjectOf(t *Type) PropertyType {
	return objectType{typ: t}
}

func (o objectType) Size() uint32      { return o.typ.Size() }
func (o objectType) Alignment() uint32 { return o.typ.Alignment() }
