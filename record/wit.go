package record

import (
	"go.bytecodealliance.org/wit"

	"github.com/hcz/wasm-shmem/errors"
)

// FromWIT compiles a layout from a WIT record definition. Integer and
// boolean fields map onto the package's value types; nested records become
// object fields. Types whose shared-memory representation would need
// ownership semantics (strings, lists, variants) are rejected.
func FromWIT(def *wit.TypeDef) (*Type, error) {
	rec, ok := def.Kind.(*wit.Record)
	if !ok {
		return nil, errors.Unsupported(errors.PhaseLayout, "WIT type is not a record")
	}

	fields := make([]Field, 0, len(rec.Fields))
	for _, f := range rec.Fields {
		pt, err := propertyFromWIT(f.Type)
		if err != nil {
			return nil, errors.Wrap(errors.PhaseLayout, errors.KindUnsupported, err,
				"field "+f.Name)
		}
		fields = append(fields, Field{Name: f.Name, Type: pt})
	}
	return NewType(fields)
}

func propertyFromWIT(t wit.Type) (PropertyType, error) {
	switch typ := t.(type) {
	case wit.Bool, wit.U8, wit.S8:
		return U8, nil
	case wit.U16, wit.S16:
		return U16, nil
	case wit.U32, wit.Char:
		return U32, nil
	case wit.S32:
		return I32, nil
	case wit.U64:
		return U64, nil
	case wit.S64:
		return I64, nil
	case *wit.TypeDef:
		if _, ok := typ.Kind.(*wit.Record); ok {
			nested, err := FromWIT(typ)
			if err != nil {
				return nil, err
			}
			return ObjectOf(nested), nil
		}
		return nil, errors.Unsupported(errors.PhaseLayout, "WIT type definition kind")
	default:
		return nil, errors.Unsupported(errors.PhaseLayout, "WIT type")
	}
}
