package dtype

import (
	"encoding/binary"
	"fmt"
	"reflect"

	"github.com/robert-malhotra/go-lnqm/internal/message"
)

// Number is the set of Go element types a numeric blob can decode into.
type Number interface {
	~int8 | ~int16 | ~int32 | ~int64 |
		~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// GoType returns the Go reflect.Type that corresponds to the given datatype.
func GoType(dt *message.Datatype) (reflect.Type, error) {
	if dt == nil {
		return nil, fmt.Errorf("nil datatype")
	}

	switch dt.Class {
	case message.ClassFixedPoint:
		switch dt.Size {
		case 1:
			if dt.Signed {
				return reflect.TypeFor[int8](), nil
			}
			return reflect.TypeFor[uint8](), nil
		case 2:
			if dt.Signed {
				return reflect.TypeFor[int16](), nil
			}
			return reflect.TypeFor[uint16](), nil
		case 4:
			if dt.Signed {
				return reflect.TypeFor[int32](), nil
			}
			return reflect.TypeFor[uint32](), nil
		case 8:
			if dt.Signed {
				return reflect.TypeFor[int64](), nil
			}
			return reflect.TypeFor[uint64](), nil
		}
		return nil, fmt.Errorf("unsupported fixed-point size: %d", dt.Size)
	case message.ClassFloatPoint:
		switch dt.Size {
		case 4:
			return reflect.TypeFor[float32](), nil
		case 8:
			return reflect.TypeFor[float64](), nil
		}
		return nil, fmt.Errorf("unsupported float size: %d", dt.Size)
	case message.ClassVarLenString:
		return reflect.TypeFor[string](), nil
	default:
		return nil, fmt.Errorf("unsupported datatype class: %s", dt.Class)
	}
}

// FromGo returns the datatype used to store v, which must be a slice of a
// supported element type or a single such value.
func FromGo(v any) (*message.Datatype, error) {
	t := reflect.TypeOf(v)
	if t == nil {
		return nil, fmt.Errorf("cannot infer datatype of nil")
	}
	if t.Kind() == reflect.Slice || t.Kind() == reflect.Array {
		t = t.Elem()
	}
	return FromGoType(t)
}

// FromGoType returns the datatype for a Go element type.
func FromGoType(t reflect.Type) (*message.Datatype, error) {
	switch t.Kind() {
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return message.NewFixedPointDatatype(uint32(t.Size()), true, message.OrderLE), nil
	case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return message.NewFixedPointDatatype(uint32(t.Size()), false, message.OrderLE), nil
	case reflect.Int:
		return message.NewFixedPointDatatype(8, true, message.OrderLE), nil
	case reflect.Uint:
		return message.NewFixedPointDatatype(8, false, message.OrderLE), nil
	case reflect.Float32, reflect.Float64:
		return message.NewFloatDatatype(uint32(t.Size()), message.OrderLE), nil
	case reflect.String:
		return message.NewVarLenStringDatatype(message.CharsetUTF8), nil
	default:
		return nil, fmt.Errorf("unsupported Go type %s", t)
	}
}

// ByteOrder returns the binary.ByteOrder for the datatype.
func ByteOrder(dt *message.Datatype) binary.ByteOrder {
	if dt.ByteOrder == message.OrderBE {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// ElementSize returns the size of a single element in bytes, or 0 for
// variable-length types.
func ElementSize(dt *message.Datatype) int {
	return int(dt.Size)
}

// IsNumeric returns true if the datatype is a numeric type.
func IsNumeric(dt *message.Datatype) bool {
	return dt.Class == message.ClassFixedPoint || dt.Class == message.ClassFloatPoint
}
