package dtype

import (
	"fmt"
	"math"
	"reflect"
	"unicode/utf8"

	"github.com/robert-malhotra/go-lnqm/internal/message"
)

// Encode converts a slice (or single value) of Go numbers or strings to the
// raw bytes of dt.
func Encode(dt *message.Datatype, src any) ([]byte, error) {
	if dt == nil {
		return nil, fmt.Errorf("nil datatype")
	}
	if ss, ok := src.([]string); ok {
		if !dt.IsString() {
			return nil, fmt.Errorf("cannot encode strings as %s", dt)
		}
		return EncodeStrings(ss)
	}
	if s, ok := src.(string); ok {
		return Encode(dt, []string{s})
	}

	v := reflect.ValueOf(src)
	if v.Kind() == reflect.Pointer {
		v = v.Elem()
	}
	if !v.IsValid() {
		return nil, fmt.Errorf("cannot encode nil")
	}
	if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
		one := reflect.MakeSlice(reflect.SliceOf(v.Type()), 1, 1)
		one.Index(0).Set(v)
		v = one
	}

	switch dt.Class {
	case message.ClassFixedPoint, message.ClassFloatPoint:
		return encodeNumeric(dt, v)
	default:
		return nil, fmt.Errorf("cannot encode %s as %s", v.Type(), dt)
	}
}

func encodeNumeric(dt *message.Datatype, v reflect.Value) ([]byte, error) {
	order := ByteOrder(dt)
	size := ElementSize(dt)
	n := v.Len()
	data := make([]byte, n*size)

	for i := 0; i < n; i++ {
		elem := v.Index(i)
		var bits uint64
		switch elem.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			bits = fromInt(dt, elem.Int())
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			bits = fromUint(dt, elem.Uint())
		case reflect.Float32, reflect.Float64:
			bits = fromFloat(dt, elem.Float())
		default:
			return nil, fmt.Errorf("cannot encode %v as %s", elem.Kind(), dt)
		}

		off := i * size
		switch size {
		case 1:
			data[off] = byte(bits)
		case 2:
			order.PutUint16(data[off:], uint16(bits))
		case 4:
			order.PutUint32(data[off:], uint32(bits))
		case 8:
			order.PutUint64(data[off:], bits)
		default:
			return nil, fmt.Errorf("unsupported element size %d", size)
		}
	}
	return data, nil
}

// fromInt returns the bit pattern of x stored as dt. Narrowing truncates.
func fromInt(dt *message.Datatype, x int64) uint64 {
	if dt.IsFloat() {
		return fromFloat(dt, float64(x))
	}
	return uint64(x)
}

func fromUint(dt *message.Datatype, x uint64) uint64 {
	if dt.IsFloat() {
		return fromFloat(dt, float64(x))
	}
	return x
}

func fromFloat(dt *message.Datatype, x float64) uint64 {
	switch {
	case dt.IsFloat() && dt.Size == 4:
		return uint64(math.Float32bits(float32(x)))
	case dt.IsFloat():
		return math.Float64bits(x)
	case dt.Signed:
		return uint64(int64(x))
	default:
		return uint64(x)
	}
}

// EncodeStrings encodes variable-length strings as a uint32 length prefix
// followed by the bytes. Strings must be valid UTF-8.
func EncodeStrings(ss []string) ([]byte, error) {
	size := 0
	for i, s := range ss {
		if !utf8.ValidString(s) {
			return nil, fmt.Errorf("string %d is not valid UTF-8", i)
		}
		if uint64(len(s)) > math.MaxUint32 {
			return nil, fmt.Errorf("string %d too long", i)
		}
		size += 4 + len(s)
	}
	out := make([]byte, 0, size)
	for _, s := range ss {
		n := uint32(len(s))
		out = append(out, byte(n), byte(n>>8), byte(n>>16), byte(n>>24))
		out = append(out, s...)
	}
	return out, nil
}
