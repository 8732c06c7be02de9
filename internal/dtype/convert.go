package dtype

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/bits"
	"unicode/utf8"
	"unsafe"

	"github.com/robert-malhotra/go-lnqm/internal/message"
)

// ConvertToSlice decodes n elements of dt from data into a new []T.
func ConvertToSlice[T Number](dt *message.Datatype, data []byte, n uint64) ([]T, error) {
	if dt == nil {
		return nil, fmt.Errorf("nil datatype")
	}
	if !IsNumeric(dt) {
		return nil, fmt.Errorf("cannot convert %s to a numeric slice", dt)
	}
	size := ElementSize(dt)
	if hi, need := bits.Mul64(n, uint64(size)); hi != 0 || need != uint64(len(data)) {
		return nil, fmt.Errorf("data size mismatch: need %d bytes for %d elements, have %d", need, n, len(data))
	}

	out := make([]T, n)
	if canDirectCopy[T](dt) {
		directCopy(out, data)
		return out, nil
	}

	order := ByteOrder(dt)
	for i := range out {
		elem := data[i*size : (i+1)*size]
		switch dt.Class {
		case message.ClassFloatPoint:
			if size == 4 {
				out[i] = T(math.Float32frombits(order.Uint32(elem)))
			} else {
				out[i] = T(math.Float64frombits(order.Uint64(elem)))
			}
		default:
			bits := readUint(order, elem)
			if dt.Signed {
				out[i] = T(signExtend(bits, size))
			} else {
				out[i] = T(bits)
			}
		}
	}
	return out, nil
}

func readUint(order binary.ByteOrder, b []byte) uint64 {
	switch len(b) {
	case 1:
		return uint64(b[0])
	case 2:
		return uint64(order.Uint16(b))
	case 4:
		return uint64(order.Uint32(b))
	default:
		return order.Uint64(b)
	}
}

func signExtend(v uint64, size int) int64 {
	shift := uint(64 - 8*size)
	return int64(v<<shift) >> shift
}

// canDirectCopy reports whether the stored bytes already have T's in-memory
// representation on a little-endian host.
func canDirectCopy[T Number](dt *message.Datatype) bool {
	if dt.ByteOrder != message.OrderLE || !hostLittleEndian {
		return false
	}
	var zero T
	if uintptr(dt.Size) != unsafe.Sizeof(zero) {
		return false
	}
	switch any(zero).(type) {
	case int8, int16, int32, int64:
		return dt.IsInteger() && dt.Signed
	case uint8, uint16, uint32, uint64:
		return dt.IsInteger() && !dt.Signed
	case float32, float64:
		return dt.IsFloat()
	}
	return false
}

func directCopy[T Number](dst []T, data []byte) {
	if len(dst) == 0 {
		return
	}
	raw := unsafe.Slice((*byte)(unsafe.Pointer(&dst[0])), len(data))
	copy(raw, data)
}

var hostLittleEndian = func() bool {
	x := uint16(1)
	return *(*byte)(unsafe.Pointer(&x)) == 1
}()

// DecodeStrings decodes n length-prefixed strings. Every byte of data must be
// consumed and every string must be valid UTF-8.
func DecodeStrings(data []byte, n uint64) ([]string, error) {
	if n > uint64(len(data))/4 {
		return nil, fmt.Errorf("data too short for %d strings", n)
	}
	out := make([]string, n)
	off := 0
	for i := range out {
		if len(data)-off < 4 {
			return nil, fmt.Errorf("string %d: truncated length", i)
		}
		size := int(binary.LittleEndian.Uint32(data[off:]))
		off += 4
		if size > len(data)-off {
			return nil, fmt.Errorf("string %d: length %d exceeds data", i, size)
		}
		s := data[off : off+size]
		if !utf8.Valid(s) {
			return nil, fmt.Errorf("string %d is not valid UTF-8", i)
		}
		out[i] = string(s)
		off += size
	}
	if off != len(data) {
		return nil, fmt.Errorf("%d trailing bytes after %d strings", len(data)-off, n)
	}
	return out, nil
}
