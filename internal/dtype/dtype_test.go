package dtype

import (
	"math"
	"reflect"
	"testing"

	"github.com/robert-malhotra/go-lnqm/internal/message"
)

func TestGoType(t *testing.T) {
	tests := []struct {
		name     string
		dt       *message.Datatype
		expected reflect.Type
	}{
		{"int8", message.NewFixedPointDatatype(1, true, message.OrderLE), reflect.TypeOf(int8(0))},
		{"uint16", message.NewFixedPointDatatype(2, false, message.OrderLE), reflect.TypeOf(uint16(0))},
		{"int32", message.NewFixedPointDatatype(4, true, message.OrderLE), reflect.TypeOf(int32(0))},
		{"uint64", message.NewFixedPointDatatype(8, false, message.OrderLE), reflect.TypeOf(uint64(0))},
		{"float32", message.NewFloatDatatype(4, message.OrderLE), reflect.TypeOf(float32(0))},
		{"float64", message.NewFloatDatatype(8, message.OrderLE), reflect.TypeOf(float64(0))},
		{"string", message.NewVarLenStringDatatype(message.CharsetUTF8), reflect.TypeOf("")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := GoType(tt.dt)
			if err != nil {
				t.Fatalf("GoType failed: %v", err)
			}
			if got != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}

	if _, err := GoType(&message.Datatype{Class: 7}); err == nil {
		t.Error("expected error for unknown class")
	}
}

func TestFromGo(t *testing.T) {
	tests := []struct {
		v    any
		want string
	}{
		{[]int64{1}, "int64"},
		{[]uint64{1}, "uint64"},
		{[]int{1}, "int64"},
		{[]float32{1}, "float32"},
		{3.5, "float64"},
		{[]string{"a"}, "string"},
		{[2]uint8{}, "uint8"},
	}
	for _, tt := range tests {
		dt, err := FromGo(tt.v)
		if err != nil {
			t.Fatalf("FromGo(%T) failed: %v", tt.v, err)
		}
		if dt.String() != tt.want {
			t.Errorf("FromGo(%T) = %s, want %s", tt.v, dt, tt.want)
		}
	}

	if _, err := FromGo([]bool{true}); err == nil {
		t.Error("expected error for []bool")
	}
	if _, err := FromGo(nil); err == nil {
		t.Error("expected error for nil")
	}
}

func TestEncodeConvertRoundTrip(t *testing.T) {
	u64 := message.NewFixedPointDatatype(8, false, message.OrderLE)
	raw, err := Encode(u64, []uint64{0, 1, math.MaxUint64})
	if err != nil {
		t.Fatal(err)
	}
	got, err := ConvertToSlice[uint64](u64, raw, 3)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, []uint64{0, 1, math.MaxUint64}) {
		t.Errorf("got %v", got)
	}

	// Reading unsigned storage as int64 reinterprets the bits.
	asInt, err := ConvertToSlice[int64](u64, raw, 3)
	if err != nil {
		t.Fatal(err)
	}
	if asInt[2] != -1 {
		t.Errorf("expected -1, got %d", asInt[2])
	}
}

func TestConvertBigEndianAndWidening(t *testing.T) {
	i16 := message.NewFixedPointDatatype(2, true, message.OrderBE)
	raw, err := Encode(i16, []int16{-2, 300})
	if err != nil {
		t.Fatal(err)
	}
	if raw[0] != 0xFF || raw[1] != 0xFE {
		t.Errorf("expected big-endian -2, got % x", raw[:2])
	}

	got, err := ConvertToSlice[int64](i16, raw, 2)
	if err != nil {
		t.Fatal(err)
	}
	if got[0] != -2 || got[1] != 300 {
		t.Errorf("got %v", got)
	}
}

func TestConvertFloat(t *testing.T) {
	f32 := message.NewFloatDatatype(4, message.OrderLE)
	raw, err := Encode(f32, []float64{1.5, -0.25})
	if err != nil {
		t.Fatal(err)
	}
	if len(raw) != 8 {
		t.Fatalf("expected 8 bytes, got %d", len(raw))
	}

	direct, err := ConvertToSlice[float32](f32, raw, 2)
	if err != nil {
		t.Fatal(err)
	}
	widened, err := ConvertToSlice[float64](f32, raw, 2)
	if err != nil {
		t.Fatal(err)
	}
	if direct[0] != 1.5 || widened[1] != -0.25 {
		t.Errorf("got %v and %v", direct, widened)
	}
}

func TestConvertSizeMismatch(t *testing.T) {
	dt := message.NewFloatDatatype(8, message.OrderLE)
	if _, err := ConvertToSlice[float64](dt, make([]byte, 12), 2); err == nil {
		t.Error("expected size mismatch error")
	}
	if _, err := ConvertToSlice[float64](message.NewVarLenStringDatatype(message.CharsetUTF8), nil, 0); err == nil {
		t.Error("expected error for string datatype")
	}
}

func TestStrings(t *testing.T) {
	in := []string{"sampleA", "", "Ångström"}
	raw, err := EncodeStrings(in)
	if err != nil {
		t.Fatal(err)
	}
	out, err := DecodeStrings(raw, uint64(len(in)))
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(in, out) {
		t.Errorf("expected %q, got %q", in, out)
	}

	if _, err := DecodeStrings(raw, 2); err == nil {
		t.Error("expected trailing bytes error")
	}
	if _, err := DecodeStrings(raw[:len(raw)-1], 3); err == nil {
		t.Error("expected truncation error")
	}
	if _, err := EncodeStrings([]string{"\xff"}); err == nil {
		t.Error("expected invalid UTF-8 error")
	}
	if _, err := DecodeStrings([]byte{1, 0, 0, 0, 0xff}, 1); err == nil {
		t.Error("expected invalid UTF-8 error")
	}
}

func TestEncodeScalarAndMismatch(t *testing.T) {
	raw, err := Encode(message.NewFixedPointDatatype(8, true, message.OrderLE), int64(7))
	if err != nil {
		t.Fatal(err)
	}
	if len(raw) != 8 || raw[0] != 7 {
		t.Errorf("got % x", raw)
	}

	if _, err := Encode(message.NewFloatDatatype(8, message.OrderLE), []string{"x"}); err == nil {
		t.Error("expected error encoding strings as float")
	}
	s, err := Encode(message.NewVarLenStringDatatype(message.CharsetUTF8), "hi")
	if err != nil {
		t.Fatal(err)
	}
	if len(s) != 6 {
		t.Errorf("expected 6 bytes, got %d", len(s))
	}
}
