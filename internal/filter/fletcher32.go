package filter

import (
	"encoding/binary"
	"errors"
	"fmt"

	binpkg "github.com/robert-malhotra/go-lnqm/internal/binary"
	"github.com/robert-malhotra/go-lnqm/internal/message"
)

// ErrChecksumMismatch is returned when stored data fails its Fletcher-32 check.
var ErrChecksumMismatch = errors.New("fletcher32: checksum mismatch")

// Fletcher32Filter implements the Fletcher-32 checksum filter. The checksum
// is stored little-endian in the last 4 bytes.
type Fletcher32Filter struct{}

// NewFletcher32 creates a new Fletcher-32 filter.
func NewFletcher32([]uint32) *Fletcher32Filter {
	return &Fletcher32Filter{}
}

func (f *Fletcher32Filter) ID() uint16 {
	return message.FilterFletcher32
}

// Encode appends the checksum of input.
func (f *Fletcher32Filter) Encode(input []byte) ([]byte, error) {
	out := make([]byte, len(input)+4)
	copy(out, input)
	binary.LittleEndian.PutUint32(out[len(input):], binpkg.Fletcher32(input))
	return out, nil
}

// Decode verifies the checksum and returns the data without it.
func (f *Fletcher32Filter) Decode(input []byte) ([]byte, error) {
	if len(input) < 4 {
		return nil, fmt.Errorf("fletcher32: input too short for checksum")
	}

	data := input[:len(input)-4]
	stored := binary.LittleEndian.Uint32(input[len(input)-4:])
	computed := binpkg.Fletcher32(data)

	if stored != computed {
		return nil, fmt.Errorf("%w (stored=0x%08x, computed=0x%08x)",
			ErrChecksumMismatch, stored, computed)
	}

	return data, nil
}
