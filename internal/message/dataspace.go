package message

import (
	"errors"
	"fmt"
	"math/bits"

	"github.com/robert-malhotra/go-lnqm/internal/binary"
)

// maxRank bounds the number of dimensions a dataspace may declare.
const maxRank = 32

// Dataspace describes the shape of a blob. A rank-0 dataspace is a scalar.
type Dataspace struct {
	Dimensions []uint64
}

func (m *Dataspace) Type() Type { return TypeDataspace }

// NewDataspace creates a dataspace with the given dimensions.
func NewDataspace(dims ...uint64) *Dataspace {
	return &Dataspace{Dimensions: append([]uint64(nil), dims...)}
}

// Rank returns the number of dimensions.
func (m *Dataspace) Rank() int { return len(m.Dimensions) }

// IsScalar reports whether the dataspace holds a single element.
func (m *Dataspace) IsScalar() bool { return len(m.Dimensions) == 0 }

// ErrTooManyElements is returned when the product of a dataspace's
// dimensions does not fit in a uint64.
var ErrTooManyElements = errors.New("dataspace element count overflows")

// NumElements returns the total number of elements.
func (m *Dataspace) NumElements() (uint64, error) {
	n := uint64(1)
	for _, d := range m.Dimensions {
		hi, lo := bits.Mul64(n, d)
		if hi != 0 {
			return 0, fmt.Errorf("%w: dimensions %v", ErrTooManyElements, m.Dimensions)
		}
		n = lo
	}
	return n, nil
}

// Serialize writes rank(1) followed by one length per dimension.
func (m *Dataspace) Serialize(w *binary.Writer) error {
	if err := w.WriteUint8(uint8(len(m.Dimensions))); err != nil {
		return err
	}
	for _, d := range m.Dimensions {
		if err := w.WriteLength(d); err != nil {
			return err
		}
	}
	return nil
}

// SerializedSize returns the encoded size.
func (m *Dataspace) SerializedSize(cfg binary.Config) int {
	return 1 + len(m.Dimensions)*cfg.LengthSize
}

func parseDataspace(r *binary.Reader) (*Dataspace, error) {
	rank, err := r.ReadUint8()
	if err != nil {
		return nil, err
	}
	if rank > maxRank {
		return nil, fmt.Errorf("rank %d exceeds maximum %d", rank, maxRank)
	}
	ds := &Dataspace{Dimensions: make([]uint64, rank)}
	for i := range ds.Dimensions {
		if ds.Dimensions[i], err = r.ReadLength(); err != nil {
			return nil, err
		}
	}
	return ds, nil
}
