package message

import (
	"fmt"

	"github.com/robert-malhotra/go-lnqm/internal/binary"
)

// Filter identifiers. Deflate, shuffle and Fletcher-32 use the HDF5 numbers;
// LZ4 and Zstandard use their registered HDF5 plugin numbers.
const (
	FilterDeflate    uint16 = 1
	FilterShuffle    uint16 = 2
	FilterFletcher32 uint16 = 3
	FilterLZ4        uint16 = 32004
	FilterZstd       uint16 = 32015
)

// FilterFlagOptional marks a filter that readers may skip when unavailable.
const FilterFlagOptional uint16 = 0x0001

// FilterInfo is one stage of a filter pipeline.
type FilterInfo struct {
	ID         uint16
	Flags      uint16
	ClientData []uint32
}

// IsOptional reports whether the filter may be skipped.
func (f FilterInfo) IsOptional() bool {
	return f.Flags&FilterFlagOptional != 0
}

// FilterPipeline lists the filters applied, in order, when a blob was written.
type FilterPipeline struct {
	Filters []FilterInfo
}

func (m *FilterPipeline) Type() Type { return TypeFilterPipeline }

// Serialize writes count(1) then id(2) flags(2) n(1) values(4*n) per filter.
func (m *FilterPipeline) Serialize(w *binary.Writer) error {
	if len(m.Filters) > 0xFF {
		return fmt.Errorf("too many filters: %d", len(m.Filters))
	}
	if err := w.WriteUint8(uint8(len(m.Filters))); err != nil {
		return err
	}
	for _, f := range m.Filters {
		if len(f.ClientData) > 0xFF {
			return fmt.Errorf("filter %d: too many client values", f.ID)
		}
		if err := w.WriteUint16(f.ID); err != nil {
			return err
		}
		if err := w.WriteUint16(f.Flags); err != nil {
			return err
		}
		if err := w.WriteUint8(uint8(len(f.ClientData))); err != nil {
			return err
		}
		for _, v := range f.ClientData {
			if err := w.WriteUint32(v); err != nil {
				return err
			}
		}
	}
	return nil
}

// SerializedSize returns the encoded size.
func (m *FilterPipeline) SerializedSize(binary.Config) int {
	size := 1
	for _, f := range m.Filters {
		size += 5 + 4*len(f.ClientData)
	}
	return size
}

func parseFilterPipeline(r *binary.Reader) (*FilterPipeline, error) {
	n, err := r.ReadUint8()
	if err != nil {
		return nil, err
	}
	m := &FilterPipeline{Filters: make([]FilterInfo, n)}
	for i := range m.Filters {
		f := &m.Filters[i]
		if f.ID, err = r.ReadUint16(); err != nil {
			return nil, err
		}
		if f.Flags, err = r.ReadUint16(); err != nil {
			return nil, err
		}
		nvals, err := r.ReadUint8()
		if err != nil {
			return nil, err
		}
		if nvals > 0 {
			f.ClientData = make([]uint32, nvals)
		}
		for j := range f.ClientData {
			if f.ClientData[j], err = r.ReadUint32(); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}
