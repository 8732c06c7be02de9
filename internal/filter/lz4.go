package filter

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/pierrec/lz4/v4"

	"github.com/robert-malhotra/go-lnqm/internal/message"
)

// DefaultLZ4BlockSize is the block size used when client data is empty.
const DefaultLZ4BlockSize = 1 << 20

// LZ4 implements block-wise LZ4 compression.
//
// Stored form (big-endian, matching the HDF5 LZ4 plugin):
//
//	raw size    uint64
//	block size  uint32
//	blocks      n x (stored size uint32, bytes)
//
// A block whose stored size equals its raw size is kept uncompressed.
type LZ4 struct {
	blockSize int
}

// NewLZ4 creates a new LZ4 filter.
// Client data: [0] = block size in bytes
func NewLZ4(clientData []uint32) *LZ4 {
	size := DefaultLZ4BlockSize
	if len(clientData) > 0 && clientData[0] > 0 {
		size = int(clientData[0])
	}
	return &LZ4{blockSize: size}
}

func (f *LZ4) ID() uint16 {
	return message.FilterLZ4
}

func (f *LZ4) Encode(input []byte) ([]byte, error) {
	out := make([]byte, 12, 12+lz4.CompressBlockBound(len(input))+4*(len(input)/f.blockSize+1))
	binary.BigEndian.PutUint64(out[0:], uint64(len(input)))
	binary.BigEndian.PutUint32(out[8:], uint32(f.blockSize))

	scratch := make([]byte, lz4.CompressBlockBound(f.blockSize))
	var c lz4.Compressor
	for off := 0; off < len(input); off += f.blockSize {
		block := input[off:min(off+f.blockSize, len(input))]
		n, err := c.CompressBlock(block, scratch)
		if err != nil {
			return nil, fmt.Errorf("lz4 compress: %w", err)
		}
		if n == 0 || n >= len(block) {
			out = binary.BigEndian.AppendUint32(out, uint32(len(block)))
			out = append(out, block...)
			continue
		}
		out = binary.BigEndian.AppendUint32(out, uint32(n))
		out = append(out, scratch[:n]...)
	}
	return out, nil
}

func (f *LZ4) Decode(input []byte) ([]byte, error) {
	if len(input) < 12 {
		return nil, errors.New("lz4: input too short for header")
	}
	rawSize := binary.BigEndian.Uint64(input[0:])
	blockSize := uint64(binary.BigEndian.Uint32(input[8:]))
	if blockSize == 0 && rawSize > 0 {
		return nil, errors.New("lz4: zero block size")
	}
	// LZ4 cannot expand a byte into more than 255, which bounds how much a
	// corrupt size field can make us allocate.
	if rawSize > uint64(len(input))*255 {
		return nil, fmt.Errorf("lz4: raw size %d inconsistent with input", rawSize)
	}

	out := make([]byte, rawSize)
	pos := 12
	for off := uint64(0); off < rawSize; off += blockSize {
		want := min(blockSize, rawSize-off)
		if len(input)-pos < 4 {
			return nil, errors.New("lz4: truncated block header")
		}
		stored := int(binary.BigEndian.Uint32(input[pos:]))
		pos += 4
		if stored > len(input)-pos {
			return nil, errors.New("lz4: truncated block")
		}
		src := input[pos : pos+stored]
		pos += stored

		dst := out[off : off+want]
		if uint64(stored) == want {
			copy(dst, src)
			continue
		}
		n, err := lz4.UncompressBlock(src, dst)
		if err != nil {
			return nil, fmt.Errorf("lz4 decompress: %w", err)
		}
		if uint64(n) != want {
			return nil, errors.New("lz4: decompressed size mismatch")
		}
	}
	if pos != len(input) {
		return nil, fmt.Errorf("lz4: %d trailing bytes", len(input)-pos)
	}
	return out, nil
}
