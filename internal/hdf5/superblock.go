package hdf5

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	binpkg "github.com/robert-malhotra/go-lnqm/internal/binary"
)

// Signature identifies an HDF5 file. It sits at offset 0 or at a power of
// two from 512 on when the file carries a user block.
var Signature = []byte{0x89, 'H', 'D', 'F', '\r', '\n', 0x1a, '\n'}

// maxSignatureOffset bounds the search for a superblock behind a user block.
const maxSignatureOffset = 1 << 20

// Superblock is the file-level metadata of an HDF5 file. Addresses are
// relative to BaseAddress.
type Superblock struct {
	Version     uint8
	BaseAddress uint64
	EOFAddress  uint64
	RootAddress uint64
	Config      binpkg.Config
}

// ReadSuperblock locates and parses the superblock.
func ReadSuperblock(r io.ReaderAt) (*Superblock, error) {
	sig := make([]byte, len(Signature))
	for off := int64(0); off <= maxSignatureOffset; {
		if n, err := r.ReadAt(sig, off); n < len(sig) {
			if err == nil || errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("reading superblock: %w", err)
		}
		if bytes.Equal(sig, Signature) {
			return parseSuperblock(r, off)
		}
		if off == 0 {
			off = 512
		} else {
			off *= 2
		}
	}
	return nil, ErrNotHDF5
}

func parseSuperblock(r io.ReaderAt, at int64) (*Superblock, error) {
	// Version 0 with 8-byte addresses is the largest fixed part: 24 bytes of
	// prefix, four addresses and a root symbol table entry.
	buf := make([]byte, 24+4+4*8+40)
	n, err := r.ReadAt(buf, at)
	if n < 12 {
		if err == nil || errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: truncated superblock", ErrCorrupt)
		}
		return nil, fmt.Errorf("reading superblock: %w", err)
	}
	buf = buf[:n]

	sb := &Superblock{Version: buf[8]}
	switch sb.Version {
	case 0, 1:
		return parseSuperblockV0(sb, buf, at)
	case 2, 3:
		return parseSuperblockV2(sb, buf, at)
	default:
		return nil, fmt.Errorf("%w: superblock version %d", ErrUnsupported, sb.Version)
	}
}

func newConfig(offsetSize, lengthSize uint8) (binpkg.Config, error) {
	cfg := binpkg.Config{
		ByteOrder:  binary.LittleEndian,
		OffsetSize: int(offsetSize),
		LengthSize: int(lengthSize),
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%w: %w", ErrUnsupported, err)
	}
	return cfg, nil
}

// parseSuperblockV0 handles versions 0 and 1. Version 1 inserts the indexed
// storage K and two reserved bytes before the addresses.
func parseSuperblockV0(sb *Superblock, buf []byte, at int64) (*Superblock, error) {
	if len(buf) < 24 {
		return nil, fmt.Errorf("%w: truncated superblock", ErrCorrupt)
	}
	var err error
	if sb.Config, err = newConfig(buf[13], buf[14]); err != nil {
		return nil, err
	}
	pos := 24
	if sb.Version == 1 {
		pos += 4
	}
	width := sb.Config.OffsetSize
	if len(buf) < pos+6*width {
		return nil, fmt.Errorf("%w: truncated superblock", ErrCorrupt)
	}

	r := binpkg.NewBytesReader(buf[pos:], sb.Config)
	sb.BaseAddress, _ = r.ReadOffset()
	r.Skip(int64(width)) // free-space info
	sb.EOFAddress, _ = r.ReadOffset()
	r.Skip(int64(width)) // driver info
	r.Skip(int64(width)) // root entry name offset
	sb.RootAddress, _ = r.ReadOffset()
	return sb.rebase(at)
}

func parseSuperblockV2(sb *Superblock, buf []byte, at int64) (*Superblock, error) {
	var err error
	if sb.Config, err = newConfig(buf[9], buf[10]); err != nil {
		return nil, err
	}
	width := sb.Config.OffsetSize
	end := 12 + 4*width
	if len(buf) < end+4 {
		return nil, fmt.Errorf("%w: truncated superblock", ErrCorrupt)
	}
	if got, want := binpkg.Lookup3Checksum(buf[:end]), binary.LittleEndian.Uint32(buf[end:]); got != want {
		return nil, fmt.Errorf("%w: superblock stored %08x, computed %08x", ErrChecksumMismatch, want, got)
	}

	r := binpkg.NewBytesReader(buf[12:end], sb.Config)
	sb.BaseAddress, _ = r.ReadOffset()
	r.Skip(int64(width)) // superblock extension
	sb.EOFAddress, _ = r.ReadOffset()
	sb.RootAddress, _ = r.ReadOffset()
	return sb.rebase(at)
}

// rebase checks that the base address matches where the signature was found.
// Files whose user block was added after writing keep a base of 0, in which
// case addresses are taken as relative to the signature.
func (sb *Superblock) rebase(at int64) (*Superblock, error) {
	switch {
	case sb.BaseAddress == uint64(at):
	case sb.BaseAddress == 0:
		sb.BaseAddress = uint64(at)
	default:
		return nil, fmt.Errorf("%w: base address %d, signature at %d", ErrCorrupt, sb.BaseAddress, at)
	}
	return sb, nil
}
