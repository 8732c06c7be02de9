package superblock

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	binpkg "github.com/robert-malhotra/go-lnqm/internal/binary"
)

// Signature identifies a container file.
var Signature = []byte{0x89, 'L', 'N', 'Q', '\r', '\n', 0x1a, '\n'}

// Version is the current superblock version.
const Version = 1

// Errors
var (
	ErrNotContainer       = errors.New("not a container file: signature not found")
	ErrUnsupportedVersion = errors.New("unsupported superblock version")
	ErrInvalidSuperblock  = errors.New("invalid superblock structure")
	ErrChecksumMismatch   = errors.New("superblock checksum mismatch")
)

// Superblock is the file-level metadata.
type Superblock struct {
	Version    uint8
	OffsetSize uint8
	LengthSize uint8
	Flags      uint8

	// EOFAddress is the logical end of file; bytes past it are ignored.
	EOFAddress uint64

	// RootAddress is the address of the root group object header.
	RootAddress uint64
}

// New returns a superblock for a file using the given offset size for both
// offsets and lengths.
func New(offsetSize int) *Superblock {
	return &Superblock{
		Version:    Version,
		OffsetSize: uint8(offsetSize),
		LengthSize: uint8(offsetSize),
	}
}

// Size returns the encoded size of a superblock with the given offset size.
func Size(offsetSize int) int {
	return 8 + 4 + 2*offsetSize + 8
}

// Config returns the reader/writer configuration the superblock describes.
func (sb *Superblock) Config() binpkg.Config {
	return binpkg.Config{
		ByteOrder:  binary.LittleEndian,
		OffsetSize: int(sb.OffsetSize),
		LengthSize: int(sb.LengthSize),
	}
}

// Read parses and verifies the superblock at offset 0.
func Read(r io.ReaderAt) (*Superblock, error) {
	head := make([]byte, 12)
	if n, err := r.ReadAt(head, 0); n < len(head) {
		if err == nil || errors.Is(err, io.EOF) {
			return nil, ErrNotContainer
		}
		return nil, fmt.Errorf("reading superblock: %w", err)
	}
	if string(head[:8]) != string(Signature) {
		return nil, ErrNotContainer
	}

	sb := &Superblock{
		Version:    head[8],
		OffsetSize: head[9],
		LengthSize: head[10],
		Flags:      head[11],
	}
	if sb.Version != Version {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, sb.Version)
	}
	cfg := sb.Config()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSuperblock, err)
	}

	size := Size(int(sb.OffsetSize))
	buf := make([]byte, size)
	if n, err := r.ReadAt(buf, 0); n < size {
		if err == nil || errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: truncated", ErrInvalidSuperblock)
		}
		return nil, fmt.Errorf("reading superblock: %w", err)
	}
	body, stored := buf[:size-8], binary.LittleEndian.Uint64(buf[size-8:])
	if !binpkg.VerifyChecksum(body, stored) {
		return nil, ErrChecksumMismatch
	}

	br := binpkg.NewBytesReader(body, cfg).At(12)
	var err error
	if sb.EOFAddress, err = br.ReadOffset(); err != nil {
		return nil, err
	}
	if sb.RootAddress, err = br.ReadOffset(); err != nil {
		return nil, err
	}
	if sb.RootAddress >= sb.EOFAddress {
		return nil, fmt.Errorf("%w: root address %d beyond eof %d", ErrInvalidSuperblock, sb.RootAddress, sb.EOFAddress)
	}
	return sb, nil
}

// Write writes the superblock at the writer's position and returns the
// number of bytes written.
func (sb *Superblock) Write(w *binpkg.Writer) (int64, error) {
	cfg := sb.Config()
	if err := cfg.Validate(); err != nil {
		return 0, err
	}
	size := Size(int(sb.OffsetSize))
	buf := binpkg.NewBuffer(size)
	bw := binpkg.NewWriter(buf, cfg)

	if err := bw.WriteBytes(Signature); err != nil {
		return 0, err
	}
	for _, b := range []uint8{sb.Version, sb.OffsetSize, sb.LengthSize, sb.Flags} {
		if err := bw.WriteUint8(b); err != nil {
			return 0, err
		}
	}
	if err := bw.WriteOffset(sb.EOFAddress); err != nil {
		return 0, err
	}
	if err := bw.WriteOffset(sb.RootAddress); err != nil {
		return 0, err
	}
	if err := bw.WriteUint64(binpkg.Checksum(buf.Bytes())); err != nil {
		return 0, err
	}
	if err := w.WriteBytes(buf.Bytes()); err != nil {
		return 0, err
	}
	return int64(buf.Len()), nil
}
