package container

import (
	"fmt"
	"strings"

	"github.com/robert-malhotra/go-lnqm/internal/message"
)

// FileOption configures file creation options.
type FileOption func(*fileOptions)

type fileOptions struct {
	offsetSize int
}

func defaultFileOptions() *fileOptions {
	return &fileOptions{
		offsetSize: 8,
	}
}

// WithOffsetSize sets the size in bytes of file offsets and lengths (4 or 8).
// Four-byte offsets limit the file to 4 GiB.
func WithOffsetSize(size int) FileOption {
	return func(o *fileOptions) {
		if size == 4 || size == 8 {
			o.offsetSize = size
		}
	}
}

// Compression selects the compression filter applied to a blob.
type Compression string

const (
	CompressionNone    Compression = "none"
	CompressionDeflate Compression = "deflate"
	CompressionLZ4     Compression = "lz4"
	CompressionZstd    Compression = "zstd"
)

// ParseCompression parses a compression name. The empty string means none.
func ParseCompression(s string) (Compression, error) {
	switch c := Compression(strings.ToLower(strings.TrimSpace(s))); c {
	case "", CompressionNone:
		return CompressionNone, nil
	case CompressionDeflate, CompressionLZ4, CompressionZstd:
		return c, nil
	default:
		return "", fmt.Errorf("%w: compression %q", ErrUnsupported, s)
	}
}

func (c Compression) filter(level int) (message.FilterInfo, bool) {
	var cd []uint32
	if level > 0 {
		cd = []uint32{uint32(level)}
	}
	switch c {
	case CompressionDeflate:
		return message.FilterInfo{ID: message.FilterDeflate, ClientData: cd}, true
	case CompressionLZ4:
		return message.FilterInfo{ID: message.FilterLZ4}, true
	case CompressionZstd:
		return message.FilterInfo{ID: message.FilterZstd, ClientData: cd}, true
	default:
		return message.FilterInfo{}, false
	}
}

// BlobOption configures blob creation options.
type BlobOption func(*blobOptions)

// attrDef holds an attribute definition for creation.
type attrDef struct {
	name  string
	value any
}

type blobOptions struct {
	shape       []uint64
	compression Compression
	level       int
	shuffle     bool
	fletcher32  bool
	attributes  []attrDef
}

func defaultBlobOptions() *blobOptions {
	return &blobOptions{compression: CompressionNone}
}

// WithShape sets the blob dimensions. The product must equal the number of
// elements written. Without it a blob is one-dimensional.
func WithShape(dims ...uint64) BlobOption {
	return func(o *blobOptions) {
		o.shape = dims
	}
}

// WithCompression selects a compression filter. Level 0 picks the filter's
// default; LZ4 ignores the level.
func WithCompression(c Compression, level int) BlobOption {
	return func(o *blobOptions) {
		o.compression = c
		o.level = level
	}
}

// WithShuffle enables the shuffle filter (improves compression of numbers).
func WithShuffle() BlobOption {
	return func(o *blobOptions) {
		o.shuffle = true
	}
}

// WithFletcher32 appends a Fletcher-32 checksum to the stored payload.
func WithFletcher32() BlobOption {
	return func(o *blobOptions) {
		o.fletcher32 = true
	}
}

// WithAttribute adds an attribute to the blob. The value can be a scalar or
// slice of: int, int8-64, uint, uint8-64, float32, float64, string.
// Multiple WithAttribute options can be used to add multiple attributes.
func WithAttribute(name string, value any) BlobOption {
	return func(o *blobOptions) {
		o.attributes = append(o.attributes, attrDef{name: name, value: value})
	}
}

// pipeline builds the filter pipeline for elements of elemSize bytes. Shuffle
// runs before compression and the checksum runs last so it covers the
// stored bytes.
func (o *blobOptions) pipeline(elemSize int) *message.FilterPipeline {
	fp := &message.FilterPipeline{}
	if o.shuffle && elemSize > 1 {
		fp.Filters = append(fp.Filters, message.FilterInfo{
			ID:         message.FilterShuffle,
			ClientData: []uint32{uint32(elemSize)},
		})
	}
	if f, ok := o.compression.filter(o.level); ok {
		fp.Filters = append(fp.Filters, f)
	}
	if o.fletcher32 {
		fp.Filters = append(fp.Filters, message.FilterInfo{ID: message.FilterFletcher32})
	}
	return fp
}
