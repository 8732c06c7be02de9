package container

import (
	"errors"
	"fmt"
	"math/bits"
	"path"

	"github.com/robert-malhotra/go-lnqm/internal/dtype"
	"github.com/robert-malhotra/go-lnqm/internal/filter"
	"github.com/robert-malhotra/go-lnqm/internal/message"
	"github.com/robert-malhotra/go-lnqm/internal/object"
)

// Blob represents a typed, shaped array stored in a container.
type Blob struct {
	file      *File
	path      string
	header    *object.Header
	datatype  *message.Datatype
	dataspace *message.Dataspace
	layout    *message.Layout
	filters   *message.FilterPipeline
	pipeline  *filter.Pipeline
	count     uint64
}

// newBlob creates a Blob from an object header and checks that its messages
// are complete and consistent.
func newBlob(f *File, path string, header *object.Header) (*Blob, error) {
	b := &Blob{
		file:      f,
		path:      path,
		header:    header,
		datatype:  header.Datatype(),
		dataspace: header.Dataspace(),
		layout:    header.Layout(),
		filters:   header.FilterPipeline(),
	}

	switch {
	case b.datatype == nil:
		return nil, fmt.Errorf("%w: blob %s missing datatype message", ErrCorrupt, path)
	case b.dataspace == nil:
		return nil, fmt.Errorf("%w: blob %s missing dataspace message", ErrCorrupt, path)
	case b.layout == nil:
		return nil, fmt.Errorf("%w: blob %s missing layout message", ErrCorrupt, path)
	}
	if _, err := dtype.GoType(b.datatype); err != nil {
		return nil, fmt.Errorf("%w: blob %s: %v", ErrUnsupported, path, err)
	}
	var err error
	if b.count, err = b.dataspace.NumElements(); err != nil {
		return nil, fmt.Errorf("%w: blob %s: %w", ErrCorrupt, path, err)
	}

	switch b.layout.Class {
	case message.LayoutContiguous:
		if end := b.layout.Address + b.layout.StoredSize; end < b.layout.Address || end > f.Size() {
			return nil, fmt.Errorf("%w: blob %s data extends past end of file", ErrCorrupt, path)
		}
	case message.LayoutCompact:
	default:
		return nil, fmt.Errorf("%w: blob %s layout class %d", ErrUnsupported, path, b.layout.Class)
	}
	if dtype.IsNumeric(b.datatype) {
		hi, want := bits.Mul64(b.count, uint64(b.datatype.Size))
		if hi != 0 {
			return nil, fmt.Errorf("%w: blob %s: %d elements of %d bytes overflow", ErrCorrupt, path, b.count, b.datatype.Size)
		}
		if want != b.layout.RawSize {
			return nil, fmt.Errorf("%w: blob %s raw size %d, expected %d", ErrCorrupt, path, b.layout.RawSize, want)
		}
	}

	if b.pipeline, err = filter.NewPipeline(b.filters); err != nil {
		return nil, fmt.Errorf("%w: blob %s: %w", ErrUnsupported, path, err)
	}
	return b, nil
}

// Name returns the blob name (last component of path).
func (b *Blob) Name() string {
	return path.Base(b.path)
}

// Path returns the full path to this blob.
func (b *Blob) Path() string {
	return b.path
}

// Shape returns the dimensions of the blob.
func (b *Blob) Shape() []uint64 {
	if b.dataspace.IsScalar() {
		return nil
	}
	return b.dataspace.Dimensions
}

// Rank returns the number of dimensions.
func (b *Blob) Rank() int {
	return b.dataspace.Rank()
}

// NumElements returns the total number of elements.
func (b *Blob) NumElements() uint64 {
	return b.count
}

// Datatype returns the element datatype.
func (b *Blob) Datatype() *message.Datatype {
	return b.datatype
}

// TypeName returns a short name of the element type, e.g. "float32".
func (b *Blob) TypeName() string {
	return b.datatype.String()
}

// IsString reports whether the blob holds variable-length strings.
func (b *Blob) IsString() bool {
	return b.datatype.IsString()
}

// StoredSize returns the payload size on disk.
func (b *Blob) StoredSize() uint64 {
	return b.layout.StoredSize
}

// RawSize returns the payload size before filtering.
func (b *Blob) RawSize() uint64 {
	return b.layout.RawSize
}

// Filters returns the names of the filters applied when writing, in order.
func (b *Blob) Filters() []string {
	if b.filters == nil {
		return nil
	}
	names := make([]string, 0, len(b.filters.Filters))
	for _, fi := range b.filters.Filters {
		names = append(names, filter.Name(fi.ID))
	}
	return names
}

// ReadRaw reads the blob's encoded elements with all filters undone.
func (b *Blob) ReadRaw() ([]byte, error) {
	if b.file.closed {
		return nil, ErrClosed
	}

	var stored []byte
	switch b.layout.Class {
	case message.LayoutCompact:
		stored = b.layout.CompactData
	default:
		var err error
		stored, err = b.file.reader.At(int64(b.layout.Address)).ReadBytes(int(b.layout.StoredSize))
		if err != nil {
			return nil, fmt.Errorf("reading blob %s: %w", b.path, classify(err))
		}
	}

	raw, err := b.pipeline.Decode(stored)
	if err != nil {
		if errors.Is(err, filter.ErrChecksumMismatch) {
			return nil, fmt.Errorf("%w: blob %s: %w", ErrChecksum, b.path, err)
		}
		return nil, fmt.Errorf("%w: blob %s: %w", ErrCorrupt, b.path, err)
	}
	if uint64(len(raw)) != b.layout.RawSize {
		return nil, fmt.Errorf("%w: blob %s decoded to %d bytes, expected %d", ErrCorrupt, b.path, len(raw), b.layout.RawSize)
	}
	return raw, nil
}

func readNumeric[T dtype.Number](b *Blob) ([]T, error) {
	if !dtype.IsNumeric(b.datatype) {
		return nil, fmt.Errorf("blob %s holds %s, not numbers", b.path, b.datatype)
	}
	raw, err := b.ReadRaw()
	if err != nil {
		return nil, err
	}
	return dtype.ConvertToSlice[T](b.datatype, raw, b.NumElements())
}

// ReadFloat64 reads the blob as float64 values.
func (b *Blob) ReadFloat64() ([]float64, error) {
	return readNumeric[float64](b)
}

// ReadFloat32 reads the blob as float32 values.
func (b *Blob) ReadFloat32() ([]float32, error) {
	return readNumeric[float32](b)
}

// ReadInt64 reads the blob as int64 values. Unsigned 64-bit storage is
// reinterpreted bit for bit.
func (b *Blob) ReadInt64() ([]int64, error) {
	return readNumeric[int64](b)
}

// ReadUint64 reads the blob as uint64 values.
func (b *Blob) ReadUint64() ([]uint64, error) {
	return readNumeric[uint64](b)
}

// ReadStrings reads a variable-length string blob.
func (b *Blob) ReadStrings() ([]string, error) {
	if !b.datatype.IsString() {
		return nil, fmt.Errorf("blob %s holds %s, not strings", b.path, b.datatype)
	}
	raw, err := b.ReadRaw()
	if err != nil {
		return nil, err
	}
	var ss []string
	if b.file.legacy != nil {
		ss, err = b.file.legacy.DecodeStrings(b.datatype, raw, b.count)
	} else {
		ss, err = dtype.DecodeStrings(raw, b.count)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: blob %s: %w", ErrCorrupt, b.path, err)
	}
	return ss, nil
}

// Attrs returns the attribute names for this blob.
func (b *Blob) Attrs() []string {
	var names []string
	for _, a := range b.header.Attributes() {
		names = append(names, a.Name)
	}
	return names
}

// Attr returns an attribute by name, or nil if not found.
func (b *Blob) Attr(name string) *Attribute {
	if a := b.header.Attribute(name); a != nil {
		return &Attribute{msg: a}
	}
	return nil
}

// HasAttr returns true if the blob has an attribute with the given name.
func (b *Blob) HasAttr(name string) bool {
	return b.Attr(name) != nil
}
