package container

import (
	"errors"
	"fmt"
	"os"

	"github.com/robert-malhotra/go-lnqm/internal/alloc"
	"github.com/robert-malhotra/go-lnqm/internal/binary"
	"github.com/robert-malhotra/go-lnqm/internal/hdf5"
	"github.com/robert-malhotra/go-lnqm/internal/object"
	"github.com/robert-malhotra/go-lnqm/internal/superblock"
)

// File formats reported by Format.
const (
	FormatNative = "lnqm"
	FormatHDF5   = "hdf5"
)

// File represents an open container file.
type File struct {
	path       string
	file       *os.File
	reader     *binary.Reader
	superblock *superblock.Superblock
	legacy     *hdf5.Reader // set for HDF5 files instead of superblock
	root       *Group
	closed     bool

	// Write support fields
	writable  bool
	tmpPath   string
	writer    *binary.Writer
	allocator *alloc.Allocator
}

// Open opens a container file for reading. HDF5 files, such as those
// written by h5py, are read through the same API; see Format.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}

	sb, err := superblock.Read(f)
	if errors.Is(err, superblock.ErrNotContainer) {
		return openHDF5(path, f)
	}
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("reading superblock of %s: %w", path, classify(err))
	}
	if info, err := f.Stat(); err == nil && uint64(info.Size()) < sb.EOFAddress {
		f.Close()
		return nil, fmt.Errorf("%w: %s is truncated (%d of %d bytes)", ErrCorrupt, path, info.Size(), sb.EOFAddress)
	}

	c := &File{
		path:       path,
		file:       f,
		reader:     binary.NewReader(f, sb.Config()),
		superblock: sb,
	}

	root, err := c.openGroupAt(sb.RootAddress, "/")
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("opening root group: %w", err)
	}
	c.root = root

	return c, nil
}

func openHDF5(path string, f *os.File) (*File, error) {
	h, err := hdf5.Open(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("reading superblock of %s: %w", path, classify(err))
	}
	sb := h.Superblock()
	if info, err := f.Stat(); err == nil && uint64(info.Size()) < sb.BaseAddress+sb.EOFAddress {
		f.Close()
		return nil, fmt.Errorf("%w: %s is truncated (%d of %d bytes)", ErrCorrupt, path, info.Size(), sb.BaseAddress+sb.EOFAddress)
	}

	c := &File{
		path:   path,
		file:   f,
		reader: h.Data(),
		legacy: h,
	}
	root, err := c.openGroupAt(sb.RootAddress, "/")
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("opening root group: %w", err)
	}
	c.root = root
	return c, nil
}

// Close closes the file. For a file returned by Create, Close first writes
// all pending metadata and moves the file to its final path.
func (f *File) Close() error {
	if f.closed {
		return nil
	}
	f.closed = true

	if f.writable {
		if err := f.commit(); err != nil {
			f.file.Close()
			os.Remove(f.tmpPath)
			return err
		}
	}
	return f.file.Close()
}

// Root returns the root group of the file.
func (f *File) Root() *Group {
	return f.root
}

// Path returns the file path.
func (f *File) Path() string {
	return f.path
}

// Size returns the logical size of the file in bytes.
func (f *File) Size() uint64 {
	switch {
	case f.writable:
		return f.allocator.EOFAddr()
	case f.legacy != nil:
		return f.legacy.Superblock().EOFAddress
	}
	return f.superblock.EOFAddress
}

// OffsetSize returns the width in bytes of file addresses.
func (f *File) OffsetSize() int {
	if f.legacy != nil {
		return f.legacy.Superblock().Config.OffsetSize
	}
	return int(f.superblock.OffsetSize)
}

// Format returns "hdf5" for files in the HDF5 format and "lnqm" for native
// container files.
func (f *File) Format() string {
	if f.legacy != nil {
		return FormatHDF5
	}
	return FormatNative
}

// IsWritable returns true if the file was created for writing.
func (f *File) IsWritable() bool {
	return f.writable
}

// OpenGroup opens a group by absolute path.
func (f *File) OpenGroup(path string) (*Group, error) {
	if f.closed {
		return nil, ErrClosed
	}
	return f.root.OpenGroup(path)
}

// OpenBlob opens a blob by absolute path.
func (f *File) OpenBlob(path string) (*Blob, error) {
	if f.closed {
		return nil, ErrClosed
	}
	return f.root.OpenBlob(path)
}

// GetAttr returns an attribute by path.
// Path format: /group/object@attribute_name
func (f *File) GetAttr(path string) (*Attribute, error) {
	if f.closed {
		return nil, ErrClosed
	}

	objectPath, attrName, err := ParseAttrPath(path)
	if err != nil {
		return nil, err
	}

	var holder interface{ Attr(string) *Attribute }
	if g, err := f.OpenGroup(objectPath); err == nil {
		holder = g
	} else if b, err := f.OpenBlob(objectPath); err == nil {
		holder = b
	} else {
		return nil, fmt.Errorf("opening object %s: %w", objectPath, err)
	}

	attr := holder.Attr(attrName)
	if attr == nil {
		return nil, fmt.Errorf("%w: attribute %s", ErrNotFound, path)
	}
	return attr, nil
}

// readHeader reads and verifies the object header at address.
func (f *File) readHeader(address uint64) (*object.Header, error) {
	if address >= f.Size() {
		return nil, fmt.Errorf("%w: object address %d beyond end of file", ErrCorrupt, address)
	}
	var (
		h   *object.Header
		err error
	)
	if f.legacy != nil {
		h, err = f.legacy.ReadHeader(address)
	} else {
		h, err = object.Read(f.reader, address)
	}
	if err != nil {
		return nil, classify(err)
	}
	return h, nil
}

// openGroupAt opens a group at the given address.
func (f *File) openGroupAt(address uint64, path string) (*Group, error) {
	header, err := f.readHeader(address)
	if err != nil {
		return nil, fmt.Errorf("reading object header: %w", err)
	}
	if !header.IsGroup() {
		return nil, fmt.Errorf("%s: %w", path, ErrNotGroup)
	}
	return &Group{file: f, path: path, header: header}, nil
}

// openBlobAt opens a blob at the given address.
func (f *File) openBlobAt(address uint64, path string) (*Blob, error) {
	header, err := f.readHeader(address)
	if err != nil {
		return nil, fmt.Errorf("reading object header: %w", err)
	}
	if !header.IsBlob() {
		return nil, fmt.Errorf("%s: %w", path, ErrNotBlob)
	}
	return newBlob(f, path, header)
}

// classify maps internal format errors onto the package sentinels.
func classify(err error) error {
	switch {
	case errors.Is(err, superblock.ErrNotContainer),
		errors.Is(err, hdf5.ErrNotHDF5):
		return fmt.Errorf("%w: %w", ErrNotContainer, err)
	case errors.Is(err, superblock.ErrChecksumMismatch),
		errors.Is(err, object.ErrChecksumMismatch),
		errors.Is(err, hdf5.ErrChecksumMismatch):
		return fmt.Errorf("%w: %w", ErrChecksum, err)
	case errors.Is(err, superblock.ErrUnsupportedVersion),
		errors.Is(err, object.ErrUnsupportedVersion),
		errors.Is(err, hdf5.ErrUnsupported):
		return fmt.Errorf("%w: %w", ErrUnsupported, err)
	case errors.Is(err, superblock.ErrInvalidSuperblock),
		errors.Is(err, object.ErrInvalidHeader),
		errors.Is(err, hdf5.ErrCorrupt),
		errors.Is(err, binary.ErrShortRead):
		return fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	return err
}
