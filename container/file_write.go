package container

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"

	"github.com/robert-malhotra/go-lnqm/internal/alloc"
	binpkg "github.com/robert-malhotra/go-lnqm/internal/binary"
	"github.com/robert-malhotra/go-lnqm/internal/message"
	"github.com/robert-malhotra/go-lnqm/internal/object"
	"github.com/robert-malhotra/go-lnqm/internal/superblock"
)

// headerAlignment is the alignment of object headers within the file.
const headerAlignment = 8

// Create creates a new container that will appear at path when Close
// succeeds. Until then the data lives in a temporary file in the same
// directory, and any existing file at path is left untouched.
func Create(path string, opts ...FileOption) (*File, error) {
	options := defaultFileOptions()
	for _, opt := range opts {
		opt(options)
	}

	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	osFile, err := os.CreateTemp(dir, "."+base+".tmp-*")
	if err != nil {
		return nil, fmt.Errorf("creating file: %w", err)
	}

	sb := superblock.New(options.offsetSize)
	cfg := binpkg.Config{
		ByteOrder:  binary.LittleEndian,
		OffsetSize: options.offsetSize,
		LengthSize: options.offsetSize,
	}

	f := &File{
		path:       path,
		file:       osFile,
		reader:     binpkg.NewReader(osFile, cfg),
		superblock: sb,
		writable:   true,
		tmpPath:    osFile.Name(),
		writer:     binpkg.NewWriter(osFile, cfg),
		allocator:  alloc.New(uint64(superblock.Size(options.offsetSize))),
	}
	f.root = &Group{file: f, path: "/", node: &groupNode{}}
	return f, nil
}

// Abort discards a file returned by Create without writing it to its path.
// It is a no-op after Close.
func (f *File) Abort() error {
	if f.closed {
		return nil
	}
	f.closed = true
	if !f.writable {
		return f.file.Close()
	}
	err := f.file.Close()
	if rmErr := os.Remove(f.tmpPath); err == nil {
		err = rmErr
	}
	return err
}

// AllocStats returns allocation statistics of a file being written.
func (f *File) AllocStats() alloc.Stats {
	if f.allocator == nil {
		return alloc.Stats{}
	}
	return f.allocator.Stats()
}

// commit writes every pending group header bottom-up, then the superblock,
// syncs and renames the temporary file to its final path.
func (f *File) commit() error {
	rootAddr, err := f.writeGroup(f.root.node)
	if err != nil {
		return fmt.Errorf("writing groups: %w", err)
	}
	if err := f.allocator.Validate(); err != nil {
		return fmt.Errorf("validating layout: %w", err)
	}

	f.superblock.RootAddress = rootAddr
	f.superblock.EOFAddress = f.allocator.EOFAddr()
	if _, err := f.superblock.Write(f.writer.At(0)); err != nil {
		return fmt.Errorf("writing superblock: %w", err)
	}
	if err := f.file.Truncate(int64(f.superblock.EOFAddress)); err != nil {
		return fmt.Errorf("truncating file: %w", err)
	}
	if err := f.file.Sync(); err != nil {
		return fmt.Errorf("syncing file: %w", err)
	}
	if err := os.Chmod(f.tmpPath, 0o644); err != nil {
		return fmt.Errorf("setting permissions: %w", err)
	}
	if err := os.Rename(f.tmpPath, f.path); err != nil {
		return fmt.Errorf("renaming into place: %w", err)
	}
	return nil
}

// writeGroup writes the headers of n's subgroups and then n itself,
// returning the address of n's header.
func (f *File) writeGroup(n *groupNode) (uint64, error) {
	links := make([]*message.Link, 0, len(n.members))
	for _, m := range n.members {
		addr := m.addr
		if m.group != nil {
			var err error
			if addr, err = f.writeGroup(m.group); err != nil {
				return 0, fmt.Errorf("%s: %w", m.name, err)
			}
		}
		links = append(links, message.NewHardLink(m.name, addr))
	}
	return f.writeHeader(object.KindGroup, object.NewGroupMessages(links, n.attrs))
}

// writeHeader allocates space for an object header and writes it.
func (f *File) writeHeader(kind object.Kind, msgs []message.Serializable) (uint64, error) {
	size := object.Size(f.writer.Config(), msgs)
	addr := f.allocator.AllocAligned(uint64(size), headerAlignment, alloc.TagHeader)
	if _, err := object.WriteHeader(f.writer.At(int64(addr)), kind, msgs); err != nil {
		return 0, err
	}
	return addr, nil
}

// writeData allocates space for a blob payload and writes it.
func (f *File) writeData(data []byte) (uint64, error) {
	addr := f.allocator.Alloc(uint64(len(data)), alloc.TagData)
	if err := f.writer.At(int64(addr)).WriteBytes(data); err != nil {
		return 0, err
	}
	return addr, nil
}

// checkWritable reports whether metadata can still be added.
func (f *File) checkWritable() error {
	switch {
	case f.closed:
		return ErrClosed
	case !f.IsWritable():
		return ErrReadOnly
	}
	return nil
}
