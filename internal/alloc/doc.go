// Package alloc hands out file addresses while a container is being written.
//
// Containers are written append-only: blob data and object headers are placed
// at the current end of file, which then advances. The superblock occupies a
// fixed reservation at offset 0, so the allocator starts right after it.
//
//	a := alloc.New(uint64(superblock.Size(8)))
//	dataAddr := a.Alloc(1024, alloc.TagData)
//	hdrAddr := a.AllocAligned(96, 8, alloc.TagHeader)
//
// Every allocation is recorded so [Allocator.Validate] can check for overlaps
// before the superblock is committed, and [Allocator.Usage] reports how the
// file's bytes split between metadata and data.
package alloc
