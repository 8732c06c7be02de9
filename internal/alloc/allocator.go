package alloc

import (
	"fmt"
	"slices"
	"sync"
)

// Tag classifies an allocation.
type Tag uint8

const (
	TagHeader  Tag = iota // Object headers.
	TagData               // Blob payloads.
	TagPadding            // Alignment gaps.
)

func (t Tag) String() string {
	switch t {
	case TagHeader:
		return "header"
	case TagData:
		return "data"
	case TagPadding:
		return "padding"
	default:
		return fmt.Sprintf("tag(%d)", uint8(t))
	}
}

// Allocator manages append-only space allocation within a container file.
// It is safe for concurrent use.
type Allocator struct {
	mu sync.Mutex

	// eofAddr is the current end-of-file address (next allocation point)
	eofAddr uint64

	// baseAddr is the minimum address that can be allocated
	baseAddr uint64

	allocations []Allocation
	stats       Stats
}

// Allocation represents a single allocation made.
type Allocation struct {
	Addr uint64
	Size uint64
	Tag  Tag
}

// Stats contains allocation statistics.
type Stats struct {
	TotalAllocations uint64 // Number of allocations made
	TotalBytesAlloc  uint64 // Total bytes allocated, padding included
	LargestAlloc     uint64 // Largest single allocation
}

// New creates a new Allocator starting at the given base address.
func New(baseAddr uint64) *Allocator {
	return &Allocator{
		eofAddr:  baseAddr,
		baseAddr: baseAddr,
	}
}

// Alloc allocates a block of the given size at EOF and returns its address.
// Zero-size allocations return the current EOF and are not recorded.
func (a *Allocator) Alloc(size uint64, tag Tag) uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.allocLocked(size, tag)
}

func (a *Allocator) allocLocked(size uint64, tag Tag) uint64 {
	if size == 0 {
		return a.eofAddr
	}

	addr := a.eofAddr
	a.eofAddr += size

	a.allocations = append(a.allocations, Allocation{
		Addr: addr,
		Size: size,
		Tag:  tag,
	})

	a.stats.TotalAllocations++
	a.stats.TotalBytesAlloc += size
	if size > a.stats.LargestAlloc {
		a.stats.LargestAlloc = size
	}

	return addr
}

// AllocAligned allocates a block whose address is a multiple of alignment.
// Any gap before it is recorded as padding.
func (a *Allocator) AllocAligned(size, alignment uint64, tag Tag) uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()

	if alignment > 1 {
		if rem := a.eofAddr % alignment; rem != 0 {
			a.allocLocked(alignment-rem, TagPadding)
		}
	}
	return a.allocLocked(size, tag)
}

// EOFAddr returns the current end-of-file address.
func (a *Allocator) EOFAddr() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.eofAddr
}

// BaseAddr returns the base address (start of allocatable space).
func (a *Allocator) BaseAddr() uint64 {
	return a.baseAddr
}

// Stats returns a copy of the allocation statistics.
func (a *Allocator) Stats() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stats
}

// Usage returns the number of allocated bytes per tag.
func (a *Allocator) Usage() map[Tag]uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	usage := make(map[Tag]uint64)
	for _, al := range a.allocations {
		usage[al.Tag] += al.Size
	}
	return usage
}

// Allocations returns a copy of all allocations made.
func (a *Allocator) Allocations() []Allocation {
	a.mu.Lock()
	defer a.mu.Unlock()
	return slices.Clone(a.allocations)
}

// Validate checks that allocations don't overlap and lie within
// [base, EOF).
func (a *Allocator) Validate() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	sorted := slices.Clone(a.allocations)
	slices.SortFunc(sorted, func(x, y Allocation) int {
		switch {
		case x.Addr < y.Addr:
			return -1
		case x.Addr > y.Addr:
			return 1
		}
		return 0
	})

	prevEnd := a.baseAddr
	for _, al := range sorted {
		if al.Addr < prevEnd {
			if al.Addr < a.baseAddr {
				return fmt.Errorf("allocation at 0x%x is before base address 0x%x", al.Addr, a.baseAddr)
			}
			return fmt.Errorf("overlapping allocation at 0x%x size %d", al.Addr, al.Size)
		}
		prevEnd = al.Addr + al.Size
	}
	if prevEnd > a.eofAddr {
		return fmt.Errorf("allocation ending at 0x%x extends past EOF 0x%x", prevEnd, a.eofAddr)
	}
	return nil
}
