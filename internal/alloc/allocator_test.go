package alloc

import (
	"sync"
	"testing"
)

func TestAllocatorBasic(t *testing.T) {
	a := New(1024)

	addr1 := a.Alloc(100, TagData)
	if addr1 != 1024 {
		t.Errorf("first allocation: got 0x%x, want 0x%x", addr1, 1024)
	}

	addr2 := a.Alloc(200, TagHeader)
	if addr2 != 1124 {
		t.Errorf("second allocation: got 0x%x, want 0x%x", addr2, 1124)
	}

	if a.EOFAddr() != 1324 {
		t.Errorf("EOF: got 0x%x, want 0x%x", a.EOFAddr(), 1324)
	}
	if a.BaseAddr() != 1024 {
		t.Errorf("base: got 0x%x", a.BaseAddr())
	}
}

func TestAllocatorZeroSize(t *testing.T) {
	a := New(100)

	if addr := a.Alloc(0, TagData); addr != 100 {
		t.Errorf("zero allocation: got 0x%x, want 0x%x", addr, 100)
	}
	if a.EOFAddr() != 100 {
		t.Errorf("EOF after zero alloc: got 0x%x, want 0x%x", a.EOFAddr(), 100)
	}
	if n := len(a.Allocations()); n != 0 {
		t.Errorf("zero allocation was recorded: %d", n)
	}
}

func TestAllocatorAligned(t *testing.T) {
	a := New(100)
	a.Alloc(13, TagData) // Now at 113

	addr := a.AllocAligned(50, 8, TagHeader)
	if addr != 120 {
		t.Errorf("aligned allocation: got %d, want 120", addr)
	}

	usage := a.Usage()
	if usage[TagPadding] != 7 {
		t.Errorf("padding: got %d, want 7", usage[TagPadding])
	}
	if usage[TagData] != 13 || usage[TagHeader] != 50 {
		t.Errorf("usage: %v", usage)
	}

	// Already aligned: no padding.
	before := a.EOFAddr() // 170
	a.AllocAligned(6, 2, TagData)
	if a.Usage()[TagPadding] != 7 || a.EOFAddr() != before+6 {
		t.Errorf("unexpected padding for aligned EOF")
	}
}

func TestAllocatorStats(t *testing.T) {
	a := New(0)
	a.Alloc(10, TagData)
	a.Alloc(30, TagData)
	a.Alloc(20, TagHeader)

	s := a.Stats()
	if s.TotalAllocations != 3 || s.TotalBytesAlloc != 60 || s.LargestAlloc != 30 {
		t.Errorf("stats: %+v", s)
	}
}

func TestAllocatorValidate(t *testing.T) {
	a := New(64)
	for i := 0; i < 10; i++ {
		a.AllocAligned(uint64(i+1), 8, TagData)
	}
	if err := a.Validate(); err != nil {
		t.Errorf("validate: %v", err)
	}

	a.allocations = append(a.allocations, Allocation{Addr: 70, Size: 4})
	if err := a.Validate(); err == nil {
		t.Error("expected overlap error")
	}

	b := New(64)
	b.allocations = append(b.allocations, Allocation{Addr: 0, Size: 4})
	if err := b.Validate(); err == nil {
		t.Error("expected before-base error")
	}
}

func TestAllocatorConcurrent(t *testing.T) {
	a := New(0)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				a.Alloc(3, TagData)
			}
		}()
	}
	wg.Wait()

	if a.EOFAddr() != 8*100*3 {
		t.Errorf("EOF: got %d", a.EOFAddr())
	}
	if err := a.Validate(); err != nil {
		t.Error(err)
	}
}

func TestTagString(t *testing.T) {
	if TagHeader.String() != "header" || Tag(9).String() != "tag(9)" {
		t.Error("unexpected tag names")
	}
}
