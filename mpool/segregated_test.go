package mpool

import "fmt"
import "testing"
import "unsafe"

var _ = fmt.Sprintf("dummy")

// pinned regions for list tests; raw backing for the uintptr
// arithmetic under test.
func testregion(t *testing.T, nchunks, partitionsz int64) ([]byte, uintptr) {
	t.Helper()
	buf := make([]byte, nchunks*partitionsz)
	base := uintptr(unsafe.Pointer(unsafe.SliceData(buf)))
	if base%uintptr(minallocsize) != 0 {
		t.Fatalf("test region base %x not aligned", base)
	}
	return buf, base
}

func freelistaddrs(fl *flist) []uintptr {
	addrs := []uintptr{}
	for iter := fl.first; iter != 0; iter = *nextof(iter) {
		addrs = append(addrs, iter)
	}
	return addrs
}

func TestSegregate(t *testing.T) {
	partitionsz := int64(32)
	buf, base := testregion(t, 8, partitionsz)
	head := segregate(base, int64(len(buf)), partitionsz, 0)
	if head != base {
		t.Errorf("expected %v, got %v", base, head)
	}
	fl := &flist{first: head}
	addrs := freelistaddrs(fl)
	if len(addrs) != 8 {
		t.Errorf("expected %v, got %v", 8, len(addrs))
	}
	for i, addr := range addrs {
		if x := base + uintptr(int64(i)*partitionsz); addr != x {
			t.Errorf("chunk %v expected %v, got %v", i, x, addr)
		}
	}
}

func TestSegregateSingle(t *testing.T) {
	partitionsz := int64(64)
	_, base := testregion(t, 1, partitionsz)
	head := segregate(base, partitionsz, partitionsz, 0)
	if head != base {
		t.Errorf("expected %v, got %v", base, head)
	} else if *nextof(head) != 0 {
		t.Errorf("expected nil tail, got %v", *nextof(head))
	}
}

func TestSegregateTail(t *testing.T) {
	partitionsz := int64(16)
	_, base := testregion(t, 4, partitionsz)
	tail := uintptr(0xdeadbeef0)
	segregate(base, 4*partitionsz, partitionsz, tail)
	last := base + uintptr(3*partitionsz)
	if *nextof(last) != tail {
		t.Errorf("expected %v, got %v", tail, *nextof(last))
	}
}

func TestAddorderedblock(t *testing.T) {
	partitionsz := int64(32)
	buf1, base1 := testregion(t, 4, partitionsz)
	buf2, base2 := testregion(t, 4, partitionsz)

	fl := &flist{}
	fl.addorderedblock(base1, int64(len(buf1)), partitionsz)
	fl.addorderedblock(base2, int64(len(buf2)), partitionsz)

	addrs := freelistaddrs(fl)
	if len(addrs) != 8 {
		t.Errorf("expected %v, got %v", 8, len(addrs))
	}
	for i := 1; i < len(addrs); i++ {
		if addrs[i-1] >= addrs[i] {
			t.Errorf("free list not ascending at %v: %v", i, addrs)
		}
	}
}

func TestFindprev(t *testing.T) {
	partitionsz := int64(32)
	buf, base := testregion(t, 4, partitionsz)
	fl := &flist{}
	if x := fl.findprev(base); x != 0 {
		t.Errorf("expected %v, got %v", 0, x)
	}
	fl.addblock(base, int64(len(buf)), partitionsz)
	if x := fl.findprev(base - 1); x != 0 {
		t.Errorf("expected %v, got %v", 0, x)
	}
	for i := int64(0); i < 4; i++ {
		chunk := base + uintptr(i*partitionsz)
		if x := fl.findprev(chunk + 1); x != chunk {
			t.Errorf("expected %v, got %v", chunk, x)
		}
	}
}

func TestFlistMallocFree(t *testing.T) {
	partitionsz := int64(32)
	buf, base := testregion(t, 8, partitionsz)
	fl := &flist{}
	fl.addblock(base, int64(len(buf)), partitionsz)

	ptrs := []uintptr{}
	for i := 0; i < 8; i++ {
		if fl.empty() {
			t.Fatalf("unexpected empty list at %v", i)
		}
		ptrs = append(ptrs, fl.allocchunk())
	}
	if !fl.empty() {
		t.Errorf("expected exhausted list")
	}
	// unordered free reverses to LIFO order.
	for _, ptr := range ptrs {
		fl.freechunk(ptr)
	}
	if x := fl.allocchunk(); x != ptrs[7] {
		t.Errorf("expected %v, got %v", ptrs[7], x)
	}
	fl.freechunk(ptrs[7])

	// ordered free restores ascending order whatever the free order.
	fl.first = 0
	for i := len(ptrs) - 1; i >= 0; i-- {
		fl.orderedfree(ptrs[i])
	}
	addrs := freelistaddrs(fl)
	for i := 1; i < len(addrs); i++ {
		if addrs[i-1] >= addrs[i] {
			t.Errorf("free list not ascending: %v", addrs)
		}
	}
}

func TestMallocn(t *testing.T) {
	partitionsz := int64(32)
	buf, base := testregion(t, 8, partitionsz)
	fl := &flist{}
	fl.addorderedblock(base, int64(len(buf)), partitionsz)

	// carve a run of 3 from the head.
	run := fl.mallocn(3, partitionsz)
	if run != base {
		t.Errorf("expected %v, got %v", base, run)
	}
	if x := len(freelistaddrs(fl)); x != 5 {
		t.Errorf("expected %v, got %v", 5, x)
	}
	// the run is gone from the list.
	for _, addr := range freelistaddrs(fl) {
		if addr >= run && addr < run+uintptr(3*partitionsz) {
			t.Errorf("run chunk %v still in free list", addr)
		}
	}
	// no run of 6 exists anymore.
	if x := fl.mallocn(6, partitionsz); x != 0 {
		t.Errorf("expected %v, got %v", 0, x)
	}
	// give the run back in order and retry.
	fl.orderedfreen(run, 3, partitionsz)
	if x := fl.mallocn(6, partitionsz); x != base {
		t.Errorf("expected %v, got %v", base, x)
	}
}

func TestMallocnBrokenrun(t *testing.T) {
	partitionsz := int64(32)
	buf, base := testregion(t, 8, partitionsz)
	fl := &flist{}
	fl.addorderedblock(base, int64(len(buf)), partitionsz)

	// puncture the middle, leaving runs of 3 and 4.
	hole := fl.mallocn(8, partitionsz)
	fl.orderedfreen(hole, 3, partitionsz)
	fl.orderedfreen(hole+uintptr(4*partitionsz), 4, partitionsz)

	if x := fl.mallocn(5, partitionsz); x != 0 {
		t.Errorf("expected no run of 5, got %v", x)
	}
	want := base + uintptr(4*partitionsz)
	if x := fl.mallocn(4, partitionsz); x != want {
		t.Errorf("expected %v, got %v", want, x)
	}
	if x := fl.mallocn(3, partitionsz); x != base {
		t.Errorf("expected %v, got %v", base, x)
	}
	if !fl.empty() {
		t.Errorf("expected exhausted list, got %v", freelistaddrs(fl))
	}
	_ = buf
}
