package malloc

import "fmt"
import "testing"
import "unsafe"

import "github.com/bnclabs/xmalloc/lib"
import "github.com/bnclabs/xmalloc/log"

var _ = fmt.Sprintf("dummy")

func init() {
	setts := map[string]interface{}{
		"log.level": "ignore",
	}
	log.SetLogger(nil, setts)
	LogComponents("self")
}

// testmemory return size bytes of C memory aligned to align, released
// at the end of the test.
func testmemory(t testing.TB, size, align int64) uintptr {
	m := NewMallocator()
	ptr := m.Alloc(size, align)
	if ptr == nil {
		t.Fatalf("unable to allocate %v bytes", size)
	}
	t.Cleanup(func() { m.Free(ptr, size, align) })
	return uintptr(ptr)
}

func testarena(t testing.TB, nchunks int64) *Arena {
	base := testmemory(t, nchunks*Chunksize, Chunksize)
	return newarena(ptrof(base), nchunks*Chunksize, nchunks)
}

func testallocator(t testing.TB, nchunks int64) *Allocator {
	return NewAllocator(lib.Settings{"maxchunks": nchunks, "memcheck": false})
}

func testbytes(ptr unsafe.Pointer, size int64) []byte {
	return unsafe.Slice((*byte)(ptr), size)
}

func testfill(ptr unsafe.Pointer, size int64, c byte) {
	block := testbytes(ptr, size)
	for i := range block {
		block[i] = c
	}
}

func testverify(ptr unsafe.Pointer, size int64, c byte) error {
	for i, x := range testbytes(ptr, size) {
		if x != c {
			return fmt.Errorf("at %v expected %v, got %v", i, c, x)
		}
	}
	return nil
}

// testmark fill the leading and trailing bytes of a block, enough to
// catch overlapping blocks without touching every byte.
func testmark(ptr unsafe.Pointer, size int64, c byte) {
	n := min(size, 32)
	testfill(ptr, n, c)
	testfill(unsafe.Add(ptr, size-n), n, c)
}

func testcheck(ptr unsafe.Pointer, size int64, c byte) error {
	n := min(size, 32)
	if err := testverify(ptr, n, c); err != nil {
		return err
	}
	return testverify(unsafe.Add(ptr, size-n), n, c)
}
