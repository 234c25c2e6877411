package malloc

import "sync"
import "testing"
import "sync/atomic"

import "github.com/stretchr/testify/assert"
import "github.com/stretchr/testify/require"

func TestArenaAcquire(t *testing.T) {
	arena := testarena(t, 4)
	for i := 0; i < 4; i++ {
		index, ok := arena.Acquirechunk()
		require.True(t, ok)
		assert.Equal(t, i, index)
	}
	_, ok := arena.Acquirechunk()
	require.False(t, ok)
	assert.Equal(t, int64(4), arena.Acquires())

	// released chunks are reused, most recent first.
	arena.Releasechunk(1)
	arena.Releasechunk(3)
	index, ok := arena.Acquirechunk()
	require.True(t, ok)
	assert.Equal(t, 3, index)
	index, ok = arena.Acquirechunk()
	require.True(t, ok)
	assert.Equal(t, 1, index)
	_, ok = arena.Acquirechunk()
	require.False(t, ok)
	assert.Equal(t, int64(6), arena.Acquires())
}

func TestArenaRegion(t *testing.T) {
	raw := testmemory(t, 4*Chunksize, Chunksize)

	// misaligned base is aligned up and the tail trimmed.
	arena := newarena(ptrof(raw+100), (3*Chunksize)+4000, 8)
	require.Equal(t, int64(3), arena.Numchunks())
	assert.Equal(t, raw+uintptr(Regionalign), arena.Chunkbase(0))
	assert.Equal(t, raw+uintptr(Regionalign)+uintptr(Chunksize), arena.Chunkbase(1))

	base := arena.Chunkbase(0)
	assert.False(t, arena.owns(base-1))
	assert.True(t, arena.owns(base))
	assert.True(t, arena.owns(base+uintptr(3*Chunksize)-1))
	assert.False(t, arena.owns(base+uintptr(3*Chunksize)))
	assert.Equal(t, 0, arena.Chunkof(base))
	assert.Equal(t, 0, arena.Chunkof(base+uintptr(Chunksize)-1))
	assert.Equal(t, 2, arena.Chunkof(base+uintptr(2*Chunksize)))

	// maxchunks caps the region.
	arena = newarena(ptrof(raw), 4*Chunksize, 2)
	assert.Equal(t, int64(2), arena.Numchunks())

	// invalid regions leave an empty arena.
	arena = newarena(nil, 4*Chunksize, 2)
	assert.Equal(t, int64(0), arena.Numchunks())
	_, ok := arena.Acquirechunk()
	assert.False(t, ok)
	assert.False(t, arena.owns(raw))
	arena = newarena(ptrof(raw), Chunksize-1, 2)
	assert.Equal(t, int64(0), arena.Numchunks())
}

func TestArenaInbox(t *testing.T) {
	arena := testarena(t, 1)
	index, ok := arena.Acquirechunk()
	require.True(t, ok)
	base := arena.Chunkbase(index)
	require.Equal(t, uintptr(0), arena.takeremote(index))

	// two batches, 3 blocks and 2 blocks.
	nodeat(base + 0).next = base + 64
	nodeat(base + 64).next = base + 128
	arena.pushremote(index, base, base+128)
	nodeat(base + 256).next = base + 320
	arena.pushremote(index, base+256, base+320)

	seen := map[uintptr]bool{}
	for addr := arena.takeremote(index); addr != 0; addr = nodeat(addr).next {
		seen[addr] = true
	}
	assert.Equal(t, 5, len(seen))
	for _, off := range []uintptr{0, 64, 128, 256, 320} {
		assert.True(t, seen[base+off], "offset %v", off)
	}
	assert.Equal(t, uintptr(0), arena.takeremote(index))

	nodeat(base).next = 0
	arena.pushremote(index, base, base)
	assert.Panics(t, func() { arena.Releasechunk(index) })
}

func TestArenaOwner(t *testing.T) {
	arena := testarena(t, 2)
	index, _ := arena.Acquirechunk()
	arena.setowner(index, 10)
	assert.Equal(t, uint64(10), arena.owner(index))
	arena.Releasechunk(index)
	assert.Equal(t, uint64(0), arena.owner(index))
}

func TestArenaConcur(t *testing.T) {
	var wg sync.WaitGroup

	nchunks, nroutines, repeat := int64(8), 16, 20000
	if testing.Short() {
		repeat = 2000
	}
	arena := testarena(t, nchunks)
	holders := make([]atomic.Int32, nchunks)
	var failed atomic.Int64

	for n := 0; n < nroutines; n++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < repeat; i++ {
				index, ok := arena.Acquirechunk()
				if !ok {
					continue
				}
				if !holders[index].CompareAndSwap(0, 1) {
					failed.Add(1)
				}
				holders[index].Store(0)
				arena.Releasechunk(index)
			}
		}()
	}
	wg.Wait()
	require.Equal(t, int64(0), failed.Load())

	// every chunk is back in circulation.
	seen := map[int]bool{}
	for i := int64(0); i < nchunks; i++ {
		index, ok := arena.Acquirechunk()
		require.True(t, ok)
		seen[index] = true
	}
	assert.Equal(t, int(nchunks), len(seen))
	_, ok := arena.Acquirechunk()
	assert.False(t, ok)
}

func BenchmarkArenaAcquire(b *testing.B) {
	arena := testarena(b, 2)
	for i := 0; i < b.N; i++ {
		index, _ := arena.Acquirechunk()
		arena.Releasechunk(index)
	}
}
