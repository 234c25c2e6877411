//go:build linux || darwin || freebsd || netbsd || openbsd

package malloc

import "unsafe"

import "golang.org/x/sys/unix"
import "github.com/bnclabs/xmalloc/api"

// mmapsource reserves the region as an anonymous private mapping,
// pages are backed lazily by the OS on first touch.
type mmapsource struct {
	length int64
	mem    []byte
}

func newmmapsource(length int64) api.Memorysource {
	return &mmapsource{length: length}
}

// Region implement api.Memorysource{} interface. The mapping is
// over-sized by a chunk so that the returned base is chunk aligned.
func (src *mmapsource) Region() (unsafe.Pointer, int64) {
	if src.mem == nil {
		prot := unix.PROT_READ | unix.PROT_WRITE
		flags := unix.MAP_ANON | unix.MAP_PRIVATE
		mem, err := unix.Mmap(-1, 0, int(src.length+Chunksize), prot, flags)
		if err != nil {
			errorf("malloc: mmap %v bytes: %v\n", src.length+Chunksize, err)
			return nil, 0
		}
		src.mem = mem
	}
	base := alignup(uintptr(unsafe.Pointer(&src.mem[0])), uintptr(Chunksize))
	return ptrof(base), src.length
}
