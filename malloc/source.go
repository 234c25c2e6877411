package malloc

import "unsafe"

import sigar "github.com/cloudfoundry/gosigar"
import humanize "github.com/dustin/go-humanize"

// Region is an externally supplied memory region, implements
// api.Memorysource{}. Memory shall remain valid for the lifetime of
// the allocator using it.
type Region struct {
	Base   unsafe.Pointer
	Length int64
}

// Region implement api.Memorysource{} interface.
func (r Region) Region() (unsafe.Pointer, int64) {
	return r.Base, r.Length
}

// checksysmem warn if the region cannot be backed by free memory.
func checksysmem(length int64) {
	mem := sigar.Mem{}
	if err := mem.Get(); err != nil {
		debugf("malloc: unable to read system memory: %v\n", err)
		return
	}
	if uint64(length) > mem.ActualFree {
		fmsg := "malloc: region %v exceeds free memory %v\n"
		warnf(fmsg, humanize.Bytes(uint64(length)), humanize.Bytes(mem.ActualFree))
	}
}
