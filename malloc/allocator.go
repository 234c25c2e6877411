package malloc

import "fmt"
import "sync"
import "unsafe"
import "sync/atomic"

import "github.com/bnclabs/xmalloc/api"
import "github.com/bnclabs/xmalloc/lib"
import humanize "github.com/dustin/go-humanize"

// Allocator owns the arena and hands out thread contexts. The memory
// source is queried once, when the first thread context needs a chunk.
// All methods are thread safe.
type Allocator struct {
	arena  atomic.Pointer[Arena]
	tokens atomic.Uint64
	once   sync.Once

	source   api.Memorysource
	table    *Slabtable
	fallback api.Mallocer

	mu       sync.Mutex
	threads  map[*Thread]struct{}
	retired  int64    // live count of closed thread contexts
	retained []*Local // chunks of closed contexts with live allocations
	nretain  atomic.Int64

	// settings
	maxchunks int64
	srcname   string
	memcheck  bool
	setts     lib.Settings
}

// NewAllocator create an allocator backed by the memory source named
// in settings. Refer Defaultsettings() for the list of settings.
func NewAllocator(setts lib.Settings) *Allocator {
	return NewAllocatorWith(nil, setts)
}

// NewAllocatorWith create an allocator backed by source, if source is
// nil, the source named in settings is used.
func NewAllocatorWith(source api.Memorysource, setts lib.Settings) *Allocator {
	a := &Allocator{
		table:    NewSlabtable(Defaultslabs, Chunkheader),
		fallback: NewMallocator(),
		threads:  make(map[*Thread]struct{}),
	}
	a.readsettings(make(lib.Settings).Mixin(Defaultsettings(), setts))
	if a.source = source; a.source == nil {
		a.source = a.newsource()
	}
	return a
}

func (a *Allocator) readsettings(setts lib.Settings) {
	a.maxchunks = setts.Int64("maxchunks")
	a.srcname = setts.String("source")
	a.memcheck = setts.Bool("memcheck")
	a.setts = setts

	if a.maxchunks <= 0 || a.maxchunks > (1<<32)-2 {
		panicerr("invalid maxchunks %v", a.maxchunks)
	}
}

func (a *Allocator) newsource() api.Memorysource {
	length := a.maxchunks * Chunksize
	switch a.srcname {
	case "mmap":
		return newmmapsource(length)
	case "system":
		return newsyssource(length)
	}
	panicerr("%v: %q", ErrorInvalidSource, a.srcname)
	return nil
}

// Arena return the allocator's arena, setting up the memory region
// on first call.
func (a *Allocator) Arena() *Arena {
	if arena := a.arena.Load(); arena != nil {
		return arena
	}
	a.once.Do(func() {
		base, length := a.source.Region()
		if a.memcheck {
			checksysmem(length)
		}
		arena := newarena(base, length, a.maxchunks)
		a.arena.Store(arena)
		infof("malloc: %v over %v\n", arena, humanize.Bytes(uint64(length)))
	})
	return a.arena.Load()
}

// Thread create a new thread context.
func (a *Allocator) Thread() *Thread {
	th := &Thread{allocator: a, token: a.tokens.Add(1)}
	a.mu.Lock()
	a.threads[th] = struct{}{}
	a.mu.Unlock()
	return th
}

func (a *Allocator) retire(th *Thread) {
	a.mu.Lock()
	delete(a.threads, th)
	a.retired += th.Live()
	a.mu.Unlock()
}

func (a *Allocator) retain(local *Local) {
	a.mu.Lock()
	a.retained = append(a.retained, local)
	a.nretain.Store(int64(len(a.retained)))
	a.mu.Unlock()
}

// adopt hand a retained chunk over to context token, nil if there is
// none.
func (a *Allocator) adopt(token uint64) *Local {
	if a.nretain.Load() == 0 {
		return nil
	}
	a.mu.Lock()
	n := len(a.retained)
	if n == 0 {
		a.mu.Unlock()
		return nil
	}
	local := a.retained[n-1]
	a.retained[n-1] = nil
	a.retained = a.retained[:n-1]
	a.nretain.Store(int64(len(a.retained)))
	a.mu.Unlock()

	local.adopt(token)
	return local
}

// Retained number of chunks held back from closed contexts, waiting
// to be adopted.
func (a *Allocator) Retained() int64 {
	return a.nretain.Load()
}

// Owns return whether ptr was carved out of this allocator's arena.
func (a *Allocator) Owns(ptr unsafe.Pointer) bool {
	arena := a.arena.Load()
	return arena != nil && arena.Owns(ptr)
}

// Live number of allocations made through this allocator's thread
// contexts that are not yet freed.
func (a *Allocator) Live() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	live := a.retired
	for th := range a.threads {
		live += th.Live()
	}
	return live
}

// Slabtable return the slab layout used for every chunk.
func (a *Allocator) Slabtable() *Slabtable {
	return a.table
}

// Settings return the settings this allocator was created with.
func (a *Allocator) Settings() lib.Settings {
	return a.setts
}

func (a *Allocator) String() string {
	return fmt.Sprintf("allocator{source:%v maxchunks:%v}", a.srcname, a.maxchunks)
}

var defaultmu sync.Mutex
var defaultsource api.Memorysource
var defaultalloc atomic.Pointer[Allocator]

// Default return the process wide allocator, created on first call
// and never torn down.
func Default() *Allocator {
	if a := defaultalloc.Load(); a != nil {
		return a
	}
	defaultmu.Lock()
	defer defaultmu.Unlock()
	if a := defaultalloc.Load(); a != nil {
		return a
	}
	a := NewAllocatorWith(defaultsource, nil)
	defaultalloc.Store(a)
	return a
}

// Setsource supply the memory region for the Default allocator. Must
// be called before the first call to Default, return false otherwise.
func Setsource(source api.Memorysource) bool {
	defaultmu.Lock()
	defer defaultmu.Unlock()
	if defaultalloc.Load() != nil {
		return false
	}
	defaultsource = source
	return true
}
