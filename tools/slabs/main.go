package main

import "fmt"
import "flag"
import "sync"
import "time"
import "unsafe"
import "strconv"
import "math/rand"

import "github.com/bnclabs/xmalloc/log"
import "github.com/bnclabs/xmalloc/lib"
import "github.com/bnclabs/xmalloc/malloc"

import humanize "github.com/dustin/go-humanize"

var options struct {
	maxchunks int64
	source    string
	sizes     []int64
	routines  int
	repeat    int
	json      bool
	loglevel  string
}

func argParse() {
	var sizes string

	flag.Int64Var(&options.maxchunks, "maxchunks", 64,
		"number of chunks in the arena")
	flag.StringVar(&options.source, "source", "mmap",
		"memory source for the arena, mmap or system")
	flag.StringVar(&sizes, "sizes", "8,64,512,2048,8192",
		"comma separated allocation sizes for the stress run")
	flag.IntVar(&options.routines, "routines", 8,
		"number of concurrent thread contexts for the stress run")
	flag.IntVar(&options.repeat, "repeat", 0,
		"allocations per thread context, 0 only prints the layout")
	flag.BoolVar(&options.json, "json", false,
		"print layout as json")
	flag.StringVar(&options.loglevel, "log", "warn",
		"log level")
	flag.Parse()

	for _, item := range lib.Parsecsv(sizes) {
		size, err := strconv.ParseInt(item, 10, 64)
		if err != nil || size <= 0 {
			fmt.Printf("invalid size %q\n", item)
			continue
		}
		options.sizes = append(options.sizes, size)
	}
}

func main() {
	argParse()
	log.SetLogger(nil, map[string]interface{}{"log.level": options.loglevel})
	malloc.LogComponents("self")

	setts := lib.Settings{
		"maxchunks": options.maxchunks,
		"source":    options.source,
	}
	a := malloc.NewAllocator(setts)
	telllayout(a.Slabtable())
	if options.repeat > 0 && len(options.sizes) > 0 {
		stress(a)
	}
}

func telllayout(table *malloc.Slabtable) {
	residual := malloc.Chunksize - table.Capacity()
	if options.json {
		classes := []interface{}{}
		for i := 0; i < table.Numclasses(); i++ {
			classes = append(classes, map[string]interface{}{
				"size":   table.Size(i),
				"slots":  table.Slots(i),
				"offset": table.Offset(i),
				"align":  table.Align(i),
			})
		}
		stats := map[string]interface{}{
			"chunksize": malloc.Chunksize,
			"header":    table.Header(),
			"classes":   classes,
			"capacity":  table.Capacity(),
			"residual":  residual,
		}
		fmt.Println(lib.Prettystats(stats, true))
		return
	}

	fmt.Printf("chunk %v, header %v\n",
		humanize.IBytes(uint64(malloc.Chunksize)), table.Header())
	for i := 0; i < table.Numclasses(); i++ {
		size, slots := table.Size(i), table.Slots(i)
		fmsg := "class %2v size %5v slots %5v offset %8v align %4v span %v\n"
		span := humanize.IBytes(uint64(size * slots))
		fmt.Printf(fmsg, i, size, slots, table.Offset(i), table.Align(i), span)
	}
	fmt.Printf("slabs end at %v, heap has %v\n",
		table.Capacity(), humanize.IBytes(uint64(residual)))
}

func stress(a *malloc.Allocator) {
	var wg sync.WaitGroup

	now := time.Now()
	for n := 0; n < options.routines; n++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			th := a.Thread()
			defer th.Close()

			rnd := rand.New(rand.NewSource(int64(n)))
			window := make([]int64, 0, 128)
			ptrs := make([]unsafe.Pointer, 0, 128)
			for i := 0; i < options.repeat; i++ {
				if len(ptrs) == cap(ptrs) {
					j := rnd.Intn(len(ptrs))
					th.Free(ptrs[j], window[j], 8)
					ptrs[j], window[j] = ptrs[len(ptrs)-1], window[len(window)-1]
					ptrs, window = ptrs[:len(ptrs)-1], window[:len(window)-1]
				}
				size := options.sizes[rnd.Intn(len(options.sizes))]
				ptrs = append(ptrs, th.Alloc(size, 8))
				window = append(window, size)
			}
			for j, ptr := range ptrs {
				th.Free(ptr, window[j], 8)
			}
		}(n)
	}
	wg.Wait()

	elapsed := time.Since(now)
	nops := int64(options.routines * options.repeat)
	fmt.Printf("%v allocations across %v contexts in %v\n",
		humanize.Comma(nops), options.routines, elapsed)
	fmt.Printf("live %v, chunks acquired %v of %v\n",
		a.Live(), a.Arena().Acquires(), a.Arena().Numchunks())
}
