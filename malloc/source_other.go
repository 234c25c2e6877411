//go:build !(linux || darwin || freebsd || netbsd || openbsd)

package malloc

import "github.com/bnclabs/xmalloc/api"

func newmmapsource(length int64) api.Memorysource {
	warnf("malloc: mmap not supported, using system source\n")
	return newsyssource(length)
}
