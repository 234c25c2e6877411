//go:build debug

package malloc

import "github.com/bnclabs/xmalloc/lib"

const poisonbyte = byte(0xdd)

// poisonblock fills a freed slab slot with poisonbyte, leaving the
// first word for the free-list link.
func poisonblock(addr uintptr, size uintptr) {
	if size > 8 {
		lib.Memset(ptrof(addr+8), poisonbyte, int(size-8))
	}
}
