package malloc

import "github.com/bnclabs/xmalloc/api"

var _ api.Mallocer = (*Thread)(nil)
var _ api.Mallocer = (*Mallocator)(nil)
var _ api.Memorysource = Region{}
