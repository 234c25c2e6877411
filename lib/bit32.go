package lib

import "math/bits"

// Bit32 alias for uint32, provides bit twiddling methods on 32-bit number.
type Bit32 uint32

// Findfirstset return the index of the least significant set bit,
// -1 if no bit is set.
func (b Bit32) Findfirstset() int8 {
	if b == 0 {
		return -1
	}
	return int8(bits.TrailingZeros32(uint32(b)))
}

// Findlastset return the index of the most significant set bit,
// -1 if no bit is set.
func (b Bit32) Findlastset() int8 {
	return int8(bits.Len32(uint32(b))) - 1
}

func (b Bit32) Setbit(n uint8) Bit32 {
	return b | (1 << n)
}

func (b Bit32) Clearbit(n uint8) Bit32 {
	return b &^ (1 << n)
}

// Maskfrom return b with all bits below position n cleared.
func (b Bit32) Maskfrom(n uint8) Bit32 {
	if n >= 32 {
		return 0
	}
	return b & (^Bit32(0) << n)
}

// Findlastset64 return the index of the most significant set bit in
// a 64-bit number, -1 if no bit is set.
func Findlastset64(n uint64) int8 {
	return int8(bits.Len64(n)) - 1
}
