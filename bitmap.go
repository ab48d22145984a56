package champ

import "math/bits"

// Trie geometry: 5 hash bits per level give nodes a degree of 2^5 = 32.
// A 64-bit hash yields 12 full slices plus 4 remaining bits, i.e. 13 levels;
// past that, hash bits are exhausted and structure degrades to collision
// nodes (see collision.go).
const (
	bitsPerLevel uint = 5
	degree       uint = 1 << bitsPerLevel
	slotMask     uint = degree - 1
	hashBits     uint = 64
)

// bitmap32 partitions the 32 slots of a trie node. Each trie node carries two
// of these: one marking slots that hold a payload entry, one marking slots
// that hold a child node. The backing arrays are compressed: a slot's array
// position is the popcount of all lower-order bits, so empty slots cost
// nothing.
type bitmap32 uint32

// bitpos maps a 5-bit slot number to its bitmap bit.
func bitpos(slot uint) bitmap32 {
	return bitmap32(1) << slot
}

func (b bitmap32) has(bit bitmap32) bool {
	return b&bit != 0
}

// index returns the compressed-array position for bit, i.e. the number of
// occupied slots below it.
func (b bitmap32) index(bit bitmap32) int {
	return bits.OnesCount32(uint32(b & (bit - 1)))
}

func (b bitmap32) count() int {
	return bits.OnesCount32(uint32(b))
}

// slotAt decodes the 5-bit hash slice for the trie level given by shift.
func slotAt(hash uint64, shift uint) uint {
	return uint(hash>>shift) & slotMask
}

// exhausted reports whether no hash bits remain at the level given by shift.
func exhausted(shift uint) bool {
	return shift >= hashBits
}
