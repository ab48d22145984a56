package champ

import "hash/maphash"

// globalSeed is the one hash seed used by every collection in the process.
//
// This is a deliberate trade-off. A per-instance seed (the usual defence
// against hash flooding) would make two tries built from equal inputs diverge
// structurally, and the identity-based fast paths of the set algebra engine
// (setops.go) could never fire across values that were not copies of one
// another. Structural shareability requires that all values of one logical
// family hash alike, so the seed is fixed once at process start. Do not
// “improve” this by re-randomizing per value.
var globalSeed = maphash.MakeSeed()

// hashFn produces the full 64-bit hash for a key. The zero value (nil) stands
// for the default maphash-based function.
//
// All operands of a structural operation must hash identically; mixing values
// built with different hash functions is a contract violation with undefined
// results, just like mutating a key's hash identity while it is stored.
type hashFn[T comparable] func(T) uint64

// hashValue applies hf, falling back to the process-wide default.
func hashValue[T comparable](hf hashFn[T], v T) uint64 {
	if hf != nil {
		return hf(v)
	}
	return maphash.Comparable(globalSeed, v)
}
