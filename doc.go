/*
Package champ implements persistent (immutable) hashed collections — a set and
a map — backed by a compressed hash-array mapped prefix trie (CHAMP).

Persistent collections have copy-on-write behaviour: each “modification” of a
value (insertion, replacement or deletion) creates a copy, leaving the original
unmodified. Under the hood most of the structure/memory is shared between
original and copy, transparently to clients. Copying a Set or a Map is O(1);
mutating a copy clones only the handful of trie nodes on the path to the
mutated slot.

On top of membership and key/value operations the package offers structural
set algebra (union, intersection, difference, symmetric difference, subset and
disjointness tests, equality) which detects shared subtrees and skips them
without visiting their elements. Operations on two lightly-diverged values
therefore run in time proportional to the difference between them, not to
their sizes.

Distinct collection values — including copies of one another — may safely be
read from concurrent goroutines: a node is never written while it is shared.
A single value is not a concurrent data structure; don't mutate it from two
goroutines at once.

Hashing uses hash/maphash with one process-wide seed. The seed is deliberately
not varied per collection instance: two values built from equal inputs must
agree on trie shape, or the structural fast paths above could never fire. See
the comment on globalSeed.

# Iteration order

Elements are traversed in trie order, an artifact of hash-bit slicing. The
order is stable for a fixed value but carries no meaning; it is neither
insertion nor sort order.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2026 Norbert Pillmayer <norbert@pillmayer.com>
*/
package champ

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'champ'.
func tracer() tracing.Trace {
	return tracing.Select("champ")
}
