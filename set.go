package champ

import (
	"encoding/json"
	"fmt"
	"iter"
	"strings"
)

// Set is a persistent hashed set. The zero value is an empty set, ready for
// use. Sets are values: copying one is O(1), and deriving a modified set
// leaves the original untouched while sharing all unchanged trie nodes.
//
//	a := champ.SetOf(1, 2, 3)
//	b, _ := a.Insert(4) // a still has 3 elements
type Set[T comparable] struct {
	root  subnode[T, struct{}]
	count int
	hash  hashFn[T]
}

// SetOf builds a set from the given elements, deduplicating them.
func SetOf[T comparable](elems ...T) Set[T] {
	s := Set[T]{}
	mut := newOwner()
	for _, x := range elems {
		s, _ = s.insertOne(x, mut)
	}
	return s
}

// SetFromSeq builds a set from a finite sequence, deduplicating it.
func SetFromSeq[T comparable](seq iter.Seq[T]) Set[T] {
	s := Set[T]{}
	mut := newOwner()
	for x := range seq {
		s, _ = s.insertOne(x, mut)
	}
	return s
}

// Len returns the number of elements. O(1), from the cached counter.
func (s Set[T]) Len() int { return s.count }

// IsEmpty reports whether the set has no elements.
func (s Set[T]) IsEmpty() bool { return s.count == 0 }

// Contains reports set membership. O(log32 n).
func (s Set[T]) Contains(x T) bool {
	if s.root == nil {
		return false
	}
	_, ok := s.root.get(x, hashValue(s.hash, x), 0)
	return ok
}

func (s Set[T]) insertOne(x T, mut owner) (Set[T], bool) {
	h := hashValue(s.hash, x)
	if s.root == nil {
		root := &trieNode[T, struct{}]{
			owner:    mut,
			dataMap:  bitpos(slotAt(h, 0)),
			treeSize: 1,
			entries:  []entry[T, struct{}]{{key: x}},
		}
		return Set[T]{root: root, count: 1, hash: s.hash}, true
	}
	sub, _, existed := s.root.insert(s.hash, x, struct{}{}, h, 0, false, mut)
	if existed {
		return s, false
	}
	return Set[T]{root: sub, count: s.count + 1, hash: s.hash}, true
}

// Insert adds x and reports whether it was newly inserted (false means an
// equal element was already present and the set is returned unchanged).
func (s Set[T]) Insert(x T) (Set[T], bool) {
	return s.insertOne(x, newOwner())
}

// Update adds x, replacing an equal element if one is present. It returns
// the replaced element, if any.
func (s Set[T]) Update(x T) (Set[T], T, bool) {
	h := hashValue(s.hash, x)
	if s.root == nil {
		s2, _ := s.insertOne(x, newOwner())
		var none T
		return s2, none, false
	}
	sub, prev, existed := s.root.insert(s.hash, x, struct{}{}, h, 0, true, newOwner())
	count := s.count
	if !existed {
		count++
	}
	return Set[T]{root: sub, count: count, hash: s.hash}, prev.key, existed
}

// Remove deletes x and returns the removed element, if it was present.
func (s Set[T]) Remove(x T) (Set[T], T, bool) {
	var none T
	if s.root == nil {
		return s, none, false
	}
	sub, removed, ok := s.root.remove(x, hashValue(s.hash, x), 0, newOwner())
	if !ok {
		return s, none, false
	}
	return Set[T]{root: sub, count: s.count - 1, hash: s.hash}, removed.key, true
}

// --- Set algebra -----------------------------------------------------------

// Union returns the elements present in either set. On elements present in
// both, the receiver's instance is kept. If other adds nothing, the result
// shares the receiver's root without allocation.
func (s Set[T]) Union(other Set[T]) Set[T] {
	if s.root == nil {
		return other
	}
	if other.root == nil {
		return s
	}
	node := unionNodes(s.root, other.root, 0, s.hash, nil, newOwner())
	if node == s.root {
		return s
	}
	return Set[T]{root: node, count: node.size(), hash: s.hash}
}

// Intersection returns the elements present in both sets, keeping the
// receiver's instances.
func (s Set[T]) Intersection(other Set[T]) Set[T] {
	if s.root == nil || other.root == nil {
		return Set[T]{hash: s.hash}
	}
	node := intersectNodes(s.root, other.root, 0, s.hash, newOwner())
	if node == s.root {
		return s
	}
	return s.withRoot(node)
}

// Difference returns the receiver's elements not present in other.
func (s Set[T]) Difference(other Set[T]) Set[T] {
	if s.root == nil || other.root == nil {
		return s
	}
	node := differenceNodes(s.root, other.root, 0, s.hash, newOwner())
	if node == s.root {
		return s
	}
	return s.withRoot(node)
}

// SymmetricDifference returns the elements present in exactly one of the two
// sets.
func (s Set[T]) SymmetricDifference(other Set[T]) Set[T] {
	if s.root == nil {
		return other
	}
	if other.root == nil {
		return s
	}
	node := symmetricDiffNodes(s.root, other.root, 0, s.hash, newOwner())
	return s.withRoot(node)
}

func (s Set[T]) withRoot(node subnode[T, struct{}]) Set[T] {
	if node == nil {
		return Set[T]{hash: s.hash}
	}
	return Set[T]{root: node, count: node.size(), hash: s.hash}
}

// --- Comparisons -----------------------------------------------------------

// Equal reports whether both sets hold the same elements.
func (s Set[T]) Equal(other Set[T]) bool {
	if s.count != other.count {
		return false
	}
	if s.root == nil {
		return true
	}
	return equalNodes(s.root, other.root, func(struct{}, struct{}) bool { return true })
}

// SubsetOf reports whether every element of s is in other.
func (s Set[T]) SubsetOf(other Set[T]) bool {
	if s.root == nil {
		return true
	}
	if other.root == nil {
		return false
	}
	return subsetNodes(s.root, other.root, 0, s.hash)
}

// SupersetOf reports whether every element of other is in s.
func (s Set[T]) SupersetOf(other Set[T]) bool {
	return other.SubsetOf(s)
}

// StrictSubsetOf reports whether s is a subset of other but not equal to it.
func (s Set[T]) StrictSubsetOf(other Set[T]) bool {
	return s.count < other.count && s.SubsetOf(other)
}

// StrictSupersetOf reports whether s is a superset of other but not equal to it.
func (s Set[T]) StrictSupersetOf(other Set[T]) bool {
	return other.StrictSubsetOf(s)
}

// DisjointFrom reports whether the sets share no element.
func (s Set[T]) DisjointFrom(other Set[T]) bool {
	if s.root == nil || other.root == nil {
		return true
	}
	return disjointNodes(s.root, other.root, 0, s.hash)
}

// --- Sequence overloads ----------------------------------------------------
//
// These accept an arbitrary finite sequence instead of a second set. There is
// no trie to merge with, so they fall back to a per-element loop; duplicates
// in the sequence are harmless.

// UnionSeq returns s plus all elements of seq.
func (s Set[T]) UnionSeq(seq iter.Seq[T]) Set[T] {
	mut := newOwner()
	for x := range seq {
		s, _ = s.insertOne(x, mut)
	}
	return s
}

// IntersectionSeq returns the elements of s that occur in seq.
func (s Set[T]) IntersectionSeq(seq iter.Seq[T]) Set[T] {
	result := Set[T]{hash: s.hash}
	mut := newOwner()
	for x := range seq {
		if s.Contains(x) {
			result, _ = result.insertOne(x, mut)
		}
	}
	return result
}

// DifferenceSeq returns s without the elements of seq.
func (s Set[T]) DifferenceSeq(seq iter.Seq[T]) Set[T] {
	mut := newOwner()
	for x := range seq {
		if s.root == nil {
			break
		}
		if sub, _, ok := s.root.remove(x, hashValue(s.hash, x), 0, mut); ok {
			s = s.withRoot(sub)
		}
	}
	return s
}

// SymmetricDifferenceSeq returns the symmetric difference of s and the
// distinct elements of seq.
func (s Set[T]) SymmetricDifferenceSeq(seq iter.Seq[T]) Set[T] {
	seen := Set[T]{hash: s.hash}
	mut := newOwner()
	for x := range seq {
		var fresh bool
		if seen, fresh = seen.insertOne(x, mut); !fresh {
			continue // duplicate in the sequence, already toggled
		}
		if next, _, ok := s.Remove(x); ok {
			s = next
		} else {
			s, _ = s.insertOne(x, mut)
		}
	}
	return s
}

// EqualSeq reports whether the distinct elements of seq are exactly the
// elements of s. Order and duplicates in seq do not matter.
func (s Set[T]) EqualSeq(seq iter.Seq[T]) bool {
	seen := Set[T]{hash: s.hash}
	mut := newOwner()
	for x := range seq {
		if !s.Contains(x) {
			return false
		}
		seen, _ = seen.insertOne(x, mut)
	}
	return seen.count == s.count
}

// SubsetOfSeq reports whether every element of s occurs in seq.
func (s Set[T]) SubsetOfSeq(seq iter.Seq[T]) bool {
	seen := Set[T]{hash: s.hash}
	mut := newOwner()
	for x := range seq {
		if s.Contains(x) {
			seen, _ = seen.insertOne(x, mut)
		}
	}
	return seen.count == s.count
}

// SupersetOfSeq reports whether every element of seq is in s.
func (s Set[T]) SupersetOfSeq(seq iter.Seq[T]) bool {
	for x := range seq {
		if !s.Contains(x) {
			return false
		}
	}
	return true
}

// DisjointFromSeq reports whether no element of seq is in s.
func (s Set[T]) DisjointFromSeq(seq iter.Seq[T]) bool {
	for x := range seq {
		if s.Contains(x) {
			return false
		}
	}
	return true
}

// --- Iteration and encoding ------------------------------------------------

// All returns a fresh lazy sequence over the elements, in trie order.
func (s Set[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		if s.root != nil {
			s.root.each(func(e entry[T, struct{}]) bool { return yield(e.key) })
		}
	}
}

// Iterator returns a resumable iterator over the elements, in trie order.
func (s Set[T]) Iterator() *SetIterator[T] {
	return &SetIterator[T]{it: newTrieIterator(s.root)}
}

func (s Set[T]) elements() []T {
	elems := make([]T, 0, s.count)
	for x := range s.All() {
		elems = append(elems, x)
	}
	return elems
}

// MarshalJSON encodes the set as a plain list of elements. The trie shape is
// never part of the encoding.
func (s Set[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.elements())
}

// UnmarshalJSON decodes a list of elements, deduplicating it.
func (s *Set[T]) UnmarshalJSON(data []byte) error {
	var elems []T
	if err := json.Unmarshal(data, &elems); err != nil {
		return err
	}
	next := Set[T]{hash: s.hash}
	mut := newOwner()
	for _, x := range elems {
		next, _ = next.insertOne(x, mut)
	}
	*s = next
	return nil
}

func (s Set[T]) String() string {
	var b strings.Builder
	b.WriteByte('{')
	first := true
	for x := range s.All() {
		if !first {
			b.WriteString(", ")
		}
		first = false
		fmt.Fprintf(&b, "%v", x)
	}
	b.WriteByte('}')
	return b.String()
}

// checkInvariants validates the structural invariants of the whole trie.
// Meant for tests and debugging.
func (s Set[T]) checkInvariants() error {
	if s.root == nil {
		if s.count != 0 {
			return fmt.Errorf("empty trie with cached count %d", s.count)
		}
		return nil
	}
	if s.root.size() != s.count {
		return fmt.Errorf("cached count %d, trie holds %d", s.count, s.root.size())
	}
	return s.root.check(s.hash, 0, 0, true)
}
