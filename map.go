package champ

import (
	"encoding/json"
	"fmt"
	"iter"
	"strings"
)

// Pair is a key/value pair, used by bulk constructors and the encoding.
type Pair[K comparable, V any] struct {
	Key   K `json:"key"`
	Value V `json:"value"`
}

// Map is a persistent hashed map. The zero value is an empty map, ready for
// use. Like Set, maps are values with O(1) copying and structural sharing
// between derived values; both are backed by the same trie engine.
type Map[K comparable, V any] struct {
	root  subnode[K, V]
	count int
	hash  hashFn[K]
}

// MapOf builds a map from the given pairs. On duplicate keys the last pair
// wins.
func MapOf[K comparable, V any](pairs ...Pair[K, V]) Map[K, V] {
	return MapFrom(pairs, nil)
}

// MapFrom builds a map from a pair slice. Values of duplicate keys are merged
// with combine(held, incoming); a nil combine means the last pair wins.
func MapFrom[K comparable, V any](pairs []Pair[K, V], combine func(V, V) V) Map[K, V] {
	m := Map[K, V]{}
	mut := newOwner()
	for _, p := range pairs {
		v := p.Value
		if combine != nil {
			if held, ok := m.Get(p.Key); ok {
				v = combine(held, p.Value)
			}
		}
		m = m.withPair(p.Key, v, mut)
	}
	return m
}

// GroupBy builds a map from the elements of a slice, grouping them under the
// key that by derives for each element.
func GroupBy[K comparable, E any](elems []E, by func(E) K) Map[K, []E] {
	m := Map[K, []E]{}
	mut := newOwner()
	for _, e := range elems {
		k := by(e)
		group, _ := m.Get(k)
		m = m.withPair(k, append(group, e), mut)
	}
	return m
}

// Len returns the number of pairs. O(1), from the cached counter.
func (m Map[K, V]) Len() int { return m.count }

// IsEmpty reports whether the map holds no pairs.
func (m Map[K, V]) IsEmpty() bool { return m.count == 0 }

// Get returns the value stored for key, if any.
func (m Map[K, V]) Get(key K) (V, bool) {
	if m.root == nil {
		var none V
		return none, false
	}
	return m.root.get(key, hashValue(m.hash, key), 0)
}

// Contains reports whether key is present.
func (m Map[K, V]) Contains(key K) bool {
	_, ok := m.Get(key)
	return ok
}

func (m Map[K, V]) withPair(key K, val V, mut owner) Map[K, V] {
	h := hashValue(m.hash, key)
	if m.root == nil {
		root := &trieNode[K, V]{
			owner:    mut,
			dataMap:  bitpos(slotAt(h, 0)),
			treeSize: 1,
			entries:  []entry[K, V]{{key: key, value: val}},
		}
		return Map[K, V]{root: root, count: 1, hash: m.hash}
	}
	sub, _, existed := m.root.insert(m.hash, key, val, h, 0, true, mut)
	count := m.count
	if !existed {
		count++
	}
	return Map[K, V]{root: sub, count: count, hash: m.hash}
}

// With returns a map holding val under key, replacing any previous value.
func (m Map[K, V]) With(key K, val V) Map[K, V] {
	return m.withPair(key, val, newOwner())
}

// Insert stores val under key and returns the previously held value, if any.
func (m Map[K, V]) Insert(key K, val V) (Map[K, V], V, bool) {
	h := hashValue(m.hash, key)
	if m.root == nil {
		var none V
		return m.withPair(key, val, newOwner()), none, false
	}
	sub, prev, existed := m.root.insert(m.hash, key, val, h, 0, true, newOwner())
	count := m.count
	if !existed {
		count++
	}
	return Map[K, V]{root: sub, count: count, hash: m.hash}, prev.value, existed
}

// UpdateValue stores the value that update derives from the currently held
// one (ok=false meaning the key was absent).
func (m Map[K, V]) UpdateValue(key K, update func(held V, ok bool) V) Map[K, V] {
	held, ok := m.Get(key)
	return m.With(key, update(held, ok))
}

// Remove deletes key and returns the value it held, if any.
func (m Map[K, V]) Remove(key K) (Map[K, V], V, bool) {
	var none V
	if m.root == nil {
		return m, none, false
	}
	sub, removed, ok := m.root.remove(key, hashValue(m.hash, key), 0, newOwner())
	if !ok {
		return m, none, false
	}
	next := Map[K, V]{count: m.count - 1, hash: m.hash}
	if sub != nil {
		next.root = sub
	}
	return next, removed.value, true
}

// --- Structural merging ----------------------------------------------------

// Merge returns the union of two maps. Values of keys present in both are
// merged with combine(own, other); a nil combine keeps the receiver's value.
// Shared subtrees are detected and skipped, so merging a map with a lightly
// diverged copy costs time proportional to the divergence.
func (m Map[K, V]) Merge(other Map[K, V], combine func(own, other V) V) Map[K, V] {
	if m.root == nil {
		return other
	}
	if other.root == nil {
		return m
	}
	node := unionNodes(m.root, other.root, 0, m.hash, combine, newOwner())
	if node == m.root {
		return m
	}
	return Map[K, V]{root: node, count: node.size(), hash: m.hash}
}

// IntersectKeys keeps the pairs whose key is in keep.
func (m Map[K, V]) IntersectKeys(keep Set[K]) Map[K, V] {
	if m.root == nil || keep.root == nil {
		return Map[K, V]{hash: m.hash}
	}
	node := intersectNodes(m.root, keep.root, 0, m.hash, newOwner())
	if node == m.root {
		return m
	}
	return m.withRoot(node)
}

// SubtractKeys drops the pairs whose key is in drop.
func (m Map[K, V]) SubtractKeys(drop Set[K]) Map[K, V] {
	if m.root == nil || drop.root == nil {
		return m
	}
	node := differenceNodes(m.root, drop.root, 0, m.hash, newOwner())
	if node == m.root {
		return m
	}
	return m.withRoot(node)
}

func (m Map[K, V]) withRoot(node subnode[K, V]) Map[K, V] {
	if node == nil {
		return Map[K, V]{hash: m.hash}
	}
	return Map[K, V]{root: node, count: node.size(), hash: m.hash}
}

// Equal reports whether both maps hold the same keys with values equal under
// eqv.
func (m Map[K, V]) Equal(other Map[K, V], eqv func(V, V) bool) bool {
	if m.count != other.count {
		return false
	}
	if m.root == nil {
		return true
	}
	return equalNodes(m.root, other.root, eqv)
}

// --- Views and iteration ---------------------------------------------------

// KeysView is a read-only view of a map's key set, backed by the map's trie
// without copying. It interoperates with Set through the sequence overloads:
//
//	s.IntersectionSeq(m.Keys().All())
//
// For the structural (sub-linear) forms see IntersectingKeys and friends.
type KeysView[K comparable, V any] struct {
	m Map[K, V]
}

// Keys returns a view of the map's key set.
func (m Map[K, V]) Keys() KeysView[K, V] {
	return KeysView[K, V]{m: m}
}

// Len returns the number of keys.
func (kv KeysView[K, V]) Len() int { return kv.m.count }

// Contains reports whether key is in the view.
func (kv KeysView[K, V]) Contains(key K) bool { return kv.m.Contains(key) }

// All returns a fresh lazy sequence over the keys, in trie order.
func (kv KeysView[K, V]) All() iter.Seq[K] {
	return func(yield func(K) bool) {
		if kv.m.root != nil {
			kv.m.root.each(func(e entry[K, V]) bool { return yield(e.key) })
		}
	}
}

// ToSet materializes the view as an independent Set.
func (kv KeysView[K, V]) ToSet() Set[K] {
	return SetFromSeq(kv.All())
}

// IntersectingKeys returns the elements of s that are keys of m, merging the
// two tries structurally (shared subtrees are skipped, unlike the per-element
// sequence overloads).
func IntersectingKeys[K comparable, V any](s Set[K], m Map[K, V]) Set[K] {
	if s.root == nil || m.root == nil {
		return Set[K]{hash: s.hash}
	}
	node := intersectNodes(s.root, m.root, 0, s.hash, newOwner())
	if node == s.root {
		return s
	}
	return s.withRoot(node)
}

// SubtractingKeys returns the elements of s that are not keys of m,
// structurally.
func SubtractingKeys[K comparable, V any](s Set[K], m Map[K, V]) Set[K] {
	if s.root == nil || m.root == nil {
		return s
	}
	node := differenceNodes(s.root, m.root, 0, s.hash, newOwner())
	if node == s.root {
		return s
	}
	return s.withRoot(node)
}

// SubsetOfKeys reports whether every element of s is a key of m, structurally.
func SubsetOfKeys[K comparable, V any](s Set[K], m Map[K, V]) bool {
	if s.root == nil {
		return true
	}
	if m.root == nil {
		return false
	}
	return subsetNodes(s.root, m.root, 0, s.hash)
}

// DisjointFromKeys reports whether no element of s is a key of m,
// structurally.
func DisjointFromKeys[K comparable, V any](s Set[K], m Map[K, V]) bool {
	if s.root == nil || m.root == nil {
		return true
	}
	return disjointNodes(s.root, m.root, 0, s.hash)
}

// All returns a fresh lazy sequence over the pairs, in trie order.
func (m Map[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		if m.root != nil {
			m.root.each(func(e entry[K, V]) bool { return yield(e.key, e.value) })
		}
	}
}

// Values returns a fresh lazy sequence over the values, in trie order.
func (m Map[K, V]) Values() iter.Seq[V] {
	return func(yield func(V) bool) {
		for _, v := range m.All() {
			if !yield(v) {
				return
			}
		}
	}
}

// Iterator returns a resumable iterator over the pairs, in trie order.
func (m Map[K, V]) Iterator() *MapIterator[K, V] {
	return &MapIterator[K, V]{it: newTrieIterator(m.root)}
}

// --- Encoding --------------------------------------------------------------

func (m Map[K, V]) pairs() []Pair[K, V] {
	ps := make([]Pair[K, V], 0, m.count)
	for k, v := range m.All() {
		ps = append(ps, Pair[K, V]{Key: k, Value: v})
	}
	return ps
}

// MarshalJSON encodes the map as a plain list of key/value pairs. The trie
// shape is never part of the encoding.
func (m Map[K, V]) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.pairs())
}

// UnmarshalJSON decodes a list of key/value pairs; on duplicate keys the last
// pair wins.
func (m *Map[K, V]) UnmarshalJSON(data []byte) error {
	var ps []Pair[K, V]
	if err := json.Unmarshal(data, &ps); err != nil {
		return err
	}
	next := Map[K, V]{hash: m.hash}
	mut := newOwner()
	for _, p := range ps {
		next = next.withPair(p.Key, p.Value, mut)
	}
	*m = next
	return nil
}

func (m Map[K, V]) String() string {
	var b strings.Builder
	b.WriteByte('{')
	first := true
	for k, v := range m.All() {
		if !first {
			b.WriteString(", ")
		}
		first = false
		fmt.Fprintf(&b, "%v: %v", k, v)
	}
	b.WriteByte('}')
	return b.String()
}

// checkInvariants validates the structural invariants of the whole trie.
// Meant for tests and debugging.
func (m Map[K, V]) checkInvariants() error {
	if m.root == nil {
		if m.count != 0 {
			return fmt.Errorf("empty trie with cached count %d", m.count)
		}
		return nil
	}
	if m.root.size() != m.count {
		return fmt.Errorf("cached count %d, trie holds %d", m.count, m.root.size())
	}
	return m.root.check(m.hash, 0, 0, true)
}
