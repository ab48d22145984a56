package champ

import "fmt"

// owner is an identity token held by one mutating operation. Nodes stamped
// with the operation's token are exclusively owned and may be written in
// place; every other node must be cloned before writing ('cow' stands for
// copy-on-write throughout). Tokens are never reused, so nodes published by a
// finished operation can never match a later token.
//
// This is the GC-world equivalent of a refcount==1 check: Go cannot tell us
// whether a node reference is unique, so uniqueness is tracked explicitly.
// The pointee must not be zero-sized: Go gives all zero-sized allocations
// the same address, which would make every token compare equal.
type owner *byte

func newOwner() owner {
	return new(byte)
}

// entry is a trie payload: a key, or a key/value pair. Sets instantiate V
// with struct{}.
type entry[K comparable, V any] struct {
	key   K
	value V
}

// subnode is the recursive node reference: a *trieNode, or a *collisionNode
// once hash bits are exhausted. Two subnode values are the same node iff they
// compare equal (pointer identity), which the set algebra engine exploits to
// skip shared subtrees.
type subnode[K comparable, V any] interface {
	size() int
	get(key K, hash uint64, shift uint) (V, bool)
	insert(hf hashFn[K], key K, val V, hash uint64, shift uint, overwrite bool, mut owner) (subnode[K, V], entry[K, V], bool)
	remove(key K, hash uint64, shift uint, mut owner) (subnode[K, V], entry[K, V], bool)
	singleEntry() (entry[K, V], bool)
	payload() []entry[K, V]
	subnodes() []subnode[K, V]
	each(yield func(entry[K, V]) bool) bool
	check(hf hashFn[K], prefix uint64, shift uint, isRoot bool) error
}

// trieNode is a CHAMP node. dataMap marks slots holding a payload entry,
// nodeMap marks slots holding a child; a slot is never both. The entries and
// children slices are compressed, ordered by ascending slot position.
//
// treeSize counts all entries in the subtree, so that identity fast paths can
// report sizes without traversal.
//
// Canonical form: below the root, a trieNode never holds exactly one payload
// entry and no children — remove inlines such nodes into their parent. This
// keeps the trie depth near ⌈log32(n)⌉.
type trieNode[K comparable, V any] struct {
	owner    owner
	dataMap  bitmap32
	nodeMap  bitmap32
	treeSize int
	entries  []entry[K, V]
	children []subnode[K, V]
}

func (n *trieNode[K, V]) size() int                 { return n.treeSize }
func (n *trieNode[K, V]) payload() []entry[K, V]    { return n.entries }
func (n *trieNode[K, V]) subnodes() []subnode[K, V] { return n.children }

func (n *trieNode[K, V]) singleEntry() (entry[K, V], bool) {
	if n.nodeMap == 0 && n.dataMap.count() == 1 {
		return n.entries[0], true
	}
	return entry[K, V]{}, false
}

// mutableCopy returns n itself when the current operation owns it, a clone
// stamped with the operation's token otherwise.
func (n *trieNode[K, V]) mutableCopy(mut owner) *trieNode[K, V] {
	if mut != nil && n.owner == mut {
		return n
	}
	cow := &trieNode[K, V]{
		owner:    mut,
		dataMap:  n.dataMap,
		nodeMap:  n.nodeMap,
		treeSize: n.treeSize,
	}
	cow.entries = append(cow.entries, n.entries...)
	cow.children = append(cow.children, n.children...)
	return cow
}

func (n *trieNode[K, V]) get(key K, hash uint64, shift uint) (V, bool) {
	bit := bitpos(slotAt(hash, shift))
	if n.dataMap.has(bit) {
		e := n.entries[n.dataMap.index(bit)]
		if e.key == key {
			return e.value, true
		}
	} else if n.nodeMap.has(bit) {
		return n.children[n.nodeMap.index(bit)].get(key, hash, shift+bitsPerLevel)
	}
	var none V
	return none, false
}

// insert adds or replaces an entry. It returns the resulting node, the
// pre-existing entry for the key (if any) and whether one existed. With
// overwrite=false an existing entry is left untouched and the node is
// returned unchanged.
func (n *trieNode[K, V]) insert(hf hashFn[K], key K, val V, hash uint64, shift uint, overwrite bool, mut owner) (subnode[K, V], entry[K, V], bool) {
	bit := bitpos(slotAt(hash, shift))
	switch {
	case n.dataMap.has(bit):
		idx := n.dataMap.index(bit)
		e := n.entries[idx]
		if e.key == key {
			if !overwrite {
				return n, e, true
			}
			cow := n.mutableCopy(mut)
			cow.entries[idx] = entry[K, V]{key: key, value: val}
			return cow, e, true
		}
		// Two distinct keys claim one slot: split into a sub-node one
		// level deeper (deeper still while their slices keep colliding).
		sub := mergeTwoEntries(e, hashValue(hf, e.key), entry[K, V]{key: key, value: val}, hash, shift+bitsPerLevel, mut)
		cow := n.mutableCopy(mut)
		cow.dataMap &^= bit
		cow.entries = removeAt(cow.entries, idx)
		cow.nodeMap |= bit
		cow.children = insertAt(cow.children, cow.nodeMap.index(bit), sub)
		cow.treeSize++
		return cow, entry[K, V]{}, false
	case n.nodeMap.has(bit):
		idx := n.nodeMap.index(bit)
		child := n.children[idx]
		sub, prev, existed := child.insert(hf, key, val, hash, shift+bitsPerLevel, overwrite, mut)
		if sub == child {
			return n, prev, existed
		}
		cow := n.mutableCopy(mut)
		cow.children[idx] = sub
		if !existed {
			cow.treeSize++
		}
		return cow, prev, existed
	default:
		cow := n.mutableCopy(mut)
		idx := cow.dataMap.index(bit)
		cow.dataMap |= bit
		cow.entries = insertAt(cow.entries, idx, entry[K, V]{key: key, value: val})
		cow.treeSize++
		return cow, entry[K, V]{}, false
	}
}

// mergeTwoEntries builds the smallest subtree distinguishing two entries with
// distinct keys, starting at the level given by shift. Equal full hashes end
// in a collision node.
func mergeTwoEntries[K comparable, V any](e0 entry[K, V], h0 uint64, e1 entry[K, V], h1 uint64, shift uint, mut owner) subnode[K, V] {
	if exhausted(shift) {
		tracer().Debugf("hash bits exhausted, promoting %v/%v to collision node", e0.key, e1.key)
		return &collisionNode[K, V]{owner: mut, hash: h0, items: []entry[K, V]{e0, e1}}
	}
	s0, s1 := slotAt(h0, shift), slotAt(h1, shift)
	if s0 != s1 {
		n := &trieNode[K, V]{owner: mut, dataMap: bitpos(s0) | bitpos(s1), treeSize: 2}
		if s0 < s1 {
			n.entries = []entry[K, V]{e0, e1}
		} else {
			n.entries = []entry[K, V]{e1, e0}
		}
		return n
	}
	// slices still collide, descend
	child := mergeTwoEntries(e0, h0, e1, h1, shift+bitsPerLevel, mut)
	return &trieNode[K, V]{owner: mut, nodeMap: bitpos(s0), treeSize: 2, children: []subnode[K, V]{child}}
}

// remove deletes the entry for key, if present. A node emptied entirely
// propagates nil so the parent clears its child bit; a child left with a
// single payload entry is inlined into the parent's payload slot (canonical
// form).
func (n *trieNode[K, V]) remove(key K, hash uint64, shift uint, mut owner) (subnode[K, V], entry[K, V], bool) {
	bit := bitpos(slotAt(hash, shift))
	switch {
	case n.dataMap.has(bit):
		idx := n.dataMap.index(bit)
		e := n.entries[idx]
		if e.key != key {
			return n, entry[K, V]{}, false
		}
		if n.treeSize == 1 {
			return nil, e, true
		}
		cow := n.mutableCopy(mut)
		cow.dataMap &^= bit
		cow.entries = removeAt(cow.entries, idx)
		cow.treeSize--
		return cow, e, true
	case n.nodeMap.has(bit):
		idx := n.nodeMap.index(bit)
		child := n.children[idx]
		sub, removed, ok := child.remove(key, hash, shift+bitsPerLevel, mut)
		if !ok {
			return n, entry[K, V]{}, false
		}
		cow := n.mutableCopy(mut)
		cow.treeSize--
		if sub == nil {
			cow.nodeMap &^= bit
			cow.children = removeAt(cow.children, idx)
		} else if e, single := sub.singleEntry(); single {
			tracer().Debugf("collapsing single-entry child, inlining %v", e.key)
			cow.nodeMap &^= bit
			cow.children = removeAt(cow.children, idx)
			cow.dataMap |= bit
			cow.entries = insertAt(cow.entries, cow.dataMap.index(bit), e)
		} else {
			cow.children[idx] = sub
		}
		return cow, removed, true
	default:
		return n, entry[K, V]{}, false
	}
}

func (n *trieNode[K, V]) each(yield func(entry[K, V]) bool) bool {
	for _, e := range n.entries {
		if !yield(e) {
			return false
		}
	}
	for _, c := range n.children {
		if !c.each(yield) {
			return false
		}
	}
	return true
}

// check validates the structural invariants of the subtree rooted at n.
// prefix holds the hash bits below shift that every entry in this subtree
// must share.
func (n *trieNode[K, V]) check(hf hashFn[K], prefix uint64, shift uint, isRoot bool) error {
	if n.dataMap&n.nodeMap != 0 {
		return fmt.Errorf("dataMap and nodeMap overlap: %032b / %032b", n.dataMap, n.nodeMap)
	}
	if len(n.entries) != n.dataMap.count() {
		return fmt.Errorf("payload count %d does not match popcount(dataMap) %d", len(n.entries), n.dataMap.count())
	}
	if len(n.children) != n.nodeMap.count() {
		return fmt.Errorf("children count %d does not match popcount(nodeMap) %d", len(n.children), n.nodeMap.count())
	}
	if !isRoot && len(n.children) == 0 && len(n.entries) == 1 {
		return fmt.Errorf("non-root node holds a single payload entry and no children (non-canonical)")
	}
	size := 0
	prefixMask := uint64(1)<<shift - 1
	if exhausted(shift) {
		prefixMask = ^uint64(0)
	}
	for slot := uint(0); slot < degree; slot++ {
		bit := bitpos(slot)
		if n.dataMap.has(bit) {
			e := n.entries[n.dataMap.index(bit)]
			h := hashValue(hf, e.key)
			if h&prefixMask != prefix {
				return fmt.Errorf("entry %v has hash prefix %x, expected %x", e.key, h&prefixMask, prefix)
			}
			if slotAt(h, shift) != slot {
				return fmt.Errorf("entry %v stored at slot %d, hash says %d", e.key, slot, slotAt(h, shift))
			}
			size++
		}
		if n.nodeMap.has(bit) {
			child := n.children[n.nodeMap.index(bit)]
			if err := child.check(hf, prefix|uint64(slot)<<shift, shift+bitsPerLevel, false); err != nil {
				return err
			}
			size += child.size()
		}
	}
	if size != n.treeSize {
		return fmt.Errorf("cached subtree size %d, actual %d", n.treeSize, size)
	}
	return nil
}

// --- Compressed-array helpers ----------------------------------------------

func insertAt[E any](s []E, i int, x E) []E {
	s = append(s, x)
	copy(s[i+1:], s[i:])
	s[i] = x
	return s
}

func removeAt[E any](s []E, i int) []E {
	return append(s[:i], s[i+1:]...)
}

// ---------------------------------------------------------------------------

func assertThat(that bool, msg string, msgargs ...interface{}) {
	if !that {
		panic(fmt.Sprintf("champ: "+msg, msgargs...))
	}
}
