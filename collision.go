package champ

import "fmt"

// collisionNode holds entries whose full 64-bit hashes are equal, once all
// hash bits have been consumed by the trie path above it. Membership and
// mutation degrade to a linear scan over the colliding items. With a well
// distributed hash this node type is vanishingly rare; it is the fallback of
// last resort, not an optimization target.
type collisionNode[K comparable, V any] struct {
	owner owner
	hash  uint64
	items []entry[K, V]
}

func (n *collisionNode[K, V]) size() int                 { return len(n.items) }
func (n *collisionNode[K, V]) payload() []entry[K, V]    { return n.items }
func (n *collisionNode[K, V]) subnodes() []subnode[K, V] { return nil }

func (n *collisionNode[K, V]) singleEntry() (entry[K, V], bool) {
	if len(n.items) == 1 {
		return n.items[0], true
	}
	return entry[K, V]{}, false
}

func (n *collisionNode[K, V]) mutableCopy(mut owner) *collisionNode[K, V] {
	if mut != nil && n.owner == mut {
		return n
	}
	cow := &collisionNode[K, V]{owner: mut, hash: n.hash}
	cow.items = append(cow.items, n.items...)
	return cow
}

func (n *collisionNode[K, V]) get(key K, hash uint64, shift uint) (V, bool) {
	if hash == n.hash {
		for _, e := range n.items {
			if e.key == key {
				return e.value, true
			}
		}
	}
	var none V
	return none, false
}

func (n *collisionNode[K, V]) insert(hf hashFn[K], key K, val V, hash uint64, shift uint, overwrite bool, mut owner) (subnode[K, V], entry[K, V], bool) {
	assertThat(hash == n.hash, "key %v reached collision node with foreign hash %x (node has %x)", key, hash, n.hash)
	for i, e := range n.items {
		if e.key == key {
			if !overwrite {
				return n, e, true
			}
			cow := n.mutableCopy(mut)
			cow.items[i] = entry[K, V]{key: key, value: val}
			return cow, e, true
		}
	}
	cow := n.mutableCopy(mut)
	cow.items = append(cow.items, entry[K, V]{key: key, value: val})
	return cow, entry[K, V]{}, false
}

func (n *collisionNode[K, V]) remove(key K, hash uint64, shift uint, mut owner) (subnode[K, V], entry[K, V], bool) {
	if hash != n.hash {
		return n, entry[K, V]{}, false
	}
	for i, e := range n.items {
		if e.key == key {
			cow := n.mutableCopy(mut)
			cow.items = removeAt(cow.items, i)
			return cow, e, true
		}
	}
	return n, entry[K, V]{}, false
}

func (n *collisionNode[K, V]) each(yield func(entry[K, V]) bool) bool {
	for _, e := range n.items {
		if !yield(e) {
			return false
		}
	}
	return true
}

func (n *collisionNode[K, V]) check(hf hashFn[K], prefix uint64, shift uint, isRoot bool) error {
	if !exhausted(shift) {
		return fmt.Errorf("collision node above maximum trie depth (shift %d)", shift)
	}
	if len(n.items) < 2 && !isRoot {
		return fmt.Errorf("collision node holds %d items, expected at least 2", len(n.items))
	}
	if n.hash != prefix {
		return fmt.Errorf("collision node hash %x does not match trie position %x", n.hash, prefix)
	}
	for i, e := range n.items {
		if h := hashValue(hf, e.key); h != n.hash {
			return fmt.Errorf("collision item %v hashes to %x, node has %x", e.key, h, n.hash)
		}
		for _, f := range n.items[i+1:] {
			if e.key == f.key {
				return fmt.Errorf("duplicate key %v in collision node", e.key)
			}
		}
	}
	return nil
}
