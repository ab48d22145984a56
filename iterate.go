package champ

// Depth-first traversal over a trie snapshot, driven by an explicit frame
// stack so that iteration can be suspended and resumed. Payload slots are
// visited before child slots, left to right.
//
// An iterator captures direct node references. It therefore describes a
// position within the exact snapshot it was created from: deriving a new
// value from the collection does not disturb a running iterator, but the
// iterator keeps walking the old snapshot.

type frame[K comparable, V any] struct {
	node     subnode[K, V]
	entryIdx int
	childIdx int
}

type trieIterator[K comparable, V any] struct {
	stack []frame[K, V]
	cur   entry[K, V]
	valid bool
}

func newTrieIterator[K comparable, V any](root subnode[K, V]) *trieIterator[K, V] {
	it := &trieIterator[K, V]{}
	if root != nil {
		it.stack = append(it.stack, frame[K, V]{node: root})
	}
	it.advance()
	return it
}

func (it *trieIterator[K, V]) hasElem() bool {
	return it.valid
}

func (it *trieIterator[K, V]) elem() entry[K, V] {
	assertThat(it.valid, "iterator used past its last element")
	return it.cur
}

// advance moves to the next payload entry in trie order, descending into
// child nodes as frames are used up. Terminal state: empty stack.
func (it *trieIterator[K, V]) advance() {
	for len(it.stack) > 0 {
		top := &it.stack[len(it.stack)-1]
		if es := top.node.payload(); top.entryIdx < len(es) {
			it.cur = es[top.entryIdx]
			top.entryIdx++
			it.valid = true
			return
		}
		if cs := top.node.subnodes(); top.childIdx < len(cs) {
			child := cs[top.childIdx]
			top.childIdx++
			it.stack = append(it.stack, frame[K, V]{node: child})
			continue
		}
		it.stack = it.stack[:len(it.stack)-1]
	}
	it.valid = false
}

// SetIterator walks the elements of a Set in trie order. Use it like this:
//
//	for it := s.Iterator(); it.HasElem(); it.Next() {
//	    elem := it.Elem()
//	    …
//	}
type SetIterator[T comparable] struct {
	it *trieIterator[T, struct{}]
}

// HasElem reports whether the iterator is positioned on an element.
func (it *SetIterator[T]) HasElem() bool { return it.it.hasElem() }

// Elem returns the current element.
func (it *SetIterator[T]) Elem() T { return it.it.elem().key }

// Next moves the iterator to the next position.
func (it *SetIterator[T]) Next() { it.it.advance() }

// MapIterator walks the key/value pairs of a Map in trie order.
type MapIterator[K comparable, V any] struct {
	it *trieIterator[K, V]
}

// HasElem reports whether the iterator is positioned on a pair.
func (it *MapIterator[K, V]) HasElem() bool { return it.it.hasElem() }

// Elem returns the current key/value pair.
func (it *MapIterator[K, V]) Elem() (K, V) {
	e := it.it.elem()
	return e.key, e.value
}

// Next moves the iterator to the next position.
func (it *MapIterator[K, V]) Next() { it.it.advance() }
