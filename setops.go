package champ

// Structural set algebra over pairs of trie nodes at the same level.
//
// Every operator walks two nodes slot by slot, but first checks for node
// identity: a subtree shared between both operands is fully processed in O(1)
// without visiting a single element. Operations on two lightly-diverged
// values therefore cost time proportional to their difference.
//
// Operators taking two value types (V and W) use the right operand purely as
// a key filter; this is what lets a Set interact structurally with the key
// set of a Map. Both operands must stem from the same hash family, or slot
// positions would not line up (see hashFn).
//
// A result that would be a non-canonical singleton is inlined into the parent
// payload slot by the caller, via collapse below.

// sameNode reports reference identity across value-type instantiations.
func sameNode[K comparable, V, W any](a subnode[K, V], b subnode[K, W]) bool {
	return any(a) == any(b)
}

func alignedNodes[K comparable, V, W any](a subnode[K, V], b subnode[K, W]) (*trieNode[K, V], *trieNode[K, W], bool) {
	an, aok := a.(*trieNode[K, V])
	bn, bok := b.(*trieNode[K, W])
	if aok != bok {
		// A collision node lives at a fixed depth determined by its hash,
		// so two nodes at one trie position are always of the same kind.
		assertThat(false, "misaligned trie nodes (operands from different hash families?)")
	}
	return an, bn, aok
}

// collapse folds an operator's result for one child slot into the node being
// built: dropped entirely, inlined as payload (canonical form), or kept as a
// child.
func collapse[K comparable, V any](sub subnode[K, V]) (entry[K, V], subnode[K, V], bool) {
	if sub == nil {
		return entry[K, V]{}, nil, false
	}
	if e, single := sub.singleEntry(); single {
		return e, nil, true
	}
	return entry[K, V]{}, sub, true
}

// builder accumulates a result node slot by slot, in ascending slot order.
type builder[K comparable, V any] struct {
	dataMap  bitmap32
	nodeMap  bitmap32
	size     int
	entries  []entry[K, V]
	children []subnode[K, V]
}

func (bld *builder[K, V]) addEntry(bit bitmap32, e entry[K, V]) {
	bld.dataMap |= bit
	bld.entries = append(bld.entries, e)
	bld.size++
}

func (bld *builder[K, V]) addChild(bit bitmap32, c subnode[K, V]) {
	bld.nodeMap |= bit
	bld.children = append(bld.children, c)
	bld.size += c.size()
}

// add dispatches a collapsed operator result.
func (bld *builder[K, V]) add(bit bitmap32, e entry[K, V], c subnode[K, V], keep bool) {
	if !keep {
		return
	}
	if c != nil {
		bld.addChild(bit, c)
	} else {
		bld.addEntry(bit, e)
	}
}

func (bld *builder[K, V]) build(mut owner) subnode[K, V] {
	if bld.size == 0 {
		return nil
	}
	return &trieNode[K, V]{
		owner:    mut,
		dataMap:  bld.dataMap,
		nodeMap:  bld.nodeMap,
		treeSize: bld.size,
		entries:  bld.entries,
		children: bld.children,
	}
}

// eachBit visits the set bits of m in ascending slot order.
func eachBit(m bitmap32, visit func(bit bitmap32)) {
	for m != 0 {
		bit := m & -m
		visit(bit)
		m &^= bit
	}
}

// --- Union -----------------------------------------------------------------

// unionNodes merges two subtrees. On keys present in both operands the left
// entry is kept; a non-nil combine instead merges the two values (key still
// from the left). If the union adds nothing to a, a itself is returned.
func unionNodes[K comparable, V any](a, b subnode[K, V], shift uint, hf hashFn[K], combine func(left, right V) V, mut owner) subnode[K, V] {
	if a == b {
		return a
	}
	an, bn, isTrie := alignedNodes(a, b)
	if !isTrie {
		return unionCollisions(a.(*collisionNode[K, V]), b.(*collisionNode[K, V]), combine, mut)
	}
	var bld builder[K, V]
	unchanged := true
	eachBit(an.dataMap|an.nodeMap|bn.dataMap|bn.nodeMap, func(bit bitmap32) {
		aData, aNode := an.dataMap.has(bit), an.nodeMap.has(bit)
		bData, bNode := bn.dataMap.has(bit), bn.nodeMap.has(bit)
		switch {
		case aData && bData:
			ae, be := an.entries[an.dataMap.index(bit)], bn.entries[bn.dataMap.index(bit)]
			if ae.key == be.key {
				if combine != nil {
					ae.value = combine(ae.value, be.value)
					unchanged = false
				}
				bld.addEntry(bit, ae)
			} else {
				sub := mergeTwoEntries(ae, hashValue(hf, ae.key), be, hashValue(hf, be.key), shift+bitsPerLevel, mut)
				bld.addChild(bit, sub)
				unchanged = false
			}
		case aData && bNode:
			// the left payload must win over an equal key inside b's child
			ae := an.entries[an.dataMap.index(bit)]
			bchild := bn.children[bn.nodeMap.index(bit)]
			h := hashValue(hf, ae.key)
			if combine != nil {
				if bv, ok := bchild.get(ae.key, h, shift+bitsPerLevel); ok {
					ae.value = combine(ae.value, bv)
				}
			}
			sub, _, _ := bchild.insert(hf, ae.key, ae.value, h, shift+bitsPerLevel, true, mut)
			bld.addChild(bit, sub)
			unchanged = false
		case aNode && bData:
			be := bn.entries[bn.dataMap.index(bit)]
			achild := an.children[an.nodeMap.index(bit)]
			h := hashValue(hf, be.key)
			var sub subnode[K, V]
			if combine != nil {
				if av, ok := achild.get(be.key, h, shift+bitsPerLevel); ok {
					sub, _, _ = achild.insert(hf, be.key, combine(av, be.value), h, shift+bitsPerLevel, true, mut)
				} else {
					sub, _, _ = achild.insert(hf, be.key, be.value, h, shift+bitsPerLevel, false, mut)
				}
			} else {
				sub, _, _ = achild.insert(hf, be.key, be.value, h, shift+bitsPerLevel, false, mut)
			}
			bld.addChild(bit, sub)
			if sub != achild {
				unchanged = false
			}
		case aNode && bNode:
			achild := an.children[an.nodeMap.index(bit)]
			sub := unionNodes(achild, bn.children[bn.nodeMap.index(bit)], shift+bitsPerLevel, hf, combine, mut)
			bld.addChild(bit, sub)
			if sub != achild {
				unchanged = false
			}
		case aData:
			bld.addEntry(bit, an.entries[an.dataMap.index(bit)])
		case aNode:
			bld.addChild(bit, an.children[an.nodeMap.index(bit)])
		case bData:
			bld.addEntry(bit, bn.entries[bn.dataMap.index(bit)])
			unchanged = false
		case bNode:
			bld.addChild(bit, bn.children[bn.nodeMap.index(bit)])
			unchanged = false
		}
	})
	if unchanged {
		return an
	}
	return bld.build(mut)
}

func unionCollisions[K comparable, V any](a, b *collisionNode[K, V], combine func(left, right V) V, mut owner) subnode[K, V] {
	items := append([]entry[K, V](nil), a.items...)
	changed := false
	for _, be := range b.items {
		found := false
		for i, ae := range items {
			if ae.key == be.key {
				if combine != nil {
					items[i].value = combine(ae.value, be.value)
					changed = true
				}
				found = true
				break
			}
		}
		if !found {
			items = append(items, be)
			changed = true
		}
	}
	if !changed {
		return a
	}
	return &collisionNode[K, V]{owner: mut, hash: a.hash, items: items}
}

// --- Intersection ----------------------------------------------------------

// intersectNodes keeps the left operand's entries whose keys are present in
// the right operand. Returns nil for an empty result, and a itself when
// nothing was dropped.
func intersectNodes[K comparable, V, W any](a subnode[K, V], b subnode[K, W], shift uint, hf hashFn[K], mut owner) subnode[K, V] {
	if sameNode(a, b) {
		return a
	}
	an, bn, isTrie := alignedNodes(a, b)
	if !isTrie {
		return intersectCollisions(a.(*collisionNode[K, V]), b.(*collisionNode[K, W]), mut)
	}
	var bld builder[K, V]
	unchanged := (an.dataMap|an.nodeMap)&^(bn.dataMap|bn.nodeMap) == 0
	eachBit((an.dataMap|an.nodeMap)&(bn.dataMap|bn.nodeMap), func(bit bitmap32) {
		aData, bData := an.dataMap.has(bit), bn.dataMap.has(bit)
		switch {
		case aData && bData:
			ae := an.entries[an.dataMap.index(bit)]
			if be := bn.entries[bn.dataMap.index(bit)]; ae.key == be.key {
				bld.addEntry(bit, ae)
			} else {
				unchanged = false
			}
		case aData:
			ae := an.entries[an.dataMap.index(bit)]
			bchild := bn.children[bn.nodeMap.index(bit)]
			if _, ok := bchild.get(ae.key, hashValue(hf, ae.key), shift+bitsPerLevel); ok {
				bld.addEntry(bit, ae)
			} else {
				unchanged = false
			}
		case bData:
			be := bn.entries[bn.dataMap.index(bit)]
			achild := an.children[an.nodeMap.index(bit)]
			if av, ok := achild.get(be.key, hashValue(hf, be.key), shift+bitsPerLevel); ok {
				bld.addEntry(bit, entry[K, V]{key: be.key, value: av})
			}
			unchanged = false
		default:
			achild := an.children[an.nodeMap.index(bit)]
			sub := intersectNodes(achild, bn.children[bn.nodeMap.index(bit)], shift+bitsPerLevel, hf, mut)
			if sub != achild {
				unchanged = false
			}
			e, c, keep := collapse(sub)
			bld.add(bit, e, c, keep)
		}
	})
	if unchanged {
		return an
	}
	return bld.build(mut)
}

func intersectCollisions[K comparable, V, W any](a *collisionNode[K, V], b *collisionNode[K, W], mut owner) subnode[K, V] {
	var kept []entry[K, V]
	for _, ae := range a.items {
		if _, ok := b.get(ae.key, b.hash, hashBits); ok {
			kept = append(kept, ae)
		}
	}
	switch {
	case len(kept) == len(a.items):
		return a
	case len(kept) == 0:
		return nil
	}
	return &collisionNode[K, V]{owner: mut, hash: a.hash, items: kept}
}

// --- Difference ------------------------------------------------------------

// differenceNodes drops the left operand's entries whose keys appear in the
// right operand. Returns nil for an empty result, and a itself when the
// operands are disjoint.
func differenceNodes[K comparable, V, W any](a subnode[K, V], b subnode[K, W], shift uint, hf hashFn[K], mut owner) subnode[K, V] {
	if sameNode(a, b) {
		return nil
	}
	an, bn, isTrie := alignedNodes(a, b)
	if !isTrie {
		return differenceCollisions(a.(*collisionNode[K, V]), b.(*collisionNode[K, W]), mut)
	}
	var bld builder[K, V]
	unchanged := true
	eachBit(an.dataMap|an.nodeMap, func(bit bitmap32) {
		bData, bNode := bn.dataMap.has(bit), bn.nodeMap.has(bit)
		if an.dataMap.has(bit) {
			ae := an.entries[an.dataMap.index(bit)]
			drop := false
			switch {
			case bData:
				drop = ae.key == bn.entries[bn.dataMap.index(bit)].key
			case bNode:
				_, drop = bn.children[bn.nodeMap.index(bit)].get(ae.key, hashValue(hf, ae.key), shift+bitsPerLevel)
			}
			if drop {
				unchanged = false
			} else {
				bld.addEntry(bit, ae)
			}
			return
		}
		achild := an.children[an.nodeMap.index(bit)]
		switch {
		case bData:
			be := bn.entries[bn.dataMap.index(bit)]
			sub, _, ok := achild.remove(be.key, hashValue(hf, be.key), shift+bitsPerLevel, mut)
			if !ok {
				bld.addChild(bit, achild)
				return
			}
			unchanged = false
			e, c, keep := collapse(sub)
			bld.add(bit, e, c, keep)
		case bNode:
			sub := differenceNodes(achild, bn.children[bn.nodeMap.index(bit)], shift+bitsPerLevel, hf, mut)
			if sub == achild {
				bld.addChild(bit, achild)
				return
			}
			unchanged = false
			e, c, keep := collapse(sub)
			bld.add(bit, e, c, keep)
		default:
			bld.addChild(bit, achild)
		}
	})
	if unchanged {
		return an
	}
	return bld.build(mut)
}

func differenceCollisions[K comparable, V, W any](a *collisionNode[K, V], b *collisionNode[K, W], mut owner) subnode[K, V] {
	var kept []entry[K, V]
	for _, ae := range a.items {
		if _, ok := b.get(ae.key, b.hash, hashBits); !ok {
			kept = append(kept, ae)
		}
	}
	switch {
	case len(kept) == len(a.items):
		return a
	case len(kept) == 0:
		return nil
	}
	return &collisionNode[K, V]{owner: mut, hash: a.hash, items: kept}
}

// --- Symmetric difference --------------------------------------------------

// symmetricDiffNodes keeps entries present in exactly one operand. Returns
// nil for an empty result.
func symmetricDiffNodes[K comparable, V any](a, b subnode[K, V], shift uint, hf hashFn[K], mut owner) subnode[K, V] {
	if a == b {
		return nil
	}
	an, bn, isTrie := alignedNodes(a, b)
	if !isTrie {
		return symmetricDiffCollisions(a.(*collisionNode[K, V]), b.(*collisionNode[K, V]), mut)
	}
	var bld builder[K, V]
	eachBit(an.dataMap|an.nodeMap|bn.dataMap|bn.nodeMap, func(bit bitmap32) {
		aData, aNode := an.dataMap.has(bit), an.nodeMap.has(bit)
		bData, bNode := bn.dataMap.has(bit), bn.nodeMap.has(bit)
		switch {
		case aData && bData:
			ae, be := an.entries[an.dataMap.index(bit)], bn.entries[bn.dataMap.index(bit)]
			if ae.key == be.key {
				return // cancels out
			}
			sub := mergeTwoEntries(ae, hashValue(hf, ae.key), be, hashValue(hf, be.key), shift+bitsPerLevel, mut)
			bld.addChild(bit, sub)
		case aData && bNode:
			sub := toggleEntry(bn.children[bn.nodeMap.index(bit)], an.entries[an.dataMap.index(bit)], shift, hf, mut)
			e, c, keep := collapse(sub)
			bld.add(bit, e, c, keep)
		case aNode && bData:
			sub := toggleEntry(an.children[an.nodeMap.index(bit)], bn.entries[bn.dataMap.index(bit)], shift, hf, mut)
			e, c, keep := collapse(sub)
			bld.add(bit, e, c, keep)
		case aNode && bNode:
			sub := symmetricDiffNodes(an.children[an.nodeMap.index(bit)], bn.children[bn.nodeMap.index(bit)], shift+bitsPerLevel, hf, mut)
			e, c, keep := collapse(sub)
			bld.add(bit, e, c, keep)
		case aData:
			bld.addEntry(bit, an.entries[an.dataMap.index(bit)])
		case aNode:
			bld.addChild(bit, an.children[an.nodeMap.index(bit)])
		case bData:
			bld.addEntry(bit, bn.entries[bn.dataMap.index(bit)])
		case bNode:
			bld.addChild(bit, bn.children[bn.nodeMap.index(bit)])
		}
	})
	return bld.build(mut)
}

// toggleEntry removes e from child if present, inserts it otherwise.
func toggleEntry[K comparable, V any](child subnode[K, V], e entry[K, V], shift uint, hf hashFn[K], mut owner) subnode[K, V] {
	h := hashValue(hf, e.key)
	if sub, _, ok := child.remove(e.key, h, shift+bitsPerLevel, mut); ok {
		return sub
	}
	sub, _, _ := child.insert(hf, e.key, e.value, h, shift+bitsPerLevel, false, mut)
	return sub
}

func symmetricDiffCollisions[K comparable, V any](a, b *collisionNode[K, V], mut owner) subnode[K, V] {
	var kept []entry[K, V]
	for _, ae := range a.items {
		if _, ok := b.get(ae.key, b.hash, hashBits); !ok {
			kept = append(kept, ae)
		}
	}
	for _, be := range b.items {
		if _, ok := a.get(be.key, a.hash, hashBits); !ok {
			kept = append(kept, be)
		}
	}
	if len(kept) == 0 {
		return nil
	}
	return &collisionNode[K, V]{owner: mut, hash: a.hash, items: kept}
}

// --- Comparisons -----------------------------------------------------------

// subsetNodes reports whether every key of a is present in b.
func subsetNodes[K comparable, V, W any](a subnode[K, V], b subnode[K, W], shift uint, hf hashFn[K]) bool {
	if sameNode(a, b) {
		return true
	}
	if a.size() > b.size() {
		return false
	}
	an, bn, isTrie := alignedNodes(a, b)
	if !isTrie {
		ac, bc := a.(*collisionNode[K, V]), b.(*collisionNode[K, W])
		for _, ae := range ac.items {
			if _, ok := bc.get(ae.key, bc.hash, hashBits); !ok {
				return false
			}
		}
		return true
	}
	subset := true
	eachBit(an.dataMap|an.nodeMap, func(bit bitmap32) {
		if !subset {
			return
		}
		if an.dataMap.has(bit) {
			ae := an.entries[an.dataMap.index(bit)]
			switch {
			case bn.dataMap.has(bit):
				subset = ae.key == bn.entries[bn.dataMap.index(bit)].key
			case bn.nodeMap.has(bit):
				_, subset = bn.children[bn.nodeMap.index(bit)].get(ae.key, hashValue(hf, ae.key), shift+bitsPerLevel)
			default:
				subset = false
			}
			return
		}
		// a has a child here, holding at least two entries: b must have a
		// child too, or inclusion is impossible.
		if !bn.nodeMap.has(bit) {
			subset = false
			return
		}
		subset = subsetNodes(an.children[an.nodeMap.index(bit)], bn.children[bn.nodeMap.index(bit)], shift+bitsPerLevel, hf)
	})
	return subset
}

// disjointNodes reports whether a and b share no key.
func disjointNodes[K comparable, V, W any](a subnode[K, V], b subnode[K, W], shift uint, hf hashFn[K]) bool {
	if sameNode(a, b) {
		return false // nodes are never empty
	}
	an, bn, isTrie := alignedNodes(a, b)
	if !isTrie {
		ac, bc := a.(*collisionNode[K, V]), b.(*collisionNode[K, W])
		for _, ae := range ac.items {
			if _, ok := bc.get(ae.key, bc.hash, hashBits); ok {
				return false
			}
		}
		return true
	}
	disjoint := true
	eachBit((an.dataMap|an.nodeMap)&(bn.dataMap|bn.nodeMap), func(bit bitmap32) {
		if !disjoint {
			return
		}
		aData, bData := an.dataMap.has(bit), bn.dataMap.has(bit)
		switch {
		case aData && bData:
			disjoint = an.entries[an.dataMap.index(bit)].key != bn.entries[bn.dataMap.index(bit)].key
		case aData:
			ae := an.entries[an.dataMap.index(bit)]
			_, found := bn.children[bn.nodeMap.index(bit)].get(ae.key, hashValue(hf, ae.key), shift+bitsPerLevel)
			disjoint = !found
		case bData:
			be := bn.entries[bn.dataMap.index(bit)]
			_, found := an.children[an.nodeMap.index(bit)].get(be.key, hashValue(hf, be.key), shift+bitsPerLevel)
			disjoint = !found
		default:
			disjoint = disjointNodes(an.children[an.nodeMap.index(bit)], bn.children[bn.nodeMap.index(bit)], shift+bitsPerLevel, hf)
		}
	})
	return disjoint
}

// equalNodes reports whether a and b hold equal keys with values equal under
// eqv. Two canonical tries over one hash family holding the same keys have
// identical shape, so this is a lock-step walk.
func equalNodes[K comparable, V, W any](a subnode[K, V], b subnode[K, W], eqv func(V, W) bool) bool {
	if sameNode(a, b) {
		return true
	}
	if a.size() != b.size() {
		return false
	}
	an, aok := a.(*trieNode[K, V])
	bn, bok := b.(*trieNode[K, W])
	if aok != bok {
		return false
	}
	if !aok {
		ac, bc := a.(*collisionNode[K, V]), b.(*collisionNode[K, W])
		if ac.hash != bc.hash {
			return false
		}
		for _, ae := range ac.items { // collision items are unordered
			bv, ok := bc.get(ae.key, bc.hash, hashBits)
			if !ok || !eqv(ae.value, bv) {
				return false
			}
		}
		return true
	}
	if an.dataMap != bn.dataMap || an.nodeMap != bn.nodeMap {
		return false
	}
	for i, ae := range an.entries {
		if be := bn.entries[i]; ae.key != be.key || !eqv(ae.value, be.value) {
			return false
		}
	}
	for i, ac := range an.children {
		if !equalNodes(ac, bn.children[i], eqv) {
			return false
		}
	}
	return true
}
