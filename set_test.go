package champ

import (
	"encoding/json"
	"slices"
	"sort"
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
)

func TestEmptySet(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "champ")
	defer teardown()
	//
	var s Set[string]
	if !s.IsEmpty() || s.Len() != 0 {
		t.Error("expected zero-value set to be empty, isn't")
	}
	if s.Contains("x") {
		t.Error("expected empty set not to contain anything")
	}
	if _, _, ok := s.Remove("x"); ok {
		t.Error("expected removal from empty set to be a no-op")
	}
}

func TestSequentialInserts(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "champ")
	defer teardown()
	//
	var s Set[int]
	for i := 0; i < 40; i++ {
		var inserted bool
		if s, inserted = s.Insert(i); !inserted {
			t.Fatalf("expected %d to be newly inserted, wasn't", i)
		}
		if s.Len() != i+1 {
			t.Fatalf("expected count %d after %d inserts, got %d", i+1, i+1, s.Len())
		}
		for j := 0; j <= i; j++ {
			if !s.Contains(j) {
				t.Fatalf("expected %d to still be present after inserting %d", j, i)
			}
		}
		if err := s.checkInvariants(); err != nil {
			t.Fatalf("invariant violated after inserting %d: %v", i, err)
		}
	}
}

func TestScenarioAlgebra(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "champ")
	defer teardown()
	//
	a := SetOf(1, 2, 3, 4)
	b := SetOf(0, 2, 4, 6)
	//
	union := a.Union(b)
	if union.Len() != 6 || !union.EqualSeq(slices.Values([]int{0, 1, 2, 3, 4, 6})) {
		t.Errorf("expected union {0,1,2,3,4,6}, got %v", union)
	}
	inter := a.Intersection(b)
	if inter.Len() != 2 || !inter.Contains(2) || !inter.Contains(4) {
		t.Errorf("expected intersection {2,4}, got %v", inter)
	}
	symm := a.SymmetricDifference(b)
	if !symm.EqualSeq(slices.Values([]int{0, 1, 3, 6})) {
		t.Errorf("expected symmetric difference {0,1,3,6}, got %v", symm)
	}
	if a.DisjointFrom(b) {
		t.Error("expected a and b not to be disjoint")
	}
	for _, s := range []Set[int]{union, inter, symm} {
		if err := s.checkInvariants(); err != nil {
			t.Errorf("invariant violated on algebra result %v: %v", s, err)
		}
	}
}

func TestCopyMutateIndependence(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "champ")
	defer teardown()
	//
	var a Set[int]
	for i := 0; i < 10_000; i++ {
		a, _ = a.Insert(i)
	}
	b := a // O(1) copy
	b, removed, ok := b.Remove(4711)
	if !ok || removed != 4711 {
		t.Fatal("expected to remove 4711 from the copy, didn't")
	}
	if !a.Contains(4711) {
		t.Error("expected the original to be unaffected by removal from the copy")
	}
	if a.Len() != 10_000 || b.Len() != 9_999 {
		t.Errorf("unexpected counts: a=%d, b=%d", a.Len(), b.Len())
	}
	// b must share all nodes with a except the ones on the removal path,
	// which is about log32(10000) ≈ 3 nodes deep
	fresh := len(collectNodes(b.root, collectNodes(a.root, nil)))
	if fresh > 5 {
		t.Errorf("expected at most ~4 fresh nodes on the removal path, counted %d", fresh)
	}
	if err := b.checkInvariants(); err != nil {
		t.Errorf("invariant violated in the mutated copy: %v", err)
	}
}

// collectNodes walks the subtree and records nodes not already in seen.
func collectNodes[K comparable, V any](n subnode[K, V], seen map[any]bool) map[any]bool {
	if seen == nil {
		seen = make(map[any]bool)
	}
	fresh := make(map[any]bool)
	if n == nil {
		return fresh
	}
	var walk func(n subnode[K, V])
	walk = func(n subnode[K, V]) {
		if seen[n] || fresh[n] {
			return
		}
		fresh[n] = true
		for _, c := range n.subnodes() {
			walk(c)
		}
	}
	walk(n)
	return fresh
}

func TestUpdateReplaces(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "champ")
	defer teardown()
	//
	s := SetOf("a", "b")
	s2, prev, existed := s.Update("b")
	if !existed || prev != "b" {
		t.Errorf("expected update to report previous element b, got %q/%v", prev, existed)
	}
	if s2.Len() != 2 {
		t.Errorf("expected count to stay 2, is %d", s2.Len())
	}
	s3, _, existed := s2.Update("c")
	if existed || s3.Len() != 3 {
		t.Error("expected update of fresh element to insert")
	}
}

func TestSeqOverloads(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "champ")
	defer teardown()
	//
	s := SetOf(1, 2, 3)
	sum := s.UnionSeq(slices.Values([]int{3, 4, 4, 5}))
	if !sum.EqualSeq(slices.Values([]int{1, 2, 3, 4, 5})) {
		t.Errorf("expected union with sequence to be {1..5}, got %v", sum)
	}
	inter := s.IntersectionSeq(slices.Values([]int{2, 2, 3, 9}))
	if !inter.EqualSeq(slices.Values([]int{2, 3})) {
		t.Errorf("expected intersection with sequence to be {2,3}, got %v", inter)
	}
	diff := s.DifferenceSeq(slices.Values([]int{1, 1, 9}))
	if !diff.EqualSeq(slices.Values([]int{2, 3})) {
		t.Errorf("expected difference with sequence to be {2,3}, got %v", diff)
	}
	symm := s.SymmetricDifferenceSeq(slices.Values([]int{3, 3, 4}))
	if !symm.EqualSeq(slices.Values([]int{1, 2, 4})) {
		t.Errorf("expected symmetric difference with sequence to be {1,2,4}, got %v", symm)
	}
	if !s.SupersetOfSeq(slices.Values([]int{1, 3, 3})) {
		t.Error("expected s to be a superset of (1,3,3)")
	}
	if !s.SubsetOfSeq(slices.Values([]int{5, 3, 2, 1, 1})) {
		t.Error("expected s to be a subset of (5,3,2,1,1)")
	}
	if !s.DisjointFromSeq(slices.Values([]int{7, 8})) {
		t.Error("expected s to be disjoint from (7,8)")
	}
}

func TestSetJSONRoundTrip(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "champ")
	defer teardown()
	//
	s := SetOf(5, 3, 11, 7)
	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshalling failed: %v", err)
	}
	var decoded Set[int]
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshalling failed: %v", err)
	}
	if !decoded.Equal(s) {
		t.Errorf("expected round-tripped set to equal %v, got %v", s, decoded)
	}
	// re-encoding yields the same element list, independent of trie shape
	var a, b []int
	_ = json.Unmarshal(data, &a)
	data2, _ := json.Marshal(decoded)
	_ = json.Unmarshal(data2, &b)
	sort.Ints(a)
	sort.Ints(b)
	if !slices.Equal(a, b) {
		t.Errorf("expected element lists to match as multisets: %v vs %v", a, b)
	}
}
