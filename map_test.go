package champ

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmptyMap(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "champ")
	defer teardown()
	//
	var m Map[string, int]
	if !m.IsEmpty() || m.Len() != 0 {
		t.Error("expected zero-value map to be empty, isn't")
	}
	if _, ok := m.Get("x"); ok {
		t.Error("expected lookup in empty map to fail")
	}
}

func TestMapWithGetRemove(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "champ")
	defer teardown()
	//
	m := Map[string, int]{}.With("one", 1).With("two", 2).With("three", 3)
	if m.Len() != 3 {
		t.Fatalf("expected 3 pairs, count is %d", m.Len())
	}
	if v, ok := m.Get("two"); !ok || v != 2 {
		t.Errorf("expected to find two→2, got %d/%v", v, ok)
	}
	if err := m.checkInvariants(); err != nil {
		t.Fatalf("invariant violated: %v", err)
	}
	//
	m2 := m.With("two", 22) // replace
	if v, _ := m2.Get("two"); v != 22 {
		t.Errorf("expected replacement value 22, got %d", v)
	}
	if v, _ := m.Get("two"); v != 2 {
		t.Error("expected the original map to keep two→2")
	}
	if m2.Len() != 3 {
		t.Errorf("expected replacement to keep count 3, is %d", m2.Len())
	}
	//
	m3, old, ok := m.Remove("one")
	if !ok || old != 1 {
		t.Errorf("expected removal to yield old value 1, got %d/%v", old, ok)
	}
	if m3.Len() != 2 || m3.Contains("one") {
		t.Error("expected one to be gone from the derived map")
	}
	if !m.Contains("one") {
		t.Error("expected the original map to be unaffected")
	}
}

func TestMapInsertReportsPrevious(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "champ")
	defer teardown()
	//
	m := MapOf(Pair[string, int]{"a", 1})
	m2, prev, existed := m.Insert("a", 2)
	assert.True(t, existed)
	assert.Equal(t, 1, prev)
	v, _ := m2.Get("a")
	assert.Equal(t, 2, v)
	//
	_, _, existed = m.Insert("b", 9)
	assert.False(t, existed)
}

func TestUpdateValue(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "champ")
	defer teardown()
	//
	counter := func(held int, ok bool) int {
		if !ok {
			return 1
		}
		return held + 1
	}
	var m Map[string, int]
	for _, w := range strings.Fields("the quick brown fox jumps over the lazy dog the end") {
		m = m.UpdateValue(w, counter)
	}
	if v, _ := m.Get("the"); v != 3 {
		t.Errorf("expected the→3, got %d", v)
	}
	if v, _ := m.Get("fox"); v != 1 {
		t.Errorf("expected fox→1, got %d", v)
	}
	if m.Len() != 9 {
		t.Errorf("expected 9 distinct words, got %d", m.Len())
	}
}

func TestMapFromCombiner(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "champ")
	defer teardown()
	//
	pairs := []Pair[string, int]{{"a", 1}, {"b", 2}, {"a", 10}, {"a", 100}}
	sum := MapFrom(pairs, func(held, incoming int) int { return held + incoming })
	if v, _ := sum.Get("a"); v != 111 {
		t.Errorf("expected combined value 111 for a, got %d", v)
	}
	// nil combiner: last write wins
	last := MapFrom(pairs, nil)
	if v, _ := last.Get("a"); v != 100 {
		t.Errorf("expected last value 100 for a, got %d", v)
	}
}

func TestGroupBy(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "champ")
	defer teardown()
	//
	words := strings.Fields("ant bee cow ape bat cat auk")
	byInitial := GroupBy(words, func(w string) byte { return w[0] })
	if byInitial.Len() != 3 {
		t.Fatalf("expected 3 groups, got %d", byInitial.Len())
	}
	group, ok := byInitial.Get('a')
	if !ok || len(group) != 3 {
		t.Errorf("expected 3 words under 'a', got %v", group)
	}
}

func TestMerge(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "champ")
	defer teardown()
	//
	var a, b Map[int, string]
	for i := 0; i < 300; i++ {
		a = a.With(i, "a")
	}
	for i := 200; i < 500; i++ {
		b = b.With(i, "b")
	}
	// nil combiner keeps the receiver's value on shared keys
	left := a.Merge(b, nil)
	require.NoError(t, left.checkInvariants())
	assert.Equal(t, 500, left.Len())
	v, _ := left.Get(250)
	assert.Equal(t, "a", v, "receiver's value must win on shared keys")
	v, _ = left.Get(400)
	assert.Equal(t, "b", v)
	//
	both := a.Merge(b, func(own, other string) string { return own + other })
	v, _ = both.Get(250)
	assert.Equal(t, "ab", v)
	//
	// merging a map with a derivative of itself costs only the difference
	c := a.With(9999, "x")
	merged := c.Merge(a, nil)
	assert.True(t, merged.root == c.root, "merge with a structural subset must share the root")
}

func TestKeysView(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "champ")
	defer teardown()
	//
	m := MapOf(Pair[int, string]{1, "one"}, Pair[int, string]{2, "two"}, Pair[int, string]{3, "three"})
	keys := m.Keys()
	assert.Equal(t, 3, keys.Len())
	assert.True(t, keys.Contains(2))
	assert.False(t, keys.Contains(9))
	assert.True(t, keys.ToSet().Equal(SetOf(1, 2, 3)))
	//
	s := SetOf(2, 3, 4)
	inter := IntersectingKeys(s, m)
	assert.True(t, inter.Equal(SetOf(2, 3)))
	diff := SubtractingKeys(s, m)
	assert.True(t, diff.Equal(SetOf(4)))
	assert.True(t, SubsetOfKeys(SetOf(1, 3), m))
	assert.False(t, SubsetOfKeys(s, m))
	assert.True(t, DisjointFromKeys(SetOf(7, 8), m))
	assert.False(t, DisjointFromKeys(s, m))
	//
	// sequence overloads work against the view as well
	union := s.UnionSeq(keys.All())
	assert.True(t, union.Equal(SetOf(1, 2, 3, 4)))
}

func TestMapIntersectSubtractKeys(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "champ")
	defer teardown()
	//
	var m Map[int, int]
	for i := 0; i < 100; i++ {
		m = m.With(i, i*i)
	}
	evens := Set[int]{}
	for i := 0; i < 100; i += 2 {
		evens, _ = evens.Insert(i)
	}
	kept := m.IntersectKeys(evens)
	require.NoError(t, kept.checkInvariants())
	assert.Equal(t, 50, kept.Len())
	v, ok := kept.Get(4)
	assert.True(t, ok)
	assert.Equal(t, 16, v)
	assert.False(t, kept.Contains(3))
	//
	dropped := m.SubtractKeys(evens)
	require.NoError(t, dropped.checkInvariants())
	assert.Equal(t, 50, dropped.Len())
	assert.True(t, dropped.Contains(3))
	assert.False(t, dropped.Contains(4))
}

func TestMapEqual(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "champ")
	defer teardown()
	//
	eq := func(a, b int) bool { return a == b }
	var a, b Map[string, int]
	for i, w := range strings.Fields("alpha beta gamma delta") {
		a = a.With(w, i)
		b = b.With(w, i)
	}
	assert.True(t, a.Equal(b, eq))
	b = b.With("beta", 99)
	assert.False(t, a.Equal(b, eq))
	b, _, _ = b.Remove("beta")
	assert.False(t, a.Equal(b, eq), "missing key must break equality")
}

func TestMapJSONRoundTrip(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "champ")
	defer teardown()
	//
	m := MapOf(Pair[string, int]{"x", 1}, Pair[string, int]{"y", 2})
	data, err := json.Marshal(m)
	require.NoError(t, err)
	var decoded Map[string, int]
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, m.Equal(decoded, func(a, b int) bool { return a == b }))
}
