package completion

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stdDict() *Dictionary {
	d := NewDictionary(1)
	for _, name := range []string{"stdout", "stderr", "stdin", "status", "store"} {
		d.Insert(name, Meta{Kind: "variable"})
	}
	return d
}

func names(cs []Candidate) []string {
	out := make([]string, 0, len(cs))
	for _, c := range cs {
		out = append(out, c.Name)
	}
	return out
}

func TestEmptyPrefixReturnsAllByLengthThenName(t *testing.T) {
	d := stdDict()
	got := names(d.Query(""))
	assert.Equal(t, []string{"stdin", "store", "status", "stderr", "stdout"}, got)
}

func TestShortPrefixExactOnly(t *testing.T) {
	d := stdDict()
	got := names(d.Query("st"))
	assert.ElementsMatch(t, []string{"stdout", "stderr", "stdin", "status", "store"}, got)

	got = names(d.Query("sx"))
	assert.Empty(t, got)
}

func TestLongerPrefixAddsFuzzy(t *testing.T) {
	d := stdDict()
	// "stdo" prefixes stdout; nothing else is within distance 1.
	got := names(d.Query("stdo"))
	assert.Equal(t, []string{"stdout"}, got)
}

func TestFuzzyWithinDistanceOne(t *testing.T) {
	d := NewDictionary(1)
	d.Insert("proceed", Meta{})
	d.Insert("process", Meta{})
	d.Insert("prose", Meta{})

	got := names(d.Query("prcess"))
	assert.Equal(t, []string{"process"}, got, "one deletion away")
}

func TestTranspositionCountsAsOneEdit(t *testing.T) {
	d := NewDictionary(1)
	d.Insert("store", Meta{})

	got := names(d.Query("tsore"))
	require.Len(t, got, 1)
	assert.Equal(t, "store", got[0])
}

func TestRankingOrder(t *testing.T) {
	d := NewDictionary(1)
	d.Insert("proces", Meta{ReferenceCount: 1})
	d.Insert("proceX", Meta{ReferenceCount: 9})
	d.Insert("proce", Meta{ReferenceCount: 0})

	got := d.Query("proce")
	require.Len(t, got, 3)
	// All three are distance-0 prefix matches; reference count breaks
	// the tie, then length.
	assert.Equal(t, 0, got[0].Distance)
	assert.Equal(t, "proceX", got[0].Name, "most referenced wins the tie")
	assert.Equal(t, "proces", got[1].Name)
	assert.Equal(t, "proce", got[2].Name)
}

func TestRemoveSoftDeletesAndCompacts(t *testing.T) {
	d := NewDictionary(1)
	for i := 0; i < 10; i++ {
		d.Insert(fmt.Sprintf("name%02d", i), Meta{})
	}
	require.Equal(t, 10, d.Len())

	for i := 0; i < 5; i++ {
		d.Remove(fmt.Sprintf("name%02d", i))
	}
	assert.Equal(t, 5, d.Len())
	assert.Len(t, d.names, 5, "compaction fired at 50% bloat")

	_, ok := d.Lookup("name00")
	assert.False(t, ok)
	_, ok = d.Lookup("name07")
	assert.True(t, ok)
}

func TestInsertUpdatesMeta(t *testing.T) {
	d := NewDictionary(1)
	d.Insert("x", Meta{ReferenceCount: 1})
	d.Insert("x", Meta{ReferenceCount: 5})
	m, ok := d.Lookup("x")
	require.True(t, ok)
	assert.Equal(t, 5, m.ReferenceCount)
	assert.Equal(t, 1, d.Len())
}

func TestLargeDictionaryTopResultHasSmallestDistance(t *testing.T) {
	d := NewDictionary(1)
	for i := 0; i < 5000; i++ {
		d.Insert(fmt.Sprintf("symbol%04d", i), Meta{})
	}
	d.Insert("procedure", Meta{ReferenceCount: 3})
	d.Insert("proceed", Meta{ReferenceCount: 7})
	d.Insert("proces", Meta{ReferenceCount: 2})

	got := d.Query("proce")
	require.NotEmpty(t, got)
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i].Distance, got[0].Distance)
	}
	// Prefix matches rank first; the most-referenced wins the tie.
	assert.Equal(t, "proceed", got[0].Name)
}
