package links

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct{ id, name string }

func (i item) Identifier() string { return i.id }

func TestToggle_AddsAndRemoves(t *testing.T) {
	assert.Equal(t, []string{"t1", "t2"}, Toggle([]string{"t1"}, "t2"))
	assert.Equal(t, []string{"t2"}, Toggle([]string{"t1", "t2"}, "t1"))
	assert.Equal(t, []string{"a"}, Toggle(nil, "a"))
}

func TestToggle_IsOwnInverse(t *testing.T) {
	sets := [][]string{
		{},
		{"a"},
		{"a", "b", "c"},
		{"c", "a"},
	}
	for _, s := range sets {
		for _, id := range []string{"a", "b", "z"} {
			got := Toggle(Toggle(s, id), id)
			if len(s) == 0 {
				assert.Empty(t, got, "set %v id %q", s, id)
				continue
			}
			assert.ElementsMatch(t, s, got, "set %v id %q", s, id)
		}
	}
}

func TestToggle_PreservesOrderWhenRemoving(t *testing.T) {
	assert.Equal(t, []string{"a", "c", "d"}, Toggle([]string{"a", "b", "c", "d"}, "b"))
	assert.Equal(t, []string{"b", "c", "a"}, Toggle(Toggle([]string{"a", "b", "c"}, "a"), "a"))
}

func TestToggle_NeverDuplicates(t *testing.T) {
	s := []string{}
	for i := 0; i < 5; i++ {
		s = Toggle(s, "x")
		n := 0
		for _, v := range s {
			if v == "x" {
				n++
			}
		}
		require.LessOrEqual(t, n, 1)
	}
}

func TestToggle_DoesNotMutateInput(t *testing.T) {
	in := []string{"a", "b"}
	_ = Toggle(in, "a")
	_ = Toggle(in, "c")
	assert.Equal(t, []string{"a", "b"}, in)
}

func TestToggle_EmptyID(t *testing.T) {
	in := []string{"a"}
	out := Toggle(in, "")
	assert.Equal(t, in, out)
	out[0] = "changed"
	assert.Equal(t, "a", in[0])
}

func TestAdd(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, Add([]string{"a"}, "b"))
	assert.Equal(t, []string{"a"}, Add([]string{"a"}, "a"))
	assert.Equal(t, []string{"a"}, Add([]string{"a"}, ""))
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, []string{"b", "a"}, Normalize([]string{"b", "", "a", "b", "a"}))
	assert.Empty(t, Normalize(nil))

	in := []string{"x", "x"}
	Normalize(in)
	assert.Equal(t, []string{"x", "x"}, in)
}

func TestResolve_FollowsCollectionOrder(t *testing.T) {
	all := []item{{"1", "alpha"}, {"2", "beta"}, {"3", "gamma"}}
	got := Resolve(all, []string{"3", "1"})
	require.Len(t, got, 2)
	assert.Equal(t, "1", got[0].id)
	assert.Equal(t, "3", got[1].id)
}

func TestResolve_SkipsDangling(t *testing.T) {
	all := []item{{"1", "alpha"}}
	got := Resolve(all, []string{"gone", "1", "also-gone"})
	require.Len(t, got, 1)
	assert.Equal(t, "1", got[0].id)

	assert.Empty(t, Resolve(all, []string{"gone"}))
	assert.Empty(t, Resolve([]item(nil), []string{"1"}))
	assert.NotNil(t, Resolve(all, nil))
}

func TestDangling(t *testing.T) {
	all := []item{{"1", "alpha"}, {"2", "beta"}}
	assert.Equal(t, []string{"9"}, Dangling(all, []string{"1", "9", "2"}))
	assert.Empty(t, Dangling(all, []string{"1"}))
}
