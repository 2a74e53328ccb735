package nestedset_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hazelset/nestedset/nestedset"
)

func paths(t *testing.T, nodes []*nestedset.NodeRecord) []string {
	t.Helper()
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Path()
	}
	return out
}

// buildSimpleForest reproduces spec scenario 1: two roots A, B, with three
// children under A.
func buildSimpleForest(t *testing.T, ctx context.Context, e *nestedset.MutationEngine) (a, b *nestedset.NodeRecord) {
	t.Helper()

	a = newNode("A")
	ok, err := e.Save(ctx, a)
	require.NoError(t, err)
	require.True(t, ok)

	b = newNode("B")
	ok, err = e.Save(ctx, b)
	require.NoError(t, err)
	require.True(t, ok)

	for _, label := range []string{"c1", "c2", "c3"} {
		c := newNode(label)
		ok, err := e.SaveInto(ctx, c, a)
		require.NoError(t, err)
		require.True(t, ok)
	}

	return a, b
}

func TestChildrenOrdering(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	e := nestedset.NewMutationEngine(s)

	a, _ := buildSimpleForest(t, ctx, e)

	children, err := a.RelativeQuery().Children().All(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, []string{a.Path() + ".1", a.Path() + ".2", a.Path() + ".3"}, paths(t, children))
}

func TestRootsQuery(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	e := nestedset.NewMutationEngine(s)

	a, b := buildSimpleForest(t, ctx, e)

	roots, err := a.RelativeQuery().Roots().All(ctx, s)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{a.Path(), b.Path()}, paths(t, roots))
}

func TestSiblingsExcludesSelfByDefault(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	e := nestedset.NewMutationEngine(s)

	a, _ := buildSimpleForest(t, ctx, e)
	children, err := a.RelativeQuery().Children().All(ctx, s)
	require.NoError(t, err)
	require.Len(t, children, 3)

	middle := children[1]
	sibs, err := middle.RelativeQuery().Siblings().All(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, []string{children[0].Path(), children[2].Path()}, paths(t, sibs))
}

func TestSiblingsIncludeSelf(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	e := nestedset.NewMutationEngine(s)

	a, _ := buildSimpleForest(t, ctx, e)
	children, err := a.RelativeQuery().Children().All(ctx, s)
	require.NoError(t, err)

	middle := children[1]
	sibs, err := middle.RelativeQuery().Siblings().IncludeSelf().All(ctx, s)
	require.NoError(t, err)
	assert.ElementsMatch(t, paths(t, children), paths(t, sibs))
}

func TestSiblingsNextAndPrevious(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	e := nestedset.NewMutationEngine(s)

	a, _ := buildSimpleForest(t, ctx, e)
	children, err := a.RelativeQuery().Children().All(ctx, s)
	require.NoError(t, err)

	middle := children[1]

	next, err := middle.RelativeQuery().Siblings().Next().All(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, []string{children[2].Path()}, paths(t, next))

	prev, err := middle.RelativeQuery().Siblings().Previous().All(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, []string{children[0].Path()}, paths(t, prev))
}

func TestParentQuery(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	e := nestedset.NewMutationEngine(s)

	a, _ := buildSimpleForest(t, ctx, e)
	children, err := a.RelativeQuery().Children().All(ctx, s)
	require.NoError(t, err)

	parent, err := children[0].RelativeQuery().Parent().One(ctx, s)
	require.NoError(t, err)
	require.NotNil(t, parent)
	assert.Equal(t, a.Path(), parent.Path())

	rootParent, err := a.RelativeQuery().Parent().One(ctx, s)
	require.NoError(t, err)
	assert.Nil(t, rootParent, "a root has no parent")
}

func TestExcludingSelfAndDescendants(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	e := nestedset.NewMutationEngine(s)

	a, b := buildSimpleForest(t, ctx, e)

	excl, err := a.RelativeQuery().ExcludingSelf().ExcludingDescendants().All(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, []string{b.Path()}, paths(t, excl))
}

// TestQueryOrderIndependence exercises the order-independence invariant
// from spec scenario coverage: Children combined with IncludeSelf and
// Reverse must produce the same row set no matter which order the tokens
// are chained in, since prepare() is a pure function of the final flag
// bag, not of the sequence of calls that built it.
func TestQueryOrderIndependence(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	e := nestedset.NewMutationEngine(s)

	a, _ := buildSimpleForest(t, ctx, e)

	q1 := a.RelativeQuery().Children().IncludeSelf().Reverse()
	q2 := a.RelativeQuery().Reverse().IncludeSelf().Children()
	q3 := a.RelativeQuery().IncludeSelf().Reverse().Children()

	r1, err := q1.All(ctx, s)
	require.NoError(t, err)
	r2, err := q2.All(ctx, s)
	require.NoError(t, err)
	r3, err := q3.All(ctx, s)
	require.NoError(t, err)

	assert.Equal(t, paths(t, r1), paths(t, r2))
	assert.Equal(t, paths(t, r1), paths(t, r3))
}

func TestParentIncludeAncestorsQuery(t *testing.T) {
	s := newTestStore(t)
	e := nestedset.NewMutationEngine(s)
	ctx := context.Background()

	a := newNode("A")
	ok, err := e.Save(ctx, a)
	require.NoError(t, err)
	require.True(t, ok)

	c := newNode("child")
	ok, err = e.SaveInto(ctx, c, a)
	require.NoError(t, err)
	require.True(t, ok)

	gc := newNode("grandchild")
	ok, err = e.SaveInto(ctx, gc, c)
	require.NoError(t, err)
	require.True(t, ok)

	ancestors, err := gc.RelativeQuery().Parent().IncludeAncestors().All(ctx, s)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{a.Path(), c.Path()}, paths(t, ancestors))
}
