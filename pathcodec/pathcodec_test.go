package pathcodec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hazelset/nestedset/matrix"
)

func TestFromPathConformance(t *testing.T) {
	cases := []struct {
		path string
		want matrix.Matrix
	}{
		{"1", matrix.New(1, 2, 1, 1)},
		{"2", matrix.New(2, 3, 1, 1)},
		{"2.4.3", matrix.New(65, 82, 23, 29)},
	}
	for _, c := range cases {
		got, err := FromPath(c.path)
		require.NoError(t, err)
		assert.Equal(t, c.want, got, "FromPath(%q)", c.path)
		assert.Equal(t, int64(-1), got.Determinant(), "FromPath(%q) must have det -1", c.path)
	}
}

func TestFromPathRejectsZeroSegment(t *testing.T) {
	_, err := FromPath("2.0.3")
	assert.ErrorIs(t, err, ErrInvalidPath)
}

func TestFromPathRejectsEmpty(t *testing.T) {
	_, err := FromPath("")
	assert.ErrorIs(t, err, ErrInvalidPath)
}

func TestBoundariesAndLevel(t *testing.T) {
	m, err := FromPath("2.4.3")
	require.NoError(t, err)

	assert.Equal(t, 65.0/23.0, Left(m))
	assert.Equal(t, 82.0/29.0, Right(m))
	assert.Equal(t, 3, LevelOfMatrix(m))

	level, err := LevelOfPath("2.4.3")
	require.NoError(t, err)
	assert.Equal(t, 3, level)
}

func TestPathRoundTrip(t *testing.T) {
	paths := []string{"1", "2", "1.1", "2.4.3", "5.1.9.2", "3.3.3.3.3"}
	for _, p := range paths {
		m, err := FromPath(p)
		require.NoError(t, err)

		roundTripped, err := ToPath(m)
		require.NoError(t, err)
		assert.Equal(t, p, roundTripped)
	}
}

func TestMultiplicationChainLaw(t *testing.T) {
	segments := []int64{2, 4, 3}
	m := RootMatrix()
	for _, s := range segments {
		sm, err := SegmentMatrix(s)
		require.NoError(t, err)
		m = m.Multiply(sm)
	}

	fromPath, err := FromPath("2.4.3")
	require.NoError(t, err)
	assert.Equal(t, fromPath, m)
}

func TestParentDegeneratesForRoots(t *testing.T) {
	for _, p := range []string{"1", "2", "7"} {
		m, err := FromPath(p)
		require.NoError(t, err)

		_, ok := Parent(m)
		assert.False(t, ok, "root path %q must have no parent", p)
	}
}

func TestParentChain(t *testing.T) {
	m, err := FromPath("2.4.3")
	require.NoError(t, err)

	parent, ok := Parent(m)
	require.True(t, ok)
	assert.Equal(t, matrix.New(14, 17, 5, 6), parent)

	grandparent, ok := Parent(parent)
	require.True(t, ok)
	assert.Equal(t, matrix.New(2, 3, 1, 1), grandparent)

	_, ok = Parent(grandparent)
	assert.False(t, ok)
}

func TestAncestorPathsAreStrictPrefixes(t *testing.T) {
	ancestors, err := AncestorPaths("2.4.3")
	require.NoError(t, err)
	assert.Equal(t, []string{"2", "2.4"}, ancestors)
}

func TestIsAncestorOf(t *testing.T) {
	assert.True(t, IsAncestorOf("2", "2.4.3"))
	assert.True(t, IsAncestorOf("2.4", "2.4.3"))
	assert.False(t, IsAncestorOf("2.4.3", "2.4.3"))
	assert.False(t, IsAncestorOf("2.5", "2.4.3"))
	assert.False(t, IsAncestorOf("2.4.3", "2.4"))
}

func TestBasePath(t *testing.T) {
	base, err := BasePath("2.4.3")
	require.NoError(t, err)
	assert.Equal(t, "2.4", base)

	base, err = BasePath("7")
	require.NoError(t, err)
	assert.Equal(t, "", base)
}

func TestAncestorMatricesWithoutDB(t *testing.T) {
	m, err := FromPath("2.4.3")
	require.NoError(t, err)

	ancestors, err := AncestorMatrices(m.A, m.C)
	require.NoError(t, err)
	require.Len(t, ancestors, 2)

	level1, err := FromPath("2")
	require.NoError(t, err)
	level2, err := FromPath("2.4")
	require.NoError(t, err)
	assert.Equal(t, level1, ancestors[0])
	assert.Equal(t, level2, ancestors[1])
}

func TestAncestorMatricesWithRepeatedSegmentOne(t *testing.T) {
	// "1.1" exercises the even-length continued-fraction split path: the
	// natural Euclidean expansion of 3/2 is [1,2], which must be rewritten
	// as [1,1,1] to recover the two segments [1,1].
	m, err := FromPath("1.1")
	require.NoError(t, err)

	ancestors, err := AncestorMatrices(m.A, m.C)
	require.NoError(t, err)
	require.Len(t, ancestors, 1)

	level1, err := FromPath("1")
	require.NoError(t, err)
	assert.Equal(t, level1, ancestors[0])
}

func TestAncestorMatricesDeepChain(t *testing.T) {
	path := "1.2.3.4.5.6.7.8.9.10"
	m, err := FromPath(path)
	require.NoError(t, err)

	ancestors, err := AncestorMatrices(m.A, m.C)
	require.NoError(t, err)
	require.Len(t, ancestors, 9)

	wantPaths, err := AncestorPaths(path)
	require.NoError(t, err)
	for i, want := range wantPaths {
		wm, err := FromPath(want)
		require.NoError(t, err)
		assert.Equal(t, wm, ancestors[i])
	}
}

func TestMoveMatrixBuilderPreservesDeterminant(t *testing.T) {
	var b MoveMatrixBuilder

	fromParent, err := FromPath("2")
	require.NoError(t, err)
	toParent, err := FromPath("3")
	require.NoError(t, err)

	node, err := FromPath("2.4")
	require.NoError(t, err)

	T, err := b.Build(fromParent, toParent, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), T.Determinant())

	moved := T.Multiply(node)
	assert.Equal(t, int64(-1), moved.Determinant())
}

func TestMoveMatrixBuilderFromRoot(t *testing.T) {
	var b MoveMatrixBuilder

	toParent, err := FromPath("5")
	require.NoError(t, err)
	node, err := FromPath("2")
	require.NoError(t, err)

	// Moving root "2" to become the last child of "5": fromParent is
	// RootMatrix() because "2" has no parent of its own. k is the new
	// last segment (1, first child of "5") minus the old one (2).
	T, err := b.Build(RootMatrix(), toParent, 1-2)
	require.NoError(t, err)

	moved := T.Multiply(node)
	want, err := FromPath("5.1")
	require.NoError(t, err)
	assert.Equal(t, want, moved)
}
