package nestedset_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hazelset/nestedset/nestedset"
)

func TestNewRecordDefaults(t *testing.T) {
	n := nestedset.New("tree_nodes", "id")
	assert.Equal(t, "tree_nodes", n.Table())
	assert.Equal(t, "id", n.PKColumn())
	assert.Equal(t, "path", n.PathColumn())
	assert.Equal(t, "left", n.LeftColumn())
	assert.Equal(t, "right", n.RightColumn())
	assert.Equal(t, "level", n.LevelColumn())
	assert.True(t, n.IsNew())
}

func TestWithColumnNames(t *testing.T) {
	n := nestedset.New("categories", "category_id").
		WithColumnNames("tree_path", "lft", "rgt", "depth")
	assert.Equal(t, "tree_path", n.PathColumn())
	assert.Equal(t, "lft", n.LeftColumn())
	assert.Equal(t, "rgt", n.RightColumn())
	assert.Equal(t, "depth", n.LevelColumn())
}

func TestSetPathIsGuardedByDefault(t *testing.T) {
	n := nestedset.New("tree_nodes", "id")
	err := n.SetPath("2.4.3")
	assert.ErrorIs(t, err, nestedset.ErrReadOnlyTreeField)
	assert.Equal(t, "", n.Path())
}

func TestSetPathDerivesBoundariesAndLevel(t *testing.T) {
	n := nestedset.New("tree_nodes", "id")
	n.ProtectReadonly(false)

	require.NoError(t, n.SetPath("2.4.3"))
	assert.Equal(t, 65.0/23.0, n.Left())
	assert.Equal(t, 82.0/29.0, n.Right())
	assert.Equal(t, 3, n.Level())
	assert.False(t, n.IsRoot())
}

func TestSetRejectsTreeColumnsAndPK(t *testing.T) {
	n := nestedset.New("tree_nodes", "id")
	for _, col := range []string{"id", "path", "left", "right", "level"} {
		err := n.Set(col, "anything")
		assert.ErrorIsf(t, err, nestedset.ErrReadOnlyTreeField, "Set(%q)", col)
	}
}

func TestSetAndGetPayload(t *testing.T) {
	n := nestedset.New("tree_nodes", "id")
	require.NoError(t, n.Set("label", "root"))

	v, ok := n.Get("label")
	require.True(t, ok)
	assert.Equal(t, "root", v)

	_, ok = n.Get("missing")
	assert.False(t, ok)
}

func TestPayloadReturnsACopy(t *testing.T) {
	n := nestedset.New("tree_nodes", "id")
	require.NoError(t, n.Set("label", "root"))

	p := n.Payload()
	p["label"] = "mutated"

	v, _ := n.Get("label")
	assert.Equal(t, "root", v, "mutating the returned map must not affect the record")
}

func TestCanMove(t *testing.T) {
	n := nestedset.New("tree_nodes", "id")
	n.ProtectReadonly(false)
	require.NoError(t, n.SetPath("2.4"))

	assert.False(t, n.CanMove("2.4"), "moving onto its own path is a no-op, not a move")
	assert.False(t, n.CanMove("2.4.1"), "moving into its own subtree is illegal")
	assert.True(t, n.CanMove("3"))
	assert.True(t, n.CanMove("2.5"))
}

func TestIsRoot(t *testing.T) {
	n := nestedset.New("tree_nodes", "id")
	n.ProtectReadonly(false)

	require.NoError(t, n.SetPath("7"))
	assert.True(t, n.IsRoot())

	require.NoError(t, n.SetPath("7.1"))
	assert.False(t, n.IsRoot())
}
