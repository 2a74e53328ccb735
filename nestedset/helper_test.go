package nestedset_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hazelset/nestedset/nestedset"
	"github.com/hazelset/nestedset/store"
)

const testSchema = `
CREATE TABLE tree_nodes (
	id    INTEGER PRIMARY KEY AUTOINCREMENT,
	label TEXT NOT NULL,
	path  TEXT NOT NULL,
	left  REAL NOT NULL,
	right REAL NOT NULL,
	level INTEGER NOT NULL
);
CREATE UNIQUE INDEX idx_tree_nodes_path ON tree_nodes (path);
CREATE INDEX idx_tree_nodes_left ON tree_nodes (left);
CREATE INDEX idx_tree_nodes_right ON tree_nodes (right);
CREATE INDEX idx_tree_nodes_level ON tree_nodes (level);
`

// newTestStore opens a fresh in-memory sqlite3 database with the tree_nodes
// schema installed directly (the golang-migrate files under
// store/migrations/ are exercised by cmd/nestedset-migrate, not here).
func newTestStore(t *testing.T) *store.Store {
	t.Helper()

	s, err := store.Connect(store.Config{Driver: "sqlite3", DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	_, err = s.DB().Exec(testSchema)
	require.NoError(t, err)

	return s
}

// newNode returns an unsaved NodeRecord over tree_nodes with a label
// payload column, ready to be passed to a MutationEngine.
func newNode(label string) *nestedset.NodeRecord {
	n := nestedset.New("tree_nodes", "id")
	_ = n.Set("label", label)
	return n
}

type rawNode struct {
	Path  string  `db:"path"`
	Left  float64 `db:"left"`
	Right float64 `db:"right"`
	Level int     `db:"level"`
}

// loadByLabel reads a row's current tree-column state directly, bypassing
// NodeRecord, for asserting against rows this test didn't mutate in place.
func loadByLabel(t *testing.T, s *store.Store, label string) rawNode {
	t.Helper()
	var n rawNode
	err := s.DB().Get(&n, "SELECT path, left, right, level FROM tree_nodes WHERE label = ?", label)
	require.NoError(t, err)
	return n
}

// countRows returns the total number of rows in tree_nodes, across every
// tree in the table.
func countRows(t *testing.T, s *store.Store) int64 {
	t.Helper()
	var n int64
	require.NoError(t, s.DB().Get(&n, "SELECT COUNT(*) FROM tree_nodes"))
	return n
}
