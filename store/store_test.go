package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hazelset/nestedset/store"
)

const schema = `
CREATE TABLE tree_nodes (
	id    INTEGER PRIMARY KEY AUTOINCREMENT,
	label TEXT NOT NULL,
	path  TEXT NOT NULL,
	left  REAL NOT NULL,
	right REAL NOT NULL,
	level INTEGER NOT NULL
);
`

func newStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Connect(store.Config{Driver: "sqlite3", DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	_, err = s.DB().Exec(schema)
	require.NoError(t, err)
	return s
}

func TestConnectRejectsUnsupportedDriver(t *testing.T) {
	_, err := store.Connect(store.Config{Driver: "postgres", DSN: "whatever"})
	assert.Error(t, err)
}

func TestSelectInsertRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	_, err := s.Insert("tree_nodes").
		Columns("label", "path", "left", "right", "level").
		Values("root", "1", 1.0, 2.0, 1).
		ExecContext(ctx)
	require.NoError(t, err)

	var label string
	row := s.Select("label").From("tree_nodes").Where("path = ?", "1").QueryRowContext(ctx)
	require.NoError(t, row.Scan(&label))
	assert.Equal(t, "root", label)
}

func TestTxnCommit(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	txn, err := s.BeginTxn(ctx)
	require.NoError(t, err)

	_, err = txn.Insert("tree_nodes").
		Columns("label", "path", "left", "right", "level").
		Values("root", "1", 1.0, 2.0, 1).
		ExecContext(ctx)
	require.NoError(t, err)

	require.NoError(t, txn.Commit())

	var count int
	require.NoError(t, s.DB().Get(&count, "SELECT COUNT(*) FROM tree_nodes"))
	assert.Equal(t, 1, count)
}

func TestTxnRollback(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	txn, err := s.BeginTxn(ctx)
	require.NoError(t, err)

	_, err = txn.Insert("tree_nodes").
		Columns("label", "path", "left", "right", "level").
		Values("root", "1", 1.0, 2.0, 1).
		ExecContext(ctx)
	require.NoError(t, err)

	require.NoError(t, txn.Rollback())

	var count int
	require.NoError(t, s.DB().Get(&count, "SELECT COUNT(*) FROM tree_nodes"))
	assert.Equal(t, 0, count)
}

func TestLastRoot(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	last, err := store.LastRoot(ctx, s, "tree_nodes", "path", "level")
	require.NoError(t, err)
	assert.Equal(t, int64(0), last, "an empty table has no roots yet")

	for _, path := range []string{"1", "2", "3"} {
		_, err := s.Insert("tree_nodes").
			Columns("label", "path", "left", "right", "level").
			Values("root-"+path, path, 1.0, 2.0, 1).
			ExecContext(ctx)
		require.NoError(t, err)
	}

	last, err = store.LastRoot(ctx, s, "tree_nodes", "path", "level")
	require.NoError(t, err)
	assert.Equal(t, int64(3), last)
}
