// Package nestedset maintains a forest of nodes across a relational table
// using a dotted-decimal path plus a pair of rational left/right boundaries
// and an integer level, following Dan Hazel's rational-numbers keying of
// nested sets (see package pathcodec for the underlying 2x2 matrix
// algebra).
//
// A NodeRecord owns one row's tree-column state and enforces a read-only
// guard on path/left/right/level; a MutationEngine turns saveInto,
// saveBefore, saveAfter, and delete into short transactional sequences of
// subtree bulk-updates against a store.Store; a QueryBuilder compiles
// scope/direction/inclusion tokens (children, parent, siblings, roots, ...)
// into a single SQL WHERE/ORDER BY over left, right, and level.
//
// The package never touches a SQL driver directly: every query and update
// goes through the store.Runner interface, so callers supply their own
// *store.Store or an open *store.Txn.
package nestedset
