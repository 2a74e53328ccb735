package nestedset

import "errors"

// ErrInvalidItemConfiguration signals a path string that does not resolve
// to an existing row, or a new record that already carries a path being
// passed to saveInto/saveBefore/saveAfter (which only make sense for
// records without one yet).
var ErrInvalidItemConfiguration = errors.New("nestedset: invalid item configuration")

// ErrReadOnlyTreeField signals a caller tried to write path, left, right,
// or level through the public record surface while the read-only guard is
// armed.
var ErrReadOnlyTreeField = errors.New("nestedset: tree column is read-only")

// ErrDatabaseFailure marks a failed statement, row scan, or commit issued by
// this package. The underlying error's message is kept in the error text,
// but the underlying error itself is not wrapped, so errors.Is and
// errors.As cannot reach it. Errors returned by store.Store.BeginTxn and
// store.LastRoot are passed through without this marker. When a mutation
// fails, its transaction is rolled back before the error is returned.
var ErrDatabaseFailure = errors.New("nestedset: database failure")

// ErrMaxLevelExceeded is returned by mutation entry points when a caller has
// configured a depth cap via MutationEngine.SetMaxLevel and the requested
// operation would place a node beyond it.
var ErrMaxLevelExceeded = errors.New("nestedset: operation would exceed configured max level")
