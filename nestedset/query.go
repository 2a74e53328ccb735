package nestedset

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/hazelset/nestedset/pathcodec"
	"github.com/hazelset/nestedset/store"
)

type scope int

const (
	scopeNone scope = iota
	scopeRoots
	scopeChildren
	scopeParent
	scopeSiblings
	scopeExcluding
)

type direction int

const (
	dirNone direction = iota
	dirNext
	dirPrevious
)

// QueryBuilder is a value-type flag bag that compiles a chain of scope and
// modifier tokens into a single SQL predicate plus ORDER BY. Every token
// method takes the receiver by value and returns a new value, so a chain
// like b.Children().IncludeSelf().Reverse() never mutates a shared builder;
// prepare() is a pure function of the final flag set, which is what makes
// token order irrelevant (§4.6).
//
// A QueryBuilder is single-use: obtain a fresh one per query via
// NodeRecord.RelativeQuery.
type QueryBuilder struct {
	ref *NodeRecord

	scope     scope
	direction direction

	includeSelf        bool
	includeDescendants bool
	includeAncestors   bool
	excludeSelf        bool
	excludeDescendants bool
	reverse            bool
}

func newQueryBuilder(ref *NodeRecord) QueryBuilder {
	return QueryBuilder{ref: ref}
}

func (b QueryBuilder) Roots() QueryBuilder    { b.scope = scopeRoots; return b }
func (b QueryBuilder) Children() QueryBuilder { b.scope = scopeChildren; return b }
func (b QueryBuilder) Parent() QueryBuilder   { b.scope = scopeParent; return b }
func (b QueryBuilder) Siblings() QueryBuilder { b.scope = scopeSiblings; return b }

func (b QueryBuilder) ExcludingSelf() QueryBuilder {
	b.scope = scopeExcluding
	b.excludeSelf = true
	return b
}

func (b QueryBuilder) ExcludingDescendants() QueryBuilder {
	b.scope = scopeExcluding
	b.excludeDescendants = true
	return b
}

func (b QueryBuilder) Next() QueryBuilder     { b.direction = dirNext; return b }
func (b QueryBuilder) Previous() QueryBuilder { b.direction = dirPrevious; return b }

func (b QueryBuilder) IncludeSelf() QueryBuilder        { b.includeSelf = true; return b }
func (b QueryBuilder) IncludeDescendants() QueryBuilder { b.includeDescendants = true; return b }
func (b QueryBuilder) IncludeAncestors() QueryBuilder   { b.includeAncestors = true; return b }

// Natural restores ascending order (or the direction-native order for
// Previous), undoing any prior Reverse.
func (b QueryBuilder) Natural() QueryBuilder { b.reverse = false; return b }

// Reverse inverts whichever default order otherwise applies.
func (b QueryBuilder) Reverse() QueryBuilder { b.reverse = true; return b }

// prepare compiles the current flag set into a SQL predicate, per the
// scope table in §4.6. It never touches the database: every boundary it
// needs (the bound node's own left/right/level, and its parent's interval
// for sibling queries) is available from the bound record or derived
// purely from its path via pathcodec.
func (b QueryBuilder) prepare() (sq.Sqlizer, error) {
	N := b.ref
	left, right, level := N.LeftColumn(), N.RightColumn(), N.LevelColumn()

	switch b.scope {
	case scopeRoots:
		return sq.Eq{level: 1}, nil

	case scopeChildren:
		pred := sq.And{}
		if b.includeSelf {
			pred = append(pred, sq.GtOrEq{left: N.Left()}, sq.LtOrEq{right: N.Right()})
		} else {
			pred = append(pred, sq.Gt{left: N.Left()}, sq.Lt{right: N.Right()})
		}
		if !b.includeDescendants {
			pred = append(pred, sq.Eq{level: N.Level() + 1})
		}
		return pred, nil

	case scopeParent:
		pred := sq.And{sq.Lt{left: N.Left()}, sq.Gt{right: N.Right()}}
		if !b.includeAncestors {
			pred = append(pred, sq.Eq{level: N.Level() - 1})
		}
		return pred, nil

	case scopeSiblings:
		return b.prepareSiblings(left, right, level)

	case scopeExcluding:
		return b.prepareExcluding(left, right)

	default:
		return sq.And{}, nil
	}
}

func (b QueryBuilder) prepareSiblings(left, right, level string) (sq.Sqlizer, error) {
	N := b.ref
	pred := sq.And{}

	if !N.IsRoot() {
		base, err := pathcodec.BasePath(N.Path())
		if err != nil {
			return nil, err
		}
		pm, err := pathcodec.FromPath(base)
		if err != nil {
			return nil, err
		}
		pred = append(pred, sq.Gt{left: pathcodec.Left(pm)}, sq.Lt{right: pathcodec.Right(pm)})
	}

	switch b.direction {
	case dirNext:
		if b.includeSelf {
			pred = append(pred, sq.GtOrEq{left: N.Left()})
		} else {
			pred = append(pred, sq.GtOrEq{left: N.Right()})
		}
	case dirPrevious:
		if b.includeSelf {
			pred = append(pred, sq.LtOrEq{right: N.Right()})
		} else {
			pred = append(pred, sq.LtOrEq{right: N.Left()})
		}
	default:
		if !b.includeSelf {
			pred = append(pred, sq.NotEq{left: N.Left()})
		}
	}

	if !b.includeDescendants {
		pred = append(pred, sq.Eq{level: N.Level()})
	}

	return pred, nil
}

func (b QueryBuilder) prepareExcluding(left, right string) (sq.Sqlizer, error) {
	N := b.ref
	switch {
	case b.excludeSelf && b.excludeDescendants:
		return sq.Expr(fmt.Sprintf("NOT (%s >= ? AND %s <= ?)", left, right), N.Left(), N.Right()), nil
	case b.excludeSelf:
		return sq.NotEq{left: N.Left()}, nil
	case b.excludeDescendants:
		return sq.Expr(fmt.Sprintf("NOT (%s > ? AND %s < ?)", left, right), N.Left(), N.Right()), nil
	default:
		return sq.And{}, nil
	}
}

// orderBy returns the ORDER BY column expression for the current flag set:
// ascending left by default, descending when the direction is Previous,
// and inverted by Reverse either way.
func (b QueryBuilder) orderBy() string {
	asc := b.ref.LeftColumn() + " ASC"
	desc := b.ref.LeftColumn() + " DESC"

	def := asc
	if b.direction == dirPrevious {
		def = desc
	}
	if !b.reverse {
		return def
	}
	if def == asc {
		return desc
	}
	return asc
}

func (b QueryBuilder) selectColumns() []string {
	N := b.ref
	return []string{N.PKColumn(), N.PathColumn(), N.LeftColumn(), N.RightColumn(), N.LevelColumn()}
}

// All runs the query and returns every matching row as a fresh NodeRecord
// sharing this builder's table/column configuration.
func (b QueryBuilder) All(ctx context.Context, r store.Runner) ([]*NodeRecord, error) {
	pred, err := b.prepare()
	if err != nil {
		return nil, err
	}

	rows, err := r.Select(b.selectColumns()...).
		From(b.ref.Table()).
		Where(pred).
		OrderBy(b.orderBy()).
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabaseFailure, err)
	}
	defer rows.Close()

	var out []*NodeRecord
	for rows.Next() {
		rec, err := b.scanRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// One runs the query with a limit of one and returns the first matching
// row, or (nil, nil) if there is none.
func (b QueryBuilder) One(ctx context.Context, r store.Runner) (*NodeRecord, error) {
	pred, err := b.prepare()
	if err != nil {
		return nil, err
	}

	row := r.Select(b.selectColumns()...).
		From(b.ref.Table()).
		Where(pred).
		OrderBy(b.orderBy()).
		Limit(1).
		QueryRowContext(ctx)

	rec, err := b.scanRowScanner(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabaseFailure, err)
	}
	return rec, nil
}

// Count runs the query as a COUNT(*) and returns the number of matching
// rows without materializing them.
func (b QueryBuilder) Count(ctx context.Context, r store.Runner) (int64, error) {
	pred, err := b.prepare()
	if err != nil {
		return 0, err
	}

	var n int64
	row := r.Select("COUNT(*)").From(b.ref.Table()).Where(pred).QueryRowContext(ctx)
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrDatabaseFailure, err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (b QueryBuilder) scanRow(rows *sql.Rows) (*NodeRecord, error) {
	return b.scanRowScanner(rows)
}

func (b QueryBuilder) scanRowScanner(s rowScanner) (*NodeRecord, error) {
	var pk any
	var path string
	var left, right float64
	var level int

	if err := s.Scan(&pk, &path, &left, &right, &level); err != nil {
		return nil, err
	}

	rec := b.ref.like()
	rec.applyLoadedState(pk, path, left, right, level)
	return rec, nil
}
