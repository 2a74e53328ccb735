package nestedset

import (
	"github.com/hazelset/nestedset/matrix"
	"github.com/hazelset/nestedset/pathcodec"
)

// NodeRecord is the per-row state of one node: its primary key, its four
// tree columns, and a freely-mutable user payload. Column names are
// configurable per record (see WithColumnNames) so the same type serves
// any table shape; all query and update construction in this package goes
// through the *Column() accessors below rather than hard-coded names.
type NodeRecord struct {
	table    string
	pkColumn string
	pkValue  any

	pathCol  string
	leftCol  string
	rightCol string
	levelCol string

	path  string
	left  float64
	right float64
	level int

	nodeMatrix *matrix.Matrix

	payload map[string]any

	protected bool
	isNew     bool
}

// New returns an unsaved NodeRecord for table, identified by pkColumn, with
// the default tree-column names "path", "left", "right", "level" and the
// read-only guard armed.
func New(table, pkColumn string) *NodeRecord {
	return &NodeRecord{
		table:     table,
		pkColumn:  pkColumn,
		pathCol:   "path",
		leftCol:   "left",
		rightCol:  "right",
		levelCol:  "level",
		protected: true,
		isNew:     true,
	}
}

// WithColumnNames overrides the tree-column names and returns the same
// record for chaining at construction time.
func (r *NodeRecord) WithColumnNames(pathCol, leftCol, rightCol, levelCol string) *NodeRecord {
	r.pathCol, r.leftCol, r.rightCol, r.levelCol = pathCol, leftCol, rightCol, levelCol
	return r
}

func (r *NodeRecord) Table() string      { return r.table }
func (r *NodeRecord) PKColumn() string   { return r.pkColumn }
func (r *NodeRecord) PathColumn() string  { return r.pathCol }
func (r *NodeRecord) LeftColumn() string  { return r.leftCol }
func (r *NodeRecord) RightColumn() string { return r.rightCol }
func (r *NodeRecord) LevelColumn() string { return r.levelCol }

// PK returns the primary key value loaded or assigned for this row, or nil
// for an unsaved record whose key has not been generated yet.
func (r *NodeRecord) PK() any { return r.pkValue }

func (r *NodeRecord) SetPK(v any) { r.pkValue = v }

func (r *NodeRecord) Path() string    { return r.path }
func (r *NodeRecord) Left() float64   { return r.left }
func (r *NodeRecord) Right() float64  { return r.right }
func (r *NodeRecord) Level() int      { return r.level }
func (r *NodeRecord) IsNew() bool     { return r.isNew }

// IsRoot reports whether this record sits at the top of its tree.
func (r *NodeRecord) IsRoot() bool { return r.level == 1 }

// CanMove reports whether this record could legally be relocated under or
// next to targetPath: false when targetPath equals this record's own path,
// or when this record's path is a strict dotted prefix of targetPath (that
// would move the node into its own subtree).
func (r *NodeRecord) CanMove(targetPath string) bool {
	if targetPath == r.path {
		return false
	}
	return !pathcodec.IsAncestorOf(r.path, targetPath)
}

// ProtectReadonly arms (true) or disarms (false) the read-only guard on
// path/left/right/level. Diagnostic use only; the mutation engine and
// row-loading code are the only callers expected to disarm it, and they
// always re-arm it before returning control to the caller.
func (r *NodeRecord) ProtectReadonly(on bool) { r.protected = on }

// SetPath is the public, guarded surface for assigning a node's path. It
// also derives and caches left/right/level from the path via pathcodec, and
// fails without changing any state if the read-only guard is armed or the
// path is malformed.
func (r *NodeRecord) SetPath(path string) error {
	if r.protected {
		return ErrReadOnlyTreeField
	}
	return r.setPathUnchecked(path)
}

// setPathUnchecked is the internal setter used by the mutation engine and
// by row loading/refresh; it bypasses the guard entirely since it is not
// reached through the public record surface.
func (r *NodeRecord) setPathUnchecked(path string) error {
	m, err := pathcodec.FromPath(path)
	if err != nil {
		return err
	}
	level, err := pathcodec.LevelOfPath(path)
	if err != nil {
		return err
	}
	r.path = path
	r.left = pathcodec.Left(m)
	r.right = pathcodec.Right(m)
	r.level = level
	r.nodeMatrix = &m
	return nil
}

// NodeMatrix returns the cached matrix for this record's path, computing
// and caching it on first use.
func (r *NodeRecord) NodeMatrix() (matrix.Matrix, error) {
	if r.nodeMatrix != nil {
		return *r.nodeMatrix, nil
	}
	if r.path == "" {
		return matrix.Matrix{}, ErrInvalidItemConfiguration
	}
	m, err := pathcodec.FromPath(r.path)
	if err != nil {
		return matrix.Matrix{}, err
	}
	r.nodeMatrix = &m
	return m, nil
}

// Get reads a payload column. Tree columns and the primary key are never
// stored in the payload map; read them through their dedicated accessors.
func (r *NodeRecord) Get(column string) (any, bool) {
	v, ok := r.payload[column]
	return v, ok
}

// Set writes a payload column. It rejects the primary key and the four
// tree-column names unconditionally — those have dedicated, guarded
// mutators and must never be smuggled in through the generic payload map.
func (r *NodeRecord) Set(column string, value any) error {
	switch column {
	case r.pkColumn, r.pathCol, r.leftCol, r.rightCol, r.levelCol:
		return ErrReadOnlyTreeField
	}
	if r.payload == nil {
		r.payload = make(map[string]any)
	}
	r.payload[column] = value
	return nil
}

// Payload returns a shallow copy of the user payload, safe for the caller
// to range over or mutate without affecting the record.
func (r *NodeRecord) Payload() map[string]any {
	out := make(map[string]any, len(r.payload))
	for k, v := range r.payload {
		out[k] = v
	}
	return out
}

// RelativeQuery returns a fresh QueryBuilder bound to this record.
func (r *NodeRecord) RelativeQuery() QueryBuilder {
	return newQueryBuilder(r)
}

// like returns a new, blank NodeRecord sharing this record's table and
// column configuration. The mutation engine uses it as a template when it
// needs to load a sibling, parent, or target row it doesn't already hold.
func (r *NodeRecord) like() *NodeRecord {
	return &NodeRecord{
		table:     r.table,
		pkColumn:  r.pkColumn,
		pathCol:   r.pathCol,
		leftCol:   r.leftCol,
		rightCol:  r.rightCol,
		levelCol:  r.levelCol,
		protected: true,
	}
}

// applyLoadedState installs tree-column state read back from storage. It
// bypasses the read-only guard (loading is not "the public record
// surface") and marks the record as persisted.
func (r *NodeRecord) applyLoadedState(pk any, path string, left, right float64, level int) {
	was := r.protected
	r.protected = false
	r.pkValue = pk
	r.path = path
	r.left = left
	r.right = right
	r.level = level
	r.nodeMatrix = nil
	r.isNew = false
	r.protected = was
}
