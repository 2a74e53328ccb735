package nestedset

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strconv"

	sq "github.com/Masterminds/squirrel"

	"github.com/hazelset/nestedset/matrix"
	"github.com/hazelset/nestedset/pathcodec"
	"github.com/hazelset/nestedset/store"
)

// MutationEngine implements saveInto/saveBefore/saveAfter/delete (§4.5) as
// transactional sequences of subtree bulk-moves and gap-open/gap-close
// shifts. It holds no table or column configuration of its own; every
// operation takes those from the NodeRecord(s) passed to it, so one engine
// serves any number of differently-shaped node tables.
type MutationEngine struct {
	store    *store.Store
	maxLevel int
}

// NewMutationEngine returns an engine backed by s. maxLevel is unset (0,
// meaning unlimited) until SetMaxLevel is called.
func NewMutationEngine(s *store.Store) *MutationEngine {
	return &MutationEngine{store: s}
}

// SetMaxLevel configures the depth cap that WouldExceedMaxLevel reports
// against and that SaveInto, SaveBefore and SaveAfter enforce, with
// ErrMaxLevelExceeded, when they move an existing record. The
// GetMaxLevelIfMove* helpers do not consult it. 0 (the zero value) means
// unlimited.
func (e *MutationEngine) SetMaxLevel(n int) { e.maxLevel = n }

type nodeRow struct {
	pk    any
	path  string
	left  float64
	right float64
	level int
}

// Save persists r. A new record with no path yet is assigned the next free
// root path (§4.5.1); any other record (new with an explicit path, or
// already persisted) is written as-is — structural relocation is the job
// of SaveInto/SaveBefore/SaveAfter, not Save.
func (e *MutationEngine) Save(ctx context.Context, r *NodeRecord) (bool, error) {
	txn, err := e.store.BeginTxn(ctx)
	if err != nil {
		return false, err
	}
	defer func() { _ = txn.Rollback() }()

	if r.IsNew() {
		if r.Path() == "" {
			lastRoot, err := store.LastRoot(ctx, txn, r.Table(), r.PathColumn(), r.LevelColumn())
			if err != nil {
				return false, err
			}
			if err := r.setPathUnchecked(strconv.FormatInt(lastRoot+1, 10)); err != nil {
				return false, err
			}
		}
		if err := e.insertRow(ctx, txn, r); err != nil {
			return false, err
		}
		r.isNew = false
	} else {
		if err := e.updateScalarFields(ctx, txn, r); err != nil {
			return false, err
		}
	}

	if err := txn.Commit(); err != nil {
		return false, fmt.Errorf("%w: %v", ErrDatabaseFailure, err)
	}
	return true, nil
}

// SaveInto moves (or, for a new record, inserts) r as the last child of
// target (§4.5.2). target is either a *NodeRecord or a path string.
func (e *MutationEngine) SaveInto(ctx context.Context, r *NodeRecord, target any) (bool, error) {
	txn, err := e.store.BeginTxn(ctx)
	if err != nil {
		return false, err
	}
	defer func() { _ = txn.Rollback() }()

	targetRec, err := e.resolve(ctx, txn, r, target)
	if err != nil {
		return false, err
	}

	if r.IsNew() {
		if r.Path() != "" {
			return false, fmt.Errorf("%w: new record already has a path", ErrInvalidItemConfiguration)
		}

		lastChild, err := targetRec.RelativeQuery().Children().Reverse().One(ctx, txn)
		if err != nil {
			return false, err
		}
		s := int64(0)
		if lastChild != nil {
			s, err = pathcodec.LastSegmentOfPath(lastChild.Path())
			if err != nil {
				return false, err
			}
		}
		if err := r.setPathUnchecked(targetRec.Path() + "." + strconv.FormatInt(s+1, 10)); err != nil {
			return false, err
		}
		if err := e.insertRow(ctx, txn, r); err != nil {
			return false, err
		}
		r.isNew = false
		if err := txn.Commit(); err != nil {
			return false, fmt.Errorf("%w: %v", ErrDatabaseFailure, err)
		}
		return true, nil
	}

	if !r.CanMove(targetRec.Path()) {
		return false, nil
	}

	if err := e.updateScalarFields(ctx, txn, r); err != nil {
		return false, err
	}

	nextSib, err := r.RelativeQuery().Siblings().Next().One(ctx, txn)
	if err != nil {
		return false, err
	}

	targetChildren, err := targetRec.RelativeQuery().Children().Reverse().All(ctx, txn)
	if err != nil {
		return false, err
	}
	var lastChildExclSelf *NodeRecord
	for _, c := range targetChildren {
		if !pkEqual(c.PK(), r.PK()) {
			lastChildExclSelf = c
			break
		}
	}

	selfLastSeg, err := pathcodec.LastSegmentOfPath(r.Path())
	if err != nil {
		return false, err
	}
	var k int64
	if lastChildExclSelf != nil {
		lastSeg, err := pathcodec.LastSegmentOfPath(lastChildExclSelf.Path())
		if err != nil {
			return false, err
		}
		k = (lastSeg + 1) - selfLastSeg
	} else {
		k = 1 - selfLastSeg
	}

	selfParent, err := e.parentOf(ctx, txn, r)
	if err != nil {
		return false, err
	}
	targetMatrix, err := targetRec.NodeMatrix()
	if err != nil {
		return false, err
	}

	if err := e.checkMaxLevel(ctx, txn, r, targetRec.Level()+1); err != nil {
		return false, err
	}

	var mb pathcodec.MoveMatrixBuilder
	T, err := mb.Build(matrixOrRoot(selfParent), targetMatrix, k)
	if err != nil {
		return false, err
	}

	if err := e.moveSubtree(ctx, txn, r, T); err != nil {
		return false, err
	}

	if nextSib != nil {
		if err := e.closeGap(ctx, txn, nextSib); err != nil {
			return false, err
		}
	}

	if err := e.refresh(ctx, txn, r); err != nil {
		return false, err
	}

	if err := txn.Commit(); err != nil {
		return false, fmt.Errorf("%w: %v", ErrDatabaseFailure, err)
	}
	return true, nil
}

// SaveBefore moves (or inserts) r so that it becomes target's immediate
// preceding sibling (§4.5.3).
func (e *MutationEngine) SaveBefore(ctx context.Context, r *NodeRecord, target any) (bool, error) {
	txn, err := e.store.BeginTxn(ctx)
	if err != nil {
		return false, err
	}
	defer func() { _ = txn.Rollback() }()

	targetRec, err := e.resolve(ctx, txn, r, target)
	if err != nil {
		return false, err
	}

	ok, err := e.saveBefore(ctx, txn, r, targetRec)
	if err != nil || !ok {
		return ok, err
	}
	if err := e.refresh(ctx, txn, targetRec); err != nil {
		return false, err
	}

	if err := txn.Commit(); err != nil {
		return false, fmt.Errorf("%w: %v", ErrDatabaseFailure, err)
	}
	return true, nil
}

// SaveAfter moves (or inserts) r so that it becomes target's immediate
// following sibling (§4.5.4).
func (e *MutationEngine) SaveAfter(ctx context.Context, r *NodeRecord, target any) (bool, error) {
	txn, err := e.store.BeginTxn(ctx)
	if err != nil {
		return false, err
	}
	defer func() { _ = txn.Rollback() }()

	targetRec, err := e.resolve(ctx, txn, r, target)
	if err != nil {
		return false, err
	}

	nextOfTarget, err := targetRec.RelativeQuery().Siblings().Next().One(ctx, txn)
	if err != nil {
		return false, err
	}

	var ok bool
	if nextOfTarget != nil {
		ok, err = e.saveBefore(ctx, txn, r, nextOfTarget)
	} else {
		ok, err = e.saveDirectlyAfter(ctx, txn, r, targetRec)
	}
	if err != nil || !ok {
		return ok, err
	}
	if err := e.refresh(ctx, txn, targetRec); err != nil {
		return false, err
	}

	if err := txn.Commit(); err != nil {
		return false, fmt.Errorf("%w: %v", ErrDatabaseFailure, err)
	}
	return true, nil
}

// saveBefore is the four-phase algorithm shared by SaveBefore and, for the
// common case, SaveAfter (delegating against target's own next sibling).
func (e *MutationEngine) saveBefore(ctx context.Context, txn *store.Txn, r *NodeRecord, targetRec *NodeRecord) (bool, error) {
	if r.IsNew() {
		if r.Path() != "" {
			return false, fmt.Errorf("%w: new record already has a path", ErrInvalidItemConfiguration)
		}
		oldTargetPath := targetRec.Path()
		if err := e.openGap(ctx, txn, targetRec); err != nil {
			return false, err
		}
		if err := e.refresh(ctx, txn, targetRec); err != nil {
			return false, err
		}
		if err := r.setPathUnchecked(oldTargetPath); err != nil {
			return false, err
		}
		if err := e.insertRow(ctx, txn, r); err != nil {
			return false, err
		}
		r.isNew = false
		return true, nil
	}

	if !r.CanMove(targetRec.Path()) {
		return false, nil
	}

	if err := e.updateScalarFields(ctx, txn, r); err != nil {
		return false, err
	}

	nextSib, err := r.RelativeQuery().Siblings().Next().One(ctx, txn)
	if err != nil {
		return false, err
	}

	if err := e.openGap(ctx, txn, targetRec); err != nil {
		return false, err
	}

	refreshedTarget, err := e.loadByPK(ctx, txn, targetRec, targetRec.PK())
	if err != nil {
		return false, err
	}
	if err := e.refresh(ctx, txn, r); err != nil {
		return false, err
	}

	selfParent, err := e.parentOf(ctx, txn, r)
	if err != nil {
		return false, err
	}
	targetParent, err := e.parentOf(ctx, txn, refreshedTarget)
	if err != nil {
		return false, err
	}

	targetLastSeg, err := pathcodec.LastSegmentOfPath(refreshedTarget.Path())
	if err != nil {
		return false, err
	}
	selfLastSeg, err := pathcodec.LastSegmentOfPath(r.Path())
	if err != nil {
		return false, err
	}
	k := targetLastSeg - selfLastSeg - 1

	if err := e.checkMaxLevel(ctx, txn, r, refreshedTarget.Level()); err != nil {
		return false, err
	}

	var mb pathcodec.MoveMatrixBuilder
	T, err := mb.Build(matrixOrRoot(selfParent), matrixOrRoot(targetParent), k)
	if err != nil {
		return false, err
	}

	if err := e.moveSubtree(ctx, txn, r, T); err != nil {
		return false, err
	}

	if nextSib != nil {
		refreshedSib, err := e.loadByPK(ctx, txn, nextSib, nextSib.PK())
		if err != nil {
			return false, err
		}
		if err := e.closeGap(ctx, txn, refreshedSib); err != nil {
			return false, err
		}
	}

	if err := e.refresh(ctx, txn, r); err != nil {
		return false, err
	}
	return true, nil
}

// saveDirectlyAfter places r immediately after targetRec when targetRec has
// no next sibling — there is no gap to open, since there is nothing to its
// right to make room for.
func (e *MutationEngine) saveDirectlyAfter(ctx context.Context, txn *store.Txn, r *NodeRecord, targetRec *NodeRecord) (bool, error) {
	targetLastSeg, err := pathcodec.LastSegmentOfPath(targetRec.Path())
	if err != nil {
		return false, err
	}

	if r.IsNew() {
		if r.Path() != "" {
			return false, fmt.Errorf("%w: new record already has a path", ErrInvalidItemConfiguration)
		}
		parentPath, err := pathcodec.BasePath(targetRec.Path())
		if err != nil {
			return false, err
		}
		newPath := strconv.FormatInt(targetLastSeg+1, 10)
		if parentPath != "" {
			newPath = parentPath + "." + newPath
		}
		if err := r.setPathUnchecked(newPath); err != nil {
			return false, err
		}
		if err := e.insertRow(ctx, txn, r); err != nil {
			return false, err
		}
		r.isNew = false
		return true, nil
	}

	if !r.CanMove(targetRec.Path()) {
		return false, nil
	}

	if err := e.updateScalarFields(ctx, txn, r); err != nil {
		return false, err
	}

	nextSib, err := r.RelativeQuery().Siblings().Next().One(ctx, txn)
	if err != nil {
		return false, err
	}

	selfParent, err := e.parentOf(ctx, txn, r)
	if err != nil {
		return false, err
	}
	targetParent, err := e.parentOf(ctx, txn, targetRec)
	if err != nil {
		return false, err
	}
	selfLastSeg, err := pathcodec.LastSegmentOfPath(r.Path())
	if err != nil {
		return false, err
	}
	k := targetLastSeg - selfLastSeg + 1

	if err := e.checkMaxLevel(ctx, txn, r, targetRec.Level()); err != nil {
		return false, err
	}

	var mb pathcodec.MoveMatrixBuilder
	T, err := mb.Build(matrixOrRoot(selfParent), matrixOrRoot(targetParent), k)
	if err != nil {
		return false, err
	}

	if err := e.moveSubtree(ctx, txn, r, T); err != nil {
		return false, err
	}

	if nextSib != nil {
		refreshedSib, err := e.loadByPK(ctx, txn, nextSib, nextSib.PK())
		if err != nil {
			return false, err
		}
		if err := e.closeGap(ctx, txn, refreshedSib); err != nil {
			return false, err
		}
	}

	if err := e.refresh(ctx, txn, r); err != nil {
		return false, err
	}
	return true, nil
}

// Delete removes r and its entire subtree, then closes the gap left behind
// among its former siblings (§4.5.5). It returns the number of rows
// removed.
func (e *MutationEngine) Delete(ctx context.Context, r *NodeRecord) (int64, error) {
	txn, err := e.store.BeginTxn(ctx)
	if err != nil {
		return 0, err
	}
	defer func() { _ = txn.Rollback() }()

	nextSib, err := r.RelativeQuery().Siblings().Next().One(ctx, txn)
	if err != nil {
		return 0, err
	}

	res, err := txn.Delete(r.Table()).
		Where(sq.And{sq.GtOrEq{r.LeftColumn(): r.Left()}, sq.LtOrEq{r.RightColumn(): r.Right()}}).
		ExecContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrDatabaseFailure, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrDatabaseFailure, err)
	}

	if nextSib != nil {
		if err := e.closeGap(ctx, txn, nextSib); err != nil {
			return 0, err
		}
	}

	if err := txn.Commit(); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrDatabaseFailure, err)
	}
	return n, nil
}

// GetSubtreeDepth returns how many additional levels r's deepest descendant
// adds below r (0 if r is a leaf).
func (e *MutationEngine) GetSubtreeDepth(ctx context.Context, r *NodeRecord) (int, error) {
	return e.subtreeDepth(ctx, e.store, r)
}

func (e *MutationEngine) subtreeDepth(ctx context.Context, runner store.Runner, r *NodeRecord) (int, error) {
	pred, err := r.RelativeQuery().Children().IncludeDescendants().prepare()
	if err != nil {
		return 0, err
	}
	var maxLevel sql.NullInt64
	row := runner.Select("MAX(" + r.LevelColumn() + ")").From(r.Table()).Where(pred).QueryRowContext(ctx)
	if err := row.Scan(&maxLevel); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrDatabaseFailure, err)
	}
	if !maxLevel.Valid {
		return 0, nil
	}
	return int(maxLevel.Int64) - r.Level(), nil
}

// WouldExceedMaxLevel reports whether placing r at newLevel would push its
// deepest descendant past the configured cap. It always returns false when
// no cap is set (SetMaxLevel was never called, or called with 0).
func (e *MutationEngine) WouldExceedMaxLevel(ctx context.Context, r *NodeRecord, newLevel int) (bool, error) {
	if e.maxLevel <= 0 {
		return false, nil
	}
	depth, err := e.GetSubtreeDepth(ctx, r)
	if err != nil {
		return false, err
	}
	return newLevel+depth > e.maxLevel, nil
}

// checkMaxLevel returns ErrMaxLevelExceeded if moving r so its own level
// becomes newLevel would push its deepest descendant past the configured
// cap. It runs against runner so it can be called mid-transaction without
// contending for a second connection from the store's pool.
func (e *MutationEngine) checkMaxLevel(ctx context.Context, runner store.Runner, r *NodeRecord, newLevel int) error {
	if e.maxLevel <= 0 {
		return nil
	}
	depth, err := e.subtreeDepth(ctx, runner, r)
	if err != nil {
		return err
	}
	if newLevel+depth > e.maxLevel {
		return fmt.Errorf("%w: moving %s to level %d would reach level %d, past the cap of %d", ErrMaxLevelExceeded, r.Path(), newLevel, newLevel+depth, e.maxLevel)
	}
	return nil
}

// GetMaxLevelIfMoveInto returns the deepest level r's subtree would reach
// were it moved into target via SaveInto.
func (e *MutationEngine) GetMaxLevelIfMoveInto(ctx context.Context, r *NodeRecord, target any) (int, error) {
	targetRec, err := e.resolve(ctx, e.store, r, target)
	if err != nil {
		return 0, err
	}
	depth, err := e.GetSubtreeDepth(ctx, r)
	if err != nil {
		return 0, err
	}
	return targetRec.Level() + 1 + depth, nil
}

// GetMaxLevelIfMoveBefore returns the deepest level r's subtree would reach
// were it moved via SaveBefore(target); SaveAfter has the same depth
// outcome since both place r as target's sibling.
func (e *MutationEngine) GetMaxLevelIfMoveBefore(ctx context.Context, r *NodeRecord, target any) (int, error) {
	return e.maxLevelAsSiblingOf(ctx, r, target)
}

// GetMaxLevelIfMoveAfter mirrors GetMaxLevelIfMoveBefore.
func (e *MutationEngine) GetMaxLevelIfMoveAfter(ctx context.Context, r *NodeRecord, target any) (int, error) {
	return e.maxLevelAsSiblingOf(ctx, r, target)
}

func (e *MutationEngine) maxLevelAsSiblingOf(ctx context.Context, r *NodeRecord, target any) (int, error) {
	targetRec, err := e.resolve(ctx, e.store, r, target)
	if err != nil {
		return 0, err
	}
	depth, err := e.GetSubtreeDepth(ctx, r)
	if err != nil {
		return 0, err
	}
	return targetRec.Level() + depth, nil
}

// --- internal helpers -------------------------------------------------

func (e *MutationEngine) resolve(ctx context.Context, runner store.Runner, template *NodeRecord, ref any) (*NodeRecord, error) {
	switch v := ref.(type) {
	case *NodeRecord:
		return v, nil
	case string:
		return e.loadByPath(ctx, runner, template, v)
	default:
		return nil, fmt.Errorf("%w: target must be a *NodeRecord or a path string", ErrInvalidItemConfiguration)
	}
}

func (e *MutationEngine) loadByPath(ctx context.Context, runner store.Runner, template *NodeRecord, path string) (*NodeRecord, error) {
	row := runner.Select(template.PKColumn(), template.PathColumn(), template.LeftColumn(), template.RightColumn(), template.LevelColumn()).
		From(template.Table()).
		Where(sq.Eq{template.PathColumn(): path}).
		QueryRowContext(ctx)

	var pk any
	var gotPath string
	var left, right float64
	var level int
	if err := row.Scan(&pk, &gotPath, &left, &right, &level); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: no row with path %q", ErrInvalidItemConfiguration, path)
		}
		return nil, fmt.Errorf("%w: %v", ErrDatabaseFailure, err)
	}

	rec := template.like()
	rec.applyLoadedState(pk, gotPath, left, right, level)
	return rec, nil
}

func (e *MutationEngine) loadByPK(ctx context.Context, runner store.Runner, template *NodeRecord, pk any) (*NodeRecord, error) {
	row := runner.Select(template.PKColumn(), template.PathColumn(), template.LeftColumn(), template.RightColumn(), template.LevelColumn()).
		From(template.Table()).
		Where(sq.Eq{template.PKColumn(): pk}).
		QueryRowContext(ctx)

	var gotPK any
	var path string
	var left, right float64
	var level int
	if err := row.Scan(&gotPK, &path, &left, &right, &level); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabaseFailure, err)
	}

	rec := template.like()
	rec.applyLoadedState(gotPK, path, left, right, level)
	return rec, nil
}

// parentOf returns r's parent row, or nil if r is a root.
func (e *MutationEngine) parentOf(ctx context.Context, runner store.Runner, r *NodeRecord) (*NodeRecord, error) {
	if r.IsRoot() {
		return nil, nil
	}
	return r.RelativeQuery().Parent().One(ctx, runner)
}

// refresh reloads r's tree-column state from storage in place.
func (e *MutationEngine) refresh(ctx context.Context, runner store.Runner, r *NodeRecord) error {
	reloaded, err := e.loadByPK(ctx, runner, r, r.PK())
	if err != nil {
		return err
	}
	r.applyLoadedState(reloaded.PK(), reloaded.Path(), reloaded.Left(), reloaded.Right(), reloaded.Level())
	return nil
}

// openGap bumps target and its later siblings (with their descendants) by
// +1, freeing target's current slot. Iteration is descending left so that
// no updated row's new path momentarily collides with a not-yet-updated
// row's old one (§4.5.6).
func (e *MutationEngine) openGap(ctx context.Context, txn *store.Txn, target *NodeRecord) error {
	parent, err := e.parentOf(ctx, txn, target)
	if err != nil {
		return err
	}
	fromTo := matrixOrRoot(parent)

	var mb pathcodec.MoveMatrixBuilder
	T, err := mb.Build(fromTo, fromTo, 1)
	if err != nil {
		return err
	}

	pred, err := target.RelativeQuery().Siblings().Next().IncludeSelf().IncludeDescendants().prepare()
	if err != nil {
		return err
	}
	rows, err := e.collect(ctx, txn, target, pred, target.LeftColumn()+" DESC")
	if err != nil {
		return err
	}
	return e.applyMove(ctx, txn, target, rows, T)
}

// closeGap shifts sibling (the node that used to follow the vacated slot)
// and its later siblings (with their descendants) back by -1. Iteration is
// ascending left, the mirror image of openGap.
func (e *MutationEngine) closeGap(ctx context.Context, txn *store.Txn, sibling *NodeRecord) error {
	parent, err := e.parentOf(ctx, txn, sibling)
	if err != nil {
		return err
	}
	fromTo := matrixOrRoot(parent)

	var mb pathcodec.MoveMatrixBuilder
	T, err := mb.Build(fromTo, fromTo, -1)
	if err != nil {
		return err
	}

	pred, err := sibling.RelativeQuery().Siblings().Next().IncludeSelf().IncludeDescendants().prepare()
	if err != nil {
		return err
	}
	rows, err := e.collect(ctx, txn, sibling, pred, sibling.LeftColumn()+" ASC")
	if err != nil {
		return err
	}
	return e.applyMove(ctx, txn, sibling, rows, T)
}

// moveSubtree applies T to r and every descendant of r in one pass.
func (e *MutationEngine) moveSubtree(ctx context.Context, txn *store.Txn, r *NodeRecord, T matrix.Matrix) error {
	pred, err := r.RelativeQuery().Children().IncludeSelf().IncludeDescendants().prepare()
	if err != nil {
		return err
	}
	rows, err := e.collect(ctx, txn, r, pred, r.LeftColumn()+" ASC")
	if err != nil {
		return err
	}
	return e.applyMove(ctx, txn, r, rows, T)
}

func (e *MutationEngine) collect(ctx context.Context, txn *store.Txn, r *NodeRecord, pred sq.Sqlizer, orderBy string) ([]nodeRow, error) {
	rows, err := txn.Select(r.PKColumn(), r.PathColumn(), r.LeftColumn(), r.RightColumn(), r.LevelColumn()).
		From(r.Table()).
		Where(pred).
		OrderBy(orderBy).
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabaseFailure, err)
	}
	defer rows.Close()

	var out []nodeRow
	for rows.Next() {
		var nr nodeRow
		if err := rows.Scan(&nr.pk, &nr.path, &nr.left, &nr.right, &nr.level); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDatabaseFailure, err)
		}
		out = append(out, nr)
	}
	return out, rows.Err()
}

// applyMove writes T·M back for each collected row, one UPDATE per node —
// the streaming update invariant of §4.5.6. The read above and the writes
// here are deliberately split into two passes: sqlite3 and most sql.Tx
// implementations cannot execute further statements on a transaction while
// one of its own result sets is still open.
func (e *MutationEngine) applyMove(ctx context.Context, txn *store.Txn, r *NodeRecord, rows []nodeRow, T matrix.Matrix) error {
	for _, nr := range rows {
		m, err := pathcodec.FromPath(nr.path)
		if err != nil {
			return err
		}
		newMatrix := T.Multiply(m)
		newPath, err := pathcodec.ToPath(newMatrix)
		if err != nil {
			return err
		}
		newLevel, err := pathcodec.LevelOfPath(newPath)
		if err != nil {
			return err
		}

		_, err = txn.Update(r.Table()).
			Set(r.PathColumn(), newPath).
			Set(r.LeftColumn(), pathcodec.Left(newMatrix)).
			Set(r.RightColumn(), pathcodec.Right(newMatrix)).
			Set(r.LevelColumn(), newLevel).
			Where(sq.Eq{r.PKColumn(): nr.pk}).
			ExecContext(ctx)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrDatabaseFailure, err)
		}
	}
	return nil
}

func (e *MutationEngine) insertRow(ctx context.Context, txn *store.Txn, r *NodeRecord) error {
	values := r.Payload()
	values[r.PathColumn()] = r.Path()
	values[r.LeftColumn()] = r.Left()
	values[r.RightColumn()] = r.Right()
	values[r.LevelColumn()] = r.Level()
	if r.PK() != nil {
		values[r.PKColumn()] = r.PK()
	}

	cols := make([]string, 0, len(values))
	for c := range values {
		cols = append(cols, c)
	}
	sort.Strings(cols)
	vals := make([]any, len(cols))
	for i, c := range cols {
		vals[i] = values[c]
	}

	res, err := txn.Insert(r.Table()).Columns(cols...).Values(vals...).ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseFailure, err)
	}
	if r.PK() == nil {
		if id, err := res.LastInsertId(); err == nil {
			r.SetPK(id)
		}
	}
	return nil
}

func (e *MutationEngine) updateScalarFields(ctx context.Context, txn *store.Txn, r *NodeRecord) error {
	values := r.Payload()
	if len(values) == 0 {
		return nil
	}

	cols := make([]string, 0, len(values))
	for c := range values {
		cols = append(cols, c)
	}
	sort.Strings(cols)

	b := txn.Update(r.Table())
	for _, c := range cols {
		b = b.Set(c, values[c])
	}
	_, err := b.Where(sq.Eq{r.PKColumn(): r.PK()}).ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseFailure, err)
	}
	return nil
}

func matrixOrRoot(parent *NodeRecord) matrix.Matrix {
	if parent == nil {
		return pathcodec.RootMatrix()
	}
	m, err := parent.NodeMatrix()
	if err != nil {
		return pathcodec.RootMatrix()
	}
	return m
}

func pkEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == b
	}
	return fmt.Sprint(a) == fmt.Sprint(b)
}
