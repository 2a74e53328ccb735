package pathcodec

import "github.com/hazelset/nestedset/matrix"

// MoveMatrixBuilder builds the single matrix that relocates an entire
// subtree from one parent to another. It holds no state; every Build call
// is a pure function of its arguments, the same value-type discipline
// squirrel's SelectBuilder uses for SQL fragments.
type MoveMatrixBuilder struct{}

// Build returns T = toParent * BumpMatrix(k) * fromParent^-1, the matrix
// such that for every node X of the moving subtree, T.Multiply(X) yields
// X's new matrix.
//
// fromParent is the matrix of the subtree's current parent, or
// pathcodec.RootMatrix() if the subtree is rooted at the forest top.
// toParent is the matrix of the destination parent (same root fallback),
// or — when the subtree is moving inside a target, becoming its last
// child — the target's own matrix; callers signal that case by passing the
// target's matrix as toParent, there is no separate "inside" flag on T
// itself. k is newLastSegment - oldLastSegment.
//
// det(T) is always +1: BumpMatrix has determinant 1, and toParent /
// fromParent each have determinant -1, so -1 * 1 * (1/-1) == 1. Left
// multiplying any determinant -1 node matrix by T therefore preserves
// determinant -1 across the whole subtree.
func (MoveMatrixBuilder) Build(fromParent, toParent matrix.Matrix, k int64) (matrix.Matrix, error) {
	fromInv, err := fromParent.Inverse()
	if err != nil {
		return matrix.Matrix{}, err
	}
	return toParent.Multiply(BumpMatrix(k)).Multiply(fromInv), nil
}
