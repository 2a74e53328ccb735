// Package matrix implements the immutable 2x2 integer matrix algebra that
// the nested-set positional encoding is built on. Every node of a forest is
// identified with a matrix of determinant -1; left-multiplying such a matrix
// by a constant matrix relocates an entire subtree in one step (see the
// pathcodec package for the encoding itself).
package matrix

// Matrix is an immutable 2x2 matrix of 64-bit integers, laid out as
//
//	| A B |
//	| C D |
//
// Every operation returns a new Matrix; no method mutates the receiver.
type Matrix struct {
	A, B, C, D int64
}

// New builds a Matrix from its four components.
func New(a, b, c, d int64) Matrix {
	return Matrix{A: a, B: b, C: c, D: d}
}

// Identity is the multiplicative identity, included for completeness; the
// nested-set algebra itself never seeds from it (see pathcodec.RootMatrix).
var Identity = Matrix{A: 1, B: 0, C: 0, D: 1}

// Multiply returns the standard 2x2 matrix product m*n. Matrix
// multiplication is not commutative: Multiply(n) and n.Multiply(m) differ
// in general.
func (m Matrix) Multiply(n Matrix) Matrix {
	return Matrix{
		A: m.A*n.A + m.B*n.C,
		B: m.A*n.B + m.B*n.D,
		C: m.C*n.A + m.D*n.C,
		D: m.C*n.B + m.D*n.D,
	}
}

// Scale multiplies every component by k. It exists only to support the
// floating-point fallback branch of Inverse and should not appear on any
// hot path of the positional algebra.
func (m Matrix) Scale(k float64) Matrix {
	return Matrix{
		A: int64(float64(m.A) * k),
		B: int64(float64(m.B) * k),
		C: int64(float64(m.C) * k),
		D: int64(float64(m.D) * k),
	}
}

// Adjugate returns (D, -B, -C, A).
func (m Matrix) Adjugate() Matrix {
	return Matrix{A: m.D, B: -m.B, C: -m.C, D: m.A}
}

// Determinant returns A*D - B*C.
func (m Matrix) Determinant() int64 {
	return m.A*m.D - m.B*m.C
}

// Transpose returns (A, C, B, D).
func (m Matrix) Transpose() Matrix {
	return Matrix{A: m.A, B: m.C, C: m.B, D: m.D}
}

// Inverse returns m's multiplicative inverse.
//
// When det(m) is +1 or -1 the inverse stays in the integers: every cell of
// the adjugate divides exactly by det. This is the hot path used throughout
// the nested-set algebra, where every reachable node matrix has det -1 by
// construction. Any other determinant falls back to floating-point
// adjugate/det arithmetic; that branch is defensive tooling only and must
// never be reached while processing a well-formed tree.
func (m Matrix) Inverse() (Matrix, error) {
	det := m.Determinant()
	if det == 1 || det == -1 {
		adj := m.Adjugate()
		return Matrix{A: adj.A / det, B: adj.B / det, C: adj.C / det, D: adj.D / det}, nil
	}
	if det == 0 {
		return Matrix{}, ErrSingular
	}
	return m.Adjugate().Scale(1 / float64(det)), nil
}

// Equal reports whether m and n have identical components.
func (m Matrix) Equal(n Matrix) bool {
	return m.A == n.A && m.B == n.B && m.C == n.C && m.D == n.D
}
