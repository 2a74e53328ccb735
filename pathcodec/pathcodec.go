// Package pathcodec implements the bijection between dotted-decimal tree
// paths ("2.4.3") and the 2x2 integer matrices of package matrix, following
// Dan Hazel's rational-numbers keying of nested sets. Every node's left and
// right boundary can be derived from its matrix in O(1), its level by
// walking parent matrices, and the ancestor chain of a node can be recovered from nothing but its left
// boundary's numerator and denominator, without touching the database.
package pathcodec

import (
	"strconv"
	"strings"

	"github.com/hazelset/nestedset/matrix"
)

// RootMatrix is M0 = (0,1,1,0), the algebraic origin of the forest. It is
// the "swap" matrix, deliberately not the identity: every node matrix is
// built by left-multiplying successive segment matrices onto it.
func RootMatrix() matrix.Matrix {
	return matrix.New(0, 1, 1, 0)
}

// SegmentMatrix returns S(n) = (1, 1, n, n+1), the matrix that descends
// into the n-th child when left-multiplied onto a parent's matrix.
func SegmentMatrix(n int64) (matrix.Matrix, error) {
	if n <= 0 {
		return matrix.Matrix{}, ErrInvalidSegment
	}
	return matrix.New(1, 1, n, n+1), nil
}

// BumpMatrix returns B(k) = (1, 0, k, 1), which shifts a node's last
// segment by k (positive, zero, or negative) when left-multiplied onto it.
func BumpMatrix(k int64) matrix.Matrix {
	return matrix.New(1, 0, k, 1)
}

// ParseSegments splits a dotted path into its integer segments, rejecting
// the empty path, non-numeric segments, and the forbidden segment 0.
func ParseSegments(path string) ([]int64, error) {
	if path == "" {
		return nil, ErrInvalidPath
	}
	parts := strings.Split(path, ".")
	segments := make([]int64, len(parts))
	for i, p := range parts {
		n, err := strconv.ParseInt(p, 10, 64)
		if err != nil || n <= 0 {
			return nil, ErrInvalidPath
		}
		segments[i] = n
	}
	return segments, nil
}

// FromPath folds RootMatrix left-multiplied by SegmentMatrix(s) for every
// segment s of path, in order, producing path's canonical matrix.
func FromPath(path string) (matrix.Matrix, error) {
	segments, err := ParseSegments(path)
	if err != nil {
		return matrix.Matrix{}, err
	}
	return fromSegments(segments)
}

func fromSegments(segments []int64) (matrix.Matrix, error) {
	m := RootMatrix()
	for _, s := range segments {
		sm, err := SegmentMatrix(s)
		if err != nil {
			return matrix.Matrix{}, err
		}
		m = m.Multiply(sm)
	}
	return m, nil
}

// LastSegmentOfMatrix returns floor(A / (B - A)), the final dotted
// component encoded by m.
func LastSegmentOfMatrix(m matrix.Matrix) int64 {
	return floorDiv(m.A, m.B-m.A)
}

// LastSegmentOfPath parses the final dotted component of path directly.
func LastSegmentOfPath(path string) (int64, error) {
	segments, err := ParseSegments(path)
	if err != nil {
		return 0, err
	}
	return segments[len(segments)-1], nil
}

// Parent computes M * SegmentMatrix(LastSegmentOfMatrix(M))^-1 and reports
// whether the result is a genuine parent matrix. It returns false, by
// construction, exactly when m is a root node's matrix: the "parent" it
// would compute degenerates (C <= 0, D <= 0, or resulting A <= 0).
func Parent(m matrix.Matrix) (matrix.Matrix, bool) {
	last := LastSegmentOfMatrix(m)
	sm, err := SegmentMatrix(last)
	if err != nil {
		return matrix.Matrix{}, false
	}
	inv, err := sm.Inverse()
	if err != nil {
		return matrix.Matrix{}, false
	}
	p := m.Multiply(inv)
	if p.C <= 0 || p.D <= 0 || p.A <= 0 {
		return matrix.Matrix{}, false
	}
	return p, true
}

// ToPath extracts path segments by repeatedly taking LastSegmentOfMatrix(m)
// and replacing m with Parent(m) until Parent reports no parent, then
// reverses the collected segments to obtain the top-down path.
func ToPath(m matrix.Matrix) (string, error) {
	var segments []int64
	cur := m
	for {
		segments = append(segments, LastSegmentOfMatrix(cur))
		parent, ok := Parent(cur)
		if !ok {
			break
		}
		cur = parent
	}
	if len(segments) == 0 {
		return "", ErrInvalidPath
	}
	reverse(segments)
	return joinSegments(segments), nil
}

// Left returns A/C, the node's left boundary.
func Left(m matrix.Matrix) float64 {
	return float64(m.A) / float64(m.C)
}

// Right returns B/D, the node's right boundary.
func Right(m matrix.Matrix) float64 {
	return float64(m.B) / float64(m.D)
}

// LevelOfPath returns the number of dotted segments in path.
func LevelOfPath(path string) (int, error) {
	segments, err := ParseSegments(path)
	if err != nil {
		return 0, err
	}
	return len(segments), nil
}

// LevelOfMatrix returns the level encoded by m, i.e. len(ToPath(m)'s
// segments), computed by walking Parent without ever materializing the
// path string.
func LevelOfMatrix(m matrix.Matrix) int {
	level := 1
	cur := m
	for {
		parent, ok := Parent(cur)
		if !ok {
			return level
		}
		cur = parent
		level++
	}
}

// BasePath drops the last segment of path. The base of a root path is "".
func BasePath(path string) (string, error) {
	segments, err := ParseSegments(path)
	if err != nil {
		return "", err
	}
	if len(segments) == 1 {
		return "", nil
	}
	return joinSegments(segments[:len(segments)-1]), nil
}

// AncestorPaths returns the strict dotted prefixes of path, root first,
// direct parent last. It never touches the database.
func AncestorPaths(path string) ([]string, error) {
	segments, err := ParseSegments(path)
	if err != nil {
		return nil, err
	}
	ancestors := make([]string, 0, len(segments)-1)
	for i := 1; i < len(segments); i++ {
		ancestors = append(ancestors, joinSegments(segments[:i]))
	}
	return ancestors, nil
}

// IsAncestorOf reports whether ancestor is a strict dotted prefix of
// descendant.
func IsAncestorOf(ancestor, descendant string) bool {
	if ancestor == descendant {
		return false
	}
	return strings.HasPrefix(descendant, ancestor+".")
}

// AncestorMatrices enumerates, root-to-direct-parent, the ancestor matrices
// of the node whose left boundary is numerator/denominator == a/c, using a
// Euclidean-style recurrence on (a, c) alone. It never loads a row or a
// path string: a and c are exactly the values a caller would have read out
// of the left column of an index scan.
//
// The recurrence relies on a property of this particular matrix family: the
// continued-fraction expansion of a/c, computed by the ordinary Euclidean
// algorithm, has odd length 2L-1 for a node at level L, and its
// even-indexed terms (0, 2, 4, ...) are exactly that node's path segments.
// The odd-indexed terms are always 1. When the Euclidean algorithm
// naturally terminates at an even length, the trailing term is split into
// (term-1, 1) to restore that canonical odd form; this is the ordinary
// ambiguity of continued fraction representations ([...,n] == [...,n-1,1]).
func AncestorMatrices(a, c int64) ([]matrix.Matrix, error) {
	segments, err := segmentsFromRatio(a, c)
	if err != nil {
		return nil, err
	}
	ancestors := make([]matrix.Matrix, 0, len(segments)-1)
	m := RootMatrix()
	for i := 0; i < len(segments)-1; i++ {
		sm, err := SegmentMatrix(segments[i])
		if err != nil {
			return nil, err
		}
		m = m.Multiply(sm)
		ancestors = append(ancestors, m)
	}
	return ancestors, nil
}

func segmentsFromRatio(a, c int64) ([]int64, error) {
	if a <= 0 || c <= 0 {
		return nil, ErrMalformedRatio
	}
	quotients := quotientsForRatio(a, c)
	if len(quotients)%2 == 0 {
		last := quotients[len(quotients)-1]
		if last < 1 {
			return nil, ErrMalformedRatio
		}
		quotients[len(quotients)-1] = last - 1
		quotients = append(quotients, 1)
	}
	segments := make([]int64, 0, (len(quotients)+1)/2)
	for i := 0; i < len(quotients); i += 2 {
		segments = append(segments, quotients[i])
	}
	return segments, nil
}

// quotientsForRatio runs the standard Euclidean algorithm on a/c, returning
// the sequence of successive quotients (the continued-fraction expansion of
// a/c in its "division algorithm" canonical form).
func quotientsForRatio(a, c int64) []int64 {
	var quotients []int64
	x, y := a, c
	for y != 0 {
		quotients = append(quotients, x/y)
		x, y = y, x%y
	}
	return quotients
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func reverse(s []int64) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

func joinSegments(segments []int64) string {
	parts := make([]string, len(segments))
	for i, s := range segments {
		parts[i] = strconv.FormatInt(s, 10)
	}
	return strings.Join(parts, ".")
}
