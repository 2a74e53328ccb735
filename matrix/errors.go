package matrix

import "errors"

// ErrSingular is returned by Inverse when the determinant is zero and no
// fallback floating-point inverse can be produced.
var ErrSingular = errors.New("matrix: singular matrix, determinant is zero")
