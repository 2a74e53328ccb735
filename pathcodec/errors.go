package pathcodec

import "errors"

// ErrInvalidSegment is returned by SegmentMatrix when asked for a
// non-positive path segment, and by AncestorMatrices when a ratio decodes
// to one. FromPath and the other path-string functions reject such a
// segment earlier, with ErrInvalidPath. Parent does not return it: a matrix
// whose last segment is not positive is reported as having no parent.
var ErrInvalidSegment = errors.New("pathcodec: path segment must be a positive integer")

// ErrInvalidPath is returned when a dotted path string cannot be parsed:
// empty, containing a non-numeric segment, or containing the forbidden
// segment "0".
var ErrInvalidPath = errors.New("pathcodec: malformed path")

// ErrMalformedRatio is returned by AncestorMatrices when the numerator or
// denominator it is given is not positive. Other pairs that FromPath could
// not have produced are not all detected: a pair that is not in lowest
// terms decodes as its reduced form, and a ratio below 1 fails with
// ErrInvalidSegment.
var ErrMalformedRatio = errors.New("pathcodec: left boundary ratio does not correspond to a valid node")
