package srm

import "errors"

// ErrInvalidInput is wrapped by every validation failure of Segment.
// No working arrays are allocated when it is returned.
var ErrInvalidInput = errors.New("srm: invalid input")
