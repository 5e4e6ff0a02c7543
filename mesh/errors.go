package mesh

import "errors"

var (
	ErrIndexCount  = errors.New("mesh: index count is not a multiple of 3")
	ErrIndexRange  = errors.New("mesh: vertex index out of range")
	ErrNormalCount = errors.New("mesh: normal count does not match triangle count")
)
