package tracer

import "errors"

var (
	ErrNoTracers     = errors.New("tracer: no tracers attached")
	ErrTargetMissing = errors.New("tracer: no query target defined")
	ErrInterrupted   = errors.New("tracer: interrupted while tracing")
)
