package common

import "errors"

var (
	ErrorInvalidValue  = errors.New("invalid value")
	ErrorBadShape      = errors.New("bad matrix shape")
	ErrorUnknownName   = errors.New("unknown name")
	ErrorNoConvergence = errors.New("no convergence")
)
