package utils

import "errors"

// Failure classes shared by every package of the evaluator. They are never
// recovered from locally; wrap them with fmt.Errorf("...: %w", Err...) and
// let the caller abort the formulation build.
var (
	ErrEmptyContainer      = errors.New("operation on an empty container")
	ErrMissingCoefficient  = errors.New("missing coefficient")
	ErrDimensionMismatch   = errors.New("dimension mismatch")
	ErrUnresolvedReference = errors.New("unresolved reference")
	ErrUnevaluable         = errors.New("node cannot be evaluated")
)
