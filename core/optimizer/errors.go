package optimizer

import "errors"

// ErrConstraintViolation marks an attempted commit that would break the hard
// calendar availability rule. It is a defect signal: the engine aborts the
// offending assignment and reports it loudly instead of proceeding.
var ErrConstraintViolation = errors.New("constraint violation attempted")
