package topology

import (
	"errors"
	"strings"
)

// Problems reported inside a ValidationError. Match them with errors.Is.
var (
	ErrMasterMixed        = errors.New("master role cannot share a group with other roles")
	ErrMultipleRoles      = errors.New("a group must declare exactly one role")
	ErrNoRole             = errors.New("a group must declare a role")
	ErrUnknownRole        = errors.New("unknown role")
	ErrDuplicateMaster    = errors.New("at most one master group is allowed")
	ErrDuplicateClient    = errors.New("at most one client group is allowed")
	ErrNegativeReplicas   = errors.New("replicas must not be negative")
	ErrDuplicateIdentity  = errors.New("data group identity is not unique")
	ErrInvalidIdentity    = errors.New("identity must be a DNS label")
	ErrMissingLimit       = errors.New("resource limit is required")
	ErrInvalidQuantity    = errors.New("invalid resource quantity")
	ErrRequestAboveLimit  = errors.New("resource request exceeds limit")
	ErrInvalidStorage     = errors.New("invalid storage")
	ErrModeConflict       = errors.New("clusterSize and groups are mutually exclusive")
	ErrInvalidClusterSize = errors.New("clusterSize must be at least 1")
	ErrMalformed          = errors.New("malformed topology")
)

// ValidationError reports every problem found in a topology.
// The pass is aborted before any side effect when it is returned.
type ValidationError struct {
	Problems []error
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		msgs[i] = p.Error()
	}
	return "invalid topology: " + strings.Join(msgs, "; ")
}

// Unwrap exposes each problem to errors.Is and errors.As.
func (e *ValidationError) Unwrap() []error {
	return e.Problems
}

// IsValidationError reports whether err is or wraps a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
