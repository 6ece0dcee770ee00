package apply

import (
	"errors"
	"fmt"
	"strings"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	utilnet "k8s.io/apimachinery/pkg/util/net"

	"github.com/imamik/estopo/internal/topology"
)

var (
	// ErrTransient marks a platform error as retryable.
	ErrTransient = errors.New("transient platform error")

	// ErrDependencyFailed is the cause of units skipped because a tier
	// they depend on failed.
	ErrDependencyFailed = errors.New("dependency failed")

	// ErrMastersNotReady is returned when master quorum was not reached
	// within the readiness timeout.
	ErrMastersNotReady = errors.New("masters did not reach quorum")
)

// ApplyError reports a unit the platform rejected or failed to apply.
type ApplyError struct {
	Unit     string
	Role     topology.Role
	Attempts int
	Err      error
}

func (e *ApplyError) Error() string {
	if e.Attempts > 0 {
		return fmt.Sprintf("apply %s (%s) failed after %d attempt(s): %v", e.Unit, e.Role, e.Attempts, e.Err)
	}
	return fmt.Sprintf("apply %s (%s) skipped: %v", e.Unit, e.Role, e.Err)
}

func (e *ApplyError) Unwrap() error {
	return e.Err
}

// TimeoutError reports a pass cut short by its deadline.
type TimeoutError struct {
	// Abandoned lists units that were in flight or not yet started.
	Abandoned []string
	Err       error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("deadline exceeded, abandoned %d unit(s) [%s]: %v", len(e.Abandoned), strings.Join(e.Abandoned, ", "), e.Err)
}

func (e *TimeoutError) Unwrap() error {
	return e.Err
}

// IsTransient reports whether err is worth retrying.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTransient) {
		return true
	}
	switch {
	case apierrors.IsConflict(err),
		apierrors.IsServerTimeout(err),
		apierrors.IsTimeout(err),
		apierrors.IsTooManyRequests(err),
		apierrors.IsServiceUnavailable(err),
		apierrors.IsInternalError(err):
		return true
	}
	return utilnet.IsConnectionReset(err) || utilnet.IsConnectionRefused(err) || utilnet.IsProbableEOF(err)
}
