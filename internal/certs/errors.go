package certs

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by Store.Load when no bundle exists.
	ErrNotFound = errors.New("certificate bundle not found")

	// ErrAlreadyExists is returned by Store.Save when a bundle already exists.
	ErrAlreadyExists = errors.New("certificate bundle already exists")
)

// Reason classifies a CertificateError.
type Reason string

const (
	ReasonCorrupt Reason = "corrupt"
	ReasonExpired Reason = "expired"
)

// CertificateError reports persisted material that cannot be used as is.
type CertificateError struct {
	Identity string
	Reason   Reason
	Err      error
}

func (e *CertificateError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("certificate bundle %q is %s", e.Identity, e.Reason)
	}
	return fmt.Sprintf("certificate bundle %q is %s: %v", e.Identity, e.Reason, e.Err)
}

func (e *CertificateError) Unwrap() error {
	return e.Err
}

// IsCorrupt reports whether err is a CertificateError for corrupt material.
func IsCorrupt(err error) bool {
	var ce *CertificateError
	return errors.As(err, &ce) && ce.Reason == ReasonCorrupt
}

// IsExpired reports whether err is a CertificateError for expired material.
func IsExpired(err error) bool {
	var ce *CertificateError
	return errors.As(err, &ce) && ce.Reason == ReasonExpired
}
