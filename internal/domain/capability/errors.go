package capability

import (
	"errors"
	"fmt"
)

// Sentinel errors for programmatic error handling.
var (
	// ErrEmptyCapabilityID indicates a registration with no identity.
	ErrEmptyCapabilityID = errors.New("capability id cannot be empty")
	// ErrNilProvider indicates a registration with a nil provider.
	ErrNilProvider = errors.New("capability provider cannot be nil")
)

// ConflictError indicates a capability identity already has a live
// provider. The first provider stays resolvable; the second registration
// fails.
type ConflictError struct {
	ID    string
	Owner string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("capability %q already registered by %q", e.ID, e.Owner)
}

// IsConflict returns true if the error indicates a duplicate registration.
func IsConflict(err error) bool {
	var conflictErr *ConflictError
	return errors.As(err, &conflictErr)
}

// NotFoundError indicates no provider is registered for an identity.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("capability %q not registered", e.ID)
}

// IsNotFound returns true if the error indicates an unregistered identity.
func IsNotFound(err error) bool {
	var notFoundErr *NotFoundError
	return errors.As(err, &notFoundErr)
}

// VersionError indicates a registered provider does not meet the
// consumer's minimum API version.
type VersionError struct {
	ID   string
	Have string
	Want string
}

func (e *VersionError) Error() string {
	return fmt.Sprintf("capability %q version %s does not meet minimum %s", e.ID, e.Have, e.Want)
}

// IsVersionError returns true if the error indicates an API version
// mismatch.
func IsVersionError(err error) bool {
	var versionErr *VersionError
	return errors.As(err, &versionErr)
}
