package errs

import (
	"errors"
	"fmt"
	"strings"
)

// ConfigError reports a credential that could not be resolved from the
// environment. Placeholder distinguishes a value left as an unexpanded
// template token (e.g. "${FASTMAIL_API_TOKEN}") from one that was never set.
type ConfigError struct {
	// Keys are the environment variables that were consulted, in priority
	// order. For a placeholder error only the offending key is present.
	Keys        []string
	Placeholder bool
}

func (e *ConfigError) Error() string {
	if e.Placeholder {
		return fmt.Sprintf("%s is set to an unexpanded placeholder; replace it with a real value", e.Keys[0])
	}
	if len(e.Keys) == 1 {
		return fmt.Sprintf("%s is not set", e.Keys[0])
	}
	return fmt.Sprintf("none of %s is set", strings.Join(e.Keys, ", "))
}

// ValidationError reports a malformed or missing tool argument. It is always
// produced before any network call.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("'%s' field is required", e.Field)
	}
	return fmt.Sprintf("invalid '%s': %s", e.Field, e.Reason)
}

// AuthError reports that a backend rejected the configured credentials.
// There is no automatic retry.
type AuthError struct {
	Backend string
	Status  int
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s rejected credentials (HTTP %d)", e.Backend, e.Status)
}

// NetworkError wraps a transport-level failure talking to a backend.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ProtocolError is an error-typed result inside an otherwise successful
// batch response. Type carries the backend's error type verbatim.
type ProtocolError struct {
	Method      string
	Type        string
	Description string
}

func (e *ProtocolError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("%s failed: %s (%s)", e.Method, e.Type, e.Description)
	}
	return fmt.Sprintf("%s failed: %s", e.Method, e.Type)
}

// NotFoundError reports that a required get found nothing. Lookup operations
// where absence is a normal outcome return a nil result instead.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

// CapabilityError reports that the session does not advertise a capability
// required by the operation.
type CapabilityError struct {
	Capability string
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("account does not advertise capability %s", e.Capability)
}

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsConfig reports whether err is (or wraps) a ConfigError.
func IsConfig(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}
