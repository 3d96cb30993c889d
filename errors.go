package tether

import (
	"errors"
	"fmt"
)

// Sentinel kinds for client errors. Callers can match with errors.Is and
// inspect detail with errors.As against the typed wrappers below.
var (
	ErrConfiguration  = errors.New("configuration error")
	ErrValidation     = errors.New("validation error")
	ErrAuthentication = errors.New("authentication error")
	ErrTransport      = errors.New("transport error")

	// ErrUnknownRoute is returned when looking up a path that was never registered.
	ErrUnknownRoute = errors.New("unknown route")
)

// ConfigurationError reports an invalid registration: a duplicate path,
// an unsupported method name, or a malformed URL template.
type ConfigurationError struct {
	Path   string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Path == "" {
		return "configuration: " + e.Reason
	}
	return fmt.Sprintf("configuration: route %q: %s", e.Path, e.Reason)
}

func (e *ConfigurationError) Unwrap() error { return ErrConfiguration }

// ValidationError reports call arguments that do not satisfy the route
// definition. The request is rejected before any transport call.
type ValidationError struct {
	Route  string
	Param  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Param == "" {
		return fmt.Sprintf("validation: route %q: %s", e.Route, e.Reason)
	}
	return fmt.Sprintf("validation: route %q: parameter %q: %s", e.Route, e.Param, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// AuthenticationError wraps a failure from the configured authenticator.
// The request was not sent.
type AuthenticationError struct {
	Route string
	Err   error
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("authentication: route %q: %v", e.Route, e.Err)
}

func (e *AuthenticationError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrAuthentication}
	}
	return []error{ErrAuthentication, e.Err}
}

// TransportError reports a failed HTTP exchange or an error status from the
// remote API. Status is zero when the exchange never completed.
type TransportError struct {
	Method string
	URL    string
	Status int
	Body   string
	Err    error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("transport: %s %s: %v", e.Method, e.URL, e.Err)
	}
	return fmt.Sprintf("transport: %s %s: unexpected status %d", e.Method, e.URL, e.Status)
}

func (e *TransportError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrTransport}
	}
	return []error{ErrTransport, e.Err}
}
