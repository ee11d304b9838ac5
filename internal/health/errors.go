package health

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a settled failure.
type ErrorKind int

const (
	KindPlatformUnavailable ErrorKind = iota + 1
	KindTypeUnsupported
	KindAuthorizationFailed
	KindQueryFailed
	KindWriteFailed
)

// String provides a human-readable representation of the ErrorKind.
func (k ErrorKind) String() string {
	switch k {
	case KindPlatformUnavailable:
		return "PlatformUnavailable"
	case KindTypeUnsupported:
		return "TypeUnsupported"
	case KindAuthorizationFailed:
		return "AuthorizationFailed"
	case KindQueryFailed:
		return "QueryFailed"
	case KindWriteFailed:
		return "WriteFailed"
	default:
		return "Unknown"
	}
}

// Errors returned by Platform implementations.
var (
	ErrUnavailable     = errors.New("health data store unavailable")
	ErrUnknownType     = errors.New("unknown quantity type")
	ErrNotAuthorized   = errors.New("not authorized")
	ErrWriteNotGranted = errors.New("write access not granted")
)

// Failure is a typed, displayable error.
type Failure struct {
	Kind ErrorKind
	// Detail is suitable for direct display.
	Detail string
	Cause  error
}

// Error implements error.
func (f *Failure) Error() string {
	return f.Detail
}

// Unwrap returns the underlying cause.
func (f *Failure) Unwrap() error {
	return f.Cause
}

// Is matches another *Failure with the same Kind, so errors.Is can be used
// with the exported sentinels below.
func (f *Failure) Is(target error) bool {
	var t *Failure
	if !errors.As(target, &t) {
		return false
	}
	return t.Detail == "" && t.Cause == nil && t.Kind == f.Kind
}

// Kind sentinels for errors.Is.
var (
	ErrPlatformUnavailable = &Failure{Kind: KindPlatformUnavailable}
	ErrTypeUnsupported     = &Failure{Kind: KindTypeUnsupported}
	ErrAuthorizationFailed = &Failure{Kind: KindAuthorizationFailed}
	ErrQueryFailed         = &Failure{Kind: KindQueryFailed}
	ErrWriteFailed         = &Failure{Kind: KindWriteFailed}
)

// PlatformUnavailable builds the failure for a device without a health store.
func PlatformUnavailable() *Failure {
	return &Failure{
		Kind:   KindPlatformUnavailable,
		Detail: "Health data is not available on this device.",
		Cause:  ErrUnavailable,
	}
}

// TypeUnsupported builds the failure for a metric the store cannot resolve.
func TypeUnsupported(m MetricType) *Failure {
	return &Failure{
		Kind:   KindTypeUnsupported,
		Detail: fmt.Sprintf("Unable to create %s quantity type.", Describe(m).Noun),
		Cause:  fmt.Errorf("%w: %s", ErrUnknownType, m),
	}
}

// AuthorizationFailed wraps a failed authorization request.
func AuthorizationFailed(cause error) *Failure {
	return &Failure{
		Kind:   KindAuthorizationFailed,
		Detail: fmt.Sprintf("Failed to get health data authorization: %v", cause),
		Cause:  cause,
	}
}

// QueryFailed wraps a failed aggregate query.
func QueryFailed(m MetricType, cause error) *Failure {
	return &Failure{
		Kind:   KindQueryFailed,
		Detail: fmt.Sprintf("Failed to fetch %s: %v", Describe(m).Noun, cause),
		Cause:  cause,
	}
}

// WriteFailed wraps a failed sample write.
func WriteFailed(cause error) *Failure {
	return &Failure{
		Kind:   KindWriteFailed,
		Detail: fmt.Sprintf("Failed to save test data: %v", cause),
		Cause:  cause,
	}
}

// AsFailure extracts a *Failure from err, if any.
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}
