package gateway

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidArgument is returned before any network call when an operation
// is missing a required parameter.
var ErrInvalidArgument = errors.New("invalid argument")

// FailureKind classifies why one candidate was rejected.
type FailureKind string

const (
	KindTransport  FailureKind = "transport"
	KindHTTPStatus FailureKind = "http_status"
	KindAuth       FailureKind = "auth"
	KindStructural FailureKind = "structural"
)

// Failure is the diagnostic record of one rejected candidate.
type Failure struct {
	Candidate  string      `json:"candidate"`
	Kind       FailureKind `json:"kind"`
	StatusCode int         `json:"statusCode,omitempty"`
	Reason     string      `json:"reason"`
}

func (f Failure) String() string {
	if f.StatusCode != 0 {
		return fmt.Sprintf("%s: %s (%d): %s", f.Candidate, f.Kind, f.StatusCode, f.Reason)
	}
	return fmt.Sprintf("%s: %s: %s", f.Candidate, f.Kind, f.Reason)
}

// TransportError covers refused connections, DNS failures and attempt
// timeouts.
type TransportError struct {
	Candidate string
	Err       error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: transport: %v", e.Candidate, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// HTTPStatusError is a non-2xx reply other than 401/403.
type HTTPStatusError struct {
	Candidate  string
	StatusCode int
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("%s: http %d: %s", e.Candidate, e.StatusCode, e.Body)
}

// UpstreamAuthError is a 401 or 403 reply.
type UpstreamAuthError struct {
	Candidate  string
	StatusCode int
	Body       string
}

func (e *UpstreamAuthError) Error() string {
	return fmt.Sprintf("%s: auth rejected (%d): %s", e.Candidate, e.StatusCode, e.Body)
}

// StructuralMismatchError is a 2xx reply whose body the normalizer does not
// recognize for the operation.
type StructuralMismatchError struct {
	Candidate string
	Reason    string
}

func (e *StructuralMismatchError) Error() string {
	return fmt.Sprintf("%s: unrecognized response: %s", e.Candidate, e.Reason)
}

// CascadeExhaustedError is returned when every candidate of an operation
// failed. Failures holds one entry per attempted candidate in probe order.
type CascadeExhaustedError struct {
	Operation Operation
	Failures  []Failure
}

func (e *CascadeExhaustedError) Error() string {
	reasons := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		reasons[i] = f.String()
	}
	return fmt.Sprintf("%s: all %d candidates failed: %s", e.Operation, len(e.Failures), strings.Join(reasons, "; "))
}

// HasTransportFailure reports whether any candidate failed at the transport
// level, which is the only case worth re-running the cascade for.
func (e *CascadeExhaustedError) HasTransportFailure() bool {
	for _, f := range e.Failures {
		if f.Kind == KindTransport {
			return true
		}
	}
	return false
}

func failureFrom(err error) Failure {
	var (
		te *TransportError
		he *HTTPStatusError
		ae *UpstreamAuthError
		se *StructuralMismatchError
	)
	switch {
	case errors.As(err, &te):
		return Failure{Candidate: te.Candidate, Kind: KindTransport, Reason: te.Err.Error()}
	case errors.As(err, &ae):
		return Failure{Candidate: ae.Candidate, Kind: KindAuth, StatusCode: ae.StatusCode, Reason: ae.Body}
	case errors.As(err, &he):
		return Failure{Candidate: he.Candidate, Kind: KindHTTPStatus, StatusCode: he.StatusCode, Reason: he.Body}
	case errors.As(err, &se):
		return Failure{Candidate: se.Candidate, Kind: KindStructural, Reason: se.Reason}
	default:
		return Failure{Kind: KindTransport, Reason: err.Error()}
	}
}
