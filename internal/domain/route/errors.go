package route

import (
	"errors"
	"fmt"
)

// ErrNoRoute is returned by a DistanceService when the provider cannot compute
// a walking route between two points. The ranker treats it as "skip this
// candidate" rather than a run failure.
var ErrNoRoute = errors.New("no walking route between points")

// ValidationError indicates invalid caller input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// NewValidationError creates a new ValidationError.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{Message: message}
}

// AuthError indicates a credential or token refresh failure with the segment
// catalog provider. Fatal for the run.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string { return fmt.Sprintf("catalog authentication failed: %v", e.Err) }

func (e *AuthError) Unwrap() error { return e.Err }

// NewAuthError creates a new AuthError wrapping the underlying cause.
func NewAuthError(err error) *AuthError {
	return &AuthError{Err: err}
}

// DiscoveryExhaustedError indicates that bounding-box doubling hit its cap
// without the catalog returning any segments.
type DiscoveryExhaustedError struct {
	Doublings  int
	LastDiagKm float64
}

func (e *DiscoveryExhaustedError) Error() string {
	return fmt.Sprintf("no segments found after %d bounding-box doublings (final diagonal %.1f km)",
		e.Doublings, e.LastDiagKm)
}

// NoViableCandidateError indicates that every ranked candidate failed its
// walking-distance lookup.
type NoViableCandidateError struct {
	Candidates int
}

func (e *NoViableCandidateError) Error() string {
	return fmt.Sprintf("all %d ranked candidates failed walking-distance lookup", e.Candidates)
}

// IterationLimitError indicates the assembler hit its outer iteration cap
// before accumulating the target distance.
type IterationLimitError struct {
	Limit      int
	ReachedKm  float64
	TargetKm   float64
}

func (e *IterationLimitError) Error() string {
	return fmt.Sprintf("assembler stopped after %d iterations with %.2f of %.2f km accumulated",
		e.Limit, e.ReachedKm, e.TargetKm)
}

// GatewayError indicates an external call failure not covered by the more
// specific errors above. Op identifies the originating call.
type GatewayError struct {
	Op  string
	Err error
}

func (e *GatewayError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }

func (e *GatewayError) Unwrap() error { return e.Err }

// NewGatewayError creates a new GatewayError for the named call.
func NewGatewayError(op string, err error) *GatewayError {
	return &GatewayError{Op: op, Err: err}
}
