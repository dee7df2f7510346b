// Package gateway defines the outbound messaging collaborator used to
// reach field assets. The tracker records operator intent locally
// before calling it; a gateway failure never rolls a recording back.
package gateway

import (
	"context"
	"fmt"
)

// Known provider error codes the caller has to interpret.
const (
	// ErrCodeNotAuthoritative is returned when a third-party emergency
	// provider owns the incident, so our acknowledgement does not
	// apply. Callers treat it as a soft success.
	ErrCodeNotAuthoritative = "ERR_NOT_AUTHORITATIVE"

	ErrCodeSendFailed = "ERR_SEND_FAILED"
	ErrCodeTimeout    = "ERR_TIMEOUT"
)

// Interface is implemented by outbound messaging gateways.
type Interface interface {
	Send(ctx context.Context, deviceID, text string) error
	AcknowledgeSOS(ctx context.Context, deviceID string) error
}

// Error carries the provider-specific code of a failed gateway call.
type Error struct {
	Code    string
	Details interface{}
}

func NewError(code string, details interface{}) error {
	return &Error{
		Code:    code,
		Details: details,
	}
}

func (e *Error) Error() string {
	return fmt.Sprintf("gateway call failed: reason: %s", e.Code)
}

// IsNotAuthoritative reports whether the error is the provider telling
// us it owns the incident.
func IsNotAuthoritative(err error) bool {
	e, ok := err.(*Error)
	return ok && e.Code == ErrCodeNotAuthoritative
}
