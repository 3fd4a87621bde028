package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for simple conditions without extra context.
var (
	ErrOrderNotFound    = errors.New("order not found")
	ErrProfileNotFound  = errors.New("profile not found")
	ErrPlatformNotFound = errors.New("platform not found")
	ErrConcurrentUpdate = errors.New("order was modified concurrently")
	// ErrExpectedStatusRequired rejects advance/revert sent without the
	// status the caller saw.
	ErrExpectedStatusRequired = errors.New("advance and revert require the expected status")
)

// DenialReason distinguishes why an access check failed.
type DenialReason string

const (
	DenialNotYourOrder DenialReason = "not_your_order"
	DenialWrongStage   DenialReason = "wrong_stage"
	DenialCannotView   DenialReason = "cannot_view"
	DenialRoleRequired DenialReason = "role_required"
)

// AccessDeniedError is returned when an actor fails an access policy check.
type AccessDeniedError struct {
	Reason DenialReason
	Role   Role
	Status Status
}

func (e *AccessDeniedError) Error() string {
	switch e.Reason {
	case DenialNotYourOrder:
		return "access denied: not your order"
	case DenialWrongStage:
		return fmt.Sprintf("access denied: role %q cannot act on this order at stage %q", e.Role, e.Status)
	case DenialCannotView:
		return "access denied: order is not visible to you"
	case DenialRoleRequired:
		return fmt.Sprintf("access denied: role %q required", e.Role)
	}
	return "access denied"
}

// TransitionError is returned when an action does not apply to the
// order's current status.
type TransitionError struct {
	Action  Action
	Current Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("action %q is not valid from status %q", e.Action, e.Current)
}

// PreconditionError reports a rule whose precondition is unmet. The engine
// turns it into a soft reject rather than a failure.
type PreconditionError struct {
	Precondition Precondition
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("precondition unmet: %s", e.Precondition.Reason())
}
