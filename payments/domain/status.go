package domain

import (
	"errors"
	"fmt"

	"github.com/qmuntal/stateless"
)

type Status string

const (
	StatusRequiresAction Status = "requires_action"
	StatusProcessing     Status = "processing"
	StatusSucceeded      Status = "succeeded"
	StatusFailed         Status = "failed"
	StatusCanceled       Status = "canceled"
)

var (
	ErrInvalidStatus     = errors.New("invalid payment intent status")
	ErrInvalidTransition = errors.New("invalid payment intent status transition")
	ErrSameStatus        = errors.New("payment intent already in status")
)

// IsTerminal reports whether no further transition is allowed out of s.
func (s Status) IsTerminal() bool {
	return s == StatusSucceeded || s == StatusFailed || s == StatusCanceled
}

func (s Status) Valid() bool {
	switch s {
	case StatusRequiresAction, StatusProcessing, StatusSucceeded, StatusFailed, StatusCanceled:
		return true
	default:
		return false
	}
}

const (
	triggerProcess = "process"
	triggerSucceed = "succeed"
	triggerFail    = "fail"
	triggerCancel  = "cancel"
	triggerInvalid = "invalid"
)

func newStatusMachine(initial Status) *stateless.StateMachine {
	machine := stateless.NewStateMachine(initial)

	machine.Configure(StatusRequiresAction).
		Permit(triggerProcess, StatusProcessing).
		Permit(triggerSucceed, StatusSucceeded).
		Permit(triggerFail, StatusFailed).
		Permit(triggerCancel, StatusCanceled)

	machine.Configure(StatusProcessing).
		Permit(triggerSucceed, StatusSucceeded).
		Permit(triggerFail, StatusFailed).
		Permit(triggerCancel, StatusCanceled)

	// terminal states permit nothing
	machine.Configure(StatusSucceeded)
	machine.Configure(StatusFailed)
	machine.Configure(StatusCanceled)

	return machine
}

func triggerFor(to Status) string {
	switch to {
	case StatusProcessing:
		return triggerProcess
	case StatusSucceeded:
		return triggerSucceed
	case StatusFailed:
		return triggerFail
	case StatusCanceled:
		return triggerCancel
	default:
		return triggerInvalid
	}
}

// Transition validates moving a payment intent from one status to another.
// Statuses only move forward; terminal statuses never change. A transition to
// the current status returns ErrSameStatus so callers can suppress replays.
func Transition(from, to Status) error {
	if !from.Valid() || !to.Valid() {
		return fmt.Errorf("%w: %q -> %q", ErrInvalidStatus, from, to)
	}

	if from == to {
		return fmt.Errorf("%w %s", ErrSameStatus, to)
	}

	if err := newStatusMachine(from).Fire(triggerFor(to)); err != nil {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}

	return nil
}
