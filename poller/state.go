package poller

import (
	"github.com/qmuntal/stateless"
)

type State string

const (
	StateNoArtifact  State = "no_artifact"
	StateHasArtifact State = "has_artifact"
	StateGivenUp     State = "given_up"
)

const (
	triggerReady  = "ready"
	triggerGiveUp = "give_up"
	triggerRetry  = "retry"
)

// newCertificateMachine tracks one certificate. HasArtifact is terminal,
// GivenUp only leaves on a manual retry or when an artifact shows up.
func newCertificateMachine() *stateless.StateMachine {
	machine := stateless.NewStateMachine(StateNoArtifact)

	machine.Configure(StateNoArtifact).
		Permit(triggerReady, StateHasArtifact).
		Permit(triggerGiveUp, StateGivenUp).
		Ignore(triggerRetry)

	machine.Configure(StateGivenUp).
		Permit(triggerRetry, StateNoArtifact).
		Permit(triggerReady, StateHasArtifact).
		Ignore(triggerGiveUp)

	machine.Configure(StateHasArtifact).
		Ignore(triggerReady).
		Ignore(triggerGiveUp).
		Ignore(triggerRetry)

	return machine
}
