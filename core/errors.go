package core

import "errors"

// Validation failures raised by the dialogue layer. All of them are local to
// a single inbound message: the message is rejected and reported, the agent
// keeps running. Callers match them with errors.Is.
var (
	// ErrInvalidTransition reports a performative that is not in the
	// allowed-next set for the dialogue's last performative.
	ErrInvalidTransition = errors.New("invalid performative transition")

	// ErrInvalidReference reports a message whose id/target pair does not
	// line up with the dialogue's message sequence.
	ErrInvalidReference = errors.New("invalid message id or target")

	// ErrDialogueEnded reports an update against a dialogue that has already
	// received a terminal performative.
	ErrDialogueEnded = errors.New("dialogue has ended")

	// ErrUnknownDialogue reports a message that matches no registered
	// dialogue and is not a valid dialogue-opening message.
	ErrUnknownDialogue = errors.New("unknown dialogue")

	// ErrLabelCollision reports an attempt to register a dialogue under a
	// complete label already held by a different dialogue. This is always a
	// caller or protocol bug and is never resolved silently.
	ErrLabelCollision = errors.New("dialogue label collision")

	// ErrLabelAlreadyComplete reports an attempt to complete an
	// already-complete label with a different responder reference, i.e. a
	// protocol violation by the counterparty.
	ErrLabelAlreadyComplete = errors.New("dialogue label already complete")
)
