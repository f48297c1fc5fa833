package core

import "fmt"

// Address identifies one addressable party in a conversation. The engine
// treats addresses as opaque identifiers; resolution to network endpoints is
// the transport collaborator's concern.
type Address string

// Performative is the speech-act tag of a Message (e.g. propose, accept,
// error). Legal successors of a performative are defined by the Ruleset of
// the protocol in use, never by the engine itself.
type Performative string

// UnassignedReference is the reserved placeholder used for a dialogue
// reference slot whose real value is not yet known. A starter initiates a
// conversation with the responder slot unassigned; the first valid reply
// supplies the concrete responder reference.
const UnassignedReference = ""

// DialogueReference is the pair of per-party references carried by every
// message of a dialogue. The starter reference is assigned when the
// conversation is opened; the responder reference starts out unassigned and
// is filled in by the counterparty.
type DialogueReference struct {
	StarterReference   string `json:"starter_reference"`
	ResponderReference string `json:"responder_reference"`
}

// Complete reports whether both sides of the reference are assigned.
func (r DialogueReference) Complete() bool {
	return r.ResponderReference != UnassignedReference
}

// String renders the reference pair for logs and error messages.
func (r DialogueReference) String() string {
	responder := r.ResponderReference
	if responder == UnassignedReference {
		responder = "<unassigned>"
	}
	return fmt.Sprintf("(%s, %s)", r.StarterReference, responder)
}

// Message is an immutable unit of conversation: an opaque payload plus the
// correlation metadata the engine needs to match it to exactly one dialogue.
//
// Invariants enforced by the dialogue layer:
//   - MessageID is strictly increasing within a dialogue, starting at 1
//   - Target is 0 only for the opening message; for every later message it
//     must equal the id of a message already present in the same dialogue
//
// Payload is never inspected by this module.
type Message struct {
	Performative Performative      `json:"performative"`
	Reference    DialogueReference `json:"dialogue_reference"`
	MessageID    int               `json:"message_id"`
	Target       int               `json:"target"`
	Sender       Address           `json:"sender"`
	To           Address           `json:"to"`
	Payload      any               `json:"payload,omitempty"`
}

// First reports whether the message carries the id/target shape of a
// dialogue-opening message.
func (m Message) First() bool {
	return m.MessageID == 1 && m.Target == 0
}

// Envelope is the transport-level wrapper around a Message carrying routing
// addresses. Transports deliver envelopes; the engine consumes them.
type Envelope struct {
	To      Address `json:"to"`
	Sender  Address `json:"sender"`
	Message Message `json:"message"`
}

// Outbox is the outbound delivery contract consumed by the core. Put is
// fire-and-forget: delivery failures are reported asynchronously through the
// inbound path using a protocol-level error performative, not through a
// distinct exception path.
type Outbox interface {
	Put(env Envelope)
}

// OutboxFunc adapts a plain function to the Outbox interface.
type OutboxFunc func(env Envelope)

// Put calls f(env).
func (f OutboxFunc) Put(env Envelope) { f(env) }
