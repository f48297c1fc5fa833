package testutil

import (
	"github.com/hupe1980/dialoguemesh/core"
)

// MessageBuilder provides a fluent helper for constructing messages in tests.
// Example:
//
//	msg := NewMessageBuilder().From("buyer").To("seller").Performative("cfp").Build()
//
// Chain only the parts you need; sensible defaults produce a valid opening
// message (id 1, target 0) with an incomplete dialogue reference.
type MessageBuilder struct {
	performative core.Performative
	reference    core.DialogueReference
	messageID    int
	target       int
	sender       core.Address
	to           core.Address
	payload      any
}

// NewMessageBuilder creates a builder defaulting to an opening message with
// starter reference "ref-1".
func NewMessageBuilder() *MessageBuilder {
	return &MessageBuilder{
		performative: "request",
		reference:    core.DialogueReference{StarterReference: "ref-1"},
		messageID:    1,
		target:       0,
	}
}

// Performative sets the message performative (chainable).
func (b *MessageBuilder) Performative(p core.Performative) *MessageBuilder {
	b.performative = p
	return b
}

// Reference sets the full dialogue reference (chainable).
func (b *MessageBuilder) Reference(starter, responder string) *MessageBuilder {
	b.reference = core.DialogueReference{StarterReference: starter, ResponderReference: responder}
	return b
}

// ID sets the message id (chainable).
func (b *MessageBuilder) ID(id int) *MessageBuilder { b.messageID = id; return b }

// Target sets the target message id (chainable).
func (b *MessageBuilder) Target(t int) *MessageBuilder { b.target = t; return b }

// From sets the sender address (chainable).
func (b *MessageBuilder) From(addr core.Address) *MessageBuilder { b.sender = addr; return b }

// To sets the recipient address (chainable).
func (b *MessageBuilder) To(addr core.Address) *MessageBuilder { b.to = addr; return b }

// Payload sets the message payload (chainable).
func (b *MessageBuilder) Payload(p any) *MessageBuilder { b.payload = p; return b }

// ReplyTo derives the builder state from an existing message so that Build
// yields a well-formed reply: swapped endpoints, incremented id, target set
// to the replied-to message.
func (b *MessageBuilder) ReplyTo(msg core.Message) *MessageBuilder {
	b.reference = msg.Reference
	b.messageID = msg.MessageID + 1
	b.target = msg.MessageID
	b.sender = msg.To
	b.to = msg.Sender
	return b
}

// Build constructs the message.
func (b *MessageBuilder) Build() core.Message {
	return core.Message{
		Performative: b.performative,
		Reference:    b.reference,
		MessageID:    b.messageID,
		Target:       b.target,
		Sender:       b.sender,
		To:           b.to,
		Payload:      b.payload,
	}
}

// BuildEnvelope wraps the built message in an envelope addressed per the
// message endpoints.
func (b *MessageBuilder) BuildEnvelope() core.Envelope {
	msg := b.Build()
	return core.Envelope{To: msg.To, Sender: msg.Sender, Message: msg}
}
