package dialogue

import (
	"fmt"

	"github.com/hupe1980/dialoguemesh/core"
)

// Dialogue is one ordered, validated sequence of messages sharing a single
// label. It tracks which side the local agent plays, enforces the protocol's
// transition grammar on every appended message, and flips to ended once a
// terminal performative is appended.
//
// Dialogues are created by the Registry and mutated only through the
// registry's update path and Reply. They are not safe for concurrent
// mutation; all writes belong on the engine control goroutine.
type Dialogue struct {
	label    core.DialogueLabel
	role     core.Role
	self     core.Address
	rules    core.Ruleset
	messages []core.Message
	ended    bool
}

func newDialogue(label core.DialogueLabel, role core.Role, self core.Address, rules core.Ruleset) *Dialogue {
	return &Dialogue{label: label, role: role, self: self, rules: rules}
}

// Label returns the dialogue's current label. For a self-initiated dialogue
// the label is incomplete until the counterparty's first valid reply.
func (d *Dialogue) Label() core.DialogueLabel { return d.label }

// Role returns the local agent's role in this dialogue.
func (d *Dialogue) Role() core.Role { return d.role }

// SelfAddress returns the local agent's address.
func (d *Dialogue) SelfAddress() core.Address { return d.self }

// Counterparty returns the address of the other party.
func (d *Dialogue) Counterparty() core.Address {
	if d.role == core.RoleStarter {
		return d.label.ResponderAddress
	}
	return d.label.StarterAddress
}

// Ended reports whether a terminal performative has been appended. An ended
// dialogue accepts no further updates.
func (d *Dialogue) Ended() bool { return d.ended }

// Len returns the number of messages in the dialogue.
func (d *Dialogue) Len() int { return len(d.messages) }

// Messages returns a defensive copy of the ordered message sequence.
func (d *Dialogue) Messages() []core.Message {
	out := make([]core.Message, len(d.messages))
	copy(out, d.messages)
	return out
}

// LastMessage returns the most recent message, if any.
func (d *Dialogue) LastMessage() (core.Message, bool) {
	if len(d.messages) == 0 {
		return core.Message{}, false
	}
	return d.messages[len(d.messages)-1], true
}

// Reply builds, validates and appends the local agent's next outbound
// message carrying the given performative and payload. The returned message
// has the correct id/target pair and the dialogue's current reference; hand
// it to the transport unchanged.
func (d *Dialogue) Reply(performative core.Performative, payload any) (core.Message, error) {
	last, ok := d.LastMessage()
	if !ok {
		return core.Message{}, fmt.Errorf("%w: cannot reply in an empty dialogue %s", core.ErrInvalidReference, d.label)
	}
	msg := core.Message{
		Performative: performative,
		Reference:    d.label.Reference(),
		MessageID:    last.MessageID + 1,
		Target:       last.MessageID,
		Sender:       d.self,
		To:           d.Counterparty(),
		Payload:      payload,
	}
	if err := d.update(msg); err != nil {
		return core.Message{}, err
	}
	return msg, nil
}

// update validates msg against the transition grammar and the id/target
// sequence and appends it on success. The first appended message must carry
// the opening shape (id 1, target 0) and a valid opening performative; every
// later message must target the last message's id and carry the next id.
func (d *Dialogue) update(msg core.Message) error {
	if d.ended {
		return fmt.Errorf("%w: %s", core.ErrDialogueEnded, d.label)
	}

	last, ok := d.LastMessage()
	if !ok {
		if !msg.First() {
			return fmt.Errorf("%w: opening message must have id 1 and target 0, got id %d target %d",
				core.ErrInvalidReference, msg.MessageID, msg.Target)
		}
		if !d.rules.ValidOpening(msg.Performative) {
			return fmt.Errorf("%w: %q cannot open a dialogue", core.ErrInvalidTransition, msg.Performative)
		}
	} else {
		if !d.rules.ValidReply(last.Performative, msg.Performative) {
			return fmt.Errorf("%w: %q cannot follow %q (allowed: %v)",
				core.ErrInvalidTransition, msg.Performative, last.Performative, d.rules.RepliesTo(last.Performative))
		}
		if msg.Target != last.MessageID || msg.MessageID != last.MessageID+1 {
			return fmt.Errorf("%w: expected id %d targeting %d, got id %d targeting %d",
				core.ErrInvalidReference, last.MessageID+1, last.MessageID, msg.MessageID, msg.Target)
		}
	}

	d.messages = append(d.messages, msg)
	if d.rules.Terminal(msg.Performative) {
		d.ended = true
	}
	return nil
}

// setLabel replaces the dialogue's label. Used by the registry when an
// incomplete label completes.
func (d *Dialogue) setLabel(label core.DialogueLabel) { d.label = label }
