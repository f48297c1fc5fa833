package core

import "fmt"

// DialogueLabel is the compound key identifying one dialogue: the reference
// pair plus the addresses of both parties. Labels are plain comparable
// values and are used directly as map keys by the registry.
//
// A label is incomplete while the responder reference is unassigned. It
// becomes complete exactly once, the first time the counterparty's reply
// supplies a real responder reference. No two simultaneously active
// dialogues may hold the same complete label.
type DialogueLabel struct {
	StarterReference   string  `json:"starter_reference"`
	ResponderReference string  `json:"responder_reference"`
	StarterAddress     Address `json:"starter_address"`
	ResponderAddress   Address `json:"responder_address"`
}

// NewDialogueLabel builds a label from a reference pair and the two party
// addresses.
func NewDialogueLabel(ref DialogueReference, starter, responder Address) DialogueLabel {
	return DialogueLabel{
		StarterReference:   ref.StarterReference,
		ResponderReference: ref.ResponderReference,
		StarterAddress:     starter,
		ResponderAddress:   responder,
	}
}

// Reference returns the reference pair carried by the label.
func (l DialogueLabel) Reference() DialogueReference {
	return DialogueReference{
		StarterReference:   l.StarterReference,
		ResponderReference: l.ResponderReference,
	}
}

// Incomplete reports whether the responder reference is still unassigned.
func (l DialogueLabel) Incomplete() bool {
	return l.ResponderReference == UnassignedReference
}

// IncompleteVersion returns the label as it looked before completion, i.e.
// with the responder reference reset to the placeholder. It is the stable
// identity of a self-initiated dialogue across completion.
func (l DialogueLabel) IncompleteVersion() DialogueLabel {
	l.ResponderReference = UnassignedReference
	return l
}

// Complete returns a copy of the label with the responder reference filled
// in. Completing an already-complete label with the same reference is a
// no-op; with a different reference it fails with ErrLabelAlreadyComplete,
// which indicates a protocol violation by the counterparty.
func (l DialogueLabel) Complete(responderReference string) (DialogueLabel, error) {
	if responderReference == UnassignedReference {
		return l, fmt.Errorf("cannot complete label %s with an unassigned responder reference", l)
	}
	if !l.Incomplete() {
		if l.ResponderReference == responderReference {
			return l, nil
		}
		return l, fmt.Errorf("%w: label %s already holds responder reference %q, got %q",
			ErrLabelAlreadyComplete, l, l.ResponderReference, responderReference)
	}
	l.ResponderReference = responderReference
	return l, nil
}

// String renders the label for logs, error messages and live-set keys.
func (l DialogueLabel) String() string {
	return fmt.Sprintf("%s[%s->%s]", l.Reference(), l.StarterAddress, l.ResponderAddress)
}
