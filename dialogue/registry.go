package dialogue

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/hupe1980/dialoguemesh/core"
	"github.com/hupe1980/dialoguemesh/introspect"
	"github.com/hupe1980/dialoguemesh/logging"
)

// Options configures a Registry instance using the functional options pattern.
type Options struct {
	// Logger provides structured logging for label completion and routing
	// decisions. Defaults to NoOpLogger if nil.
	Logger logging.Logger

	// Counter, if set, is incremented once per created Dialogue. Replaces
	// any implicit construction-hook instrumentation with an explicit
	// interface the application passes in.
	Counter introspect.Counter

	// LiveSet, if set, tracks live dialogues keyed by label so background
	// introspection can enumerate them under the set's own lock.
	LiveSet *introspect.LiveSet

	// NewReference generates starter and responder references. Defaults to
	// uuid.NewString, which satisfies the lifetime-uniqueness requirement.
	// Override in tests that need deterministic labels.
	NewReference func() string
}

// WithLogger sets the registry logger.
func WithLogger(logger logging.Logger) func(o *Options) {
	return func(o *Options) { o.Logger = logger }
}

// WithCounter sets an instance counter incremented per created dialogue.
func WithCounter(c introspect.Counter) func(o *Options) {
	return func(o *Options) { o.Counter = c }
}

// WithLiveSet sets a live-object set that tracks dialogues by label.
func WithLiveSet(s *introspect.LiveSet) func(o *Options) {
	return func(o *Options) { o.LiveSet = s }
}

// WithReferenceFunc overrides reference generation. The function must return
// values unique across the lifetime of the agent.
func WithReferenceFunc(fn func() string) func(o *Options) {
	return func(o *Options) { o.NewReference = fn }
}

// Registry is the agent-wide table of all dialogues, indexed by label. It
// owns label assignment for self-initiated conversations, label completion
// when the counterparty's reference arrives, and the incomplete-to-complete
// mapping that keeps late messages routable.
//
// The registry never evicts entries itself; retention is an external policy.
// All mutation must happen on a single control goroutine.
type Registry struct {
	self   core.Address
	rules  core.Ruleset
	logger logging.Logger

	// dialogues is keyed by the dialogue's current label: incomplete for
	// self-initiated conversations still awaiting the counterparty's
	// reference, complete otherwise.
	dialogues map[core.DialogueLabel]*Dialogue

	// completed maps the original incomplete label of a self-initiated
	// dialogue to its completed label, so a straggler still addressed by the
	// old incomplete key can be routed.
	completed map[core.DialogueLabel]core.DialogueLabel

	counter introspect.Counter
	live    *introspect.LiveSet
	newRef  func() string
}

// NewRegistry creates a Registry for the agent at self speaking the protocol
// described by rules.
func NewRegistry(self core.Address, rules core.Ruleset, optFns ...func(o *Options)) *Registry {
	opts := Options{
		Logger:       logging.NoOpLogger{},
		NewReference: uuid.NewString,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Registry{
		self:      self,
		rules:     rules,
		logger:    opts.Logger,
		dialogues: make(map[core.DialogueLabel]*Dialogue),
		completed: make(map[core.DialogueLabel]core.DialogueLabel),
		counter:   opts.Counter,
		live:      opts.LiveSet,
		newRef:    opts.NewReference,
	}
}

// SelfAddress returns the address the registry routes for.
func (r *Registry) SelfAddress() core.Address { return r.self }

// Len returns the number of registered dialogues.
func (r *Registry) Len() int { return len(r.dialogues) }

// Get returns the dialogue currently stored under label, if any.
func (r *Registry) Get(label core.DialogueLabel) (*Dialogue, bool) {
	d, ok := r.dialogues[label]
	return d, ok
}

// Create opens a new self-initiated dialogue with counterparty and returns
// the opening message (id 1, target 0) together with the new dialogue. The
// dialogue is stored under its incomplete label until the counterparty's
// first valid reply completes it. The message must still be handed to the
// transport by the caller.
func (r *Registry) Create(counterparty core.Address, performative core.Performative, payload any) (core.Message, *Dialogue, error) {
	ref := core.DialogueReference{StarterReference: r.newRef()}
	msg := core.Message{
		Performative: performative,
		Reference:    ref,
		MessageID:    1,
		Target:       0,
		Sender:       r.self,
		To:           counterparty,
		Payload:      payload,
	}

	label := core.NewDialogueLabel(ref, r.self, counterparty)
	d := newDialogue(label, core.RoleStarter, r.self, r.rules)
	if err := d.update(msg); err != nil {
		return core.Message{}, nil, err
	}

	r.store(d)
	r.logger.Debug("dialogue created", "label", label.String(), "performative", string(performative))
	return msg, d, nil
}

// Update routes an inbound message to exactly one dialogue and applies it.
//
// Routing order:
//  1. a message carrying a complete reference first completes any pending
//     incomplete entry for the same starter reference (collision-checked),
//     then routes to the dialogue stored under the complete label
//  2. a message still carrying an incomplete reference routes through the
//     recorded incomplete-to-complete mapping (straggler tolerance)
//  3. a valid dialogue-opening message creates a responder-side dialogue
//  4. anything else fails with ErrUnknownDialogue
func (r *Registry) Update(msg core.Message) (*Dialogue, error) {
	if msg.To != r.self {
		return nil, fmt.Errorf("%w: message addressed to %q, agent is %q", core.ErrUnknownDialogue, msg.To, r.self)
	}
	if msg.Reference.StarterReference == core.UnassignedReference {
		return nil, fmt.Errorf("%w: message carries no starter reference", core.ErrUnknownDialogue)
	}

	if msg.Reference.Complete() {
		return r.updateComplete(msg)
	}
	return r.updateIncomplete(msg)
}

// updateComplete handles inbound messages whose reference pair is fully
// assigned: either a reply completing one of our own dialogues, or a later
// message in an established conversation on either side.
func (r *Registry) updateComplete(msg core.Message) (*Dialogue, error) {
	// Pending self-initiated entry awaiting this responder reference.
	incomplete := core.NewDialogueLabel(
		core.DialogueReference{StarterReference: msg.Reference.StarterReference},
		r.self, msg.Sender,
	)
	if d, ok := r.dialogues[incomplete]; ok {
		completed, err := incomplete.Complete(msg.Reference.ResponderReference)
		if err != nil {
			return nil, err
		}
		if existing, clash := r.dialogues[completed]; clash && existing != d {
			return nil, fmt.Errorf("%w: %s held by two dialogues", core.ErrLabelCollision, completed)
		}
		delete(r.dialogues, incomplete)
		d.setLabel(completed)
		r.dialogues[completed] = d
		r.completed[incomplete] = completed
		if r.live != nil {
			r.live.Rekey(incomplete.String(), completed.String())
		}
		r.logger.Debug("dialogue label completed", "label", completed.String())
	}

	// A counterparty that re-labels an already-completed dialogue with a
	// different responder reference is violating the protocol.
	if completed, ok := r.completed[incomplete]; ok && completed.ResponderReference != msg.Reference.ResponderReference {
		return nil, fmt.Errorf("%w: %s completed with %q, message carries %q",
			core.ErrLabelAlreadyComplete, incomplete, completed.ResponderReference, msg.Reference.ResponderReference)
	}

	// Direct lookup, both orientations: we may be the starter or the responder.
	asStarter := core.NewDialogueLabel(msg.Reference, r.self, msg.Sender)
	if d, ok := r.dialogues[asStarter]; ok {
		return r.apply(d, msg)
	}
	asResponder := core.NewDialogueLabel(msg.Reference, msg.Sender, r.self)
	if d, ok := r.dialogues[asResponder]; ok {
		return r.apply(d, msg)
	}

	return nil, fmt.Errorf("%w: no dialogue for reference %s from %q", core.ErrUnknownDialogue, msg.Reference, msg.Sender)
}

// updateIncomplete handles inbound messages whose responder reference is
// still unassigned: stragglers addressed by an old incomplete key, or the
// opening message of a conversation started by the counterparty.
func (r *Registry) updateIncomplete(msg core.Message) (*Dialogue, error) {
	incomplete := core.NewDialogueLabel(msg.Reference, r.self, msg.Sender)
	if completed, ok := r.completed[incomplete]; ok {
		if d, found := r.dialogues[completed]; found {
			r.logger.Debug("straggler routed via completed label", "label", completed.String())
			return r.apply(d, msg)
		}
	}

	if msg.First() && r.rules.ValidOpening(msg.Performative) {
		return r.createAsResponder(msg)
	}

	return nil, fmt.Errorf("%w: reference %s from %q matches no dialogue and is not a valid opening",
		core.ErrUnknownDialogue, msg.Reference, msg.Sender)
}

// createAsResponder builds the responder-side dialogue for an inbound
// opening message. The responder reference is generated here, so the label
// is complete from birth; the reference travels back to the starter on the
// first reply.
func (r *Registry) createAsResponder(msg core.Message) (*Dialogue, error) {
	ref := core.DialogueReference{
		StarterReference:   msg.Reference.StarterReference,
		ResponderReference: r.newRef(),
	}
	label := core.NewDialogueLabel(ref, msg.Sender, r.self)
	if _, clash := r.dialogues[label]; clash {
		return nil, fmt.Errorf("%w: generated label %s already registered", core.ErrLabelCollision, label)
	}

	d := newDialogue(label, core.RoleResponder, r.self, r.rules)
	if err := d.update(msg); err != nil {
		return nil, err
	}

	r.store(d)
	r.logger.Debug("dialogue created as responder", "label", label.String(), "performative", string(msg.Performative))
	return d, nil
}

func (r *Registry) apply(d *Dialogue, msg core.Message) (*Dialogue, error) {
	if err := d.update(msg); err != nil {
		return nil, err
	}
	return d, nil
}

func (r *Registry) store(d *Dialogue) {
	r.dialogues[d.Label()] = d
	if r.counter != nil {
		r.counter.Inc()
	}
	if r.live != nil {
		r.live.Register(d.Label().String(), d)
	}
}
