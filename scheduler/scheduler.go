package scheduler

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hupe1980/dialoguemesh/core"
	"github.com/hupe1980/dialoguemesh/dialogue"
	"github.com/hupe1980/dialoguemesh/logging"
)

const (
	// DefaultTickInterval is the period between scheduling cycles.
	DefaultTickInterval = 2 * time.Second
	// DefaultMaxProcessing is how long a request may stay in the processing
	// slot before its slot is reclaimed and the request requeued.
	DefaultMaxProcessing = 120 * time.Second
)

// ErrReplyMismatch reports a reply that matches neither the processing slot
// nor the timed-out set. It indicates the scheduler's invariant (at most one
// processing request plus a bounded timed-out set) has been violated by
// misuse and is propagated to the caller rather than recovered.
var ErrReplyMismatch = errors.New("reply matches neither processing nor timed-out request")

// Request describes one outbound request to be submitted through the
// registry: the counterparty to open a dialogue with, the opening
// performative, and the opaque payload.
type Request struct {
	Counterparty core.Address
	Performative core.Performative
	Payload      any
}

// queued is a waiting request together with how many submission attempts it
// has already consumed.
type queued struct {
	req     Request
	attempt int
}

// inflight is the single processing slot: the submitted request, the
// incomplete-version label of the dialogue opened for it, and the elapsed
// processing time accumulated by ticks.
type inflight struct {
	req     Request
	label   core.DialogueLabel
	elapsed time.Duration
	attempt int
}

// Options configures a Scheduler instance using the functional options pattern.
type Options struct {
	// TickInterval is the period the owning timer invokes Tick with. The
	// elapsed-time accounting adds one TickInterval per tick.
	TickInterval time.Duration

	// MaxProcessing bounds how long a request may occupy the processing slot.
	MaxProcessing time.Duration

	// MaxAttempts caps submission attempts per request. 0 means unlimited,
	// which matches the default retry-forever policy.
	MaxAttempts int

	// Logger provides structured logging for queue transitions. Defaults to
	// NoOpLogger if nil.
	Logger logging.Logger
}

// WithTickInterval sets the scheduling period.
func WithTickInterval(d time.Duration) func(o *Options) {
	return func(o *Options) { o.TickInterval = d }
}

// WithMaxProcessing sets the processing timeout.
func WithMaxProcessing(d time.Duration) func(o *Options) {
	return func(o *Options) { o.MaxProcessing = d }
}

// WithMaxAttempts caps submission attempts per request (0 = unlimited).
func WithMaxAttempts(n int) func(o *Options) {
	return func(o *Options) { o.MaxAttempts = n }
}

// WithLogger sets the scheduler logger.
func WithLogger(logger logging.Logger) func(o *Options) {
	return func(o *Options) { o.Logger = logger }
}

// Scheduler layers serialized, timeout/retry-aware request submission on top
// of a dialogue Registry. Its correctness depends entirely on the registry's
// guarantee that a reply can be traced back to the request that caused it,
// even across timeouts.
//
// Requests are matched by the incomplete version of their dialogue label,
// which is the one identity that survives label completion.
//
// Tick and the outcome reports run on the engine's control goroutine; the
// mutex exists so Enqueue may be called from any goroutine.
type Scheduler struct {
	registry *dialogue.Registry
	outbox   core.Outbox
	logger   logging.Logger

	tickInterval  time.Duration
	maxProcessing time.Duration
	maxAttempts   int

	mu         sync.Mutex
	waiting    []queued
	processing *inflight
	timedOut   map[core.DialogueLabel]queued
}

// New creates a Scheduler submitting requests through registry and outbox.
func New(registry *dialogue.Registry, outbox core.Outbox, optFns ...func(o *Options)) *Scheduler {
	opts := Options{
		TickInterval:  DefaultTickInterval,
		MaxProcessing: DefaultMaxProcessing,
		Logger:        logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Scheduler{
		registry:      registry,
		outbox:        outbox,
		logger:        opts.Logger,
		tickInterval:  opts.TickInterval,
		maxProcessing: opts.MaxProcessing,
		maxAttempts:   opts.MaxAttempts,
		timedOut:      make(map[core.DialogueLabel]queued),
	}
}

// TickInterval returns the scheduling period the owning timer must use.
func (s *Scheduler) TickInterval() time.Duration { return s.tickInterval }

// Enqueue appends a request to the tail of the waiting queue. Safe to call
// from any goroutine.
func (s *Scheduler) Enqueue(req Request) {
	s.mu.Lock()
	s.waiting = append(s.waiting, queued{req: req})
	n := len(s.waiting)
	s.mu.Unlock()
	s.logger.Debug("request enqueued", "counterparty", string(req.Counterparty), "waiting", n)
}

// PendingLen returns the number of waiting requests. Applications use this
// to skip producing new work while submissions are still pending.
func (s *Scheduler) PendingLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.waiting)
}

// InFlight returns the label of the currently processing dialogue, if any.
func (s *Scheduler) InFlight() (core.DialogueLabel, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.processing == nil {
		return core.DialogueLabel{}, false
	}
	return s.processing.label, true
}

// Tick advances the scheduler by one cycle. While a request is processing it
// only accumulates elapsed time; once the elapsed time reaches the
// processing bound the slot is reclaimed, the request requeued at the tail,
// and the next waiting item starts on the following tick. With a free slot
// and a non-empty queue, the head item is submitted.
func (s *Scheduler) Tick() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.processing != nil {
		s.processing.elapsed += s.tickInterval
		if s.processing.elapsed < s.maxProcessing {
			return
		}
		s.timeoutProcessing()
		return
	}
	if len(s.waiting) == 0 {
		return
	}
	s.startProcessing()
}

// startProcessing dequeues the head request, opens its dialogue through the
// registry and hands the opening message to the outbox. A registry rejection
// is a programming error in the request (bad opening performative); the
// request is dropped with an error log and the scheduler keeps running.
func (s *Scheduler) startProcessing() {
	item := s.waiting[0]
	s.waiting = s.waiting[1:]
	s.logger.Info("processing request", "waiting", len(s.waiting))

	msg, d, err := s.registry.Create(item.req.Counterparty, item.req.Performative, item.req.Payload)
	if err != nil {
		s.logger.Error("request submission rejected, dropping request", "error", err.Error())
		return
	}

	s.processing = &inflight{
		req:     item.req,
		label:   d.Label().IncompleteVersion(),
		attempt: item.attempt + 1,
	}
	s.outbox.Put(core.Envelope{To: msg.To, Sender: msg.Sender, Message: msg})
}

// timeoutProcessing reclaims the slot: the in-flight label joins the
// timed-out set so its late reply is still tolerated, and the original
// request returns to the tail of the waiting queue.
func (s *Scheduler) timeoutProcessing() {
	p := s.processing
	s.processing = nil
	s.timedOut[p.label] = queued{req: p.req, attempt: p.attempt}
	s.logger.Warn("request timed out", "label", p.label.String(), "attempt", p.attempt)
	s.requeue(p.req, p.attempt)
}

// FinishProcessing records a successful reply for d. A reply matching the
// processing slot clears it; a reply for a label already moved to the
// timed-out set is discarded without reopening processing, since the request
// was already recycled. A reply matching neither fails with
// ErrReplyMismatch.
func (s *Scheduler) FinishProcessing(d *dialogue.Dialogue) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := d.Label().IncompleteVersion()
	if s.processing != nil && s.processing.label == key {
		s.logger.Info("request finished", "label", key.String())
		s.processing = nil
		return nil
	}
	if _, ok := s.timedOut[key]; ok {
		delete(s.timedOut, key)
		// Don't touch the slot: another request might be processing.
		s.logger.Debug("late reply for timed-out request discarded", "label", key.String())
		return nil
	}
	return fmt.Errorf("%w: %s", ErrReplyMismatch, key)
}

// FailProcessing records an explicit protocol-level failure reply for d: the
// slot is cleared (or the timed-out entry consumed) and the failed request
// re-enqueued at the tail. Retry is indefinite unless MaxAttempts is set.
func (s *Scheduler) FailProcessing(d *dialogue.Dialogue) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := d.Label().IncompleteVersion()
	if s.processing != nil && s.processing.label == key {
		p := s.processing
		s.processing = nil
		s.logger.Warn("request failed, requeueing", "label", key.String(), "attempt", p.attempt)
		s.requeue(p.req, p.attempt)
		return nil
	}
	if item, ok := s.timedOut[key]; ok {
		delete(s.timedOut, key)
		s.logger.Warn("failure for timed-out request, requeueing", "label", key.String())
		s.requeue(item.req, item.attempt)
		return nil
	}
	return fmt.Errorf("%w: %s", ErrReplyMismatch, key)
}

// requeue returns a request to the tail of the waiting queue, honouring the
// optional attempt cap.
func (s *Scheduler) requeue(req Request, attempt int) {
	if s.maxAttempts > 0 && attempt >= s.maxAttempts {
		s.logger.Error("request exhausted attempts, dropping", "attempts", attempt)
		return
	}
	s.waiting = append(s.waiting, queued{req: req, attempt: attempt})
}
