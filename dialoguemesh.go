// Package dialoguemesh provides a high-level façade over the dialogue
// registry, request scheduler and engine, enabling rapid construction of
// message-correlating agents. Most applications interact with this package
// by:
//  1. Creating a Mesh via New() with the agent address, a protocol ruleset,
//     an inbound envelope channel and an outbox
//  2. Registering a Handler for matched inbound messages
//  3. Running the control loop (Run) and submitting requests (Submit)
//
// The façade delegates correlation to dialogue.Registry and serialized
// submission to scheduler.Scheduler while keeping setup ergonomics concise.
// All defaults are safe for local development and testing; production
// deployments typically supply a structured logger and tuned scheduler
// timings.
package dialoguemesh

import (
	"context"

	"github.com/hupe1980/dialoguemesh/core"
	"github.com/hupe1980/dialoguemesh/dialogue"
	"github.com/hupe1980/dialoguemesh/engine"
	"github.com/hupe1980/dialoguemesh/logging"
	"github.com/hupe1980/dialoguemesh/scheduler"
)

// Options configures the Mesh instance.
type Options struct {
	// Handler processes matched inbound messages on the control goroutine.
	// Nil is valid for pure correlation use.
	Handler engine.Handler

	// SchedulerOptions tune the request scheduler (tick interval, processing
	// timeout, attempt cap).
	SchedulerOptions []func(o *scheduler.Options)

	// RegistryOptions tune the dialogue registry (reference generation,
	// introspection hooks).
	RegistryOptions []func(o *dialogue.Options)

	// Logger (defaults to NoOp logger if nil). The same logger is shared by
	// the registry, scheduler and engine.
	Logger logging.Logger
}

// WithHandler sets the inbound message handler.
func WithHandler(h engine.Handler) func(o *Options) {
	return func(o *Options) { o.Handler = h }
}

// WithHandlerFunc sets the inbound message handler from a plain function.
func WithHandlerFunc(f engine.HandlerFunc) func(o *Options) {
	return func(o *Options) { o.Handler = f }
}

// WithSchedulerOptions forwards options to the embedded scheduler.
func WithSchedulerOptions(optFns ...func(o *scheduler.Options)) func(o *Options) {
	return func(o *Options) { o.SchedulerOptions = append(o.SchedulerOptions, optFns...) }
}

// WithRegistryOptions forwards options to the embedded registry.
func WithRegistryOptions(optFns ...func(o *dialogue.Options)) func(o *Options) {
	return func(o *Options) { o.RegistryOptions = append(o.RegistryOptions, optFns...) }
}

// WithLogger sets the shared logger.
func WithLogger(logger logging.Logger) func(o *Options) {
	return func(o *Options) { o.Logger = logger }
}

// Mesh is the high-level façade aggregating registry, scheduler and engine
// for one agent.
type Mesh struct {
	registry  *dialogue.Registry
	scheduler *scheduler.Scheduler
	engine    *engine.Engine
}

// New creates a Mesh for the agent at self speaking the protocol described by
// rules, draining inbox and sending through outbox.
func New(
	self core.Address,
	rules core.Ruleset,
	inbox <-chan core.Envelope,
	outbox core.Outbox,
	optFns ...func(o *Options),
) *Mesh {
	opts := Options{
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	registryOpts := append(
		[]func(o *dialogue.Options){dialogue.WithLogger(opts.Logger)},
		opts.RegistryOptions...,
	)
	registry := dialogue.NewRegistry(self, rules, registryOpts...)

	schedulerOpts := append(
		[]func(o *scheduler.Options){scheduler.WithLogger(opts.Logger)},
		opts.SchedulerOptions...,
	)
	sched := scheduler.New(registry, outbox, schedulerOpts...)

	eng := engine.New(registry, inbox, opts.Handler,
		engine.WithScheduler(sched),
		engine.WithLogger(opts.Logger),
	)

	return &Mesh{registry: registry, scheduler: sched, engine: eng}
}

// Registry exposes the underlying dialogue registry for direct dialogue
// creation and inspection.
func (m *Mesh) Registry() *dialogue.Registry { return m.registry }

// Scheduler exposes the underlying request scheduler so handlers can report
// FinishProcessing / FailProcessing outcomes.
func (m *Mesh) Scheduler() *scheduler.Scheduler { return m.scheduler }

// Submit enqueues an outbound request for serialized submission.
func (m *Mesh) Submit(req scheduler.Request) { m.scheduler.Enqueue(req) }

// Run executes the control loop until ctx is cancelled or the inbox closes.
func (m *Mesh) Run(ctx context.Context) error { return m.engine.Run(ctx) }
