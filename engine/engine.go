package engine

import (
	"context"
	"time"

	"github.com/hupe1980/dialoguemesh/core"
	"github.com/hupe1980/dialoguemesh/dialogue"
	"github.com/hupe1980/dialoguemesh/logging"
	"github.com/hupe1980/dialoguemesh/scheduler"
)

// Handler processes an inbound message after the registry has matched and
// appended it to a dialogue. Handlers run on the engine's control goroutine
// and must not block longer than the tick period; hand long work off to
// other goroutines and come back through a dialogue reply.
type Handler interface {
	Handle(ctx context.Context, d *dialogue.Dialogue, msg core.Message)
}

// HandlerFunc adapts a plain function to the Handler interface.
type HandlerFunc func(ctx context.Context, d *dialogue.Dialogue, msg core.Message)

// Handle calls f(ctx, d, msg).
func (f HandlerFunc) Handle(ctx context.Context, d *dialogue.Dialogue, msg core.Message) {
	f(ctx, d, msg)
}

// Options configures an Engine instance using the functional options pattern.
type Options struct {
	// Scheduler, if set, is ticked at its own TickInterval from the engine
	// loop. Leave nil for agents that never submit serialized requests.
	Scheduler *scheduler.Scheduler

	// Logger provides structured logging. Defaults to NoOpLogger if nil.
	Logger logging.Logger
}

// WithScheduler attaches a request scheduler to the control loop.
func WithScheduler(s *scheduler.Scheduler) func(o *Options) {
	return func(o *Options) { o.Scheduler = s }
}

// WithLogger sets the engine logger.
func WithLogger(logger logging.Logger) func(o *Options) {
	return func(o *Options) { o.Logger = logger }
}

// Engine is the control loop binding an inbound envelope channel, a dialogue
// registry, an optional request scheduler and the application handler.
type Engine struct {
	registry  *dialogue.Registry
	inbox     <-chan core.Envelope
	handler   Handler
	scheduler *scheduler.Scheduler
	logger    logging.Logger
}

// New creates an Engine draining inbox into registry and dispatching matched
// dialogues to handler. The handler may be nil for pure correlation use.
func New(registry *dialogue.Registry, inbox <-chan core.Envelope, handler Handler, optFns ...func(o *Options)) *Engine {
	opts := Options{
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Engine{
		registry:  registry,
		inbox:     inbox,
		handler:   handler,
		scheduler: opts.Scheduler,
		logger:    opts.Logger,
	}
}

// Run executes the control loop until ctx is cancelled or the inbox channel
// is closed. It returns ctx.Err() on cancellation and nil on a closed inbox.
// Envelopes still in flight when Run returns are dropped; their late replies
// must not be treated as new dialogue openings by a restarted agent, which
// fresh lifetime-unique references guarantee.
func (e *Engine) Run(ctx context.Context) error {
	var tickC <-chan time.Time
	if e.scheduler != nil {
		ticker := time.NewTicker(e.scheduler.TickInterval())
		defer ticker.Stop()
		tickC = ticker.C
	}

	e.logger.Info("engine started", "agent", string(e.registry.SelfAddress()))
	for {
		select {
		case <-ctx.Done():
			e.logger.Info("engine stopped", "reason", ctx.Err().Error())
			return ctx.Err()

		case env, ok := <-e.inbox:
			if !ok {
				e.logger.Info("inbox closed, engine stopped")
				return nil
			}
			e.handleEnvelope(ctx, env)

		case <-tickC:
			e.scheduler.Tick()
		}
	}
}

// handleEnvelope routes one inbound envelope. Validation failures are
// isolated to the single rejected message; the loop keeps running.
func (e *Engine) handleEnvelope(ctx context.Context, env core.Envelope) {
	d, err := e.registry.Update(env.Message)
	if err != nil {
		e.logger.Warn("inbound message rejected",
			"sender", string(env.Sender),
			"performative", string(env.Message.Performative),
			"error", err.Error(),
		)
		return
	}

	e.logger.Debug("message routed",
		"label", d.Label().String(),
		"performative", string(env.Message.Performative),
	)
	if e.handler != nil {
		e.handler.Handle(ctx, d, env.Message)
	}
}
