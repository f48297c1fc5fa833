// Package local provides an in-process transport routing envelopes between
// registered addresses over buffered channels. It is intended for tests,
// examples and multi-agent single-process deployments.
package local

import (
	"sync"

	"github.com/hupe1980/dialoguemesh/core"
	"github.com/hupe1980/dialoguemesh/logging"
)

// DefaultBufferSize is the per-endpoint inbox buffer.
const DefaultBufferSize = 64

// Options configures a Bus instance.
type Options struct {
	// BufferSize sets each endpoint's inbox channel buffer.
	BufferSize int

	// Logger provides structured logging for routing decisions.
	Logger logging.Logger
}

// WithBufferSize sets the per-endpoint inbox buffer.
func WithBufferSize(n int) func(o *Options) {
	return func(o *Options) { o.BufferSize = n }
}

// WithLogger sets the bus logger.
func WithLogger(logger logging.Logger) func(o *Options) {
	return func(o *Options) { o.Logger = logger }
}

// Bus routes envelopes between attached endpoints by address. Delivery is
// fire-and-forget: envelopes for unknown addresses or full inboxes are
// dropped with a log entry. Backpressure between transport and engine is
// explicitly this collaborator's policy, not the engine's.
type Bus struct {
	mu        sync.RWMutex
	endpoints map[core.Address]*Endpoint
	buffer    int
	logger    logging.Logger
}

// NewBus creates an empty bus.
func NewBus(optFns ...func(o *Options)) *Bus {
	opts := Options{
		BufferSize: DefaultBufferSize,
		Logger:     logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Bus{
		endpoints: make(map[core.Address]*Endpoint),
		buffer:    opts.BufferSize,
		logger:    opts.Logger,
	}
}

// Attach registers addr on the bus and returns its endpoint. Attaching an
// already-registered address replaces the previous endpoint.
func (b *Bus) Attach(addr core.Address) *Endpoint {
	ep := &Endpoint{bus: b, addr: addr, inbox: make(chan core.Envelope, b.buffer)}
	b.mu.Lock()
	b.endpoints[addr] = ep
	b.mu.Unlock()
	return ep
}

// Detach removes addr from the bus and closes its inbox channel, which stops
// an engine draining it.
func (b *Bus) Detach(addr core.Address) {
	b.mu.Lock()
	ep, ok := b.endpoints[addr]
	if ok {
		delete(b.endpoints, addr)
		// Closed under the lock so route cannot race a send against it.
		close(ep.inbox)
	}
	b.mu.Unlock()
}

// route delivers env to the endpoint registered for env.To. The read lock is
// held across the send so Detach cannot close the inbox mid-delivery.
func (b *Bus) route(env core.Envelope) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	ep, ok := b.endpoints[env.To]
	if !ok {
		b.logger.Warn("envelope for unknown address dropped", "to", string(env.To))
		return
	}
	select {
	case ep.inbox <- env:
	default:
		b.logger.Warn("endpoint inbox full, envelope dropped", "to", string(env.To))
	}
}

// Endpoint is one attached address: a core.Outbox for outbound envelopes and
// an inbox channel the engine drains.
type Endpoint struct {
	bus   *Bus
	addr  core.Address
	inbox chan core.Envelope
}

// Address returns the endpoint's address.
func (e *Endpoint) Address() core.Address { return e.addr }

// Put delivers env through the bus. Implements core.Outbox.
func (e *Endpoint) Put(env core.Envelope) { e.bus.route(env) }

// Inbox returns the channel of envelopes addressed to this endpoint.
func (e *Endpoint) Inbox() <-chan core.Envelope { return e.inbox }
