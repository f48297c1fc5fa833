// Package logging provides a minimal logging interface and adapters for DialogueMesh.
//
// The Logger interface defines the standard logging methods (Debug, Info,
// Warn, Error) that the engine, registry and scheduler use for
// observability. This package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - NoOpLogger for silent operation (testing, minimal setups)
//   - StructuredLogger with contextual helpers (agent, component, dialogue)
//
// Usage:
//
//	logger := logging.NewStructuredLogger(logging.LogLevelInfo, "json")
//	eng := engine.New(registry, inbox, handler, engine.WithLogger(logger))
//
// The design intentionally keeps the interface minimal to avoid vendor
// lock-in while supporting structured logging where available.
package logging
