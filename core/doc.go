// Package core provides the foundational domain types used by DialogueMesh.
// It defines the core abstractions for:
//
//   - Messages (immutable units of conversation with correlation metadata)
//   - DialogueLabels (compound keys identifying one conversation)
//   - Rulesets (protocol-specific performative transition grammars)
//   - Envelopes and the Outbox contract for transport collaborators
//
// The package intentionally keeps implementation concerns (dialogue state,
// registries, scheduling, concrete transports) out of scope, exposing small
// types and interfaces to enable custom backends and extensions. Message
// payloads are opaque to everything in this module; wire encoding belongs to
// the transport collaborator.
package core
