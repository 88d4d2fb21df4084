package fmodel

import "github.com/google/uuid"

// Identifier is implemented by every command and event variant.
// It returns the identifier of the entity (stream) the message belongs to.
type Identifier interface {
	Identifier() uuid.UUID
}

// DeciderTyped is implemented by every command and event variant.
// It returns the tag of the entity kind the message belongs to.
type DeciderTyped interface {
	DeciderType() string
}

// Command is the capability set every command variant must provide so it can be routed to a stream.
type Command interface {
	Identifier
	DeciderTyped
}

// Event is the capability set every event variant must provide so it can be persisted.
type Event interface {
	Identifier
	DeciderTyped

	// EventType returns the name of the event variant, used as the wire discriminator.
	EventType() string

	// IsFinal returns true if the stream will accept no further events after this one.
	IsFinal() bool
}
