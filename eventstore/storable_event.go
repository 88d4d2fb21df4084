package eventstore

import (
	"errors"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
)

var ErrInvalidPayloadJSON = errors.New("payload json is not valid")
var ErrEmptyEventType = errors.New("event type must not be empty")

// StorableEvents is an alias type for a slice of StorableEvent
type StorableEvents = []StorableEvent

// StorableEvent is a DTO (data transfer object) used by the event store engines to append events and fetch them back.
//
// It is built on scalars to be completely agnostic of the implementation of domain events in the client code.
//
// EventType, EventID, DeciderType, DeciderID, PayloadJSON, CommandID and Final are set by the client.
// PreviousID, Offset and CreatedAt are assigned by the engine on append.
//
// While its properties are exported, it should only be constructed with the supplied factory method BuildStorableEvent.
type StorableEvent struct {
	EventType   string
	EventID     uuid.UUID
	DeciderType string
	DeciderID   uuid.UUID
	PayloadJSON []byte
	CommandID   uuid.UUID
	PreviousID  uuid.NullUUID
	Final       bool
	Offset      Offset
	CreatedAt   time.Time
}

// BuildStorableEvent is a factory method for StorableEvent.
//
// It populates the StorableEvent with the given scalar input and a fresh EventID.
// Returns an error if eventType is empty, the stream is invalid or payloadJSON is not valid JSON.
func BuildStorableEvent(
	eventType string,
	stream StreamID,
	payloadJSON []byte,
	commandID uuid.UUID,
	final bool,
) (StorableEvent, error) {

	if eventType == "" {
		return StorableEvent{}, ErrEmptyEventType
	}

	if err := stream.Validate(); err != nil {
		return StorableEvent{}, err
	}

	if !jsoniter.ConfigFastest.Valid(payloadJSON) {
		return StorableEvent{}, ErrInvalidPayloadJSON
	}

	return StorableEvent{
		EventType:   eventType,
		EventID:     uuid.New(),
		DeciderType: stream.DeciderType,
		DeciderID:   stream.DeciderID,
		PayloadJSON: payloadJSON,
		CommandID:   commandID,
		Final:       final,
	}, nil
}

// Stream returns the StreamID the event belongs to.
func (e StorableEvent) Stream() StreamID {
	return StreamID{DeciderType: e.DeciderType, DeciderID: e.DeciderID}
}
