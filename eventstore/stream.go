package eventstore

import (
	"fmt"

	"github.com/google/uuid"
)

// StreamID identifies one stream: all events sharing a decider type and a decider id.
type StreamID struct {
	DeciderType string
	DeciderID   uuid.UUID
}

// NewStreamID builds a StreamID.
func NewStreamID(deciderType string, deciderID uuid.UUID) StreamID {
	return StreamID{DeciderType: deciderType, DeciderID: deciderID}
}

// Validate returns ErrInvalidStreamID if one of the parts is empty.
func (s StreamID) Validate() error {
	if s.DeciderType == "" || s.DeciderID == uuid.Nil {
		return ErrInvalidStreamID
	}

	return nil
}

func (s StreamID) String() string {
	return fmt.Sprintf("%s/%s", s.DeciderType, s.DeciderID)
}

// ExpectedVersions maps each stream to the version its tail must have at append time.
//
// uuid.Nil means the stream must still be empty. Streams without an entry are appended to
// whatever their tail is at append time.
type ExpectedVersions map[StreamID]uuid.UUID

// Expect records the expected version of a stream.
// It returns ErrConcurrencyConflict if a different version was already recorded for the same stream.
func (e ExpectedVersions) Expect(stream StreamID, version uuid.UUID) error {
	if recorded, ok := e[stream]; ok && recorded != version {
		return ErrConcurrencyConflict
	}

	e[stream] = version

	return nil
}

// VersionOf returns the version of a stream given its ordered events, uuid.Nil if there are none.
func VersionOf(events StorableEvents) uuid.UUID {
	if len(events) == 0 {
		return uuid.Nil
	}

	return events[len(events)-1].EventID
}
