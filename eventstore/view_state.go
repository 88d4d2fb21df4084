package eventstore

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
)

var (
	// ErrInvalidViewStateJSON is returned when view state JSON data is malformed or invalid.
	ErrInvalidViewStateJSON = errors.New("view state json is not valid")

	// ErrEmptyViewName is returned when an empty view name is provided.
	ErrEmptyViewName = errors.New("view name must not be empty")

	// ErrEmptyViewStateID is returned when a nil view state id is provided.
	ErrEmptyViewStateID = errors.New("view state id must not be empty")

	// ErrSavingViewStateFailed is returned when the view state save operation fails.
	ErrSavingViewStateFailed = errors.New("saving view state failed")

	// ErrLoadingViewStateFailed is returned when the view state load operation fails.
	ErrLoadingViewStateFailed = errors.New("loading view state failed")
)

// ViewState is one persisted read-side row: the projected state of one entity for one view.
// Rows are overwritten on every save, last write wins.
type ViewState struct {
	ViewName  string          // Name of the view (e.g., "restaurants")
	ID        uuid.UUID       // Identifier of the projected entity
	Data      json.RawMessage // Serialized view state as JSON
	UpdatedAt time.Time       // When this row was last written
}

// Validate ensures the view state has valid data for storage operations.
func (s ViewState) Validate() error {
	if s.ViewName == "" {
		return ErrEmptyViewName
	}

	if s.ID == uuid.Nil {
		return ErrEmptyViewStateID
	}

	if !jsoniter.ConfigFastest.Valid(s.Data) {
		return ErrInvalidViewStateJSON
	}

	return nil
}

// BuildViewState creates a new ViewState with validation.
func BuildViewState(viewName string, id uuid.UUID, data json.RawMessage) (ViewState, error) {
	state := ViewState{
		ViewName:  viewName,
		ID:        id,
		Data:      data,
		UpdatedAt: time.Now(),
	}

	if err := state.Validate(); err != nil {
		return ViewState{}, err
	}

	return state, nil
}
