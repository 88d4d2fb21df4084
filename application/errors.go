package application

import "errors"

var (
	// ErrFetchingEventsFailed is returned when the history of a stream cannot be loaded.
	ErrFetchingEventsFailed = errors.New("fetching events failed")

	// ErrSavingEventsFailed is returned when the computed events cannot be appended.
	ErrSavingEventsFailed = errors.New("saving events failed")

	// ErrEncodingEventFailed is returned when a domain event cannot be serialized.
	ErrEncodingEventFailed = errors.New("encoding event failed")

	// ErrDecodingEventFailed is returned when a stored event cannot be deserialized.
	ErrDecodingEventFailed = errors.New("decoding event failed")

	// ErrMaxCascadeDepthExceeded is returned when saga reactions trigger commands deeper than the configured limit,
	// which usually means the sagas form a cycle.
	ErrMaxCascadeDepthExceeded = errors.New("max saga cascade depth exceeded")

	// ErrInvalidMaxCascadeDepth is returned when a non-positive max cascade depth is configured.
	ErrInvalidMaxCascadeDepth = errors.New("max cascade depth must be positive")

	// ErrEmptyViewState is returned when a view evolves to no state, there is nothing to save.
	ErrEmptyViewState = errors.New("view state is empty")

	// ErrFetchingViewStateFailed is returned when the current view state cannot be loaded.
	ErrFetchingViewStateFailed = errors.New("fetching view state failed")

	// ErrSavingViewStateFailed is returned when the new view state cannot be saved.
	ErrSavingViewStateFailed = errors.New("saving view state failed")

	// ErrDispatchingEventFailed is returned when a materialized view fails to handle a dispatched event.
	ErrDispatchingEventFailed = errors.New("dispatching event failed")

	// ErrInvalidBatchSize is returned when a non-positive dispatcher batch size is configured.
	ErrInvalidBatchSize = errors.New("batch size must be positive")

	// ErrNilCollaborator is returned when a required collaborator is nil.
	ErrNilCollaborator = errors.New("required collaborator must not be nil")
)
