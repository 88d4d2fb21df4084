package eventstore

import (
	"errors"
)

var (
	ErrEmptyTableNameSupplied = errors.New("empty table name supplied")
	ErrNilDatabaseConnection  = errors.New("database connection must not be nil")
	ErrConcurrencyConflict    = errors.New("concurrency error, the stream's version does not match the expected predecessor")
	ErrStreamFinalized        = errors.New("stream is finalized and does not accept further events")
	ErrEmptyEventsToAppend    = errors.New("no events to append")
	ErrInvalidStreamID        = errors.New("stream id must have a decider type and a non-nil decider id")
	ErrBuildingQueryFailed    = errors.New("building the sql query failed")
	ErrQueryingEventsFailed   = errors.New("querying events failed")
	ErrScanningDBRowFailed    = errors.New("scanning the database row failed")
	ErrAppendingEventFailed   = errors.New("appending the event failed")
	ErrBeginningTxFailed      = errors.New("beginning the database transaction failed")
	ErrCommittingTxFailed     = errors.New("committing the database transaction failed")
	ErrInstallingSchemaFailed = errors.New("installing the database schema failed")
	ErrInvalidFetchAfterLimit = errors.New("the limit for fetching events after an offset must be positive")
)

// Offset is the position of an event in the global append order of the store.
type Offset = int64
