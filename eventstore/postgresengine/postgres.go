package postgresengine

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"strconv"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/AntonStoeckl/orchestrating-eventstore-go/eventstore"
	"github.com/AntonStoeckl/orchestrating-eventstore-go/eventstore/postgresengine/internal/adapters"
)

const (
	defaultEventTableName = "events"
	defaultViewTableName  = "view_states"

	logMsgBuildQueryFailed    = "failed to build sql query"
	logMsgDBQueryFailed       = "database query execution failed"
	logMsgDBExecFailed        = "database execution failed"
	logMsgCloseRowsFailed     = "failed to close database rows"
	logMsgScanRowFailed       = "failed to scan database row"
	logMsgBeginTxFailed       = "failed to begin database transaction"
	logMsgCommitTxFailed      = "failed to commit database transaction"
	logMsgRollbackTxFailed    = "failed to roll back database transaction"
	logMsgAppendLockFailed    = "failed to take the append lock"
	logMsgConcurrencyConflict = "concurrency conflict detected"
	logMsgStreamFinalized     = "append to finalized stream rejected"
	logMsgSQLExecuted         = "executed sql for: "
	logMsgOperation           = "eventstore operation: "

	logAttrError           = "error"
	logAttrQuery           = "query"
	logAttrStream          = "stream"
	logAttrEventType       = "event_type"
	logAttrEventCount      = "event_count"
	logAttrDurationMS      = "duration_ms"
	logAttrExpectedVersion = "expected_version"
	logAttrActualVersion   = "actual_version"
	logAttrViewName        = "view_name"

	operationFetch         = "fetch"
	operationLatestVersion = "latest_version"
	operationFetchAfter    = "fetch_after"
	operationAppend        = "append"
	operationFetchView     = "fetch_view_state"
	operationSaveView      = "save_view_state"

	errorTypeBuildQuery  = "build_query"
	errorTypeQuery       = "database_query"
	errorTypeExec        = "database_exec"
	errorTypeScan        = "row_scan"
	errorTypeTransaction = "transaction"
	conflictConcurrency  = "concurrency"
	conflictFinalized    = "finalized"

	colEvent      = "event"
	colEventID    = "event_id"
	colDecider    = "decider"
	colDeciderID  = "decider_id"
	colData       = "data"
	colCommandID  = "command_id"
	colPreviousID = "previous_id"
	colFinal      = "final"
	colOffset     = "offset"
	colCreatedAt  = "created_at"
	colViewName   = "view_name"
	colID         = "id"
	colUpdatedAt  = "updated_at"

	dialectPostgres   = "postgres"
	castJsonb         = "?::jsonb"
	castUUID          = "?::uuid"
	pgUniqueViolation = "23505"

	fnAdvisoryXactLock = "pg_advisory_xact_lock"
	fnHashText         = "hashtext"
)

// EventStore is the PostgreSQL backed event store and view state store.
// It leverages a database adapter and supports customizable logging, metrics, tracing and table names.
type EventStore struct {
	db               adapters.DBAdapter
	eventTableName   string
	viewTableName    string
	logger           eventstore.Logger
	contextualLogger eventstore.ContextualLogger
	metricsCollector eventstore.MetricsCollector
	tracingCollector eventstore.TracingCollector
}

// streamTail is the version and the final marker of a stream's most recent event.
type streamTail struct {
	version uuid.UUID
	final   bool
}

// NewEventStoreFromPGXPool creates a new EventStore using a pgx Pool with optional configuration.
func NewEventStoreFromPGXPool(db *pgxpool.Pool, options ...Option) (*EventStore, error) {
	if db == nil {
		return nil, eventstore.ErrNilDatabaseConnection
	}

	return newEventStore(adapters.NewPGXAdapter(db), options)
}

// NewEventStoreFromPGXPoolAndReplica creates a new EventStore using a primary and a replica pgx Pool.
// Reads go to the replica only when the context carries eventstore.EventualConsistency.
func NewEventStoreFromPGXPoolAndReplica(db *pgxpool.Pool, replica *pgxpool.Pool, options ...Option) (*EventStore, error) {
	if db == nil || replica == nil {
		return nil, eventstore.ErrNilDatabaseConnection
	}

	return newEventStore(adapters.NewPGXAdapterWithReplica(db, replica), options)
}

// NewEventStoreFromSQLDB creates a new EventStore using a sql.DB with optional configuration.
func NewEventStoreFromSQLDB(db *sql.DB, options ...Option) (*EventStore, error) {
	if db == nil {
		return nil, eventstore.ErrNilDatabaseConnection
	}

	return newEventStore(adapters.NewSQLAdapter(db), options)
}

// NewEventStoreFromSQLX creates a new EventStore using a sqlx.DB with optional configuration.
func NewEventStoreFromSQLX(db *sqlx.DB, options ...Option) (*EventStore, error) {
	if db == nil {
		return nil, eventstore.ErrNilDatabaseConnection
	}

	return newEventStore(adapters.NewSQLXAdapter(db), options)
}

func newEventStore(db adapters.DBAdapter, options []Option) (*EventStore, error) {
	es := &EventStore{
		db:             db,
		eventTableName: defaultEventTableName,
		viewTableName:  defaultViewTableName,
	}

	for _, option := range options {
		if err := option(es); err != nil {
			return nil, err
		}
	}

	return es, nil
}

// Fetch returns the full history of one stream, oldest first.
func (es *EventStore) Fetch(ctx context.Context, stream eventstore.StreamID) (eventstore.StorableEvents, error) {
	if err := stream.Validate(); err != nil {
		return nil, err
	}

	observer, ctx := es.startObserving(
		ctx, operationFetch, metricFetchDuration, metricEventsFetched,
		map[string]string{spanAttrStream: stream.String()},
	)

	sqlQuery, err := es.toSQL(ctx, es.selectEvents().Where(es.streamCondition(stream)).Order(goqu.I(colOffset).Asc()))
	if err != nil {
		observer.finishError(errorTypeBuildQuery)
		return nil, err
	}

	events, errorType, err := es.queryEvents(ctx, es.db, sqlQuery, operationFetch)
	if err != nil {
		observer.finishError(errorType)
		return nil, err
	}

	observer.finishSuccess(len(events), logAttrStream, stream.String())

	return events, nil
}

// LatestVersion returns the EventID of the stream's most recent event, uuid.Nil for an empty stream.
func (es *EventStore) LatestVersion(ctx context.Context, stream eventstore.StreamID) (uuid.UUID, error) {
	if err := stream.Validate(); err != nil {
		return uuid.Nil, err
	}

	observer, ctx := es.startObserving(
		ctx, operationLatestVersion, metricFetchDuration, "",
		map[string]string{spanAttrStream: stream.String()},
	)

	tail, errorType, err := es.fetchTail(ctx, es.db, stream, false)
	if err != nil {
		observer.finishError(errorType)
		return uuid.Nil, err
	}

	observer.finishSuccess(0, logAttrStream, stream.String())

	return tail.version, nil
}

// FetchAfter returns up to limit events of all streams with an offset greater than after, ordered by offset.
// It is the change feed that drives materialized views and honors the consistency level of the context.
// Appends are serialized (see Append), so an offset is never visible before every lower offset is committed
// or rolled back, and paging by the last seen offset does not skip events.
func (es *EventStore) FetchAfter(ctx context.Context, after eventstore.Offset, limit int) (eventstore.StorableEvents, error) {
	if limit <= 0 {
		return nil, eventstore.ErrInvalidFetchAfterLimit
	}

	observer, ctx := es.startObserving(ctx, operationFetchAfter, metricFetchDuration, metricEventsFetched, nil)

	selectStmt := es.selectEvents().
		Where(goqu.C(colOffset).Gt(after)).
		Order(goqu.I(colOffset).Asc()).
		Limit(uint(limit))

	sqlQuery, err := es.toSQL(ctx, selectStmt)
	if err != nil {
		observer.finishError(errorTypeBuildQuery)
		return nil, err
	}

	events, errorType, err := es.queryEvents(ctx, es.db, sqlQuery, operationFetchAfter)
	if err != nil {
		observer.finishError(errorType)
		return nil, err
	}

	observer.finishSuccess(len(events))

	return events, nil
}

// Append appends the events atomically, in the given order, in one database transaction.
//
// For every stream in expected the stream's tail must equal the expected version (uuid.Nil: the stream must be empty),
// otherwise nothing is appended and eventstore.ErrConcurrencyConflict is returned. Streams of events without an
// expectation are appended to whatever their tail is at append time. Each event's PreviousID is set to its stream's
// tail, which is the previously appended event of the same stream for all but the first.
// Appending to a stream whose tail is final fails with eventstore.ErrStreamFinalized.
//
// All appends to the events table take one transaction-level advisory lock before they draw offsets,
// so offsets commit in the order they are assigned.
//
// The returned events carry the assigned PreviousID, Offset and CreatedAt.
func (es *EventStore) Append(
	ctx context.Context,
	expected eventstore.ExpectedVersions,
	events ...eventstore.StorableEvent,
) (eventstore.StorableEvents, error) {

	if len(events) == 0 {
		return nil, eventstore.ErrEmptyEventsToAppend
	}

	for _, event := range events {
		if err := event.Stream().Validate(); err != nil {
			return nil, err
		}
	}

	observer, ctx := es.startObserving(
		ctx, operationAppend, metricAppendDuration, metricEventsAppended,
		map[string]string{spanAttrEventCount: strconv.Itoa(len(events)), spanAttrExpectations: strconv.Itoa(len(expected))},
	)

	tx, err := es.db.BeginTx(ctx)
	if err != nil {
		es.logError(ctx, logMsgBeginTxFailed, err)
		observer.finishError(errorTypeTransaction)

		return nil, errors.Join(eventstore.ErrBeginningTxFailed, err)
	}

	committed := false
	defer func() {
		if committed {
			return
		}

		if rollbackErr := tx.Rollback(ctx); rollbackErr != nil && !isTxClosed(rollbackErr) {
			es.logWarn(ctx, logMsgRollbackTxFailed, rollbackErr)
		}
	}()

	appended, errorType, err := es.appendInTx(ctx, tx, expected, events)
	if err != nil {
		es.finishAppendError(observer, errorType, err)
		return nil, err
	}

	if err = tx.Commit(ctx); err != nil {
		if isUniqueViolation(err) {
			es.finishAppendError(observer, conflictConcurrency, eventstore.ErrConcurrencyConflict)
			return nil, eventstore.ErrConcurrencyConflict
		}

		es.logError(ctx, logMsgCommitTxFailed, err)
		observer.finishError(errorTypeTransaction)

		return nil, errors.Join(eventstore.ErrCommittingTxFailed, err)
	}

	committed = true
	observer.finishSuccess(len(appended))

	return appended, nil
}

func (es *EventStore) finishAppendError(observer *operationObserver, errorType string, err error) {
	switch {
	case errors.Is(err, eventstore.ErrConcurrencyConflict):
		observer.finishConflict(conflictConcurrency, logAttrError, err.Error())
	case errors.Is(err, eventstore.ErrStreamFinalized):
		observer.finishConflict(conflictFinalized, logAttrError, err.Error())
	default:
		observer.finishError(errorType)
	}
}

func (es *EventStore) appendInTx(
	ctx context.Context,
	tx adapters.DBTx,
	expected eventstore.ExpectedVersions,
	events eventstore.StorableEvents,
) (eventstore.StorableEvents, string, error) {

	if errorType, err := es.lockAppends(ctx, tx); err != nil {
		return nil, errorType, err
	}

	tails := make(map[eventstore.StreamID]streamTail)

	for _, stream := range streamsInLockOrder(expected, events) {
		tail, errorType, err := es.fetchTail(ctx, tx, stream, true)
		if err != nil {
			return nil, errorType, err
		}

		if version, ok := expected[stream]; ok && version != tail.version {
			es.logOperation(ctx, logMsgConcurrencyConflict,
				logAttrStream, stream.String(),
				logAttrExpectedVersion, version.String(),
				logAttrActualVersion, tail.version.String(),
			)

			return nil, conflictConcurrency, eventstore.ErrConcurrencyConflict
		}

		tails[stream] = tail
	}

	appended := make(eventstore.StorableEvents, 0, len(events))

	for _, event := range events {
		stream := event.Stream()
		tail := tails[stream]

		if tail.final {
			es.logOperation(ctx, logMsgStreamFinalized, logAttrStream, stream.String(), logAttrEventType, event.EventType)
			return nil, conflictFinalized, eventstore.ErrStreamFinalized
		}

		event.PreviousID = uuid.NullUUID{UUID: tail.version, Valid: tail.version != uuid.Nil}

		sqlQuery, err := es.toSQL(ctx, es.insertEvent(event))
		if err != nil {
			return nil, errorTypeBuildQuery, err
		}

		if err = es.queryReturning(ctx, tx, sqlQuery, operationAppend, &event.Offset, &event.CreatedAt); err != nil {
			if isUniqueViolation(err) {
				return nil, conflictConcurrency, eventstore.ErrConcurrencyConflict
			}

			es.logError(ctx, logMsgDBExecFailed, err, logAttrQuery, sqlQuery)

			return nil, errorTypeExec, errors.Join(eventstore.ErrAppendingEventFailed, err)
		}

		tails[stream] = streamTail{version: event.EventID, final: event.Final}
		appended = append(appended, event)
	}

	return appended, "", nil
}

// appendLockQuery takes the advisory lock shared by all appends to the events table.
// The lock is released when the transaction ends.
func (es *EventStore) appendLockQuery() *goqu.SelectDataset {
	return goqu.Dialect(dialectPostgres).
		Select(goqu.Func(fnAdvisoryXactLock, goqu.Func(fnHashText, es.eventTableName)))
}

func (es *EventStore) lockAppends(ctx context.Context, tx adapters.DBTx) (string, error) {
	sqlQuery, err := es.toSQL(ctx, es.appendLockQuery())
	if err != nil {
		return errorTypeBuildQuery, err
	}

	start := time.Now()
	_, err = tx.Exec(ctx, sqlQuery)
	es.logQueryWithDuration(ctx, sqlQuery, operationAppend, time.Since(start))

	if err != nil {
		es.logError(ctx, logMsgAppendLockFailed, err, logAttrQuery, sqlQuery)
		return errorTypeExec, errors.Join(eventstore.ErrAppendingEventFailed, err)
	}

	return "", nil
}

// streamsInLockOrder returns every stream that is expected or receives events, sorted so that
// concurrent appends lock stream tails in the same order.
func streamsInLockOrder(expected eventstore.ExpectedVersions, events eventstore.StorableEvents) []eventstore.StreamID {
	seen := make(map[eventstore.StreamID]struct{}, len(expected)+len(events))
	streams := make([]eventstore.StreamID, 0, len(expected)+len(events))

	add := func(stream eventstore.StreamID) {
		if _, ok := seen[stream]; ok {
			return
		}

		seen[stream] = struct{}{}
		streams = append(streams, stream)
	}

	for stream := range expected {
		add(stream)
	}

	for _, event := range events {
		add(event.Stream())
	}

	sort.Slice(streams, func(i, j int) bool {
		return streams[i].String() < streams[j].String()
	})

	return streams
}

// fetchTail reads the most recent event of a stream, locking it when forUpdate is set.
func (es *EventStore) fetchTail(
	ctx context.Context,
	db adapters.DBExecutor,
	stream eventstore.StreamID,
	forUpdate bool,
) (streamTail, string, error) {

	selectStmt := goqu.Dialect(dialectPostgres).
		From(es.eventTableName).
		Select(colEventID, colFinal).
		Where(es.streamCondition(stream)).
		Order(goqu.I(colOffset).Desc()).
		Limit(1)

	if forUpdate {
		selectStmt = selectStmt.ForUpdate(exp.Wait)
	}

	sqlQuery, err := es.toSQL(ctx, selectStmt)
	if err != nil {
		return streamTail{}, errorTypeBuildQuery, err
	}

	start := time.Now()
	rows, err := db.Query(ctx, sqlQuery)
	es.logQueryWithDuration(ctx, sqlQuery, operationLatestVersion, time.Since(start))

	if err != nil {
		es.logError(ctx, logMsgDBQueryFailed, err, logAttrQuery, sqlQuery)
		return streamTail{}, errorTypeQuery, errors.Join(eventstore.ErrQueryingEventsFailed, err)
	}
	defer es.closeRows(ctx, rows)

	tail := streamTail{}

	if rows.Next() {
		if err = rows.Scan(&tail.version, &tail.final); err != nil {
			es.logError(ctx, logMsgScanRowFailed, err)
			return streamTail{}, errorTypeScan, errors.Join(eventstore.ErrScanningDBRowFailed, err)
		}
	}

	if err = rows.Err(); err != nil {
		es.logError(ctx, logMsgDBQueryFailed, err, logAttrQuery, sqlQuery)
		return streamTail{}, errorTypeQuery, errors.Join(eventstore.ErrQueryingEventsFailed, err)
	}

	return tail, "", nil
}

// queryEvents executes the select and scans all rows into StorableEvents.
func (es *EventStore) queryEvents(
	ctx context.Context,
	db adapters.DBExecutor,
	sqlQuery string,
	action string,
) (eventstore.StorableEvents, string, error) {

	start := time.Now()
	rows, err := db.Query(ctx, sqlQuery)
	es.logQueryWithDuration(ctx, sqlQuery, action, time.Since(start))

	if err != nil {
		es.logError(ctx, logMsgDBQueryFailed, err, logAttrQuery, sqlQuery)
		return nil, errorTypeQuery, errors.Join(eventstore.ErrQueryingEventsFailed, err)
	}
	defer es.closeRows(ctx, rows)

	events := make(eventstore.StorableEvents, 0)

	for rows.Next() {
		event := eventstore.StorableEvent{}

		scanErr := rows.Scan(
			&event.EventType,
			&event.EventID,
			&event.DeciderType,
			&event.DeciderID,
			&event.PayloadJSON,
			&event.CommandID,
			&event.PreviousID,
			&event.Final,
			&event.Offset,
			&event.CreatedAt,
		)
		if scanErr != nil {
			es.logError(ctx, logMsgScanRowFailed, scanErr)
			return nil, errorTypeScan, errors.Join(eventstore.ErrScanningDBRowFailed, scanErr)
		}

		events = append(events, event)
	}

	if err = rows.Err(); err != nil {
		es.logError(ctx, logMsgDBQueryFailed, err, logAttrQuery, sqlQuery)
		return nil, errorTypeQuery, errors.Join(eventstore.ErrQueryingEventsFailed, err)
	}

	return events, "", nil
}

// queryReturning executes a statement with a RETURNING clause and scans its single row.
// Driver errors are returned unwrapped so that callers can classify them.
func (es *EventStore) queryReturning(ctx context.Context, db adapters.DBExecutor, sqlQuery string, action string, dest ...any) error {
	start := time.Now()
	rows, err := db.Query(ctx, sqlQuery)
	es.logQueryWithDuration(ctx, sqlQuery, action, time.Since(start))

	if err != nil {
		return err
	}
	defer es.closeRows(ctx, rows)

	if rows.Next() {
		if err = rows.Scan(dest...); err != nil {
			return err
		}
	}

	return rows.Err()
}

// closeRows safely closes database rows and logs any errors.
func (es *EventStore) closeRows(ctx context.Context, rows adapters.DBRows) {
	if closeErr := rows.Close(); closeErr != nil {
		es.logWarn(ctx, logMsgCloseRowsFailed, closeErr)
	}
}

func (es *EventStore) selectEvents() *goqu.SelectDataset {
	return goqu.Dialect(dialectPostgres).
		From(es.eventTableName).
		Select(colEvent, colEventID, colDecider, colDeciderID, colData, colCommandID, colPreviousID, colFinal, colOffset, colCreatedAt)
}

func (es *EventStore) streamCondition(stream eventstore.StreamID) goqu.Ex {
	return goqu.Ex{
		colDecider:   stream.DeciderType,
		colDeciderID: goqu.L(castUUID, stream.DeciderID.String()),
	}
}

func (es *EventStore) insertEvent(event eventstore.StorableEvent) *goqu.InsertDataset {
	var previousID any
	if event.PreviousID.Valid {
		previousID = goqu.L(castUUID, event.PreviousID.UUID.String())
	}

	return goqu.Dialect(dialectPostgres).
		Insert(es.eventTableName).
		Rows(goqu.Record{
			colEvent:      event.EventType,
			colEventID:    goqu.L(castUUID, event.EventID.String()),
			colDecider:    event.DeciderType,
			colDeciderID:  goqu.L(castUUID, event.DeciderID.String()),
			colData:       goqu.L(castJsonb, string(event.PayloadJSON)),
			colCommandID:  goqu.L(castUUID, event.CommandID.String()),
			colPreviousID: previousID,
			colFinal:      event.Final,
		}).
		Returning(goqu.C(colOffset), goqu.C(colCreatedAt))
}

// sqlBuilder is satisfied by goqu's select, insert and update datasets.
type sqlBuilder interface {
	ToSQL() (string, []any, error)
}

func (es *EventStore) toSQL(ctx context.Context, builder sqlBuilder) (string, error) {
	sqlQuery, _, err := builder.ToSQL()
	if err != nil {
		es.logError(ctx, logMsgBuildQueryFailed, err)
		return "", errors.Join(eventstore.ErrBuildingQueryFailed, err)
	}

	return sqlQuery, nil
}

// isUniqueViolation detects unique index violations reported by pgx or lib/pq.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == pgUniqueViolation
	}

	return false
}

func isTxClosed(err error) bool {
	return errors.Is(err, sql.ErrTxDone) || errors.Is(err, pgx.ErrTxClosed)
}
