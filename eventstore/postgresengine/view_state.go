package postgresengine

import (
	"context"
	"errors"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"

	"github.com/AntonStoeckl/orchestrating-eventstore-go/eventstore"
)

// FetchViewState loads the row of one view for one entity.
// The boolean result is false if no row exists yet.
func (es *EventStore) FetchViewState(ctx context.Context, viewName string, id uuid.UUID) (eventstore.ViewState, bool, error) {
	if viewName == "" {
		return eventstore.ViewState{}, false, eventstore.ErrEmptyViewName
	}

	observer, ctx := es.startObserving(
		ctx, operationFetchView, metricViewDuration, "",
		map[string]string{spanAttrViewName: viewName},
	)

	selectStmt := goqu.Dialect(dialectPostgres).
		From(es.viewTableName).
		Select(colViewName, colID, colData, colUpdatedAt).
		Where(goqu.Ex{
			colViewName: viewName,
			colID:       goqu.L(castUUID, id.String()),
		})

	sqlQuery, err := es.toSQL(ctx, selectStmt)
	if err != nil {
		observer.finishError(errorTypeBuildQuery)
		return eventstore.ViewState{}, false, errors.Join(eventstore.ErrLoadingViewStateFailed, err)
	}

	start := time.Now()
	rows, err := es.db.Query(ctx, sqlQuery)
	es.logQueryWithDuration(ctx, sqlQuery, operationFetchView, time.Since(start))

	if err != nil {
		es.logError(ctx, logMsgDBQueryFailed, err, logAttrQuery, sqlQuery)
		observer.finishError(errorTypeQuery)

		return eventstore.ViewState{}, false, errors.Join(eventstore.ErrLoadingViewStateFailed, err)
	}
	defer es.closeRows(ctx, rows)

	state := eventstore.ViewState{}
	found := false

	if rows.Next() {
		if err = rows.Scan(&state.ViewName, &state.ID, &state.Data, &state.UpdatedAt); err != nil {
			es.logError(ctx, logMsgScanRowFailed, err)
			observer.finishError(errorTypeScan)

			return eventstore.ViewState{}, false, errors.Join(eventstore.ErrLoadingViewStateFailed, err)
		}

		found = true
	}

	if err = rows.Err(); err != nil {
		es.logError(ctx, logMsgDBQueryFailed, err, logAttrQuery, sqlQuery)
		observer.finishError(errorTypeQuery)

		return eventstore.ViewState{}, false, errors.Join(eventstore.ErrLoadingViewStateFailed, err)
	}

	observer.finishSuccess(0, logAttrViewName, viewName)

	return state, found, nil
}

// SaveViewState inserts or overwrites the row of one view for one entity, last write wins.
func (es *EventStore) SaveViewState(ctx context.Context, state eventstore.ViewState) error {
	if err := state.Validate(); err != nil {
		return err
	}

	observer, ctx := es.startObserving(
		ctx, operationSaveView, metricViewDuration, "",
		map[string]string{spanAttrViewName: state.ViewName},
	)

	upsertStmt := goqu.Dialect(dialectPostgres).
		Insert(es.viewTableName).
		Rows(goqu.Record{
			colViewName:  state.ViewName,
			colID:        goqu.L(castUUID, state.ID.String()),
			colData:      goqu.L(castJsonb, string(state.Data)),
			colUpdatedAt: state.UpdatedAt,
		}).
		OnConflict(goqu.DoUpdate(colViewName+", "+colID, goqu.Record{
			colData:      goqu.L("EXCLUDED." + colData),
			colUpdatedAt: goqu.L("EXCLUDED." + colUpdatedAt),
		}))

	sqlQuery, err := es.toSQL(ctx, upsertStmt)
	if err != nil {
		observer.finishError(errorTypeBuildQuery)
		return errors.Join(eventstore.ErrSavingViewStateFailed, err)
	}

	start := time.Now()
	_, err = es.db.Exec(ctx, sqlQuery)
	es.logQueryWithDuration(ctx, sqlQuery, operationSaveView, time.Since(start))

	if err != nil {
		es.logError(ctx, logMsgDBExecFailed, err, logAttrQuery, sqlQuery)
		observer.finishError(errorTypeExec)

		return errors.Join(eventstore.ErrSavingViewStateFailed, err)
	}

	observer.finishSuccess(0, logAttrViewName, state.ViewName)

	return nil
}
