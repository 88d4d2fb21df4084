package application_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/orchestrating-eventstore-go/application"
	"github.com/AntonStoeckl/orchestrating-eventstore-go/eventstore"
	"github.com/AntonStoeckl/orchestrating-eventstore-go/eventstore/memengine"
)

func givenDispatcher(t *testing.T, store *memengine.EventStore, options ...application.Option) *application.EventDispatcher[testEvent] {
	t.Helper()

	dispatcher, err := application.NewEventDispatcher[testEvent](store, givenRepository(t, store), options...)
	require.NoError(t, err)

	return dispatcher
}

func Test_EventDispatcher_DispatchPending_UpdatesTheViews(t *testing.T) {
	// arrange
	ctx := context.Background()
	store := memengine.NewEventStore()
	aggregate := givenOrchestratingAggregate(t, givenRepository(t, store), testSaga())
	accountID, ledgerID := uuid.New(), uuid.New()
	_, err := aggregate.HandleAll(ctx,
		openAccount{ID: accountID, LedgerID: ledgerID},
		deposit{ID: accountID, LedgerID: ledgerID, Amount: 3},
		deposit{ID: accountID, LedgerID: ledgerID, Amount: 4},
	)
	require.NoError(t, err)

	dispatcher := givenDispatcher(t, store, application.WithBatchSize(2))
	dispatcher.Subscribe(accountViewName, application.HandlerFor(givenAccountView(t, store), accountEventsOnly))

	// act
	dispatched, err := dispatcher.DispatchPending(ctx)

	// assert
	require.NoError(t, err)
	assert.Equal(t, 6, dispatched)
	assert.Equal(t, eventstore.Offset(6), dispatcher.Checkpoint())

	row, found, err := store.FetchViewState(ctx, accountViewName, accountID)
	require.NoError(t, err)
	require.True(t, found)
	assert.JSONEq(t, `{"id":"`+accountID.String()+`","balance":7}`, string(row.Data))
}

func Test_EventDispatcher_DispatchPending_SkipsDispatchedEvents(t *testing.T) {
	// arrange
	ctx := context.Background()
	store := memengine.NewEventStore()
	aggregate := givenOrchestratingAggregate(t, givenRepository(t, store), testSaga())
	_, err := aggregate.Handle(ctx, openAccount{ID: uuid.New(), LedgerID: uuid.New()})
	require.NoError(t, err)

	handled := 0
	dispatcher := givenDispatcher(t, store)
	dispatcher.Subscribe("counter", func(context.Context, testEvent) error {
		handled++
		return nil
	})
	_, err = dispatcher.DispatchPending(ctx)
	require.NoError(t, err)

	// act
	dispatched, err := dispatcher.DispatchPending(ctx)

	// assert
	require.NoError(t, err)
	assert.Zero(t, dispatched)
	assert.Equal(t, 2, handled)
}

func Test_EventDispatcher_DispatchPending_FailingHandlerKeepsTheCheckpoint(t *testing.T) {
	// arrange
	ctx := context.Background()
	store := memengine.NewEventStore()
	aggregate := givenOrchestratingAggregate(t, givenRepository(t, store), testSaga())
	_, err := aggregate.Handle(ctx, openAccount{ID: uuid.New(), LedgerID: uuid.New()})
	require.NoError(t, err)

	errHandlerFailed := errors.New("handler failed")
	fail := true
	dispatcher := givenDispatcher(t, store)
	dispatcher.Subscribe("flaky", func(_ context.Context, event testEvent) error {
		if _, ok := event.(entryRecorded); ok && fail {
			return errHandlerFailed
		}
		return nil
	})

	// act
	dispatched, err := dispatcher.DispatchPending(ctx)

	// assert
	assert.ErrorIs(t, err, application.ErrDispatchingEventFailed)
	assert.ErrorIs(t, err, errHandlerFailed)
	assert.Equal(t, 1, dispatched)
	assert.Equal(t, eventstore.Offset(1), dispatcher.Checkpoint())

	fail = false
	dispatched, err = dispatcher.DispatchPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, dispatched, "the failed event is delivered again")
	assert.Equal(t, eventstore.Offset(2), dispatcher.Checkpoint())
}

type consistencyRecordingFeed struct {
	*memengine.EventStore
	levels []eventstore.ConsistencyLevel
}

func (f *consistencyRecordingFeed) FetchAfter(
	ctx context.Context,
	after eventstore.Offset,
	limit int,
) (eventstore.StorableEvents, error) {

	f.levels = append(f.levels, eventstore.GetConsistencyLevel(ctx))

	return f.EventStore.FetchAfter(ctx, after, limit)
}

func Test_EventDispatcher_DispatchPending_ReadsTheFeedWithTheConfiguredConsistency(t *testing.T) {
	// arrange
	ctx := context.Background()
	store := memengine.NewEventStore()
	aggregate := givenOrchestratingAggregate(t, givenRepository(t, store), testSaga())
	_, err := aggregate.Handle(ctx, openAccount{ID: uuid.New(), LedgerID: uuid.New()})
	require.NoError(t, err)

	strongFeed := &consistencyRecordingFeed{EventStore: store}
	eventualFeed := &consistencyRecordingFeed{EventStore: store}

	strong, err := application.NewEventDispatcher[testEvent](strongFeed, givenRepository(t, store))
	require.NoError(t, err)
	eventual, err := application.NewEventDispatcher[testEvent](
		eventualFeed, givenRepository(t, store), application.WithEventuallyConsistentFeed(),
	)
	require.NoError(t, err)

	var handlerLevel eventstore.ConsistencyLevel
	eventual.Subscribe("level", func(ctx context.Context, _ testEvent) error {
		handlerLevel = eventstore.GetConsistencyLevel(ctx)
		return nil
	})

	// act
	_, strongErr := strong.DispatchPending(ctx)
	_, eventualErr := eventual.DispatchPending(ctx)

	// assert
	require.NoError(t, strongErr)
	require.NoError(t, eventualErr)
	assert.Equal(t, []eventstore.ConsistencyLevel{eventstore.StrongConsistency}, strongFeed.levels)
	assert.Equal(t, []eventstore.ConsistencyLevel{eventstore.EventualConsistency}, eventualFeed.levels)
	assert.Equal(t, eventstore.StrongConsistency, handlerLevel, "handlers keep the caller's consistency")
}

func Test_NewEventDispatcher_ShouldFail(t *testing.T) {
	store := memengine.NewEventStore()

	t.Run("without change feed", func(t *testing.T) {
		_, err := application.NewEventDispatcher[testEvent](nil, givenRepository(t, store))
		assert.ErrorIs(t, err, application.ErrNilCollaborator)
	})

	t.Run("with a non-positive batch size", func(t *testing.T) {
		_, err := application.NewEventDispatcher[testEvent](store, givenRepository(t, store), application.WithBatchSize(0))
		assert.ErrorIs(t, err, application.ErrInvalidBatchSize)
	})
}
