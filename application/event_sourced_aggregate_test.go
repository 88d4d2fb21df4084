package application_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/orchestrating-eventstore-go/application"
	"github.com/AntonStoeckl/orchestrating-eventstore-go/eventstore"
	"github.com/AntonStoeckl/orchestrating-eventstore-go/eventstore/memengine"
)

func givenEventSourcedAggregate(
	t *testing.T,
	repository application.EventRepository[testCommand, testEvent],
	options ...application.Option,
) *application.EventSourcedAggregate[testCommand, testState, testEvent] {

	t.Helper()

	aggregate, err := application.NewEventSourcedAggregate(repository, testDecider(), options...)
	require.NoError(t, err)

	return aggregate
}

func Test_EventSourcedAggregate_Handle_DoesNotReact(t *testing.T) {
	// arrange
	ctx := context.Background()
	store := memengine.NewEventStore()
	aggregate := givenEventSourcedAggregate(t, givenRepository(t, store))
	accountID, ledgerID := uuid.New(), uuid.New()

	// act
	saved, err := aggregate.Handle(ctx, openAccount{ID: accountID, LedgerID: ledgerID})

	// assert
	require.NoError(t, err)
	assert.Equal(t, []testEvent{accountOpened{ID: accountID, LedgerID: ledgerID}}, eventsOnly(saved))
	assert.Empty(t, givenStoredEvents(t, ctx, store, eventstore.NewStreamID(ledgerType, ledgerID)))
}

func Test_EventSourcedAggregate_Handle_DecidesOnTheStoredHistory(t *testing.T) {
	// arrange
	ctx := context.Background()
	aggregate := givenEventSourcedAggregate(t, givenRepository(t, memengine.NewEventStore()))
	accountID, ledgerID := uuid.New(), uuid.New()
	_, err := aggregate.Handle(ctx, openAccount{ID: accountID, LedgerID: ledgerID})
	require.NoError(t, err)

	// act
	saved, err := aggregate.Handle(ctx, deposit{ID: accountID, LedgerID: ledgerID, Amount: 7})

	// assert
	require.NoError(t, err)
	assert.Equal(t, []testEvent{deposited{ID: accountID, LedgerID: ledgerID, Amount: 7}}, eventsOnly(saved))
}

func Test_EventSourcedAggregate_Handle_ExplicitPredecessor_DetectsAConcurrentWrite(t *testing.T) {
	// arrange
	ctx := context.Background()
	store := memengine.NewEventStore()
	ledgerID := uuid.New()
	repository := &repositoryStub{EventRepository: givenRepository(t, store)}
	repository.onFetch = givenConcurrentLedgerWrite(t, ctx, store, ledgerID)
	aggregate := givenEventSourcedAggregate(t, repository)

	// act
	_, err := aggregate.Handle(ctx, recordEntry{LedgerID: ledgerID, AccountID: uuid.New(), Note: "stale"})

	// assert
	assert.ErrorIs(t, err, eventstore.ErrConcurrencyConflict)
}

func Test_EventSourcedAggregate_Handle_LatestVersion_IgnoresTheConcurrentWrite(t *testing.T) {
	// arrange
	ctx := context.Background()
	store := memengine.NewEventStore()
	ledgerID := uuid.New()
	repository := &repositoryStub{EventRepository: givenRepository(t, store)}
	repository.onFetch = givenConcurrentLedgerWrite(t, ctx, store, ledgerID)
	aggregate := givenEventSourcedAggregate(t, repository, application.WithConcurrencyPolicy(application.LatestVersion))

	// act
	_, err := aggregate.Handle(ctx, recordEntry{LedgerID: ledgerID, AccountID: uuid.New(), Note: "late"})

	// assert
	require.NoError(t, err)
	assert.Len(t, givenStoredEvents(t, ctx, store, eventstore.NewStreamID(ledgerType, ledgerID)), 2)
}

func Test_EventSourcedAggregate_Handle_FetchFailure(t *testing.T) {
	// arrange
	repository := &repositoryStub{EventRepository: givenRepository(t, memengine.NewEventStore()), failFetchOf: accountType}
	aggregate := givenEventSourcedAggregate(t, repository)

	// act
	saved, err := aggregate.Handle(context.Background(), openAccount{ID: uuid.New(), LedgerID: uuid.New()})

	// assert
	assert.ErrorIs(t, err, application.ErrFetchingEventsFailed)
	assert.Nil(t, saved)
}
