package application_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/orchestrating-eventstore-go/application"
	"github.com/AntonStoeckl/orchestrating-eventstore-go/eventstore/memengine"
	"github.com/AntonStoeckl/orchestrating-eventstore-go/fmodel"
)

const accountViewName = "accounts"

type accountView struct {
	ID      uuid.UUID `json:"id"`
	Balance int       `json:"balance"`
}

func testAccountView() fmodel.View[*accountView, testEvent] {
	return fmodel.View[*accountView, testEvent]{
		Evolve: func(state *accountView, event testEvent) *accountView {
			switch e := event.(type) {
			case accountOpened:
				return &accountView{ID: e.ID}
			case deposited:
				if state == nil {
					return nil
				}
				return &accountView{ID: state.ID, Balance: state.Balance + e.Amount}
			default:
				return state
			}
		},
		InitialState: func() *accountView {
			return nil
		},
	}
}

func givenAccountView(t *testing.T, store *memengine.EventStore, options ...application.Option) *application.MaterializedView[accountView, testEvent] {
	t.Helper()

	repository, err := application.NewStoreViewStateRepository[testEvent, accountView](store, accountViewName)
	require.NoError(t, err)

	view, err := application.NewMaterializedView[accountView, testEvent](repository, testAccountView(), options...)
	require.NoError(t, err)

	return view
}

func Test_MaterializedView_Handle_EvolvesAndSavesTheState(t *testing.T) {
	// arrange
	ctx := context.Background()
	store := memengine.NewEventStore()
	view := givenAccountView(t, store)
	accountID := uuid.New()

	// act
	_, err := view.Handle(ctx, accountOpened{ID: accountID, LedgerID: uuid.New()})
	require.NoError(t, err)
	state, err := view.Handle(ctx, deposited{ID: accountID, Amount: 15})

	// assert
	require.NoError(t, err)
	assert.Equal(t, &accountView{ID: accountID, Balance: 15}, state)

	row, found, err := store.FetchViewState(ctx, accountViewName, accountID)
	require.NoError(t, err)
	assert.True(t, found)
	assert.JSONEq(t, `{"id":"`+accountID.String()+`","balance":15}`, string(row.Data))
}

func Test_MaterializedView_Handle_SameCreatedEventTwice(t *testing.T) {
	// arrange
	ctx := context.Background()
	view := givenAccountView(t, memengine.NewEventStore())
	opened := accountOpened{ID: uuid.New(), LedgerID: uuid.New()}
	first, err := view.Handle(ctx, opened)
	require.NoError(t, err)

	// act
	second, err := view.Handle(ctx, opened)

	// assert
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func Test_MaterializedView_Handle_EventThatEvolvesToNoState(t *testing.T) {
	// arrange
	view := givenAccountView(t, memengine.NewEventStore())

	// act
	state, err := view.Handle(context.Background(), deposited{ID: uuid.New(), Amount: 1})

	// assert
	assert.ErrorIs(t, err, application.ErrEmptyViewState)
	assert.Nil(t, state)
}

func Test_HandlerFor_IgnoresEventsOfOtherEntities(t *testing.T) {
	// arrange
	ctx := context.Background()
	store := memengine.NewEventStore()
	handler := application.HandlerFor(givenAccountView(t, store), accountEventsOnly)
	ledgerID := uuid.New()

	// act
	err := handler(ctx, entryRecorded{LedgerID: ledgerID, AccountID: uuid.New(), Note: "opened"})

	// assert
	require.NoError(t, err)
	_, found, err := store.FetchViewState(ctx, accountViewName, ledgerID)
	require.NoError(t, err)
	assert.False(t, found)
}

func accountEventsOnly(event testEvent) (testEvent, bool) {
	return event, event.DeciderType() == accountType
}
