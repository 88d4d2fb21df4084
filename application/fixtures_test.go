package application_test

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"testing"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/orchestrating-eventstore-go/application"
	"github.com/AntonStoeckl/orchestrating-eventstore-go/eventstore"
	"github.com/AntonStoeckl/orchestrating-eventstore-go/eventstore/memengine"
	"github.com/AntonStoeckl/orchestrating-eventstore-go/fmodel"
)

// Two entity kinds: accounts and the ledgers that record what happens to them.
// Opening an account or depositing into it triggers an entry in the account's ledger.

const (
	accountType = "Account"
	ledgerType  = "Ledger"
)

type testCommand interface {
	fmodel.Command
	isTestCommand()
}

type openAccount struct {
	ID       uuid.UUID
	LedgerID uuid.UUID
}

type deposit struct {
	ID       uuid.UUID
	LedgerID uuid.UUID
	Amount   int
}

type closeAccount struct {
	ID uuid.UUID
}

type recordEntry struct {
	LedgerID  uuid.UUID
	AccountID uuid.UUID
	Note      string
}

func (c openAccount) Identifier() uuid.UUID  { return c.ID }
func (c deposit) Identifier() uuid.UUID      { return c.ID }
func (c closeAccount) Identifier() uuid.UUID { return c.ID }
func (c recordEntry) Identifier() uuid.UUID  { return c.LedgerID }

func (openAccount) DeciderType() string  { return accountType }
func (deposit) DeciderType() string      { return accountType }
func (closeAccount) DeciderType() string { return accountType }
func (recordEntry) DeciderType() string  { return ledgerType }

func (openAccount) isTestCommand()  {}
func (deposit) isTestCommand()      {}
func (closeAccount) isTestCommand() {}
func (recordEntry) isTestCommand()  {}

type testEvent interface {
	fmodel.Event
	isTestEvent()
}

type accountOpened struct {
	ID       uuid.UUID
	LedgerID uuid.UUID
}

type accountNotOpened struct {
	ID     uuid.UUID
	Reason string
}

type deposited struct {
	ID       uuid.UUID
	LedgerID uuid.UUID
	Amount   int
}

type depositRejected struct {
	ID     uuid.UUID
	Reason string
}

type accountClosed struct {
	ID uuid.UUID
}

type entryRecorded struct {
	LedgerID  uuid.UUID
	AccountID uuid.UUID
	Note      string
}

type entryRejected struct {
	LedgerID  uuid.UUID
	AccountID uuid.UUID
	Reason    string
}

func (e accountOpened) Identifier() uuid.UUID    { return e.ID }
func (e accountNotOpened) Identifier() uuid.UUID { return e.ID }
func (e deposited) Identifier() uuid.UUID        { return e.ID }
func (e depositRejected) Identifier() uuid.UUID  { return e.ID }
func (e accountClosed) Identifier() uuid.UUID    { return e.ID }
func (e entryRecorded) Identifier() uuid.UUID    { return e.LedgerID }
func (e entryRejected) Identifier() uuid.UUID    { return e.LedgerID }

func (accountOpened) DeciderType() string    { return accountType }
func (accountNotOpened) DeciderType() string { return accountType }
func (deposited) DeciderType() string        { return accountType }
func (depositRejected) DeciderType() string  { return accountType }
func (accountClosed) DeciderType() string    { return accountType }
func (entryRecorded) DeciderType() string    { return ledgerType }
func (entryRejected) DeciderType() string    { return ledgerType }

func (accountOpened) EventType() string    { return "AccountOpened" }
func (accountNotOpened) EventType() string { return "AccountNotOpened" }
func (deposited) EventType() string        { return "Deposited" }
func (depositRejected) EventType() string  { return "DepositRejected" }
func (accountClosed) EventType() string    { return "AccountClosed" }
func (entryRecorded) EventType() string    { return "EntryRecorded" }
func (entryRejected) EventType() string    { return "EntryRejected" }

func (accountOpened) IsFinal() bool    { return false }
func (accountNotOpened) IsFinal() bool { return false }
func (deposited) IsFinal() bool        { return false }
func (depositRejected) IsFinal() bool  { return false }
func (accountClosed) IsFinal() bool    { return true }
func (entryRecorded) IsFinal() bool    { return false }
func (entryRejected) IsFinal() bool    { return false }

func (accountOpened) isTestEvent()    {}
func (accountNotOpened) isTestEvent() {}
func (deposited) isTestEvent()        {}
func (depositRejected) isTestEvent()  {}
func (accountClosed) isTestEvent()    {}
func (entryRecorded) isTestEvent()    {}
func (entryRejected) isTestEvent()    {}

// testState is folded from every visible event, keyed by entity.
type testState struct {
	balances map[uuid.UUID]int
	entries  map[uuid.UUID][]string
}

func testDecider() fmodel.Decider[testCommand, testState, testEvent] {
	return fmodel.Decider[testCommand, testState, testEvent]{
		Decide: func(command testCommand, state testState) []testEvent {
			switch c := command.(type) {
			case openAccount:
				if _, ok := state.balances[c.ID]; ok {
					return []testEvent{accountNotOpened{ID: c.ID, Reason: "account already exists"}}
				}
				return []testEvent{accountOpened{ID: c.ID, LedgerID: c.LedgerID}}

			case deposit:
				if _, ok := state.balances[c.ID]; !ok {
					return []testEvent{depositRejected{ID: c.ID, Reason: "account does not exist"}}
				}
				return []testEvent{deposited{ID: c.ID, LedgerID: c.LedgerID, Amount: c.Amount}}

			case closeAccount:
				return []testEvent{accountClosed{ID: c.ID}}

			case recordEntry:
				if _, ok := state.balances[c.AccountID]; !ok {
					return []testEvent{entryRejected{LedgerID: c.LedgerID, AccountID: c.AccountID, Reason: "unknown account"}}
				}
				return []testEvent{entryRecorded{LedgerID: c.LedgerID, AccountID: c.AccountID, Note: c.Note}}

			default:
				panic(fmt.Sprintf("unexpected command %T", command))
			}
		},

		Evolve: func(state testState, event testEvent) testState {
			next := testState{balances: maps.Clone(state.balances), entries: maps.Clone(state.entries)}

			switch e := event.(type) {
			case accountOpened:
				next.balances[e.ID] = 0
			case deposited:
				next.balances[e.ID] += e.Amount
			case accountClosed:
				delete(next.balances, e.ID)
			case entryRecorded:
				next.entries[e.LedgerID] = append(append([]string(nil), next.entries[e.LedgerID]...), e.Note)
			}

			return next
		},

		InitialState: func() testState {
			return testState{balances: map[uuid.UUID]int{}, entries: map[uuid.UUID][]string{}}
		},
	}
}

func testSaga() fmodel.Saga[testEvent, testCommand] {
	return fmodel.Saga[testEvent, testCommand]{
		React: func(event testEvent) []testCommand {
			switch e := event.(type) {
			case accountOpened:
				return []testCommand{recordEntry{LedgerID: e.LedgerID, AccountID: e.ID, Note: "opened"}}
			case deposited:
				return []testCommand{recordEntry{LedgerID: e.LedgerID, AccountID: e.ID, Note: fmt.Sprintf("deposited %d", e.Amount)}}
			default:
				return nil
			}
		},
	}
}

type testCodec struct{}

func (testCodec) EncodeEvent(event testEvent) ([]byte, error) {
	return jsoniter.ConfigFastest.Marshal(event)
}

func (testCodec) DecodeEvent(eventType string, payload []byte) (testEvent, error) {
	switch eventType {
	case "AccountOpened":
		return decodeAs[accountOpened](payload)
	case "AccountNotOpened":
		return decodeAs[accountNotOpened](payload)
	case "Deposited":
		return decodeAs[deposited](payload)
	case "DepositRejected":
		return decodeAs[depositRejected](payload)
	case "AccountClosed":
		return decodeAs[accountClosed](payload)
	case "EntryRecorded":
		return decodeAs[entryRecorded](payload)
	case "EntryRejected":
		return decodeAs[entryRejected](payload)
	default:
		return nil, fmt.Errorf("unknown event type %q", eventType)
	}
}

func decodeAs[T testEvent](payload []byte) (testEvent, error) {
	var event T
	if err := jsoniter.ConfigFastest.Unmarshal(payload, &event); err != nil {
		return nil, err
	}

	return event, nil
}

type testRepository = application.StoreEventRepository[testCommand, testEvent]

func givenRepository(t *testing.T, store *memengine.EventStore) *testRepository {
	t.Helper()

	repository, err := application.NewStoreEventRepository[testCommand, testEvent](store, testCodec{})
	require.NoError(t, err)

	return repository
}

func givenOrchestratingAggregate(
	t *testing.T,
	repository application.EventRepository[testCommand, testEvent],
	saga fmodel.Saga[testEvent, testCommand],
	options ...application.Option,
) *application.OrchestratingAggregate[testCommand, testState, testEvent] {

	t.Helper()

	aggregate, err := application.NewOrchestratingAggregate(repository, testDecider(), saga, options...)
	require.NoError(t, err)

	return aggregate
}

func eventsOnly(versioned []application.Versioned[testEvent]) []testEvent {
	events := make([]testEvent, 0, len(versioned))
	for _, v := range versioned {
		events = append(events, v.Event)
	}

	return events
}

func givenStoredEvents(t *testing.T, ctx context.Context, store *memengine.EventStore, stream eventstore.StreamID) eventstore.StorableEvents {
	t.Helper()

	stored, err := store.Fetch(ctx, stream)
	require.NoError(t, err)

	return stored
}

var errFetchFailed = errors.New("fetch failed")

// repositoryStub wraps a repository and lets tests interfere before a fetch of a given stream type returns.
type repositoryStub struct {
	application.EventRepository[testCommand, testEvent]
	failFetchOf  string
	onFetch      func(command testCommand)
	fetchedTypes []string
}

func (r *repositoryStub) FetchEvents(ctx context.Context, command testCommand) ([]application.Versioned[testEvent], error) {
	r.fetchedTypes = append(r.fetchedTypes, command.DeciderType())

	if command.DeciderType() == r.failFetchOf {
		return nil, errors.Join(application.ErrFetchingEventsFailed, errFetchFailed)
	}

	versioned, err := r.EventRepository.FetchEvents(ctx, command)

	if r.onFetch != nil {
		r.onFetch(command)
	}

	return versioned, err
}
