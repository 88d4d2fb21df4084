// Package eventstore provides the storage-facing types shared by all event store engines.
//
// The types are built on scalars so that engines stay agnostic of the domain's command and event types:
//   - StreamID: identifies one stream by decider type and decider id
//   - StorableEvent: the persisted event record, including its predecessor pointer
//   - ExpectedVersions: the optimistic-concurrency expectations for an append
//   - ViewState: one persisted read-side row
//
// A stream's version is the EventID of its most recently appended event; uuid.Nil stands for an empty stream.
//
// Common usage pattern:
//
//	events, err := store.Fetch(ctx, stream)
//	if err != nil {
//		// handle error
//	}
//
//	version := eventstore.VersionOf(events)
//	newEvent, err := eventstore.BuildStorableEvent(eventType, stream, payloadJSON, commandID, false)
//	appended, err := store.Append(ctx, eventstore.ExpectedVersions{stream: version}, newEvent)
//	if errors.Is(err, eventstore.ErrConcurrencyConflict) {
//		// another writer won the race, retry from the fetch
//	}
package eventstore
