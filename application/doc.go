// Package application runs the pure algebras of the fmodel package against an event store.
//
//   - OrchestratingAggregate: decides, lets the saga react, resolves all triggered commands
//     recursively and appends the whole cascade atomically
//   - EventSourcedAggregate: decides and appends, without saga
//   - MaterializedView: evolves one read-side state per event and saves it
//   - EventDispatcher: pulls the store's change feed and hands every event to the materialized views
//
// Infrastructure failures are returned as errors and nothing is persisted.
// Domain rejections are ordinary events produced by the deciders.
package application
