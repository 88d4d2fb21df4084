// Package postgresengine provides a PostgreSQL implementation of the event store and the view state store.
//
// Events live in one table, ordered by a global offset. Every appended event records the EventID of its
// stream's previous tail in previous_id. Append runs in one database transaction: it checks the expected
// versions, chains the new events onto their streams' tails and commits all of them or none.
// Unique indexes on previous_id and on the first event of each stream turn racing writers into
// eventstore.ErrConcurrencyConflict as well.
//
// Three PostgreSQL client libraries are supported (pgx, sql.DB, sqlx).
//
// Usage examples:
//
//	// Basic usage
//	db, _ := pgxpool.New(context.Background(), dsn)
//	store, _ := postgresengine.NewEventStoreFromPGXPool(db)
//	_ = store.InstallSchema(ctx)
//
//	// With a replica for the change feed and operational logging
//	store, _ := postgresengine.NewEventStoreFromPGXPoolAndReplica(
//		db,
//		replica,
//		postgresengine.WithTableName("my_events"),
//		postgresengine.WithLogger(slog.Default()),
//	)
//
//	events, _ := store.Fetch(ctx, stream)
//	appended, err := store.Append(ctx, eventstore.ExpectedVersions{stream: eventstore.VersionOf(events)}, newEvent)
package postgresengine
