// Package adapters provide database adapter implementations for the PostgreSQL event store.
//
// Three PostgreSQL client libraries are supported: pgxpool.Pool, sql.DB, and sqlx.DB.
// All adapters present the same DBAdapter interface, including transactions,
// so the event store runs its multi-statement append atomically on any of them.
package adapters
