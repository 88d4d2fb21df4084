// Package config loads the restaurant demo's process configuration from the environment
// and builds the PostgreSQL connections for the supported drivers (pgx pool, database/sql, sqlx).
package config
