package config

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // postgres driver
)

const driverNamePostgres = "postgres"

// PGXPoolConfig creates a pgxpool.Config for the given DSN.
func (p Postgres) PGXPoolConfig(dsn string) (*pgxpool.Config, error) {
	dbConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}

	dbConfig.MaxConns = p.MaxConns
	dbConfig.MinConns = p.MinConns
	dbConfig.MaxConnLifetime = p.MaxConnLifetime
	dbConfig.MaxConnIdleTime = p.MaxConnIdleTime
	dbConfig.HealthCheckPeriod = p.HealthCheck
	dbConfig.ConnConfig.ConnectTimeout = p.ConnectTimeout

	return dbConfig, nil
}

// OpenPGXPool connects a pgx pool to the given DSN.
func (p Postgres) OpenPGXPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	dbConfig, err := p.PGXPoolConfig(dsn)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, dbConfig)
	if err != nil {
		return nil, fmt.Errorf("connect pgx pool: %w", err)
	}

	if err = pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return pool, nil
}

// OpenSQLDB opens and pings a database/sql connection pool on the lib/pq driver.
func (p Postgres) OpenSQLDB(ctx context.Context) (*sql.DB, error) {
	db, err := sql.Open(driverNamePostgres, p.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database connection: %w", err)
	}

	p.configurePool(db)

	if err = db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return db, nil
}

// OpenSQLX opens and pings a sqlx connection pool on the lib/pq driver.
func (p Postgres) OpenSQLX(ctx context.Context) (*sqlx.DB, error) {
	db, err := sqlx.Open(driverNamePostgres, p.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database connection: %w", err)
	}

	p.configurePool(db.DB)

	if err = db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return db, nil
}

func (p Postgres) configurePool(db *sql.DB) {
	db.SetMaxOpenConns(p.MaxOpenConns)
	db.SetMaxIdleConns(p.MaxIdleConns)
	db.SetConnMaxLifetime(p.MaxConnLifetime)
	db.SetConnMaxIdleTime(p.MaxConnIdleTime)
}
