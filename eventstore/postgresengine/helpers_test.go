package postgresengine_test

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // postgres driver
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/orchestrating-eventstore-go/eventstore"
	"github.com/AntonStoeckl/orchestrating-eventstore-go/eventstore/postgresengine"
)

const testDSNEnvVar = "POSTGRES_TEST_DSN"

type adapterFactory struct {
	name   string
	create func(t *testing.T, dsn string, options ...postgresengine.Option) *postgresengine.EventStore
}

func adapterFactories() []adapterFactory {
	return []adapterFactory{
		{
			name: "pgx.Pool",
			create: func(t *testing.T, dsn string, options ...postgresengine.Option) *postgresengine.EventStore {
				pool, err := pgxpool.New(context.Background(), dsn)
				require.NoError(t, err, "error connecting to DB pool in test setup")
				t.Cleanup(pool.Close)

				es, err := postgresengine.NewEventStoreFromPGXPool(pool, options...)
				require.NoError(t, err)

				return es
			},
		},
		{
			name: "sql.DB",
			create: func(t *testing.T, dsn string, options ...postgresengine.Option) *postgresengine.EventStore {
				db, err := sql.Open("postgres", dsn)
				require.NoError(t, err, "error opening sql.DB in test setup")
				t.Cleanup(func() { _ = db.Close() })

				es, err := postgresengine.NewEventStoreFromSQLDB(db, options...)
				require.NoError(t, err)

				return es
			},
		},
		{
			name: "sqlx.DB",
			create: func(t *testing.T, dsn string, options ...postgresengine.Option) *postgresengine.EventStore {
				db, err := sqlx.Open("postgres", dsn)
				require.NoError(t, err, "error opening sqlx.DB in test setup")
				t.Cleanup(func() { _ = db.Close() })

				es, err := postgresengine.NewEventStoreFromSQLX(db, options...)
				require.NoError(t, err)

				return es
			},
		},
	}
}

// forEachAdapter runs the test against a freshly installed schema for every supported client library.
// It skips when no test database is configured.
func forEachAdapter(t *testing.T, test func(t *testing.T, ctx context.Context, es *postgresengine.EventStore)) {
	dsn := os.Getenv(testDSNEnvVar)
	if dsn == "" {
		t.Skipf("%s is not set, skipping PostgreSQL integration test", testDSNEnvVar)
	}

	for _, factory := range adapterFactories() {
		t.Run(factory.name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			suffix := uuid.NewString()[:8]
			es := factory.create(
				t,
				dsn,
				postgresengine.WithTableName("events_test_"+suffix),
				postgresengine.WithViewTableName("view_states_test_"+suffix),
			)

			require.NoError(t, es.InstallSchema(ctx))
			t.Cleanup(func() { dropTables(t, dsn, suffix) })

			test(t, ctx, es)
		})
	}
}

func dropTables(t *testing.T, dsn string, suffix string) {
	db, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	_, err = db.Exec("DROP TABLE IF EXISTS events_test_" + suffix + ", view_states_test_" + suffix)
	require.NoError(t, err, "cleaning up test tables failed")
}

func givenStream(deciderType string) eventstore.StreamID {
	return eventstore.NewStreamID(deciderType, uuid.New())
}

func givenEvent(t *testing.T, stream eventstore.StreamID, eventType string, final bool) eventstore.StorableEvent {
	t.Helper()

	payload := []byte(`{"type": "` + eventType + `", "identifier": "` + stream.DeciderID.String() + `"}`)
	event, err := eventstore.BuildStorableEvent(eventType, stream, payload, uuid.New(), final)
	require.NoError(t, err)

	return event
}
