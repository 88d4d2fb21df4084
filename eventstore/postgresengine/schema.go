package postgresengine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/AntonStoeckl/orchestrating-eventstore-go/eventstore"
)

const schemaTemplate = `
CREATE TABLE IF NOT EXISTS %[1]s (
    "offset"    BIGSERIAL PRIMARY KEY,
    event       TEXT        NOT NULL,
    event_id    UUID        NOT NULL UNIQUE,
    decider     TEXT        NOT NULL,
    decider_id  UUID        NOT NULL,
    data        JSONB       NOT NULL,
    command_id  UUID        NOT NULL,
    previous_id UUID        UNIQUE,
    final       BOOLEAN     NOT NULL DEFAULT FALSE,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS %[1]s_stream_idx ON %[1]s (decider, decider_id, "offset");

CREATE UNIQUE INDEX IF NOT EXISTS %[1]s_first_event_per_stream_idx ON %[1]s (decider, decider_id) WHERE previous_id IS NULL;

CREATE TABLE IF NOT EXISTS %[2]s (
    view_name  TEXT        NOT NULL,
    id         UUID        NOT NULL,
    data       JSONB       NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    PRIMARY KEY (view_name, id)
);
`

const logMsgSchemaInstalled = "schema installed"

// Schema returns the DDL for the events table and the view states table, using the configured table names.
//
// previous_id is unique, and so is the first event (previous_id IS NULL) of each stream:
// two writers chaining onto the same predecessor can never both commit.
func (es *EventStore) Schema() string {
	return fmt.Sprintf(schemaTemplate, es.eventTableName, es.viewTableName)
}

// InstallSchema executes the DDL returned by Schema. It is idempotent.
func (es *EventStore) InstallSchema(ctx context.Context) error {
	start := time.Now()
	sqlQuery := es.Schema()

	if _, err := es.db.Exec(ctx, sqlQuery); err != nil {
		es.logError(ctx, logMsgDBExecFailed, err)
		return errors.Join(eventstore.ErrInstallingSchemaFailed, err)
	}

	es.logQueryWithDuration(ctx, sqlQuery, logMsgSchemaInstalled, time.Since(start))

	return nil
}
