package migration

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"
)

type migrationStep struct {
	Name string
	SQL  string
}

var steps = []migrationStep{
	{
		Name: "create_table_documents",
		SQL: `CREATE TABLE IF NOT EXISTS documents (
  id               UUID        PRIMARY KEY,
  owner_id         TEXT        NOT NULL,
  application_id   TEXT,
  original_name    TEXT        NOT NULL,
  mime_type        TEXT        NOT NULL,
  byte_size        BIGINT      NOT NULL CHECK (byte_size >= 0),
  content_digest   TEXT        NOT NULL,
  content_address  TEXT        NOT NULL,
  encryption_key   TEXT        NOT NULL,
  nonce            TEXT        NOT NULL,
  ledger_tx_hash   TEXT,
  access_code_hash TEXT,
  department       TEXT        NOT NULL,
  status           TEXT        NOT NULL DEFAULT 'uploaded'
                               CHECK (status IN ('uploaded', 'pending_verification', 'approved', 'rejected')),
  remarks          TEXT,
  verified_by      TEXT,
  created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_documents_owner_id",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_documents_owner_id ON documents (owner_id);`,
	},
	{
		Name: "create_index_documents_access_code_hash",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_documents_access_code_hash ON documents (access_code_hash) WHERE access_code_hash IS NOT NULL;`,
	},
	{
		Name: "create_index_documents_created_at",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_documents_created_at ON documents (created_at);`,
	},
	{
		Name: "create_table_document_grants",
		SQL: `CREATE TABLE IF NOT EXISTS document_grants (
  document_id   UUID        NOT NULL REFERENCES documents (id) ON DELETE CASCADE,
  department_id TEXT        NOT NULL,
  access_policy TEXT        NOT NULL DEFAULT 'read',
  granted_by    TEXT        NOT NULL,
  granted_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
  UNIQUE (document_id, department_id)
);`,
	},
	{
		Name: "create_index_document_grants_department_id",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_document_grants_department_id ON document_grants (department_id);`,
	},
	{
		Name: "create_table_audit_events",
		SQL: `CREATE TABLE IF NOT EXISTS audit_events (
  id          UUID        PRIMARY KEY,
  actor_id    TEXT        NOT NULL,
  actor_role  TEXT        NOT NULL,
  document_id UUID        NOT NULL,
  action      TEXT        NOT NULL,
  decision    TEXT        NOT NULL CHECK (decision IN ('allow', 'deny')),
  reason      TEXT,
  created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_audit_events_document_id",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_audit_events_document_id ON audit_events (document_id);`,
	},
}

// EnsureMigrated checks if the 'documents' table exists and runs migrations if it doesn't.
func EnsureMigrated(ctx context.Context, db *sql.DB, loc *time.Location, dbHost string) error {
	start := time.Now()

	logJSON(loc, map[string]any{
		"component": "database",
		"event":     "db_migration_check",
		"status":    "starting",
		"db_host":   dbHost,
	})

	var exists bool
	query := "SELECT to_regclass('public.documents') IS NOT NULL"
	err := db.QueryRowContext(ctx, query).Scan(&exists)
	if err != nil {
		logJSON(loc, map[string]any{
			"component":     "database",
			"event":         "db_migration_failed",
			"status":        "error",
			"error_message": fmt.Sprintf("failed to check sentinel table: %v", err),
			"db_host":       dbHost,
			"duration_ms":   time.Since(start).Milliseconds(),
		})
		return fmt.Errorf("failed to check sentinel table: %w", err)
	}

	if exists {
		logJSON(loc, map[string]any{
			"component":   "database",
			"event":       "db_migration_skip",
			"status":      "success",
			"msg":         "schema already exists, skipping migration",
			"db_host":     dbHost,
			"duration_ms": time.Since(start).Milliseconds(),
		})
		return nil
	}

	logJSON(loc, map[string]any{
		"component": "database",
		"event":     "db_migration_start",
		"status":    "in_progress",
		"db_host":   dbHost,
	})

	for _, step := range steps {
		stepStart := time.Now()
		_, err := db.ExecContext(ctx, step.SQL)
		if err != nil {
			logJSON(loc, map[string]any{
				"component":        "database",
				"event":            "db_migration_failed",
				"status":           "error",
				"migration_step":   step.Name,
				"error_message":    err.Error(),
				"db_host":          dbHost,
				"duration_ms":      time.Since(start).Milliseconds(),
				"step_duration_ms": time.Since(stepStart).Milliseconds(),
			})
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}

		logJSON(loc, map[string]any{
			"component":        "database",
			"event":            "db_migration_step",
			"status":           "success",
			"migration_step":   step.Name,
			"db_host":          dbHost,
			"step_duration_ms": time.Since(stepStart).Milliseconds(),
		})
	}

	logJSON(loc, map[string]any{
		"component":   "database",
		"event":       "db_migration_done",
		"status":      "success",
		"db_host":     dbHost,
		"duration_ms": time.Since(start).Milliseconds(),
	})

	return nil
}

func logJSON(loc *time.Location, fields map[string]any) {
	if _, ok := fields["ts"]; !ok {
		fields["ts"] = time.Now().In(loc).Format(time.RFC3339Nano)
	}
	if b, err := json.Marshal(fields); err == nil {
		log.SetFlags(0)
		log.Println(string(b))
	}
}
