package postgres

import (
	"context"
	"database/sql"

	"digisewa/internal/model"
	"digisewa/internal/repository"
)

// AuditPostgres is a PostgreSQL implementation of repository.AuditRepository.
type AuditPostgres struct {
	db *sql.DB
}

// NewAuditPostgres creates a new AuditPostgres repository.
func NewAuditPostgres(db *sql.DB) *AuditPostgres {
	return &AuditPostgres{db: db}
}

var _ repository.AuditRepository = (*AuditPostgres)(nil)

// Record appends one audit event.
func (r *AuditPostgres) Record(ctx context.Context, event *model.AuditEvent) error {
	const q = `
		INSERT INTO audit_events (id, actor_id, actor_role, document_id, action, decision, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.ExecContext(ctx, q,
		event.ID,
		event.ActorID,
		event.ActorRole,
		event.DocumentID,
		event.Action,
		event.Decision,
		nullable(event.Reason),
		event.CreatedAt,
	)
	return err
}

// ListByDocument returns all audit events for a document, newest first.
func (r *AuditPostgres) ListByDocument(ctx context.Context, documentID string) ([]model.AuditEvent, error) {
	const q = `
		SELECT id, actor_id, actor_role, document_id, action, decision, reason, created_at
		FROM audit_events
		WHERE document_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, q, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]model.AuditEvent, 0)
	for rows.Next() {
		var e model.AuditEvent
		var reason sql.NullString
		if err := rows.Scan(&e.ID, &e.ActorID, &e.ActorRole, &e.DocumentID, &e.Action, &e.Decision, &reason, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Reason = reason.String
		events = append(events, e)
	}
	return events, rows.Err()
}
