// Package repository contains data access layer abstractions.
// Implementations live in subpackages (e.g., postgres) inside this directory.
package repository

import (
	"context"

	"digisewa/internal/model"
)

// DocumentRepository defines data access for document custody records using
// SQL queries only. No business logic here, strictly persistence operations.
//
// Create must be a single atomic insert: content address, key material and
// digest become visible together or not at all, so a concurrent reader never
// observes a half-ingested record.
type DocumentRepository interface {
	// Create inserts a new document record and returns the stored row.
	Create(ctx context.Context, doc *model.Document) (*model.Document, error)

	// FindByID returns a document by its ID.
	FindByID(ctx context.Context, id string) (*model.Document, error)

	// FindByCodeHash returns the document whose access code hashes to codeHash.
	FindByCodeHash(ctx context.Context, codeHash string) (*model.Document, error)

	// ListByOwner returns a paginated list of an owner's documents plus the
	// total row count.
	ListByOwner(ctx context.Context, ownerID string, pq PageQuery) (*PageResult[model.Document], error)

	// UpdateStatus moves a document to next in one guarded statement: the row
	// is only updated when its current status still permits the transition.
	// Returns sql.ErrNoRows when the guard rejects the update.
	UpdateStatus(ctx context.Context, id string, next model.Status, verifierID, remarks string) (*model.Document, error)

	// UpsertGrant records a department grant. Granting the same department
	// again updates the policy and timestamp rather than duplicating the row.
	UpsertGrant(ctx context.Context, grant *model.AccessGrant) error

	// ListGrants returns all department grants for a document.
	ListGrants(ctx context.Context, documentID string) ([]model.AccessGrant, error)
}

// AuditRepository persists access audit events.
type AuditRepository interface {
	// Record appends one audit event.
	Record(ctx context.Context, event *model.AuditEvent) error

	// ListByDocument returns all audit events for a document, newest first.
	ListByDocument(ctx context.Context, documentID string) ([]model.AuditEvent, error)
}

// PageQuery holds limit/offset pagination parameters.
type PageQuery struct {
	Limit  int
	Offset int
}

// PageResult is a generic pagination result wrapper.
// T is typically a model type.
type PageResult[T any] struct {
	Items []T
	Total int
}
