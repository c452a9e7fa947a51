package postgres

import (
	"context"
	"database/sql"

	"digisewa/internal/model"
	"digisewa/internal/repository"
)

// DocumentPostgres is a PostgreSQL implementation of repository.DocumentRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type DocumentPostgres struct {
	db *sql.DB
}

// NewDocumentPostgres creates a new DocumentPostgres repository.
func NewDocumentPostgres(db *sql.DB) *DocumentPostgres {
	return &DocumentPostgres{db: db}
}

var _ repository.DocumentRepository = (*DocumentPostgres)(nil)

const documentColumns = `id, owner_id, application_id, original_name, mime_type, byte_size,
		content_digest, content_address, encryption_key, nonce, ledger_tx_hash,
		access_code_hash, department, status, remarks, verified_by, created_at, updated_at`

func scanDocument(row interface{ Scan(...any) error }) (*model.Document, error) {
	var d model.Document
	var applicationID, ledgerTxHash, accessCodeHash, remarks, verifiedBy sql.NullString
	if err := row.Scan(
		&d.ID,
		&d.OwnerID,
		&applicationID,
		&d.OriginalName,
		&d.MimeType,
		&d.ByteSize,
		&d.ContentDigest,
		&d.ContentAddress,
		&d.EncryptionKey,
		&d.Nonce,
		&ledgerTxHash,
		&accessCodeHash,
		&d.Department,
		&d.Status,
		&remarks,
		&verifiedBy,
		&d.CreatedAt,
		&d.UpdatedAt,
	); err != nil {
		return nil, err
	}
	d.ApplicationID = applicationID.String
	d.LedgerTxHash = ledgerTxHash.String
	d.AccessCodeHash = accessCodeHash.String
	d.Remarks = remarks.String
	d.VerifiedBy = verifiedBy.String
	return &d, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// Create inserts a new document row in one statement and returns the stored record.
func (r *DocumentPostgres) Create(ctx context.Context, doc *model.Document) (*model.Document, error) {
	const q = `
		INSERT INTO documents (id, owner_id, application_id, original_name, mime_type, byte_size,
			content_digest, content_address, encryption_key, nonce, ledger_tx_hash,
			access_code_hash, department, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING ` + documentColumns + `
	`
	row := r.db.QueryRowContext(ctx, q,
		doc.ID,
		doc.OwnerID,
		nullable(doc.ApplicationID),
		doc.OriginalName,
		doc.MimeType,
		doc.ByteSize,
		doc.ContentDigest,
		doc.ContentAddress,
		doc.EncryptionKey,
		doc.Nonce,
		nullable(doc.LedgerTxHash),
		nullable(doc.AccessCodeHash),
		doc.Department,
		doc.Status,
		doc.CreatedAt,
		doc.UpdatedAt,
	)
	return scanDocument(row)
}

// FindByID fetches a single document by its ID.
func (r *DocumentPostgres) FindByID(ctx context.Context, id string) (*model.Document, error) {
	const q = `SELECT ` + documentColumns + ` FROM documents WHERE id = $1`
	return scanDocument(r.db.QueryRowContext(ctx, q, id))
}

// FindByCodeHash fetches the document matching a hashed access code.
func (r *DocumentPostgres) FindByCodeHash(ctx context.Context, codeHash string) (*model.Document, error) {
	const q = `SELECT ` + documentColumns + ` FROM documents WHERE access_code_hash = $1`
	return scanDocument(r.db.QueryRowContext(ctx, q, codeHash))
}

// ListByOwner returns an owner's documents using LIMIT/OFFSET pagination and a total count.
func (r *DocumentPostgres) ListByOwner(ctx context.Context, ownerID string, pq repository.PageQuery) (*repository.PageResult[model.Document], error) {
	const qCount = `SELECT COUNT(*) FROM documents WHERE owner_id = $1`
	var total int
	if err := r.db.QueryRowContext(ctx, qCount, ownerID).Scan(&total); err != nil {
		return nil, err
	}

	const qList = `
		SELECT ` + documentColumns + `
		FROM documents
		WHERE owner_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.QueryContext(ctx, qList, ownerID, pq.Limit, pq.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Document, 0)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.Document]{
		Items: items,
		Total: total,
	}, nil
}

// UpdateStatus performs the status transition as one guarded statement. The
// status predicate keeps a concurrent verifier from approving an already
// rejected document; a rejected guard surfaces as sql.ErrNoRows.
func (r *DocumentPostgres) UpdateStatus(ctx context.Context, id string, next model.Status, verifierID, remarks string) (*model.Document, error) {
	const q = `
		UPDATE documents
		SET status = $1, verified_by = $2, remarks = $3, updated_at = now()
		WHERE id = $4 AND status IN ('uploaded', 'pending_verification')
		RETURNING ` + documentColumns + `
	`
	row := r.db.QueryRowContext(ctx, q, next, verifierID, nullable(remarks), id)
	return scanDocument(row)
}

// UpsertGrant inserts or refreshes a department grant in one statement.
func (r *DocumentPostgres) UpsertGrant(ctx context.Context, grant *model.AccessGrant) error {
	const q = `
		INSERT INTO document_grants (document_id, department_id, access_policy, granted_by, granted_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (document_id, department_id)
		DO UPDATE SET access_policy = EXCLUDED.access_policy,
		              granted_by = EXCLUDED.granted_by,
		              granted_at = EXCLUDED.granted_at
	`
	_, err := r.db.ExecContext(ctx, q,
		grant.DocumentID,
		grant.DepartmentID,
		grant.AccessPolicy,
		grant.GrantedBy,
		grant.GrantedAt,
	)
	return err
}

// ListGrants returns all department grants for a document.
func (r *DocumentPostgres) ListGrants(ctx context.Context, documentID string) ([]model.AccessGrant, error) {
	const q = `
		SELECT document_id, department_id, access_policy, granted_by, granted_at
		FROM document_grants
		WHERE document_id = $1
		ORDER BY granted_at
	`
	rows, err := r.db.QueryContext(ctx, q, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	grants := make([]model.AccessGrant, 0)
	for rows.Next() {
		var g model.AccessGrant
		if err := rows.Scan(&g.DocumentID, &g.DepartmentID, &g.AccessPolicy, &g.GrantedBy, &g.GrantedAt); err != nil {
			return nil, err
		}
		grants = append(grants, g)
	}
	return grants, rows.Err()
}
