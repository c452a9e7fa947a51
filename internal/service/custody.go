package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"digisewa/internal/access"
	"digisewa/internal/cryptox"
	"digisewa/internal/ledger"
	"digisewa/internal/metrics"
	"digisewa/internal/model"
	"digisewa/internal/repository"
	"digisewa/internal/storage"
)

var (
	ErrValidation        = errors.New("invalid input")
	ErrNotFound          = errors.New("document not found")
	ErrIntegrity         = errors.New("content digest mismatch")
	ErrInvalidTransition = errors.New("illegal status transition")
)

// IngestInput is the upload entry point's request shape.
type IngestInput struct {
	Plaintext     []byte
	OriginalName  string
	MimeType      string
	OwnerID       string
	Department    string
	ApplicationID string
	AccessCode    string // optional; enables code-based retrieval
}

// IngestResult is what the upload entry point returns to the caller.
// LedgerTxHash is empty when anchoring was skipped or failed.
type IngestResult struct {
	DocumentID     string `json:"id"`
	ContentAddress string `json:"content_address"`
	ContentDigest  string `json:"content_digest"`
	LedgerTxHash   string `json:"ledger_tx_hash,omitempty"`
}

// Content is a retrieved document: decrypted plaintext plus redacted metadata.
type Content struct {
	Plaintext []byte
	Document  model.Document
}

// DocumentListResult is the service-level DTO for paginated documents.
type DocumentListResult struct {
	Items []model.Document `json:"data"`
	Total int              `json:"total"`
}

// CustodyService is the document custody pipeline: encrypt-on-ingest,
// content-address the ciphertext, best-effort ledger anchoring, and
// authorize-then-decrypt on retrieval.
type CustodyService interface {
	// Ingest runs the upload pipeline. Storage failure aborts the whole call;
	// ledger failure only downgrades the result to no tx hash.
	Ingest(ctx context.Context, in IngestInput) (*IngestResult, error)

	// Retrieve authorizes the requester, fetches and decrypts the content,
	// and re-verifies the plaintext digest before returning it.
	Retrieve(ctx context.Context, documentID string, req model.Requester) (*Content, error)

	// RetrieveByCode fetches content by possession of the access code.
	RetrieveByCode(ctx context.Context, code string) (*Content, error)

	// Get returns redacted metadata; the access gate applies as for Retrieve.
	Get(ctx context.Context, documentID string, req model.Requester) (*model.Document, error)

	// ListByOwner returns an owner's documents, redacted.
	ListByOwner(ctx context.Context, ownerID string, limit, offset int) (*DocumentListResult, error)

	// SetStatus applies a verifier's approve/reject decision.
	SetStatus(ctx context.Context, documentID string, next model.Status, verifier model.Requester, remarks string) (*model.Document, error)

	// GrantDepartmentAccess shares a document with a department, idempotently.
	GrantDepartmentAccess(ctx context.Context, documentID, departmentID, accessPolicy, grantedBy string) (*model.Document, error)

	// VerifyAnchor checks the ledger record against the stored digest.
	// Display only; never part of an authorization decision.
	VerifyAnchor(ctx context.Context, documentID string, req model.Requester) (bool, error)
}

// custodyService is the concrete CustodyService.
type custodyService struct {
	store       storage.Storage
	repo        repository.DocumentRepository
	gate        *access.Gate
	anchorer    ledger.Anchorer // nil when anchoring is not configured
	departments map[string]struct{}
	metrics     *metrics.Custody
	logger      *zap.Logger
}

// DefaultDepartments are the department labels the ledger anchor accepts.
// An unknown label skips anchoring with a warning instead of failing ingest.
var DefaultDepartments = []string{
	"Revenue Department",
	"Transport Department",
	"Health Department",
	"Education Department",
	"Urban Development Department",
}

// NewCustodyService constructs the custody pipeline. anchorer may be nil;
// absence and anchor failure degrade identically.
func NewCustodyService(
	store storage.Storage,
	repo repository.DocumentRepository,
	gate *access.Gate,
	anchorer ledger.Anchorer,
	m *metrics.Custody,
	logger *zap.Logger,
) CustodyService {
	departments := make(map[string]struct{}, len(DefaultDepartments))
	for _, d := range DefaultDepartments {
		departments[d] = struct{}{}
	}
	if m == nil {
		m = metrics.Noop()
	}
	return &custodyService{
		store:       store,
		repo:        repo,
		gate:        gate,
		anchorer:    anchorer,
		departments: departments,
		metrics:     m,
		logger:      logger.With(zap.String("service", "custody")),
	}
}

func (s *custodyService) Ingest(ctx context.Context, in IngestInput) (*IngestResult, error) {
	if len(in.Plaintext) == 0 {
		return nil, fmt.Errorf("%w: empty file", ErrValidation)
	}
	if in.OwnerID == "" {
		return nil, fmt.Errorf("%w: owner is required", ErrValidation)
	}
	if in.OriginalName == "" {
		return nil, fmt.Errorf("%w: original name is required", ErrValidation)
	}

	digest := cryptox.Digest(in.Plaintext)

	key, err := cryptox.GenerateKey()
	if err != nil {
		return nil, err
	}
	ciphertext, nonce, err := cryptox.Encrypt(in.Plaintext, key)
	if err != nil {
		return nil, err
	}

	// Storage is mandatory: nothing is persisted if the blob cannot be pinned.
	contentAddress, err := s.store.Put(ctx, ciphertext, storage.PutOptions{
		Name:     in.OriginalName,
		MimeType: in.MimeType,
		Metadata: map[string]string{"owner": in.OwnerID},
	})
	if err != nil {
		s.metrics.Ingests.WithLabelValues("storage_error").Inc()
		return nil, fmt.Errorf("store ciphertext: %w", err)
	}

	documentID := uuid.NewString()
	txHash := s.anchor(ctx, documentID, digest, in.Department)

	now := time.Now().UTC()
	doc := &model.Document{
		ID:             documentID,
		OwnerID:        in.OwnerID,
		ApplicationID:  in.ApplicationID,
		OriginalName:   in.OriginalName,
		MimeType:       in.MimeType,
		ByteSize:       int64(len(in.Plaintext)),
		ContentDigest:  digest,
		ContentAddress: contentAddress,
		EncryptionKey:  key,
		Nonce:          nonce,
		LedgerTxHash:   txHash,
		Department:     in.Department,
		Status:         model.StatusUploaded,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if in.AccessCode != "" {
		doc.AccessCodeHash = cryptox.HashAccessCode(in.AccessCode)
	}

	stored, err := s.repo.Create(ctx, doc)
	if err != nil {
		s.metrics.Ingests.WithLabelValues("db_error").Inc()
		return nil, fmt.Errorf("persist document: %w", err)
	}

	s.metrics.Ingests.WithLabelValues("ok").Inc()
	s.logger.Info("document ingested",
		zap.String("document_id", stored.ID),
		zap.String("department", stored.Department),
		zap.Bool("anchored", stored.LedgerTxHash != ""))

	return &IngestResult{
		DocumentID:     stored.ID,
		ContentAddress: stored.ContentAddress,
		ContentDigest:  stored.ContentDigest,
		LedgerTxHash:   stored.LedgerTxHash,
	}, nil
}

// anchor attempts the best-effort ledger write. Every degrade path returns an
// empty tx hash and never an error.
func (s *custodyService) anchor(ctx context.Context, documentID, digest, department string) string {
	if s.anchorer == nil {
		return ""
	}
	if _, known := s.departments[department]; !known {
		s.logger.Warn("unknown department, skipping ledger anchor",
			zap.String("document_id", documentID),
			zap.String("department", department))
		return ""
	}
	receipt, err := s.anchorer.Anchor(ctx, documentID, digest, department)
	if err != nil {
		s.metrics.AnchorFailures.Inc()
		s.logger.Warn("ledger anchor failed, continuing without tx hash",
			zap.String("document_id", documentID),
			zap.Error(err))
		return ""
	}
	return receipt.TxHash
}

func (s *custodyService) Retrieve(ctx context.Context, documentID string, req model.Requester) (*Content, error) {
	doc, err := s.load(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if err := s.gate.Authorize(ctx, req, doc, "retrieve"); err != nil {
		s.metrics.Retrievals.WithLabelValues("denied").Inc()
		return nil, err
	}
	return s.open(ctx, doc)
}

func (s *custodyService) RetrieveByCode(ctx context.Context, code string) (*Content, error) {
	if code == "" {
		return nil, fmt.Errorf("%w: access code is required", ErrValidation)
	}
	doc, err := s.repo.FindByCodeHash(ctx, cryptox.HashAccessCode(code))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// A wrong code is a denial, not a missing document: the code
			// lookup must not confirm which documents exist.
			return nil, access.ErrDenied
		}
		return nil, err
	}
	if err := s.gate.AuthorizeByCode(cryptox.HashAccessCode(code), doc); err != nil {
		s.metrics.Retrievals.WithLabelValues("denied").Inc()
		return nil, err
	}
	return s.open(ctx, doc)
}

// open fetches, decrypts and integrity-checks a document the caller is
// already authorized for.
func (s *custodyService) open(ctx context.Context, doc *model.Document) (*Content, error) {
	ciphertext, err := s.store.Get(ctx, doc.ContentAddress)
	if err != nil {
		s.metrics.Retrievals.WithLabelValues("storage_error").Inc()
		return nil, fmt.Errorf("fetch ciphertext: %w", err)
	}

	plaintext, err := cryptox.Decrypt(ciphertext, doc.EncryptionKey, doc.Nonce)
	if err != nil {
		s.metrics.Retrievals.WithLabelValues("decrypt_error").Inc()
		return nil, err
	}

	if cryptox.Digest(plaintext) != doc.ContentDigest {
		s.metrics.Retrievals.WithLabelValues("integrity_error").Inc()
		s.logger.Error("plaintext digest mismatch",
			zap.String("document_id", doc.ID))
		return nil, fmt.Errorf("%w: document %s", ErrIntegrity, doc.ID)
	}

	s.metrics.Retrievals.WithLabelValues("ok").Inc()
	return &Content{Plaintext: plaintext, Document: doc.Redacted()}, nil
}

func (s *custodyService) Get(ctx context.Context, documentID string, req model.Requester) (*model.Document, error) {
	doc, err := s.load(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if err := s.gate.Authorize(ctx, req, doc, "read_metadata"); err != nil {
		return nil, err
	}
	grants, err := s.repo.ListGrants(ctx, doc.ID)
	if err != nil {
		return nil, err
	}
	doc.Grants = grants
	redacted := doc.Redacted()
	return &redacted, nil
}

func (s *custodyService) ListByOwner(ctx context.Context, ownerID string, limit, offset int) (*DocumentListResult, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("%w: owner is required", ErrValidation)
	}
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}

	res, err := s.repo.ListByOwner(ctx, ownerID, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}

	items := make([]model.Document, 0, len(res.Items))
	for _, d := range res.Items {
		items = append(items, d.Redacted())
	}
	return &DocumentListResult{Items: items, Total: res.Total}, nil
}

func (s *custodyService) SetStatus(ctx context.Context, documentID string, next model.Status, verifier model.Requester, remarks string) (*model.Document, error) {
	if !verifier.Role.Privileged() {
		return nil, access.ErrDenied
	}
	if !next.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, next)
	}

	doc, err := s.load(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if !doc.Status.CanTransitionTo(next) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, doc.Status, next)
	}

	updated, err := s.repo.UpdateStatus(ctx, documentID, next, verifier.ID, remarks)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// The guarded update lost a race with another verifier.
			return nil, fmt.Errorf("%w: document already finalized", ErrInvalidTransition)
		}
		return nil, err
	}

	s.logger.Info("document status changed",
		zap.String("document_id", documentID),
		zap.String("status", string(next)),
		zap.String("verifier", verifier.ID))

	redacted := updated.Redacted()
	return &redacted, nil
}

func (s *custodyService) GrantDepartmentAccess(ctx context.Context, documentID, departmentID, accessPolicy, grantedBy string) (*model.Document, error) {
	if departmentID == "" || grantedBy == "" {
		return nil, fmt.Errorf("%w: department and granter are required", ErrValidation)
	}
	if accessPolicy == "" {
		accessPolicy = "read"
	}

	doc, err := s.load(ctx, documentID)
	if err != nil {
		return nil, err
	}

	grant := &model.AccessGrant{
		DocumentID:   doc.ID,
		DepartmentID: departmentID,
		AccessPolicy: accessPolicy,
		GrantedBy:    grantedBy,
		GrantedAt:    time.Now().UTC(),
	}
	if err := s.repo.UpsertGrant(ctx, grant); err != nil {
		return nil, fmt.Errorf("record grant: %w", err)
	}

	grants, err := s.repo.ListGrants(ctx, doc.ID)
	if err != nil {
		return nil, err
	}
	doc.Grants = grants
	redacted := doc.Redacted()
	return &redacted, nil
}

func (s *custodyService) VerifyAnchor(ctx context.Context, documentID string, req model.Requester) (bool, error) {
	doc, err := s.load(ctx, documentID)
	if err != nil {
		return false, err
	}
	if err := s.gate.Authorize(ctx, req, doc, "verify_anchor"); err != nil {
		return false, err
	}
	if s.anchorer == nil || doc.LedgerTxHash == "" {
		return false, nil
	}
	return s.anchorer.Verify(ctx, doc.ID, doc.ContentDigest)
}

func (s *custodyService) load(ctx context.Context, documentID string) (*model.Document, error) {
	if documentID == "" {
		return nil, fmt.Errorf("%w: id is required", ErrValidation)
	}
	doc, err := s.repo.FindByID(ctx, documentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return doc, nil
}
