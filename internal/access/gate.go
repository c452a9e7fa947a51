// Package access decides who may retrieve a document. Two independent
// strategies exist: identity-based (ownership or a privileged role) and
// possession-of-secret (a hashed access code). They are deliberately not
// merged; they carry different trust assumptions.
package access

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"digisewa/internal/model"
	"digisewa/internal/repository"
)

// ErrDenied is returned when a requester fails authorization. The denial path
// carries no information about the document beyond its existence.
var ErrDenied = errors.New("access denied")

// Gate authorizes retrievals. Owners see their own documents silently;
// privileged roles (officer, admin, department) see everything but every such
// access is written to the audit trail.
type Gate struct {
	audit  repository.AuditRepository
	logger *zap.Logger
}

// NewGate constructs a Gate.
func NewGate(audit repository.AuditRepository, logger *zap.Logger) *Gate {
	return &Gate{
		audit:  audit,
		logger: logger.With(zap.String("component", "access_gate")),
	}
}

// Authorize allows the requester if they own the document or hold a
// privileged role. Privileged access is recorded as an audit event before the
// caller proceeds; if the event cannot be written the access is refused, since
// an unauditable privileged read violates the policy that allows it.
func (g *Gate) Authorize(ctx context.Context, req model.Requester, doc *model.Document, action string) error {
	if req.ID == "" {
		return ErrDenied
	}
	if req.ID == doc.OwnerID {
		return nil
	}
	if !req.Role.Privileged() {
		g.record(ctx, req, doc.ID, action, "deny", "not owner, not privileged")
		return ErrDenied
	}

	event := &model.AuditEvent{
		ID:         uuid.NewString(),
		ActorID:    req.ID,
		ActorRole:  req.Role,
		DocumentID: doc.ID,
		Action:     action,
		Decision:   "allow",
		Reason:     "privileged role",
		CreatedAt:  time.Now().UTC(),
	}
	if err := g.audit.Record(ctx, event); err != nil {
		g.logger.Error("audit write failed, refusing privileged access",
			zap.String("actor_id", req.ID),
			zap.String("document_id", doc.ID),
			zap.Error(err))
		return fmt.Errorf("record audit event: %w", err)
	}
	return nil
}

// AuthorizeByCode allows retrieval when the supplied hash matches the
// document's stored access code hash. Documents without an access code can
// never be fetched this way.
func (g *Gate) AuthorizeByCode(codeHash string, doc *model.Document) error {
	if doc.AccessCodeHash == "" || codeHash == "" {
		return ErrDenied
	}
	if subtle.ConstantTimeCompare([]byte(codeHash), []byte(doc.AccessCodeHash)) != 1 {
		return ErrDenied
	}
	return nil
}

// record writes a best-effort audit event for denied attempts. A failed write
// here only loses the deny record, it never flips a decision.
func (g *Gate) record(ctx context.Context, req model.Requester, docID, action, decision, reason string) {
	event := &model.AuditEvent{
		ID:         uuid.NewString(),
		ActorID:    req.ID,
		ActorRole:  req.Role,
		DocumentID: docID,
		Action:     action,
		Decision:   decision,
		Reason:     reason,
		CreatedAt:  time.Now().UTC(),
	}
	if err := g.audit.Record(ctx, event); err != nil {
		g.logger.Warn("audit write failed",
			zap.String("actor_id", req.ID),
			zap.String("document_id", docID),
			zap.Error(err))
	}
}
