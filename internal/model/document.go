package model

import "time"

// Status is the verification state of a stored document.
type Status string

const (
	StatusUploaded            Status = "uploaded"
	StatusPendingVerification Status = "pending_verification"
	StatusApproved            Status = "approved"
	StatusRejected            Status = "rejected"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusUploaded, StatusPendingVerification, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// CanTransitionTo reports whether a verifier may move a document from s to next.
// Only uploaded/pending_verification documents may be approved or rejected.
func (s Status) CanTransitionTo(next Status) bool {
	if s != StatusUploaded && s != StatusPendingVerification {
		return false
	}
	return next == StatusApproved || next == StatusRejected
}

// Document represents one uploaded file's custody metadata.
// This is a pure domain model with no database-specific dependencies or tags.
//
// EncryptionKey and Nonce are base64-encoded symmetric key material. They must
// never appear in logs or JSON responses; the json tags strip them from any
// serialized view, and Redacted zeroes them for handler responses.
type Document struct {
	ID             string    `json:"id"`
	OwnerID        string    `json:"owner_id"`
	ApplicationID  string    `json:"application_id,omitempty"`
	OriginalName   string    `json:"original_name"`
	MimeType       string    `json:"mime_type"`
	ByteSize       int64     `json:"byte_size"`
	ContentDigest  string    `json:"content_digest"`
	ContentAddress string    `json:"content_address"`
	EncryptionKey  string    `json:"-"`
	Nonce          string    `json:"-"`
	LedgerTxHash   string    `json:"ledger_tx_hash,omitempty"`
	AccessCodeHash string    `json:"-"`
	Department     string    `json:"department"`
	Status         Status    `json:"status"`
	Remarks        string    `json:"remarks,omitempty"`
	VerifiedBy     string    `json:"verified_by,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	Grants []AccessGrant `json:"grants,omitempty"`
}

// Redacted returns a copy safe for returning to any caller: key material and
// the access code hash are zeroed even if a future serializer ignores tags.
func (d Document) Redacted() Document {
	d.EncryptionKey = ""
	d.Nonce = ""
	d.AccessCodeHash = ""
	return d
}

// AccessGrant is one department's permission on one document. Grants are only
// ever appended or re-granted; there is no revocation path.
type AccessGrant struct {
	DocumentID   string    `json:"document_id"`
	DepartmentID string    `json:"department_id"`
	AccessPolicy string    `json:"access_policy"`
	GrantedBy    string    `json:"granted_by"`
	GrantedAt    time.Time `json:"granted_at"`
}

// Role is the coarse role of a requester as asserted by the upstream gateway.
type Role string

const (
	RoleCitizen    Role = "citizen"
	RoleOfficer    Role = "officer"
	RoleAdmin      Role = "admin"
	RoleDepartment Role = "department"
)

// Privileged reports whether the role may access documents it does not own.
// Privileged access is always audited.
func (r Role) Privileged() bool {
	return r == RoleOfficer || r == RoleAdmin || r == RoleDepartment
}

// Requester identifies the caller of a retrieval or verification operation.
type Requester struct {
	ID         string `json:"id"`
	Role       Role   `json:"role"`
	Department string `json:"department,omitempty"`
}

// AuditEvent records one privileged or denied access decision.
type AuditEvent struct {
	ID         string    `json:"id"`
	ActorID    string    `json:"actor_id"`
	ActorRole  Role      `json:"actor_role"`
	DocumentID string    `json:"document_id"`
	Action     string    `json:"action"`
	Decision   string    `json:"decision"`
	Reason     string    `json:"reason,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
