package access

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"digisewa/internal/cryptox"
	"digisewa/internal/model"
	repoMocks "digisewa/internal/repository/mocks"
)

func TestGateAuthorize(t *testing.T) {
	ctx := context.Background()
	doc := &model.Document{ID: "doc-1", OwnerID: "u1"}

	tests := []struct {
		name       string
		requester  model.Requester
		setupMocks func(mAudit *repoMocks.MockAuditRepository)
		wantErr    error
	}{
		{
			name:       "owner allowed without audit",
			requester:  model.Requester{ID: "u1", Role: model.RoleCitizen},
			setupMocks: func(mAudit *repoMocks.MockAuditRepository) {},
		},
		{
			name:      "officer allowed with audit event",
			requester: model.Requester{ID: "officer-1", Role: model.RoleOfficer},
			setupMocks: func(mAudit *repoMocks.MockAuditRepository) {
				mAudit.On("Record", ctx, mock.MatchedBy(func(e *model.AuditEvent) bool {
					return e.ActorID == "officer-1" &&
						e.DocumentID == "doc-1" &&
						e.Action == "retrieve" &&
						e.Decision == "allow"
				})).Return(nil).Once()
			},
		},
		{
			name:      "admin allowed with audit event",
			requester: model.Requester{ID: "admin-1", Role: model.RoleAdmin},
			setupMocks: func(mAudit *repoMocks.MockAuditRepository) {
				mAudit.On("Record", ctx, mock.Anything).Return(nil).Once()
			},
		},
		{
			name:      "stranger citizen denied",
			requester: model.Requester{ID: "u2", Role: model.RoleCitizen},
			setupMocks: func(mAudit *repoMocks.MockAuditRepository) {
				mAudit.On("Record", ctx, mock.MatchedBy(func(e *model.AuditEvent) bool {
					return e.Decision == "deny"
				})).Return(nil).Once()
			},
			wantErr: ErrDenied,
		},
		{
			name:       "empty requester denied",
			requester:  model.Requester{},
			setupMocks: func(mAudit *repoMocks.MockAuditRepository) {},
			wantErr:    ErrDenied,
		},
		{
			name:      "privileged access refused when audit write fails",
			requester: model.Requester{ID: "officer-1", Role: model.RoleOfficer},
			setupMocks: func(mAudit *repoMocks.MockAuditRepository) {
				mAudit.On("Record", ctx, mock.Anything).Return(errors.New("db down")).Once()
			},
			wantErr: errors.New("record audit event"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mAudit := new(repoMocks.MockAuditRepository)
			gate := NewGate(mAudit, zap.NewNop())

			tt.setupMocks(mAudit)

			err := gate.Authorize(ctx, tt.requester, doc, "retrieve")

			if tt.wantErr != nil {
				if errors.Is(tt.wantErr, ErrDenied) {
					assert.ErrorIs(t, err, ErrDenied)
				} else {
					assert.Error(t, err)
					assert.Contains(t, err.Error(), tt.wantErr.Error())
				}
			} else {
				assert.NoError(t, err)
			}
			mAudit.AssertExpectations(t)
		})
	}
}

func TestGateAuthorizeDeniedRecordsExactlyOneEvent(t *testing.T) {
	ctx := context.Background()
	mAudit := new(repoMocks.MockAuditRepository)
	mAudit.On("Record", ctx, mock.Anything).Return(nil).Once()
	gate := NewGate(mAudit, zap.NewNop())

	err := gate.Authorize(ctx, model.Requester{ID: "u2", Role: model.RoleCitizen},
		&model.Document{ID: "doc-1", OwnerID: "u1"}, "retrieve")

	assert.ErrorIs(t, err, ErrDenied)
	mAudit.AssertNumberOfCalls(t, "Record", 1)
}

func TestGateAuthorizeByCode(t *testing.T) {
	gate := NewGate(new(repoMocks.MockAuditRepository), zap.NewNop())

	codeHash := cryptox.HashAccessCode("citizen-secret")
	doc := &model.Document{ID: "doc-1", AccessCodeHash: codeHash}

	assert.NoError(t, gate.AuthorizeByCode(codeHash, doc))
	assert.ErrorIs(t, gate.AuthorizeByCode(cryptox.HashAccessCode("wrong"), doc), ErrDenied)
	assert.ErrorIs(t, gate.AuthorizeByCode("", doc), ErrDenied)

	noCodeDoc := &model.Document{ID: "doc-2"}
	assert.ErrorIs(t, gate.AuthorizeByCode(codeHash, noCodeDoc), ErrDenied)
}
