package services

import (
	"context"

	"github.com/cogzy/cogzy-api/models"
	"github.com/cogzy/cogzy-api/services/email"
	"github.com/google/uuid"
)

// WorkspaceListCache caches an organization's workspace listing. Implementations
// treat backend failures as misses. Set only stores a listing whose generation is
// still current, so a load that races an Invalidate is never cached.
type WorkspaceListCache interface {
	Get(ctx context.Context, orgID uuid.UUID) ([]*models.WorkspaceSummary, bool)
	Generation(ctx context.Context, orgID uuid.UUID) uint64
	Set(ctx context.Context, orgID uuid.UUID, gen uint64, workspaces []*models.WorkspaceSummary)
	Invalidate(ctx context.Context, orgID uuid.UUID)
}

// AuditRecorder queues audit entries without blocking the caller
type AuditRecorder interface {
	Record(ctx context.Context, entry *models.AuditLog)
}

// InvitationMailer delivers organization invitation emails
type InvitationMailer interface {
	SendInvitation(ctx context.Context, to string, data email.InvitationData) error
}
