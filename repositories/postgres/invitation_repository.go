package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/cogzy/cogzy-api/models"
	"github.com/cogzy/cogzy-api/repositories"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const invitationColumns = `id, organization_id, email, role, status, inviter_id, accepted_by_id, expires_at, created_at, updated_at`

// InvitationRepository implements the repositories.InvitationRepository interface
type InvitationRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewInvitationRepository creates a new invitation repository
func NewInvitationRepository(db *DB, logger *zap.Logger) repositories.InvitationRepository {
	return &InvitationRepository{
		db:     db,
		logger: logger,
	}
}

// Create persists a new invitation
func (r *InvitationRepository) Create(ctx context.Context, inv *models.Invitation) error {
	query := `
		INSERT INTO invitations (id, organization_id, email, role, status, inviter_id, expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := GetExecutor(ctx, r.db).ExecContext(ctx, query,
		inv.ID,
		inv.OrganizationID,
		inv.Email,
		inv.Role,
		inv.Status,
		inv.InviterID,
		inv.ExpiresAt,
		inv.CreatedAt,
		inv.UpdatedAt,
	)
	if err != nil {
		return wrapWriteError("create invitation", err)
	}

	r.logger.Debug("invitation created",
		zap.String("id", inv.ID.String()),
		zap.String("organization_id", inv.OrganizationID.String()))
	return nil
}

// GetByID retrieves an invitation by ID
func (r *InvitationRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Invitation, error) {
	query := `SELECT ` + invitationColumns + ` FROM invitations WHERE id = $1`

	inv := &models.Invitation{}
	if err := GetExecutor(ctx, r.db).GetContext(ctx, inv, query, id); err != nil {
		return nil, wrapReadError("invitation", id, err)
	}
	return inv, nil
}

// GetDetail retrieves an invitation with the organization and inviter names
func (r *InvitationRepository) GetDetail(ctx context.Context, id uuid.UUID) (*models.InvitationDetail, error) {
	query := `
		SELECT i.id, i.organization_id, i.email, i.role, i.status, i.inviter_id, i.accepted_by_id,
		       i.expires_at, i.created_at, i.updated_at,
		       o.name AS organization_name,
		       u.name AS inviter_name,
		       u.email AS inviter_email
		FROM invitations i
		INNER JOIN organizations o ON o.id = i.organization_id
		INNER JOIN users u ON u.id = i.inviter_id
		WHERE i.id = $1
	`

	detail := &models.InvitationDetail{}
	if err := GetExecutor(ctx, r.db).GetContext(ctx, detail, query, id); err != nil {
		return nil, wrapReadError("invitation", id, err)
	}
	return detail, nil
}

// FindPending returns the pending, unexpired invitation for email in orgID
func (r *InvitationRepository) FindPending(ctx context.Context, orgID uuid.UUID, email string) (*models.Invitation, error) {
	query := `SELECT ` + invitationColumns + `
		FROM invitations
		WHERE organization_id = $1 AND email = $2 AND status = 'pending' AND expires_at > NOW()
		ORDER BY created_at DESC
		LIMIT 1`

	normalized := models.NormalizeEmail(email)
	inv := &models.Invitation{}
	if err := GetExecutor(ctx, r.db).GetContext(ctx, inv, query, orgID, normalized); err != nil {
		return nil, wrapReadError("invitation", normalized, err)
	}
	return inv, nil
}

// UpdateStatus transitions an invitation. Only pending invitations can change state.
func (r *InvitationRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.InvitationStatus, acceptedBy *uuid.UUID) error {
	query := `
		UPDATE invitations
		SET status = $2, accepted_by_id = COALESCE($3, accepted_by_id), updated_at = $4
		WHERE id = $1 AND status = 'pending'
	`

	result, err := GetExecutor(ctx, r.db).ExecContext(ctx, query, id, status, acceptedBy, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update invitation: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("pending invitation not found: %s: %w", id, repositories.ErrNotFound)
	}

	r.logger.Debug("invitation status updated", zap.String("id", id.String()), zap.String("status", string(status)))
	return nil
}
