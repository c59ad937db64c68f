package postgres

import (
	"context"
	"fmt"

	"github.com/cogzy/cogzy-api/models"
	"github.com/cogzy/cogzy-api/repositories"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AuditRepository implements the repositories.AuditRepository interface
type AuditRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db *DB, logger *zap.Logger) repositories.AuditRepository {
	return &AuditRepository{
		db:     db,
		logger: logger,
	}
}

// Insert inserts a new audit log entry
func (r *AuditRepository) Insert(ctx context.Context, log *models.AuditLog) error {
	query := `
		INSERT INTO audit_logs (
			id, organization_id, user_id, action, resource_type, resource_id,
			details, ip_address, user_agent, request_id, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	var details interface{}
	if len(log.Details) > 0 {
		details = []byte(log.Details)
	}

	_, err := GetExecutor(ctx, r.db).ExecContext(ctx, query,
		log.ID,
		log.OrganizationID,
		log.UserID,
		log.Action,
		log.ResourceType,
		log.ResourceID,
		details,
		log.IPAddress,
		log.UserAgent,
		log.RequestID,
		log.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert audit log: %w", err)
	}
	return nil
}

// GetByOrganization retrieves audit logs for an organization, newest first
func (r *AuditRepository) GetByOrganization(ctx context.Context, orgID uuid.UUID, limit, offset int) ([]*models.AuditLog, error) {
	query := `
		SELECT id, organization_id, user_id, action, resource_type, resource_id,
		       COALESCE(details, '{}'::jsonb) AS details,
		       COALESCE(ip_address, '') AS ip_address, COALESCE(user_agent, '') AS user_agent,
		       COALESCE(request_id, '') AS request_id, created_at
		FROM audit_logs
		WHERE organization_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	logs := []*models.AuditLog{}
	if err := GetExecutor(ctx, r.db).SelectContext(ctx, &logs, query, orgID, limit, offset); err != nil {
		return nil, fmt.Errorf("failed to query audit logs: %w", err)
	}
	return logs, nil
}
