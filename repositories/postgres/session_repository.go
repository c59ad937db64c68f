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

// SessionRepository implements the repositories.SessionRepository interface
type SessionRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db *DB, logger *zap.Logger) repositories.SessionRepository {
	return &SessionRepository{
		db:     db,
		logger: logger,
	}
}

// Create persists a new session
func (r *SessionRepository) Create(ctx context.Context, s *models.Session) error {
	query := `
		INSERT INTO sessions (id, user_id, active_organization_id, expires_at, ip_address, user_agent, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := GetExecutor(ctx, r.db).ExecContext(ctx, query,
		s.ID,
		s.UserID,
		s.ActiveOrganizationID,
		s.ExpiresAt,
		s.IPAddress,
		s.UserAgent,
		s.CreatedAt,
		s.UpdatedAt,
	)
	if err != nil {
		return wrapWriteError("create session", err)
	}

	r.logger.Debug("session created", zap.String("id", s.ID.String()), zap.String("user_id", s.UserID.String()))
	return nil
}

// GetByID retrieves a session by ID
func (r *SessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	query := `
		SELECT id, user_id, active_organization_id, expires_at,
		       COALESCE(ip_address, '') AS ip_address, COALESCE(user_agent, '') AS user_agent,
		       created_at, updated_at
		FROM sessions
		WHERE id = $1
	`

	s := &models.Session{}
	if err := GetExecutor(ctx, r.db).GetContext(ctx, s, query, id); err != nil {
		return nil, wrapReadError("session", id, err)
	}
	return s, nil
}

// SetActiveOrganization updates the tenant context of a session
func (r *SessionRepository) SetActiveOrganization(ctx context.Context, id uuid.UUID, orgID *uuid.UUID) error {
	query := `
		UPDATE sessions
		SET active_organization_id = $2, updated_at = $3
		WHERE id = $1
	`

	result, err := GetExecutor(ctx, r.db).ExecContext(ctx, query, id, orgID, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("session not found: %s: %w", id, repositories.ErrNotFound)
	}
	return nil
}

// Delete removes a session
func (r *SessionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM sessions WHERE id = $1`

	if _, err := GetExecutor(ctx, r.db).ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	r.logger.Debug("session deleted", zap.String("id", id.String()))
	return nil
}
