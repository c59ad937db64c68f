package postgres

import (
	"context"
	"fmt"

	"github.com/cogzy/cogzy-api/models"
	"github.com/cogzy/cogzy-api/repositories"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// WorkspaceMemberRepository implements the repositories.WorkspaceMemberRepository interface
type WorkspaceMemberRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewWorkspaceMemberRepository creates a new workspace member repository
func NewWorkspaceMemberRepository(db *DB, logger *zap.Logger) repositories.WorkspaceMemberRepository {
	return &WorkspaceMemberRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a workspace member. The (workspace_id, user_id) unique constraint
// turns a repeated pair into repositories.ErrDuplicate.
func (r *WorkspaceMemberRepository) Create(ctx context.Context, m *models.WorkspaceMember) error {
	query := `
		INSERT INTO workspace_members (id, workspace_id, user_id, role, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := GetExecutor(ctx, r.db).ExecContext(ctx, query,
		m.ID,
		m.WorkspaceID,
		m.UserID,
		m.Role,
		m.CreatedAt,
	)
	if err != nil {
		return wrapWriteError("add workspace member", err)
	}

	r.logger.Debug("workspace member added",
		zap.String("workspace_id", m.WorkspaceID.String()),
		zap.String("user_id", m.UserID.String()),
		zap.String("role", string(m.Role)))
	return nil
}

// GetRole returns the user's role in the workspace
func (r *WorkspaceMemberRepository) GetRole(ctx context.Context, workspaceID, userID uuid.UUID) (models.WorkspaceRole, error) {
	query := `
		SELECT role
		FROM workspace_members
		WHERE workspace_id = $1 AND user_id = $2
	`

	var role models.WorkspaceRole
	if err := GetExecutor(ctx, r.db).GetContext(ctx, &role, query, workspaceID, userID); err != nil {
		return "", wrapReadError("workspace member", userID, err)
	}
	return role, nil
}

// ListByWorkspace lists the members of a workspace with their profiles
func (r *WorkspaceMemberRepository) ListByWorkspace(ctx context.Context, workspaceID uuid.UUID) ([]*models.WorkspaceMemberDetail, error) {
	query := `
		SELECT wm.id, wm.workspace_id, wm.user_id, wm.role, wm.created_at,
		       u.name, u.email, u.image
		FROM workspace_members wm
		INNER JOIN users u ON u.id = wm.user_id
		WHERE wm.workspace_id = $1
		ORDER BY wm.created_at ASC
	`

	members := []*models.WorkspaceMemberDetail{}
	if err := GetExecutor(ctx, r.db).SelectContext(ctx, &members, query, workspaceID); err != nil {
		return nil, fmt.Errorf("failed to list workspace members: %w", err)
	}
	return members, nil
}

// SearchCandidates finds members of orgID whose name or email contains query,
// excluding users that already belong to workspaceID. Queries shorter than
// repositories.MinMemberSearchLength return no rows without hitting the database.
func (r *WorkspaceMemberRepository) SearchCandidates(ctx context.Context, orgID, workspaceID uuid.UUID, query string, limit int) ([]*models.UserSearchResult, error) {
	q, ok := repositories.NormalizeSearchQuery(query)
	if !ok {
		return []*models.UserSearchResult{}, nil
	}

	sqlQuery := `
		SELECT u.id, u.name, u.email, u.image
		FROM users u
		INNER JOIN members m ON m.user_id = u.id AND m.organization_id = $1
		WHERE (u.name ILIKE $3 OR u.email ILIKE $3)
		  AND u.id NOT IN (
			SELECT wm.user_id FROM workspace_members wm WHERE wm.workspace_id = $2
		  )
		ORDER BY u.name ASC, u.id ASC
		LIMIT $4
	`

	results := []*models.UserSearchResult{}
	err := GetExecutor(ctx, r.db).SelectContext(ctx, &results, sqlQuery,
		orgID,
		workspaceID,
		repositories.ContainsPattern(q),
		repositories.ClampSearchLimit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search workspace member candidates: %w", err)
	}
	return results, nil
}
