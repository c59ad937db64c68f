package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/cogzy/cogzy-api/models"
	"github.com/cogzy/cogzy-api/repositories"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// WorkspaceRepository implements the repositories.WorkspaceRepository interface
type WorkspaceRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewWorkspaceRepository creates a new workspace repository
func NewWorkspaceRepository(db *DB, logger *zap.Logger) repositories.WorkspaceRepository {
	return &WorkspaceRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a workspace and returns the stored identifier. uuid.Nil is returned
// without an error when the insert yields no row.
func (r *WorkspaceRepository) Create(ctx context.Context, ws *models.Workspace) (uuid.UUID, error) {
	query := `
		INSERT INTO workspaces (id, name, description, color, organization_id, created_by_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	var id uuid.UUID
	err := GetExecutor(ctx, r.db).QueryRowxContext(ctx, query,
		ws.ID,
		ws.Name,
		ws.Description,
		ws.Color,
		ws.OrganizationID,
		ws.CreatedByID,
		ws.CreatedAt,
		ws.UpdatedAt,
	).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return uuid.Nil, nil
		}
		return uuid.Nil, wrapWriteError("create workspace", err)
	}

	r.logger.Debug("workspace created",
		zap.String("id", id.String()),
		zap.String("organization_id", ws.OrganizationID.String()))
	return id, nil
}

// GetByID retrieves a workspace by ID
func (r *WorkspaceRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Workspace, error) {
	query := `
		SELECT id, name, description, color, organization_id, created_by_id, created_at, updated_at
		FROM workspaces
		WHERE id = $1
	`

	ws := &models.Workspace{}
	if err := GetExecutor(ctx, r.db).GetContext(ctx, ws, query, id); err != nil {
		return nil, wrapReadError("workspace", id, err)
	}
	return ws, nil
}

// ListSummariesByOrganization lists an organization's workspaces with member, document
// and conversation counts and the most recent activity, newest workspace first
func (r *WorkspaceRepository) ListSummariesByOrganization(ctx context.Context, orgID uuid.UUID) ([]*models.WorkspaceSummary, error) {
	query := `
		SELECT
			w.id, w.name, w.description, w.color, w.organization_id, w.created_by_id,
			w.created_at, w.updated_at,
			COUNT(DISTINCT wm.user_id) AS member_count,
			COUNT(DISTINCT d.id) AS document_count,
			COUNT(DISTINCT c.id) AS conversation_count,
			MAX(COALESCE(d.updated_at, c.created_at, w.created_at)) AS last_activity
		FROM workspaces w
		LEFT JOIN workspace_members wm ON wm.workspace_id = w.id
		LEFT JOIN documents d ON d.workspace_id = w.id
		LEFT JOIN conversations c ON c.workspace_id = w.id
		WHERE w.organization_id = $1
		GROUP BY w.id
		ORDER BY w.created_at DESC
	`

	summaries := []*models.WorkspaceSummary{}
	if err := GetExecutor(ctx, r.db).SelectContext(ctx, &summaries, query, orgID); err != nil {
		return nil, fmt.Errorf("failed to list workspaces: %w", err)
	}
	return summaries, nil
}
