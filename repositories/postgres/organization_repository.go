package postgres

import (
	"context"
	"fmt"

	"github.com/cogzy/cogzy-api/models"
	"github.com/cogzy/cogzy-api/repositories"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const organizationColumns = `id, name, slug, created_at, updated_at`

// OrganizationRepository implements the repositories.OrganizationRepository interface
type OrganizationRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewOrganizationRepository creates a new organization repository
func NewOrganizationRepository(db *DB, logger *zap.Logger) repositories.OrganizationRepository {
	return &OrganizationRepository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new organization
func (r *OrganizationRepository) Create(ctx context.Context, org *models.Organization) error {
	query := `
		INSERT INTO organizations (id, name, slug, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	executor := GetExecutor(ctx, r.db)
	_, err := executor.ExecContext(ctx, query,
		org.ID,
		org.Name,
		org.Slug,
		org.CreatedAt,
		org.UpdatedAt,
	)
	if err != nil {
		return wrapWriteError("create organization", err)
	}

	r.logger.Debug("organization created", zap.String("id", org.ID.String()), zap.String("slug", org.Slug))
	return nil
}

// GetByID retrieves an organization by ID
func (r *OrganizationRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Organization, error) {
	query := `SELECT ` + organizationColumns + ` FROM organizations WHERE id = $1`

	org := &models.Organization{}
	if err := GetExecutor(ctx, r.db).GetContext(ctx, org, query, id); err != nil {
		return nil, wrapReadError("organization", id, err)
	}
	return org, nil
}

// GetBySlug retrieves an organization by slug
func (r *OrganizationRepository) GetBySlug(ctx context.Context, slug string) (*models.Organization, error) {
	query := `SELECT ` + organizationColumns + ` FROM organizations WHERE slug = $1`

	org := &models.Organization{}
	if err := GetExecutor(ctx, r.db).GetContext(ctx, org, query, slug); err != nil {
		return nil, wrapReadError("organization", slug, err)
	}
	return org, nil
}

// ListForUser retrieves the organizations a user belongs to, oldest membership first
func (r *OrganizationRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]*models.Organization, error) {
	query := `
		SELECT o.id, o.name, o.slug, o.created_at, o.updated_at
		FROM organizations o
		INNER JOIN members m ON m.organization_id = o.id
		WHERE m.user_id = $1
		ORDER BY m.created_at ASC, m.id ASC
	`

	orgs := []*models.Organization{}
	if err := GetExecutor(ctx, r.db).SelectContext(ctx, &orgs, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list organizations: %w", err)
	}
	return orgs, nil
}
