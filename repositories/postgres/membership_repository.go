package postgres

import (
	"context"
	"fmt"

	"github.com/cogzy/cogzy-api/models"
	"github.com/cogzy/cogzy-api/repositories"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultMemberPageSize = 20
	maxMemberPageSize     = 100
)

// MembershipRepository implements the repositories.MembershipRepository interface
type MembershipRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewMembershipRepository creates a new membership repository
func NewMembershipRepository(db *DB, logger *zap.Logger) repositories.MembershipRepository {
	return &MembershipRepository{
		db:     db,
		logger: logger,
	}
}

// Create adds a user to an organization
func (r *MembershipRepository) Create(ctx context.Context, m *models.Membership) error {
	query := `
		INSERT INTO members (id, organization_id, user_id, role, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := GetExecutor(ctx, r.db).ExecContext(ctx, query,
		m.ID,
		m.OrganizationID,
		m.UserID,
		m.Role,
		m.CreatedAt,
	)
	if err != nil {
		return wrapWriteError("create membership", err)
	}

	r.logger.Debug("membership created",
		zap.String("organization_id", m.OrganizationID.String()),
		zap.String("user_id", m.UserID.String()),
		zap.String("role", string(m.Role)))
	return nil
}

// Get retrieves the membership of a user in an organization
func (r *MembershipRepository) Get(ctx context.Context, orgID, userID uuid.UUID) (*models.Membership, error) {
	query := `
		SELECT id, organization_id, user_id, role, created_at
		FROM members
		WHERE organization_id = $1 AND user_id = $2
	`

	m := &models.Membership{}
	if err := GetExecutor(ctx, r.db).GetContext(ctx, m, query, orgID, userID); err != nil {
		return nil, wrapReadError("membership", userID, err)
	}
	return m, nil
}

// FirstForUser returns the user's oldest membership joined to an existing organization
func (r *MembershipRepository) FirstForUser(ctx context.Context, userID uuid.UUID) (*models.Membership, error) {
	query := `
		SELECT m.id, m.organization_id, m.user_id, m.role, m.created_at
		FROM members m
		INNER JOIN organizations o ON o.id = m.organization_id
		WHERE m.user_id = $1
		ORDER BY m.created_at ASC, m.id ASC
		LIMIT 1
	`

	m := &models.Membership{}
	if err := GetExecutor(ctx, r.db).GetContext(ctx, m, query, userID); err != nil {
		return nil, wrapReadError("membership", userID, err)
	}
	return m, nil
}

// ExistsByEmail reports whether a user with email belongs to the organization
func (r *MembershipRepository) ExistsByEmail(ctx context.Context, orgID uuid.UUID, email string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM members m
			INNER JOIN users u ON u.id = m.user_id
			WHERE m.organization_id = $1 AND u.email = $2
		)
	`

	var exists bool
	if err := GetExecutor(ctx, r.db).GetContext(ctx, &exists, query, orgID, models.NormalizeEmail(email)); err != nil {
		return false, fmt.Errorf("failed to check membership: %w", err)
	}
	return exists, nil
}

// ListByOrganization lists members with their profiles
func (r *MembershipRepository) ListByOrganization(ctx context.Context, orgID uuid.UUID, opts repositories.MemberListOptions) ([]*models.OrganizationMember, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultMemberPageSize
	}
	if limit > maxMemberPageSize {
		limit = maxMemberPageSize
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}

	// Sort column and direction come from a closed set, never from raw input.
	sortColumn := "m.created_at"
	if opts.SortBy == repositories.MemberSortRole {
		sortColumn = "m.role"
	}
	direction := "ASC"
	if opts.Descending {
		direction = "DESC"
	}

	args := []interface{}{orgID}
	roleFilter := ""
	if opts.Role != "" {
		args = append(args, opts.Role)
		roleFilter = fmt.Sprintf(" AND m.role = $%d", len(args))
	}
	args = append(args, limit, offset)

	query := fmt.Sprintf(`
		SELECT m.id, m.organization_id, m.user_id, m.role, m.created_at,
		       u.name, u.email, u.image
		FROM members m
		INNER JOIN users u ON u.id = m.user_id
		WHERE m.organization_id = $1%s
		ORDER BY %s %s, m.id ASC
		LIMIT $%d OFFSET $%d
	`, roleFilter, sortColumn, direction, len(args)-1, len(args))

	members := []*models.OrganizationMember{}
	if err := GetExecutor(ctx, r.db).SelectContext(ctx, &members, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list organization members: %w", err)
	}
	return members, nil
}
