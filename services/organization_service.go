package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cogzy/cogzy-api/auth"
	"github.com/cogzy/cogzy-api/models"
	"github.com/cogzy/cogzy-api/repositories"
	"go.uber.org/zap"
)

const (
	MsgOrganizationNameRequired = "Organization name is required."
	MsgOrganizationCreated      = "Organization created successfully!"
)

// maxSlugAttempts bounds the -2, -3, ... suffix search for a free slug
const maxSlugAttempts = 50

// CreateOrganizationInput is the create-organization form
type CreateOrganizationInput struct {
	Name string `json:"name"`
}

// MemberListQuery holds the optional listing parameters of organization members
type MemberListQuery struct {
	Limit         int
	Offset        int
	SortBy        string // createdAt or role
	SortDirection string // asc or desc
	Role          string
}

// OrganizationService manages organizations and their members
type OrganizationService struct {
	txManager     repositories.TransactionManager
	organizations repositories.OrganizationRepository
	memberships   repositories.MembershipRepository
	sessions      repositories.SessionRepository
	audit         AuditRecorder
	logger        *zap.Logger
}

// NewOrganizationService creates a new OrganizationService instance
func NewOrganizationService(txManager repositories.TransactionManager, repos *repositories.Repositories, audit AuditRecorder, logger *zap.Logger) *OrganizationService {
	return &OrganizationService{
		txManager:     txManager,
		organizations: repos.Organizations,
		memberships:   repos.Memberships,
		sessions:      repos.Sessions,
		audit:         audit,
		logger:        logger,
	}
}

// GenerateSlug lower-cases name and collapses every run of characters outside
// [a-z0-9] into a single dash, trimming dashes at both ends
func GenerateSlug(name string) string {
	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
			continue
		}
		pendingDash = true
	}
	return b.String()
}

// CreateOrganization creates an organization owned by the caller and makes it the
// session's active organization
func (s *OrganizationService) CreateOrganization(ctx context.Context, id *auth.Identity, input CreateOrganizationInput) (*models.Organization, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, NewValidationError(MsgOrganizationNameRequired, map[string]string{"name": MsgOrganizationNameRequired})
	}
	if !id.IsAuthenticated() {
		return nil, ErrUnauthorized
	}

	slug, err := s.availableSlug(ctx, name)
	if err != nil {
		s.logger.Error("failed to allocate organization slug", zap.String("name", name), zap.Error(err))
		return nil, WrapInternal(MsgUnexpected, err)
	}

	org := models.NewOrganization(name, slug)
	err = WithTransaction(ctx, s.txManager, func(ctx context.Context, _ repositories.Transaction) error {
		if err := s.organizations.Create(ctx, org); err != nil {
			return err
		}
		return s.memberships.Create(ctx, models.NewMembership(org.ID, id.UserID, models.MembershipRoleOwner))
	})
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, NewConflictError("An organization with this name was just created. Please try again.", err)
		}
		s.logger.Error("failed to create organization", zap.String("user_id", id.UserID.String()), zap.Error(err))
		return nil, WrapInternal(MsgUnexpected, err)
	}

	if err := s.sessions.SetActiveOrganization(ctx, id.SessionID, &org.ID); err != nil {
		s.logger.Warn("failed to set active organization",
			zap.String("session_id", id.SessionID.String()),
			zap.String("organization_id", org.ID.String()),
			zap.Error(err))
	} else {
		id.ActiveOrganizationID = &org.ID
	}

	s.audit.Record(ctx, models.NewAuditLog(models.AuditActionOrganizationCreated, "organization").
		WithOrganization(org.ID).
		WithUser(id.UserID).
		WithResource(org.ID).
		WithDetails(map[string]string{"name": org.Name, "slug": org.Slug}).
		WithRequest("", id.IPAddress, id.UserAgent))

	s.logger.Info("organization created",
		zap.String("organization_id", org.ID.String()),
		zap.String("slug", org.Slug))
	return org, nil
}

// availableSlug returns the first free slug among base, base-2, base-3, ...
func (s *OrganizationService) availableSlug(ctx context.Context, name string) (string, error) {
	base := GenerateSlug(name)
	if base == "" {
		base = "organization"
	}

	for attempt := 1; attempt <= maxSlugAttempts; attempt++ {
		candidate := base
		if attempt > 1 {
			candidate = fmt.Sprintf("%s-%d", base, attempt)
		}

		_, err := s.organizations.GetBySlug(ctx, candidate)
		if errors.Is(err, repositories.ErrNotFound) {
			return candidate, nil
		}
		if err != nil {
			return "", err
		}
	}
	return "", fmt.Errorf("no free slug for %q after %d attempts", base, maxSlugAttempts)
}

// ListMyOrganizations lists the organizations the caller belongs to
func (s *OrganizationService) ListMyOrganizations(ctx context.Context, id *auth.Identity) ([]*models.Organization, error) {
	if !id.IsAuthenticated() {
		return nil, ErrUnauthorized
	}
	orgs, err := s.organizations.ListForUser(ctx, id.UserID)
	if err != nil {
		s.logger.Error("failed to list organizations", zap.String("user_id", id.UserID.String()), zap.Error(err))
		return nil, WrapInternal(MsgUnexpected, err)
	}
	return orgs, nil
}

// ListMembers lists members of the active organization. Without tenant context,
// or when the query fails, the list is empty.
func (s *OrganizationService) ListMembers(ctx context.Context, id *auth.Identity, q MemberListQuery) []*models.OrganizationMember {
	orgID, ok := id.OrganizationID()
	if !ok {
		s.logger.Warn("no active organization found in session")
		return []*models.OrganizationMember{}
	}

	opts := repositories.MemberListOptions{
		Limit:      q.Limit,
		Offset:     q.Offset,
		SortBy:     repositories.MemberSortCreatedAt,
		Descending: !strings.EqualFold(q.SortDirection, "asc"),
	}
	if q.SortBy == string(repositories.MemberSortRole) {
		opts.SortBy = repositories.MemberSortRole
	}
	if role := models.MembershipRole(q.Role); role.IsValid() {
		opts.Role = role
	}

	members, err := s.memberships.ListByOrganization(ctx, orgID, opts)
	if err != nil {
		s.logger.Error("failed to fetch organization members",
			zap.String("organization_id", orgID.String()),
			zap.Error(err))
		return []*models.OrganizationMember{}
	}
	return members
}
