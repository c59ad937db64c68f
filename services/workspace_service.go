package services

import (
	"context"
	"errors"

	"github.com/cogzy/cogzy-api/auth"
	"github.com/cogzy/cogzy-api/models"
	"github.com/cogzy/cogzy-api/repositories"
	"github.com/cogzy/cogzy-api/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// User facing workspace messages
const (
	MsgWorkspaceValidationFailed = "Validation failed. Please check the fields."
	MsgWorkspaceCreateDenied     = "You must be signed in and have an active organization to create a workspace."
	MsgWorkspaceCreateFailed     = "An unexpected error occurred on the server. Please try again."
	MsgWorkspaceCreated          = "Workspace created successfully!"

	MsgMemberMissingFields = "Missing required fields."
	MsgMemberManageDenied  = "You don't have permission to manage members in this workspace."
	MsgMemberNotInOrg      = "User is not a member of this organization."
	MsgMemberAlreadyExists = "User is already a member of this workspace."
	MsgMemberAddFailed     = "Failed to add member."
	MsgMemberAdded         = "Member added successfully!"

	MsgWorkspaceAccessDenied = "You don't have access to this workspace."
	MsgUnexpected            = "An unexpected error occurred."
)

// errMissingWorkspaceID aborts a creation whose insert returned no identifier
var errMissingWorkspaceID = errors.New("failed to retrieve new workspace ID")

// CreateWorkspaceInput is the create-workspace form
type CreateWorkspaceInput struct {
	Name        string `json:"name" validate:"min=3,max=50"`
	Description string `json:"description" validate:"max=200"`
	Color       string `json:"color" validate:"required"`
}

// ValidationMessages implements utils.MessageProvider
func (CreateWorkspaceInput) ValidationMessages() map[string]string {
	return map[string]string{
		"name.min":        "Workspace name must be at least 3 characters.",
		"name.max":        "Workspace name must not exceed 50 characters.",
		"description.max": "Description must not exceed 200 characters.",
		"color.required":  "Please select a color.",
	}
}

// AddWorkspaceMemberInput is the add-member form
type AddWorkspaceMemberInput struct {
	WorkspaceID string `json:"workspaceId"`
	UserID      string `json:"userId"`
	Role        string `json:"role"`
}

// WorkspaceService implements workspace creation, listing and membership
type WorkspaceService struct {
	txManager  repositories.TransactionManager
	workspaces repositories.WorkspaceRepository
	members    repositories.WorkspaceMemberRepository
	orgMembers repositories.MembershipRepository
	cache      WorkspaceListCache
	audit      AuditRecorder
	metrics    *telemetry.Metrics
	logger     *zap.Logger
}

// NewWorkspaceService creates a new WorkspaceService instance
func NewWorkspaceService(
	txManager repositories.TransactionManager,
	repos *repositories.Repositories,
	cache WorkspaceListCache,
	audit AuditRecorder,
	metrics *telemetry.Metrics,
	logger *zap.Logger,
) *WorkspaceService {
	return &WorkspaceService{
		txManager:  txManager,
		workspaces: repos.Workspaces,
		members:    repos.WorkspaceMembers,
		orgMembers: repos.Memberships,
		cache:      cache,
		audit:      audit,
		metrics:    metrics,
		logger:     logger,
	}
}

// CreateWorkspace validates input, then inserts the workspace and its creator as
// admin member in one transaction. Nothing is written on any failure.
func (s *WorkspaceService) CreateWorkspace(ctx context.Context, id *auth.Identity, input CreateWorkspaceInput) (*models.Workspace, error) {
	if err := validateInput(input, MsgWorkspaceValidationFailed); err != nil {
		s.logger.Debug("workspace validation failed", zap.Any("fields", GetValidationFields(err)))
		return nil, err
	}

	orgID, ok := id.OrganizationID()
	if !id.IsAuthenticated() || !ok {
		return nil, NewUnauthorizedError(MsgWorkspaceCreateDenied)
	}

	ws := models.NewWorkspace(orgID, id.UserID, input.Name, input.Description, input.Color)

	err := WithTransaction(ctx, s.txManager, func(ctx context.Context, _ repositories.Transaction) error {
		wsID, err := s.workspaces.Create(ctx, ws)
		if err != nil {
			return err
		}
		if wsID == uuid.Nil {
			return errMissingWorkspaceID
		}
		ws.ID = wsID

		return s.members.Create(ctx, models.NewWorkspaceMember(wsID, id.UserID, models.WorkspaceRoleAdmin))
	})
	if err != nil {
		s.logger.Error("error creating workspace",
			zap.String("organization_id", orgID.String()),
			zap.String("user_id", id.UserID.String()),
			zap.Error(err))
		return nil, WrapInternal(MsgWorkspaceCreateFailed, err)
	}

	s.cache.Invalidate(ctx, orgID)
	s.metrics.WorkspaceCreated()
	s.audit.Record(ctx, models.NewAuditLog(models.AuditActionWorkspaceCreated, "workspace").
		WithOrganization(orgID).
		WithUser(id.UserID).
		WithResource(ws.ID).
		WithDetails(map[string]string{"name": ws.Name}).
		WithRequest("", id.IPAddress, id.UserAgent))

	s.logger.Info("workspace created",
		zap.String("workspace_id", ws.ID.String()),
		zap.String("organization_id", orgID.String()))
	return ws, nil
}

// ListWorkspaces returns the active organization's workspaces with aggregates,
// newest first. Missing tenant context and query failures yield an empty list.
func (s *WorkspaceService) ListWorkspaces(ctx context.Context, id *auth.Identity) []*models.WorkspaceSummary {
	orgID, ok := id.OrganizationID()
	if !ok {
		s.logger.Debug("no active organization found for session")
		return []*models.WorkspaceSummary{}
	}

	if cached, found := s.cache.Get(ctx, orgID); found {
		s.metrics.CacheLookup(true)
		return cached
	}
	s.metrics.CacheLookup(false)

	gen := s.cache.Generation(ctx, orgID)
	workspaces, err := s.workspaces.ListSummariesByOrganization(ctx, orgID)
	if err != nil {
		s.logger.Error("failed to fetch workspaces",
			zap.String("organization_id", orgID.String()),
			zap.Error(err))
		return []*models.WorkspaceSummary{}
	}

	s.cache.Set(ctx, orgID, gen, workspaces)
	return workspaces
}

// SearchMembers finds organization members matching query who are not yet in the
// workspace. Short queries, missing tenant context and failures yield an empty list.
func (s *WorkspaceService) SearchMembers(ctx context.Context, id *auth.Identity, workspaceID uuid.UUID, query string) []*models.UserSearchResult {
	orgID, ok := id.OrganizationID()
	if !ok {
		return []*models.UserSearchResult{}
	}

	results, err := s.members.SearchCandidates(ctx, orgID, workspaceID, query, repositories.MaxMemberSearchResults)
	if err != nil {
		s.logger.Error("failed to fetch users",
			zap.String("workspace_id", workspaceID.String()),
			zap.Error(err))
		return []*models.UserSearchResult{}
	}
	return results
}

// AddMember adds an organization member to a workspace. Only workspace admins may
// add members.
func (s *WorkspaceService) AddMember(ctx context.Context, id *auth.Identity, input AddWorkspaceMemberInput) (*models.WorkspaceMember, error) {
	if input.WorkspaceID == "" || input.UserID == "" || input.Role == "" {
		return nil, NewValidationError(MsgMemberMissingFields, nil)
	}

	workspaceID, err := uuid.Parse(input.WorkspaceID)
	if err != nil {
		return nil, NewValidationError(MsgMemberMissingFields, map[string]string{"workspaceId": "Invalid workspace ID."})
	}
	userID, err := uuid.Parse(input.UserID)
	if err != nil {
		return nil, NewValidationError(MsgMemberMissingFields, map[string]string{"userId": "Invalid user ID."})
	}
	role := models.WorkspaceRole(input.Role)
	if !role.IsValid() {
		return nil, NewValidationError(MsgMemberMissingFields, map[string]string{"role": "Role must be one of admin, editor, viewer."})
	}

	if !s.isWorkspaceAdmin(ctx, id, workspaceID) {
		return nil, NewForbiddenError(MsgMemberManageDenied)
	}

	ws, err := s.workspaces.GetByID(ctx, workspaceID)
	if err != nil {
		s.logger.Error("error adding member", zap.String("workspace_id", workspaceID.String()), zap.Error(err))
		return nil, WrapInternal(MsgMemberAddFailed, err)
	}

	if _, err := s.orgMembers.Get(ctx, ws.OrganizationID, userID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, NewValidationError(MsgMemberNotInOrg, nil)
		}
		s.logger.Error("error adding member", zap.String("workspace_id", workspaceID.String()), zap.Error(err))
		return nil, WrapInternal(MsgMemberAddFailed, err)
	}

	member := models.NewWorkspaceMember(workspaceID, userID, role)
	if err := s.members.Create(ctx, member); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, NewConflictError(MsgMemberAlreadyExists, err)
		}
		s.logger.Error("error adding member", zap.String("workspace_id", workspaceID.String()), zap.Error(err))
		return nil, WrapInternal(MsgMemberAddFailed, err)
	}

	s.cache.Invalidate(ctx, ws.OrganizationID)
	s.metrics.WorkspaceMemberAdded()
	s.audit.Record(ctx, models.NewAuditLog(models.AuditActionWorkspaceMemberAdded, "workspace").
		WithOrganization(ws.OrganizationID).
		WithUser(id.UserID).
		WithResource(workspaceID).
		WithDetails(map[string]string{"memberId": userID.String(), "role": string(role)}).
		WithRequest("", id.IPAddress, id.UserAgent))

	return member, nil
}

// ListMembers lists a workspace's members. The caller must belong to the workspace.
func (s *WorkspaceService) ListMembers(ctx context.Context, id *auth.Identity, workspaceID uuid.UUID) ([]*models.WorkspaceMemberDetail, error) {
	if _, err := resolveWorkspaceRole(ctx, s.members, s.logger, id, workspaceID); err != nil {
		return nil, err
	}

	members, err := s.members.ListByWorkspace(ctx, workspaceID)
	if err != nil {
		s.logger.Error("failed to list workspace members", zap.String("workspace_id", workspaceID.String()), zap.Error(err))
		return nil, WrapInternal(MsgUnexpected, err)
	}
	return members, nil
}

// isWorkspaceAdmin reports whether the caller holds the admin role. Lookup failures
// and missing membership both deny.
func (s *WorkspaceService) isWorkspaceAdmin(ctx context.Context, id *auth.Identity, workspaceID uuid.UUID) bool {
	if !id.IsAuthenticated() {
		return false
	}
	role, err := s.members.GetRole(ctx, workspaceID, id.UserID)
	if err != nil {
		if !errors.Is(err, repositories.ErrNotFound) {
			s.logger.Warn("failed to check workspace permissions",
				zap.String("workspace_id", workspaceID.String()),
				zap.Error(err))
		}
		return false
	}
	return role == models.WorkspaceRoleAdmin
}

// resolveWorkspaceRole returns the caller's role in the workspace. A caller with no
// membership row gets a forbidden error.
func resolveWorkspaceRole(ctx context.Context, members repositories.WorkspaceMemberRepository, logger *zap.Logger, id *auth.Identity, workspaceID uuid.UUID) (models.WorkspaceRole, error) {
	if !id.IsAuthenticated() {
		return "", ErrUnauthorized
	}
	role, err := members.GetRole(ctx, workspaceID, id.UserID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return "", NewForbiddenError(MsgWorkspaceAccessDenied)
		}
		logger.Error("failed to resolve workspace role", zap.String("workspace_id", workspaceID.String()), zap.Error(err))
		return "", WrapInternal(MsgUnexpected, err)
	}
	return role, nil
}
