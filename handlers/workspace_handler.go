package handlers

import (
	"context"
	"net/http"

	"github.com/cogzy/cogzy-api/auth"
	"github.com/cogzy/cogzy-api/models"
	"github.com/cogzy/cogzy-api/services"
	"github.com/cogzy/cogzy-api/utils"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const MsgWorkspaceNotFound = "Workspace not found."

// WorkspaceService defines the workspace operations the handler needs
type WorkspaceService interface {
	CreateWorkspace(ctx context.Context, id *auth.Identity, input services.CreateWorkspaceInput) (*models.Workspace, error)
	ListWorkspaces(ctx context.Context, id *auth.Identity) []*models.WorkspaceSummary
	SearchMembers(ctx context.Context, id *auth.Identity, workspaceID uuid.UUID, query string) []*models.UserSearchResult
	AddMember(ctx context.Context, id *auth.Identity, input services.AddWorkspaceMemberInput) (*models.WorkspaceMember, error)
	ListMembers(ctx context.Context, id *auth.Identity, workspaceID uuid.UUID) ([]*models.WorkspaceMemberDetail, error)
}

// WorkspaceHandler handles workspace requests
type WorkspaceHandler struct {
	service WorkspaceService
	logger  *zap.Logger
}

// NewWorkspaceHandler creates a new WorkspaceHandler
func NewWorkspaceHandler(service WorkspaceService, logger *zap.Logger) *WorkspaceHandler {
	return &WorkspaceHandler{
		service: service,
		logger:  logger,
	}
}

// HandleCreateWorkspace handles POST /api/v1/workspaces
func (h *WorkspaceHandler) HandleCreateWorkspace(w http.ResponseWriter, r *http.Request) {
	var input services.CreateWorkspaceInput
	if !decodeBody(w, r, &input, h.logger) {
		return
	}

	ws, err := h.service.CreateWorkspace(r.Context(), identity(r), input)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteCreated(w, services.MsgWorkspaceCreated, ws)
}

// HandleListWorkspaces handles GET /api/v1/workspaces
func (h *WorkspaceHandler) HandleListWorkspaces(w http.ResponseWriter, r *http.Request) {
	_ = utils.WriteOK(w, "", h.service.ListWorkspaces(r.Context(), identity(r)))
}

// HandleSearchMembers handles GET /api/v1/workspaces/{workspaceID}/member-search?q=
// A malformed workspace ID yields an empty result, like any other miss.
func (h *WorkspaceHandler) HandleSearchMembers(w http.ResponseWriter, r *http.Request) {
	workspaceID, _ := pathUUID(r, "workspaceID")
	results := h.service.SearchMembers(r.Context(), identity(r), workspaceID, r.URL.Query().Get("q"))
	_ = utils.WriteOK(w, "", results)
}

// HandleAddMember handles POST /api/v1/workspaces/{workspaceID}/members
func (h *WorkspaceHandler) HandleAddMember(w http.ResponseWriter, r *http.Request) {
	var input services.AddWorkspaceMemberInput
	if !decodeBody(w, r, &input, h.logger) {
		return
	}
	input.WorkspaceID = chi.URLParam(r, "workspaceID")

	member, err := h.service.AddMember(r.Context(), identity(r), input)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteCreated(w, services.MsgMemberAdded, member)
}

// HandleListMembers handles GET /api/v1/workspaces/{workspaceID}/members
func (h *WorkspaceHandler) HandleListMembers(w http.ResponseWriter, r *http.Request) {
	workspaceID, ok := pathUUID(r, "workspaceID")
	if !ok {
		_ = utils.WriteNotFound(w, MsgWorkspaceNotFound)
		return
	}

	members, err := h.service.ListMembers(r.Context(), identity(r), workspaceID)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, "", members)
}
