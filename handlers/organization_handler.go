package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/cogzy/cogzy-api/auth"
	"github.com/cogzy/cogzy-api/models"
	"github.com/cogzy/cogzy-api/services"
	"github.com/cogzy/cogzy-api/utils"
	"go.uber.org/zap"
)

const MsgInvalidPagination = "Invalid pagination parameters."

// OrganizationService defines the organization operations the handler needs
type OrganizationService interface {
	CreateOrganization(ctx context.Context, id *auth.Identity, input services.CreateOrganizationInput) (*models.Organization, error)
	ListMyOrganizations(ctx context.Context, id *auth.Identity) ([]*models.Organization, error)
	ListMembers(ctx context.Context, id *auth.Identity, q services.MemberListQuery) []*models.OrganizationMember
}

// OrganizationHandler handles organization requests
type OrganizationHandler struct {
	service OrganizationService
	logger  *zap.Logger
}

// NewOrganizationHandler creates a new OrganizationHandler
func NewOrganizationHandler(service OrganizationService, logger *zap.Logger) *OrganizationHandler {
	return &OrganizationHandler{
		service: service,
		logger:  logger,
	}
}

// HandleCreateOrganization handles POST /api/v1/organizations
func (h *OrganizationHandler) HandleCreateOrganization(w http.ResponseWriter, r *http.Request) {
	var input services.CreateOrganizationInput
	if !decodeBody(w, r, &input, h.logger) {
		return
	}

	org, err := h.service.CreateOrganization(r.Context(), identity(r), input)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteCreated(w, services.MsgOrganizationCreated, org)
}

// HandleListOrganizations handles GET /api/v1/organizations
func (h *OrganizationHandler) HandleListOrganizations(w http.ResponseWriter, r *http.Request) {
	orgs, err := h.service.ListMyOrganizations(r.Context(), identity(r))
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, "", orgs)
}

// HandleListMembers handles GET /api/v1/organizations/members
//
// Query parameters: limit, offset, sortBy (createdAt|role), sortDirection (asc|desc), role.
func (h *OrganizationHandler) HandleListMembers(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	limit, err := optionalInt(query.Get("limit"))
	if err != nil {
		_ = utils.WriteBadRequest(w, MsgInvalidPagination, map[string]string{"limit": MsgInvalidPagination})
		return
	}
	offset, err := optionalInt(query.Get("offset"))
	if err != nil {
		_ = utils.WriteBadRequest(w, MsgInvalidPagination, map[string]string{"offset": MsgInvalidPagination})
		return
	}

	members := h.service.ListMembers(r.Context(), identity(r), services.MemberListQuery{
		Limit:         limit,
		Offset:        offset,
		SortBy:        query.Get("sortBy"),
		SortDirection: query.Get("sortDirection"),
		Role:          query.Get("role"),
	})

	_ = utils.WriteOK(w, "", members)
}

func optionalInt(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, strconv.ErrSyntax
	}
	return n, nil
}
