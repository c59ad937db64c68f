package handlers

import (
	"context"
	"net/http"

	"github.com/cogzy/cogzy-api/auth"
	"github.com/cogzy/cogzy-api/middleware"
	"github.com/cogzy/cogzy-api/models"
	"github.com/cogzy/cogzy-api/services"
	"github.com/cogzy/cogzy-api/utils"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	MsgActiveOrganizationUpdated = "Active organization updated."
	MsgInvalidOrganizationID     = "Invalid organization ID."
)

// AuthService defines the account and session operations the handler needs
type AuthService interface {
	SignUp(ctx context.Context, input services.SignUpInput, client services.ClientInfo) (*models.User, error)
	SignIn(ctx context.Context, input services.SignInInput, client services.ClientInfo) (*services.SignInResult, error)
	SignOut(ctx context.Context, id *auth.Identity) error
	GetSession(ctx context.Context, id *auth.Identity) (*services.SessionView, error)
	SetActiveOrganization(ctx context.Context, id *auth.Identity, orgID uuid.UUID) error
}

// SetActiveOrganizationRequest selects the session's organization
type SetActiveOrganizationRequest struct {
	OrganizationID string `json:"organizationId"`
}

// AuthHandler handles sign-up, sign-in and session requests
type AuthHandler struct {
	service       AuthService
	secureCookies bool
	logger        *zap.Logger
}

// NewAuthHandler creates a new AuthHandler. secureCookies sets the Secure flag on
// the session cookie.
func NewAuthHandler(service AuthService, secureCookies bool, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		service:       service,
		secureCookies: secureCookies,
		logger:        logger,
	}
}

// HandleSignUp handles POST /api/v1/auth/sign-up
func (h *AuthHandler) HandleSignUp(w http.ResponseWriter, r *http.Request) {
	var input services.SignUpInput
	if !decodeBody(w, r, &input, h.logger) {
		return
	}

	user, err := h.service.SignUp(r.Context(), input, clientInfo(r))
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteCreated(w, services.MsgSignedUp, user)
}

// HandleSignIn handles POST /api/v1/auth/sign-in
func (h *AuthHandler) HandleSignIn(w http.ResponseWriter, r *http.Request) {
	var input services.SignInInput
	if !decodeBody(w, r, &input, h.logger) {
		return
	}

	result, err := h.service.SignIn(r.Context(), input, clientInfo(r))
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	auth.SetSessionCookie(w, result.Token, result.ExpiresAt, h.secureCookies)
	_ = utils.WriteOK(w, services.MsgSignedIn, result)
}

// HandleSignOut handles POST /api/v1/auth/sign-out
func (h *AuthHandler) HandleSignOut(w http.ResponseWriter, r *http.Request) {
	if err := h.service.SignOut(r.Context(), identity(r)); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	auth.ClearSessionCookie(w, h.secureCookies)
	_ = utils.WriteOK(w, services.MsgSignedOut, nil)
}

// HandleGetSession handles GET /api/v1/auth/session
func (h *AuthHandler) HandleGetSession(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.GetSession(r.Context(), identity(r))
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, "", view)
}

// HandleSetActiveOrganization handles PUT /api/v1/auth/session/active-organization
func (h *AuthHandler) HandleSetActiveOrganization(w http.ResponseWriter, r *http.Request) {
	var req SetActiveOrganizationRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}

	orgID, err := utils.ParseUUID(req.OrganizationID)
	if err != nil {
		_ = utils.WriteBadRequest(w, MsgInvalidOrganizationID, map[string]string{
			"organizationId": MsgInvalidOrganizationID,
		})
		return
	}

	if err := h.service.SetActiveOrganization(r.Context(), identity(r), orgID); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, MsgActiveOrganizationUpdated, map[string]uuid.UUID{
		"activeOrganizationId": orgID,
	})
}

func clientInfo(r *http.Request) services.ClientInfo {
	return services.ClientInfo{
		IPAddress: middleware.ClientIP(r),
		UserAgent: r.UserAgent(),
	}
}
