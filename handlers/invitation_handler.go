package handlers

import (
	"context"
	"net/http"

	"github.com/cogzy/cogzy-api/auth"
	"github.com/cogzy/cogzy-api/models"
	"github.com/cogzy/cogzy-api/services"
	"github.com/cogzy/cogzy-api/utils"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// InvitationService defines the invitation operations the handler needs
type InvitationService interface {
	Invite(ctx context.Context, id *auth.Identity, input services.InviteInput) (*models.Invitation, error)
	GetInvitation(ctx context.Context, invitationID string) (*models.InvitationDetail, error)
	AcceptInvitation(ctx context.Context, id *auth.Identity, invitationID string) (*models.Invitation, error)
	DeclineInvitation(ctx context.Context, id *auth.Identity, invitationID string) (*models.Invitation, error)
}

// InvitationHandler handles organization invitation requests
type InvitationHandler struct {
	service InvitationService
	logger  *zap.Logger
}

// NewInvitationHandler creates a new InvitationHandler
func NewInvitationHandler(service InvitationService, logger *zap.Logger) *InvitationHandler {
	return &InvitationHandler{
		service: service,
		logger:  logger,
	}
}

// HandleInvite handles POST /api/v1/organizations/invitations
func (h *InvitationHandler) HandleInvite(w http.ResponseWriter, r *http.Request) {
	var input services.InviteInput
	if !decodeBody(w, r, &input, h.logger) {
		return
	}

	inv, err := h.service.Invite(r.Context(), identity(r), input)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteCreated(w, services.InvitationSentMessage(inv.Email), inv)
}

// HandleGetInvitation handles GET /api/v1/invitations/{invitationID}
func (h *InvitationHandler) HandleGetInvitation(w http.ResponseWriter, r *http.Request) {
	detail, err := h.service.GetInvitation(r.Context(), chi.URLParam(r, "invitationID"))
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, "", detail)
}

// HandleAcceptInvitation handles POST /api/v1/invitations/{invitationID}/accept
func (h *InvitationHandler) HandleAcceptInvitation(w http.ResponseWriter, r *http.Request) {
	inv, err := h.service.AcceptInvitation(r.Context(), identity(r), chi.URLParam(r, "invitationID"))
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, services.MsgInvitationAccepted, inv)
}

// HandleDeclineInvitation handles POST /api/v1/invitations/{invitationID}/decline
func (h *InvitationHandler) HandleDeclineInvitation(w http.ResponseWriter, r *http.Request) {
	inv, err := h.service.DeclineInvitation(r.Context(), identity(r), chi.URLParam(r, "invitationID"))
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, services.MsgInvitationDeclined, inv)
}
