package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cogzy/cogzy-api/auth"
	"github.com/cogzy/cogzy-api/models"
	"github.com/cogzy/cogzy-api/repositories"
	"github.com/cogzy/cogzy-api/safego"
	"github.com/cogzy/cogzy-api/services/email"
	"github.com/cogzy/cogzy-api/telemetry"
	"github.com/cogzy/cogzy-api/utils"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	MsgInviteLoginRequired   = "You must be logged in to invite users."
	MsgInviteFieldsRequired  = "Email and role are required."
	MsgInviteInvalidEmail    = "Please enter a valid email address."
	MsgInviteInvalidRole     = "Role must be one of member, admin, owner."
	MsgInviteForbidden       = "You don't have permission to invite members to this organization."
	MsgInviteAlreadyMember   = "This user is already a member of the organization."
	MsgInviteAlreadyPending  = "An invitation has already been sent to this email."
	MsgInvitationIDRequired  = "Invitation ID is required."
	MsgInvitationNotFound    = "Invitation not found."
	MsgInvitationWrongEmail  = "This invitation was sent to a different email address."
	MsgInvitationExpired     = "This invitation has expired."
	MsgInvitationNotPending  = "This invitation is no longer pending."
	MsgInvitationAccepted    = "Invitation accepted."
	MsgInvitationDeclined    = "Invitation declined."
	MsgAcceptInvitationError = "An unexpected error occurred while accepting the invitation."
)

// defaultMailTimeout bounds a single invitation email delivery
const defaultMailTimeout = 30 * time.Second

// InvitationSentMessage is the success message of an invite
func InvitationSentMessage(email string) string {
	return fmt.Sprintf("Invitation sent to %s.", email)
}

// InviteInput is the invite-member form
type InviteInput struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

type inviteEmail struct {
	Email string `validate:"email"`
}

// InvitationService implements the organization invitation lifecycle
type InvitationService struct {
	txManager     repositories.TransactionManager
	invitations   repositories.InvitationRepository
	memberships   repositories.MembershipRepository
	organizations repositories.OrganizationRepository
	users         repositories.UserRepository
	sessions      repositories.SessionRepository
	mailer        InvitationMailer
	audit         AuditRecorder
	metrics       *telemetry.Metrics
	appURL        string
	ttl           time.Duration
	mailTimeout   time.Duration
	logger        *zap.Logger
	now           func() time.Time
	mailWG        sync.WaitGroup
}

// NewInvitationService creates a new InvitationService instance. appURL is the
// public base URL used to build invitation links.
func NewInvitationService(
	txManager repositories.TransactionManager,
	repos *repositories.Repositories,
	mailer InvitationMailer,
	audit AuditRecorder,
	metrics *telemetry.Metrics,
	appURL string,
	logger *zap.Logger,
) *InvitationService {
	return &InvitationService{
		txManager:     txManager,
		invitations:   repos.Invitations,
		memberships:   repos.Memberships,
		organizations: repos.Organizations,
		users:         repos.Users,
		sessions:      repos.Sessions,
		mailer:        mailer,
		audit:         audit,
		metrics:       metrics,
		appURL:        strings.TrimRight(appURL, "/"),
		ttl:           models.DefaultInvitationTTL,
		mailTimeout:   defaultMailTimeout,
		logger:        logger,
		now:           time.Now,
	}
}

// InviteLink returns the public URL of an invitation
func (s *InvitationService) InviteLink(invitationID uuid.UUID) string {
	return s.appURL + "/invitation/" + invitationID.String()
}

// Invite creates a pending invitation to the active organization and emails it
// in the background. A failed email does not fail the invite.
func (s *InvitationService) Invite(ctx context.Context, id *auth.Identity, input InviteInput) (*models.Invitation, error) {
	orgID, ok := id.OrganizationID()
	if !id.IsAuthenticated() || !ok {
		return nil, NewUnauthorizedError(MsgInviteLoginRequired)
	}

	addr := strings.TrimSpace(input.Email)
	if addr == "" || input.Role == "" {
		return nil, NewValidationError(MsgInviteFieldsRequired, nil)
	}
	if err := utils.ValidateStruct(inviteEmail{Email: addr}); err != nil {
		return nil, NewValidationError(MsgInviteInvalidEmail, map[string]string{"email": MsgInviteInvalidEmail})
	}
	role := models.MembershipRole(input.Role)
	if !role.IsValid() {
		return nil, NewValidationError(MsgInviteInvalidRole, map[string]string{"role": MsgInviteInvalidRole})
	}

	inviter, err := s.memberships.Get(ctx, orgID, id.UserID)
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return nil, s.inviteFailed(orgID, err)
	}
	if inviter == nil || !inviter.Role.CanInvite() {
		return nil, NewForbiddenError(MsgInviteForbidden)
	}

	isMember, err := s.memberships.ExistsByEmail(ctx, orgID, addr)
	if err != nil {
		return nil, s.inviteFailed(orgID, err)
	}
	if isMember {
		return nil, NewConflictError(MsgInviteAlreadyMember, nil)
	}

	if _, err := s.invitations.FindPending(ctx, orgID, addr); err == nil {
		return nil, NewConflictError(MsgInviteAlreadyPending, nil)
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return nil, s.inviteFailed(orgID, err)
	}

	inv := models.NewInvitation(orgID, id.UserID, addr, role, s.ttl)
	if err := s.invitations.Create(ctx, inv); err != nil {
		return nil, s.inviteFailed(orgID, err)
	}

	s.metrics.InvitationSent()
	s.audit.Record(ctx, models.NewAuditLog(models.AuditActionInvitationCreated, "invitation").
		WithOrganization(orgID).
		WithUser(id.UserID).
		WithResource(inv.ID).
		WithDetails(map[string]string{"email": inv.Email, "role": string(inv.Role)}).
		WithRequest("", id.IPAddress, id.UserAgent))

	s.sendInvitationEmail(ctx, inv)
	return inv, nil
}

func (s *InvitationService) inviteFailed(orgID uuid.UUID, err error) error {
	s.logger.Error("failed to invite user",
		zap.String("organization_id", orgID.String()),
		zap.Error(err))
	return WrapInternal(MsgUnexpected, err)
}

// sendInvitationEmail renders and sends the email on a background goroutine with
// its own deadline, detached from the request's cancellation
func (s *InvitationService) sendInvitationEmail(ctx context.Context, inv *models.Invitation) {
	bg := context.WithoutCancel(ctx)

	s.mailWG.Add(1)
	safego.Go(s.logger, func() {
		defer s.mailWG.Done()

		ctx, cancel := context.WithTimeout(bg, s.mailTimeout)
		defer cancel()

		data := email.InvitationData{
			InviteLink:     s.InviteLink(inv.ID),
			UserName:       inv.Email,
			ExpiresInHours: int(s.ttl.Hours()),
		}
		if org, err := s.organizations.GetByID(ctx, inv.OrganizationID); err == nil {
			data.OrganizationName = org.Name
		}
		if inviter, err := s.users.GetByID(ctx, inv.InviterID); err == nil {
			data.InvitedByName = inviter.Name
		}
		if invitee, err := s.users.GetByEmail(ctx, inv.Email); err == nil {
			data.UserName = invitee.Name
		}

		if err := s.mailer.SendInvitation(ctx, inv.Email, data); err != nil {
			s.logger.Error("failed to send invitation email",
				zap.String("invitation_id", inv.ID.String()),
				zap.Error(err))
		}
	})
}

// Wait blocks until in-flight invitation emails have been handed off
func (s *InvitationService) Wait() {
	s.mailWG.Wait()
}

// GetInvitation returns an invitation with display names for the invitation page
func (s *InvitationService) GetInvitation(ctx context.Context, invitationID string) (*models.InvitationDetail, error) {
	invID, err := parseInvitationID(invitationID)
	if err != nil {
		return nil, err
	}

	detail, err := s.invitations.GetDetail(ctx, invID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, NewNotFoundError(MsgInvitationNotFound)
		}
		s.logger.Error("failed to load invitation", zap.String("invitation_id", invitationID), zap.Error(err))
		return nil, WrapInternal(MsgUnexpected, err)
	}
	return detail, nil
}

// AcceptInvitation joins the caller to the invitation's organization and makes it
// the session's active organization
func (s *InvitationService) AcceptInvitation(ctx context.Context, id *auth.Identity, invitationID string) (*models.Invitation, error) {
	inv, err := s.answerable(ctx, id, invitationID, MsgAcceptInvitationError)
	if err != nil {
		return nil, err
	}

	err = WithTransaction(ctx, s.txManager, func(ctx context.Context, _ repositories.Transaction) error {
		if _, err := s.memberships.Get(ctx, inv.OrganizationID, id.UserID); errors.Is(err, repositories.ErrNotFound) {
			if err := s.memberships.Create(ctx, models.NewMembership(inv.OrganizationID, id.UserID, inv.Role)); err != nil {
				return err
			}
		} else if err != nil {
			return err
		}
		return s.invitations.UpdateStatus(ctx, inv.ID, models.InvitationStatusAccepted, &id.UserID)
	})
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, NewConflictError(MsgInvitationNotPending, err)
		}
		s.logger.Error("failed to accept invitation", zap.String("invitation_id", inv.ID.String()), zap.Error(err))
		return nil, WrapInternal(MsgAcceptInvitationError, err)
	}

	orgID := inv.OrganizationID
	if err := s.sessions.SetActiveOrganization(ctx, id.SessionID, &orgID); err != nil {
		s.logger.Warn("failed to set active organization",
			zap.String("session_id", id.SessionID.String()),
			zap.Error(err))
	} else {
		id.ActiveOrganizationID = &orgID
	}

	inv.Status = models.InvitationStatusAccepted
	inv.AcceptedByID = &id.UserID

	s.audit.Record(ctx, models.NewAuditLog(models.AuditActionInvitationAccepted, "invitation").
		WithOrganization(orgID).
		WithUser(id.UserID).
		WithResource(inv.ID).
		WithRequest("", id.IPAddress, id.UserAgent))
	return inv, nil
}

// DeclineInvitation marks the invitation declined
func (s *InvitationService) DeclineInvitation(ctx context.Context, id *auth.Identity, invitationID string) (*models.Invitation, error) {
	inv, err := s.answerable(ctx, id, invitationID, MsgUnexpected)
	if err != nil {
		return nil, err
	}

	if err := s.invitations.UpdateStatus(ctx, inv.ID, models.InvitationStatusDeclined, nil); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, NewConflictError(MsgInvitationNotPending, err)
		}
		s.logger.Error("failed to decline invitation", zap.String("invitation_id", inv.ID.String()), zap.Error(err))
		return nil, WrapInternal(MsgUnexpected, err)
	}
	inv.Status = models.InvitationStatusDeclined

	s.audit.Record(ctx, models.NewAuditLog(models.AuditActionInvitationDeclined, "invitation").
		WithOrganization(inv.OrganizationID).
		WithUser(id.UserID).
		WithResource(inv.ID).
		WithRequest("", id.IPAddress, id.UserAgent))
	return inv, nil
}

// answerable loads an invitation the caller may accept or decline: addressed to
// the caller's email, pending and unexpired. A pending invitation found past its
// expiry is marked expired.
func (s *InvitationService) answerable(ctx context.Context, id *auth.Identity, invitationID, failMsg string) (*models.Invitation, error) {
	invID, err := parseInvitationID(invitationID)
	if err != nil {
		return nil, err
	}
	if !id.IsAuthenticated() {
		return nil, ErrUnauthorized
	}

	inv, err := s.invitations.GetByID(ctx, invID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, NewNotFoundError(MsgInvitationNotFound)
		}
		s.logger.Error("failed to load invitation", zap.String("invitation_id", invitationID), zap.Error(err))
		return nil, WrapInternal(failMsg, err)
	}

	if !inv.IsAddressedTo(id.Email) {
		return nil, NewForbiddenError(MsgInvitationWrongEmail)
	}
	if inv.Status != models.InvitationStatusPending {
		return nil, NewConflictError(MsgInvitationNotPending, nil)
	}
	if inv.IsExpired(s.now()) {
		if err := s.invitations.UpdateStatus(ctx, inv.ID, models.InvitationStatusExpired, nil); err != nil {
			s.logger.Warn("failed to mark invitation expired", zap.String("invitation_id", inv.ID.String()), zap.Error(err))
		}
		return nil, NewConflictError(MsgInvitationExpired, nil)
	}
	return inv, nil
}

func parseInvitationID(raw string) (uuid.UUID, error) {
	if strings.TrimSpace(raw) == "" {
		return uuid.Nil, NewValidationError(MsgInvitationIDRequired, nil)
	}
	invID, err := utils.ParseUUID(raw)
	if err != nil {
		return uuid.Nil, NewNotFoundError(MsgInvitationNotFound)
	}
	return invID, nil
}
