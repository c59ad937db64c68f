package services

import (
	"context"
	"errors"
	"time"

	"github.com/cogzy/cogzy-api/auth"
	"github.com/cogzy/cogzy-api/models"
	"github.com/cogzy/cogzy-api/repositories"
	"github.com/cogzy/cogzy-api/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	MsgAuthValidationFailed  = "Validation failed. Please check the fields."
	MsgEmailTaken            = "An account with this email already exists."
	MsgInvalidCredentials    = "Invalid email or password."
	MsgSignedUp              = "Account created successfully!"
	MsgSignedIn              = "Signed in successfully!"
	MsgSignedOut             = "Signed out successfully."
	MsgNotOrganizationMember = "You are not a member of this organization."
)

// SignUpInput is the sign-up form
type SignUpInput struct {
	Name     string `json:"name" validate:"required,min=2"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

func (SignUpInput) ValidationMessages() map[string]string {
	return map[string]string{
		"name.required":     "Full name must be at least 2 characters.",
		"name.min":          "Full name must be at least 2 characters.",
		"email.required":    "Please enter a valid email address.",
		"email.email":       "Please enter a valid email address.",
		"password.required": "Password must be at least 8 characters long.",
		"password.min":      "Password must be at least 8 characters long.",
	}
}

// SignInInput is the sign-in form
type SignInInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (SignInInput) ValidationMessages() map[string]string {
	return map[string]string{
		"email.required":    "Please enter a valid email.",
		"email.email":       "Please enter a valid email.",
		"password.required": "Password cannot be empty.",
	}
}

// ClientInfo describes the client a session is created for
type ClientInfo struct {
	IPAddress string
	UserAgent string
}

// SignInResult carries the new session and its signed token
type SignInResult struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expiresAt"`
	User      *models.User    `json:"user"`
	Session   *models.Session `json:"session"`
}

// SessionView is the current user and session as returned by GetSession
type SessionView struct {
	User    *models.User `json:"user"`
	Session SessionInfo  `json:"session"`
}

// SessionInfo is the public part of a session
type SessionInfo struct {
	ID                   uuid.UUID  `json:"id"`
	ActiveOrganizationID *uuid.UUID `json:"activeOrganizationId"`
	ExpiresAt            time.Time  `json:"expiresAt"`
}

// AuthService implements email and password accounts backed by database sessions
type AuthService struct {
	users       repositories.UserRepository
	memberships repositories.MembershipRepository
	sessions    repositories.SessionRepository
	tokens      *auth.TokenManager
	audit       AuditRecorder
	metrics     *telemetry.Metrics
	sessionTTL  time.Duration
	logger      *zap.Logger
	now         func() time.Time
}

// NewAuthService creates a new AuthService instance
func NewAuthService(
	repos *repositories.Repositories,
	tokens *auth.TokenManager,
	sessionTTL time.Duration,
	audit AuditRecorder,
	metrics *telemetry.Metrics,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		users:       repos.Users,
		memberships: repos.Memberships,
		sessions:    repos.Sessions,
		tokens:      tokens,
		audit:       audit,
		metrics:     metrics,
		sessionTTL:  sessionTTL,
		logger:      logger,
		now:         time.Now,
	}
}

// SignUp creates an account. The password is stored as a bcrypt hash.
func (s *AuthService) SignUp(ctx context.Context, input SignUpInput, client ClientInfo) (*models.User, error) {
	if err := validateInput(input, MsgAuthValidationFailed); err != nil {
		s.metrics.AuthAttempt("sign_up", "invalid")
		return nil, err
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		s.metrics.AuthAttempt("sign_up", "error")
		return nil, WrapInternal(MsgUnexpected, err)
	}

	user := models.NewUser(input.Name, input.Email, hash)
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			s.metrics.AuthAttempt("sign_up", "conflict")
			return nil, NewConflictError(MsgEmailTaken, err)
		}
		s.metrics.AuthAttempt("sign_up", "error")
		s.logger.Error("failed to create user", zap.Error(err))
		return nil, WrapInternal(MsgUnexpected, err)
	}

	s.metrics.AuthAttempt("sign_up", "success")
	s.audit.Record(ctx, models.NewAuditLog(models.AuditActionUserSignedUp, "user").
		WithUser(user.ID).
		WithResource(user.ID).
		WithRequest("", client.IPAddress, client.UserAgent))

	s.logger.Info("user signed up", zap.String("user_id", user.ID.String()))
	return user, nil
}

// SignIn verifies credentials, creates a session and issues its token
func (s *AuthService) SignIn(ctx context.Context, input SignInInput, client ClientInfo) (*SignInResult, error) {
	if err := validateInput(input, MsgAuthValidationFailed); err != nil {
		s.metrics.AuthAttempt("sign_in", "invalid")
		return nil, err
	}

	user, err := s.users.GetByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			s.metrics.AuthAttempt("sign_in", "invalid")
			return nil, NewUnauthorizedError(MsgInvalidCredentials)
		}
		s.metrics.AuthAttempt("sign_in", "error")
		s.logger.Error("failed to load user for sign in", zap.Error(err))
		return nil, WrapInternal(MsgUnexpected, err)
	}

	if err := auth.CheckPassword(user.PasswordHash, input.Password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			s.metrics.AuthAttempt("sign_in", "invalid")
			return nil, NewUnauthorizedError(MsgInvalidCredentials)
		}
		s.metrics.AuthAttempt("sign_in", "error")
		s.logger.Error("failed to verify password", zap.String("user_id", user.ID.String()), zap.Error(err))
		return nil, WrapInternal(MsgUnexpected, err)
	}

	session := models.NewSession(user.ID, s.sessionTTL, client.IPAddress, client.UserAgent)
	s.resolveActiveOrganization(ctx, session)

	if err := s.sessions.Create(ctx, session); err != nil {
		s.metrics.AuthAttempt("sign_in", "error")
		s.logger.Error("failed to create session", zap.String("user_id", user.ID.String()), zap.Error(err))
		return nil, WrapInternal(MsgUnexpected, err)
	}

	token, err := s.tokens.Issue(session.ID, user.ID, user.Email, session.ExpiresAt)
	if err != nil {
		s.metrics.AuthAttempt("sign_in", "error")
		return nil, WrapInternal(MsgUnexpected, err)
	}

	s.metrics.AuthAttempt("sign_in", "success")
	s.logger.Info("user signed in",
		zap.String("user_id", user.ID.String()),
		zap.String("session_id", session.ID.String()))

	return &SignInResult{
		Token:     token,
		ExpiresAt: session.ExpiresAt,
		User:      user,
		Session:   session,
	}, nil
}

// resolveActiveOrganization attaches the user's oldest organization membership to
// a new session. Without a membership the session has no tenant context.
func (s *AuthService) resolveActiveOrganization(ctx context.Context, session *models.Session) {
	membership, err := s.memberships.FirstForUser(ctx, session.UserID)
	if err != nil {
		s.logger.Warn("failed to set active organization",
			zap.String("user_id", session.UserID.String()),
			zap.Error(err))
		return
	}
	orgID := membership.OrganizationID
	session.ActiveOrganizationID = &orgID
}

// SignOut deletes the caller's session. An already deleted session is not an error.
func (s *AuthService) SignOut(ctx context.Context, id *auth.Identity) error {
	if !id.IsAuthenticated() {
		return ErrUnauthorized
	}
	if err := s.sessions.Delete(ctx, id.SessionID); err != nil && !errors.Is(err, repositories.ErrNotFound) {
		s.logger.Error("failed to delete session", zap.String("session_id", id.SessionID.String()), zap.Error(err))
		return WrapInternal(MsgUnexpected, err)
	}
	return nil
}

// Authenticate resolves a session token into an identity. The token signature and
// expiry are checked first, then the session row must exist and be unexpired.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*auth.Identity, error) {
	claims, err := s.tokens.ValidateToken(ctx, token)
	if err != nil {
		if errors.Is(err, auth.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}

	session, err := s.sessions.GetByID(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, WrapInternal(MsgUnexpected, err)
	}
	if session.UserID != claims.UserID {
		return nil, ErrInvalidToken
	}
	if session.IsExpired(s.now()) {
		return nil, ErrTokenExpired
	}

	identity := &auth.Identity{
		UserID:    session.UserID,
		SessionID: session.ID,
		Email:     claims.Email,
	}
	if session.HasActiveOrganization() {
		orgID := *session.ActiveOrganizationID
		identity.ActiveOrganizationID = &orgID
	}
	return identity, nil
}

// GetSession returns the caller's user and session
func (s *AuthService) GetSession(ctx context.Context, id *auth.Identity) (*SessionView, error) {
	if !id.IsAuthenticated() {
		return nil, ErrUnauthorized
	}

	user, err := s.users.GetByID(ctx, id.UserID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, WrapInternal(MsgUnexpected, err)
	}
	session, err := s.sessions.GetByID(ctx, id.SessionID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, WrapInternal(MsgUnexpected, err)
	}

	return &SessionView{
		User: user,
		Session: SessionInfo{
			ID:                   session.ID,
			ActiveOrganizationID: session.ActiveOrganizationID,
			ExpiresAt:            session.ExpiresAt,
		},
	}, nil
}

// SetActiveOrganization switches the session's tenant context. The caller must be a
// member of the organization.
func (s *AuthService) SetActiveOrganization(ctx context.Context, id *auth.Identity, orgID uuid.UUID) error {
	if !id.IsAuthenticated() {
		return ErrUnauthorized
	}

	if _, err := s.memberships.Get(ctx, orgID, id.UserID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return NewForbiddenError(MsgNotOrganizationMember)
		}
		return WrapInternal(MsgUnexpected, err)
	}

	if err := s.sessions.SetActiveOrganization(ctx, id.SessionID, &orgID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrUnauthorized
		}
		s.logger.Error("failed to set active organization",
			zap.String("session_id", id.SessionID.String()),
			zap.Error(err))
		return WrapInternal(MsgUnexpected, err)
	}

	id.ActiveOrganizationID = &orgID
	return nil
}
