package handlers

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"

	"github.com/cogzy/cogzy-api/auth"
	"github.com/cogzy/cogzy-api/middleware"
	"github.com/cogzy/cogzy-api/models"
	"github.com/cogzy/cogzy-api/services"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockAuthService is a mock implementation of AuthService
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) SignUp(ctx context.Context, input services.SignUpInput, client services.ClientInfo) (*models.User, error) {
	args := m.Called(ctx, input, client)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockAuthService) SignIn(ctx context.Context, input services.SignInInput, client services.ClientInfo) (*services.SignInResult, error) {
	args := m.Called(ctx, input, client)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.SignInResult), args.Error(1)
}

func (m *MockAuthService) SignOut(ctx context.Context, id *auth.Identity) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockAuthService) GetSession(ctx context.Context, id *auth.Identity) (*services.SessionView, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.SessionView), args.Error(1)
}

func (m *MockAuthService) SetActiveOrganization(ctx context.Context, id *auth.Identity, orgID uuid.UUID) error {
	return m.Called(ctx, id, orgID).Error(0)
}

// MockOrganizationService is a mock implementation of OrganizationService
type MockOrganizationService struct {
	mock.Mock
}

func (m *MockOrganizationService) CreateOrganization(ctx context.Context, id *auth.Identity, input services.CreateOrganizationInput) (*models.Organization, error) {
	args := m.Called(ctx, id, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Organization), args.Error(1)
}

func (m *MockOrganizationService) ListMyOrganizations(ctx context.Context, id *auth.Identity) ([]*models.Organization, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Organization), args.Error(1)
}

func (m *MockOrganizationService) ListMembers(ctx context.Context, id *auth.Identity, q services.MemberListQuery) []*models.OrganizationMember {
	return m.Called(ctx, id, q).Get(0).([]*models.OrganizationMember)
}

// MockInvitationService is a mock implementation of InvitationService
type MockInvitationService struct {
	mock.Mock
}

func (m *MockInvitationService) Invite(ctx context.Context, id *auth.Identity, input services.InviteInput) (*models.Invitation, error) {
	args := m.Called(ctx, id, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Invitation), args.Error(1)
}

func (m *MockInvitationService) GetInvitation(ctx context.Context, invitationID string) (*models.InvitationDetail, error) {
	args := m.Called(ctx, invitationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.InvitationDetail), args.Error(1)
}

func (m *MockInvitationService) AcceptInvitation(ctx context.Context, id *auth.Identity, invitationID string) (*models.Invitation, error) {
	args := m.Called(ctx, id, invitationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Invitation), args.Error(1)
}

func (m *MockInvitationService) DeclineInvitation(ctx context.Context, id *auth.Identity, invitationID string) (*models.Invitation, error) {
	args := m.Called(ctx, id, invitationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Invitation), args.Error(1)
}

// MockWorkspaceService is a mock implementation of WorkspaceService
type MockWorkspaceService struct {
	mock.Mock
}

func (m *MockWorkspaceService) CreateWorkspace(ctx context.Context, id *auth.Identity, input services.CreateWorkspaceInput) (*models.Workspace, error) {
	args := m.Called(ctx, id, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Workspace), args.Error(1)
}

func (m *MockWorkspaceService) ListWorkspaces(ctx context.Context, id *auth.Identity) []*models.WorkspaceSummary {
	return m.Called(ctx, id).Get(0).([]*models.WorkspaceSummary)
}

func (m *MockWorkspaceService) SearchMembers(ctx context.Context, id *auth.Identity, workspaceID uuid.UUID, query string) []*models.UserSearchResult {
	return m.Called(ctx, id, workspaceID, query).Get(0).([]*models.UserSearchResult)
}

func (m *MockWorkspaceService) AddMember(ctx context.Context, id *auth.Identity, input services.AddWorkspaceMemberInput) (*models.WorkspaceMember, error) {
	args := m.Called(ctx, id, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WorkspaceMember), args.Error(1)
}

func (m *MockWorkspaceService) ListMembers(ctx context.Context, id *auth.Identity, workspaceID uuid.UUID) ([]*models.WorkspaceMemberDetail, error) {
	args := m.Called(ctx, id, workspaceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.WorkspaceMemberDetail), args.Error(1)
}

// MockContentService is a mock implementation of ContentService
type MockContentService struct {
	mock.Mock
}

func (m *MockContentService) CreateDocument(ctx context.Context, id *auth.Identity, workspaceID uuid.UUID, input services.CreateDocumentInput) (*models.Document, error) {
	args := m.Called(ctx, id, workspaceID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Document), args.Error(1)
}

func (m *MockContentService) ListDocuments(ctx context.Context, id *auth.Identity, workspaceID uuid.UUID) ([]*models.Document, error) {
	args := m.Called(ctx, id, workspaceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Document), args.Error(1)
}

func (m *MockContentService) CreateConversation(ctx context.Context, id *auth.Identity, workspaceID uuid.UUID, input services.CreateConversationInput) (*models.Conversation, error) {
	args := m.Called(ctx, id, workspaceID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Conversation), args.Error(1)
}

func (m *MockContentService) ListConversations(ctx context.Context, id *auth.Identity, workspaceID uuid.UUID) ([]*models.Conversation, error) {
	args := m.Called(ctx, id, workspaceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Conversation), args.Error(1)
}

func (m *MockContentService) AddMessage(ctx context.Context, id *auth.Identity, conversationID uuid.UUID, input services.AddMessageInput) (*models.Message, error) {
	args := m.Called(ctx, id, conversationID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Message), args.Error(1)
}

func (m *MockContentService) ListMessages(ctx context.Context, id *auth.Identity, conversationID uuid.UUID) ([]*models.Message, error) {
	args := m.Called(ctx, id, conversationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Message), args.Error(1)
}

func testIdentity() *auth.Identity {
	orgID := uuid.New()
	return &auth.Identity{
		UserID:               uuid.New(),
		SessionID:            uuid.New(),
		Email:                "user@example.com",
		ActiveOrganizationID: &orgID,
	}
}

// newRequest builds a request carrying id and the given chi URL parameters
func newRequest(method, target, body string, id *auth.Identity, params map[string]string) *http.Request {
	req := httptest.NewRequest(method, target, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")

	ctx := req.Context()
	if id != nil {
		ctx = middleware.WithIdentity(ctx, id)
	}
	if len(params) > 0 {
		rctx := chi.NewRouteContext()
		for k, v := range params {
			rctx.URLParams.Add(k, v)
		}
		ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)
	}
	return req.WithContext(ctx)
}
