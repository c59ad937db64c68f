package services

import (
	"context"
	"sync"

	"github.com/cogzy/cogzy-api/auth"
	"github.com/cogzy/cogzy-api/models"
	"github.com/cogzy/cogzy-api/repositories"
	"github.com/cogzy/cogzy-api/services/email"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// stubTxManager hands out transactions that only record how they ended
type stubTxManager struct {
	tx *stubTx
}

type stubTx struct {
	ctx        context.Context
	committed  bool
	rolledback bool
}

func (m *stubTxManager) Begin(ctx context.Context) (repositories.Transaction, error) {
	m.tx = &stubTx{ctx: ctx}
	return m.tx, nil
}

func (m *stubTxManager) InTransaction(ctx context.Context, fn func(ctx context.Context, tx repositories.Transaction) error) error {
	return WithTransaction(ctx, m, fn)
}

func (t *stubTx) Commit() error            { t.committed = true; return nil }
func (t *stubTx) Rollback() error          { t.rolledback = true; return nil }
func (t *stubTx) Context() context.Context { return t.ctx }

type MockOrganizationRepository struct{ mock.Mock }

func (m *MockOrganizationRepository) Create(ctx context.Context, org *models.Organization) error {
	return m.Called(ctx, org).Error(0)
}

func (m *MockOrganizationRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Organization, error) {
	args := m.Called(ctx, id)
	if org := args.Get(0); org != nil {
		return org.(*models.Organization), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockOrganizationRepository) GetBySlug(ctx context.Context, slug string) (*models.Organization, error) {
	args := m.Called(ctx, slug)
	if org := args.Get(0); org != nil {
		return org.(*models.Organization), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockOrganizationRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]*models.Organization, error) {
	args := m.Called(ctx, userID)
	if orgs := args.Get(0); orgs != nil {
		return orgs.([]*models.Organization), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockUserRepository struct{ mock.Mock }

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if user := args.Get(0); user != nil {
		return user.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if user := args.Get(0); user != nil {
		return user.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockMembershipRepository struct{ mock.Mock }

func (m *MockMembershipRepository) Create(ctx context.Context, membership *models.Membership) error {
	return m.Called(ctx, membership).Error(0)
}

func (m *MockMembershipRepository) Get(ctx context.Context, orgID, userID uuid.UUID) (*models.Membership, error) {
	args := m.Called(ctx, orgID, userID)
	if ms := args.Get(0); ms != nil {
		return ms.(*models.Membership), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockMembershipRepository) FirstForUser(ctx context.Context, userID uuid.UUID) (*models.Membership, error) {
	args := m.Called(ctx, userID)
	if ms := args.Get(0); ms != nil {
		return ms.(*models.Membership), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockMembershipRepository) ExistsByEmail(ctx context.Context, orgID uuid.UUID, email string) (bool, error) {
	args := m.Called(ctx, orgID, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockMembershipRepository) ListByOrganization(ctx context.Context, orgID uuid.UUID, opts repositories.MemberListOptions) ([]*models.OrganizationMember, error) {
	args := m.Called(ctx, orgID, opts)
	if members := args.Get(0); members != nil {
		return members.([]*models.OrganizationMember), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockSessionRepository struct{ mock.Mock }

func (m *MockSessionRepository) Create(ctx context.Context, session *models.Session) error {
	return m.Called(ctx, session).Error(0)
}

func (m *MockSessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	args := m.Called(ctx, id)
	if session := args.Get(0); session != nil {
		return session.(*models.Session), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockSessionRepository) SetActiveOrganization(ctx context.Context, id uuid.UUID, orgID *uuid.UUID) error {
	return m.Called(ctx, id, orgID).Error(0)
}

func (m *MockSessionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

type MockWorkspaceRepository struct{ mock.Mock }

func (m *MockWorkspaceRepository) Create(ctx context.Context, ws *models.Workspace) (uuid.UUID, error) {
	args := m.Called(ctx, ws)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockWorkspaceRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Workspace, error) {
	args := m.Called(ctx, id)
	if ws := args.Get(0); ws != nil {
		return ws.(*models.Workspace), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockWorkspaceRepository) ListSummariesByOrganization(ctx context.Context, orgID uuid.UUID) ([]*models.WorkspaceSummary, error) {
	args := m.Called(ctx, orgID)
	if list := args.Get(0); list != nil {
		return list.([]*models.WorkspaceSummary), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockWorkspaceMemberRepository struct{ mock.Mock }

func (m *MockWorkspaceMemberRepository) Create(ctx context.Context, member *models.WorkspaceMember) error {
	return m.Called(ctx, member).Error(0)
}

func (m *MockWorkspaceMemberRepository) GetRole(ctx context.Context, workspaceID, userID uuid.UUID) (models.WorkspaceRole, error) {
	args := m.Called(ctx, workspaceID, userID)
	return args.Get(0).(models.WorkspaceRole), args.Error(1)
}

func (m *MockWorkspaceMemberRepository) ListByWorkspace(ctx context.Context, workspaceID uuid.UUID) ([]*models.WorkspaceMemberDetail, error) {
	args := m.Called(ctx, workspaceID)
	if list := args.Get(0); list != nil {
		return list.([]*models.WorkspaceMemberDetail), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockWorkspaceMemberRepository) SearchCandidates(ctx context.Context, orgID, workspaceID uuid.UUID, query string, limit int) ([]*models.UserSearchResult, error) {
	args := m.Called(ctx, orgID, workspaceID, query, limit)
	if list := args.Get(0); list != nil {
		return list.([]*models.UserSearchResult), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockInvitationRepository struct{ mock.Mock }

func (m *MockInvitationRepository) Create(ctx context.Context, inv *models.Invitation) error {
	return m.Called(ctx, inv).Error(0)
}

func (m *MockInvitationRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Invitation, error) {
	args := m.Called(ctx, id)
	if inv := args.Get(0); inv != nil {
		return inv.(*models.Invitation), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockInvitationRepository) GetDetail(ctx context.Context, id uuid.UUID) (*models.InvitationDetail, error) {
	args := m.Called(ctx, id)
	if detail := args.Get(0); detail != nil {
		return detail.(*models.InvitationDetail), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockInvitationRepository) FindPending(ctx context.Context, orgID uuid.UUID, email string) (*models.Invitation, error) {
	args := m.Called(ctx, orgID, email)
	if inv := args.Get(0); inv != nil {
		return inv.(*models.Invitation), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockInvitationRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.InvitationStatus, acceptedBy *uuid.UUID) error {
	return m.Called(ctx, id, status, acceptedBy).Error(0)
}

type MockContentRepository struct{ mock.Mock }

func (m *MockContentRepository) CreateDocument(ctx context.Context, doc *models.Document) error {
	return m.Called(ctx, doc).Error(0)
}

func (m *MockContentRepository) ListDocuments(ctx context.Context, workspaceID uuid.UUID) ([]*models.Document, error) {
	args := m.Called(ctx, workspaceID)
	if list := args.Get(0); list != nil {
		return list.([]*models.Document), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockContentRepository) CreateConversation(ctx context.Context, conv *models.Conversation) error {
	return m.Called(ctx, conv).Error(0)
}

func (m *MockContentRepository) GetConversation(ctx context.Context, id uuid.UUID) (*models.Conversation, error) {
	args := m.Called(ctx, id)
	if conv := args.Get(0); conv != nil {
		return conv.(*models.Conversation), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockContentRepository) ListConversations(ctx context.Context, workspaceID uuid.UUID) ([]*models.Conversation, error) {
	args := m.Called(ctx, workspaceID)
	if list := args.Get(0); list != nil {
		return list.([]*models.Conversation), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockContentRepository) CreateMessage(ctx context.Context, msg *models.Message) error {
	return m.Called(ctx, msg).Error(0)
}

func (m *MockContentRepository) ListMessages(ctx context.Context, conversationID uuid.UUID) ([]*models.Message, error) {
	args := m.Called(ctx, conversationID)
	if list := args.Get(0); list != nil {
		return list.([]*models.Message), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockWorkspaceCache is a mock implementation of WorkspaceListCache
type MockWorkspaceCache struct{ mock.Mock }

func (m *MockWorkspaceCache) Get(ctx context.Context, orgID uuid.UUID) ([]*models.WorkspaceSummary, bool) {
	args := m.Called(ctx, orgID)
	if list := args.Get(0); list != nil {
		return list.([]*models.WorkspaceSummary), args.Bool(1)
	}
	return nil, args.Bool(1)
}

func (m *MockWorkspaceCache) Generation(ctx context.Context, orgID uuid.UUID) uint64 {
	args := m.Called(ctx, orgID)
	return args.Get(0).(uint64)
}

func (m *MockWorkspaceCache) Set(ctx context.Context, orgID uuid.UUID, gen uint64, workspaces []*models.WorkspaceSummary) {
	m.Called(ctx, orgID, gen, workspaces)
}

func (m *MockWorkspaceCache) Invalidate(ctx context.Context, orgID uuid.UUID) {
	m.Called(ctx, orgID)
}

// recordingAudit keeps every entry it is handed
type recordingAudit struct {
	mu      sync.Mutex
	entries []*models.AuditLog
}

func (a *recordingAudit) Record(_ context.Context, entry *models.AuditLog) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, entry)
}

func (a *recordingAudit) actions() []models.AuditAction {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]models.AuditAction, 0, len(a.entries))
	for _, e := range a.entries {
		out = append(out, e.Action)
	}
	return out
}

// MockMailer is a mock implementation of InvitationMailer
type MockMailer struct{ mock.Mock }

func (m *MockMailer) SendInvitation(ctx context.Context, to string, data email.InvitationData) error {
	return m.Called(ctx, to, data).Error(0)
}

// mockRepos bundles the mocks behind a repositories.Repositories
type mockRepos struct {
	orgs       *MockOrganizationRepository
	users      *MockUserRepository
	members    *MockMembershipRepository
	sessions   *MockSessionRepository
	workspaces *MockWorkspaceRepository
	wsMembers  *MockWorkspaceMemberRepository
	invites    *MockInvitationRepository
	content    *MockContentRepository
}

func newMockRepos() *mockRepos {
	return &mockRepos{
		orgs:       new(MockOrganizationRepository),
		users:      new(MockUserRepository),
		members:    new(MockMembershipRepository),
		sessions:   new(MockSessionRepository),
		workspaces: new(MockWorkspaceRepository),
		wsMembers:  new(MockWorkspaceMemberRepository),
		invites:    new(MockInvitationRepository),
		content:    new(MockContentRepository),
	}
}

func (m *mockRepos) all() *repositories.Repositories {
	return &repositories.Repositories{
		Organizations:    m.orgs,
		Users:            m.users,
		Memberships:      m.members,
		Sessions:         m.sessions,
		Workspaces:       m.workspaces,
		WorkspaceMembers: m.wsMembers,
		Invitations:      m.invites,
		Content:          m.content,
	}
}

// identityIn returns a signed-in identity with orgID active
func identityIn(orgID uuid.UUID) *auth.Identity {
	return &auth.Identity{
		UserID:               uuid.New(),
		SessionID:            uuid.New(),
		Email:                "user@example.com",
		ActiveOrganizationID: &orgID,
		IPAddress:            "127.0.0.1",
		UserAgent:            "go-test",
	}
}
