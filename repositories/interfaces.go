package repositories

import (
	"context"
	"errors"

	"github.com/cogzy/cogzy-api/models"
	"github.com/google/uuid"
)

var (
	// ErrNotFound is wrapped by repositories when a lookup matches no row
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate is wrapped by repositories when a unique constraint rejects a write
	ErrDuplicate = errors.New("duplicate record")
)

// TransactionManager manages database transactions
type TransactionManager interface {
	// Begin starts a new transaction. The returned Transaction's Context carries it,
	// so repositories called with that context join the transaction.
	Begin(ctx context.Context) (Transaction, error)

	// InTransaction executes a function within a transaction
	// Automatically commits if function succeeds, rolls back on error
	InTransaction(ctx context.Context, fn func(ctx context.Context, tx Transaction) error) error
}

// Transaction represents a database transaction
type Transaction interface {
	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Context returns the transaction context
	Context() context.Context
}

// MemberSortField selects the ordering of organization member listings
type MemberSortField string

const (
	MemberSortCreatedAt MemberSortField = "createdAt"
	MemberSortRole      MemberSortField = "role"
)

// MemberListOptions controls pagination and ordering of organization members
type MemberListOptions struct {
	Limit      int
	Offset     int
	SortBy     MemberSortField
	Descending bool
	Role       models.MembershipRole // optional filter
}

// OrganizationRepository handles organization data operations
type OrganizationRepository interface {
	// Create creates a new organization
	Create(ctx context.Context, org *models.Organization) error

	// GetByID retrieves an organization by ID
	GetByID(ctx context.Context, id uuid.UUID) (*models.Organization, error)

	// GetBySlug retrieves an organization by slug
	GetBySlug(ctx context.Context, slug string) (*models.Organization, error)

	// ListForUser retrieves the organizations a user belongs to
	ListForUser(ctx context.Context, userID uuid.UUID) ([]*models.Organization, error)
}

// UserRepository handles user data operations
type UserRepository interface {
	// Create creates a new user
	Create(ctx context.Context, user *models.User) error

	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)

	// GetByEmail retrieves a user by normalized email
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// MembershipRepository handles organization membership data operations
type MembershipRepository interface {
	// Create adds a user to an organization
	Create(ctx context.Context, membership *models.Membership) error

	// Get retrieves the membership of a user in an organization
	Get(ctx context.Context, orgID, userID uuid.UUID) (*models.Membership, error)

	// FirstForUser returns the user's oldest membership, or ErrNotFound
	FirstForUser(ctx context.Context, userID uuid.UUID) (*models.Membership, error)

	// ExistsByEmail reports whether a user with email belongs to the organization
	ExistsByEmail(ctx context.Context, orgID uuid.UUID, email string) (bool, error)

	// ListByOrganization lists members with their profiles
	ListByOrganization(ctx context.Context, orgID uuid.UUID, opts MemberListOptions) ([]*models.OrganizationMember, error)
}

// SessionRepository handles login session data operations
type SessionRepository interface {
	// Create persists a new session
	Create(ctx context.Context, session *models.Session) error

	// GetByID retrieves a session by ID
	GetByID(ctx context.Context, id uuid.UUID) (*models.Session, error)

	// SetActiveOrganization updates the tenant context of a session
	SetActiveOrganization(ctx context.Context, id uuid.UUID, orgID *uuid.UUID) error

	// Delete removes a session
	Delete(ctx context.Context, id uuid.UUID) error
}

// WorkspaceRepository handles workspace data operations
type WorkspaceRepository interface {
	// Create inserts a workspace and returns the identifier the database assigned
	Create(ctx context.Context, ws *models.Workspace) (uuid.UUID, error)

	// GetByID retrieves a workspace by ID
	GetByID(ctx context.Context, id uuid.UUID) (*models.Workspace, error)

	// ListSummariesByOrganization lists an organization's workspaces with aggregates,
	// newest first
	ListSummariesByOrganization(ctx context.Context, orgID uuid.UUID) ([]*models.WorkspaceSummary, error)
}

// WorkspaceMemberRepository handles workspace membership data operations
type WorkspaceMemberRepository interface {
	// Create inserts a workspace member; a duplicate (workspace, user) pair wraps ErrDuplicate
	Create(ctx context.Context, member *models.WorkspaceMember) error

	// GetRole returns the user's role in the workspace, or ErrNotFound
	GetRole(ctx context.Context, workspaceID, userID uuid.UUID) (models.WorkspaceRole, error)

	// ListByWorkspace lists the members of a workspace with their profiles
	ListByWorkspace(ctx context.Context, workspaceID uuid.UUID) ([]*models.WorkspaceMemberDetail, error)

	// SearchCandidates finds organization members matching query who are not yet
	// members of the workspace
	SearchCandidates(ctx context.Context, orgID, workspaceID uuid.UUID, query string, limit int) ([]*models.UserSearchResult, error)
}

// InvitationRepository handles organization invitation data operations
type InvitationRepository interface {
	// Create persists a new invitation
	Create(ctx context.Context, inv *models.Invitation) error

	// GetByID retrieves an invitation by ID
	GetByID(ctx context.Context, id uuid.UUID) (*models.Invitation, error)

	// GetDetail retrieves an invitation with organization and inviter names
	GetDetail(ctx context.Context, id uuid.UUID) (*models.InvitationDetail, error)

	// FindPending returns the pending, unexpired invitation for email in orgID, or ErrNotFound
	FindPending(ctx context.Context, orgID uuid.UUID, email string) (*models.Invitation, error)

	// UpdateStatus transitions an invitation
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.InvitationStatus, acceptedBy *uuid.UUID) error
}

// ContentRepository handles documents, conversations and messages
type ContentRepository interface {
	CreateDocument(ctx context.Context, doc *models.Document) error
	ListDocuments(ctx context.Context, workspaceID uuid.UUID) ([]*models.Document, error)
	CreateConversation(ctx context.Context, conv *models.Conversation) error
	GetConversation(ctx context.Context, id uuid.UUID) (*models.Conversation, error)
	ListConversations(ctx context.Context, workspaceID uuid.UUID) ([]*models.Conversation, error)
	CreateMessage(ctx context.Context, msg *models.Message) error
	ListMessages(ctx context.Context, conversationID uuid.UUID) ([]*models.Message, error)
}

// AuditRepository handles audit log data operations
type AuditRepository interface {
	// Insert inserts a new audit log entry
	Insert(ctx context.Context, log *models.AuditLog) error

	// GetByOrganization retrieves audit logs for an organization with pagination
	GetByOrganization(ctx context.Context, orgID uuid.UUID, limit, offset int) ([]*models.AuditLog, error)
}

// Repositories aggregates all repositories for dependency injection
type Repositories struct {
	Organizations    OrganizationRepository
	Users            UserRepository
	Memberships      MembershipRepository
	Sessions         SessionRepository
	Workspaces       WorkspaceRepository
	WorkspaceMembers WorkspaceMemberRepository
	Invitations      InvitationRepository
	Content          ContentRepository
	Audit            AuditRepository
}
