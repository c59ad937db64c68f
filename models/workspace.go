package models

import (
	"time"

	"github.com/google/uuid"
)

// WorkspaceRole represents the role of a user within a workspace
type WorkspaceRole string

const (
	WorkspaceRoleAdmin  WorkspaceRole = "admin"
	WorkspaceRoleEditor WorkspaceRole = "editor"
	WorkspaceRoleViewer WorkspaceRole = "viewer"
)

// IsValid reports whether r is a known workspace role
func (r WorkspaceRole) IsValid() bool {
	switch r {
	case WorkspaceRoleAdmin, WorkspaceRoleEditor, WorkspaceRoleViewer:
		return true
	}
	return false
}

// CanWrite reports whether the role may create content in the workspace
func (r WorkspaceRole) CanWrite() bool {
	return r == WorkspaceRoleAdmin || r == WorkspaceRoleEditor
}

// Workspace is a collaboration container owned by one organization
type Workspace struct {
	ID             uuid.UUID  `json:"id" db:"id"`
	Name           string     `json:"name" db:"name"`
	Description    *string    `json:"description,omitempty" db:"description"`
	Color          string     `json:"color" db:"color"`
	OrganizationID uuid.UUID  `json:"organizationId" db:"organization_id"`
	CreatedByID    *uuid.UUID `json:"createdById,omitempty" db:"created_by_id"`
	CreatedAt      time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time  `json:"updatedAt" db:"updated_at"`
}

// TableName returns the table name for the Workspace model
func (Workspace) TableName() string {
	return "workspaces"
}

// NewWorkspace creates a new Workspace instance. An empty description is stored as NULL.
func NewWorkspace(orgID, createdBy uuid.UUID, name, description, color string) *Workspace {
	now := time.Now()
	ws := &Workspace{
		ID:             uuid.New(),
		Name:           name,
		Color:          color,
		OrganizationID: orgID,
		CreatedByID:    &createdBy,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if description != "" {
		ws.Description = &description
	}
	return ws
}

// WorkspaceSummary is a workspace with its listing aggregates
type WorkspaceSummary struct {
	Workspace
	MemberCount       int       `json:"memberCount" db:"member_count"`
	DocumentCount     int       `json:"documentCount" db:"document_count"`
	ConversationCount int       `json:"conversationCount" db:"conversation_count"`
	LastActivity      time.Time `json:"lastActivity" db:"last_activity"`
}

// WorkspaceMember links a user to a workspace with a role
type WorkspaceMember struct {
	ID          uuid.UUID     `json:"id" db:"id"`
	WorkspaceID uuid.UUID     `json:"workspaceId" db:"workspace_id"`
	UserID      uuid.UUID     `json:"userId" db:"user_id"`
	Role        WorkspaceRole `json:"role" db:"role"`
	CreatedAt   time.Time     `json:"createdAt" db:"created_at"`
}

// TableName returns the table name for the WorkspaceMember model
func (WorkspaceMember) TableName() string {
	return "workspace_members"
}

// NewWorkspaceMember creates a new WorkspaceMember instance; an empty role defaults to viewer
func NewWorkspaceMember(workspaceID, userID uuid.UUID, role WorkspaceRole) *WorkspaceMember {
	if role == "" {
		role = WorkspaceRoleViewer
	}
	return &WorkspaceMember{
		ID:          uuid.New(),
		WorkspaceID: workspaceID,
		UserID:      userID,
		Role:        role,
		CreatedAt:   time.Now(),
	}
}

// WorkspaceMemberDetail is a workspace membership joined with the user's profile
type WorkspaceMemberDetail struct {
	WorkspaceMember
	Name  string  `json:"name" db:"name"`
	Email string  `json:"email" db:"email"`
	Image *string `json:"image,omitempty" db:"image"`
}
