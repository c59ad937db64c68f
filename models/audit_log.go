package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AuditAction represents the type of action being audited
type AuditAction string

const (
	AuditActionUserSignedUp         AuditAction = "user.signed_up"
	AuditActionOrganizationCreated  AuditAction = "organization.created"
	AuditActionInvitationCreated    AuditAction = "invitation.created"
	AuditActionInvitationAccepted   AuditAction = "invitation.accepted"
	AuditActionInvitationDeclined   AuditAction = "invitation.declined"
	AuditActionWorkspaceCreated     AuditAction = "workspace.created"
	AuditActionWorkspaceMemberAdded AuditAction = "workspace.member_added"
	AuditActionDocumentCreated      AuditAction = "document.created"
	AuditActionConversationCreated  AuditAction = "conversation.created"
)

// AuditLog represents an audit trail entry
type AuditLog struct {
	ID             uuid.UUID       `json:"id" db:"id"`
	OrganizationID *uuid.UUID      `json:"organizationId,omitempty" db:"organization_id"`
	UserID         *uuid.UUID      `json:"userId,omitempty" db:"user_id"`
	Action         AuditAction     `json:"action" db:"action"`
	ResourceType   string          `json:"resourceType" db:"resource_type"` // workspace, invitation, etc.
	ResourceID     *uuid.UUID      `json:"resourceId,omitempty" db:"resource_id"`
	Details        json.RawMessage `json:"details,omitempty" db:"details"` // JSONB for flexible metadata
	IPAddress      string          `json:"ipAddress" db:"ip_address"`
	UserAgent      string          `json:"userAgent" db:"user_agent"`
	RequestID      string          `json:"requestId" db:"request_id"`
	CreatedAt      time.Time       `json:"createdAt" db:"created_at"`
}

// TableName returns the table name for the AuditLog model
func (AuditLog) TableName() string {
	return "audit_logs"
}

// NewAuditLog creates a new AuditLog instance
func NewAuditLog(action AuditAction, resourceType string) *AuditLog {
	return &AuditLog{
		ID:           uuid.New(),
		Action:       action,
		ResourceType: resourceType,
		CreatedAt:    time.Now(),
	}
}

// WithOrganization sets the organization ID
func (a *AuditLog) WithOrganization(orgID uuid.UUID) *AuditLog {
	a.OrganizationID = &orgID
	return a
}

// WithUser sets the user ID
func (a *AuditLog) WithUser(userID uuid.UUID) *AuditLog {
	a.UserID = &userID
	return a
}

// WithResource sets the resource ID
func (a *AuditLog) WithResource(resourceID uuid.UUID) *AuditLog {
	a.ResourceID = &resourceID
	return a
}

// WithDetails sets the details
func (a *AuditLog) WithDetails(details interface{}) *AuditLog {
	if data, err := json.Marshal(details); err == nil {
		a.Details = data
	}
	return a
}

// WithRequest sets request metadata
func (a *AuditLog) WithRequest(requestID, ipAddress, userAgent string) *AuditLog {
	a.RequestID = requestID
	a.IPAddress = ipAddress
	a.UserAgent = userAgent
	return a
}
