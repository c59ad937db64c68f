package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// InvitationStatus represents the lifecycle state of an organization invitation
type InvitationStatus string

const (
	InvitationStatusPending  InvitationStatus = "pending"
	InvitationStatusAccepted InvitationStatus = "accepted"
	InvitationStatusDeclined InvitationStatus = "declined"
	InvitationStatusExpired  InvitationStatus = "expired"
)

// DefaultInvitationTTL is how long an invitation stays acceptable
const DefaultInvitationTTL = 48 * time.Hour

// Invitation invites an email address to join an organization with a role
type Invitation struct {
	ID             uuid.UUID        `json:"id" db:"id"`
	OrganizationID uuid.UUID        `json:"organizationId" db:"organization_id"`
	Email          string           `json:"email" db:"email"`
	Role           MembershipRole   `json:"role" db:"role"`
	Status         InvitationStatus `json:"status" db:"status"`
	InviterID      uuid.UUID        `json:"inviterId" db:"inviter_id"`
	AcceptedByID   *uuid.UUID       `json:"acceptedById,omitempty" db:"accepted_by_id"`
	ExpiresAt      time.Time        `json:"expiresAt" db:"expires_at"`
	CreatedAt      time.Time        `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time        `json:"updatedAt" db:"updated_at"`
}

// TableName returns the table name for the Invitation model
func (Invitation) TableName() string {
	return "invitations"
}

// NewInvitation creates a pending invitation expiring after ttl
func NewInvitation(orgID, inviterID uuid.UUID, email string, role MembershipRole, ttl time.Duration) *Invitation {
	now := time.Now()
	return &Invitation{
		ID:             uuid.New(),
		OrganizationID: orgID,
		Email:          NormalizeEmail(email),
		Role:           role,
		Status:         InvitationStatusPending,
		InviterID:      inviterID,
		ExpiresAt:      now.Add(ttl),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// IsExpired reports whether the invitation has passed its expiry at now
func (i *Invitation) IsExpired(now time.Time) bool {
	return !now.Before(i.ExpiresAt)
}

// IsPending reports whether the invitation can still be answered at now
func (i *Invitation) IsPending(now time.Time) bool {
	return i.Status == InvitationStatusPending && !i.IsExpired(now)
}

// IsAddressedTo compares the invited address with email, ignoring case
func (i *Invitation) IsAddressedTo(email string) bool {
	return strings.EqualFold(i.Email, strings.TrimSpace(email))
}

// InvitationDetail is an invitation joined with display names for the invitation page
type InvitationDetail struct {
	Invitation
	OrganizationName string `json:"organizationName" db:"organization_name"`
	InviterName      string `json:"inviterName" db:"inviter_name"`
	InviterEmail     string `json:"inviterEmail" db:"inviter_email"`
}
