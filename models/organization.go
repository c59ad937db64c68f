package models

import (
	"time"

	"github.com/google/uuid"
)

// MembershipRole represents the role of a user within an organization
type MembershipRole string

const (
	MembershipRoleOwner  MembershipRole = "owner"
	MembershipRoleAdmin  MembershipRole = "admin"
	MembershipRoleMember MembershipRole = "member"
)

// IsValid reports whether r is a known organization role
func (r MembershipRole) IsValid() bool {
	switch r {
	case MembershipRoleOwner, MembershipRoleAdmin, MembershipRoleMember:
		return true
	}
	return false
}

// CanInvite reports whether the role may invite new members
func (r MembershipRole) CanInvite() bool {
	return r == MembershipRoleOwner || r == MembershipRoleAdmin
}

// Organization represents a tenant in the multi-tenant system
type Organization struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Slug      string    `json:"slug" db:"slug"` // URL-friendly identifier
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// TableName returns the table name for the Organization model
func (Organization) TableName() string {
	return "organizations"
}

// NewOrganization creates a new Organization instance
func NewOrganization(name, slug string) *Organization {
	now := time.Now()
	return &Organization{
		ID:        uuid.New(),
		Name:      name,
		Slug:      slug,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Membership links a user to an organization with a role
type Membership struct {
	ID             uuid.UUID      `json:"id" db:"id"`
	OrganizationID uuid.UUID      `json:"organizationId" db:"organization_id"`
	UserID         uuid.UUID      `json:"userId" db:"user_id"`
	Role           MembershipRole `json:"role" db:"role"`
	CreatedAt      time.Time      `json:"createdAt" db:"created_at"`
}

// TableName returns the table name for the Membership model
func (Membership) TableName() string {
	return "members"
}

// NewMembership creates a new Membership instance
func NewMembership(orgID, userID uuid.UUID, role MembershipRole) *Membership {
	return &Membership{
		ID:             uuid.New(),
		OrganizationID: orgID,
		UserID:         userID,
		Role:           role,
		CreatedAt:      time.Now(),
	}
}

// OrganizationMember is a membership joined with the member's user profile
type OrganizationMember struct {
	Membership
	Name  string  `json:"name" db:"name"`
	Email string  `json:"email" db:"email"`
	Image *string `json:"image,omitempty" db:"image"`
}
