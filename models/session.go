package models

import (
	"time"

	"github.com/google/uuid"
)

// Session is a server-side login session. ActiveOrganizationID is the tenant context
// used to scope workspace operations; nil means the user has no tenant context.
type Session struct {
	ID                   uuid.UUID  `json:"id" db:"id"`
	UserID               uuid.UUID  `json:"userId" db:"user_id"`
	ActiveOrganizationID *uuid.UUID `json:"activeOrganizationId" db:"active_organization_id"`
	ExpiresAt            time.Time  `json:"expiresAt" db:"expires_at"`
	IPAddress            string     `json:"-" db:"ip_address"`
	UserAgent            string     `json:"-" db:"user_agent"`
	CreatedAt            time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt            time.Time  `json:"updatedAt" db:"updated_at"`
}

// TableName returns the table name for the Session model
func (Session) TableName() string {
	return "sessions"
}

// NewSession creates a session for userID valid for ttl
func NewSession(userID uuid.UUID, ttl time.Duration, ipAddress, userAgent string) *Session {
	now := time.Now()
	return &Session{
		ID:        uuid.New(),
		UserID:    userID,
		ExpiresAt: now.Add(ttl),
		IPAddress: ipAddress,
		UserAgent: userAgent,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsExpired reports whether the session has expired at now
func (s *Session) IsExpired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// HasActiveOrganization reports whether a tenant context is attached
func (s *Session) HasActiveOrganization() bool {
	return s.ActiveOrganizationID != nil && *s.ActiveOrganizationID != uuid.Nil
}
