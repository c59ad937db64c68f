package auth

import (
	"github.com/google/uuid"
)

// Identity is the authenticated principal of a request, resolved from a
// session token and its session row
type Identity struct {
	UserID               uuid.UUID
	SessionID            uuid.UUID
	Email                string
	ActiveOrganizationID *uuid.UUID

	// Client details of the current request, used for audit entries
	IPAddress string
	UserAgent string
}

// OrganizationID returns the active organization, if the session has one
func (i *Identity) OrganizationID() (uuid.UUID, bool) {
	if i == nil || i.ActiveOrganizationID == nil || *i.ActiveOrganizationID == uuid.Nil {
		return uuid.Nil, false
	}
	return *i.ActiveOrganizationID, true
}

// IsAuthenticated reports whether the identity refers to a user
func (i *Identity) IsAuthenticated() bool {
	return i != nil && i.UserID != uuid.Nil
}
