package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError_Error(t *testing.T) {
	withCause := NewConflictError(MsgMemberAlreadyExists, errors.New("pq: duplicate key"))
	assert.Equal(t, "conflict: User is already a member of this workspace. (pq: duplicate key)", withCause.Error())

	bare := NewValidationError(MsgMemberMissingFields, nil)
	assert.Equal(t, "validation: Missing required fields.", bare.Error())
}

func TestDomainError_UnwrapAndIs(t *testing.T) {
	cause := errors.New("connection reset")
	err := fmt.Errorf("add member: %w", WrapInternal(MsgMemberAddFailed, cause))

	assert.ErrorIs(t, err, cause)

	tests := []struct {
		name   string
		err    error
		target error
		want   bool
	}{
		{"same type matches sentinel", NewUnauthorizedError(MsgInvalidCredentials), ErrUnauthorized, true},
		{"token errors are unauthorized", ErrTokenExpired, ErrInvalidToken, true},
		{"wrapped not found", fmt.Errorf("load: %w", NewNotFoundError(MsgConversationNotFound)), ErrWorkspaceNotFound, true},
		{"different type", NewForbiddenError(MsgWorkspaceAccessDenied), ErrWorkspaceNotFound, false},
		{"plain target", NewNotFoundError(MsgInvitationNotFound), errors.New("not found"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, errors.Is(tt.err, tt.target))
		})
	}
}

func TestErrorPredicates(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		checker func(error) bool
	}{
		{"validation", NewValidationError(MsgMemberMissingFields, nil), IsValidationError},
		{"unauthorized", NewUnauthorizedError(MsgInvalidCredentials), IsUnauthorizedError},
		{"forbidden", NewForbiddenError(MsgMemberManageDenied), IsForbiddenError},
		{"not found", NewNotFoundError(MsgInvitationNotFound), IsNotFoundError},
		{"conflict", NewConflictError(MsgInviteAlreadyPending, nil), IsConflictError},
		{"rate limit", NewRateLimitError("Too many attempts."), IsRateLimitError},
		{"internal", WrapInternal(MsgUnexpected, errors.New("db")), IsInternalError},
		{"external", WrapExternal("Could not send the invitation email.", errors.New("dial")), IsExternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.checker(tt.err))
			assert.True(t, tt.checker(fmt.Errorf("wrapped: %w", tt.err)))
			assert.False(t, tt.checker(errors.New("regular")))
			assert.False(t, tt.checker(nil))
		})
	}
}

func TestGetValidationFields(t *testing.T) {
	fields := map[string]string{"name": "Workspace name must be at least 3 characters."}

	assert.Equal(t, fields, GetValidationFields(NewValidationError(MsgWorkspaceValidationFailed, fields)))
	assert.Nil(t, GetValidationFields(NewValidationError(MsgMemberMissingFields, map[string]string{})))
	assert.Nil(t, GetValidationFields(NewForbiddenError(MsgWorkspaceAccessDenied)))
	assert.Nil(t, GetValidationFields(errors.New("regular")))
}

func TestPublicMessage(t *testing.T) {
	wrapped := fmt.Errorf("handler: %w", WrapInternal(MsgUnexpected, errors.New("connection reset")))

	assert.Equal(t, MsgUnexpected, PublicMessage(wrapped))
	assert.Equal(t, "", PublicMessage(errors.New("plain")))
}
