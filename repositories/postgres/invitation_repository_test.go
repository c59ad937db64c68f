package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/cogzy/cogzy-api/models"
	"github.com/cogzy/cogzy-api/repositories"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestInvitationRepository_FindPending(t *testing.T) {
	orgID := uuid.New()
	cols := []string{"id", "organization_id", "email", "role", "status", "inviter_id", "accepted_by_id", "expires_at", "created_at", "updated_at"}

	t.Run("normalizes email and filters expired", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewInvitationRepository(db, zap.NewNop())
		now := time.Now()

		mock.ExpectQuery(`status = 'pending' AND expires_at > NOW\(\)`).
			WithArgs(orgID, "bob@example.com").
			WillReturnRows(sqlmock.NewRows(cols).
				AddRow(uuid.New().String(), orgID.String(), "bob@example.com", "member", "pending", uuid.New().String(), nil, now.Add(time.Hour), now, now))

		inv, err := repo.FindPending(context.Background(), orgID, " Bob@Example.com ")
		require.NoError(t, err)
		assert.Equal(t, models.InvitationStatusPending, inv.Status)
		assert.Nil(t, inv.AcceptedByID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("none pending", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewInvitationRepository(db, zap.NewNop())

		mock.ExpectQuery("FROM invitations").WillReturnRows(sqlmock.NewRows(cols))

		_, err := repo.FindPending(context.Background(), orgID, "bob@example.com")
		assert.ErrorIs(t, err, repositories.ErrNotFound)
	})
}

func TestInvitationRepository_UpdateStatus(t *testing.T) {
	id := uuid.New()
	userID := uuid.New()

	t.Run("accepts pending invitation", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewInvitationRepository(db, zap.NewNop())

		mock.ExpectExec(`UPDATE invitations .* WHERE id = \$1 AND status = 'pending'`).
			WithArgs(id, "accepted", userID, sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.UpdateStatus(context.Background(), id, models.InvitationStatusAccepted, &userID))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("already handled invitation", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewInvitationRepository(db, zap.NewNop())

		mock.ExpectExec("UPDATE invitations").WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.UpdateStatus(context.Background(), id, models.InvitationStatusDeclined, nil)
		assert.ErrorIs(t, err, repositories.ErrNotFound)
	})
}

func TestInvitationRepository_GetDetail(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewInvitationRepository(db, zap.NewNop())
	id := uuid.New()
	now := time.Now()

	mock.ExpectQuery("INNER JOIN organizations o ON o.id = i.organization_id").
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "organization_id", "email", "role", "status", "inviter_id", "accepted_by_id",
			"expires_at", "created_at", "updated_at", "organization_name", "inviter_name", "inviter_email",
		}).AddRow(id.String(), uuid.New().String(), "bob@example.com", "admin", "pending", uuid.New().String(), nil,
			now.Add(time.Hour), now, now, "Acme", "Alice", "alice@example.com"))

	detail, err := repo.GetDetail(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Acme", detail.OrganizationName)
	assert.Equal(t, "Alice", detail.InviterName)
	assert.Equal(t, models.MembershipRoleAdmin, detail.Role)
}
