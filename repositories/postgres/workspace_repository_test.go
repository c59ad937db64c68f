package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/cogzy/cogzy-api/models"
	"github.com/cogzy/cogzy-api/repositories"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var workspaceSummaryCols = []string{
	"id", "name", "description", "color", "organization_id", "created_by_id",
	"created_at", "updated_at", "member_count", "document_count", "conversation_count", "last_activity",
}

func TestWorkspaceRepository_Create(t *testing.T) {
	orgID := uuid.New()
	creatorID := uuid.New()

	t.Run("returns stored id", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewWorkspaceRepository(db, zap.NewNop())
		ws := models.NewWorkspace(orgID, creatorID, "Research", "", "blue")

		mock.ExpectQuery("INSERT INTO workspaces").
			WithArgs(ws.ID, "Research", nil, "blue", orgID, creatorID, sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(ws.ID.String()))

		id, err := repo.Create(context.Background(), ws)
		require.NoError(t, err)
		assert.Equal(t, ws.ID, id)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no returned row yields nil id", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewWorkspaceRepository(db, zap.NewNop())

		mock.ExpectQuery("INSERT INTO workspaces").
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		id, err := repo.Create(context.Background(), models.NewWorkspace(orgID, creatorID, "Research", "", "blue"))
		require.NoError(t, err)
		assert.Equal(t, uuid.Nil, id)
	})

	t.Run("database error", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewWorkspaceRepository(db, zap.NewNop())

		mock.ExpectQuery("INSERT INTO workspaces").WillReturnError(errors.New("disk full"))

		_, err := repo.Create(context.Background(), models.NewWorkspace(orgID, creatorID, "Research", "", "blue"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to create workspace")
	})
}

func TestWorkspaceRepository_GetByID_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewWorkspaceRepository(db, zap.NewNop())
	id := uuid.New()

	mock.ExpectQuery("FROM workspaces").WithArgs(id).WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), id)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestWorkspaceRepository_ListSummariesByOrganization(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewWorkspaceRepository(db, zap.NewNop())
	orgID := uuid.New()
	now := time.Now()
	wsID := uuid.New()

	mock.ExpectQuery(`(?s)COUNT\(DISTINCT wm.user_id\).*MAX\(COALESCE\(d.updated_at, c.created_at, w.created_at\)\).*ORDER BY w.created_at DESC`).
		WithArgs(orgID).
		WillReturnRows(sqlmock.NewRows(workspaceSummaryCols).
			AddRow(wsID.String(), "Research", "Notes", "blue", orgID.String(), nil, now, now, 2, 3, 1, now))

	summaries, err := repo.ListSummariesByOrganization(context.Background(), orgID)
	require.NoError(t, err)
	require.Len(t, summaries, 1)

	s := summaries[0]
	assert.Equal(t, wsID, s.ID)
	assert.Equal(t, "Research", s.Name)
	require.NotNil(t, s.Description)
	assert.Equal(t, "Notes", *s.Description)
	assert.Nil(t, s.CreatedByID)
	assert.Equal(t, 2, s.MemberCount)
	assert.Equal(t, 3, s.DocumentCount)
	assert.Equal(t, 1, s.ConversationCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWorkspaceRepository_ListSummaries_Empty(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewWorkspaceRepository(db, zap.NewNop())

	mock.ExpectQuery("FROM workspaces w").WillReturnRows(sqlmock.NewRows(workspaceSummaryCols))

	summaries, err := repo.ListSummariesByOrganization(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.NotNil(t, summaries)
	assert.Empty(t, summaries)
}

func TestWorkspaceMemberRepository_Create(t *testing.T) {
	wsID := uuid.New()
	userID := uuid.New()

	t.Run("inserts member", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewWorkspaceMemberRepository(db, zap.NewNop())
		member := models.NewWorkspaceMember(wsID, userID, models.WorkspaceRoleAdmin)

		mock.ExpectExec("INSERT INTO workspace_members").
			WithArgs(member.ID, wsID, userID, "admin", sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.Create(context.Background(), member))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate pair maps to ErrDuplicate", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewWorkspaceMemberRepository(db, zap.NewNop())

		mock.ExpectExec("INSERT INTO workspace_members").
			WillReturnError(&pq.Error{Code: "23505", Constraint: "workspace_members_workspace_user_key"})

		err := repo.Create(context.Background(), models.NewWorkspaceMember(wsID, userID, models.WorkspaceRoleViewer))
		assert.ErrorIs(t, err, repositories.ErrDuplicate)
	})

	t.Run("other errors are not duplicates", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewWorkspaceMemberRepository(db, zap.NewNop())

		mock.ExpectExec("INSERT INTO workspace_members").
			WillReturnError(&pq.Error{Code: "23503"})

		err := repo.Create(context.Background(), models.NewWorkspaceMember(wsID, userID, models.WorkspaceRoleViewer))
		require.Error(t, err)
		assert.False(t, errors.Is(err, repositories.ErrDuplicate))
	})
}

func TestWorkspaceMemberRepository_GetRole(t *testing.T) {
	wsID := uuid.New()
	userID := uuid.New()

	t.Run("found", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewWorkspaceMemberRepository(db, zap.NewNop())

		mock.ExpectQuery("SELECT role").
			WithArgs(wsID, userID).
			WillReturnRows(sqlmock.NewRows([]string{"role"}).AddRow("admin"))

		role, err := repo.GetRole(context.Background(), wsID, userID)
		require.NoError(t, err)
		assert.Equal(t, models.WorkspaceRoleAdmin, role)
	})

	t.Run("not a member", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewWorkspaceMemberRepository(db, zap.NewNop())

		mock.ExpectQuery("SELECT role").WillReturnRows(sqlmock.NewRows([]string{"role"}))

		_, err := repo.GetRole(context.Background(), wsID, userID)
		assert.ErrorIs(t, err, repositories.ErrNotFound)
	})
}

func TestWorkspaceMemberRepository_SearchCandidates(t *testing.T) {
	orgID := uuid.New()
	wsID := uuid.New()
	cols := []string{"id", "name", "email", "image"}

	t.Run("short query never reaches the database", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewWorkspaceMemberRepository(db, zap.NewNop())

		results, err := repo.SearchCandidates(context.Background(), orgID, wsID, " bo ", 10)
		require.NoError(t, err)
		assert.Empty(t, results)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("scopes to organization and excludes workspace members", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewWorkspaceMemberRepository(db, zap.NewNop())
		bobID := uuid.New()

		mock.ExpectQuery(`(?s)INNER JOIN members m ON m.user_id = u.id AND m.organization_id = \$1.*u.id NOT IN \(\s*SELECT wm.user_id FROM workspace_members wm WHERE wm.workspace_id = \$2`).
			WithArgs(orgID, wsID, "%bob%", repositories.MaxMemberSearchResults).
			WillReturnRows(sqlmock.NewRows(cols).AddRow(bobID.String(), "Bob", "bob@example.com", nil))

		results, err := repo.SearchCandidates(context.Background(), orgID, wsID, "  BOB ", 50)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, bobID, results[0].ID)
		assert.Nil(t, results[0].Image)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("query failure is returned", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewWorkspaceMemberRepository(db, zap.NewNop())

		mock.ExpectQuery("FROM users u").WillReturnError(errors.New("timeout"))

		_, err := repo.SearchCandidates(context.Background(), orgID, wsID, "alice", 10)
		assert.Error(t, err)
	})
}

func TestWorkspaceMemberRepository_ListByWorkspace(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewWorkspaceMemberRepository(db, zap.NewNop())
	wsID := uuid.New()
	userID := uuid.New()

	mock.ExpectQuery("FROM workspace_members wm").
		WithArgs(wsID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "workspace_id", "user_id", "role", "created_at", "name", "email", "image"}).
			AddRow(uuid.New().String(), wsID.String(), userID.String(), "admin", time.Now(), "Alice", "alice@example.com", nil))

	members, err := repo.ListByWorkspace(context.Background(), wsID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, userID, members[0].UserID)
	assert.Equal(t, models.WorkspaceRoleAdmin, members[0].Role)
	assert.Equal(t, "Alice", members[0].Name)
}
