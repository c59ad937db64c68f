package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDB_HealthCheck(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(sqlmock.Sqlmock)
		wantErr string
	}{
		{
			name: "healthy",
			setup: func(m sqlmock.Sqlmock) {
				m.ExpectPing()
				m.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
			},
		},
		{
			name: "ping fails",
			setup: func(m sqlmock.Sqlmock) {
				m.ExpectPing().WillReturnError(errors.New("connection refused"))
			},
			wantErr: "database health check failed",
		},
		{
			name: "query fails",
			setup: func(m sqlmock.Sqlmock) {
				m.ExpectPing()
				m.ExpectQuery("SELECT 1").WillReturnError(errors.New("read-only transaction"))
			},
			wantErr: "database query check failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sqlDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
			require.NoError(t, err)
			defer sqlDB.Close()
			tt.setup(mock)

			err = WrapDB(sqlDB, zap.NewNop()).HealthCheck(context.Background())
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestDB_InitAuditSchema(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS audit_logs").WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, db.InitAuditSchema(context.Background()))

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS audit_logs").WillReturnError(errors.New("permission denied"))
	err := db.InitAuditSchema(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to initialize audit schema")

	assert.NoError(t, mock.ExpectationsWereMet())
}
