package postgres

import (
	"context"

	"github.com/cogzy/cogzy-api/config"
	"github.com/cogzy/cogzy-api/repositories"
	"go.uber.org/zap"
)

// RepositoryFactory creates repositories over pools obtained from a PoolRegistry.
// The registry owns the pools; the factory never closes them.
type RepositoryFactory struct {
	db      *DB
	auditDB *DB // Optional: separate DB for audit logs
	logger  *zap.Logger
}

// NewRepositoryFactory resolves the main and audit pools through registry
func NewRepositoryFactory(cfg *config.Config, registry *PoolRegistry, logger *zap.Logger) (*RepositoryFactory, error) {
	db, err := registry.Get(cfg.Database)
	if err != nil {
		return nil, err
	}

	f := &RepositoryFactory{db: db, logger: logger}

	if cfg.AuditDatabase != nil {
		auditDB, err := registry.Get(*cfg.AuditDatabase)
		if err != nil {
			return nil, err
		}
		if auditDB != db {
			f.auditDB = auditDB
		}
	}

	return f, nil
}

// InitAuditSchema initializes the audit database schema when using a separate audit DB.
func (f *RepositoryFactory) InitAuditSchema(ctx context.Context) error {
	if f.auditDB != nil {
		return f.auditDB.InitAuditSchema(ctx)
	}
	return nil
}

// NewRepositories creates all repository instances
func (f *RepositoryFactory) NewRepositories() *repositories.Repositories {
	auditDB := f.db
	if f.auditDB != nil {
		auditDB = f.auditDB
	}
	return &repositories.Repositories{
		Organizations:    NewOrganizationRepository(f.db, f.logger),
		Users:            NewUserRepository(f.db, f.logger),
		Memberships:      NewMembershipRepository(f.db, f.logger),
		Sessions:         NewSessionRepository(f.db, f.logger),
		Workspaces:       NewWorkspaceRepository(f.db, f.logger),
		WorkspaceMembers: NewWorkspaceMemberRepository(f.db, f.logger),
		Invitations:      NewInvitationRepository(f.db, f.logger),
		Content:          NewContentRepository(f.db, f.logger),
		Audit:            NewAuditRepository(auditDB, f.logger),
	}
}

// GetTransactionManager returns a transaction manager
func (f *RepositoryFactory) GetTransactionManager() repositories.TransactionManager {
	return NewTransactionManager(f.db, f.logger)
}

// GetDB returns the main database pool
func (f *RepositoryFactory) GetDB() *DB {
	return f.db
}
