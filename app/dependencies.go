package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/cogzy/cogzy-api/auth"
	"github.com/cogzy/cogzy-api/cache"
	"github.com/cogzy/cogzy-api/config"
	"github.com/cogzy/cogzy-api/handlers"
	"github.com/cogzy/cogzy-api/middleware"
	"github.com/cogzy/cogzy-api/repositories"
	"github.com/cogzy/cogzy-api/repositories/postgres"
	"github.com/cogzy/cogzy-api/safego"
	"github.com/cogzy/cogzy-api/services"
	"github.com/cogzy/cogzy-api/services/audit"
	"github.com/cogzy/cogzy-api/services/email"
	"github.com/cogzy/cogzy-api/services/ratelimit"
	"github.com/cogzy/cogzy-api/telemetry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	memoryCacheSize     = 1000
	dbStatsInterval     = 15 * time.Second
	redisPingTimeout    = 3 * time.Second
	auditStopTimeout    = 5 * time.Second
	authRateLimitScope  = "auth"
	pendingMailShutdown = 10 * time.Second
)

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	Logger *zap.Logger
	Pools  *postgres.PoolRegistry
	DB     *postgres.DB
	Redis  *redis.Client // nil when REDIS_ADDR is unset

	// Repository Factory
	RepoFactory *postgres.RepositoryFactory
	Repos       *repositories.Repositories
	TxManager   repositories.TransactionManager

	// Observability
	Registry *prometheus.Registry
	Metrics  *telemetry.Metrics

	// Supporting services
	Audit          *audit.AuditService
	Mailer         *email.Mailer
	Tokens         *auth.TokenManager
	WorkspaceCache services.WorkspaceListCache
	RateLimiter    ratelimit.Limiter

	// Domain services
	AuthService         *services.AuthService
	OrganizationService *services.OrganizationService
	InvitationService   *services.InvitationService
	WorkspaceService    *services.WorkspaceService
	ContentService      *services.ContentService

	// Middleware
	AuthMiddleware *middleware.AuthMiddleware
	AuthRateLimit  *middleware.RateLimitMiddleware

	// Handlers
	HealthHandler       *handlers.HealthHandler
	AuthHandler         *handlers.AuthHandler
	OrganizationHandler *handlers.OrganizationHandler
	InvitationHandler   *handlers.InvitationHandler
	WorkspaceHandler    *handlers.WorkspaceHandler
	ContentHandler      *handlers.ContentHandler

	stopBackground context.CancelFunc
}

// NewDependencies creates and wires up all application dependencies.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	return newDependencies(ctx, cfg, postgres.NewPoolRegistry(logger), logger)
}

func newDependencies(ctx context.Context, cfg *config.Config, pools *postgres.PoolRegistry, logger *zap.Logger) (*Dependencies, error) {
	bgCtx, cancel := context.WithCancel(context.Background())
	deps := &Dependencies{
		Config:         cfg,
		Logger:         logger,
		Pools:          pools,
		stopBackground: cancel,
	}

	// Initialize PostgreSQL
	if err := deps.initDatabase(ctx, cfg); err != nil {
		cancel()
		_ = pools.CloseAll()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	deps.initRepositories()
	deps.initTelemetry(bgCtx)
	deps.initRedis(ctx, cfg)
	deps.initCache(bgCtx, cfg)
	deps.initRateLimiter(bgCtx)

	if err := deps.initAudit(); err != nil {
		cancel()
		_ = deps.closeRedis()
		_ = pools.CloseAll()
		return nil, fmt.Errorf("failed to initialize audit service: %w", err)
	}

	deps.initServices(cfg)
	deps.initHandlers(cfg)

	if cfg.Session.Insecure {
		logger.Warn("SESSION_SECRET not set, using a random secret; sessions will not survive a restart")
	}

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// initDatabase initializes the PostgreSQL pools and repository factory
func (d *Dependencies) initDatabase(ctx context.Context, cfg *config.Config) error {
	factory, err := postgres.NewRepositoryFactory(cfg, d.Pools, d.Logger)
	if err != nil {
		return fmt.Errorf("failed to create repository factory: %w", err)
	}

	d.RepoFactory = factory
	d.DB = factory.GetDB()

	if err := d.DB.HealthCheck(ctx); err != nil {
		return err
	}

	if cfg.Database.AutoMigrate {
		if err := d.DB.RunMigrations(postgres.MigrateUp); err != nil {
			return err
		}
	}

	// Initialize audit schema when using separate audit DB
	if err := factory.InitAuditSchema(ctx); err != nil {
		return fmt.Errorf("failed to initialize audit schema: %w", err)
	}

	d.Logger.Info("database connection established",
		zap.String("connection", cfg.Database.LogString()))

	return nil
}

// initRepositories initializes all repository instances
func (d *Dependencies) initRepositories() {
	d.Repos = d.RepoFactory.NewRepositories()
	d.TxManager = d.RepoFactory.GetTransactionManager()
	d.Logger.Info("repositories initialized")
}

func (d *Dependencies) initTelemetry(bgCtx context.Context) {
	d.Registry = telemetry.NewRegistry()
	d.Metrics = telemetry.NewMetrics(d.Registry)

	safego.Go(d.Logger, func() {
		d.Metrics.RunDBStatsCollector(bgCtx, d.poolStats, dbStatsInterval, d.Logger)
	})
}

func (d *Dependencies) poolStats() map[string]sql.DBStats {
	stats := make(map[string]sql.DBStats, d.Pools.Len())
	d.Pools.Each(func(label string, db *postgres.DB) {
		stats[label] = db.Stats()
	})
	return stats
}

// initRedis connects to Redis when configured. An unreachable server is
// logged and the in-process fallbacks are used instead.
func (d *Dependencies) initRedis(ctx context.Context, cfg *config.Config) {
	if !cfg.RedisEnabled() {
		d.Logger.Info("redis not configured, using in-process cache and rate limiter")
		return
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		d.Logger.Warn("redis unreachable, using in-process cache and rate limiter",
			zap.String("addr", cfg.Redis.Addr),
			zap.Error(err))
		_ = client.Close()
		return
	}

	d.Redis = client
	d.Logger.Info("redis connection established", zap.String("addr", cfg.Redis.Addr))
}

func (d *Dependencies) initCache(bgCtx context.Context, cfg *config.Config) {
	if d.Redis != nil {
		d.WorkspaceCache = cache.NewRedisCache(d.Redis, cfg.Redis.CacheTTL, d.Logger)
		return
	}
	memory := cache.NewMemoryCache(memoryCacheSize, cfg.Redis.CacheTTL)
	safego.Go(d.Logger, func() { memory.StartCleanupWorker(bgCtx, cfg.Redis.CacheTTL) })
	d.WorkspaceCache = memory
}

func (d *Dependencies) initRateLimiter(bgCtx context.Context) {
	limits := ratelimit.AuthRateLimitConfig()
	if d.Redis != nil {
		d.RateLimiter = ratelimit.NewRedisRateLimiter(d.Redis, limits)
	} else {
		limiter := ratelimit.NewMemoryRateLimiter(limits, d.Logger)
		safego.Go(d.Logger, func() { limiter.StartCleanupWorker(bgCtx) })
		d.RateLimiter = limiter
	}
	d.AuthRateLimit = middleware.NewRateLimitMiddleware(d.RateLimiter, authRateLimitScope, d.Metrics, d.Logger)
}

func (d *Dependencies) initAudit() error {
	d.Audit = audit.NewAuditService(d.Repos.Audit, d.Logger, audit.DefaultConfig())
	return d.Audit.Start()
}

func (d *Dependencies) initServices(cfg *config.Config) {
	d.Tokens = auth.NewTokenManager(cfg.Session.Secret, cfg.Session.Issuer)
	d.Mailer = email.NewMailer(email.NewSender(cfg.SMTP, d.Logger), d.Logger)

	d.AuthService = services.NewAuthService(d.Repos, d.Tokens, cfg.Session.TTL, d.Audit, d.Metrics, d.Logger)
	d.OrganizationService = services.NewOrganizationService(d.TxManager, d.Repos, d.Audit, d.Logger)
	d.InvitationService = services.NewInvitationService(d.TxManager, d.Repos, d.Mailer, d.Audit, d.Metrics, cfg.AppURL, d.Logger)
	d.WorkspaceService = services.NewWorkspaceService(d.TxManager, d.Repos, d.WorkspaceCache, d.Audit, d.Metrics, d.Logger)
	d.ContentService = services.NewContentService(d.Repos, d.WorkspaceCache, d.Audit, d.Logger)

	d.AuthMiddleware = middleware.NewAuthMiddleware(d.AuthService, d.Logger)
}

func (d *Dependencies) initHandlers(cfg *config.Config) {
	d.HealthHandler = handlers.NewHealthHandler(d.DB, d.Redis, d.Logger)
	d.AuthHandler = handlers.NewAuthHandler(d.AuthService, auth.IsSecureURL(cfg.AppURL), d.Logger)
	d.OrganizationHandler = handlers.NewOrganizationHandler(d.OrganizationService, d.Logger)
	d.InvitationHandler = handlers.NewInvitationHandler(d.InvitationService, d.Logger)
	d.WorkspaceHandler = handlers.NewWorkspaceHandler(d.WorkspaceService, d.Logger)
	d.ContentHandler = handlers.NewContentHandler(d.ContentService, d.Logger)
}

func (d *Dependencies) closeRedis() error {
	if d.Redis == nil {
		return nil
	}
	err := d.Redis.Close()
	d.Redis = nil
	return err
}

// Close gracefully shuts down all dependencies. In-flight invitation emails
// are given until ctx is done to finish.
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	if d.stopBackground != nil {
		d.stopBackground()
	}

	if d.InvitationService != nil {
		waitCtx, cancel := context.WithTimeout(ctx, pendingMailShutdown)
		done := make(chan struct{})
		go func() {
			d.InvitationService.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-waitCtx.Done():
			d.Logger.Warn("gave up waiting for invitation emails", zap.Error(waitCtx.Err()))
		}
		cancel()
	}

	if d.Audit != nil {
		if err := d.Audit.Stop(auditStopTimeout); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop audit service: %w", err))
		}
		d.Audit = nil
	}

	if err := d.closeRedis(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close redis: %w", err))
	}

	if d.Pools != nil {
		if err := d.Pools.CloseAll(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		} else {
			d.Logger.Info("database connections closed")
		}
	}

	return errors.Join(errs...)
}
