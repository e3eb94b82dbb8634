package app

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"chargemap/backend/libs/auth"
	"chargemap/backend/libs/db"
	libmw "chargemap/backend/libs/middleware"
	libredis "chargemap/backend/libs/redis"
	"chargemap/backend/libs/tracing"
	appconfig "chargemap/backend/services/auth-service/internal/config"
	httpserver "chargemap/backend/services/auth-service/internal/http"
	"chargemap/backend/services/auth-service/internal/http/handlers"
	"chargemap/backend/services/auth-service/internal/http/middleware"
	"chargemap/backend/services/auth-service/internal/password"
	"chargemap/backend/services/auth-service/internal/repository"
	"chargemap/backend/services/auth-service/internal/service"
)

// App wires dependencies for the auth service.
type App struct {
	server          *httpserver.Server
	pool            *pgxpool.Pool
	redisClient     *redis.Client
	shutdownTracing tracing.Shutdown
	logger          *zap.Logger
}

// New builds application graph.
func New(ctx context.Context, cfg *appconfig.Config, logger *zap.Logger) (_ *App, err error) {
	a := &App{logger: logger}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	a.pool, err = db.NewPostgresPool(ctx, cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}
	if cfg.Database.Migrate {
		if err := db.Migrate(ctx, a.pool); err != nil {
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}

	var denylist auth.Denylist = auth.NewMemoryDenylist()
	if cfg.Redis.Addr != "" {
		a.redisClient, err = libredis.NewRedisClient(ctx, libredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, fmt.Errorf("redis: %w", err)
		}
		denylist = auth.NewRedisDenylist(a.redisClient)
	} else {
		logger.Warn("redis not configured, logout only affects this process")
	}

	var traceMiddleware tracing.Middleware
	a.shutdownTracing, traceMiddleware, err = tracing.Init(ctx, "auth-service", cfg.Tracing.Endpoint)
	if err != nil {
		return nil, err
	}

	userRepo := repository.NewUserRepository(a.pool)
	hasher := password.NewBcryptHasher(0)
	tokenSvc := auth.NewTokenService(cfg.JWT.Secret, cfg.JWTExpiration())
	authSvc := service.NewAuthService(userRepo, hasher, tokenSvc, denylist, logger)

	router := httpserver.NewRouter(httpserver.RouterDeps{
		AuthHandlers:  handlers.NewAuthHandlers(authSvc, logger),
		HealthHandler: handlers.NewHealthHandler(a.pool),
	}, middleware.AuthMiddleware(tokenSvc, denylist, logger))

	a.server = httpserver.NewServer(
		cfg.HTTPAddress(),
		router,
		logger,
		libmw.RecoveryMiddleware(logger),
		libmw.LoggingMiddleware(logger),
		traceMiddleware,
	)
	return a, nil
}

// Run starts serving HTTP traffic until context cancellation.
func (a *App) Run(ctx context.Context) error {
	return a.server.Run(ctx)
}

// Close releases acquired resources.
func (a *App) Close() {
	if a.shutdownTracing != nil {
		ctx, cancel := db.WithTimeout(context.Background())
		if err := a.shutdownTracing(ctx); err != nil {
			a.logger.Warn("failed to flush traces", zap.Error(err))
		}
		cancel()
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warn("failed to close redis", zap.Error(err))
		}
	}
	if a.pool != nil {
		a.pool.Close()
	}
}

// Migrate applies the shared schema, users table included, without starting the server.
func Migrate(ctx context.Context, cfg *appconfig.Config) error {
	pool, err := db.NewPostgresPool(ctx, cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()
	return db.Migrate(ctx, pool)
}
