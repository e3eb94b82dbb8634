package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"chargemap/backend/libs/auth"
	"chargemap/backend/libs/db"
	libmw "chargemap/backend/libs/middleware"
	libredis "chargemap/backend/libs/redis"
	"chargemap/backend/libs/tracing"
	"chargemap/backend/services/stations-service/internal/cache"
	"chargemap/backend/services/stations-service/internal/config"
	"chargemap/backend/services/stations-service/internal/events"
	httpserver "chargemap/backend/services/stations-service/internal/http"
	"chargemap/backend/services/stations-service/internal/http/handlers"
	"chargemap/backend/services/stations-service/internal/http/middleware"
	"chargemap/backend/services/stations-service/internal/memstore"
	"chargemap/backend/services/stations-service/internal/metrics"
	redisstore "chargemap/backend/services/stations-service/internal/redis"
	"chargemap/backend/services/stations-service/internal/repository"
	"chargemap/backend/services/stations-service/internal/seed"
	"chargemap/backend/services/stations-service/internal/service"
	"chargemap/backend/services/stations-service/internal/ws"
)

const serviceName = "stations-service"

// Repositories bundles the storage backends used by the services.
type Repositories struct {
	Stations  service.StationRepository
	Stats     service.StatsRepository
	Sessions  service.SessionRepository
	Reviews   service.ReviewRepository
	Favorites service.FavoriteRepository
}

// App wires stations-service dependencies.
type App struct {
	server          *httpserver.Server
	repos           Repositories
	pool            *pgxpool.Pool
	sampleUsers     seed.UserStore
	redisClient     *redis.Client
	amqp            *events.AMQPPublisher
	shutdownTracing tracing.Shutdown
	logger          *zap.Logger
}

// New constructs the application graph.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (_ *App, err error) {
	if strings.TrimSpace(cfg.JWT.Secret) == "" {
		return nil, errors.New("config: jwt secret required")
	}

	a := &App{logger: logger}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	a.repos, a.pool, err = OpenRepositories(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.sampleUsers = sampleUsers(a.pool)

	var activeCache service.ActiveSessionCache
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
		activeCache = redisstore.NewStore(a.redisClient, cfg.ActiveSessionTTL())
		denylist = auth.NewRedisDenylist(a.redisClient)
	} else {
		logger.Warn("redis not configured, token revocation is process-local")
	}

	m := metrics.New()
	hub := ws.NewHub(cfg.WebSocket.WriteTimeout, logger)
	publishers := events.Multi{hub}

	var nearby *cache.NearbyCache
	if cfg.NearbyCache.Size > 0 {
		nearby, err = cache.NewNearbyCache(cfg.NearbyCache.Size, cfg.NearbyCache.TTL)
		if err != nil {
			return nil, err
		}
		publishers = append(publishers, nearby)
	}

	if cfg.AMQP.URL != "" {
		a.amqp, err = events.NewAMQPPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange)
		if err != nil {
			return nil, fmt.Errorf("amqp: %w", err)
		}
		publishers = append(publishers, a.amqp)
	}

	var traceMiddleware tracing.Middleware
	a.shutdownTracing, traceMiddleware, err = tracing.Init(ctx, serviceName, cfg.Tracing.Endpoint)
	if err != nil {
		return nil, err
	}

	stationsService := service.NewStationsService(a.repos.Stations, a.repos.Stats, nearby, publishers, m, logger)
	ledger := service.NewLedger(a.repos.Sessions, a.repos.Stations, activeCache, publishers, m, logger)
	registry := service.NewRegistry(a.repos.Reviews, a.repos.Favorites, stationsService, publishers, m, logger)

	router := httpserver.NewRouter(httpserver.RouterDeps{
		StationsHandlers: handlers.NewStationsHandlers(stationsService, ledger, logger),
		SessionsHandlers: handlers.NewSessionsHandlers(ledger, logger),
		RegistryHandlers: handlers.NewRegistryHandlers(registry, logger),
		HealthHandler:    handlers.NewHealthHandler(),
		WebSocket:        hub.HandleWS,
		Metrics:          m.Handler(),
	})

	// metrics sits innermost so it sees the pattern the mux matched
	a.server = httpserver.NewServer(
		cfg.HTTPAddress(),
		router,
		logger,
		libmw.RecoveryMiddleware(logger),
		libmw.LoggingMiddleware(logger),
		traceMiddleware,
		middleware.AuthMiddleware(auth.NewTokenService(cfg.JWT.Secret, 0), denylist, logger),
		middleware.MetricsMiddleware(m),
	)
	return a, nil
}

// OpenRepositories returns postgres or in-memory repositories depending on the
// configured driver. The pool is nil for the memory driver.
func OpenRepositories(ctx context.Context, cfg *config.Config) (Repositories, *pgxpool.Pool, error) {
	switch cfg.Storage.Driver {
	case config.StorageMemory:
		store := memstore.New()
		return Repositories{
			Stations:  store.Stations(),
			Stats:     store,
			Sessions:  store.Sessions(),
			Reviews:   store.Reviews(),
			Favorites: store.Favorites(),
		}, nil, nil
	case config.StoragePostgres:
		pool, err := db.NewPostgresPool(ctx, cfg.Database.DSN)
		if err != nil {
			return Repositories{}, nil, fmt.Errorf("postgres: %w", err)
		}
		return Repositories{
			Stations:  repository.NewStationRepository(pool),
			Stats:     repository.NewStatsRepository(pool),
			Sessions:  repository.NewSessionRepository(pool),
			Reviews:   repository.NewReviewRepository(pool),
			Favorites: repository.NewFavoriteRepository(pool),
		}, pool, nil
	default:
		return Repositories{}, nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

// Seed loads the sample accounts, fleet and reviews into the storage the app serves from.
func (a *App) Seed(ctx context.Context) (seed.Result, error) {
	return seed.Run(ctx, seed.Stores{Stations: a.repos.Stations, Reviews: a.repos.Reviews, Users: a.sampleUsers}, a.logger)
}

// sampleUsers writes to the users table when postgres backs the repositories.
func sampleUsers(pool *pgxpool.Pool) seed.UserStore {
	if pool != nil {
		return seed.NewPostgresUsers(pool)
	}
	return seed.NewMemoryUsers()
}

// Run starts serving HTTP traffic.
func (a *App) Run(ctx context.Context) error {
	return a.server.Run(ctx)
}

// Close releases resources.
func (a *App) Close() {
	if a.shutdownTracing != nil {
		ctx, cancel := db.WithTimeout(context.Background())
		if err := a.shutdownTracing(ctx); err != nil {
			a.logger.Warn("failed to flush traces", zap.Error(err))
		}
		cancel()
	}
	if a.amqp != nil {
		if err := a.amqp.Close(); err != nil {
			a.logger.Warn("failed to close amqp", zap.Error(err))
		}
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

// Seed loads the sample data into the configured storage outside of a running server.
func Seed(ctx context.Context, cfg *config.Config, logger *zap.Logger) (seed.Result, error) {
	repos, pool, err := OpenRepositories(ctx, cfg)
	if err != nil {
		return seed.Result{}, err
	}
	if pool != nil {
		defer pool.Close()
	}
	return seed.Run(ctx, seed.Stores{Stations: repos.Stations, Reviews: repos.Reviews, Users: sampleUsers(pool)}, logger)
}

// Migrate applies database migrations for the postgres driver.
func Migrate(ctx context.Context, cfg *config.Config) error {
	if cfg.Storage.Driver != config.StoragePostgres {
		return errors.New("migrate: storage driver is not postgres")
	}
	pool, err := db.NewPostgresPool(ctx, cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()
	return db.Migrate(ctx, pool)
}
