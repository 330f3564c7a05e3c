package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/billstock/billstock-api/internal/config"
	"github.com/billstock/billstock-api/internal/lookup"
	"github.com/billstock/billstock-api/internal/models"
	"github.com/billstock/billstock-api/internal/storage"
)

// Container holds all service dependencies
type Container struct {
	config      *config.Config
	logger      *logrus.Logger
	redisClient *redis.Client
	pgPool      *pgxpool.Pool

	CacheService  CacheServiceInterface
	LookupService LookupServiceInterface
	StockService  StockServiceInterface
	SalesService  SalesServiceInterface
	MemberService MemberServiceInterface
}

// NewContainer creates a new service container
func NewContainer(cfg *config.Config, logger *logrus.Logger) (*Container, error) {
	container := &Container{
		config: cfg,
		logger: logger,
	}

	// Initialize Redis client
	if err := container.initRedis(); err != nil {
		return nil, fmt.Errorf("failed to initialize Redis: %w", err)
	}

	// Initialize Postgres pool (optional, falls back to in-memory stores)
	if err := container.initPostgres(); err != nil {
		return nil, fmt.Errorf("failed to initialize Postgres: %w", err)
	}

	// Initialize services
	if err := container.initServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	// Seed the bootstrap admin account if configured
	if err := container.seedAdmin(); err != nil {
		return nil, fmt.Errorf("failed to seed admin member: %w", err)
	}

	return container, nil
}

// initRedis initializes Redis client
func (c *Container) initRedis() error {
	c.redisClient = redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", c.config.Redis.Host, c.config.Redis.Port),
		Password:     c.config.Redis.Password,
		DB:           c.config.Redis.DB,
		PoolSize:     c.config.Redis.PoolSize,
		DialTimeout:  c.config.Redis.DialTimeout,
		ReadTimeout:  c.config.Redis.ReadTimeout,
		WriteTimeout: c.config.Redis.WriteTimeout,
	})

	// Test Redis connection
	ctx := context.Background()
	if err := c.redisClient.Ping(ctx).Err(); err != nil {
		c.logger.Warn("Redis connection failed, running without cache")
		c.redisClient = nil
	} else {
		c.logger.Info("Redis connection established")
	}

	return nil
}

// initPostgres initializes the Postgres pool when DATABASE_URL is set. Unlike
// Redis there is no silent fallback: a configured but unreachable database is
// a startup error.
func (c *Container) initPostgres() error {
	if c.config.Database.URL == "" {
		c.logger.Info("DATABASE_URL not set, using in-memory stores")
		return nil
	}

	poolCfg, err := pgxpool.ParseConfig(c.config.Database.URL)
	if err != nil {
		return fmt.Errorf("parse DATABASE_URL: %w", err)
	}
	if c.config.Database.MaxOpenConns > 0 {
		poolCfg.MaxConns = int32(c.config.Database.MaxOpenConns)
	}

	ctx := context.Background()
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("ping: %w", err)
	}
	if err := storage.EnsureSchema(ctx, pool); err != nil {
		pool.Close()
		return fmt.Errorf("ensure schema: %w", err)
	}

	c.pgPool = pool
	c.logger.Info("Postgres connection established")
	return nil
}

// initServices initializes all services
func (c *Container) initServices() error {
	// Initialize Cache Service
	cacheService := NewCacheService(c.redisClient, c.config.Upstream.CacheTTL, c.logger)
	cacheService.StartCleanupRoutine()
	c.CacheService = cacheService

	// Initialize Lookup Service around the upstream fan-out engine
	client := lookup.NewClient(c.config.Upstream.BaseURL, c.config.Upstream.Path, c.config.Upstream.Timeout, c.logger)
	engine := lookup.NewEngine(client, lookup.Config{
		MaxAttempts:   c.config.Upstream.MaxAttempts,
		BaseDelay:     c.config.Upstream.BaseDelay,
		MaxConcurrent: c.config.Upstream.MaxConcurrent,
		MaxBatchSize:  c.config.Upstream.MaxBatchSize,
	}, c.logger)
	c.LookupService = NewLookupService(engine, c.CacheService, c.config.Upstream, c.logger)

	// Initialize storage-backed services
	var (
		stockRepo  StockRepository
		salesRepo  SalesRepository
		memberRepo MemberRepository
	)
	if c.pgPool != nil {
		stockRepo = storage.NewPostgresStock(c.pgPool)
		salesRepo = storage.NewPostgresSales(c.pgPool)
		memberRepo = storage.NewPostgresMembers(c.pgPool)
	} else {
		stockRepo = storage.NewMemoryStock()
		salesRepo = storage.NewMemorySales()
		memberRepo = storage.NewMemoryMembers()
	}

	c.StockService = NewStockService(stockRepo, c.logger)
	c.SalesService = NewSalesService(stockRepo, salesRepo, c.logger)
	c.MemberService = NewMemberService(memberRepo, c.config.Auth.JWTSecret, c.config.Auth.TokenTTL, c.logger)

	return nil
}

// seedAdmin creates the bootstrap admin member when ADMIN_EMAIL and
// ADMIN_PASSWORD are both configured and the account does not exist yet.
func (c *Container) seedAdmin() error {
	email := c.config.Auth.AdminEmail
	password := c.config.Auth.AdminPassword
	if email == "" || password == "" {
		return nil
	}

	_, err := c.MemberService.Create(context.Background(), models.CreateMemberRequest{
		Email:    email,
		Password: password,
		FullName: "Administrator",
		Role:     models.RoleAdmin,
	})
	if errors.Is(err, ErrEmailTaken) {
		return nil
	}
	return err
}

// Close closes all service connections
func (c *Container) Close() error {
	var errs []error

	// Close Redis connection
	if c.redisClient != nil {
		if err := c.redisClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close Redis: %w", err))
		}
	}

	// Close Postgres pool
	if c.pgPool != nil {
		c.pgPool.Close()
	}

	// Return combined errors if any
	if len(errs) > 0 {
		return fmt.Errorf("errors during shutdown: %v", errs)
	}

	return nil
}

// Health checks the health of all services
func (c *Container) Health() map[string]interface{} {
	health := make(map[string]interface{})

	// Check Redis health
	if c.redisClient != nil {
		ctx := context.Background()
		if err := c.redisClient.Ping(ctx).Err(); err != nil {
			health["redis"] = map[string]interface{}{
				"status": "unhealthy",
				"error":  err.Error(),
			}
		} else {
			health["redis"] = map[string]interface{}{
				"status": "healthy",
			}
		}
	} else {
		health["redis"] = map[string]interface{}{
			"status": "disabled",
		}
	}

	// Check Postgres health
	if c.pgPool != nil {
		ctx := context.Background()
		if err := c.pgPool.Ping(ctx); err != nil {
			health["database"] = map[string]interface{}{
				"status": "unhealthy",
				"error":  err.Error(),
			}
		} else {
			health["database"] = map[string]interface{}{
				"status": "healthy",
			}
		}
	} else {
		health["database"] = map[string]interface{}{
			"status": "in-memory",
		}
	}

	// Check lookup service health
	if c.LookupService != nil {
		health["lookup"] = c.LookupService.Health()
	}

	// Check cache service health
	if c.CacheService != nil {
		health["cache"] = c.CacheService.Health()
	}

	return health
}
