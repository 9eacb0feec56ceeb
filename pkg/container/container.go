package container

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"bookreview-backend/internal/config"
	authorHandler "bookreview-backend/internal/domains/author/handler"
	authorJob "bookreview-backend/internal/domains/author/job"
	authorRepo "bookreview-backend/internal/domains/author/repository"
	authorService "bookreview-backend/internal/domains/author/service"
	"bookreview-backend/internal/domains/author/source"
	"bookreview-backend/internal/domains/author/source/googlebooks"
	"bookreview-backend/internal/domains/author/source/openlibrary"
	infraCache "bookreview-backend/internal/infrastructure/cache"
	"bookreview-backend/internal/infrastructure/database"
	"bookreview-backend/pkg/cache"
	"bookreview-backend/pkg/jwt"
)

// Container chứa tất cả dependencies của application
type Container struct {
	// Infrastructure
	Config      *config.Config
	DB          *database.PostgresDB
	Cache       cache.Cache
	JWTManager  *jwt.Manager
	AsynqClient *asynq.Client

	// Author domain
	AuthorRepo    authorRepo.RepositoryInterface
	Sources       []source.Searcher
	AuthorService authorService.ServiceInterface
	AuthorHandler *authorHandler.AuthorHandler
	Enqueuer      *authorJob.Enqueuer
}

// NewContainer wires config -> database -> cache -> repository -> sources -> service -> handler
func NewContainer(ctx context.Context) (*Container, error) {
	log.Info().Msg("Initializing DI Container...")

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return NewContainerWithConfig(ctx, cfg)
}

func NewContainerWithConfig(ctx context.Context, cfg *config.Config) (*Container, error) {
	c := &Container{Config: cfg}

	// STEP 1: database
	db := database.NewPostgresDB(cfg.Database)

	connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := db.Connect(connectCtx); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.EnsureSchema(connectCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure schema: %w", err)
	}
	c.DB = db
	log.Info().Msg("Database connected")

	// STEP 2: cache
	c.Cache = c.initCache(ctx)

	c.JWTManager = jwt.NewManager(cfg.JWT.Secret, cfg.JWT.AccessTokenExpiry)

	// STEP 3: author domain
	c.AuthorRepo = authorRepo.NewPostgresRepository(db.Pool, c.Cache)
	c.Sources = BuildSources(cfg.Sources)
	c.AuthorService = authorService.NewAuthorService(c.AuthorRepo, c.Cache, c.Sources, ServiceConfig(cfg.Search))
	c.AuthorHandler = authorHandler.NewAuthorHandler(c.AuthorService)

	// STEP 4: background tasks share Redis with the cache
	c.AsynqClient = asynq.NewClient(RedisClientOpt(cfg.Redis))
	c.Enqueuer = authorJob.NewEnqueuer(c.AsynqClient)
	if cfg.Worker.AsyncReconcile {
		c.AuthorHandler.WithEnqueuer(c.Enqueuer)
	}

	log.Info().
		Int("sources", len(c.Sources)).
		Str("env", cfg.App.Environment).
		Msg("DI Container initialized successfully")
	return c, nil
}

// initCache prefers Redis and falls back to the in-process cache when Redis is unreachable.
func (c *Container) initCache(ctx context.Context) cache.Cache {
	rc := infraCache.NewRedisClient(c.Config.Redis.Host, c.Config.Redis.Password, c.Config.Redis.DB)
	if err := rc.Connect(ctx); err != nil {
		log.Warn().Err(err).Msg("Redis connection failed (non-critical), using in-memory cache")
		_ = rc.Close()
		return infraCache.NewMemoryCache(10 * time.Minute)
	}

	log.Info().Str("host", c.Config.Redis.Host).Msg("Redis connected")
	return rc
}

// BuildSources returns the enabled external sources in priority order: Open Library, then Google Books
func BuildSources(cfg config.SourcesConfig) []source.Searcher {
	var sources []source.Searcher

	if cfg.OpenLibrary.Enabled {
		client := openlibrary.NewClient(openlibrary.Config{
			BaseURL:   cfg.OpenLibrary.BaseURL,
			Timeout:   cfg.OpenLibrary.Timeout,
			UserAgent: cfg.OpenLibrary.UserAgent,
		})
		sources = append(sources, source.NewAdapter(client, adapterConfig(cfg.Breaker, cfg.OpenLibrary.Timeout, cfg.OpenLibrary.RateLimit, cfg.OpenLibrary.Burst)))
	}

	if cfg.GoogleBooks.Enabled {
		client := googlebooks.NewClient(googlebooks.Config{
			BaseURL: cfg.GoogleBooks.BaseURL,
			APIKey:  cfg.GoogleBooks.APIKey,
			Timeout: cfg.GoogleBooks.Timeout,
		})
		sources = append(sources, source.NewAdapter(client, adapterConfig(cfg.Breaker, cfg.GoogleBooks.Timeout, cfg.GoogleBooks.RateLimit, cfg.GoogleBooks.Burst)))
	}

	return sources
}

func adapterConfig(b config.BreakerConfig, timeout time.Duration, rps float64, burst int) source.AdapterConfig {
	ac := source.DefaultAdapterConfig()
	ac.Timeout = timeout
	ac.RateLimit = rps
	ac.Burst = burst
	if b.MaxFailures > 0 {
		ac.MaxFailures = b.MaxFailures
	}
	if b.OpenTimeout > 0 {
		ac.OpenTimeout = b.OpenTimeout
	}
	if b.HalfOpenReqs > 0 {
		ac.HalfOpenReqs = b.HalfOpenReqs
	}
	return ac
}

func RedisClientOpt(cfg config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Host,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}

func ServiceConfig(s config.SearchConfig) authorService.Config {
	return authorService.Config{
		LocalLimit:         s.LocalLimit,
		LocalSufficient:    s.LocalSufficient,
		ExternalMaxResults: s.ExternalMaxResults,
		SearchTTL:          s.SearchTTL,
		PopularTTL:         s.PopularTTL,
		PopularConcurrency: s.PopularConcurrency,
	}
}

// Cleanup dọn dẹp resources khi shutdown
func (c *Container) Cleanup() {
	log.Info().Msg("Cleaning up container resources...")

	if c.DB != nil {
		_ = c.DB.Close()
	}

	if c.AsynqClient != nil {
		if err := c.AsynqClient.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close asynq client")
		}
	}

	if rc, ok := c.Cache.(*infraCache.RedisClient); ok {
		if err := rc.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close Redis")
		}
	}

	log.Info().Msg("Container cleanup completed")
}
