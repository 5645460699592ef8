// Package app wires the store, queue, event hub and vendor clients shared by the server and
// worker binaries.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/aura-academy/backend/config"
	"github.com/aura-academy/backend/internal/activity"
	"github.com/aura-academy/backend/internal/auth"
	"github.com/aura-academy/backend/internal/realtime"
	"github.com/aura-academy/backend/internal/store"
	"github.com/aura-academy/backend/internal/store/memory"
	"github.com/aura-academy/backend/internal/store/postgres"
	"github.com/aura-academy/backend/internal/uploads"
	"github.com/aura-academy/backend/internal/vendors/stripe"
	"github.com/aura-academy/backend/internal/vendors/vimeo"
	"github.com/aura-academy/backend/internal/vendors/zoom"
	"github.com/aura-academy/backend/pkg/database"
	"github.com/aura-academy/backend/pkg/queue"
	"github.com/aura-academy/backend/pkg/redis"
	"github.com/aura-academy/backend/pkg/storage"
)

// Backend holds every long-lived dependency of one process.
type Backend struct {
	Config   *config.Config
	Store    *store.Store
	Queue    queue.Broker
	Hub      *realtime.Hub
	Vimeo    vimeo.Client
	Zoom     zoom.Client
	Stripe   stripe.Client
	S3       *storage.S3 // nil when AWS_REGION is not set
	Verifier auth.Verifier
	DevAuth  *auth.DevVerifier // set only when dev tokens are accepted
	Activity *activity.Logger
	Uploads  *uploads.Service

	closers []func()
	logger  *zap.Logger
}

// New connects to the configured backing services. Callers must Close the result.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Backend, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	b := &Backend{Config: cfg, logger: logger}
	if err := b.openStore(ctx); err != nil {
		b.Close()
		return nil, err
	}

	var bridge realtime.Bridge
	if cfg.Redis.Enabled() {
		rdb, err := redis.NewClient(ctx, cfg.Redis, logger)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("redis: %w", err)
		}
		b.closers = append(b.closers, func() { _ = rdb.Close() })
		b.Queue = queue.NewRedisQueue(rdb.Client, logger)
		bridge = realtime.NewRedisBridge(rdb.Client, logger)
	} else {
		logger.Info("REDIS_ADDR not set, using in-process queue and events")
		b.Queue = queue.NewMemoryQueue(logger)
	}
	b.Hub = realtime.NewHub(logger, bridge)
	b.closers = append(b.closers, b.Hub.Close)

	b.Vimeo = vimeo.New(cfg.Vimeo, logger)
	b.Zoom = zoom.New(cfg.Zoom, logger)
	b.Stripe = stripe.New(cfg.Stripe, logger)

	if cfg.AWS.Region != "" {
		s3, err := storage.NewS3(ctx, cfg.AWS, logger)
		if err != nil {
			logger.Warn("thumbnail storage disabled", zap.Error(err))
		} else {
			b.S3 = s3
		}
	}

	verifier, dev, err := auth.New(cfg.Auth, logger)
	if err != nil {
		b.Close()
		return nil, fmt.Errorf("auth: %w", err)
	}
	b.Verifier = verifier
	if dev {
		b.DevAuth, _ = verifier.(*auth.DevVerifier)
	}

	b.Activity = activity.NewLogger(b.Store.Activities, logger)
	b.Uploads = uploads.NewService(b.Store.UploadTasks, b.Store.Videos, b.Vimeo, b.Queue, b.Hub, cfg.Worker, logger)
	return b, nil
}

func (b *Backend) openStore(ctx context.Context) error {
	switch b.Config.Store.Driver {
	case config.StorePostgres:
		pool, err := database.NewPostgresPool(ctx, b.Config.Database.DSN(), b.logger)
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
		b.closers = append(b.closers, pool.Close)
		if err := database.Migrate(ctx, pool); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		b.Store = postgres.New(pool)
	case config.StoreMemory, "":
		b.logger.Warn("using in-memory store, data is lost on restart")
		b.Store = memory.New()
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", b.Config.Store.Driver)
	}
	return nil
}

// Modes reports which vendors run live.
func (b *Backend) Modes() map[string]string {
	return map[string]string{
		"vimeo":  b.Vimeo.Mode(),
		"zoom":   b.Zoom.Mode(),
		"stripe": b.Stripe.Mode(),
	}
}

// Close releases connections in reverse order of opening.
func (b *Backend) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
	b.closers = nil
}
