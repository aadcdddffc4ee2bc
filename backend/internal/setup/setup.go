package setup

import (
	"context"
	"fmt"

	"github.com/itchan-dev/uniforum/backend/internal/handler"
	"github.com/itchan-dev/uniforum/backend/internal/notify"
	"github.com/itchan-dev/uniforum/backend/internal/service"
	"github.com/itchan-dev/uniforum/backend/internal/storage/pg"
	"github.com/itchan-dev/uniforum/backend/internal/storage/redis"
	"github.com/itchan-dev/uniforum/backend/internal/utils"
	"github.com/itchan-dev/uniforum/backend/internal/utils/email"
	"github.com/itchan-dev/uniforum/shared/config"
	"github.com/itchan-dev/uniforum/shared/jwt"
	"github.com/itchan-dev/uniforum/shared/logger"
	mw "github.com/itchan-dev/uniforum/shared/middleware"
	"github.com/itchan-dev/uniforum/shared/middleware/ratelimiter"
)

// clipboardStore is satisfied by both clipboard backends.
type clipboardStore interface {
	service.ClipboardStorage
	service.PurgeClipboard
}

// Dependencies struct to hold all initialized dependencies.
type Dependencies struct {
	Config         *config.Config
	Storage        *pg.Storage
	Handler        *handler.Handler
	AuthMiddleware *mw.Auth
	PostingLimiter *ratelimiter.UserRateLimiter

	closers []func()
}

// SetupDependencies initializes all dependencies required for the application.
func SetupDependencies(ctx context.Context, cfg *config.Config) (*Dependencies, error) {
	storage, err := pg.New(ctx, cfg.Private.Pg)
	if err != nil {
		return nil, err
	}
	if err := storage.Migrate(ctx); err != nil {
		storage.Cleanup()
		return nil, err
	}
	deps := &Dependencies{Config: cfg, Storage: storage}
	deps.closers = append(deps.closers, func() { storage.Cleanup() })

	var clipboardBackend clipboardStore = storage
	if cfg.Public.ClipboardBackend == "redis" {
		store, err := redis.New(ctx, cfg.Private.RedisURL, cfg.Public.ClipboardTTL)
		if err != nil {
			deps.Close()
			return nil, fmt.Errorf("clipboard backend: %w", err)
		}
		clipboardBackend = store
		deps.closers = append(deps.closers, func() { store.Close() })
	}
	logger.Log.Info("clipboard backend selected", "backend", cfg.Public.ClipboardBackend)

	var notifier service.Notifier = notify.Nop{}
	if cfg.Private.Email.Enabled() {
		mailer := notify.NewMailer(storage, email.New(&cfg.Private.Email), cfg.Public.NotificationTimeout)
		notifier = mailer
		// closers run in reverse, so pending mails finish before the database closes
		deps.closers = append(deps.closers, mailer.Wait)
	} else {
		logger.Log.Warn("smtp is not configured, post notifications are disabled")
	}

	validator := utils.NewPostValidator(cfg.Public.MaxBodyLength)

	forum := service.NewForum(storage, storage)
	moderation := service.NewModeration(storage, storage, forum)
	readState := service.NewReadState(storage)
	thread := service.NewThread(storage, forum, moderation, readState, validator, notifier, clipboardBackend, &cfg.Public)
	post := service.NewPost(storage, forum, moderation, validator, notifier, clipboardBackend)
	clipboard := service.NewClipboard(clipboardBackend, storage, forum, moderation, cfg.Public.ClipboardTTL)
	purge := service.NewPurge(storage, storage, clipboardBackend)

	deps.Handler = handler.New(forum, thread, post, moderation, clipboard, purge, storage, cfg)
	deps.AuthMiddleware = mw.NewAuth(jwt.New(cfg.JwtKey(), cfg.JwtTTL()))

	if cfg.Public.PostsPerMinute > 0 {
		deps.PostingLimiter = ratelimiter.PerMinute(cfg.Public.PostsPerMinute)
		deps.closers = append(deps.closers, deps.PostingLimiter.Stop)
	}

	return deps, nil
}

// Close releases resources in reverse order of acquisition.
func (d *Dependencies) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
}
