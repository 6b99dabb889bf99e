package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sahilchouksey/study-notes-bot/api"
	"github.com/sahilchouksey/study-notes-bot/config"
	"github.com/sahilchouksey/study-notes-bot/database"
	"github.com/sahilchouksey/study-notes-bot/router"
	"github.com/sahilchouksey/study-notes-bot/services"
	"github.com/sahilchouksey/study-notes-bot/services/cron"
	"github.com/sahilchouksey/study-notes-bot/services/filestore"
	"github.com/sahilchouksey/study-notes-bot/services/navigator"
	"github.com/sahilchouksey/study-notes-bot/services/telegram"
	"github.com/sahilchouksey/study-notes-bot/utils/cache"
	"github.com/sahilchouksey/study-notes-bot/utils/logger"
	"github.com/sahilchouksey/study-notes-bot/utils/middleware"
	"golang.org/x/sync/errgroup"
)

// SetupAndRunServer wires every component and serves until ctx is cancelled, then shuts down
// in order: HTTP and update intake first, then in-flight chat events and fan-outs, then cron and storage.
func SetupAndRunServer(ctx context.Context, env *config.EnvironmentVariable, log *logger.Logger) error {
	// Initialize GORM database connection
	store, err := database.StartGORM(env, log)
	if err != nil {
		log.Error("check whether the database is running", "driver", env.DB_DRIVER)
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Warn("failed to close database", "error", err)
		}
	}()

	if err := store.Init(); err != nil {
		return fmt.Errorf("failed to initialize database tables: %w", err)
	}
	db := store.GetDB()

	// Redis is optional unless sessions live there
	var redisCache *cache.RedisCache
	if env.SESSION_BACKEND == "redis" || env.REDIS_URL != "" {
		redisCache, err = cache.NewRedisCache(env.REDIS_URL)
		if err != nil {
			if env.SESSION_BACKEND == "redis" {
				return fmt.Errorf("failed to connect to redis: %w", err)
			}
			log.Warn("redis unavailable, brute force protection disabled", "error", err)
			redisCache = nil
		} else {
			defer redisCache.Close()
		}
	}

	var (
		sessions navigator.SessionStore
		memory   *navigator.MemoryStore
	)
	if env.SESSION_BACKEND == "redis" {
		sessions = navigator.NewRedisStore(redisCache, env.SESSION_TTL)
	} else {
		memory = navigator.NewMemoryStore()
		sessions = memory
	}

	files, err := newFileStore(env)
	if err != nil {
		return err
	}

	// Delivery channel
	var (
		messenger services.Messenger = telegram.Disabled{Log: log}
		client    *telegram.Client
	)
	if env.TELEGRAM_MODE != "disabled" {
		client, err = telegram.NewClient(telegram.Config{Token: env.TELEGRAM_TOKEN}, log)
		if err != nil {
			return err
		}
		messenger = client
	} else {
		log.Warn("telegram disabled, chat input is ignored and notifications fail")
	}

	// Services
	catalog := services.NewCatalogService(db)
	users := services.NewUserService(db)
	subscriptions := services.NewSubscriptionService(db)
	ratings := services.NewRatingService(db, env.RATING_AUDIT)
	notifier := services.NewNotificationService(db, catalog, subscriptions, messenger, log, services.NotifierConfig{
		Concurrency: env.FANOUT_CONCURRENCY,
		SendTimeout: env.FANOUT_SEND_TIMEOUT,
	})

	nav := navigator.New(navigator.Deps{
		Catalog:       catalog,
		Users:         users,
		Subscriptions: subscriptions,
		Ratings:       ratings,
		Files:         files,
		Messenger:     messenger,
		Sessions:      sessions,
		Log:           log,
	})

	var dispatcher *telegram.Dispatcher
	if client != nil {
		dispatcher = telegram.NewDispatcher(nav, client, log)
	}

	// Initialize Cron Manager (only if enabled via environment variable)
	var cronManager *cron.CronManager
	if env.CRON_ENABLED {
		cronCfg := cron.Config{
			DB:         db,
			SessionTTL: env.SESSION_TTL,
			Log:        log,
		}
		if memory != nil {
			cronCfg.Sessions = memory
		}
		cronManager = cron.NewCronManager(cronCfg)
		if err := cronManager.Start(); err != nil {
			// Don't fail the app, just log the warning
			log.Warn("failed to start cron jobs", "error", err)
			cronManager = nil
		}
	}

	// Init API
	server := api.NewAPIServer(fmt.Sprintf(":%d", env.PORT), log)
	app := server.GetEngine()

	var bruteForce *middleware.BruteForceProtection
	if redisCache != nil {
		bruteForce = middleware.NewBruteForceProtection(redisCache)
	}
	middleware.SetupSecurity(app, middleware.SecurityConfig{
		RateLimitRequests: env.RATE_LIMIT_REQUESTS,
		RateLimitWindow:   time.Minute,
		RateLimitExempt:   []string{router.WebhookPath},
	}, log)

	deps := router.Dependencies{
		Store:         store,
		Notifier:      notifier,
		Documents:     catalog,
		WebhookSecret: env.TELEGRAM_WEBHOOK_SECRET,
		AdminToken:    env.ADMIN_API_TOKEN,
		BruteForce:    bruteForce,
		Log:           log,
	}
	if env.TELEGRAM_MODE == "webhook" && dispatcher != nil {
		deps.Dispatcher = dispatcher
	}
	router.SetupRoutes(app, deps)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(server.Run)
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), env.SHUTDOWN_TIMEOUT)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	switch {
	case client != nil && env.TELEGRAM_MODE == "polling":
		poller := telegram.NewPoller(client, dispatcher, log)
		g.Go(func() error { return poller.Run(gctx) })
	case client != nil && env.TELEGRAM_MODE == "webhook":
		if err := client.SetWebhook(ctx, env.TELEGRAM_WEBHOOK_URL, env.TELEGRAM_WEBHOOK_SECRET); err != nil {
			return err
		}
		log.Info("webhook registered", "url", env.TELEGRAM_WEBHOOK_URL)
	}

	if env.PUBLISH_LISTEN_CHANNEL != "" {
		if env.DB_DRIVER != "postgres" {
			log.Warn("PUBLISH_LISTEN_CHANNEL needs postgres, ignoring", "driver", env.DB_DRIVER)
		} else {
			listener := database.NewPublishListener(env.PostgresDSN(), env.PUBLISH_LISTEN_CHANNEL, notifier.OnDocumentPublished, log)
			g.Go(func() error { return listener.Run(gctx) })
		}
	}

	runErr := g.Wait()
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Error("server stopped with error", "error", runErr)
	}

	// Drain work that outlives the intake
	drainCtx, cancel := context.WithTimeout(context.Background(), env.SHUTDOWN_TIMEOUT)
	defer cancel()

	if dispatcher != nil {
		if err := dispatcher.Wait(drainCtx); err != nil {
			log.Warn("abandoning in-flight chat events", "error", err)
		}
	}
	if err := notifier.Shutdown(drainCtx); err != nil {
		log.Warn("abandoning in-flight fan-outs", "error", err)
	}
	if cronManager != nil {
		cronManager.Stop()
	}

	log.Info("shutdown complete")
	return runErr
}

func newFileStore(env *config.EnvironmentVariable) (filestore.Store, error) {
	if env.FILE_STORE == "spaces" {
		return filestore.NewSpacesClient(filestore.SpacesConfig{
			AccessKey: env.DO_SPACES_ACCESS_KEY,
			SecretKey: env.DO_SPACES_SECRET_KEY,
			Bucket:    env.DO_SPACES_BUCKET,
			Region:    env.DO_SPACES_REGION,
			Endpoint:  env.DO_SPACES_ENDPOINT,
		})
	}
	return filestore.NewLocal(env.UPLOAD_FOLDER)
}
