// cmd/notifyd/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"streamnotify/internal/common/config"
	"streamnotify/internal/common/database"
	"streamnotify/internal/common/logger"
	"streamnotify/internal/common/observability"
	"streamnotify/internal/common/queue"
	"streamnotify/internal/email"
	"streamnotify/internal/email/inbound"
	"streamnotify/internal/notification"
	"streamnotify/internal/store"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	zapLog := logger.New("info", "console")

	zapLog.Info("Starting notifyd...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	// Rebuild the logger with the configured level and format.
	zapLog = logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Redis with retry ---
	var redis *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redis, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	// --- Stores ---
	people := store.NewPersonStore(pg.DB)
	preferences := store.NewPreferenceStore(pg.DB)
	alerts := store.NewAlertStore(pg.DB)
	activities := store.NewActivityStore(pg.DB)
	keys := store.NewKeyStore(pg.DB)
	senders := store.NewSenderLookup(pg.DB)
	unreadCache := store.NewUnreadCache(redis.Client)

	// --- Outbound mail ---
	templates := email.DefaultRegistry()
	if cfg.Email.TemplateRegistryPath != "" {
		templates, err = email.LoadRegistry(cfg.Email.TemplateRegistryPath)
		if err != nil {
			zapLog.Fatal("template registry load failed", zap.Error(err))
		}
		zapLog.Info("Template registry loaded",
			zap.String("path", cfg.Email.TemplateRegistryPath))
	}

	sender, err := email.NewSender(cfg.Email, log)
	if err != nil {
		zapLog.Fatal("mail sender init failed", zap.Error(err))
	}

	base := email.NewTemplateBuilder(templates, people, keys, cfg.Email, cfg.Notifications, log)
	builders := email.NewDefaultBuilderRegistry(base, activities)

	// --- Notification pipeline ---
	dispatcher := queue.NewDispatcher(cfg.Queue, cfg.Database.Redis, log)
	defer dispatcher.Close()

	translators := notification.NewDefaultTranslators(activities)
	filterer := notification.NewRecipientFilterer(people, map[string][]notification.RecipientFilter{
		notification.NotifierKeyAlert: {
			notification.LockedAccountFilter{},
		},
		notification.NotifierKeyEmail: {
			notification.LockedAccountFilter{},
			notification.MissingEmailFilter{},
		},
	}, log)
	populator := notification.NewPopulator(people, activities)
	notifiers := []notification.Notifier{
		notification.NewAlertNotifier(alerts, unreadCache, log),
		notification.NewEmailNotifier(log),
	}
	defaultProps := map[string]interface{}{
		"email.highPriority": false,
	}

	orchestrator := notification.NewOrchestrator(
		translators, notifiers, filterer, preferences, populator,
		dispatcher, defaultProps, log, obs,
	)

	// --- Queue server ---
	srv, mux := queue.NewServer(cfg.Queue, cfg.Database.Redis)
	notification.NewEventJobHandler(orchestrator, log).Register(mux)
	email.NewSendJobHandler(builders, sender, cfg.Email.SystemAddress, log).Register(mux)

	go func() {
		if err := srv.Run(mux); err != nil {
			zapLog.Fatal("queue server failed", zap.Error(err))
		}
	}()
	zapLog.Info("Queue server started", zap.Int("concurrency", cfg.Queue.Concurrency))

	// --- Inbound mail ingester ---
	if cfg.Email.IMAP.Host != "" {
		extractor, err := inbound.NewContentExtractor(cfg.Email.IMAP.Markers, cfg.Email.IMAP.RegexMarkers)
		if err != nil {
			zapLog.Fatal("content extractor init failed", zap.Error(err))
		}

		processor := inbound.NewProcessor(
			cfg.Email.SystemAddress,
			senders,
			extractor,
			inbound.DefaultActionSelector{},
			inbound.NewCommentActionExecutor(activities),
			inbound.NewReplier(templates, sender, cfg.Email.SystemAddress, log),
			log,
		)

		interval := config.GetDuration(cfg.Email.IMAP.PollInterval)
		go func() {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()

			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					ing := inbound.NewIngester(inbound.NewIMAPStore(cfg.Email.IMAP, log), cfg.Email.IMAP, processor, log)
					if err := ing.Run(ctx); err != nil {
						log.WithError(err).Error("Mailbox ingest run failed", nil)
					}
				}
			}
		}()
		zapLog.Info("Mailbox ingester started",
			zap.String("host", cfg.Email.IMAP.Host),
			zap.Duration("pollInterval", interval))
	} else {
		zapLog.Info("Mailbox ingester disabled, no IMAP host configured")
	}

	// --- Health & Metrics Server ---
	go func() {
		http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
		})
		http.Handle("/metrics", promhttp.Handler())
		zapLog.Info("Health/Metrics server listening", zap.String("addr", cfg.App.MetricsAddr))
		if err := http.ListenAndServe(cfg.App.MetricsAddr, nil); err != nil {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping...")
	cancel()
	srv.Shutdown()

	zapLog.Info("notifyd stopped")
}
