package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"pipecrm/config"
	"pipecrm/internal/db"
	"pipecrm/internal/decision"
	"pipecrm/internal/handler"
	"pipecrm/internal/httpserver"
	"pipecrm/internal/installer"
	"pipecrm/internal/realtime"
	redisclient "pipecrm/internal/redis"
	"pipecrm/internal/repository"
	"pipecrm/internal/service"
	"pipecrm/internal/store"
	"pipecrm/internal/util"
	"pipecrm/pkg/logger"
	"pipecrm/pkg/mq"
	"pipecrm/pkg/outbox"
	pkgutil "pipecrm/pkg/util"
)

func main() {
	log := logger.NewLogger()
	defer log.Sync()

	cfg := config.Load()

	pool, err := db.NewConnection(cfg.DB, log)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	rdb := redisclient.NewRedisClient(cfg.Redis)
	defer rdb.Close()

	outboxRepo := outbox.NewRepository(pool)
	st := store.New(pool, outboxRepo, log)

	// Cached collection views: list reads are served from memory, mutations
	// apply optimistically, and change events from other processes reconcile
	// them through the registry.
	views := store.NewViews(st)
	st.AttachViews(views)

	publisher, err := mq.NewPublisher(cfg.MQ.URL)
	if err != nil {
		log.Fatal("Failed to connect to message broker", zap.Error(err))
	}
	defer publisher.Close()

	if err := publisher.DeclareDLQ(); err != nil {
		log.Fatal("Failed to declare DLQ exchange", zap.Error(err))
	}

	subscriber := realtime.NewSubscriber(views.Registry(), cfg.Worker.CoalesceWindow, cfg.Worker.DebounceWindow, log)

	consumer, err := mq.NewConsumer(cfg.MQ.URL, "crm-api-cache", "#", log)
	if err != nil {
		log.Fatal("Failed to create consumer", zap.Error(err))
	}
	defer consumer.Close()
	retries := pkgutil.NewRetryCounter(rdb, time.Hour)
	consumer.SetHandler(realtime.WithRetryCap(subscriber.HandleChange, retries, publisher, log))

	go func() {
		if err := consumer.StartConsuming(); err != nil {
			log.Fatal("Change consumer stopped", zap.Error(err))
		}
	}()

	users := repository.NewUserRepository(pool)
	installs := repository.NewInstallRepository(pool)

	authService := service.NewAuthService(users, cfg.JWT.Secret, log)

	deduper := util.NewDeduper(rdb, cfg.Worker.DecisionRetention, log)
	queue := decision.NewQueue(
		st,
		deduper,
		&decision.LogExecutor{Logger: log},
		cfg.Worker.DecisionRetention,
		log,
	)

	provision := installer.NewProvisionClient(
		cfg.Installer.ProvisionURL,
		cfg.Installer.ProvisionToken,
		cfg.Installer.Timeout,
		log,
	)

	router := httpserver.NewRouter(httpserver.Deps{
		JWTSecret: cfg.JWT.Secret,
		DB:        pool,
		Redis:     rdb,
		Auth:      handler.NewAuthHandler(authService, log),
		CRM:       handler.NewCRMHandler(st, log),
		Decisions: handler.NewDecisionHandler(queue, log),
		Outbox:    handler.NewOutboxHandler(outboxRepo, log),
		Installer: installer.NewHandler(pool, installs, provision, log),
		Logger:    log,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		log.Info("API server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down API server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Forced shutdown", zap.Error(err))
	}
}
