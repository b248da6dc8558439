package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"pipecrm/config"
	"pipecrm/internal/db"
	"pipecrm/internal/decision"
	redisclient "pipecrm/internal/redis"
	"pipecrm/internal/repository"
	"pipecrm/internal/store"
	"pipecrm/internal/util"
	"pipecrm/pkg/logger"
	"pipecrm/pkg/mq"
	"pipecrm/pkg/outbox"
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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Outbox dispatcher: pending change events -> crm.changes exchange.
	publisher, err := mq.NewPublisher(cfg.MQ.URL)
	if err != nil {
		log.Fatal("Failed to connect to message broker", zap.Error(err))
	}
	defer publisher.Close()

	outboxRepo := outbox.NewRepository(pool)
	dispatcher := outbox.NewDispatcher(outboxRepo, publisher, log)
	go dispatcher.Start(ctx)

	// Decision queue, analyzers and sweeps.
	st := store.New(pool, outboxRepo, log)
	users := repository.NewUserRepository(pool)
	deduper := util.NewDeduper(rdb, cfg.Worker.DecisionRetention, log)
	queue := decision.NewQueue(
		st,
		deduper,
		&decision.LogExecutor{Logger: log},
		cfg.Worker.DecisionRetention,
		log,
	)
	analyzer := decision.NewAnalyzer(
		queue,
		users,
		st.Deals,
		st.Contacts,
		cfg.Worker.StagnantDealAfter,
		cfg.Worker.ChurnRiskAfter,
		cfg.Worker.DecisionRetention,
		log,
	)

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.Worker.AnalyzerCron, func() {
		runCtx, cancelRun := context.WithTimeout(ctx, 5*time.Minute)
		defer cancelRun()
		analyzer.Run(runCtx)
	}); err != nil {
		log.Fatal("Invalid analyzer schedule", zap.Error(err))
	}
	if _, err := scheduler.AddFunc(cfg.Worker.SweepCron, func() {
		sweepCtx, cancelSweep := context.WithTimeout(ctx, time.Minute)
		defer cancelSweep()
		if _, err := queue.Sweep(sweepCtx, time.Now().UTC()); err != nil {
			log.Error("Decision sweep failed", zap.Error(err))
		}
	}); err != nil {
		log.Fatal("Invalid sweep schedule", zap.Error(err))
	}
	scheduler.Start()

	log.Info("Worker started",
		zap.String("analyzer_cron", cfg.Worker.AnalyzerCron),
		zap.String("sweep_cron", cfg.Worker.SweepCron),
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down worker")
	scheduler.Stop()
	cancel()
}
