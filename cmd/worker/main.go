package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/joho/godotenv"

	"wellness/internal/adapter/repo"
	"wellness/internal/docstore"
	"wellness/internal/infra"
	"wellness/internal/notify"
	"wellness/internal/reminder"
	"wellness/internal/settings"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: db connection failed")
	}
	defer pool.Close()

	runner := infra.NewSQLRunner(pool, logger)
	store := docstore.NewPostgresStore(runner, nil)

	var awsCfg aws.Config
	if cfg.SESSender != "" || cfg.SNSPlatformARN != "" {
		awsCfg, err = infra.LoadAWSConfig(ctx, cfg)
		if err != nil {
			logger.Fatal().Err(err).Msg("worker: load aws config")
		}
	}

	var mailer notify.Mailer = notify.NewLogMailer(logger)
	if cfg.SESSender != "" {
		mailer = notify.NewSESMailer(notify.NewSESClient(awsCfg), cfg.SESSender, &logger)
	}
	var pusher notify.Pusher = notify.NewLogPusher(logger)
	if cfg.SNSPlatformARN != "" {
		pusher = notify.NewSNSPusher(notify.NewSNSClient(awsCfg), cfg.SNSPlatformARN, &logger)
	}

	dispatcher := reminder.NewDispatcher(reminder.Options{
		Reminders: repo.NewReminderRepository(runner),
		Accounts:  repo.NewAccountRepository(runner),
		Settings:  settings.NewService(store, pusher, &logger),
		Mailer:    mailer,
		Pusher:    pusher,
		Interval:  cfg.ReminderPollInterval,
		Logger:    &logger,
	})

	if err := dispatcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("worker: stopped with error")
	}
	logger.Info().Msg("worker: stopped")
}
