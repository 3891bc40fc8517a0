package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ignite/newsletter-builder/internal/ai"
	"github.com/ignite/newsletter-builder/internal/api"
	"github.com/ignite/newsletter-builder/internal/config"
	"github.com/ignite/newsletter-builder/internal/mailing"
	"github.com/ignite/newsletter-builder/internal/pkg/distlock"
	"github.com/ignite/newsletter-builder/internal/pkg/logger"
	"github.com/ignite/newsletter-builder/internal/reminder"
	"github.com/ignite/newsletter-builder/internal/render"
	"github.com/ignite/newsletter-builder/internal/service/calendar"
	"github.com/ignite/newsletter-builder/internal/service/content"
	"github.com/ignite/newsletter-builder/internal/service/publish"
	"github.com/ignite/newsletter-builder/internal/service/roster"
	"github.com/ignite/newsletter-builder/internal/storage"
)

func main() {
	if err := run(); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	cfg, err := config.LoadFromEnv(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	orgs, err := config.NewOrganisations(cfg.Organisations)
	if err != nil {
		return fmt.Errorf("building organisation catalog: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("connecting storage: %w", err)
	}

	sesClient, err := mailing.NewSESClient(ctx, cfg.Mail)
	if err != nil {
		return fmt.Errorf("connecting SES: %w", err)
	}
	mailer := mailing.NewSESMailer(sesClient, cfg.Development)

	formatter, err := render.New()
	if err != nil {
		return fmt.Errorf("building renderer: %w", err)
	}

	var assistant ai.Assistant = ai.Disabled{}
	if cfg.AI.Enabled {
		bedrock, err := ai.NewBedrockAssistant(ctx, cfg.AI)
		if err != nil {
			return fmt.Errorf("connecting Bedrock: %w", err)
		}
		assistant = bedrock
	}

	contentSvc := content.NewService(store, store)
	publishSvc := publish.NewService(store, store, formatter, mailer, orgs)
	rosterSvc := roster.NewService(store, mailer)
	calendarSvc := calendar.NewService(store)

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()
	lock := distlock.New(redisClient, "reminder-scheduler", 5*time.Minute)
	scheduler := reminder.NewScheduler(store, mailer, orgs, lock, cfg.EditorBaseURL)
	go scheduler.Run(ctx)

	server := api.NewServer(contentSvc, publishSvc, rosterSvc, calendarSvc, assistant)

	addr := fmt.Sprintf("%s:%d", cfg.Server.GetHost(), cfg.Server.Port)
	errc := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", addr, "development", cfg.Development)
		errc <- server.ListenAndServe(addr)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
