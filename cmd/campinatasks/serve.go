package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"campina-tasks/internal/auth"
	"campina-tasks/internal/bot"
	"campina-tasks/internal/config"
	"campina-tasks/internal/httpapi"
	"campina-tasks/internal/repository"
	"campina-tasks/internal/service"
)

const shutdownTimeout = 10 * time.Second

// newBot is replaced in tests.
var newBot = bot.New

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, the Telegram bot and the notification scheduler",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			return serve(ctx, cfg)
		},
	}
}

// openDB opens the store and returns a closer for it.
func openDB(cfg config.Config) (*gorm.DB, func(), error) {
	db, err := repository.NewDB(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("db: %w", err)
	}
	closeDB := func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	}
	return db, closeDB, nil
}

func serve(ctx context.Context, cfg config.Config) error {
	db, closeDB, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer closeDB()

	areaRepo := repository.NewAreaRepository(db)
	taskRepo := repository.NewTaskRepository(db)

	areaSvc := service.NewAreaService(areaRepo, taskRepo, cfg.BadgeLookaheadDays)
	taskSvc := service.NewTaskService(taskRepo, areaRepo)
	notificationSvc := service.NewNotificationService(taskRepo, areaRepo, cfg.NotifyLookaheadDays)

	if cfg.AreasFile != "" {
		names, err := config.LoadAreas(cfg.AreasFile)
		if err != nil {
			return err
		}
		if err := areaSvc.Seed(ctx, names); err != nil {
			return fmt.Errorf("seed areas: %w", err)
		}
	}

	api := httpapi.NewServer(httpapi.Deps{
		Areas:         areaSvc,
		Tasks:         taskSvc,
		Issuer:        auth.NewIssuer(cfg.JWTSecret, cfg.TokenTTL),
		Credentials:   auth.Credentials{Username: cfg.AdminUser, PasswordHash: cfg.AdminPasswordHash},
		LookaheadDays: cfg.NotifyLookaheadDays,
		Now:           cfg.Now,
		Version:       version,
	})
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Bot and scheduler setup must finish before the listener starts.
	var (
		telegramBot *bot.Bot
		scheduler   *service.SchedulerService
	)
	if cfg.BotEnabled() {
		telegramBot, err = newBot(cfg.TelegramToken, bot.Deps{
			Subscribers:   repository.NewSubscriberRepository(db),
			Deliveries:    repository.NewDeliveryRepository(db),
			Areas:         areaSvc,
			Tasks:         taskSvc,
			Notifications: notificationSvc,
			Now:           cfg.Now,
		})
		if err != nil {
			return fmt.Errorf("bot: %w", err)
		}

		scheduler = service.NewSchedulerService(cfg.Location())
		if _, err := scheduler.Every(cfg.NotifyInterval, "notifications", func(ctx context.Context) error {
			shown, err := notificationSvc.Run(ctx, telegramBot, cfg.Now())
			log.Printf("[info] notification pass shown=%d", shown)
			return err
		}); err != nil {
			return fmt.Errorf("schedule notifications: %w", err)
		}
		if _, err := scheduler.Daily(cfg.ReportTime, "digest", telegramBot.SendDigest); err != nil {
			return fmt.Errorf("schedule digest: %w", err)
		}
	} else {
		log.Println("[info] TELEGRAM_TOKEN not set, bot and notifications disabled")
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Printf("[info] http listening on %s", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	if telegramBot != nil {
		scheduler.Start()
		defer scheduler.Stop()

		go func() {
			if err := telegramBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("[error] bot stopped with error: %v", err)
			}
		}()
	}

	log.Println("[info] campinatasks started")
	select {
	case <-ctx.Done():
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("[warn] http shutdown: %v", err)
	}
	log.Println("[info] shutdown complete")
	return nil
}
