package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dormmarket/market-bot/internal/bot"
	"github.com/dormmarket/market-bot/internal/config"
	"github.com/dormmarket/market-bot/internal/db"
	"github.com/dormmarket/market-bot/internal/market"
	"github.com/dormmarket/market-bot/internal/server"
	"github.com/dormmarket/market-bot/internal/store"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "market-bot",
		Short: "Dormitory marketplace Telegram bot",
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the bot",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}
	migrateCmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all up migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(db.Migrate)
		},
	})
	migrateCmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Revert the most recent migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(db.Rollback)
		},
	})

	rootCmd.AddCommand(serveCmd, migrateCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func withDB(fn func(conn *sql.DB) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	conn, err := db.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer conn.Close()
	return fn(conn)
}

func serve(ctx context.Context) error {
	log.Println("Starting dorm market bot...")

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log.Println("Initializing database...")
	conn, err := db.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := db.Migrate(conn); err != nil {
		return err
	}

	telegramBot, err := bot.New(bot.Config{
		Token:      cfg.BotToken,
		WebhookURL: cfg.WebhookURL,
	})
	if err != nil {
		return err
	}

	router := market.NewRouter(
		store.NewUserRepository(conn),
		store.NewAdRepository(conn),
		store.NewSettingsRepository(conn),
		telegramBot,
		market.Config{
			AdminIDs:          cfg.AdminIDs,
			ModerationEnabled: cfg.ModerationEnabled,
			WrapNavigation:    cfg.WrapNavigation,
			ShowSellerPhone:   cfg.ShowSellerPhone,
		},
	)
	if err := router.Moderation().LoadMaintenance(ctx); err != nil {
		return fmt.Errorf("failed to load maintenance flag: %w", err)
	}
	telegramBot.SetRouter(router)

	var webhook http.HandlerFunc
	if cfg.WebhookURL != "" {
		webhook = telegramBot.WebhookHandler()
	}
	srv := server.New(cfg.HTTPAddr, webhook)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 2)
	go func() {
		log.Printf("HTTP sidecar listening on %s", cfg.HTTPAddr)
		errCh <- srv.Start()
	}()
	go func() {
		log.Println("Bot is running. Press Ctrl+C to stop.")
		errCh <- telegramBot.Run(ctx)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && ctx.Err() == nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
