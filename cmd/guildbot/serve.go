package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/susu3304/guildbot/internal/api"
	"github.com/susu3304/guildbot/internal/bot"
	"github.com/susu3304/guildbot/internal/commands"
	"github.com/susu3304/guildbot/internal/config"
	"github.com/susu3304/guildbot/internal/db"
	"github.com/susu3304/guildbot/internal/notify"
	"github.com/susu3304/guildbot/internal/roster"
	"github.com/susu3304/guildbot/internal/split"
	"go.uber.org/zap"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the Discord bot and the web API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	database, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := database.RunMigrations(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	svc := split.NewService(roster.NewDBSource(database, cfg.AttendanceWindow), database, cfg.SessionTTL, logger)
	svc.Start(time.Minute)
	defer svc.Stop()

	discordBot, err := bot.New(cfg.DiscordToken, logger)
	if err != nil {
		return err
	}
	notifier := notify.New(discordBot.Session(), cfg.AnnounceChannelID, logger)
	discordBot.SetHandler(commands.NewHandler(svc, database, database, notifier, logger))

	apiServer := api.New(cfg, database, svc, notifier, logger)

	if err := discordBot.Start(); err != nil {
		return err
	}
	defer func() { _ = discordBot.Stop() }()

	go func() {
		if err := apiServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api: server stopped", zap.Error(err))
		}
	}()

	// Wait for signal to stop
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return apiServer.Shutdown(shutdownCtx)
}
