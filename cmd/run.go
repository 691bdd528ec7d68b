package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"github.com/stashbin/stashbin/api"
	"github.com/stashbin/stashbin/internal/banner"
	"github.com/stashbin/stashbin/internal/blob"
	"github.com/stashbin/stashbin/internal/cache"
	"github.com/stashbin/stashbin/internal/config"
	"github.com/stashbin/stashbin/internal/database"
	"github.com/stashbin/stashbin/internal/logging"
	"go.uber.org/zap/zapcore"
)

func NewRun() *cobra.Command {
	var cfg config.ServerCmdConfig
	loader := config.NewConfigLoader()
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the stashbin server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApplication(cmd.Context(), &cfg)
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := loader.InitializeConfig(cmd); err != nil {
				return err
			}
			return loader.Load(&cfg)
		},
	}
	config.AddServerFlags(cmd.Flags(), &cfg)
	return cmd
}

func runApplication(ctx context.Context, conf *config.ServerCmdConfig) error {
	lvl, err := zapcore.ParseLevel(conf.Log.Level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	logging.SetConfig(&logging.Config{
		Level:    lvl,
		FilePath: conf.Log.File,
	})

	logger := logging.DefaultLogger()
	lg := logger.Sugar()
	defer lg.Sync()

	if conf.JWT.Secret == "" {
		return errors.New("jwt secret is required")
	}

	db, err := database.NewDatabase(&conf.DB)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	if err := database.MigrateDB(db); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	store, err := blob.NewLocalStore(conf.Storage.Root)
	if err != nil {
		return fmt.Errorf("failed to init blob storage: %w", err)
	}

	cacher := cache.NewCache(ctx, &conf.Cache)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", conf.Server.Port),
		Handler:           api.InitRouter(conf, db, store, cacher, logger),
		ReadTimeout:       conf.Server.ReadTimeout,
		WriteTimeout:      conf.Server.WriteTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	banner.PrintBanner(banner.StartupInfo{
		Version:  version,
		Addr:     srv.Addr,
		LogLevel: lvl.String(),
	})

	go func() {
		lg.Infof("server started at http://localhost:%d", conf.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			lg.Errorw("failed to start server", "err", err)
		}
	}()

	<-ctx.Done()

	lg.Info("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), conf.Server.GracefulShutdown)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		lg.Errorw("server shutdown failed", "err", err)
	}

	lg.Info("server stopped")
	return nil
}
