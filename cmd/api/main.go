package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"medicare-adherence/internal/adapters/auth/jwtverifier"
	"medicare-adherence/internal/adapters/auth/remote"
	pg "medicare-adherence/internal/adapters/storage/postgres"
	"medicare-adherence/internal/config"
	"medicare-adherence/internal/domain/adherence"
	"medicare-adherence/internal/jobs"
	"medicare-adherence/internal/middleware"
	"medicare-adherence/internal/platform/logger"
	"medicare-adherence/internal/platform/metrics"
	"medicare-adherence/internal/ports/auth"
	"medicare-adherence/internal/router"
)

func main() {
	var envFile string

	rootCmd := &cobra.Command{
		Use:   "medicare-api",
		Short: "Medication adherence tracking API",
	}
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Optional .env file")

	rootCmd.AddCommand(serveCmd(&envFile))
	rootCmd.AddCommand(migrateCmd(&envFile))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd(envFile *string) *cobra.Command {
	var noSweeper bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*envFile)
			if err != nil {
				return err
			}
			return runServer(cfg, !noSweeper)
		},
	}
	cmd.Flags().BoolVar(&noSweeper, "no-sweeper", false, "Disable the missed-dose sweeper")
	return cmd
}

func migrateCmd(envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*envFile)
			if err != nil {
				return err
			}
			if cfg.DBDSN == "" {
				return errors.New("DB_DSN is required")
			}

			db, err := pg.Open(cfg.DBDSN)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer db.Close()

			if err := pg.Migrate(cmd.Context(), db); err != nil {
				return err
			}
			fmt.Println("Schema applied successfully.")
			return nil
		},
	}
}

func runServer(cfg *config.Config, withSweeper bool) error {
	log := logger.New(logger.Options{
		Level:  logger.ParseLevel(cfg.LogLevel),
		Format: logger.ParseFormat(cfg.LogFormat),
		App:    cfg.AppName,
	})

	verifier, err := newVerifier(cfg)
	if err != nil {
		return err
	}

	var db *sql.DB
	if cfg.DBDSN != "" {
		db, err = pg.Open(cfg.DBDSN)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer db.Close()
		log.Info("connected to database", nil)
	} else {
		log.Warn("DB_DSN not set, using in-memory storage", nil)
	}

	app := router.Build(router.Options{
		AuthVerifier: verifier,
		DB:           db,
		Logger:       log,
		Metrics:      metrics.New(),
		Policy: &adherence.Policy{
			GraceMinutes:      cfg.GraceMinutes,
			MissedCutoffHours: cfg.MissedCutoffHours,
		},
		ConflictRetries: cfg.ConflictRetries,
		RateLimit: &middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimitRPS,
			Burst:             cfg.RateLimitBurst,
		},
	})

	var sweeper *jobs.Sweeper
	if withSweeper {
		sweeper, err = jobs.NewSweeper(app.Medications, jobs.SweeperOptions{
			Schedule: cfg.SweepSchedule,
			Logger:   log,
		})
		if err != nil {
			return err
		}
		sweeper.Start()
	}

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      app.Handler,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", map[string]any{"addr": cfg.Addr(), "auth_mode": cfg.AuthMode})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-quit:
	}

	log.Info("shutting down server", nil)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if sweeper != nil {
		sweeper.Stop(ctx)
	}
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	log.Info("server stopped", nil)
	return nil
}

// newVerifier devuelve nil en modo dev (header X-Debug-Caregiver-ID).
func newVerifier(cfg *config.Config) (auth.AuthVerifier, error) {
	switch cfg.AuthMode {
	case config.AuthModeJWT:
		return jwtverifier.New(cfg.JWTSecret, cfg.JWTIssuer)
	case config.AuthModeRemote:
		return remote.NewVerifier(remote.Config{
			BaseURL: cfg.AuthRemoteURL,
			APIKey:  cfg.AuthRemoteAPIKey,
		})
	default:
		return nil, nil
	}
}
