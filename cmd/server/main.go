package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/Khoa280703/admin-vietsov-sub000/internal/api"
	"github.com/Khoa280703/admin-vietsov-sub000/internal/audit"
	"github.com/Khoa280703/admin-vietsov-sub000/internal/config"
	"github.com/Khoa280703/admin-vietsov-sub000/internal/database"
	"github.com/Khoa280703/admin-vietsov-sub000/internal/metrics"
	"github.com/Khoa280703/admin-vietsov-sub000/internal/repository"
	"github.com/Khoa280703/admin-vietsov-sub000/internal/service"
	"github.com/Khoa280703/admin-vietsov-sub000/pkg/logger"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func main() {
	if err := rootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "cms",
		Short:        "Content management API for articles, categories and tags",
		SilenceUsage: true,
	}
	root.AddCommand(serveCommand(), migrateCommand())
	return root
}

// bootstrap loads configuration, the logger and the database
func bootstrap() (*config.Config, zerolog.Logger, *database.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format)

	db, err := database.New(&cfg.Database, log)
	if err != nil {
		return nil, log, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return cfg, log, db, nil
}

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run migrations and start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, db, err := bootstrap()
			if err != nil {
				return err
			}
			defer db.Close()
			return serve(cfg, log, db)
		},
	}
}

func serve(cfg *config.Config, log zerolog.Logger, db *database.DB) error {
	log.Info().Msg("Starting CMS API server...")

	if err := db.RunMigrations(cfg.Migrations.Path); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	repos := repository.New(db)
	m := metrics.Default()

	sinks := []audit.Sink{audit.NewLogSink(log)}
	if cfg.Audit.Persist {
		sinks = append(sinks, audit.NewStoreSink(repos.Audit))
	}
	if cfg.Audit.NATSURL != "" {
		nc, err := nats.Connect(cfg.Audit.NATSURL, nats.Name("cms-api"))
		if err != nil {
			return fmt.Errorf("failed to connect to nats: %w", err)
		}
		defer nc.Drain()
		sinks = append(sinks, audit.NewNATSSink(nc, cfg.Audit.NATSSubject))
		log.Info().Str("subject", cfg.Audit.NATSSubject).Msg("Publishing audit events to NATS")
	}
	recorder := audit.NewRecorder(log, m, sinks...)

	services := service.NewServices(repos, cfg, recorder, m, log)
	router := api.NewRouter(services, m, prometheus.DefaultGatherer, log)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.ReadTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serveErr:
		return fmt.Errorf("server failed: %w", err)
	case <-quit:
	}
	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info().Msg("Server exited gracefully")
	return nil
}

func migrateCommand() *cobra.Command {
	migrate := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database migrations",
	}

	migrate.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: withDB(func(cfg *config.Config, log zerolog.Logger, db *database.DB, _ []string) error {
				return db.RunMigrations(cfg.Migrations.Path)
			}),
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the last migration",
			Args:  cobra.NoArgs,
			RunE: withDB(func(cfg *config.Config, log zerolog.Logger, db *database.DB, _ []string) error {
				return db.MigrateDown(cfg.Migrations.Path)
			}),
		},
		&cobra.Command{
			Use:   "to <version>",
			Short: "Migrate up or down to a specific version",
			Args:  cobra.ExactArgs(1),
			RunE: withDB(func(cfg *config.Config, log zerolog.Logger, db *database.DB, args []string) error {
				version, err := strconv.ParseUint(args[0], 10, 32)
				if err != nil {
					return fmt.Errorf("bad version %q: %w", args[0], err)
				}
				return db.MigrateToVersion(cfg.Migrations.Path, uint(version))
			}),
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the current schema version",
			Args:  cobra.NoArgs,
			RunE: withDB(func(cfg *config.Config, log zerolog.Logger, db *database.DB, _ []string) error {
				version, dirty, err := db.MigrationVersion(cfg.Migrations.Path)
				if err != nil {
					return err
				}
				log.Info().Uint("version", version).Bool("dirty", dirty).Msg("Schema version")
				return nil
			}),
		},
	)
	return migrate
}

func withDB(fn func(cfg *config.Config, log zerolog.Logger, db *database.DB, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, log, db, err := bootstrap()
		if err != nil {
			return err
		}
		defer db.Close()
		if err := fn(cfg, log, db, args); err != nil {
			log.Error().Err(err).Str("command", cmd.CommandPath()).Msg("Migration failed")
			return err
		}
		return nil
	}
}
