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

	adapthttp "socialmedia/internal/adapter/http"
	"socialmedia/internal/adapter/memory"
	"socialmedia/internal/adapter/postgres"
	"socialmedia/internal/adapter/sqlite"
	"socialmedia/internal/adapter/sqlstore"
	"socialmedia/internal/app"
	"socialmedia/internal/config"
	"socialmedia/internal/domain"
	"socialmedia/internal/logger"
	"socialmedia/internal/metrics"
	"socialmedia/internal/security/password"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	root := &cobra.Command{
		Use:          "socialmedia",
		Short:        "Accounts and messages service",
		SilenceUsage: true,
	}
	root.AddCommand(serveCmd(), migrateCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Addr = addr
			}
			defer func() { _ = logger.Sync() }()
			return serve(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides ADDR)")
	return cmd
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create missing tables and indexes",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()
			if cfg.DBDriver == config.DriverMemory {
				return errors.New("nothing to migrate for DB_DRIVER=memory")
			}

			s, err := openStores(cfg)
			if err != nil {
				return err
			}
			defer s.close()
			logger.L().Info("schema up to date", zap.String("driver", cfg.DBDriver))
			return nil
		},
	}
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, fmt.Errorf("config: %w", err)
	}
	logger.Init(logger.Config{Env: cfg.LogEnv, Level: cfg.LogLevel})
	return cfg, nil
}

type stores struct {
	pool     *sqlstore.Pool
	hasher   password.Hasher
	accounts domain.AccountRepository
	messages domain.MessageRepository
}

func (s *stores) close() {
	if s.pool != nil {
		_ = s.pool.Close()
	}
}

func openStores(cfg config.Config) (*stores, error) {
	hasher, err := password.New(cfg.PasswordScheme)
	if err != nil {
		return nil, err
	}

	opts := sqlstore.Options{
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}
	var pool *sqlstore.Pool
	switch cfg.DBDriver {
	case config.DriverPostgres:
		pool, err = postgres.Open(cfg.DatabaseURL, opts)
	case config.DriverSQLite:
		pool, err = sqlite.Open(cfg.DatabaseURL, opts)
	case config.DriverMemory:
		db := memory.New(hasher)
		return &stores{hasher: hasher, accounts: db.Accounts(), messages: db.Messages()}, nil
	default:
		return nil, fmt.Errorf("unknown DB_DRIVER %q", cfg.DBDriver)
	}
	if err != nil {
		return nil, fmt.Errorf("db open: %w", err)
	}
	return &stores{
		pool:     pool,
		hasher:   hasher,
		accounts: sqlstore.NewAccountRepo(pool, hasher),
		messages: sqlstore.NewMessageRepo(pool),
	}, nil
}

func serve(ctx context.Context, cfg config.Config) error {
	log := logger.L()

	s, err := openStores(cfg)
	if err != nil {
		return err
	}
	defer s.close()

	var sqlDB *sql.DB
	if s.pool != nil {
		sqlDB = s.pool.DB()
	}
	if err := metrics.Register(prometheus.DefaultRegisterer, sqlDB); err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	accounts := app.NewAccountService(s.accounts, log, app.WithHasher(s.hasher))
	messages := app.NewMessageService(s.messages, s.accounts, log)

	opts := []adapthttp.Option{
		adapthttp.WithLogger(log),
		adapthttp.WithMetrics(metrics.Handler(prometheus.DefaultGatherer)),
	}
	if cfg.OIDC.Enabled() {
		sso, err := adapthttp.NewSSO(ctx, cfg.OIDC)
		if err != nil {
			return err
		}
		opts = append(opts, adapthttp.WithSSO(sso))
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           adapthttp.New(accounts, messages, opts...).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", cfg.Addr), zap.String("driver", cfg.DBDriver))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
