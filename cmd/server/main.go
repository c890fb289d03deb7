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

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/athulkrishnap25/expanse-tracker/internal/config"
	"github.com/athulkrishnap25/expanse-tracker/internal/events"
	"github.com/athulkrishnap25/expanse-tracker/internal/httpapi"
	"github.com/athulkrishnap25/expanse-tracker/internal/logger"
	"github.com/athulkrishnap25/expanse-tracker/internal/service"
	"github.com/athulkrishnap25/expanse-tracker/internal/stock"
	"github.com/athulkrishnap25/expanse-tracker/internal/store"
	"github.com/athulkrishnap25/expanse-tracker/internal/store/memory"
	pgstore "github.com/athulkrishnap25/expanse-tracker/internal/store/postgres"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.Env, Level: cfg.LogLevel})

	if err := validateSecurityConfig(cfg); err != nil {
		log.Fatal().Err(err).Msg("invalid security configuration")
	}

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
	log.Info().Msg("server stopped")
}

func run(cfg config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	policy := store.StockPolicy(cfg.StockPolicy)
	closers := make([]func() error, 0, 2)
	defer func() {
		for _, closeFn := range closers {
			if err := closeFn(); err != nil {
				log.Warn().Err(err).Msg("close error")
			}
		}
	}()

	repo, closeRepo, err := openRepository(ctx, cfg, policy, log)
	if err != nil {
		return err
	}
	if closeRepo != nil {
		closers = append(closers, closeRepo)
	}

	auth := httpapi.NewAuthManager(cfg.AuthSecret, time.Duration(cfg.AccessTokenTTLMinutes)*time.Minute, repo)
	if created, err := auth.EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminPassword); err != nil {
		return fmt.Errorf("ensure admin account: %w", err)
	} else if created {
		log.Info().Str("username", cfg.AdminUsername).Msg("created initial admin account")
	}

	reactor := stock.NewReactor(repo, log)
	group, groupCtx := errgroup.WithContext(ctx)

	var dispatcher events.Dispatcher = events.Inline{Handler: reactor}
	if cfg.RedisAddr != "" {
		queue := events.NewRedisQueue(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.SaleQueueKey, log)
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		pingErr := queue.Ping(pingCtx)
		cancel()
		if pingErr != nil {
			log.Warn().Err(pingErr).Msg("redis unavailable, adjusting stock inline")
			_ = queue.Close()
		} else {
			dispatcher = queue
			closers = append(closers, queue.Close)
			group.Go(func() error { return queue.Run(groupCtx, reactor) })
			log.Info().Str("key", cfg.SaleQueueKey).Msg("sale events: redis queue")
		}
	} else {
		log.Info().Msg("sale events: inline")
	}

	svc := service.New(repo, dispatcher,
		service.WithLocation(cfg.Location()),
		service.WithLogger(log),
		service.WithStockPolicy(policy),
	)
	api := httpapi.New(svc, auth, cfg.AllowedOrigin, log)

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	group.Go(func() error {
		log.Info().Str("addr", cfg.Address()).Msg("expense tracker listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 8*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("shutdown error")
		}
		return nil
	})

	return group.Wait()
}

// openRepository picks Postgres when DATABASE_URL is set and refuses to fall
// back to memory if it cannot be reached.
func openRepository(ctx context.Context, cfg config.Config, policy store.StockPolicy, log zerolog.Logger) (store.Repository, func() error, error) {
	if cfg.DatabaseURL == "" {
		log.Info().Msg("repository: in-memory")
		return memory.NewSeeded(policy, log), nil, nil
	}

	if err := pgstore.Migrate(cfg.DatabaseURL, log); err != nil {
		return nil, nil, fmt.Errorf("migrate database: %w", err)
	}
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	pg, err := pgstore.New(connectCtx, cfg.DatabaseURL, policy, log)
	if err != nil {
		return nil, nil, fmt.Errorf("postgres unavailable and DATABASE_URL is set: %w", err)
	}
	log.Info().Msg("repository: postgres")
	return pg, pg.Close, nil
}

func validateSecurityConfig(cfg config.Config) error {
	if len(cfg.AuthSecret) < 32 {
		return fmt.Errorf("AUTH_SECRET must be set and at least 32 characters")
	}
	if cfg.DatabaseURL != "" && cfg.AdminPassword != "" && len(cfg.AdminPassword) < 8 {
		return fmt.Errorf("ADMIN_PASSWORD must be at least 8 characters")
	}
	return nil
}
