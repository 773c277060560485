// @title PeerMatch Availability API
// @version 1.0
// @description Weekly availability of volunteers and participants for peer-support matching

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/cors"
	"go.uber.org/zap"

	_ "PEERMATCH_BACK-END/docs" // This is required for swagger
	"PEERMATCH_BACK-END/internal/config"
	"PEERMATCH_BACK-END/internal/handlers"
	"PEERMATCH_BACK-END/internal/middleware"
	"PEERMATCH_BACK-END/internal/repository"
	"PEERMATCH_BACK-END/internal/routes"
	"PEERMATCH_BACK-END/internal/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(cfg.Log.IsProduction(), cfg.Log.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)
	for _, w := range cfg.Warnings {
		logger.Warn(w)
	}

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	pool, err := connect(cfg, logger)
	if err != nil {
		return err
	}
	defer pool.Close()

	{
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Database.QueryTimeout)
		defer cancel()
		if err := repository.Migrate(ctx, pool, logger); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	// --- HTTP Handlers ---
	availabilityRepo := repository.NewAvailabilityRepository(pool, cfg.Database.QueryTimeout)
	notificationRepo := repository.NewNotificationRepository(pool, cfg.Database.QueryTimeout)

	notificationsHandler := handlers.NewNotificationsHandler(notificationRepo, logger)
	mux := http.NewServeMux()
	routes.SetupRoutes(mux, routes.Handlers{
		Health:        handlers.NewHealthHandler(pool),
		Availability:  handlers.NewAvailabilityHandler(availabilityRepo, notificationsHandler.Service(), logger),
		Notifications: notificationsHandler,
	}, cfg)

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   cfg.CORS.AllowedMethods,
		AllowedHeaders:   cfg.CORS.AllowedHeaders,
		AllowCredentials: cfg.CORS.AllowCredentials,
	})

	var handler http.Handler = mux
	handler = middleware.RateLimit(cfg.RateLimit, logger)(handler)
	handler = c.Handler(handler)
	handler = middleware.RequestLogger(logger)(handler)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           handler,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", zap.String("addr", srv.Addr), zap.Bool("swagger", cfg.SwaggerEnabled))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case sig := <-quit:
		logger.Info("shutting down server", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

func connect(cfg *config.Config, logger *zap.Logger) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	// Simple protocol is required behind PgBouncer in transaction mode
	poolCfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol
	poolCfg.ConnConfig.RuntimeParams["application_name"] = "peermatch-backend"
	poolCfg.ConnConfig.RuntimeParams["statement_timeout"] = strconv.FormatInt(cfg.Database.QueryTimeout.Milliseconds(), 10)
	poolCfg.MaxConns = cfg.Database.MaxConns
	poolCfg.MinConns = cfg.Database.MinConns
	poolCfg.MaxConnLifetime = cfg.Database.MaxLifetime

	pool, err := pgxpool.NewWithConfig(context.Background(), poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	logger.Info("connected to database",
		zap.String("host", cfg.Database.Host),
		zap.String("database", cfg.Database.Name))
	return pool, nil
}
