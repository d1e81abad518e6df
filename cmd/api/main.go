package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gofinapi/finapi/internal/config"
	"github.com/gofinapi/finapi/internal/handler"
	"github.com/gofinapi/finapi/internal/logging"
	"github.com/gofinapi/finapi/internal/middleware"
	"github.com/gofinapi/finapi/internal/repository"
	"github.com/gofinapi/finapi/internal/service"
	"github.com/gofinapi/finapi/internal/service/statement"
)

func main() {
	// .env is optional; real deployments configure through the environment
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logging.Init("finapi", cfg.LogLevel, cfg.AppEnv)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	db, err := repository.NewPostgresDB(ctx, cfg.DatabaseURL, repository.PoolConfig{
		MaxOpenConns:     cfg.DBMaxOpenConns,
		MaxIdleConns:     cfg.DBMaxIdleConns,
		ConnMaxLifetimeS: cfg.DBConnMaxLifetimeS,
		ConnMaxIdleTimeS: cfg.DBConnMaxIdleTimeS,
	})
	cancel()
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	userRepo := repository.NewUserRepository(db)
	statementRepo := repository.NewStatementRepository(db)

	userSvc := service.NewUserService(userRepo)
	statementSvc := statement.NewService(userRepo, statementRepo, db)

	healthHandler := handler.NewHealthHandler(db)
	authHandler := handler.NewAuthHandler(userRepo, cfg.JWTSecret, cfg.JWTExpiry)
	userHandler := handler.NewUserHandler(userSvc)
	statementHandler := handler.NewStatementHandler(statementSvc)

	authed := middleware.Auth(cfg.JWTSecret)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", healthHandler.Liveness)
	mux.HandleFunc("GET /health/ready", healthHandler.Readiness)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("POST /api/v1/users", userHandler.Register)
	mux.HandleFunc("POST /api/v1/sessions", authHandler.Login)
	mux.Handle("GET /api/v1/profile", authed(http.HandlerFunc(userHandler.Profile)))

	mux.Handle("POST /api/v1/statements/deposit", authed(http.HandlerFunc(statementHandler.Deposit)))
	mux.Handle("POST /api/v1/statements/withdraw", authed(http.HandlerFunc(statementHandler.Withdraw)))
	mux.Handle("POST /api/v1/statements/transfers/{user_id}", authed(http.HandlerFunc(statementHandler.Transfer)))
	mux.Handle("GET /api/v1/statements/balance", authed(http.HandlerFunc(statementHandler.Balance)))
	mux.Handle("GET /api/v1/statements/{statement_id}", authed(http.HandlerFunc(statementHandler.GetOperation)))

	root := middleware.Tracing(middleware.Metrics(middleware.Logging(middleware.Recovery(mux))))

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           root,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("server started", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
