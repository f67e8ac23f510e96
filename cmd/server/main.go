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

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"nutritrack/internal/config"
	"nutritrack/internal/db"
	"nutritrack/internal/handlers"
	mw "nutritrack/internal/middleware"
	"nutritrack/internal/realtime"
	"nutritrack/internal/services"
	"nutritrack/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	logger, err := config.NewLogger(cfg.Env)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (store.Store, func(), error) {
	if cfg.DatabaseURL == "" {
		logger.Warn("DATABASE_URL not set; using in-memory store, data is lost on restart")
		return store.NewMemory(), func() {}, nil
	}
	conn, err := sqlx.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("open db: %w", err)
	}
	conn.SetMaxOpenConns(10)
	conn.SetConnMaxLifetime(2 * time.Hour)
	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("ping db: %w", err)
	}
	if err := db.RunMigrations(ctx, conn); err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("migrations: %w", err)
	}
	return store.NewPostgres(conn), func() { _ = conn.Close() }, nil
}

func run(cfg *config.Config, logger *zap.Logger) error {
	startCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	st, closeStore, err := openStore(startCtx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	var enc *services.EncryptionService
	if len(cfg.NotesKey) > 0 {
		if enc, err = services.NewEncryptionService(cfg.NotesKey); err != nil {
			return fmt.Errorf("notes encryption: %w", err)
		}
	} else {
		logger.Warn("NOTES_ENCRYPTION_KEY not set; notes are stored in plain text")
	}

	hub := realtime.NewHub(logger, cfg.AllowedOrigins)
	progress := services.NewProgressService(st, enc, logger)
	achievements := services.NewAchievementService(st, hub, cfg.Rules, logger)
	streaks := services.NewStreakService(st, achievements, cfg.Rules, logger)
	profiles := services.NewProfileService(st, cfg.Targets, logger)
	meals := services.NewMealService(st, progress, logger)
	tracker := services.NewTracker(profiles, progress, streaks, achievements, st, logger)

	authMW := mw.NewAuthMiddleware(cfg.JWTSecret)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(mw.ZapRequestLogger(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Route("/api", func(api chi.Router) {
		handlers.Mount(api, handlers.Services{
			Progress:     progress,
			Streaks:      streaks,
			Achievements: achievements,
			Profiles:     profiles,
			Meals:        meals,
			Tracker:      tracker,
			Hub:          hub,
		}, authMW.RequireAuth, logger)
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Info("shutdown initiated", zap.String("signal", sig.String()))
	}

	ctx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}
