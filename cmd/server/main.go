package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/wellschematic/wellschematic/internal/auth"
	"github.com/wellschematic/wellschematic/internal/collab"
	"github.com/wellschematic/wellschematic/internal/config"
	"github.com/wellschematic/wellschematic/internal/db"
	"github.com/wellschematic/wellschematic/internal/export"
	mw "github.com/wellschematic/wellschematic/internal/middleware"
	"github.com/wellschematic/wellschematic/internal/render"
	"github.com/wellschematic/wellschematic/internal/schema"
	"github.com/wellschematic/wellschematic/internal/well"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel(cfg.LogLevel)})))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var store well.Store
	if cfg.DatabaseURL != "" {
		pool, err := db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			slog.Error("connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		pgStore, err := well.NewPostgresStore(ctx, pool)
		if err != nil {
			slog.Error("prepare well store", "error", err)
			os.Exit(1)
		}
		store = pgStore
	} else {
		slog.Warn("DATABASE_URL not set, wells are kept in memory")
		store = well.NewMemoryStore()
	}

	mode := schema.Lenient
	if cfg.StrictFields {
		mode = schema.Strict
	}

	authService := auth.NewService(cfg.JWTSecret, cfg.APIKeyHash)
	if !authService.Enabled() {
		slog.Warn("JWT_SECRET not set, API is unauthenticated")
	}
	authHandler := auth.NewHandler(authService)

	wellService := well.NewService(store, mode)
	hub := collab.NewHub(wellService.Schema)
	wellService.SetNotifier(hub)
	go hub.Run()

	image := render.DefaultOptions()
	image.Width, image.Height = cfg.RenderWidth, cfg.RenderHeight

	wellHandler := well.NewHandler(wellService, image)
	exportHandler := export.NewHandler(mode, image)

	origins := mw.SplitOrigins(cfg.AllowedOrigins)

	r := mux.NewRouter()

	// Global middleware
	r.Use(mw.Recovery)
	r.Use(mw.Logger)
	r.Use(mw.CORS(origins))

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Token exchange (public)
	r.HandleFunc("/auth/token", authHandler.Token).Methods("POST", "OPTIONS")

	// Stateless rendering (public)
	r.HandleFunc("/render", exportHandler.Render).Methods("POST", "OPTIONS")
	r.HandleFunc("/render/png", exportHandler.RenderPNG).Methods("POST", "OPTIONS")

	// Protected API routes
	api := r.PathPrefix("/api").Subrouter()
	api.Use(authService.AuthMiddleware)
	wellHandler.Routes(api)

	// WebSocket endpoint
	r.HandleFunc("/ws/wells/{wellId}", hub.ServeWS(authService, mw.OriginHosts(origins)))

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server")
		hub.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("server starting", "addr", addr, "mode", mode, "auth", authService.Enabled())
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func logLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
