package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"

	"github.com/inamate/collage/internal/auth"
	"github.com/inamate/collage/internal/collage"
	"github.com/inamate/collage/internal/config"
	"github.com/inamate/collage/internal/db"
	"github.com/inamate/collage/internal/live"
	mw "github.com/inamate/collage/internal/middleware"
	"github.com/inamate/collage/internal/photo"
	"github.com/inamate/collage/internal/store"
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))

	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := openStore(ctx, cfg)
	if err != nil {
		slog.Error("open store", "error", err, "store", cfg.Store)
		os.Exit(1)
	}
	defer st.Close()

	authService := auth.NewService(st, cfg.JWTSecret)
	authHandler := auth.NewHandler(authService)

	collageService := collage.NewService(st, st)
	collageHandler := collage.NewHandler(collageService)

	photoHandler := photo.NewHandler(cfg.PhotoDir)

	hub := live.NewHub()
	go hub.Run()
	liveHandler := live.NewHandler(hub, authService, collageService, cfg.Engine, cfg.Origins())

	r := mux.NewRouter()

	// Global middleware
	r.Use(mw.Recovery)
	r.Use(mw.Logger)

	// Auth routes (public)
	r.HandleFunc("/auth/register", authHandler.Register).Methods("POST")
	r.HandleFunc("/auth/login", authHandler.Login).Methods("POST")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status":"ok","sessions":%d}`, hub.Count())
	}).Methods("GET")

	// Template catalog (public)
	r.HandleFunc("/templates", collageHandler.Templates).Methods("GET")
	r.HandleFunc("/templates/{templateId}", collageHandler.Template).Methods("GET")

	// Photos: anyone may fetch, uploads and deletes need an account
	r.Handle("/photos/upload", authService.AuthMiddleware(http.HandlerFunc(photoHandler.Upload))).Methods("POST")
	r.Handle("/photos/{photoId}", authService.AuthMiddleware(http.HandlerFunc(photoHandler.Remove))).Methods("DELETE")
	r.PathPrefix("/photos/").Handler(photoHandler.Serve()).Methods("GET")

	// Protected API routes
	api := r.PathPrefix("/api").Subrouter()
	api.Use(authService.AuthMiddleware)

	api.HandleFunc("/me", authHandler.Me).Methods("GET")
	api.HandleFunc("/account/upgrade", authHandler.Upgrade).Methods("POST")
	api.HandleFunc("/collages", collageHandler.List).Methods("GET")
	api.HandleFunc("/collages", collageHandler.Create).Methods("POST")
	api.HandleFunc("/collages/{collageId}", collageHandler.Get).Methods("GET")
	api.HandleFunc("/collages/{collageId}", collageHandler.Delete).Methods("DELETE")

	// WebSocket editing session
	r.HandleFunc("/ws/edit", liveHandler.ServeWS).Methods("GET")

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      mw.CORS(cfg.Origins())(r),
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

		// Close editing sessions first so clients see a clean going-away.
		hub.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("server starting", "addr", addr, "store", cfg.Store)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.Store {
	case "memory":
		return store.NewMemory(), nil
	case "postgres":
		pool, err := db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		pg := store.NewPostgres(pool)
		if err := pg.Migrate(ctx); err != nil {
			pg.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		return pg, nil
	case "sqlite":
		if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
		lite, err := store.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return lite, nil
	default:
		return nil, fmt.Errorf("unknown store %q (want memory, postgres or sqlite)", cfg.Store)
	}
}
