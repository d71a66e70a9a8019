package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/akinalp/scaffoldr/config"
	"github.com/akinalp/scaffoldr/database"
	"github.com/akinalp/scaffoldr/middleware"
	"github.com/akinalp/scaffoldr/pkg/logger"
	"github.com/akinalp/scaffoldr/ws"
)

const (
	shutdownTimeout = 15 * time.Second
	// Zip downloads of large projects outlive a short write timeout.
	writeTimeout = 5 * time.Minute
)

// runServe wires every layer together and blocks until ctx is cancelled
// or the listener fails.
func runServe(ctx context.Context) error {
	cfg, err := config.Load(true)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	log.Info("scaffoldr starting", zap.String("version", version), zap.String("addr", cfg.Server.Addr()))

	// Database
	migrations, err := fs.Sub(database.EmbeddedMigrations, "migrations")
	if err != nil {
		return err
	}
	db, err := database.New(cfg.Database.Path, migrations, log.Named("database"))
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	if err := os.MkdirAll(cfg.Generator.OutputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	repos := initRepositories(db.Conn)

	hub := ws.NewHub(log.Named("ws"))
	go hub.Run()

	store, err := openTemplateStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to open template store: %w", err)
	}

	svcs, limiters := initServices(cfg, repos, store, hub, log)
	defer limiters.Login.Close()
	defer svcs.Templates.Close()

	n, err := svcs.Templates.Sync(ctx)
	if err != nil {
		return fmt.Errorf("failed to sync template catalog: %w", err)
	}
	log.Info("template catalog synced", zap.Int("templates", n))

	if err := svcs.Generator.Recover(ctx); err != nil {
		return fmt.Errorf("failed to recover interrupted generations: %w", err)
	}
	if err := svcs.Deployments.Recover(ctx); err != nil {
		return fmt.Errorf("failed to recover interrupted deployments: %w", err)
	}

	svcs.SessionCleaner.Start()
	defer svcs.SessionCleaner.Stop()

	watcher, err := initTemplateWatcher(cfg, store, svcs.Templates, log)
	if err != nil {
		return fmt.Errorf("failed to watch templates: %w", err)
	}
	if watcher != nil {
		defer watcher.Close()
	}

	h := initHandlers(svcs, limiters, hub, log)

	mux := http.NewServeMux()
	initRoutes(mux, h, svcs.Auth, repos.User)

	handler := middleware.Logging(log.Named("http"))(newCORS(cfg.Server.CORSOrigins).Handler(mux))

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// WebSocket clients first, so they see the close frame instead of a
	// dropped connection; then stop accepting requests; then let background
	// work record its final status before the database closes.
	hub.Shutdown()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("forced HTTP shutdown", zap.Error(err))
	}
	if err := svcs.Generator.Shutdown(shutdownCtx); err != nil {
		log.Error("generator did not stop cleanly", zap.Error(err))
	}
	if err := svcs.Deployments.Shutdown(shutdownCtx); err != nil {
		log.Error("deployments did not stop cleanly", zap.Error(err))
	}

	log.Info("server stopped")
	return nil
}

// newCORS builds the CORS handler from a comma-separated origin list; "*"
// allows every origin.
func newCORS(origins string) *cors.Cors {
	opts := cors.Options{
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition", "Retry-After"},
		AllowCredentials: true,
	}

	allowed := splitOrigins(origins)
	if len(allowed) == 0 || (len(allowed) == 1 && allowed[0] == "*") {
		// A literal "*" is incompatible with credentials; echo the origin.
		opts.AllowOriginFunc = func(string) bool { return true }
	} else {
		opts.AllowedOrigins = allowed
	}

	return cors.New(opts)
}

func splitOrigins(origins string) []string {
	var out []string
	for _, o := range strings.Split(origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
