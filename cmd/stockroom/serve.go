package main

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/erazemk/stockroom/internal/api"
	"github.com/erazemk/stockroom/internal/auth"
	"github.com/erazemk/stockroom/internal/config"
	"github.com/erazemk/stockroom/internal/db"
	"github.com/erazemk/stockroom/internal/metrics"
	"github.com/erazemk/stockroom/internal/model"
	"github.com/erazemk/stockroom/internal/store"
	"github.com/erazemk/stockroom/internal/web"
)

// purgeInterval is how often expired revoked tokens are deleted.
const purgeInterval = time.Hour

func serveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server and web interface",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd, a.cfg)
		},
	}
}

func serve(cmd *cobra.Command, cfg *config.Config) error {
	closeLog, err := setupLogger(cmd.OutOrStdout(), cmd.ErrOrStderr(), slog.LevelInfo, cfg.Server.Log)
	if err != nil {
		return err
	}
	defer closeLog()

	dbPath := cfg.Server.DB

	// Check if DB exists, auto-init if not.
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		database, password, err := initDatabase(dbPath, cfg.Server.AdminUser)
		if err != nil {
			return fmt.Errorf("initializing database: %w", err)
		}
		database.Close()

		printInitResult(cmd.OutOrStdout(), dbPath, cfg.Server.AdminUser, password)
		fmt.Fprintln(cmd.OutOrStdout())
	}

	database, err := db.Open(dbPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	// Ensure schema exists (idempotent).
	if err := db.EnsureSchema(database); err != nil {
		return fmt.Errorf("ensuring database schema: %w", err)
	}
	slog.Info("database ready", "path", dbPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load JWT secret from database (auto-generated on first run).
	jwtSecret, err := store.GetJWTSecret(ctx, database)
	if err != nil {
		return fmt.Errorf("getting JWT secret: %w", err)
	}

	collections, closeCollections, err := openCollections(ctx, cfg.Server, database)
	if err != nil {
		return err
	}
	defer closeCollections()
	observeStored(ctx, collections)

	handler, err := newHandler(cfg, database, collections, jwtSecret)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go purgeRevokedTokens(ctx, database, purgeInterval)

	// Graceful shutdown on SIGINT/SIGTERM.
	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server forced to shutdown", "error", err)
		}
	}()

	slog.Info("server started", "addr", cfg.Server.Addr, "backend", cfg.Server.Backend)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}

	slog.Info("server stopped, closing database")
	return nil
}

// newHandler combines the API and page routers. API routes take priority,
// web routes handle the rest.
func newHandler(cfg *config.Config, database *sql.DB, collections store.Collections, jwtSecret string) (http.Handler, error) {
	apiRouter := api.NewRouter(api.Config{
		DB:          database,
		Collections: collections,
		JWTSecret:   jwtSecret,
		TokenTTL:    cfg.Server.TokenTTL,
	})
	webRouter, err := web.NewRouter(web.Config{
		DB:          database,
		Collections: collections,
		JWTSecret:   jwtSecret,
		TokenTTL:    cfg.Server.TokenTTL,
		Stores:      cfg.Stores,
	})
	if err != nil {
		return nil, fmt.Errorf("setting up web router: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/api/", apiRouter)
	mux.Handle("/healthz", apiRouter)
	mux.Handle("/metrics", apiRouter)
	mux.Handle("/", webRouter)

	return api.LoggingMiddleware(metrics.Middleware(mux)), nil
}

// openCollections returns the collection backend selected by cfg and a
// function that releases it.
func openCollections(ctx context.Context, cfg config.ServerConfig, database *sql.DB) (store.Collections, func(), error) {
	switch cfg.Backend {
	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("connecting to redis at %s: %w", cfg.Redis.Addr, err)
		}
		slog.Info("using redis collections", "addr", cfg.Redis.Addr, "prefix", cfg.Redis.Prefix)
		return store.NewRedisCollections(client, cfg.Redis.Prefix), func() { client.Close() }, nil
	default:
		return store.NewSQLCollections(database), func() {}, nil
	}
}

// observeStored seeds the collection gauges so they are right before the
// first write.
func observeStored(ctx context.Context, c store.Collections) {
	snap, err := store.SessionStore{C: c}.Load(ctx)
	if err != nil {
		slog.Warn("could not read collections for metrics", "error", err)
	}
	metrics.ObserveInventory(snap.Inventory)
	metrics.ObserveLength(model.CollectionRemovals, len(snap.Removals))
	metrics.ObserveLength(model.CollectionActivity, len(snap.Activity))
}

// purgeRevokedTokens deletes expired revocations every interval until ctx
// is done.
func purgeRevokedTokens(ctx context.Context, database *sql.DB, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			n, err := store.PurgeRevokedTokens(ctx, database, now)
			if err != nil {
				slog.Error("failed to purge revoked tokens", "error", err)
				continue
			}
			if n > 0 {
				slog.Info("purged revoked tokens", "count", n)
			}
		}
	}
}

// initDatabase creates a new database, ensures the schema, and creates the admin user.
func initDatabase(path, adminUsername string) (*sql.DB, string, error) {
	database, err := db.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("opening database: %w", err)
	}

	fail := func(err error) (*sql.DB, string, error) {
		database.Close()
		os.Remove(path)
		return nil, "", err
	}

	if err := db.EnsureSchema(database); err != nil {
		return fail(fmt.Errorf("ensuring schema: %w", err))
	}

	password, err := generatePassword(16)
	if err != nil {
		return fail(fmt.Errorf("generating password: %w", err))
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fail(fmt.Errorf("hashing password: %w", err))
	}

	if _, err := store.CreateUser(context.Background(), database, adminUsername, hash, model.RoleAdmin); err != nil {
		return fail(fmt.Errorf("creating admin user: %w", err))
	}

	return database, password, nil
}

// printInitResult prints the database initialization result.
func printInitResult(w io.Writer, dbPath, username, password string) {
	fmt.Fprintf(w, "Database created: %s\n", dbPath)
	fmt.Fprintln(w, "Schema initialized.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Admin account created:")
	fmt.Fprintf(w, "  Username: %s\n", username)
	fmt.Fprintf(w, "  Password: %s\n", password)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Save this password, it cannot be recovered.")
	fmt.Fprintln(w, "The admin can change it after logging in.")
}

// generatePassword creates a random password of the given length.
func generatePassword(length int) (string, error) {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%&*"
	result := make([]byte, length)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		result[i] = charset[n.Int64()]
	}
	return string(result), nil
}
