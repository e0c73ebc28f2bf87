package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/datastore"

	nb "github.com/panyam/nodebird"
	"github.com/panyam/nodebird/config"
	"github.com/panyam/nodebird/server"
	"github.com/panyam/nodebird/stores/gae"
	gormstore "github.com/panyam/nodebird/stores/gorm"
	redisstore "github.com/panyam/nodebird/stores/redis"
	"github.com/panyam/nodebird/uploads"
)

func main() {
	config.LoadDotEnv()
	cfg, err := config.LoadConfig(os.Args[1:], os.Getenv)
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	logger := server.NewLogger(os.Stdout, cfg.IsProduction())
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	opts := server.Options{Config: cfg, Logger: logger}

	closeStores, err := openStores(ctx, cfg, &opts)
	if err != nil {
		return err
	}
	defer closeStores()

	sessionOpts := nb.SessionOptions{
		Lifetime: cfg.SessionLifetime,
		Secure:   cfg.SecureCookie,
	}
	if cfg.SessionStore == "redis" {
		client, err := redisstore.OpenPool(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer client.Close()
		sessionOpts.Store = redisstore.NewSessionStore(client)
	}
	opts.Sessions = nb.NewSessions(nb.NewSessionManager(sessionOpts))

	switch cfg.UploadStore {
	case "s3":
		store, err := uploads.NewS3(ctx, uploads.S3Config{
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Bucket:    cfg.S3Bucket,
			PublicURL: cfg.S3PublicURL,
		})
		if err != nil {
			return fmt.Errorf("s3 init error: %w", err)
		}
		opts.Uploads = store
	default:
		store, err := uploads.NewLocal(cfg.UploadDir)
		if err != nil {
			return fmt.Errorf("upload dir init error: %w", err)
		}
		opts.Uploads = store
		opts.ImageHandler = store.Handler()
	}

	app, err := server.New(opts)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           app.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	errs := make(chan error, 1)
	go func() {
		logger.Info("listening", "port", cfg.Port, "env", cfg.Env, "providers", app.Registry().Names())
		errs <- srv.ListenAndServe()
	}()

	select {
	case err := <-errs:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// openStores fills in the user and post stores for the configured driver
func openStores(ctx context.Context, cfg *config.Config, opts *server.Options) (func(), error) {
	if cfg.DBDriver == "datastore" {
		client, err := datastore.NewClient(ctx, cfg.DatastoreProject)
		if err != nil {
			return nil, fmt.Errorf("datastore init error: %w", err)
		}
		users := gae.NewUserStore(client, cfg.DatastoreNamespace)
		opts.Users = users
		opts.Posts = gae.NewPostStore(client, cfg.DatastoreNamespace, users)
		return func() { client.Close() }, nil
	}

	db, err := gormstore.Open(cfg.DBDriver, cfg.DatabaseURL, !cfg.IsProduction())
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	// create what is missing, never drop
	if err := gormstore.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("db sync error: %w", err)
	}
	opts.Users = gormstore.NewUserStore(db)
	opts.Posts = gormstore.NewPostStore(db)
	return func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	}, nil
}
