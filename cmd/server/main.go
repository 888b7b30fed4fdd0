package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/sanaol/canteen/internal/config"
	"github.com/sanaol/canteen/internal/database"
	"github.com/sanaol/canteen/internal/gateway"
	"github.com/sanaol/canteen/internal/logger"
	"github.com/sanaol/canteen/internal/router"
	"github.com/sanaol/canteen/internal/session"
	"github.com/sanaol/canteen/internal/storage"
	"github.com/sanaol/canteen/internal/ws"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck
	// Handlers fall back to the global logger when a response cannot be encoded.
	defer zap.ReplaceGlobals(log)()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	rdb, err := session.DialRedis(ctx, cfg.RedisURL)
	if err != nil {
		return err
	}
	defer rdb.Close()
	carts := session.NewRedisStore(rdb, "canteen:", cfg.CartTTL)

	var images storage.ImageStore
	if cfg.S3Bucket != "" {
		s3Store, err := storage.NewS3Store(ctx, cfg.S3Bucket, cfg.S3Region, cfg.S3PublicBaseURL)
		if err != nil {
			return err
		}
		images = s3Store
	} else {
		log.Info("S3_BUCKET not set, menu image uploads disabled")
	}

	hub := ws.NewHub(log.Named("ws"))
	go hub.Run(ctx)

	r := router.New(cfg, database.New(pool), pool, hub, router.Options{
		Carts:   carts,
		Images:  images,
		Gateway: gateway.NewRedirect(cfg.GatewayBaseURL, cfg.GatewaySecret),
		Logger:  log,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
