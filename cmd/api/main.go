package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/edu-center/site-api/internal/config"
	"github.com/edu-center/site-api/internal/server"
	"github.com/edu-center/site-api/internal/store"
	"github.com/edu-center/site-api/internal/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("reading config: %v", err)
	}
	logger := server.NewLogger(cfg)

	db, err := store.NewGormStore(cfg.DatabaseURL, logger)
	if err != nil {
		logger.Fatalf("creating database client: %v", err)
	}
	defer db.Close()

	if err := db.DeleteExpiredTokens(context.Background()); err != nil {
		logger.WithError(err).Warn("failed to prune expired refresh tokens")
	}

	storage, err := newStorage(cfg)
	if err != nil {
		logger.Fatalf("creating storage: %v", err)
	}

	srv := server.NewServer(cfg, db, storage, logger).NewHTTPServer()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.WithFields(log.Fields{"addr": cfg.BindAddr, "env": cfg.Env, "storage": cfg.StorageDriver}).
			Info("starting site api")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("listen: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("graceful shutdown failed")
	}
}

func newStorage(cfg *config.Config) (utils.Storage, error) {
	if cfg.StorageDriver == config.StorageR2 {
		return utils.NewR2Storage(cfg.R2AccessKeyID, cfg.R2SecretAccessKey, cfg.R2Endpoint, cfg.R2BucketName, cfg.R2PublicURL), nil
	}
	return utils.NewFileStorage(cfg.UploadDir, "/uploads")
}
