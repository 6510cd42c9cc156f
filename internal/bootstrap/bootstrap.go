// Package bootstrap provides dependency initialization for the SoundStory server.
package bootstrap

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/Adweery/soundstory-app-nnkocz/internal/catalog"
	"github.com/Adweery/soundstory-app-nnkocz/internal/classifier"
	"github.com/Adweery/soundstory-app-nnkocz/internal/config"
	"github.com/Adweery/soundstory-app-nnkocz/internal/engine"
	"github.com/Adweery/soundstory-app-nnkocz/internal/session"
	"github.com/Adweery/soundstory-app-nnkocz/internal/storage"
)

// Dependencies holds all initialized dependencies for the HTTP server.
type Dependencies struct {
	SessionService *session.Service
}

// NewDependencies creates and initializes all dependencies for the application.
func NewDependencies(cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	store, err := initStorage(cfg, logger)
	if err != nil {
		return nil, err
	}

	cat, err := initCatalog(cfg, logger)
	if err != nil {
		return nil, err
	}

	cls, err := classifier.NewClient(cfg.ClassifierEndpoint,
		classifier.WithAPIKey(cfg.ClassifierAPIKey),
		classifier.WithMaxRetries(cfg.ClassifierRetries),
	)
	if err != nil {
		return nil, fmt.Errorf("create classifier client: %w", err)
	}

	repo := session.NewMemoryRepository()

	// Each session gets its own engine over a fresh mix output; playback
	// state is never shared between sessions.
	factory := func() *engine.Manager {
		return engine.NewManager(engine.NewMixOutput(cat), logger)
	}

	svc := session.NewService(repo, store, cls, factory, logger)

	return &Dependencies{
		SessionService: svc,
	}, nil
}

// initStorage creates the appropriate log store backend based on configuration.
func initStorage(cfg *config.Config, logger *slog.Logger) (storage.LogStore, error) {
	if cfg.S3Enabled() {
		s3Cfg := storage.S3Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
		}
		s3Store, err := storage.NewS3Store(cfg.DataDir, s3Cfg)
		if err != nil {
			return nil, fmt.Errorf("create S3 log store: %w", err)
		}
		logger.Info("S3 log archival configured",
			slog.String("bucket", cfg.S3Bucket),
			slog.String("region", cfg.S3Region),
		)
		return s3Store, nil
	}

	localStore, err := storage.NewLocalStore(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("create local log store: %w", err)
	}
	logger.Info("local log store configured",
		slog.String("data_dir", cfg.DataDir),
	)
	return localStore, nil
}

// initCatalog loads the track catalog from CATALOG_PATH when set, and falls
// back to the builtin catalog covering every selectable track.
func initCatalog(cfg *config.Config, logger *slog.Logger) (*catalog.Catalog, error) {
	if cfg.CatalogPath == "" {
		cat := catalog.NewBuiltin()
		logger.Info("builtin track catalog loaded",
			slog.Int("tracks", cat.Len()),
		)
		return cat, nil
	}

	f, err := os.Open(cfg.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("open catalog file: %w", err)
	}
	defer f.Close()

	cat, err := catalog.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse catalog file %s: %w", cfg.CatalogPath, err)
	}
	logger.Info("track catalog loaded",
		slog.String("path", cfg.CatalogPath),
		slog.Int("tracks", cat.Len()),
	)
	return cat, nil
}
