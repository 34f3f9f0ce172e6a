// Package app wires storage, the vault and the services together from a
// loaded configuration and runs the background housekeeping loop.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dmitrijs2005/snipkeeper/internal/blobstore"
	"github.com/dmitrijs2005/snipkeeper/internal/cache"
	"github.com/dmitrijs2005/snipkeeper/internal/common"
	"github.com/dmitrijs2005/snipkeeper/internal/config"
	"github.com/dmitrijs2005/snipkeeper/internal/cryptox"
	"github.com/dmitrijs2005/snipkeeper/internal/logging"
	"github.com/dmitrijs2005/snipkeeper/internal/repositories"
	"github.com/dmitrijs2005/snipkeeper/internal/scheduler"
	"github.com/dmitrijs2005/snipkeeper/internal/services"
	"github.com/dmitrijs2005/snipkeeper/internal/storage"
	"github.com/dmitrijs2005/snipkeeper/internal/vault"
	"golang.org/x/sync/errgroup"
)

type App struct {
	Config *config.Config
	Log    logging.Logger

	Items      services.ItemService
	Categories services.CategoryService
	Tags       services.TagService
	Areas      services.AreaService
	Auth       services.AuthService
	Backups    services.BackupService

	db        *storage.DB
	logCloser io.Closer
}

// Overridable in tests.
var newS3Store = func(ctx context.Context, c blobstore.S3Config) (blobstore.Store, error) {
	return blobstore.NewS3Store(ctx, c)
}

// New opens everything cfg describes. A missing or malformed key file fails
// with common.ErrEncryptionKeyMissing before the database is touched.
func New(ctx context.Context, cfg *config.Config, log logging.Logger) (*App, error) {
	var logCloser io.Closer
	if log == nil {
		l, closer, err := logging.New(logging.Options{Format: cfg.LogFormat, Level: cfg.LogLevel, File: cfg.LogFile})
		if err != nil {
			return nil, fmt.Errorf("logger init error: %w", err)
		}
		log, logCloser = l, closer
	}

	a, err := open(ctx, cfg, log)
	if err != nil {
		if logCloser != nil {
			_ = logCloser.Close()
		}
		return nil, err
	}
	a.logCloser = logCloser
	return a, nil
}

func open(ctx context.Context, cfg *config.Config, log logging.Logger) (*App, error) {
	secret, err := cryptox.LoadKeyFile(cfg.KeyFile)
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(secret)

	v, err := vault.New(secret)
	if err != nil {
		return nil, err
	}

	c, err := cache.New(cfg.CacheSize)
	if err != nil {
		return nil, err
	}

	db, err := storage.Open(ctx, cfg.DatabaseFile, logging.Component(log, "storage"))
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	deps := &services.Deps{
		DB:    db,
		Repos: repositories.NewSQLiteManager(db.FullText),
		Cache: c,
		Log:   log,
	}
	auth, err := services.NewAuthService(deps, secret)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	store, err := backupStore(ctx, cfg.Backup)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &App{
		Config:     cfg,
		Log:        log,
		Items:      services.NewItemService(deps, v),
		Categories: services.NewCategoryService(deps),
		Tags:       services.NewTagService(deps),
		Areas:      services.NewAreaService(deps),
		Auth:       auth,
		Backups:    services.NewBackupService(deps, store),
		db:         db,
	}, nil
}

func backupStore(ctx context.Context, b config.Backup) (blobstore.Store, error) {
	switch b.Target {
	case config.TargetFile:
		return blobstore.NewFileStore(b.Dir)
	case config.TargetS3:
		return newS3Store(ctx, blobstore.S3Config{
			Bucket:    b.S3.Bucket,
			Region:    b.S3.Region,
			Endpoint:  b.S3.Endpoint,
			AccessKey: b.S3.AccessKey,
			SecretKey: b.S3.SecretKey,
			Prefix:    b.S3.Prefix,
		})
	default:
		return nil, nil
	}
}

// Init creates the key file when it does not exist yet.
func Init(cfg *config.Config) (created bool, err error) {
	_, err = cryptox.LoadKeyFile(cfg.KeyFile)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, common.ErrEncryptionKeyMissing) {
		return false, err
	}
	if err := cryptox.GenerateKeyFile(cfg.KeyFile); err != nil {
		return false, err
	}
	return true, nil
}

// Housekeeping purges expired sessions and takes the configured backups
// until ctx is cancelled.
func (a *App) Housekeeping(ctx context.Context) error {
	s := scheduler.New(time.Local)
	log := logging.Component(a.Log, "housekeeping")

	purge := func() {
		if _, err := a.Auth.PurgeExpired(ctx); err != nil {
			log.Error(ctx, "session purge failed", "error", err)
		}
	}
	if _, err := s.ScheduleInterval(a.Config.HousekeepingInterval, purge); err != nil {
		return err
	}

	if a.Config.Backup.Target != config.TargetNone {
		backup := func() {
			if _, err := a.Backups.Backup(ctx); err != nil {
				log.Error(ctx, "scheduled backup failed", "error", err)
			}
		}
		if a.Config.Backup.Interval > 0 {
			if _, err := s.ScheduleInterval(a.Config.Backup.Interval, backup); err != nil {
				return err
			}
		}
		if a.Config.Backup.DailyAt != "" {
			if _, err := s.ScheduleDaily(a.Config.Backup.DailyAt, backup); err != nil {
				return err
			}
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		purge()
		return nil
	})
	g.Go(func() error {
		log.Info(ctx, "housekeeping started", "jobs", s.Len())
		s.Start()
		<-ctx.Done()
		s.Stop()
		log.Info(ctx, "housekeeping stopped")
		return nil
	})
	return g.Wait()
}

func (a *App) Close() error {
	err := a.db.Close()
	if a.logCloser != nil {
		err = errors.Join(err, a.logCloser.Close())
	}
	return err
}
