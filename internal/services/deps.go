// Package services holds the application services used by the command line
// controller. Every write runs in one transaction and clears the filter
// cache once it has committed.
package services

import (
	"context"
	"time"

	"github.com/dmitrijs2005/snipkeeper/internal/cache"
	"github.com/dmitrijs2005/snipkeeper/internal/dbx"
	"github.com/dmitrijs2005/snipkeeper/internal/logging"
	"github.com/dmitrijs2005/snipkeeper/internal/repositories"
	"github.com/dmitrijs2005/snipkeeper/internal/storage"
)

// Deps are the collaborators shared by the services. Now defaults to
// time.Now.
type Deps struct {
	DB    *storage.DB
	Repos repositories.Manager
	Cache *cache.FilterCache
	Log   logging.Logger
	Now   func() time.Time
}

func (d *Deps) now() time.Time {
	if d.Now == nil {
		return time.Now().UTC()
	}
	return d.Now().UTC()
}

// write runs fn in a transaction and invalidates the cache after commit.
func (d *Deps) write(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error {
	if err := dbx.WithTx(ctx, d.DB.DB, nil, fn); err != nil {
		return err
	}
	if d.Cache != nil {
		d.Cache.Invalidate()
	}
	return nil
}
