package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/snipkeeper/internal/cache"
	"github.com/dmitrijs2005/snipkeeper/internal/common"
	"github.com/dmitrijs2005/snipkeeper/internal/logging"
	"github.com/dmitrijs2005/snipkeeper/internal/repositories"
	"github.com/dmitrijs2005/snipkeeper/internal/storage"
	"github.com/dmitrijs2005/snipkeeper/internal/vault"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	c.t = t
	c.mu.Unlock()
}

func (c *clock) Advance(d time.Duration) {
	c.Set(c.Now().Add(d))
}

type env struct {
	deps  *Deps
	clock *clock
	vault *vault.Vault

	items      ItemService
	categories CategoryService
	tags       TagService
	areas      AreaService
	auth       AuthService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	return newEnvWithSecret(t, common.GenerateRandByteArray(32))
}

func newEnvWithSecret(t *testing.T, secret []byte) *env {
	t.Helper()
	ctx := context.Background()

	db, err := storage.Open(ctx, storage.MemoryPath, logging.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	c, err := cache.New(cache.DefaultSize)
	require.NoError(t, err)

	v, err := vault.New(secret)
	require.NoError(t, err)

	clk := &clock{t: t0}
	deps := &Deps{
		DB:    db,
		Repos: repositories.NewSQLiteManager(db.FullText),
		Cache: c,
		Log:   logging.NewNop(),
		Now:   clk.Now,
	}
	auth, err := NewAuthService(deps, secret)
	require.NoError(t, err)

	return &env{
		deps:       deps,
		clock:      clk,
		vault:      v,
		items:      NewItemService(deps, v),
		categories: NewCategoryService(deps),
		tags:       NewTagService(deps),
		areas:      NewAreaService(deps),
		auth:       auth,
	}
}
