package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmitrijs2005/snipkeeper/internal/blobstore"
	"github.com/dmitrijs2005/snipkeeper/internal/common"
	"github.com/dmitrijs2005/snipkeeper/internal/config"
	"github.com/dmitrijs2005/snipkeeper/internal/logging"
	"github.com/dmitrijs2005/snipkeeper/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		DataDir:              dir,
		DatabaseFile:         filepath.Join(dir, "snipkeeper.db"),
		KeyFile:              filepath.Join(dir, "snipkeeper.key"),
		SessionFile:          filepath.Join(dir, "session"),
		LogFormat:            "text",
		LogLevel:             "error",
		CacheSize:            16,
		HousekeepingInterval: time.Second,
		Backup:               config.Backup{Dir: filepath.Join(dir, "backups")},
	}
}

func TestNew_MissingKeyIsFatal(t *testing.T) {
	cfg := testConfig(t)
	_, err := New(context.Background(), cfg, logging.NewNop())
	require.ErrorIs(t, err, common.ErrEncryptionKeyMissing)
	assert.NoFileExists(t, cfg.DatabaseFile)
}

func TestInit(t *testing.T) {
	cfg := testConfig(t)

	created, err := Init(cfg)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = Init(cfg)
	require.NoError(t, err)
	assert.False(t, created)
}

func TestNew_EndToEnd(t *testing.T) {
	cfg := testConfig(t)
	cfg.Backup.Target = config.TargetFile
	_, err := Init(cfg)
	require.NoError(t, err)
	ctx := context.Background()

	a, err := New(ctx, cfg, nil)
	require.NoError(t, err)

	require.NoError(t, a.Auth.Setup(ctx, []byte("pw")))
	sess, err := a.Auth.Authenticate(ctx, []byte("pw"))
	require.NoError(t, err)

	v, err := a.Items.Create(ctx, services.ItemInput{Label: "secret", Value: "s3cr3t", Sensitive: true})
	require.NoError(t, err)
	name, err := a.Backups.Backup(ctx)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(cfg.Backup.Dir, name))
	require.NoError(t, a.Close())

	// Reopening with the same key file reads the sealed value back.
	a, err = New(ctx, cfg, logging.NewNop())
	require.NoError(t, err)
	defer a.Close()

	_, err = a.Auth.Validate(ctx, sess.Token)
	require.NoError(t, err)
	got, err := a.Items.Get(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, "s3cr3t", got.Value)
}

func TestBackupStoreSelection(t *testing.T) {
	ctx := context.Background()

	s, err := backupStore(ctx, config.Backup{})
	require.NoError(t, err)
	assert.Nil(t, s)

	s, err = backupStore(ctx, config.Backup{Target: config.TargetFile, Dir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &blobstore.FileStore{}, s)

	orig := newS3Store
	t.Cleanup(func() { newS3Store = orig })
	var got blobstore.S3Config
	newS3Store = func(ctx context.Context, c blobstore.S3Config) (blobstore.Store, error) {
		got = c
		return blobstore.NewS3StoreWithClient(nil, c.Bucket, c.Prefix), nil
	}
	_, err = backupStore(ctx, config.Backup{Target: config.TargetS3, S3: config.S3{Bucket: "b", Region: "eu-west-1", Prefix: "p"}})
	require.NoError(t, err)
	assert.Equal(t, "b", got.Bucket)
	assert.Equal(t, "eu-west-1", got.Region)
}

func TestHousekeepingStopsOnCancel(t *testing.T) {
	cfg := testConfig(t)
	cfg.Backup.Target = config.TargetFile
	cfg.Backup.Interval = time.Second
	_, err := Init(cfg)
	require.NoError(t, err)

	a, err := New(context.Background(), cfg, logging.NewNop())
	require.NoError(t, err)
	defer a.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Housekeeping(ctx) }()

	require.Eventually(t, func() bool {
		names, err := a.Backups.List(context.Background())
		return err == nil && len(names) > 0
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("housekeeping did not stop")
	}
}
