package items

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/snipkeeper/internal/common"
	"github.com/dmitrijs2005/snipkeeper/internal/dbx"
	"github.com/dmitrijs2005/snipkeeper/internal/logging"
	"github.com/dmitrijs2005/snipkeeper/internal/models"
	"github.com/dmitrijs2005/snipkeeper/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupDB(t *testing.T) *storage.DB {
	t.Helper()
	db, err := storage.Open(context.Background(), storage.MemoryPath, logging.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

var base = time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

func newItem(label, content string, at time.Time) *models.Item {
	return &models.Item{
		CategoryID: 1,
		Label:      label,
		Type:       models.ContentCode,
		Content:    models.PlainText(content),
		CreatedAt:  at,
		UpdatedAt:  at,
	}
}

func ftsMatches(t *testing.T, db *storage.DB, term string) []int64 {
	t.Helper()
	rows, err := db.Query(`SELECT rowid FROM items_fts WHERE items_fts MATCH ? ORDER BY rowid`, `"`+term+`"*`)
	require.NoError(t, err)
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		require.NoError(t, rows.Scan(&id))
		ids = append(ids, id)
	}
	require.NoError(t, rows.Err())
	return ids
}

func TestCreateAndGet_Plain(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db, db.FullText)
	ctx := context.Background()

	it := newItem("git status", "git status", base)
	require.NoError(t, r.Create(ctx, it))
	require.NotZero(t, it.ID)

	got, err := r.GetByID(ctx, it.ID)
	require.NoError(t, err)
	assert.Equal(t, "git status", got.Label)
	assert.Equal(t, models.ContentCode, got.Type)
	assert.Equal(t, models.PlainText("git status"), got.Content)
	assert.Nil(t, got.LastUsedAt)
	assert.True(t, base.Equal(got.CreatedAt))
	assert.True(t, base.Equal(got.UpdatedAt))

	assert.Equal(t, []int64{it.ID}, ftsMatches(t, db, "git"))
}

func TestCreate_CipherTextNotIndexed(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db, db.FullText)
	ctx := context.Background()

	it := newItem("token", "", base)
	it.Content = models.CipherText{Data: []byte{0xde, 0xad, 0xbe, 0xef}, Nonce: []byte{1, 2, 3}}
	require.NoError(t, r.Create(ctx, it))

	got, err := r.GetByID(ctx, it.ID)
	require.NoError(t, err)
	assert.True(t, got.Sensitive())
	assert.Equal(t, it.Content, got.Content)

	var indexed string
	require.NoError(t, db.QueryRow(`SELECT content FROM items_fts WHERE rowid = ?`, it.ID).Scan(&indexed))
	assert.Empty(t, indexed)
	assert.Equal(t, []int64{it.ID}, ftsMatches(t, db, "token"))
}

func TestCreate_UnknownCategory(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db, db.FullText)

	it := newItem("x", "y", base)
	it.CategoryID = 77
	require.ErrorIs(t, r.Create(context.Background(), it), common.ErrConstraintViolation)
}

func TestUpdate_ReindexesAndSwitchesVariant(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db, db.FullText)
	ctx := context.Background()

	it := newItem("list files", "ls -la", base)
	require.NoError(t, r.Create(ctx, it))

	it.Label = "docker ps"
	it.Content = models.PlainText("docker ps -a")
	it.UpdatedAt = base.Add(time.Hour)
	require.NoError(t, r.Update(ctx, it))

	assert.Empty(t, ftsMatches(t, db, "list"))
	assert.Equal(t, []int64{it.ID}, ftsMatches(t, db, "docker"))

	it.Content = models.CipherText{Data: []byte("sealed"), Nonce: []byte("n")}
	require.NoError(t, r.Update(ctx, it))
	got, err := r.GetByID(ctx, it.ID)
	require.NoError(t, err)
	assert.True(t, got.Sensitive())
	assert.True(t, base.Add(time.Hour).Equal(got.UpdatedAt))

	missing := newItem("x", "y", base)
	missing.ID = 999
	require.ErrorIs(t, r.Update(ctx, missing), common.ErrorNotFound)
}

func TestDelete_CascadesLinksAndIndex(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db, db.FullText)
	ctx := context.Background()

	it := newItem("git log", "git log --oneline", base)
	require.NoError(t, r.Create(ctx, it))

	_, err := db.Exec(`INSERT INTO tags (name, created_at) VALUES ('vcs', 0)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO item_tags (item_id, tag_id, created_at) VALUES (?, 1, 0)`, it.ID)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO areas (name, created_at, updated_at) VALUES ('dev', 0, 0)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO area_relations (area_id, entity_type, entity_id, created_at) VALUES (1, 'item', ?, 0)`, it.ID)
	require.NoError(t, err)

	require.NoError(t, r.Delete(ctx, it.ID))

	var links, rels int
	require.NoError(t, db.QueryRow(`SELECT count(*) FROM item_tags`).Scan(&links))
	require.NoError(t, db.QueryRow(`SELECT count(*) FROM area_relations`).Scan(&rels))
	assert.Zero(t, links)
	assert.Zero(t, rels)
	assert.Empty(t, ftsMatches(t, db, "git"))

	require.ErrorIs(t, r.Delete(ctx, it.ID), common.ErrorNotFound)
	_, err = r.GetByID(ctx, it.ID)
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestFavorites(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db, db.FullText)
	ctx := context.Background()

	n, err := r.MaxFavoriteOrder(ctx)
	require.NoError(t, err)
	assert.Equal(t, -1, n)

	a := newItem("a", "a", base)
	b := newItem("b", "b", base)
	require.NoError(t, r.Create(ctx, a))
	require.NoError(t, r.Create(ctx, b))

	require.NoError(t, r.SetFavorite(ctx, b.ID, true, 0))
	require.NoError(t, r.SetFavorite(ctx, a.ID, true, 1))

	n, err = r.MaxFavoriteOrder(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	favs, err := r.Favorites(ctx)
	require.NoError(t, err)
	require.Len(t, favs, 2)
	assert.Equal(t, b.ID, favs[0].ID)
	assert.Equal(t, a.ID, favs[1].ID)

	require.NoError(t, r.SetFavorite(ctx, b.ID, false, 5))
	got, err := r.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.False(t, got.Favorite)
	assert.Zero(t, got.FavoriteOrder)

	require.ErrorIs(t, r.SetFavorite(ctx, 999, true, 0), common.ErrorNotFound)
}

func TestRecordUse(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db, db.FullText)
	ctx := context.Background()

	it := newItem("a", "a", base)
	require.NoError(t, r.Create(ctx, it))

	used := base.Add(2 * time.Hour)
	require.NoError(t, r.RecordUse(ctx, it.ID, used))
	require.NoError(t, r.RecordUse(ctx, it.ID, used))

	got, err := r.GetByID(ctx, it.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.UseCount)
	require.NotNil(t, got.LastUsedAt)
	assert.True(t, used.Equal(*got.LastUsedAt))
	// use does not count as a modification
	assert.True(t, base.Equal(got.UpdatedAt))

	require.ErrorIs(t, r.RecordUse(ctx, 999, used), common.ErrorNotFound)
}

func TestQuery_OrderAndLimit(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db, db.FullText)
	ctx := context.Background()

	older := newItem("older", "x", base)
	tieA := newItem("tieA", "x", base.Add(time.Hour))
	tieB := newItem("tieB", "x", base.Add(time.Hour))
	for _, it := range []*models.Item{older, tieA, tieB} {
		require.NoError(t, r.Create(ctx, it))
	}

	ids, err := r.Query(ctx, "", nil, 0)
	require.NoError(t, err)
	assert.Equal(t, []int64{tieA.ID, tieB.ID, older.ID}, ids)

	ids, err = r.Query(ctx, "label LIKE ?", []any{"tie%"}, 1)
	require.NoError(t, err)
	assert.Equal(t, []int64{tieA.ID}, ids)

	ids, err = r.Query(ctx, "label = ?", []any{"nothing"}, 0)
	require.NoError(t, err)
	assert.Empty(t, ids)
	assert.NotNil(t, ids)
}

func TestGetManyAndAll(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db, db.FullText)
	ctx := context.Background()

	a := newItem("a", "a", base)
	b := newItem("b", "b", base)
	require.NoError(t, r.Create(ctx, a))
	require.NoError(t, r.Create(ctx, b))

	got, err := r.GetMany(ctx, []int64{b.ID, 999, a.ID})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, b.ID, got[0].ID)
	assert.Equal(t, a.ID, got[1].ID)

	none, err := r.GetMany(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, none)

	all, err := r.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, a.ID, all[0].ID)
}

func TestWithoutFullText_SkipsIndex(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()

	err := dbx.WithTx(ctx, db.DB, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return NewSQLiteRepository(tx, false).Create(ctx, newItem("git", "git", base))
	})
	require.NoError(t, err)
	assert.Empty(t, ftsMatches(t, db, "git"))
}

func TestCreate_RollsBackWithTx(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()

	err := dbx.WithTx(ctx, db.DB, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := NewSQLiteRepository(tx, db.FullText).Create(ctx, newItem("git", "git", base)); err != nil {
			return err
		}
		return common.ErrValidation
	})
	require.ErrorIs(t, err, common.ErrValidation)

	all, err := NewSQLiteRepository(db, db.FullText).All(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
	assert.Empty(t, ftsMatches(t, db, "git"))
}
