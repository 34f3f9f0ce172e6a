package search

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/snipkeeper/internal/common"
	"github.com/dmitrijs2005/snipkeeper/internal/logging"
	"github.com/dmitrijs2005/snipkeeper/internal/models"
	"github.com/dmitrijs2005/snipkeeper/internal/repositories"
	"github.com/dmitrijs2005/snipkeeper/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

type fixture struct {
	db    *storage.DB
	repos *repositories.SQLiteManager
}

func setup(t *testing.T) *fixture {
	t.Helper()
	db, err := storage.Open(context.Background(), storage.MemoryPath, logging.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return &fixture{db: db, repos: repositories.NewSQLiteManager(db.FullText)}
}

func (f *fixture) item(t *testing.T, label, content string, at time.Time, mod func(*models.Item)) int64 {
	t.Helper()
	it := &models.Item{
		CategoryID: 1,
		Label:      label,
		Type:       models.ContentCode,
		Content:    models.PlainText(content),
		CreatedAt:  at,
		UpdatedAt:  at,
	}
	if mod != nil {
		mod(it)
	}
	require.NoError(t, f.repos.Items(f.db).Create(context.Background(), it))
	return it.ID
}

func (f *fixture) tag(t *testing.T, name string, itemIDs ...int64) int64 {
	t.Helper()
	ctx := context.Background()
	tag := &models.Tag{Name: name, Scope: models.ScopeGlobal, CreatedAt: base}
	require.NoError(t, f.repos.Tags(f.db).Create(ctx, tag))
	for _, id := range itemIDs {
		require.NoError(t, f.repos.Tags(f.db).Attach(ctx, id, tag.ID, base))
	}
	return tag.ID
}

func (f *fixture) searcher(fullText bool) *Searcher {
	return New(f.db, f.repos, fullText, logging.NewNop())
}

func TestSearch_GitStatusExample(t *testing.T) {
	for _, fullText := range []bool{true, false} {
		f := setup(t)
		id := f.item(t, "git status", "git status", base, nil)
		f.item(t, "list", "ls -la", base, nil)

		ids, err := f.searcher(fullText).Search(context.Background(), models.Filter{Text: "git"})
		require.NoError(t, err)
		assert.Equal(t, []int64{id}, ids, "fullText=%v", fullText)
	}
}

func TestSearch_TextSkipsSensitiveContent(t *testing.T) {
	for _, fullText := range []bool{true, false} {
		f := setup(t)
		f.item(t, "token", "", base, func(it *models.Item) {
			it.Content = models.CipherText{Data: []byte("hunter2"), Nonce: []byte("n")}
		})

		ids, err := f.searcher(fullText).Search(context.Background(), models.Filter{Text: "hunter2"})
		require.NoError(t, err)
		assert.Empty(t, ids)

		ids, err = f.searcher(fullText).Search(context.Background(), models.Filter{Text: "token"})
		require.NoError(t, err)
		assert.Len(t, ids, 1)
	}
}

func TestSearch_AllTermsMustMatch(t *testing.T) {
	f := setup(t)
	both := f.item(t, "docker compose up", "docker compose up -d", base, nil)
	f.item(t, "docker ps", "docker ps", base, nil)

	for _, fullText := range []bool{true, false} {
		ids, err := f.searcher(fullText).Search(context.Background(), models.Filter{Text: "DOCKER comp"})
		require.NoError(t, err)
		assert.Equal(t, []int64{both}, ids)
	}
}

func TestSearch_OperatorsAreLiteral(t *testing.T) {
	f := setup(t)
	f.item(t, "a", "a", base, nil)

	_, err := f.searcher(true).Search(context.Background(), models.Filter{Text: `NOT "OR ( * -`})
	require.NoError(t, err)
}

func TestSearch_OrderingTieBreak(t *testing.T) {
	f := setup(t)
	old := f.item(t, "old", "x", base, nil)
	a := f.item(t, "a", "x", base.Add(time.Hour), nil)
	b := f.item(t, "b", "x", base.Add(time.Hour), nil)

	ids, err := f.searcher(true).Search(context.Background(), models.Filter{})
	require.NoError(t, err)
	assert.Equal(t, []int64{a, b, old}, ids)

	ids, err = f.searcher(true).Search(context.Background(), models.Filter{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []int64{a, b}, ids)
}

func TestSearch_StructuredCriteria(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	cat := &models.Category{Name: "Ops", CreatedAt: base}
	require.NoError(t, f.repos.Categories(f.db).Create(ctx, cat))

	fav := f.item(t, "fav", "x", base, func(it *models.Item) { it.Favorite = true })
	used := f.item(t, "used", "x", base.Add(time.Minute), func(it *models.Item) { it.UseCount = 3 })
	inCat := f.item(t, "ops", "x", base.Add(2*time.Minute), func(it *models.Item) { it.CategoryID = cat.ID })

	s := f.searcher(true)

	ids, err := s.Search(ctx, models.Filter{FavoritesOnly: true})
	require.NoError(t, err)
	assert.Equal(t, []int64{fav}, ids)

	ids, err = s.Search(ctx, models.Filter{UsedOnly: true})
	require.NoError(t, err)
	assert.Equal(t, []int64{used}, ids)

	ids, err = s.Search(ctx, models.Filter{CategoryID: cat.ID})
	require.NoError(t, err)
	assert.Equal(t, []int64{inCat}, ids)

	// From inclusive, To exclusive
	ids, err = s.Search(ctx, models.Filter{From: base.Add(time.Minute), To: base.Add(2 * time.Minute)})
	require.NoError(t, err)
	assert.Equal(t, []int64{used}, ids)

	_, err = s.Search(ctx, models.Filter{From: base, To: base})
	require.ErrorIs(t, err, common.ErrValidation)
}

func TestSearch_TagsAllMustMatch(t *testing.T) {
	f := setup(t)
	one := f.item(t, "one", "x", base, nil)
	two := f.item(t, "two", "x", base, nil)

	git := f.tag(t, "git", one, two)
	cli := f.tag(t, "cli", one)

	ids, err := f.searcher(true).Search(context.Background(), models.Filter{TagIDs: []int64{git}})
	require.NoError(t, err)
	assert.Equal(t, []int64{one, two}, ids)

	ids, err = f.searcher(true).Search(context.Background(), models.Filter{TagIDs: []int64{cli, git, cli}})
	require.NoError(t, err)
	assert.Equal(t, []int64{one}, ids)
}

func TestSearch_Area(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	cat := &models.Category{Name: "Ops", CreatedAt: base}
	require.NoError(t, f.repos.Categories(f.db).Create(ctx, cat))

	direct := f.item(t, "direct", "x", base, nil)
	viaCat := f.item(t, "via category", "x", base, func(it *models.Item) { it.CategoryID = cat.ID })
	viaTag := f.item(t, "via tag", "x", base, nil)
	f.item(t, "outside", "x", base, nil)
	tagID := f.tag(t, "infra", viaTag)

	area := &models.Area{Name: "Infra", Active: true, CreatedAt: base, UpdatedAt: base}
	ar := f.repos.Areas(f.db)
	require.NoError(t, ar.Create(ctx, area))
	for _, rel := range []models.AreaRelation{
		{AreaID: area.ID, EntityType: models.EntityItem, EntityID: direct, CreatedAt: base},
		{AreaID: area.ID, EntityType: models.EntityCategory, EntityID: cat.ID, CreatedAt: base},
		{AreaID: area.ID, EntityType: models.EntityTag, EntityID: tagID, CreatedAt: base},
	} {
		require.NoError(t, ar.AddRelation(ctx, &rel))
	}

	ids, err := f.searcher(true).Search(ctx, models.Filter{AreaID: area.ID})
	require.NoError(t, err)
	assert.Equal(t, []int64{direct, viaCat, viaTag}, ids)
}

func TestSearch_FallsBackWhenIndexBroken(t *testing.T) {
	f := setup(t)
	id := f.item(t, "git status", "git status", base, nil)

	_, err := f.db.Exec(`DROP TABLE items_fts`)
	require.NoError(t, err)

	ids, err := f.searcher(true).Search(context.Background(), models.Filter{Text: "git"})
	require.NoError(t, err)
	assert.Equal(t, []int64{id}, ids)
}

func TestBuild(t *testing.T) {
	p := Build(models.Filter{}, true)
	assert.Empty(t, p.Where)
	assert.Empty(t, p.Args)

	p = Build(models.Filter{Text: "git", FavoritesOnly: true}, true)
	assert.Contains(t, p.Where, "items_fts MATCH ?")
	assert.Contains(t, p.Where, "favorite = 1")
	assert.Equal(t, []any{`"git"*`}, p.Args)

	p = Build(models.Filter{Text: "50%"}, false)
	assert.Equal(t, []any{`%50\%%`, `%50\%%`}, p.Args)
}

func TestMatchExpr(t *testing.T) {
	assert.Equal(t, `"git"* "status"*`, MatchExpr([]string{"git", "status"}))
	assert.Equal(t, `"a""b"*`, MatchExpr([]string{`"a"b"`}))
	assert.Equal(t, ``, MatchExpr([]string{`""`}))
}
