package tags

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/snipkeeper/internal/common"
	"github.com/dmitrijs2005/snipkeeper/internal/dbx"
	"github.com/dmitrijs2005/snipkeeper/internal/models"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const selectColumns = `SELECT t.id, t.name, t.color, t.scope, t.scope_id, t.created_at FROM tags t`

type scanner interface {
	Scan(dest ...any) error
}

func scanTag(s scanner, extra ...any) (*models.Tag, error) {
	var (
		t       models.Tag
		scope   string
		created int64
	)
	dest := append([]any{&t.ID, &t.Name, &t.Color, &scope, &t.ScopeID, &created}, extra...)
	if err := s.Scan(dest...); err != nil {
		return nil, err
	}
	t.Scope = models.TagScope(scope)
	t.CreatedAt = dbx.FromUnix(created)
	return &t, nil
}

func (r *SQLiteRepository) Create(ctx context.Context, t *models.Tag) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO tags (name, color, scope, scope_id, created_at) VALUES (?, ?, ?, ?, ?)`,
		t.Name, t.Color, string(t.Scope), t.ScopeID, dbx.ToUnix(t.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to insert tag: %w", dbx.Classify(err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get tag id: %w", err)
	}
	t.ID = id
	return nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id int64) (*models.Tag, error) {
	t, err := scanTag(r.db.QueryRowContext(ctx, selectColumns+` WHERE t.id = ?`, id))
	if err != nil {
		return nil, fmt.Errorf("tag %d: %w", id, dbx.Classify(err))
	}
	return t, nil
}

func (r *SQLiteRepository) GetByName(ctx context.Context, name string, scope models.TagScope, scopeID int64) (*models.Tag, error) {
	t, err := scanTag(r.db.QueryRowContext(ctx,
		selectColumns+` WHERE t.name = ? AND t.scope = ? AND t.scope_id = ?`, name, string(scope), scopeID))
	if err != nil {
		return nil, fmt.Errorf("tag %q: %w", name, dbx.Classify(err))
	}
	return t, nil
}

func (r *SQLiteRepository) List(ctx context.Context) ([]models.Tag, error) {
	return r.list(ctx, selectColumns+` ORDER BY t.name, t.id`)
}

func (r *SQLiteRepository) TagsForItem(ctx context.Context, itemID int64) ([]models.Tag, error) {
	return r.list(ctx, selectColumns+` JOIN item_tags it ON it.tag_id = t.id WHERE it.item_id = ? ORDER BY t.name, t.id`, itemID)
}

func (r *SQLiteRepository) list(ctx context.Context, query string, args ...any) ([]models.Tag, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select tags: %w", err)
	}
	defer rows.Close()

	var result []models.Tag
	for rows.Next() {
		t, err := scanTag(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) Update(ctx context.Context, t *models.Tag) error {
	res, err := r.db.ExecContext(ctx, `UPDATE tags SET name = ?, color = ? WHERE id = ?`, t.Name, t.Color, t.ID)
	if err != nil {
		return fmt.Errorf("failed to update tag: %w", dbx.Classify(err))
	}
	if err := dbx.RequireAffected(res); err != nil {
		return fmt.Errorf("tag %d: %w", t.ID, err)
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tags WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete tag: %w", dbx.Classify(err))
	}
	if err := dbx.RequireAffected(res); err != nil {
		return fmt.Errorf("tag %d: %w", id, err)
	}
	return nil
}

func (r *SQLiteRepository) Attach(ctx context.Context, itemID, tagID int64, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO item_tags (item_id, tag_id, created_at) VALUES (?, ?, ?)
		ON CONFLICT (item_id, tag_id) DO NOTHING`,
		itemID, tagID, dbx.ToUnix(at))
	if err != nil {
		return fmt.Errorf("failed to attach tag %d to item %d: %w", tagID, itemID, dbx.Classify(err))
	}
	return nil
}

func (r *SQLiteRepository) Detach(ctx context.Context, itemID, tagID int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM item_tags WHERE item_id = ? AND tag_id = ?`, itemID, tagID)
	if err != nil {
		return fmt.Errorf("failed to detach tag: %w", err)
	}
	if err := dbx.RequireAffected(res); err != nil {
		return fmt.Errorf("tag %d on item %d: %w", tagID, itemID, err)
	}
	return nil
}

func (r *SQLiteRepository) Links(ctx context.Context) (map[int64][]int64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT item_id, tag_id FROM item_tags ORDER BY item_id, tag_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to select item tags: %w", err)
	}
	defer rows.Close()

	links := make(map[int64][]int64)
	for rows.Next() {
		var itemID, tagID int64
		if err := rows.Scan(&itemID, &tagID); err != nil {
			return nil, err
		}
		links[itemID] = append(links[itemID], tagID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return links, nil
}

func (r *SQLiteRepository) UsageCount(ctx context.Context, tagID int64) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM item_tags WHERE tag_id = ?`, tagID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count tag usage: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepository) Popular(ctx context.Context, limit int) ([]models.TagUsage, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive", common.ErrValidation)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT t.id, t.name, t.color, t.scope, t.scope_id, t.created_at, count(*) AS uses
		FROM tags t JOIN item_tags it ON it.tag_id = t.id
		GROUP BY t.id ORDER BY uses DESC, t.name, t.id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to select popular tags: %w", err)
	}
	defer rows.Close()

	var result []models.TagUsage
	for rows.Next() {
		var n int64
		t, err := scanTag(rows, &n)
		if err != nil {
			return nil, err
		}
		result = append(result, models.TagUsage{Tag: *t, Count: n})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) DetachOutOfArea(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM item_tags WHERE rowid IN (
			SELECT it.rowid FROM item_tags it
			JOIN tags t ON t.id = it.tag_id
			JOIN items i ON i.id = it.item_id
			WHERE t.scope = 'area' AND NOT EXISTS (
				SELECT 1 FROM area_relations ar
				WHERE ar.area_id = t.scope_id
				  AND ((ar.entity_type = 'item' AND ar.entity_id = i.id)
				    OR (ar.entity_type = 'category' AND ar.entity_id = i.category_id))))`)
	if err != nil {
		return 0, fmt.Errorf("failed to detach out of area tags: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepository) DeleteUnused(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tags WHERE id NOT IN (SELECT DISTINCT tag_id FROM item_tags)`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete unused tags: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}
