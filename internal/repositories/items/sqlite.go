package items

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/snipkeeper/internal/dbx"
	"github.com/dmitrijs2005/snipkeeper/internal/models"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db       dbx.DBTX
	fullText bool
}

// NewSQLiteRepository binds the repository to db. fullText tells whether
// items_fts exists and must be maintained.
func NewSQLiteRepository(db dbx.DBTX, fullText bool) *SQLiteRepository {
	return &SQLiteRepository{db: db, fullText: fullText}
}

const selectColumns = `SELECT id, category_id, label, content_type, content, nonce, sensitive,
	favorite, favorite_order, use_count, last_used_at, created_at, updated_at FROM items`

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(s scanner) (*models.Item, error) {
	var (
		it               models.Item
		content, nonce   []byte
		sensitive        bool
		lastUsed         sql.NullInt64
		created, updated int64
		contentType      string
	)
	err := s.Scan(&it.ID, &it.CategoryID, &it.Label, &contentType, &content, &nonce, &sensitive,
		&it.Favorite, &it.FavoriteOrder, &it.UseCount, &lastUsed, &created, &updated)
	if err != nil {
		return nil, err
	}
	it.Type = models.ContentType(contentType)
	it.Content = decodeField(content, nonce, sensitive)
	it.LastUsedAt = dbx.FromNullUnix(lastUsed)
	it.CreatedAt = dbx.FromUnix(created)
	it.UpdatedAt = dbx.FromUnix(updated)
	return &it, nil
}

// encodeField returns the content column value, nonce and sensitive flag for f.
func encodeField(f models.Field) (any, []byte, bool, error) {
	switch f := f.(type) {
	case models.PlainText:
		return string(f), nil, false, nil
	case models.CipherText:
		return f.Data, f.Nonce, true, nil
	case nil:
		return "", nil, false, nil
	default:
		return nil, nil, false, fmt.Errorf("unsupported field %T", f)
	}
}

func decodeField(content, nonce []byte, sensitive bool) models.Field {
	if sensitive {
		return models.CipherText{Data: content, Nonce: nonce}
	}
	return models.PlainText(content)
}

// indexedContent is what the full-text index sees for f.
func indexedContent(f models.Field) string {
	if p, ok := f.(models.PlainText); ok {
		return string(p)
	}
	return ""
}

func (r *SQLiteRepository) Create(ctx context.Context, item *models.Item) error {
	content, nonce, sensitive, err := encodeField(item.Content)
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO items (category_id, label, content_type, content, nonce, sensitive,
			favorite, favorite_order, use_count, last_used_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.CategoryID, item.Label, string(item.Type), content, nonce, sensitive,
		item.Favorite, item.FavoriteOrder, item.UseCount, dbx.ToNullUnix(item.LastUsedAt),
		dbx.ToUnix(item.CreatedAt), dbx.ToUnix(item.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to insert item: %w", dbx.Classify(err))
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get item id: %w", err)
	}
	item.ID = id

	return r.index(ctx, item)
}

func (r *SQLiteRepository) index(ctx context.Context, item *models.Item) error {
	if !r.fullText {
		return nil
	}
	_, err := r.db.ExecContext(ctx, `INSERT INTO items_fts (rowid, label, content) VALUES (?, ?, ?)`,
		item.ID, item.Label, indexedContent(item.Content))
	if err != nil {
		return fmt.Errorf("failed to index item %d: %w", item.ID, err)
	}
	return nil
}

func (r *SQLiteRepository) unindex(ctx context.Context, id int64) error {
	if !r.fullText {
		return nil
	}
	if _, err := r.db.ExecContext(ctx, `DELETE FROM items_fts WHERE rowid = ?`, id); err != nil {
		return fmt.Errorf("failed to unindex item %d: %w", id, err)
	}
	return nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id int64) (*models.Item, error) {
	it, err := scanItem(r.db.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id))
	if err != nil {
		return nil, fmt.Errorf("item %d: %w", id, dbx.Classify(err))
	}
	return it, nil
}

func (r *SQLiteRepository) GetMany(ctx context.Context, ids []int64) ([]models.Item, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	found, err := r.list(ctx, selectColumns+` WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, err
	}

	byID := make(map[int64]models.Item, len(found))
	for _, it := range found {
		byID[it.ID] = it
	}
	result := make([]models.Item, 0, len(found))
	for _, id := range ids {
		if it, ok := byID[id]; ok {
			result = append(result, it)
		}
	}
	return result, nil
}

func (r *SQLiteRepository) All(ctx context.Context) ([]models.Item, error) {
	return r.list(ctx, selectColumns+` ORDER BY id`)
}

func (r *SQLiteRepository) Favorites(ctx context.Context) ([]models.Item, error) {
	return r.list(ctx, selectColumns+` WHERE favorite = 1 ORDER BY favorite_order, id`)
}

func (r *SQLiteRepository) list(ctx context.Context, query string, args ...any) ([]models.Item, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select items: %w", err)
	}
	defer rows.Close()

	var result []models.Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) Update(ctx context.Context, item *models.Item) error {
	content, nonce, sensitive, err := encodeField(item.Content)
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE items SET category_id = ?, label = ?, content_type = ?, content = ?, nonce = ?,
			sensitive = ?, updated_at = ?
		WHERE id = ?`,
		item.CategoryID, item.Label, string(item.Type), content, nonce, sensitive,
		dbx.ToUnix(item.UpdatedAt), item.ID)
	if err != nil {
		return fmt.Errorf("failed to update item: %w", dbx.Classify(err))
	}
	if err := dbx.RequireAffected(res); err != nil {
		return fmt.Errorf("item %d: %w", item.ID, err)
	}

	if err := r.unindex(ctx, item.ID); err != nil {
		return err
	}
	return r.index(ctx, item)
}

func (r *SQLiteRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", dbx.Classify(err))
	}
	if err := dbx.RequireAffected(res); err != nil {
		return fmt.Errorf("item %d: %w", id, err)
	}
	return r.unindex(ctx, id)
}

func (r *SQLiteRepository) SetFavorite(ctx context.Context, id int64, favorite bool, order int) error {
	if !favorite {
		order = 0
	}
	res, err := r.db.ExecContext(ctx, `UPDATE items SET favorite = ?, favorite_order = ? WHERE id = ?`,
		favorite, order, id)
	if err != nil {
		return fmt.Errorf("failed to set favorite: %w", err)
	}
	if err := dbx.RequireAffected(res); err != nil {
		return fmt.Errorf("item %d: %w", id, err)
	}
	return nil
}

func (r *SQLiteRepository) MaxFavoriteOrder(ctx context.Context) (int, error) {
	var maxOrder sql.NullInt64
	if err := r.db.QueryRowContext(ctx, `SELECT max(favorite_order) FROM items WHERE favorite = 1`).Scan(&maxOrder); err != nil {
		return 0, fmt.Errorf("failed to get favorite order: %w", err)
	}
	if !maxOrder.Valid {
		return -1, nil
	}
	return int(maxOrder.Int64), nil
}

func (r *SQLiteRepository) RecordUse(ctx context.Context, id int64, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE items SET use_count = use_count + 1, last_used_at = ? WHERE id = ?`,
		dbx.ToUnix(at), id)
	if err != nil {
		return fmt.Errorf("failed to record use: %w", err)
	}
	if err := dbx.RequireAffected(res); err != nil {
		return fmt.Errorf("item %d: %w", id, err)
	}
	return nil
}

func (r *SQLiteRepository) Query(ctx context.Context, where string, args []any, limit int) ([]int64, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT id FROM items`)
	if where != "" {
		sb.WriteString(` WHERE `)
		sb.WriteString(where)
	}
	sb.WriteString(` ORDER BY updated_at DESC, id ASC`)
	if limit > 0 {
		sb.WriteString(` LIMIT ?`)
		args = append(args[:len(args):len(args)], limit)
	}

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}
