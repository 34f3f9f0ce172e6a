package categories

import (
	"context"
	"fmt"

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

const selectColumns = `SELECT id, name, icon, predefined, created_at FROM categories`

type scanner interface {
	Scan(dest ...any) error
}

func scanCategory(s scanner) (*models.Category, error) {
	var (
		c       models.Category
		created int64
	)
	if err := s.Scan(&c.ID, &c.Name, &c.Icon, &c.Predefined, &created); err != nil {
		return nil, err
	}
	c.CreatedAt = dbx.FromUnix(created)
	return &c, nil
}

func (r *SQLiteRepository) Create(ctx context.Context, c *models.Category) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO categories (name, icon, predefined, created_at) VALUES (?, ?, ?, ?)`,
		c.Name, c.Icon, c.Predefined, dbx.ToUnix(c.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to insert category: %w", dbx.Classify(err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get category id: %w", err)
	}
	c.ID = id
	return nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id int64) (*models.Category, error) {
	c, err := scanCategory(r.db.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id))
	if err != nil {
		return nil, fmt.Errorf("category %d: %w", id, dbx.Classify(err))
	}
	return c, nil
}

func (r *SQLiteRepository) GetByName(ctx context.Context, name string) (*models.Category, error) {
	c, err := scanCategory(r.db.QueryRowContext(ctx, selectColumns+` WHERE name = ?`, name))
	if err != nil {
		return nil, fmt.Errorf("category %q: %w", name, dbx.Classify(err))
	}
	return c, nil
}

func (r *SQLiteRepository) List(ctx context.Context) ([]models.Category, error) {
	rows, err := r.db.QueryContext(ctx, selectColumns+` ORDER BY predefined DESC, name, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to select categories: %w", err)
	}
	defer rows.Close()

	var result []models.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) Update(ctx context.Context, c *models.Category) error {
	res, err := r.db.ExecContext(ctx, `UPDATE categories SET name = ?, icon = ? WHERE id = ?`,
		c.Name, c.Icon, c.ID)
	if err != nil {
		return fmt.Errorf("failed to update category: %w", dbx.Classify(err))
	}
	if err := dbx.RequireAffected(res); err != nil {
		return fmt.Errorf("category %d: %w", c.ID, err)
	}
	return nil
}

// Delete removes a user category. Items are never cascaded: the foreign key
// restricts the delete while the category still owns any. Tags scoped to
// the category go with it.
func (r *SQLiteRepository) Delete(ctx context.Context, id int64) error {
	c, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if c.Predefined {
		return fmt.Errorf("%w: category %q is predefined", common.ErrConstraintViolation, c.Name)
	}

	res, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete category %d: %w", id, dbx.Classify(err))
	}
	return dbx.RequireAffected(res)
}

func (r *SQLiteRepository) ItemCount(ctx context.Context, id int64) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM items WHERE category_id = ?`, id).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count items: %w", err)
	}
	return n, nil
}
