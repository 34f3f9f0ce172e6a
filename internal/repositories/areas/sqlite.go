package areas

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

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

const (
	areaColumns     = `SELECT id, name, description, active, created_at, updated_at FROM areas`
	relationColumns = `SELECT id, area_id, entity_type, entity_id, description, order_index, created_at FROM area_relations`
)

type scanner interface {
	Scan(dest ...any) error
}

func scanArea(s scanner) (*models.Area, error) {
	var (
		a                models.Area
		created, updated int64
	)
	if err := s.Scan(&a.ID, &a.Name, &a.Description, &a.Active, &created, &updated); err != nil {
		return nil, err
	}
	a.CreatedAt = dbx.FromUnix(created)
	a.UpdatedAt = dbx.FromUnix(updated)
	return &a, nil
}

func scanRelation(s scanner) (*models.AreaRelation, error) {
	var (
		rel     models.AreaRelation
		et      string
		created int64
	)
	if err := s.Scan(&rel.ID, &rel.AreaID, &et, &rel.EntityID, &rel.Description, &rel.Order, &created); err != nil {
		return nil, err
	}
	rel.EntityType = models.EntityType(et)
	rel.CreatedAt = dbx.FromUnix(created)
	return &rel, nil
}

func (r *SQLiteRepository) Create(ctx context.Context, a *models.Area) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO areas (name, description, active, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		a.Name, a.Description, a.Active, dbx.ToUnix(a.CreatedAt), dbx.ToUnix(a.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to insert area: %w", dbx.Classify(err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get area id: %w", err)
	}
	a.ID = id
	return nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id int64) (*models.Area, error) {
	a, err := scanArea(r.db.QueryRowContext(ctx, areaColumns+` WHERE id = ?`, id))
	if err != nil {
		return nil, fmt.Errorf("area %d: %w", id, dbx.Classify(err))
	}
	return a, nil
}

func (r *SQLiteRepository) GetByName(ctx context.Context, name string) (*models.Area, error) {
	a, err := scanArea(r.db.QueryRowContext(ctx, areaColumns+` WHERE name = ?`, name))
	if err != nil {
		return nil, fmt.Errorf("area %q: %w", name, dbx.Classify(err))
	}
	return a, nil
}

func (r *SQLiteRepository) List(ctx context.Context, activeOnly bool) ([]models.Area, error) {
	if activeOnly {
		return r.listAreas(ctx, areaColumns+` WHERE active = 1 ORDER BY name, id`)
	}
	return r.listAreas(ctx, areaColumns+` ORDER BY name, id`)
}

func (r *SQLiteRepository) Search(ctx context.Context, query string) ([]models.Area, error) {
	pattern := "%" + escapeLike(strings.TrimSpace(query)) + "%"
	return r.listAreas(ctx, areaColumns+`
		WHERE name LIKE ? ESCAPE '\' OR description LIKE ? ESCAPE '\'
		ORDER BY name, id`, pattern, pattern)
}

func (r *SQLiteRepository) listAreas(ctx context.Context, query string, args ...any) ([]models.Area, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select areas: %w", err)
	}
	defer rows.Close()

	var result []models.Area
	for rows.Next() {
		a, err := scanArea(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) Update(ctx context.Context, a *models.Area) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE areas SET name = ?, description = ?, active = ?, updated_at = ? WHERE id = ?`,
		a.Name, a.Description, a.Active, dbx.ToUnix(a.UpdatedAt), a.ID)
	if err != nil {
		return fmt.Errorf("failed to update area: %w", dbx.Classify(err))
	}
	if err := dbx.RequireAffected(res); err != nil {
		return fmt.Errorf("area %d: %w", a.ID, err)
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM areas WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete area: %w", dbx.Classify(err))
	}
	if err := dbx.RequireAffected(res); err != nil {
		return fmt.Errorf("area %d: %w", id, err)
	}
	return nil
}

func (r *SQLiteRepository) AddRelation(ctx context.Context, rel *models.AreaRelation) error {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO area_relations (area_id, entity_type, entity_id, description, order_index, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		rel.AreaID, string(rel.EntityType), rel.EntityID, rel.Description, rel.Order, dbx.ToUnix(rel.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to insert area relation: %w", dbx.Classify(err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get area relation id: %w", err)
	}
	rel.ID = id
	return nil
}

func (r *SQLiteRepository) RemoveRelation(ctx context.Context, areaID int64, et models.EntityType, entityID int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM area_relations WHERE area_id = ? AND entity_type = ? AND entity_id = ?`,
		areaID, string(et), entityID)
	if err != nil {
		return fmt.Errorf("failed to delete area relation: %w", err)
	}
	if err := dbx.RequireAffected(res); err != nil {
		return fmt.Errorf("%s %d in area %d: %w", et, entityID, areaID, err)
	}
	return nil
}

func (r *SQLiteRepository) Relations(ctx context.Context, areaID int64, et models.EntityType) ([]models.AreaRelation, error) {
	query := relationColumns + ` WHERE area_id = ?`
	args := []any{areaID}
	if et != "" {
		query += ` AND entity_type = ?`
		args = append(args, string(et))
	}
	query += ` ORDER BY order_index, id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select area relations: %w", err)
	}
	defer rows.Close()

	var result []models.AreaRelation
	for rows.Next() {
		rel, err := scanRelation(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *rel)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) MaxRelationOrder(ctx context.Context, areaID int64) (int, error) {
	var maxOrder sql.NullInt64
	err := r.db.QueryRowContext(ctx, `SELECT max(order_index) FROM area_relations WHERE area_id = ?`, areaID).Scan(&maxOrder)
	if err != nil {
		return 0, fmt.Errorf("failed to get relation order: %w", err)
	}
	if !maxOrder.Valid {
		return -1, nil
	}
	return int(maxOrder.Int64), nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
