package sessions

import (
	"context"
	"fmt"
	"time"

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

func (r *SQLiteRepository) Create(ctx context.Context, s *models.Session) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO sessions (id, created_at, expires_at) VALUES (?, ?, ?)`,
		s.ID, dbx.ToUnix(s.CreatedAt), dbx.ToUnix(s.ExpiresAt))
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", dbx.Classify(err))
	}
	return nil
}

func (r *SQLiteRepository) Get(ctx context.Context, id string) (*models.Session, error) {
	var created, expires int64
	err := r.db.QueryRowContext(ctx, `SELECT created_at, expires_at FROM sessions WHERE id = ?`, id).
		Scan(&created, &expires)
	if err != nil {
		return nil, fmt.Errorf("session: %w", dbx.Classify(err))
	}
	return &models.Session{
		ID:        id,
		CreatedAt: dbx.FromUnix(created),
		ExpiresAt: dbx.FromUnix(expires),
	}, nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if err := dbx.RequireAffected(res); err != nil {
		return fmt.Errorf("session: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, dbx.ToUnix(now))
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions`); err != nil {
		return fmt.Errorf("failed to delete sessions: %w", err)
	}
	return nil
}
