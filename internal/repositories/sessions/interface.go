package sessions

import (
	"context"
	"time"

	"github.com/dmitrijs2005/snipkeeper/internal/models"
)

type Repository interface {
	Create(ctx context.Context, s *models.Session) error
	Get(ctx context.Context, id string) (*models.Session, error)
	Delete(ctx context.Context, id string) error
	// DeleteExpired removes records with expiry at or before now.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
	// DeleteAll revokes every session.
	DeleteAll(ctx context.Context) error
}
