package items

import (
	"context"
	"time"

	"github.com/dmitrijs2005/snipkeeper/internal/models"
)

type Repository interface {
	// Create inserts item and sets its ID.
	Create(ctx context.Context, item *models.Item) error
	GetByID(ctx context.Context, id int64) (*models.Item, error)
	// GetMany returns the items for ids in the order given. Missing ids are skipped.
	GetMany(ctx context.Context, ids []int64) ([]models.Item, error)
	// All returns every item ordered by id.
	All(ctx context.Context) ([]models.Item, error)
	// Update overwrites category, label, type, content and updated_at.
	Update(ctx context.Context, item *models.Item) error
	// Delete removes the item; tag links and area relations go with it.
	Delete(ctx context.Context, id int64) error

	SetFavorite(ctx context.Context, id int64, favorite bool, order int) error
	// Favorites lists favorite items by favorite order.
	Favorites(ctx context.Context) ([]models.Item, error)
	// MaxFavoriteOrder returns -1 when there are no favorites.
	MaxFavoriteOrder(ctx context.Context) (int, error)

	// RecordUse bumps the use counter and last-used time.
	RecordUse(ctx context.Context, id int64, at time.Time) error

	// Query returns ids of items matching the where clause (over columns of
	// items), newest modification first, ties by ascending id. limit <= 0
	// means no limit.
	Query(ctx context.Context, where string, args []any, limit int) ([]int64, error)
}
