package categories

import (
	"context"

	"github.com/dmitrijs2005/snipkeeper/internal/models"
)

type Repository interface {
	// Create inserts c and sets its ID.
	Create(ctx context.Context, c *models.Category) error
	GetByID(ctx context.Context, id int64) (*models.Category, error)
	GetByName(ctx context.Context, name string) (*models.Category, error)
	// List returns predefined categories first, then the rest by name.
	List(ctx context.Context) ([]models.Category, error)
	// Update changes name and icon.
	Update(ctx context.Context, c *models.Category) error
	Delete(ctx context.Context, id int64) error
	// ItemCount returns how many items belong to the category.
	ItemCount(ctx context.Context, id int64) (int64, error)
}
