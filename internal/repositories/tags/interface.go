package tags

import (
	"context"
	"time"

	"github.com/dmitrijs2005/snipkeeper/internal/models"
)

type Repository interface {
	// Create inserts t and sets its ID. Names are unique per scope.
	Create(ctx context.Context, t *models.Tag) error
	GetByID(ctx context.Context, id int64) (*models.Tag, error)
	GetByName(ctx context.Context, name string, scope models.TagScope, scopeID int64) (*models.Tag, error)
	// List returns all tags ordered by name.
	List(ctx context.Context) ([]models.Tag, error)
	// Update changes name and color.
	Update(ctx context.Context, t *models.Tag) error
	// Delete removes the tag and its item links.
	Delete(ctx context.Context, id int64) error

	// Attach links a tag to an item. Linking an existing pair is a no-op.
	Attach(ctx context.Context, itemID, tagID int64, at time.Time) error
	// Detach removes a link; a missing link is ErrorNotFound.
	Detach(ctx context.Context, itemID, tagID int64) error
	TagsForItem(ctx context.Context, itemID int64) ([]models.Tag, error)
	// Links returns every item-tag pair, for export.
	Links(ctx context.Context) (map[int64][]int64, error)

	UsageCount(ctx context.Context, tagID int64) (int64, error)
	// Popular lists the most used tags, most used first, ties by name.
	Popular(ctx context.Context, limit int) ([]models.TagUsage, error)
	// DetachOutOfArea removes area-scoped tags from items their area no
	// longer contains, directly or through the item's category.
	DetachOutOfArea(ctx context.Context) (int64, error)
	// DeleteUnused drops tags attached to no item and reports how many went.
	DeleteUnused(ctx context.Context) (int64, error)
}
