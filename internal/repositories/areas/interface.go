package areas

import (
	"context"

	"github.com/dmitrijs2005/snipkeeper/internal/models"
)

type Repository interface {
	Create(ctx context.Context, a *models.Area) error
	GetByID(ctx context.Context, id int64) (*models.Area, error)
	GetByName(ctx context.Context, name string) (*models.Area, error)
	List(ctx context.Context, activeOnly bool) ([]models.Area, error)
	Update(ctx context.Context, a *models.Area) error
	// Delete removes the area together with its relations and the tags
	// scoped to it.
	Delete(ctx context.Context, id int64) error
	// Search matches name or description, case-insensitively.
	Search(ctx context.Context, query string) ([]models.Area, error)

	// AddRelation inserts rel and sets its ID. A pair already linked to the
	// area is ErrConstraintViolation.
	AddRelation(ctx context.Context, rel *models.AreaRelation) error
	RemoveRelation(ctx context.Context, areaID int64, et models.EntityType, entityID int64) error
	// Relations returns relations by order; an empty et means every type.
	Relations(ctx context.Context, areaID int64, et models.EntityType) ([]models.AreaRelation, error)
	// MaxRelationOrder returns -1 for an area without relations.
	MaxRelationOrder(ctx context.Context, areaID int64) (int, error)
}
