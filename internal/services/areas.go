package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/snipkeeper/internal/common"
	"github.com/dmitrijs2005/snipkeeper/internal/dbx"
	"github.com/dmitrijs2005/snipkeeper/internal/models"
)

// LinkInput relates an entity to an area. A nil Order appends the entity
// after the existing relations.
type LinkInput struct {
	EntityType  models.EntityType
	EntityID    int64
	Description string
	Order       *int
}

// AreaService manages project areas and what they contain. Relation changes
// clear the filter cache since area filters depend on them.
type AreaService interface {
	Create(ctx context.Context, name, description string) (*models.Area, error)
	Get(ctx context.Context, id int64) (*models.Area, error)
	GetByName(ctx context.Context, name string) (*models.Area, error)
	List(ctx context.Context, activeOnly bool) ([]models.Area, error)
	Update(ctx context.Context, id int64, name, description string, active bool) (*models.Area, error)
	Delete(ctx context.Context, id int64) error
	Search(ctx context.Context, query string) ([]models.Area, error)

	Link(ctx context.Context, areaID int64, in LinkInput) (*models.AreaRelation, error)
	Unlink(ctx context.Context, areaID int64, et models.EntityType, entityID int64) error
	// Contents groups the area's relations by entity type and names each
	// linked entity.
	Contents(ctx context.Context, areaID int64) (*models.AreaContents, error)
	// Duplicate copies an area with all its relations under a new name.
	Duplicate(ctx context.Context, id int64, name string) (*models.Area, error)
}

type areaService struct {
	*Deps
}

func NewAreaService(deps *Deps) AreaService {
	return &areaService{Deps: deps}
}

func (s *areaService) Create(ctx context.Context, name, description string) (*models.Area, error) {
	name, err := requireName("area name", name, maxAreaLen)
	if err != nil {
		return nil, err
	}

	now := s.now()
	a := &models.Area{Name: name, Description: description, Active: true, CreatedAt: now, UpdatedAt: now}
	err = s.write(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		return s.Repos.Areas(tx).Create(ctx, a)
	})
	if err != nil {
		return nil, err
	}
	s.Log.Info(ctx, "area created", "id", a.ID, "name", a.Name)
	return a, nil
}

func (s *areaService) Get(ctx context.Context, id int64) (*models.Area, error) {
	return s.Repos.Areas(s.DB).GetByID(ctx, id)
}

func (s *areaService) GetByName(ctx context.Context, name string) (*models.Area, error) {
	return s.Repos.Areas(s.DB).GetByName(ctx, name)
}

func (s *areaService) List(ctx context.Context, activeOnly bool) ([]models.Area, error) {
	return s.Repos.Areas(s.DB).List(ctx, activeOnly)
}

func (s *areaService) Update(ctx context.Context, id int64, name, description string, active bool) (*models.Area, error) {
	name, err := requireName("area name", name, maxAreaLen)
	if err != nil {
		return nil, err
	}

	var a *models.Area
	err = s.write(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.Repos.Areas(tx)
		current, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		current.Name = name
		current.Description = description
		current.Active = active
		current.UpdatedAt = s.now()
		if err := repo.Update(ctx, current); err != nil {
			return err
		}
		a = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (s *areaService) Delete(ctx context.Context, id int64) error {
	err := s.write(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		return s.Repos.Areas(tx).Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	s.Log.Info(ctx, "area deleted", "id", id)
	return nil
}

func (s *areaService) Search(ctx context.Context, query string) ([]models.Area, error) {
	return s.Repos.Areas(s.DB).Search(ctx, query)
}

func (s *areaService) entityExists(ctx context.Context, tx dbx.DBTX, et models.EntityType, id int64) error {
	var err error
	switch et {
	case models.EntityItem:
		_, err = s.Repos.Items(tx).GetByID(ctx, id)
	case models.EntityCategory:
		_, err = s.Repos.Categories(tx).GetByID(ctx, id)
	case models.EntityTag:
		_, err = s.Repos.Tags(tx).GetByID(ctx, id)
	default:
		return fmt.Errorf("%w: unknown entity type %q", common.ErrValidation, et)
	}
	if err != nil {
		return fmt.Errorf("%s %d: %w", et, id, err)
	}
	return nil
}

func (s *areaService) Link(ctx context.Context, areaID int64, in LinkInput) (*models.AreaRelation, error) {
	if in.Order != nil && *in.Order < 0 {
		return nil, fmt.Errorf("%w: order must not be negative", common.ErrValidation)
	}

	rel := &models.AreaRelation{
		AreaID:      areaID,
		EntityType:  in.EntityType,
		EntityID:    in.EntityID,
		Description: in.Description,
		CreatedAt:   s.now(),
	}
	err := s.write(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.Repos.Areas(tx)
		if _, err := repo.GetByID(ctx, areaID); err != nil {
			return err
		}
		if err := s.entityExists(ctx, tx, in.EntityType, in.EntityID); err != nil {
			return err
		}
		if in.Order != nil {
			rel.Order = *in.Order
		} else {
			last, err := repo.MaxRelationOrder(ctx, areaID)
			if err != nil {
				return err
			}
			rel.Order = last + 1
		}
		return repo.AddRelation(ctx, rel)
	})
	if err != nil {
		return nil, err
	}
	return rel, nil
}

// Unlink removes a relation. Area tags on items the area no longer
// contains are detached in the same transaction.
func (s *areaService) Unlink(ctx context.Context, areaID int64, et models.EntityType, entityID int64) error {
	var detached int64
	err := s.write(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.Repos.Areas(tx).RemoveRelation(ctx, areaID, et, entityID); err != nil {
			return err
		}
		n, err := s.Repos.Tags(tx).DetachOutOfArea(ctx)
		detached = n
		return err
	})
	if err != nil {
		return err
	}
	if detached > 0 {
		s.Log.Info(ctx, "area tags detached", "area", areaID, "links", detached)
	}
	return nil
}

func (s *areaService) Contents(ctx context.Context, areaID int64) (*models.AreaContents, error) {
	repo := s.Repos.Areas(s.DB)
	a, err := repo.GetByID(ctx, areaID)
	if err != nil {
		return nil, err
	}
	rels, err := repo.Relations(ctx, areaID, "")
	if err != nil {
		return nil, err
	}

	c := &models.AreaContents{Area: *a}
	for _, rel := range rels {
		name, err := s.entityName(ctx, rel.EntityType, rel.EntityID)
		if err != nil {
			return nil, err
		}
		entry := models.AreaEntry{AreaRelation: rel, Name: name}
		switch rel.EntityType {
		case models.EntityItem:
			c.Items = append(c.Items, entry)
		case models.EntityCategory:
			c.Categories = append(c.Categories, entry)
		case models.EntityTag:
			c.Tags = append(c.Tags, entry)
		}
	}
	return c, nil
}

func (s *areaService) entityName(ctx context.Context, et models.EntityType, id int64) (string, error) {
	switch et {
	case models.EntityItem:
		it, err := s.Repos.Items(s.DB).GetByID(ctx, id)
		if err != nil {
			return "", err
		}
		return it.Label, nil
	case models.EntityCategory:
		c, err := s.Repos.Categories(s.DB).GetByID(ctx, id)
		if err != nil {
			return "", err
		}
		return c.Name, nil
	case models.EntityTag:
		t, err := s.Repos.Tags(s.DB).GetByID(ctx, id)
		if err != nil {
			return "", err
		}
		return t.Name, nil
	}
	return "", nil
}

func (s *areaService) Duplicate(ctx context.Context, id int64, name string) (*models.Area, error) {
	name, err := requireName("area name", name, maxAreaLen)
	if err != nil {
		return nil, err
	}

	var dup *models.Area
	err = s.write(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.Repos.Areas(tx)
		src, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		rels, err := repo.Relations(ctx, id, "")
		if err != nil {
			return err
		}

		now := s.now()
		a := &models.Area{Name: name, Description: src.Description, Active: src.Active, CreatedAt: now, UpdatedAt: now}
		if err := repo.Create(ctx, a); err != nil {
			return err
		}
		for _, rel := range rels {
			rel.ID = 0
			rel.AreaID = a.ID
			rel.CreatedAt = now
			if err := repo.AddRelation(ctx, &rel); err != nil {
				return err
			}
		}
		dup = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.Log.Info(ctx, "area duplicated", "from", id, "id", dup.ID)
	return dup, nil
}
