package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/snipkeeper/internal/common"
	"github.com/dmitrijs2005/snipkeeper/internal/dbx"
	"github.com/dmitrijs2005/snipkeeper/internal/models"
	"github.com/dmitrijs2005/snipkeeper/internal/search"
	"github.com/dmitrijs2005/snipkeeper/internal/vault"
)

// ItemInput is what a caller supplies to create or edit an item.
// CategoryID 0 selects the predefined category.
type ItemInput struct {
	CategoryID int64
	Label      string
	Type       models.ContentType
	Value      string
	Sensitive  bool
}

// ItemService manages snippets. Values of sensitive items are sealed by the
// vault before they reach storage and opened only in returned views.
type ItemService interface {
	Create(ctx context.Context, in ItemInput) (*models.ItemView, error)
	Get(ctx context.Context, id int64) (*models.ItemView, error)
	Update(ctx context.Context, id int64, in ItemInput) (*models.ItemView, error)
	Delete(ctx context.Context, id int64) error

	// SetFavorite marks an item; new favorites go to the end of the order.
	SetFavorite(ctx context.Context, id int64, favorite bool) error
	// ReorderFavorites assigns positions in the order of ids, which must
	// list every current favorite exactly once.
	ReorderFavorites(ctx context.Context, ids []int64) error
	Favorites(ctx context.Context) ([]models.ItemView, error)

	// RecordUse counts a use (e.g. a copy) and returns the item.
	RecordUse(ctx context.Context, id int64) (*models.ItemView, error)

	AttachTag(ctx context.Context, itemID, tagID int64) error
	DetachTag(ctx context.Context, itemID, tagID int64) error

	// Search returns matching ids through the filter cache.
	Search(ctx context.Context, f models.Filter) ([]int64, error)
	// List is Search followed by loading and opening the items.
	List(ctx context.Context, f models.Filter) ([]models.ItemView, error)
}

type itemService struct {
	*Deps
	vault    *vault.Vault
	searcher *search.Searcher
}

func NewItemService(deps *Deps, v *vault.Vault) ItemService {
	return &itemService{
		Deps:     deps,
		vault:    v,
		searcher: search.New(deps.DB, deps.Repos, deps.DB.FullText, deps.Log),
	}
}

func (s *itemService) prepare(ctx context.Context, db dbx.DBTX, in ItemInput) (*models.Item, error) {
	label, err := requireName("label", in.Label, maxLabelLen)
	if err != nil {
		return nil, err
	}
	ct, err := models.ParseContentType(string(in.Type))
	if err != nil {
		return nil, err
	}

	categoryID := in.CategoryID
	if categoryID == 0 {
		c, err := s.Repos.Categories(db).GetByName(ctx, models.DefaultCategoryName)
		if err != nil {
			return nil, err
		}
		categoryID = c.ID
	} else if _, err := s.Repos.Categories(db).GetByID(ctx, categoryID); err != nil {
		return nil, err
	}

	field, err := s.vault.Store(in.Value, in.Sensitive)
	if err != nil {
		return nil, err
	}

	return &models.Item{
		CategoryID: categoryID,
		Label:      label,
		Type:       ct,
		Content:    field,
	}, nil
}

func (s *itemService) view(ctx context.Context, db dbx.DBTX, it *models.Item) (*models.ItemView, error) {
	value, err := s.vault.Retrieve(it.Content)
	if err != nil {
		return nil, fmt.Errorf("item %d: %w", it.ID, err)
	}
	tags, err := s.Repos.Tags(db).TagsForItem(ctx, it.ID)
	if err != nil {
		return nil, err
	}
	return &models.ItemView{Item: *it, Value: value, Tags: tags}, nil
}

func (s *itemService) Create(ctx context.Context, in ItemInput) (*models.ItemView, error) {
	var created *models.Item
	err := s.write(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		it, err := s.prepare(ctx, tx, in)
		if err != nil {
			return err
		}
		now := s.now()
		it.CreatedAt, it.UpdatedAt = now, now
		if err := s.Repos.Items(tx).Create(ctx, it); err != nil {
			return err
		}
		created = it
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Log.Info(ctx, "item created", "id", created.ID, "category", created.CategoryID, "sensitive", created.Sensitive())
	return s.view(ctx, s.DB, created)
}

func (s *itemService) Get(ctx context.Context, id int64) (*models.ItemView, error) {
	it, err := s.Repos.Items(s.DB).GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, s.DB, it)
}

func (s *itemService) Update(ctx context.Context, id int64, in ItemInput) (*models.ItemView, error) {
	var updated *models.Item
	err := s.write(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.Repos.Items(tx)
		current, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		it, err := s.prepare(ctx, tx, in)
		if err != nil {
			return err
		}
		if err := s.checkTagScopes(ctx, tx, id, it.CategoryID); err != nil {
			return err
		}

		current.CategoryID = it.CategoryID
		current.Label = it.Label
		current.Type = it.Type
		current.Content = it.Content
		current.UpdatedAt = s.now()
		if err := repo.Update(ctx, current); err != nil {
			return err
		}
		if _, err := s.Repos.Tags(tx).DetachOutOfArea(ctx); err != nil {
			return err
		}
		updated = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Log.Info(ctx, "item updated", "id", id)
	return s.view(ctx, s.DB, updated)
}

// checkTagScopes rejects moving an item out of the category a
// category-scoped tag on it is bound to.
func (s *itemService) checkTagScopes(ctx context.Context, tx dbx.DBTX, itemID, categoryID int64) error {
	tags, err := s.Repos.Tags(tx).TagsForItem(ctx, itemID)
	if err != nil {
		return err
	}
	for _, t := range tags {
		if t.Scope == models.ScopeCategory && t.ScopeID != categoryID {
			return fmt.Errorf("%w: tag %q is limited to another category", common.ErrValidation, t.Name)
		}
	}
	return nil
}

func (s *itemService) Delete(ctx context.Context, id int64) error {
	err := s.write(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		return s.Repos.Items(tx).Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	s.Log.Info(ctx, "item deleted", "id", id)
	return nil
}

func (s *itemService) SetFavorite(ctx context.Context, id int64, favorite bool) error {
	return s.write(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.Repos.Items(tx)
		it, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if it.Favorite == favorite {
			return nil
		}
		order := 0
		if favorite {
			last, err := repo.MaxFavoriteOrder(ctx)
			if err != nil {
				return err
			}
			order = last + 1
		}
		return repo.SetFavorite(ctx, id, favorite, order)
	})
}

func (s *itemService) ReorderFavorites(ctx context.Context, ids []int64) error {
	return s.write(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.Repos.Items(tx)
		favs, err := repo.Favorites(ctx)
		if err != nil {
			return err
		}

		current := make(map[int64]bool, len(favs))
		for _, it := range favs {
			current[it.ID] = true
		}
		if len(ids) != len(current) {
			return fmt.Errorf("%w: expected %d favorites, got %d", common.ErrValidation, len(current), len(ids))
		}
		seen := make(map[int64]bool, len(ids))
		for _, id := range ids {
			if !current[id] || seen[id] {
				return fmt.Errorf("%w: item %d is not a favorite or is listed twice", common.ErrValidation, id)
			}
			seen[id] = true
		}

		for pos, id := range ids {
			if err := repo.SetFavorite(ctx, id, true, pos); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *itemService) Favorites(ctx context.Context) ([]models.ItemView, error) {
	favs, err := s.Repos.Items(s.DB).Favorites(ctx)
	if err != nil {
		return nil, err
	}
	return s.views(ctx, favs)
}

func (s *itemService) RecordUse(ctx context.Context, id int64) (*models.ItemView, error) {
	err := s.write(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		return s.Repos.Items(tx).RecordUse(ctx, id, s.now())
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *itemService) AttachTag(ctx context.Context, itemID, tagID int64) error {
	return s.write(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		it, err := s.Repos.Items(tx).GetByID(ctx, itemID)
		if err != nil {
			return err
		}
		tag, err := s.Repos.Tags(tx).GetByID(ctx, tagID)
		if err != nil {
			return err
		}
		if err := s.checkScope(ctx, tx, it, tag); err != nil {
			return err
		}
		return s.Repos.Tags(tx).Attach(ctx, itemID, tagID, s.now())
	})
}

// checkScope enforces where a tag may be used: a category tag only on items
// of that category, an area tag only on items the area contains directly
// or through their category.
func (s *itemService) checkScope(ctx context.Context, tx dbx.DBTX, it *models.Item, tag *models.Tag) error {
	switch tag.Scope {
	case models.ScopeCategory:
		if it.CategoryID != tag.ScopeID {
			return fmt.Errorf("%w: tag %q is limited to category %d", common.ErrValidation, tag.Name, tag.ScopeID)
		}
	case models.ScopeArea:
		rels, err := s.Repos.Areas(tx).Relations(ctx, tag.ScopeID, "")
		if err != nil {
			return err
		}
		for _, rel := range rels {
			if (rel.EntityType == models.EntityItem && rel.EntityID == it.ID) ||
				(rel.EntityType == models.EntityCategory && rel.EntityID == it.CategoryID) {
				return nil
			}
		}
		return fmt.Errorf("%w: tag %q is limited to area %d", common.ErrValidation, tag.Name, tag.ScopeID)
	}
	return nil
}

func (s *itemService) DetachTag(ctx context.Context, itemID, tagID int64) error {
	return s.write(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		return s.Repos.Tags(tx).Detach(ctx, itemID, tagID)
	})
}

func (s *itemService) Search(ctx context.Context, f models.Filter) ([]int64, error) {
	if s.Cache == nil {
		return s.searcher.Search(ctx, f)
	}
	return s.Cache.Get(ctx, f, s.searcher.Search)
}

func (s *itemService) List(ctx context.Context, f models.Filter) ([]models.ItemView, error) {
	ids, err := s.Search(ctx, f)
	if err != nil {
		return nil, err
	}
	items, err := s.Repos.Items(s.DB).GetMany(ctx, ids)
	if err != nil {
		return nil, err
	}
	return s.views(ctx, items)
}

func (s *itemService) views(ctx context.Context, items []models.Item) ([]models.ItemView, error) {
	result := make([]models.ItemView, 0, len(items))
	for i := range items {
		v, err := s.view(ctx, s.DB, &items[i])
		if err != nil {
			return nil, err
		}
		result = append(result, *v)
	}
	return result, nil
}
