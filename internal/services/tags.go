package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/snipkeeper/internal/common"
	"github.com/dmitrijs2005/snipkeeper/internal/dbx"
	"github.com/dmitrijs2005/snipkeeper/internal/models"
)

// TagInput describes a tag. ScopeID names the category or area for scoped
// tags and must be zero for global ones.
type TagInput struct {
	Name    string
	Color   string
	Scope   models.TagScope
	ScopeID int64
}

type TagService interface {
	Create(ctx context.Context, in TagInput) (*models.Tag, error)
	Get(ctx context.Context, id int64) (*models.Tag, error)
	// Find looks a tag up by name within a scope; the name is normalized first.
	Find(ctx context.Context, name string, scope models.TagScope, scopeID int64) (*models.Tag, error)
	List(ctx context.Context) ([]models.Tag, error)
	// Update renames or recolors a tag; scope is fixed at creation.
	Update(ctx context.Context, id int64, name, color string) (*models.Tag, error)
	Delete(ctx context.Context, id int64) error
	ForItem(ctx context.Context, itemID int64) ([]models.Tag, error)
	Popular(ctx context.Context, limit int) ([]models.TagUsage, error)
	// Prune deletes tags attached to no item.
	Prune(ctx context.Context) (int64, error)
}

type tagService struct {
	*Deps
}

func NewTagService(deps *Deps) TagService {
	return &tagService{Deps: deps}
}

func (s *tagService) checkScope(ctx context.Context, db dbx.DBTX, scope models.TagScope, scopeID int64) error {
	switch scope {
	case models.ScopeGlobal:
		if scopeID != 0 {
			return fmt.Errorf("%w: global tags take no scope id", common.ErrValidation)
		}
		return nil
	case models.ScopeCategory:
		_, err := s.Repos.Categories(db).GetByID(ctx, scopeID)
		return err
	case models.ScopeArea:
		_, err := s.Repos.Areas(db).GetByID(ctx, scopeID)
		return err
	default:
		return fmt.Errorf("%w: unknown tag scope %q", common.ErrValidation, scope)
	}
}

func (s *tagService) Create(ctx context.Context, in TagInput) (*models.Tag, error) {
	name, err := NormalizeTagName(in.Name)
	if err != nil {
		return nil, err
	}
	color, err := validateColor(in.Color)
	if err != nil {
		return nil, err
	}
	scope := in.Scope
	if scope == "" {
		scope = models.ScopeGlobal
	}

	t := &models.Tag{Name: name, Color: color, Scope: scope, ScopeID: in.ScopeID, CreatedAt: s.now()}
	err = s.write(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.checkScope(ctx, tx, t.Scope, t.ScopeID); err != nil {
			return err
		}
		return s.Repos.Tags(tx).Create(ctx, t)
	})
	if err != nil {
		return nil, err
	}
	s.Log.Info(ctx, "tag created", "id", t.ID, "name", t.Name, "scope", t.Scope)
	return t, nil
}

func (s *tagService) Get(ctx context.Context, id int64) (*models.Tag, error) {
	return s.Repos.Tags(s.DB).GetByID(ctx, id)
}

func (s *tagService) Find(ctx context.Context, name string, scope models.TagScope, scopeID int64) (*models.Tag, error) {
	name, err := NormalizeTagName(name)
	if err != nil {
		return nil, err
	}
	if scope == "" {
		scope = models.ScopeGlobal
	}
	return s.Repos.Tags(s.DB).GetByName(ctx, name, scope, scopeID)
}

func (s *tagService) List(ctx context.Context) ([]models.Tag, error) {
	return s.Repos.Tags(s.DB).List(ctx)
}

func (s *tagService) Update(ctx context.Context, id int64, name, color string) (*models.Tag, error) {
	name, err := NormalizeTagName(name)
	if err != nil {
		return nil, err
	}
	color, err = validateColor(color)
	if err != nil {
		return nil, err
	}

	var t *models.Tag
	err = s.write(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.Repos.Tags(tx)
		current, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		current.Name, current.Color = name, color
		if err := repo.Update(ctx, current); err != nil {
			return err
		}
		t = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (s *tagService) Delete(ctx context.Context, id int64) error {
	return s.write(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		return s.Repos.Tags(tx).Delete(ctx, id)
	})
}

func (s *tagService) ForItem(ctx context.Context, itemID int64) ([]models.Tag, error) {
	if _, err := s.Repos.Items(s.DB).GetByID(ctx, itemID); err != nil {
		return nil, err
	}
	return s.Repos.Tags(s.DB).TagsForItem(ctx, itemID)
}

func (s *tagService) Popular(ctx context.Context, limit int) ([]models.TagUsage, error) {
	return s.Repos.Tags(s.DB).Popular(ctx, limit)
}

func (s *tagService) Prune(ctx context.Context) (int64, error) {
	var n int64
	err := s.write(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		n, err = s.Repos.Tags(tx).DeleteUnused(ctx)
		return err
	})
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.Log.Info(ctx, "unused tags pruned", "count", n)
	}
	return n, nil
}
