package services

import (
	"context"

	"github.com/dmitrijs2005/snipkeeper/internal/dbx"
	"github.com/dmitrijs2005/snipkeeper/internal/models"
)

// CategoryService manages categories. Deleting a category that still owns
// items fails with common.ErrConstraintViolation; items are never cascaded.
type CategoryService interface {
	Create(ctx context.Context, name, icon string) (*models.Category, error)
	Get(ctx context.Context, id int64) (*models.Category, error)
	GetByName(ctx context.Context, name string) (*models.Category, error)
	List(ctx context.Context) ([]models.Category, error)
	Update(ctx context.Context, id int64, name, icon string) (*models.Category, error)
	Delete(ctx context.Context, id int64) error
}

type categoryService struct {
	*Deps
}

func NewCategoryService(deps *Deps) CategoryService {
	return &categoryService{Deps: deps}
}

func (s *categoryService) Create(ctx context.Context, name, icon string) (*models.Category, error) {
	name, err := requireName("category name", name, maxCategoryLen)
	if err != nil {
		return nil, err
	}

	c := &models.Category{Name: name, Icon: icon, CreatedAt: s.now()}
	err = s.write(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		return s.Repos.Categories(tx).Create(ctx, c)
	})
	if err != nil {
		return nil, err
	}
	s.Log.Info(ctx, "category created", "id", c.ID, "name", c.Name)
	return c, nil
}

func (s *categoryService) Get(ctx context.Context, id int64) (*models.Category, error) {
	return s.Repos.Categories(s.DB).GetByID(ctx, id)
}

func (s *categoryService) GetByName(ctx context.Context, name string) (*models.Category, error) {
	return s.Repos.Categories(s.DB).GetByName(ctx, name)
}

func (s *categoryService) List(ctx context.Context) ([]models.Category, error) {
	return s.Repos.Categories(s.DB).List(ctx)
}

func (s *categoryService) Update(ctx context.Context, id int64, name, icon string) (*models.Category, error) {
	name, err := requireName("category name", name, maxCategoryLen)
	if err != nil {
		return nil, err
	}

	var c *models.Category
	err = s.write(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.Repos.Categories(tx)
		current, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		current.Name, current.Icon = name, icon
		if err := repo.Update(ctx, current); err != nil {
			return err
		}
		c = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *categoryService) Delete(ctx context.Context, id int64) error {
	err := s.write(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		return s.Repos.Categories(tx).Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	s.Log.Info(ctx, "category deleted", "id", id)
	return nil
}
