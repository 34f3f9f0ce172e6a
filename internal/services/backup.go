package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dmitrijs2005/snipkeeper/internal/blobstore"
	"github.com/dmitrijs2005/snipkeeper/internal/common"
	"github.com/dmitrijs2005/snipkeeper/internal/dbx"
	"github.com/dmitrijs2005/snipkeeper/internal/models"
	"github.com/google/uuid"
)

const snapshotVersion = 1

// Snapshot is the exported form of the whole store. Sensitive values stay
// sealed, so a snapshot restores only where the same key file is present.
type Snapshot struct {
	Version    int                `json:"version"`
	CreatedAt  time.Time          `json:"created_at"`
	Categories []SnapshotCategory `json:"categories"`
	Tags       []SnapshotTag      `json:"tags"`
	Areas      []SnapshotArea     `json:"areas"`
	Items      []SnapshotItem     `json:"items"`
}

type SnapshotCategory struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Icon string `json:"icon,omitempty"`
}

type SnapshotTag struct {
	ID      int64           `json:"id"`
	Name    string          `json:"name"`
	Color   string          `json:"color,omitempty"`
	Scope   models.TagScope `json:"scope"`
	ScopeID int64           `json:"scope_id,omitempty"`
}

type SnapshotArea struct {
	ID          int64              `json:"id"`
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	Active      bool               `json:"active"`
	Relations   []SnapshotRelation `json:"relations,omitempty"`
}

type SnapshotRelation struct {
	EntityType  models.EntityType `json:"entity_type"`
	EntityID    int64             `json:"entity_id"`
	Description string            `json:"description,omitempty"`
	Order       int               `json:"order"`
}

// SnapshotItem holds Content for plain items and Sealed/Nonce for
// sensitive ones.
type SnapshotItem struct {
	ID            int64              `json:"id"`
	CategoryID    int64              `json:"category_id"`
	Label         string             `json:"label"`
	Type          models.ContentType `json:"type"`
	Content       string             `json:"content,omitempty"`
	Sealed        []byte             `json:"sealed,omitempty"`
	Nonce         []byte             `json:"nonce,omitempty"`
	Favorite      bool               `json:"favorite,omitempty"`
	FavoriteOrder int                `json:"favorite_order,omitempty"`
	UseCount      int64              `json:"use_count,omitempty"`
	LastUsedAt    *time.Time         `json:"last_used_at,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
	TagIDs        []int64            `json:"tag_ids,omitempty"`
}

// ImportStats counts what an import created.
type ImportStats struct {
	Categories int
	Tags       int
	Areas      int
	Items      int
	Relations  int
}

type BackupService interface {
	Export(ctx context.Context, w io.Writer) error
	// Import merges categories, tags and areas by name and adds every item,
	// all in one transaction.
	Import(ctx context.Context, r io.Reader) (*ImportStats, error)
	// Backup writes a snapshot to the store and returns its name.
	Backup(ctx context.Context) (string, error)
	Restore(ctx context.Context, name string) (*ImportStats, error)
	List(ctx context.Context) ([]string, error)
}

type backupService struct {
	*Deps
	store blobstore.Store
}

// NewBackupService builds the service; store may be nil when no backup
// target is configured, which leaves only Export and Import usable.
func NewBackupService(deps *Deps, store blobstore.Store) BackupService {
	return &backupService{Deps: deps, store: store}
}

func (s *backupService) snapshot(ctx context.Context) (*Snapshot, error) {
	db := s.DB
	snap := &Snapshot{Version: snapshotVersion, CreatedAt: s.now()}

	cats, err := s.Repos.Categories(db).List(ctx)
	if err != nil {
		return nil, err
	}
	for _, c := range cats {
		snap.Categories = append(snap.Categories, SnapshotCategory{ID: c.ID, Name: c.Name, Icon: c.Icon})
	}

	tags, err := s.Repos.Tags(db).List(ctx)
	if err != nil {
		return nil, err
	}
	for _, t := range tags {
		snap.Tags = append(snap.Tags, SnapshotTag{ID: t.ID, Name: t.Name, Color: t.Color, Scope: t.Scope, ScopeID: t.ScopeID})
	}

	areaRepo := s.Repos.Areas(db)
	areas, err := areaRepo.List(ctx, false)
	if err != nil {
		return nil, err
	}
	for _, a := range areas {
		rels, err := areaRepo.Relations(ctx, a.ID, "")
		if err != nil {
			return nil, err
		}
		sa := SnapshotArea{ID: a.ID, Name: a.Name, Description: a.Description, Active: a.Active}
		for _, rel := range rels {
			sa.Relations = append(sa.Relations, SnapshotRelation{
				EntityType:  rel.EntityType,
				EntityID:    rel.EntityID,
				Description: rel.Description,
				Order:       rel.Order,
			})
		}
		snap.Areas = append(snap.Areas, sa)
	}

	links, err := s.Repos.Tags(db).Links(ctx)
	if err != nil {
		return nil, err
	}
	items, err := s.Repos.Items(db).All(ctx)
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		si := SnapshotItem{
			ID:            it.ID,
			CategoryID:    it.CategoryID,
			Label:         it.Label,
			Type:          it.Type,
			Favorite:      it.Favorite,
			FavoriteOrder: it.FavoriteOrder,
			UseCount:      it.UseCount,
			LastUsedAt:    it.LastUsedAt,
			CreatedAt:     it.CreatedAt,
			UpdatedAt:     it.UpdatedAt,
			TagIDs:        links[it.ID],
		}
		switch f := it.Content.(type) {
		case models.PlainText:
			si.Content = string(f)
		case models.CipherText:
			si.Sealed, si.Nonce = f.Data, f.Nonce
		}
		snap.Items = append(snap.Items, si)
	}
	return snap, nil
}

func (s *backupService) Export(ctx context.Context, w io.Writer) error {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	s.Log.Info(ctx, "snapshot exported", "items", len(snap.Items))
	return nil
}

func (s *backupService) Import(ctx context.Context, r io.Reader) (*ImportStats, error) {
	var snap Snapshot
	if err := json.NewDecoder(r).Decode(&snap); err != nil {
		return nil, fmt.Errorf("%w: decode snapshot: %v", common.ErrValidation, err)
	}
	if snap.Version != snapshotVersion {
		return nil, fmt.Errorf("%w: unsupported snapshot version %d", common.ErrValidation, snap.Version)
	}

	stats := &ImportStats{}
	err := s.write(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		im := &importer{Deps: s.Deps, tx: tx, stats: stats, at: s.now()}
		return im.run(ctx, &snap)
	})
	if err != nil {
		return nil, err
	}
	s.Log.Info(ctx, "snapshot imported",
		"categories", stats.Categories, "tags", stats.Tags, "areas", stats.Areas,
		"items", stats.Items, "relations", stats.Relations)
	return stats, nil
}

// importer maps ids from a snapshot to ids in this store.
type importer struct {
	*Deps
	tx    dbx.DBTX
	stats *ImportStats
	at    time.Time

	categories map[int64]int64
	tags       map[int64]int64
	areas      map[int64]int64
	items      map[int64]int64
}

func (im *importer) run(ctx context.Context, snap *Snapshot) error {
	im.categories = make(map[int64]int64, len(snap.Categories))
	im.tags = make(map[int64]int64, len(snap.Tags))
	im.areas = make(map[int64]int64, len(snap.Areas))
	im.items = make(map[int64]int64, len(snap.Items))

	steps := []func(context.Context, *Snapshot) error{
		im.importCategories,
		im.importAreas,
		im.importTags,
		im.importItems,
		im.importRelations,
	}
	for _, step := range steps {
		if err := step(ctx, snap); err != nil {
			return err
		}
	}
	return nil
}

func (im *importer) importCategories(ctx context.Context, snap *Snapshot) error {
	repo := im.Repos.Categories(im.tx)
	for _, sc := range snap.Categories {
		c, err := repo.GetByName(ctx, sc.Name)
		if errors.Is(err, common.ErrorNotFound) {
			c = &models.Category{Name: sc.Name, Icon: sc.Icon, CreatedAt: im.at}
			if err = repo.Create(ctx, c); err == nil {
				im.stats.Categories++
			}
		}
		if err != nil {
			return fmt.Errorf("category %q: %w", sc.Name, err)
		}
		im.categories[sc.ID] = c.ID
	}
	return nil
}

func (im *importer) importAreas(ctx context.Context, snap *Snapshot) error {
	repo := im.Repos.Areas(im.tx)
	for _, sa := range snap.Areas {
		a, err := repo.GetByName(ctx, sa.Name)
		if errors.Is(err, common.ErrorNotFound) {
			a = &models.Area{Name: sa.Name, Description: sa.Description, Active: sa.Active, CreatedAt: im.at, UpdatedAt: im.at}
			if err = repo.Create(ctx, a); err == nil {
				im.stats.Areas++
			}
		}
		if err != nil {
			return fmt.Errorf("area %q: %w", sa.Name, err)
		}
		im.areas[sa.ID] = a.ID
	}
	return nil
}

func (im *importer) importTags(ctx context.Context, snap *Snapshot) error {
	repo := im.Repos.Tags(im.tx)
	for _, st := range snap.Tags {
		scopeID, ok := im.scopeID(st.Scope, st.ScopeID)
		if !ok {
			im.Log.Warn(ctx, "tag skipped, scope not in snapshot", "tag", st.Name, "scope", st.Scope)
			continue
		}
		t, err := repo.GetByName(ctx, st.Name, st.Scope, scopeID)
		if errors.Is(err, common.ErrorNotFound) {
			t = &models.Tag{Name: st.Name, Color: st.Color, Scope: st.Scope, ScopeID: scopeID, CreatedAt: im.at}
			if err = repo.Create(ctx, t); err == nil {
				im.stats.Tags++
			}
		}
		if err != nil {
			return fmt.Errorf("tag %q: %w", st.Name, err)
		}
		im.tags[st.ID] = t.ID
	}
	return nil
}

func (im *importer) scopeID(scope models.TagScope, id int64) (int64, bool) {
	switch scope {
	case models.ScopeCategory:
		v, ok := im.categories[id]
		return v, ok
	case models.ScopeArea:
		v, ok := im.areas[id]
		return v, ok
	default:
		return 0, true
	}
}

func (im *importer) importItems(ctx context.Context, snap *Snapshot) error {
	itemRepo := im.Repos.Items(im.tx)
	tagRepo := im.Repos.Tags(im.tx)

	def, err := im.Repos.Categories(im.tx).GetByName(ctx, models.DefaultCategoryName)
	if err != nil {
		return err
	}
	lastFav, err := itemRepo.MaxFavoriteOrder(ctx)
	if err != nil {
		return err
	}

	for _, si := range snap.Items {
		categoryID, ok := im.categories[si.CategoryID]
		if !ok {
			categoryID = def.ID
		}
		ct, err := models.ParseContentType(string(si.Type))
		if err != nil {
			return err
		}

		it := &models.Item{
			CategoryID: categoryID,
			Label:      si.Label,
			Type:       ct,
			Content:    models.PlainText(si.Content),
			Favorite:   si.Favorite,
			UseCount:   si.UseCount,
			LastUsedAt: si.LastUsedAt,
			CreatedAt:  si.CreatedAt,
			UpdatedAt:  si.UpdatedAt,
		}
		if si.Sealed != nil {
			it.Content = models.CipherText{Data: si.Sealed, Nonce: si.Nonce}
		}
		if si.Favorite {
			it.FavoriteOrder = lastFav + 1 + si.FavoriteOrder
		}
		if err := itemRepo.Create(ctx, it); err != nil {
			return fmt.Errorf("item %q: %w", si.Label, err)
		}
		im.items[si.ID] = it.ID
		im.stats.Items++

		for _, old := range si.TagIDs {
			tagID, ok := im.tags[old]
			if !ok {
				continue
			}
			if err := tagRepo.Attach(ctx, it.ID, tagID, im.at); err != nil {
				return err
			}
		}
	}
	return nil
}

func (im *importer) importRelations(ctx context.Context, snap *Snapshot) error {
	repo := im.Repos.Areas(im.tx)
	for _, sa := range snap.Areas {
		areaID := im.areas[sa.ID]
		for _, sr := range sa.Relations {
			var ids map[int64]int64
			switch sr.EntityType {
			case models.EntityItem:
				ids = im.items
			case models.EntityCategory:
				ids = im.categories
			case models.EntityTag:
				ids = im.tags
			}
			entityID, ok := ids[sr.EntityID]
			if !ok {
				continue
			}
			rel := &models.AreaRelation{
				AreaID:      areaID,
				EntityType:  sr.EntityType,
				EntityID:    entityID,
				Description: sr.Description,
				Order:       sr.Order,
				CreatedAt:   im.at,
			}
			err := repo.AddRelation(ctx, rel)
			if errors.Is(err, common.ErrConstraintViolation) {
				continue
			}
			if err != nil {
				return err
			}
			im.stats.Relations++
		}
	}
	return nil
}

func (s *backupService) requireStore() error {
	if s.store == nil {
		return fmt.Errorf("%w: no backup target configured", common.ErrValidation)
	}
	return nil
}

func (s *backupService) Backup(ctx context.Context) (string, error) {
	if err := s.requireStore(); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := s.Export(ctx, &buf); err != nil {
		return "", err
	}
	name := fmt.Sprintf("snipkeeper-%s-%s.json", s.now().Format("20060102T150405Z"), uuid.NewString()[:8])
	if err := s.store.Put(ctx, name, &buf); err != nil {
		return "", err
	}
	s.Log.Info(ctx, "backup written", "name", name)
	return name, nil
}

func (s *backupService) Restore(ctx context.Context, name string) (*ImportStats, error) {
	if err := s.requireStore(); err != nil {
		return nil, err
	}
	rc, err := s.store.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return s.Import(ctx, rc)
}

func (s *backupService) List(ctx context.Context) ([]string, error) {
	if err := s.requireStore(); err != nil {
		return nil, err
	}
	return s.store.List(ctx)
}
