package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/snipkeeper/internal/common"
)

// Area groups items, categories and tags into a project level view above
// categories.
type Area struct {
	ID          int64
	Name        string
	Description string
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// EntityType names the kind of entity an area relation points to.
type EntityType string

const (
	EntityItem     EntityType = "item"
	EntityCategory EntityType = "category"
	EntityTag      EntityType = "tag"
)

func ParseEntityType(s string) (EntityType, error) {
	switch et := EntityType(strings.ToLower(strings.TrimSpace(s))); et {
	case EntityItem, EntityCategory, EntityTag:
		return et, nil
	default:
		return "", fmt.Errorf("%w: unknown entity type %q", common.ErrValidation, s)
	}
}

// AreaRelation links an area to one entity. Order positions the entity
// within its area.
type AreaRelation struct {
	ID          int64
	AreaID      int64
	EntityType  EntityType
	EntityID    int64
	Description string
	Order       int
	CreatedAt   time.Time
}

// AreaEntry is a relation with the display name of its entity: the item
// label, or the category or tag name.
type AreaEntry struct {
	AreaRelation
	Name string
}

// AreaContents is an area with its relations grouped by entity type.
type AreaContents struct {
	Area
	Items      []AreaEntry
	Categories []AreaEntry
	Tags       []AreaEntry
}

// Total counts the entities linked to the area.
func (c *AreaContents) Total() int {
	return len(c.Items) + len(c.Categories) + len(c.Tags)
}
