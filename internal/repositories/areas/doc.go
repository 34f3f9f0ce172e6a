// Package areas persists project areas and their ordered relations to items,
// categories and tags.
//
// # Data Model
//
// An area row carries a unique name, a description and an active flag.
// Relations point at an entity by (entity_type, entity_id) and are unique per
// area. order_index positions an entity within its area; MaxRelationOrder
// returns -1 for an empty area so the first appended relation gets 0.
//
// # Cascades
//
// Deleting an area removes its relations and every tag scoped to the area
// (schema triggers). Deleting an item, category or tag removes the
// relations pointing at it.
//
// Typical Usage
//
//	repo := areas.NewSQLiteRepository(tx)
//	_ = repo.Create(ctx, area)
//	_ = repo.AddRelation(ctx, &models.AreaRelation{AreaID: area.ID, EntityType: models.EntityItem, EntityID: id})
//	rels, _ := repo.Relations(ctx, area.ID, "")
package areas
