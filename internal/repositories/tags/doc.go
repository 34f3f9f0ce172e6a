// Package tags persists tags and their many-to-many links to items.
//
// # Scopes
//
// A tag is global, or limited to one category or area (scope, scope_id).
// Names are unique within a scope. The repository does not check that an
// item is allowed to carry a scoped tag; services do that on Attach.
// DetachOutOfArea removes area tags from items their area stopped
// containing, and the schema deletes scoped tags together with their
// category or area.
//
// Deleting a tag cascades to item_tags and to area relations naming it.
package tags
