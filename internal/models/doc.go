// Package models defines the entities persisted by snipkeeper (items,
// categories, tags, areas and sessions) together with the filter
// criteria used to select items.
package models
