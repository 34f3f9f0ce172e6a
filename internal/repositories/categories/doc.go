// Package categories persists item categories.
//
// Deleting a category that still owns items fails with
// common.ErrConstraintViolation; predefined categories cannot be deleted.
// Tags scoped to a deleted category are removed with it.
package categories
