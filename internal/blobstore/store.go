// Package blobstore keeps backup snapshots outside the database, either in
// a local directory or in an S3 compatible bucket.
package blobstore

import (
	"context"
	"io"
)

// Store is a flat namespace of named objects.
type Store interface {
	Put(ctx context.Context, name string, r io.Reader) error
	// Get opens an object; a missing name is common.ErrorNotFound.
	Get(ctx context.Context, name string) (io.ReadCloser, error)
	// List returns object names in lexical order.
	List(ctx context.Context) ([]string, error)
}
