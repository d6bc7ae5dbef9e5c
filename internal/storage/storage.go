// Package storage provides object storage abstractions for segment and
// resource persistence. The pipeline treats storage as a collaborator: write
// failures are logged and the object discarded, never retried here.
package storage

import (
	"context"
	"errors"
)

// Common errors for storage operations.
var (
	ErrObjectNotFound = errors.New("object not found")
	ErrPutFailed      = errors.New("put failed")
	ErrGetFailed      = errors.New("get failed")
	ErrDeleteFailed   = errors.New("delete failed")
)

// ObjectStorage abstracts the blob store holding closed segments and
// deduplicated resources. Implementations include the local filesystem spool
// and S3-compatible intake buckets.
type ObjectStorage interface {
	// Put writes an object. Existing objects are overwritten; segment and
	// resource paths are content- or ULID-derived, so overwrites are
	// idempotent by construction.
	Put(ctx context.Context, objectPath string, data []byte) error

	// Get reads an object. Returns ErrObjectNotFound if it does not exist.
	Get(ctx context.Context, objectPath string) ([]byte, error)

	// Exists checks if an object exists.
	Exists(ctx context.Context, objectPath string) (bool, error)

	// Delete removes an object. Deleting a missing object is not an error.
	Delete(ctx context.Context, objectPath string) error

	// ListObjects returns all object paths under the given prefix. Used by
	// spool recovery to find segments orphaned by a crash.
	ListObjects(ctx context.Context, prefix string) ([]string, error)
}
