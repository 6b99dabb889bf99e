// Package filestore reads uploaded document files by their storage reference.
package filestore

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no file exists under a storage reference
var ErrNotFound = errors.New("file not found")

// Store returns the bytes behind a document's storage reference
type Store interface {
	Open(ctx context.Context, ref string) ([]byte, error)
}
