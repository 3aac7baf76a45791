//go:generate mockgen -source=store.go -destination=mocks/mocks.go -package=mocks Store

package assetstore

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound indicates the asset path is unknown to the store.
var ErrNotFound = errors.New("asset not found")

// Object is an asset ready to be written.
type Object struct {
	Key         string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Store persists binary assets such as profile photos.
//
// Put returns the storage path later passed to Delete and URL. Delete of an
// unknown path is not an error.
type Store interface {
	Put(ctx context.Context, obj Object) (string, error)
	Delete(ctx context.Context, path string) error
	URL(ctx context.Context, path string) (string, error)
}
