package utils

import (
	"context"
	"io"
)

// Storage persists uploaded files under a flat key namespace.
type Storage interface {
	SaveFile(ctx context.Context, key, contentType string, reader io.Reader) error
	// DeleteFile succeeds when the object is already gone.
	DeleteFile(ctx context.Context, key string) error
	URL(key string) string
}
