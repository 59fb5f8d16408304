package photostore

import (
	"context"
	"errors"
	"io"
)

var ErrNotFound = errors.New("photo not found")

// PhotoStore archives uploaded animal photos grouped by session. Keys are
// opaque to callers and safe to put in a URL path.
type PhotoStore interface {
	Save(ctx context.Context, sessionID, mimeType string, r io.Reader) (key string, err error)
	Get(ctx context.Context, key string) (io.ReadCloser, string, error)
	Delete(ctx context.Context, key string) error
	DeleteSession(ctx context.Context, sessionID string) error
}
