package publisher

import (
	"context"
	"fmt"
	"time"
)

// ObjectStore is the slice of the storage publisher Remote needs.
// Implemented by storage.Manager.
type ObjectStore interface {
	Upload(ctx context.Context, content []byte, filename, contentType string) (string, error)
	PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error)
}

// Remote publishes to object storage and links via presigned URL.
type Remote struct {
	store  ObjectStore
	expiry time.Duration
}

func NewRemote(store ObjectStore, expiry time.Duration) *Remote {
	return &Remote{store: store, expiry: expiry}
}

func (r *Remote) Publish(ctx context.Context, content []byte, filename, contentType string) (string, error) {
	key, err := r.store.Upload(ctx, content, filename, contentType)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpload, err)
	}

	url, err := r.store.PresignedURL(ctx, key, r.expiry)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrLink, err)
	}
	return url, nil
}
