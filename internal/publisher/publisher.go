// Package publisher defines the delivery strategy: turn downloaded bytes into
// a retrievable link. Two implementations exist, selected at startup: remote
// object storage with presigned links, and a local directory served by the
// file server.
package publisher

import (
	"context"
	"errors"
)

// Sentinel errors so the pipeline can tell a failed write from a failed link.
var (
	ErrUpload = errors.New("upload failed")
	ErrLink   = errors.New("link generation failed")
)

// Publisher persists content and returns a URL the caller can fetch it from.
type Publisher interface {
	Publish(ctx context.Context, content []byte, filename, contentType string) (string, error)
}
