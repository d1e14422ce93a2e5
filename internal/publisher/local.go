package publisher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"mediagrab/internal/pool"
)

// Local publishes into a directory served by the file server. Used in
// deployments without remote object storage. Disk writes run on the
// publish-side worker pool.
type Local struct {
	dir     string
	baseURL string
	workers *pool.Pool
}

func NewLocal(dir, baseURL string, workers *pool.Pool) *Local {
	return &Local{dir: dir, baseURL: strings.TrimRight(baseURL, "/"), workers: workers}
}

func (l *Local) Publish(ctx context.Context, content []byte, filename, contentType string) (string, error) {
	ext := "bin"
	if i := strings.LastIndex(filename, "."); i >= 0 && i < len(filename)-1 {
		ext = filename[i+1:]
	}
	name := uuid.NewString() + "." + ext

	_, err := l.workers.Do(func() (any, error) {
		if err := os.MkdirAll(l.dir, 0o755); err != nil {
			return nil, err
		}
		return nil, os.WriteFile(filepath.Join(l.dir, name), content, 0o644)
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpload, err)
	}

	return l.baseURL + "/files/" + name, nil
}
