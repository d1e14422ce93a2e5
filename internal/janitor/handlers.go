// Package janitor owns background disk and bucket hygiene: temp-file removal
// scheduled by the pipeline, and periodic reaping of stored objects whose
// download links have long expired.
package janitor

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/hibiken/asynq"

	"mediagrab/internal/models"
	"mediagrab/pkg/tasks"
)

// reapListLimit bounds how many objects one reap pass considers.
const reapListLimit = 1000

// ObjectStore is the slice of the storage publisher the janitor needs.
type ObjectStore interface {
	List(ctx context.Context, prefix string, maxKeys int) ([]models.ObjectDescriptor, error)
	Delete(ctx context.Context, key string) bool
}

type TaskHandler struct {
	store     ObjectStore
	retention time.Duration
}

// NewTaskHandler creates a handler. store may be nil in local delivery mode,
// where no bucket exists to reap.
func NewTaskHandler(store ObjectStore, retention time.Duration) *TaskHandler {
	return &TaskHandler{store: store, retention: retention}
}

// HandleCleanupTempFileTask removes one temp file. A missing file is fine;
// any other failure is logged and not retried.
func (h *TaskHandler) HandleCleanupTempFileTask(ctx context.Context, t *asynq.Task) error {
	var p tasks.CleanupTempFilePayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("failed to unmarshal task payload: %w", err)
	}

	if err := os.Remove(p.Path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		log.Printf("Failed to remove temp file %s: %v", p.Path, err)
		return nil
	}
	log.Printf("Removed temp file %s", p.Path)
	return nil
}

// HandleReapStaleObjectsTask deletes stored objects older than the retention
// window. Their presigned links expired long ago, so they are unreachable.
func (h *TaskHandler) HandleReapStaleObjectsTask(ctx context.Context, t *asynq.Task) error {
	if h.store == nil {
		return nil
	}

	objects, err := h.store.List(ctx, "", reapListLimit)
	if err != nil {
		return fmt.Errorf("failed to list objects for reaping: %w", err)
	}

	cutoff := time.Now().Add(-h.retention)
	removed := 0
	for _, obj := range objects {
		if obj.LastModified.Before(cutoff) && h.store.Delete(ctx, obj.Key) {
			removed++
		}
	}

	log.Printf("Reaped %d stale objects (of %d listed)", removed, len(objects))
	return nil
}
