package janitor

import (
	"log"
	"os"

	"github.com/hibiken/asynq"

	"mediagrab/pkg/tasks"
)

// Cleaner schedules temp-file removal through the task queue. Cleanup is
// fire-and-forget: it is never awaited, never retried (MaxRetry 0), and a
// failure is logged rather than surfaced. If enqueueing itself fails the
// file is removed inline so the disk is still reclaimed.
type Cleaner struct {
	client tasks.TaskEnqueuer
}

func NewCleaner(client tasks.TaskEnqueuer) *Cleaner {
	return &Cleaner{client: client}
}

func (c *Cleaner) Schedule(path string) {
	task, err := tasks.NewCleanupTempFileTask(path)
	if err == nil {
		_, err = c.client.Enqueue(task, asynq.Queue(tasks.QueueCleanup), asynq.MaxRetry(0))
	}
	if err == nil {
		return
	}

	log.Printf("Failed to enqueue cleanup for %s, removing inline: %v", path, err)
	if rmErr := os.Remove(path); rmErr != nil && !os.IsNotExist(rmErr) {
		log.Printf("Failed to remove temp file %s: %v", path, rmErr)
	}
}
