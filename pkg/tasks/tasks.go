package tasks

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	TypeCleanupTempFile  = "tempfile:cleanup"
	TypeReapStaleObjects = "storage:reap"
)

// QueueCleanup is the dedicated queue for temp-file removal so cleanup work
// never sits behind anything else.
const QueueCleanup = "cleanup"

type CleanupTempFilePayload struct {
	Path string
}

func NewCleanupTempFileTask(path string) (*asynq.Task, error) {
	payload, err := json.Marshal(CleanupTempFilePayload{Path: path})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeCleanupTempFile, payload), nil
}

func NewReapStaleObjectsTask() (*asynq.Task, error) {
	return asynq.NewTask(TypeReapStaleObjects, nil), nil
}
