package tasks

import "github.com/hibiken/asynq"

// TaskEnqueuer is the enqueue seam. asynq.Client satisfies it; tests swap in
// a recording mock.
type TaskEnqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}
