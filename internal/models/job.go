package models

import (
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// JobState tracks how far a download job has progressed. A job's temp file
// must never be read before StateDownloaded and never deleted before
// StatePublished (or StateFailed).
type JobState string

const (
	StateStarted         JobState = "started"
	StatePlaylistChecked JobState = "playlist_checked"
	StateDownloaded      JobState = "downloaded"
	StateRead            JobState = "read"
	StatePublished       JobState = "published"
	StateFailed          JobState = "failed"
)

// Job is one pipeline execution for one URL. Jobs live only for the duration
// of a single request; there is no job store.
type Job struct {
	ID        string
	URL       string
	OnlyAudio bool
	// TempPathPrefix is the path stem for the downloaded file. The extension
	// is only known once extraction reports back.
	TempPathPrefix string
	State          JobState
	CreatedAt      time.Time
}

// NewJob creates a job with a fresh ID. The ID namespaces the temp file, so
// concurrent jobs never collide on disk.
func NewJob(url string, onlyAudio bool, tempDir string) *Job {
	id := uuid.NewString()
	return &Job{
		ID:             id,
		URL:            url,
		OnlyAudio:      onlyAudio,
		TempPathPrefix: filepath.Join(tempDir, id),
		State:          StateStarted,
		CreatedAt:      time.Now(),
	}
}
