package models

import "time"

// MediaAsset describes the file produced by the extraction engine. It is
// owned by the job that produced it.
type MediaAsset struct {
	Title       string
	Extension   string
	ContentType string
	SizeBytes   int64
}

// DownloadResponse is the uniform shape returned to callers for every
// outcome, success or failure.
type DownloadResponse struct {
	Success     bool    `json:"success"`
	Message     string  `json:"message"`
	DownloadURL *string `json:"download_url"`
	Type        *string `json:"type"`
}

// ObjectDescriptor describes one stored object, as returned by listing.
type ObjectDescriptor struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"last_modified"`
	ETag         string    `json:"etag"`
}
