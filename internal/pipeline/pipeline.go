// Package pipeline orchestrates one download job from URL to published link:
// playlist rejection, extraction, existence check, read, classification,
// publish, link issuance and scheduled cleanup.
package pipeline

import (
	"context"
	"errors"
	"log"
	"os"
	"path/filepath"
	"strings"

	"mediagrab/internal/extractor"
	"mediagrab/internal/models"
	"mediagrab/internal/pool"
	"mediagrab/internal/publisher"
)

// Extractor is the extraction engine contract.
type Extractor interface {
	IsPlaylist(ctx context.Context, url string) bool
	Download(ctx context.Context, url, outputPrefix string, onlyAudio bool) (*extractor.Metadata, error)
}

// Cleaner schedules best-effort removal of a temp file. Scheduling never
// blocks the response path and its outcome is never surfaced to the caller.
type Cleaner interface {
	Schedule(path string)
}

type Pipeline struct {
	extractor Extractor
	publisher publisher.Publisher
	workers   *pool.Pool
	cleaner   Cleaner
	tempDir   string
}

func New(ext Extractor, pub publisher.Publisher, workers *pool.Pool, cleaner Cleaner, tempDir string) *Pipeline {
	return &Pipeline{
		extractor: ext,
		publisher: pub,
		workers:   workers,
		cleaner:   cleaner,
		tempDir:   tempDir,
	}
}

// Run executes the pipeline for one URL. Steps run strictly in order; every
// blocking step is offloaded to the worker pool. Any failure short-circuits
// the rest and still schedules cleanup of whatever temp file may exist.
func (p *Pipeline) Run(ctx context.Context, url string, onlyAudio bool) Result {
	job := models.NewJob(url, onlyAudio, p.tempDir)
	log.Printf("Job %s: starting download from %s", job.ID, job.URL)

	v, err := p.workers.Do(func() (any, error) {
		return p.extractor.IsPlaylist(ctx, job.URL), nil
	})
	if err != nil {
		return p.fail(job, FailureUnknown, err)
	}
	if v.(bool) {
		log.Printf("Job %s: rejected, URL resolves to a playlist", job.ID)
		job.State = models.StateFailed
		return Result{Kind: FailurePlaylistNotSupported}
	}
	job.State = models.StatePlaylistChecked

	v, err = p.workers.Do(func() (any, error) {
		return p.extractor.Download(ctx, job.URL, job.TempPathPrefix, job.OnlyAudio)
	})
	if err != nil {
		if errors.Is(err, extractor.ErrNoMetadata) {
			return p.fail(job, FailureNoMediaFound, err)
		}
		return p.fail(job, FailureDownloadFailed, err)
	}
	meta := v.(*extractor.Metadata)
	job.State = models.StateDownloaded

	asset := models.MediaAsset{Title: meta.Title, Extension: meta.Ext}
	if asset.Title == "" {
		asset.Title = "Unknown"
	}
	if asset.Extension == "" {
		asset.Extension = "mp4"
	}
	tempFile := job.TempPathPrefix + "." + asset.Extension
	log.Printf("Job %s: downloaded %s.%s", job.ID, asset.Title, asset.Extension)

	_, err = p.workers.Do(func() (any, error) {
		_, statErr := os.Stat(tempFile)
		return nil, statErr
	})
	if err != nil {
		return p.fail(job, FailureFileMissing, err)
	}

	v, err = p.workers.Do(func() (any, error) {
		return os.ReadFile(tempFile)
	})
	if err != nil {
		return p.fail(job, FailureUnknown, err)
	}
	content := v.([]byte)
	job.State = models.StateRead

	asset.SizeBytes = int64(len(content))
	asset.ContentType = ClassifyContentType(asset.Extension)

	// Both publishers run their blocking I/O on their own pool (disk writes
	// for local delivery, backend calls for remote), so this call is not
	// routed through the general pool as well.
	link, err := p.publisher.Publish(ctx, content, asset.Title+"."+asset.Extension, asset.ContentType)
	if err != nil {
		kind := FailureUploadFailed
		if errors.Is(err, publisher.ErrLink) {
			kind = FailureLinkGeneration
		}
		return p.fail(job, kind, err)
	}
	job.State = models.StatePublished

	p.cleaner.Schedule(tempFile)

	mediaType := "audio"
	if strings.HasPrefix(asset.ContentType, "video/") {
		mediaType = "video"
	}
	log.Printf("Job %s: published %q (%d bytes) as %s", job.ID, asset.Title, asset.SizeBytes, mediaType)

	return Result{
		Kind:      FailureNone,
		URL:       link,
		MediaType: mediaType,
		Title:     asset.Title,
		SizeBytes: asset.SizeBytes,
	}
}

// fail marks the job failed, logs the cause, and schedules cleanup of any
// files the extractor may have left behind (including partial downloads).
func (p *Pipeline) fail(job *models.Job, kind FailureKind, err error) Result {
	job.State = models.StateFailed
	log.Printf("Job %s: %s: %v", job.ID, kind, err)

	if matches, globErr := filepath.Glob(job.TempPathPrefix + ".*"); globErr == nil {
		for _, m := range matches {
			p.cleaner.Schedule(m)
		}
	}
	return Result{Kind: kind, Err: err}
}

// ClassifyContentType maps an extension to a MIME type. An explicit table,
// not content sniffing: known video containers map to video/mp4, everything
// else is treated as audio namespaced by extension.
func ClassifyContentType(ext string) string {
	switch strings.ToLower(ext) {
	case "mp4", "webm":
		return "video/mp4"
	default:
		return "audio/" + strings.ToLower(ext)
	}
}
