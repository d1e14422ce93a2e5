package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mediagrab/internal/extractor"
	"mediagrab/internal/pool"
	"mediagrab/internal/publisher"
)

type fakeExtractor struct {
	playlist    bool
	meta        *extractor.Metadata
	downloadErr error
	// writeExt, when set, makes Download create outputPrefix.<writeExt>.
	writeExt string
	content  []byte

	mu             sync.Mutex
	downloadCalled int
}

func (f *fakeExtractor) IsPlaylist(ctx context.Context, url string) bool {
	return f.playlist
}

func (f *fakeExtractor) Download(ctx context.Context, url, outputPrefix string, onlyAudio bool) (*extractor.Metadata, error) {
	f.mu.Lock()
	f.downloadCalled++
	f.mu.Unlock()

	if f.downloadErr != nil {
		return nil, f.downloadErr
	}
	if f.writeExt != "" {
		content := f.content
		if content == nil {
			content = []byte("media bytes")
		}
		if err := os.WriteFile(outputPrefix+"."+f.writeExt, content, 0o644); err != nil {
			return nil, err
		}
	}
	return f.meta, nil
}

type fakePublisher struct {
	url string
	err error

	mu          sync.Mutex
	calls       int
	filename    string
	contentType string
	content     []byte
}

func (f *fakePublisher) Publish(ctx context.Context, content []byte, filename, contentType string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.filename = filename
	f.contentType = contentType
	f.content = content
	if f.err != nil {
		return "", f.err
	}
	return f.url, nil
}

type fakeCleaner struct {
	mu    sync.Mutex
	paths []string
}

func (c *fakeCleaner) Schedule(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.paths = append(c.paths, path)
}

func newTestPipeline(t *testing.T, ext Extractor, pub publisher.Publisher) (*Pipeline, *fakeCleaner) {
	t.Helper()
	cleaner := &fakeCleaner{}
	workers := pool.New(4)
	t.Cleanup(workers.Close)
	return New(ext, pub, workers, cleaner, t.TempDir()), cleaner
}

func TestRunRejectsPlaylists(t *testing.T) {
	ext := &fakeExtractor{playlist: true}
	pub := &fakePublisher{}
	p, cleaner := newTestPipeline(t, ext, pub)

	res := p.Run(context.Background(), "https://example.com/list", false)

	assert.Equal(t, FailurePlaylistNotSupported, res.Kind)
	assert.Equal(t, 0, ext.downloadCalled, "playlist rejection must happen before any download")
	assert.Equal(t, 0, pub.calls)
	assert.Empty(t, cleaner.paths, "no temp file should ever have been created")
}

func TestRunSuccessVideo(t *testing.T) {
	ext := &fakeExtractor{
		meta:     &extractor.Metadata{Title: "My Clip", Ext: "mp4"},
		writeExt: "mp4",
		content:  []byte("video-bytes"),
	}
	pub := &fakePublisher{url: "https://storage.example/signed"}
	p, cleaner := newTestPipeline(t, ext, pub)

	res := p.Run(context.Background(), "https://example.com/clip", false)

	require.True(t, res.OK())
	assert.Equal(t, "https://storage.example/signed", res.URL)
	assert.Equal(t, "video", res.MediaType)
	assert.Equal(t, "My Clip", res.Title)
	assert.Equal(t, int64(len("video-bytes")), res.SizeBytes)

	assert.Equal(t, "My Clip.mp4", pub.filename)
	assert.Equal(t, "video/mp4", pub.contentType)
	assert.Equal(t, []byte("video-bytes"), pub.content)

	require.Len(t, cleaner.paths, 1)
	assert.Contains(t, cleaner.paths[0], ".mp4")
}

func TestRunSuccessAudio(t *testing.T) {
	ext := &fakeExtractor{
		meta:     &extractor.Metadata{Title: "A Song", Ext: "mp3"},
		writeExt: "mp3",
	}
	pub := &fakePublisher{url: "https://storage.example/signed"}
	p, _ := newTestPipeline(t, ext, pub)

	res := p.Run(context.Background(), "https://example.com/song", false)

	require.True(t, res.OK())
	assert.Equal(t, "audio", res.MediaType)
	assert.Equal(t, "audio/mp3", pub.contentType)
}

func TestRunDefaultsForMissingMetadataFields(t *testing.T) {
	ext := &fakeExtractor{
		meta:     &extractor.Metadata{},
		writeExt: "mp4",
	}
	pub := &fakePublisher{url: "https://storage.example/signed"}
	p, _ := newTestPipeline(t, ext, pub)

	res := p.Run(context.Background(), "https://example.com/clip", false)

	require.True(t, res.OK())
	assert.Equal(t, "Unknown", res.Title)
	assert.Equal(t, "Unknown.mp4", pub.filename)
}

func TestRunNoMediaFound(t *testing.T) {
	ext := &fakeExtractor{downloadErr: extractor.ErrNoMetadata}
	pub := &fakePublisher{}
	p, _ := newTestPipeline(t, ext, pub)

	res := p.Run(context.Background(), "https://example.com/clip", false)

	assert.Equal(t, FailureNoMediaFound, res.Kind)
	assert.Equal(t, 0, pub.calls)
}

func TestRunDownloadFailed(t *testing.T) {
	ext := &fakeExtractor{downloadErr: errors.New("network timeout")}
	pub := &fakePublisher{}
	p, _ := newTestPipeline(t, ext, pub)

	res := p.Run(context.Background(), "https://example.com/clip", false)

	assert.Equal(t, FailureDownloadFailed, res.Kind)
	assert.ErrorContains(t, res.Err, "network timeout")
}

func TestRunFileMissingAfterDownload(t *testing.T) {
	// Extraction reports success but never writes the file.
	ext := &fakeExtractor{meta: &extractor.Metadata{Title: "Ghost", Ext: "mp4"}}
	pub := &fakePublisher{}
	p, _ := newTestPipeline(t, ext, pub)

	res := p.Run(context.Background(), "https://example.com/clip", false)

	assert.Equal(t, FailureFileMissing, res.Kind)
	assert.Equal(t, 0, pub.calls)
}

func TestRunUploadFailed(t *testing.T) {
	ext := &fakeExtractor{
		meta:     &extractor.Metadata{Title: "Clip", Ext: "mp4"},
		writeExt: "mp4",
	}
	pub := &fakePublisher{err: fmt.Errorf("%w: backend said no", publisher.ErrUpload)}
	p, cleaner := newTestPipeline(t, ext, pub)

	res := p.Run(context.Background(), "https://example.com/clip", false)

	assert.Equal(t, FailureUploadFailed, res.Kind)
	// The temp file still gets scheduled for cleanup on failure.
	require.Len(t, cleaner.paths, 1)
}

func TestRunLinkGenerationFailed(t *testing.T) {
	ext := &fakeExtractor{
		meta:     &extractor.Metadata{Title: "Clip", Ext: "mp4"},
		writeExt: "mp4",
	}
	pub := &fakePublisher{err: fmt.Errorf("%w: head failed", publisher.ErrLink)}
	p, _ := newTestPipeline(t, ext, pub)

	res := p.Run(context.Background(), "https://example.com/clip", false)

	assert.Equal(t, FailureLinkGeneration, res.Kind)
}

func TestRunConcurrentJobsGetDistinctTempPaths(t *testing.T) {
	ext := &fakeExtractor{
		meta:     &extractor.Metadata{Title: "Clip", Ext: "mp4"},
		writeExt: "mp4",
	}
	pub := &fakePublisher{url: "https://storage.example/signed"}
	p, cleaner := newTestPipeline(t, ext, pub)

	const n = 8
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res := p.Run(context.Background(), "https://example.com/clip", false)
			assert.True(t, res.OK())
		}()
	}
	wg.Wait()

	require.Len(t, cleaner.paths, n)
	seen := make(map[string]bool, n)
	for _, path := range cleaner.paths {
		assert.False(t, seen[path], "temp path %s used by more than one job", path)
		seen[path] = true
	}
}

func TestClassifyContentType(t *testing.T) {
	tests := []struct {
		ext  string
		want string
	}{
		{"mp4", "video/mp4"},
		{"webm", "video/mp4"},
		{"MP4", "video/mp4"},
		{"mp3", "audio/mp3"},
		{"m4a", "audio/m4a"},
		{"opus", "audio/opus"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyContentType(tt.ext), "ext %q", tt.ext)
	}
}
