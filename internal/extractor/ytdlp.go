// Package extractor adapts the yt-dlp binary: a metadata-only playlist probe
// and a full extraction+download of a single media item.
package extractor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os/exec"
)

// Seam for tests; swapped for a helper-process launcher so no real binary
// runs.
var execCommandContext = exec.CommandContext

// ErrNoMetadata means yt-dlp exited cleanly but produced no usable metadata.
// Distinct from a failed invocation so callers can report it differently.
var ErrNoMetadata = errors.New("extraction returned no metadata")

// Metadata is the subset of yt-dlp's JSON output we care about.
type Metadata struct {
	Type     string            `json:"_type"`
	Entries  []json.RawMessage `json:"entries"`
	ID       string            `json:"id"`
	Title    string            `json:"title"`
	Ext      string            `json:"ext"`
	Duration float64           `json:"duration"`
}

// IsCollection reports whether the metadata describes a playlist or other
// multi-item result rather than a single media item.
func (m *Metadata) IsCollection() bool {
	return m.Type == "playlist" || m.Type == "multi_video" || len(m.Entries) > 0
}

type Extractor struct {
	binary      string
	maxHeight   int
	cookiesFile string
}

// New returns an extractor that shells out to yt-dlp, capping video format
// selection at maxHeight. cookiesFile is passed through when non-empty.
func New(maxHeight int, cookiesFile string) *Extractor {
	return &Extractor{binary: "yt-dlp", maxHeight: maxHeight, cookiesFile: cookiesFile}
}

// IsPlaylist probes url with a flat, metadata-only extraction and reports
// whether it resolves to a collection. A failing probe is treated as "not a
// playlist" so that a flaky probe never blocks a legitimate single item.
func (e *Extractor) IsPlaylist(ctx context.Context, url string) bool {
	cmd := execCommandContext(ctx, e.binary, "-J", "--flat-playlist", "--skip-download", "--no-warnings", url)
	output, err := cmd.Output()
	if err != nil {
		log.Printf("Playlist probe failed for %s, assuming single item: %v", url, err)
		return false
	}

	meta, err := parseMetadata(output)
	if err != nil {
		log.Printf("Playlist probe returned unparseable output for %s, assuming single item: %v", url, err)
		return false
	}
	return meta.IsCollection()
}

// Download extracts and downloads the media behind url. The file lands at
// outputPrefix followed by the extension yt-dlp reports.
func (e *Extractor) Download(ctx context.Context, url, outputPrefix string, onlyAudio bool) (*Metadata, error) {
	args := []string{
		"--print-json",
		"--no-warnings",
		"--no-progress",
		"--match-filter", "!is_live",
		"-o", outputPrefix + ".%(ext)s",
	}
	if onlyAudio {
		args = append(args, "-x", "--audio-format", "m4a")
	} else {
		args = append(args, "-f", fmt.Sprintf("best[height<=%d]/best", e.maxHeight))
	}
	if e.cookiesFile != "" {
		args = append(args, "--cookies", e.cookiesFile)
	}
	args = append(args, url)

	cmd := execCommandContext(ctx, e.binary, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("yt-dlp failed: %w, output: %s", err, output)
	}

	meta, err := parseMetadata(output)
	if err != nil {
		return nil, err
	}
	if onlyAudio {
		// -x rewrites the container; the printed metadata still reports the
		// source extension.
		meta.Ext = "m4a"
	}
	return meta, nil
}

// parseMetadata extracts the JSON object from yt-dlp's output. yt-dlp
// sometimes prints other things to stdout before the JSON.
func parseMetadata(output []byte) (*Metadata, error) {
	jsonStart := bytes.IndexByte(output, '{')
	if jsonStart == -1 {
		return nil, ErrNoMetadata
	}

	var meta Metadata
	if err := json.Unmarshal(output[jsonStart:], &meta); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoMetadata, err)
	}
	return &meta, nil
}
