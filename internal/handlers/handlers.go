// Package handlers is the delivery front: it accepts a URL, drives the
// pipeline, and maps its terminal state onto the uniform response shape.
// No business logic lives here beyond that mapping.
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"mediagrab/internal/models"
	"mediagrab/internal/pipeline"
)

// Runner drives one pipeline execution. Implemented by pipeline.Pipeline.
type Runner interface {
	Run(ctx context.Context, url string, onlyAudio bool) pipeline.Result
}

// StorageHealth reports backend reachability for the health endpoint. Nil in
// local delivery mode.
type StorageHealth interface {
	Healthy(ctx context.Context) error
}

type Handlers struct {
	pipe    Runner
	storage StorageHealth
	mode    string
	expiry  time.Duration
}

func New(pipe Runner, storage StorageHealth, mode string, expiry time.Duration) *Handlers {
	return &Handlers{pipe: pipe, storage: storage, mode: mode, expiry: expiry}
}

type downloadRequest struct {
	URL       string `json:"url"`
	OnlyAudio bool   `json:"only_audio"`
}

// Download handles POST /api/download. The response shape is identical for
// every outcome so downstream consumers can parse it deterministically.
func (h *Handlers) Download(w http.ResponseWriter, r *http.Request) {
	var req downloadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeResponse(w, http.StatusBadRequest, models.DownloadResponse{
			Message: "Invalid request body.",
		})
		return
	}
	if req.URL == "" {
		writeResponse(w, http.StatusBadRequest, models.DownloadResponse{
			Message: "URL is required.",
		})
		return
	}

	res := h.pipe.Run(r.Context(), req.URL, req.OnlyAudio)
	if !res.OK() {
		writeResponse(w, http.StatusOK, models.DownloadResponse{
			Message: failureMessage(res),
		})
		return
	}

	message := fmt.Sprintf("Download complete: %s (%s, %d bytes). Link expires in %d hours.",
		res.Title, res.MediaType, res.SizeBytes, int(h.expiry.Hours()))
	writeResponse(w, http.StatusOK, models.DownloadResponse{
		Success:     true,
		Message:     message,
		DownloadURL: &res.URL,
		Type:        &res.MediaType,
	})
}

// Health handles GET /healthz, reporting delivery mode and, in remote mode,
// bucket accessibility.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK
	if h.storage != nil {
		if err := h.storage.Healthy(r.Context()); err != nil {
			log.Printf("Health check failed: %v", err)
			status = "storage unavailable"
			code = http.StatusServiceUnavailable
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{
		"status": status,
		"mode":   h.mode,
	})
}

func failureMessage(res pipeline.Result) string {
	switch res.Kind {
	case pipeline.FailurePlaylistNotSupported:
		return "Playlists are not supported. Please provide a single media URL."
	case pipeline.FailureNoMediaFound:
		return "No media found at the provided URL."
	case pipeline.FailureFileMissing:
		return "Failed to download the media file."
	case pipeline.FailureUploadFailed:
		return "Failed to store the media file."
	case pipeline.FailureLinkGeneration:
		return "Failed to generate a download link."
	case pipeline.FailureDownloadFailed:
		return fmt.Sprintf("Error during download: %v", res.Err)
	default:
		return fmt.Sprintf("Error: %v", res.Err)
	}
}

func writeResponse(w http.ResponseWriter, code int, resp models.DownloadResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}
