// Package fileserver serves published files from a local directory. It is
// the delivery surface for local mode: no authentication, and anything in
// the directory is served.
package fileserver

import (
	"fmt"
	"io"
	"log"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
)

// The stdlib builtin table lacks common media containers, and the system
// mime.types database is not guaranteed to exist.
func init() {
	mime.AddExtensionType(".mp4", "video/mp4")
	mime.AddExtensionType(".webm", "video/webm")
	mime.AddExtensionType(".mkv", "video/x-matroska")
	mime.AddExtensionType(".m4a", "audio/mp4")
	mime.AddExtensionType(".mp3", "audio/mpeg")
	mime.AddExtensionType(".ogg", "audio/ogg")
	mime.AddExtensionType(".opus", "audio/opus")
}

// Handler serves GET /files/{filename} out of dir. Audio and video content
// types are sent with an attachment disposition so browsers save instead of
// play them.
func Handler(dir string) http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/files/{filename}", serveFile(dir)).Methods(http.MethodGet)
	return r
}

func serveFile(dir string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := mux.Vars(r)["filename"]
		if name != filepath.Base(name) {
			http.Error(w, "File not found", http.StatusNotFound)
			return
		}

		f, err := os.Open(filepath.Join(dir, name))
		if err != nil {
			http.Error(w, "File not found", http.StatusNotFound)
			return
		}
		defer f.Close()

		fi, err := f.Stat()
		if err != nil || fi.IsDir() {
			http.Error(w, "File not found", http.StatusNotFound)
			return
		}

		ctype := mime.TypeByExtension(filepath.Ext(name))
		if ctype == "" {
			ctype = "application/octet-stream"
		}
		w.Header().Set("Content-Type", ctype)
		if strings.HasPrefix(ctype, "video/") || strings.HasPrefix(ctype, "audio/") {
			w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
		}
		w.Header().Set("Content-Length", strconv.FormatInt(fi.Size(), 10))

		if _, err := io.Copy(w, f); err != nil {
			log.Printf("Failed to serve %s: %v", name, err)
		}
	}
}
