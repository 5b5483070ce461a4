package http

import (
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/atinyakov/slashmsg/internal/models"
)

// maxUploadSize bounds media uploads at 32 MiB.
const maxUploadSize = 32 << 20

// UploadHandler stores uploaded media files and reports the URL they
// are served from together with the inferred message kind.
type UploadHandler struct {
	// Dir is the directory uploads are stored in.
	Dir string
	// Log is the structured logger for upload events.
	Log *zap.Logger
}

// Upload handles POST /upload (multipart form with a "file" field).
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid upload")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	if err := os.MkdirAll(h.Dir, 0o755); err != nil {
		h.Log.Error("cannot create upload dir", zap.Error(err))
		writeDetail(w, http.StatusInternalServerError, "upload failed")
		return
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	name := uuid.NewString() + ext
	dst, err := os.Create(filepath.Join(h.Dir, name))
	if err != nil {
		h.Log.Error("cannot store upload", zap.Error(err))
		writeDetail(w, http.StatusInternalServerError, "upload failed")
		return
	}
	defer dst.Close()
	if _, err := io.Copy(dst, file); err != nil {
		h.Log.Error("cannot write upload", zap.Error(err))
		writeDetail(w, http.StatusInternalServerError, "upload failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"url":  "/uploads/" + name,
		"kind": kindForExtension(ext),
	})
}

// kindForExtension maps a file extension onto a message kind.
func kindForExtension(ext string) string {
	switch mt := mime.TypeByExtension(ext); {
	case strings.HasPrefix(mt, "image/"):
		return models.KindImage
	case strings.HasPrefix(mt, "video/"):
		return models.KindVideo
	case strings.HasPrefix(mt, "audio/"):
		return models.KindAudio
	default:
		return models.KindFile
	}
}
