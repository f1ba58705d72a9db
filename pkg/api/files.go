package api

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/shelfd/shelfd/pkg/httputil"
)

// handleUpload handles POST /upload: a multipart form with a "file"
// part. The stored name is randomized; the original name is echoed back
// only in the response.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Files.UploadDir == "" {
		httputil.WriteServiceUnavailable(w, "uploads_disabled", "no upload directory configured")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Files.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.cfg.Files.MaxUploadBytes); err != nil {
		httputil.WriteBadRequest(w, "bad_request", "invalid or oversized multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		httputil.WriteBadRequest(w, "bad_request", `missing "file" form field`)
		return
	}
	defer func() { _ = file.Close() }()

	if err := os.MkdirAll(s.cfg.Files.UploadDir, 0o755); err != nil {
		s.log.Error("create upload dir", "error", err)
		httputil.WriteInternalError(w, "internal_error", "failed to store upload")
		return
	}

	name, err := randomFilename(filepath.Ext(header.Filename))
	if err != nil {
		s.log.Error("generate upload name", "error", err)
		httputil.WriteInternalError(w, "internal_error", "failed to store upload")
		return
	}
	path := filepath.Join(s.cfg.Files.UploadDir, name)

	dst, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		s.log.Error("open upload target", "error", err)
		httputil.WriteInternalError(w, "internal_error", "failed to store upload")
		return
	}
	size, err := io.Copy(dst, file)
	closeErr := dst.Close()
	if err != nil || closeErr != nil {
		_ = os.Remove(path)
		s.log.Error("write upload", "error", err, "close_error", closeErr)
		httputil.WriteInternalError(w, "internal_error", "failed to store upload")
		return
	}

	s.log.Info("file uploaded", "stored_as", name, "bytes", size)
	httputil.WriteCreated(w, map[string]any{
		"filename":      name,
		"original_name": header.Filename,
		"size":          size,
	})
}

// randomFilename returns a random hex name keeping the original
// extension.
func randomFilename(ext string) (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return hex.EncodeToString(b) + ext, nil
}
