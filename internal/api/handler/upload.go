package handler

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/tablescope/tablescope/internal/api/response"
)

// maxUploadBytes bounds an uploaded CSV at 100 MiB.
const maxUploadBytes = 100 << 20

// NewUploadHandler returns the handler for POST /api/v1/upload. The file is
// stored under uploadDir with a generated id; the returned file_ref is what
// the analyze endpoint accepts.
func NewUploadHandler(uploadDir string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

		file, header, err := r.FormFile("file")
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
				"Multipart field 'file' is required", nil)
			return
		}
		defer file.Close()

		if !strings.EqualFold(filepath.Ext(header.Filename), ".csv") {
			response.Error(w, http.StatusBadRequest, "UNSUPPORTED_FILE_TYPE",
				"Only .csv files are supported", nil)
			return
		}

		if err := os.MkdirAll(uploadDir, 0o755); err != nil {
			slog.Error("creating upload dir failed", "dir", uploadDir, "error", err)
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to store file", nil)
			return
		}

		fileID := uuid.New()
		path := filepath.Join(uploadDir, fileID.String()+".csv")
		dst, err := os.Create(path)
		if err != nil {
			slog.Error("creating upload file failed", "path", path, "error", err)
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to store file", nil)
			return
		}
		defer dst.Close()

		size, err := io.Copy(dst, file)
		if err != nil {
			os.Remove(path)
			if strings.Contains(err.Error(), "request body too large") {
				response.Error(w, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE",
					fmt.Sprintf("File exceeds the %d byte limit", maxUploadBytes), nil)
				return
			}
			slog.Error("writing upload failed", "path", path, "error", err)
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to store file", nil)
			return
		}

		response.Created(w, map[string]any{
			"file_id":    fileID,
			"file_ref":   path,
			"filename":   header.Filename,
			"size_bytes": size,
		})
	}
}
