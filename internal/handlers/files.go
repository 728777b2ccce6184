package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/petermazzocco/cloud-vault/internal/httpx"
	"github.com/petermazzocco/cloud-vault/models"
)

const multipartMemory = 32 << 20

type uploadResp struct {
	ID      uint   `json:"id"`
	URL     string `json:"url"`
	Name    string `json:"name"`
	Type    string `json:"type"`
	Size    int64  `json:"size"`
	Warning string `json:"warning,omitempty"`
}

// UploadFileHandler handles POST /api/upload with a multipart "file" field.
// The metadata record is written even when object storage rejected the
// payload; the response then carries the storage error as a warning.
func (a *API) UploadFileHandler(w http.ResponseWriter, r *http.Request) {
	// leave room for multipart framing around a maximum size file
	r.Body = http.MaxBytesReader(w, r.Body, a.cfg.MaxUploadBytes+1<<20)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httpx.WriteMessage(w, http.StatusBadRequest, "File too large")
			return
		}
		httpx.WriteMessage(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		httpx.WriteMessage(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		a.log.Error(r.Context(), "read upload", "err", err)
		httpx.WriteMessage(w, http.StatusInternalServerError, "Upload failed")
		return
	}
	if int64(len(data)) > a.cfg.MaxUploadBytes {
		httpx.WriteMessage(w, http.StatusBadRequest, "File too large")
		return
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	res := a.storage.Upload(r.Context(), data, header.Filename, mimeType)

	record, err := a.files.Create(r.Context(), &models.File{
		Name:     header.Filename,
		URL:      res.URL,
		Type:     models.FileType(mimeType),
		Size:     int64(len(data)),
		Category: models.DefaultCategory,
	})
	if err != nil {
		// the object, if stored, is left orphaned
		a.log.Error(r.Context(), "save file metadata", "name", header.Filename, "external_id", res.ExternalID, "err", err)
		httpx.WriteJSON(w, http.StatusInternalServerError, httpx.ErrorBody{
			Message: "Upload failed",
			Error:   err.Error(),
		})
		return
	}

	if !res.Succeeded {
		a.log.Warn(r.Context(), "upload degraded", "file_id", record.ID, "warning", res.Warning)
	}

	httpx.WriteJSON(w, http.StatusOK, uploadResp{
		ID:      record.ID,
		URL:     res.URL,
		Name:    record.Name,
		Type:    record.Type,
		Size:    record.Size,
		Warning: res.Warning,
	})
}

// ListFilesHandler handles GET /api/files?search=&category=&type=.
func (a *API) ListFilesHandler(w http.ResponseWriter, r *http.Request) {
	all, err := a.files.ListAll(r.Context())
	if err != nil {
		a.log.Error(r.Context(), "list files", "err", err)
		httpx.WriteMessage(w, http.StatusInternalServerError, "Failed to get files")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, Filter(all, PredicatesFromQuery(r.URL.Query())...))
}
