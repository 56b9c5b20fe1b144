package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/threadline/catalog-service/internal/assetstore"
	"github.com/threadline/catalog-service/pkg/httputil"
)

// ImageHandler exposes the asset store directly for standalone uploads,
// outside the product/brand lifecycles.
type ImageHandler struct {
	assets assetstore.Store
	logger *slog.Logger
}

// NewImageHandler creates a new image HTTP handler.
func NewImageHandler(assets assetstore.Store, logger *slog.Logger) *ImageHandler {
	return &ImageHandler{
		assets: assets,
		logger: logger,
	}
}

// UploadImage handles POST /api/v1/images (multipart/form-data with a
// single "image" file).
func (h *ImageHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize+(1<<20))

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "failed to parse multipart form: " + err.Error()},
		})
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "image file is required"},
		})
		return
	}
	defer func() { _ = file.Close() }()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	asset, err := h.assets.Upload(r.Context(), &assetstore.UploadInput{
		Folder:      "uploads",
		Filename:    header.Filename,
		ContentType: contentType,
		Size:        header.Size,
		Data:        file,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: asset})
}

// DeleteImage handles DELETE /api/v1/images/{assetID}.
func (h *ImageHandler) DeleteImage(w http.ResponseWriter, r *http.Request) {
	assetID := chi.URLParam(r, "assetID")

	if err := h.assets.Delete(r.Context(), assetID); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]string{"asset_id": assetID}})
}
