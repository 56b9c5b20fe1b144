package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/threadline/catalog-service/internal/domain"
	"github.com/threadline/catalog-service/internal/service"
	"github.com/threadline/catalog-service/pkg/httputil"
)

// BrandHandler handles HTTP requests for brand endpoints.
type BrandHandler struct {
	service *service.BrandService
	logger  *slog.Logger
}

// NewBrandHandler creates a new brand HTTP handler.
func NewBrandHandler(svc *service.BrandService, logger *slog.Logger) *BrandHandler {
	return &BrandHandler{
		service: svc,
		logger:  logger,
	}
}

// CreateBrand handles POST /api/v1/brands (multipart/form-data with a
// "name" field and a required "logo" file).
func (h *BrandHandler) CreateBrand(w http.ResponseWriter, r *http.Request) {
	name, logo, closeLogo, ok := h.parseBrandForm(w, r)
	if !ok {
		return
	}
	defer closeLogo()

	brand, err := h.service.Create(r.Context(), name, logo)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: brand})
}

// GetBrand handles GET /api/v1/brands/{id}.
func (h *BrandHandler) GetBrand(w http.ResponseWriter, r *http.Request) {
	brand, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: brand})
}

// ListBrands handles GET /api/v1/brands.
func (h *BrandHandler) ListBrands(w http.ResponseWriter, r *http.Request) {
	page, perPage := paginationParams(r)

	brands, total, err := h.service.List(r.Context(), perPage, (page-1)*perPage)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK,
		httputil.NewPaginatedResponse[domain.Brand](brands, total, page, perPage))
}

// UpdateBrand handles PATCH /api/v1/brands/{id} (multipart/form-data with
// an optional "name" field and an optional replacement "logo" file).
func (h *BrandHandler) UpdateBrand(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	name, logo, closeLogo, ok := h.parseBrandForm(w, r)
	if !ok {
		return
	}
	defer closeLogo()

	var namePtr *string
	if name != "" {
		namePtr = &name
	}

	brand, err := h.service.Update(r.Context(), id, namePtr, logo)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: brand})
}

// DeleteBrand handles DELETE /api/v1/brands/{id}.
func (h *BrandHandler) DeleteBrand(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.service.Delete(r.Context(), id); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]string{"id": id}})
}

func (h *BrandHandler) parseBrandForm(w http.ResponseWriter, r *http.Request) (string, *service.ImageFile, func(), bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize+(1<<20))

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "failed to parse multipart form: " + err.Error()},
		})
		return "", nil, nil, false
	}

	name := r.FormValue("name")
	noop := func() {}

	file, header, err := r.FormFile("logo")
	if err != nil {
		if err == http.ErrMissingFile {
			return name, nil, noop, true
		}
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid logo upload: " + err.Error()},
		})
		return "", nil, nil, false
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	logo := &service.ImageFile{
		Filename:    header.Filename,
		ContentType: contentType,
		Size:        header.Size,
		Data:        file,
		VariantTag:  -1,
	}
	return name, logo, func() { _ = file.Close() }, true
}
