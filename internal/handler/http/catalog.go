package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/threadline/catalog-service/internal/domain"
	"github.com/threadline/catalog-service/internal/service"
	"github.com/threadline/catalog-service/pkg/httputil"
	"github.com/threadline/catalog-service/pkg/validator"
)

// nameRequest is the JSON body shared by color and size mutations.
type nameRequest struct {
	Name string `json:"name" validate:"required"`
}

// CatalogHandler handles HTTP requests for the color and size reference
// tables.
type CatalogHandler struct {
	colors *service.ColorService
	sizes  *service.SizeService
	logger *slog.Logger
}

// NewCatalogHandler creates a new catalog HTTP handler.
func NewCatalogHandler(colors *service.ColorService, sizes *service.SizeService, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{
		colors: colors,
		sizes:  sizes,
		logger: logger,
	}
}

func (h *CatalogHandler) decodeName(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req nameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return "", false
	}
	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return "", false
	}
	return req.Name, true
}

// CreateColor handles POST /api/v1/colors.
func (h *CatalogHandler) CreateColor(w http.ResponseWriter, r *http.Request) {
	name, ok := h.decodeName(w, r)
	if !ok {
		return
	}

	color, err := h.colors.Create(r.Context(), name)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: color})
}

// ListColors handles GET /api/v1/colors.
func (h *CatalogHandler) ListColors(w http.ResponseWriter, r *http.Request) {
	page, perPage := paginationParams(r)

	colors, total, err := h.colors.List(r.Context(), perPage, (page-1)*perPage)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK,
		httputil.NewPaginatedResponse[domain.Color](colors, total, page, perPage))
}

// GetColor handles GET /api/v1/colors/{id}.
func (h *CatalogHandler) GetColor(w http.ResponseWriter, r *http.Request) {
	color, err := h.colors.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: color})
}

// UpdateColor handles PUT /api/v1/colors/{id}.
func (h *CatalogHandler) UpdateColor(w http.ResponseWriter, r *http.Request) {
	name, ok := h.decodeName(w, r)
	if !ok {
		return
	}

	color, err := h.colors.Update(r.Context(), chi.URLParam(r, "id"), name)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: color})
}

// DeleteColor handles DELETE /api/v1/colors/{id}.
func (h *CatalogHandler) DeleteColor(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.colors.Delete(r.Context(), id); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]string{"id": id}})
}

// CreateSize handles POST /api/v1/sizes.
func (h *CatalogHandler) CreateSize(w http.ResponseWriter, r *http.Request) {
	name, ok := h.decodeName(w, r)
	if !ok {
		return
	}

	size, err := h.sizes.Create(r.Context(), name)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: size})
}

// ListSizes handles GET /api/v1/sizes.
func (h *CatalogHandler) ListSizes(w http.ResponseWriter, r *http.Request) {
	page, perPage := paginationParams(r)

	sizes, total, err := h.sizes.List(r.Context(), perPage, (page-1)*perPage)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK,
		httputil.NewPaginatedResponse[domain.Size](sizes, total, page, perPage))
}

// GetSize handles GET /api/v1/sizes/{id}.
func (h *CatalogHandler) GetSize(w http.ResponseWriter, r *http.Request) {
	size, err := h.sizes.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: size})
}

// UpdateSize handles PUT /api/v1/sizes/{id}.
func (h *CatalogHandler) UpdateSize(w http.ResponseWriter, r *http.Request) {
	name, ok := h.decodeName(w, r)
	if !ok {
		return
	}

	size, err := h.sizes.Update(r.Context(), chi.URLParam(r, "id"), name)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: size})
}

// DeleteSize handles DELETE /api/v1/sizes/{id}.
func (h *CatalogHandler) DeleteSize(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.sizes.Delete(r.Context(), id); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]string{"id": id}})
}
