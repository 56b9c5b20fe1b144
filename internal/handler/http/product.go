package http

import (
	"encoding/json"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/threadline/catalog-service/internal/domain"
	"github.com/threadline/catalog-service/internal/repository"
	"github.com/threadline/catalog-service/internal/service"
	"github.com/threadline/catalog-service/pkg/httputil"
	"github.com/threadline/catalog-service/pkg/validator"
)

// maxUploadSize bounds a single multipart request body.
const maxUploadSize = 20 << 20

// ProductHandler handles HTTP requests for product endpoints.
type ProductHandler struct {
	service *service.ProductService
	logger  *slog.Logger
}

// NewProductHandler creates a new product HTTP handler.
func NewProductHandler(svc *service.ProductService, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{
		service: svc,
		logger:  logger,
	}
}

// CreateProduct handles POST /api/v1/products (multipart/form-data). The
// "data" field carries the JSON payload; image parts are named "images"
// (positional) or "images[N]" (tagged with the variant index).
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	files, closeFiles, ok := h.parseMultipart(w, r)
	if !ok {
		return
	}
	defer closeFiles()

	var input service.CreateProductInput
	if !decodeDataField(w, r, &input) {
		return
	}

	if err := validator.Validate(input); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	product, err := h.service.Create(r.Context(), input, files)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: product})
}

// GetProduct handles GET /api/v1/products/{id}.
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	product, err := h.service.Get(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: product})
}

// ListProducts handles GET /api/v1/products with optional brand_id, search,
// page, and per_page query parameters.
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	page, perPage := paginationParams(r)

	filter := repository.ListProductsFilter{
		BrandID: r.URL.Query().Get("brand_id"),
		Search:  r.URL.Query().Get("search"),
		Limit:   perPage,
		Offset:  (page - 1) * perPage,
	}

	products, total, err := h.service.List(r.Context(), filter)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK,
		httputil.NewPaginatedResponse[domain.Product](products, total, page, perPage))
}

// UpdateProduct handles PATCH /api/v1/products/{id} (multipart/form-data).
// All fields are optional; new images attach to the variant patches they
// are matched with.
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	files, closeFiles, ok := h.parseMultipart(w, r)
	if !ok {
		return
	}
	defer closeFiles()

	var input service.UpdateProductInput
	if !decodeDataField(w, r, &input) {
		return
	}

	product, err := h.service.Update(r.Context(), id, input, files)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: product})
}

// DeleteProduct handles DELETE /api/v1/products/{id}.
func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.service.Delete(r.Context(), id); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]string{"id": id}})
}

// ReplaceVariantImages handles PUT /api/v1/products/{id}/variants/{variantID}/images
// (multipart/form-data with one or more "images" parts).
func (h *ProductHandler) ReplaceVariantImages(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	variantID := chi.URLParam(r, "variantID")

	files, closeFiles, ok := h.parseMultipart(w, r)
	if !ok {
		return
	}
	defer closeFiles()

	product, err := h.service.ReplaceVariantImages(r.Context(), id, variantID, files)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: product})
}

// parseMultipart parses the request form and collects every image part. The
// returned closer releases the underlying file handles.
func (h *ProductHandler) parseMultipart(w http.ResponseWriter, r *http.Request) ([]service.ImageFile, func(), bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize+(1<<20))

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "failed to parse multipart form: " + err.Error()},
		})
		return nil, nil, false
	}

	files, opened, err := collectImageFiles(r.MultipartForm)
	if err != nil {
		for _, f := range opened {
			_ = f.Close()
		}
		httputil.WriteError(w, r, err, h.logger)
		return nil, nil, false
	}

	closeFiles := func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}
	return files, closeFiles, true
}

// collectImageFiles extracts image parts from the form, preserving the order
// within each field and parsing "images[N]" tags.
func collectImageFiles(form *multipart.Form) ([]service.ImageFile, []multipart.File, error) {
	var files []service.ImageFile
	var opened []multipart.File

	appendField := func(headers []*multipart.FileHeader, tag int) error {
		for _, header := range headers {
			f, err := header.Open()
			if err != nil {
				return err
			}
			opened = append(opened, f)

			contentType := header.Header.Get("Content-Type")
			if contentType == "" {
				contentType = "application/octet-stream"
			}

			files = append(files, service.ImageFile{
				Filename:    header.Filename,
				ContentType: contentType,
				Size:        header.Size,
				Data:        f,
				VariantTag:  tag,
			})
		}
		return nil
	}

	if headers, ok := form.File["images"]; ok {
		if err := appendField(headers, -1); err != nil {
			return nil, opened, err
		}
	}

	for key, headers := range form.File {
		tag, ok := parseImageTag(key)
		if !ok {
			continue
		}
		if err := appendField(headers, tag); err != nil {
			return nil, opened, err
		}
	}

	return files, opened, nil
}

// parseImageTag extracts N from a field named "images[N]".
func parseImageTag(key string) (int, bool) {
	if !strings.HasPrefix(key, "images[") || !strings.HasSuffix(key, "]") {
		return 0, false
	}
	n, err := strconv.Atoi(key[len("images[") : len(key)-1])
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// decodeDataField unmarshals the JSON "data" form field into v.
func decodeDataField(w http.ResponseWriter, r *http.Request, v any) bool {
	data := r.FormValue("data")
	if data == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "data field is required"},
		})
		return false
	}

	if err := json.Unmarshal([]byte(data), v); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid data payload: " + err.Error()},
		})
		return false
	}
	return true
}

// paginationParams reads page/per_page query parameters with defaults.
func paginationParams(r *http.Request) (page, perPage int) {
	page = 1
	perPage = 20

	if v := r.URL.Query().Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			page = n
		}
	}
	if v := r.URL.Query().Get("per_page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			perPage = n
		}
	}
	return page, perPage
}
