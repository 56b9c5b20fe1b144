package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	assetmemory "github.com/threadline/catalog-service/internal/assetstore/memory"
	"github.com/threadline/catalog-service/internal/domain"
	"github.com/threadline/catalog-service/internal/repository"
	"github.com/threadline/catalog-service/internal/service"
	apperrors "github.com/threadline/catalog-service/pkg/errors"
)

// In-memory repositories so handler tests exercise the full stack below the
// transport without a database.

type stubProductRepo struct {
	products map[string]*domain.Product
}

func newStubProductRepo() *stubProductRepo {
	return &stubProductRepo{products: make(map[string]*domain.Product)}
}

func (r *stubProductRepo) Create(_ context.Context, p *domain.Product) error {
	cp := *p
	r.products[p.ID] = &cp
	return nil
}

func (r *stubProductRepo) GetByID(_ context.Context, id string) (*domain.Product, error) {
	p, ok := r.products[id]
	if !ok {
		return nil, apperrors.NotFound("product", id)
	}
	cp := *p
	return &cp, nil
}

func (r *stubProductRepo) List(_ context.Context, _ repository.ListProductsFilter) ([]domain.Product, int, error) {
	var out []domain.Product
	for _, p := range r.products {
		out = append(out, *p)
	}
	return out, len(out), nil
}

func (r *stubProductRepo) Update(_ context.Context, p *domain.Product) error {
	if _, ok := r.products[p.ID]; !ok {
		return apperrors.NotFound("product", p.ID)
	}
	cp := *p
	cp.Revision++
	r.products[p.ID] = &cp
	p.Revision++
	return nil
}

func (r *stubProductRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.products[id]; !ok {
		return apperrors.NotFound("product", id)
	}
	delete(r.products, id)
	return nil
}

func (r *stubProductRepo) CountByBrand(_ context.Context, _ string) (int, error)     { return 0, nil }
func (r *stubProductRepo) CountUsingColor(_ context.Context, _ string) (int, error) { return 0, nil }
func (r *stubProductRepo) CountUsingSize(_ context.Context, _ string) (int, error)  { return 0, nil }

type stubBrandRepo struct {
	brands map[string]*domain.Brand
}

func (r *stubBrandRepo) Create(_ context.Context, b *domain.Brand) error { return nil }

func (r *stubBrandRepo) GetByID(_ context.Context, id string) (*domain.Brand, error) {
	b, ok := r.brands[id]
	if !ok {
		return nil, apperrors.NotFound("brand", id)
	}
	return b, nil
}

func (r *stubBrandRepo) List(_ context.Context, _, _ int) ([]domain.Brand, int, error) {
	return nil, 0, nil
}
func (r *stubBrandRepo) Update(_ context.Context, _ *domain.Brand) error { return nil }
func (r *stubBrandRepo) Delete(_ context.Context, _ string) error        { return nil }

type stubColorRepo struct {
	colors map[string]*domain.Color
}

func (r *stubColorRepo) Create(_ context.Context, _ *domain.Color) error { return nil }

func (r *stubColorRepo) GetByID(_ context.Context, id string) (*domain.Color, error) {
	c, ok := r.colors[id]
	if !ok {
		return nil, apperrors.NotFound("color", id)
	}
	return c, nil
}

func (r *stubColorRepo) FindManyByIDs(_ context.Context, ids []string) ([]domain.Color, error) {
	var out []domain.Color
	for _, id := range ids {
		if c, ok := r.colors[id]; ok {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (r *stubColorRepo) List(_ context.Context, _, _ int) ([]domain.Color, int, error) {
	return nil, 0, nil
}
func (r *stubColorRepo) Update(_ context.Context, _ *domain.Color) error { return nil }
func (r *stubColorRepo) Delete(_ context.Context, _ string) error        { return nil }

type stubSizeRepo struct {
	sizes map[string]*domain.Size
}

func (r *stubSizeRepo) Create(_ context.Context, _ *domain.Size) error { return nil }

func (r *stubSizeRepo) GetByID(_ context.Context, id string) (*domain.Size, error) {
	s, ok := r.sizes[id]
	if !ok {
		return nil, apperrors.NotFound("size", id)
	}
	return s, nil
}

func (r *stubSizeRepo) FindManyByIDs(_ context.Context, ids []string) ([]domain.Size, error) {
	var out []domain.Size
	for _, id := range ids {
		if s, ok := r.sizes[id]; ok {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *stubSizeRepo) List(_ context.Context, _, _ int) ([]domain.Size, int, error) {
	return nil, 0, nil
}
func (r *stubSizeRepo) Update(_ context.Context, _ *domain.Size) error { return nil }
func (r *stubSizeRepo) Delete(_ context.Context, _ string) error       { return nil }

type productTestEnv struct {
	repo   *stubProductRepo
	assets *assetmemory.Store
	router chi.Router
}

func newProductTestEnv(t *testing.T) *productTestEnv {
	t.Helper()

	repo := newStubProductRepo()
	brands := &stubBrandRepo{brands: map[string]*domain.Brand{
		"b1": {ID: "b1", Name: "Acme"},
	}}
	colors := &stubColorRepo{colors: map[string]*domain.Color{
		"c1": {ID: "c1", Name: "navy"},
	}}
	sizes := &stubSizeRepo{sizes: map[string]*domain.Size{
		"s1": {ID: "s1", Name: "M"},
		"s2": {ID: "s2", Name: "L"},
	}}

	store := assetmemory.New("https://img.example.com")
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	svc := service.NewProductService(
		repo, nil,
		service.NewReferenceValidator(brands, colors, sizes),
		service.NewVariantAssembler(),
		store, nil, logger,
	)

	h := NewProductHandler(svc, logger)
	router := chi.NewRouter()
	router.Post("/products", h.CreateProduct)
	router.Get("/products/{id}", h.GetProduct)
	router.Get("/products", h.ListProducts)
	router.Patch("/products/{id}", h.UpdateProduct)
	router.Delete("/products/{id}", h.DeleteProduct)
	router.Put("/products/{id}/variants/{variantID}/images", h.ReplaceVariantImages)

	return &productTestEnv{repo: repo, assets: store, router: router}
}

func multipartBody(t *testing.T, data string, images map[string]int) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	if data != "" {
		require.NoError(t, writer.WriteField("data", data))
	}
	for field, count := range images {
		for i := 0; i < count; i++ {
			part, err := writer.CreateFormFile(field, "photo.jpg")
			require.NoError(t, err)
			_, err = io.WriteString(part, "jpegdata")
			require.NoError(t, err)
		}
	}
	require.NoError(t, writer.Close())

	return body, writer.FormDataContentType()
}

func decodeData(t *testing.T, body io.Reader, v any) {
	t.Helper()
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.NewDecoder(body).Decode(&envelope))
	require.NoError(t, json.Unmarshal(envelope.Data, v))
}

func TestProductHandler_CreateProduct(t *testing.T) {
	env := newProductTestEnv(t)

	data := `{
		"name": "Hoodie",
		"brand_id": "b1",
		"variants": [
			{"size_id": "s1", "color_ids": ["c1"], "stock": 5},
			{"size_id": "s2", "color_ids": ["c1"], "stock": 0}
		]
	}`
	body, contentType := multipartBody(t, data, map[string]int{"images": 2})

	req := httptest.NewRequest(http.MethodPost, "/products", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	env.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var product domain.Product
	decodeData(t, rec.Body, &product)

	assert.Equal(t, "Hoodie", product.Name)
	require.Len(t, product.Variants, 2)
	assert.NotEmpty(t, product.Variants[0].VariantID)
	assert.Equal(t, 2, env.assets.Len())
}

func TestProductHandler_CreateProduct_MissingDataField(t *testing.T) {
	env := newProductTestEnv(t)

	body, contentType := multipartBody(t, "", map[string]int{"images": 1})
	req := httptest.NewRequest(http.MethodPost, "/products", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	env.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, env.assets.Len())
}

func TestProductHandler_CreateProduct_ValidationError(t *testing.T) {
	env := newProductTestEnv(t)

	// Missing brand_id fails struct validation before the service runs.
	body, contentType := multipartBody(t, `{"name": "Hoodie", "variants": [{"size_id": "s1"}]}`,
		map[string]int{"images": 1})
	req := httptest.NewRequest(http.MethodPost, "/products", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	env.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProductHandler_CreateProduct_TaggedImages(t *testing.T) {
	env := newProductTestEnv(t)

	data := `{
		"name": "Hoodie",
		"brand_id": "b1",
		"variants": [
			{"size_id": "s1", "stock": 1},
			{"size_id": "s2", "stock": 1}
		]
	}`
	body, contentType := multipartBody(t, data, map[string]int{"images[0]": 2, "images[1]": 1})

	req := httptest.NewRequest(http.MethodPost, "/products", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	env.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var product domain.Product
	decodeData(t, rec.Body, &product)

	byImages := map[string]int{}
	for _, v := range product.Variants {
		byImages[v.SizeID] = len(v.Images)
	}
	assert.Equal(t, 2, byImages["s1"])
	assert.Equal(t, 1, byImages["s2"])
}

func TestProductHandler_GetProduct_NotFound(t *testing.T) {
	env := newProductTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/products/missing", nil)
	rec := httptest.NewRecorder()

	env.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProductHandler_UpdateProduct_DuplicateVariant(t *testing.T) {
	env := newProductTestEnv(t)
	env.repo.products["p1"] = &domain.Product{
		ID: "p1", Name: "Hoodie", BrandID: "b1",
		Variants: []domain.Variant{
			{VariantID: "V1", SizeID: "s1", ColorIDs: []string{"c1"}},
			{VariantID: "V2", SizeID: "s2", ColorIDs: []string{"c1"}},
		},
		Revision:  1,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}

	body, contentType := multipartBody(t,
		`{"variants": [{"variant_id": "V2", "size_id": "s1"}]}`, nil)
	req := httptest.NewRequest(http.MethodPatch, "/products/p1", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	env.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "DUPLICATE_VARIANT")
}

func TestProductHandler_DeleteProduct(t *testing.T) {
	env := newProductTestEnv(t)
	env.repo.products["p1"] = &domain.Product{ID: "p1", Name: "Hoodie", BrandID: "b1"}

	req := httptest.NewRequest(http.MethodDelete, "/products/p1", nil)
	rec := httptest.NewRecorder()

	env.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, env.repo.products)
}

func TestParseImageTag(t *testing.T) {
	cases := []struct {
		key  string
		tag  int
		ok   bool
	}{
		{"images[0]", 0, true},
		{"images[12]", 12, true},
		{"images", 0, false},
		{"images[]", 0, false},
		{"images[-1]", 0, false},
		{"images[x]", 0, false},
		{"photos[0]", 0, false},
	}

	for _, tc := range cases {
		tag, ok := parseImageTag(tc.key)
		assert.Equal(t, tc.ok, ok, tc.key)
		if tc.ok {
			assert.Equal(t, tc.tag, tag, tc.key)
		}
	}
}

func TestPaginationParams(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/products?page=3&per_page=50", nil)
	page, perPage := paginationParams(req)
	assert.Equal(t, 3, page)
	assert.Equal(t, 50, perPage)

	req = httptest.NewRequest(http.MethodGet, "/products?page=-1&per_page=500", nil)
	page, perPage = paginationParams(req)
	assert.Equal(t, 1, page)
	assert.Equal(t, 20, perPage)
}
