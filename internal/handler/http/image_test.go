package http

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/threadline/catalog-service/internal/assetstore"
	assetmemory "github.com/threadline/catalog-service/internal/assetstore/memory"
)

func newImageTestEnv() (*assetmemory.Store, chi.Router) {
	store := assetmemory.New("https://img.example.com")
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	h := NewImageHandler(store, logger)
	router := chi.NewRouter()
	router.Post("/images", h.UploadImage)
	router.Delete("/images/{assetID}", h.DeleteImage)

	return store, router
}

func imageUploadBody(t *testing.T, field string) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile(field, "banner.jpg")
	require.NoError(t, err)
	_, err = io.WriteString(part, "jpegdata")
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	return body, writer.FormDataContentType()
}

func TestImageHandler_Upload(t *testing.T) {
	store, router := newImageTestEnv()

	body, contentType := imageUploadBody(t, "image")
	req := httptest.NewRequest(http.MethodPost, "/images", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var asset assetstore.Asset
	decodeData(t, rec.Body, &asset)
	assert.NotEmpty(t, asset.AssetID)
	assert.Contains(t, asset.URL, "https://img.example.com/uploads/")
	assert.Equal(t, 1, store.Len())
}

func TestImageHandler_Upload_MissingFile(t *testing.T) {
	store, router := newImageTestEnv()

	body, contentType := imageUploadBody(t, "attachment")
	req := httptest.NewRequest(http.MethodPost, "/images", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "image file is required")
	assert.Zero(t, store.Len())
}

func TestImageHandler_Delete(t *testing.T) {
	store, router := newImageTestEnv()

	asset, err := store.Upload(context.Background(), &assetstore.UploadInput{Folder: "uploads", Filename: "x.jpg"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodDelete, "/images/"+asset.AssetID, nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), asset.AssetID)
	assert.Zero(t, store.Len())
}
