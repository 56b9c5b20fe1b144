package assetstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"

	"github.com/threadline/catalog-service/pkg/httpclient"
)

// HTTPStore talks to the image-hosting service over HTTP, wrapped in a
// circuit breaker so a degraded store fails fast instead of piling up
// blocked requests.
type HTTPStore struct {
	baseURL string
	client  *httpclient.CircuitBreakerClient
}

// NewHTTPStore creates an asset store client against the given base URL.
func NewHTTPStore(baseURL string, client *httpclient.CircuitBreakerClient) *HTTPStore {
	return &HTTPStore{baseURL: baseURL, client: client}
}

// Upload sends the image as a multipart form and returns the stored asset.
// The body is buffered up front so the underlying client can replay it on
// retry.
func (s *HTTPStore) Upload(ctx context.Context, input *UploadInput) (*Asset, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	if err := mw.WriteField("folder", input.Folder); err != nil {
		return nil, fmt.Errorf("write folder field: %w", err)
	}

	part, err := mw.CreateFormFile("file", input.Filename)
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, input.Data); err != nil {
		return nil, fmt.Errorf("copy upload data: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	body := buf.Bytes()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/assets", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create upload request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(body)), nil
	}

	resp, err := s.client.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("upload asset: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, httpclient.NewStatusError(resp)
	}

	var asset Asset
	if err := json.NewDecoder(resp.Body).Decode(&asset); err != nil {
		return nil, fmt.Errorf("decode upload response: %w", err)
	}

	return &asset, nil
}

// Delete removes the asset. A 404 from the store is treated as success so
// cleanup sweeps stay idempotent.
func (s *HTTPStore) Delete(ctx context.Context, assetID string) error {
	u := s.baseURL + "/assets/" + url.PathEscape(assetID)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, u, http.NoBody)
	if err != nil {
		return fmt.Errorf("create delete request: %w", err)
	}

	resp, err := s.client.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("delete asset %s: %w", assetID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusNotFound {
		return httpclient.NewStatusError(resp)
	}

	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
