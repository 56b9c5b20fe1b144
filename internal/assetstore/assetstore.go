package assetstore

import (
	"context"
	"io"
)

// Store is the external image-hosting boundary. Uploads hand back an opaque
// asset ID plus a retrieval URL; deletes are idempotent (deleting an unknown
// asset is not an error).
type Store interface {
	Upload(ctx context.Context, input *UploadInput) (*Asset, error)
	Delete(ctx context.Context, assetID string) error
}

// UploadInput holds the parameters for uploading an image.
type UploadInput struct {
	Folder      string
	Filename    string
	ContentType string
	Size        int64
	Data        io.Reader
}

// Asset identifies a stored image.
type Asset struct {
	AssetID string `json:"asset_id"`
	URL     string `json:"url"`
}
