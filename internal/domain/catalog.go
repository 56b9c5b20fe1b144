package domain

import "time"

// Brand is an independently-owned reference table entry. Products hold a
// weak reference to it by ID. The logo lives in the external asset store.
type Brand struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	LogoURL     string    `json:"logo_url,omitempty"`
	LogoAssetID string    `json:"logo_asset_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Color is a reference table entry with a unique name.
type Color struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Size is a reference table entry with a unique name.
type Size struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
