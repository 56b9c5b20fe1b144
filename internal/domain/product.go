package domain

import (
	"time"
)

// Image is a single entry in a variant's gallery, backed by an asset in the
// external image store.
type Image struct {
	URL     string `json:"url"`
	AssetID string `json:"asset_id"`
	IsMain  bool   `json:"is_main"`
}

// Variant is one purchasable size/color/stock/image combination within a
// product. Variants are owned by their product and have no independent
// lifecycle.
type Variant struct {
	VariantID string   `json:"variant_id"`
	SizeID    string   `json:"size_id"`
	ColorIDs  []string `json:"color_ids,omitempty"`
	Stock     int      `json:"stock"`
	Images    []Image  `json:"images"`
}

// Product is the aggregate root for the catalog. Its variants are stored as
// one document and always replaced atomically. Revision increments on every
// write and guards against lost updates.
type Product struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	BrandID   string    `json:"brand_id"`
	Variants  []Variant `json:"variants"`
	Revision  int64     `json:"revision"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FindVariant returns the index of the variant with the given ID, or -1.
func (p *Product) FindVariant(variantID string) int {
	for i := range p.Variants {
		if p.Variants[i].VariantID == variantID {
			return i
		}
	}
	return -1
}

// AssetIDs returns the asset identifiers of every image across all variants,
// in gallery order. Used to cascade external deletions.
func (p *Product) AssetIDs() []string {
	var ids []string
	for _, v := range p.Variants {
		for _, img := range v.Images {
			if img.AssetID != "" {
				ids = append(ids, img.AssetID)
			}
		}
	}
	return ids
}

// ColorAndSizeRefs collects the distinct color and size references across
// all variants, for reference validation in one pass.
func ColorAndSizeRefs(variants []Variant) (colorIDs, sizeIDs []string) {
	colorSet := make(map[string]struct{})
	sizeSet := make(map[string]struct{})
	for _, v := range variants {
		if v.SizeID != "" {
			sizeSet[v.SizeID] = struct{}{}
		}
		for _, c := range v.ColorIDs {
			if c != "" {
				colorSet[c] = struct{}{}
			}
		}
	}
	for c := range colorSet {
		colorIDs = append(colorIDs, c)
	}
	for s := range sizeSet {
		sizeIDs = append(sizeIDs, s)
	}
	return colorIDs, sizeIDs
}
