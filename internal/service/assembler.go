package service

import (
	"fmt"
	"io"

	"github.com/threadline/catalog-service/internal/assetstore"
	"github.com/threadline/catalog-service/internal/domain"
	apperrors "github.com/threadline/catalog-service/pkg/errors"
)

// ImageFile is an uploaded file from the transport layer, not yet pushed to
// the asset store. VariantTag carries the index parsed from a tagged form
// field ("images[2]"); untagged files carry -1 and match by position.
type ImageFile struct {
	Filename    string
	ContentType string
	Size        int64
	Data        io.Reader
	VariantTag  int
}

// VariantInput describes one variant on a create request. The variant ID is
// always assigned by the system, never taken from the caller.
type VariantInput struct {
	SizeID   string   `json:"size_id" validate:"required"`
	ColorIDs []string `json:"color_ids"`
	Stock    int      `json:"stock" validate:"gte=0"`
}

// VariantPatch describes one variant on an update request. A non-empty
// VariantID targets an existing variant for a field-level merge; pointer
// fields distinguish "omitted" from explicit zero values, so stock can be
// patched to 0.
type VariantPatch struct {
	VariantID string    `json:"variant_id"`
	SizeID    *string   `json:"size_id"`
	ColorIDs  *[]string `json:"color_ids"`
	Stock     *int      `json:"stock"`
}

// VariantAssembler matches uploaded files to variant inputs and merges patch
// inputs with a product's existing variant set. It is pure with respect to
// the asset store: uploads happen in the engine, and the assembler only
// works with their results.
type VariantAssembler struct{}

// NewVariantAssembler creates a variant assembler.
func NewVariantAssembler() *VariantAssembler {
	return &VariantAssembler{}
}

// GroupFiles partitions uploaded files into one group per variant. If any
// file is tagged, grouping is strictly by tag; otherwise files are assigned
// one per variant in order. Every group must end up non-empty when
// requireAll is set (create requires an image per variant; update only
// requires images for the patches that carry them).
func (a *VariantAssembler) GroupFiles(variantCount int, files []ImageFile, requireAll bool) ([][]ImageFile, error) {
	groups := make([][]ImageFile, variantCount)

	tagged := false
	for _, f := range files {
		if f.VariantTag >= 0 {
			tagged = true
			break
		}
	}

	if tagged {
		for _, f := range files {
			if f.VariantTag < 0 {
				return nil, apperrors.InvalidInput("cannot mix tagged and untagged image fields")
			}
			if f.VariantTag >= variantCount {
				return nil, apperrors.InvalidInput(fmt.Sprintf("image tag %d exceeds variant count %d", f.VariantTag, variantCount))
			}
			groups[f.VariantTag] = append(groups[f.VariantTag], f)
		}
	} else {
		if len(files) > variantCount {
			return nil, apperrors.InvalidInput("more images than variants; tag images with a variant index")
		}
		for i, f := range files {
			groups[i] = append(groups[i], f)
		}
	}

	if requireAll {
		for i, g := range groups {
			if len(g) == 0 {
				return nil, apperrors.InvalidInputCode("MISSING_IMAGES",
					fmt.Sprintf("variant %d has no matching image", i))
			}
		}
	}

	return groups, nil
}

// BuildImages converts uploaded assets into a variant gallery. The first
// image is the main one.
func (a *VariantAssembler) BuildImages(assets []assetstore.Asset) []domain.Image {
	images := make([]domain.Image, 0, len(assets))
	for i, asset := range assets {
		images = append(images, domain.Image{
			URL:     asset.URL,
			AssetID: asset.AssetID,
			IsMain:  i == 0,
		})
	}
	return images
}

// AssembleForCreate builds the variant set for a new product from the
// inputs and their uploaded assets, assigning a fresh ID to every variant.
func (a *VariantAssembler) AssembleForCreate(inputs []VariantInput, uploaded [][]assetstore.Asset) []domain.Variant {
	variants := make([]domain.Variant, 0, len(inputs))
	for i, in := range inputs {
		variants = append(variants, domain.Variant{
			VariantID: domain.NewVariantID(),
			SizeID:    in.SizeID,
			ColorIDs:  in.ColorIDs,
			Stock:     in.Stock,
			Images:    a.BuildImages(uploaded[i]),
		})
	}
	domain.EnsureUniqueVariantIDs(variants)
	return variants
}

// AssembleForUpdate merges patches into the existing variant set. Patches
// with a variant ID merge field-by-field into that variant; each variant may
// be targeted by at most one patch per request. Patches without an ID become
// new variants. When a patch carries uploaded assets, the variant's entire
// prior gallery is superseded and its asset IDs are returned for external
// deletion. Unchanged variants come first in the output, then patched and
// new variants in patch order.
func (a *VariantAssembler) AssembleForUpdate(
	existing []domain.Variant,
	patches []VariantPatch,
	uploaded [][]assetstore.Asset,
) ([]domain.Variant, []string, error) {
	touched := make(map[string]struct{}, len(patches))
	var result []domain.Variant
	var superseded []string

	patchedOut := make([]domain.Variant, 0, len(patches))
	for i, patch := range patches {
		if patch.VariantID == "" {
			if patch.SizeID == nil || *patch.SizeID == "" {
				return nil, nil, apperrors.InvalidInput("new variant requires a size")
			}
			v := domain.Variant{
				VariantID: domain.NewVariantID(),
				SizeID:    *patch.SizeID,
			}
			if patch.ColorIDs != nil {
				v.ColorIDs = *patch.ColorIDs
			}
			if patch.Stock != nil {
				v.Stock = *patch.Stock
			}
			v.Images = a.BuildImages(uploaded[i])
			patchedOut = append(patchedOut, v)
			continue
		}

		if _, dup := touched[patch.VariantID]; dup {
			return nil, nil, apperrors.InvalidInput(
				fmt.Sprintf("variant %s is patched more than once", patch.VariantID))
		}

		idx := -1
		for j := range existing {
			if existing[j].VariantID == patch.VariantID {
				idx = j
				break
			}
		}
		if idx == -1 {
			return nil, nil, &domain.VariantNotFoundError{VariantID: patch.VariantID}
		}

		v := existing[idx]
		if patch.SizeID != nil && *patch.SizeID != "" {
			v.SizeID = *patch.SizeID
		}
		if patch.ColorIDs != nil {
			v.ColorIDs = *patch.ColorIDs
		}
		if patch.Stock != nil {
			v.Stock = *patch.Stock
		}
		if len(uploaded[i]) > 0 {
			for _, img := range v.Images {
				if img.AssetID != "" {
					superseded = append(superseded, img.AssetID)
				}
			}
			v.Images = a.BuildImages(uploaded[i])
		}

		touched[patch.VariantID] = struct{}{}
		patchedOut = append(patchedOut, v)
	}

	for _, v := range existing {
		if _, ok := touched[v.VariantID]; !ok {
			result = append(result, v)
		}
	}
	result = append(result, patchedOut...)

	domain.EnsureUniqueVariantIDs(result)
	return result, superseded, nil
}
