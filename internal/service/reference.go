package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/threadline/catalog-service/internal/repository"
	apperrors "github.com/threadline/catalog-service/pkg/errors"
)

// ReferenceValidator checks that brand, color, and size references on an
// incoming mutation resolve against the reference tables. It is read-only
// and runs before any external upload is attempted, so a bad reference can
// never orphan an asset.
type ReferenceValidator struct {
	brands repository.BrandRepository
	colors repository.ColorRepository
	sizes  repository.SizeRepository
}

// NewReferenceValidator creates a reference validator over the catalog
// reference repositories.
func NewReferenceValidator(
	brands repository.BrandRepository,
	colors repository.ColorRepository,
	sizes repository.SizeRepository,
) *ReferenceValidator {
	return &ReferenceValidator{brands: brands, colors: colors, sizes: sizes}
}

// ValidateReferences resolves the brand, every color, and every size in one
// pass. Empty IDs are ignored rather than rejected. Unresolved colors and
// sizes are reported all at once, not first-failure only.
func (v *ReferenceValidator) ValidateReferences(ctx context.Context, brandID string, colorIDs, sizeIDs []string) error {
	if brandID != "" {
		if _, err := v.brands.GetByID(ctx, brandID); err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return apperrors.InvalidInputCode("INVALID_BRAND", fmt.Sprintf("brand %s does not exist", brandID))
			}
			return err
		}
	}

	if missing, err := v.missingColors(ctx, colorIDs); err != nil {
		return err
	} else if len(missing) > 0 {
		return apperrors.InvalidInputCode("INVALID_COLORS",
			fmt.Sprintf("unknown color ids: %s", strings.Join(missing, ", ")))
	}

	if missing, err := v.missingSizes(ctx, sizeIDs); err != nil {
		return err
	} else if len(missing) > 0 {
		return apperrors.InvalidInputCode("INVALID_SIZES",
			fmt.Sprintf("unknown size ids: %s", strings.Join(missing, ", ")))
	}

	return nil
}

// ValidateSingleVariant checks one variant input outside a full-array
// context: the size must be present and resolvable, stock (when supplied)
// must be non-negative, and any colors must resolve.
func (v *ReferenceValidator) ValidateSingleVariant(ctx context.Context, sizeID string, colorIDs []string, stock *int) error {
	if sizeID == "" {
		return apperrors.InvalidInput("variant size is required")
	}
	if stock != nil && *stock < 0 {
		return apperrors.InvalidInput("variant stock must not be negative")
	}
	return v.ValidateReferences(ctx, "", colorIDs, []string{sizeID})
}

func (v *ReferenceValidator) missingColors(ctx context.Context, ids []string) ([]string, error) {
	ids = dedupeNonEmpty(ids)
	if len(ids) == 0 {
		return nil, nil
	}

	found, err := v.colors.FindManyByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	foundSet := make(map[string]struct{}, len(found))
	for _, c := range found {
		foundSet[c.ID] = struct{}{}
	}

	return diffMissing(ids, foundSet), nil
}

func (v *ReferenceValidator) missingSizes(ctx context.Context, ids []string) ([]string, error) {
	ids = dedupeNonEmpty(ids)
	if len(ids) == 0 {
		return nil, nil
	}

	found, err := v.sizes.FindManyByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	foundSet := make(map[string]struct{}, len(found))
	for _, s := range found {
		foundSet[s.ID] = struct{}{}
	}

	return diffMissing(ids, foundSet), nil
}

func dedupeNonEmpty(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	var out []string
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func diffMissing(ids []string, found map[string]struct{}) []string {
	var missing []string
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			missing = append(missing, id)
		}
	}
	sort.Strings(missing)
	return missing
}
