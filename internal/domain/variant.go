package domain

import (
	"fmt"
	"math/rand/v2"
	"sort"
	"strconv"
	"strings"
	"time"
)

const variantIDAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// NewVariantID generates an opaque variant identifier: "V" followed by the
// current unix-millisecond timestamp in base36 and a 6-character random
// suffix. Uniqueness is only required within one product, so a timestamp
// plus suffix is sufficient; collisions within a single save are handled by
// EnsureUniqueVariantIDs.
func NewVariantID() string {
	var sb strings.Builder
	sb.WriteByte('V')
	sb.WriteString(strconv.FormatInt(time.Now().UnixMilli(), 36))
	for i := 0; i < 6; i++ {
		sb.WriteByte(variantIDAlphabet[rand.IntN(len(variantIDAlphabet))])
	}
	return sb.String()
}

// EnsureUniqueVariantIDs regenerates any variant ID that collides with an
// earlier one in the slice, so a save never writes duplicate identifiers.
func EnsureUniqueVariantIDs(variants []Variant) {
	seen := make(map[string]struct{}, len(variants))
	for i := range variants {
		for {
			if _, dup := seen[variants[i].VariantID]; !dup && variants[i].VariantID != "" {
				break
			}
			variants[i].VariantID = NewVariantID()
		}
		seen[variants[i].VariantID] = struct{}{}
	}
}

// CombinationKey derives the canonical duplicate-detection key for a
// size/color combination. Color references are lowercased and sorted so the
// key is insensitive to input order and case; the size reference is matched
// exactly.
func CombinationKey(sizeID string, colorIDs []string) string {
	colors := make([]string, 0, len(colorIDs))
	for _, c := range colorIDs {
		if c != "" {
			colors = append(colors, strings.ToLower(c))
		}
	}
	sort.Strings(colors)
	return sizeID + "-" + strings.Join(colors, ",")
}

// DuplicateVariantError reports two variants sharing a canonical
// size/color combination key.
type DuplicateVariantError struct {
	Key string
}

func (e *DuplicateVariantError) Error() string {
	return fmt.Sprintf("duplicate variant combination %q", e.Key)
}

// DetectDuplicateVariants fails if any two variants share a canonical
// combination key.
func DetectDuplicateVariants(variants []Variant) error {
	seen := make(map[string]struct{}, len(variants))
	for _, v := range variants {
		key := CombinationKey(v.SizeID, v.ColorIDs)
		if _, dup := seen[key]; dup {
			return &DuplicateVariantError{Key: key}
		}
		seen[key] = struct{}{}
	}
	return nil
}

// VariantNotFoundError reports a patch referencing a variant ID absent from
// the product.
type VariantNotFoundError struct {
	VariantID string
}

func (e *VariantNotFoundError) Error() string {
	return fmt.Sprintf("variant %s not found", e.VariantID)
}
