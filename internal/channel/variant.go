package channel

import "fmt"

// Variant selects which editor surface is shown.
type Variant string

const (
	VariantGuide      Variant = "guide"
	VariantTagPage    Variant = "tag-page"
	VariantTagFeature Variant = "tag-feature"
)

// Variants lists every editor surface.
var Variants = []Variant{VariantGuide, VariantTagPage, VariantTagFeature}

// ParseVariant validates a variant name; empty means VariantGuide.
func ParseVariant(s string) (Variant, error) {
	if s == "" {
		return VariantGuide, nil
	}
	for _, v := range Variants {
		if string(v) == s {
			return v, nil
		}
	}
	return "", fmt.Errorf("unknown editor variant %q", s)
}

// PicksOnEntry reports whether the variant starts with element picking
// on. Tagging panels wait for an explicit activate-selector.
func (v Variant) PicksOnEntry() bool {
	return v == VariantGuide
}
