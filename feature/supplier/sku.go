package supplier

import "strings"

// noSizeSentinel is the "one size" marker some feeds put in the size field;
// it never becomes part of a SKU.
const noSizeSentinel = "S/T"

// SynthesizeSKU builds a deterministic SKU for a variant that arrived
// without one: prefix and supplier ref, then color and size when present,
// joined by underscores with slashes and spaces stripped.
func SynthesizeSKU(prefix, supplierRef, color, size string) string {
	parts := []string{strings.ToUpper(prefix), supplierRef}
	if color != "" {
		parts = append(parts, color)
	}
	if size != "" && !strings.EqualFold(size, noSizeSentinel) {
		parts = append(parts, size)
	}
	for i, p := range parts {
		p = strings.ReplaceAll(p, "/", "")
		p = strings.ReplaceAll(p, " ", "")
		parts[i] = p
	}
	return strings.Join(parts, "_")
}
