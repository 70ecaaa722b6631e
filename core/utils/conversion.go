package utils

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	numberPattern     = regexp.MustCompile(`-?\d+(?:\.\d+)?`)
	dimensionsPattern = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*[xX×]\s*(\d+(?:\.\d+)?)\s*[xX×]\s*(\d+(?:\.\d+)?)`)
)

// ToFloat converts a free-text numeric field to a float64. It normalizes
// decimal commas, strips common unit suffixes (cm, mm, g, kg, €) and
// whitespace, and falls back to the first embedded number when the value is
// not directly parseable. Returns (0, false) for values with no number at
// all; callers treat that as "unknown", never as an error.
func ToFloat(val string) (float64, bool) {
	s := strings.TrimSpace(val)
	if s == "" {
		return 0, false
	}

	// Decimal-comma locales ("1,6") normalize to decimal point, but only
	// when the comma is not a thousands separator ("1,200.50").
	if strings.Contains(s, ",") && !strings.Contains(s, ".") {
		s = strings.ReplaceAll(s, ",", ".")
	}

	cleaned := strings.TrimSpace(strings.TrimRight(s, "cmkgdl€$ \t"))
	if f, err := strconv.ParseFloat(cleaned, 64); err == nil {
		return f, true
	}

	if m := numberPattern.FindString(s); m != "" {
		if f, err := strconv.ParseFloat(m, 64); err == nil {
			return f, true
		}
	}

	return 0, false
}

// ToInt converts a free-text numeric field to an int using the same
// tolerance rules as ToFloat. "12.0" and "12,0" both yield 12.
func ToInt(val string) (int, bool) {
	f, ok := ToFloat(val)
	if !ok {
		return 0, false
	}
	return int(f), true
}

// ToBool interprets the truthy spellings that appear across the feeds.
func ToBool(val string) bool {
	switch strings.ToLower(strings.TrimSpace(val)) {
	case "1", "true", "yes", "y":
		return true
	default:
		return false
	}
}

// Dimensions holds the parsed length/width/height of a product, in the
// feed's declared unit (centimeters for every known source).
type Dimensions struct {
	Length float64
	Width  float64
	Height float64
}

// ParseDimensions extracts numeric dimensions from free text such as
// "21x14x1.6 cm" or "21X14X1,6 CM". It returns (zero, false) when no
// three-part dimension pattern is present.
func ParseDimensions(val string) (Dimensions, bool) {
	s := strings.TrimSpace(val)
	if s == "" {
		return Dimensions{}, false
	}

	if strings.Contains(s, ",") && !strings.Contains(s, ".") {
		s = strings.ReplaceAll(s, ",", ".")
	}

	m := dimensionsPattern.FindStringSubmatch(s)
	if m == nil {
		return Dimensions{}, false
	}

	l, _ := strconv.ParseFloat(m[1], 64)
	w, _ := strconv.ParseFloat(m[2], 64)
	h, _ := strconv.ParseFloat(m[3], 64)
	return Dimensions{Length: l, Width: w, Height: h}, true
}
