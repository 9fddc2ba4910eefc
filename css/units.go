package css

import (
	"strconv"
	"strings"
	"unicode"
)

// Conversion factors to points.
const (
	PxToPt  = 0.75
	CmToPt  = 28.35
	MmToPt  = 2.835
	InToPt  = 72.0
	PcToPt  = 12.0
	EmToPt  = 12.0 // 16px base
	RemToPt = 12.0
)

// Border width keywords, in pixels.
var sizeKeywords = map[string]float64{
	"thin":   1,
	"medium": 3,
	"thick":  5,
}

// Absolute font-size keywords, in pixels.
var fontSizeKeywords = map[string]float64{
	"xx-small":  9,
	"x-small":   10,
	"small":     13,
	"medium":    16,
	"large":     18,
	"x-large":   24,
	"xx-large":  32,
	"xxx-large": 48,
}

// parseDimension splits "12.5px" into 12.5 and "px". Unit is lower-cased.
func parseDimension(s string) (float64, string, bool) {
	numEnd := 0
	for i, r := range s {
		if unicode.IsDigit(r) || r == '.' || (i == 0 && (r == '-' || r == '+')) {
			numEnd = i + 1
		} else {
			break
		}
	}
	if numEnd == 0 {
		return 0, "", false
	}
	num, err := strconv.ParseFloat(s[:numEnd], 64)
	if err != nil {
		return 0, "", false
	}
	return num, strings.ToLower(s[numEnd:]), true
}

// ToPoints converts a CSS length to points. Percentages are taken relative
// to maxWidth (points). Unitless values other than zero are not lengths.
func ToPoints(value string, maxWidth float64) (float64, bool) {
	value = strings.ToLower(strings.TrimSpace(value))
	if px, ok := sizeKeywords[value]; ok {
		return px * PxToPt, true
	}

	num, unit, ok := parseDimension(value)
	if !ok {
		return 0, false
	}
	switch unit {
	case "px":
		return num * PxToPt, true
	case "pt":
		return num, true
	case "cm":
		return num * CmToPt, true
	case "mm":
		return num * MmToPt, true
	case "in":
		return num * InToPt, true
	case "pc":
		return num * PcToPt, true
	case "em":
		return num * EmToPt, true
	case "rem":
		return num * RemToPt, true
	case "%":
		return num * maxWidth / 100, true
	case "":
		if num == 0 {
			return 0, true
		}
	}
	return 0, false
}

// IsLength reports whether token is a length or a size keyword.
func IsLength(token string) bool {
	_, ok := ToPoints(token, 0)
	return ok
}

// PixelsToPoints converts an HTML width/height attribute. Only bare numbers
// and pixel values are honored.
func PixelsToPoints(value string) (float64, bool) {
	num, unit, ok := parseDimension(strings.TrimSpace(value))
	if !ok || num < 0 {
		return 0, false
	}
	switch unit {
	case "", "px":
		return num * PxToPt, true
	}
	return 0, false
}

// FontSizeToPoints converts a font-size value, including absolute keywords.
// Percentages are relative to the 12pt base size.
func FontSizeToPoints(value string) (float64, bool) {
	value = strings.ToLower(strings.TrimSpace(value))
	if px, ok := fontSizeKeywords[value]; ok {
		return px * PxToPt, true
	}
	pt, ok := ToPoints(value, EmToPt)
	if !ok || pt <= 0 {
		return 0, false
	}
	return pt, true
}
