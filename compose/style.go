package compose

import (
	"math"
	"strconv"
	"strings"
	"unicode"
)

const (
	DefaultFont  = "helvetica"
	DefaultColor = "#000000"
	DefaultSize  = 20
	MaxSize      = 200
)

var fontAliases = map[string]string{
	"helvetica":       "helvetica",
	"arial":           "helvetica",
	"sans-serif":      "helvetica",
	"times":           "times",
	"times new roman": "times",
	"times-roman":     "times",
	"serif":           "times",
	"courier":         "courier",
	"courier new":     "courier",
	"monospace":       "courier",
}

// NormalizeFont maps a customer font choice onto a PDF core font family.
// Unknown or empty names fall back to helvetica.
func NormalizeFont(font string) string {
	key := strings.ToLower(strings.TrimSpace(font))
	key = strings.Trim(key, `"'`)
	if family, ok := fontAliases[key]; ok {
		return family
	}
	return DefaultFont
}

// ParseSize reads a point size such as "34px" or "18pt". Anything unparsable yields DefaultSize.
func ParseSize(size string) int {
	s := strings.TrimSpace(size)
	s = strings.TrimRightFunc(s, func(r rune) bool {
		return unicode.IsLetter(r) || r == '%'
	})
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultSize
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return DefaultSize
	}
	n := int(math.Round(v))
	switch {
	case n <= 0:
		return DefaultSize
	case n > MaxSize:
		return MaxSize
	}
	return n
}

// ParseColor normalizes a hex color to lowercase "#rrggbb". Invalid input yields DefaultColor.
func ParseColor(color string) string {
	s := strings.ToLower(strings.TrimSpace(color))
	s = strings.TrimPrefix(s, "#")
	switch len(s) {
	case 3:
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	case 6:
	default:
		return DefaultColor
	}
	if _, err := strconv.ParseUint(s, 16, 32); err != nil {
		return DefaultColor
	}
	return "#" + s
}

// RGB splits a color produced by ParseColor into its components.
func RGB(color string) (r, g, b int) {
	v, err := strconv.ParseUint(strings.TrimPrefix(ParseColor(color), "#"), 16, 32)
	if err != nil {
		return 0, 0, 0
	}
	return int(v >> 16 & 0xff), int(v >> 8 & 0xff), int(v & 0xff)
}
