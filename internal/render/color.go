package render

import (
	"image/color"
	"strconv"
	"strings"
)

// White is the default frame color.
var White = color.NRGBA{R: 255, G: 255, B: 255, A: 255}

// ParseColor parses "#RGB", "#RRGGBB", "#RRGGBBAA" or a few color names.
// Anything it cannot read returns fallback.
func ParseColor(param string, fallback color.NRGBA) color.NRGBA {
	if c, ok := parseColor(param); ok {
		return c
	}
	return fallback
}

// ValidColor reports whether ParseColor can read param.
func ValidColor(param string) bool {
	_, ok := parseColor(param)
	return ok
}

func parseColor(param string) (color.NRGBA, bool) {
	param = strings.ToLower(strings.TrimSpace(param))

	switch param {
	case "":
		return color.NRGBA{}, false
	case "white":
		return White, true
	case "black":
		return color.NRGBA{A: 255}, true
	case "transparent":
		return color.NRGBA{}, true
	}

	param = strings.TrimPrefix(param, "#")

	// expand shorthand
	if len(param) == 3 {
		param = string([]byte{param[0], param[0], param[1], param[1], param[2], param[2]})
	}
	if len(param) == 6 {
		param += "ff"
	}
	if len(param) != 8 {
		return color.NRGBA{}, false
	}

	v, err := strconv.ParseUint(param, 16, 32)
	if err != nil {
		return color.NRGBA{}, false
	}

	return color.NRGBA{
		R: uint8(v >> 24),
		G: uint8(v >> 16),
		B: uint8(v >> 8),
		A: uint8(v),
	}, true
}

// FormatColor renders c as "#rrggbb", with an alpha suffix when not opaque.
func FormatColor(c color.NRGBA) string {
	if c.A == 255 {
		return "#" + hex2(c.R) + hex2(c.G) + hex2(c.B)
	}
	return "#" + hex2(c.R) + hex2(c.G) + hex2(c.B) + hex2(c.A)
}

func hex2(v uint8) string {
	s := strconv.FormatUint(uint64(v), 16)
	if len(s) == 1 {
		return "0" + s
	}
	return s
}
