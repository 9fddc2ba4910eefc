package css

import (
	"fmt"
	"strings"

	"github.com/mazznoer/csscolorparser"
)

// RGB is an opaque color as used by word processing formats.
type RGB struct {
	R, G, B uint8
}

// Hex returns six upper-case hex digits without leading '#'.
func (c RGB) Hex() string {
	return fmt.Sprintf("%02X%02X%02X", c.R, c.G, c.B)
}

// ParseColor parses a CSS color token: #rgb, #rrggbb, rgb(), rgba(), hsl(),
// or a named color. Keywords which do not name a concrete color are rejected.
func ParseColor(token string) (RGB, bool) {
	token = strings.ToLower(strings.TrimSpace(token))
	switch token {
	case "", "transparent", "inherit", "initial", "unset", "currentcolor", "none", "auto":
		return RGB{}, false
	}
	// bare hex digits are not colors in CSS
	if !strings.HasPrefix(token, "#") && !strings.Contains(token, "(") && isHexWord(token) {
		return RGB{}, false
	}
	c, err := csscolorparser.Parse(token)
	if err != nil {
		return RGB{}, false
	}
	r, g, b, _ := c.RGBA255()
	return RGB{R: r, G: g, B: b}, true
}

func isHexWord(s string) bool {
	for _, r := range s {
		if !strings.ContainsRune("0123456789abcdef", r) {
			return false
		}
	}
	return true
}
