package css

import (
	"math"
	"strings"
)

// Border styles in word processing terms.
const (
	BorderNone    = "none"
	BorderSingle  = "single"
	BorderDouble  = "double"
	BorderDotted  = "dotted"
	BorderDashed  = "dashed"
	BorderWave    = "wave"
	BorderEngrave = "threeDEngrave"
	BorderEmboss  = "threeDEmboss"
	BorderInset   = "inset"
	BorderOutset  = "outset"
)

var borderStyles = map[string]string{
	"none":   BorderNone,
	"hidden": BorderNone,
	"solid":  BorderSingle,
	"double": BorderDouble,
	"dotted": BorderDotted,
	"dashed": BorderDashed,
	"wavy":   BorderWave,
	"groove": BorderEngrave,
	"ridge":  BorderEmboss,
	"inset":  BorderInset,
	"outset": BorderOutset,
}

// Side names in clockwise order.
var sides = [4]string{"top", "right", "bottom", "left"}

// BorderSide describes one edge.
type BorderSide struct {
	Size  float64 // points
	Style string
	Color string // 6 hex digits
}

// Visible reports whether the side should be drawn.
func (s BorderSide) Visible() bool {
	return s.Size > 0 && s.Style != BorderNone
}

// Eighths returns the size in eighths of a point clamped to what Word accepts.
func (s BorderSide) Eighths() int {
	v := int(math.Round(s.Size * 8))
	return min(max(v, 2), 96)
}

// Borders holds all four sides.
type Borders struct {
	Top, Right, Bottom, Left BorderSide
	set                      bool
}

// IsSet reports whether any border declaration was seen.
func (b Borders) IsSet() bool {
	return b.set
}

func defaultSide() BorderSide {
	return BorderSide{Size: 0, Style: BorderSingle, Color: "000000"}
}

func (b *Borders) side(name string) *BorderSide {
	switch name {
	case "top":
		return &b.Top
	case "right":
		return &b.Right
	case "bottom":
		return &b.Bottom
	case "left":
		return &b.Left
	}
	return nil
}

// borderValue is the result of classifying one shorthand value.
type borderValue struct {
	size     float64
	hasSize  bool
	style    string
	hasStyle bool
	color    string
	hasColor bool
}

// parseBorderValue classifies every whitespace separated token by shape.
// Order of tokens does not matter.
func parseBorderValue(value string, maxWidth float64) borderValue {
	var bv borderValue
	for _, tok := range splitTokens(value) {
		low := strings.ToLower(tok)
		if pt, ok := ToPoints(low, maxWidth); ok && !bv.hasSize {
			bv.size, bv.hasSize = pt, true
			continue
		}
		if st, ok := borderStyles[low]; ok && !bv.hasStyle {
			bv.style, bv.hasStyle = st, true
			continue
		}
		if c, ok := ParseColor(low); ok && !bv.hasColor {
			bv.color, bv.hasColor = c.Hex(), true
		}
	}
	return bv
}

// apply merges a classified shorthand into a side.
func (bv borderValue) apply(s *BorderSide) {
	if bv.hasSize {
		s.Size = bv.size
	}
	if bv.hasStyle {
		s.Style = bv.style
		if bv.style == BorderNone {
			s.Size = 0
		}
	}
	if bv.hasColor {
		s.Color = bv.color
	}
	if !bv.hasSize && (bv.hasColor || (bv.hasStyle && bv.style != BorderNone)) && s.Size == 0 {
		s.Size = 1
	}
}

// splitTokens splits on whitespace outside parentheses so rgb(1, 2, 3) stays
// a single token.
func splitTokens(value string) []string {
	var (
		out   []string
		cur   strings.Builder
		depth int
	)
	for _, r := range value {
		switch {
		case r == '(':
			depth++
		case r == ')':
			if depth > 0 {
				depth--
			}
		case (r == ' ' || r == '\t' || r == '\n' || r == '\r') && depth == 0:
			if cur.Len() > 0 {
				out = append(out, cur.String())
				cur.Reset()
			}
			continue
		}
		cur.WriteRune(r)
	}
	if cur.Len() > 0 {
		out = append(out, cur.String())
	}
	return out
}

// expandBox distributes 1-4 values over sides clockwise as CSS does.
func expandBox(vals []string) [4]string {
	switch len(vals) {
	case 0:
		return [4]string{}
	case 1:
		return [4]string{vals[0], vals[0], vals[0], vals[0]}
	case 2:
		return [4]string{vals[0], vals[1], vals[0], vals[1]}
	case 3:
		return [4]string{vals[0], vals[1], vals[2], vals[1]}
	default:
		return [4]string{vals[0], vals[1], vals[2], vals[3]}
	}
}

// ParseBorders resolves every border related declaration into per side
// records. Shorthands are applied first, then per side shorthands, then per
// side properties, so more specific declarations win.
func ParseBorders(props map[string]string, maxWidth float64) Borders {
	b := Borders{Top: defaultSide(), Right: defaultSide(), Bottom: defaultSide(), Left: defaultSide()}

	if v, ok := props["border"]; ok {
		b.set = true
		toks := splitTokens(v)
		allSizes := len(toks) > 1
		for _, t := range toks {
			if !IsLength(t) {
				allSizes = false
				break
			}
		}
		if allSizes && (len(toks) == 2 || len(toks) == 4) {
			vals := expandBox(toks)
			for i, name := range sides {
				parseBorderValue(vals[i], maxWidth).apply(b.side(name))
			}
		} else {
			bv := parseBorderValue(v, maxWidth)
			for _, name := range sides {
				bv.apply(b.side(name))
			}
		}
	}

	for _, prop := range []string{"width", "style", "color"} {
		v, ok := props["border-"+prop]
		if !ok {
			continue
		}
		b.set = true
		vals := expandBox(splitTokens(v))
		for i, name := range sides {
			if vals[i] == "" {
				continue
			}
			applyProperty(b.side(name), prop, vals[i], maxWidth)
		}
	}

	for _, name := range sides {
		if v, ok := props["border-"+name]; ok {
			b.set = true
			parseBorderValue(v, maxWidth).apply(b.side(name))
		}
	}

	for _, name := range sides {
		for _, prop := range []string{"width", "style", "color"} {
			if v, ok := props["border-"+name+"-"+prop]; ok {
				b.set = true
				applyProperty(b.side(name), prop, v, maxWidth)
			}
		}
	}
	return b
}

func applyProperty(s *BorderSide, prop, value string, maxWidth float64) {
	var bv borderValue
	switch prop {
	case "width":
		if pt, ok := ToPoints(value, maxWidth); ok {
			bv.size, bv.hasSize = pt, true
		}
	case "style":
		if st, ok := borderStyles[strings.ToLower(value)]; ok {
			bv.style, bv.hasStyle = st, true
		}
	case "color":
		if c, ok := ParseColor(value); ok {
			bv.color, bv.hasColor = c.Hex(), true
		}
	}
	bv.apply(s)
}
