package translate

import (
	"strconv"
	"strings"

	"h2d/css"
	"h2d/docx"
)

// fontProp is formatting implied by a tag regardless of its attributes.
type fontProp int

const (
	propBold fontProp = iota + 1
	propItalic
	propUnderline
	propStrike
	propSuperscript
	propSubscript
	propMonospace
	propHighlight
)

// monospaceFont is used for code-like elements.
const monospaceFont = "Courier"

var tagFontProps = map[string]fontProp{
	"b":      propBold,
	"strong": propBold,
	"i":      propItalic,
	"em":     propItalic,
	"cite":   propItalic,
	"dfn":    propItalic,
	"var":    propItalic,
	"u":      propUnderline,
	"ins":    propUnderline,
	"s":      propStrike,
	"strike": propStrike,
	"del":    propStrike,
	"sup":    propSuperscript,
	"sub":    propSubscript,
	"code":   propMonospace,
	"pre":    propMonospace,
	"kbd":    propMonospace,
	"samp":   propMonospace,
	"tt":     propMonospace,
	"mark":   propHighlight,
}

func applyFontProp(r *docx.Run, p fontProp) {
	switch p {
	case propBold:
		r.SetBold(true)
	case propItalic:
		r.SetItalic(true)
	case propUnderline:
		r.SetUnderline(docx.UnderlineSingle)
	case propStrike:
		r.SetStrike(true)
	case propSuperscript:
		r.SetVertAlign(docx.VertSuperscript)
	case propSubscript:
		r.SetVertAlign(docx.VertSubscript)
	case propMonospace:
		r.SetFont(monospaceFont)
	case propHighlight:
		r.SetHighlight("yellow")
	}
}

var decorationStyles = map[string]string{
	"solid":  docx.UnderlineSingle,
	"double": docx.UnderlineDouble,
	"dotted": docx.UnderlineDotted,
	"dashed": docx.UnderlineDash,
	"wavy":   docx.UnderlineWave,
}

// applyDeclarations sets run formatting from CSS properties. Values that
// can not be understood are ignored. Background is only taken when
// inline is set, block backgrounds shade the paragraph instead.
func applyDeclarations(r *docx.Run, props map[string]string, inline bool) {
	if len(props) == 0 {
		return
	}
	if v, ok := props["color"]; ok {
		if c, ok := css.ParseColor(v); ok {
			r.SetColor(c.Hex())
		}
	}
	if v, ok := props["font-size"]; ok {
		if pt, ok := css.FontSizeToPoints(v); ok {
			r.SetSize(pt)
		}
	}
	if v, ok := props["font-weight"]; ok {
		if bold, ok := fontWeight(v); ok {
			r.SetBold(bold)
		}
	}
	if v, ok := props["font-style"]; ok {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "italic", "oblique":
			r.SetItalic(true)
		case "normal":
			r.SetItalic(false)
		}
	}
	if v, ok := props["font-family"]; ok {
		if family := firstFontFamily(v); family != "" {
			r.SetFont(family)
		}
	}
	if v, ok := props["vertical-align"]; ok {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "super":
			r.SetVertAlign(docx.VertSuperscript)
		case "sub":
			r.SetVertAlign(docx.VertSubscript)
		case "baseline":
			r.SetVertAlign("")
		}
	}
	applyDecoration(r, props)
	if !inline {
		return
	}
	for _, name := range []string{"background-color", "background"} {
		if v, ok := props[name]; ok {
			if c, ok := css.ParseColor(v); ok {
				r.SetShading(c.Hex())
				break
			}
		}
	}
}

func fontWeight(v string) (bool, bool) {
	v = strings.ToLower(strings.TrimSpace(v))
	switch v {
	case "bold", "bolder":
		return true, true
	case "normal", "lighter":
		return false, true
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return false, false
	}
	return n >= 600, true
}

func firstFontFamily(v string) string {
	first, _, _ := strings.Cut(v, ",")
	return strings.Trim(strings.TrimSpace(first), `"'`)
}

// applyDecoration handles text-decoration and its longhands.
func applyDecoration(r *docx.Run, props map[string]string) {
	var tokens []string
	for _, name := range []string{"text-decoration", "text-decoration-line", "text-decoration-style", "text-decoration-color"} {
		if v, ok := props[name]; ok {
			tokens = append(tokens, strings.Fields(strings.ToLower(v))...)
		}
	}
	if len(tokens) == 0 {
		return
	}

	underline, variant := "", docx.UnderlineSingle
	var color string
	for _, tok := range tokens {
		switch tok {
		case "underline":
			underline = docx.UnderlineSingle
		case "line-through":
			r.SetStrike(true)
		case "none":
			underline = docx.UnderlineNone
			r.SetStrike(false)
		default:
			if s, ok := decorationStyles[tok]; ok {
				variant = s
			} else if c, ok := css.ParseColor(tok); ok {
				color = c.Hex()
			}
		}
	}
	switch underline {
	case "":
	case docx.UnderlineNone:
		r.SetUnderline(docx.UnderlineNone)
	default:
		r.SetUnderline(variant)
		if color != "" {
			r.SetUnderlineColor(color)
		}
	}
}
