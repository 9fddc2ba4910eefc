package docx

import (
	"strings"

	"github.com/beevik/etree"
)

// Underline variants.
const (
	UnderlineNone   = "none"
	UnderlineSingle = "single"
	UnderlineDouble = "double"
	UnderlineDotted = "dotted"
	UnderlineDash   = "dash"
	UnderlineWave   = "wave"
)

// Vertical alignment of run text.
const (
	VertSuperscript = "superscript"
	VertSubscript   = "subscript"
)

// Run is a handle to a run of uniformly formatted text.
type Run struct {
	el *etree.Element
	p  *Paragraph
}

func newRun(p *Paragraph) *Run {
	return &Run{el: etree.NewElement("w:r"), p: p}
}

func (r *Run) rPr() *etree.Element {
	return props(r.el, "rPr")
}

func (r *Run) prop(tag string) *etree.Element {
	return r.el.FindElement("w:rPr/w:" + tag)
}

func (r *Run) toggle(tag string, on bool) {
	el := child(r.rPr(), tag, rPrOrder)
	if on {
		el.RemoveAttr("w:val")
	} else {
		setVal(el, "0")
	}
}

// AddText appends text. Empty text adds nothing.
func (r *Run) AddText(text string) {
	if text == "" {
		return
	}
	t := r.el.CreateElement("w:t")
	if strings.TrimSpace(text) != text {
		t.CreateAttr("xml:space", "preserve")
	}
	t.SetText(text)
}

// AddBreak appends a line break.
func (r *Run) AddBreak() {
	r.el.CreateElement("w:br")
}

// AddPageBreak appends a page break.
func (r *Run) AddPageBreak() {
	r.el.CreateElement("w:br").CreateAttr("w:type", "page")
}

// AddTab appends a tab character.
func (r *Run) AddTab() {
	r.el.CreateElement("w:tab")
}

// Text returns text of the run, breaks as newlines and tabs as tabs.
func (r *Run) Text() string {
	var b strings.Builder
	for _, el := range r.el.ChildElements() {
		switch el.Tag {
		case "t":
			b.WriteString(el.Text())
		case "br":
			b.WriteByte('\n')
		case "tab":
			b.WriteByte('\t')
		}
	}
	return b.String()
}

// SetBold toggles bold.
func (r *Run) SetBold(on bool) { r.toggle("b", on) }

// Bold reports effective direct bold formatting.
func (r *Run) Bold() bool { return onOff(r.prop("b")) }

// SetItalic toggles italic.
func (r *Run) SetItalic(on bool) { r.toggle("i", on) }

// Italic reports direct italic formatting.
func (r *Run) Italic() bool { return onOff(r.prop("i")) }

// SetStrike toggles single strike through.
func (r *Run) SetStrike(on bool) { r.toggle("strike", on) }

// Strike reports direct strike through formatting.
func (r *Run) Strike() bool { return onOff(r.prop("strike")) }

// SetUnderline sets underline variant, UnderlineNone removes it.
func (r *Run) SetUnderline(kind string) {
	setVal(child(r.rPr(), "u", rPrOrder), kind)
}

// Underline returns underline variant or empty.
func (r *Run) Underline() string { return val(r.prop("u")) }

// SetUnderlineColor colors the underline, it has no effect until an
// underline variant is set.
func (r *Run) SetUnderlineColor(hex string) {
	child(r.rPr(), "u", rPrOrder).CreateAttr("w:color", hex)
}

// UnderlineColor returns underline color or empty.
func (r *Run) UnderlineColor() string {
	if u := r.prop("u"); u != nil {
		return u.SelectAttrValue("w:color", "")
	}
	return ""
}

// SetVertAlign sets superscript or subscript, empty resets to baseline.
func (r *Run) SetVertAlign(v string) {
	if v == "" {
		v = "baseline"
	}
	setVal(child(r.rPr(), "vertAlign", rPrOrder), v)
}

// VertAlign returns vertical alignment or empty.
func (r *Run) VertAlign() string { return val(r.prop("vertAlign")) }

// SetColor sets text color as six hex digits.
func (r *Run) SetColor(hex string) {
	setVal(child(r.rPr(), "color", rPrOrder), hex)
}

// Color returns text color or empty.
func (r *Run) Color() string { return val(r.prop("color")) }

// SetSize sets font size in points.
func (r *Run) SetSize(pt float64) {
	half := itoa(int(pt*2 + 0.5))
	setVal(child(r.rPr(), "sz", rPrOrder), half)
	setVal(child(r.rPr(), "szCs", rPrOrder), half)
}

// Size returns font size in points or 0.
func (r *Run) Size() float64 { return float64(atoi(val(r.prop("sz")))) / 2 }

// SetFont sets font family name.
func (r *Run) SetFont(name string) {
	f := child(r.rPr(), "rFonts", rPrOrder)
	f.CreateAttr("w:ascii", name)
	f.CreateAttr("w:hAnsi", name)
	f.CreateAttr("w:cs", name)
}

// Font returns font family name or empty.
func (r *Run) Font() string {
	if f := r.prop("rFonts"); f != nil {
		return f.SelectAttrValue("w:ascii", "")
	}
	return ""
}

// SetHighlight sets one of the named highlight colors (yellow, green...).
func (r *Run) SetHighlight(color string) {
	setVal(child(r.rPr(), "highlight", rPrOrder), color)
}

// Highlight returns highlight color or empty.
func (r *Run) Highlight() string { return val(r.prop("highlight")) }

// SetShading fills run background with a hex color.
func (r *Run) SetShading(fill string) {
	shd := child(r.rPr(), "shd", rPrOrder)
	shd.CreateAttr("w:val", "clear")
	shd.CreateAttr("w:color", "auto")
	shd.CreateAttr("w:fill", fill)
}

// Shading returns background fill or empty.
func (r *Run) Shading() string {
	if shd := r.prop("shd"); shd != nil {
		return shd.SelectAttrValue("w:fill", "")
	}
	return ""
}

// SetCharStyle applies a character style. Unknown names are ignored and
// reported as false.
func (r *Run) SetCharStyle(name string) bool {
	spec, ok := r.p.doc.styles.Lookup(name, CharacterStyle)
	if !ok {
		return false
	}
	setVal(child(r.rPr(), "rStyle", rPrOrder), spec.id)
	return true
}

// CharStyle returns the character style name or empty.
func (r *Run) CharStyle() string {
	id := val(r.prop("rStyle"))
	if id == "" {
		return ""
	}
	for _, spec := range r.p.doc.styles.specs {
		if spec.id == id {
			return spec.Name
		}
	}
	return ""
}
