package docx

import (
	"slices"
	"strings"

	"github.com/beevik/etree"
)

// Alignment values for paragraphs and tables.
const (
	AlignLeft    = "left"
	AlignCenter  = "center"
	AlignRight   = "right"
	AlignJustify = "both"
)

// Border is a single edge in Word terms.
type Border struct {
	Style string // single, double, dotted...
	Size  int    // eighths of a point
	Color string // hex or "auto"
}

func (b Border) write(el *etree.Element) {
	el.CreateAttr("w:val", b.Style)
	el.CreateAttr("w:sz", itoa(b.Size))
	el.CreateAttr("w:space", "0")
	color := b.Color
	if color == "" {
		color = "auto"
	}
	el.CreateAttr("w:color", color)
}

// Paragraph is a handle to a paragraph in a document or a table cell.
type Paragraph struct {
	el    *etree.Element
	doc   *Document
	style string
	runs  []*Run
}

func newParagraph(doc *Document, style string) *Paragraph {
	p := &Paragraph{el: etree.NewElement("w:p"), doc: doc}
	p.SetStyle(style)
	return p
}

func (p *Paragraph) pPr() *etree.Element {
	return props(p.el, "pPr")
}

// Style returns the paragraph style name, empty for the default style.
func (p *Paragraph) Style() string {
	return p.style
}

// SetStyle sets a paragraph style. Unknown names reset to the default
// style and report false.
func (p *Paragraph) SetStyle(name string) bool {
	spec, ok := p.doc.styles.Lookup(name, ParagraphStyle)
	if !ok || spec.Name == "Normal" {
		p.style = ""
		if pPr := p.el.SelectElement("w:pPr"); pPr != nil {
			removeChild(pPr, "pStyle")
		}
		return ok
	}
	p.style = spec.Name
	setVal(child(p.pPr(), "pStyle", pPrOrder), spec.id)
	return true
}

// SetAlignment sets justification, one of the Align constants.
func (p *Paragraph) SetAlignment(jc string) {
	setVal(child(p.pPr(), "jc", pPrOrder), jc)
}

// Alignment returns justification or empty when not set.
func (p *Paragraph) Alignment() string {
	return val(p.el.FindElement("w:pPr/w:jc"))
}

// SetLeftIndent sets the left indentation in points.
func (p *Paragraph) SetLeftIndent(pt float64) {
	child(p.pPr(), "ind", pPrOrder).CreateAttr("w:left", itoa(twips(pt)))
}

// LeftIndent returns the left indentation in points.
func (p *Paragraph) LeftIndent() float64 {
	ind := p.el.FindElement("w:pPr/w:ind")
	if ind == nil {
		return 0
	}
	return float64(atoi(ind.SelectAttrValue("w:left", "0"))) / 20
}

// SetShading fills paragraph background with a hex color.
func (p *Paragraph) SetShading(fill string) {
	shd := child(p.pPr(), "shd", pPrOrder)
	shd.CreateAttr("w:val", "clear")
	shd.CreateAttr("w:color", "auto")
	shd.CreateAttr("w:fill", fill)
}

// SetBottomBorder draws a line under the paragraph.
func (p *Paragraph) SetBottomBorder(b Border) {
	bdr := child(p.pPr(), "pBdr", pPrOrder)
	removeChild(bdr, "bottom")
	b.write(child(bdr, "bottom", borderOrder))
}

// HasBottomBorder reports whether the paragraph has a bottom border.
func (p *Paragraph) HasBottomBorder() bool {
	return p.el.FindElement("w:pPr/w:pBdr/w:bottom") != nil
}

// SetNumbering attaches list numbering to the paragraph.
func (p *Paragraph) SetNumbering(numID, ilvl int) {
	numPr := child(p.pPr(), "numPr", pPrOrder)
	setVal(child(numPr, "ilvl", []string{"ilvl", "numId"}), itoa(ilvl))
	setVal(child(numPr, "numId", []string{"ilvl", "numId"}), itoa(numID))
}

// Numbering returns the numbering attached directly to the paragraph.
func (p *Paragraph) Numbering() (numID, ilvl int, ok bool) {
	numPr := p.el.FindElement("w:pPr/w:numPr")
	if numPr == nil {
		return 0, 0, false
	}
	return atoi(val(numPr.SelectElement("w:numId"))), atoi(val(numPr.SelectElement("w:ilvl"))), true
}

// AddRun appends a run with text.
func (p *Paragraph) AddRun(text string) *Run {
	r := newRun(p)
	p.el.AddChild(r.el)
	r.AddText(text)
	p.runs = append(p.runs, r)
	return r
}

// RemoveRun detaches r from the paragraph, hyperlink runs included.
func (p *Paragraph) RemoveRun(r *Run) {
	if parent := r.el.Parent(); parent != nil {
		parent.RemoveChild(r.el)
	}
	p.runs = slices.DeleteFunc(p.runs, func(x *Run) bool { return x == r })
}

// AddHyperlink starts a hyperlink. External targets are stored as package
// relationships, internal ones as bookmark anchors.
func (p *Paragraph) AddHyperlink(target string, internal bool, tooltip string) *Hyperlink {
	el := p.el.CreateElement("w:hyperlink")
	if internal {
		el.CreateAttr("w:anchor", target)
	} else {
		el.CreateAttr("r:id", p.doc.rels.add(relHyperlink, target, true))
	}
	if tooltip != "" {
		el.CreateAttr("w:tooltip", tooltip)
	}
	el.CreateAttr("w:history", "1")
	return &Hyperlink{el: el, p: p, Target: target, Internal: internal}
}

// AddBookmark wraps the whole paragraph content into a named bookmark.
// Identifiers are unique within the document.
func (p *Paragraph) AddBookmark(name string) {
	id := itoa(p.doc.nextBookmarkID())
	start := etree.NewElement("w:bookmarkStart")
	start.CreateAttr("w:id", id)
	start.CreateAttr("w:name", name)
	pos := 0
	if p.el.SelectElement("w:pPr") != nil {
		pos = 1
	}
	p.el.InsertChildAt(pos, start)
	p.el.CreateElement("w:bookmarkEnd").CreateAttr("w:id", id)
}

// Bookmarks returns names of bookmarks in the paragraph.
func (p *Paragraph) Bookmarks() []string {
	var names []string
	for _, el := range p.el.SelectElements("w:bookmarkStart") {
		names = append(names, el.SelectAttrValue("w:name", ""))
	}
	return names
}

// Hyperlinks returns hyperlinks in the paragraph.
func (p *Paragraph) Hyperlinks() []*Hyperlink {
	var links []*Hyperlink
	for _, el := range p.el.SelectElements("w:hyperlink") {
		h := &Hyperlink{el: el, p: p}
		if anchor := el.SelectAttrValue("w:anchor", ""); anchor != "" {
			h.Target, h.Internal = anchor, true
		} else {
			h.Target = p.doc.rels.target(el.SelectAttrValue("r:id", ""))
		}
		links = append(links, h)
	}
	return links
}

// Runs returns all runs including the ones inside hyperlinks.
func (p *Paragraph) Runs() []*Run {
	return p.runs
}

// Text returns concatenated text of all runs.
func (p *Paragraph) Text() string {
	var b strings.Builder
	for _, r := range p.runs {
		b.WriteString(r.Text())
	}
	return b.String()
}

// Hyperlink is a handle to a hyperlink inside a paragraph.
type Hyperlink struct {
	el       *etree.Element
	p        *Paragraph
	Target   string
	Internal bool
}

// AddRun appends a run styled as a hyperlink.
func (h *Hyperlink) AddRun(text string) *Run {
	r := newRun(h.p)
	h.el.AddChild(r.el)
	r.SetCharStyle("Hyperlink")
	r.AddText(text)
	h.p.runs = append(h.p.runs, r)
	return r
}

// Text returns text of the hyperlink runs.
func (h *Hyperlink) Text() string {
	var b strings.Builder
	for _, t := range h.el.FindElements(".//w:t") {
		b.WriteString(t.Text())
	}
	return b.String()
}

// Tooltip returns the hyperlink tooltip.
func (h *Hyperlink) Tooltip() string {
	return h.el.SelectAttrValue("w:tooltip", "")
}
