// Package docx is a small WordprocessingML document model: it builds
// paragraphs, runs, tables, lists, hyperlinks, bookmarks and pictures and
// saves them as a .docx package.
package docx

import (
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/google/uuid"
)

// Page geometry, Letter with 1 inch margins.
const (
	pageWidthTw  = 12240
	pageHeightTw = 15840
	marginTw     = 1440
)

// Container is something paragraphs and tables can be appended to: the
// document body or a table cell.
type Container interface {
	AddParagraph(style string) *Paragraph
	AddTable(rows, cols int) *Table
	Paragraphs() []*Paragraph
	Tables() []*Table
	Document() *Document
}

// Document is a word processing document under construction. It is not
// safe for concurrent use.
type Document struct {
	body      *etree.Element
	styles    *Styles
	numbering *Numbering
	rels      *relationships
	media     []mediaPart

	paragraphs []*Paragraph
	tables     []*Table

	title    string
	creator  string
	created  time.Time
	id       uuid.UUID
	bookmark int
	pictures int
}

// New creates an empty document with the built-in style set.
func New() *Document {
	return &Document{
		body:      etree.NewElement("w:body"),
		styles:    newStyles(),
		numbering: newNumbering(),
		rels:      newRelationships(),
		created:   time.Now().UTC(),
		id:        uuid.New(),
	}
}

// Document returns itself so Document satisfies Container.
func (d *Document) Document() *Document {
	return d
}

// Styles returns the style registry.
func (d *Document) Styles() *Styles {
	return d.styles
}

// HasStyle reports whether a style of the given kind is known.
func (d *Document) HasStyle(name string, kind StyleKind) bool {
	return d.styles.Has(name, kind)
}

// AddStyle registers a custom style.
func (d *Document) AddStyle(spec StyleSpec) error {
	return d.styles.Add(spec)
}

// Numbering returns the numbering store.
func (d *Document) Numbering() *Numbering {
	return d.numbering
}

// StyleNumbering returns numbering id and level a list style is bound to.
func (d *Document) StyleNumbering(style string) (numID, ilvl int, ok bool) {
	spec, found := d.styles.Lookup(style, ParagraphStyle)
	if !found || spec.numID == 0 {
		return 0, 0, false
	}
	return spec.numID, spec.ilvl, true
}

// Title returns the core properties title.
func (d *Document) Title() string {
	return d.title
}

// SetTitle sets the core properties title.
func (d *Document) SetTitle(title string) {
	d.title = strings.TrimSpace(title)
}

// SetCreator sets the core properties creator.
func (d *Document) SetCreator(creator string) {
	d.creator = creator
}

// TextWidth returns the usable page width in points.
func (d *Document) TextWidth() float64 {
	return float64(pageWidthTw-2*marginTw) / 20
}

// AddParagraph appends a paragraph to the body. An unknown or empty style
// leaves the paragraph in the default style.
func (d *Document) AddParagraph(style string) *Paragraph {
	p := newParagraph(d, style)
	d.body.AddChild(p.el)
	d.paragraphs = append(d.paragraphs, p)
	return p
}

// AddTable appends a table to the body.
func (d *Document) AddTable(rows, cols int) *Table {
	t := newTable(d, rows, cols)
	d.body.AddChild(t.el)
	d.tables = append(d.tables, t)
	return t
}

// AddPageBreak appends a paragraph holding a page break.
func (d *Document) AddPageBreak() *Paragraph {
	p := d.AddParagraph("")
	p.AddRun("").AddPageBreak()
	return p
}

// Paragraphs returns body paragraphs in document order.
func (d *Document) Paragraphs() []*Paragraph {
	return d.paragraphs
}

// Tables returns body tables in document order.
func (d *Document) Tables() []*Table {
	return d.tables
}

func (d *Document) nextBookmarkID() int {
	id := d.bookmark
	d.bookmark++
	return id
}

// documentXML assembles document.xml. Body content is copied so the
// document may still be modified after saving.
func (d *Document) documentXML() *etree.Document {
	doc := newXMLDocument()
	root := doc.CreateElement("w:document")
	root.CreateAttr("xmlns:w", nsW)
	root.CreateAttr("xmlns:r", nsR)
	root.CreateAttr("xmlns:wp", nsWP)
	root.CreateAttr("xmlns:a", nsA)
	root.CreateAttr("xmlns:pic", nsPic)

	body := d.body.Copy()
	root.AddChild(body)

	// every table cell must end with a paragraph
	for _, tc := range body.FindElements("//w:tc") {
		var last *etree.Element
		if els := tc.ChildElements(); len(els) > 0 {
			last = els[len(els)-1]
		}
		if last == nil || last.Space != "w" || last.Tag != "p" {
			tc.CreateElement("w:p")
		}
	}

	sect := body.CreateElement("w:sectPr")
	pgSz := sect.CreateElement("w:pgSz")
	pgSz.CreateAttr("w:w", itoa(pageWidthTw))
	pgSz.CreateAttr("w:h", itoa(pageHeightTw))
	pgMar := sect.CreateElement("w:pgMar")
	for _, side := range []string{"top", "right", "bottom", "left"} {
		pgMar.CreateAttr("w:"+side, itoa(marginTw))
	}
	for _, attr := range []string{"header", "footer"} {
		pgMar.CreateAttr("w:"+attr, "720")
	}
	pgMar.CreateAttr("w:gutter", "0")
	sect.CreateElement("w:cols").CreateAttr("w:space", "720")
	return doc
}
