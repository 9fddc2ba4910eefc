package docx

import (
	"errors"
	"fmt"

	"github.com/beevik/etree"
)

// Vertical alignment of cell content.
const (
	VAlignTop    = "top"
	VAlignCenter = "center"
	VAlignBottom = "bottom"
)

// ErrBadMerge is returned when a merge region is invalid or overlaps an
// existing merge.
var ErrBadMerge = errors.New("invalid merge region")

// Table is a handle to a table.
type Table struct {
	el    *etree.Element
	doc   *Document
	rows  []*etree.Element
	grid  [][]*Cell // covered positions point at the anchor
	cols  int
	style string
}

func newTable(doc *Document, rows, cols int) *Table {
	rows, cols = max(rows, 1), max(cols, 1)
	t := &Table{el: etree.NewElement("w:tbl"), doc: doc, cols: cols}

	tblPr := t.el.CreateElement("w:tblPr")
	w := child(tblPr, "tblW", tblPrOrder)
	w.CreateAttr("w:w", "0")
	w.CreateAttr("w:type", "auto")
	look := child(tblPr, "tblLook", tblPrOrder)
	look.CreateAttr("w:val", "04A0")
	look.CreateAttr("w:firstRow", "1")
	look.CreateAttr("w:lastRow", "0")
	look.CreateAttr("w:firstColumn", "1")
	look.CreateAttr("w:lastColumn", "0")
	look.CreateAttr("w:noHBand", "0")
	look.CreateAttr("w:noVBand", "1")

	colW := twips(doc.TextWidth()) / cols
	grid := t.el.CreateElement("w:tblGrid")
	for range cols {
		grid.CreateElement("w:gridCol").CreateAttr("w:w", itoa(colW))
	}

	t.grid = make([][]*Cell, rows)
	for r := range rows {
		tr := t.el.CreateElement("w:tr")
		t.rows = append(t.rows, tr)
		t.grid[r] = make([]*Cell, cols)
		for c := range cols {
			cell := &Cell{el: tr.CreateElement("w:tc"), table: t, row: r, col: c, rowSpan: 1, colSpan: 1}
			tcW := child(cell.tcPr(), "tcW", tcPrOrder)
			tcW.CreateAttr("w:w", itoa(colW))
			tcW.CreateAttr("w:type", "dxa")
			t.grid[r][c] = cell
		}
	}
	return t
}

// Rows returns number of rows.
func (t *Table) Rows() int { return len(t.grid) }

// Cols returns number of grid columns.
func (t *Table) Cols() int { return t.cols }

// Cell returns the cell covering (row, col): for merged regions this is
// the anchor cell. Out of range coordinates return nil.
func (t *Table) Cell(row, col int) *Cell {
	if row < 0 || row >= len(t.grid) || col < 0 || col >= t.cols {
		return nil
	}
	return t.grid[row][col]
}

func (t *Table) tblPr() *etree.Element {
	return props(t.el, "tblPr")
}

// SetStyle applies a table style. Unknown names are rejected.
func (t *Table) SetStyle(name string) error {
	spec, ok := t.doc.styles.Lookup(name, TableStyle)
	if !ok {
		return fmt.Errorf("unknown table style %q", name)
	}
	t.style = spec.Name
	setVal(child(t.tblPr(), "tblStyle", tblPrOrder), spec.id)
	return nil
}

// Style returns table style name or empty.
func (t *Table) Style() string { return t.style }

// SetAlignment sets horizontal placement of the table.
func (t *Table) SetAlignment(jc string) {
	setVal(child(t.tblPr(), "jc", tblPrOrder), jc)
}

// Alignment returns table placement or empty.
func (t *Table) Alignment() string {
	return val(t.el.FindElement("w:tblPr/w:jc"))
}

// SetIndent sets left indentation of the table in points.
func (t *Table) SetIndent(pt float64) {
	ind := child(t.tblPr(), "tblInd", tblPrOrder)
	ind.CreateAttr("w:w", itoa(twips(pt)))
	ind.CreateAttr("w:type", "dxa")
}

// SetFixedLayout stops Word from auto-fitting columns to content.
func (t *Table) SetFixedLayout() {
	child(t.tblPr(), "tblLayout", tblPrOrder).CreateAttr("w:type", "fixed")
}

// FixedLayout reports whether layout is fixed.
func (t *Table) FixedLayout() bool {
	l := t.el.FindElement("w:tblPr/w:tblLayout")
	return l != nil && l.SelectAttrValue("w:type", "") == "fixed"
}

// SetRowHeight sets minimal height of a row in points.
func (t *Table) SetRowHeight(row int, pt float64) {
	if row < 0 || row >= len(t.rows) {
		return
	}
	trPr := child(t.rows[row], "trPr", []string{"tblPrEx", "trPr", "tc"})
	h := child(trPr, "trHeight", trPrOrder)
	h.CreateAttr("w:val", itoa(twips(pt)))
	h.CreateAttr("w:hRule", "atLeast")
}

// RowHeight returns row height in points or 0.
func (t *Table) RowHeight(row int) float64 {
	if row < 0 || row >= len(t.rows) {
		return 0
	}
	return float64(atoi(val(t.rows[row].FindElement("w:trPr/w:trHeight")))) / 20
}

// SetColumnWidth sets grid width of a column in points.
func (t *Table) SetColumnWidth(col int, pt float64) {
	cols := t.el.FindElements("w:tblGrid/w:gridCol")
	if col < 0 || col >= len(cols) {
		return
	}
	cols[col].CreateAttr("w:w", itoa(twips(pt)))
}

// ColumnWidth returns grid width of a column in points.
func (t *Table) ColumnWidth(col int) float64 {
	cols := t.el.FindElements("w:tblGrid/w:gridCol")
	if col < 0 || col >= len(cols) {
		return 0
	}
	return float64(atoi(cols[col].SelectAttrValue("w:w", "0"))) / 20
}

// Merge joins the rectangular region spanned by two cells into a single
// cell anchored at its top left corner and returns the anchor. Regions
// overlapping already merged cells are rejected.
func (t *Table) Merge(a, b *Cell) (*Cell, error) {
	if a == nil || b == nil || a.table != t || b.table != t {
		return nil, fmt.Errorf("%w: cells do not belong to the table", ErrBadMerge)
	}
	r1, r2 := min(a.row, b.row), max(a.row+a.rowSpan-1, b.row+b.rowSpan-1)
	c1, c2 := min(a.col, b.col), max(a.col+a.colSpan-1, b.col+b.colSpan-1)
	if r1 == r2 && c1 == c2 {
		return t.grid[r1][c1], nil
	}
	for r := r1; r <= r2; r++ {
		for c := c1; c <= c2; c++ {
			cell := t.grid[r][c]
			if cell.rowSpan > 1 || cell.colSpan > 1 || cell.row != r || cell.col != c {
				return nil, fmt.Errorf("%w: (%d,%d)-(%d,%d) overlaps a merged cell", ErrBadMerge, r1, c1, r2, c2)
			}
		}
	}

	anchor := t.grid[r1][c1]
	anchor.rowSpan, anchor.colSpan = r2-r1+1, c2-c1+1
	for r := r1; r <= r2; r++ {
		first := t.grid[r][c1]
		// horizontal span collapses to the first cell of each row
		for c := c1 + 1; c <= c2; c++ {
			t.rows[r].RemoveChild(t.grid[r][c].el)
		}
		tcPr := first.tcPr()
		if anchor.colSpan > 1 {
			setVal(child(tcPr, "gridSpan", tcPrOrder), itoa(anchor.colSpan))
			first.SetWidth(first.width() * float64(anchor.colSpan))
		}
		if anchor.rowSpan > 1 {
			vm := child(tcPr, "vMerge", tcPrOrder)
			if r == r1 {
				setVal(vm, "restart")
			}
		}
		for c := c1; c <= c2; c++ {
			t.grid[r][c] = anchor
		}
	}
	return anchor, nil
}

// Cell is a handle to a table cell. It is a Container.
type Cell struct {
	el               *etree.Element
	table            *Table
	row, col         int
	rowSpan, colSpan int
	paragraphs       []*Paragraph
	tables           []*Table
}

func (c *Cell) tcPr() *etree.Element {
	return props(c.el, "tcPr")
}

// Position returns grid coordinates of the cell.
func (c *Cell) Position() (row, col int) { return c.row, c.col }

// Span returns row and column span of the cell.
func (c *Cell) Span() (rows, cols int) { return c.rowSpan, c.colSpan }

// Document returns the owning document.
func (c *Cell) Document() *Document { return c.table.doc }

// AddParagraph appends a paragraph to the cell.
func (c *Cell) AddParagraph(style string) *Paragraph {
	p := newParagraph(c.table.doc, style)
	c.el.AddChild(p.el)
	c.paragraphs = append(c.paragraphs, p)
	return p
}

// AddTable appends a nested table to the cell.
func (c *Cell) AddTable(rows, cols int) *Table {
	t := newTable(c.table.doc, rows, cols)
	c.el.AddChild(t.el)
	c.tables = append(c.tables, t)
	return t
}

// Paragraphs returns paragraphs directly in the cell.
func (c *Cell) Paragraphs() []*Paragraph { return c.paragraphs }

// Tables returns tables nested directly in the cell.
func (c *Cell) Tables() []*Table { return c.tables }

// Text returns paragraph texts joined with newlines.
func (c *Cell) Text() string {
	var s string
	for i, p := range c.paragraphs {
		if i > 0 {
			s += "\n"
		}
		s += p.Text()
	}
	return s
}

// SetBackground fills the cell with a hex color.
func (c *Cell) SetBackground(fill string) {
	shd := child(c.tcPr(), "shd", tcPrOrder)
	shd.CreateAttr("w:val", "clear")
	shd.CreateAttr("w:color", "auto")
	shd.CreateAttr("w:fill", fill)
}

// Background returns background fill or empty.
func (c *Cell) Background() string {
	if shd := c.el.FindElement("w:tcPr/w:shd"); shd != nil {
		return shd.SelectAttrValue("w:fill", "")
	}
	return ""
}

// SetWidth sets preferred cell width in points.
func (c *Cell) SetWidth(pt float64) {
	w := child(c.tcPr(), "tcW", tcPrOrder)
	w.CreateAttr("w:w", itoa(twips(pt)))
	w.CreateAttr("w:type", "dxa")
}

// Width returns preferred width in points.
func (c *Cell) Width() float64 { return c.width() }

func (c *Cell) width() float64 {
	w := c.el.FindElement("w:tcPr/w:tcW")
	if w == nil {
		return 0
	}
	return float64(atoi(w.SelectAttrValue("w:w", "0"))) / 20
}

// SetVerticalAlignment sets vertical placement of content.
func (c *Cell) SetVerticalAlignment(v string) {
	setVal(child(c.tcPr(), "vAlign", tcPrOrder), v)
}

// VerticalAlignment returns vertical placement or empty.
func (c *Cell) VerticalAlignment() string {
	return val(c.el.FindElement("w:tcPr/w:vAlign"))
}

// SetBorders sets cell borders; nil sides are left untouched.
func (c *Cell) SetBorders(top, right, bottom, left *Border) {
	borders := child(c.tcPr(), "tcBorders", tcPrOrder)
	for _, side := range []struct {
		name string
		b    *Border
	}{{"top", top}, {"left", left}, {"bottom", bottom}, {"right", right}} {
		if side.b == nil {
			continue
		}
		removeChild(borders, side.name)
		side.b.write(child(borders, side.name, borderOrder))
	}
}

// BorderOf returns the border set on a side: top, right, bottom or left.
func (c *Cell) BorderOf(side string) (Border, bool) {
	el := c.el.FindElement("w:tcPr/w:tcBorders/w:" + side)
	if el == nil {
		return Border{}, false
	}
	return Border{
		Style: el.SelectAttrValue("w:val", ""),
		Size:  atoi(el.SelectAttrValue("w:sz", "0")),
		Color: el.SelectAttrValue("w:color", ""),
	}, true
}
