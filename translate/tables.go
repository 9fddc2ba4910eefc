package translate

import (
	"strings"

	"github.com/andybalholm/cascadia"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"h2d/css"
	"h2d/docx"
	"h2d/markup"
)

// table translates the next top level table of the markup tree, cell by
// cell, and skips its events in the token stream: nested tables are
// produced by the cell translations.
func (s *state) table(attrs Attrs) error {
	s.endParagraph()
	if s.tableNo >= len(s.tables) {
		s.log.Warn("Table not found in markup tree, skipping", zap.Int("index", s.tableNo))
		s.startSkip("table", 0)
		return nil
	}
	node := s.tables[s.tableNo]
	s.tableNo++
	s.startSkip("table", markup.CountDescendants(node, "table"))

	if id := attrs["id"]; id != "" {
		s.bookmark(id)
	}
	return s.buildTable(node, attrs)
}

// tableRows selects rows of tbl in selector precedence order, ignoring
// rows of nested tables.
func tableRows(tbl *html.Node, selectors []cascadia.Sel) []*html.Node {
	var rows []*html.Node
	seen := make(map[*html.Node]bool)
	for _, sel := range selectors {
		for _, tr := range cascadia.QueryAll(tbl, sel) {
			if seen[tr] || markup.NearestAncestor(tr, "table") != tbl {
				continue
			}
			seen[tr] = true
			rows = append(rows, tr)
		}
	}
	return rows
}

func tableCells(tr *html.Node) []cellRef[*html.Node] {
	var cells []cellRef[*html.Node]
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if !markup.IsElement(c, "td") && !markup.IsElement(c, "th") {
			continue
		}
		rs, _ := markup.Attr(c, "rowspan")
		cs, _ := markup.Attr(c, "colspan")
		cells = append(cells, cellRef[*html.Node]{
			rowSpan: parseSpan(rs, maxRowSpan),
			colSpan: parseSpan(cs, maxColSpan),
			data:    c,
		})
	}
	return cells
}

func (s *state) buildTable(node *html.Node, attrs Attrs) error {
	var refs [][]cellRef[*html.Node]
	for _, tr := range tableRows(node, s.t.rows) {
		refs = append(refs, tableCells(tr))
	}
	g := layout(refs)
	if g.rows == 0 || g.cols == 0 {
		s.log.Debug("Empty table, skipping")
		return nil
	}
	if g.clamped > 0 {
		s.log.Warn("Table spans exceed layout limits, clamped",
			zap.Int("cells", g.clamped), zap.Int("rows", g.rows), zap.Int("cols", g.cols))
	}
	if ce := s.log.Check(zap.DebugLevel, "Table layout"); ce != nil {
		ce.Write(zap.String("geometry", g.dump(func(n *html.Node) string {
			return strings.TrimSpace(markup.Text(n))
		})))
	}

	tbl := s.target.AddTable(g.rows, g.cols)
	if s.tableStyle != "" {
		if err := tbl.SetStyle(s.tableStyle); err != nil {
			s.log.Warn("Unable to style table", zap.String("style", s.tableStyle), zap.Error(err))
		}
	}

	for _, p := range g.cells {
		cell := tbl.Cell(p.row, p.col)
		if p.rowSpan > 1 || p.colSpan > 1 {
			merged, err := tbl.Merge(cell, tbl.Cell(p.row+p.rowSpan-1, p.col+p.colSpan-1))
			if err != nil {
				s.log.Warn("Unable to merge cells", zap.Int("row", p.row), zap.Int("col", p.col), zap.Error(err))
			} else {
				cell = merged
			}
		}

		inner, err := markup.InnerHTML(p.data)
		if err != nil {
			s.log.Warn("Unable to render cell content", zap.Int("row", p.row), zap.Int("col", p.col), zap.Error(err))
			continue
		}
		if p.data.Data == "th" {
			inner = "<b>" + inner + "</b>"
		}

		var props map[string]string
		if style, ok := markup.Attr(p.data, "style"); ok {
			props = s.t.parser.Parse(style).Merged()
		}
		if _, ok := props["width"]; ok {
			tbl.SetFixedLayout()
		} else if _, ok := props["height"]; ok {
			tbl.SetFixedLayout()
		}

		if err := s.t.translate(s.ctx, inner, cell, false); err != nil {
			return err
		}
		if s.t.cfg.Features.Styles {
			s.styleCell(tbl, cell, p.row, props)
		}
	}

	if style, ok := attrs["style"]; ok && s.t.cfg.Features.Styles {
		styleTable(tbl, s.t.parser.Parse(style).Merged(), s.maxWidth)
	}
	return nil
}

// styleCell applies cell level CSS once cell content is complete.
func (s *state) styleCell(tbl *docx.Table, cell *docx.Cell, row int, props map[string]string) {
	if len(props) == 0 {
		return
	}
	for _, name := range []string{"background-color", "background"} {
		if c, ok := css.ParseColor(props[name]); ok {
			cell.SetBackground(c.Hex())
			break
		}
	}
	if v, ok := props["width"]; ok {
		if pt, ok := css.ToPoints(v, s.maxWidth); ok {
			cell.SetWidth(pt)
			// fixed layout follows the grid
			if _, cols := cell.Span(); cols == 1 {
				_, col := cell.Position()
				tbl.SetColumnWidth(col, pt)
			}
		}
	}
	// Word sets height per row only
	if v, ok := props["height"]; ok {
		if pt, ok := css.ToPoints(v, s.maxWidth); ok {
			tbl.SetRowHeight(row, pt)
		}
	}
	if v, ok := props["color"]; ok {
		if c, ok := css.ParseColor(v); ok {
			for _, p := range cell.Paragraphs() {
				for _, r := range p.Runs() {
					r.SetColor(c.Hex())
				}
			}
		}
	}
	if v, ok := props["vertical-align"]; ok {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "top":
			cell.SetVerticalAlignment(docx.VAlignTop)
		case "middle":
			cell.SetVerticalAlignment(docx.VAlignCenter)
		case "bottom":
			cell.SetVerticalAlignment(docx.VAlignBottom)
		}
	}
	if hasBorderProps(props) {
		if b := css.ParseBorders(props, s.maxWidth); b.IsSet() {
			cell.SetBorders(cellBorder(b.Top), cellBorder(b.Right), cellBorder(b.Bottom), cellBorder(b.Left))
		}
	}
	if paras := cell.Paragraphs(); len(paras) > 0 {
		applyBlockDeclarations(paras[0], withoutBackground(props), s.maxWidth)
	}
}

func hasBorderProps(props map[string]string) bool {
	for k := range props {
		if strings.HasPrefix(k, "border") {
			return true
		}
	}
	return false
}

// cellBorder converts a parsed side, sides neither visible nor explicitly
// removed are left alone.
func cellBorder(side css.BorderSide) *docx.Border {
	switch {
	case side.Visible():
		return &docx.Border{Style: side.Style, Size: side.Eighths(), Color: side.Color}
	case side.Style == css.BorderNone:
		return &docx.Border{Style: css.BorderNone}
	}
	return nil
}

// withoutBackground drops properties already consumed by the cell itself.
func withoutBackground(props map[string]string) map[string]string {
	out := make(map[string]string, len(props))
	for k, v := range props {
		if k != "background" && k != "background-color" {
			out[k] = v
		}
	}
	return out
}

// styleTable handles alignment and indentation of the whole table.
func styleTable(tbl *docx.Table, props map[string]string, maxWidth float64) {
	if a := textAlign(props["text-align"]); a != "" && a != docx.AlignJustify {
		tbl.SetAlignment(a)
	}
	switch {
	case centeredMargins(props):
		tbl.SetAlignment(docx.AlignCenter)
	case props["margin-left"] != "":
		if pt, ok := css.ToPoints(props["margin-left"], maxWidth); ok {
			tbl.SetIndent(pt)
		}
	}
}
