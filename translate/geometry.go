package translate

import (
	"strconv"
	"strings"

	"h2d/utils/debug"
)

// Span limits of HTML itself.
const (
	maxColSpan = 1000
	maxRowSpan = 65534
)

// Layout limits: Word tables have at most 63 columns, and a row span may
// reach only a few rows past the last real row.
const (
	maxLayoutColSpan = 63
	maxExtraRows     = 10
)

// cellRef is a cell as found in markup.
type cellRef[T any] struct {
	rowSpan, colSpan int
	data             T
}

// placement is a cell positioned on the grid.
type placement[T any] struct {
	row, col         int
	rowSpan, colSpan int
	data             T
}

// geometry is the layout of a table: its dimensions, which grid
// positions are covered and where every cell is anchored.
type geometry[T any] struct {
	rows, cols int
	occupied   [][]bool
	cells      []placement[T]
	clamped    int // cells with spans cut to layout limits
}

// parseSpan reads a colspan/rowspan attribute, invalid values become 1.
func parseSpan(v string, limit int) int {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n < 1 {
		return 1
	}
	return min(n, limit)
}

func (g *geometry[T]) isOccupied(row, col int) bool {
	return row < len(g.occupied) && col < len(g.occupied[row]) && g.occupied[row][col]
}

func (g *geometry[T]) mark(row, col, rowSpan, colSpan int) {
	for r := row; r < row+rowSpan; r++ {
		for len(g.occupied) <= r {
			g.occupied = append(g.occupied, nil)
		}
		for len(g.occupied[r]) < col+colSpan {
			g.occupied[r] = append(g.occupied[r], false)
		}
		for c := col; c < col+colSpan; c++ {
			g.occupied[r][c] = true
		}
	}
}

// layout places cells row by row. Within a row the column cursor skips
// positions covered by row spans from above; a column span is cut short
// rather than cover an occupied position. Dimensions are the largest
// expanded row width and the furthest row any span reaches. Spans beyond
// layout limits are clamped first.
func layout[T any](rows [][]cellRef[T]) *geometry[T] {
	g := &geometry[T]{rows: len(rows)}
	for r, cells := range rows {
		width := 0
		col := 0
		for _, c := range cells {
			if limit := len(rows) - r + maxExtraRows; c.rowSpan > limit || c.colSpan > maxLayoutColSpan {
				c.rowSpan = min(c.rowSpan, limit)
				c.colSpan = min(c.colSpan, maxLayoutColSpan)
				g.clamped++
			}
			width += c.colSpan
			for g.isOccupied(r, col) {
				col++
			}
			span := 1
			for span < c.colSpan && !g.isOccupied(r, col+span) {
				span++
			}
			g.mark(r, col, c.rowSpan, span)
			g.cells = append(g.cells, placement[T]{
				row: r, col: col, rowSpan: c.rowSpan, colSpan: span, data: c.data,
			})
			g.rows = max(g.rows, r+c.rowSpan)
			col += span
			g.cols = max(g.cols, col)
		}
		g.cols = max(g.cols, width)
	}
	// normalize occupancy to full rows x cols
	for len(g.occupied) < g.rows {
		g.occupied = append(g.occupied, nil)
	}
	for r := range g.occupied {
		for len(g.occupied[r]) < g.cols {
			g.occupied[r] = append(g.occupied[r], false)
		}
	}
	return g
}

// dump renders geometry for debug logging, text is optional.
func (g *geometry[T]) dump(text func(T) string) string {
	tw := debug.NewTreeWriter()
	tw.Line(0, "table %dx%d", g.rows, g.cols)
	tw.Grid(1, g.occupied)
	for _, p := range g.cells {
		tw.Line(1, "cell (%d,%d) span %dx%d", p.row, p.col, p.rowSpan, p.colSpan)
		if text != nil {
			tw.TextBlock(2, "text", text(p.data))
		}
	}
	return tw.String()
}
