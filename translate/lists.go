package translate

import (
	"fmt"

	"h2d/docx"
)

// maxListLevel is the deepest list style variant available.
const maxListLevel = 3

type listEntry struct {
	tag string
	key int // ordered lists only, 0 for ul
}

// lists tracks open ol/ul elements and numbering ids allocated for ordered
// lists. Each ol gets its own numbering instance so it restarts at 1.
type lists struct {
	stack   []listEntry
	lastKey int
	nums    map[int]int
}

func newLists() *lists {
	return &lists{nums: make(map[int]int)}
}

func (l *lists) open(tag string) {
	e := listEntry{tag: tag}
	if tag == "ol" {
		l.lastKey++
		e.key = l.lastKey
	}
	l.stack = append(l.stack, e)
}

// close pops the last entry with tag and forgets its numbering.
func (l *lists) close(tag string) {
	for i := len(l.stack) - 1; i >= 0; i-- {
		if l.stack[i].tag != tag {
			continue
		}
		if key := l.stack[i].key; key != 0 {
			delete(l.nums, key)
		}
		l.stack = append(l.stack[:i], l.stack[i+1:]...)
		return
	}
}

func (l *lists) depth() int {
	return len(l.stack)
}

// listItem describes the paragraph a li element produces.
type listItem struct {
	style   string
	level   int // 1 based visual level
	ordered bool
	numID   int // ordered lists only
	ilvl    int
}

// listStyle returns the style name for a list kind at a visual level.
func listStyle(ordered bool, level int) string {
	base := "List Bullet"
	if ordered {
		base = "List Number"
	}
	if level > 1 {
		return fmt.Sprintf("%s %d", base, level)
	}
	return base
}

// item resolves list styling for a li, allocating numbering for the
// innermost ordered list on first use. A li outside of any list is a
// first level bullet.
func (l *lists) item(doc *docx.Document) (listItem, error) {
	it := listItem{level: min(max(l.depth(), 1), maxListLevel)}
	var top listEntry
	if len(l.stack) > 0 {
		top = l.stack[len(l.stack)-1]
	}
	it.ordered = top.tag == "ol"
	it.style = listStyle(it.ordered, it.level)
	if !it.ordered {
		return it, nil
	}

	numID, ilvl, ok := doc.StyleNumbering(it.style)
	if !ok {
		return it, fmt.Errorf("style %q has no numbering", it.style)
	}
	it.ilvl = ilvl
	if id, ok := l.nums[top.key]; ok {
		it.numID = id
		return it, nil
	}
	id, err := doc.Numbering().CloneNum(numID, ilvl, 1)
	if err != nil {
		return it, fmt.Errorf("unable to allocate numbering for %q: %w", it.style, err)
	}
	l.nums[top.key] = id
	it.numID = id
	return it, nil
}
