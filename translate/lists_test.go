package translate

import (
	"testing"

	"h2d/docx"
)

func TestListsNumbering(t *testing.T) {
	doc := docx.New()
	l := newLists()

	it, err := l.item(doc)
	if err != nil || it.ordered || it.style != "List Bullet" || it.level != 1 {
		t.Fatalf("item outside list = %+v, %v", it, err)
	}

	l.open("ol")
	first, err := l.item(doc)
	if err != nil {
		t.Fatal(err)
	}
	again, _ := l.item(doc)
	if first.numID == 0 || first.numID != again.numID {
		t.Errorf("items of one list: %d, %d", first.numID, again.numID)
	}

	l.open("ul")
	l.open("ol")
	deep, _ := l.item(doc)
	if deep.style != "List Number 3" || deep.ilvl != 2 || deep.numID == first.numID {
		t.Errorf("nested item = %+v", deep)
	}
	l.close("ol")
	l.close("ul")

	back, _ := l.item(doc)
	if back.numID != first.numID {
		t.Errorf("outer list numbering changed after nested list: %d, %d", back.numID, first.numID)
	}
	l.close("ol")
	if l.depth() != 0 || len(l.nums) != 0 {
		t.Errorf("lists not released: depth %d nums %v", l.depth(), l.nums)
	}

	l.open("ol")
	next, _ := l.item(doc)
	if next.numID == first.numID {
		t.Error("sibling list reused numbering")
	}
	if start, ok := doc.Numbering().StartOverride(next.numID, 0); !ok || start != 1 {
		t.Errorf("start override = %d, %v", start, ok)
	}
}

func TestListStyleCapped(t *testing.T) {
	l := newLists()
	for range 5 {
		l.open("ul")
	}
	it, _ := l.item(docx.New())
	if it.style != "List Bullet 3" || it.level != maxListLevel {
		t.Errorf("deep item = %+v", it)
	}
}
