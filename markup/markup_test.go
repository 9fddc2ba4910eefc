package markup_test

import (
	"strings"
	"testing"

	"h2d/markup"
)

func TestDecode(t *testing.T) {
	latin1 := []byte("<html><head><meta charset=\"iso-8859-1\"></head><body>caf\xe9</body></html>")
	got, err := markup.Decode(latin1, "")
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	if !strings.Contains(got, "café") {
		t.Errorf("Decode() = %q", got)
	}

	got, err = markup.Decode([]byte("plain ütf"), "text/html; charset=utf-8")
	if err != nil || got != "plain ütf" {
		t.Errorf("Decode(utf-8) = %q, %v", got, err)
	}
}

func TestFix(t *testing.T) {
	got, err := markup.Fix("<p>one<p>two<b>bold</p>")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"<html>", "<body>", "<p>one</p>", "<b>bold</b></p>"} {
		if !strings.Contains(got, want) {
			t.Errorf("Fix() = %q, missing %q", got, want)
		}
	}
}

func TestTopLevelTables(t *testing.T) {
	doc, err := markup.Parse(`
		<table id="a"><tr><td><table id="b"><tr><td><table id="c"></table></td></tr></table></td></tr></table>
		<p>x</p>
		<table id="d"><tr><td>1</td></tr></table>`)
	if err != nil {
		t.Fatal(err)
	}
	tables := markup.TopLevelTables(doc)
	if len(tables) != 2 {
		t.Fatalf("TopLevelTables() = %d, want 2", len(tables))
	}
	if id, _ := markup.Attr(tables[0], "id"); id != "a" {
		t.Errorf("first table id = %q", id)
	}
	if n := markup.CountDescendants(tables[0], "table"); n != 2 {
		t.Errorf("CountDescendants() = %d, want 2", n)
	}
	if n := markup.CountDescendants(tables[1], "table"); n != 0 {
		t.Errorf("CountDescendants() = %d, want 0", n)
	}
}

func TestTopLevelTables_Skip(t *testing.T) {
	doc, err := markup.Parse(`<body><template><table id="t"></table></template><table id="real"></table></body>`)
	if err != nil {
		t.Fatal(err)
	}
	if n := len(markup.TopLevelTables(doc)); n != 2 {
		t.Errorf("TopLevelTables() without skip = %d, want 2", n)
	}
	tables := markup.TopLevelTables(doc, "template")
	if len(tables) != 1 {
		t.Fatalf("TopLevelTables() = %d, want 1", len(tables))
	}
	if id, _ := markup.Attr(tables[0], "id"); id != "real" {
		t.Errorf("table id = %q, want real", id)
	}
}

func TestInnerHTMLAndText(t *testing.T) {
	doc, err := markup.Parse(`<div id="x">Hello <b>big</b> &amp; world</div>`)
	if err != nil {
		t.Fatal(err)
	}
	var div = doc.FirstChild.LastChild.FirstChild // html > body > div
	if !markup.IsElement(div, "div") {
		t.Fatalf("unexpected node %v", div.Data)
	}
	inner, err := markup.InnerHTML(div)
	if err != nil || inner != "Hello <b>big</b> &amp; world" {
		t.Errorf("InnerHTML() = %q, %v", inner, err)
	}
	if got := markup.Text(div); got != "Hello big & world" {
		t.Errorf("Text() = %q", got)
	}
	if markup.NearestAncestor(div.FirstChild, "body") == nil {
		t.Error("NearestAncestor(body) = nil")
	}
}
