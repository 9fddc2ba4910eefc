package docx

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/beevik/etree"
)

// StyleKind tells which document elements a style applies to.
type StyleKind int

const (
	ParagraphStyle StyleKind = iota
	CharacterStyle
	TableStyle
)

func (k StyleKind) String() string {
	switch k {
	case ParagraphStyle:
		return "paragraph"
	case CharacterStyle:
		return "character"
	case TableStyle:
		return "table"
	}
	return fmt.Sprintf("StyleKind(%d)", int(k))
}

// ErrStyleExists is returned when adding a style whose name is taken.
var ErrStyleExists = errors.New("style already exists")

// StyleSpec describes a style. Zero values mean "inherit".
type StyleSpec struct {
	Name    string
	Kind    StyleKind
	BasedOn string
	Next    string

	Font      string
	Size      float64 // points
	Bold      bool
	Italic    bool
	Underline bool
	Color     string

	SpaceBefore   float64 // points
	SpaceAfter    float64
	NoSpacing     bool
	IndentLeft    float64
	KeepNext      bool
	OutlineLevel  int // 1 based, 0 for none
	Contextual    bool
	TableBorders  bool
	HeaderShading string

	numID int
	ilvl  int
	id    string
}

// Numbering ids defined in numbering.xml for list styles.
const (
	bulletNumID  = 1
	decimalNumID = 2
)

func builtinStyles() []StyleSpec {
	styles := []StyleSpec{
		{Name: "Normal", Kind: ParagraphStyle},
		{Name: "Title", Kind: ParagraphStyle, BasedOn: "Normal", Next: "Normal", Font: "Calibri Light", Size: 28, Contextual: true},
		{Name: "Subtitle", Kind: ParagraphStyle, BasedOn: "Normal", Next: "Normal", Size: 11, Color: "5A5A5A"},
		{Name: "No Spacing", Kind: ParagraphStyle, NoSpacing: true},
		{Name: "Quote", Kind: ParagraphStyle, BasedOn: "Normal", Next: "Normal", Italic: true, Color: "404040", SpaceBefore: 10, IndentLeft: 43},
		{Name: "Intense Quote", Kind: ParagraphStyle, BasedOn: "Normal", Next: "Normal", Italic: true, Color: "2F5496", SpaceBefore: 18, SpaceAfter: 18, IndentLeft: 43},
		{Name: "List Paragraph", Kind: ParagraphStyle, BasedOn: "Normal", IndentLeft: 36, Contextual: true},
		{Name: "Caption", Kind: ParagraphStyle, BasedOn: "Normal", Next: "Normal", Italic: true, Size: 9, Color: "44546A", SpaceAfter: 10},
		{Name: "Body Text", Kind: ParagraphStyle, BasedOn: "Normal", SpaceAfter: 6},
		{Name: "HTML Preformatted", Kind: ParagraphStyle, BasedOn: "Normal", Font: "Courier New", Size: 10, NoSpacing: true},

		{Name: "Default Paragraph Font", Kind: CharacterStyle},
		{Name: "Strong", Kind: CharacterStyle, BasedOn: "Default Paragraph Font", Bold: true},
		{Name: "Emphasis", Kind: CharacterStyle, BasedOn: "Default Paragraph Font", Italic: true},
		{Name: "Hyperlink", Kind: CharacterStyle, BasedOn: "Default Paragraph Font", Color: "0563C1", Underline: true},
		{Name: "HTML Code", Kind: CharacterStyle, BasedOn: "Default Paragraph Font", Font: "Courier New", Size: 10},

		{Name: "Normal Table", Kind: TableStyle},
		{Name: "Table Grid", Kind: TableStyle, BasedOn: "Normal Table", TableBorders: true},
		{Name: "Light Grid Accent 1", Kind: TableStyle, BasedOn: "Normal Table", TableBorders: true, HeaderShading: "D9E2F3"},
		{Name: "Light List Accent 1", Kind: TableStyle, BasedOn: "Normal Table", TableBorders: true, HeaderShading: "4472C4"},
		{Name: "Light Shading Accent 1", Kind: TableStyle, BasedOn: "Normal Table", HeaderShading: "DEEAF6"},
	}

	headingSizes := []float64{16, 13, 12, 11, 11, 11, 11, 10.5, 10.5}
	for i, sz := range headingSizes {
		styles = append(styles, StyleSpec{
			Name: fmt.Sprintf("Heading %d", i+1), Kind: ParagraphStyle, BasedOn: "Normal", Next: "Normal",
			Font: "Calibri Light", Size: sz, Color: "2F5496", Bold: i == 0, Italic: i == 3 || i == 6,
			SpaceBefore: 12, KeepNext: true, OutlineLevel: i + 1,
		})
	}

	lists := []struct {
		name  string
		numID int
	}{{"List Bullet", bulletNumID}, {"List Number", decimalNumID}}
	for _, l := range lists {
		for lvl := range 3 {
			name := l.name
			if lvl > 0 {
				name = fmt.Sprintf("%s %d", l.name, lvl+1)
			}
			styles = append(styles, StyleSpec{
				Name: name, Kind: ParagraphStyle, BasedOn: "Normal", Contextual: true,
				numID: l.numID, ilvl: lvl,
			})
		}
	}
	return styles
}

// styleID derives a style identifier the way Word does: the name with
// spaces and punctuation removed.
func styleID(name string) string {
	var b strings.Builder
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "Style"
	}
	return b.String()
}

// Styles is the style registry of a document.
type Styles struct {
	specs  []*StyleSpec
	byName map[string]*StyleSpec
	ids    map[string]bool
}

func newStyles() *Styles {
	s := &Styles{byName: make(map[string]*StyleSpec), ids: make(map[string]bool)}
	for _, spec := range builtinStyles() {
		_ = s.Add(spec)
	}
	return s
}

// Add registers a style. Names are matched case-insensitively as Word does.
func (s *Styles) Add(spec StyleSpec) error {
	key := strings.ToLower(spec.Name)
	if key == "" {
		return errors.New("style name is empty")
	}
	if _, ok := s.byName[key]; ok {
		return fmt.Errorf("%w: %s", ErrStyleExists, spec.Name)
	}
	id := styleID(spec.Name)
	for n := 1; s.ids[id]; n++ {
		id = fmt.Sprintf("%s%d", styleID(spec.Name), n)
	}
	spec.id = id
	s.ids[id] = true
	s.specs = append(s.specs, &spec)
	s.byName[key] = &spec
	return nil
}

// Lookup returns the style of the given kind by name.
func (s *Styles) Lookup(name string, kind StyleKind) (*StyleSpec, bool) {
	spec, ok := s.byName[strings.ToLower(strings.TrimSpace(name))]
	if !ok || spec.Kind != kind {
		return nil, false
	}
	return spec, true
}

// Has reports whether a style of the given kind exists.
func (s *Styles) Has(name string, kind StyleKind) bool {
	_, ok := s.Lookup(name, kind)
	return ok
}

// Names returns names of all styles of a kind in registration order.
func (s *Styles) Names(kind StyleKind) []string {
	var names []string
	for _, spec := range s.specs {
		if spec.Kind == kind {
			names = append(names, spec.Name)
		}
	}
	return names
}

func (s *Styles) id(name string) string {
	if spec, ok := s.byName[strings.ToLower(name)]; ok {
		return spec.id
	}
	return ""
}

func (s *Styles) toXML() *etree.Document {
	doc := newXMLDocument()
	root := doc.CreateElement("w:styles")
	root.CreateAttr("xmlns:w", nsW)

	defaults := root.CreateElement("w:docDefaults")
	rPr := defaults.CreateElement("w:rPrDefault").CreateElement("w:rPr")
	fonts := rPr.CreateElement("w:rFonts")
	fonts.CreateAttr("w:ascii", "Calibri")
	fonts.CreateAttr("w:hAnsi", "Calibri")
	fonts.CreateAttr("w:eastAsia", "Calibri")
	fonts.CreateAttr("w:cs", "Times New Roman")
	setVal(rPr.CreateElement("w:sz"), "22")
	setVal(rPr.CreateElement("w:szCs"), "22")
	setVal(rPr.CreateElement("w:lang"), "en-US")
	pPr := defaults.CreateElement("w:pPrDefault").CreateElement("w:pPr")
	sp := pPr.CreateElement("w:spacing")
	sp.CreateAttr("w:after", "160")
	sp.CreateAttr("w:line", "259")
	sp.CreateAttr("w:lineRule", "auto")

	for _, spec := range s.specs {
		root.AddChild(s.styleXML(spec))
	}
	return doc
}

func (s *Styles) styleXML(spec *StyleSpec) *etree.Element {
	el := etree.NewElement("w:style")
	el.CreateAttr("w:type", spec.Kind.String())
	el.CreateAttr("w:styleId", spec.id)
	switch spec.Name {
	case "Normal", "Default Paragraph Font", "Normal Table":
		el.CreateAttr("w:default", "1")
	}
	setVal(el.CreateElement("w:name"), spec.Name)
	if id := s.id(spec.BasedOn); id != "" {
		setVal(el.CreateElement("w:basedOn"), id)
	}
	if id := s.id(spec.Next); id != "" {
		setVal(el.CreateElement("w:next"), id)
	}
	el.CreateElement("w:qFormat")

	if spec.Kind == ParagraphStyle {
		pPr := etree.NewElement("w:pPr")
		if spec.KeepNext {
			child(pPr, "keepNext", pPrOrder)
		}
		if spec.numID > 0 {
			numPr := child(pPr, "numPr", pPrOrder)
			setVal(numPr.CreateElement("w:ilvl"), itoa(spec.ilvl))
			setVal(numPr.CreateElement("w:numId"), itoa(spec.numID))
		}
		if spec.NoSpacing || spec.SpaceBefore > 0 || spec.SpaceAfter > 0 {
			sp := child(pPr, "spacing", pPrOrder)
			if spec.NoSpacing {
				sp.CreateAttr("w:after", "0")
				sp.CreateAttr("w:line", "240")
				sp.CreateAttr("w:lineRule", "auto")
			} else {
				if spec.SpaceBefore > 0 {
					sp.CreateAttr("w:before", itoa(twips(spec.SpaceBefore)))
				}
				if spec.SpaceAfter > 0 {
					sp.CreateAttr("w:after", itoa(twips(spec.SpaceAfter)))
				}
			}
		}
		if spec.IndentLeft > 0 {
			child(pPr, "ind", pPrOrder).CreateAttr("w:left", itoa(twips(spec.IndentLeft)))
		}
		if spec.Contextual {
			child(pPr, "contextualSpacing", pPrOrder)
		}
		if spec.OutlineLevel > 0 {
			setVal(child(pPr, "outlineLvl", pPrOrder), itoa(spec.OutlineLevel-1))
		}
		if len(pPr.Child) > 0 {
			el.AddChild(pPr)
		}
	}

	if spec.Kind == TableStyle {
		tblPr := el.CreateElement("w:tblPr")
		ind := child(tblPr, "tblInd", tblPrOrder)
		ind.CreateAttr("w:w", "0")
		ind.CreateAttr("w:type", "dxa")
		if spec.TableBorders {
			borders := child(tblPr, "tblBorders", tblPrOrder)
			for _, side := range borderOrder {
				b := borders.CreateElement("w:" + side)
				b.CreateAttr("w:val", "single")
				b.CreateAttr("w:sz", "4")
				b.CreateAttr("w:space", "0")
				b.CreateAttr("w:color", "auto")
			}
		}
		mar := child(tblPr, "tblCellMar", tblPrOrder)
		for _, side := range []string{"left", "right"} {
			m := mar.CreateElement("w:" + side)
			m.CreateAttr("w:w", "108")
			m.CreateAttr("w:type", "dxa")
		}
		if spec.HeaderShading != "" {
			cond := el.CreateElement("w:tblStylePr")
			cond.CreateAttr("w:type", "firstRow")
			cond.CreateElement("w:rPr").CreateElement("w:b")
			shd := cond.CreateElement("w:tcPr").CreateElement("w:shd")
			shd.CreateAttr("w:val", "clear")
			shd.CreateAttr("w:color", "auto")
			shd.CreateAttr("w:fill", spec.HeaderShading)
		}
		return el
	}

	rPr := etree.NewElement("w:rPr")
	if spec.Font != "" {
		f := child(rPr, "rFonts", rPrOrder)
		f.CreateAttr("w:ascii", spec.Font)
		f.CreateAttr("w:hAnsi", spec.Font)
	}
	if spec.Bold {
		child(rPr, "b", rPrOrder)
	}
	if spec.Italic {
		child(rPr, "i", rPrOrder)
	}
	if spec.Color != "" {
		setVal(child(rPr, "color", rPrOrder), spec.Color)
	}
	if spec.Size > 0 {
		setVal(child(rPr, "sz", rPrOrder), itoa(int(spec.Size*2)))
	}
	if spec.Underline {
		setVal(child(rPr, "u", rPrOrder), "single")
	}
	if len(rPr.Child) > 0 {
		el.AddChild(rPr)
	}
	return el
}
