package docx

import (
	"math"
	"slices"
	"strconv"

	"github.com/beevik/etree"
)

// Namespaces used by the main document part.
const (
	nsW   = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	nsR   = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
	nsWP  = "http://schemas.openxmlformats.org/drawingml/2006/wordprocessingDrawing"
	nsA   = "http://schemas.openxmlformats.org/drawingml/2006/main"
	nsPic = "http://schemas.openxmlformats.org/drawingml/2006/picture"
)

// Schema order of property children. Word rejects parts where property
// elements are out of sequence, so every insertion goes through child().
var (
	pPrOrder = []string{
		"pStyle", "keepNext", "keepLines", "pageBreakBefore", "framePr", "widowControl",
		"numPr", "suppressLineNumbers", "pBdr", "shd", "tabs", "suppressAutoHyphens",
		"kinsoku", "wordWrap", "overflowPunct", "topLinePunct", "autoSpaceDE", "autoSpaceDN",
		"bidi", "adjustRightInd", "snapToGrid", "spacing", "ind", "contextualSpacing",
		"mirrorIndents", "suppressOverlap", "jc", "textDirection", "textAlignment",
		"textboxTightWrap", "outlineLvl", "divId", "cnfStyle", "rPr", "sectPr", "pPrChange",
	}
	rPrOrder = []string{
		"rStyle", "rFonts", "b", "bCs", "i", "iCs", "caps", "smallCaps", "strike", "dstrike",
		"outline", "shadow", "emboss", "imprint", "noProof", "snapToGrid", "vanish",
		"webHidden", "color", "spacing", "w", "kern", "position", "sz", "szCs", "highlight",
		"u", "effect", "bdr", "shd", "fitText", "vertAlign", "rtl", "cs", "em", "lang",
		"eastAsianLayout", "specVanish", "oMath",
	}
	tcPrOrder = []string{
		"cnfStyle", "tcW", "gridSpan", "hMerge", "vMerge", "tcBorders", "shd", "noWrap",
		"tcMar", "textDirection", "tcFitText", "vAlign", "hideMark",
	}
	tblPrOrder = []string{
		"tblStyle", "tblpPr", "tblOverlap", "bidiVisual", "tblStyleRowBandSize",
		"tblStyleColBandSize", "tblW", "jc", "tblCellSpacing", "tblInd", "tblBorders",
		"shd", "tblLayout", "tblCellMar", "tblLook",
	}
	trPrOrder = []string{
		"cnfStyle", "divId", "gridBefore", "gridAfter", "wBefore", "wAfter", "cantSplit",
		"trHeight", "tblHeader", "tblCellSpacing", "jc", "hidden",
	}
	borderOrder = []string{"top", "left", "bottom", "right", "insideH", "insideV"}
)

// child returns the w:<tag> child of parent, creating it at its schema
// position when missing. Tags absent from order are appended.
func child(parent *etree.Element, tag string, order []string) *etree.Element {
	if el := parent.SelectElement("w:" + tag); el != nil {
		return el
	}
	el := etree.NewElement("w:" + tag)
	pos := slices.Index(order, tag)
	if pos < 0 {
		parent.AddChild(el)
		return el
	}
	for i, tok := range parent.Child {
		sib, ok := tok.(*etree.Element)
		if !ok {
			continue
		}
		if idx := slices.Index(order, sib.Tag); idx > pos {
			parent.InsertChildAt(i, el)
			return el
		}
	}
	parent.AddChild(el)
	return el
}

// props returns the w:<tag> properties element which must be the first child.
func props(parent *etree.Element, tag string) *etree.Element {
	if el := parent.SelectElement("w:" + tag); el != nil {
		return el
	}
	el := etree.NewElement("w:" + tag)
	parent.InsertChildAt(0, el)
	return el
}

func removeChild(parent *etree.Element, tag string) {
	if el := parent.SelectElement("w:" + tag); el != nil {
		parent.RemoveChild(el)
	}
}

func setVal(el *etree.Element, val string) *etree.Element {
	el.CreateAttr("w:val", val)
	return el
}

func val(el *etree.Element) string {
	if el == nil {
		return ""
	}
	return el.SelectAttrValue("w:val", "")
}

// onOff reads a toggle property: present without w:val or with a true value.
func onOff(el *etree.Element) bool {
	if el == nil {
		return false
	}
	switch el.SelectAttrValue("w:val", "true") {
	case "0", "false", "off":
		return false
	}
	return true
}

func itoa(v int) string {
	return strconv.Itoa(v)
}

// twips converts points to twentieths of a point.
func twips(pt float64) int {
	return int(math.Round(pt * 20))
}

func newXMLDocument() *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8" standalone="yes"`)
	return doc
}

func atoi(s string) int {
	v, _ := strconv.Atoi(s)
	return v
}
