package docx

import (
	"fmt"

	"github.com/beevik/etree"
)

// levels in every abstract definition
const numberingLevels = 9

var bulletChars = []string{"•", "o", "▪"}

// Numbering is the numbering definitions store of a document.
type Numbering struct {
	abstracts map[int]*etree.Element
	nums      map[int]*etree.Element
	order     []int // abstract ids in creation order
	numOrder  []int
	nextAbs   int
	nextNum   int
}

func newNumbering() *Numbering {
	n := &Numbering{
		abstracts: make(map[int]*etree.Element),
		nums:      make(map[int]*etree.Element),
		nextNum:   1,
	}
	bullet := n.addAbstract(func(ilvl int) (string, string) {
		return "bullet", bulletChars[ilvl%len(bulletChars)]
	})
	decimal := n.addAbstract(func(ilvl int) (string, string) {
		formats := []string{"decimal", "lowerLetter", "lowerRoman"}
		return formats[ilvl%len(formats)], fmt.Sprintf("%%%d.", ilvl+1)
	})
	n.addNum(bullet)  // bulletNumID
	n.addNum(decimal) // decimalNumID
	return n
}

func (n *Numbering) addAbstract(level func(ilvl int) (format, text string)) int {
	id := n.nextAbs
	n.nextAbs++

	abs := etree.NewElement("w:abstractNum")
	abs.CreateAttr("w:abstractNumId", itoa(id))
	setVal(abs.CreateElement("w:multiLevelType"), "hybridMultilevel")
	for ilvl := range numberingLevels {
		format, text := level(ilvl)
		lvl := abs.CreateElement("w:lvl")
		lvl.CreateAttr("w:ilvl", itoa(ilvl))
		setVal(lvl.CreateElement("w:start"), "1")
		setVal(lvl.CreateElement("w:numFmt"), format)
		setVal(lvl.CreateElement("w:lvlText"), text)
		setVal(lvl.CreateElement("w:lvlJc"), "left")
		ind := lvl.CreateElement("w:pPr").CreateElement("w:ind")
		ind.CreateAttr("w:left", itoa(720*(ilvl+1)))
		ind.CreateAttr("w:hanging", "360")
		if format == "bullet" {
			f := lvl.CreateElement("w:rPr").CreateElement("w:rFonts")
			font := "Symbol"
			if text == "o" {
				font = "Courier New"
			} else if ilvl%len(bulletChars) == 2 {
				font = "Wingdings"
			}
			f.CreateAttr("w:ascii", font)
			f.CreateAttr("w:hAnsi", font)
			f.CreateAttr("w:hint", "default")
		}
	}
	n.abstracts[id] = abs
	n.order = append(n.order, id)
	return id
}

func (n *Numbering) addNum(abstractID int) int {
	id := n.nextNum
	n.nextNum++
	num := etree.NewElement("w:num")
	num.CreateAttr("w:numId", itoa(id))
	setVal(num.CreateElement("w:abstractNumId"), itoa(abstractID))
	n.nums[id] = num
	n.numOrder = append(n.numOrder, id)
	return id
}

func (n *Numbering) abstractOf(numID int) (int, error) {
	num, ok := n.nums[numID]
	if !ok {
		return 0, fmt.Errorf("numbering %d does not exist", numID)
	}
	var id int
	if _, err := fmt.Sscan(val(num.SelectElement("w:abstractNumId")), &id); err != nil {
		return 0, fmt.Errorf("numbering %d has broken abstract reference: %w", numID, err)
	}
	return id, nil
}

// CloneNum copies the abstract definition behind numID into a new one and
// returns a fresh numbering id referencing it, with the counter at level
// (0 based) overridden to start at start. Every clone counts independently.
func (n *Numbering) CloneNum(numID, level, start int) (int, error) {
	absID, err := n.abstractOf(numID)
	if err != nil {
		return 0, err
	}
	if level < 0 || level >= numberingLevels {
		return 0, fmt.Errorf("numbering level %d out of range", level)
	}

	clone := n.abstracts[absID].Copy()
	newAbs := n.nextAbs
	n.nextAbs++
	clone.CreateAttr("w:abstractNumId", itoa(newAbs))
	n.abstracts[newAbs] = clone
	n.order = append(n.order, newAbs)

	id := n.addNum(newAbs)
	override := n.nums[id].CreateElement("w:lvlOverride")
	override.CreateAttr("w:ilvl", itoa(level))
	setVal(override.CreateElement("w:startOverride"), itoa(start))
	return id, nil
}

// Count returns the number of numbering ids defined.
func (n *Numbering) Count() int {
	return len(n.nums)
}

// StartOverride returns the start override set on numID at level, if any.
func (n *Numbering) StartOverride(numID, level int) (int, bool) {
	num, ok := n.nums[numID]
	if !ok {
		return 0, false
	}
	for _, o := range num.SelectElements("w:lvlOverride") {
		if o.SelectAttrValue("w:ilvl", "") != itoa(level) {
			continue
		}
		var v int
		if _, err := fmt.Sscan(val(o.SelectElement("w:startOverride")), &v); err == nil {
			return v, true
		}
	}
	return 0, false
}

func (n *Numbering) toXML() *etree.Document {
	doc := newXMLDocument()
	root := doc.CreateElement("w:numbering")
	root.CreateAttr("xmlns:w", nsW)
	// all abstractNum elements must precede num elements
	for _, id := range n.order {
		root.AddChild(n.abstracts[id].Copy())
	}
	for _, id := range n.numOrder {
		root.AddChild(n.nums[id].Copy())
	}
	return doc
}
