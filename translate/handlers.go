package translate

import (
	"slices"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"h2d/css"
	"h2d/docx"
)

// Elements whose content is never translated.
var skipTags = []string{"head", "script", "style", "template"}

// Elements without content or closing tag.
var voidTags = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"param": true, "source": true, "track": true, "wbr": true,
}

// Elements that may carry a character style and inline declarations
// applied to the runs they contain.
var inlineTags = map[string]bool{
	"span": true, "a": true, "code": true, "kbd": true, "samp": true,
	"var": true, "tt": true, "mark": true, "b": true, "strong": true,
	"i": true, "em": true, "u": true, "ins": true, "s": true,
	"strike": true, "del": true, "sup": true, "sub": true, "small": true,
	"big": true, "cite": true, "q": true, "abbr": true, "dfn": true,
	"font": true,
}

func headingLevel(tag string) (int, bool) {
	if len(tag) != 2 || tag[0] != 'h' || tag[1] < '1' || tag[1] > '9' {
		return 0, false
	}
	return int(tag[1] - '0'), true
}

func (s *state) handleStart(tag string, attrs Attrs, selfClosing bool) error {
	if tag == "title" {
		s.inTitle = !selfClosing
		return nil
	}
	if s.skip.active() {
		if s.skip.tag == "head" && tag == "body" {
			s.endSkip()
		}
		return nil
	}

	switch {
	case tag == "html" || tag == "body":
		return nil
	case slices.Contains(skipTags, tag):
		if !selfClosing {
			s.startSkip(tag, 0)
		}
		return nil
	case tag == "br":
		s.lineBreak()
		return nil
	case tag == "hr":
		s.horizontalRule(attrs)
		return nil
	case tag == "img":
		s.image(attrs)
		return nil
	case tag == "table" && s.t.cfg.Features.Tables:
		return s.table(attrs)
	case voidTags[tag]:
		return nil
	}

	var decls css.Declarations
	if style, ok := attrs["style"]; ok {
		decls = s.t.parser.Parse(style)
	}
	s.stack = append(s.stack, element{tag: tag, attrs: attrs, decls: decls})
	s.openElement(len(s.stack) - 1)
	if selfClosing {
		s.handleEnd(tag)
	}
	return nil
}

// openElement performs document mutations for the element just pushed
// at stack position idx.
func (s *state) openElement(idx int) {
	e := &s.stack[idx]
	inItem := s.inListItem(idx)
	owns := false

	switch level, heading := headingLevel(e.tag); {
	case e.tag == "ol" || e.tag == "ul":
		s.lists.open(e.tag)
	case e.tag == "p" || e.tag == "pre":
		if !inItem {
			s.newParagraph(s.paragraphStyle(e.tag, e.attrs))
			e.block, owns = true, true
		}
	case e.tag == "div":
		if own := s.resolveStyle(e.tag, e.attrs, docx.ParagraphStyle); own != "" && !inItem {
			s.endParagraph()
			s.blockStyle.push(idx, own)
		} else {
			s.newParagraph(s.inheritedStyle())
			owns = true
		}
		e.block = true
		e.pageBreakAfter = pageBreakAfter(e.decls)
	case e.tag == "li":
		s.listItem(e)
		e.block, owns = true, true
	case heading:
		style := s.resolveStyle(e.tag, e.attrs, docx.ParagraphStyle)
		if style == "" {
			style = "Heading " + strconv.Itoa(min(level, 9))
		}
		s.newParagraph(style)
		e.block, owns = true, true
	case inlineTags[e.tag]:
		if style := s.resolveStyle(e.tag, e.attrs, docx.CharacterStyle); style != "" {
			s.charStyle.push(idx, style)
		}
	}

	if len(e.decls.Normal) > 0 && (inlineTags[e.tag] || e.tag == "p" || e.tag == "pre") {
		s.normal.push(idx, e.decls.Normal)
	}
	if len(e.decls.Important) > 0 {
		s.important.push(idx, e.decls.Important)
	}
	if id := e.attrs["id"]; id != "" {
		s.bookmark(id)
	}
	if s.t.cfg.Features.Styles && s.paragraph != nil && !e.decls.Empty() &&
		(owns || (inItem && (e.tag == "p" || e.tag == "pre"))) {
		applyBlockDeclarations(s.paragraph, e.decls.Merged(), s.maxWidth)
	}
}

// inListItem reports whether a li is open below stack position idx.
func (s *state) inListItem(idx int) bool {
	for i := 0; i < idx && i < len(s.stack); i++ {
		if s.stack[i].tag == "li" {
			return true
		}
	}
	return false
}

// inheritedStyle is the block style set by the innermost mapped div.
func (s *state) inheritedStyle() string {
	style, _ := s.blockStyle.top()
	return style
}

// paragraphStyle resolves style for p and pre: own mapping, then the
// enclosing div mapping, then the configured default.
func (s *state) paragraphStyle(tag string, attrs Attrs) string {
	if style := s.resolveStyle(tag, attrs, docx.ParagraphStyle); style != "" {
		return style
	}
	if style := s.inheritedStyle(); style != "" {
		return style
	}
	if def := s.t.cfg.DefaultParagraphStyle; s.validStyle(def, docx.ParagraphStyle, zap.String("source", "default")) {
		return def
	}
	return ""
}

func (s *state) listItem(e *element) {
	it, err := s.lists.item(s.doc)
	if err != nil {
		s.log.Warn("Unable to number list item", zap.Error(err))
	}
	p := s.newParagraph(it.style)
	if it.ordered && it.numID != 0 {
		p.SetNumbering(it.numID, it.ilvl)
	}
	if style := s.resolveStyle(e.tag, e.attrs, docx.ParagraphStyle); style != "" {
		p.SetStyle(style)
	}
}

func pageBreakAfter(d css.Declarations) bool {
	if v, ok := d.Get("page-break-after"); ok && strings.EqualFold(strings.TrimSpace(v), "always") {
		return true
	}
	if v, ok := d.Get("break-after"); ok && strings.EqualFold(strings.TrimSpace(v), "page") {
		return true
	}
	return false
}

func (s *state) handleEnd(tag string) {
	if tag == "title" {
		s.inTitle = false
		return
	}
	if s.skip.active() {
		if tag != s.skip.tag {
			return
		}
		if s.skip.remaining > 0 {
			s.skip.remaining--
			return
		}
		s.endSkip()
		return
	}

	idx := -1
	for i := len(s.stack) - 1; i >= 0; i-- {
		if s.stack[i].tag == tag {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}
	for i := len(s.stack) - 1; i >= idx; i-- {
		s.closeElement(i)
	}
	s.stack = s.stack[:idx]
}

// closeElement releases everything the element at stack position idx has
// set.
func (s *state) closeElement(idx int) {
	e := &s.stack[idx]
	s.blockStyle.release(idx)
	s.charStyle.release(idx)
	s.normal.release(idx)
	s.important.release(idx)
	if e.tag == "ol" || e.tag == "ul" {
		s.lists.close(e.tag)
	}
	if e.block {
		s.endParagraph()
	}
	if e.pageBreakAfter {
		if doc, ok := s.target.(*docx.Document); ok {
			doc.AddPageBreak()
		}
	}
}

func (s *state) lineBreak() {
	s.spaceRun = nil
	if s.lastRun == nil {
		s.lastRun = s.ensureParagraph().AddRun("")
	}
	s.lastRun.AddBreak()
	s.lineStart = true
}

func (s *state) horizontalRule(attrs Attrs) {
	p := s.newParagraph("")
	p.SetBottomBorder(docx.Border{Style: css.BorderSingle, Size: 6, Color: "auto"})
	if id := attrs["id"]; id != "" {
		s.bookmark(id)
	}
	s.endParagraph()
}

func (s *state) handleText(data string) {
	if s.inTitle {
		s.title.WriteString(data)
		return
	}
	if s.skip.active() || data == "" {
		return
	}

	pre, trail := s.has("pre"), false
	if pre {
		if s.lineStart && s.paragraph != nil && len(s.paragraph.Runs()) == 0 {
			data = strings.TrimPrefix(strings.TrimPrefix(data, "\r"), "\n")
		}
	} else {
		data = collapseSpace(data)
		if s.lineStart {
			data = strings.TrimLeft(data, " ")
		}
		// trailing space is held back until more text follows, so it never
		// ends a paragraph or a line
		trail = strings.HasSuffix(data, " ")
		data = strings.TrimRight(data, " ")
		if data == "" {
			if trail && s.lastRun != nil && s.spaceRun == nil {
				s.spaceRun = s.lastRun
			}
			return
		}
		if s.spaceRun != nil {
			data = strings.TrimLeft(data, " ")
		}
	}
	if data == "" {
		return
	}
	s.ensureParagraph()
	s.flushSpace()

	var run *docx.Run
	if link := s.hyperlink(); link != nil {
		run = link.AddRun("")
	} else {
		run = s.paragraph.AddRun("")
	}
	writeText(run, data, pre)
	s.styleRun(run)
	s.lastRun = run
	s.lineStart = false
	if trail {
		s.spaceRun = run
	}
}

// styleRun applies formatting in increasing precedence: declarations of
// every open element (outer first), tag implied properties, the pending
// character style, the innermost pending declarations and finally all
// important declarations.
func (s *state) styleRun(r *docx.Run) {
	for i := range s.stack {
		e := &s.stack[i]
		applyDeclarations(r, e.decls.Normal, inlineTags[e.tag])
	}
	for i := range s.stack {
		if p, ok := tagFontProps[s.stack[i].tag]; ok {
			applyFontProp(r, p)
		}
	}
	if style, ok := s.charStyle.top(); ok {
		r.SetCharStyle(style)
	}
	if decls, ok := s.normal.top(); ok {
		applyDeclarations(r, decls, true)
	}
	for _, decls := range s.important.all() {
		applyDeclarations(r, decls, true)
	}
}

// isHTMLSpace matches ASCII whitespace as HTML defines it, so no-break
// spaces survive.
func isHTMLSpace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\f', '\r':
		return true
	}
	return false
}

// collapseSpace folds whitespace runs into single spaces.
func collapseSpace(s string) string {
	body := strings.Join(strings.FieldsFunc(s, isHTMLSpace), " ")
	lead := isHTMLSpace(rune(s[0]))
	trail := isHTMLSpace(rune(s[len(s)-1]))
	switch {
	case body == "":
		return " "
	case lead && trail:
		return " " + body + " "
	case lead:
		return " " + body
	case trail:
		return body + " "
	}
	return body
}

// writeText adds text to the run, in preformatted text newlines become
// breaks and tabs become tabs.
func writeText(r *docx.Run, text string, pre bool) {
	if !pre {
		r.AddText(text)
		return
	}
	for i, line := range strings.Split(text, "\n") {
		if i > 0 {
			r.AddBreak()
		}
		for j, part := range strings.Split(strings.TrimSuffix(line, "\r"), "\t") {
			if j > 0 {
				r.AddTab()
			}
			r.AddText(part)
		}
	}
}

// applyBlockDeclarations handles alignment, indentation and shading of a
// block element.
func applyBlockDeclarations(p *docx.Paragraph, props map[string]string, maxWidth float64) {
	if v, ok := props["text-align"]; ok {
		if a := textAlign(v); a != "" {
			p.SetAlignment(a)
		}
	}
	switch {
	case centeredMargins(props):
		p.SetAlignment(docx.AlignCenter)
	case props["margin-left"] != "":
		if pt, ok := css.ToPoints(props["margin-left"], maxWidth); ok {
			p.SetLeftIndent(pt)
		}
	}
	for _, name := range []string{"background-color", "background"} {
		if c, ok := css.ParseColor(props[name]); ok {
			p.SetShading(c.Hex())
			break
		}
	}
}

func textAlign(v string) string {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "center":
		return docx.AlignCenter
	case "left", "start":
		return docx.AlignLeft
	case "right", "end":
		return docx.AlignRight
	case "justify":
		return docx.AlignJustify
	}
	return ""
}

// centeredMargins reports margin-left and margin-right both auto, either
// as longhands or through the margin shorthand.
func centeredMargins(props map[string]string) bool {
	isAuto := func(v string) bool { return strings.EqualFold(strings.TrimSpace(v), "auto") }
	if isAuto(props["margin-left"]) && isAuto(props["margin-right"]) {
		return true
	}
	parts := strings.Fields(props["margin"])
	switch len(parts) {
	case 1:
		return isAuto(parts[0])
	case 2, 3:
		return isAuto(parts[1])
	case 4:
		return isAuto(parts[1]) && isAuto(parts[3])
	}
	return false
}
