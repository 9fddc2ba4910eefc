package translate

import (
	"strings"

	"github.com/gosimple/slug"
	"go.uber.org/zap"

	"h2d/docx"
)

// maxBookmarkLen is the longest bookmark name Word keeps.
const maxBookmarkLen = 40

// BookmarkName turns an element id into a valid bookmark name: ASCII
// letters, digits and underscores, starting with a letter. The same
// conversion is applied to "#fragment" link targets so they meet.
func BookmarkName(id string) string {
	name := strings.ReplaceAll(slug.Make(id), "-", "_")
	name = strings.Trim(name, "_")
	if name == "" {
		return ""
	}
	if c := name[0]; c < 'a' || c > 'z' {
		name = "b_" + name
	}
	if len(name) > maxBookmarkLen {
		name = strings.TrimRight(name[:maxBookmarkLen], "_")
	}
	return name
}

// linkTarget classifies href: fragments address bookmarks in the document,
// everything else is an external relationship.
func linkTarget(href string) (string, bool) {
	href = strings.TrimSpace(href)
	if frag, ok := strings.CutPrefix(href, "#"); ok {
		return BookmarkName(frag), true
	}
	return href, false
}

// bookmark marks the current paragraph, or the next one when there is
// none yet. Duplicate names are dropped.
func (s *state) bookmark(id string) {
	name := BookmarkName(id)
	if name == "" {
		s.log.Debug("Unusable id for bookmark, ignoring", zap.String("id", id))
		return
	}
	if s.seenMarks[name] {
		s.log.Debug("Duplicate bookmark, ignoring", zap.String("id", id), zap.String("name", name))
		return
	}
	s.seenMarks[name] = true
	if s.paragraph == nil {
		s.bookmarks = append(s.bookmarks, name)
		return
	}
	s.paragraph.AddBookmark(name)
}

// hyperlink returns the hyperlink text should go to, creating it when the
// innermost anchor has none in the current paragraph yet. Nested anchors
// are not valid markup, only the innermost one counts.
func (s *state) hyperlink() *docx.Hyperlink {
	var a *element
	for i := len(s.stack) - 1; i >= 0; i-- {
		if s.stack[i].tag == "a" {
			a = &s.stack[i]
			break
		}
	}
	if a == nil {
		return nil
	}
	href, ok := a.attrs["href"]
	if !ok || strings.TrimSpace(href) == "" {
		return nil
	}
	if a.link != nil && a.linkParagraph == s.paragraph {
		return a.link
	}
	target, internal := linkTarget(href)
	if target == "" {
		return nil
	}
	a.link = s.paragraph.AddHyperlink(target, internal, a.attrs["title"])
	a.linkParagraph = s.paragraph
	return a.link
}
