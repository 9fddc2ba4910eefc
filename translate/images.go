package translate

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"h2d/css"
	"h2d/docx"
	"h2d/utils/images"
)

// image embeds picture referenced by an img element. When it can not be
// fetched or decoded a placeholder paragraph names the source instead.
func (s *state) image(attrs Attrs) {
	if !s.t.cfg.Features.Images {
		return
	}

	var p *docx.Paragraph
	src := strings.TrimSpace(attrs["src"])
	if src == "" {
		p = s.placeholder("no_src")
	} else if err := s.embedImage(src, attrs); err != nil {
		s.log.Warn("Unable to embed image, using placeholder", zap.String("src", images.DisplayName(src)), zap.Error(err))
		p = s.placeholder(images.DisplayName(src))
	} else {
		p = s.paragraph
	}

	if id := attrs["id"]; id != "" {
		s.bookmark(id)
	}
	if style, ok := attrs["style"]; ok && s.t.cfg.Features.Styles {
		if align := imageAlignment(s.t.parser.Parse(style).Merged()); align != "" {
			p.SetAlignment(align)
		}
	}
}

func (s *state) embedImage(src string, attrs Attrs) error {
	data, err := s.t.fetcher.Fetch(s.ctx, src)
	if err != nil {
		return err
	}
	data, format, err := images.Normalize(data)
	if err != nil {
		return err
	}

	// only pixel dimensions are honored
	var width, height float64
	if v, ok := attrs["width"]; ok {
		width, _ = css.PixelsToPoints(v)
	}
	if v, ok := attrs["height"]; ok {
		height, _ = css.PixelsToPoints(v)
	}

	if err := docx.CheckPicture(data); err != nil {
		return err
	}
	p := s.ensureParagraph()
	s.flushSpace()
	run := p.AddRun("")
	if err := run.AddPicture(data, width, height); err != nil {
		p.RemoveRun(run)
		return err
	}
	s.log.Debug("Image embedded", zap.String("src", images.DisplayName(src)), zap.String("format", format))
	s.lastRun = run
	s.lineStart = false
	return nil
}

// placeholder adds a paragraph standing for an image which is not there.
// It becomes current so following inline content stays next to it.
func (s *state) placeholder(name string) *docx.Paragraph {
	p := s.newParagraph("")
	s.lastRun = p.AddRun(fmt.Sprintf("<image: %s>", name))
	s.lineStart = false
	return p
}

// imageAlignment reads float: right as right alignment and auto side
// margins as centering.
func imageAlignment(props map[string]string) string {
	if strings.EqualFold(strings.TrimSpace(props["float"]), "right") {
		return docx.AlignRight
	}
	if centeredMargins(props) {
		return docx.AlignCenter
	}
	return ""
}
