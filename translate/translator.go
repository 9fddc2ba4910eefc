// Package translate turns HTML into mutations of a docx document: it
// resolves configured styles, tracks element nesting, lays out tables and
// numbers lists.
package translate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/andybalholm/cascadia"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"h2d/css"
	"h2d/docx"
	"h2d/markup"
	"h2d/utils/images"
)

var (
	// ErrUnsupportedTableStyle is returned when configured table style is
	// not known to the target document.
	ErrUnsupportedTableStyle = errors.New("unsupported table style")
	// ErrNilTarget is returned when there is no document or cell to write to.
	ErrNilTarget = errors.New("no translation target")
)

// Translator converts HTML fragments into document content. It holds
// configuration only, every call starts from fresh state so a Translator
// may be reused, but not concurrently on the same document.
type Translator struct {
	cfg      *Config
	log      *zap.Logger
	parser   *css.Parser
	resolver *Resolver
	rows     []cascadia.Sel
	fetcher  images.Fetcher
}

// Option configures Translator.
type Option func(*Translator)

// WithFetcher replaces the image source used for <img> elements.
func WithFetcher(f images.Fetcher) Option {
	return func(t *Translator) { t.fetcher = f }
}

// New validates configuration and creates a translator. Configuration is
// copied.
func New(cfg *Config, log *zap.Logger, opts ...Option) (*Translator, error) {
	if log == nil {
		log = zap.NewNop()
	}
	cfg = cfg.Clone()
	if cfg.MaxWidth < 0 {
		return nil, fmt.Errorf("maximum width must not be negative: %v", cfg.MaxWidth)
	}

	t := &Translator{
		cfg:      cfg,
		log:      log.Named("translate"),
		parser:   css.NewParser(log),
		resolver: NewResolver(cfg),
	}
	for _, s := range cfg.RowSelectors {
		sel, err := cascadia.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("unable to compile row selector %q: %w", s, err)
		}
		t.rows = append(t.rows, sel)
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.fetcher == nil {
		t.fetcher = images.NewLoader(log)
	}
	return t, nil
}

// Config returns a copy of the translator configuration.
func (t *Translator) Config() *Config {
	return t.cfg.Clone()
}

// AddHTMLToDocument appends translated content to the document body.
func (t *Translator) AddHTMLToDocument(ctx context.Context, src string, doc *docx.Document) error {
	if doc == nil {
		return ErrNilTarget
	}
	return t.translate(ctx, src, doc, true)
}

// AddHTMLToCell appends translated content to a table cell.
func (t *Translator) AddHTMLToCell(ctx context.Context, src string, cell *docx.Cell) error {
	if cell == nil {
		return ErrNilTarget
	}
	return t.translate(ctx, src, cell, true)
}

// ParseHTMLString translates markup into a new document.
func (t *Translator) ParseHTMLString(ctx context.Context, src string) (*docx.Document, error) {
	doc := docx.New()
	if err := t.AddHTMLToDocument(ctx, src, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// tableStyle returns the validated table style name for doc.
func (t *Translator) tableStyle(doc *docx.Document) (string, error) {
	if !t.cfg.Features.Tables || t.cfg.TableStyle == "" {
		return "", nil
	}
	name := NormalizeTableStyle(t.cfg.TableStyle)
	if !doc.HasStyle(name, docx.TableStyle) {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedTableStyle, t.cfg.TableStyle)
	}
	return name, nil
}

// translate runs one translation. Everything that may fail fatally is
// checked before the target is touched; top is false for table cells
// filled on behalf of an outer translation.
func (t *Translator) translate(ctx context.Context, src string, target docx.Container, top bool) error {
	doc := target.Document()
	tableStyle, err := t.tableStyle(doc)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if top && t.cfg.Features.FixHTML {
		fixed, err := markup.Fix(src)
		if err != nil {
			t.log.Warn("Unable to fix markup, using it as is", zap.Error(err))
		} else {
			src = fixed
		}
	}

	st := newState(ctx, t, target, tableStyle)
	if t.cfg.Features.Tables && strings.Contains(strings.ToLower(src), "<table") {
		dom, err := markup.Parse(src)
		if err != nil {
			t.log.Warn("Unable to build markup tree, tables will be skipped", zap.Error(err))
		} else {
			st.tables = markup.TopLevelTables(dom, skipTags...)
		}
	}
	return st.feed(src)
}

// skipState is an active skip region: events are ignored until the
// closing tag of skipTag arrives with no nested instances left.
type skipState struct {
	tag       string
	remaining int
}

func (s skipState) active() bool {
	return s.tag != ""
}

// element is an open tag on the stack.
type element struct {
	tag            string
	attrs          Attrs
	decls          css.Declarations
	block          bool // closing it ends the current paragraph
	pageBreakAfter bool
	link           *docx.Hyperlink
	linkParagraph  *docx.Paragraph
}

// slot is a value set by the element at stack position owner.
type slot[T any] struct {
	owner int
	value T
}

// pending holds values set by open elements. Closing an element releases
// what it set and exposes the values of outer elements again.
type pending[T any] struct {
	slots []slot[T]
}

func (p *pending[T]) push(owner int, v T) {
	p.slots = append(p.slots, slot[T]{owner: owner, value: v})
}

func (p *pending[T]) top() (T, bool) {
	if len(p.slots) == 0 {
		var zero T
		return zero, false
	}
	return p.slots[len(p.slots)-1].value, true
}

// all returns values outer first.
func (p *pending[T]) all() []T {
	out := make([]T, 0, len(p.slots))
	for _, s := range p.slots {
		out = append(out, s.value)
	}
	return out
}

func (p *pending[T]) release(owner int) {
	i := len(p.slots)
	for i > 0 && p.slots[i-1].owner >= owner {
		i--
	}
	p.slots = p.slots[:i]
}

// state is a single translation run into one target.
type state struct {
	ctx        context.Context
	t          *Translator
	log        *zap.Logger
	target     docx.Container
	doc        *docx.Document
	tableStyle string
	maxWidth   float64

	stack     []element
	skip      skipState
	paragraph *docx.Paragraph
	lastRun   *docx.Run
	spaceRun  *docx.Run // owes a trailing space to following text
	lineStart bool

	blockStyle pending[string]
	charStyle  pending[string]
	normal     pending[map[string]string]
	important  pending[map[string]string]

	lists   *lists
	tables  []*html.Node
	tableNo int

	bookmarks []string // waiting for a paragraph
	seenMarks map[string]bool
	warned    map[string]bool

	inTitle bool
	title   strings.Builder
}

func newState(ctx context.Context, t *Translator, target docx.Container, tableStyle string) *state {
	maxWidth := t.cfg.MaxWidth
	if maxWidth == 0 {
		maxWidth = target.Document().TextWidth()
	}
	return &state{
		ctx:        ctx,
		t:          t,
		log:        t.log,
		target:     target,
		doc:        target.Document(),
		tableStyle: tableStyle,
		maxWidth:   maxWidth,
		lineStart:  true,
		lists:      newLists(),
		seenMarks:  make(map[string]bool),
		warned:     make(map[string]bool),
	}
}

// feed pushes markup through the tokenizer.
func (s *state) feed(src string) error {
	z := html.NewTokenizer(strings.NewReader(src))
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if err := z.Err(); !errors.Is(err, io.EOF) {
				return fmt.Errorf("unable to tokenize markup: %w", err)
			}
			s.finish()
			return nil
		case html.TextToken:
			s.handleText(string(z.Text()))
		case html.StartTagToken, html.SelfClosingTagToken:
			if err := s.ctx.Err(); err != nil {
				return err
			}
			tok := z.Token()
			if err := s.handleStart(tok.Data, attrsOf(tok.Attr), tt == html.SelfClosingTagToken); err != nil {
				return err
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			s.handleEnd(string(name))
		}
	}
}

func attrsOf(list []html.Attribute) Attrs {
	attrs := make(Attrs, len(list))
	for _, a := range list {
		if _, ok := attrs[a.Key]; !ok {
			attrs[a.Key] = a.Val
		}
	}
	return attrs
}

// finish flushes state which has not found its place yet.
func (s *state) finish() {
	if len(s.bookmarks) > 0 {
		s.newParagraph("")
		s.endParagraph()
	}
	if title := strings.TrimSpace(s.title.String()); title != "" && s.doc.Title() == "" {
		if _, ok := s.target.(*docx.Document); ok {
			s.doc.SetTitle(title)
		}
	}
}

func (s *state) startSkip(tag string, remaining int) {
	s.skip = skipState{tag: tag, remaining: remaining}
}

func (s *state) endSkip() {
	s.skip = skipState{}
	s.endParagraph()
}

// newParagraph starts a paragraph in the target, attaching bookmarks
// waiting for one.
func (s *state) newParagraph(style string) *docx.Paragraph {
	p := s.target.AddParagraph(style)
	s.paragraph = p
	s.lastRun, s.spaceRun = nil, nil
	s.lineStart = true
	for _, name := range s.bookmarks {
		p.AddBookmark(name)
	}
	s.bookmarks = s.bookmarks[:0]
	return p
}

func (s *state) ensureParagraph() *docx.Paragraph {
	if s.paragraph == nil {
		style, _ := s.blockStyle.top()
		s.newParagraph(style)
	}
	return s.paragraph
}

func (s *state) endParagraph() {
	s.paragraph = nil
	s.lastRun, s.spaceRun = nil, nil
	s.lineStart = true
}

// flushSpace writes a held back trailing space once more content follows
// on the same line.
func (s *state) flushSpace() {
	if s.spaceRun != nil {
		s.spaceRun.AddText(" ")
		s.spaceRun = nil
	}
}

func (s *state) has(tag string) bool {
	for i := range s.stack {
		if s.stack[i].tag == tag {
			return true
		}
	}
	return false
}

// validStyle checks style against the document, warning once per name.
func (s *state) validStyle(name string, kind docx.StyleKind, fields ...zap.Field) bool {
	if name == "" {
		return false
	}
	if s.doc.HasStyle(name, kind) {
		return true
	}
	key := kind.String() + "/" + strings.ToLower(name)
	if !s.warned[key] {
		s.warned[key] = true
		s.log.Warn("Unknown style, ignoring", append(fields, zap.String("style", name), zap.Stringer("kind", kind))...)
	}
	return false
}

// resolveStyle walks cascade candidates and returns the first known to
// the document.
func (s *state) resolveStyle(tag string, attrs Attrs, kind docx.StyleKind) string {
	for _, c := range s.t.resolver.Candidates(tag, attrs) {
		if s.validStyle(c.Style, kind, zap.String("tag", tag), zap.Stringer("source", c.Source), zap.String("key", c.Key)) {
			return c.Style
		}
	}
	return ""
}
