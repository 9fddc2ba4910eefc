package css

import (
	"maps"
	"regexp"
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
	"go.uber.org/zap"
)

// Declarations holds inline style declarations split by priority. Important
// values are kept apart and never merged back into Normal.
type Declarations struct {
	Normal    map[string]string
	Important map[string]string
}

// Empty reports whether there are no declarations at all.
func (d Declarations) Empty() bool {
	return len(d.Normal) == 0 && len(d.Important) == 0
}

// Get returns the effective value for a property, important first.
func (d Declarations) Get(prop string) (string, bool) {
	if v, ok := d.Important[prop]; ok {
		return v, true
	}
	v, ok := d.Normal[prop]
	return v, ok
}

// Merged returns a single map where important values replace normal ones.
// Used for block and cell level properties which are applied once.
func (d Declarations) Merged() map[string]string {
	out := make(map[string]string, len(d.Normal)+len(d.Important))
	maps.Copy(out, d.Normal)
	maps.Copy(out, d.Important)
	return out
}

var reImportant = regexp.MustCompile(`(?i)\s*!\s*important\s*$`)

// Parser parses inline style attribute values.
type Parser struct {
	log *zap.Logger
}

// NewParser creates a new inline style parser.
func NewParser(log *zap.Logger) *Parser {
	if log == nil {
		log = zap.NewNop()
	}
	return &Parser{log: log.Named("css-parser")}
}

// Parse splits an inline style value ("color: red; font-size: 12pt !important")
// into normal and important declarations. Property names are lower-cased,
// values are whitespace-normalized. Malformed declarations are dropped.
func (p *Parser) Parse(style string) Declarations {
	decls := Declarations{
		Normal:    make(map[string]string),
		Important: make(map[string]string),
	}
	if strings.TrimSpace(style) == "" {
		return decls
	}

	lexer := css.NewLexer(parse.NewInput(strings.NewReader(style)))

	var (
		name, value strings.Builder
		inValue     bool
		depth       int
		pendingWS   bool
	)

	flush := func() {
		prop := strings.ToLower(strings.TrimSpace(name.String()))
		val := strings.TrimSpace(value.String())
		name.Reset()
		value.Reset()
		inValue, depth, pendingWS = false, 0, false

		if prop == "" && val == "" {
			return
		}
		if prop == "" || val == "" || strings.ContainsAny(prop, " \t") {
			p.log.Debug("Dropping malformed declaration", zap.String("property", prop), zap.String("value", val))
			return
		}
		if reImportant.MatchString(val) {
			val = strings.TrimSpace(reImportant.ReplaceAllString(val, ""))
			if val == "" {
				return
			}
			decls.Important[prop] = val
			delete(decls.Normal, prop)
			return
		}
		if _, ok := decls.Important[prop]; ok {
			// a later normal declaration never displaces an important one
			return
		}
		decls.Normal[prop] = val
	}

	for {
		tt, data := lexer.Next()
		switch tt {
		case css.ErrorToken:
			flush()
			return decls
		case css.CommentToken:
			continue
		case css.SemicolonToken:
			if depth == 0 {
				flush()
				continue
			}
		case css.ColonToken:
			if !inValue && depth == 0 {
				inValue = true
				continue
			}
		case css.FunctionToken, css.LeftParenthesisToken:
			depth++
		case css.RightParenthesisToken:
			if depth > 0 {
				depth--
			}
		case css.WhitespaceToken:
			pendingWS = true
			continue
		}

		target := &name
		if inValue {
			target = &value
		}
		if pendingWS && target.Len() > 0 {
			target.WriteByte(' ')
		}
		pendingWS = false
		target.Write(data)
	}
}
