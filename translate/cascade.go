package translate

import (
	"strings"
)

// Attrs holds element attributes. The first occurrence of a duplicated
// attribute wins.
type Attrs map[string]string

// Source tells which cascade tier produced a style.
type Source int

const (
	FromClass Source = iota
	FromTag
)

func (s Source) String() string {
	switch s {
	case FromClass:
		return "class"
	case FromTag:
		return "tag"
	}
	return "unknown"
}

// Candidate is a style name proposed by one tier of the cascade.
type Candidate struct {
	Style  string
	Source Source
	Key    string // class or tag that matched
}

// Resolver maps elements to configured style names. It depends only on
// configuration, never on translation state.
type Resolver struct {
	classes map[string]string
	tags    map[string]string
}

// NewResolver builds a resolver honoring feature flags of cfg.
func NewResolver(cfg *Config) *Resolver {
	r := &Resolver{}
	if !cfg.Features.Styles {
		return r
	}
	if cfg.Features.StyleMap {
		r.classes = cfg.ClassMap
	}
	if cfg.Features.TagOverride {
		r.tags = cfg.TagOverrides
	}
	return r
}

// Candidates returns proposals in precedence order: the first class of
// the element (document order) present in the class map, then the tag
// override.
func (r *Resolver) Candidates(tag string, attrs Attrs) []Candidate {
	var out []Candidate
	if len(r.classes) > 0 {
		for _, class := range strings.Fields(attrs["class"]) {
			if style, ok := r.classes[class]; ok && style != "" {
				out = append(out, Candidate{Style: style, Source: FromClass, Key: class})
				break
			}
		}
	}
	if style, ok := r.tags[tag]; ok && style != "" {
		out = append(out, Candidate{Style: style, Source: FromTag, Key: tag})
	}
	return out
}
