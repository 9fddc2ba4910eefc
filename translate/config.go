package translate

import (
	"maps"
	"regexp"
	"slices"
	"strings"
)

// Features toggles parts of the translation.
type Features struct {
	Tables      bool `yaml:"tables"`
	Images      bool `yaml:"images"`
	Styles      bool `yaml:"styles"`
	StyleMap    bool `yaml:"style_map"`
	TagOverride bool `yaml:"tag_override"`
	FixHTML     bool `yaml:"fix_html"`
}

// Config drives style resolution and feature selection. A translator
// keeps its own copy and hands copies to child translators.
type Config struct {
	// ClassMap maps HTML class names to document style names.
	ClassMap map[string]string `yaml:"class_map"`
	// TagOverrides maps tag names to document style names.
	TagOverrides map[string]string `yaml:"tag_overrides"`
	// DefaultParagraphStyle is used for p/pre without a resolved style.
	DefaultParagraphStyle string `yaml:"default_paragraph_style"`
	// TableStyle is applied to every table, "" leaves tables unstyled.
	TableStyle string `yaml:"table_style"`
	// RowSelectors pick table rows, in precedence order.
	RowSelectors []string `yaml:"row_selectors"`
	// MaxWidth in points, base for percentage lengths. Zero means usable
	// page width of the target document.
	MaxWidth float64 `yaml:"max_width_pt"`

	Features Features `yaml:"features"`
}

// DefaultRowSelectors lists header rows first, then body, footer and
// direct children.
var DefaultRowSelectors = []string{
	"table > thead > tr",
	"table > tbody > tr",
	"table > tfoot > tr",
	"table > tr",
}

// DefaultConfig returns configuration with every feature enabled.
func DefaultConfig() *Config {
	return &Config{
		ClassMap:     map[string]string{},
		TagOverrides: map[string]string{},
		TableStyle:   "Table Grid",
		RowSelectors: slices.Clone(DefaultRowSelectors),
		Features: Features{
			Tables:      true,
			Images:      true,
			Styles:      true,
			StyleMap:    true,
			TagOverride: true,
			FixHTML:     true,
		},
	}
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	if c == nil {
		return DefaultConfig()
	}
	n := *c
	n.ClassMap = maps.Clone(c.ClassMap)
	n.TagOverrides = maps.Clone(c.TagOverrides)
	n.RowSelectors = slices.Clone(c.RowSelectors)
	if n.ClassMap == nil {
		n.ClassMap = map[string]string{}
	}
	if n.TagOverrides == nil {
		n.TagOverrides = map[string]string{}
	}
	if len(n.RowSelectors) == 0 {
		n.RowSelectors = slices.Clone(DefaultRowSelectors)
	}
	return &n
}

var reStyleWord = regexp.MustCompile(`[A-Z][a-z]*|[0-9]`)

// NormalizeTableStyle turns identifiers like "LightGridAccent1" into style
// names ("Light Grid Accent 1"). Names already separated by spaces come
// back unchanged.
func NormalizeTableStyle(name string) string {
	name = strings.TrimSpace(name)
	if name == "" || strings.Contains(name, " ") {
		return name
	}
	words := reStyleWord.FindAllString(name, -1)
	if len(words) == 0 {
		return name
	}
	return strings.Join(words, " ")
}
