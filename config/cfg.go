package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"strings"

	yaml "gopkg.in/yaml.v3"

	"github.com/rupor-github/gencfg"

	"h2d/docx"
	"h2d/translate"
)

//go:embed config.yaml.tmpl
var ConfigTmpl []byte

type (
	TemplateFieldName string

	// CustomStyle is a style added to every produced document so class
	// and tag mappings may refer to it.
	CustomStyle struct {
		Name      string  `yaml:"name" validate:"required"`
		Kind      string  `yaml:"kind" validate:"oneof=paragraph character table"`
		BasedOn   string  `yaml:"based_on,omitempty"`
		Font      string  `yaml:"font,omitempty"`
		Size      float64 `yaml:"size,omitempty" validate:"gte=0"`
		Bold      bool    `yaml:"bold,omitempty"`
		Italic    bool    `yaml:"italic,omitempty"`
		Underline bool    `yaml:"underline,omitempty"`
		Color     string  `yaml:"color,omitempty" validate:"omitempty,hexadecimal,len=6"`
	}

	StylesConfig struct {
		ClassMap              map[string]string `yaml:"class_map"`
		TagOverrides          map[string]string `yaml:"tag_overrides"`
		DefaultParagraphStyle string            `yaml:"default_paragraph_style"`
		TableStyle            string            `yaml:"table_style"`
		RowSelectors          []string          `yaml:"row_selectors" validate:"dive,required"`
		Custom                []CustomStyle     `yaml:"custom" validate:"dive"`
	}

	ImagesConfig struct {
		Timeout   int          `yaml:"timeout_sec" validate:"gte=0"`
		AuthToken SecretString `yaml:"auth_token,omitempty"`
		MaxWidth  float64      `yaml:"max_width_pt" validate:"gte=0"`
	}

	DocumentConfig struct {
		FixZip                bool               `yaml:"fix_zip"`
		FileNameTransliterate bool               `yaml:"file_name_transliterate"`
		OutputNameTemplate    string             `yaml:"output_name_template"`
		Styles                StylesConfig       `yaml:"styles"`
		Features              translate.Features `yaml:"features"`
		Images                ImagesConfig       `yaml:"images"`
	}

	Config struct {
		Version   int            `yaml:"version" validate:"eq=1"`
		Document  DocumentConfig `yaml:"document"`
		Logging   LoggingConfig  `yaml:"logging"`
		Reporting ReporterConfig `yaml:"reporting"`
	}
)

const (
	// NOTE: must match yaml field name above
	OutputNameTemplateFieldName TemplateFieldName = "output_name_template"
)

var requiredOptions = append([]func(*gencfg.ProcessingOptions){},
	gencfg.WithDoNotExpandField(string(OutputNameTemplateFieldName)),
)

func unmarshalConfig(data []byte, cfg *Config, process bool) (*Config, error) {
	// We want to use only fields we defined so we cannot use yaml.Unmarshal
	// directly here
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration data: %w", err)
	}
	if process {
		// sanitize and validate what has been loaded
		if err := gencfg.Sanitize(cfg); err != nil {
			return nil, fmt.Errorf("failed to sanitize configuration: %w", err)
		}
		if err := gencfg.Validate(cfg); err != nil {
			return nil, fmt.Errorf("failed to validate configuration: %w", err)
		}
	}
	return cfg, nil
}

// LoadConfiguration reads the configuration from the file at the given path,
// superimposes its values on top of expanded configuration template to provide
// sane defaults and performs validation.
func LoadConfiguration(path string, options ...func(*gencfg.ProcessingOptions)) (*Config, error) {
	haveFile := len(path) > 0

	data, err := gencfg.Process(ConfigTmpl, append(requiredOptions, options...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	cfg, err := unmarshalConfig(data, &Config{}, !haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	if !haveFile {
		return cfg, nil
	}

	// overwrite cfg values with values from the file
	data, err = os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err = unmarshalConfig(data, cfg, haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration file: %w", err)
	}
	return cfg, nil
}

// Prepare generates configuration file from template and returns it as a byte
// slice.
func Prepare() ([]byte, error) {
	return gencfg.Process(ConfigTmpl, requiredOptions...)
}

func Dump(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(*cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to yaml: %v", err)
	}
	return data, nil
}

// Translation returns translator configuration described by the document
// section.
func (conf *DocumentConfig) Translation() *translate.Config {
	tc := translate.DefaultConfig()
	if conf.Styles.ClassMap != nil {
		tc.ClassMap = conf.Styles.ClassMap
	}
	if conf.Styles.TagOverrides != nil {
		tc.TagOverrides = conf.Styles.TagOverrides
	}
	tc.DefaultParagraphStyle = conf.Styles.DefaultParagraphStyle
	tc.TableStyle = conf.Styles.TableStyle
	if len(conf.Styles.RowSelectors) > 0 {
		tc.RowSelectors = conf.Styles.RowSelectors
	}
	tc.MaxWidth = conf.Images.MaxWidth
	tc.Features = conf.Features
	return tc.Clone()
}

var styleKinds = map[string]docx.StyleKind{
	"paragraph": docx.ParagraphStyle,
	"character": docx.CharacterStyle,
	"table":     docx.TableStyle,
}

// Spec converts configured style into document style definition.
func (s *CustomStyle) Spec() (docx.StyleSpec, error) {
	kind, ok := styleKinds[strings.ToLower(s.Kind)]
	if !ok {
		return docx.StyleSpec{}, fmt.Errorf("unknown style kind %q for style %q", s.Kind, s.Name)
	}
	return docx.StyleSpec{
		Name:      s.Name,
		Kind:      kind,
		BasedOn:   s.BasedOn,
		Font:      s.Font,
		Size:      s.Size,
		Bold:      s.Bold,
		Italic:    s.Italic,
		Underline: s.Underline,
		Color:     strings.ToUpper(s.Color),
	}, nil
}
