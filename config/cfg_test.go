package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rupor-github/gencfg"

	"h2d/docx"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

func TestLoadConfiguration_NoFile(t *testing.T) {
	cfg, err := LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() with empty path error = %v", err)
	}
	if cfg.Version != 1 {
		t.Errorf("Default config version = %d, want 1", cfg.Version)
	}

	doc := cfg.Document
	if doc.Styles.TableStyle != "Table Grid" {
		t.Errorf("TableStyle = %q", doc.Styles.TableStyle)
	}
	if len(doc.Styles.RowSelectors) != 4 {
		t.Errorf("RowSelectors = %q", doc.Styles.RowSelectors)
	}
	f := doc.Features
	if !f.Tables || !f.Images || !f.Styles || !f.StyleMap || !f.TagOverride || !f.FixHTML {
		t.Errorf("not all features enabled by default: %+v", f)
	}
	if doc.Images.Timeout != 30 {
		t.Errorf("Images.Timeout = %d", doc.Images.Timeout)
	}
	if !strings.Contains(doc.OutputNameTemplate, "{{") {
		t.Errorf("output name template was expanded: %q", doc.OutputNameTemplate)
	}
}

func TestLoadConfiguration_WithFile(t *testing.T) {
	path := writeConfig(t, `version: 1
document:
  fix_zip: true
  styles:
    class_map:
      note: "Quote"
    tag_overrides:
      code: "HTML Code"
    default_paragraph_style: "Body Text"
    table_style: "LightGridAccent1"
    custom:
      - name: "Warning"
        kind: paragraph
        based_on: "Normal"
        bold: true
        color: "c00000"
  features:
    images: false
  images:
    timeout_sec: 5
    auth_token: "s3cr3t"
    max_width_pt: 400
logging:
  console:
    level: debug
`)

	cfg, err := LoadConfiguration(path)
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	doc := cfg.Document
	if !doc.FixZip {
		t.Error("Expected FixZip to be true")
	}
	if doc.Styles.ClassMap["note"] != "Quote" || doc.Styles.TagOverrides["code"] != "HTML Code" {
		t.Errorf("style maps = %v / %v", doc.Styles.ClassMap, doc.Styles.TagOverrides)
	}
	if doc.Features.Images {
		t.Error("Expected images to be disabled")
	}
	if !doc.Features.Tables {
		t.Error("Unspecified feature lost its default")
	}
	if doc.Images.AuthToken.Value() != "s3cr3t" {
		t.Error("auth token not loaded")
	}
	if len(doc.Styles.Custom) != 1 || doc.Styles.Custom[0].Name != "Warning" {
		t.Fatalf("custom styles = %+v", doc.Styles.Custom)
	}
	if cfg.Logging.ConsoleLogger.Level != "debug" {
		t.Errorf("console level = %q", cfg.Logging.ConsoleLogger.Level)
	}
}

func TestLoadConfiguration_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"invalid yaml", "version: 1\ndocument:\n  fix_zip: true\n  invalid indent\n"},
		{"unknown field", "version: 1\nunknown_field: value\n"},
		{"bad version", "version: 2\n"},
		{"bad style kind", "version: 1\ndocument:\n  styles:\n    custom:\n      - name: X\n        kind: list\n"},
		{"bad color", "version: 1\ndocument:\n  styles:\n    custom:\n      - name: X\n        kind: paragraph\n        color: red\n"},
		{"negative width", "version: 1\ndocument:\n  images:\n    max_width_pt: -1\n"},
		{"bad log level", "version: 1\nlogging:\n  console:\n    level: loud\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadConfiguration(writeConfig(t, tt.content)); err == nil {
				t.Error("expected error")
			}
		})
	}

	if _, err := LoadConfiguration("/nonexistent/config.yaml"); err == nil {
		t.Error("Expected error for nonexistent file")
	}
}

func TestLoadConfiguration_WithOptions(t *testing.T) {
	option := func(opts *gencfg.ProcessingOptions) {}
	if _, err := LoadConfiguration("", option); err != nil {
		t.Fatalf("LoadConfiguration() with options error = %v", err)
	}
}

func TestPrepare(t *testing.T) {
	data, err := Prepare()
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	if _, err := unmarshalConfig(data, &Config{}, true); err != nil {
		t.Errorf("Prepared config is not valid: %v", err)
	}
}

func TestDump_HidesSecrets(t *testing.T) {
	cfg, err := LoadConfiguration("")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Document.Images.AuthToken = "very-secret"

	data, err := Dump(cfg)
	if err != nil {
		t.Fatalf("Dump() error = %v", err)
	}
	out := string(data)
	if strings.Contains(out, "very-secret") {
		t.Error("Dump() leaked secret")
	}
	if !strings.Contains(out, SecretStringValue) {
		t.Error("Dump() lost secret placeholder")
	}

	// dumped configuration must load back
	back, err := unmarshalConfig(data, &Config{}, false)
	if err != nil {
		t.Fatalf("dumped config does not load: %v", err)
	}
	if back.Document.Styles.TableStyle != cfg.Document.Styles.TableStyle {
		t.Errorf("TableStyle = %q", back.Document.Styles.TableStyle)
	}
}

func TestUnmarshalConfig_WrapsValidationError(t *testing.T) {
	_, err := unmarshalConfig([]byte("version: 99\n"), &Config{}, true)
	if err == nil {
		t.Fatal("expected validation error, got nil")
	}
	if !strings.Contains(err.Error(), "validat") {
		t.Errorf("expected error to mention validation, got: %v", err)
	}
	if errors.Unwrap(err) == nil {
		t.Errorf("expected wrapped error, got bare error: %v", err)
	}
}

func TestDocumentConfig_Translation(t *testing.T) {
	conf := DocumentConfig{
		Styles: StylesConfig{
			ClassMap:              map[string]string{"a": "Quote"},
			DefaultParagraphStyle: "Body Text",
			TableStyle:            "",
		},
		Images: ImagesConfig{MaxWidth: 300},
	}
	conf.Features.Tables = true

	tc := conf.Translation()
	if tc.ClassMap["a"] != "Quote" || tc.TagOverrides == nil {
		t.Errorf("maps = %v / %v", tc.ClassMap, tc.TagOverrides)
	}
	if len(tc.RowSelectors) == 0 {
		t.Error("default row selectors missing")
	}
	if tc.TableStyle != "" || tc.DefaultParagraphStyle != "Body Text" || tc.MaxWidth != 300 {
		t.Errorf("translation config = %+v", tc)
	}
	if !tc.Features.Tables || tc.Features.Images {
		t.Errorf("features = %+v", tc.Features)
	}

	// copies must not alias configuration
	tc.ClassMap["b"] = "Title"
	if _, ok := conf.Styles.ClassMap["b"]; ok {
		t.Error("translation config aliases class map")
	}
}

func TestCustomStyle_Spec(t *testing.T) {
	s := CustomStyle{Name: "Warning", Kind: "Character", Bold: true, Color: "c00000"}
	spec, err := s.Spec()
	if err != nil {
		t.Fatal(err)
	}
	if spec.Kind != docx.CharacterStyle || spec.Color != "C00000" || !spec.Bold {
		t.Errorf("spec = %+v", spec)
	}

	s.Kind = "numbering"
	if _, err := s.Spec(); err == nil {
		t.Error("expected error for unknown kind")
	}
}
