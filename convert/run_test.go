package convert

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"h2d/config"
	"h2d/state"
)

// setupTestEnv creates a test environment with proper context and logger
func setupTestEnv(t *testing.T) (context.Context, *state.LocalEnv) {
	logger := zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1)))
	cfg, err := config.LoadConfiguration("")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	ctx := state.ContextWithEnv(context.Background())
	env := state.EnvFromContext(ctx)
	env.Log = logger
	env.Cfg = cfg
	return ctx, env
}

func testLogger(t *testing.T) *zap.Logger {
	return zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1)))
}

func writeFile(t *testing.T, name string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(name), 0755); err != nil {
		t.Fatalf("Failed to create directory: %v", err)
	}
	if err := os.WriteFile(name, data, 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}
}

func pngImage(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// readDocx returns content of produced document parts.
func readDocx(t *testing.T, name string) map[string]string {
	t.Helper()
	r, err := zip.OpenReader(name)
	if err != nil {
		t.Fatalf("Unable to open result %s: %v", name, err)
	}
	defer r.Close()

	parts := make(map[string]string)
	for _, f := range r.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatal(err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatal(err)
		}
		parts[f.Name] = string(data)
	}
	return parts
}

func assertDocument(t *testing.T, name string, texts ...string) map[string]string {
	t.Helper()
	parts := readDocx(t, name)
	body, ok := parts["word/document.xml"]
	if !ok {
		t.Fatalf("%s has no document part", name)
	}
	for _, s := range texts {
		if !strings.Contains(body, s) {
			t.Errorf("%s does not contain %q", name, s)
		}
	}
	return parts
}

func hasMedia(parts map[string]string) bool {
	for name := range parts {
		if strings.HasPrefix(name, "word/media/") {
			return true
		}
	}
	return false
}

func TestProcess_NonExistentPath(t *testing.T) {
	ctx, _ := setupTestEnv(t)

	err := process(ctx, "/nonexistent/path/file.html", t.TempDir(), testLogger(t))
	if err == nil {
		t.Fatal("Expected error for non-existent path, got nil")
	}
	if !strings.Contains(err.Error(), "input source was not found") {
		t.Errorf("Expected error containing 'input source was not found', got: %v", err)
	}
}

func TestProcess_CancelledContext(t *testing.T) {
	ctx, _ := setupTestEnv(t)
	cancelCtx, cancel := context.WithCancel(ctx)
	cancel()

	tmpDir := t.TempDir()
	if err := process(cancelCtx, tmpDir, tmpDir, testLogger(t)); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled error, got %v", err)
	}
}

func TestProcess_DirectoryWithTail(t *testing.T) {
	ctx, _ := setupTestEnv(t)

	tmpDir := t.TempDir()
	if err := process(ctx, filepath.Join(tmpDir, "nonexistent.html"), tmpDir, testLogger(t)); err == nil {
		t.Fatal("Expected error for directory with tail, got nil")
	}
}

func TestProcess_SingleFile(t *testing.T) {
	ctx, _ := setupTestEnv(t)

	srcDir := t.TempDir()
	page := filepath.Join(srcDir, "page.html")
	writeFile(t, page, []byte(`<html><head><title>Sample</title></head>
<body><h1>Greeting</h1><p>Hello <b>world</b></p><img src="img/dot.png"></body></html>`))
	writeFile(t, filepath.Join(srcDir, "img", "dot.png"), pngImage(t))

	// no destination - next to the source
	if err := process(ctx, page, "", testLogger(t)); err != nil {
		t.Fatalf("process() error = %v", err)
	}
	parts := assertDocument(t, filepath.Join(srcDir, "new_docx_file_page.docx"), "Greeting", "Hello", "world")
	if !hasMedia(parts) {
		t.Error("relative image was not embedded")
	}
	if !strings.Contains(parts["docProps/core.xml"], "Sample") {
		t.Error("document title was not kept")
	}
}

func TestProcess_ExplicitDestination(t *testing.T) {
	ctx, _ := setupTestEnv(t)

	srcDir, dstDir := t.TempDir(), t.TempDir()
	page := filepath.Join(srcDir, "page.htm")
	writeFile(t, page, []byte(`<p>content</p>`))

	t.Run("directory", func(t *testing.T) {
		if err := process(ctx, page, dstDir, testLogger(t)); err != nil {
			t.Fatalf("process() error = %v", err)
		}
		assertDocument(t, filepath.Join(dstDir, "new_docx_file_page.docx"), "content")
	})

	t.Run("file", func(t *testing.T) {
		out := filepath.Join(dstDir, "nested", "result.docx")
		if err := process(ctx, page, out, testLogger(t)); err != nil {
			t.Fatalf("process() error = %v", err)
		}
		assertDocument(t, out, "content")
	})
}

func TestProcess_ExistingOutput(t *testing.T) {
	ctx, env := setupTestEnv(t)

	srcDir := t.TempDir()
	page := filepath.Join(srcDir, "page.html")
	writeFile(t, page, []byte(`<p>fresh</p>`))
	out := filepath.Join(srcDir, "new_docx_file_page.docx")
	writeFile(t, out, []byte("old"))

	if err := process(ctx, page, "", testLogger(t)); err != nil {
		t.Fatalf("process() error = %v", err)
	}
	if data, _ := os.ReadFile(out); string(data) != "old" {
		t.Fatal("existing output was replaced without overwrite")
	}

	env.Overwrite = true
	if err := process(ctx, page, "", testLogger(t)); err != nil {
		t.Fatalf("process() error = %v", err)
	}
	assertDocument(t, out, "fresh")
}

func TestProcess_Directory(t *testing.T) {
	ctx, env := setupTestEnv(t)

	srcDir, dstDir := t.TempDir(), t.TempDir()
	writeFile(t, filepath.Join(srcDir, "a.html"), []byte(`<p>first</p>`))
	writeFile(t, filepath.Join(srcDir, "sub", "b.htm"), []byte(`<p>second</p>`))
	writeFile(t, filepath.Join(srcDir, "notes.txt"), []byte(`<p>ignored</p>`))

	if err := process(ctx, srcDir, dstDir, testLogger(t)); err != nil {
		t.Fatalf("process() error = %v", err)
	}
	assertDocument(t, filepath.Join(dstDir, "new_docx_file_a.docx"), "first")
	assertDocument(t, filepath.Join(dstDir, "sub", "new_docx_file_b.docx"), "second")
	if _, err := os.Stat(filepath.Join(dstDir, "new_docx_file_notes.docx")); err == nil {
		t.Error("non HTML file was converted")
	}

	t.Run("nodirs", func(t *testing.T) {
		flat := t.TempDir()
		env.NoDirs = true
		defer func() { env.NoDirs = false }()

		if err := process(ctx, srcDir, flat, testLogger(t)); err != nil {
			t.Fatalf("process() error = %v", err)
		}
		assertDocument(t, filepath.Join(flat, "new_docx_file_b.docx"), "second")
	})

	t.Run("in place", func(t *testing.T) {
		if err := process(ctx, srcDir, "", testLogger(t)); err != nil {
			t.Fatalf("process() error = %v", err)
		}
		assertDocument(t, filepath.Join(srcDir, "sub", "new_docx_file_b.docx"), "second")

		// produced documents are not picked up again
		env.Overwrite = true
		defer func() { env.Overwrite = false }()
		if err := process(ctx, srcDir, "", testLogger(t)); err != nil {
			t.Fatalf("process() error = %v", err)
		}
		if _, err := os.Stat(filepath.Join(srcDir, "new_docx_file_new_docx_file_a.docx")); err == nil {
			t.Error("produced document was converted")
		}
	})

	t.Run("document destination", func(t *testing.T) {
		if err := process(ctx, srcDir, filepath.Join(dstDir, "all.docx"), testLogger(t)); err == nil {
			t.Error("expected error for document destination")
		}
	})
}

func TestProcess_EmptyDirectory(t *testing.T) {
	ctx, _ := setupTestEnv(t)

	if err := process(ctx, t.TempDir(), t.TempDir(), testLogger(t)); err != nil {
		t.Errorf("process() with empty directory error = %v", err)
	}
}

func TestProcess_Archive(t *testing.T) {
	ctx, _ := setupTestEnv(t)

	var arc bytes.Buffer
	w := zip.NewWriter(&arc)
	for name, data := range map[string][]byte{
		"site/index.html":   []byte(`<p>from archive</p><img src="img/logo.png">`),
		"site/img/logo.png": pngImage(t),
		"site/about.html":   []byte(`<p>about</p>`),
		"readme.txt":        []byte("text"),
	} {
		fw, err := w.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := fw.Write(data); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	srcDir := t.TempDir()
	arcPath := filepath.Join(srcDir, "site.zip")
	writeFile(t, arcPath, arc.Bytes())

	t.Run("whole archive", func(t *testing.T) {
		dstDir := t.TempDir()
		if err := process(ctx, arcPath, dstDir, testLogger(t)); err != nil {
			t.Fatalf("process() error = %v", err)
		}
		parts := assertDocument(t, filepath.Join(dstDir, "site", "new_docx_file_index.docx"), "from archive")
		if !hasMedia(parts) {
			t.Error("image from archive was not embedded")
		}
		assertDocument(t, filepath.Join(dstDir, "site", "new_docx_file_about.docx"), "about")
	})

	t.Run("path inside archive", func(t *testing.T) {
		dstDir := t.TempDir()
		if err := process(ctx, filepath.Join(arcPath, "site", "about.html"), dstDir, testLogger(t)); err != nil {
			t.Fatalf("process() error = %v", err)
		}
		assertDocument(t, filepath.Join(dstDir, "site", "new_docx_file_about.docx"), "about")
		if _, err := os.Stat(filepath.Join(dstDir, "site", "new_docx_file_index.docx")); err == nil {
			t.Error("file outside of requested path was converted")
		}
	})

	t.Run("archive in directory", func(t *testing.T) {
		dstDir := t.TempDir()
		if err := process(ctx, srcDir, dstDir, testLogger(t)); err != nil {
			t.Fatalf("process() error = %v", err)
		}
		assertDocument(t, filepath.Join(dstDir, "site", "new_docx_file_index.docx"), "from archive")
	})
}

func TestProcess_NonHTMLFile(t *testing.T) {
	ctx, _ := setupTestEnv(t)

	file := filepath.Join(t.TempDir(), "notes.txt")
	writeFile(t, file, []byte("plain text"))

	err := process(ctx, file, t.TempDir(), testLogger(t))
	if err == nil || !strings.Contains(err.Error(), "not recognized as HTML") {
		t.Errorf("process() error = %v, want not recognized", err)
	}
}

func TestProcessDocument(t *testing.T) {
	ctx, env := setupTestEnv(t)
	env.Cfg.Document.OutputNameTemplate = `{{ .Title | default .Name }}`
	env.Cfg.Document.Styles.ClassMap = map[string]string{"warn": "Warning"}
	env.Cfg.Document.Styles.Custom = []config.CustomStyle{
		{Name: "Warning", Kind: "paragraph", Bold: true, Color: "C00000"},
		{Name: "Broken", Kind: "numbering"},
	}

	dstDir := t.TempDir()
	s := source{
		name:    "report.html",
		report:  "report.html",
		data:    []byte(`<title>Quarterly</title><p class="warn">careful</p>`),
		fetcher: newLoader(env, dstDir, testLogger(t)),
	}
	if err := processDocument(ctx, s, dstDir, testLogger(t)); err != nil {
		t.Fatalf("processDocument() error = %v", err)
	}
	parts := assertDocument(t, filepath.Join(dstDir, "Quarterly.docx"), "careful", `w:val="Warning"`)
	if !strings.Contains(parts["word/styles.xml"], "Warning") {
		t.Error("custom style was not defined")
	}
}

func TestProcessDocument_Charset(t *testing.T) {
	ctx, env := setupTestEnv(t)

	dstDir := t.TempDir()
	// "Привет" in windows-1251
	data := append([]byte(`<meta charset="windows-1251"><p>`), 0xcf, 0xf0, 0xe8, 0xe2, 0xe5, 0xf2)
	data = append(data, []byte(`</p>`)...)
	s := source{name: "cp.html", report: "cp.html", data: data, fetcher: newLoader(env, dstDir, testLogger(t))}
	if err := processDocument(ctx, s, dstDir, testLogger(t)); err != nil {
		t.Fatalf("processDocument() error = %v", err)
	}
	assertDocument(t, filepath.Join(dstDir, "new_docx_file_cp.docx"), "Привет")
}

type panicFetcher struct{}

func (panicFetcher) Fetch(context.Context, string) ([]byte, error) {
	panic("broken decoder")
}

func TestProcessDocument_WithPanic(t *testing.T) {
	ctx, _ := setupTestEnv(t)

	s := source{name: "p.html", report: "p.html", data: []byte(`<img src="x.png">`), fetcher: panicFetcher{}}
	err := processDocument(ctx, s, t.TempDir(), testLogger(t))
	if err == nil || !strings.Contains(err.Error(), "conversion panic") {
		t.Errorf("processDocument() error = %v, want conversion panic", err)
	}
}

func TestProcessDocument_DebugReport(t *testing.T) {
	ctx, env := setupTestEnv(t)
	env.Cfg.Document.OutputNameTemplate = "out"
	env.Overwrite = true

	reportName := filepath.Join(t.TempDir(), "report.zip")
	rpt, err := (&config.ReporterConfig{Destination: reportName}).Prepare()
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	env.Rpt = rpt

	dstDir := t.TempDir()
	for _, name := range []string{"first", "second"} {
		s := source{
			name:    name + ".html",
			report:  name + ".html",
			data:    []byte("<p>" + name + "</p>"),
			fetcher: newLoader(env, dstDir, testLogger(t)),
		}
		if err := processDocument(ctx, s, dstDir, testLogger(t)); err != nil {
			t.Fatalf("processDocument(%s) error = %v", name, err)
		}
	}
	// both conversions wrote the same file
	assertDocument(t, filepath.Join(dstDir, "out.docx"), "second")

	if err := rpt.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	report := readDocx(t, reportName)
	if report["source/first.html"] != "<p>first</p>" {
		t.Errorf("source/first.html = %q", report["source/first.html"])
	}
	result, ok := report["result/first.html.docx"]
	if !ok {
		t.Fatal("report has no result for the first document")
	}
	zr, err := zip.NewReader(bytes.NewReader([]byte(result)), int64(len(result)))
	if err != nil {
		t.Fatalf("stored result is not a document: %v", err)
	}
	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatal(err)
		}
		body, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(string(body), "first") || strings.Contains(string(body), "second") {
			t.Errorf("stored result was not taken at conversion time: %s", body)
		}
	}
}
