package convert

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"h2d/docx"
)

func writeZip(t *testing.T, name string, files map[string]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create zip file: %v", err)
	}
	defer f.Close()

	w := zip.NewWriter(f)
	for n, content := range files {
		fw, err := w.Create(n)
		if err != nil {
			t.Fatalf("Failed to create file in zip: %v", err)
		}
		if _, err := fw.Write([]byte(content)); err != nil {
			t.Fatalf("Failed to write file in zip: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Failed to close zip: %v", err)
	}
	return path
}

func TestIsArchiveFile(t *testing.T) {
	tmpDir := t.TempDir()

	t.Run("plain file", func(t *testing.T) {
		filePath := filepath.Join(tmpDir, "test.zip")
		if err := os.WriteFile(filePath, []byte("not a real zip file"), 0644); err != nil {
			t.Fatalf("Failed to create test file: %v", err)
		}
		got, err := isArchiveFile(filePath)
		if err != nil {
			t.Errorf("isArchiveFile() error = %v", err)
		}
		if got {
			t.Error("isArchiveFile() = true, want false")
		}
	})

	t.Run("empty file", func(t *testing.T) {
		filePath := filepath.Join(tmpDir, "empty")
		if err := os.WriteFile(filePath, nil, 0644); err != nil {
			t.Fatalf("Failed to create test file: %v", err)
		}
		if got, err := isArchiveFile(filePath); err != nil || got {
			t.Errorf("isArchiveFile() = %v, %v", got, err)
		}
	})

	t.Run("zip archive", func(t *testing.T) {
		filePath := writeZip(t, "site.zip", map[string]string{"index.html": "<p>hello</p>"})
		got, err := isArchiveFile(filePath)
		if err != nil {
			t.Errorf("isArchiveFile() error = %v", err)
		}
		if !got {
			t.Error("isArchiveFile() = false, want true")
		}
	})

	t.Run("produced document", func(t *testing.T) {
		filePath := filepath.Join(tmpDir, "out.docx")
		doc := docx.New()
		doc.AddParagraph("").AddRun("text")
		if err := doc.SaveFile(filePath, false); err != nil {
			t.Fatalf("SaveFile() error = %v", err)
		}
		got, err := isArchiveFile(filePath)
		if err != nil {
			t.Errorf("isArchiveFile() error = %v", err)
		}
		if got {
			t.Error("document must not be treated as archive")
		}
	})
}

func TestIsArchiveFile_NonExistent(t *testing.T) {
	if _, err := isArchiveFile("/nonexistent/file.zip"); err == nil {
		t.Error("Expected error for non-existent file, got nil")
	}
}

func TestIsHTMLName(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"page.html", true},
		{"page.HTM", true},
		{"dir/page.xhtml", true},
		{"page.html.bak", false},
		{"page.docx", false},
		{"html", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := isHTMLName(tt.name); got != tt.want {
			t.Errorf("isHTMLName(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestIsHTMLFile(t *testing.T) {
	dir := t.TempDir()
	page := filepath.Join(dir, "page.html")
	if err := os.WriteFile(page, []byte("<p>x</p>"), 0644); err != nil {
		t.Fatal(err)
	}
	if ok, err := isHTMLFile(page); err != nil || !ok {
		t.Errorf("isHTMLFile(file) = %v, %v", ok, err)
	}

	sub := filepath.Join(dir, "dir.html")
	if err := os.Mkdir(sub, 0755); err != nil {
		t.Fatal(err)
	}
	if ok, err := isHTMLFile(sub); err != nil || ok {
		t.Errorf("isHTMLFile(dir) = %v, %v", ok, err)
	}

	if _, err := isHTMLFile(filepath.Join(dir, "missing.html")); err == nil {
		t.Error("expected error for missing file")
	}
}
