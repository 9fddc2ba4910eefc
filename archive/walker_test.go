package archive

import (
	"archive/zip"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

type entry struct {
	name    string
	content string
}

func makeZip(t *testing.T, entries ...entry) string {
	t.Helper()
	zipPath := filepath.Join(t.TempDir(), "test.zip")

	zipFile, err := os.Create(zipPath)
	if err != nil {
		t.Fatalf("Failed to create zip file: %v", err)
	}
	w := zip.NewWriter(zipFile)
	for _, e := range entries {
		if strings.HasSuffix(e.name, "/") {
			hdr := &zip.FileHeader{Name: e.name}
			hdr.SetMode(os.ModeDir | 0755)
			if _, err := w.CreateHeader(hdr); err != nil {
				t.Fatalf("Failed to create directory %s: %v", e.name, err)
			}
			continue
		}
		fw, err := w.Create(e.name)
		if err != nil {
			t.Fatalf("Failed to create file %s in zip: %v", e.name, err)
		}
		if _, err := fw.Write([]byte(e.content)); err != nil {
			t.Fatalf("Failed to write content for %s: %v", e.name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	zipFile.Close()
	return zipPath
}

func TestWalk(t *testing.T) {
	zipPath := makeZip(t,
		entry{"site/", ""},
		entry{"site/index.html", "<p>index</p>"},
		entry{"site/img/logo.png", "png"},
		entry{"notes/readme.html", "<p>readme</p>"},
		entry{"config.yml", "config"},
	)

	tests := []struct {
		name    string
		pattern string
		want    []string
	}{
		{"everything", "", []string{"site/index.html", "site/img/logo.png", "notes/readme.html", "config.yml"}},
		{"prefix", "site/", []string{"site/index.html", "site/img/logo.png"}},
		{"single file", "notes/readme.html", []string{"notes/readme.html"}},
		{"case sensitive", "Site/", nil},
		{"no match", "missing/", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var visited []string
			err := Walk(zipPath, tt.pattern, func(archive string, file *zip.File, idx Index) error {
				if archive != zipPath {
					t.Errorf("archive = %s, want %s", archive, zipPath)
				}
				if len(idx) != 4 {
					t.Errorf("index has %d entries, want 4", len(idx))
				}
				visited = append(visited, file.Name)
				return nil
			})
			if err != nil {
				t.Fatalf("Walk() error = %v", err)
			}
			if !slices.Equal(visited, tt.want) {
				t.Errorf("visited %v, want %v", visited, tt.want)
			}
		})
	}
}

func TestWalk_InvalidArchive(t *testing.T) {
	noop := func(string, *zip.File, Index) error { return nil }

	t.Run("nonexistent file", func(t *testing.T) {
		if err := Walk("/nonexistent/file.zip", "", noop); err == nil {
			t.Error("Expected error for nonexistent file")
		}
	})

	t.Run("invalid zip file", func(t *testing.T) {
		invalidZip := filepath.Join(t.TempDir(), "invalid.zip")
		if err := os.WriteFile(invalidZip, []byte("not a zip file"), 0644); err != nil {
			t.Fatalf("Failed to create invalid zip: %v", err)
		}
		if err := Walk(invalidZip, "", noop); err == nil {
			t.Error("Expected error for invalid zip file")
		}
	})

	t.Run("path traversal", func(t *testing.T) {
		zipPath := makeZip(t, entry{"ok.html", "x"}, entry{"../evil.html", "x"})
		called := false
		err := Walk(zipPath, "", func(string, *zip.File, Index) error {
			called = true
			return nil
		})
		if err == nil || !strings.Contains(err.Error(), "unsafe path") {
			t.Errorf("Walk() error = %v, want unsafe path", err)
		}
		if called {
			t.Error("walkFn called for archive with unsafe entries")
		}
	})
}

func TestWalk_EarlyTermination(t *testing.T) {
	zipPath := makeZip(t,
		entry{"files/a.html", "a"},
		entry{"files/b.html", "b"},
		entry{"files/c.html", "c"},
	)

	var visited int
	stopErr := errors.New("stop walking")
	err := Walk(zipPath, "files/", func(string, *zip.File, Index) error {
		visited++
		if visited == 2 {
			return stopErr
		}
		return nil
	})
	if !errors.Is(err, stopErr) {
		t.Errorf("Walk() error = %v, want %v", err, stopErr)
	}
	if visited != 2 {
		t.Errorf("visited %d files, want 2 (early termination)", visited)
	}
}

func TestIndex_Lookup(t *testing.T) {
	zipPath := makeZip(t,
		entry{"site/index.html", `<img src="img/logo.png">`},
		entry{"site/img/logo.png", "png-bytes"},
	)

	err := Walk(zipPath, "site/index.html", func(_ string, file *zip.File, idx Index) error {
		for _, name := range []string{
			"site/img/logo.png",
			"/site/img/logo.png",
			"site/./img/../img/logo.png",
			`site\img\logo.png`,
		} {
			f, ok := idx.Lookup(name)
			if !ok {
				t.Errorf("Lookup(%q) failed", name)
				continue
			}
			data, err := ReadFile(f, 0)
			if err != nil {
				t.Fatalf("ReadFile() error = %v", err)
			}
			if string(data) != "png-bytes" {
				t.Errorf("content = %q", data)
			}
		}
		if _, ok := idx.Lookup("site/img"); ok {
			t.Error("Lookup() found a directory")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Walk() error = %v", err)
	}
}

func TestReadFile_Limit(t *testing.T) {
	zipPath := makeZip(t, entry{"big.html", strings.Repeat("x", 100)})

	err := Walk(zipPath, "", func(_ string, file *zip.File, _ Index) error {
		if _, err := ReadFile(file, 10); err == nil {
			t.Error("expected size limit error")
		}
		data, err := ReadFile(file, 100)
		if err != nil {
			t.Errorf("ReadFile() error = %v", err)
		}
		if len(data) != 100 {
			t.Errorf("read %d bytes, want 100", len(data))
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Walk() error = %v", err)
	}
}
