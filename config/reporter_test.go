package config

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestReport(t *testing.T) (*Report, string) {
	t.Helper()
	name := filepath.Join(t.TempDir(), "report.zip")
	r, err := (&ReporterConfig{Destination: name}).Prepare()
	if err != nil {
		t.Fatalf("Prepare() error: %v", err)
	}
	return r, name
}

func readArchive(t *testing.T, name string) map[string]string {
	t.Helper()
	zr, err := zip.OpenReader(name)
	if err != nil {
		t.Fatalf("unable to open report: %v", err)
	}
	defer zr.Close()

	out := make(map[string]string)
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatal(err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatal(err)
		}
		out[f.Name] = string(data)
	}
	return out
}

func TestReport_Archive(t *testing.T) {
	r, name := newTestReport(t)

	src := filepath.Join(t.TempDir(), "input.html")
	if err := os.WriteFile(src, []byte("<p>original</p>"), 0644); err != nil {
		t.Fatal(err)
	}
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.txt"), []byte("a"), 0644); err != nil {
		t.Fatal(err)
	}

	r.StoreData("config/config.yaml", []byte("version: 1\n"))
	r.Store("live.html", src)
	r.Store("dir", dir)
	if err := r.StoreCopy("copy.html", src); err != nil {
		t.Fatalf("StoreCopy() error: %v", err)
	}
	// copy keeps content as of the call, stored path is read at close
	if err := os.WriteFile(src, []byte("<p>changed</p>"), 0644); err != nil {
		t.Fatal(err)
	}
	if r.Name() == "" {
		t.Error("report has no name")
	}
	if err := r.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	files := readArchive(t, name)
	want := map[string]string{
		"config/config.yaml": "version: 1\n",
		"live.html":          "<p>changed</p>",
		"copy.html":          "<p>original</p>",
		"dir/a.txt":          "a",
	}
	for k, v := range want {
		if files[k] != v {
			t.Errorf("%s = %q, want %q", k, files[k], v)
		}
	}
	if !strings.Contains(files["MANIFEST"], "live.html") {
		t.Errorf("MANIFEST = %q", files["MANIFEST"])
	}
}

func TestReport_RemovesCopies(t *testing.T) {
	r, _ := newTestReport(t)
	dir := t.TempDir()
	src := filepath.Join(dir, "out.docx")
	if err := os.WriteFile(src, []byte("test"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := r.StoreCopy("result/out.docx", src); err != nil {
		t.Fatal(err)
	}
	if len(r.temps) != 1 {
		t.Fatalf("temps = %v", r.temps)
	}
	copied := r.temps[0]
	if err := r.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(copied); !os.IsNotExist(err) {
		t.Errorf("temporary copy %s still exists", copied)
	}
	if _, err := os.Stat(src); err != nil {
		t.Errorf("original file removed: %v", err)
	}
}

func TestReport_StoreCopyErrors(t *testing.T) {
	r, _ := newTestReport(t)
	defer r.Close()

	if err := r.StoreCopy("dir", t.TempDir()); err == nil {
		t.Error("expected error copying a directory")
	}
	if err := r.StoreCopy("missing", filepath.Join(t.TempDir(), "missing.docx")); err == nil {
		t.Error("expected error copying a missing file")
	}
	if len(r.temps) != 0 {
		t.Errorf("temps = %v", r.temps)
	}
}

func TestReport_Nil(t *testing.T) {
	var r *Report
	r.Store("a", "b")
	r.StoreData("a", nil)
	if err := r.StoreCopy("a", "b"); err != nil {
		t.Errorf("StoreCopy on nil report: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Errorf("Close on nil report should not error, got: %v", err)
	}
	if r.Name() != "" {
		t.Error("nil report has a name")
	}
}

func TestReport_OverwritePanics(t *testing.T) {
	r := &Report{entries: make(map[string]entry)}
	r.StoreData("x", []byte("1"))
	defer func() {
		if recover() == nil {
			t.Error("expected panic on duplicate data entry")
		}
	}()
	r.StoreData("x", []byte("2"))
}
