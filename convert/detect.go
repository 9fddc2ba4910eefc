package convert

import (
	"archive/zip"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/h2non/filetype"
	"github.com/h2non/filetype/matchers"
)

// sniffSize is how much of the file start is needed to tell archives from
// office documents (which are archives too).
const sniffSize = 8192

var htmlExtensions = []string{".html", ".htm", ".xhtml"}

// isHTMLName checks if name looks like HTML document by its extension.
func isHTMLName(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range htmlExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

func isArchive(head []byte) bool {
	return filetype.IsType(head, matchers.TypeZip) && !filetype.IsDocument(head)
}

// isArchiveFile checks if file is a zip archive which may hold HTML files.
// Produced documents are zip archives as well, those are not.
func isArchiveFile(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	head := make([]byte, sniffSize)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return false, err
	}
	return isArchive(head[:n]), nil
}

// isHTMLFile checks if file could be translated.
func isHTMLFile(path string) (bool, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	return fi.Mode().IsRegular() && isHTMLName(path), nil
}

// isHTMLInArchive checks archive entry the same way.
func isHTMLInArchive(f *zip.File) bool {
	return !f.FileInfo().IsDir() && isHTMLName(f.FileHeader.Name)
}
