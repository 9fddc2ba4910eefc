// Package archive builds Walk abstraction on top of "archive/zip".
package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"path"
	"strings"
)

// Index gives access to every file of an open archive by its slash
// separated name, so an entry being processed may reach its siblings.
type Index map[string]*zip.File

// Lookup finds archive file by name, name is cleaned first and leading
// slashes are ignored.
func (idx Index) Lookup(name string) (*zip.File, bool) {
	name = strings.TrimPrefix(path.Clean("/"+strings.ReplaceAll(name, `\`, "/")), "/")
	f, ok := idx[name]
	return f, ok
}

// WalkFunc is the type of the function called for each file in archive
// visited by Walk. The archive argument contains path to archive passed to
// Walk. The file argument is the zip.File structure for file in archive
// which satisfies match condition, idx holds all files of the archive and
// is only valid during the call. If an error is returned, processing stops.
type WalkFunc func(archive string, file *zip.File, idx Index) error

// Walk walks the all files in the archive which names start with pattern,
// calling walkFn for each item. Archives with entries containing path
// traversal components ("..") or absolute paths are rejected.
func Walk(archive, pattern string, walkFn WalkFunc) error {

	r, err := zip.OpenReader(archive)
	if err != nil {
		return err
	}
	defer r.Close()

	idx := make(Index, len(r.File))
	for _, f := range r.File {
		name := f.FileHeader.Name
		if !isSafePath(name) {
			return fmt.Errorf("zip entry %q: unsafe path (absolute or contains path traversal)", name)
		}
		if !f.FileInfo().IsDir() {
			idx[name] = f
		}
	}

	for _, f := range r.File {
		name := f.FileHeader.Name
		if !f.FileInfo().IsDir() && strings.HasPrefix(name, pattern) {
			if err := walkFn(archive, f, idx); err != nil {
				return err
			}
		}
	}
	return nil
}

// ReadFile reads complete archive file refusing anything larger than limit
// bytes, limit <= 0 means no limit.
func ReadFile(f *zip.File, limit int64) ([]byte, error) {
	if limit > 0 && f.UncompressedSize64 > uint64(limit) {
		return nil, fmt.Errorf("zip entry %q is larger than %d bytes", f.Name, limit)
	}
	r, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer r.Close()

	if limit > 0 {
		// header may lie
		data, err := io.ReadAll(io.LimitReader(r, limit+1))
		if err != nil {
			return nil, err
		}
		if int64(len(data)) > limit {
			return nil, fmt.Errorf("zip entry %q is larger than %d bytes", f.Name, limit)
		}
		return data, nil
	}
	return io.ReadAll(r)
}

// isSafePath returns false for paths that could escape the extraction
// directory: absolute paths and those containing ".." components.
func isSafePath(name string) bool {
	if path.IsAbs(name) || strings.HasPrefix(name, "/") || strings.HasPrefix(name, `\`) {
		return false
	}
	for _, part := range strings.Split(name, "/") {
		if part == ".." {
			return false
		}
	}
	return true
}
