package convert

import (
	"context"
	"net/url"
	"path"
	"strings"

	"go.uber.org/zap"

	"h2d/archive"
	"h2d/utils/images"
)

// archiveFetcher resolves relative image references of a document stored
// in archive against other archive entries, everything else goes to next.
type archiveFetcher struct {
	idx  archive.Index
	dir  string // directory of the document inside archive
	next images.Fetcher
	log  *zap.Logger
}

func (f *archiveFetcher) Fetch(ctx context.Context, src string) ([]byte, error) {
	src = strings.TrimSpace(src)
	if name, ok := f.entryName(src); ok {
		if zf, found := f.idx.Lookup(name); found {
			f.log.Debug("Image found in archive", zap.String("src", src), zap.String("entry", zf.Name))
			return archive.ReadFile(zf, images.MaxImageSize)
		}
	}
	return f.next.Fetch(ctx, src)
}

// entryName maps image reference to archive entry name, only relative and
// root based references without scheme qualify.
func (f *archiveFetcher) entryName(src string) (string, bool) {
	if src == "" || images.IsRemote(src) {
		return "", false
	}
	u, err := url.Parse(src)
	if err != nil || u.Scheme != "" || u.Host != "" || u.Path == "" {
		return "", false
	}
	if strings.HasPrefix(u.Path, "/") {
		return u.Path, true
	}
	return path.Join(f.dir, u.Path), true
}
