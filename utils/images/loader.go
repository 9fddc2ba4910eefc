package images

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

// MaxImageSize limits how much is read from any image source.
const MaxImageSize = 64 << 20

// Fetcher retrieves raw image bytes for an <img> src reference.
type Fetcher interface {
	Fetch(ctx context.Context, src string) ([]byte, error)
}

// Loader fetches images from data: URIs, http(s) URLs and local files.
type Loader struct {
	client  *http.Client
	baseDir string
	token   string
	log     *zap.Logger
}

// LoaderOption configures Loader.
type LoaderOption func(*Loader)

// WithBaseDir resolves relative local paths against dir.
func WithBaseDir(dir string) LoaderOption {
	return func(l *Loader) { l.baseDir = dir }
}

// WithTimeout sets timeout for remote requests.
func WithTimeout(d time.Duration) LoaderOption {
	return func(l *Loader) { l.client.Timeout = d }
}

// WithBearerToken adds an Authorization header to remote requests.
func WithBearerToken(token string) LoaderOption {
	return func(l *Loader) { l.token = token }
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) LoaderOption {
	return func(l *Loader) { l.client = c }
}

// NewLoader creates image loader.
func NewLoader(log *zap.Logger, opts ...LoaderOption) *Loader {
	if log == nil {
		log = zap.NewNop()
	}
	l := &Loader{
		client: &http.Client{Timeout: 30 * time.Second},
		log:    log.Named("images"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// IsRemote reports whether src is an http(s) URL.
func IsRemote(src string) bool {
	u, err := url.Parse(strings.TrimSpace(src))
	if err != nil {
		return false
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return u.Host != ""
	}
	return false
}

// DisplayName returns how src may be shown in a document: remote URLs as
// is, local references reduced to the file name.
func DisplayName(src string) string {
	src = strings.TrimSpace(src)
	if IsRemote(src) {
		return src
	}
	if strings.HasPrefix(strings.ToLower(src), "data:") {
		return "data"
	}
	if u, err := url.Parse(src); err == nil && u.Scheme == "file" {
		src = u.Path
	}
	src = strings.ReplaceAll(src, `\`, "/")
	return path.Base(src)
}

// Fetch implements Fetcher.
func (l *Loader) Fetch(ctx context.Context, src string) ([]byte, error) {
	src = strings.TrimSpace(src)
	switch {
	case src == "":
		return nil, errors.New("empty image source")
	case strings.HasPrefix(strings.ToLower(src), "data:"):
		return decodeDataURI(src)
	case IsRemote(src):
		return l.fetchRemote(ctx, src)
	}
	return l.readLocal(src)
}

func (l *Loader) fetchRemote(ctx context.Context, src string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, err
	}
	if l.token != "" {
		req.Header.Set("Authorization", "Bearer "+l.token)
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status fetching image: %s", resp.Status)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxImageSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > MaxImageSize {
		return nil, fmt.Errorf("image is larger than %d bytes", MaxImageSize)
	}
	l.log.Debug("Image fetched", zap.String("src", src), zap.Int("bytes", len(data)))
	return data, nil
}

func (l *Loader) readLocal(src string) ([]byte, error) {
	name := src
	if u, err := url.Parse(src); err == nil && u.Scheme == "file" {
		name = u.Path
	}
	if !filepath.IsAbs(name) && l.baseDir != "" {
		name = filepath.Join(l.baseDir, name)
	}
	fi, err := os.Stat(name)
	if err != nil {
		return nil, err
	}
	if fi.Size() > MaxImageSize {
		return nil, fmt.Errorf("image is larger than %d bytes", MaxImageSize)
	}
	return os.ReadFile(name)
}

// decodeDataURI decodes "data:[<mediatype>][;base64],<data>".
func decodeDataURI(src string) ([]byte, error) {
	meta, payload, ok := strings.Cut(src[len("data:"):], ",")
	if !ok {
		return nil, errors.New("malformed data URI")
	}
	if strings.HasSuffix(strings.ToLower(meta), ";base64") {
		data, err := base64.StdEncoding.DecodeString(strings.Join(strings.Fields(payload), ""))
		if err != nil {
			return nil, fmt.Errorf("malformed base64 in data URI: %w", err)
		}
		return data, nil
	}
	data, err := url.PathUnescape(payload)
	if err != nil {
		return nil, fmt.Errorf("malformed data URI: %w", err)
	}
	return []byte(data), nil
}
