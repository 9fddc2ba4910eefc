package convert

import (
	"archive/zip"
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"h2d/archive"
)

type recordingFetcher struct {
	requests []string
}

func (r *recordingFetcher) Fetch(_ context.Context, src string) ([]byte, error) {
	r.requests = append(r.requests, src)
	return nil, errors.New("not here")
}

func TestArchiveFetcher(t *testing.T) {
	arcPath := writeZip(t, "site.zip", map[string]string{
		"site/index.html":     "<p>x</p>",
		"site/img/logo.png":   "logo",
		"shared/my image.png": "shared",
	})

	err := archive.Walk(arcPath, "site/index.html", func(_ string, f *zip.File, idx archive.Index) error {
		next := &recordingFetcher{}
		af := &archiveFetcher{idx: idx, dir: "site", next: next, log: zap.NewNop()}

		tests := []struct {
			src  string
			want string
		}{
			{"img/logo.png", "logo"},
			{"./img/logo.png", "logo"},
			{"../shared/my%20image.png", "shared"},
			{"/shared/my%20image.png", "shared"},
		}
		for _, tt := range tests {
			data, err := af.Fetch(context.Background(), tt.src)
			if err != nil {
				t.Errorf("Fetch(%q) error = %v", tt.src, err)
				continue
			}
			if string(data) != tt.want {
				t.Errorf("Fetch(%q) = %q, want %q", tt.src, data, tt.want)
			}
		}

		for _, src := range []string{"missing.png", "https://example.com/a.png", "data:image/png;base64,AAAA"} {
			if _, err := af.Fetch(context.Background(), src); err == nil {
				t.Errorf("Fetch(%q) expected to fall through", src)
			}
		}
		if len(next.requests) != 3 {
			t.Errorf("next fetcher got %v", next.requests)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Walk() error = %v", err)
	}
}
