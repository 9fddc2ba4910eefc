package images

import (
	"bytes"
	"image/png"
	"testing"
)

// half red banner as it is usually inlined into pages
const bannerSVG = `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 40 20">
  <rect x="0" y="0" width="20" height="20" fill="#ff0000"/>
</svg>`

func TestRasterizeSVGToImage_Banner(t *testing.T) {
	tests := []struct {
		name         string
		w, h         int
		wantW, wantH int
	}{
		{"natural size", 0, 0, 40, 20},
		{"img width only", 80, 0, 80, 40},
		{"img height only", 0, 10, 20, 10},
		{"img box", 100, 100, 100, 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := RasterizeSVGToImage([]byte(bannerSVG), tt.w, tt.h)
			if err != nil {
				t.Fatalf("RasterizeSVGToImage() error: %v", err)
			}
			b := img.Bounds()
			if b.Dx() != tt.wantW || b.Dy() != tt.wantH {
				t.Fatalf("bounds = %dx%d, want %dx%d", b.Dx(), b.Dy(), tt.wantW, tt.wantH)
			}
			// filled half is red, the rest keeps white background
			r, g, bl, _ := img.At(b.Dx()/4, b.Dy()/2).RGBA()
			if r>>8 != 0xff || g>>8 != 0 || bl>>8 != 0 {
				t.Errorf("filled pixel = %d,%d,%d", r>>8, g>>8, bl>>8)
			}
			r, g, bl, _ = img.At(b.Dx()*3/4, b.Dy()/2).RGBA()
			if r>>8 != 0xff || g>>8 != 0xff || bl>>8 != 0xff {
				t.Errorf("background pixel = %d,%d,%d", r>>8, g>>8, bl>>8)
			}
		})
	}
}

func TestRasterizeSVGToImage_Limits(t *testing.T) {
	saved := maxRasterDim
	maxRasterDim = 64
	t.Cleanup(func() { maxRasterDim = saved })

	huge := []byte(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100000 50000"><rect width="10" height="10"/></svg>`)
	img, err := RasterizeSVGToImage(huge, 0, 0)
	if err != nil {
		t.Fatalf("RasterizeSVGToImage() error: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 64 || b.Dy() != 32 {
		t.Errorf("bounds = %v, want 64x32", b)
	}

	// the same limit applies to pictures coming through Normalize
	data, format, err := Normalize(huge)
	if err != nil || format != "png" {
		t.Fatalf("Normalize() = %s, %v", format, err)
	}
	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	if err != nil || cfg.Width != 64 || cfg.Height != 32 {
		t.Errorf("normalized config = %+v, %v", cfg, err)
	}
}

func TestRasterizeSVGToImage_Broken(t *testing.T) {
	if _, err := RasterizeSVGToImage([]byte(`<svg xmlns="http://www.w3.org/2000/svg"><rect`), 0, 0); err == nil {
		t.Error("expected error for truncated svg")
	}
	if _, _, err := Normalize([]byte(`<svg xmlns="http://www.w3.org/2000/svg"><rect`)); err == nil {
		t.Error("Normalize accepted truncated svg")
	}
}
