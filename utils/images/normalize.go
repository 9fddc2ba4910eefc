package images

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/h2non/filetype"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrUnsupportedFormat is returned for data which is not a known image.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// Normalize makes sure the image is in a format word processors embed
// natively: PNG, JPEG, GIF and BMP pass through untouched, WebP and TIFF
// are re-encoded as PNG and SVG is rasterized. It returns the data and the
// resulting format name.
func Normalize(data []byte) ([]byte, string, error) {
	if len(data) == 0 {
		return nil, "", ErrUnsupportedFormat
	}

	kind, err := filetype.Match(data)
	if err == nil && kind != filetype.Unknown {
		switch kind.Extension {
		case "png", "gif", "bmp":
			return data, kind.Extension, nil
		case "jpg":
			return data, "jpeg", nil
		case "webp", "tif":
			img, _, err := image.Decode(bytes.NewReader(data))
			if err != nil {
				return nil, "", fmt.Errorf("unable to decode %s: %w", kind.Extension, err)
			}
			return encodePNG(img)
		}
		return nil, "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, kind.MIME.Value)
	}

	if isSVG(data) {
		img, err := RasterizeSVGToImage(data, 0, 0)
		if err != nil {
			return nil, "", fmt.Errorf("unable to rasterize svg: %w", err)
		}
		return encodePNG(img)
	}
	return nil, "", ErrUnsupportedFormat
}

func encodePNG(img image.Image) ([]byte, string, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG, imaging.PNGCompressionLevel(png.BestCompression)); err != nil {
		return nil, "", fmt.Errorf("unable to encode png: %w", err)
	}
	return buf.Bytes(), "png", nil
}

// isSVG sniffs for an <svg element near the start of text data.
func isSVG(data []byte) bool {
	head := data[:min(len(data), 1024)]
	if bytes.IndexByte(head, 0) >= 0 {
		return false
	}
	return strings.Contains(strings.ToLower(string(head)), "<svg")
}
