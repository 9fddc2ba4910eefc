package docx

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
)

// EMUs per point.
const emuPerPt = 12700

type mediaPart struct {
	name        string // relative to word/
	ext         string
	contentType string
	data        []byte
}

var pictureTypes = map[string]string{
	"png":  "image/png",
	"jpeg": "image/jpeg",
	"gif":  "image/gif",
	"bmp":  "image/bmp",
}

// PictureSize computes display size in points from the intrinsic pixel
// size. A zero dimension is derived from the other one keeping the aspect
// ratio; both zero gives the natural size at 96 dpi. The result never
// exceeds maxWidth when it is positive.
func PictureSize(pxW, pxH int, width, height, maxWidth float64) (float64, float64) {
	natW, natH := float64(pxW)*0.75, float64(pxH)*0.75
	switch {
	case width > 0 && height > 0:
	case width > 0:
		height = width * natH / natW
	case height > 0:
		width = height * natW / natH
	default:
		width, height = natW, natH
	}
	if maxWidth > 0 && width > maxWidth {
		height = height * maxWidth / width
		width = maxWidth
	}
	return width, height
}

func decodePicture(data []byte) (image.Config, string, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return cfg, "", fmt.Errorf("unable to decode picture: %w", err)
	}
	if _, ok := pictureTypes[format]; !ok {
		return cfg, "", fmt.Errorf("unsupported picture format %q", format)
	}
	if cfg.Width == 0 || cfg.Height == 0 {
		return cfg, "", fmt.Errorf("picture has no dimensions")
	}
	return cfg, format, nil
}

// CheckPicture reports whether AddPicture would accept data.
func CheckPicture(data []byte) error {
	_, _, err := decodePicture(data)
	return err
}

// AddPicture embeds an image (PNG, JPEG, GIF or BMP) inline into the run.
// Width and height are in points, zero means derive.
func (r *Run) AddPicture(data []byte, width, height float64) error {
	cfg, format, err := decodePicture(data)
	if err != nil {
		return err
	}
	ct := pictureTypes[format]

	doc := r.p.doc
	doc.pictures++
	n := doc.pictures
	part := mediaPart{
		name:        fmt.Sprintf("media/image%d.%s", n, format),
		ext:         format,
		contentType: ct,
		data:        data,
	}
	doc.media = append(doc.media, part)
	rid := doc.rels.add(relImage, part.name, false)

	w, h := PictureSize(cfg.Width, cfg.Height, width, height, doc.TextWidth())
	cx, cy := itoa(int(w*emuPerPt)), itoa(int(h*emuPerPt))
	name := fmt.Sprintf("Picture %d", n)

	inline := r.el.CreateElement("w:drawing").CreateElement("wp:inline")
	for _, a := range []string{"distT", "distB", "distL", "distR"} {
		inline.CreateAttr(a, "0")
	}
	extent := inline.CreateElement("wp:extent")
	extent.CreateAttr("cx", cx)
	extent.CreateAttr("cy", cy)
	docPr := inline.CreateElement("wp:docPr")
	docPr.CreateAttr("id", itoa(n))
	docPr.CreateAttr("name", name)
	locks := inline.CreateElement("wp:cNvGraphicFramePr").CreateElement("a:graphicFrameLocks")
	locks.CreateAttr("noChangeAspect", "1")

	gd := inline.CreateElement("a:graphic").CreateElement("a:graphicData")
	gd.CreateAttr("uri", nsPic)
	pic := gd.CreateElement("pic:pic")

	nv := pic.CreateElement("pic:nvPicPr")
	cNvPr := nv.CreateElement("pic:cNvPr")
	cNvPr.CreateAttr("id", "0")
	cNvPr.CreateAttr("name", fmt.Sprintf("image%d.%s", n, format))
	nv.CreateElement("pic:cNvPicPr")

	fill := pic.CreateElement("pic:blipFill")
	fill.CreateElement("a:blip").CreateAttr("r:embed", rid)
	fill.CreateElement("a:stretch").CreateElement("a:fillRect")

	sp := pic.CreateElement("pic:spPr")
	xfrm := sp.CreateElement("a:xfrm")
	off := xfrm.CreateElement("a:off")
	off.CreateAttr("x", "0")
	off.CreateAttr("y", "0")
	ext := xfrm.CreateElement("a:ext")
	ext.CreateAttr("cx", cx)
	ext.CreateAttr("cy", cy)
	sp.CreateElement("a:prstGeom").CreateAttr("prst", "rect")
	return nil
}

// Pictures returns the number of pictures in the run.
func (r *Run) Pictures() int {
	return len(r.el.SelectElements("w:drawing"))
}

// PictureExtent returns size in points of the n-th picture in the run.
func (r *Run) PictureExtent(n int) (float64, float64, bool) {
	drawings := r.el.SelectElements("w:drawing")
	if n < 0 || n >= len(drawings) {
		return 0, 0, false
	}
	ext := drawings[n].FindElement("wp:inline/wp:extent")
	if ext == nil {
		return 0, 0, false
	}
	return float64(atoi(ext.SelectAttrValue("cx", "0"))) / emuPerPt,
		float64(atoi(ext.SelectAttrValue("cy", "0"))) / emuPerPt, true
}
