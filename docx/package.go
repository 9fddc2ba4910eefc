package docx

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/beevik/etree"
	fixzip "github.com/hidez8891/zip"
)

// Relationship types.
const (
	relOfficeDocument = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument"
	relCoreProps      = "http://schemas.openxmlformats.org/package/2006/relationships/metadata/core-properties"
	relExtendedProps  = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/extended-properties"
	relStyles         = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles"
	relNumbering      = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/numbering"
	relSettings       = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/settings"
	relHyperlink      = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/hyperlink"
	relImage          = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/image"
)

const nsRels = "http://schemas.openxmlformats.org/package/2006/relationships"

type relationship struct {
	id       string
	typ      string
	target   string
	external bool
}

// relationships of word/document.xml
type relationships struct {
	list []relationship
}

func newRelationships() *relationships {
	r := &relationships{}
	r.add(relStyles, "styles.xml", false)
	r.add(relNumbering, "numbering.xml", false)
	r.add(relSettings, "settings.xml", false)
	return r
}

func (r *relationships) add(typ, target string, external bool) string {
	id := fmt.Sprintf("rId%d", len(r.list)+1)
	r.list = append(r.list, relationship{id: id, typ: typ, target: target, external: external})
	return id
}

func (r *relationships) target(id string) string {
	for _, rel := range r.list {
		if rel.id == id {
			return rel.target
		}
	}
	return ""
}

func relsXML(list []relationship) *etree.Document {
	doc := newXMLDocument()
	root := doc.CreateElement("Relationships")
	root.CreateAttr("xmlns", nsRels)
	for _, rel := range list {
		el := root.CreateElement("Relationship")
		el.CreateAttr("Id", rel.id)
		el.CreateAttr("Type", rel.typ)
		el.CreateAttr("Target", rel.target)
		if rel.external {
			el.CreateAttr("TargetMode", "External")
		}
	}
	return doc
}

func (d *Document) contentTypesXML() *etree.Document {
	doc := newXMLDocument()
	root := doc.CreateElement("Types")
	root.CreateAttr("xmlns", "http://schemas.openxmlformats.org/package/2006/content-types")

	defaults := map[string]string{
		"rels": "application/vnd.openxmlformats-package.relationships+xml",
		"xml":  "application/xml",
	}
	order := []string{"rels", "xml"}
	for _, m := range d.media {
		if _, ok := defaults[m.ext]; !ok {
			defaults[m.ext] = m.contentType
			order = append(order, m.ext)
		}
	}
	for _, ext := range order {
		el := root.CreateElement("Default")
		el.CreateAttr("Extension", ext)
		el.CreateAttr("ContentType", defaults[ext])
	}

	overrides := [][2]string{
		{"/word/document.xml", "application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"},
		{"/word/styles.xml", "application/vnd.openxmlformats-officedocument.wordprocessingml.styles+xml"},
		{"/word/numbering.xml", "application/vnd.openxmlformats-officedocument.wordprocessingml.numbering+xml"},
		{"/word/settings.xml", "application/vnd.openxmlformats-officedocument.wordprocessingml.settings+xml"},
		{"/docProps/core.xml", "application/vnd.openxmlformats-package.core-properties+xml"},
		{"/docProps/app.xml", "application/vnd.openxmlformats-officedocument.extended-properties+xml"},
	}
	for _, o := range overrides {
		el := root.CreateElement("Override")
		el.CreateAttr("PartName", o[0])
		el.CreateAttr("ContentType", o[1])
	}
	return doc
}

func (d *Document) coreXML() *etree.Document {
	doc := newXMLDocument()
	root := doc.CreateElement("cp:coreProperties")
	root.CreateAttr("xmlns:cp", "http://schemas.openxmlformats.org/package/2006/metadata/core-properties")
	root.CreateAttr("xmlns:dc", "http://purl.org/dc/elements/1.1/")
	root.CreateAttr("xmlns:dcterms", "http://purl.org/dc/terms/")
	root.CreateAttr("xmlns:xsi", "http://www.w3.org/2001/XMLSchema-instance")

	if d.title != "" {
		root.CreateElement("dc:title").SetText(d.title)
	}
	if d.creator != "" {
		root.CreateElement("dc:creator").SetText(d.creator)
	}
	root.CreateElement("dc:identifier").SetText("urn:uuid:" + d.id.String())
	root.CreateElement("cp:revision").SetText("1")
	stamp := d.created.Format(time.RFC3339)
	for _, name := range []string{"dcterms:created", "dcterms:modified"} {
		el := root.CreateElement(name)
		el.CreateAttr("xsi:type", "dcterms:W3CDTF")
		el.SetText(stamp)
	}
	return doc
}

func (d *Document) appXML() *etree.Document {
	doc := newXMLDocument()
	root := doc.CreateElement("Properties")
	root.CreateAttr("xmlns", "http://schemas.openxmlformats.org/officeDocument/2006/extended-properties")
	app := d.creator
	if app == "" {
		app = "h2d"
	}
	root.CreateElement("Application").SetText(app)
	root.CreateElement("DocSecurity").SetText("0")
	return doc
}

func settingsXML() *etree.Document {
	doc := newXMLDocument()
	root := doc.CreateElement("w:settings")
	root.CreateAttr("xmlns:w", nsW)
	root.CreateElement("w:zoom").CreateAttr("w:percent", "100")
	setVal(root.CreateElement("w:defaultTabStop"), "720")
	setVal(root.CreateElement("w:characterSpacingControl"), "doNotCompress")
	compat := root.CreateElement("w:compat").CreateElement("w:compatSetting")
	compat.CreateAttr("w:name", "compatibilityMode")
	compat.CreateAttr("w:uri", "http://schemas.microsoft.com/office/word")
	compat.CreateAttr("w:val", "15")
	return doc
}

func writeXMLToZip(zw *zip.Writer, name string, doc *etree.Document) error {
	var buf bytes.Buffer
	if _, err := doc.WriteTo(&buf); err != nil {
		return err
	}
	return writeDataToZip(zw, name, buf.Bytes())
}

func writeDataToZip(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.CreateHeader(&zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: time.Date(1980, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// Save writes the document package.
func (d *Document) Save(w io.Writer) error {
	zw := zip.NewWriter(w)

	packageRels := []relationship{
		{id: "rId1", typ: relOfficeDocument, target: "word/document.xml"},
		{id: "rId2", typ: relCoreProps, target: "docProps/core.xml"},
		{id: "rId3", typ: relExtendedProps, target: "docProps/app.xml"},
	}

	parts := []struct {
		name string
		doc  *etree.Document
	}{
		{"[Content_Types].xml", d.contentTypesXML()},
		{"_rels/.rels", relsXML(packageRels)},
		{"docProps/core.xml", d.coreXML()},
		{"docProps/app.xml", d.appXML()},
		{"word/document.xml", d.documentXML()},
		{"word/_rels/document.xml.rels", relsXML(d.rels.list)},
		{"word/styles.xml", d.styles.toXML()},
		{"word/numbering.xml", d.numbering.toXML()},
		{"word/settings.xml", settingsXML()},
	}
	for _, part := range parts {
		if err := writeXMLToZip(zw, part.name, part.doc); err != nil {
			return fmt.Errorf("unable to write %s: %w", part.name, err)
		}
	}
	for _, m := range d.media {
		if err := writeDataToZip(zw, "word/"+m.name, m.data); err != nil {
			return fmt.Errorf("unable to write %s: %w", m.name, err)
		}
	}
	return zw.Close()
}

// SaveFile writes the document to a file. When fixZip is set the archive is
// rewritten without data descriptors, which some consumers do not accept.
func (d *Document) SaveFile(name string, fixZip bool) error {
	var buf bytes.Buffer
	if err := d.Save(&buf); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(name), 0755); err != nil {
		return fmt.Errorf("unable to create output directory: %w", err)
	}
	out, err := os.Create(name)
	if err != nil {
		return fmt.Errorf("unable to create target file (%s): %w", name, err)
	}
	defer out.Close()

	if !fixZip {
		if _, err := out.Write(buf.Bytes()); err != nil {
			return fmt.Errorf("unable to write target file (%s): %w", name, err)
		}
		return nil
	}
	if err := copyZipWithoutDataDescriptors(bytes.NewReader(buf.Bytes()), int64(buf.Len()), out); err != nil {
		return fmt.Errorf("unable to write target file (%s): %w", name, err)
	}
	return nil
}

func copyZipWithoutDataDescriptors(from io.ReaderAt, size int64, to io.Writer) error {
	r, err := fixzip.NewReader(from, size)
	if err != nil {
		return fmt.Errorf("unable to read archive: %w", err)
	}

	w := fixzip.NewWriter(to)
	for _, file := range r.File {
		// unset data descriptor flag.
		file.Flags &= ^fixzip.FlagDataDescriptor

		// copy zip entry
		if err := w.CopyFile(file); err != nil {
			return err
		}
	}
	return w.Close()
}
