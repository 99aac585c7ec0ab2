package ebook

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding/htmlindex"

	"github.com/handiism/media-organizer/internal/ebook/dto"
)

var (
	// ErrUnsupportedFormat is returned for extensions no reader handles.
	ErrUnsupportedFormat = errors.New("unsupported ebook format")

	// ErrNoMetadata is returned when a file parses but carries no
	// descriptive metadata at all.
	ErrNoMetadata = errors.New("no ebook metadata found")
)

// Metadata is the descriptive information of an ebook.
//
// Empty strings and a zero Year mean the file did not carry the field.
type Metadata struct {
	Title     string
	Author    string
	Year      int
	Genre     string
	Publisher string
	ISBN      string
	Language  string
}

func (m *Metadata) empty() bool {
	return *m == Metadata{}
}

// Read extracts metadata from an ebook, choosing the reader by extension.
//
// Supported formats:
//   - .epub: OPF package document (Dublin Core)
//   - .fb2: FictionBook description
//   - .pdf: document Info dictionary
//   - .mobi, .azw, .azw3: PalmDOC/MOBI header and EXTH records
//
// Returns ErrUnsupportedFormat for anything else, and ErrNoMetadata when
// the file parses but holds no usable fields.
//
// Example:
//
//	meta, err := ebook.Read("/books/in/dune.epub")
//	if err != nil {
//	    return err
//	}
//	fmt.Printf("%s by %s (%d)\n", meta.Title, meta.Author, meta.Year)
func Read(file string) (*Metadata, error) {
	var (
		meta *Metadata
		err  error
	)

	switch strings.ToLower(filepath.Ext(file)) {
	case ".epub":
		meta, err = readEPUB(file)
	case ".fb2":
		meta, err = readFB2(file)
	case ".pdf":
		meta, err = readPDF(file)
	case ".mobi", ".azw", ".azw3":
		meta, err = readMOBI(file)
	default:
		return nil, ErrUnsupportedFormat
	}

	if err != nil {
		return nil, err
	}
	if meta.empty() {
		return nil, ErrNoMetadata
	}
	return meta, nil
}

const containerPath = "META-INF/container.xml"

// readEPUB locates the package document through META-INF/container.xml and
// reads its Dublin Core metadata. Archives without a container fall back to
// the first .opf entry.
func readEPUB(p string) (*Metadata, error) {
	zr, err := zip.OpenReader(p)
	if err != nil {
		return nil, fmt.Errorf("open epub: %w", err)
	}
	defer zr.Close()

	opfPath := ""
	if f := findZipEntry(&zr.Reader, containerPath); f != nil {
		var c dto.Container
		if err := decodeZipXML(f, &c); err != nil {
			return nil, fmt.Errorf("parse container.xml: %w", err)
		}
		opfPath = c.PackagePath()
	}

	var opf *zip.File
	if opfPath != "" {
		opf = findZipEntry(&zr.Reader, path.Clean(opfPath))
	}
	if opf == nil {
		for _, f := range zr.File {
			if strings.HasSuffix(strings.ToLower(f.Name), ".opf") {
				opf = f
				break
			}
		}
	}
	if opf == nil {
		return nil, errors.New("epub has no package document")
	}

	var pkg dto.OPFPackage
	if err := decodeZipXML(opf, &pkg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", opf.Name, err)
	}

	md := &pkg.Metadata
	return &Metadata{
		Title:     md.Title(),
		Author:    md.Author(),
		Year:      md.Year(),
		Genre:     md.Genre(),
		Publisher: md.Publisher(),
		ISBN:      md.ISBN(),
		Language:  md.Language(),
	}, nil
}

func findZipEntry(zr *zip.Reader, name string) *zip.File {
	for _, f := range zr.File {
		if f.Name == name {
			return f
		}
	}
	return nil
}

func decodeZipXML(f *zip.File, v any) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()
	return newXMLDecoder(rc).Decode(v)
}

// readFB2 decodes only the <description> element, so large embedded cover
// images are never held in memory.
func readFB2(p string) (*Metadata, error) {
	f, err := os.Open(p)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec := newXMLDecoder(f)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil, errors.New("fb2 has no description")
		}
		if err != nil {
			return nil, fmt.Errorf("parse fb2: %w", err)
		}

		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "description" {
			continue
		}

		var desc dto.FB2Description
		if err := dec.DecodeElement(&desc, &start); err != nil {
			return nil, fmt.Errorf("parse fb2 description: %w", err)
		}
		return &Metadata{
			Title:     desc.Title(),
			Author:    desc.Author(),
			Year:      desc.Year(),
			Genre:     desc.Genre(),
			Publisher: strings.TrimSpace(desc.PublishInfo.Publisher),
			ISBN:      strings.TrimSpace(desc.PublishInfo.ISBN),
			Language:  strings.TrimSpace(desc.TitleInfo.Lang),
		}, nil
	}
}

// newXMLDecoder returns a lenient decoder that understands the legacy
// charsets common in FB2 and older EPUB files (windows-1251, koi8-r, ...).
func newXMLDecoder(r io.Reader) *xml.Decoder {
	dec := xml.NewDecoder(r)
	dec.Strict = false
	dec.Entity = xml.HTMLEntity
	dec.CharsetReader = func(label string, input io.Reader) (io.Reader, error) {
		enc, err := htmlindex.Get(label)
		if err != nil {
			return nil, fmt.Errorf("unsupported charset %q: %w", label, err)
		}
		return enc.NewDecoder().Reader(input), nil
	}
	return dec
}
