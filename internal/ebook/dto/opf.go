package dto

import (
	"regexp"
	"strings"
)

// Container is META-INF/container.xml of an EPUB archive.
type Container struct {
	Rootfiles []Rootfile `xml:"rootfiles>rootfile"`
}

// Rootfile points at a package document inside the archive.
type Rootfile struct {
	FullPath  string `xml:"full-path,attr"`
	MediaType string `xml:"media-type,attr"`
}

// PackagePath returns the path of the OPF package document.
func (c *Container) PackagePath() string {
	for _, rf := range c.Rootfiles {
		if rf.MediaType == "application/oebps-package+xml" {
			return rf.FullPath
		}
	}
	if len(c.Rootfiles) > 0 {
		return c.Rootfiles[0].FullPath
	}
	return ""
}

// OPFPackage is the root of an OPF package document.
type OPFPackage struct {
	Version  string      `xml:"version,attr"`
	Metadata OPFMetadata `xml:"metadata"`
}

// OPFMetadata holds the Dublin Core elements of a package document.
//
// Element names match regardless of namespace prefix, so both <dc:title>
// and an unprefixed <title> are read.
type OPFMetadata struct {
	Titles      []string        `xml:"title"`
	Creators    []OPFCreator    `xml:"creator"`
	Dates       []PubDate       `xml:"date"`
	Subjects    []string        `xml:"subject"`
	Publishers  []string        `xml:"publisher"`
	Languages   []string        `xml:"language"`
	Identifiers []OPFIdentifier `xml:"identifier"`
	Metas       []OPFMeta       `xml:"meta"`
}

// OPFCreator is a dc:creator element.
type OPFCreator struct {
	Name string `xml:",chardata"`
	ID   string `xml:"id,attr"`
	Role string `xml:"role,attr"` // EPUB 2 opf:role
}

// OPFIdentifier is a dc:identifier element.
type OPFIdentifier struct {
	Value  string `xml:",chardata"`
	ID     string `xml:"id,attr"`
	Scheme string `xml:"scheme,attr"` // EPUB 2 opf:scheme
}

// OPFMeta is a meta element, in either EPUB 2 (name/content) or EPUB 3
// (property/refines) form.
type OPFMeta struct {
	Name     string `xml:"name,attr"`
	Content  string `xml:"content,attr"`
	Property string `xml:"property,attr"`
	Refines  string `xml:"refines,attr"`
	Value    string `xml:",chardata"`
}

var isbnPattern = regexp.MustCompile(`^(97[89])?\d{9}[\dXx]$`)

// Title returns the first non-empty title.
func (m *OPFMetadata) Title() string {
	return firstNonEmpty(m.Titles)
}

// Author returns the first creator whose role is author, or the first
// creator when no roles are given.
func (m *OPFMetadata) Author() string {
	var fallback string
	for _, c := range m.Creators {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			continue
		}
		role := c.Role
		if role == "" && c.ID != "" {
			role = m.refinedRole("#" + c.ID)
		}
		if role == "" || role == "aut" {
			return name
		}
		if fallback == "" {
			fallback = name
		}
	}
	return fallback
}

// refinedRole returns the EPUB 3 role meta that refines the element id.
func (m *OPFMetadata) refinedRole(id string) string {
	for _, meta := range m.Metas {
		if meta.Refines == id && meta.Property == "role" {
			return strings.TrimSpace(meta.Value)
		}
	}
	return ""
}

// Year returns the first publication year found among the dc:date elements.
func (m *OPFMetadata) Year() int {
	for _, d := range m.Dates {
		if y := d.Year(); y > 0 {
			return y
		}
	}
	return 0
}

// Genre returns the first subject.
func (m *OPFMetadata) Genre() string {
	return firstNonEmpty(m.Subjects)
}

// Publisher returns the first publisher.
func (m *OPFMetadata) Publisher() string {
	return firstNonEmpty(m.Publishers)
}

// Language returns the first language code.
func (m *OPFMetadata) Language() string {
	return firstNonEmpty(m.Languages)
}

// ISBN returns the first identifier that is an ISBN, either by its scheme
// attribute, a urn:isbn: prefix, or by shape.
func (m *OPFMetadata) ISBN() string {
	for _, id := range m.Identifiers {
		v := strings.TrimSpace(id.Value)
		if v == "" {
			continue
		}
		lower := strings.ToLower(v)
		switch {
		case strings.EqualFold(id.Scheme, "isbn"):
			return v
		case strings.HasPrefix(lower, "urn:isbn:"):
			return v[len("urn:isbn:"):]
		case strings.HasPrefix(lower, "isbn:"):
			return strings.TrimSpace(v[len("isbn:"):])
		case isbnPattern.MatchString(strings.ReplaceAll(v, "-", "")):
			return v
		}
	}
	return ""
}

func firstNonEmpty(values []string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
