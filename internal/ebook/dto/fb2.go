package dto

import "strings"

// FB2Description is the <description> element of a FictionBook document.
//
// Only the description is decoded; the body and embedded binaries are
// skipped by the reader.
type FB2Description struct {
	TitleInfo   FB2TitleInfo   `xml:"title-info"`
	PublishInfo FB2PublishInfo `xml:"publish-info"`
}

// FB2TitleInfo describes the work itself.
type FB2TitleInfo struct {
	Genres    []string    `xml:"genre"`
	Authors   []FB2Author `xml:"author"`
	BookTitle string      `xml:"book-title"`
	Date      FB2Date     `xml:"date"`
	Lang      string      `xml:"lang"`
}

// FB2Author is a person element.
type FB2Author struct {
	FirstName  string `xml:"first-name"`
	MiddleName string `xml:"middle-name"`
	LastName   string `xml:"last-name"`
	Nickname   string `xml:"nickname"`
}

// Name joins the name parts, falling back to the nickname.
func (a FB2Author) Name() string {
	var parts []string
	for _, p := range []string{a.FirstName, a.MiddleName, a.LastName} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return strings.TrimSpace(a.Nickname)
	}
	return strings.Join(parts, " ")
}

// FB2Date carries a machine-readable value attribute and free text.
type FB2Date struct {
	Value string `xml:"value,attr"`
	Text  string `xml:",chardata"`
}

// FB2PublishInfo describes the printed edition.
type FB2PublishInfo struct {
	BookName  string `xml:"book-name"`
	Publisher string `xml:"publisher"`
	Year      string `xml:"year"`
	ISBN      string `xml:"isbn"`
}

// Author returns the first author with a usable name.
func (d *FB2Description) Author() string {
	for _, a := range d.TitleInfo.Authors {
		if name := a.Name(); name != "" {
			return name
		}
	}
	return ""
}

// Title returns the work title, or the edition's book name.
func (d *FB2Description) Title() string {
	if t := strings.TrimSpace(d.TitleInfo.BookTitle); t != "" {
		return t
	}
	return strings.TrimSpace(d.PublishInfo.BookName)
}

// Year prefers the edition year, then the work date.
func (d *FB2Description) Year() int {
	for _, s := range []string{d.PublishInfo.Year, d.TitleInfo.Date.Value, d.TitleInfo.Date.Text} {
		if y := ParsePubDate(s).Year(); y > 0 {
			return y
		}
	}
	return 0
}

// Genre returns the first genre code, such as "sf_fantasy".
func (d *FB2Description) Genre() string {
	return firstNonEmpty(d.TitleInfo.Genres)
}
