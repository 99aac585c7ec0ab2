package dto

import (
	"encoding/xml"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var yearPattern = regexp.MustCompile(`\b(1[0-9]{3}|20[0-9]{2})\b`)

// PubDate is a publication date as found in ebook metadata.
//
// Ebook dates range from full timestamps to a bare year, or free text such as
// "Spring 1999". The parsed Time is set when a known layout matches; Raw
// always keeps the original text.
type PubDate struct {
	time.Time
	Raw string
}

// UnmarshalXML parses the element text as a date.
func (d *PubDate) UnmarshalXML(dec *xml.Decoder, start xml.StartElement) error {
	var s string
	if err := dec.DecodeElement(&s, &start); err != nil {
		return err
	}
	*d = ParsePubDate(s)
	return nil
}

// ParsePubDate parses s, trying several layouts.
func ParsePubDate(s string) PubDate {
	s = strings.TrimSpace(s)
	d := PubDate{Raw: s}
	if s == "" {
		return d
	}

	// Try multiple formats
	formats := []string{
		time.RFC3339,          // "2001-03-12T00:00:00Z"
		"2006-01-02T15:04:05", // no zone
		"2006-01-02",          // "2001-03-12"
		"2006-01",             // "2001-03"
		"2006",                // "2001"
	}

	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			d.Time = t
			return d
		}
	}
	return d
}

// Year returns the publication year, or 0 when none can be found.
//
// When no layout matched, the first plausible four-digit year in the raw
// text is used.
func (d PubDate) Year() int {
	if !d.Time.IsZero() {
		return d.Time.Year()
	}
	if m := yearPattern.FindString(d.Raw); m != "" {
		y, _ := strconv.Atoi(m)
		return y
	}
	return 0
}
