package dto

import "testing"

func TestPubDate_Year(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"2001-03-12", 2001},
		{"2001-03", 2001},
		{"1999", 1999},
		{"2010-06-01T00:00:00Z", 2010},
		{"Spring 1987", 1987},
		{"n/a", 0},
		{"", 0},
	}

	for _, tt := range tests {
		if got := ParsePubDate(tt.in).Year(); got != tt.want {
			t.Errorf("ParsePubDate(%q).Year() = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestOPFMetadata_ISBN(t *testing.T) {
	tests := []struct {
		name string
		ids  []OPFIdentifier
		want string
	}{
		{"scheme", []OPFIdentifier{{Value: "abc", Scheme: "ISBN"}}, "abc"},
		{"urn", []OPFIdentifier{{Value: "urn:isbn:0441013597"}}, "0441013597"},
		{"shape with dashes", []OPFIdentifier{{Value: "urn:uuid:1"}, {Value: "978-0-441-01359-3"}}, "978-0-441-01359-3"},
		{"none", []OPFIdentifier{{Value: "urn:uuid:1"}}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := OPFMetadata{Identifiers: tt.ids}
			if got := m.ISBN(); got != tt.want {
				t.Errorf("ISBN() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFB2Author_Name(t *testing.T) {
	if got := (FB2Author{FirstName: "Boris", LastName: "Strugatsky"}).Name(); got != "Boris Strugatsky" {
		t.Errorf("Name() = %q", got)
	}
	if got := (FB2Author{Nickname: "anon"}).Name(); got != "anon" {
		t.Errorf("Name() = %q, want nickname", got)
	}
}

func TestContainer_PackagePath(t *testing.T) {
	c := Container{Rootfiles: []Rootfile{
		{FullPath: "a.pdf", MediaType: "application/pdf"},
		{FullPath: "OEBPS/content.opf", MediaType: "application/oebps-package+xml"},
	}}
	if got := c.PackagePath(); got != "OEBPS/content.opf" {
		t.Errorf("PackagePath() = %q", got)
	}
}
