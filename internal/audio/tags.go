package audio

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/bogem/id3v2"
	"github.com/dhowden/tag"
)

// ErrNoTags is returned when a file carries no readable tag block.
var ErrNoTags = errors.New("no tags found")

// Tags holds the descriptive metadata stored in an audio file.
//
// Zero values mean the file did not carry the field.
type Tags struct {
	Title       string
	Artist      string
	Album       string
	AlbumArtist string
	Composer    string
	Genre       string
	Year        int
	Track       int
	Disc        int
}

// ReadTags reads the tag block of an audio file.
//
// MP3 files are read with the ID3v2 parser. When an MP3 has no ID3v2 frames,
// or for any other format (FLAC, MP4/M4A, OGG), the generic reader is used,
// which also understands ID3v1, Vorbis comments and MP4 atoms.
//
// Example:
//
//	tags, err := audio.ReadTags("/music/in/one_more_time.mp3")
//	// tags.Artist == "Daft Punk", tags.Track == 1
func ReadTags(path string) (*Tags, error) {
	if strings.EqualFold(filepath.Ext(path), ".mp3") {
		tags, err := readID3v2(path)
		if err == nil {
			return tags, nil
		}
		if !errors.Is(err, ErrNoTags) {
			return nil, err
		}
	}
	return readGeneric(path)
}

// readID3v2 reads ID3v2.3/2.4 frames.
func readID3v2(path string) (*Tags, error) {
	t, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return nil, err
	}
	defer t.Close()

	if t.Count() == 0 {
		return nil, ErrNoTags
	}

	tags := &Tags{
		Title:       clean(t.Title()),
		Artist:      clean(t.Artist()),
		Album:       clean(t.Album()),
		AlbumArtist: clean(t.GetTextFrame("TPE2").Text),
		Composer:    clean(t.GetTextFrame("TCOM").Text),
		Genre:       cleanGenre(t.Genre()),
		Track:       leadingNumber(t.GetTextFrame("TRCK").Text),
		Disc:        leadingNumber(t.GetTextFrame("TPOS").Text),
	}

	// ID3v2.3 stores the year in TYER, ID3v2.4 in TDRC ("2001-03-12").
	tags.Year = leadingNumber(t.Year())
	if tags.Year == 0 {
		tags.Year = leadingNumber(t.GetTextFrame("TDRC").Text)
	}

	return tags, nil
}

// readGeneric reads tags with the format-sniffing reader.
func readGeneric(path string) (*Tags, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		if errors.Is(err, tag.ErrNoTagsFound) {
			return nil, ErrNoTags
		}
		return nil, fmt.Errorf("read tags: %w", err)
	}

	tags := &Tags{
		Title:       clean(m.Title()),
		Artist:      clean(m.Artist()),
		Album:       clean(m.Album()),
		AlbumArtist: clean(m.AlbumArtist()),
		Composer:    clean(m.Composer()),
		Genre:       cleanGenre(m.Genre()),
		Year:        m.Year(),
	}
	tags.Track, _ = m.Track()
	tags.Disc, _ = m.Disc()
	return tags, nil
}

var numericGenre = regexp.MustCompile(`^\(\d+\)\s*`)

// cleanGenre strips the ID3v1 "(17)" genre reference when a name follows it.
func cleanGenre(s string) string {
	s = clean(s)
	if rest := numericGenre.ReplaceAllString(s, ""); rest != "" {
		return rest
	}
	return s
}

func clean(s string) string {
	return strings.TrimSpace(strings.Trim(s, "\x00"))
}

// leadingNumber parses the number at the start of values like "3/12" or
// "2001-03-12". It returns 0 when there is none.
func leadingNumber(s string) int {
	s = clean(s)
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return n
}
