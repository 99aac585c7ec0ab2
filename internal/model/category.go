package model

import (
	"fmt"
	"strings"
)

// Category is the coarse media classification that decides which metadata
// fields apply to a file.
//
// A file's category is determined solely by its extension (see the registry
// package). Files whose extension is not registered are CategoryUnknown.
type Category int

const (
	// CategoryUnknown is used for files with an unregistered extension.
	CategoryUnknown Category = iota

	// CategoryAudio covers music and other sound files.
	CategoryAudio

	// CategoryVideo covers movie and clip containers.
	CategoryVideo

	// CategoryImage covers photos and pictures.
	CategoryImage

	// CategoryEbook covers EPUB, PDF, MOBI and similar documents.
	CategoryEbook
)

// Categories lists the known media categories in display order.
// CategoryUnknown is not included.
var Categories = []Category{CategoryAudio, CategoryVideo, CategoryImage, CategoryEbook}

// String returns the lowercase category name.
//
// This is also the value of the {file_type} placeholder:
//   - "audio", "video", "image", "ebook"
//   - "unknown" for CategoryUnknown
func (c Category) String() string {
	switch c {
	case CategoryAudio:
		return "audio"
	case CategoryVideo:
		return "video"
	case CategoryImage:
		return "image"
	case CategoryEbook:
		return "ebook"
	default:
		return "unknown"
	}
}

// ParseCategory converts a category name to a Category.
//
// Matching is case-insensitive and ignores surrounding whitespace.
// "unknown" is accepted and returns CategoryUnknown.
func ParseCategory(name string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "audio":
		return CategoryAudio, nil
	case "video":
		return CategoryVideo, nil
	case "image":
		return CategoryImage, nil
	case "ebook":
		return CategoryEbook, nil
	case "unknown":
		return CategoryUnknown, nil
	default:
		return CategoryUnknown, fmt.Errorf("unknown media category %q", name)
	}
}

// ParseCategories converts a list of names, rejecting the first invalid one.
// Duplicates are dropped while keeping the first occurrence's position.
func ParseCategories(names []string) ([]Category, error) {
	seen := make(map[Category]bool, len(names))
	var out []Category
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			continue
		}
		c, err := ParseCategory(name)
		if err != nil {
			return nil, err
		}
		if c == CategoryUnknown || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out, nil
}

// FieldNames returns the placeholder names a metadata extractor always
// provides for the category. Missing values are reported as Unknown, never
// omitted.
func (c Category) FieldNames() []string {
	switch c {
	case CategoryAudio:
		return []string{"title", "artist", "album", "year", "genre", "track", "duration", "bitrate",
			"album_artist", "disc", "composer", "sample_rate"}
	case CategoryVideo:
		return []string{"title", "artist", "album", "year", "genre", "duration",
			"width", "height", "codec", "frame_rate"}
	case CategoryImage:
		return []string{"width", "height", "format", "camera_make", "camera_model", "date_taken",
			"taken_year", "taken_month"}
	case CategoryEbook:
		return []string{"title", "author", "year", "genre", "publisher", "isbn", "language"}
	default:
		return nil
	}
}
