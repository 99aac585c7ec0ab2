package model

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Record represents one discovered media file.
//
// A Record is created by the organizer when it reaches a file, filled with
// the extractor's Fields, and not modified afterwards. It carries everything
// the path renderer needs:
//   - Path and Category for the {filename}, {extension} and {file_type} fields
//   - Fields for category-specific placeholders such as {artist}
//   - Size and Created for {size} and the {creation_*} family
//
// Example:
//
//	rec, err := model.NewRecord("/music/in/one_more_time.mp3", model.CategoryAudio)
//	rec.Fields.Set("artist", "Daft Punk")
//	rec.Lookup("artist")   // "Daft Punk"
//	rec.Lookup("filename") // "one_more_time"
type Record struct {
	// Path is the absolute source path.
	Path string

	// Category is the classification from the extension registry.
	Category Category

	// Fields holds the extracted metadata. Never nil.
	Fields Fields

	// Size is the file size in bytes.
	Size int64

	// Created is the file's creation timestamp. The modification time is used
	// because it is the only timestamp every platform exposes and copies keep.
	Created time.Time

	// Err is the extraction failure, if any. The record is still usable; its
	// category fields are all Unknown.
	Err error
}

// NewRecord stats path and returns a Record with empty category fields.
//
// The path is made absolute. A stat failure is returned; the caller decides
// whether the file can still be processed.
func NewRecord(path string, category Category) (*Record, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}

	rec := &Record{
		Path:     abs,
		Category: category,
		Fields:   NewFields(category),
	}

	info, err := os.Stat(abs)
	if err != nil {
		return rec, err
	}
	rec.Size = info.Size()
	rec.Created = info.ModTime()
	return rec, nil
}

// Stem returns the file name without its extension.
func (r *Record) Stem() string {
	base := filepath.Base(r.Path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Extension returns the lowercase extension without the leading dot.
func (r *Record) Extension() string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(r.Path), "."))
}

// Degraded reports whether metadata extraction failed for this file.
func (r *Record) Degraded() bool {
	return r.Err != nil
}

// CommonFieldNames lists the placeholders every record resolves.
var CommonFieldNames = []string{
	"filename",
	"filename_with_extension",
	"extension",
	"file_type",
	"size",
	"creation_date",
	"creation_year",
	"creation_month",
	"creation_month_name",
}

// Common returns the derived fields available for every file regardless of
// category. Every value is non-empty.
func (r *Record) Common() Fields {
	f := make(Fields, len(CommonFieldNames))
	f.Set("filename", r.Stem())
	f.Set("filename_with_extension", filepath.Base(r.Path))
	f.Set("extension", r.Extension())
	f.Set("file_type", r.Category.String())
	f["size"] = strconv.FormatInt(r.Size, 10)

	created := r.Created
	if created.IsZero() {
		for _, name := range []string{"creation_date", "creation_year", "creation_month", "creation_month_name"} {
			f[name] = Unknown
		}
		return f
	}
	f["creation_date"] = created.Format("2006-01-02")
	f["creation_year"] = created.Format("2006")
	f["creation_month"] = created.Format("01")
	f["creation_month_name"] = created.Format("January")
	return f
}

// Lookup resolves a placeholder name: first the extracted metadata, then the
// common derived fields. Names that resolve nowhere return Unknown with false.
//
// An extracted field that is Unknown does not shadow a common field of the
// same name.
func (r *Record) Lookup(name string) (string, bool) {
	if v, ok := r.Fields.Get(name); ok {
		return v, true
	}
	if v, ok := r.Common().Get(name); ok {
		return v, true
	}
	return Unknown, false
}
