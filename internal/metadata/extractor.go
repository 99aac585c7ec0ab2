package metadata

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/handiism/media-organizer/internal/model"
)

// ErrMetadataUnavailable wraps every extraction failure. The fields returned
// alongside it are all Unknown and still usable.
var ErrMetadataUnavailable = errors.New("metadata unavailable")

// Strategy extracts the category-specific fields of one file.
//
// A strategy only sets the fields it found; the Extractor fills the rest of
// the category's field set with Unknown.
type Strategy func(ctx context.Context, path string) (model.Fields, error)

// Extractor selects a strategy by category and normalizes its output.
//
// Extraction is fail-soft: a failing strategy never aborts the caller. The
// result always holds every field name of the category, and failures are
// reported as errors wrapping ErrMetadataUnavailable.
//
// Example:
//
//	ex := metadata.New(metadata.WithProber(metadata.NewFFprobe("ffprobe")))
//	fields, err := ex.Extract(ctx, "/in/clip.mp4", model.CategoryVideo)
//	if errors.Is(err, metadata.ErrMetadataUnavailable) {
//	    // fields are all Unknown, the file can still be placed
//	}
type Extractor struct {
	audio  Strategy
	video  Strategy
	image  Strategy
	ebook  Strategy
	prober Prober
	log    logrus.FieldLogger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithProber sets the prober used for video and for audio containers whose
// headers are not parsed natively.
func WithProber(p Prober) Option {
	return func(e *Extractor) {
		e.prober = p
	}
}

// WithStrategy replaces the strategy for one category.
func WithStrategy(c model.Category, s Strategy) Option {
	return func(e *Extractor) {
		switch c {
		case model.CategoryAudio:
			e.audio = s
		case model.CategoryVideo:
			e.video = s
		case model.CategoryImage:
			e.image = s
		case model.CategoryEbook:
			e.ebook = s
		}
	}
}

// WithLogger sets the logger for per-probe diagnostics.
func WithLogger(log logrus.FieldLogger) Option {
	return func(e *Extractor) {
		e.log = log
	}
}

// New creates an Extractor with the built-in strategies.
func New(opts ...Option) *Extractor {
	e := &Extractor{log: logrus.StandardLogger()}
	for _, opt := range opts {
		opt(e)
	}

	if e.audio == nil {
		e.audio = e.extractAudio
	}
	if e.video == nil {
		e.video = e.extractVideo
	}
	if e.image == nil {
		e.image = extractImage
	}
	if e.ebook == nil {
		e.ebook = extractEbook
	}
	return e
}

// Extract returns the category fields of the file at path.
//
// The returned Fields always contain every name of c.FieldNames(). When the
// strategy fails, all of them are Unknown and the error wraps
// ErrMetadataUnavailable. CategoryUnknown has no fields and never fails.
func (e *Extractor) Extract(ctx context.Context, path string, c model.Category) (model.Fields, error) {
	fields := model.NewFields(c)

	var strategy Strategy
	switch c {
	case model.CategoryAudio:
		strategy = e.audio
	case model.CategoryVideo:
		strategy = e.video
	case model.CategoryImage:
		strategy = e.image
	case model.CategoryEbook:
		strategy = e.ebook
	default:
		return fields, nil
	}

	if err := ctx.Err(); err != nil {
		return fields, fmt.Errorf("%w: %w", ErrMetadataUnavailable, err)
	}

	got, err := runStrategy(ctx, strategy, path)
	if err != nil {
		return fields, fmt.Errorf("%w: %s: %w", ErrMetadataUnavailable, c, err)
	}

	fields.Merge(got)
	return fields, nil
}

// runStrategy reports a panic inside a decoding library as an error.
func runStrategy(ctx context.Context, s Strategy, path string) (fields model.Fields, err error) {
	defer func() {
		if r := recover(); r != nil {
			fields, err = nil, fmt.Errorf("panic reading %s: %v", path, r)
		}
	}()
	return s(ctx, path)
}
