package organize

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/handiism/media-organizer/internal/audio"
	"github.com/handiism/media-organizer/internal/config"
	"github.com/handiism/media-organizer/internal/metadata"
	"github.com/handiism/media-organizer/internal/model"
	"github.com/handiism/media-organizer/internal/registry"
)

// LockFileName is created in the output root while a run is in progress.
const LockFileName = ".media-organizer.lock"

var (
	// ErrRunInProgress is returned when another run holds the output lock.
	ErrRunInProgress = errors.New("another organization run is in progress")

	// ErrSourceNotFound is returned when the source root is missing or is
	// not a directory.
	ErrSourceNotFound = errors.New("source directory not found")

	// ErrNoOutput is returned when no output root is configured.
	ErrNoOutput = errors.New("no output directory configured")
)

// ProgressLevel indicates the severity/type of a progress message.
type ProgressLevel int

const (
	LevelInfo ProgressLevel = iota
	LevelVerbose
	LevelWarning
	LevelError
	LevelSuccess
)

// String returns the lowercase level name.
func (l ProgressLevel) String() string {
	switch l {
	case LevelVerbose:
		return "verbose"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	case LevelSuccess:
		return "success"
	default:
		return "info"
	}
}

// ProgressEvent represents an organization progress update.
//
// Events for a single file carry its Outcome; run-level messages leave it
// nil. Total is 0 when the number of files is not known in advance.
type ProgressEvent struct {
	Message   string
	Level     ProgressLevel
	Processed int
	Total     int
	Outcome   *Outcome
}

// Counts is a point-in-time copy of the run counters.
type Counts struct {
	Processed int
	Total     int
	Succeeded int
	Degraded  int
	Skipped   int
	Failed    int
}

// Option configures an Organizer.
type Option func(*Organizer)

// WithLogger sets the logger. Defaults to the logrus standard logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(o *Organizer) {
		o.log = log
	}
}

// WithExtractor replaces the metadata extractor.
func WithExtractor(e *metadata.Extractor) Option {
	return func(o *Organizer) {
		o.extractor = e
	}
}

// WithRegistry shares an extension registry with the caller, who may keep
// editing it.
func WithRegistry(r *registry.Registry) Option {
	return func(o *Organizer) {
		o.registry = r
	}
}

// Organizer classifies, renames and places media files.
//
// One Organizer runs one batch at a time. Cancel and Progress may be called
// from other goroutines while a batch runs.
type Organizer struct {
	settings  *config.Settings
	registry  *registry.Registry
	extractor *metadata.Extractor
	playlist  *audio.PlaylistCreator
	enabled   []model.Category
	mode      model.Mode
	log       logrus.FieldLogger

	running   atomic.Bool
	cancelled atomic.Bool

	processed atomic.Int32
	total     atomic.Int32
	succeeded atomic.Int32
	degraded  atomic.Int32
	skipped   atomic.Int32
	failed    atomic.Int32

	onProgress func(ProgressEvent)
}

// NewOrganizer creates an Organizer from validated settings.
//
// Unknown files are included in the walk when settings.UnknownTemplate is
// set. The default extractor probes video with settings.FFprobePath.
func NewOrganizer(settings *config.Settings, onProgress func(ProgressEvent), opts ...Option) (*Organizer, error) {
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}

	mode, _ := settings.Mode()
	enabled, _ := settings.Categories()
	if settings.UnknownTemplate != "" {
		enabled = append(enabled, model.CategoryUnknown)
	}
	format, _ := settings.Playlist()

	o := &Organizer{
		settings:   settings,
		playlist:   audio.NewPlaylistCreator(format, settings.M3UExtended),
		enabled:    enabled,
		mode:       mode,
		log:        logrus.StandardLogger(),
		onProgress: onProgress,
	}
	for _, opt := range opts {
		opt(o)
	}

	if o.registry == nil {
		reg, err := settings.Registry()
		if err != nil {
			return nil, err
		}
		o.registry = reg
	}
	if o.extractor == nil {
		o.extractor = metadata.New(
			metadata.WithProber(metadata.NewFFprobe(settings.FFprobePath)),
			metadata.WithLogger(o.log),
		)
	}
	return o, nil
}

// Registry returns the extension registry in use.
func (o *Organizer) Registry() *registry.Registry {
	return o.registry
}

// Cancel asks the running batch to stop before its next file. The file in
// progress is finished first.
func (o *Organizer) Cancel() {
	o.cancelled.Store(true)
}

// Progress returns the counters of the current or last batch.
func (o *Organizer) Progress() Counts {
	return Counts{
		Processed: int(o.processed.Load()),
		Total:     int(o.total.Load()),
		Succeeded: int(o.succeeded.Load()),
		Degraded:  int(o.degraded.Load()),
		Skipped:   int(o.skipped.Load()),
		Failed:    int(o.failed.Load()),
	}
}

func (o *Organizer) resetCounters(total int) {
	o.cancelled.Store(false)
	o.processed.Store(0)
	o.total.Store(int32(total))
	o.succeeded.Store(0)
	o.degraded.Store(0)
	o.skipped.Store(0)
	o.failed.Store(0)
}

func (o *Organizer) outputRoot() (string, error) {
	if o.settings.OutputPath == "" {
		return "", ErrNoOutput
	}
	return filepath.Abs(o.settings.OutputPath)
}

func (o *Organizer) progress(event ProgressEvent) {
	if o.onProgress != nil {
		o.onProgress(event)
	}
}
