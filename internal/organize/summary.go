package organize

import (
	"time"

	"github.com/handiism/media-organizer/internal/model"
)

// Status is the result of processing one file.
type Status int

const (
	StatusPlaced Status = iota
	StatusSkipped
	StatusFailed
)

// String returns the lowercase status name.
func (s Status) String() string {
	switch s {
	case StatusSkipped:
		return "skipped"
	case StatusFailed:
		return "failed"
	default:
		return "placed"
	}
}

// Outcome describes what happened to one source file.
type Outcome struct {
	Source      string
	Wanted      string // rendered destination, before collision handling
	Destination string // empty unless placed
	Category    model.Category
	Status      Status

	// Suffix is the collision counter used for Destination, 0 when the
	// rendered name was free.
	Suffix int

	// Degraded is set when the file was placed without its metadata.
	Degraded bool

	// Reason explains a skip. Err holds the failure, or the extraction
	// error of a degraded file.
	Reason string
	Err    error
}

// Collision records a file that could not get its rendered name.
type Collision struct {
	Source string
	Wanted string
	Actual string
}

// Failure records a file that could not be placed.
type Failure struct {
	Source string
	Err    error
}

// Summary is the result of one organize run.
//
// Succeeded includes the Degraded files. Files left untouched by a
// cancellation are not counted anywhere.
type Summary struct {
	RunID string
	Mode  model.Mode

	Processed int
	Succeeded int
	Degraded  int
	Skipped   int
	Failed    int
	Cancelled bool

	Collisions []Collision
	Failures   []Failure
	Playlists  []string

	Started  time.Time
	Finished time.Time
}

// Duration returns how long the run took.
func (s *Summary) Duration() time.Duration {
	if s.Finished.IsZero() {
		return time.Since(s.Started)
	}
	return s.Finished.Sub(s.Started)
}

func (s *Summary) record(o *Outcome) {
	s.Processed++
	switch o.Status {
	case StatusPlaced:
		s.Succeeded++
		if o.Degraded {
			s.Degraded++
		}
		if o.Suffix > 0 {
			s.Collisions = append(s.Collisions, Collision{Source: o.Source, Wanted: o.Wanted, Actual: o.Destination})
		}
	case StatusSkipped:
		s.Skipped++
	case StatusFailed:
		s.Failed++
		s.Failures = append(s.Failures, Failure{Source: o.Source, Err: o.Err})
	}
}
