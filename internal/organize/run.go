package organize

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"path/filepath"
	"slices"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	ioutils "github.com/handiism/media-organizer/internal/io"
	"github.com/handiism/media-organizer/internal/model"
	"github.com/handiism/media-organizer/internal/pathformat"
)

// maxPlaceAttempts bounds how often a file is re-claimed when its claimed
// name appears on disk before it could be placed.
const maxPlaceAttempts = 100

// Organize walks the configured source and places every enabled file under
// the configured output, using the configured operation mode.
//
// The files are counted first so progress events carry a total, then a
// fresh walk is processed.
func (o *Organizer) Organize(ctx context.Context) (*Summary, error) {
	files, err := o.FindFiles(ctx, o.settings.SourcePath, o.enabled)
	if err != nil {
		return nil, err
	}

	total := 0
	for range files {
		total++
	}
	o.progress(ProgressEvent{
		Message: fmt.Sprintf("Found %d files in %s", total, o.settings.SourcePath),
		Level:   LevelInfo,
		Total:   total,
	})

	return o.run(ctx, files, o.mode, total)
}

// Run places each file of files under the output root.
//
// For every file: classify, extract, render, claim a free name, create the
// directories and copy or move. Per-file problems are recorded in the
// summary and never stop the batch. The returned error covers only setup
// failures: a missing output root, or the run lock held elsewhere
// (ErrRunInProgress).
//
// Cancel and ctx cancellation are honoured between files; the file in
// progress is always finished.
func (o *Organizer) Run(ctx context.Context, files iter.Seq[string], mode model.Mode) (*Summary, error) {
	return o.run(ctx, files, mode, 0)
}

func (o *Organizer) run(ctx context.Context, files iter.Seq[string], mode model.Mode, total int) (*Summary, error) {
	if !o.running.CompareAndSwap(false, true) {
		return nil, ErrRunInProgress
	}
	defer o.running.Store(false)

	output, err := o.outputRoot()
	if err != nil {
		return nil, err
	}
	if err := ioutils.EnsureDir(output); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	lock := flock.New(filepath.Join(output, LockFileName))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire run lock: %w", err)
	}
	if !locked {
		return nil, ErrRunInProgress
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			o.log.WithError(err).Warn("failed to release run lock")
		}
	}()

	o.resetCounters(total)
	summary := &Summary{
		RunID:   uuid.NewString(),
		Mode:    mode,
		Started: time.Now(),
	}
	log := o.log.WithField("run_id", summary.RunID)
	log.WithFields(logrus.Fields{"mode": mode, "output": output}).Info("organization started")

	alloc := pathformat.NewAllocator()
	playlists := newPlaylistSet()
	// Files are finished even if ctx is cancelled while they are processed.
	fileCtx := context.WithoutCancel(ctx)

	for path := range files {
		if o.cancelled.Load() || ctx.Err() != nil {
			summary.Cancelled = true
			break
		}

		outcome, rec := o.processFile(fileCtx, path, mode, output, alloc, log)
		summary.record(outcome)
		o.count(outcome)
		if outcome.Status == StatusPlaced && outcome.Category == model.CategoryAudio {
			playlists.add(outcome.Destination, rec)
		}
		o.progress(o.outcomeEvent(outcome))
	}
	if ctx.Err() != nil {
		summary.Cancelled = true
	}

	if o.settings.CreatePlaylists {
		o.writePlaylists(fileCtx, playlists, alloc, summary, log)
	}

	summary.Finished = time.Now()
	log.WithFields(logrus.Fields{
		"processed": summary.Processed,
		"succeeded": summary.Succeeded,
		"degraded":  summary.Degraded,
		"skipped":   summary.Skipped,
		"failed":    summary.Failed,
		"cancelled": summary.Cancelled,
		"names":     alloc.Claimed(),
		"elapsed":   summary.Duration().Round(time.Millisecond),
	}).Info("organization finished")

	o.progress(o.finishedEvent(summary))
	return summary, nil
}

// processFile takes one file from classification to placement.
func (o *Organizer) processFile(ctx context.Context, path string, mode model.Mode, output string,
	alloc *pathformat.Allocator, log logrus.FieldLogger) (*Outcome, *model.Record) {

	c := o.registry.Classify(path)
	out := &Outcome{Source: path, Category: c}
	entry := log.WithFields(logrus.Fields{"source": path, "category": c})

	if !slices.Contains(o.enabled, c) {
		out.Status = StatusSkipped
		out.Reason = fmt.Sprintf("%s files are not organized", c)
		entry.Debug(out.Reason)
		return out, nil
	}

	rec, err := model.NewRecord(path, c)
	out.Source = rec.Path
	if err != nil {
		return o.fail(out, entry, fmt.Errorf("stat source: %w", err)), rec
	}

	rec.Fields, rec.Err = o.extractor.Extract(ctx, rec.Path, c)
	if out.Degraded = rec.Degraded(); out.Degraded {
		out.Err = rec.Err
		entry.WithError(rec.Err).Warn("metadata unavailable, placing with Unknown fields")
	} else {
		entry.WithField("known_fields", rec.Fields.Known()).Debug("metadata extracted")
	}

	rel := pathformat.Render(o.settings.Template(c), rec, pathformat.Options{
		ExcludeUnknown: o.settings.ExcludesUnknown(c),
	})
	out.Wanted = filepath.Join(output, rel)
	if out.Wanted == rec.Path {
		out.Status = StatusSkipped
		out.Reason = "already in place"
		entry.Debug(out.Reason)
		return out, rec
	}

	dest, suffix, err := o.place(ctx, rec.Path, out.Wanted, mode, alloc)
	if err != nil {
		return o.fail(out, entry.WithField("destination", out.Wanted), err), rec
	}

	out.Status = StatusPlaced
	out.Destination = dest
	out.Suffix = suffix
	entry.WithFields(logrus.Fields{"destination": dest, "degraded": out.Degraded}).Debug("placed")
	return out, rec
}

// place copies or moves src to the first free name for wanted. A claimed
// name that turns out to exist is given up and the next one claimed.
func (o *Organizer) place(ctx context.Context, src, wanted string, mode model.Mode, alloc *pathformat.Allocator) (string, int, error) {
	for attempt := 0; attempt < maxPlaceAttempts; attempt++ {
		dest, suffix := alloc.Claim(wanted)
		if err := ioutils.EnsureDir(filepath.Dir(dest)); err != nil {
			return "", 0, fmt.Errorf("create directory: %w", err)
		}

		var err error
		if mode == model.ModeMove {
			err = ioutils.MoveFile(ctx, src, dest)
		} else {
			err = ioutils.CopyFile(ctx, src, dest)
		}
		switch {
		case errors.Is(err, fs.ErrExist):
			continue
		case err != nil:
			return "", 0, fmt.Errorf("%s: %w", mode, err)
		}
		return dest, suffix, nil
	}
	return "", 0, fmt.Errorf("no free name for %s after %d attempts", wanted, maxPlaceAttempts)
}

func (o *Organizer) fail(out *Outcome, entry logrus.FieldLogger, err error) *Outcome {
	out.Status = StatusFailed
	out.Err = err
	entry.WithError(err).Error("file not organized")
	return out
}

func (o *Organizer) count(out *Outcome) {
	o.processed.Add(1)
	switch out.Status {
	case StatusPlaced:
		o.succeeded.Add(1)
		if out.Degraded {
			o.degraded.Add(1)
		}
	case StatusSkipped:
		o.skipped.Add(1)
	case StatusFailed:
		o.failed.Add(1)
	}
}

func (o *Organizer) outcomeEvent(out *Outcome) ProgressEvent {
	event := ProgressEvent{
		Processed: int(o.processed.Load()),
		Total:     int(o.total.Load()),
		Outcome:   out,
	}
	name := filepath.Base(out.Source)

	switch {
	case out.Status == StatusFailed:
		event.Level = LevelError
		event.Message = fmt.Sprintf("Failed %s: %v", name, out.Err)
	case out.Status == StatusSkipped:
		event.Level = LevelVerbose
		event.Message = fmt.Sprintf("Skipped %s: %s", name, out.Reason)
	case out.Degraded:
		event.Level = LevelWarning
		event.Message = fmt.Sprintf("Placed without metadata: %s → %s", name, out.Destination)
	default:
		event.Level = LevelVerbose
		event.Message = fmt.Sprintf("Placed: %s → %s", name, out.Destination)
	}
	return event
}

func (o *Organizer) finishedEvent(s *Summary) ProgressEvent {
	event := ProgressEvent{
		Processed: s.Processed,
		Total:     int(o.total.Load()),
		Level:     LevelSuccess,
		Message: fmt.Sprintf("Finished: %d placed, %d skipped, %d failed",
			s.Succeeded, s.Skipped, s.Failed),
	}
	switch {
	case s.Cancelled:
		event.Level = LevelWarning
		event.Message = fmt.Sprintf("Cancelled after %d files: %d placed, %d skipped, %d failed",
			s.Processed, s.Succeeded, s.Skipped, s.Failed)
	case s.Failed > 0:
		event.Level = LevelWarning
	}
	return event
}
