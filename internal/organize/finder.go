package organize

import (
	"context"
	"fmt"
	"io/fs"
	"iter"
	"os"
	"path/filepath"

	ioutils "github.com/handiism/media-organizer/internal/io"
	"github.com/handiism/media-organizer/internal/model"
)

// FindFiles returns the files below root whose category is enabled.
//
// The root is checked immediately; the walk itself is lazy and starts over
// on every iteration of the returned sequence. Files are yielded in lexical
// order. Include model.CategoryUnknown in enabled to also get files with
// unregistered extensions.
//
// The walk skips:
//   - the output root, when it lies inside root
//   - the run lock and partial files left by interrupted copies
//   - subdirectories that cannot be read (logged as warnings)
//
// Iteration stops early when ctx is cancelled.
//
// Example:
//
//	files, err := o.FindFiles(ctx, "/media/inbox", []model.Category{model.CategoryAudio})
//	for path := range files {
//	    fmt.Println(path)
//	}
func (o *Organizer) FindFiles(ctx context.Context, root string, enabled []model.Category) (iter.Seq[string], error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, root)
	}
	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, root)
	}

	output, _ := o.outputRoot()

	return func(yield func(string) bool) {
		walkErr := filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if err != nil {
				if path == abs {
					return err
				}
				o.log.WithField("path", path).WithError(err).Warn("skipping unreadable path")
				if d != nil && d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}

			if d.IsDir() {
				if output != "" && path != abs && path == output {
					return filepath.SkipDir
				}
				return nil
			}
			if !d.Type().IsRegular() {
				return nil
			}

			name := d.Name()
			if name == LockFileName || ioutils.IsPartial(name) {
				return nil
			}
			if !o.registry.Matches(path, enabled) {
				return nil
			}

			if !yield(path) {
				return filepath.SkipAll
			}
			return nil
		})
		if walkErr != nil && ctx.Err() == nil {
			o.log.WithField("root", abs).WithError(walkErr).Warn("walk stopped")
		}
	}, nil
}
