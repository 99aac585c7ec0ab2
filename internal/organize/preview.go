package organize

import (
	"context"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/handiism/media-organizer/internal/model"
	"github.com/handiism/media-organizer/internal/pathformat"
)

// Plan is one move a run would make.
type Plan struct {
	Source      string
	Destination string
	Category    model.Category
	Fields      model.Fields

	// Suffix is the collision counter the destination needed.
	Suffix int

	// Err is the extraction or stat error. Plans with a stat error have no
	// Destination; a run would count them as failed.
	Err error
}

// Preview plans up to limit moves from the configured source without
// touching the file system. A limit of zero or less plans every file.
//
// Metadata is extracted in parallel, bounded by settings.PreviewWorkers.
// Rendering and name allocation then run in walk order, so the plan shows
// the same collision suffixes a run on an unchanged tree would use.
func (o *Organizer) Preview(ctx context.Context, limit int) ([]Plan, error) {
	output, err := o.outputRoot()
	if err != nil {
		return nil, err
	}
	files, err := o.FindFiles(ctx, o.settings.SourcePath, o.enabled)
	if err != nil {
		return nil, err
	}

	var paths []string
	for path := range files {
		if limit > 0 && len(paths) >= limit {
			break
		}
		paths = append(paths, path)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	records := make([]*model.Record, len(paths))
	statErrs := make([]error, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(o.settings.PreviewWorkers, 1))
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			c := o.registry.Classify(path)
			rec, err := model.NewRecord(path, c)
			if err != nil {
				statErrs[i] = err
				records[i] = rec
				return nil
			}
			rec.Fields, rec.Err = o.extractor.Extract(gctx, rec.Path, c)
			records[i] = rec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	alloc := pathformat.NewAllocator()
	plans := make([]Plan, 0, len(records))
	for i, rec := range records {
		plan := Plan{Source: rec.Path, Category: rec.Category, Fields: rec.Fields, Err: rec.Err}
		if statErrs[i] != nil {
			plan.Err = statErrs[i]
			plans = append(plans, plan)
			continue
		}

		rel := pathformat.Render(o.settings.Template(rec.Category), rec, pathformat.Options{
			ExcludeUnknown: o.settings.ExcludesUnknown(rec.Category),
		})
		wanted := filepath.Join(output, rel)
		if wanted == rec.Path {
			plan.Destination = wanted
		} else {
			plan.Destination, plan.Suffix = alloc.Claim(wanted)
		}
		plans = append(plans, plan)
	}

	o.log.WithField("planned", len(plans)).Debug("preview finished")
	return plans, nil
}

// Inspect classifies one file and extracts its metadata, without placing
// it. The record is returned even when extraction fails.
func (o *Organizer) Inspect(ctx context.Context, path string) (*model.Record, error) {
	c := o.registry.Classify(path)
	rec, err := model.NewRecord(path, c)
	if err != nil {
		return rec, err
	}
	rec.Fields, rec.Err = o.extractor.Extract(ctx, rec.Path, c)
	return rec, nil
}
