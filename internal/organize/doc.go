// Package organize provides the orchestration logic that sorts media files
// into a templated directory tree.
//
// # Organizer
//
// The Organizer coordinates the entire process for each file:
//
//  1. Classify it by extension
//  2. Extract category metadata (fail-soft)
//  3. Render the destination path from the category template
//  4. Claim a collision-free name
//  5. Copy or move it without ever overwriting
//  6. Generate playlists for directories that received audio (optional)
//
// # Basic Usage
//
//	org, err := organize.NewOrganizer(settings, func(event organize.ProgressEvent) {
//	    fmt.Println(event.Message)
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	plans, err := org.Preview(ctx, 20)     // dry run
//	summary, err := org.Organize(ctx)      // real run
//
// # Concurrency
//
// A run is sequential. Only Preview extracts metadata in parallel, bounded
// by settings.PreviewWorkers. Cancel and Progress are safe to call from
// other goroutines, and a lock file in the output root keeps two processes
// from organizing into the same tree.
//
// # Progress Tracking
//
// Progress is reported via a callback function that receives ProgressEvent:
//
//	type ProgressEvent struct {
//	    Message   string
//	    Level     ProgressLevel // Info, Verbose, Warning, Error, Success
//	    Processed int
//	    Total     int
//	    Outcome   *Outcome      // set for per-file events
//	}
//
// # Failure Handling
//
// A file whose metadata cannot be read is still placed, with Unknown in
// place of every missing field. A file that cannot be read or written is
// counted as failed and the batch moves on.
package organize
