package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/handiism/media-organizer/internal/config"
	"github.com/handiism/media-organizer/internal/organize"
)

type runFlags struct {
	source string
	output string
	mode   string
	types  string
}

func (f *runFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.source, "source", "s", "", "Directory to organize (overrides settings)")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "Output directory (overrides settings)")
	cmd.Flags().StringVarP(&f.mode, "mode", "m", "", "Operation mode: copy or move (overrides settings)")
	cmd.Flags().StringVarP(&f.types, "types", "t", "", "Comma separated media types to organize, e.g. audio,image")
}

// apply returns a copy of settings with the flag overrides applied.
func (f *runFlags) apply(settings *config.Settings) (*config.Settings, error) {
	s := *settings
	if f.source != "" {
		s.SourcePath = f.source
	}
	if f.output != "" {
		s.OutputPath = f.output
	}
	if f.mode != "" {
		s.OperationMode = f.mode
	}
	if f.types != "" {
		if err := s.SetTypes(f.types); err != nil {
			return nil, fmt.Errorf("--types: %w", err)
		}
	}
	if s.SourcePath == "" {
		return nil, fmt.Errorf("no source directory: pass --source or set source_path")
	}
	return &s, nil
}

func newOrganizeCommand(ctx *commandContext) *cobra.Command {
	var flags runFlags
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "organize",
		Short: "Copy or move media files into the output tree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := ctx.ensureSettings()
			if err != nil {
				return err
			}
			settings, err := flags.apply(base)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if dryRun {
				org, err := ctx.newOrganizer(cmd, settings, nil)
				if err != nil {
					return err
				}
				plans, err := org.Preview(cmd.Context(), 0)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, renderPlans(plans))
				fmt.Fprintln(out, "[Dry run - nothing was copied or moved]")
				return nil
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			reporter := newProgressReporter(out, ctx.verbose())
			org, err := ctx.newOrganizer(cmd, settings, reporter.handle)
			if err != nil {
				return err
			}

			summary, err := org.Organize(runCtx)
			reporter.finish()
			if err != nil {
				return err
			}

			fmt.Fprintln(out, renderSummary(summary))
			if len(summary.Failures) > 0 {
				fmt.Fprintln(out, renderFailures(summary.Failures))
			}
			if summary.Cancelled {
				fmt.Fprintln(out, "Organization cancelled. Remaining files were left untouched.")
				if runCtx.Err() != nil {
					return context.Canceled
				}
			}
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show where files would go without touching them")
	return cmd
}

// progressReporter draws a bar on terminals and prints event lines
// everywhere else.
type progressReporter struct {
	out     io.Writer
	verbose bool
	useBar  bool
	bar     *progressbar.ProgressBar
}

func newProgressReporter(out io.Writer, verbose bool) *progressReporter {
	return &progressReporter{
		out:     out,
		verbose: verbose,
		useBar:  isTerminal(out) && !verbose,
	}
}

func (r *progressReporter) handle(event organize.ProgressEvent) {
	if r.useBar {
		if r.bar == nil && event.Total > 0 {
			r.bar = progressbar.NewOptions(event.Total,
				progressbar.OptionSetWriter(r.out),
				progressbar.OptionSetDescription("Organizing"),
				progressbar.OptionSetWidth(20),
				progressbar.OptionShowCount(),
				progressbar.OptionShowIts(),
				progressbar.OptionClearOnFinish(),
			)
		}
		if r.bar != nil && event.Outcome != nil {
			_ = r.bar.Set(event.Processed)
		}
		return
	}

	if event.Level == organize.LevelVerbose && !r.verbose {
		return
	}
	fmt.Fprintln(r.out, levelPrefix(event.Level)+event.Message)
}

func (r *progressReporter) finish() {
	if r.bar != nil {
		_ = r.bar.Finish()
	}
}

func levelPrefix(level organize.ProgressLevel) string {
	switch level {
	case organize.LevelError:
		return "❌ "
	case organize.LevelWarning:
		return "⚠️  "
	case organize.LevelSuccess:
		return "✅ "
	case organize.LevelInfo:
		return "ℹ️  "
	default:
		return "   "
	}
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func renderSummary(s *organize.Summary) string {
	rows := [][]string{
		{"Mode", s.Mode.String()},
		{"Processed", strconv.Itoa(s.Processed)},
		{"Succeeded", strconv.Itoa(s.Succeeded)},
		{"Without metadata", strconv.Itoa(s.Degraded)},
		{"Skipped", strconv.Itoa(s.Skipped)},
		{"Failed", strconv.Itoa(s.Failed)},
		{"Renamed on collision", strconv.Itoa(len(s.Collisions))},
		{"Playlists", strconv.Itoa(len(s.Playlists))},
		{"Cancelled", yesNo(s.Cancelled)},
		{"Duration", s.Duration().Round(time.Millisecond).String()},
	}
	return renderTable([]string{"Run " + s.RunID, ""}, rows, []columnAlignment{alignLeft, alignRight})
}

func renderFailures(failures []organize.Failure) string {
	rows := make([][]string, 0, len(failures))
	for _, f := range failures {
		reason := ""
		if f.Err != nil {
			reason = f.Err.Error()
		}
		rows = append(rows, []string{f.Source, reason})
	}
	return renderTable([]string{"Failed file", "Reason"}, rows, nil)
}
