package organize

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/gofrs/flock"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/handiism/media-organizer/internal/config"
	"github.com/handiism/media-organizer/internal/metadata"
	"github.com/handiism/media-organizer/internal/model"
)

type fixture struct {
	org    *Organizer
	src    string
	out    string
	events []ProgressEvent
}

// daftPunk tags every audio file as Discovery by Daft Punk.
func daftPunk(_ context.Context, path string) (model.Fields, error) {
	f := model.Fields{}
	f.Set("artist", "Daft Punk")
	f.Set("album", "Discovery")
	f.Set("title", strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
	f["duration"] = "3:20"
	return f, nil
}

func newFixture(t *testing.T, configure func(*config.Settings), opts ...metadata.Option) *fixture {
	t.Helper()

	fx := &fixture{src: t.TempDir(), out: filepath.Join(t.TempDir(), "organized")}

	s := config.DefaultSettings()
	s.SourcePath = fx.src
	s.OutputPath = fx.out
	s.Templates["audio"] = "{file_type}/{artist}/{album}/{filename}"
	if configure != nil {
		configure(s)
	}

	log, _ := test.NewNullLogger()
	if len(opts) == 0 {
		opts = []metadata.Option{metadata.WithStrategy(model.CategoryAudio, daftPunk)}
	}
	opts = append(opts, metadata.WithLogger(log))

	org, err := NewOrganizer(s, func(e ProgressEvent) {
		fx.events = append(fx.events, e)
	}, WithLogger(log), WithExtractor(metadata.New(opts...)))
	require.NoError(t, err)

	fx.org = org
	return fx
}

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// placedFiles lists the regular files under root, relative to it, skipping
// the run lock.
func placedFiles(t *testing.T, root string) []string {
	t.Helper()
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return filepath.SkipAll
			}
			return err
		}
		if d.IsDir() || d.Name() == LockFileName {
			return nil
		}
		rel, _ := filepath.Rel(root, path)
		files = append(files, rel)
		return nil
	})
	require.NoError(t, err)
	return files
}

func TestOrganize_ArtistAlbumLayout(t *testing.T) {
	fx := newFixture(t, nil)
	src := writeFile(t, filepath.Join(fx.src, "one_more_time.mp3"), "audio")

	summary, err := fx.org.Organize(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, 0, summary.Failed)
	assert.NotEmpty(t, summary.RunID)
	assert.False(t, summary.Finished.Before(summary.Started))

	want := filepath.Join("audio", "Daft Punk", "Discovery", "one_more_time.mp3")
	assert.Equal(t, []string{want}, placedFiles(t, fx.out))
	assert.FileExists(t, src, "copy mode keeps the source")

	data, err := os.ReadFile(filepath.Join(fx.out, want))
	require.NoError(t, err)
	assert.Equal(t, "audio", string(data))
}

func TestRun_UnreadableFileFailsAndBatchCompletes(t *testing.T) {
	fx := newFixture(t, nil)

	var files []string
	for i := 1; i <= 9; i++ {
		files = append(files, writeFile(t, filepath.Join(fx.src, fmt.Sprintf("track%02d.mp3", i)), "x"))
	}
	missing := filepath.Join(fx.src, "vanished.mp3")
	files = slices.Insert(files, 4, missing)

	summary, err := fx.org.Run(context.Background(), slices.Values(files), model.ModeCopy)
	require.NoError(t, err)

	assert.Equal(t, 10, summary.Processed)
	assert.Equal(t, 9, summary.Succeeded)
	assert.Equal(t, 1, summary.Failed)
	assert.False(t, summary.Cancelled)
	require.Len(t, summary.Failures, 1)
	assert.Equal(t, missing, summary.Failures[0].Source)
	assert.Len(t, placedFiles(t, fx.out), 9)
}

func TestRun_CancelAfterThirdFile(t *testing.T) {
	fx := newFixture(t, func(s *config.Settings) { s.OperationMode = "move" })

	var files []string
	for i := 1; i <= 10; i++ {
		files = append(files, writeFile(t, filepath.Join(fx.src, fmt.Sprintf("track%02d.mp3", i)), "x"))
	}

	org := fx.org
	org.onProgress = func(e ProgressEvent) {
		if e.Outcome != nil && e.Processed == 3 {
			org.Cancel()
		}
	}

	summary, err := org.Run(context.Background(), slices.Values(files), model.ModeMove)
	require.NoError(t, err)

	assert.True(t, summary.Cancelled)
	assert.Equal(t, 3, summary.Processed)
	assert.Equal(t, 3, summary.Succeeded)
	assert.Len(t, placedFiles(t, fx.out), 3)

	for i, f := range files {
		if i < 3 {
			assert.NoFileExists(t, f)
		} else {
			assert.FileExists(t, f, "untouched after cancel")
		}
	}
}

func TestRun_ContextCancelled(t *testing.T) {
	fx := newFixture(t, nil)

	var files []string
	for i := 1; i <= 5; i++ {
		files = append(files, writeFile(t, filepath.Join(fx.src, fmt.Sprintf("t%d.mp3", i)), "x"))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	fx.org.onProgress = func(e ProgressEvent) {
		if e.Outcome != nil && e.Processed == 2 {
			cancel()
		}
	}

	summary, err := fx.org.Run(ctx, slices.Values(files), model.ModeCopy)
	require.NoError(t, err)
	assert.True(t, summary.Cancelled)
	assert.Equal(t, 2, summary.Succeeded)
}

func TestRun_CollisionsGetSuffixes(t *testing.T) {
	fx := newFixture(t, func(s *config.Settings) { s.Templates["audio"] = "{filename}" })

	a := writeFile(t, filepath.Join(fx.src, "a", "song.mp3"), "a")
	b := writeFile(t, filepath.Join(fx.src, "b", "song.mp3"), "b")
	c := writeFile(t, filepath.Join(fx.src, "c", "song.mp3"), "c")
	writeFile(t, filepath.Join(fx.out, "song (1).mp3"), "already there")

	summary, err := fx.org.Run(context.Background(), slices.Values([]string{a, b, c}), model.ModeCopy)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Succeeded)

	assert.ElementsMatch(t, []string{"song.mp3", "song (1).mp3", "song (2).mp3", "song (3).mp3"}, placedFiles(t, fx.out))
	require.Len(t, summary.Collisions, 2)
	assert.Equal(t, filepath.Join(fx.out, "song.mp3"), summary.Collisions[0].Wanted)
	assert.Equal(t, filepath.Join(fx.out, "song (2).mp3"), summary.Collisions[0].Actual)
	assert.Equal(t, filepath.Join(fx.out, "song (3).mp3"), summary.Collisions[1].Actual)

	data, err := os.ReadFile(filepath.Join(fx.out, "song (1).mp3"))
	require.NoError(t, err)
	assert.Equal(t, "already there", string(data), "existing files are never overwritten")
}

func TestRun_DegradedFileIsStillPlaced(t *testing.T) {
	fx := newFixture(t, func(s *config.Settings) { s.Templates["audio"] = "{artist}/{filename}" },
		metadata.WithStrategy(model.CategoryAudio, func(context.Context, string) (model.Fields, error) {
			return nil, errors.New("corrupt header")
		}))
	src := writeFile(t, filepath.Join(fx.src, "one.mp3"), "x")

	summary, err := fx.org.Run(context.Background(), slices.Values([]string{src}), model.ModeCopy)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, 1, summary.Degraded)
	assert.Equal(t, []string{filepath.Join("audio", "one.mp3")}, placedFiles(t, fx.out))

	var warned bool
	for _, e := range fx.events {
		if e.Outcome != nil && e.Outcome.Degraded && e.Level == LevelWarning {
			warned = true
			assert.ErrorIs(t, e.Outcome.Err, metadata.ErrMetadataUnavailable)
		}
	}
	assert.True(t, warned)
}

func TestRun_UnknownFilesSkipped(t *testing.T) {
	fx := newFixture(t, nil)
	notes := writeFile(t, filepath.Join(fx.src, "notes.txt"), "x")

	summary, err := fx.org.Run(context.Background(), slices.Values([]string{notes}), model.ModeCopy)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Skipped)
	assert.Empty(t, placedFiles(t, fx.out))
}

func TestOrganize_UnknownTemplate(t *testing.T) {
	fx := newFixture(t, func(s *config.Settings) { s.UnknownTemplate = "misc/{extension}/{filename}" })
	writeFile(t, filepath.Join(fx.src, "notes.TXT"), "x")
	writeFile(t, filepath.Join(fx.src, "README"), "x")

	summary, err := fx.org.Organize(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Succeeded)
	assert.ElementsMatch(t, []string{
		filepath.Join("misc", "txt", "notes.txt"),
		filepath.Join("misc", "README"),
	}, placedFiles(t, fx.out))
}

func TestRun_MoveRemovesSource(t *testing.T) {
	fx := newFixture(t, nil)
	src := writeFile(t, filepath.Join(fx.src, "one_more_time.mp3"), "x")

	summary, err := fx.org.Run(context.Background(), slices.Values([]string{src}), model.ModeMove)
	require.NoError(t, err)

	assert.Equal(t, model.ModeMove, summary.Mode)
	assert.Equal(t, 1, summary.Succeeded)
	assert.NoFileExists(t, src)
	assert.FileExists(t, filepath.Join(fx.out, "audio", "Daft Punk", "Discovery", "one_more_time.mp3"))
}

func TestRun_AlreadyInPlace(t *testing.T) {
	fx := newFixture(t, func(s *config.Settings) { s.Templates["audio"] = "{filename}" })
	inPlace := writeFile(t, filepath.Join(fx.out, "song.mp3"), "x")

	summary, err := fx.org.Run(context.Background(), slices.Values([]string{inPlace}), model.ModeMove)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Skipped)
	assert.FileExists(t, inPlace)
	assert.Equal(t, []string{"song.mp3"}, placedFiles(t, fx.out))
}

func TestOrganize_OutputInsideSource(t *testing.T) {
	fx := newFixture(t, nil)
	fx.org.settings.OutputPath = filepath.Join(fx.src, "sorted")
	writeFile(t, filepath.Join(fx.src, "a.mp3"), "x")
	writeFile(t, filepath.Join(fx.src, "sub", "b.flac"), "x")

	summary, err := fx.org.Organize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Processed)

	again, err := fx.org.FindFiles(context.Background(), fx.src, fx.org.enabled)
	require.NoError(t, err)
	assert.Len(t, slices.Collect(again), 2, "organized copies are not walked again")
}

func TestOrganize_LockHeld(t *testing.T) {
	fx := newFixture(t, nil)
	writeFile(t, filepath.Join(fx.src, "a.mp3"), "x")
	require.NoError(t, os.MkdirAll(fx.out, 0755))

	lock := flock.New(filepath.Join(fx.out, LockFileName))
	locked, err := lock.TryLock()
	require.NoError(t, err)
	require.True(t, locked)
	defer lock.Unlock()

	_, err = fx.org.Organize(context.Background())
	assert.ErrorIs(t, err, ErrRunInProgress)
	assert.Empty(t, placedFiles(t, fx.out))
}

func TestOrganize_Playlists(t *testing.T) {
	fx := newFixture(t, func(s *config.Settings) {
		s.CreatePlaylists = true
		s.PlaylistFormat = "m3u"
		s.M3UExtended = true
	})
	writeFile(t, filepath.Join(fx.src, "01 one.mp3"), "x")
	writeFile(t, filepath.Join(fx.src, "02 two.mp3"), "x")
	writeFile(t, filepath.Join(fx.src, "cover.jpg"), "x")

	summary, err := fx.org.Organize(context.Background())
	require.NoError(t, err)

	want := filepath.Join(fx.out, "audio", "Daft Punk", "Discovery", "Discovery.m3u")
	assert.Equal(t, []string{want}, summary.Playlists)

	data, err := os.ReadFile(want)
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "#EXTM3U")
	assert.Contains(t, content, "#EXTINF:200,Daft Punk - 01 one")
	assert.Contains(t, content, "01 one.mp3")
	assert.Contains(t, content, "02 two.mp3")
	assert.Less(t, strings.Index(content, "01 one.mp3"), strings.Index(content, "02 two.mp3"))

	// A second run never overwrites the first playlist.
	writeFile(t, filepath.Join(fx.src, "03 three.mp3"), "x")
	again, err := fx.org.Organize(context.Background())
	require.NoError(t, err)
	require.Len(t, again.Playlists, 1)
	assert.Equal(t, filepath.Join(fx.out, "audio", "Daft Punk", "Discovery", "Discovery (1).m3u"), again.Playlists[0])
}

func TestPreview_TouchesNothing(t *testing.T) {
	fx := newFixture(t, func(s *config.Settings) { s.Templates["audio"] = "{filename}" })
	writeFile(t, filepath.Join(fx.src, "a", "song.mp3"), "x")
	writeFile(t, filepath.Join(fx.src, "b", "song.mp3"), "x")
	writeFile(t, filepath.Join(fx.src, "c", "other.mp3"), "x")

	plans, err := fx.org.Preview(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, plans, 3)

	assert.Equal(t, filepath.Join(fx.out, "song.mp3"), plans[0].Destination)
	assert.Equal(t, filepath.Join(fx.out, "song (1).mp3"), plans[1].Destination)
	assert.Equal(t, 1, plans[1].Suffix)
	assert.Equal(t, filepath.Join(fx.out, "other.mp3"), plans[2].Destination)
	assert.Equal(t, "Daft Punk", plans[0].Fields["artist"])

	assert.NoDirExists(t, fx.out)

	limited, err := fx.org.Preview(context.Background(), 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestPreview_CancelledContext(t *testing.T) {
	fx := newFixture(t, nil)
	writeFile(t, filepath.Join(fx.src, "a.mp3"), "x")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := fx.org.Preview(ctx, 0)
	assert.Error(t, err)
}

func TestFindFiles(t *testing.T) {
	fx := newFixture(t, nil)
	writeFile(t, filepath.Join(fx.src, "SONG.MP3"), "x")
	writeFile(t, filepath.Join(fx.src, "deep", "er", "photo.jpg"), "x")
	writeFile(t, filepath.Join(fx.src, "book.epub"), "x")
	writeFile(t, filepath.Join(fx.src, "notes.txt"), "x")
	writeFile(t, filepath.Join(fx.src, ".partial-123"), "x")
	writeFile(t, filepath.Join(fx.src, LockFileName), "x")

	files, err := fx.org.FindFiles(context.Background(), fx.src, []model.Category{model.CategoryAudio, model.CategoryImage})
	require.NoError(t, err)

	got := slices.Collect(files)
	assert.Equal(t, []string{
		filepath.Join(fx.src, "SONG.MP3"),
		filepath.Join(fx.src, "deep", "er", "photo.jpg"),
	}, got)

	// The sequence walks again from scratch.
	assert.Equal(t, got, slices.Collect(files))
}

func TestFindFiles_MissingRoot(t *testing.T) {
	fx := newFixture(t, nil)
	_, err := fx.org.FindFiles(context.Background(), filepath.Join(fx.src, "nope"), model.Categories)
	assert.ErrorIs(t, err, ErrSourceNotFound)

	file := writeFile(t, filepath.Join(fx.src, "a.mp3"), "x")
	_, err = fx.org.FindFiles(context.Background(), file, model.Categories)
	assert.ErrorIs(t, err, ErrSourceNotFound)
}

func TestProgress_Counters(t *testing.T) {
	fx := newFixture(t, nil)
	writeFile(t, filepath.Join(fx.src, "a.mp3"), "x")
	writeFile(t, filepath.Join(fx.src, "b.mp3"), "x")

	_, err := fx.org.Organize(context.Background())
	require.NoError(t, err)

	counts := fx.org.Progress()
	assert.Equal(t, Counts{Processed: 2, Total: 2, Succeeded: 2}, counts)

	last := fx.events[len(fx.events)-1]
	assert.Equal(t, LevelSuccess, last.Level)
	assert.Nil(t, last.Outcome)
}

func TestNewOrganizer_InvalidSettings(t *testing.T) {
	s := config.DefaultSettings()
	s.OperationMode = "teleport"
	_, err := NewOrganizer(s, nil)
	assert.ErrorIs(t, err, model.ErrInvalidMode)
}

func TestInspect(t *testing.T) {
	fx := newFixture(t, nil)
	path := writeFile(t, filepath.Join(fx.src, "one_more_time.mp3"), "x")

	rec, err := fx.org.Inspect(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, model.CategoryAudio, rec.Category)
	assert.Equal(t, "Daft Punk", rec.Fields["artist"])
	assert.Equal(t, "one_more_time", rec.Fields["title"])
}

func TestParseClock(t *testing.T) {
	assert.Equal(t, 200.0, parseClock("3:20"))
	assert.Equal(t, 0.0, parseClock(model.Unknown))
}
