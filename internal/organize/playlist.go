package organize

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/handiism/media-organizer/internal/audio"
	ioutils "github.com/handiism/media-organizer/internal/io"
	"github.com/handiism/media-organizer/internal/model"
	"github.com/handiism/media-organizer/internal/pathformat"
)

// playlistSet collects the audio placed in each destination directory, in
// placement order.
type playlistSet struct {
	dirs    []string
	entries map[string][]audio.PlaylistEntry
}

func newPlaylistSet() *playlistSet {
	return &playlistSet{entries: make(map[string][]audio.PlaylistEntry)}
}

func (p *playlistSet) add(dest string, rec *model.Record) {
	dir := filepath.Dir(dest)
	if _, ok := p.entries[dir]; !ok {
		p.dirs = append(p.dirs, dir)
	}

	entry := audio.PlaylistEntry{File: filepath.Base(dest)}
	if rec != nil {
		entry.Title = known(rec.Fields, "title")
		entry.Artist = known(rec.Fields, "artist")
		entry.Album = known(rec.Fields, "album")
		entry.Duration = parseClock(known(rec.Fields, "duration"))
	}
	p.entries[dir] = append(p.entries[dir], entry)
}

// writePlaylists writes one playlist per directory that received audio,
// named after the directory. Existing files are never overwritten.
func (o *Organizer) writePlaylists(ctx context.Context, set *playlistSet, alloc *pathformat.Allocator,
	summary *Summary, log logrus.FieldLogger) {

	ext := o.playlist.Format().Extension()
	for _, dir := range set.dirs {
		title := filepath.Base(dir)
		name := ioutils.SanitizeFileName(title)
		if name == "" {
			name = "playlist"
		}
		name = ioutils.TruncateName(name+ext, ioutils.MaxNameBytes)
		content := []byte(o.playlist.CreatePlaylist(title, set.entries[dir]))

		path, err := o.writeExclusive(ctx, filepath.Join(dir, name), content, alloc)
		if err != nil {
			log.WithField("directory", dir).WithError(err).Warn("playlist not written")
			o.progress(ProgressEvent{Message: "Error creating playlist for " + title + ": " + err.Error(), Level: LevelWarning})
			continue
		}

		summary.Playlists = append(summary.Playlists, path)
		log.WithField("playlist", path).Info("playlist written")
		o.progress(ProgressEvent{Message: "Created playlist " + filepath.Base(path), Level: LevelSuccess})
	}
}

func (o *Organizer) writeExclusive(ctx context.Context, wanted string, data []byte, alloc *pathformat.Allocator) (string, error) {
	for attempt := 0; attempt < maxPlaceAttempts; attempt++ {
		path, _ := alloc.Claim(wanted)
		err := ioutils.WriteFileExclusive(ctx, path, data)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		return path, err
	}
	return "", fs.ErrExist
}

func known(f model.Fields, name string) string {
	v, ok := f.Get(name)
	if !ok {
		return ""
	}
	return v
}

// parseClock reads the m:ss form of FormatDuration back into seconds.
func parseClock(s string) float64 {
	m, sec, ok := strings.Cut(s, ":")
	if !ok {
		return 0
	}
	mins, err1 := strconv.Atoi(m)
	secs, err2 := strconv.Atoi(sec)
	if err1 != nil || err2 != nil {
		return 0
	}
	return float64(mins*60 + secs)
}
