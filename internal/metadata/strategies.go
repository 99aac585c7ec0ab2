package metadata

import (
	"context"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/handiism/media-organizer/internal/audio"
	"github.com/handiism/media-organizer/internal/ebook"
	ioutils "github.com/handiism/media-organizer/internal/io"
	"github.com/handiism/media-organizer/internal/model"
)

// extractAudio combines tags with stream properties. It fails only when
// neither can be read.
func (e *Extractor) extractAudio(ctx context.Context, path string) (model.Fields, error) {
	fields := model.Fields{}

	tags, tagErr := audio.ReadTags(path)
	if tagErr != nil {
		tags = nil
	}

	props, propErr := audio.ReadProperties(path)
	if errors.Is(propErr, audio.ErrUnsupportedFormat) && e.prober != nil {
		if res, err := e.prober.Probe(ctx, path); err == nil {
			props = &audio.Properties{Duration: res.Duration, Bitrate: res.Bitrate}
			propErr = nil
		} else {
			propErr = err
		}
	}
	if propErr != nil {
		props = nil
	}

	if tags == nil && props == nil {
		return nil, errors.Join(tagErr, propErr)
	}
	if propErr != nil {
		e.log.WithField("path", path).WithError(propErr).Debug("audio properties unavailable")
	}

	if tags != nil {
		fields.Set("title", tags.Title)
		fields.Set("artist", tags.Artist)
		fields.Set("album", tags.Album)
		fields.Set("album_artist", tags.AlbumArtist)
		fields.Set("composer", tags.Composer)
		fields.Set("genre", tags.Genre)
		fields.SetInt("year", tags.Year)
		fields.SetInt("track", tags.Track)
		fields.SetInt("disc", tags.Disc)
	}

	if props != nil {
		fields["duration"] = model.FormatDuration(props.Duration)
		if props.Bitrate > 0 {
			fields["bitrate"] = fmt.Sprintf("%d kbps", props.Bitrate)
		}
		fields.SetInt("sample_rate", props.SampleRate)
	}

	if _, ok := fields.Get("title"); !ok {
		fields.Set("title", stem(path))
	}
	return fields, nil
}

// extractVideo probes the streams and reads container tags where the
// container has them. It fails only when both fail.
func (e *Extractor) extractVideo(ctx context.Context, path string) (model.Fields, error) {
	fields := model.Fields{}

	var probeErr error
	var probed *ProbeResult
	if e.prober == nil {
		probeErr = ErrNoProber
	} else {
		probed, probeErr = e.prober.Probe(ctx, path)
	}

	tags, tagErr := audio.ReadTags(path)

	if probeErr != nil && tagErr != nil {
		return nil, errors.Join(probeErr, tagErr)
	}

	if probed != nil {
		fields["duration"] = model.FormatDuration(probed.Duration)
		fields.SetInt("width", probed.Width)
		fields.SetInt("height", probed.Height)
		fields.Set("codec", probed.Codec)
		if probed.FrameRate > 0 {
			fields["frame_rate"] = strconv.FormatFloat(math.Round(probed.FrameRate*100)/100, 'f', -1, 64)
		}
	} else {
		e.log.WithField("path", path).WithError(probeErr).Debug("video probe unavailable")
	}

	if tags != nil {
		fields.Set("title", tags.Title)
		fields.Set("artist", tags.Artist)
		fields.Set("album", tags.Album)
		fields.Set("genre", tags.Genre)
		fields.SetInt("year", tags.Year)
	}

	return fields, nil
}

// extractImage reads the image header and EXIF data.
func extractImage(ctx context.Context, path string) (model.Fields, error) {
	info, err := ioutils.NewImageService().Inspect(ctx, path)
	if err != nil {
		return nil, err
	}

	fields := model.Fields{}
	fields.SetInt("width", info.Width)
	fields.SetInt("height", info.Height)
	fields.Set("format", strings.ToUpper(info.Format))
	fields.Set("camera_make", info.CameraMake)
	fields.Set("camera_model", info.CameraModel)

	if !info.Taken.IsZero() {
		fields["date_taken"] = info.Taken.Format("2006-01-02")
		fields["taken_year"] = info.Taken.Format("2006")
		fields["taken_month"] = info.Taken.Format("01")
	}
	return fields, nil
}

// extractEbook reads the ebook's own metadata. Books that describe nothing,
// or use a container without a reader, are titled after the file.
func extractEbook(_ context.Context, path string) (model.Fields, error) {
	meta, err := ebook.Read(path)
	switch {
	case errors.Is(err, ebook.ErrNoMetadata), errors.Is(err, ebook.ErrUnsupportedFormat):
		meta = &ebook.Metadata{}
	case err != nil:
		return nil, err
	}

	fields := model.Fields{}
	fields.Set("title", meta.Title)
	fields.Set("author", meta.Author)
	fields.SetInt("year", meta.Year)
	fields.Set("genre", meta.Genre)
	fields.Set("publisher", meta.Publisher)
	fields.Set("isbn", meta.ISBN)
	fields.Set("language", meta.Language)

	if _, ok := fields.Get("title"); !ok {
		fields.Set("title", stem(path))
	}
	return fields, nil
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
