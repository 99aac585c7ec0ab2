package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/handiism/media-organizer/internal/audio"
	"github.com/handiism/media-organizer/internal/model"
)

func TestDefaultSettings_Valid(t *testing.T) {
	s := DefaultSettings()
	require.NoError(t, s.Validate())

	mode, err := s.Mode()
	require.NoError(t, err)
	assert.Equal(t, model.ModeCopy, mode)

	cats, err := s.Categories()
	require.NoError(t, err)
	assert.Equal(t, model.Categories, cats)

	assert.Equal(t, "{author}/{title}/{filename}", s.Template(model.CategoryEbook))
	assert.True(t, s.ExcludesUnknown(model.CategoryAudio))
	assert.Equal(t, 100, s.PreviewLimit)
}

func TestLoad_MissingFileGivesDefaults(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)
	assert.Equal(t, DefaultSettings().Templates, s.Templates)
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "settings.json")

	s := DefaultSettings()
	s.SourcePath = "/in"
	s.OutputPath = "/out"
	s.OperationMode = "move"
	s.Templates["audio"] = "{artist}/{album}/{filename}"
	s.ExcludeUnknown["image"] = false
	s.CreatePlaylists = true
	s.PlaylistFormat = "pls"
	require.NoError(t, s.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/in", loaded.SourcePath)
	assert.Equal(t, "/out", loaded.OutputPath)
	assert.Equal(t, "{artist}/{album}/{filename}", loaded.Template(model.CategoryAudio))
	assert.False(t, loaded.ExcludesUnknown(model.CategoryImage))
	assert.True(t, loaded.CreatePlaylists)

	format, err := loaded.Playlist()
	require.NoError(t, err)
	assert.Equal(t, audio.FormatPLS, format)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"templates": {"video": "{year}/{title}"}}`), 0644))

	s, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "{year}/{title}", s.Template(model.CategoryVideo))
	assert.Equal(t, DefaultTemplates["audio"], s.Template(model.CategoryAudio))
	assert.Equal(t, "copy", s.OperationMode)
	assert.Equal(t, 4, s.PreviewWorkers)
}

func TestLoad_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("operation_mode: move\npreview_limit: 7\n"), 0644))

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "move", s.OperationMode)
	assert.Equal(t, 7, s.PreviewLimit)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("MEDIA_ORGANIZER_SOURCE", "/env/in")
	t.Setenv("MEDIA_ORGANIZER_MODE", "move")
	t.Setenv("MEDIA_ORGANIZER_TYPES", "audio,ebook")
	t.Setenv("MEDIA_ORGANIZER_LOG_LEVEL", "debug")

	path := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"source_path": "/file/in", "operation_mode": "copy"}`), 0644))

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/env/in", s.SourcePath)
	assert.Equal(t, "move", s.OperationMode)
	assert.Equal(t, []string{"audio", "ebook"}, s.EnabledTypes)
	assert.Equal(t, "debug", s.LoggingLevel)

	missing, err := Load(filepath.Join(t.TempDir(), "none.json"))
	require.NoError(t, err)
	assert.Equal(t, "/env/in", missing.SourcePath)
}

func TestLoad_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"templates": `), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	s := DefaultSettings()
	s.OperationMode = "link"
	s.EnabledTypes = []string{"audio", "podcast"}
	s.PlaylistFormat = "xspf"
	s.LoggingLevel = "loud"
	s.PreviewWorkers = 0
	s.Templates["sculpture"] = "{x}"

	err := s.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrInvalidMode)
	for _, want := range []string{"enabled_types", "playlist_format", "logging_level", "preview_workers", "sculpture"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestValidate_SameSourceAndOutput(t *testing.T) {
	s := DefaultSettings()
	s.SourcePath = "/media"
	s.OutputPath = "/media/"
	assert.Error(t, s.Validate())
}

func TestValidate_ConflictingExtensions(t *testing.T) {
	s := DefaultSettings()
	s.Extensions["video"] = append(s.Extensions["video"], ".mp3")
	assert.Error(t, s.Validate())
}

func TestSetTypes(t *testing.T) {
	s := DefaultSettings()
	require.NoError(t, s.SetTypes(" audio, image ,"))
	assert.Equal(t, []string{"audio", "image"}, s.EnabledTypes)

	assert.Error(t, s.SetTypes("audio,podcast"))
	assert.Equal(t, []string{"audio", "image"}, s.EnabledTypes)
}

func TestTemplate_Unknown(t *testing.T) {
	s := DefaultSettings()
	assert.Empty(t, s.Template(model.CategoryUnknown))

	s.UnknownTemplate = "misc/{extension}/{filename}"
	assert.Equal(t, "misc/{extension}/{filename}", s.Template(model.CategoryUnknown))
}
