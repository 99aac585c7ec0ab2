package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/sirupsen/logrus"

	"github.com/handiism/media-organizer/internal/audio"
	"github.com/handiism/media-organizer/internal/model"
	"github.com/handiism/media-organizer/internal/registry"
)

// AppName names the settings directory and the default output folder.
const AppName = "media-organizer"

// DefaultTemplates are the per-category path templates used when the
// settings file does not set one.
var DefaultTemplates = map[string]string{
	"audio": "{creation_year}/{genre}/{filename}",
	"video": "{creation_year}/{filename}",
	"image": "{creation_year}/{filename}",
	"ebook": "{author}/{title}/{filename}",
}

// Settings holds all configuration options.
type Settings struct {
	// Locations
	SourcePath    string `json:"source_path" yaml:"source_path" toml:"source_path" env:"MEDIA_ORGANIZER_SOURCE"`
	OutputPath    string `json:"output_path" yaml:"output_path" toml:"output_path" env:"MEDIA_ORGANIZER_OUTPUT"`
	OperationMode string `json:"operation_mode" yaml:"operation_mode" toml:"operation_mode" env:"MEDIA_ORGANIZER_MODE"` // copy, move

	// Path rendering
	Templates       map[string]string `json:"templates" yaml:"templates" toml:"templates"`
	ExcludeUnknown  map[string]bool   `json:"exclude_unknown" yaml:"exclude_unknown" toml:"exclude_unknown"`
	UnknownTemplate string            `json:"unknown_template" yaml:"unknown_template" toml:"unknown_template"` // empty skips unknown files

	// Classification
	Extensions   map[string][]string `json:"extensions" yaml:"extensions" toml:"extensions"`
	EnabledTypes []string            `json:"enabled_types" yaml:"enabled_types" toml:"enabled_types" env:"MEDIA_ORGANIZER_TYPES" env-separator:","`

	// Playlist settings
	CreatePlaylists bool   `json:"create_playlists" yaml:"create_playlists" toml:"create_playlists"`
	PlaylistFormat  string `json:"playlist_format" yaml:"playlist_format" toml:"playlist_format"` // m3u, pls, wpl, zpl
	M3UExtended     bool   `json:"m3u_extended" yaml:"m3u_extended" toml:"m3u_extended"`

	// Preview
	PreviewLimit   int `json:"preview_limit" yaml:"preview_limit" toml:"preview_limit"`
	PreviewWorkers int `json:"preview_workers" yaml:"preview_workers" toml:"preview_workers"`

	// Tools and logging
	FFprobePath  string `json:"ffprobe_path" yaml:"ffprobe_path" toml:"ffprobe_path" env:"MEDIA_ORGANIZER_FFPROBE"`
	LoggingLevel string `json:"logging_level" yaml:"logging_level" toml:"logging_level" env:"MEDIA_ORGANIZER_LOG_LEVEL"`
	LogFile      string `json:"log_file" yaml:"log_file" toml:"log_file"`
}

// DefaultSettings returns settings with default values.
func DefaultSettings() *Settings {
	homeDir, _ := os.UserHomeDir()

	templates := make(map[string]string, len(DefaultTemplates))
	exclude := make(map[string]bool, len(DefaultTemplates))
	for name, tmpl := range DefaultTemplates {
		templates[name] = tmpl
		exclude[name] = true
	}

	enabled := make([]string, 0, len(model.Categories))
	for _, c := range model.Categories {
		enabled = append(enabled, c.String())
	}

	return &Settings{
		OutputPath:    filepath.Join(homeDir, "Organized"),
		OperationMode: model.ModeCopy.String(),

		Templates:      templates,
		ExcludeUnknown: exclude,

		Extensions:   registry.NewDefault().Snapshot(),
		EnabledTypes: enabled,

		CreatePlaylists: false,
		PlaylistFormat:  "m3u",
		M3UExtended:     true,

		PreviewLimit:   100,
		PreviewWorkers: 4,

		FFprobePath:  "ffprobe",
		LoggingLevel: "info",
		LogFile:      DefaultLogPath(),
	}
}

// DefaultPath returns the settings file location under the user config
// directory, e.g. ~/.config/media-organizer/settings.json.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, AppName, "settings.json")
}

// DefaultLogPath returns the log file location under the user cache
// directory.
func DefaultLogPath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, AppName, AppName+".log")
}

// Load reads settings from a JSON, YAML or TOML file and applies
// MEDIA_ORGANIZER_* environment overrides.
//
// Values missing from the file keep their defaults. A missing file is not
// an error: the defaults plus the environment are returned.
func Load(path string) (*Settings, error) {
	settings := DefaultSettings()

	_, err := os.Stat(path)
	switch {
	case err == nil:
		if err := cleanenv.ReadConfig(path, settings); err != nil {
			return nil, fmt.Errorf("load settings %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
		if err := cleanenv.ReadEnv(settings); err != nil {
			return nil, fmt.Errorf("read environment: %w", err)
		}
	default:
		return nil, err
	}

	return settings, nil
}

// Save writes settings to a JSON file.
func (s *Settings) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Validate reports every invalid value at once.
func (s *Settings) Validate() error {
	var errs []error

	if _, err := s.Mode(); err != nil {
		errs = append(errs, err)
	}
	if _, err := s.Categories(); err != nil {
		errs = append(errs, fmt.Errorf("enabled_types: %w", err))
	}
	if _, err := s.Registry(); err != nil {
		errs = append(errs, fmt.Errorf("extensions: %w", err))
	}
	for name := range s.Templates {
		if c, err := model.ParseCategory(name); err != nil || c == model.CategoryUnknown {
			errs = append(errs, fmt.Errorf("templates: unknown media category %q", name))
		}
	}
	if _, err := s.Playlist(); err != nil {
		errs = append(errs, fmt.Errorf("playlist_format: %w", err))
	}
	if _, err := logrus.ParseLevel(s.LoggingLevel); err != nil {
		errs = append(errs, fmt.Errorf("logging_level: %w", err))
	}
	if s.PreviewWorkers < 1 {
		errs = append(errs, fmt.Errorf("preview_workers must be at least 1, got %d", s.PreviewWorkers))
	}
	if s.SourcePath != "" && s.OutputPath != "" && filepath.Clean(s.SourcePath) == filepath.Clean(s.OutputPath) {
		errs = append(errs, errors.New("source_path and output_path must differ"))
	}

	return errors.Join(errs...)
}

// Mode parses OperationMode.
func (s *Settings) Mode() (model.Mode, error) {
	return model.ParseMode(s.OperationMode)
}

// Categories parses EnabledTypes.
func (s *Settings) Categories() ([]model.Category, error) {
	return model.ParseCategories(s.EnabledTypes)
}

// Registry builds the extension registry from Extensions.
func (s *Settings) Registry() (*registry.Registry, error) {
	return registry.FromMap(s.Extensions)
}

// Playlist parses PlaylistFormat.
func (s *Settings) Playlist() (audio.PlaylistFormat, error) {
	return audio.ParsePlaylistFormat(s.PlaylistFormat)
}

// Template returns the path template for c. Unknown files use
// UnknownTemplate; categories without a configured template use
// DefaultTemplates.
func (s *Settings) Template(c model.Category) string {
	if c == model.CategoryUnknown {
		return s.UnknownTemplate
	}
	if t := strings.TrimSpace(s.Templates[c.String()]); t != "" {
		return t
	}
	return DefaultTemplates[c.String()]
}

// ExcludesUnknown reports whether Unknown directories are dropped for c.
// Categories missing from the table default to true.
func (s *Settings) ExcludesUnknown(c model.Category) bool {
	v, ok := s.ExcludeUnknown[c.String()]
	return !ok || v
}

// SetTypes replaces EnabledTypes from a comma separated list such as
// "audio,image".
func (s *Settings) SetTypes(list string) error {
	var names []string
	for _, name := range strings.Split(list, ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	if _, err := model.ParseCategories(names); err != nil {
		return err
	}
	s.EnabledTypes = names
	return nil
}
