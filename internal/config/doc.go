// Package config provides configuration management for media-organizer.
//
// This package handles:
//   - Loading settings from JSON, YAML or TOML files with cleanenv
//   - MEDIA_ORGANIZER_* environment overrides
//   - Saving settings as indented JSON
//   - Validation and conversion to the types other packages use
//
// # Default Settings
//
//	settings := config.DefaultSettings()
//	// Copies into ~/Organized
//	// Audio: {creation_year}/{genre}/{filename}
//	// Ebooks: {author}/{title}/{filename}
//
// # Loading from File
//
//	settings, err := config.Load(config.DefaultPath())
//	if err != nil {
//	    // the file exists but could not be parsed
//	}
//
// A missing file yields the defaults. Values present in the file replace
// the defaults; map values such as templates are merged per key.
//
// # Environment Overrides
//
//	MEDIA_ORGANIZER_SOURCE     source_path
//	MEDIA_ORGANIZER_OUTPUT     output_path
//	MEDIA_ORGANIZER_MODE       operation_mode (copy, move)
//	MEDIA_ORGANIZER_TYPES      enabled_types, comma separated
//	MEDIA_ORGANIZER_FFPROBE    ffprobe_path
//	MEDIA_ORGANIZER_LOG_LEVEL  logging_level
//
// # Saving Settings
//
//	settings.Templates["audio"] = "{artist}/{album}/{filename}"
//	err := settings.Save(config.DefaultPath())
package config
