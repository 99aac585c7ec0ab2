package main

import (
	"io"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/handiism/media-organizer/internal/config"
	"github.com/handiism/media-organizer/internal/logging"
	"github.com/handiism/media-organizer/internal/organize"
)

type commandContext struct {
	configFlag  *string
	verboseFlag *bool

	settingsOnce sync.Once
	settings     *config.Settings
	settingsErr  error

	log    *logrus.Logger
	closer io.Closer
}

func newCommandContext(configFlag *string, verboseFlag *bool) *commandContext {
	return &commandContext{
		configFlag:  configFlag,
		verboseFlag: verboseFlag,
	}
}

func (c *commandContext) configPath() string {
	if c.configFlag != nil {
		if path := strings.TrimSpace(*c.configFlag); path != "" {
			return path
		}
	}
	return config.DefaultPath()
}

func (c *commandContext) verbose() bool {
	return c.verboseFlag != nil && *c.verboseFlag
}

func (c *commandContext) ensureSettings() (*config.Settings, error) {
	c.settingsOnce.Do(func() {
		c.settings, c.settingsErr = config.Load(c.configPath())
	})
	return c.settings, c.settingsErr
}

// logger opens the log file on first use. Verbose runs also log to the
// command's error stream.
func (c *commandContext) logger(cmd *cobra.Command) (*logrus.Logger, error) {
	if c.log != nil {
		return c.log, nil
	}
	settings, err := c.ensureSettings()
	if err != nil {
		return nil, err
	}

	log, closer, err := logging.New(logging.Options{
		Level:   settings.LoggingLevel,
		File:    settings.LogFile,
		Verbose: c.verbose(),
		Console: cmd.ErrOrStderr(),
	})
	if err != nil {
		return nil, err
	}
	c.log, c.closer = log, closer
	return log, nil
}

func (c *commandContext) close() {
	if c.closer != nil {
		_ = c.closer.Close()
		c.closer = nil
		c.log = nil
	}
}

// newOrganizer builds an organizer for settings with the command logger.
func (c *commandContext) newOrganizer(cmd *cobra.Command, settings *config.Settings, onProgress func(organize.ProgressEvent)) (*organize.Organizer, error) {
	log, err := c.logger(cmd)
	if err != nil {
		return nil, err
	}
	return organize.NewOrganizer(settings, onProgress, organize.WithLogger(log))
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
