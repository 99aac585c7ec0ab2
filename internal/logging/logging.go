// Package logging configures the logrus logger shared by the commands.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// Options selects where log lines go.
type Options struct {
	// Level is a logrus level name such as "info" or "debug".
	Level string

	// File is appended to when set. Its directory is created.
	File string

	// Verbose also writes to Console. Without a File, Console is always
	// used.
	Verbose bool

	// Console defaults to os.Stderr.
	Console io.Writer
}

// New builds a logger from opts. The returned closer releases the log file
// and must be called when the logger is no longer used.
//
// Example:
//
//	log, closer, err := logging.New(logging.Options{Level: "info", File: settings.LogFile})
//	if err != nil {
//	    return err
//	}
//	defer closer.Close()
func New(opts Options) (*logrus.Logger, io.Closer, error) {
	level := logrus.InfoLevel
	if opts.Level != "" {
		var err error
		if level, err = logrus.ParseLevel(opts.Level); err != nil {
			return nil, nil, err
		}
	}

	console := opts.Console
	if console == nil {
		console = os.Stderr
	}

	log := logrus.New()
	log.SetLevel(level)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if opts.File == "" {
		log.SetOutput(console)
		return log, nopCloser{}, nil
	}

	if err := os.MkdirAll(filepath.Dir(opts.File), 0755); err != nil {
		return nil, nil, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(opts.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}

	// Files never get color codes.
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, DisableColors: true})
	if opts.Verbose {
		log.SetOutput(io.MultiWriter(f, console))
	} else {
		log.SetOutput(f)
	}
	return log, f, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Discard returns a logger that drops everything.
func Discard() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}
