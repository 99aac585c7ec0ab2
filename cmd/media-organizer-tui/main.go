package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/handiism/media-organizer/internal/config"
	"github.com/handiism/media-organizer/internal/logging"
	"github.com/handiism/media-organizer/internal/tui"
)

func main() {
	configFlag := flag.String("config", config.DefaultPath(), "Path to settings file")
	flag.Parse()

	settings, err := config.Load(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading settings: %v\n", err)
		os.Exit(1)
	}

	// The terminal belongs to the UI, so logs only go to the file.
	log, closer, err := logging.New(logging.Options{
		Level:   settings.LoggingLevel,
		File:    settings.LogFile,
		Console: io.Discard,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening log: %v\n", err)
		os.Exit(1)
	}

	err = tui.Run(settings, log)
	closer.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
