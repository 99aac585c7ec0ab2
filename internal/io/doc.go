// Package ioutils provides file system utilities for the media organizer.
//
// This package contains functions for:
//   - No-clobber file copying and moving
//   - Exclusive file writing
//   - Filename sanitization and truncation
//   - Directory creation
//
// Placement functions never overwrite an existing file. When the destination
// already exists they return an error matching fs.ErrExist, and the caller
// picks another name.
//
// # File Operations
//
//	// Copy a file; fails with fs.ErrExist instead of overwriting
//	err := ioutils.CopyFile(ctx, "/in/song.mp3", "/out/audio/song.mp3")
//
//	// Move a file, falling back to copy+delete across devices
//	err := ioutils.MoveFile(ctx, "/in/song.mp3", "/out/audio/song.mp3")
//
//	// Ensure directory exists
//	err := ioutils.EnsureDir("/out/audio/Daft Punk")
//
// # Filename Sanitization
//
// Use SanitizeValue on metadata before it goes into a path, and
// SanitizeFileName on each finished path segment:
//
//	safe := ioutils.SanitizeValue("AC/DC")              // Returns "AC_DC"
//	name := ioutils.SanitizeFileName("Song: Part 1/2") // Returns "Song_ Part 1_2"
//
// # Image Inspection
//
// The ImageService reads image headers and EXIF data:
//
//	svc := ioutils.NewImageService()
//	info, _ := svc.Inspect(ctx, "/photos/IMG_0001.JPG")
package ioutils
