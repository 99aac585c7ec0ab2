package ioutils

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
)

// PartialPrefix starts the name of every temporary file written by CopyFile.
const PartialPrefix = ".partial-"

// MaxNameBytes is the longest file or directory name most file systems accept.
const MaxNameBytes = 255

var (
	invalidChars    = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)
	trailingDots    = regexp.MustCompile(`[.\s]+$`)
	multiWhitespace = regexp.MustCompile(`\s+`)
)

// IsPartial reports whether name is a temporary file left by CopyFile.
func IsPartial(name string) bool {
	return strings.HasPrefix(filepath.Base(name), PartialPrefix)
}

// CopyFile copies src to dst without ever overwriting dst.
//
// The data is first written to a temporary file next to dst, with the
// source's permission bits and modification time applied. The temporary file
// is then hard-linked to dst, which fails if dst exists. A reader therefore
// never sees a half-written dst.
//
// Parameters:
//   - ctx: Checked before the copy starts; a copy in progress is not interrupted
//   - src: Source file path (must exist)
//   - dst: Destination file path (must not exist)
//
// Returns an error matching fs.ErrExist if dst already exists.
//
// Example:
//
//	err := CopyFile(ctx, "/in/song.mp3", "/out/audio/song.mp3")
//	if errors.Is(err, fs.ErrExist) {
//		// pick another name
//	}
func CopyFile(ctx context.Context, src, dst string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%s: not a regular file", src)
	}
	if Exists(dst) {
		return &fs.PathError{Op: "copy", Path: dst, Err: fs.ErrExist}
	}

	tmp := filepath.Join(filepath.Dir(dst), PartialPrefix+uuid.NewString())
	if err := copyContents(src, tmp, info); err != nil {
		os.Remove(tmp)
		return err
	}
	defer os.Remove(tmp)

	return publish(tmp, dst)
}

// MoveFile moves src to dst without ever overwriting dst.
//
// A hard link followed by removing src is tried first. When linking is not
// possible (different devices, or a file system without hard links) the file
// is copied with CopyFile and src removed afterwards.
//
// Returns an error matching fs.ErrExist if dst already exists.
func MoveFile(ctx context.Context, src, dst string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := os.Link(src, dst)
	switch {
	case err == nil:
		return os.Remove(src)
	case errors.Is(err, fs.ErrExist):
		return err
	}

	if _, statErr := os.Stat(src); statErr != nil {
		return statErr
	}

	if err := CopyFile(ctx, src, dst); err != nil {
		return err
	}
	return os.Remove(src)
}

// WriteFileExclusive writes data to path, failing if path already exists.
//
// The file is created with mode 0644.
//
// Example:
//
//	playlistContent := []byte("#EXTM3U\n...")
//	err := WriteFileExclusive(ctx, "/music/Album/Album.m3u", playlistContent)
func WriteFileExclusive(ctx context.Context, path string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}

// SanitizeValue makes a metadata value safe to embed in a single path
// segment.
//
// Path separators, the Windows-reserved characters <>:"|?* and control
// characters (0x00-0x1f) become underscores. Nothing else changes, so a
// value like "AC/DC" renders as "AC_DC" rather than as two directories.
func SanitizeValue(value string) string {
	return invalidChars.ReplaceAllString(value, "_")
}

// SanitizeFileName removes or replaces characters that are invalid in file/folder names.
//
// This function ensures names are valid across different operating systems,
// particularly Windows which has the most restrictive naming rules.
//
// The following transformations are applied:
//   - Unicode → NFC, so composed and decomposed input give the same name
//   - Invalid characters (<>:"/\|?* and control chars 0x00-0x1f) → underscore
//   - Multiple whitespace → single space
//   - Leading whitespace, trailing dots and trailing whitespace → removed
//
// The names "." and ".." sanitize to the empty string.
//
// Example:
//
//	SanitizeFileName("Song: Part 1/2")      // Returns "Song_ Part 1_2"
//	SanitizeFileName("Track...")            // Returns "Track"
//	SanitizeFileName("Name   with  spaces") // Returns "Name with spaces"
func SanitizeFileName(name string) string {
	name = norm.NFC.String(name)
	name = invalidChars.ReplaceAllString(name, "_")
	name = multiWhitespace.ReplaceAllString(name, " ")
	name = trailingDots.ReplaceAllString(name, "")
	return strings.TrimLeft(name, " ")
}

// TruncateName cuts name to at most maxBytes bytes, keeping the extension
// and never splitting a UTF-8 sequence.
//
// Example:
//
//	TruncateName("a very long title.mp3", 10) // Returns "a very.mp3"
func TruncateName(name string, maxBytes int) string {
	if len(name) <= maxBytes {
		return name
	}

	ext := filepath.Ext(name)
	if len(ext) >= maxBytes || ext == name {
		ext = ""
	}
	stem := strings.TrimSuffix(name, ext)

	cut := maxBytes - len(ext)
	for cut > 0 && !utf8.RuneStart(stem[cut]) {
		cut--
	}
	stem = strings.TrimRight(stem[:cut], " .")
	return stem + ext
}

// EnsureDir creates a directory and all parent directories if they don't exist.
//
// Directories are created with mode 0755 (rwxr-xr-x).
// If the directory already exists, no error is returned.
//
// Example:
//
//	err := EnsureDir("/out/audio/Daft Punk/Discovery")
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}

// Exists reports whether anything, including a dangling symlink, is at path.
func Exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

func copyContents(src, dst string, info fs.FileInfo) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, info.Mode().Perm())
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}

	if err := os.Chmod(dst, info.Mode().Perm()); err != nil {
		return err
	}
	return os.Chtimes(dst, info.ModTime(), info.ModTime())
}

// publish gives the finished temporary file its final name.
func publish(tmp, dst string) error {
	err := os.Link(tmp, dst)
	if err == nil || errors.Is(err, fs.ErrExist) {
		return err
	}

	// No hard links here. Reserve dst exclusively, then replace the
	// empty placeholder with the finished file.
	f, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return err
	}
	f.Close()

	if err := os.Rename(tmp, dst); err != nil {
		os.Remove(dst)
		return err
	}
	return nil
}
