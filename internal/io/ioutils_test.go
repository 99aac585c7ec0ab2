package ioutils

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
)

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Song: Part 1/2", "Song_ Part 1_2"},
		{"Track...", "Track"},
		{"Name   with  spaces", "Name with spaces"},
		{"  padded  ", "padded"},
		{".", ""},
		{"..", ""},
		{"a<b>c|d?e*f\"g", "a_b_c_d_e_f_g"},
		{"tab\there", "tab_here"},
		{"café", "café"},
		{".hidden", ".hidden"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, SanitizeFileName(tt.in), "SanitizeFileName(%q)", tt.in)
	}
}

func TestSanitizeValue(t *testing.T) {
	assert.Equal(t, "AC_DC", SanitizeValue("AC/DC"))
	assert.Equal(t, "a_b_c", SanitizeValue(`a\b:c`))
	assert.Equal(t, "..", SanitizeValue(".."), "dots are handled per segment")
}

func TestTruncateName(t *testing.T) {
	assert.Equal(t, "short.mp3", TruncateName("short.mp3", 255))
	assert.Equal(t, "a very.mp3", TruncateName("a very long title.mp3", 10))

	long := strings.Repeat("é", 200) + ".flac"
	got := TruncateName(long, MaxNameBytes)
	assert.LessOrEqual(t, len(got), MaxNameBytes)
	assert.True(t, strings.HasSuffix(got, ".flac"))
	assert.True(t, utf8.ValidString(got))
}

func TestCopyFile_PreservesContentModeAndTime(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.mp3")
	dst := filepath.Join(dir, "out", "dst.mp3")
	require.NoError(t, os.WriteFile(src, []byte("audio bytes"), 0640))
	mtime := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, os.Chtimes(src, mtime, mtime))
	require.NoError(t, EnsureDir(filepath.Dir(dst)))

	require.NoError(t, CopyFile(context.Background(), src, dst))

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "audio bytes", string(data))

	info, err := os.Stat(dst)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0640), info.Mode().Perm())
	assert.True(t, info.ModTime().Equal(mtime))

	assert.FileExists(t, src)
	assertNoPartials(t, filepath.Dir(dst))
}

func TestCopyFile_NeverOverwrites(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.mp3")
	dst := filepath.Join(dir, "dst.mp3")
	require.NoError(t, os.WriteFile(src, []byte("new"), 0644))
	require.NoError(t, os.WriteFile(dst, []byte("old"), 0644))

	err := CopyFile(context.Background(), src, dst)
	assert.True(t, errors.Is(err, fs.ErrExist), "got %v", err)

	data, _ := os.ReadFile(dst)
	assert.Equal(t, "old", string(data))
	assertNoPartials(t, dir)
}

func TestCopyFile_MissingSource(t *testing.T) {
	dir := t.TempDir()
	err := CopyFile(context.Background(), filepath.Join(dir, "nope.mp3"), filepath.Join(dir, "x.mp3"))
	assert.Error(t, err)
	assertNoPartials(t, dir)
}

func TestCopyFile_CancelledContext(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.mp3")
	require.NoError(t, os.WriteFile(src, []byte("x"), 0644))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := CopyFile(ctx, src, filepath.Join(dir, "dst.mp3"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.NoFileExists(t, filepath.Join(dir, "dst.mp3"))
}

func TestMoveFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.epub")
	dst := filepath.Join(dir, "books", "dst.epub")
	require.NoError(t, os.WriteFile(src, []byte("book"), 0644))
	require.NoError(t, EnsureDir(filepath.Dir(dst)))

	require.NoError(t, MoveFile(context.Background(), src, dst))
	assert.NoFileExists(t, src)
	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "book", string(data))
}

func TestMoveFile_NeverOverwrites(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.epub")
	dst := filepath.Join(dir, "dst.epub")
	require.NoError(t, os.WriteFile(src, []byte("new"), 0644))
	require.NoError(t, os.WriteFile(dst, []byte("old"), 0644))

	err := MoveFile(context.Background(), src, dst)
	assert.True(t, errors.Is(err, fs.ErrExist), "got %v", err)
	assert.FileExists(t, src)

	data, _ := os.ReadFile(dst)
	assert.Equal(t, "old", string(data))
}

func TestWriteFileExclusive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "list.m3u")

	require.NoError(t, WriteFileExclusive(context.Background(), path, []byte("#EXTM3U\n")))
	err := WriteFileExclusive(context.Background(), path, []byte("other"))
	assert.True(t, errors.Is(err, fs.ErrExist))

	data, _ := os.ReadFile(path)
	assert.Equal(t, "#EXTM3U\n", string(data))
}

func TestIsPartial(t *testing.T) {
	assert.True(t, IsPartial("/out/audio/.partial-1234"))
	assert.False(t, IsPartial("/out/audio/partial.mp3"))
}

func TestImageService_Inspect(t *testing.T) {
	dir := t.TempDir()
	img := image.NewRGBA(image.Rect(0, 0, 32, 20))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})

	pngPath := filepath.Join(dir, "pic.png")
	writeImage(t, pngPath, func(f *os.File) error { return png.Encode(f, img) })

	bmpPath := filepath.Join(dir, "pic.bmp")
	writeImage(t, bmpPath, func(f *os.File) error { return bmp.Encode(f, img) })

	svc := NewImageService()
	for path, format := range map[string]string{pngPath: "png", bmpPath: "bmp"} {
		info, err := svc.Inspect(context.Background(), path)
		require.NoError(t, err, path)
		assert.Equal(t, 32, info.Width)
		assert.Equal(t, 20, info.Height)
		assert.Equal(t, format, info.Format)
		assert.Empty(t, info.CameraMake)
		assert.True(t, info.Taken.IsZero())
	}
}

func TestImageService_InspectCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.jpg")
	require.NoError(t, os.WriteFile(path, []byte("not an image"), 0644))

	_, err := NewImageService().Inspect(context.Background(), path)
	assert.Error(t, err)
}

func writeImage(t *testing.T, path string, encode func(*os.File) error) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, encode(f))
	require.NoError(t, f.Close())
}

func assertNoPartials(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, IsPartial(e.Name()), "leftover %s", e.Name())
	}
}
