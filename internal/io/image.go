package ioutils

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"  // GIF decoder registration
	_ "image/jpeg" // JPEG decoder registration
	_ "image/png"  // PNG decoder registration
	"io"
	"os"
	"strings"
	"time"

	"github.com/rwcarlsen/goexif/exif"
	_ "golang.org/x/image/bmp"  // BMP decoder registration
	_ "golang.org/x/image/tiff" // TIFF decoder registration
	_ "golang.org/x/image/webp" // WebP decoder registration
)

// ImageInfo describes a still image.
//
// Width, Height and Format come from the image header. The camera fields and
// Taken come from EXIF and are zero when the file carries none.
type ImageInfo struct {
	Width       int
	Height      int
	Format      string
	CameraMake  string
	CameraModel string
	Taken       time.Time
}

// ImageService reads image properties without decoding pixel data.
//
// Supported formats are JPEG, PNG, GIF, BMP, TIFF and WebP. EXIF is read
// from JPEG and TIFF files.
//
// Example usage:
//
//	svc := NewImageService()
//	info, err := svc.Inspect(ctx, "/photos/IMG_0001.JPG")
//	// info.Width == 4032, info.CameraMake == "Apple"
type ImageService struct{}

// NewImageService creates a new ImageService.
func NewImageService() *ImageService {
	return &ImageService{}
}

// Inspect reads the dimensions, format and EXIF camera data of an image.
//
// Parameters:
//   - ctx: Context for cancellation (checked before the file is opened)
//   - path: Image file path
//
// An error is returned only when the header cannot be decoded. Missing or
// broken EXIF leaves the camera fields empty.
func (s *ImageService) Inspect(ctx context.Context, path string) (*ImageInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		return nil, fmt.Errorf("decode image header: %w", err)
	}

	info := &ImageInfo{
		Width:  cfg.Width,
		Height: cfg.Height,
		Format: format,
	}

	if format == "jpeg" || format == "tiff" {
		if _, err := f.Seek(0, io.SeekStart); err == nil {
			readExif(f, info)
		}
	}

	return info, nil
}

func readExif(r io.Reader, info *ImageInfo) {
	x, err := exif.Decode(r)
	if err != nil {
		return
	}

	info.CameraMake = exifString(x, exif.Make)
	info.CameraModel = exifString(x, exif.Model)
	if t, err := x.DateTime(); err == nil {
		info.Taken = t
	}
}

func exifString(x *exif.Exif, name exif.FieldName) string {
	tag, err := x.Get(name)
	if err != nil {
		return ""
	}
	v, err := tag.StringVal()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(strings.TrimRight(v, "\x00"))
}
