package metadata

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/floostack/transcoder/ffmpeg"
)

// ErrNoProber is returned by strategies that need ffprobe when none is
// configured.
var ErrNoProber = errors.New("no media prober configured")

// ProbeResult is the technical description of a media file.
type ProbeResult struct {
	Duration  float64 // seconds
	Bitrate   int     // kbps
	Width     int
	Height    int
	Codec     string
	FrameRate float64
}

// Prober inspects media streams. FFprobe is the production implementation;
// tests inject fakes.
type Prober interface {
	Probe(ctx context.Context, path string) (*ProbeResult, error)
}

// FFprobe probes files with the ffprobe binary.
type FFprobe struct {
	// BinPath is the ffprobe executable. A bare name is looked up in PATH.
	BinPath string
}

// NewFFprobe creates a prober for the given binary, defaulting to "ffprobe".
func NewFFprobe(binPath string) *FFprobe {
	if binPath == "" {
		binPath = "ffprobe"
	}
	return &FFprobe{BinPath: binPath}
}

// Probe runs ffprobe on path.
//
// The first video stream supplies dimensions, codec and frame rate. Files
// without a video stream report the first audio codec.
func (p *FFprobe) Probe(ctx context.Context, path string) (*ProbeResult, error) {
	cfg := &ffmpeg.Config{FfprobeBinPath: p.BinPath}
	md, err := ffmpeg.New(cfg).Input(path).WithContext(&ctx).GetMetadata()
	if err != nil {
		return nil, fmt.Errorf("ffprobe %s: %w", path, err)
	}

	res := &ProbeResult{}
	if f := md.GetFormat(); f != nil {
		res.Duration = parseFloat(f.GetDuration())
		res.Bitrate = int(parseFloat(f.GetBitRate()) / 1000)
	}

	var (
		audioCodec string
		haveVideo  bool
	)
	for _, s := range md.GetStreams() {
		switch s.GetCodecType() {
		case "video":
			if haveVideo {
				continue
			}
			haveVideo = true
			res.Codec = s.GetCodecName()
			res.Width = s.GetWidth()
			res.Height = s.GetHeight()
			res.FrameRate = parseRate(s.GetAvgFrameRate())
		case "audio":
			if audioCodec == "" {
				audioCodec = s.GetCodecName()
			}
		}
	}
	if !haveVideo {
		res.Codec = audioCodec
	}

	return res, nil
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}

// parseRate parses ffprobe rates such as "30000/1001" or "25/1".
func parseRate(s string) float64 {
	num, den, ok := strings.Cut(s, "/")
	if !ok {
		return parseFloat(s)
	}
	n, d := parseFloat(num), parseFloat(den)
	if d == 0 {
		return 0
	}
	return n / d
}
