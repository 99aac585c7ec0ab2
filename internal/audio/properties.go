package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrUnsupportedFormat is returned by ReadProperties for containers it cannot
// parse. Callers fall back to an external prober for these.
var ErrUnsupportedFormat = errors.New("unsupported audio format")

// Properties describes the audio stream of a file.
type Properties struct {
	// Duration in seconds.
	Duration float64

	// Bitrate in kbps. For VBR files this is the average.
	Bitrate int

	// SampleRate in Hz.
	SampleRate int
}

// ReadProperties reads stream properties from MP3, FLAC and WAV files by
// parsing their headers.
//
// Other formats return ErrUnsupportedFormat.
//
// Example:
//
//	props, err := audio.ReadProperties("/music/in/track.flac")
//	model.FormatDuration(props.Duration) // "4:05"
func ReadProperties(path string) (*Properties, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		return readMPEG(f, info.Size())
	case ".flac":
		return readFLAC(f, info.Size())
	case ".wav":
		return readWAV(f)
	default:
		return nil, ErrUnsupportedFormat
	}
}

// MPEG audio lookup tables, indexed by version/layer as documented in the
// frame header layout.
var (
	mpegBitrates = map[[2]int][15]int{
		{1, 1}: {0, 32, 64, 96, 128, 160, 192, 224, 256, 288, 320, 352, 384, 416, 448},
		{1, 2}: {0, 32, 48, 56, 64, 80, 96, 112, 128, 160, 192, 224, 256, 320, 384},
		{1, 3}: {0, 32, 40, 48, 56, 64, 80, 96, 112, 128, 160, 192, 224, 256, 320},
		{2, 1}: {0, 32, 48, 56, 64, 80, 96, 112, 128, 144, 160, 176, 192, 224, 256},
		{2, 2}: {0, 8, 16, 24, 32, 40, 48, 56, 64, 80, 96, 112, 128, 144, 160},
		{2, 3}: {0, 8, 16, 24, 32, 40, 48, 56, 64, 80, 96, 112, 128, 144, 160},
	}
	mpegSampleRates = map[int][3]int{
		1:  {44100, 48000, 32000},
		2:  {22050, 24000, 16000},
		25: {11025, 12000, 8000},
	}
)

// mpegFrame is a decoded MPEG audio frame header.
type mpegFrame struct {
	version    int // 1, 2 or 25 (MPEG 2.5)
	layer      int // 1, 2 or 3
	bitrate    int // kbps
	sampleRate int
	mono       bool
}

func (h mpegFrame) samplesPerFrame() int {
	switch {
	case h.layer == 1:
		return 384
	case h.layer == 3 && h.version != 1:
		return 576
	default:
		return 1152
	}
}

// sideInfoSize is the length of the Layer III side information that
// precedes a Xing/Info header.
func (h mpegFrame) sideInfoSize() int {
	switch {
	case h.version == 1 && h.mono:
		return 17
	case h.version == 1:
		return 32
	case h.mono:
		return 9
	default:
		return 17
	}
}

func parseMPEGHeader(b []byte) (mpegFrame, bool) {
	if len(b) < 4 || b[0] != 0xFF || b[1]&0xE0 != 0xE0 {
		return mpegFrame{}, false
	}

	var h mpegFrame
	switch (b[1] >> 3) & 0x03 {
	case 0:
		h.version = 25
	case 2:
		h.version = 2
	case 3:
		h.version = 1
	default:
		return mpegFrame{}, false
	}

	switch (b[1] >> 1) & 0x03 {
	case 1:
		h.layer = 3
	case 2:
		h.layer = 2
	case 3:
		h.layer = 1
	default:
		return mpegFrame{}, false
	}

	brIndex := int(b[2] >> 4)
	srIndex := int((b[2] >> 2) & 0x03)
	if brIndex == 0 || brIndex == 15 || srIndex == 3 {
		return mpegFrame{}, false
	}

	tableVersion := 1
	if h.version != 1 {
		tableVersion = 2
	}
	h.bitrate = mpegBitrates[[2]int{tableVersion, h.layer}][brIndex]
	h.sampleRate = mpegSampleRates[h.version][srIndex]
	h.mono = (b[3]>>6)&0x03 == 3

	return h, true
}

// id3v2Size returns the length of a leading ID3v2 tag, or 0.
func id3v2Size(b []byte) int64 {
	if len(b) < 10 || !bytes.Equal(b[:3], []byte("ID3")) {
		return 0
	}
	size := int64(b[6]&0x7F)<<21 | int64(b[7]&0x7F)<<14 | int64(b[8]&0x7F)<<7 | int64(b[9]&0x7F)
	size += 10
	if b[5]&0x10 != 0 {
		size += 10 // footer
	}
	return size
}

const mpegScanWindow = 64 * 1024

func readMPEG(r io.ReadSeeker, fileSize int64) (*Properties, error) {
	head := make([]byte, 10)
	if _, err := io.ReadFull(r, head); err != nil {
		return nil, fmt.Errorf("read mp3 header: %w", err)
	}
	start := id3v2Size(head)

	if _, err := r.Seek(start, io.SeekStart); err != nil {
		return nil, err
	}
	buf := make([]byte, mpegScanWindow)
	n, err := io.ReadFull(r, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, fmt.Errorf("read mp3 frames: %w", err)
	}
	buf = buf[:n]

	for i := 0; i+4 <= len(buf); i++ {
		h, ok := parseMPEGHeader(buf[i:])
		if !ok {
			continue
		}

		audioBytes := fileSize - start - int64(i)
		props := &Properties{SampleRate: h.sampleRate}

		if frames, ok := xingFrames(buf[i:], h); ok && frames > 0 {
			props.Duration = float64(frames) * float64(h.samplesPerFrame()) / float64(h.sampleRate)
			props.Bitrate = int(float64(audioBytes) * 8 / props.Duration / 1000)
			return props, nil
		}

		props.Bitrate = h.bitrate
		props.Duration = float64(audioBytes) * 8 / float64(h.bitrate*1000)
		return props, nil
	}

	return nil, errors.New("no mpeg frame found")
}

// xingFrames reads the frame count from a Xing or Info header in the first
// frame, which VBR encoders write.
func xingFrames(frame []byte, h mpegFrame) (uint32, bool) {
	off := 4 + h.sideInfoSize()
	if len(frame) < off+12 {
		return 0, false
	}
	id := string(frame[off : off+4])
	if id != "Xing" && id != "Info" {
		return 0, false
	}
	flags := binary.BigEndian.Uint32(frame[off+4:])
	if flags&0x01 == 0 {
		return 0, false
	}
	return binary.BigEndian.Uint32(frame[off+8:]), true
}

func readFLAC(r io.Reader, fileSize int64) (*Properties, error) {
	var hdr [4]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, fmt.Errorf("read flac marker: %w", err)
	}
	if string(hdr[:]) != "fLaC" {
		return nil, errors.New("missing fLaC marker")
	}

	// STREAMINFO is always the first metadata block.
	var block [4]byte
	if _, err := io.ReadFull(r, block[:]); err != nil {
		return nil, fmt.Errorf("read flac block header: %w", err)
	}
	if block[0]&0x7F != 0 {
		return nil, errors.New("first flac block is not STREAMINFO")
	}

	var info [34]byte
	if _, err := io.ReadFull(r, info[:]); err != nil {
		return nil, fmt.Errorf("read STREAMINFO: %w", err)
	}

	v := binary.BigEndian.Uint64(info[10:18])
	sampleRate := int(v >> 44)
	totalSamples := v & (1<<36 - 1)
	if sampleRate == 0 {
		return nil, errors.New("invalid flac sample rate")
	}

	props := &Properties{SampleRate: sampleRate}
	if totalSamples > 0 {
		props.Duration = float64(totalSamples) / float64(sampleRate)
		props.Bitrate = int(float64(fileSize) * 8 / props.Duration / 1000)
	}
	return props, nil
}

func readWAV(r io.Reader) (*Properties, error) {
	var riff [12]byte
	if _, err := io.ReadFull(r, riff[:]); err != nil {
		return nil, fmt.Errorf("read riff header: %w", err)
	}
	if string(riff[0:4]) != "RIFF" || string(riff[8:12]) != "WAVE" {
		return nil, errors.New("not a RIFF/WAVE file")
	}

	var (
		props    Properties
		byteRate uint32
		haveFmt  bool
	)

	for {
		var chunk [8]byte
		if _, err := io.ReadFull(r, chunk[:]); err != nil {
			return nil, errors.New("wav data chunk not found")
		}
		id := string(chunk[0:4])
		size := binary.LittleEndian.Uint32(chunk[4:8])

		switch id {
		case "fmt ":
			if size < 16 {
				return nil, errors.New("short fmt chunk")
			}
			var body [16]byte
			if _, err := io.ReadFull(r, body[:]); err != nil {
				return nil, fmt.Errorf("read fmt chunk: %w", err)
			}
			// Extension bytes after the PCM fields are not needed.
			if _, err := io.CopyN(io.Discard, r, int64(size)-16+int64(size&1)); err != nil {
				return nil, fmt.Errorf("skip fmt chunk: %w", err)
			}
			props.SampleRate = int(binary.LittleEndian.Uint32(body[4:8]))
			byteRate = binary.LittleEndian.Uint32(body[8:12])
			haveFmt = true
		case "data":
			if !haveFmt || byteRate == 0 {
				return nil, errors.New("wav data before fmt chunk")
			}
			props.Duration = float64(size) / float64(byteRate)
			props.Bitrate = int(byteRate * 8 / 1000)
			return &props, nil
		default:
			if _, err := io.CopyN(io.Discard, r, int64(size)+int64(size&1)); err != nil {
				return nil, fmt.Errorf("skip %q chunk: %w", id, err)
			}
			continue
		}

		if size&1 == 1 {
			if _, err := io.CopyN(io.Discard, r, 1); err != nil {
				return nil, err
			}
		}
	}
}
