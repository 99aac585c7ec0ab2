package ebook

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding/charmap"

	"github.com/handiism/media-organizer/internal/ebook/dto"
)

// PalmDOC/MOBI layout offsets.
const (
	pdbHeaderLen     = 78
	pdbNameLen       = 32
	pdbNumRecordsOff = 76

	mobiMagicOff      = 16   // "MOBI" inside record 0
	mobiHeaderLenOff  = 20   // MOBI header length, counted from mobiMagicOff
	mobiEncodingOff   = 28   // text encoding: 1252 or 65001
	mobiFullNameOff   = 0x54 // offset of the full name within record 0
	mobiFullNameLen   = 0x58
	mobiEXTHFlagsOff  = 0x80
	mobiEXTHFlagValue = 0x40

	encodingUTF8 = 65001
)

// EXTH record types.
const (
	exthAuthor    = 100
	exthPublisher = 101
	exthISBN      = 104
	exthSubject   = 105
	exthPubDate   = 106
	exthTitle     = 503
	exthLanguage  = 524
)

// readMOBI reads the book name from the MOBI header and descriptive fields
// from the EXTH block. It handles .mobi, .azw and .azw3 (KF8) files.
func readMOBI(p string) (*Metadata, error) {
	f, err := os.Open(p)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	hdr := make([]byte, pdbHeaderLen+8)
	if _, err := io.ReadFull(f, hdr); err != nil {
		return nil, fmt.Errorf("read pdb header: %w", err)
	}
	if binary.BigEndian.Uint16(hdr[pdbNumRecordsOff:]) == 0 {
		return nil, errors.New("pdb has no records")
	}

	rec0Off := int64(binary.BigEndian.Uint32(hdr[pdbHeaderLen:]))
	rec0, err := readRecord0(f, rec0Off)
	if err != nil {
		return nil, err
	}

	if len(rec0) < mobiMagicOff+4 || string(rec0[mobiMagicOff:mobiMagicOff+4]) != "MOBI" {
		// Plain PalmDOC: only the database name is available.
		return &Metadata{Title: pdbName(hdr[:pdbNameLen])}, nil
	}

	utf8 := be32(rec0, mobiEncodingOff) == encodingUTF8
	decode := func(b []byte) string {
		if utf8 {
			return strings.TrimSpace(string(b))
		}
		out, err := charmap.Windows1252.NewDecoder().Bytes(b)
		if err != nil {
			return strings.TrimSpace(string(b))
		}
		return strings.TrimSpace(string(out))
	}

	meta := &Metadata{}

	nameOff := int(be32(rec0, mobiFullNameOff))
	nameLen := int(be32(rec0, mobiFullNameLen))
	if nameOff > 0 && nameLen > 0 && nameOff+nameLen <= len(rec0) {
		meta.Title = decode(rec0[nameOff : nameOff+nameLen])
	}

	if be32(rec0, mobiEXTHFlagsOff)&mobiEXTHFlagValue != 0 {
		exthOff := mobiMagicOff + int(be32(rec0, mobiHeaderLenOff))
		for typ, data := range parseEXTH(rec0, exthOff) {
			v := decode(data)
			switch typ {
			case exthAuthor:
				meta.Author = v
			case exthPublisher:
				meta.Publisher = v
			case exthISBN:
				meta.ISBN = v
			case exthSubject:
				meta.Genre = v
			case exthPubDate:
				meta.Year = dto.ParsePubDate(v).Year()
			case exthTitle:
				if v != "" {
					meta.Title = v
				}
			case exthLanguage:
				meta.Language = v
			}
		}
	}

	if meta.Title == "" {
		meta.Title = pdbName(hdr[:pdbNameLen])
	}
	return meta, nil
}

// readRecord0 reads the first record. Its length is unknown without the next
// record offset, so a bounded read is used instead.
func readRecord0(f *os.File, off int64) ([]byte, error) {
	const maxRecord0 = 64 * 1024

	buf := make([]byte, maxRecord0)
	n, err := f.ReadAt(buf, off)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("read record 0: %w", err)
	}
	if n == 0 {
		return nil, errors.New("record 0 is empty")
	}
	return buf[:n], nil
}

// parseEXTH returns the first value of each EXTH record type.
func parseEXTH(rec0 []byte, off int) map[uint32][]byte {
	out := make(map[uint32][]byte)
	if off < 0 || off+12 > len(rec0) || string(rec0[off:off+4]) != "EXTH" {
		return out
	}

	count := int(be32(rec0, off+8))
	pos := off + 12
	for i := 0; i < count && pos+8 <= len(rec0); i++ {
		typ := be32(rec0, pos)
		size := int(be32(rec0, pos+4))
		if size < 8 || pos+size > len(rec0) {
			break
		}
		if _, seen := out[typ]; !seen {
			out[typ] = rec0[pos+8 : pos+size]
		}
		pos += size
	}
	return out
}

// pdbName returns the database name; underscores often stand in for spaces.
func pdbName(b []byte) string {
	if i := strings.IndexByte(string(b), 0); i >= 0 {
		b = b[:i]
	}
	return strings.TrimSpace(strings.ReplaceAll(string(b), "_", " "))
}

func be32(b []byte, off int) uint32 {
	if off < 0 || off+4 > len(b) {
		return 0
	}
	return binary.BigEndian.Uint32(b[off:])
}
