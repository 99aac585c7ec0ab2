package ebook

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// pdfWindow is how much of each end of a PDF is scanned. The Info dictionary
// sits next to the trailer at the end, or near the start in linearized files.
const pdfWindow = 1 << 20

var (
	pdfIndirectRef = regexp.MustCompile(`^(\d+)\s+(\d+)\s+R`)
	pdfDateYear    = regexp.MustCompile(`^(?:D:)?\s*(\d{4})`)
)

// readPDF reads the document Info dictionary.
//
// Only uncompressed Info dictionaries are found. Files that keep their Info
// inside a compressed object stream parse but report no metadata.
func readPDF(p string) (*Metadata, error) {
	f, err := os.Open(p)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}

	magic := make([]byte, 5)
	if _, err := io.ReadFull(f, magic); err != nil || string(magic) != "%PDF-" {
		return nil, errors.New("missing %PDF header")
	}

	chunks, err := pdfChunks(f, info.Size())
	if err != nil {
		return nil, err
	}

	meta := &Metadata{
		Title:     pdfValue(chunks, "Title"),
		Author:    pdfValue(chunks, "Author"),
		Genre:     pdfValue(chunks, "Subject"),
		Publisher: pdfValue(chunks, "Producer"),
	}
	if m := pdfDateYear.FindStringSubmatch(pdfValue(chunks, "CreationDate")); m != nil {
		meta.Year, _ = strconv.Atoi(m[1])
	}
	return meta, nil
}

// pdfChunks returns the tail and head windows of the file, tail first.
func pdfChunks(r io.ReaderAt, size int64) ([][]byte, error) {
	if size <= 2*pdfWindow {
		buf := make([]byte, size)
		if _, err := r.ReadAt(buf, 0); err != nil && err != io.EOF {
			return nil, fmt.Errorf("read pdf: %w", err)
		}
		return [][]byte{buf}, nil
	}

	tail := make([]byte, pdfWindow)
	if _, err := r.ReadAt(tail, size-pdfWindow); err != nil && err != io.EOF {
		return nil, fmt.Errorf("read pdf tail: %w", err)
	}
	head := make([]byte, pdfWindow)
	if _, err := r.ReadAt(head, 0); err != nil && err != io.EOF {
		return nil, fmt.Errorf("read pdf head: %w", err)
	}
	return [][]byte{tail, head}, nil
}

// pdfValue finds the first non-empty string value for /key.
func pdfValue(chunks [][]byte, key string) string {
	for _, chunk := range chunks {
		if v := findPDFString(chunk, chunks, key); v != "" {
			return v
		}
	}
	return ""
}

func findPDFString(data []byte, all [][]byte, key string) string {
	needle := []byte("/" + key)
	for offset := 0; ; {
		i := bytes.Index(data[offset:], needle)
		if i < 0 {
			return ""
		}
		pos := offset + i + len(needle)
		offset = pos

		// "/Title" must not match "/TitleFont".
		if pos < len(data) && isPDFNameChar(data[pos]) {
			continue
		}

		rest := bytes.TrimLeft(data[pos:], " \t\r\n")
		if m := pdfIndirectRef.FindSubmatch(rest); m != nil {
			if v := resolvePDFRef(all, string(m[1]), string(m[2])); v != "" {
				return v
			}
			continue
		}
		if raw, ok := parsePDFString(rest); ok {
			if v := strings.TrimSpace(decodePDFText(raw)); v != "" {
				return v
			}
		}
	}
}

// resolvePDFRef finds "num gen obj" followed by a string.
func resolvePDFRef(chunks [][]byte, num, gen string) string {
	re := regexp.MustCompile(`(?:^|[^0-9])` + num + `\s+` + gen + `\s+obj\s*`)
	for _, chunk := range chunks {
		loc := re.FindIndex(chunk)
		if loc == nil {
			continue
		}
		if raw, ok := parsePDFString(chunk[loc[1]:]); ok {
			return strings.TrimSpace(decodePDFText(raw))
		}
	}
	return ""
}

func isPDFNameChar(c byte) bool {
	return c > ' ' && !strings.ContainsRune("()<>[]{}/%", rune(c))
}

// parsePDFString parses a literal "(...)" or hex "<...>" string at the start
// of b.
func parsePDFString(b []byte) ([]byte, bool) {
	switch {
	case len(b) > 0 && b[0] == '(':
		return parsePDFLiteral(b[1:])
	case len(b) > 1 && b[0] == '<' && b[1] != '<':
		end := bytes.IndexByte(b, '>')
		if end < 0 {
			return nil, false
		}
		digits := bytes.Map(func(r rune) rune {
			if r == ' ' || r == '\n' || r == '\r' || r == '\t' {
				return -1
			}
			return r
		}, b[1:end])
		if len(digits)%2 == 1 {
			digits = append(digits, '0')
		}
		out := make([]byte, hex.DecodedLen(len(digits)))
		if _, err := hex.Decode(out, digits); err != nil {
			return nil, false
		}
		return out, true
	default:
		return nil, false
	}
}

// parsePDFLiteral decodes a literal string body; b starts after "(".
func parsePDFLiteral(b []byte) ([]byte, bool) {
	var out []byte
	depth := 1

	for i := 0; i < len(b); i++ {
		c := b[i]
		switch c {
		case '\\':
			i++
			if i >= len(b) {
				return nil, false
			}
			switch e := b[i]; e {
			case 'n':
				out = append(out, '\n')
			case 'r':
				out = append(out, '\r')
			case 't':
				out = append(out, '\t')
			case 'b':
				out = append(out, '\b')
			case 'f':
				out = append(out, '\f')
			case '\r':
				// Line continuation.
				if i+1 < len(b) && b[i+1] == '\n' {
					i++
				}
			case '\n':
			default:
				if e >= '0' && e <= '7' {
					v := 0
					j := 0
					for ; j < 3 && i+j < len(b) && b[i+j] >= '0' && b[i+j] <= '7'; j++ {
						v = v*8 + int(b[i+j]-'0')
					}
					out = append(out, byte(v))
					i += j - 1
				} else {
					out = append(out, e)
				}
			}
		case '(':
			depth++
			out = append(out, c)
		case ')':
			depth--
			if depth == 0 {
				return out, true
			}
			out = append(out, c)
		default:
			out = append(out, c)
		}
	}
	return nil, false
}

// decodePDFText converts a PDF text string to UTF-8. Strings with a byte
// order mark are UTF-16; others are in PDFDocEncoding, which matches
// Latin-1 for printable text.
func decodePDFText(raw []byte) string {
	switch {
	case bytes.HasPrefix(raw, []byte{0xFE, 0xFF}), bytes.HasPrefix(raw, []byte{0xFF, 0xFE}):
		dec := unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM).NewDecoder()
		if out, err := dec.Bytes(raw); err == nil {
			return string(out)
		}
	case bytes.HasPrefix(raw, []byte{0xEF, 0xBB, 0xBF}):
		return string(raw[3:])
	}

	out, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
	if err != nil {
		return string(raw)
	}
	return string(out)
}
