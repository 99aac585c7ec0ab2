package pathformat

import (
	"path/filepath"
	"strings"
	"unicode/utf8"

	ioutils "github.com/handiism/media-organizer/internal/io"
	"github.com/handiism/media-organizer/internal/model"
)

// Options controls how a template is rendered.
type Options struct {
	// ExcludeUnknown drops directory segments that render to exactly
	// Unknown. A file name that renders to Unknown falls back to the
	// source file name.
	ExcludeUnknown bool
}

// Render returns the destination path of rec, relative to the output root.
//
// The template is split on "/" and "\" into segments. Each {name} token is
// replaced with rec.Lookup(name), and each substituted value is passed
// through SanitizeValue, so a value can never introduce a separator. The
// segment as a whole is then passed through SanitizeFileName, which removes
// "." and "..". The result is always a clean relative path below the root.
//
// The last segment names the file and always ends with the source
// extension. An empty template renders as {filename}.
//
// Render only reads rec, so rendering the same record twice gives the same
// path.
//
// Example:
//
//	rec.Fields = model.Fields{"artist": "Daft Punk", "album": "Discovery"}
//	Render("{file_type}/{artist}/{album}/{filename}", rec, Options{})
//	// Returns "audio/Daft Punk/Discovery/one_more_time.mp3"
func Render(template string, rec *model.Record, opts Options) string {
	var segs []string
	for _, raw := range splitSegments(template) {
		seg := ioutils.SanitizeFileName(expand(raw, rec))
		if seg == "" {
			seg = model.Unknown
		}
		segs = append(segs, seg)
	}
	if len(segs) == 0 {
		segs = []string{ioutils.SanitizeFileName(rec.Stem())}
		if segs[0] == "" {
			segs[0] = model.Unknown
		}
	}

	dirs, name := segs[:len(segs)-1], segs[len(segs)-1]

	if opts.ExcludeUnknown {
		kept := make([]string, 0, len(dirs))
		for _, d := range dirs {
			if d != model.Unknown {
				kept = append(kept, d)
			}
		}
		if len(kept) == 0 && len(dirs) > 0 {
			kept = append(kept, rec.Category.String())
		}
		dirs = kept

		if name == model.Unknown {
			if stem := ioutils.SanitizeFileName(rec.Stem()); stem != "" {
				name = stem
			}
		}
	}

	if ext := rec.Extension(); ext != "" && !strings.HasSuffix(strings.ToLower(name), "."+ext) {
		name += "." + ext
	}

	out := make([]string, 0, len(dirs)+1)
	for _, d := range dirs {
		out = append(out, cutBytes(d, ioutils.MaxNameBytes))
	}
	out = append(out, ioutils.TruncateName(name, ioutils.MaxNameBytes))
	return filepath.Join(out...)
}

// splitSegments splits a template on both separators, dropping empty
// segments so that "a//b" and "/a/b/" mean "a/b".
func splitSegments(template string) []string {
	fields := strings.FieldsFunc(template, func(r rune) bool {
		return r == '/' || r == '\\'
	})
	out := fields[:0]
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			out = append(out, f)
		}
	}
	return out
}

// expand substitutes the tokens of one segment. A "{" without a matching
// "}" and a stray "}" are kept as literal text.
func expand(segment string, rec *model.Record) string {
	var b strings.Builder
	for {
		open := strings.IndexByte(segment, '{')
		if open < 0 {
			b.WriteString(segment)
			return b.String()
		}
		b.WriteString(segment[:open])
		rest := segment[open+1:]

		end := strings.IndexAny(rest, "{}")
		if end < 0 || rest[end] == '{' {
			// Unbalanced: emit the brace and keep scanning after it.
			b.WriteByte('{')
			segment = rest
			continue
		}

		b.WriteString(ioutils.SanitizeValue(lookup(rec, rest[:end])))
		segment = rest[end+1:]
	}
}

func lookup(rec *model.Record, name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return model.Unknown
	}
	v, _ := rec.Lookup(name)
	return v
}

// cutBytes shortens s to at most n bytes on a rune boundary.
func cutBytes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return strings.TrimRight(s[:n], " .")
}
