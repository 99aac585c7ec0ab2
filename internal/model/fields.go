package model

import (
	"sort"
	"strconv"
	"strings"
)

// Unknown is the value of any field a file does not carry.
//
// Extractors store it explicitly so that every placeholder valid for a
// category always resolves to something printable.
const Unknown = "Unknown"

// Fields maps placeholder names to their rendered string values.
//
// Values are stored in the form they appear in paths:
//   - Track numbers as plain digits ("7")
//   - Durations as minutes and seconds ("4:05")
//   - Bitrates with a unit ("320 kbps")
//
// Example:
//
//	f := model.NewFields(model.CategoryAudio)
//	f.Set("artist", "Daft Punk")
//	f.Get("artist") // "Daft Punk", true
//	f.Get("album")  // "Unknown", false
type Fields map[string]string

// NewFields returns a mapping with every field of the category set to Unknown.
func NewFields(c Category) Fields {
	names := c.FieldNames()
	f := make(Fields, len(names))
	for _, name := range names {
		f[name] = Unknown
	}
	return f
}

// Set stores value under name. Blank values are stored as Unknown.
func (f Fields) Set(name, value string) {
	value = strings.TrimSpace(strings.Trim(value, "\x00"))
	if value == "" {
		value = Unknown
	}
	f[name] = value
}

// SetInt stores a positive integer. Zero and negative values mean the
// source did not provide one and are stored as Unknown.
func (f Fields) SetInt(name string, value int) {
	if value <= 0 {
		f[name] = Unknown
		return
	}
	f[name] = strconv.Itoa(value)
}

// Get returns the value for name and whether it is a real value.
// Missing names and Unknown values both report false.
func (f Fields) Get(name string) (string, bool) {
	v, ok := f[name]
	if !ok || v == Unknown || v == "" {
		return Unknown, false
	}
	return v, true
}

// Known reports how many fields hold a real value.
func (f Fields) Known() int {
	n := 0
	for _, v := range f {
		if v != Unknown && v != "" {
			n++
		}
	}
	return n
}

// Merge copies real values from other into f, leaving f's values in place
// where other only has Unknown.
func (f Fields) Merge(other Fields) {
	for k, v := range other {
		if v == Unknown || v == "" {
			if _, ok := f[k]; !ok {
				f[k] = Unknown
			}
			continue
		}
		f[k] = v
	}
}

// Names returns the field names in sorted order.
func (f Fields) Names() []string {
	names := make([]string, 0, len(f))
	for k := range f {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// FormatDuration renders seconds as m:ss, the way durations appear in paths.
func FormatDuration(seconds float64) string {
	if seconds <= 0 {
		return Unknown
	}
	total := int(seconds)
	return strconv.Itoa(total/60) + ":" + pad2(total%60)
}

func pad2(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}
