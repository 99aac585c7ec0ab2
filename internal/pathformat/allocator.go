package pathformat

import (
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	ioutils "github.com/handiism/media-organizer/internal/io"
)

// Allocator hands out destination paths that are free on disk and have not
// been handed out before in the same run.
//
// Suffix counters are kept per wanted path, so the names given out for one
// destination are D, D (1), D (2) and so on, never going back. Names are
// remembered even when nothing is written, so a preview reports the same
// names a real run would.
//
// An Allocator is safe for concurrent use.
//
// Example:
//
//	a := NewAllocator()
//	a.Claim("/out/a.mp3") // "/out/a.mp3", 0
//	a.Claim("/out/a.mp3") // "/out/a (1).mp3", 1
type Allocator struct {
	mu      sync.Mutex
	claimed map[string]struct{}
	next    map[string]int
	exists  func(string) bool
}

// NewAllocator creates an allocator that checks the file system.
func NewAllocator() *Allocator {
	return newAllocator(ioutils.Exists)
}

func newAllocator(exists func(string) bool) *Allocator {
	return &Allocator{
		claimed: make(map[string]struct{}),
		next:    make(map[string]int),
		exists:  exists,
	}
}

// Claim returns the first free name for path and the suffix number used
// (0 when path itself was free).
//
// Calling Claim again with the same path after the claimed name turned out
// to be taken continues from the next suffix.
func (a *Allocator) Claim(path string) (string, int) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for n := a.next[path]; ; n++ {
		candidate := withSuffix(path, n)
		if _, ok := a.claimed[candidate]; ok || a.exists(candidate) {
			continue
		}
		a.claimed[candidate] = struct{}{}
		a.next[path] = n + 1
		return candidate, n
	}
}

// Claimed reports how many names have been handed out.
func (a *Allocator) Claimed() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.claimed)
}

// withSuffix inserts " (n)" before the extension. The stem is shortened
// when the result would exceed MaxNameBytes.
func withSuffix(path string, n int) string {
	if n == 0 {
		return path
	}

	dir, base := filepath.Split(path)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	suffix := " (" + strconv.Itoa(n) + ")"

	if room := ioutils.MaxNameBytes - len(suffix) - len(ext); len(stem) > room {
		stem = cutBytes(stem, max(room, 0))
	}
	return dir + stem + suffix + ext
}
