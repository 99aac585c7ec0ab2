package registry

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/handiism/media-organizer/internal/model"
)

var (
	// ErrExtensionInUse is returned when an extension is already mapped to a
	// different category.
	ErrExtensionInUse = errors.New("extension already registered to another category")

	// ErrInvalidExtension is returned for empty extensions or extensions that
	// contain path separators.
	ErrInvalidExtension = errors.New("invalid extension")
)

// DefaultExtensions is the built-in extension table.
var DefaultExtensions = map[model.Category][]string{
	model.CategoryAudio: {".mp3", ".flac", ".m4a", ".aac", ".ogg", ".wav"},
	model.CategoryVideo: {".mp4", ".mkv", ".avi", ".mov", ".wmv"},
	model.CategoryImage: {".jpg", ".jpeg", ".png", ".gif", ".bmp", ".tiff"},
	model.CategoryEbook: {".epub", ".pdf", ".mobi", ".azw", ".azw3", ".fb2"},
}

// Registry maps file extensions to media categories.
//
// Each extension belongs to at most one category, so classification is never
// ambiguous. The mapping can be changed at run time; a Registry is safe for
// concurrent use.
//
// Example:
//
//	reg := registry.NewDefault()
//	reg.Classify("/music/Song.MP3")     // model.CategoryAudio
//	reg.Add(model.CategoryAudio, "opus") // now .opus files are audio too
type Registry struct {
	mu     sync.RWMutex
	byExt  map[string]model.Category
	byType map[model.Category]map[string]struct{}
}

// New creates an empty registry.
func New() *Registry {
	r := &Registry{
		byExt:  make(map[string]model.Category),
		byType: make(map[model.Category]map[string]struct{}),
	}
	for _, c := range model.Categories {
		r.byType[c] = make(map[string]struct{})
	}
	return r
}

// NewDefault creates a registry populated with DefaultExtensions.
func NewDefault() *Registry {
	r := New()
	for c, exts := range DefaultExtensions {
		for _, ext := range exts {
			_ = r.Add(c, ext)
		}
	}
	return r
}

// FromMap builds a registry from a category-name → extensions table, the
// shape stored in the settings file. Categories missing from the table keep
// their default extensions.
func FromMap(table map[string][]string) (*Registry, error) {
	r := New()

	configured := make(map[model.Category]bool)
	for name, exts := range table {
		c, err := model.ParseCategory(name)
		if err != nil {
			return nil, err
		}
		if c == model.CategoryUnknown {
			return nil, fmt.Errorf("cannot register extensions for %q", name)
		}
		configured[c] = true
		for _, ext := range exts {
			if err := r.Add(c, ext); err != nil {
				return nil, fmt.Errorf("%s: %w", name, err)
			}
		}
	}

	for c, exts := range DefaultExtensions {
		if configured[c] {
			continue
		}
		for _, ext := range exts {
			// A configured category may already have claimed a default.
			_ = r.Add(c, ext)
		}
	}

	return r, nil
}

// Normalize returns the canonical form of an extension: lowercase with a
// single leading dot. "MP3", ".mp3" and "  .Mp3 " all become ".mp3".
// Compound extensions such as "tar.gz" are rejected.
func Normalize(ext string) (string, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))
	ext = strings.TrimLeft(ext, ".")
	// Classify only sees the text after the last dot, so an inner dot
	// could never match.
	if ext == "" || strings.ContainsAny(ext, `/\.`) || strings.ContainsAny(ext, " \t") {
		return "", fmt.Errorf("%w: %q", ErrInvalidExtension, ext)
	}
	return "." + ext, nil
}

// Classify returns the category for a path based on its extension.
//
// Matching is case-insensitive. Paths without an extension, or with an
// extension no category claims, are model.CategoryUnknown.
func (r *Registry) Classify(path string) model.Category {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return model.CategoryUnknown
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if c, ok := r.byExt[ext]; ok {
		return c
	}
	return model.CategoryUnknown
}

// Matches reports whether path belongs to one of the enabled categories.
// Files no category claims match only when CategoryUnknown is enabled.
func (r *Registry) Matches(path string, enabled []model.Category) bool {
	return slices.Contains(enabled, r.Classify(path))
}

// ExtensionsFor returns the sorted extensions registered for a category.
func (r *Registry) ExtensionsFor(c model.Category) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set := r.byType[c]
	exts := make([]string, 0, len(set))
	for ext := range set {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Add registers ext for category c.
//
// Re-adding an extension to the category that already owns it is a no-op.
// Adding an extension owned by another category returns ErrExtensionInUse.
func (r *Registry) Add(c model.Category, ext string) error {
	if c == model.CategoryUnknown {
		return fmt.Errorf("cannot register extensions for the unknown category")
	}
	norm, err := Normalize(ext)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if owner, ok := r.byExt[norm]; ok {
		if owner == c {
			return nil
		}
		return fmt.Errorf("%w: %s is %s", ErrExtensionInUse, norm, owner)
	}

	r.byExt[norm] = c
	r.byType[c][norm] = struct{}{}
	return nil
}

// Remove unregisters ext from category c. It reports whether anything was
// removed.
func (r *Registry) Remove(c model.Category, ext string) bool {
	norm, err := Normalize(ext)
	if err != nil {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if owner, ok := r.byExt[norm]; !ok || owner != c {
		return false
	}
	delete(r.byExt, norm)
	delete(r.byType[c], norm)
	return true
}

// Snapshot returns the table keyed by category name, suitable for saving.
func (r *Registry) Snapshot() map[string][]string {
	out := make(map[string][]string, len(model.Categories))
	for _, c := range model.Categories {
		out[c.String()] = r.ExtensionsFor(c)
	}
	return out
}
