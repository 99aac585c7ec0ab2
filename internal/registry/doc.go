// Package registry maps file extensions to media categories.
//
// The registry is the only place that decides whether a file is audio,
// video, image or ebook. Matching is by extension, case-insensitively, and
// each extension belongs to exactly one category.
//
// # Usage
//
//	reg := registry.NewDefault()
//	reg.Classify("Holiday.JPG")              // model.CategoryImage
//	reg.ExtensionsFor(model.CategoryEbook)   // [.azw .azw3 .epub .fb2 .mobi .pdf]
//
//	err := reg.Add(model.CategoryVideo, ".mp3")
//	errors.Is(err, registry.ErrExtensionInUse) // true
//
// A registry can be saved and restored through the settings file with
// Snapshot and FromMap.
package registry
