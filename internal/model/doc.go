// Package model defines the core data structures shared by the
// media-organizer packages.
//
// # Category
//
// Category is the coarse classification of a file, decided from its
// extension:
//
//	model.CategoryAudio.String() // "audio"
//	c, _ := model.ParseCategory("Ebook") // model.CategoryEbook
//
// # Fields
//
// Fields maps placeholder names to values. Anything a file does not carry
// is stored as the Unknown sentinel rather than left out:
//
//	f := model.NewFields(model.CategoryImage)
//	f.Set("camera_make", "Canon")
//
// # Record
//
// Record describes one discovered file together with its extracted Fields
// and derived common fields:
//
//	rec, _ := model.NewRecord(path, model.CategoryAudio)
//	rec.Lookup("creation_year") // "2024"
//
// Common placeholders: {filename}, {filename_with_extension}, {extension},
// {file_type}, {size}, {creation_date}, {creation_year}, {creation_month},
// {creation_month_name}
package model
