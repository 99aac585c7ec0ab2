// Package metadata extracts category-specific fields from media files.
//
// An Extractor picks one Strategy per category:
//   - audio: ID3v2 and generic container tags plus MPEG, FLAC and WAV stream
//     properties, with ffprobe for containers that are not parsed natively
//   - video: ffprobe stream data plus MP4 container tags
//   - image: header dimensions and EXIF camera data
//   - ebook: EPUB, FB2, PDF and MOBI document metadata
//
// Extraction never aborts a run. Every result carries the full field set of
// its category, with Unknown for anything the file did not provide.
package metadata
