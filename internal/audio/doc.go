// Package audio reads audio file metadata and generates playlists.
//
// # Tags
//
// ReadTags returns the descriptive tags of a file. MP3s are read with the
// ID3v2 parser; FLAC, M4A and OGG go through a generic reader:
//
//	tags, err := audio.ReadTags("/music/in/track.mp3")
//	fmt.Println(tags.Artist, tags.Album, tags.Track)
//
// # Stream Properties
//
// ReadProperties parses MP3 (CBR and Xing/Info VBR), FLAC and WAV headers
// for duration, bitrate and sample rate. Other containers report
// ErrUnsupportedFormat.
//
// # Playlist Generation
//
// Generate playlists in various formats:
//
//	creator := audio.NewPlaylistCreator(audio.FormatM3U, true) // extended M3U
//	content := creator.CreatePlaylist("Discovery", entries)
//
// Supported formats:
//   - M3U (with optional extended info)
//   - PLS
//   - WPL (Windows Media Player)
//   - ZPL (Zune Media Player)
package audio
