// Package audio writes release metadata into audio files and builds
// playlists.
//
// # Tagging
//
// The Tagger writes one file at a time and picks the container from the
// file extension:
//
//	tagger := audio.NewTagger(audio.DefaultTagConfig())
//	changed, err := tagger.SaveTags(track, rel, cover)
//
// Existing tags and pictures are replaced. Files that already carry the
// would-be tags are not rewritten and report changed == false.
//
//   - MP3: ID3v2.4 frames TALB, TPE2, TDRC, TCON, TPE1, TPOS, TIT2, TRCK, APIC
//   - FLAC: Vorbis comments ALBUM, ALBUMARTIST, DATE, TITLE, TRACKNUMBER,
//     GENRE, ARTIST, DISCNUMBER and one front cover PICTURE block
//   - M4A: ALBUM, DATE, TITLE, ALBUMARTIST, ARTIST, GENRE, TRACKNUMBER,
//     DISCNUMBER and the cover image
//
// # Playlist Generation
//
//	creator := audio.NewPlaylistCreator(model.PlaylistFormatM3U, true)
//	content := creator.CreatePlaylist(rel, layout.Tracks(), layout.Root)
//
// Supported formats:
//   - M3U (with optional extended info)
//   - PLS
//   - WPL (Windows Media Player)
package audio
