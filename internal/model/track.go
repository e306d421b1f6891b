package model

import (
	"path/filepath"
	"strings"
)

// Format identifies an audio container dvtag can tag.
//
// The declaration order is the order in which formats are visited when
// disc numbers are assigned.
type Format int

const (
	FormatFLAC Format = iota
	FormatM4A
	FormatMP3
)

// Formats lists every supported format in disc assignment order.
var Formats = []Format{FormatFLAC, FormatM4A, FormatMP3}

// String returns the lower-case format name.
func (f Format) String() string {
	switch f {
	case FormatFLAC:
		return "flac"
	case FormatM4A:
		return "m4a"
	case FormatMP3:
		return "mp3"
	default:
		return "unknown"
	}
}

// Extension returns the file extension including the dot.
func (f Format) Extension() string {
	return "." + f.String()
}

// FormatOf returns the format of a file by its extension, compared
// case-insensitively.
func FormatOf(path string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".flac":
		return FormatFLAC, true
	case ".m4a":
		return FormatM4A, true
	case ".mp3":
		return FormatMP3, true
	default:
		return 0, false
	}
}

// Track is one audio file placed within a disc.
type Track struct {
	// Path is the file path.
	Path string

	// Number is the 1-based position within the disc.
	Number int

	// Disc is the disc number, or 0 when the release has a single disc.
	Disc int

	// Title is the title written to the tags.
	Title string
}

// Stem returns the file name without directory and extension.
func (t *Track) Stem() string {
	return Stem(t.Path)
}

// Disc is an ordered group of files of one format from one directory.
type Disc struct {
	// Dir is the directory that holds the files.
	Dir string

	// Format is the container format shared by all tracks.
	Format Format

	// Label names the rule that produced the group, empty for regular tracks.
	Label string

	// Number is the disc number, or 0 when the release has a single disc.
	Number int

	// Tracks holds the files in natural order.
	Tracks []*Track
}

// Stem returns the base name of path without its extension.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
