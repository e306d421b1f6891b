package model

import (
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// SaleDateLayout is the layout of Release.SaleDate.
const SaleDateLayout = "2006-01-02"

// Release is the metadata of one storefront work.
//
// A Release is produced once per release directory by the fetcher and is
// read-only afterwards: every tag write for that directory receives the
// same value.
//
// Example:
//
//	rel := &Release{
//	    ID:       "RJ01234567",
//	    Name:     "Whispering Forest",
//	    Circle:   "Forest Circle",
//	    Seiyus:   []string{"Voice A", "Voice B"},
//	    Genres:   []string{"ASMR", "Binaural"},
//	    SaleDate: "2023-05-15",
//	}
type Release struct {
	// ID is the upper-case catalog ID, e.g. "RJ123456".
	ID string

	// Name is the work title.
	Name string

	// Circle is the publishing circle, written as album artist.
	Circle string

	// Seiyus lists voice actors in page order. Duplicates are kept.
	Seiyus []string

	// Genres lists genre labels in page order.
	Genres []string

	// ImageURL is the cover art URL. Empty means no cover.
	ImageURL string

	// SaleDate is the release date formatted with SaleDateLayout, or empty.
	SaleDate string
}

// HasCover returns true if the release has cover art to download.
func (r *Release) HasCover() bool {
	return r.ImageURL != ""
}

// Date parses SaleDate. It returns false when the date is absent or malformed.
func (r *Release) Date() (time.Time, bool) {
	if r.SaleDate == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(SaleDateLayout, r.SaleDate)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// PathConfig holds naming settings for files written into a release root.
//
// Both formats are templates without extension; see the package
// documentation for the placeholders.
type PathConfig struct {
	// CoverArtFileNameFormat is the filename template for the cover image.
	// The image is always written as PNG.
	CoverArtFileNameFormat string

	// PlaylistFileNameFormat is the filename template for the playlist.
	PlaylistFileNameFormat string

	// PlaylistFormat determines the playlist file type and extension.
	PlaylistFormat PlaylistFormat
}

// PlaylistFormat represents supported playlist file formats.
type PlaylistFormat int

const (
	// PlaylistFormatM3U creates .m3u playlist files (most widely supported).
	PlaylistFormatM3U PlaylistFormat = iota

	// PlaylistFormatPLS creates .pls playlist files (used by Winamp).
	PlaylistFormatPLS

	// PlaylistFormatWPL creates .wpl playlist files (Windows Media Player).
	PlaylistFormatWPL
)

// ParsePlaylistFormat maps a settings value to a PlaylistFormat.
// Unknown values fall back to M3U.
func ParsePlaylistFormat(s string) PlaylistFormat {
	switch strings.ToLower(s) {
	case "pls":
		return PlaylistFormatPLS
	case "wpl":
		return PlaylistFormatWPL
	default:
		return PlaylistFormatM3U
	}
}

// Extension returns the file extension for the playlist format, including the dot.
func (pf PlaylistFormat) Extension() string {
	switch pf {
	case PlaylistFormatPLS:
		return ".pls"
	case PlaylistFormatWPL:
		return ".wpl"
	default:
		return ".m3u"
	}
}

// PlaylistPath returns where the playlist of a release rooted at root is written.
func (r *Release) PlaylistPath(root string, cfg *PathConfig) string {
	return filepath.Join(root, r.expand(cfg.PlaylistFileNameFormat)+cfg.PlaylistFormat.Extension())
}

// CoverPath returns where the folder cover of a release rooted at root is written.
func (r *Release) CoverPath(root string, cfg *PathConfig) string {
	return filepath.Join(root, r.expand(cfg.CoverArtFileNameFormat)+".png")
}

func (r *Release) expand(format string) string {
	year, month, day := "", "", ""
	if t, ok := r.Date(); ok {
		year, month, day = t.Format("2006"), t.Format("01"), t.Format("02")
	}

	name := strings.NewReplacer(
		"{workno}", r.ID,
		"{album}", r.Name,
		"{circle}", r.Circle,
		"{year}", year,
		"{month}", month,
		"{day}", day,
	).Replace(format)

	name = sanitizeFileName(name)
	if name == "" {
		name = r.ID
	}
	return name
}

var (
	invalidChars    = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)
	trailingDots    = regexp.MustCompile(`\.+$`)
	repeatedSpacing = regexp.MustCompile(`\s+`)
)

// sanitizeFileName removes or replaces characters that are invalid in file/folder names.
//
// The following transformations are applied:
//   - Invalid characters (<>:"/\|?* and control chars) are replaced with underscore
//   - Trailing dots are removed (Windows limitation)
//   - Multiple whitespace is collapsed to single space
//   - Surrounding whitespace is removed
func sanitizeFileName(name string) string {
	name = invalidChars.ReplaceAllString(name, "_")
	name = trailingDots.ReplaceAllString(name, "")
	name = repeatedSpacing.ReplaceAllString(name, " ")
	return strings.TrimSpace(name)
}
