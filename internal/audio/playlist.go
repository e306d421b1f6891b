package audio

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/NobeKanai/dvtag/internal/model"
)

// PlaylistCreator generates playlist files for a tagged release.
//
// Track paths are written relative to the directory the playlist is saved
// in, with forward slashes, so a playlist in the release root can reach
// tracks in disc subdirectories.
//
// Example:
//
//	creator := NewPlaylistCreator(model.PlaylistFormatM3U, true)
//	content := creator.CreatePlaylist(rel, layout.Tracks(), layout.Root)
//
//	// Result:
//	// #EXTM3U
//	// #EXTINF:-1,Circle - Title
//	// CD1/01 Title.flac
type PlaylistCreator struct {
	format   model.PlaylistFormat
	extended bool // For M3U: include EXTINF lines
}

// NewPlaylistCreator creates a new PlaylistCreator.
//
// extended only affects M3U output.
func NewPlaylistCreator(format model.PlaylistFormat, extended bool) *PlaylistCreator {
	return &PlaylistCreator{
		format:   format,
		extended: extended,
	}
}

// CreatePlaylist generates playlist content for the tracks of rel in the
// given order. dir is the directory the playlist will be written to.
func (p *PlaylistCreator) CreatePlaylist(rel *model.Release, tracks []*model.Track, dir string) string {
	switch p.format {
	case model.PlaylistFormatPLS:
		return p.createPLS(tracks, dir)
	case model.PlaylistFormatWPL:
		return p.createWPL(rel, tracks, dir)
	default:
		return p.createM3U(rel, tracks, dir)
	}
}

func relPath(dir, path string) string {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		rel = filepath.Base(path)
	}
	return filepath.ToSlash(rel)
}

// createM3U generates an M3U playlist, optionally with #EXTINF lines.
// Durations are unknown and written as -1.
func (p *PlaylistCreator) createM3U(rel *model.Release, tracks []*model.Track, dir string) string {
	var sb strings.Builder

	if p.extended {
		sb.WriteString("#EXTM3U\n")
	}

	for _, track := range tracks {
		if p.extended {
			fmt.Fprintf(&sb, "#EXTINF:-1,%s - %s\n", rel.Circle, track.Title)
		}
		sb.WriteString(relPath(dir, track.Path) + "\n")
	}

	return sb.String()
}

// createPLS generates a PLS playlist.
//
//	[playlist]
//	File1=01 Title.mp3
//	Title1=Title
//	Length1=-1
//	NumberOfEntries=1
//	Version=2
func (p *PlaylistCreator) createPLS(tracks []*model.Track, dir string) string {
	var sb strings.Builder

	sb.WriteString("[playlist]\n")

	for i, track := range tracks {
		idx := i + 1
		fmt.Fprintf(&sb, "File%d=%s\n", idx, relPath(dir, track.Path))
		fmt.Fprintf(&sb, "Title%d=%s\n", idx, track.Title)
		fmt.Fprintf(&sb, "Length%d=-1\n", idx)
	}

	fmt.Fprintf(&sb, "NumberOfEntries=%d\n", len(tracks))
	sb.WriteString("Version=2\n")

	return sb.String()
}

// createWPL generates a Windows Media Player playlist.
func (p *PlaylistCreator) createWPL(rel *model.Release, tracks []*model.Track, dir string) string {
	var sb strings.Builder

	sb.WriteString("<?wpl version=\"1.0\"?>\n")
	sb.WriteString("<smil>\n")
	sb.WriteString("  <head>\n")
	fmt.Fprintf(&sb, "    <meta name=\"ItemCount\" content=\"%d\"/>\n", len(tracks))
	fmt.Fprintf(&sb, "    <title>%s</title>\n", escapeXML(rel.Name))
	sb.WriteString("  </head>\n")
	sb.WriteString("  <body>\n")
	sb.WriteString("    <seq>\n")

	for _, track := range tracks {
		fmt.Fprintf(&sb, "      <media src=\"%s\"/>\n", escapeXML(relPath(dir, track.Path)))
	}

	sb.WriteString("    </seq>\n")
	sb.WriteString("  </body>\n")
	sb.WriteString("</smil>\n")

	return sb.String()
}

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	"\"", "&quot;",
	"'", "&apos;",
)

func escapeXML(s string) string {
	return xmlEscaper.Replace(s)
}
