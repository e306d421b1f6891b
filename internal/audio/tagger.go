package audio

import (
	"errors"
	"fmt"
	"slices"
	"strconv"

	"github.com/NobeKanai/dvtag/internal/model"
)

// ErrUnsupported is returned for files whose format cannot be tagged.
var ErrUnsupported = errors.New("unsupported audio format")

// TagConfig holds tagging configuration shared by every container format.
//
// Example:
//
//	cfg := &TagConfig{
//	    Separator:  ";",  // "Voice A;Voice B" in single-valued frames
//	    EmbedCover: true, // write the front cover into every file
//	}
type TagConfig struct {
	// Separator joins multi-valued fields in containers that only hold
	// one string per field (ID3 and MP4). FLAC keeps one comment per value.
	Separator string

	// EmbedCover writes the cover art into the file when one is given.
	EmbedCover bool
}

// DefaultTagConfig returns the default tag configuration.
func DefaultTagConfig() *TagConfig {
	return &TagConfig{
		Separator:  ";",
		EmbedCover: true,
	}
}

// Fields is the complete set of values written to one file.
//
// Empty strings, empty lists and zero numbers are not written.
type Fields struct {
	Album       string
	AlbumArtist string
	Date        string
	Title       string
	Artists     []string
	Genres      []string
	Track       int
	Disc        int
}

// NewFields builds the fields of track within rel.
func NewFields(track *model.Track, rel *model.Release) Fields {
	return Fields{
		Album:       rel.Name,
		AlbumArtist: rel.Circle,
		Date:        rel.SaleDate,
		Title:       track.Title,
		Artists:     slices.Clone(rel.Seiyus),
		Genres:      slices.Clone(rel.Genres),
		Track:       track.Number,
		Disc:        track.Disc,
	}
}

func itoa(n int) string {
	if n <= 0 {
		return ""
	}
	return strconv.Itoa(n)
}

// Tagger writes release metadata into FLAC, M4A and MP3 files.
//
// Every write replaces the file's existing tags and pictures. A file whose
// tags already equal the would-be tags is left untouched, so running the
// Tagger twice over the same release only writes on the first run.
//
// Example:
//
//	tagger := NewTagger(DefaultTagConfig())
//
//	changed, err := tagger.SaveTags(track, rel, cover)
//	if err != nil {
//	    log.Printf("Failed to tag %s: %v", track.Path, err)
//	}
type Tagger struct {
	config *TagConfig
}

// NewTagger creates a new Tagger with the given configuration.
//
// If config is nil, DefaultTagConfig() is used.
func NewTagger(config *TagConfig) *Tagger {
	if config == nil {
		config = DefaultTagConfig()
	}
	return &Tagger{config: config}
}

// SaveTags writes the tags of track to its file.
//
// Parameters:
//   - track: the file, its position and its title
//   - rel: the release the file belongs to
//   - cover: the front cover, nil to write none
//
// SaveTags reports whether the file was written.
func (t *Tagger) SaveTags(track *model.Track, rel *model.Release, cover *model.Cover) (bool, error) {
	return t.apply(track, rel, cover, true)
}

// CheckTags reports whether SaveTags would write the file, without writing.
func (t *Tagger) CheckTags(track *model.Track, rel *model.Release, cover *model.Cover) (bool, error) {
	return t.apply(track, rel, cover, false)
}

func (t *Tagger) apply(track *model.Track, rel *model.Release, cover *model.Cover, write bool) (bool, error) {
	format, ok := model.FormatOf(track.Path)
	if !ok {
		return false, fmt.Errorf("%s: %w", track.Path, ErrUnsupported)
	}

	if !t.config.EmbedCover {
		cover = nil
	}
	fields := NewFields(track, rel)

	var (
		changed bool
		err     error
	)
	switch format {
	case model.FormatFLAC:
		changed, err = applyFLAC(track.Path, fields, cover, write)
	case model.FormatM4A:
		changed, err = applyMP4(track.Path, fields, cover, t.config.Separator, write)
	case model.FormatMP3:
		changed, err = applyID3(track.Path, fields, cover, t.config.Separator, write)
	}
	if err != nil {
		return false, fmt.Errorf("tag %s: %w", track.Path, err)
	}
	return changed, nil
}
