package audio

import (
	"bytes"
	"errors"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/NobeKanai/dvtag/internal/model"
	"github.com/dhowden/tag"
	"go.senan.xyz/taglib"
)

// mp4Atoms maps the properties written for an M4A file to their ilst atoms.
var mp4Atoms = map[string]string{
	taglib.Album:       "\xa9alb",
	taglib.Date:        "\xa9day",
	taglib.Title:       "\xa9nam",
	taglib.AlbumArtist: "aART",
	taglib.Artist:      "\xa9ART",
	taglib.Genre:       "\xa9gen",
	taglib.TrackNumber: "trkn",
	taglib.DiscNumber:  "disk",
}

// mp4Tags returns the properties written for fields.
func mp4Tags(f Fields, sep string) map[string][]string {
	tags := map[string][]string{
		taglib.Album:       {f.Album},
		taglib.Date:        {f.Date},
		taglib.Title:       {f.Title},
		taglib.AlbumArtist: {f.AlbumArtist},
		taglib.Artist:      {strings.Join(f.Artists, sep)},
		taglib.Genre:       {strings.Join(f.Genres, sep)},
		taglib.TrackNumber: {itoa(f.Track)},
		taglib.DiscNumber:  {itoa(f.Disc)},
	}
	maps.DeleteFunc(tags, func(_ string, v []string) bool { return v[0] == "" })
	return tags
}

func equalTags(a, b map[string][]string) bool {
	return maps.EqualFunc(a, b, slices.Equal[[]string])
}

// mp4State is what an M4A file holds before a write.
type mp4State struct {
	tags  map[string][]string
	cover []byte
	raw   map[string]interface{}
}

func readMP4State(path string) (*mp4State, error) {
	tags, err := taglib.ReadTags(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	st := &mp4State{tags: tags}
	m, err := tag.ReadFrom(f)
	if err != nil {
		if errors.Is(err, tag.ErrNoTagsFound) {
			return st, nil
		}
		return nil, err
	}
	st.raw = m.Raw()
	if pic := m.Picture(); pic != nil {
		st.cover = pic.Data
	}
	return st, nil
}

// unaddressable reports whether property key only comes from freeform
// atoms whose name differs from key in case. taglib lists such atoms under
// the upper-cased name but cannot remove them.
func (st *mp4State) unaddressable(key string) bool {
	if atom, ok := mp4Atoms[key]; ok {
		if _, ok := st.raw[atom]; ok {
			return false
		}
	}
	if _, ok := st.raw[key]; ok {
		return false
	}
	for name := range st.raw {
		if name != key && strings.ToUpper(name) == key {
			return true
		}
	}
	return false
}

// current returns the tags that a rewrite can change.
func (st *mp4State) current() map[string][]string {
	tags := maps.Clone(st.tags)
	maps.DeleteFunc(tags, func(k string, _ []string) bool { return st.unaddressable(k) })
	return tags
}

// applyMP4 replaces the metadata atoms of an M4A file.
func applyMP4(path string, f Fields, cover *model.Cover, sep string, write bool) (bool, error) {
	want := mp4Tags(f, sep)

	st, err := readMP4State(path)
	if err != nil {
		return false, err
	}

	var wantCover []byte
	if cover != nil {
		wantCover = cover.Data
	}

	if equalTags(st.current(), want) && bytes.Equal(st.cover, wantCover) {
		return false, nil
	}
	if !write {
		return true, nil
	}

	if err := taglib.WriteTags(path, want, taglib.Clear); err != nil {
		return false, err
	}
	if cover != nil || st.cover != nil {
		// A nil image removes the existing cover.
		if err := taglib.WriteImage(path, wantCover); err != nil {
			return false, err
		}
	}
	return true, nil
}
