package scanner

import (
	"errors"
	"path/filepath"

	"github.com/NobeKanai/dvtag/internal/classify"
	"github.com/NobeKanai/dvtag/internal/model"
	"github.com/NobeKanai/dvtag/internal/natsort"
	"github.com/NobeKanai/dvtag/internal/titles"
	"github.com/spf13/afero"
)

// ErrNoAudio is returned by Scan when a release holds no supported audio.
var ErrNoAudio = errors.New("no audio files found")

// Config controls how discs are built.
type Config struct {
	// ExtractTitles enables deriving titles from numbered file names.
	// When false every track is titled by its file stem.
	ExtractTitles bool
}

// Layout is the disc structure of one release.
type Layout struct {
	Root  string
	Discs []*model.Disc
}

// TrackCount returns the number of tracks across all discs.
func (l *Layout) TrackCount() int {
	n := 0
	for _, d := range l.Discs {
		n += len(d.Tracks)
	}
	return n
}

// Tracks returns every track in disc order.
func (l *Layout) Tracks() []*model.Track {
	tracks := make([]*model.Track, 0, l.TrackCount())
	for _, d := range l.Discs {
		tracks = append(tracks, d.Tracks...)
	}
	return tracks
}

// Scan walks root and arranges its audio files into discs.
//
// Each directory's files are split by format and every format bucket is
// classified on its own. Discs are ordered format first (all FLAC discs,
// then M4A, then MP3), then by directory walk order, then by group order.
// Disc numbers 1..n are assigned only when there is more than one disc.
func Scan(fsys afero.Fs, root string, cfg Config) (*Layout, error) {
	byFormat := make(map[model.Format][]*model.Disc, len(model.Formats))

	for dir, err := range Walk(fsys, root) {
		if err != nil {
			return nil, err
		}

		for _, f := range model.Formats {
			byFormat[f] = append(byFormat[f], Group(dir, f)...)
		}
	}

	layout := &Layout{Root: root}
	for _, f := range model.Formats {
		layout.Discs = append(layout.Discs, byFormat[f]...)
	}

	if len(layout.Discs) == 0 {
		return layout, ErrNoAudio
	}

	Number(layout.Discs, cfg)

	return layout, nil
}

// Group classifies the files of dir with format f into discs. Tracks are
// natural-sorted and numbered from 1; disc numbers and titles are left
// unset.
func Group(dir Dir, f model.Format) []*model.Disc {
	var names []string
	for _, p := range dir.Files {
		if got, ok := model.FormatOf(p); ok && got == f {
			names = append(names, filepath.Base(p))
		}
	}

	var discs []*model.Disc
	for _, g := range classify.Classify(names) {
		natsort.Sort(g.Names)

		d := &model.Disc{Dir: dir.Path, Format: f, Label: g.Label}
		for i, name := range g.Names {
			d.Tracks = append(d.Tracks, &model.Track{
				Path:   filepath.Join(dir.Path, name),
				Number: i + 1,
			})
		}
		discs = append(discs, d)
	}

	return discs
}

// Number assigns disc numbers and track titles in place.
func Number(discs []*model.Disc, cfg Config) {
	multi := len(discs) > 1

	for i, d := range discs {
		d.Number = 0
		if multi {
			d.Number = i + 1
		}

		stems := make([]string, len(d.Tracks))
		for j, t := range d.Tracks {
			stems[j] = t.Stem()
		}

		names := stems
		if cfg.ExtractTitles {
			names = titles.Extract(stems)
		}

		for j, t := range d.Tracks {
			t.Disc = d.Number
			t.Title = names[j]
		}
	}
}
