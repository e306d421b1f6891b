package scanner

import (
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/NobeKanai/dvtag/internal/model"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFs(t *testing.T, files ...string) afero.Fs {
	t.Helper()

	fs := afero.NewMemMapFs()
	for _, f := range files {
		require.NoError(t, fs.MkdirAll(filepath.Dir(f), 0o755))
		require.NoError(t, afero.WriteFile(fs, f, []byte("x"), 0o644))
	}
	return fs
}

func TestWalk_Order(t *testing.T) {
	t.Parallel()

	fs := newFs(t,
		"/r/a.mp3",
		"/r/disc10/x.mp3",
		"/r/disc2/y.mp3",
		"/r/disc2/inner/z.mp3",
		"/r/Disc1/w.mp3",
	)

	var got []string
	for dir, err := range Walk(fs, "/r") {
		require.NoError(t, err)
		got = append(got, dir.Path)
	}

	assert.Equal(t, []string{
		"/r",
		"/r/Disc1",
		"/r/disc2",
		"/r/disc2/inner",
		"/r/disc10",
	}, got)
}

func TestWalk_StopEarly(t *testing.T) {
	t.Parallel()

	fs := newFs(t, "/r/a/1.mp3", "/r/b/2.mp3")

	n := 0
	for range Walk(fs, "/r") {
		n++
		if n == 2 {
			break
		}
	}
	assert.Equal(t, 2, n)
}

func TestWalk_MissingRoot(t *testing.T) {
	t.Parallel()

	for _, err := range Walk(afero.NewMemMapFs(), "/missing") {
		require.Error(t, err)
	}
}

func TestScan_SingleDisc(t *testing.T) {
	t.Parallel()

	fs := newFs(t,
		"/r/10 終わり.mp3",
		"/r/2 中.mp3",
		"/r/1 始め.mp3",
		"/r/readme.txt",
	)

	layout, err := Scan(fs, "/r", Config{})
	require.NoError(t, err)
	require.Len(t, layout.Discs, 1)

	d := layout.Discs[0]
	assert.Equal(t, 0, d.Number)
	assert.Equal(t, model.FormatMP3, d.Format)

	var names []string
	for i, tr := range d.Tracks {
		names = append(names, filepath.Base(tr.Path))
		assert.Equal(t, i+1, tr.Number)
		assert.Equal(t, 0, tr.Disc)
		assert.Equal(t, tr.Stem(), tr.Title)
	}
	assert.Equal(t, []string{"1 始め.mp3", "2 中.mp3", "10 終わり.mp3"}, names)
}

func TestScan_DiscOrder(t *testing.T) {
	t.Parallel()

	fs := newFs(t,
		"/r/mp3/01 a.mp3",
		"/r/mp3/おまけ.mp3",
		"/r/flac/01 a.flac",
		"/r/flac/02 b.flac",
		"/r/flac/sub/omake_1.flac",
		"/r/m4a/01 a.m4a",
	)

	layout, err := Scan(fs, "/r", Config{})
	require.NoError(t, err)

	type disc struct {
		number int
		format model.Format
		dir    string
		label  string
	}
	var got []disc
	for _, d := range layout.Discs {
		got = append(got, disc{d.Number, d.Format, d.Dir, d.Label})
		for _, tr := range d.Tracks {
			assert.Equal(t, d.Number, tr.Disc)
		}
	}

	assert.Equal(t, []disc{
		{1, model.FormatFLAC, "/r/flac", ""},
		{2, model.FormatFLAC, "/r/flac/sub", "omake"},
		{3, model.FormatM4A, "/r/m4a", ""},
		{4, model.FormatMP3, "/r/mp3", ""},
		{5, model.FormatMP3, "/r/mp3", "omake-ja"},
	}, got)
	assert.Equal(t, 6, layout.TrackCount())
}

func TestScan_BonusInSameDirectory(t *testing.T) {
	t.Parallel()

	fs := newFs(t,
		"/r/01 本編.flac",
		"/r/02 本編B.flac",
		"/r/特典 フリートーク.flac",
	)

	layout, err := Scan(fs, "/r", Config{})
	require.NoError(t, err)
	require.Len(t, layout.Discs, 2)

	assert.Equal(t, 1, layout.Discs[0].Number)
	assert.Len(t, layout.Discs[0].Tracks, 2)
	assert.Equal(t, 2, layout.Discs[1].Number)
	assert.Equal(t, 1, layout.Discs[1].Tracks[0].Number)
}

func TestScan_ExtractTitles(t *testing.T) {
	t.Parallel()

	fs := newFs(t,
		"/r/トラック01.森の中.flac",
		"/r/トラック02.冒険.flac",
		"/r/トラック03.帰り道.flac",
	)

	layout, err := Scan(fs, "/r", Config{ExtractTitles: true})
	require.NoError(t, err)

	var got []string
	for _, tr := range layout.Tracks() {
		got = append(got, tr.Title)
	}
	assert.Equal(t, []string{"森の中", "冒険", "帰り道"}, got)
}

func TestScan_NoAudio(t *testing.T) {
	t.Parallel()

	fs := newFs(t, "/r/cover.jpg", "/r/sub/track.wav")

	layout, err := Scan(fs, "/r", Config{})
	require.ErrorIs(t, err, ErrNoAudio)
	assert.Empty(t, layout.Discs)
}

func TestScan_UpperCaseExtension(t *testing.T) {
	t.Parallel()

	fs := newFs(t, "/r/01.MP3", "/r/02.Mp3")

	layout, err := Scan(fs, "/r", Config{})
	require.NoError(t, err)
	require.Len(t, layout.Discs, 1)
	assert.Len(t, layout.Discs[0].Tracks, 2)
}

var rjPattern = regexp.MustCompile(`(?i)RJ\d{6}(?:\d{2})?`)

func matchRJ(name string) (string, bool) {
	id := rjPattern.FindString(name)
	return strings.ToUpper(id), id != ""
}

func TestFindRoots(t *testing.T) {
	t.Parallel()

	fs := newFs(t,
		"/lib/circle/[RJ123456] work/01.mp3",
		"/lib/circle/rj01234567 other/sub/RJ999999/01.mp3",
		"/lib/misc/notes.txt",
		"/lib/RJ222222/01.mp3",
	)

	roots, err := FindRoots(fs, "/lib", matchRJ)
	require.NoError(t, err)

	assert.Equal(t, []Root{
		{Path: "/lib/circle/[RJ123456] work", ID: "RJ123456"},
		{Path: "/lib/circle/rj01234567 other", ID: "RJ01234567"},
		{Path: "/lib/RJ222222", ID: "RJ222222"},
	}, roots)
}

func TestFindRoots_RootItself(t *testing.T) {
	t.Parallel()

	fs := newFs(t, "/RJ123456/01.mp3")

	roots, err := FindRoots(fs, "/RJ123456", matchRJ)
	require.NoError(t, err)
	assert.Equal(t, []Root{{Path: "/RJ123456", ID: "RJ123456"}}, roots)
}
