package tagging

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"strings"
	"sync"
	"testing"

	"github.com/NobeKanai/dvtag/internal/config"
	"github.com/NobeKanai/dvtag/internal/dlsite"
	"github.com/NobeKanai/dvtag/internal/model"
	"github.com/NobeKanai/dvtag/internal/transcode"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	releases map[string]*model.Release
	errs     map[string]error
	cover    []byte
}

func (f *fakeFetcher) Fetch(_ context.Context, workNo string) (*model.Release, error) {
	if err, ok := f.errs[workNo]; ok {
		return nil, err
	}
	rel, ok := f.releases[workNo]
	if !ok {
		return nil, &dlsite.ParseError{WorkNo: workNo, Field: "work name", Err: errors.New("no match")}
	}
	return rel, nil
}

func (f *fakeFetcher) FetchCover(_ context.Context, _ *model.Release) ([]byte, error) {
	if f.cover == nil {
		return nil, errors.New("no cover")
	}
	return f.cover, nil
}

type call struct {
	Path   string
	Number int
	Disc   int
	Title  string
	Cover  bool
	DryRun bool
}

type fakeTagger struct {
	mu    sync.Mutex
	calls []call
	fail  string
}

func (t *fakeTagger) record(track *model.Track, cover *model.Cover, dry bool) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls = append(t.calls, call{track.Path, track.Number, track.Disc, track.Title, cover != nil, dry})
	if track.Path == t.fail {
		return false, errors.New("broken file")
	}
	return true, nil
}

func (t *fakeTagger) SaveTags(track *model.Track, _ *model.Release, cover *model.Cover) (bool, error) {
	return t.record(track, cover, false)
}

func (t *fakeTagger) CheckTags(track *model.Track, _ *model.Release, cover *model.Cover) (bool, error) {
	return t.record(track, cover, true)
}

type fakeTranscoder struct{ roots []string }

func (t *fakeTranscoder) Dir(_ context.Context, root string, _ model.Format) (transcode.Result, error) {
	t.roots = append(t.roots, root)
	return transcode.Result{Converted: 1}, nil
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))))
	return buf.Bytes()
}

type fixture struct {
	fs       afero.Fs
	fetcher  *fakeFetcher
	tagger   *fakeTagger
	settings *config.Settings
	events   []ProgressEvent
}

func newFixture(t *testing.T, files ...string) *fixture {
	t.Helper()
	fs := afero.NewMemMapFs()
	for _, f := range files {
		require.NoError(t, afero.WriteFile(fs, f, []byte("audio"), 0o644))
	}

	settings := config.DefaultSettings()
	settings.MaxConcurrentReleases = 2

	return &fixture{
		fs: fs,
		fetcher: &fakeFetcher{
			releases: map[string]*model.Release{
				"RJ123456": {ID: "RJ123456", Name: "Forest", Circle: "Circle", ImageURL: "https://example.com/c.jpg"},
			},
			cover: pngBytes(t),
		},
		tagger:   &fakeTagger{},
		settings: settings,
	}
}

func (f *fixture) manager(opts ...Option) *Manager {
	opts = append([]Option{WithFs(f.fs), WithFetcher(f.fetcher), WithTagger(f.tagger)}, opts...)
	return NewManager(f.settings, func(e ProgressEvent) { f.events = append(f.events, e) }, opts...)
}

func TestManager_Discover(t *testing.T) {
	f := newFixture(t,
		"/lib/circle/RJ123456 Forest/01.mp3",
		"/lib/rj01234567/01.mp3",
		"/lib/misc/readme.txt",
	)
	m := f.manager()

	require.NoError(t, m.Discover(context.Background(), "/lib"))

	roots := m.Releases()
	require.Len(t, roots, 2)
	assert.Equal(t, "RJ123456", roots[0].ID)
	assert.Equal(t, "/lib/circle/RJ123456 Forest", roots[0].Path)
	assert.Equal(t, "RJ01234567", roots[1].ID)
}

func TestManager_Run(t *testing.T) {
	f := newFixture(t,
		"/lib/RJ123456/CD1/01 はじまり.flac",
		"/lib/RJ123456/CD1/02 おわり.flac",
		"/lib/RJ123456/CD2/1.mp3",
	)
	f.settings.CreatePlaylist = true
	m := f.manager()

	require.NoError(t, m.Discover(context.Background(), "/lib"))
	require.NoError(t, m.Run(context.Background()))

	assert.Equal(t, []call{
		{"/lib/RJ123456/CD1/01 はじまり.flac", 1, 1, "はじまり", true, false},
		{"/lib/RJ123456/CD1/02 おわり.flac", 2, 1, "おわり", true, false},
		{"/lib/RJ123456/CD2/1.mp3", 1, 2, "1", true, false},
	}, f.tagger.calls)

	assert.Equal(t, Progress{Releases: 1, DoneReleases: 1, TaggedFiles: 3}, m.GetProgress())

	cover, err := afero.ReadFile(f.fs, "/lib/RJ123456/cover.png")
	require.NoError(t, err)
	assert.NotEmpty(t, cover)

	playlist, err := afero.ReadFile(f.fs, "/lib/RJ123456/RJ123456.m3u")
	require.NoError(t, err)
	assert.Contains(t, string(playlist), "CD1/01 はじまり.flac\n")
	assert.Contains(t, string(playlist), "#EXTINF:-1,Circle - おわり\n")
}

func TestManager_DryRun(t *testing.T) {
	f := newFixture(t, "/lib/RJ123456/01.mp3")
	f.settings.DryRun = true
	f.settings.CreatePlaylist = true
	f.settings.Transcode = config.TranscodeFLAC
	tr := &fakeTranscoder{}
	m := f.manager(WithTranscoder(tr))

	require.NoError(t, m.Discover(context.Background(), "/lib"))
	require.NoError(t, m.Run(context.Background()))

	require.Len(t, f.tagger.calls, 1)
	assert.True(t, f.tagger.calls[0].DryRun)
	assert.Empty(t, tr.roots)

	for _, p := range []string{"/lib/RJ123456/cover.png", "/lib/RJ123456/RJ123456.m3u"} {
		ok, _ := afero.Exists(f.fs, p)
		assert.False(t, ok, p)
	}
}

func TestManager_Transcode(t *testing.T) {
	f := newFixture(t, "/lib/RJ123456/01.mp3")
	f.settings.Transcode = config.TranscodeMP3
	tr := &fakeTranscoder{}
	m := f.manager(WithTranscoder(tr))

	require.NoError(t, m.Discover(context.Background(), "/lib"))
	require.NoError(t, m.Run(context.Background()))

	assert.Equal(t, []string{"/lib/RJ123456"}, tr.roots)
}

func TestManager_FailedRelease(t *testing.T) {
	f := newFixture(t,
		"/lib/RJ123456/01.mp3",
		"/lib/RJ999999/01.mp3",
	)
	m := f.manager()

	require.NoError(t, m.Discover(context.Background(), "/lib"))
	err := m.Run(context.Background())
	require.ErrorIs(t, err, ErrReleasesFailed)

	p := m.GetProgress()
	assert.Equal(t, 2, p.DoneReleases)
	assert.Equal(t, 1, p.FailedReleases)
	assert.Equal(t, 1, p.TaggedFiles)

	var sawError bool
	for _, e := range f.events {
		if e.Level == LevelError {
			sawError = true
			assert.Contains(t, e.Message, "RJ999999")
		}
	}
	assert.True(t, sawError)
}

func TestManager_FetchErrors(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantFailed  int
		wantSkipped int
		wantLevel   ProgressLevel
	}{
		{"transient", errors.New("dial tcp: connection refused"), 0, 1, LevelWarning},
		{"not found", fmt.Errorf("RJ999999: %w", dlsite.ErrNotFound), 1, 0, LevelError},
		{"parse error", &dlsite.ParseError{WorkNo: "RJ999999", Field: "sale date"}, 1, 0, LevelError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, "/lib/RJ123456/01.mp3", "/lib/RJ999999/01.mp3")
			f.fetcher.errs = map[string]error{"RJ999999": tt.err}
			m := f.manager()

			require.NoError(t, m.Discover(context.Background(), "/lib"))
			err := m.Run(context.Background())
			if tt.wantFailed > 0 {
				require.ErrorIs(t, err, ErrReleasesFailed)
			} else {
				require.NoError(t, err)
			}

			p := m.GetProgress()
			assert.Equal(t, 2, p.DoneReleases)
			assert.Equal(t, tt.wantFailed, p.FailedReleases)
			assert.Equal(t, tt.wantSkipped, p.SkippedReleases)
			assert.Equal(t, 1, p.TaggedFiles)

			var levels []ProgressLevel
			for _, e := range f.events {
				if strings.Contains(e.Message, "RJ999999:") {
					levels = append(levels, e.Level)
				}
			}
			assert.Equal(t, []ProgressLevel{tt.wantLevel}, levels)
		})
	}
}

func TestManager_FailedFile(t *testing.T) {
	f := newFixture(t, "/lib/RJ123456/01.mp3", "/lib/RJ123456/02.mp3")
	f.tagger.fail = "/lib/RJ123456/01.mp3"
	m := f.manager()

	require.NoError(t, m.Discover(context.Background(), "/lib"))
	require.ErrorIs(t, m.Run(context.Background()), ErrReleasesFailed)

	p := m.GetProgress()
	assert.Equal(t, 1, p.FailedFiles)
	assert.Equal(t, 1, p.TaggedFiles)
	assert.Len(t, f.tagger.calls, 2, "remaining files are still tagged")
}

func TestManager_NoAudio(t *testing.T) {
	f := newFixture(t, "/lib/RJ123456/readme.txt")
	m := f.manager()

	require.NoError(t, m.Discover(context.Background(), "/lib"))
	require.NoError(t, m.Run(context.Background()))

	assert.Empty(t, f.tagger.calls)
	assert.Equal(t, 0, m.GetProgress().FailedReleases)
}

func TestManager_CoverUnavailable(t *testing.T) {
	f := newFixture(t, "/lib/RJ123456/01.mp3")
	f.fetcher.cover = nil
	m := f.manager()

	require.NoError(t, m.Discover(context.Background(), "/lib"))
	require.NoError(t, m.Run(context.Background()))

	require.Len(t, f.tagger.calls, 1)
	assert.False(t, f.tagger.calls[0].Cover)
}

func TestManager_ExistingFolderCoverKept(t *testing.T) {
	f := newFixture(t, "/lib/RJ123456/01.mp3")
	require.NoError(t, afero.WriteFile(f.fs, "/lib/RJ123456/cover.png", []byte("mine"), 0o644))
	m := f.manager()

	require.NoError(t, m.Discover(context.Background(), "/lib"))
	require.NoError(t, m.Run(context.Background()))

	data, err := afero.ReadFile(f.fs, "/lib/RJ123456/cover.png")
	require.NoError(t, err)
	assert.Equal(t, "mine", string(data))
}
