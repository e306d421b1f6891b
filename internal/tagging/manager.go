package tagging

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/NobeKanai/dvtag/internal/audio"
	"github.com/NobeKanai/dvtag/internal/config"
	"github.com/NobeKanai/dvtag/internal/dlsite"
	"github.com/NobeKanai/dvtag/internal/http"
	ioutils "github.com/NobeKanai/dvtag/internal/io"
	"github.com/NobeKanai/dvtag/internal/model"
	"github.com/NobeKanai/dvtag/internal/scanner"
	"github.com/NobeKanai/dvtag/internal/transcode"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
)

// ErrReleasesFailed is returned by Run when at least one release could not
// be tagged completely.
var ErrReleasesFailed = errors.New("some releases failed")

// ProgressLevel indicates the severity/type of a progress message.
type ProgressLevel int

const (
	LevelInfo ProgressLevel = iota
	LevelVerbose
	LevelWarning
	LevelError
	LevelSuccess
)

// ProgressEvent represents a tagging progress update.
type ProgressEvent struct {
	Message string
	Level   ProgressLevel
}

// Progress is a snapshot of the counters of a run.
type Progress struct {
	Releases       int
	DoneReleases   int
	FailedReleases int
	// SkippedReleases counts releases whose metadata could not be fetched
	// because of a transient failure.
	SkippedReleases int
	TaggedFiles     int
	UnchangedFiles  int
	FailedFiles     int
}

// Fetcher returns release metadata. *dlsite.Fetcher implements it.
type Fetcher interface {
	Fetch(ctx context.Context, workNo string) (*model.Release, error)
	FetchCover(ctx context.Context, rel *model.Release) ([]byte, error)
}

// Tagger writes tags to one file. *audio.Tagger implements it.
type Tagger interface {
	SaveTags(track *model.Track, rel *model.Release, cover *model.Cover) (bool, error)
	CheckTags(track *model.Track, rel *model.Release, cover *model.Cover) (bool, error)
}

// Transcoder converts WAV files under a directory. *transcode.Transcoder
// implements it.
type Transcoder interface {
	Dir(ctx context.Context, root string, target model.Format) (transcode.Result, error)
}

// Manager coordinates release tagging.
type Manager struct {
	settings     *config.Settings
	fs           afero.Fs
	fetcher      Fetcher
	tagger       Tagger
	transcoder   Transcoder
	playlist     *audio.PlaylistCreator
	imageService *ioutils.ImageService
	pathCfg      *model.PathConfig
	scanCfg      scanner.Config

	releases []scanner.Root

	doneReleases    atomic.Int32
	failedReleases  atomic.Int32
	skippedReleases atomic.Int32
	taggedFiles     atomic.Int32
	unchangedFiles  atomic.Int32
	failedFiles     atomic.Int32

	onProgress func(ProgressEvent)
	mu         sync.Mutex
}

// Option configures a Manager.
type Option func(*Manager)

// WithFs sets the file system used for scanning and for the cover and
// playlist files. The default is the OS file system.
func WithFs(fsys afero.Fs) Option {
	return func(m *Manager) { m.fs = fsys }
}

// WithFetcher replaces the DLsite fetcher.
func WithFetcher(f Fetcher) Option {
	return func(m *Manager) { m.fetcher = f }
}

// WithTagger replaces the audio tagger.
func WithTagger(t Tagger) Option {
	return func(m *Manager) { m.tagger = t }
}

// WithTranscoder replaces the transcoder. It is only used when
// settings.Transcode is not "none".
func WithTranscoder(t Transcoder) Option {
	return func(m *Manager) { m.transcoder = t }
}

// NewManager creates a new tagging Manager.
func NewManager(settings *config.Settings, onProgress func(ProgressEvent), opts ...Option) *Manager {
	m := &Manager{
		settings:     settings,
		fs:           afero.NewOsFs(),
		playlist:     audio.NewPlaylistCreator(model.ParsePlaylistFormat(settings.PlaylistFormat), settings.M3UExtended),
		imageService: ioutils.NewImageService(),
		pathCfg:      settings.ToPathConfig(),
		scanCfg:      settings.ToScanConfig(),
		onProgress:   onProgress,
	}
	for _, opt := range opts {
		opt(m)
	}

	if m.fetcher == nil {
		client := http.NewClient(settings.ToHTTPConfig(), log.Logger)
		m.fetcher = dlsite.NewFetcher(client, dlsite.WithLogger(log.Logger))
	}
	if m.tagger == nil {
		m.tagger = audio.NewTagger(settings.ToTagConfig())
	}
	if m.transcoder == nil {
		m.transcoder = transcode.New(m.fs,
			transcode.WithFFmpeg(settings.FFmpegPath),
			transcode.WithMP3Bitrate(settings.MP3Bitrate),
			transcode.WithLogger(log.Logger),
		)
	}

	return m
}

// Discover finds the release roots under each of dirs. A directory whose
// name holds a catalog ID is a release root; other directories are
// searched recursively.
func (m *Manager) Discover(ctx context.Context, dirs ...string) error {
	for _, dir := range dirs {
		if err := ctx.Err(); err != nil {
			return err
		}

		roots, err := scanner.FindRoots(m.fs, dir, dlsite.WorkNo)
		if err != nil {
			return err
		}
		if len(roots) == 0 {
			m.progress(ProgressEvent{Message: fmt.Sprintf("No release directories found in %s", dir), Level: LevelWarning})
		}

		for _, r := range roots {
			m.progress(ProgressEvent{Message: fmt.Sprintf("Found release: %s (%s)", r.ID, r.Path), Level: LevelInfo})
		}
		m.releases = append(m.releases, roots...)
	}

	return nil
}

// Releases returns the release roots found by Discover.
func (m *Manager) Releases() []scanner.Root {
	return m.releases
}

// Run tags every discovered release, up to settings.MaxConcurrentReleases
// at a time. Files within a release are tagged sequentially.
//
// A failing release does not stop the others; Run returns
// ErrReleasesFailed after all releases were processed. A release whose
// metadata fetch failed transiently is skipped and not counted as failed.
// A cancelled ctx stops the run and is returned as is.
func (m *Manager) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, m.settings.MaxConcurrentReleases))

	for _, root := range m.releases {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := m.processRelease(ctx, root); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				m.failedReleases.Add(1)
				m.progress(ProgressEvent{Message: fmt.Sprintf("%s: %v", root.ID, err), Level: LevelError})
			}
			m.doneReleases.Add(1)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	if m.failedReleases.Load() > 0 {
		return fmt.Errorf("%d of %d: %w", m.failedReleases.Load(), len(m.releases), ErrReleasesFailed)
	}
	return nil
}

// GetProgress returns the current counters.
func (m *Manager) GetProgress() Progress {
	return Progress{
		Releases:        len(m.releases),
		DoneReleases:    int(m.doneReleases.Load()),
		FailedReleases:  int(m.failedReleases.Load()),
		SkippedReleases: int(m.skippedReleases.Load()),
		TaggedFiles:     int(m.taggedFiles.Load()),
		UnchangedFiles:  int(m.unchangedFiles.Load()),
		FailedFiles:     int(m.failedFiles.Load()),
	}
}

func (m *Manager) processRelease(ctx context.Context, root scanner.Root) error {
	if err := m.transcodeRelease(ctx, root); err != nil {
		return err
	}

	layout, err := scanner.Scan(m.fs, root.Path, m.scanCfg)
	if errors.Is(err, scanner.ErrNoAudio) {
		m.progress(ProgressEvent{Message: fmt.Sprintf("%s: no audio files found, skipping", root.ID), Level: LevelWarning})
		return nil
	}
	if err != nil {
		return err
	}

	m.progress(ProgressEvent{Message: fmt.Sprintf("Fetching metadata: %s", root.ID), Level: LevelVerbose})
	rel, err := m.fetcher.Fetch(ctx, root.ID)
	if err != nil {
		if ctx.Err() != nil || !transient(err) {
			return err
		}
		m.skippedReleases.Add(1)
		m.progress(ProgressEvent{Message: fmt.Sprintf("%s: metadata unavailable, skipping: %v", root.ID, err), Level: LevelWarning})
		return nil
	}

	cover := m.prepareCover(ctx, root, rel)

	var failed int
	for _, track := range layout.Tracks() {
		if err := ctx.Err(); err != nil {
			return err
		}

		changed, err := m.tagTrack(track, rel, cover)
		switch {
		case err != nil:
			failed++
			m.failedFiles.Add(1)
			m.progress(ProgressEvent{Message: fmt.Sprintf("Error tagging %s: %v", filepath.Base(track.Path), err), Level: LevelError})
		case changed:
			m.taggedFiles.Add(1)
			m.progress(ProgressEvent{Message: fmt.Sprintf("Tagged: %s", m.relPath(root, track.Path)), Level: LevelVerbose})
		default:
			m.unchangedFiles.Add(1)
		}
	}

	if m.settings.CreatePlaylist && !m.settings.DryRun {
		m.writePlaylist(root, rel, layout)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files could not be tagged", failed, layout.TrackCount())
	}

	m.progress(ProgressEvent{Message: fmt.Sprintf("Finished %s: %s (%d files)", rel.ID, rel.Name, layout.TrackCount()), Level: LevelSuccess})
	return nil
}

// transient reports whether a fetch error is worth another run: anything
// but a malformed page or an unknown catalog ID.
func transient(err error) bool {
	var perr *dlsite.ParseError
	return !errors.As(err, &perr) && !errors.Is(err, dlsite.ErrNotFound)
}

func (m *Manager) transcodeRelease(ctx context.Context, root scanner.Root) error {
	var target model.Format
	switch m.settings.Transcode {
	case config.TranscodeFLAC:
		target = model.FormatFLAC
	case config.TranscodeMP3:
		target = model.FormatMP3
	default:
		return nil
	}

	if m.settings.DryRun {
		m.progress(ProgressEvent{Message: fmt.Sprintf("%s: dry run, not transcoding to %s", root.ID, target), Level: LevelVerbose})
		return nil
	}

	res, err := m.transcoder.Dir(ctx, root.Path, target)
	if err != nil {
		return err
	}
	if res.Converted > 0 || res.Skipped > 0 {
		m.progress(ProgressEvent{Message: fmt.Sprintf("%s: transcoded %d files to %s, %d skipped", root.ID, res.Converted, target, res.Skipped), Level: LevelInfo})
	}
	return nil
}

func (m *Manager) tagTrack(track *model.Track, rel *model.Release, cover *model.Cover) (bool, error) {
	if m.settings.DryRun {
		return m.tagger.CheckTags(track, rel, cover)
	}
	return m.tagger.SaveTags(track, rel, cover)
}

// prepareCover downloads the cover once per release, saves the folder
// image if requested and returns the image to embed. Cover failures are
// reported as warnings and tagging continues without a cover.
func (m *Manager) prepareCover(ctx context.Context, root scanner.Root, rel *model.Release) *model.Cover {
	s := m.settings
	if !rel.HasCover() || (!s.SaveCoverArtInTags && !s.SaveCoverArtInFolder) {
		return nil
	}

	data, err := m.fetcher.FetchCover(ctx, rel)
	if err != nil {
		m.progress(ProgressEvent{Message: fmt.Sprintf("Error downloading cover for %s: %v", rel.ID, err), Level: LevelWarning})
		return nil
	}

	if s.SaveCoverArtInFolder && !s.DryRun {
		m.saveFolderCover(ctx, root, rel, data)
	}

	if !s.SaveCoverArtInTags {
		return nil
	}

	maxSize := 0
	if s.CoverArtInTagsResize {
		maxSize = s.CoverArtInTagsMaxSize
	}
	cover, err := m.imageService.ToCover(ctx, data, maxSize)
	if err != nil {
		m.progress(ProgressEvent{Message: fmt.Sprintf("Error converting cover for %s: %v", rel.ID, err), Level: LevelWarning})
		return nil
	}
	return cover
}

func (m *Manager) saveFolderCover(ctx context.Context, root scanner.Root, rel *model.Release, data []byte) {
	maxSize := 0
	if m.settings.CoverArtInFolderResize {
		maxSize = m.settings.CoverArtInFolderMaxSize
	}

	cover, err := m.imageService.ToCover(ctx, data, maxSize)
	if err != nil {
		m.progress(ProgressEvent{Message: fmt.Sprintf("Error converting cover for %s: %v", rel.ID, err), Level: LevelWarning})
		return
	}

	path := rel.CoverPath(root.Path, m.pathCfg)
	written, err := ioutils.WriteFileIfAbsent(m.fs, path, cover.Data)
	switch {
	case err != nil:
		m.progress(ProgressEvent{Message: fmt.Sprintf("Error saving cover: %v", err), Level: LevelWarning})
	case written:
		m.progress(ProgressEvent{Message: fmt.Sprintf("Saved cover: %s", m.relPath(root, path)), Level: LevelVerbose})
	}
}

func (m *Manager) writePlaylist(root scanner.Root, rel *model.Release, layout *scanner.Layout) {
	path := rel.PlaylistPath(root.Path, m.pathCfg)
	content := m.playlist.CreatePlaylist(rel, layout.Tracks(), filepath.Dir(path))

	if err := ioutils.WriteFile(m.fs, path, []byte(content)); err != nil {
		m.progress(ProgressEvent{Message: fmt.Sprintf("Error creating playlist: %v", err), Level: LevelWarning})
		return
	}
	m.progress(ProgressEvent{Message: fmt.Sprintf("Created playlist for %s", rel.ID), Level: LevelSuccess})
}

func (m *Manager) relPath(root scanner.Root, path string) string {
	if rel, err := filepath.Rel(root.Path, path); err == nil {
		return filepath.Join(filepath.Base(root.Path), rel)
	}
	return path
}

// progress serializes callbacks from concurrent releases.
func (m *Manager) progress(event ProgressEvent) {
	if m.onProgress == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onProgress(event)
}
