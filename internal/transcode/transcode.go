// Package transcode converts WAV files to FLAC or MP3 with ffmpeg.
package transcode

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	ioutils "github.com/NobeKanai/dvtag/internal/io"
	"github.com/NobeKanai/dvtag/internal/model"
	"github.com/NobeKanai/dvtag/internal/natsort"
	"github.com/NobeKanai/dvtag/internal/scanner"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// ErrTargetExists is returned by File when the output file already exists.
var ErrTargetExists = errors.New("target already exists")

// Runner runs the encoder and returns its standard error output.
type Runner func(ctx context.Context, name string, args []string) ([]byte, error)

func execRunner(ctx context.Context, name string, args []string) ([]byte, error) {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stderr.Bytes(), err
}

// Result counts the outcome of a Dir run.
type Result struct {
	Converted int
	Skipped   int
}

// Transcoder converts WAV files in place: the encoded file is written next
// to its source and the source is removed once encoding succeeded.
type Transcoder struct {
	fs      afero.Fs
	ffmpeg  string
	bitrate string
	run     Runner
	logger  zerolog.Logger
}

// Option configures a Transcoder.
type Option func(*Transcoder)

// WithFFmpeg sets the encoder binary. The default is "ffmpeg" from PATH.
func WithFFmpeg(path string) Option {
	return func(t *Transcoder) { t.ffmpeg = path }
}

// WithMP3Bitrate sets the MP3 audio bitrate, e.g. "192k".
func WithMP3Bitrate(bitrate string) Option {
	return func(t *Transcoder) { t.bitrate = bitrate }
}

// WithRunner replaces the process runner.
func WithRunner(run Runner) Option {
	return func(t *Transcoder) { t.run = run }
}

// WithLogger sets the logger for per-file progress.
func WithLogger(logger zerolog.Logger) Option {
	return func(t *Transcoder) { t.logger = logger }
}

// New creates a Transcoder working on fsys.
func New(fsys afero.Fs, opts ...Option) *Transcoder {
	t := &Transcoder{
		fs:      fsys,
		ffmpeg:  "ffmpeg",
		bitrate: "320k",
		run:     execRunner,
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Target returns the output path for src.
func Target(src string, target model.Format) string {
	return strings.TrimSuffix(src, filepath.Ext(src)) + target.Extension()
}

// Args returns the encoder arguments that convert src into dst.
func (t *Transcoder) Args(src, dst string, target model.Format) []string {
	out := ffmpeg.KwArgs{}
	if target == model.FormatMP3 {
		out["b:a"] = t.bitrate
	}
	return ffmpeg.Input(src, ffmpeg.KwArgs{"vn": ""}).
		Output(dst, out).
		GetArgs()
}

// File converts one WAV file and returns the output path. When the output
// exists File returns ErrTargetExists and leaves both files alone. On
// failure the partial output is removed.
func (t *Transcoder) File(ctx context.Context, src string, target model.Format) (string, error) {
	dst := Target(src, target)

	exists, err := ioutils.Exists(t.fs, dst)
	if err != nil {
		return "", err
	}
	if exists {
		return dst, fmt.Errorf("%s: %w", dst, ErrTargetExists)
	}

	stderr, err := t.run(ctx, t.ffmpeg, t.Args(src, dst, target))
	if err != nil {
		if rmErr := t.fs.Remove(dst); rmErr != nil && !os.IsNotExist(rmErr) {
			t.logger.Warn().Err(rmErr).Str("path", dst).Msg("failed to remove partial output")
		}
		return "", fmt.Errorf("transcode %s: %w: %s", src, err, strings.TrimSpace(string(stderr)))
	}

	if err := t.fs.Remove(src); err != nil {
		return dst, fmt.Errorf("remove %s: %w", src, err)
	}
	return dst, nil
}

// Dir converts every WAV file under root, directory by directory in
// scanner.Walk order and by natural order within a directory. A file whose
// output already exists is skipped with a warning. The first failure stops
// the run.
func (t *Transcoder) Dir(ctx context.Context, root string, target model.Format) (Result, error) {
	var res Result

	var sources []string
	for dir, err := range scanner.Walk(t.fs, root) {
		if err != nil {
			return res, err
		}
		var wavs []string
		for _, f := range dir.Files {
			if strings.EqualFold(filepath.Ext(f), ".wav") {
				wavs = append(wavs, f)
			}
		}
		natsort.Sort(wavs)
		sources = append(sources, wavs...)
	}

	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		t.logger.Info().Str("file", filepath.Base(src)).Stringer("format", target).Msg("transcoding")

		dst, err := t.File(ctx, src, target)
		switch {
		case errors.Is(err, ErrTargetExists):
			t.logger.Warn().Str("file", filepath.Base(dst)).Msg("already exists, skipping")
			res.Skipped++
		case err != nil:
			return res, err
		default:
			res.Converted++
		}
	}
	return res, nil
}
