package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/NobeKanai/dvtag/internal/config"
	"github.com/NobeKanai/dvtag/internal/logging"
	"github.com/NobeKanai/dvtag/internal/model"
	"github.com/NobeKanai/dvtag/internal/tagging"
	"github.com/NobeKanai/dvtag/internal/transcode"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var errUsage = errors.New("usage error")

type options struct {
	configPath string
	verbose    bool
	w2f        bool
	w2m        bool

	v        *viper.Viper
	settings *config.Settings
	logger   zerolog.Logger
	closeLog func() error
}

func newRootCmd() *cobra.Command {
	opts := &options{v: viper.New()}

	cmd := &cobra.Command{
		Use:   "dvtag [flags] DIR...",
		Short: "Tag doujin voice releases with DLsite metadata",
		Long: `dvtag finds directories named after a DLsite catalog ID (e.g. RJ123456)
under each DIR, fetches the release metadata and cover from DLsite, and
writes it into every FLAC, M4A and MP3 file of the release.

Files are grouped into discs by directory and by bonus-track patterns,
ordered naturally, and titled from their file names.`,
		Args:              cobra.MinimumNArgs(1),
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: opts.setup,
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if opts.closeLog != nil {
				return opts.closeLog()
			}
			return nil
		},
		RunE: opts.runTag,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", config.DefaultPath(), "settings file (JSON)")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "show debug output")

	cmd.Flags().Bool("dry-run", false, "report which files would change without writing")
	cmd.Flags().IntP("jobs", "j", 1, "number of releases processed in parallel")
	cmd.Flags().Bool("playlist", false, "write a playlist into each release")
	cmd.Flags().Bool("no-titles", false, "use file names as titles")
	cmd.Flags().BoolVar(&opts.w2f, "w2f", false, "transcode WAV to FLAC before tagging")
	cmd.Flags().BoolVar(&opts.w2m, "w2m", false, "transcode WAV to MP3 before tagging")
	cmd.MarkFlagsMutuallyExclusive("w2f", "w2m")

	bind(opts.v, cmd, "dry_run", "dry-run")
	bind(opts.v, cmd, "max_concurrent_releases", "jobs")
	bind(opts.v, cmd, "create_playlist", "playlist")

	cmd.AddCommand(newTranscodeCmd(opts), newConfigCmd(opts))

	return cmd
}

func bind(v *viper.Viper, cmd *cobra.Command, key, flag string) {
	if err := v.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
		panic(err)
	}
}

// setup loads the settings and configures logging for every command.
func (o *options) setup(cmd *cobra.Command, _ []string) error {
	settings, err := config.Load(o.v, o.configPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	if f := cmd.Flags().Lookup("no-titles"); f != nil && f.Changed {
		settings.ExtractTitles = false
	}
	switch {
	case o.w2f:
		settings.Transcode = config.TranscodeFLAC
	case o.w2m:
		settings.Transcode = config.TranscodeMP3
	}
	if o.verbose {
		settings.LogLevel = zerolog.DebugLevel.String()
	}

	logger, closer, err := logging.Setup(logging.Options{
		Level:   settings.LogLevel,
		File:    settings.LogFile,
		Console: os.Stderr,
	})
	if err != nil {
		return fmt.Errorf("set up logging: %w", err)
	}

	o.settings = settings
	o.logger = logger
	o.closeLog = closer.Close
	return nil
}

// report maps manager events onto log levels.
func (o *options) report(event tagging.ProgressEvent) {
	var e *zerolog.Event
	switch event.Level {
	case tagging.LevelVerbose:
		e = o.logger.Debug()
	case tagging.LevelWarning:
		e = o.logger.Warn()
	case tagging.LevelError:
		e = o.logger.Error()
	case tagging.LevelSuccess:
		e = o.logger.Info().Bool("ok", true)
	default:
		e = o.logger.Info()
	}
	e.Msg(event.Message)
}

func (o *options) runTag(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	for _, dir := range args {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			return fmt.Errorf("%w: %s is not a directory", errUsage, dir)
		}
	}

	manager := tagging.NewManager(o.settings, o.report)

	if err := manager.Discover(ctx, args...); err != nil {
		return err
	}
	if len(manager.Releases()) == 0 {
		o.logger.Warn().Strs("dirs", args).Msg("no release directories found")
		return nil
	}

	err := manager.Run(ctx)

	p := manager.GetProgress()
	o.logger.Info().
		Int("releases", p.Releases).
		Int("failed_releases", p.FailedReleases).
		Int("skipped_releases", p.SkippedReleases).
		Int("tagged", p.TaggedFiles).
		Int("unchanged", p.UnchangedFiles).
		Int("failed_files", p.FailedFiles).
		Bool("dry_run", o.settings.DryRun).
		Msg("done")

	return err
}

func newTranscodeCmd(o *options) *cobra.Command {
	var mp3 bool

	cmd := &cobra.Command{
		Use:   "transcode [--mp3] DIR...",
		Short: "Convert WAV files to FLAC (or MP3) in place",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := model.FormatFLAC
			if mp3 {
				target = model.FormatMP3
			}

			t := transcode.New(afero.NewOsFs(),
				transcode.WithFFmpeg(o.settings.FFmpegPath),
				transcode.WithMP3Bitrate(o.settings.MP3Bitrate),
				transcode.WithLogger(o.logger),
			)

			for _, dir := range args {
				res, err := t.Dir(cmd.Context(), dir, target)
				if err != nil {
					return err
				}
				o.logger.Info().Str("dir", dir).Int("converted", res.Converted).Int("skipped", res.Skipped).Msg("transcoded")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&mp3, "mp3", false, "encode MP3 instead of FLAC")

	return cmd
}

func newConfigCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Write the effective settings to the settings file",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			if err := o.settings.Save(o.configPath); err != nil {
				return err
			}
			o.logger.Info().Str("path", o.configPath).Msg("settings saved")
			return nil
		},
	}
}
