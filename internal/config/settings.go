package config

import (
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/NobeKanai/dvtag/internal/audio"
	"github.com/NobeKanai/dvtag/internal/dlsite"
	dvhttp "github.com/NobeKanai/dvtag/internal/http"
	"github.com/NobeKanai/dvtag/internal/model"
	"github.com/NobeKanai/dvtag/internal/scanner"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment variables that override settings, e.g.
// DVTAG_MAX_RETRIES=3.
const EnvPrefix = "DVTAG"

// Transcode modes.
const (
	TranscodeNone = "none"
	TranscodeFLAC = "flac"
	TranscodeMP3  = "mp3"
)

// Settings holds all configuration options.
type Settings struct {
	// Tagging settings
	MaxConcurrentReleases int    `json:"max_concurrent_releases" mapstructure:"max_concurrent_releases"`
	ExtractTitles         bool   `json:"extract_titles" mapstructure:"extract_titles"`
	TagSeparator          string `json:"tag_separator" mapstructure:"tag_separator"`
	DryRun                bool   `json:"dry_run" mapstructure:"dry_run"`

	// HTTP settings
	UserAgent         string  `json:"user_agent" mapstructure:"user_agent"`
	RequestTimeout    float64 `json:"request_timeout" mapstructure:"request_timeout"`
	MaxRetries        int     `json:"max_retries" mapstructure:"max_retries"`
	RetryCooldown     float64 `json:"retry_cooldown" mapstructure:"retry_cooldown"`
	RetryExponent     float64 `json:"retry_exponent" mapstructure:"retry_exponent"`
	RetryWaitMax      float64 `json:"retry_wait_max" mapstructure:"retry_wait_max"`
	RequestsPerSecond float64 `json:"requests_per_second" mapstructure:"requests_per_second"`
	Locale            string  `json:"locale" mapstructure:"locale"`

	// Cover art settings
	CoverArtFileNameFormat  string `json:"cover_art_file_name_format" mapstructure:"cover_art_file_name_format"`
	SaveCoverArtInFolder    bool   `json:"save_cover_art_in_folder" mapstructure:"save_cover_art_in_folder"`
	SaveCoverArtInTags      bool   `json:"save_cover_art_in_tags" mapstructure:"save_cover_art_in_tags"`
	CoverArtInFolderResize  bool   `json:"cover_art_in_folder_resize" mapstructure:"cover_art_in_folder_resize"`
	CoverArtInFolderMaxSize int    `json:"cover_art_in_folder_max_size" mapstructure:"cover_art_in_folder_max_size"`
	CoverArtInTagsResize    bool   `json:"cover_art_in_tags_resize" mapstructure:"cover_art_in_tags_resize"`
	CoverArtInTagsMaxSize   int    `json:"cover_art_in_tags_max_size" mapstructure:"cover_art_in_tags_max_size"`

	// Playlist settings
	CreatePlaylist         bool   `json:"create_playlist" mapstructure:"create_playlist"`
	PlaylistFileNameFormat string `json:"playlist_file_name_format" mapstructure:"playlist_file_name_format"`
	PlaylistFormat         string `json:"playlist_format" mapstructure:"playlist_format"` // m3u, pls, wpl
	M3UExtended            bool   `json:"m3u_extended" mapstructure:"m3u_extended"`

	// Transcode settings
	Transcode  string `json:"transcode" mapstructure:"transcode"` // none, flac, mp3
	FFmpegPath string `json:"ffmpeg_path" mapstructure:"ffmpeg_path"`
	MP3Bitrate string `json:"mp3_bitrate" mapstructure:"mp3_bitrate"`

	// Logging settings
	LogLevel string `json:"log_level" mapstructure:"log_level"`
	LogFile  string `json:"log_file" mapstructure:"log_file"`
}

// DefaultSettings returns settings with default values.
func DefaultSettings() *Settings {
	return &Settings{
		MaxConcurrentReleases: 1,
		ExtractTitles:         true,
		TagSeparator:          ";",

		UserAgent:         "dvtag",
		RequestTimeout:    60,
		MaxRetries:        5,
		RetryCooldown:     0.2,
		RetryExponent:     4.0,
		RetryWaitMax:      30,
		RequestsPerSecond: 2,
		Locale:            dlsite.DefaultLocale,

		CoverArtFileNameFormat:  "cover",
		SaveCoverArtInFolder:    true,
		SaveCoverArtInTags:      true,
		CoverArtInFolderResize:  false,
		CoverArtInFolderMaxSize: 1000,
		CoverArtInTagsResize:    false,
		CoverArtInTagsMaxSize:   1000,

		CreatePlaylist:         false,
		PlaylistFileNameFormat: "{workno}",
		PlaylistFormat:         "m3u",
		M3UExtended:            true,

		Transcode:  TranscodeNone,
		FFmpegPath: "ffmpeg",
		MP3Bitrate: "320k",

		LogLevel: "info",
	}
}

// DefaultPath returns the settings file location under the user config dir.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "dvtag", "settings.json")
}

// Load reads settings through v.
//
// Values are layered, lowest first: DefaultSettings, the JSON file at path,
// DVTAG_* environment variables, then any flags already bound to v. A
// missing file is not an error.
func Load(v *viper.Viper, path string) (*Settings, error) {
	if err := setDefaults(v, DefaultSettings()); err != nil {
		return nil, err
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("json")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return nil, err
			}
		}
	}

	settings := &Settings{}
	if err := v.Unmarshal(settings); err != nil {
		return nil, err
	}
	return settings, nil
}

// setDefaults registers every field of s as a viper default so that
// environment variables can override keys absent from the file.
func setDefaults(v *viper.Viper, s *Settings) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	var values map[string]any
	if err := json.Unmarshal(data, &values); err != nil {
		return err
	}
	for k, val := range values {
		v.SetDefault(k, val)
	}
	return nil
}

// Save writes settings to a JSON file.
func (s *Settings) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// ToPathConfig converts settings to PathConfig.
func (s *Settings) ToPathConfig() *model.PathConfig {
	return &model.PathConfig{
		CoverArtFileNameFormat: s.CoverArtFileNameFormat,
		PlaylistFileNameFormat: s.PlaylistFileNameFormat,
		PlaylistFormat:         model.ParsePlaylistFormat(s.PlaylistFormat),
	}
}

// ToHTTPConfig converts settings to the storefront client configuration.
func (s *Settings) ToHTTPConfig() dvhttp.Config {
	return dvhttp.Config{
		UserAgent:         s.UserAgent,
		Header:            http.Header{"Cookie": {dlsite.Cookie(s.Locale)}},
		Timeout:           seconds(s.RequestTimeout),
		MaxRetries:        s.MaxRetries,
		RetryCooldown:     seconds(s.RetryCooldown),
		RetryExponent:     s.RetryExponent,
		RetryWaitMax:      seconds(s.RetryWaitMax),
		RequestsPerSecond: s.RequestsPerSecond,
	}
}

// ToTagConfig converts settings to TagConfig.
func (s *Settings) ToTagConfig() *audio.TagConfig {
	return &audio.TagConfig{
		Separator:  s.TagSeparator,
		EmbedCover: s.SaveCoverArtInTags,
	}
}

// ToScanConfig converts settings to the scanner configuration.
func (s *Settings) ToScanConfig() scanner.Config {
	return scanner.Config{ExtractTitles: s.ExtractTitles}
}

func seconds(f float64) time.Duration {
	return time.Duration(f * float64(time.Second))
}
