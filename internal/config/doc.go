// Package config provides configuration management for dvtag.
//
// This package handles:
//   - Loading settings through viper from a JSON file and DVTAG_* variables
//   - Default configuration values
//   - Conversion to the configs of the http, audio, scanner and model packages
//
// # Loading
//
//	v := viper.New()
//	settings, err := config.Load(v, config.DefaultPath())
//	// A missing file yields DefaultSettings()
//
// Environment variables use the JSON key in upper case:
//
//	DVTAG_MAX_RETRIES=3 DVTAG_TRANSCODE=flac dvtag ~/voice
//
// # Saving Settings
//
//	settings.CreatePlaylist = true
//	err := settings.Save(config.DefaultPath())
package config
