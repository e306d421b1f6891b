package ioutils

import (
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// WriteFile writes data to a file, creating parent directories and the
// file if necessary.
//
// The file is created with mode 0644. If the file already exists,
// it is truncated before writing.
//
// Example:
//
//	playlistContent := []byte("#EXTM3U\n...")
//	err := WriteFile(fs, "/music/RJ123456/RJ123456.m3u", playlistContent)
func WriteFile(fsys afero.Fs, path string, data []byte) error {
	if err := EnsureDir(fsys, filepath.Dir(path)); err != nil {
		return err
	}
	return afero.WriteFile(fsys, path, data, 0o644)
}

// WriteFileIfAbsent writes data to path unless a file already exists there.
// It reports whether the file was written.
func WriteFileIfAbsent(fsys afero.Fs, path string, data []byte) (bool, error) {
	ok, err := Exists(fsys, path)
	if err != nil || ok {
		return false, err
	}
	return true, WriteFile(fsys, path, data)
}

// Exists reports whether path exists.
func Exists(fsys afero.Fs, path string) (bool, error) {
	_, err := fsys.Stat(path)
	switch {
	case err == nil:
		return true, nil
	case os.IsNotExist(err):
		return false, nil
	default:
		return false, err
	}
}

// EnsureDir creates a directory and all parent directories if they don't exist.
//
// Directories are created with mode 0755 (rwxr-xr-x).
// If the directory already exists, no error is returned.
func EnsureDir(fsys afero.Fs, path string) error {
	return fsys.MkdirAll(path, 0o755)
}
