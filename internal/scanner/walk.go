package scanner

import (
	"fmt"
	"iter"
	"os"
	"path/filepath"

	"github.com/NobeKanai/dvtag/internal/natsort"
	"github.com/spf13/afero"
)

// Dir is one directory and the regular files directly inside it.
type Dir struct {
	Path  string
	Files []string
}

// Walk yields root and every directory below it. A directory is yielded
// before any of its subdirectories, and subdirectories are visited depth
// first in natural order of their names.
//
// A directory that cannot be read is reported as an error and skipped;
// iteration continues with its siblings unless the consumer stops.
func Walk(fsys afero.Fs, root string) iter.Seq2[Dir, error] {
	return func(yield func(Dir, error) bool) {
		walk(fsys, root, yield)
	}
}

func walk(fsys afero.Fs, dir string, yield func(Dir, error) bool) bool {
	entries, err := afero.ReadDir(fsys, dir)
	if err != nil {
		return yield(Dir{Path: dir}, fmt.Errorf("read %s: %w", dir, err))
	}

	d := Dir{Path: dir}
	var subdirs []os.FileInfo
	for _, e := range entries {
		if e.IsDir() {
			subdirs = append(subdirs, e)
			continue
		}
		d.Files = append(d.Files, filepath.Join(dir, e.Name()))
	}

	if !yield(d, nil) {
		return false
	}

	natsort.SortFunc(subdirs, os.FileInfo.Name)
	for _, sub := range subdirs {
		if !walk(fsys, filepath.Join(dir, sub.Name()), yield) {
			return false
		}
	}

	return true
}

// FindRoots returns the release roots under root. A directory is a release
// root when match accepts its name; other directories are searched
// recursively, in natural order. Each returned Root carries the ID match
// extracted.
func FindRoots(fsys afero.Fs, root string, match func(name string) (string, bool)) ([]Root, error) {
	if id, ok := match(filepath.Base(root)); ok {
		return []Root{{Path: root, ID: id}}, nil
	}

	entries, err := afero.ReadDir(fsys, root)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", root, err)
	}

	var subdirs []string
	for _, e := range entries {
		if e.IsDir() {
			subdirs = append(subdirs, e.Name())
		}
	}
	natsort.Sort(subdirs)

	var roots []Root
	for _, name := range subdirs {
		found, err := FindRoots(fsys, filepath.Join(root, name), match)
		if err != nil {
			return roots, err
		}
		roots = append(roots, found...)
	}

	return roots, nil
}

// Root is a release directory together with its catalog ID.
type Root struct {
	Path string
	ID   string
}
