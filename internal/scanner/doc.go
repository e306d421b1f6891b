// Package scanner turns a release directory into discs and tracks.
//
// # Walking
//
// Walk visits a directory tree the way dvtag numbers discs: a directory's
// own files come first, then its subdirectories depth first in natural
// order:
//
//	for dir, err := range scanner.Walk(fs, root) {
//	    if err != nil {
//	        return err
//	    }
//	    fmt.Println(dir.Path, len(dir.Files))
//	}
//
// # Discs
//
// Scan groups the audio of every directory by format and by the bonus-track
// rules of package classify, then numbers the discs:
//
//	layout, err := scanner.Scan(fs, root, scanner.Config{ExtractTitles: true})
//	if errors.Is(err, scanner.ErrNoAudio) {
//	    // nothing to tag
//	}
//
// A release with a single disc gets no disc number. Otherwise discs are
// numbered from 1 with every FLAC disc first, then M4A, then MP3.
//
// # Release Roots
//
// FindRoots searches a library for directories whose name carries a
// catalog ID and does not descend into them.
package scanner
