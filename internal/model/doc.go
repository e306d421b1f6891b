// Package model defines the core data structures shared by the dvtag
// packages.
//
// # Release
//
// Release is the storefront record of one work, keyed by its catalog ID:
//
//	rel := &model.Release{ID: "RJ123456", Name: "Title", Circle: "Circle"}
//	fmt.Println(rel.PlaylistPath(root, pathConfig))
//
// # Disc and Track
//
// A Disc is one ordered group of audio files of the same format found in a
// single directory. Each Track carries its 1-based position, the disc number
// (zero when the release has a single group) and the title written to tags:
//
//	for _, d := range discs {
//	    for _, t := range d.Tracks {
//	        fmt.Println(t.Disc, t.Number, t.Title, t.Path)
//	    }
//	}
//
// # Path Configuration
//
// PathConfig controls the names of files dvtag writes next to the audio:
//
//	cfg := &model.PathConfig{
//	    CoverArtFileNameFormat: "cover",
//	    PlaylistFileNameFormat: "{workno} {album}",
//	    PlaylistFormat:         model.PlaylistFormatM3U,
//	}
//
// Available placeholders: {workno}, {album}, {circle}, {year}, {month}, {day}
package model
