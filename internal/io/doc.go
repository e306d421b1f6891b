// Package ioutils provides file system and image processing utilities.
//
// File helpers take an afero.Fs so callers can run against the real disk
// or an in-memory file system:
//
//	fs := afero.NewOsFs()
//	err := ioutils.WriteFile(fs, "/music/RJ123456/RJ123456.m3u", data)
//	written, err := ioutils.WriteFileIfAbsent(fs, "/music/RJ123456/cover.png", png)
//
// # Image Processing
//
// The ImageService converts cover art to PNG and optionally scales it down:
//
//	svc := ioutils.NewImageService()
//	cover, err := svc.ToCover(ctx, imageData, 1000)
package ioutils
