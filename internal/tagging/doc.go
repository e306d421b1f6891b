// Package tagging provides the orchestration logic that tags DLsite
// releases found on disk.
//
// # Manager
//
// The Manager coordinates the entire process:
//
//  1. Find release directories by catalog ID
//  2. Transcode WAV files (optional)
//  3. Arrange the audio files into discs and tracks
//  4. Fetch release metadata and cover art from DLsite
//  5. Write tags to every file that needs them
//  6. Save the folder cover and a playlist (optional)
//
// # Basic Usage
//
//	manager := tagging.NewManager(settings, func(event tagging.ProgressEvent) {
//	    fmt.Println(event.Message)
//	})
//
//	if err := manager.Discover(ctx, "/music/voice"); err != nil {
//	    log.Fatal(err)
//	}
//
//	err := manager.Run(ctx)
//	if errors.Is(err, tagging.ErrReleasesFailed) {
//	    // some releases were not tagged
//	}
//
// # Concurrency
//
// Up to settings.MaxConcurrentReleases releases are processed in parallel.
// The files of one release are tagged one after another.
//
// # Dry Run
//
// With settings.DryRun the Manager reports which files would be written
// without touching any file.
package tagging
