package main

import (
	"fmt"
	"os"

	"github.com/NobeKanai/dvtag/internal/config"
	"github.com/NobeKanai/dvtag/internal/logging"
	"github.com/NobeKanai/dvtag/internal/tui"
	"github.com/spf13/viper"
)

func main() {
	settings, err := config.Load(viper.New(), config.DefaultPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	// The screen belongs to the UI, so logs only go to the file.
	logFile := settings.LogFile
	if logFile == "" {
		logFile = logging.DefaultFile()
	}
	_, closer, err := logging.Setup(logging.Options{Level: settings.LogLevel, File: logFile})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer closer.Close()

	if err := tui.Run(settings); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
