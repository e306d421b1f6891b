package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	err := newRootCmd().ExecuteContext(ctx)
	switch {
	case err == nil:
	case ctx.Err() != nil:
		log.Warn().Msg("interrupted")
		os.Exit(130)
	case errors.Is(err, errUsage):
		os.Exit(2)
	default:
		log.Error().Err(err).Msg("dvtag failed")
		os.Exit(1)
	}
}
