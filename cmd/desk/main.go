package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/communitydesk/communitydesk/cmd/desk/commands"
	"github.com/communitydesk/communitydesk/pkg/apperrors"
)

// Version information (set via ldflags during build)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

func main() {
	setupLogging()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := commands.Execute(ctx, Version, Commit, BuildDate); err != nil {
		report(err)
		cancel()
		os.Exit(exitCode(err))
	}
}

// report prints input and permission problems as a plain line, the way a
// form shows them next to the field. Everything else goes through the log.
func report(err error) {
	switch apperrors.ClassOf(err) {
	case apperrors.ClassUserInput, apperrors.ClassForbidden, apperrors.ClassNotFound:
		fmt.Fprintf(os.Stderr, "✗ %v\n", err)
	default:
		log.Error().Err(err).Msg("Command failed")
	}
}

func exitCode(err error) int {
	switch apperrors.ClassOf(err) {
	case apperrors.ClassUserInput:
		return 2
	case apperrors.ClassForbidden:
		return 3
	default:
		return 1
	}
}

// setupLogging configures zerolog until the configuration is loaded.
func setupLogging() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	switch os.Getenv("LOG_LEVEL") {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
