// Command ocireg is a small CLI driver over the registry client packages,
// useful for ad-hoc inspection of manifests and blobs.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/charmbracelet/log"
	"github.com/muesli/termenv"

	"github.com/dirdmaster/ocireg/internal/httplog"
)

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newLogger builds a pretty console logger via charmbracelet/log, forcing
// a color profile since terminal detection is unreliable when stderr is
// piped (CI logs, redirected output).
func newLogger(level slog.Level) *slog.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		Level:           log.Level(level),
		ReportTimestamp: true,
	})
	logger.SetColorProfile(termenv.TrueColor)
	return slog.New(logger)
}

func newTransport(logger *slog.Logger) *httplog.RoundTripper {
	return httplog.New(nil, logger)
}
