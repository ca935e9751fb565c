// Package logging builds the structured logger shared by every component.
package logging

import (
	"io"
	"log/slog"
	"os"

	"github.com/ethereum/go-ethereum/log"
	"github.com/mattn/go-isatty"
)

// Level picks the threshold for a run: debug shows discovery and per-test
// progress, verbose adds the run summary, otherwise only warnings pass.
func Level(verbose, debug bool) slog.Level {
	switch {
	case debug:
		return log.LevelDebug
	case verbose:
		return log.LevelInfo
	default:
		return log.LevelWarn
	}
}

// New returns a terminal logger writing to w. Output is colored only when
// w is a terminal.
func New(w io.Writer, verbose, debug bool) log.Logger {
	return log.NewLogger(log.NewTerminalHandlerWithLevel(w, Level(verbose, debug), useColor(w)))
}

// Discard returns a logger that drops everything.
func Discard() log.Logger {
	return log.NewLogger(log.DiscardHandler())
}

func useColor(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
