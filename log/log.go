// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package log builds the structured loggers handed to every component.
// There is no package level logger: each store, client and simulator
// receives its logger through an option and falls back to Discard.
package log

import (
	"io"
	"os"

	ethlog "github.com/ethereum/go-ethereum/log"
	"github.com/mattn/go-isatty"
)

// Logger is the slog based logger of go-ethereum.
type Logger = ethlog.Logger

// Legacy verbosity levels, as accepted by the --verbosity flag.
const (
	LegacyLevelCrit = iota
	LegacyLevelError
	LegacyLevelWarn
	LegacyLevelInfo
	LegacyLevelDebug
	LegacyLevelTrace
)

// New returns a terminal logger writing to w, filtering records above the
// given legacy verbosity. Colors are enabled when w is a terminal.
func New(w io.Writer, verbosity int) Logger {
	return ethlog.NewLogger(ethlog.NewTerminalHandlerWithLevel(w, ethlog.FromLegacyLevel(verbosity), useColor(w)))
}

// Discard returns a logger that drops every record.
func Discard() Logger {
	return ethlog.NewLogger(ethlog.DiscardHandler())
}

// OrDiscard returns l, or a discarding logger if l is nil.
func OrDiscard(l Logger) Logger {
	if l == nil {
		return Discard()
	}
	return l
}

func useColor(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
