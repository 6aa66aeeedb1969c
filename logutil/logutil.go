// logutil.go - Konstruktor fuer strukturierte Logger
//
// Enthaelt:
// - NewLogger: Erstellt einen slog-Logger mit gekuerzten Quellpfaden
package logutil

import (
	"io"
	"log/slog"
	"path/filepath"
)

// LevelTrace ist ein Log-Level unterhalb von Debug
const LevelTrace = slog.Level(-8)

// NewLogger erstellt einen Text-Logger mit Quellenangabe.
// Dateipfade werden auf den Basisnamen gekuerzt.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level:     level,
		AddSource: true,
		ReplaceAttr: func(_ []string, attr slog.Attr) slog.Attr {
			if attr.Key == slog.SourceKey {
				if source, ok := attr.Value.Any().(*slog.Source); ok {
					source.File = filepath.Base(source.File)
				}
			}
			return attr
		},
	}))
}
