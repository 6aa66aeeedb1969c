// errors.go - Fehler-Taxonomie der Orchestrierung
//
// Enthaelt:
// - ConfigurationError: Nicht unterstuetzte Option oder fehlender Kanal
// - ErrUnreachableMode: Defensive Invarianten-Verletzung im Dispatch
//
// Alle Fehler sind lokale Vorbedingungs-Verletzungen ohne
// Wiederholungs-Pfad; die aeussere Schleife entscheidet ueber Abbruch.
package engine

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnreachableMode zeigt an, dass ein Modus existiert, fuer den kein
// Dispatch-Zweig definiert ist. Immer fatal, nie stillschweigend.
var ErrUnreachableMode = errors.New("unreachable mode")

// ConfigurationError beschreibt eine nicht unterstuetzte Option oder
// einen fehlenden Daten-Kanal. Fatal, wird nie wiederholt.
type ConfigurationError struct {
	// Value ist die abgelehnte Option
	Value string

	// Supported sind die gueltigen Optionen
	Supported []string

	// Hint ist die naechstliegende gueltige Option, falls vorhanden
	Hint string
}

func (e *ConfigurationError) Error() string {
	msg := fmt.Sprintf("unsupported option %q", e.Value)
	if e.Hint != "" {
		msg += fmt.Sprintf(" (did you mean %q?)", e.Hint)
	}
	if len(e.Supported) > 0 {
		msg += ", supported: " + strings.Join(e.Supported, ", ")
	}
	return msg
}
