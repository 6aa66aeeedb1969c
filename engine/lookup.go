// lookup.go - Exakte Options-Validierung
//
// Enthaelt:
// - LookUp: Prueft einen Wert gegen die unterstuetzte Options-Menge
package engine

import (
	"github.com/agnivade/levenshtein"
)

// LookUp prueft value per exakter Suche gegen supported. Bei einem
// Treffer wird der Wert unveraendert zurueckgegeben; andernfalls ein
// *ConfigurationError mit der naechstliegenden Option als Vorschlag.
func LookUp(value string, supported []string) (string, error) {
	for _, s := range supported {
		if value == s {
			return value, nil
		}
	}

	// closest supported option as a hint
	hint, best := "", -1
	for _, s := range supported {
		if d := levenshtein.ComputeDistance(value, s); best < 0 || d < best {
			hint, best = s, d
		}
	}

	return "", &ConfigurationError{
		Value:     value,
		Supported: supported,
		Hint:      hint,
	}
}
