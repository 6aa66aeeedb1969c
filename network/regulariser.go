// regulariser.go - Penalty-Funktionen fuer die Gewichts-Regularisierung
//
// Enthaelt:
// - Penalty: Funktionstyp einer Penalty
// - L1Penalty, L2Penalty: Konkrete Penalties
// - PenaltyFor: Auswahl nach Regularisierungs-Typ
package network

import (
	"strings"

	"github.com/pdevine/tensor"
)

// Penalty bewertet einen Parameter-Tensor; der Rueckgabewert wird mit
// dem Decay-Koeffizienten skaliert
type Penalty func(t *tensor.Dense) float64

// L1Penalty ist die Summe der Absolutbetraege
func L1Penalty(t *tensor.Dense) float64 {
	var sum float64
	for _, v := range t.Data().([]float32) {
		if v < 0 {
			sum -= float64(v)
		} else {
			sum += float64(v)
		}
	}
	return sum
}

// L2Penalty ist die halbe Summe der Quadrate
func L2Penalty(t *tensor.Dense) float64 {
	var sum float64
	for _, v := range t.Data().([]float32) {
		sum += float64(v) * float64(v)
	}
	return sum / 2
}

// PenaltyFor waehlt die Penalty-Funktion fuer einen
// Regularisierungs-Typ; nil wenn decay nicht positiv oder der Typ
// unbekannt ist
func PenaltyFor(regType string, decay float64) Penalty {
	if decay <= 0 {
		return nil
	}
	switch strings.ToLower(regType) {
	case "l1":
		return L1Penalty
	case "l2":
		return L2Penalty
	}
	return nil
}
