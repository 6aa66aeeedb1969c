// output.go - Benanntes Ergebnis eines Vorwaerts-Durchlaufs
//
// Enthaelt:
// - Output: Benannte Ergebnis-Tensoren statt positionsbasiertem Tupel
// - OutputFromTuple: Adapter fuer Architekturen mit Tupel-Konvention
package network

import (
	"fmt"

	"github.com/pdevine/tensor"
)

// Output buendelt die benannten Ergebnis-Tensoren eines vollen
// Vorwaerts-Durchlaufs. Die Felder ersetzen das fragile
// positionsbasierte Ausgabe-Tupel aelterer Architekturen; Aufrufer
// lesen ausschliesslich ueber Feldnamen.
type Output struct {
	// Momente der approximativen Posterior-Verteilung
	PosteriorMean   *tensor.Dense
	PosteriorLogVar *tensor.Dense

	// Dekodierte Mittelwerte und Log-Varianzen der Rekonstruktion
	Reconstruction       *tensor.Dense
	ReconstructionLogVar *tensor.Dense

	// Original ist die unveraenderte Eingabe
	Original *tensor.Dense

	// Dekodierte Momente eines aus der Posterior gezogenen Codes
	Sample       *tensor.Dense
	SampleLogVar *tensor.Dense

	// Embedding ist der Latent-Code; er dient zugleich als
	// Shape-Vorlage fuer injizierte Codes und Rauschen
	Embedding *tensor.Dense
}

// Latent gibt den Tensor zurueck, dessen Shape injizierte Codes
// annehmen muessen
func (o *Output) Latent() *tensor.Dense {
	return o.Embedding
}

// tupleLen ist die Laenge des Ausgabe-Tupels der Tupel-Konvention
const tupleLen = 8

// OutputFromTuple adaptiert ein positionsbasiertes Ausgabe-Tupel:
//
//	0 PosteriorMean     4 Original
//	1 PosteriorLogVar   5 Sample
//	2 Reconstruction    6 SampleLogVar
//	3 ReconstructionLogVar  7 Embedding
func OutputFromTuple(tuple []*tensor.Dense) (*Output, error) {
	if len(tuple) != tupleLen {
		return nil, fmt.Errorf("output tuple has %d elements, expected %d", len(tuple), tupleLen)
	}

	return &Output{
		PosteriorMean:        tuple[0],
		PosteriorLogVar:      tuple[1],
		Reconstruction:       tuple[2],
		ReconstructionLogVar: tuple[3],
		Original:             tuple[4],
		Sample:               tuple[5],
		SampleLogVar:         tuple[6],
		Embedding:            tuple[7],
	}, nil
}
