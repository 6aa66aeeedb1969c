// loss.go - Loss-Funktionen fuer generative Autoencoder
//
// Enthaelt:
// - Loss: Funktionstyp einer Loss-Funktion
// - RegisterLoss / NewLossFunction: Registry nach Loss-Typ
// - variationalLowerBound: Negative variational lower bound
package layer

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/vaeflow/vaeflow/network"
)

// Loss bewertet die Ausgabe eines vollen Vorwaerts-Durchlaufs
type Loss func(out *network.Output) float64

// losses speichert registrierte Loss-Funktionen
var losses = map[string]Loss{
	"variational_lower_bound": variationalLowerBound,
}

// RegisterLoss registriert eine Loss-Funktion unter einem Typ-Namen
func RegisterLoss(name string, f Loss) {
	if _, ok := losses[name]; ok {
		panic("layer: loss already registered")
	}

	losses[name] = f
}

// NewLossFunction gibt die Loss-Funktion fuer einen Typ zurueck;
// ein leerer Typ waehlt die variational lower bound
func NewLossFunction(lossType string) (Loss, error) {
	if lossType == "" {
		lossType = "variational_lower_bound"
	}
	f, ok := losses[lossType]
	if !ok {
		return nil, fmt.Errorf("loss type not supported: %q", lossType)
	}
	return f, nil
}

const log2pi = 1.8378770664093453

// variationalLowerBound ist die negative variational lower bound,
// gemittelt ueber die Batch-Dimension: erwartete negative
// Log-Likelihood der Rekonstruktion plus KL-Divergenz der
// approximativen Posterior gegen die Einheits-Gauss-Verteilung.
func variationalLowerBound(out *network.Output) float64 {
	original := out.Original.Data().([]float32)
	mean := out.Reconstruction.Data().([]float32)
	logVar := out.ReconstructionLogVar.Data().([]float32)

	nll := make([]float64, len(original))
	for i := range original {
		lv := float64(logVar[i])
		diff := float64(original[i]) - float64(mean[i])
		nll[i] = 0.5 * (log2pi + lv + diff*diff/math.Exp(lv))
	}

	postMean := out.PosteriorMean.Data().([]float32)
	postLogVar := out.PosteriorLogVar.Data().([]float32)
	kl := make([]float64, len(postMean))
	for i := range postMean {
		m := float64(postMean[i])
		lv := float64(postLogVar[i])
		kl[i] = -0.5 * (1 + lv - m*m - math.Exp(lv))
	}

	batch := out.Original.Shape()[0]
	return (floats.Sum(nll) + floats.Sum(kl)) / float64(batch)
}
