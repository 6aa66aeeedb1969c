// loss_test.go - Tests fuer die Loss-Registry und die variational
// lower bound
package layer

import (
	"math"
	"testing"

	"github.com/vaeflow/vaeflow/ml"
	"github.com/vaeflow/vaeflow/network"
)

func TestNewLossFunction(t *testing.T) {
	if _, err := NewLossFunction("variational_lower_bound"); err != nil {
		t.Errorf("NewLossFunction: %v", err)
	}

	// leerer Typ waehlt den Default
	if _, err := NewLossFunction(""); err != nil {
		t.Errorf("NewLossFunction(\"\"): %v", err)
	}

	if _, err := NewLossFunction("unknown"); err == nil {
		t.Error("erwartet Fehler fuer unbekannten Loss-Typ")
	}
}

func TestVariationalLowerBound(t *testing.T) {
	// Batch 1: perfekte Rekonstruktion mit Einheits-Varianz und
	// Standard-Posterior. NLL je Element = 0.5*log(2*pi), KL = 0.
	out := &network.Output{
		Original:             ml.FromFloats([]float32{0.5, 0.5}, 1, 2),
		Reconstruction:       ml.FromFloats([]float32{0.5, 0.5}, 1, 2),
		ReconstructionLogVar: ml.FromFloats([]float32{0, 0}, 1, 2),
		PosteriorMean:        ml.FromFloats([]float32{0, 0}, 1, 2),
		PosteriorLogVar:      ml.FromFloats([]float32{0, 0}, 1, 2),
	}

	got := variationalLowerBound(out)
	want := math.Log(2 * math.Pi) // 2 Elemente * 0.5*log(2*pi)
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("variationalLowerBound = %v, erwartet %v", got, want)
	}
}

func TestVariationalLowerBoundPenalisesPosterior(t *testing.T) {
	base := &network.Output{
		Original:             ml.FromFloats([]float32{0}, 1, 1),
		Reconstruction:       ml.FromFloats([]float32{0}, 1, 1),
		ReconstructionLogVar: ml.FromFloats([]float32{0}, 1, 1),
		PosteriorMean:        ml.FromFloats([]float32{0}, 1, 1),
		PosteriorLogVar:      ml.FromFloats([]float32{0}, 1, 1),
	}
	shifted := &network.Output{
		Original:             base.Original,
		Reconstruction:       base.Reconstruction,
		ReconstructionLogVar: base.ReconstructionLogVar,
		PosteriorMean:        ml.FromFloats([]float32{2}, 1, 1),
		PosteriorLogVar:      ml.FromFloats([]float32{0}, 1, 1),
	}

	// eine verschobene Posterior erhoeht die KL-Divergenz
	if variationalLowerBound(shifted) <= variationalLowerBound(base) {
		t.Error("verschobene Posterior muss den Loss erhoehen")
	}
}
