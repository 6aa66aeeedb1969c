// noise.go - Normalverteilte Rausch-Quelle
//
// Enthaelt:
// - Normal: Zieht einen normalverteilten Tensor gegebener Shape
package ml

import (
	"github.com/pdevine/tensor"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// Normal zieht einen Float32-Tensor der gegebenen Shape aus einer
// Normalverteilung mit Mittelwert mean und Standardabweichung stddev.
func Normal(shape []int, mean, stddev float64, seed uint64) *tensor.Dense {
	dist := distuv.Normal{
		Mu:    mean,
		Sigma: stddev,
		Src:   rand.NewSource(seed),
	}

	backing := make([]float32, Elements(shape))
	for i := range backing {
		backing[i] = float32(dist.Rand())
	}
	return FromFloats(backing, shape...)
}
