// Package layer - Vorverarbeitungs-Schichten fuer den Reader
//
// Dieses Paket enthaelt die Augmentierungs-Schichten, die im Training
// vor dem Sampling auf einzelne Subjekt-Tensoren angewendet werden.
// Die Reihenfolge in der Kette ist signifikant: Flip, dann Skalierung,
// dann Rotation; Skalierung und Rotation arbeiten auf dem bereits
// gespiegelten Bild.
package layer

import (
	"math"
	"math/rand"

	"github.com/pdevine/tensor"

	"github.com/vaeflow/vaeflow/ml"
)

// Layer transformiert einen einzelnen Subjekt-Tensor
type Layer interface {
	Name() string
	Apply(t *tensor.Dense) (*tensor.Dense, error)
}

// rowMajorStrides berechnet die Strides einer kontiguierlichen Shape
func rowMajorStrides(shape []int) []int {
	strides := make([]int, len(shape))
	acc := 1
	for d := len(shape) - 1; d >= 0; d-- {
		strides[d] = acc
		acc *= shape[d]
	}
	return strides
}

// flipAxis spiegelt einen Tensor entlang einer Achse
func flipAxis(t *tensor.Dense, axis int) *tensor.Dense {
	shape := []int(t.Shape())
	in := t.Data().([]float32)
	out := make([]float32, len(in))
	strides := rowMajorStrides(shape)
	coords := make([]int, len(shape))

	for i := range in {
		rem := i
		for d := range shape {
			coords[d] = rem / strides[d]
			rem %= strides[d]
		}
		coords[axis] = shape[axis] - 1 - coords[axis]

		j := 0
		for d := range shape {
			j += coords[d] * strides[d]
		}
		out[j] = in[i]
	}
	return ml.FromFloats(out, shape...)
}

// RandomFlip spiegelt mit Wahrscheinlichkeit 0.5 entlang jeder
// konfigurierten Achse
type RandomFlip struct {
	Axes []int
	rng  *rand.Rand
}

// NewRandomFlip erstellt eine Flip-Schicht fuer die gegebenen Achsen
func NewRandomFlip(axes []int, seed int64) *RandomFlip {
	return &RandomFlip{Axes: axes, rng: rand.New(rand.NewSource(seed))}
}

func (l *RandomFlip) Name() string { return "random_flip" }

func (l *RandomFlip) Apply(t *tensor.Dense) (*tensor.Dense, error) {
	out := t
	for _, axis := range l.Axes {
		if axis < 0 || axis >= len(t.Shape()) {
			continue
		}
		if l.rng.Float64() < 0.5 {
			out = flipAxis(out, axis)
		}
	}
	return out, nil
}

// RandomSpatialScaling skaliert die raeumlichen Achsen um einen
// zufaelligen Prozentsatz aus [MinPercentage, MaxPercentage]
type RandomSpatialScaling struct {
	MinPercentage float64
	MaxPercentage float64
	rng           *rand.Rand
}

// NewRandomSpatialScaling erstellt eine Skalierungs-Schicht
func NewRandomSpatialScaling(minPct, maxPct float64, seed int64) *RandomSpatialScaling {
	return &RandomSpatialScaling{MinPercentage: minPct, MaxPercentage: maxPct, rng: rand.New(rand.NewSource(seed))}
}

func (l *RandomSpatialScaling) Name() string { return "random_spatial_scaling" }

func (l *RandomSpatialScaling) Apply(t *tensor.Dense) (*tensor.Dense, error) {
	pct := l.MinPercentage + l.rng.Float64()*(l.MaxPercentage-l.MinPercentage)
	factor := 1 + pct/100
	if factor <= 0 {
		factor = 1
	}

	shape := []int(t.Shape())
	// the last axis carries channels for multi-axis tensors
	spatial := len(shape)
	if spatial > 1 {
		spatial--
	}

	in := t.Data().([]float32)
	out := make([]float32, len(in))
	strides := rowMajorStrides(shape)
	coords := make([]int, len(shape))

	for i := range out {
		rem := i
		for d := range shape {
			coords[d] = rem / strides[d]
			rem %= strides[d]
		}

		j := 0
		for d := range shape {
			c := coords[d]
			if d < spatial {
				center := float64(shape[d]-1) / 2
				src := (float64(c)-center)/factor + center
				c = clamp(int(math.Round(src)), 0, shape[d]-1)
			}
			j += c * strides[d]
		}
		out[i] = in[j]
	}
	return ml.FromFloats(out, shape...), nil
}

// RandomRotation rotiert die ersten beiden raeumlichen Achsen um einen
// zufaelligen Winkel aus [MinAngle, MaxAngle] Grad
type RandomRotation struct {
	MinAngle float64
	MaxAngle float64
	rng      *rand.Rand
}

// NewRandomRotation erstellt eine Rotations-Schicht
func NewRandomRotation(minAngle, maxAngle float64, seed int64) *RandomRotation {
	return &RandomRotation{MinAngle: minAngle, MaxAngle: maxAngle, rng: rand.New(rand.NewSource(seed))}
}

func (l *RandomRotation) Name() string { return "random_rotation" }

func (l *RandomRotation) Apply(t *tensor.Dense) (*tensor.Dense, error) {
	shape := []int(t.Shape())
	if len(shape) < 2 {
		return t, nil
	}

	angle := l.MinAngle + l.rng.Float64()*(l.MaxAngle-l.MinAngle)
	theta := angle * math.Pi / 180
	sin, cos := math.Sin(theta), math.Cos(theta)
	cy := float64(shape[0]-1) / 2
	cx := float64(shape[1]-1) / 2

	in := t.Data().([]float32)
	out := make([]float32, len(in))
	strides := rowMajorStrides(shape)
	coords := make([]int, len(shape))

	for i := range out {
		rem := i
		for d := range shape {
			coords[d] = rem / strides[d]
			rem %= strides[d]
		}

		// inverse rotation locates the source pixel
		dy := float64(coords[0]) - cy
		dx := float64(coords[1]) - cx
		sy := int(math.Round(cos*dy + sin*dx + cy))
		sx := int(math.Round(-sin*dy + cos*dx + cx))
		if sy < 0 || sy >= shape[0] || sx < 0 || sx >= shape[1] {
			continue
		}

		j := sy*strides[0] + sx*strides[1]
		for d := 2; d < len(shape); d++ {
			j += coords[d] * strides[d]
		}
		out[i] = in[j]
	}
	return ml.FromFloats(out, shape...), nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
