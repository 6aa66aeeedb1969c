// ml.go - Tensor-Hilfsfunktionen und Shape-Fehler
//
// Dieses Modul enthaelt:
// - ShapeMismatchError: Fehler bei inkompatiblen Element-Anzahlen
// - Zeros: Erstellt einen nullgefuellten Float32-Tensor
// - Scalar: Erstellt einen Skalar-Tensor
// - ReshapeAs: Formt einen Tensor auf eine Ziel-Shape um
// - Columns: Extrahiert einen Spaltenbereich aus einem 2D-Tensor
// - Elements: Anzahl der Elemente einer Shape
package ml

import (
	"fmt"

	"github.com/pdevine/tensor"
)

// ShapeMismatchError beschreibt einen fehlgeschlagenen Reshape:
// die Element-Anzahlen von Quelle und Ziel stimmen nicht ueberein.
type ShapeMismatchError struct {
	Got  []int
	Want []int
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("cannot reshape %v (%d elements) into %v (%d elements)",
		e.Got, Elements(e.Got), e.Want, Elements(e.Want))
}

// Elements gibt die Anzahl der Elemente einer Shape zurueck
func Elements(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}

// Zeros erstellt einen nullgefuellten Float32-Tensor
func Zeros(shape ...int) *tensor.Dense {
	return tensor.New(tensor.WithShape(shape...), tensor.Of(tensor.Float32))
}

// Scalar verpackt einen einzelnen Wert als 1-Element-Tensor
func Scalar(v float64) *tensor.Dense {
	return tensor.New(tensor.WithShape(1), tensor.WithBacking([]float32{float32(v)}))
}

// First gibt das erste Element eines Tensors als float64 zurueck
func First(t *tensor.Dense) float64 {
	data := t.Data().([]float32)
	if len(data) == 0 {
		return 0
	}
	return float64(data[0])
}

// FromFloats erstellt einen Float32-Tensor aus einem Slice
func FromFloats(data []float32, shape ...int) *tensor.Dense {
	return tensor.New(tensor.WithShape(shape...), tensor.WithBacking(data))
}

// ReshapeAs kopiert einen Tensor und formt ihn auf die Ziel-Shape um.
// Schlaegt mit *ShapeMismatchError fehl, wenn die Element-Anzahlen
// nicht uebereinstimmen.
func ReshapeAs(t *tensor.Dense, shape []int) (*tensor.Dense, error) {
	got := []int(t.Shape())
	if Elements(got) != Elements(shape) {
		return nil, &ShapeMismatchError{Got: got, Want: shape}
	}
	out := t.Clone().(*tensor.Dense)
	if err := out.Reshape(shape...); err != nil {
		return nil, fmt.Errorf("reshape tensor: %w", err)
	}
	return out, nil
}

// Columns extrahiert die Spalten [from, to) eines 2D-Tensors
func Columns(t *tensor.Dense, from, to int) (*tensor.Dense, error) {
	shape := t.Shape()
	if len(shape) != 2 {
		return nil, fmt.Errorf("columns: expected 2D tensor, got shape %v", shape)
	}
	rows, cols := shape[0], shape[1]
	if from < 0 || to > cols || from >= to {
		return nil, fmt.Errorf("columns: range [%d, %d) out of bounds for %d columns", from, to, cols)
	}

	data := t.Data().([]float32)
	out := make([]float32, 0, rows*(to-from))
	for r := 0; r < rows; r++ {
		out = append(out, data[r*cols+from:r*cols+to]...)
	}
	return FromFloats(out, rows, to-from), nil
}

// Row extrahiert die Zeile i entlang der ersten Dimension.
// Die Ergebnis-Shape ist die Eingabe-Shape ohne erste Dimension.
func Row(t *tensor.Dense, i int) (*tensor.Dense, error) {
	shape := []int(t.Shape())
	if len(shape) < 2 {
		return nil, fmt.Errorf("row: expected tensor with batch dimension, got shape %v", shape)
	}
	if i < 0 || i >= shape[0] {
		return nil, fmt.Errorf("row: index %d out of bounds for %d rows", i, shape[0])
	}

	rest := shape[1:]
	n := Elements(rest)
	data := t.Data().([]float32)
	out := make([]float32, n)
	copy(out, data[i*n:(i+1)*n])
	return FromFloats(out, rest...), nil
}

// Stack fuegt gleichfoermige Tensoren entlang einer neuen ersten
// Dimension zusammen
func Stack(ts []*tensor.Dense) (*tensor.Dense, error) {
	if len(ts) == 0 {
		return nil, fmt.Errorf("stack: no tensors")
	}
	shape := []int(ts[0].Shape())
	n := Elements(shape)
	out := make([]float32, 0, n*len(ts))
	for _, t := range ts {
		if Elements(t.Shape()) != n {
			return nil, &ShapeMismatchError{Got: t.Shape(), Want: shape}
		}
		out = append(out, t.Data().([]float32)...)
	}
	return FromFloats(out, append([]int{len(ts)}, shape...)...), nil
}
