// ml_test.go - Tests fuer Tensor-Hilfsfunktionen
package ml

import (
	"errors"
	"testing"

	"github.com/pdevine/tensor"
)

func TestReshapeAs(t *testing.T) {
	src := FromFloats([]float32{1, 2, 3, 4, 5, 6}, 2, 3)

	out, err := ReshapeAs(src, []int{3, 2})
	if err != nil {
		t.Fatalf("ReshapeAs: %v", err)
	}
	shape := []int(out.Shape())
	if shape[0] != 3 || shape[1] != 2 {
		t.Errorf("Shape = %v, erwartet [3 2]", shape)
	}

	// das Original bleibt unveraendert
	orig := []int(src.Shape())
	if orig[0] != 2 || orig[1] != 3 {
		t.Errorf("Quelle wurde veraendert: %v", orig)
	}
}

func TestReshapeAsMismatch(t *testing.T) {
	src := FromFloats([]float32{1, 2, 3, 4, 5, 6}, 2, 3)

	_, err := ReshapeAs(src, []int{2, 4})
	var shapeErr *ShapeMismatchError
	if !errors.As(err, &shapeErr) {
		t.Fatalf("erwartet ShapeMismatchError, got %v", err)
	}
	if Elements(shapeErr.Got) != 6 || Elements(shapeErr.Want) != 8 {
		t.Errorf("Fehler-Shapes = %v / %v, erwartet 6 / 8 Elemente", shapeErr.Got, shapeErr.Want)
	}
}

func TestColumns(t *testing.T) {
	// 2x4 Matrix: Zeilen [0 1 2 3] und [4 5 6 7]
	src := FromFloats([]float32{0, 1, 2, 3, 4, 5, 6, 7}, 2, 4)

	out, err := Columns(src, 1, 3)
	if err != nil {
		t.Fatalf("Columns: %v", err)
	}
	got := out.Data().([]float32)
	want := []float32{1, 2, 5, 6}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Columns = %v, erwartet %v", got, want)
		}
	}

	if _, err := Columns(src, 3, 3); err == nil {
		t.Error("erwartet Fehler fuer leeren Spaltenbereich")
	}
	if _, err := Columns(FromFloats([]float32{1}, 1), 0, 1); err == nil {
		t.Error("erwartet Fehler fuer 1D-Tensor")
	}
}

func TestRow(t *testing.T) {
	src := FromFloats([]float32{1, 2, 3, 4, 5, 6, 7, 8}, 2, 2, 2)

	row, err := Row(src, 1)
	if err != nil {
		t.Fatalf("Row: %v", err)
	}
	shape := []int(row.Shape())
	if shape[0] != 2 || shape[1] != 2 {
		t.Errorf("Zeilen-Shape = %v, erwartet [2 2]", shape)
	}
	if got := row.Data().([]float32)[0]; got != 5 {
		t.Errorf("Zeile 1 beginnt mit %v, erwartet 5", got)
	}

	if _, err := Row(src, 2); err == nil {
		t.Error("erwartet Fehler fuer Index ausserhalb des Bereichs")
	}
}

func TestStack(t *testing.T) {
	a := FromFloats([]float32{1, 2}, 2)
	b := FromFloats([]float32{3, 4}, 2)

	stacked, err := Stack([]*tensor.Dense{a, b})
	if err != nil {
		t.Fatalf("Stack: %v", err)
	}
	shape := []int(stacked.Shape())
	if shape[0] != 2 || shape[1] != 2 {
		t.Errorf("Shape = %v, erwartet [2 2]", shape)
	}
	got := stacked.Data().([]float32)
	want := []float32{1, 2, 3, 4}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Stack = %v, erwartet %v", got, want)
		}
	}

	// ungleichfoermige Tensoren werden abgelehnt
	c := FromFloats([]float32{1, 2, 3}, 3)
	if _, err := Stack([]*tensor.Dense{a, c}); err == nil {
		t.Error("erwartet Fehler fuer ungleichfoermige Tensoren")
	}
}

func TestNormalShapeAndDeterminism(t *testing.T) {
	shape := []int{2, 3}
	a := Normal(shape, 0, 1, 7)
	b := Normal(shape, 0, 1, 7)

	if Elements(a.Shape()) != 6 {
		t.Fatalf("Shape = %v, erwartet %v", a.Shape(), shape)
	}

	// gleicher Seed, gleiche Werte
	av := a.Data().([]float32)
	bv := b.Data().([]float32)
	for i := range av {
		if av[i] != bv[i] {
			t.Fatalf("Rauschen mit gleichem Seed unterscheidet sich an Position %d", i)
		}
	}
}

func TestDecodeFloat16(t *testing.T) {
	// 1.0 als float16 ist 0x3C00 (little-endian: 00 3C)
	out, err := DecodeFloat16([]byte{0x00, 0x3C, 0x00, 0xBC})
	if err != nil {
		t.Fatalf("DecodeFloat16: %v", err)
	}
	if out[0] != 1 || out[1] != -1 {
		t.Errorf("DecodeFloat16 = %v, erwartet [1 -1]", out)
	}

	if _, err := DecodeFloat16([]byte{0x00}); err == nil {
		t.Error("erwartet Fehler fuer Buffer ungerader Laenge")
	}
}
