// layer_test.go - Tests fuer die Augmentierungs-Schichten
package layer

import (
	"testing"

	"github.com/vaeflow/vaeflow/ml"
)

func TestFlipAxis(t *testing.T) {
	// 2x2 Bild mit Kanal-Achse
	src := ml.FromFloats([]float32{1, 2, 3, 4}, 2, 2, 1)

	got := flipAxis(src, 0).Data().([]float32)
	want := []float32{3, 4, 1, 2}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("flipAxis(0) = %v, erwartet %v", got, want)
		}
	}

	got = flipAxis(src, 1).Data().([]float32)
	want = []float32{2, 1, 4, 3}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("flipAxis(1) = %v, erwartet %v", got, want)
		}
	}
}

func TestRandomFlipPreservesShape(t *testing.T) {
	l := NewRandomFlip([]int{0, 1}, 1)
	src := ml.FromFloats([]float32{1, 2, 3, 4, 5, 6}, 2, 3, 1)

	out, err := l.Apply(src)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if ml.Elements(out.Shape()) != 6 {
		t.Errorf("Shape = %v, erwartet [2 3 1]", out.Shape())
	}
}

func TestRandomFlipIgnoresInvalidAxes(t *testing.T) {
	l := NewRandomFlip([]int{5}, 1)
	src := ml.FromFloats([]float32{1, 2}, 2)

	out, err := l.Apply(src)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	got := out.Data().([]float32)
	if got[0] != 1 || got[1] != 2 {
		t.Errorf("ungueltige Achse veraendert den Tensor: %v", got)
	}
}

func TestRandomSpatialScalingPreservesShape(t *testing.T) {
	l := NewRandomSpatialScaling(-20, 20, 3)
	src := ml.FromFloats([]float32{1, 2, 3, 4, 5, 6, 7, 8, 9}, 3, 3, 1)

	out, err := l.Apply(src)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	shape := []int(out.Shape())
	if shape[0] != 3 || shape[1] != 3 || shape[2] != 1 {
		t.Errorf("Shape = %v, erwartet [3 3 1]", shape)
	}
}

func TestRandomSpatialScalingZeroRangeIsIdentity(t *testing.T) {
	// [0, 0] Prozent ist Faktor 1
	l := NewRandomSpatialScaling(0, 0, 3)
	src := ml.FromFloats([]float32{1, 2, 3, 4}, 2, 2, 1)

	out, err := l.Apply(src)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	got := out.Data().([]float32)
	want := []float32{1, 2, 3, 4}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Skalierung mit Faktor 1 = %v, erwartet %v", got, want)
		}
	}
}

func TestRandomRotationZeroAngleIsIdentity(t *testing.T) {
	l := NewRandomRotation(0, 0, 3)
	src := ml.FromFloats([]float32{1, 2, 3, 4}, 2, 2, 1)

	out, err := l.Apply(src)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	got := out.Data().([]float32)
	want := []float32{1, 2, 3, 4}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Rotation um 0 Grad = %v, erwartet %v", got, want)
		}
	}
}

func TestRandomRotationSkipsVectors(t *testing.T) {
	l := NewRandomRotation(-10, 10, 3)
	src := ml.FromFloats([]float32{1, 2, 3}, 3)

	out, err := l.Apply(src)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if out != src {
		t.Error("Vektoren ohne zweite Achse bleiben unveraendert")
	}
}
