// collector_test.go - Tests fuer die Batch-Sammelstellen
package engine

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/vaeflow/vaeflow/ml"
	"github.com/vaeflow/vaeflow/optimiser"
)

func TestOutputsCollectorKeepsDeclarationOrder(t *testing.T) {
	c := NewOutputsCollector()
	for _, name := range []string{"generated_image", "location", "embedded"} {
		if err := c.AddToCollection(Binding{Name: name, Value: ml.Scalar(1), Collection: Console}); err != nil {
			t.Fatalf("AddToCollection(%q): %v", name, err)
		}
	}

	var got []string
	for _, b := range c.Bindings(Console) {
		got = append(got, b.Name)
	}
	want := []string{"generated_image", "location", "embedded"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Deklarations-Reihenfolge (-want +got):\n%s", diff)
	}
}

func TestOutputsCollectorAveragesOverDevices(t *testing.T) {
	c := NewOutputsCollector()
	for _, v := range []float64{2, 4, 6} {
		err := c.AddToCollection(Binding{
			Name: "variational_lower_bound", Value: ml.Scalar(v),
			AverageOverDevices: true, Collection: Console,
		})
		if err != nil {
			t.Fatalf("AddToCollection: %v", err)
		}
	}

	bindings := c.Bindings(Console)
	if len(bindings) != 1 {
		t.Fatalf("Bindings = %d, erwartet 1", len(bindings))
	}
	if got := ml.First(bindings[0].Value); got != 4 {
		t.Errorf("gemittelter Wert = %v, erwartet 4", got)
	}
}

func TestOutputsCollectorSeparatesCollections(t *testing.T) {
	c := NewOutputsCollector()
	_ = c.AddToCollection(Binding{Name: "loss", Value: ml.Scalar(1), Collection: Console})
	_ = c.AddToCollection(Binding{Name: "loss", Value: ml.Scalar(2), Collection: Monitor})

	if got := ml.First(c.Bindings(Console)[0].Value); got != 1 {
		t.Errorf("Console-Wert = %v, erwartet 1", got)
	}
	if got := ml.First(c.Bindings(Monitor)[0].Value); got != 2 {
		t.Errorf("Monitor-Wert = %v, erwartet 2", got)
	}
}

func TestOutputsCollectorRejectsAnonymousBinding(t *testing.T) {
	c := NewOutputsCollector()
	if err := c.AddToCollection(Binding{Value: ml.Scalar(1)}); err == nil {
		t.Error("erwartet Fehler fuer Binding ohne Name")
	}
	if err := c.AddToCollection(Binding{Name: "loss"}); err == nil {
		t.Error("erwartet Fehler fuer Binding ohne Wert")
	}
}

func TestRenderConsole(t *testing.T) {
	c := NewOutputsCollector()
	_ = c.AddToCollection(Binding{Name: "variational_lower_bound", Value: ml.Scalar(1.5), Collection: Console})

	var buf bytes.Buffer
	c.RenderConsole(&buf)
	out := buf.String()
	if !strings.Contains(out, "variational_lower_bound") || !strings.Contains(out, "1.5") {
		t.Errorf("Konsolen-Ausgabe unvollstaendig:\n%s", out)
	}
}

func TestGradientsCollectorMergesTowers(t *testing.T) {
	g := NewGradientsCollector(2)

	err := g.Tower(0).AddToCollection([]optimiser.Gradient{
		{Name: "w", Value: ml.FromFloats([]float32{2, 4}, 2)},
	})
	if err != nil {
		t.Fatalf("Tower 0: %v", err)
	}
	err = g.Tower(1).AddToCollection([]optimiser.Gradient{
		{Name: "w", Value: ml.FromFloats([]float32{4, 8}, 2)},
	})
	if err != nil {
		t.Fatalf("Tower 1: %v", err)
	}

	merged := g.Merged()
	if len(merged) != 1 {
		t.Fatalf("Merged = %d Gradienten, erwartet 1", len(merged))
	}
	got := merged[0].Value.Data().([]float32)
	want := []float32{3, 6}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("gemittelte Gradienten (-want +got):\n%s", diff)
	}
}

func TestGradientsCollectorTowerViews(t *testing.T) {
	g := NewGradientsCollector(3)
	if g.NumTowers() != 3 {
		t.Errorf("NumTowers = %d, erwartet 3", g.NumTowers())
	}
	if g.Tower(2).CurrentTowerID() != 2 {
		t.Errorf("CurrentTowerID = %d, erwartet 2", g.Tower(2).CurrentTowerID())
	}

	if err := g.Tower(5).AddToCollection(nil); err == nil {
		t.Error("erwartet Fehler fuer Tower ausserhalb des Bereichs")
	}
}
