// sampler_test.go - Tests fuer die beiden Fenster-Strategien
package sampler

import (
	"errors"
	"testing"

	"github.com/pdevine/tensor"

	"github.com/vaeflow/vaeflow/config"
	"github.com/vaeflow/vaeflow/layer"
	"github.com/vaeflow/vaeflow/ml"
)

// memoryReader liefert vorbereitete Tensoren je Subjekt
type memoryReader struct {
	channel  string
	subjects []*tensor.Dense
}

func (r *memoryReader) Initialise(config.Data, config.Autoencoder) error { return nil }
func (r *memoryReader) AddPreprocessing(...layer.Layer)                  {}
func (r *memoryReader) Len() int                                         { return len(r.subjects) }
func (r *memoryReader) Name(i int) string                                { return "" }

func (r *memoryReader) Read(i int) (map[string]*tensor.Dense, error) {
	if i < 0 || i >= len(r.subjects) {
		return nil, errors.New("subject out of range")
	}
	return map[string]*tensor.Dense{r.channel: r.subjects[i]}, nil
}

// imageReaderOf baut einen Reader mit n gleichfoermigen 2x2 Bildern,
// deren erster Wert den Subjekt-Index traegt
func imageReaderOf(n int) *memoryReader {
	r := &memoryReader{channel: "image"}
	for i := 0; i < n; i++ {
		r.subjects = append(r.subjects, ml.FromFloats([]float32{float32(i), 0, 0, 0}, 2, 2, 1))
	}
	return r
}

func TestResizeSamplerDeterministicPass(t *testing.T) {
	s, err := NewResizeSampler(imageReaderOf(5), []int{2, 2}, 2, 1, false, 1)
	if err != nil {
		t.Fatalf("NewResizeSampler: %v", err)
	}

	// 5 Subjekte in Batches von 2: Groessen 2, 2, 1, danach Ende
	var sizes []int
	var first []float32
	for {
		b, err := s.PopBatch(0)
		if errors.Is(err, ErrExhausted) {
			break
		}
		if err != nil {
			t.Fatalf("PopBatch: %v", err)
		}
		sizes = append(sizes, b["image"].Shape()[0])
		first = append(first, b["image"].Data().([]float32)[0])
	}

	wantSizes := []int{2, 2, 1}
	if len(sizes) != len(wantSizes) {
		t.Fatalf("Batch-Groessen = %v, erwartet %v", sizes, wantSizes)
	}
	for i := range wantSizes {
		if sizes[i] != wantSizes[i] {
			t.Fatalf("Batch-Groessen = %v, erwartet %v", sizes, wantSizes)
		}
	}

	// deterministische Traversierung in Manifest-Reihenfolge
	wantFirst := []float32{0, 2, 4}
	for i := range wantFirst {
		if first[i] != wantFirst[i] {
			t.Errorf("Batch %d beginnt mit Subjekt %v, erwartet %v", i, first[i], wantFirst[i])
		}
	}
}

func TestResizeSamplerLocationColumns(t *testing.T) {
	s, err := NewResizeSampler(imageReaderOf(2), []int{2, 2}, 2, 1, false, 1)
	if err != nil {
		t.Fatalf("NewResizeSampler: %v", err)
	}

	b, err := s.PopBatch(0)
	if err != nil {
		t.Fatalf("PopBatch: %v", err)
	}
	loc, ok := b["image_location"]
	if !ok {
		t.Fatal("erwartet image_location im Batch")
	}

	// Spalten: Subjekt, Fenster-Anfang (0, 0), Fenster-Ende (2, 2)
	shape := []int(loc.Shape())
	if shape[0] != 2 || shape[1] != 5 {
		t.Fatalf("Location-Shape = %v, erwartet [2 5]", shape)
	}
	row := loc.Data().([]float32)[:5]
	want := []float32{0, 0, 0, 2, 2}
	for i := range want {
		if row[i] != want[i] {
			t.Fatalf("Location-Zeile = %v, erwartet %v", row, want)
		}
	}
}

func TestResizeSamplerShuffleIsEndless(t *testing.T) {
	s, err := NewResizeSampler(imageReaderOf(2), []int{2, 2}, 2, 1, true, 1)
	if err != nil {
		t.Fatalf("NewResizeSampler: %v", err)
	}

	// mehr Batches als Subjekte: die Traversierung beginnt von vorn
	for i := 0; i < 4; i++ {
		if _, err := s.PopBatch(0); err != nil {
			t.Fatalf("PopBatch %d: %v", i, err)
		}
	}
}

func TestResizeSamplerResizesToWindow(t *testing.T) {
	// 4x4 Bild auf 2x2 Fenster
	r := &memoryReader{channel: "image", subjects: []*tensor.Dense{
		ml.FromFloats(make([]float32, 16), 4, 4, 1),
	}}
	s, err := NewResizeSampler(r, []int{2, 2}, 1, 1, false, 1)
	if err != nil {
		t.Fatalf("NewResizeSampler: %v", err)
	}

	b, err := s.PopBatch(0)
	if err != nil {
		t.Fatalf("PopBatch: %v", err)
	}
	shape := []int(b["image"].Shape())
	want := []int{1, 2, 2, 1}
	for i := range want {
		if shape[i] != want[i] {
			t.Fatalf("Batch-Shape = %v, erwartet %v", shape, want)
		}
	}
}

func TestResizeSamplerRejectsEmptyReader(t *testing.T) {
	if _, err := NewResizeSampler(&memoryReader{}, []int{2, 2}, 1, 1, false, 1); err == nil {
		t.Error("erwartet Fehler fuer leeren Reader")
	}
}

// featureReaderOf baut einen Reader mit n Feature-Vektoren der Laenge
// dim; Subjekt i traegt ueberall den Wert i
func featureReaderOf(n, dim int) *memoryReader {
	r := &memoryReader{channel: "feature"}
	for i := 0; i < n; i++ {
		data := make([]float32, dim)
		for j := range data {
			data[j] = float32(i)
		}
		r.subjects = append(r.subjects, ml.FromFloats(data, dim))
	}
	return r
}

func TestLinearInterpolateSampler(t *testing.T) {
	// 3 Subjekte, 3 Schritte: 2 Paare mit t = 0, 0.5, 1
	s, err := NewLinearInterpolateSampler(featureReaderOf(3, 4), 6, 3)
	if err != nil {
		t.Fatalf("NewLinearInterpolateSampler: %v", err)
	}

	b, err := s.PopBatch(0)
	if err != nil {
		t.Fatalf("PopBatch: %v", err)
	}

	codes := b["feature"].Data().([]float32)
	// Paar 0: 0, 0.5, 1; Paar 1: 1, 1.5, 2 (je 4 Elemente)
	want := []float32{0, 0.5, 1, 1, 1.5, 2}
	for i, w := range want {
		if got := codes[i*4]; got != w {
			t.Errorf("Code %d = %v, erwartet %v", i, got, w)
		}
	}

	// Location: Paar- und Schritt-Index in den ersten beiden Spalten
	loc := b["feature_location"].Data().([]float32)
	wantLoc := []float32{0, 0, 0, 0, 1, 0, 0, 2, 0, 1, 0, 1, 1, 1, 1, 1, 2, 1}
	for i := range wantLoc {
		if loc[i] != wantLoc[i] {
			t.Fatalf("Location = %v, erwartet %v", loc, wantLoc)
		}
	}

	if _, err := s.PopBatch(0); !errors.Is(err, ErrExhausted) {
		t.Errorf("zweiter PopBatch = %v, erwartet ErrExhausted", err)
	}
}

func TestLinearInterpolateSamplerPadsTailBatch(t *testing.T) {
	// 2 Subjekte, 3 Schritte, Batch-Groesse 4: der letzte Code wird
	// bis zur Batch-Groesse wiederholt
	s, err := NewLinearInterpolateSampler(featureReaderOf(2, 2), 4, 3)
	if err != nil {
		t.Fatalf("NewLinearInterpolateSampler: %v", err)
	}

	b, err := s.PopBatch(0)
	if err != nil {
		t.Fatalf("PopBatch: %v", err)
	}
	if got := b["feature"].Shape()[0]; got != 4 {
		t.Fatalf("Batch-Groesse = %d, erwartet 4", got)
	}

	codes := b["feature"].Data().([]float32)
	// die letzte Zeile wiederholt den letzten echten Code (t = 1)
	if codes[6] != codes[4] || codes[7] != codes[5] {
		t.Errorf("Tail-Zeile = %v, erwartet Wiederholung von %v", codes[6:8], codes[4:6])
	}

	loc := b["feature_location"].Data().([]float32)
	if loc[9] != loc[6] || loc[10] != loc[7] {
		t.Errorf("Tail-Location = %v, erwartet Wiederholung von %v", loc[9:12], loc[6:9])
	}
}

func TestLinearInterpolateSamplerValidation(t *testing.T) {
	if _, err := NewLinearInterpolateSampler(featureReaderOf(1, 2), 2, 3); err == nil {
		t.Error("erwartet Fehler fuer weniger als zwei Subjekte")
	}
	if _, err := NewLinearInterpolateSampler(featureReaderOf(3, 2), 2, 1); err == nil {
		t.Error("erwartet Fehler fuer weniger als zwei Schritte")
	}
	if _, err := NewLinearInterpolateSampler(featureReaderOf(3, 2), 0, 3); err == nil {
		t.Error("erwartet Fehler fuer Batch-Groesse 0")
	}
}
