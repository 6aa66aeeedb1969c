// Package aggregator - Zusammenbau der Batch-Ausgaben zu Artefakten
//
// Dieses Paket schreibt die pro Batch dekodierten Fenster als
// vollstaendige Artefakte in das Ausgabe-Verzeichnis:
// - Bild-Tensoren als PNG
// - Embedding-Vektoren als CSV
//
// Die Benennung folgt den Location-Metadaten: Spalte 0 ist der
// Subjekt-Index im Reader; zwei Spalten benennen ein
// Interpolations-Paar und seinen Schritt; ohne Location (Sample-Modus)
// werden zufaellige Namen vergeben.
package aggregator

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/pdevine/tensor"

	"github.com/vaeflow/vaeflow/ml"
	"github.com/vaeflow/vaeflow/reader"
)

// Aggregator schreibt Batch-Ausgaben in das Ausgabe-Verzeichnis.
// Der Reader darf nil sein (Sample-Modus); dann gibt es keine
// Subjekt-Namen und die Artefakte erhalten zufaellige Namen.
type Aggregator struct {
	reader     reader.Reader
	outputPath string
}

// New erstellt einen Aggregator; reader darf nil sein
func New(r reader.Reader, outputPath string) *Aggregator {
	return &Aggregator{reader: r, outputPath: outputPath}
}

// DecodeBatch schreibt jede Zeile des Artefakt-Tensors als Datei.
// location darf nil sein; andernfalls benennt Spalte 0 das Subjekt
// und eine zweite Spalte den Interpolations-Schritt.
func (a *Aggregator) DecodeBatch(artifact, location *tensor.Dense) (bool, error) {
	if artifact == nil {
		return false, fmt.Errorf("decode batch: no artifact")
	}
	if err := os.MkdirAll(a.outputPath, 0o755); err != nil {
		return false, fmt.Errorf("create output directory: %w", err)
	}

	batch := artifact.Shape()[0]
	for i := 0; i < batch; i++ {
		row, err := ml.Row(artifact, i)
		if err != nil {
			return false, err
		}

		name, err := a.rowName(location, i)
		if err != nil {
			return false, err
		}
		if err := writeArtifact(filepath.Join(a.outputPath, name), row); err != nil {
			return false, err
		}
	}
	return true, nil
}

// rowName leitet den Dateinamen der Batch-Zeile i aus der Location ab
func (a *Aggregator) rowName(location *tensor.Dense, i int) (string, error) {
	if location == nil {
		return uuid.NewString(), nil
	}

	loc, err := ml.Row(location, i)
	if err != nil {
		return "", fmt.Errorf("read location: %w", err)
	}
	cols := loc.Data().([]float32)

	if len(cols) >= 2 {
		// interpolation pair and step index
		return fmt.Sprintf("%d_%d", int(cols[0]), int(cols[1])), nil
	}

	name := ""
	if a.reader != nil {
		name = a.reader.Name(int(cols[0]))
	}
	if name == "" {
		name = strconv.Itoa(int(cols[0]))
	}
	return name, nil
}

// writeArtifact schreibt einen Zeilen-Tensor als PNG (>= 2 Achsen)
// oder CSV (Vektor)
func writeArtifact(path string, row *tensor.Dense) error {
	if len(row.Shape()) >= 2 {
		return writePNG(path+".png", row)
	}
	return writeCSV(path+".csv", row)
}

// writePNG schreibt einen [H, W, ...] Tensor als Grauwert-PNG;
// Werte werden auf [0, 1] geklemmt
func writePNG(path string, t *tensor.Dense) error {
	shape := []int(t.Shape())
	h, w := shape[0], shape[1]
	channels := ml.Elements(shape) / (h * w)

	img := image.NewGray(image.Rect(0, 0, w, h))
	data := t.Data().([]float32)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := data[(y*w+x)*channels]
			if v < 0 {
				v = 0
			} else if v > 1 {
				v = 1
			}
			img.SetGray(x, y, color.Gray{Y: uint8(v * 255)})
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

// writeCSV schreibt einen Vektor als einzelne CSV-Zeile
func writeCSV(path string, t *tensor.Dense) error {
	data := t.Data().([]float32)
	fields := make([]string, len(data))
	for i, v := range data {
		fields[i] = strconv.FormatFloat(float64(v), 'g', -1, 32)
	}
	return os.WriteFile(path, []byte(strings.Join(fields, ",")+"\n"), 0o644)
}
