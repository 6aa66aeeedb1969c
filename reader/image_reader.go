// image_reader.go - CSV-Manifest-Reader fuer Bild- und Feature-Kanaele
//
// Dieses Modul enthaelt:
// - ImageReader: Laedt Subjekte aus CSV-Manifesten je Kanal
// - Bild-Dekodierung (PNG/JPEG plus BMP/TIFF/WebP via golang.org/x/image)
// - Feature-Dekodierung (CSV-Floats oder float16-gepackte .f16 Dateien)
package reader

import (
	"encoding/csv"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/pdevine/tensor"

	"github.com/vaeflow/vaeflow/config"
	"github.com/vaeflow/vaeflow/engine"
	"github.com/vaeflow/vaeflow/layer"
	"github.com/vaeflow/vaeflow/ml"
)

// subject ist ein Eintrag der Manifest-Schnittmenge aller Kanaele
type subject struct {
	id    string
	paths map[string]string
}

// ImageReader laedt Subjekt-Tensoren aus CSV-Manifesten.
// Jede Manifest-Zeile hat die Form "subject_id,dateipfad"; ein Subjekt
// ist lesbar, wenn es in den Manifesten aller Kanaele vorkommt.
type ImageReader struct {
	channels []string
	chain    []layer.Layer
	subjects []subject
}

// NewImageReader erstellt einen Reader fuer die gegebenen Kanaele
func NewImageReader(channels []string) *ImageReader {
	return &ImageReader{channels: channels}
}

// Initialise laedt die Manifeste aller Kanaele. Ein fehlender Kanal in
// der Daten-Konfiguration ist ein *engine.ConfigurationError.
func (r *ImageReader) Initialise(dataCfg config.Data, taskCfg config.Autoencoder) error {
	available := make([]string, 0, len(dataCfg.Sources))
	for name := range dataCfg.Sources {
		available = append(available, name)
	}
	sort.Strings(available)

	manifests := make(map[string]map[string]string, len(r.channels))
	var order []string
	for i, ch := range r.channels {
		src, ok := dataCfg.Sources[ch]
		if !ok {
			return &engine.ConfigurationError{Value: ch, Supported: available}
		}

		entries, ids, err := loadManifest(src.ManifestPath)
		if err != nil {
			return fmt.Errorf("load manifest for channel %q: %w", ch, err)
		}
		manifests[ch] = entries
		if i == 0 {
			order = ids
		}
	}

	// subjects follow the order of the first channel's manifest and
	// must be present in every channel
	r.subjects = r.subjects[:0]
	for _, id := range order {
		paths := make(map[string]string, len(r.channels))
		complete := true
		for _, ch := range r.channels {
			p, ok := manifests[ch][id]
			if !ok {
				complete = false
				break
			}
			paths[ch] = p
		}
		if complete {
			r.subjects = append(r.subjects, subject{id: id, paths: paths})
		}
	}
	if len(r.subjects) == 0 {
		return fmt.Errorf("no subject appears in the manifests of all channels %v", r.channels)
	}
	return nil
}

// AddPreprocessing bindet die Vorverarbeitungs-Kette an den Reader
func (r *ImageReader) AddPreprocessing(layers ...layer.Layer) {
	r.chain = append(r.chain, layers...)
}

// Len ist die Anzahl der lesbaren Subjekte
func (r *ImageReader) Len() int { return len(r.subjects) }

// Name gibt die Subjekt-ID an Position i zurueck
func (r *ImageReader) Name(i int) string {
	if i < 0 || i >= len(r.subjects) {
		return ""
	}
	return r.subjects[i].id
}

// Read laedt die Tensoren aller Kanaele des Subjekts i und wendet die
// Vorverarbeitungs-Kette an
func (r *ImageReader) Read(i int) (map[string]*tensor.Dense, error) {
	if i < 0 || i >= len(r.subjects) {
		return nil, fmt.Errorf("subject index %d out of range [0, %d)", i, len(r.subjects))
	}

	out := make(map[string]*tensor.Dense, len(r.channels))
	for _, ch := range r.channels {
		t, err := loadTensor(r.subjects[i].paths[ch])
		if err != nil {
			return nil, fmt.Errorf("read subject %q channel %q: %w", r.subjects[i].id, ch, err)
		}
		for _, l := range r.chain {
			if t, err = l.Apply(t); err != nil {
				return nil, fmt.Errorf("apply %s to subject %q: %w", l.Name(), r.subjects[i].id, err)
			}
		}
		out[ch] = t
	}
	return out, nil
}

// loadManifest liest ein CSV-Manifest und gibt die Eintraege sowie die
// IDs in Datei-Reihenfolge zurueck
func loadManifest(path string) (map[string]string, []string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("parse csv: %w", err)
	}

	entries := make(map[string]string, len(records))
	ids := make([]string, 0, len(records))
	for _, rec := range records {
		if len(rec) < 2 {
			return nil, nil, fmt.Errorf("manifest line needs \"subject_id,path\", got %v", rec)
		}
		id := strings.TrimSpace(rec[0])
		if _, dup := entries[id]; !dup {
			ids = append(ids, id)
		}
		entries[id] = strings.TrimSpace(rec[1])
	}
	return entries, ids, nil
}

// loadTensor laedt eine Datei anhand ihrer Endung
func loadTensor(path string) (*tensor.Dense, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return loadFeatureCSV(path)
	case ".f16":
		return loadFeatureF16(path)
	default:
		return loadImage(path)
	}
}

// loadImage dekodiert ein Bild als Grauwert-Tensor [H, W, 1] in [0, 1]
func loadImage(path string) (*tensor.Dense, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	h, w := bounds.Dy(), bounds.Dx()
	data := make([]float32, 0, h*w)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			g := color.GrayModel.Convert(img.At(x, y)).(color.Gray)
			data = append(data, float32(g.Y)/255)
		}
	}
	return ml.FromFloats(data, h, w, 1), nil
}

// loadFeatureCSV liest einen Feature-Vektor aus Komma-separierten Floats
func loadFeatureCSV(path string) (*tensor.Dense, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var data []float32
	for _, field := range strings.FieldsFunc(string(raw), func(r rune) bool {
		return r == ',' || r == '\n' || r == '\r'
	}) {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		v, err := strconv.ParseFloat(field, 32)
		if err != nil {
			return nil, fmt.Errorf("parse feature value %q: %w", field, err)
		}
		data = append(data, float32(v))
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("feature file %q is empty", path)
	}
	return ml.FromFloats(data, len(data)), nil
}

// loadFeatureF16 liest einen float16-gepackten Feature-Vektor
func loadFeatureF16(path string) (*tensor.Dense, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	data, err := ml.DecodeFloat16(raw)
	if err != nil {
		return nil, fmt.Errorf("decode %q: %w", path, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("feature file %q is empty", path)
	}
	return ml.FromFloats(data, len(data)), nil
}
