// resize.go - Fenster-Sampling mit fester Groesse
//
// Dieses Modul enthaelt:
// - ResizeSampler: Skaliert jedes Subjekt-Bild auf die Fenster-Groesse
// - Traversierung: gemischt (Training) oder deterministisch (Inferenz)
package sampler

import (
	"fmt"
	"math/rand"
	"sync"

	"github.com/pdevine/tensor"

	"github.com/vaeflow/vaeflow/ml"
	"github.com/vaeflow/vaeflow/reader"
)

// ResizeSampler produziert Batches fester Fenster-Groesse.
// Mit shuffle laeuft die Traversierung endlos in zufaelliger
// Reihenfolge; ohne shuffle genau einmal in Manifest-Reihenfolge
// (deterministisch, fuer die Positions-Buchfuehrung der Ausgabe).
type ResizeSampler struct {
	reader          reader.Reader
	windowSize      []int
	batchSize       int
	windowsPerImage int
	shuffle         bool

	mu     sync.Mutex
	rng    *rand.Rand
	order  []int
	cursor int
}

// NewResizeSampler erstellt einen Sampler ueber dem initialisierten Reader
func NewResizeSampler(r reader.Reader, windowSize []int, batchSize, windowsPerImage int, shuffle bool, seed int64) (*ResizeSampler, error) {
	if r == nil || r.Len() == 0 {
		return nil, fmt.Errorf("resize sampler needs an initialised reader")
	}
	if batchSize < 1 {
		return nil, fmt.Errorf("batch size must be positive, got %d", batchSize)
	}
	if windowsPerImage < 1 {
		windowsPerImage = 1
	}

	s := &ResizeSampler{
		reader:          r,
		windowSize:      append([]int(nil), windowSize...),
		batchSize:       batchSize,
		windowsPerImage: windowsPerImage,
		shuffle:         shuffle,
		rng:             rand.New(rand.NewSource(seed)),
	}
	s.reset()
	return s, nil
}

// reset beginnt eine neue Traversierung
func (s *ResizeSampler) reset() {
	n := s.reader.Len()
	s.order = s.order[:0]
	for i := 0; i < n; i++ {
		for w := 0; w < s.windowsPerImage; w++ {
			s.order = append(s.order, i)
		}
	}
	if s.shuffle {
		s.rng.Shuffle(len(s.order), func(i, j int) {
			s.order[i], s.order[j] = s.order[j], s.order[i]
		})
	}
	s.cursor = 0
}

// next gibt den naechsten Subjekt-Index zurueck
func (s *ResizeSampler) next() (int, error) {
	if s.cursor >= len(s.order) {
		if !s.shuffle {
			return 0, ErrExhausted
		}
		s.reset()
	}
	idx := s.order[s.cursor]
	s.cursor++
	return idx, nil
}

// PopBatch produziert den naechsten Batch. Am Ende einer
// deterministischen Traversierung kann der letzte Batch kleiner als
// die Batch-Groesse sein; danach ErrExhausted.
func (s *ResizeSampler) PopBatch(deviceID int) (Batch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	type window struct {
		subject int
		data    map[string]*tensor.Dense
	}
	var windows []window
	for len(windows) < s.batchSize {
		idx, err := s.next()
		if err != nil {
			if len(windows) > 0 {
				break
			}
			return nil, err
		}

		data, err := s.reader.Read(idx)
		if err != nil {
			return nil, fmt.Errorf("pop batch: %w", err)
		}
		windows = append(windows, window{subject: idx, data: data})
	}

	batch := make(Batch)
	for name := range windows[0].data {
		tensors := make([]*tensor.Dense, len(windows))
		locations := make([]float32, 0, len(windows)*(1+2*len(s.windowSize)))
		for i, w := range windows {
			resized, err := resizeTo(w.data[name], s.windowSize)
			if err != nil {
				return nil, fmt.Errorf("resize channel %q: %w", name, err)
			}
			tensors[i] = resized

			// location row: subject index, window begin and end
			locations = append(locations, float32(w.subject))
			for range s.windowSize {
				locations = append(locations, 0)
			}
			for _, d := range s.windowSize {
				locations = append(locations, float32(d))
			}
		}

		stacked, err := ml.Stack(tensors)
		if err != nil {
			return nil, fmt.Errorf("stack channel %q: %w", name, err)
		}
		batch[name] = stacked
		batch[name+"_location"] = ml.FromFloats(locations, len(windows), 1+2*len(s.windowSize))
	}
	return batch, nil
}

// resizeTo skaliert die raeumlichen Achsen per Nearest-Neighbour auf
// die Fenster-Groesse; eine nachlaufende Kanal-Achse bleibt erhalten.
// Tensoren ohne raeumliche Achsen werden unveraendert durchgereicht.
func resizeTo(t *tensor.Dense, window []int) (*tensor.Dense, error) {
	shape := []int(t.Shape())
	if len(window) == 0 || len(shape) < len(window) {
		return t, nil
	}

	outShape := append([]int(nil), window...)
	channels := 1
	if len(shape) > len(window) {
		// trailing axes carry channels
		for _, d := range shape[len(window):] {
			channels *= d
		}
		outShape = append(outShape, shape[len(window):]...)
	}

	in := t.Data().([]float32)
	out := make([]float32, ml.Elements(outShape))

	inStrides := make([]int, len(window))
	acc := channels
	for d := len(window) - 1; d >= 0; d-- {
		inStrides[d] = acc
		acc *= shape[d]
	}
	outStrides := make([]int, len(window))
	acc = channels
	for d := len(window) - 1; d >= 0; d-- {
		outStrides[d] = acc
		acc *= window[d]
	}

	coords := make([]int, len(window))
	for i := 0; i < len(out); i += channels {
		rem := i
		for d := range window {
			coords[d] = rem / outStrides[d]
			rem %= outStrides[d]
		}

		j := 0
		for d := range window {
			src := coords[d] * shape[d] / window[d]
			if src >= shape[d] {
				src = shape[d] - 1
			}
			j += src * inStrides[d]
		}
		copy(out[i:i+channels], in[j:j+channels])
	}
	return ml.FromFloats(out, outShape...), nil
}
