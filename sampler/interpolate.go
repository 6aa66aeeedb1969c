// interpolate.go - Linear interpolierte Latent-Codes
//
// Dieses Modul enthaelt:
//   - LinearInterpolateSampler: Interpoliert zwischen aufeinander-
//     folgenden Subjekt-Paaren des Feature-Kanals
package sampler

import (
	"fmt"
	"sync"

	"github.com/pdevine/tensor"

	"github.com/vaeflow/vaeflow/ml"
	"github.com/vaeflow/vaeflow/reader"
)

// LinearInterpolateSampler produziert linear interpolierte Codes
// zwischen den Feature-Vektoren aufeinanderfolgender Subjekte.
// Die Location-Spalten sind [Paar-Index, Schritt-Index, Subjekt-Index
// des Paar-Anfangs]; Dekodierer nutzen die ersten beiden Spalten.
type LinearInterpolateSampler struct {
	reader          reader.Reader
	batchSize       int
	nInterpolations int

	mu   sync.Mutex
	pair int
	step int
	done bool
}

// NewLinearInterpolateSampler erstellt einen Sampler ueber dem
// initialisierten Feature-Reader
func NewLinearInterpolateSampler(r reader.Reader, batchSize, nInterpolations int) (*LinearInterpolateSampler, error) {
	if r == nil || r.Len() < 2 {
		return nil, fmt.Errorf("linear interpolation needs a reader with at least two subjects")
	}
	if batchSize < 1 {
		return nil, fmt.Errorf("batch size must be positive, got %d", batchSize)
	}
	if nInterpolations < 2 {
		return nil, fmt.Errorf("number of interpolations must be at least 2, got %d", nInterpolations)
	}

	return &LinearInterpolateSampler{
		reader:          r,
		batchSize:       batchSize,
		nInterpolations: nInterpolations,
	}, nil
}

// PopBatch produziert den naechsten Batch interpolierter Codes.
// Nach dem letzten Schritt des letzten Paares ErrExhausted.
func (s *LinearInterpolateSampler) PopBatch(deviceID int) (Batch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done {
		return nil, ErrExhausted
	}

	var codes []*tensor.Dense
	var locations []float32
	for len(codes) < s.batchSize && !s.done {
		a, err := s.featureOf(s.pair)
		if err != nil {
			return nil, err
		}
		b, err := s.featureOf(s.pair + 1)
		if err != nil {
			return nil, err
		}

		code, err := interpolate(a, b, float64(s.step)/float64(s.nInterpolations-1))
		if err != nil {
			return nil, fmt.Errorf("interpolate pair %d step %d: %w", s.pair, s.step, err)
		}
		codes = append(codes, code)
		locations = append(locations, float32(s.pair), float32(s.step), float32(s.pair))

		s.step++
		if s.step == s.nInterpolations {
			s.step = 0
			s.pair++
			if s.pair+1 >= s.reader.Len() {
				s.done = true
			}
		}
	}

	// pad the tail batch by repeating the last code so every batch
	// carries exactly batchSize rows; the duplicated location rows
	// make the repeats decode onto the same artifact name
	for len(codes) < s.batchSize {
		codes = append(codes, codes[len(codes)-1])
		locations = append(locations, locations[len(locations)-3:]...)
	}

	stacked, err := ml.Stack(codes)
	if err != nil {
		return nil, fmt.Errorf("stack codes: %w", err)
	}
	return Batch{
		"feature":          stacked,
		"feature_location": ml.FromFloats(locations, len(codes), 3),
	}, nil
}

// featureOf liest den Feature-Vektor des Subjekts i
func (s *LinearInterpolateSampler) featureOf(i int) (*tensor.Dense, error) {
	data, err := s.reader.Read(i)
	if err != nil {
		return nil, fmt.Errorf("read subject %d: %w", i, err)
	}
	code, ok := data["feature"]
	if !ok {
		return nil, fmt.Errorf("subject %d has no feature channel", i)
	}
	return code, nil
}

// interpolate bildet a + t*(b-a) elementweise
func interpolate(a, b *tensor.Dense, t float64) (*tensor.Dense, error) {
	av := a.Data().([]float32)
	bv := b.Data().([]float32)
	if len(av) != len(bv) {
		return nil, &ml.ShapeMismatchError{Got: b.Shape(), Want: a.Shape()}
	}

	out := make([]float32, len(av))
	for i := range out {
		out[i] = av[i] + float32(t)*(bv[i]-av[i])
	}
	return ml.FromFloats(out, a.Shape()...), nil
}
