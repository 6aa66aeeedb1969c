// Package optimiser - Gradienten-Berechnung und Parameter-Updates
//
// Dieses Paket definiert das Optimiser-Interface, das die Anwendung
// pro Trainings-Schritt konsumiert, sowie die Adam-Implementierung.
// Die Gradienten-Berechnung gehoert zum Kollaborations-Vertrag: der
// Kern reicht nur den Loss durch und sammelt die Gradienten ein.
package optimiser

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/pdevine/tensor"
)

// Fehler-Definitionen
var (
	ErrNoEval       = errors.New("optimiser: loss carries no evaluation closure")
	ErrNoParameters = errors.New("optimiser: no parameters available")
)

// Gradient ist der Gradient eines benannten Parameters
type Gradient struct {
	Name  string
	Value *tensor.Dense
}

// Loss traegt den Loss-Wert eines Batches zusammen mit einer
// Closure, die den Loss nach einer Parameter-Stoerung neu auswertet
type Loss struct {
	Value float64
	Eval  func() (float64, error)
}

// Optimiser berechnet Gradienten und wendet sie auf die Parameter an
type Optimiser interface {
	ComputeGradients(loss Loss) ([]Gradient, error)
	ApplyGradients(grads []Gradient) error
}

// Adam implementiert den Adam-Optimierer mit numerischen Gradienten
// (zentrale Differenzen ueber die Eval-Closure des Loss)
type Adam struct {
	LearningRate float64

	beta1   float64
	beta2   float64
	epsilon float64

	// fdStep ist die Schrittweite der zentralen Differenzen
	fdStep float32

	// params liefert die aktuellen Parameter; eine Funktion, weil
	// Netze ihre Parameter erst beim ersten Vorwaerts-Durchlauf anlegen
	params func() map[string]*tensor.Dense

	// mu serialisiert Gradienten-Berechnung und Update: alle
	// Device-Towers teilen sich die Parameter-Tensoren, und die
	// zentralen Differenzen stoeren deren Slices in place
	mu sync.Mutex

	step int
	m    map[string][]float64
	v    map[string][]float64
}

// NewAdam erstellt einen Adam-Optimierer ueber den Parametern,
// die params liefert
func NewAdam(learningRate float64, params func() map[string]*tensor.Dense) *Adam {
	return &Adam{
		LearningRate: learningRate,
		beta1:        0.9,
		beta2:        0.999,
		epsilon:      1e-8,
		fdStep:       1e-3,
		params:       params,
		m:            make(map[string][]float64),
		v:            make(map[string][]float64),
	}
}

// ComputeGradients berechnet die Gradienten des Loss bezueglich aller
// Parameter per zentraler Differenzen
func (a *Adam) ComputeGradients(loss Loss) ([]Gradient, error) {
	if loss.Eval == nil {
		return nil, ErrNoEval
	}

	// kein Tower darf die Parameter lesen, solange ein anderer sie
	// fuer seine Differenzen-Rechnung verschoben hat
	a.mu.Lock()
	defer a.mu.Unlock()

	params := a.params()
	if len(params) == 0 {
		return nil, ErrNoParameters
	}

	var grads []Gradient
	for name, p := range params {
		data := p.Data().([]float32)
		grad := make([]float32, len(data))
		for i := range data {
			orig := data[i]

			data[i] = orig + a.fdStep
			plus, err := loss.Eval()
			if err != nil {
				data[i] = orig
				return nil, fmt.Errorf("evaluate loss: %w", err)
			}

			data[i] = orig - a.fdStep
			minus, err := loss.Eval()
			data[i] = orig
			if err != nil {
				return nil, fmt.Errorf("evaluate loss: %w", err)
			}

			grad[i] = float32((plus - minus) / (2 * float64(a.fdStep)))
		}
		grads = append(grads, Gradient{
			Name:  name,
			Value: tensor.New(tensor.WithShape(p.Shape()...), tensor.WithBacking(grad)),
		})
	}
	return grads, nil
}

// ApplyGradients fuehrt einen Adam-Update-Schritt aus
func (a *Adam) ApplyGradients(grads []Gradient) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	params := a.params()
	if len(params) == 0 {
		return ErrNoParameters
	}

	a.step++
	c1 := 1 - math.Pow(a.beta1, float64(a.step))
	c2 := 1 - math.Pow(a.beta2, float64(a.step))

	for _, g := range grads {
		p, ok := params[g.Name]
		if !ok {
			return fmt.Errorf("%w: unknown parameter %q", ErrNoParameters, g.Name)
		}

		data := p.Data().([]float32)
		gd := g.Value.Data().([]float32)
		if len(gd) != len(data) {
			return fmt.Errorf("gradient %q has %d elements, parameter has %d", g.Name, len(gd), len(data))
		}

		m, v := a.m[g.Name], a.v[g.Name]
		if m == nil {
			m = make([]float64, len(data))
			v = make([]float64, len(data))
			a.m[g.Name], a.v[g.Name] = m, v
		}

		for i := range data {
			gi := float64(gd[i])
			m[i] = a.beta1*m[i] + (1-a.beta1)*gi
			v[i] = a.beta2*v[i] + (1-a.beta2)*gi*gi
			data[i] -= float32(a.LearningRate * (m[i] / c1) / (math.Sqrt(v[i]/c2) + a.epsilon))
		}
	}
	return nil
}
