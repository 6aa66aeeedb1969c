// collector.go - Sammelstellen fuer Ausgaben und Gradienten
//
// Enthaelt:
// - Collection: Ziel-Sammlung einer Ausgabe (Konsole vs. Monitoring)
// - Binding: Benanntes, typisiertes Batch-Artefakt
// - OutputsCollector: Sammelt Bindings in Deklarations-Reihenfolge
// - GradientsCollector: Sammelt Gradienten je Device-Tower
//
// Bindings werden pro Batch-Auswertung frisch deklariert, einmal vom
// Result Decoder konsumiert und dann verworfen.
package engine

import (
	"fmt"
	"io"
	"strconv"
	"sync"

	"github.com/olekukonko/tablewriter"
	"github.com/pdevine/tensor"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/vaeflow/vaeflow/ml"
	"github.com/vaeflow/vaeflow/optimiser"
)

// Collection bezeichnet die Ziel-Sammlung eines Bindings
type Collection int

const (
	// Console ist die aggregierte Konsolen-Ausgabe
	Console Collection = iota

	// Monitor ist die Monitoring-Zusammenfassung
	Monitor
)

func (c Collection) String() string {
	switch c {
	case Console:
		return "console"
	case Monitor:
		return "monitor"
	}
	return "collection(" + strconv.Itoa(int(c)) + ")"
}

// Binding ist ein benanntes Batch-Artefakt mit Ziel-Sammlung
type Binding struct {
	Name  string
	Value *tensor.Dense

	// AverageOverDevices mittelt Werte gleichen Namens ueber
	// Device-Towers statt sie zu ueberschreiben
	AverageOverDevices bool

	Collection Collection
}

// entry akkumuliert ein Binding ueber Device-Towers
type entry struct {
	binding Binding
	sum     []float64
	count   int
}

func (e *entry) value() *tensor.Dense {
	if !e.binding.AverageOverDevices || e.count <= 1 {
		return e.binding.Value
	}
	avg := make([]float32, len(e.sum))
	for i, v := range e.sum {
		avg[i] = float32(v / float64(e.count))
	}
	return ml.FromFloats(avg, e.binding.Value.Shape()...)
}

// OutputsCollector sammelt die deklarierten Ausgaben eines Batches.
// Die Deklarations-Reihenfolge bleibt fuer die Ausgabe erhalten;
// Schreibzugriffe aus parallelen Tower-Konstruktionen sind erlaubt.
type OutputsCollector struct {
	mu      sync.Mutex
	entries *orderedmap.OrderedMap[string, *entry]
}

// NewOutputsCollector erstellt einen leeren Collector
func NewOutputsCollector() *OutputsCollector {
	return &OutputsCollector{entries: orderedmap.New[string, *entry]()}
}

func bindingKey(b Binding) string {
	return b.Collection.String() + "/" + b.Name
}

// AddToCollection deklariert ein Binding. Ein bereits deklarierter
// Name derselben Sammlung wird gemittelt (AverageOverDevices) oder
// ueberschrieben.
func (c *OutputsCollector) AddToCollection(b Binding) error {
	if b.Name == "" {
		return fmt.Errorf("binding without name")
	}
	if b.Value == nil {
		return fmt.Errorf("binding %q without value", b.Name)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	key := bindingKey(b)
	if e, ok := c.entries.Get(key); ok {
		if !b.AverageOverDevices {
			e.binding = b
			return nil
		}
		for i, v := range b.Value.Data().([]float32) {
			e.sum[i] += float64(v)
		}
		e.count++
		return nil
	}

	e := &entry{binding: b, count: 1}
	if b.AverageOverDevices {
		data := b.Value.Data().([]float32)
		e.sum = make([]float64, len(data))
		for i, v := range data {
			e.sum[i] = float64(v)
		}
	}
	c.entries.Set(key, e)
	return nil
}

// Bindings gibt die Bindings einer Sammlung in Deklarations-
// Reihenfolge zurueck; gemittelte Werte sind aufgeloest
func (c *OutputsCollector) Bindings(col Collection) []Binding {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []Binding
	for pair := c.entries.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Value.binding.Collection != col {
			continue
		}
		b := pair.Value.binding
		b.Value = pair.Value.value()
		out = append(out, b)
	}
	return out
}

// Values gibt alle eingesammelten Artefakte als Batch-Ausgabe zurueck
func (c *OutputsCollector) Values() BatchOutput {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(BatchOutput)
	for pair := c.entries.Oldest(); pair != nil; pair = pair.Next() {
		out[pair.Value.binding.Name] = pair.Value.value()
	}
	return out
}

// RenderConsole schreibt die Konsolen-Sammlung als Tabelle
func (c *OutputsCollector) RenderConsole(w io.Writer) {
	var data [][]string
	for _, b := range c.Bindings(Console) {
		data = append(data, []string{b.Name, formatValue(b.Value)})
	}
	if len(data) == 0 {
		return
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"NAME", "VALUE"})
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")
	table.AppendBulk(data)
	table.Render()
}

func formatValue(t *tensor.Dense) string {
	if ml.Elements(t.Shape()) == 1 {
		return strconv.FormatFloat(ml.First(t), 'g', 6, 64)
	}
	return fmt.Sprintf("tensor%v", []int(t.Shape()))
}

// gradientStore haelt die Gradienten aller Device-Towers
type gradientStore struct {
	mu     sync.Mutex
	towers [][]optimiser.Gradient
}

// GradientsCollector ist die Tower-Sicht auf den Gradienten-Speicher.
// Jeder Tower erhaelt ueber Tower() seine eigene Sicht; die
// Konstruktion je Tower ist unabhaengig.
type GradientsCollector struct {
	shared *gradientStore
	tower  int
}

// NewGradientsCollector erstellt einen Collector fuer numTowers Towers
func NewGradientsCollector(numTowers int) *GradientsCollector {
	if numTowers < 1 {
		numTowers = 1
	}
	return &GradientsCollector{shared: &gradientStore{towers: make([][]optimiser.Gradient, numTowers)}}
}

// Tower gibt die Sicht des Towers id auf denselben Speicher zurueck
func (g *GradientsCollector) Tower(id int) *GradientsCollector {
	return &GradientsCollector{shared: g.shared, tower: id}
}

// CurrentTowerID gibt den Tower dieser Sicht zurueck
func (g *GradientsCollector) CurrentTowerID() int {
	return g.tower
}

// NumTowers gibt die Anzahl der Device-Towers zurueck
func (g *GradientsCollector) NumTowers() int {
	return len(g.shared.towers)
}

// AddToCollection hinterlegt die Gradienten des aktuellen Towers
func (g *GradientsCollector) AddToCollection(grads []optimiser.Gradient) error {
	if g.tower < 0 || g.tower >= len(g.shared.towers) {
		return fmt.Errorf("tower %d out of range", g.tower)
	}

	g.shared.mu.Lock()
	defer g.shared.mu.Unlock()
	g.shared.towers[g.tower] = grads
	return nil
}

// Merged mittelt die Gradienten aller Towers elementweise nach Name
func (g *GradientsCollector) Merged() []optimiser.Gradient {
	g.shared.mu.Lock()
	defer g.shared.mu.Unlock()

	type acc struct {
		sum   []float64
		shape []int
		count int
	}
	var order []string
	sums := make(map[string]*acc)

	for _, tower := range g.shared.towers {
		for _, grad := range tower {
			data := grad.Value.Data().([]float32)
			a, ok := sums[grad.Name]
			if !ok {
				a = &acc{sum: make([]float64, len(data)), shape: grad.Value.Shape()}
				sums[grad.Name] = a
				order = append(order, grad.Name)
			}
			for i, v := range data {
				a.sum[i] += float64(v)
			}
			a.count++
		}
	}

	merged := make([]optimiser.Gradient, 0, len(order))
	for _, name := range order {
		a := sums[name]
		avg := make([]float32, len(a.sum))
		for i, v := range a.sum {
			avg[i] = float32(v / float64(a.count))
		}
		merged = append(merged, optimiser.Gradient{Name: name, Value: ml.FromFloats(avg, a.shape...)})
	}
	return merged
}
