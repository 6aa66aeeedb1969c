// Package monitor - Monitoring-Zusammenfassungen eines Laufs
//
// Dieses Paket nimmt die Skalar-Ausgaben der Monitoring-Sammlung
// entgegen, haengt sie als JSON-Zeilen an die Ereignis-Datei des
// Ausgabe-Verzeichnisses an und haelt den letzten Wert je Name fuer
// den HTTP-Endpunkt vor.
package monitor

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// Event ist ein einzelner Skalar-Messpunkt
type Event struct {
	Step  int64     `json:"step"`
	Name  string    `json:"name"`
	Value float64   `json:"value"`
	Time  time.Time `json:"time"`
}

// Writer schreibt Ereignisse und haelt den letzten Stand je Name
type Writer struct {
	mu     sync.Mutex
	f      *os.File
	latest map[string]Event
}

// NewWriter erstellt die Ereignis-Datei events.jsonl im Verzeichnis dir
func NewWriter(dir string) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create monitor directory: %w", err)
	}

	f, err := os.OpenFile(filepath.Join(dir, "events.jsonl"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open event file: %w", err)
	}
	return &Writer{f: f, latest: make(map[string]Event)}, nil
}

// Scalar haengt einen Skalar-Messpunkt an die Ereignis-Datei an
func (w *Writer) Scalar(step int64, name string, value float64) error {
	ev := Event{Step: step, Name: name, Value: value, Time: time.Now().UTC()}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.latest[name] = ev

	line, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if _, err := w.f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	return nil
}

// Latest gibt den letzten Messpunkt je Name zurueck, sortiert nach Name
func (w *Writer) Latest() []Event {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := make([]Event, 0, len(w.latest))
	for _, ev := range w.latest {
		out = append(out, ev)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Close schliesst die Ereignis-Datei
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.f.Close()
}
