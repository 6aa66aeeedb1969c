// Package sampler - Batch-Produktion fuer Training und Inferenz
//
// Dieses Paket definiert das Sampler-Interface und die beiden
// Fenster-Strategien:
// - ResizeSampler: Fenster fester Groesse, ein Fenster je Bild
// - LinearInterpolateSampler: Interpolierte Latent-Codes
//
// Ein Batch enthaelt je Kanal einen Daten-Tensor sowie einen
// "<kanal>_location" Tensor mit den Positions-Metadaten.
package sampler

import (
	"errors"

	"github.com/pdevine/tensor"
)

// ErrExhausted signalisiert das Ende einer deterministischen Traversierung
var ErrExhausted = errors.New("sampler: all subjects consumed")

// Batch sind die benannten Tensoren eines produzierten Batches
type Batch map[string]*tensor.Dense

// Sampler produziert Batches; deviceID erlaubt getrennte Batches je
// Device-Tower
type Sampler interface {
	PopBatch(deviceID int) (Batch, error)
}
