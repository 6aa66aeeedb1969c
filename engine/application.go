// Package engine - Anwendungs-Vertrag und Sammel-Infrastruktur
//
// Dieses Paket definiert das Interface zwischen einer Anwendung und
// der aeusseren Ausfuehrungs-Schleife sowie die Collector-Typen, in
// denen eine Anwendung pro Batch ihre Ausgaben und Gradienten
// deklariert.
//
// Hauptkomponenten:
// - Application: Lifecycle-Interface einer Anwendung
// - OutputsCollector / GradientsCollector: Batch-Sammelstellen
// - LookUp: Exakte Options-Validierung mit Vorschlag
package engine

import (
	"github.com/pdevine/tensor"

	"github.com/vaeflow/vaeflow/config"
)

// BatchOutput sind die eingesammelten, benannten Artefakte eines
// vollstaendig ausgewerteten Batches
type BatchOutput map[string]*tensor.Dense

// Application ist der Lifecycle-Vertrag zwischen einer Anwendung und
// der aeusseren Ausfuehrungs-Schleife. Die Reihenfolge ist fest:
// InitialiseDataset, InitialiseSampler, InitialiseNetwork einmalig;
// danach pro Batch ConnectDataAndNetwork (einmal je Device-Tower)
// gefolgt von InterpretOutput mit den eingesammelten Werten.
type Application interface {
	InitialiseDataset(dataCfg config.Data, taskCfg config.Autoencoder) error
	InitialiseSampler() error
	InitialiseNetwork() error

	// ConnectDataAndNetwork baut die Berechnung eines Batches auf
	// und deklariert Ausgaben und Gradienten in den Collectors
	ConnectDataAndNetwork(outputs *OutputsCollector, gradients *GradientsCollector) error

	// InterpretOutput finalisiert die Artefakte eines Batches;
	// false signalisiert das Ende des Laufs
	InterpretOutput(batch BatchOutput) (bool, error)
}
