// Package reader - Datenquellen fuer die Autoencoder-Anwendung
//
// Dieses Paket definiert das Reader-Interface, das Sampler und
// Aggregator konsumieren, sowie den Datei-basierten ImageReader.
//
// Hauptkomponenten:
// - Reader: Interface fuer kanal-basierte Datenquellen
// - ImageReader: CSV-Manifest-Reader fuer Bild- und Feature-Kanaele
package reader

import (
	"github.com/pdevine/tensor"

	"github.com/vaeflow/vaeflow/config"
	"github.com/vaeflow/vaeflow/layer"
)

// Reader liefert benannte Tensoren je Subjekt und Kanal.
// Initialise muss vor der Uebergabe an einen Sampler mit der
// vollstaendigen Daten- und Task-Konfiguration aufgerufen werden.
type Reader interface {
	Initialise(dataCfg config.Data, taskCfg config.Autoencoder) error

	// AddPreprocessing bindet die Vorverarbeitungs-Kette an den
	// Reader; sie wird beim Lesen in Ketten-Reihenfolge angewendet
	AddPreprocessing(layers ...layer.Layer)

	// Len ist die Anzahl der Subjekte
	Len() int

	// Name gibt die Subjekt-ID an Position i zurueck
	Name(i int) string

	// Read liest die Tensoren aller Kanaele des Subjekts i
	Read(i int) (map[string]*tensor.Dense, error)
}
