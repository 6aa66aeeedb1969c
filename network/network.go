// Package network - Netzwerk-Interface und Registrierung
//
// Dieses Paket definiert das Interface fuer generative
// Autoencoder-Architekturen und stellt die Factory-Funktionen bereit.
//
// Hauptkomponenten:
// - Network: Interface fuer alle Architekturen
// - Output: Benanntes Ergebnis eines Vorwaerts-Durchlaufs
// - Register: Registriert Architektur-Konstruktoren
// - New: Erstellt neue Netzwerk-Instanzen
package network

import (
	"errors"
	"fmt"

	"github.com/pdevine/tensor"
)

// Fehler-Definitionen
var (
	ErrUnsupportedNetwork = errors.New("network architecture not supported")
	ErrNotTrainable       = errors.New("network does not expose parameters")
)

// Network definiert das Interface fuer Autoencoder-Architekturen.
// Forward ist der volle Durchlauf (Encoder und Decoder); SharedDecoder
// und DecoderMeans sind die benannten Decoder-Einstiegspunkte fuer die
// Decoder-only Auswertung mit injizierten Latent-Codes.
type Network interface {
	Forward(image *tensor.Dense, training bool) (*Output, error)
	SharedDecoder(code *tensor.Dense, training bool) (*tensor.Dense, error)
	DecoderMeans(partial *tensor.Dense, training bool) (*tensor.Dense, error)
}

// Parameterised ist ein optionales Interface fuer trainierbare Netze
type Parameterised interface {
	Parameters() map[string]*tensor.Dense
}

// Regularised ist ein optionales Interface fuer Netze mit
// Regularisierungs-Verlusten
type Regularised interface {
	RegularisationLosses() []float64
}

// Options parametrisieren die Netzwerk-Erstellung
type Options struct {
	// LatentDim ist die Dimension des Latent-Codes
	LatentDim int

	// RegType waehlt die Penalty-Funktion ("l1" oder "l2")
	RegType string

	// Decay ist der Regularisierungs-Koeffizient; 0 deaktiviert
	Decay float64

	// Seed initialisiert die Parameter-Initialisierung
	Seed uint64
}

// networks speichert registrierte Architektur-Konstruktoren
var networks = make(map[string]func(Options) (Network, error))

// Register registriert einen Architektur-Konstruktor
func Register(name string, f func(Options) (Network, error)) {
	if _, ok := networks[name]; ok {
		panic("network: architecture already registered")
	}

	networks[name] = f
}

// New erstellt eine neue Netzwerk-Instanz fuer die Architektur name
func New(name string, opts Options) (Network, error) {
	f, ok := networks[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedNetwork, name)
	}
	return f(opts)
}
