// modes.go - Geschlossener Modus-Typ der Anwendung
//
// Dieses Modul enthaelt:
// - Mode: Einer von Train, Encode, EncodeDecode, Sample, Interpolate
// - InferenceMode: Validiert und parst den Inferenz-Typ-String
// - plan: Dispatch auf die Modus-Implementierung
//
// Genau ein Modus ist fuer die Lebensdauer einer Anwendungs-Instanz
// aktiv; Training und die vier Inferenz-Modi schliessen sich aus.
package autoencoder

import (
	"fmt"
	"strconv"

	"github.com/vaeflow/vaeflow/engine"
)

// Mode ist der feste Betriebsmodus einer Anwendungs-Instanz
type Mode int

const (
	Train Mode = iota
	Encode
	EncodeDecode
	Sample
	Interpolate
)

// Inferenz-Typ-Strings der Task-Konfiguration
const (
	inferEncode        = "encode"
	inferEncodeDecode  = "encode-decode"
	inferSample        = "sample"
	inferInterpolation = "linear_interpolation"
)

// SupportedInference sind die gueltigen Inferenz-Typen
var SupportedInference = []string{
	inferEncode,
	inferEncodeDecode,
	inferSample,
	inferInterpolation,
}

func (m Mode) String() string {
	switch m {
	case Train:
		return "train"
	case Encode:
		return inferEncode
	case EncodeDecode:
		return inferEncodeDecode
	case Sample:
		return inferSample
	case Interpolate:
		return inferInterpolation
	}
	return "mode(" + strconv.Itoa(int(m)) + ")"
}

// InferenceMode validiert den Inferenz-Typ per exakter Suche und gibt
// den zugehoerigen Modus zurueck. Ein unbekannter Typ ist ein
// *engine.ConfigurationError.
func InferenceMode(inferenceType string) (Mode, error) {
	v, err := engine.LookUp(inferenceType, SupportedInference)
	if err != nil {
		return 0, err
	}

	switch v {
	case inferEncode:
		return Encode, nil
	case inferEncodeDecode:
		return EncodeDecode, nil
	case inferSample:
		return Sample, nil
	case inferInterpolation:
		return Interpolate, nil
	}
	return 0, fmt.Errorf("%w: %q", engine.ErrUnreachableMode, v)
}

// plan gibt die Implementierung des Modus zurueck. Der Default-Zweig
// ist die defensive Invarianten-Pruefung: ein Modus ohne Zweig ist
// eine interne Verletzung, kein regulaerer Fehlerpfad.
func (m Mode) plan() (modePlan, error) {
	switch m {
	case Train:
		return trainPlan{}, nil
	case Encode:
		return encodePlan{}, nil
	case EncodeDecode:
		return encodeDecodePlan{}, nil
	case Sample:
		return samplePlan{}, nil
	case Interpolate:
		return interpolatePlan{}, nil
	}
	return nil, fmt.Errorf("%w: %s", engine.ErrUnreachableMode, m)
}
