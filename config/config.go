// config.go - Parameter-Strukturen fuer die Autoencoder-Anwendung
//
// Dieses Modul enthaelt:
// - Net: Netzwerk-Parameter (Architektur, Batch-Groesse, Regularisierung)
// - Action: Lauf-Parameter (Lernrate, Fenster-Groesse, Augmentierung)
// - Autoencoder: Task-Parameter (Inferenz-Typ, Interpolation, Rauschen)
// - Data: Datenquellen pro Kanal
//
// Die Strukturen werden unveraendert durch die Anwendung gereicht;
// das Parsen von Konfigurationsdateien gehoert nicht hierher.
package config

// Net beschreibt das Netzwerk und seine Trainings-Regularisierung.
type Net struct {
	// Name der registrierten Netzwerk-Architektur (z.B. "vae")
	Name string

	BatchSize int

	// LatentDim ist die Dimension des Latent-Codes
	LatentDim int

	// LossType waehlt die registrierte Loss-Funktion
	LossType string

	// RegType waehlt die Regularisierung ("l1" oder "l2")
	RegType string

	// Decay ist der Regularisierungs-Koeffizient; 0 deaktiviert
	Decay float64
}

// Action beschreibt die Parameter eines einzelnen Laufs.
type Action struct {
	// LearningRate fuer den Optimierer (nur Training)
	LearningRate float64

	// SpatialWindowSize ist die raeumliche Fenster-Groesse der Eingabe
	SpatialWindowSize []int

	// SaveOutputDir ist das Zielverzeichnis fuer dekodierte Artefakte
	SaveOutputDir string

	// RandomFlipAxes aktiviert Flip-Augmentierung entlang der Achsen;
	// leer deaktiviert
	RandomFlipAxes []int

	// ScalingPercentage ist das [min, max] Intervall der
	// Skalierungs-Augmentierung in Prozent; leer deaktiviert
	ScalingPercentage []float64

	// RotationAngle ist das [min, max] Intervall der
	// Rotations-Augmentierung in Grad; leer deaktiviert
	RotationAngle []float64

	// NumDevices ist die Anzahl der Device-Towers (>= 1)
	NumDevices int

	// Seed initialisiert alle Zufallsquellen des Laufs
	Seed int64
}

// Autoencoder enthaelt die Task-Parameter der Anwendung.
type Autoencoder struct {
	// InferenceType ist einer von "encode", "encode-decode",
	// "sample", "linear_interpolation"; im Training ungenutzt
	InferenceType string

	// NInterpolations ist die Anzahl der Interpolationsschritte
	// zwischen zwei Latent-Codes
	NInterpolations int

	// NoiseStddev ist die Standardabweichung der Rausch-Quelle
	// im Sample-Modus
	NoiseStddev float64
}

// Source beschreibt die Datenquelle eines einzelnen Kanals.
type Source struct {
	// ManifestPath ist der Pfad zur CSV-Manifestdatei
	// (Zeilen der Form "subject_id,dateipfad")
	ManifestPath string
}

// Data ordnet Kanal-Namen ihre Datenquellen zu.
type Data struct {
	Sources map[string]Source
}
