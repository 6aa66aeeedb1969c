// Package autoencoder - Lebenszyklus der generativen Autoencoder-Anwendung
//
// Dieses Paket orchestriert die Anwendung ueber ihre fuenf Betriebsmodi:
// Training, Encoding, Encode-Decode-Rekonstruktion, unkonditioniertes
// Sampling und lineare Latent-Interpolation. Der Modus ist ab der
// Dataset-Initialisierung fest und bestimmt Datenquelle,
// Sampling-Strategie, Netzwerk-Teilaufruf und Ausgabe-Dekodierung;
// jede dieser Entscheidungen lebt in der Modus-Implementierung
// (modes.go, plans.go), damit keine inkonsistente Kombination
// entstehen kann.
//
// Hauptkomponenten:
// - Application: Implementiert engine.Application
// - InitialiseDataset/InitialiseSampler/InitialiseNetwork: Setup
// - ConnectDataAndNetwork: Batch-Konstruktion je Device-Tower
// - InterpretOutput: Finalisierung der Batch-Artefakte
package autoencoder

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/pdevine/tensor"

	"github.com/vaeflow/vaeflow/aggregator"
	"github.com/vaeflow/vaeflow/config"
	"github.com/vaeflow/vaeflow/engine"
	"github.com/vaeflow/vaeflow/layer"
	"github.com/vaeflow/vaeflow/network"
	"github.com/vaeflow/vaeflow/optimiser"
	"github.com/vaeflow/vaeflow/reader"
	"github.com/vaeflow/vaeflow/sampler"
)

// outputDecoder ist die Schnittstelle zum Aggregator-Kollaborateur
type outputDecoder interface {
	DecodeBatch(artifact, location *tensor.Dense) (bool, error)
}

// Application koordiniert den Lebenszyklus des generativen
// Autoencoders. Eine Instanz gehoert genau einem Lauf; der
// Aggregator wird beim ersten Verbindungs-Schritt eines
// Inferenz-Laufs erstellt und ueber alle Batches wiederverwendet.
type Application struct {
	logger *slog.Logger

	isTraining bool
	mode       Mode

	netParam    config.Net
	actionParam config.Action
	dataParam   config.Data
	taskParam   config.Autoencoder

	reader    reader.Reader
	sampler   sampler.Sampler
	net       network.Network
	lossFn    layer.Loss
	optimiser optimiser.Optimiser

	mu            sync.Mutex
	outputDecoder outputDecoder
	noiseSeq      uint64
}

var _ engine.Application = (*Application)(nil)

// New erstellt eine Anwendungs-Instanz. Der Logger ist der injizierte
// Beobachtungs-Kollaborateur; nil waehlt den Prozess-Default.
func New(netParam config.Net, actionParam config.Action, isTraining bool, logger *slog.Logger) *Application {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("starting autoencoder application")

	return &Application{
		logger:      logger,
		isTraining:  isTraining,
		netParam:    netParam,
		actionParam: actionParam,
	}
}

// Mode gibt den aktiven Modus zurueck; gueltig nach InitialiseDataset
func (app *Application) Mode() Mode { return app.mode }

// Optimiser gibt den Trainings-Optimierer zurueck; nil in Inferenz-Modi
func (app *Application) Optimiser() optimiser.Optimiser { return app.optimiser }

// InitialiseDataset bestimmt den Modus, waehlt die benoetigten
// Daten-Kanaele und initialisiert den Reader. Ein nicht
// unterstuetzter Inferenz-Typ schlaegt hier fehl, nicht erst beim
// ersten Batch.
func (app *Application) InitialiseDataset(dataCfg config.Data, taskCfg config.Autoencoder) error {
	app.dataParam = dataCfg
	app.taskParam = taskCfg

	if app.isTraining {
		app.mode = Train
	} else {
		mode, err := InferenceMode(taskCfg.InferenceType)
		if err != nil {
			return err
		}
		app.mode = mode
	}

	plan, err := app.mode.plan()
	if err != nil {
		return err
	}

	channels := plan.channels()
	if len(channels) == 0 {
		// sampling synthesises batches from noise and reads nothing
		app.reader = nil
		return nil
	}

	r := reader.NewImageReader(channels)
	if err := r.Initialise(dataCfg, taskCfg); err != nil {
		return err
	}
	r.AddPreprocessing(app.augmentationLayers()...)
	app.reader = r

	app.logger.Debug("dataset initialised", "mode", app.mode.String(), "channels", channels, "subjects", r.Len())
	return nil
}

// augmentationLayers baut die Vorverarbeitungs-Kette in fester
// Reihenfolge Flip, Skalierung, Rotation. Sie ist leer in allen
// Inferenz-Modi.
func (app *Application) augmentationLayers() []layer.Layer {
	if app.mode != Train {
		return nil
	}

	seed := app.actionParam.Seed
	var layers []layer.Layer
	if axes := app.actionParam.RandomFlipAxes; len(axes) > 0 && axes[0] != -1 {
		layers = append(layers, layer.NewRandomFlip(axes, seed))
	}
	if pct := app.actionParam.ScalingPercentage; len(pct) == 2 {
		layers = append(layers, layer.NewRandomSpatialScaling(pct[0], pct[1], seed+1))
	}
	if angle := app.actionParam.RotationAngle; len(angle) == 2 {
		layers = append(layers, layer.NewRandomRotation(angle[0], angle[1], seed+2))
	}
	return layers
}

// InitialiseSampler waehlt die Sampling-Strategie des Modus aus;
// im Sample-Modus bleibt der Sampler ungesetzt
func (app *Application) InitialiseSampler() error {
	plan, err := app.mode.plan()
	if err != nil {
		return err
	}

	s, err := plan.newSampler(app)
	if err != nil {
		return err
	}
	app.sampler = s
	return nil
}

// InitialiseNetwork erstellt das Netzwerk mit der konfigurierten
// Regularisierung; im Training zusaetzlich Loss-Funktion und Optimierer
func (app *Application) InitialiseNetwork() error {
	opts := network.Options{
		LatentDim: app.netParam.LatentDim,
		RegType:   strings.ToLower(app.netParam.RegType),
		Decay:     app.netParam.Decay,
		Seed:      uint64(app.actionParam.Seed),
	}

	net, err := network.New(app.netParam.Name, opts)
	if err != nil {
		return err
	}
	app.net = net

	if app.mode != Train {
		return nil
	}

	lossFn, err := layer.NewLossFunction(app.netParam.LossType)
	if err != nil {
		return err
	}
	app.lossFn = lossFn

	p, ok := net.(network.Parameterised)
	if !ok {
		return fmt.Errorf("%w: %q", network.ErrNotTrainable, app.netParam.Name)
	}
	app.optimiser = optimiser.NewAdam(app.actionParam.LearningRate, p.Parameters)
	return nil
}

// ConnectDataAndNetwork baut die Berechnung eines Batches fuer den
// aktuellen Device-Tower auf und deklariert die Ausgaben des Modus.
// Konstruktion und Deklaration laufen fuer einen Batch stets
// zusammenhaengend.
func (app *Application) ConnectDataAndNetwork(outputs *engine.OutputsCollector, gradients *engine.GradientsCollector) error {
	plan, err := app.mode.plan()
	if err != nil {
		return err
	}
	return plan.connect(app, outputs, gradients)
}

// InterpretOutput finalisiert die Artefakte eines Batches. Der
// Inferenz-Typ wird hier erneut validiert: die Funktion laeuft viele
// Male pro Lauf und darf nicht unter einer Konfiguration dekodieren,
// die das Setup nie geprueft hat.
func (app *Application) InterpretOutput(batch engine.BatchOutput) (bool, error) {
	if app.isTraining {
		return true, nil
	}

	mode, err := InferenceMode(app.taskParam.InferenceType)
	if err != nil {
		return false, err
	}
	plan, err := mode.plan()
	if err != nil {
		return false, err
	}
	return plan.interpret(app, batch)
}

// ensureOutputDecoder erstellt den Aggregator beim ersten
// Verbindungs-Schritt und verwendet ihn danach wieder
func (app *Application) ensureOutputDecoder(r reader.Reader) {
	app.mu.Lock()
	defer app.mu.Unlock()
	if app.outputDecoder == nil {
		app.outputDecoder = aggregator.New(r, app.actionParam.SaveOutputDir)
	}
}

// nextNoiseSeed liefert je Batch einen frischen Seed fuer die
// Rausch-Quelle
func (app *Application) nextNoiseSeed() uint64 {
	app.mu.Lock()
	defer app.mu.Unlock()
	app.noiseSeq++
	return uint64(app.actionParam.Seed) + app.noiseSeq
}
