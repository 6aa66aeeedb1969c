// plans.go - Eine Implementierung je Modus-Variante
//
// Dieses Modul enthaelt die fuenf Modus-Implementierungen. Jede
// Variante beantwortet alle vier Orchestrierungs-Fragen selbst:
// welche Daten-Kanaele gelesen werden, welche Sampling-Strategie
// laeuft, welcher Netzwerk-Teilgraph ausgewertet wird und wie die
// eingesammelten Ausgaben dekodiert werden. Dadurch koennen die vier
// Entscheidungen eines Modus nicht auseinanderlaufen.
//
// Ausgabe-Namen (unveraendert aus der Vorgaenger-Konvention):
// - variational_lower_bound: Trainings-Loss
// - location: Positions-Metadaten des Batches
// - embedded: Latent-Codes (Encode)
// - generated_image: Rekonstruierte Bilder
package autoencoder

import (
	"fmt"

	"github.com/pdevine/tensor"
	"gonum.org/v1/gonum/stat"

	"github.com/vaeflow/vaeflow/engine"
	"github.com/vaeflow/vaeflow/ml"
	"github.com/vaeflow/vaeflow/network"
	"github.com/vaeflow/vaeflow/optimiser"
	"github.com/vaeflow/vaeflow/sampler"
)

// modePlan ist der geschlossene Vertrag einer Modus-Variante
type modePlan interface {
	// channels sind die benoetigten Daten-Kanaele; leer bedeutet
	// keine Datenquelle
	channels() []string

	// newSampler waehlt die Sampling-Strategie; nil bedeutet, dass
	// Batches nicht gelesen, sondern synthetisiert werden
	newSampler(app *Application) (sampler.Sampler, error)

	// connect baut die Batch-Berechnung auf und deklariert Ausgaben
	// und Gradienten
	connect(app *Application, outputs *engine.OutputsCollector, gradients *engine.GradientsCollector) error

	// interpret finalisiert die eingesammelten Artefakte
	interpret(app *Application, batch engine.BatchOutput) (bool, error)
}

// ---------------------------------------------------------------------------
// Train
// ---------------------------------------------------------------------------

type trainPlan struct{}

func (trainPlan) channels() []string { return []string{"image"} }

func (trainPlan) newSampler(app *Application) (sampler.Sampler, error) {
	return sampler.NewResizeSampler(
		app.reader,
		app.actionParam.SpatialWindowSize,
		app.netParam.BatchSize,
		1,
		true,
		app.actionParam.Seed,
	)
}

func (trainPlan) connect(app *Application, outputs *engine.OutputsCollector, gradients *engine.GradientsCollector) error {
	device := gradients.CurrentTowerID()
	batch, err := app.sampler.PopBatch(device)
	if err != nil {
		return err
	}
	image, ok := batch["image"]
	if !ok {
		return fmt.Errorf("training batch has no image channel")
	}

	dataLoss, err := app.dataLoss(image)
	if err != nil {
		return err
	}
	loss := dataLoss + app.regularisationLoss()

	eval := func() (float64, error) {
		l, err := app.dataLoss(image)
		if err != nil {
			return 0, err
		}
		return l + app.regularisationLoss(), nil
	}
	grads, err := app.optimiser.ComputeGradients(optimiser.Loss{Value: loss, Eval: eval})
	if err != nil {
		return fmt.Errorf("compute gradients: %w", err)
	}
	if err := gradients.AddToCollection(grads); err != nil {
		return err
	}

	if err := outputs.AddToCollection(engine.Binding{
		Name: "variational_lower_bound", Value: ml.Scalar(dataLoss),
		AverageOverDevices: true, Collection: engine.Console,
	}); err != nil {
		return err
	}
	return outputs.AddToCollection(engine.Binding{
		Name: "variational_lower_bound", Value: ml.Scalar(dataLoss),
		AverageOverDevices: true, Collection: engine.Monitor,
	})
}

func (trainPlan) interpret(app *Application, batch engine.BatchOutput) (bool, error) {
	// training steps have nothing to decode
	return true, nil
}

// dataLoss wertet den vollen Vorwaerts-Durchlauf aus und berechnet den
// Daten-Loss
func (app *Application) dataLoss(image *tensor.Dense) (float64, error) {
	out, err := app.net.Forward(image, true)
	if err != nil {
		return 0, fmt.Errorf("forward pass: %w", err)
	}
	return app.lossFn(out), nil
}

// regularisationLoss ist der Mittelwert der Regularisierungs-Verluste;
// 0 ohne positiven Decay oder ohne Verluste
func (app *Application) regularisationLoss() float64 {
	if app.netParam.Decay <= 0 {
		return 0
	}
	reg, ok := app.net.(network.Regularised)
	if !ok {
		return 0
	}
	losses := reg.RegularisationLosses()
	if len(losses) == 0 {
		return 0
	}
	return stat.Mean(losses, nil)
}

// ---------------------------------------------------------------------------
// Encode / EncodeDecode
// ---------------------------------------------------------------------------

type encodePlan struct{}

func (encodePlan) channels() []string { return []string{"image"} }

func (encodePlan) newSampler(app *Application) (sampler.Sampler, error) {
	return newDeterministicResizeSampler(app)
}

func (encodePlan) connect(app *Application, outputs *engine.OutputsCollector, gradients *engine.GradientsCollector) error {
	out, err := app.forwardImageBatch(outputs)
	if err != nil {
		return err
	}

	return outputs.AddToCollection(engine.Binding{
		Name: "embedded", Value: out.Embedding,
		Collection: engine.Console,
	})
}

func (encodePlan) interpret(app *Application, batch engine.BatchOutput) (bool, error) {
	loc, err := locationColumns(batch, 0, 1)
	if err != nil {
		return false, err
	}
	artifact, ok := batch["embedded"]
	if !ok {
		return false, fmt.Errorf("batch output has no embedded artifact")
	}
	return app.outputDecoder.DecodeBatch(artifact, loc)
}

type encodeDecodePlan struct{}

func (encodeDecodePlan) channels() []string { return []string{"image"} }

func (encodeDecodePlan) newSampler(app *Application) (sampler.Sampler, error) {
	return newDeterministicResizeSampler(app)
}

func (encodeDecodePlan) connect(app *Application, outputs *engine.OutputsCollector, gradients *engine.GradientsCollector) error {
	out, err := app.forwardImageBatch(outputs)
	if err != nil {
		return err
	}

	return outputs.AddToCollection(engine.Binding{
		Name: "generated_image", Value: out.Reconstruction,
		Collection: engine.Console,
	})
}

func (encodeDecodePlan) interpret(app *Application, batch engine.BatchOutput) (bool, error) {
	loc, err := locationColumns(batch, 0, 1)
	if err != nil {
		return false, err
	}
	artifact, ok := batch["generated_image"]
	if !ok {
		return false, fmt.Errorf("batch output has no generated_image artifact")
	}
	return app.outputDecoder.DecodeBatch(artifact, loc)
}

// newDeterministicResizeSampler erstellt den Resize-Sampler der
// Encode-Modi: ohne Mischen, damit die Traversierungs-Reihenfolge zur
// Positions-Buchfuehrung der Ausgabe passt
func newDeterministicResizeSampler(app *Application) (sampler.Sampler, error) {
	return sampler.NewResizeSampler(
		app.reader,
		app.actionParam.SpatialWindowSize,
		app.netParam.BatchSize,
		1,
		false,
		app.actionParam.Seed,
	)
}

// forwardImageBatch liest einen Bild-Batch, wertet den vollen
// Vorwaerts-Durchlauf ohne Gradienten aus und deklariert die
// Positions-Ausgabe
func (app *Application) forwardImageBatch(outputs *engine.OutputsCollector) (*network.Output, error) {
	batch, err := app.sampler.PopBatch(0)
	if err != nil {
		return nil, err
	}
	image, ok := batch["image"]
	if !ok {
		return nil, fmt.Errorf("inference batch has no image channel")
	}

	out, err := app.net.Forward(image, false)
	if err != nil {
		return nil, fmt.Errorf("forward pass: %w", err)
	}

	if err := outputs.AddToCollection(engine.Binding{
		Name: "location", Value: batch["image_location"],
		Collection: engine.Console,
	}); err != nil {
		return nil, err
	}

	app.ensureOutputDecoder(app.reader)
	return out, nil
}

// ---------------------------------------------------------------------------
// Sample
// ---------------------------------------------------------------------------

type samplePlan struct{}

func (samplePlan) channels() []string { return nil }

func (samplePlan) newSampler(app *Application) (sampler.Sampler, error) {
	// batches are synthesised from noise inside connect
	return nil, nil
}

func (samplePlan) connect(app *Application, outputs *engine.OutputsCollector, gradients *engine.GradientsCollector) error {
	out, err := app.dummyForward()
	if err != nil {
		return err
	}

	noise := ml.Normal(out.Latent().Shape(), 0, app.taskParam.NoiseStddev, app.nextNoiseSeed())
	decoded, err := app.decodeCode(noise)
	if err != nil {
		return err
	}

	if err := outputs.AddToCollection(engine.Binding{
		Name: "generated_image", Value: decoded,
		Collection: engine.Console,
	}); err != nil {
		return err
	}

	app.ensureOutputDecoder(nil)
	return nil
}

func (samplePlan) interpret(app *Application, batch engine.BatchOutput) (bool, error) {
	artifact, ok := batch["generated_image"]
	if !ok {
		return false, fmt.Errorf("batch output has no generated_image artifact")
	}
	// whole-volume output, no location
	return app.outputDecoder.DecodeBatch(artifact, nil)
}

// ---------------------------------------------------------------------------
// Interpolate
// ---------------------------------------------------------------------------

type interpolatePlan struct{}

func (interpolatePlan) channels() []string { return []string{"feature"} }

func (interpolatePlan) newSampler(app *Application) (sampler.Sampler, error) {
	return sampler.NewLinearInterpolateSampler(
		app.reader,
		app.netParam.BatchSize,
		app.taskParam.NInterpolations,
	)
}

func (interpolatePlan) connect(app *Application, outputs *engine.OutputsCollector, gradients *engine.GradientsCollector) error {
	out, err := app.dummyForward()
	if err != nil {
		return err
	}

	batch, err := app.sampler.PopBatch(0)
	if err != nil {
		return err
	}
	code, ok := batch["feature"]
	if !ok {
		return fmt.Errorf("interpolation batch has no feature channel")
	}

	reshaped, err := ml.ReshapeAs(code, out.Latent().Shape())
	if err != nil {
		// *ml.ShapeMismatchError when the element counts disagree
		return err
	}
	decoded, err := app.decodeCode(reshaped)
	if err != nil {
		return err
	}

	if err := outputs.AddToCollection(engine.Binding{
		Name: "generated_image", Value: decoded,
		Collection: engine.Console,
	}); err != nil {
		return err
	}
	if err := outputs.AddToCollection(engine.Binding{
		Name: "location", Value: batch["feature_location"],
		Collection: engine.Console,
	}); err != nil {
		return err
	}

	app.ensureOutputDecoder(app.reader)
	return nil
}

func (interpolatePlan) interpret(app *Application, batch engine.BatchOutput) (bool, error) {
	// the first two columns encode the interpolation pair and step
	loc, err := locationColumns(batch, 0, 2)
	if err != nil {
		return false, err
	}
	artifact, ok := batch["generated_image"]
	if !ok {
		return false, fmt.Errorf("batch output has no generated_image artifact")
	}
	return app.outputDecoder.DecodeBatch(artifact, loc)
}

// ---------------------------------------------------------------------------
// gemeinsame Hilfen der Decoder-only Modi
// ---------------------------------------------------------------------------

// dummyForward fuehrt den Shape-Entdeckungs-Durchlauf aus: ein
// nullgefuellter Batch in konfigurierter Fenster-Groesse, rein um die
// Latent-Shape zu lernen, bevor Rauschen oder Codes geformt werden
func (app *Application) dummyForward() (*network.Output, error) {
	shape := append([]int{app.netParam.BatchSize}, app.actionParam.SpatialWindowSize...)
	shape = append(shape, 1)

	out, err := app.net.Forward(ml.Zeros(shape...), false)
	if err != nil {
		return nil, fmt.Errorf("shape discovery pass: %w", err)
	}
	return out, nil
}

// decodeCode schickt einen Latent-Code durch die Decoder-only
// Einstiegspunkte
func (app *Application) decodeCode(code *tensor.Dense) (*tensor.Dense, error) {
	partial, err := app.net.SharedDecoder(code, false)
	if err != nil {
		return nil, fmt.Errorf("shared decoder: %w", err)
	}
	decoded, err := app.net.DecoderMeans(partial, false)
	if err != nil {
		return nil, fmt.Errorf("decoder means: %w", err)
	}
	return decoded, nil
}

// locationColumns extrahiert die Spalten [from, to) der
// Positions-Ausgabe eines Batches
func locationColumns(batch engine.BatchOutput, from, to int) (*tensor.Dense, error) {
	loc, ok := batch["location"]
	if !ok {
		return nil, fmt.Errorf("batch output has no location")
	}
	cols, err := ml.Columns(loc, from, to)
	if err != nil {
		return nil, fmt.Errorf("location columns: %w", err)
	}
	return cols, nil
}
