// Package networks - Referenz-Architekturen
//
// vae.go enthaelt einen linearen variationalen Autoencoder:
//   - Encoder: eine lineare Schicht fuer Posterior-Mittelwerte und
//     Log-Varianzen
//   - SharedDecoder: lineare Schicht mit tanh
//   - DecoderMeans/DecoderLogVars: lineare Ausgabe-Koepfe
//
// Die Parameter werden beim ersten Vorwaerts-Durchlauf anhand der
// Eingabe-Shape angelegt; Decoder-only Aufrufe setzen daher einen
// vorherigen (ggf. Dummy-) Vorwaerts-Durchlauf voraus.
package networks

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/pdevine/tensor"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/vaeflow/vaeflow/ml"
	"github.com/vaeflow/vaeflow/network"
)

func init() {
	network.Register("vae", NewVAE)
}

// ErrNotInitialised zeigt einen Decoder-Aufruf vor der Shape-Ermittlung an
var ErrNotInitialised = errors.New("vae: decoder invoked before a forward pass discovered the input shape")

// VAE ist ein linearer variationaler Autoencoder
type VAE struct {
	opts network.Options

	mu sync.Mutex

	// imageShape ist die Eingabe-Shape ohne Batch-Dimension,
	// ermittelt beim ersten Vorwaerts-Durchlauf
	imageShape []int
	flat       int

	encMeanW   *tensor.Dense
	encLogVarW *tensor.Dense
	decSharedW *tensor.Dense
	decMeanW   *tensor.Dense
	decLogVarW *tensor.Dense

	rng *rand.Rand
}

// NewVAE erstellt die Referenz-VAE-Architektur
func NewVAE(opts network.Options) (network.Network, error) {
	if opts.LatentDim <= 0 {
		return nil, fmt.Errorf("vae: latent dimension must be positive, got %d", opts.LatentDim)
	}
	return &VAE{
		opts: opts,
		rng:  rand.New(rand.NewSource(opts.Seed)),
	}, nil
}

// initParams legt die Parameter fuer die entdeckte Eingabe-Shape an
func (n *VAE) initParams(imageShape []int) error {
	flat := ml.Elements(imageShape)
	if n.flat != 0 {
		if flat != n.flat {
			return &ml.ShapeMismatchError{Got: imageShape, Want: n.imageShape}
		}
		return nil
	}

	l := n.opts.LatentDim
	dist := distuv.Normal{Mu: 0, Sigma: 1 / math.Sqrt(float64(flat)), Src: n.rng}
	small := distuv.Normal{Mu: 0, Sigma: 1 / math.Sqrt(float64(l)), Src: n.rng}

	n.encMeanW = randomTensor(dist, flat, l)
	n.encLogVarW = randomTensor(dist, flat, l)
	n.decSharedW = randomTensor(small, l, l)
	n.decMeanW = randomTensor(small, l, flat)
	n.decLogVarW = randomTensor(small, l, flat)
	n.imageShape = append([]int(nil), imageShape...)
	n.flat = flat
	return nil
}

func randomTensor(dist distuv.Normal, shape ...int) *tensor.Dense {
	backing := make([]float32, ml.Elements(shape))
	for i := range backing {
		backing[i] = float32(dist.Rand())
	}
	return ml.FromFloats(backing, shape...)
}

// Forward fuehrt den vollen Encoder-Decoder-Durchlauf aus
func (n *VAE) Forward(image *tensor.Dense, training bool) (*network.Output, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	shape := []int(image.Shape())
	if len(shape) < 2 {
		return nil, fmt.Errorf("vae: expected batched input, got shape %v", shape)
	}
	if err := n.initParams(shape[1:]); err != nil {
		return nil, err
	}

	batch := shape[0]
	x, err := ml.ReshapeAs(image, []int{batch, n.flat})
	if err != nil {
		return nil, err
	}

	posteriorMean, err := matmul(x, n.encMeanW)
	if err != nil {
		return nil, err
	}
	posteriorLogVar, err := matmul(x, n.encLogVarW)
	if err != nil {
		return nil, err
	}

	// codes are the posterior means; the sampled code adds noise
	// scaled by the posterior standard deviation during training
	code := posteriorMean
	sampleCode := code
	if training {
		sampleCode = n.reparameterise(posteriorMean, posteriorLogVar)
	}

	recon, reconLogVar, err := n.decodeLocked(code, batch)
	if err != nil {
		return nil, err
	}
	sample, sampleLogVar, err := n.decodeLocked(sampleCode, batch)
	if err != nil {
		return nil, err
	}

	return &network.Output{
		PosteriorMean:        posteriorMean,
		PosteriorLogVar:      posteriorLogVar,
		Reconstruction:       recon,
		ReconstructionLogVar: reconLogVar,
		Original:             image,
		Sample:               sample,
		SampleLogVar:         sampleLogVar,
		Embedding:            code,
	}, nil
}

// reparameterise zieht code = mean + eps * exp(logvar/2)
func (n *VAE) reparameterise(mean, logVar *tensor.Dense) *tensor.Dense {
	m := mean.Data().([]float32)
	lv := logVar.Data().([]float32)
	out := make([]float32, len(m))
	dist := distuv.Normal{Mu: 0, Sigma: 1, Src: n.rng}
	for i := range out {
		out[i] = m[i] + float32(dist.Rand())*float32(math.Exp(float64(lv[i])/2))
	}
	return ml.FromFloats(out, mean.Shape()...)
}

// decodeLocked dekodiert einen Code zu Mittelwerten und Log-Varianzen
// in Bild-Shape; der Aufrufer haelt n.mu
func (n *VAE) decodeLocked(code *tensor.Dense, batch int) (*tensor.Dense, *tensor.Dense, error) {
	partial, err := n.sharedDecoderLocked(code)
	if err != nil {
		return nil, nil, err
	}
	mean, err := n.headLocked(partial, n.decMeanW, batch)
	if err != nil {
		return nil, nil, err
	}
	logVar, err := n.headLocked(partial, n.decLogVarW, batch)
	if err != nil {
		return nil, nil, err
	}
	return mean, logVar, nil
}

func (n *VAE) sharedDecoderLocked(code *tensor.Dense) (*tensor.Dense, error) {
	if n.flat == 0 {
		return nil, ErrNotInitialised
	}
	h, err := matmul(code, n.decSharedW)
	if err != nil {
		return nil, err
	}
	data := h.Data().([]float32)
	for i, v := range data {
		data[i] = float32(math.Tanh(float64(v)))
	}
	return h, nil
}

func (n *VAE) headLocked(partial *tensor.Dense, w *tensor.Dense, batch int) (*tensor.Dense, error) {
	out, err := matmul(partial, w)
	if err != nil {
		return nil, err
	}
	return ml.ReshapeAs(out, append([]int{batch}, n.imageShape...))
}

// SharedDecoder ist der benannte Einstiegspunkt fuer injizierte Codes
func (n *VAE) SharedDecoder(code *tensor.Dense, training bool) (*tensor.Dense, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.sharedDecoderLocked(code)
}

// DecoderMeans dekodiert die Mittelwerte aus dem geteilten Decoder
func (n *VAE) DecoderMeans(partial *tensor.Dense, training bool) (*tensor.Dense, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.flat == 0 {
		return nil, ErrNotInitialised
	}
	batch := partial.Shape()[0]
	return n.headLocked(partial, n.decMeanW, batch)
}

// Parameters exponiert die trainierbaren Parameter
func (n *VAE) Parameters() map[string]*tensor.Dense {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.flat == 0 {
		return nil
	}
	return map[string]*tensor.Dense{
		"enc_mean_w":   n.encMeanW,
		"enc_logvar_w": n.encLogVarW,
		"dec_shared_w": n.decSharedW,
		"dec_mean_w":   n.decMeanW,
		"dec_logvar_w": n.decLogVarW,
	}
}

// RegularisationLosses bewertet alle Parameter mit der konfigurierten
// Penalty; leer wenn keine Regularisierung konfiguriert ist
func (n *VAE) RegularisationLosses() []float64 {
	penalty := network.PenaltyFor(n.opts.RegType, n.opts.Decay)
	if penalty == nil {
		return nil
	}

	var losses []float64
	for _, p := range n.Parameters() {
		losses = append(losses, n.opts.Decay*penalty(p))
	}
	return losses
}

func matmul(a, b *tensor.Dense) (*tensor.Dense, error) {
	out, err := tensor.MatMul(a, b)
	if err != nil {
		return nil, fmt.Errorf("matmul %v x %v: %w", a.Shape(), b.Shape(), err)
	}
	return out.(*tensor.Dense), nil
}
