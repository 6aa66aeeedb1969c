// cmd_run.go - Handler und Ausfuehrungs-Schleife der Laeufe
// Hauptfunktionen: TrainHandler, EncodeHandler, runApplication
package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/vaeflow/vaeflow/autoencoder"
	"github.com/vaeflow/vaeflow/config"
	"github.com/vaeflow/vaeflow/engine"
	"github.com/vaeflow/vaeflow/envconfig"
	"github.com/vaeflow/vaeflow/ml"
	"github.com/vaeflow/vaeflow/monitor"
	"github.com/vaeflow/vaeflow/sampler"
	"github.com/vaeflow/vaeflow/store"
)

// runParams buendelt die aufgeloesten Parameter eines Laufs
type runParams struct {
	net    config.Net
	action config.Action
	data   config.Data
	task   config.Autoencoder

	isTraining bool
	maxSteps   int
}

// TrainHandler - Fuehrt einen Trainings-Lauf aus
func TrainHandler(cmd *cobra.Command, args []string) error {
	p, err := collectParams(cmd)
	if err != nil {
		return err
	}
	p.isTraining = true

	p.action.LearningRate, _ = cmd.Flags().GetFloat64("lr")
	p.net.LossType, _ = cmd.Flags().GetString("loss")
	p.net.RegType, _ = cmd.Flags().GetString("reg")
	p.net.Decay, _ = cmd.Flags().GetFloat64("decay")
	p.action.NumDevices, _ = cmd.Flags().GetInt("devices")
	p.action.RandomFlipAxes, _ = cmd.Flags().GetIntSlice("flip-axes")
	p.action.ScalingPercentage, _ = cmd.Flags().GetFloat64Slice("scaling")
	p.action.RotationAngle, _ = cmd.Flags().GetFloat64Slice("rotation")

	return runApplication(cmd.Context(), p)
}

// EncodeHandler - Fuehrt einen Encode-Lauf aus
func EncodeHandler(cmd *cobra.Command, args []string) error {
	return inferenceHandler(cmd, "encode")
}

// EncodeDecodeHandler - Fuehrt einen Rekonstruktions-Lauf aus
func EncodeDecodeHandler(cmd *cobra.Command, args []string) error {
	return inferenceHandler(cmd, "encode-decode")
}

// SampleHandler - Fuehrt einen Sampling-Lauf aus
func SampleHandler(cmd *cobra.Command, args []string) error {
	return inferenceHandler(cmd, "sample")
}

// InterpolateHandler - Fuehrt einen Interpolations-Lauf aus
func InterpolateHandler(cmd *cobra.Command, args []string) error {
	return inferenceHandler(cmd, "linear_interpolation")
}

// inferenceHandler - Gemeinsamer Ablauf der vier Inferenz-Commands
func inferenceHandler(cmd *cobra.Command, inferenceType string) error {
	p, err := collectParams(cmd)
	if err != nil {
		return err
	}
	p.task.InferenceType = inferenceType

	if f := cmd.Flags().Lookup("noise-stddev"); f != nil {
		p.task.NoiseStddev, _ = cmd.Flags().GetFloat64("noise-stddev")
	}
	if f := cmd.Flags().Lookup("interpolations"); f != nil {
		p.task.NInterpolations, _ = cmd.Flags().GetInt("interpolations")
	}

	return runApplication(cmd.Context(), p)
}

// collectParams - Liest die gemeinsamen Flags in die Parameter-Strukturen
func collectParams(cmd *cobra.Command) (runParams, error) {
	var p runParams

	p.net.Name, _ = cmd.Flags().GetString("network")
	p.net.BatchSize, _ = cmd.Flags().GetInt("batch-size")
	p.net.LatentDim, _ = cmd.Flags().GetInt("latent-dim")
	p.action.SpatialWindowSize, _ = cmd.Flags().GetIntSlice("window")
	p.action.SaveOutputDir, _ = cmd.Flags().GetString("output")
	p.action.NumDevices = 1
	p.maxSteps, _ = cmd.Flags().GetInt("steps")

	seed, _ := cmd.Flags().GetInt64("seed")
	if seed == 0 {
		seed = envconfig.Seed()
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	p.action.Seed = seed

	sources, _ := cmd.Flags().GetStringToString("source")
	if len(sources) > 0 {
		p.data.Sources = make(map[string]config.Source, len(sources))
		for channel, manifest := range sources {
			p.data.Sources[channel] = config.Source{ManifestPath: manifest}
		}
	}

	return p, nil
}

// runApplication - Initialisiert die Anwendung und treibt die
// Batch-Schleife bis zum Ende des Laufs
func runApplication(ctx context.Context, p runParams) error {
	app := autoencoder.New(p.net, p.action, p.isTraining, slog.Default())

	if err := app.InitialiseDataset(p.data, p.task); err != nil {
		return err
	}
	if err := app.InitialiseSampler(); err != nil {
		return err
	}
	if err := app.InitialiseNetwork(); err != nil {
		return err
	}

	runs := &store.Store{DBPath: envconfig.RunsDBPath()}
	defer runs.Close()
	run, err := runs.BeginRun(app.Mode().String(), p.action.SaveOutputDir)
	if err != nil {
		return err
	}

	events, err := monitor.NewWriter(p.action.SaveOutputDir)
	if err != nil {
		return err
	}
	defer events.Close()

	monitorCtx, stopMonitor := context.WithCancel(ctx)
	defer stopMonitor()
	if addr := envconfig.MonitorHost(); addr != "" && p.isTraining {
		go func() {
			if err := monitor.Serve(monitorCtx, events, addr); err != nil {
				slog.Warn("monitor endpoint failed", "error", err)
			}
		}()
	}

	batches, err := runBatches(ctx, app, p, events)
	if err != nil {
		// den Lauf auch im Fehlerfall abschliessen, sonst bleibt der
		// Eintrag in der Historie fuer immer "running"
		if ferr := runs.FinishRun(run.ID, batches); ferr != nil {
			slog.Warn("finish run failed", "id", run.ID, "error", ferr)
		}
		return err
	}

	if err := runs.FinishRun(run.ID, batches); err != nil {
		return err
	}
	slog.Info("run finished", "id", run.ID, "mode", app.Mode().String(), "batches", batches)
	return nil
}

// runBatches - Die Batch-Schleife: Towers verbinden, Ausgaben
// interpretieren, im Training Gradienten anwenden
func runBatches(ctx context.Context, app *autoencoder.Application, p runParams, events *monitor.Writer) (int, error) {
	var batches int
	for step := 1; p.maxSteps == 0 || step <= p.maxSteps; step++ {
		if err := ctx.Err(); err != nil {
			return batches, err
		}

		outputs := engine.NewOutputsCollector()
		gradients := engine.NewGradientsCollector(p.action.NumDevices)

		err := engine.ConnectTowers(ctx, app, outputs, gradients, p.action.NumDevices)
		if errors.Is(err, sampler.ErrExhausted) {
			return batches, nil
		}
		if err != nil {
			return batches, fmt.Errorf("batch %d: %w", step, err)
		}

		keepGoing, err := app.InterpretOutput(outputs.Values())
		if err != nil {
			return batches, fmt.Errorf("interpret batch %d: %w", step, err)
		}

		if p.isTraining {
			if err := app.Optimiser().ApplyGradients(gradients.Merged()); err != nil {
				return batches, fmt.Errorf("apply gradients at batch %d: %w", step, err)
			}
		}

		outputs.RenderConsole(os.Stdout)
		for _, b := range outputs.Bindings(engine.Monitor) {
			if ml.Elements(b.Value.Shape()) != 1 {
				continue
			}
			if err := events.Scalar(int64(step), b.Name, ml.First(b.Value)); err != nil {
				return batches, err
			}
		}

		batches++
		if !keepGoing {
			return batches, nil
		}
	}
	return batches, nil
}
