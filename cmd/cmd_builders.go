// cmd_builders.go - Command-Builder Funktionen
// Hauptfunktionen: newTrainCmd, newEncodeCmd, etc.
package cmd

import (
	"github.com/spf13/cobra"
)

// registerCommonFlags - Registriert die gemeinsamen Lauf-Flags
func registerCommonFlags(cmd *cobra.Command) {
	cmd.Flags().StringToString("source", nil, "Channel data source as channel=manifest.csv (repeatable)")
	cmd.Flags().String("network", "vae", "Registered network architecture")
	cmd.Flags().Int("batch-size", 8, "Number of samples per batch")
	cmd.Flags().Int("latent-dim", 32, "Dimension of the latent code")
	cmd.Flags().IntSlice("window", []int{28, 28}, "Spatial window size of the input")
	cmd.Flags().String("output", "output", "Directory for decoded artifacts")
	cmd.Flags().Int("steps", 0, "Maximum number of batches (0 = until exhausted)")
	cmd.Flags().Int64("seed", 0, "Random seed (0 = VAEFLOW_SEED or time based)")
}

// newTrainCmd - Erstellt den train Command
func newTrainCmd() *cobra.Command {
	trainCmd := &cobra.Command{
		Use:   "train",
		Short: "Train the autoencoder",
		Args:  cobra.NoArgs,
		RunE:  TrainHandler,
	}

	registerCommonFlags(trainCmd)
	trainCmd.Flags().Float64("lr", 1e-3, "Learning rate")
	trainCmd.Flags().String("loss", "variational_lower_bound", "Registered loss function")
	trainCmd.Flags().String("reg", "l2", "Regularisation type (l1 or l2)")
	trainCmd.Flags().Float64("decay", 0, "Regularisation coefficient (0 disables)")
	trainCmd.Flags().Int("devices", 1, "Number of device towers")
	trainCmd.Flags().IntSlice("flip-axes", nil, "Axes for random flip augmentation")
	trainCmd.Flags().Float64Slice("scaling", nil, "Min,max percentage for random scaling")
	trainCmd.Flags().Float64Slice("rotation", nil, "Min,max degrees for random rotation")

	return trainCmd
}

// newEncodeCmd - Erstellt den encode Command
func newEncodeCmd() *cobra.Command {
	encodeCmd := &cobra.Command{
		Use:   "encode",
		Short: "Encode inputs into latent codes",
		Args:  cobra.NoArgs,
		RunE:  EncodeHandler,
	}

	registerCommonFlags(encodeCmd)
	return encodeCmd
}

// newEncodeDecodeCmd - Erstellt den encode-decode Command
func newEncodeDecodeCmd() *cobra.Command {
	encodeDecodeCmd := &cobra.Command{
		Use:   "encode-decode",
		Short: "Reconstruct inputs through the autoencoder",
		Args:  cobra.NoArgs,
		RunE:  EncodeDecodeHandler,
	}

	registerCommonFlags(encodeDecodeCmd)
	return encodeDecodeCmd
}

// newSampleCmd - Erstellt den sample Command
func newSampleCmd() *cobra.Command {
	sampleCmd := &cobra.Command{
		Use:   "sample",
		Short: "Generate images from random latent codes",
		Args:  cobra.NoArgs,
		RunE:  SampleHandler,
	}

	registerCommonFlags(sampleCmd)
	sampleCmd.Flags().Float64("noise-stddev", 1.0, "Standard deviation of the latent noise")
	return sampleCmd
}

// newInterpolateCmd - Erstellt den interpolate Command
func newInterpolateCmd() *cobra.Command {
	interpolateCmd := &cobra.Command{
		Use:   "interpolate",
		Short: "Decode linear interpolations between latent codes",
		Args:  cobra.NoArgs,
		RunE:  InterpolateHandler,
	}

	registerCommonFlags(interpolateCmd)
	interpolateCmd.Flags().Int("interpolations", 10, "Number of interpolation steps per pair")
	return interpolateCmd
}

// newRunsCmd - Erstellt den runs Command
func newRunsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "runs",
		Short: "List past runs",
		Args:  cobra.NoArgs,
		RunE:  RunsHandler,
	}
}
